package bridge

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic error handling.
// Use errors.Is() to check for these error types.
var (
	// ErrHandleNotFound indicates a CALL or RELEASE_HANDLE referenced a handle
	// id the Provider no longer (or never) holds.
	ErrHandleNotFound = errors.New("handle not found")

	// ErrMethodNotFound indicates a CALL's method path did not resolve to a
	// callable value.
	ErrMethodNotFound = errors.New("method not found")

	// ErrHandleReleased indicates a call was attempted against a Remote whose
	// handle has already been released; no wire traffic is sent.
	ErrHandleReleased = errors.New("handle released")

	// ErrHandshakeTimeout indicates no READY or INIT_ERROR arrived before the
	// Consumer's configured timeout elapsed.
	ErrHandshakeTimeout = errors.New("initialization timeout")

	// ErrPeerUnavailable indicates a CALL could not be attempted because the
	// target peer is no longer reachable (e.g. the Consumer was closed).
	ErrPeerUnavailable = errors.New("peer unavailable")

	// ErrInitFailed indicates the Provider reported INIT_ERROR.
	ErrInitFailed = errors.New("provider initialization failed")
)

// HandleError wraps ErrHandleNotFound/ErrHandleReleased with the offending
// handle id. Its text reads "handle <id>: handle not found" or "handle <id>:
// handle released", and the Provider sends that same text in ERROR for a
// missing handle.
type HandleError struct {
	Err error  // ErrHandleNotFound or ErrHandleReleased
	ID  string // handle id
}

func (e *HandleError) Error() string {
	return fmt.Sprintf("handle %s: %s", e.ID, e.Err.Error())
}

func (e *HandleError) Unwrap() error {
	return e.Err
}

// MethodError wraps ErrMethodNotFound with the dotted method path that
// failed to resolve. An empty path denotes the root handle value itself.
type MethodError struct {
	Err    error
	Method string
}

func (e *MethodError) Error() string {
	m := e.Method
	if m == "" {
		m = `"<root>"`
	}
	return fmt.Sprintf("method %s: %s", m, e.Err.Error())
}

func (e *MethodError) Unwrap() error {
	return e.Err
}

// RemoteError carries a Provider-side invocation failure across the wire.
// The original cause is not preserved structurally — only its stringified
// message — matching the wire protocol's error-shape normalisation.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

func newHandleError(sentinel error, id string) error {
	return &HandleError{Err: sentinel, ID: id}
}

func newMethodError(method string) error {
	return &MethodError{Err: ErrMethodNotFound, Method: method}
}
