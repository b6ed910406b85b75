// Package bridge provides a bidirectional object-capability RPC core over an
// unordered, asynchronous, same-process message channel.
//
// One side (the Provider) hosts a user-supplied API value that may contain
// plain values, arbitrarily nested sub-values, slices, structured-clone
// pass-through types (time.Time, *regexp.Regexp, []byte, and anything
// implementing PassThrough), and functions at any depth. The other side (the
// Consumer) obtains a Remote that lets callers read the non-function values
// directly and invoke every function as an asynchronous operation returning
// (any, error). When a call's return value itself contains functions, the
// Provider transparently issues a handle so that subsequent calls on that
// returned value cross the channel correctly; handles have bounded
// lifetimes on both sides.
//
// # Transport
//
// bridge does not implement a transport. Both peers talk through the Peer
// interface, which models any delivery mechanism capable of moving
// byte-encoded envelopes between two ends — an in-process channel pair (see
// bridgetest), a Unix socket, a WebSocket. Only delivery semantics matter:
// messages from one peer to the other arrive in the order they were sent,
// and nothing more is assumed.
//
// # Values vs. functions
//
// At construction, the Provider walks the API value once and builds two
// static artifacts: a value snapshot (a deep copy with every function
// removed) and a function path set (the dotted paths at which a function is
// reachable). Neither changes after construction — bridge does not
// synchronize live mutations of the API value across the channel.
//
// # Handles
//
// A call result that is itself a function, or a composite value containing
// one, is wrapped in a handle: a Provider-side id bound to that value.
// Subsequent Consumer-side calls against the handle's Remote route through
// that id. Handles are released explicitly (Remote.Release), by garbage
// collection of the Remote, by an idle TTL sweep on the Provider, or by a
// page-lifecycle-equivalent batch release the host can trigger.
//
// # Non-goals
//
// No live synchronization of value mutations after handshake; no
// cross-environment security beyond origin allow-lists and target origins;
// no ordering guarantees beyond per-request id correlation; no queueing of
// calls issued before the handshake completes; no passing of functions as
// call arguments.
package bridge
