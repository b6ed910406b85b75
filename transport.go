package bridge

import "context"

// Message is one inbound delivery on a Peer's Inbox.
type Message struct {
	Data   []byte
	Origin string
}

// Peer models one end of the asynchronous, same-process message channel the
// spec describes as "conceptually postMessage between two browsing
// contexts." Only delivery semantics matter to bridge: messages sent through
// a Peer arrive on its counterpart's Inbox in the order they were sent, and
// nothing more is assumed — no request/response pairing, no backpressure
// signalling beyond what Send's error return conveys.
//
// bridgetest.NewPair provides the in-process implementation every test in
// this module drives. A production deployment satisfies Peer over a real
// transport (a socket, a pipe, a message queue).
type Peer interface {
	// Send delivers data to the counterpart peer, tagged with targetOrigin.
	// Implementations that have no notion of origin may ignore the value.
	Send(ctx context.Context, data []byte, targetOrigin string) error

	// Inbox returns the channel this peer's counterpart posts to. It is
	// closed when the peer is torn down.
	Inbox() <-chan Message
}

// OriginPolicy decides whether an inbound Message's origin is accepted.
// The zero value accepts everything.
type OriginPolicy struct {
	allow func(origin string) bool
}

// AllowAllOrigins accepts every origin — the default when no policy is set.
func AllowAllOrigins() OriginPolicy {
	return OriginPolicy{}
}

// AllowOrigins accepts only the listed origins (membership test).
func AllowOrigins(origins ...string) OriginPolicy {
	set := make(map[string]bool, len(origins))
	for _, o := range origins {
		set[o] = true
	}
	return OriginPolicy{allow: func(origin string) bool { return set[origin] }}
}

// AllowOriginFunc accepts an origin exactly when predicate returns true.
func AllowOriginFunc(predicate func(origin string) bool) OriginPolicy {
	return OriginPolicy{allow: predicate}
}

func (p OriginPolicy) allows(origin string) bool {
	if p.allow == nil {
		return true
	}
	return p.allow(origin)
}
