// Package bridgetest provides the fake paired channel used to drive a
// Provider and a Consumer against each other in a single process, standing
// in for a real postMessage-style transport.
package bridgetest

import (
	"context"
	"errors"
	"sync"

	"github.com/zoobzio/bridge"
)

// Peer is one end of an in-process pair. Sends land on the counterpart's
// Inbox in the order they were posted; nothing more is guaranteed, matching
// bridge.Peer's contract.
type Peer struct {
	inbox       chan bridge.Message
	counterpart *Peer

	mu   sync.Mutex
	fail bool
}

// NewPair returns two Peers wired to each other's inboxes.
func NewPair() (a, b *Peer) {
	a = &Peer{inbox: make(chan bridge.Message, 64)}
	b = &Peer{inbox: make(chan bridge.Message, 64)}
	a.counterpart, b.counterpart = b, a
	return a, b
}

// Send delivers data to the counterpart's inbox, tagged with targetOrigin.
func (p *Peer) Send(ctx context.Context, data []byte, targetOrigin string) error {
	p.mu.Lock()
	fail := p.fail
	p.mu.Unlock()
	if fail {
		return errors.New("bridgetest: simulated send failure")
	}
	cp := append([]byte(nil), data...)
	select {
	case p.counterpart.inbox <- bridge.Message{Data: cp, Origin: targetOrigin}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Inbox returns the channel this peer's counterpart posts to.
func (p *Peer) Inbox() <-chan bridge.Message {
	return p.inbox
}

// FailSend toggles synthetic send failures, for exercising INIT_ERROR and
// handshake-timeout paths without a real broken transport.
func (p *Peer) FailSend(fail bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail = fail
}

// Close closes the inbox, terminating any loop ranging over it.
func (p *Peer) Close() {
	close(p.inbox)
}
