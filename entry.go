package bridge

import "context"

// CreateProvider constructs a Provider hosting api over peer and broadcasts
// READY. It is side-effect only: callers that need the Provider itself
// (e.g. to Close it) should use NewProvider directly.
func CreateProvider(peer Peer, api any, opts ProviderOptions) error {
	_, err := NewProvider(peer, api, opts)
	return err
}

// CreateConsumer binds to peer under name and blocks until the handshake
// completes, returning the root Remote. This is the Go-idiomatic substitute
// for the spec's Promise<T>: a synchronous function call already satisfies
// "await is mandatory and transitive" without promise machinery.
func CreateConsumer(ctx context.Context, peer Peer, name string, opts ConsumerOptions) (*Remote, error) {
	return NewConsumer(peer, name, opts).Init(ctx)
}
