package bridge

import (
	"context"
	"fmt"
	"sync"
	"time"
	"weak"

	"github.com/zoobzio/bridge/wire/jsonwire"
)

// PageHidePolicy controls whether a page-hide-equivalent teardown event
// releases active handles.
type PageHidePolicy string

const (
	// PageHideNonPersisted releases handles only when the teardown event
	// reports a non-persisted transition (the default).
	PageHideNonPersisted PageHidePolicy = "nonPersisted"
	// PageHideAll releases every active handle unconditionally.
	PageHideAll PageHidePolicy = "all"
	// PageHideOff ignores the event entirely.
	PageHideOff PageHidePolicy = "off"
)

// ConsumerOptions configures a Consumer. The zero value is NOT a usable
// configuration: Timeout's zero value is meaningful
// (§8's boundary behaviour "handshake timeout ≤ 0 → rejection before any
// receipt"), so it is never defaulted. Use DefaultConsumerOptions for a
// sensible starting point.
type ConsumerOptions struct {
	// Timeout bounds how long Init waits for READY/INIT_ERROR. Values <= 0
	// reject immediately, before the message loop ever starts.
	Timeout time.Duration

	// GCSweepInterval is how often the fallback weak-reference sweeper runs,
	// catching handles whose runtime.AddCleanup callback never fired.
	// Zero defaults to 60s.
	GCSweepInterval time.Duration

	// ReleaseOnPageHide controls PageHide's release policy. Empty defaults
	// to PageHideNonPersisted.
	ReleaseOnPageHide PageHidePolicy

	// HideStructure selects the lazy resolver (true) over the materialised
	// one (false, the default).
	HideStructure bool

	// AllowedOrigins filters inbound messages. The zero value accepts all.
	AllowedOrigins OriginPolicy

	// TargetOrigin is used for outgoing CALL/RELEASE_HANDLE. Empty
	// defaults to "*".
	TargetOrigin string

	// Codec encodes/decodes envelopes. Defaults to a JSON codec.
	Codec Codec
}

// DefaultConsumerOptions returns the documented defaults for every field
// except Timeout, which callers must set explicitly (a 5s suggestion is
// applied here, but see ConsumerOptions.Timeout's doc for why the zero
// value is never silently substituted elsewhere).
func DefaultConsumerOptions() ConsumerOptions {
	return ConsumerOptions{
		Timeout:           5 * time.Second,
		GCSweepInterval:   60 * time.Second,
		ReleaseOnPageHide: PageHideNonPersisted,
	}
}

func (o ConsumerOptions) withDefaults() ConsumerOptions {
	if o.GCSweepInterval == 0 {
		o.GCSweepInterval = 60 * time.Second
	}
	if o.ReleaseOnPageHide == "" {
		o.ReleaseOnPageHide = PageHideNonPersisted
	}
	if o.TargetOrigin == "" {
		o.TargetOrigin = defaultTargetOrigin
	}
	if o.Codec == nil {
		o.Codec = jsonwire.New()
	}
	return o
}

// Consumer binds to the first Provider that answers with a matching READY,
// then correlates outgoing CALLs against RESULT/ERROR by id.
type Consumer struct {
	peer           Peer
	name           string
	codec          Codec
	targetOrigin   string
	allowedOrigins OriginPolicy

	timeout           time.Duration
	gcSweepInterval   time.Duration
	releaseOnPageHide PageHidePolicy
	hideStructure     bool

	pending *pendingCallTable

	mu      sync.Mutex
	bound   bool
	initErr error
	remote  *Remote
	ready   chan struct{}

	released      map[string]bool
	activeHandles map[string]weak.Pointer[Remote]

	stop    chan struct{}
	closed  bool
	closeMu sync.Mutex
}

// NewConsumer builds a Consumer bound to peer under the given channel name.
// Call Init to run the handshake and obtain the root Remote.
func NewConsumer(peer Peer, name string, opts ConsumerOptions) *Consumer {
	opts = opts.withDefaults()
	return &Consumer{
		peer:              peer,
		name:              name,
		codec:             opts.Codec,
		targetOrigin:      opts.TargetOrigin,
		allowedOrigins:    opts.AllowedOrigins,
		timeout:           opts.Timeout,
		gcSweepInterval:   opts.GCSweepInterval,
		releaseOnPageHide: opts.ReleaseOnPageHide,
		hideStructure:     opts.HideStructure,
		pending:           newPendingCallTable(),
		ready:             make(chan struct{}),
		released:          make(map[string]bool),
		activeHandles:     make(map[string]weak.Pointer[Remote]),
		stop:              make(chan struct{}),
	}
}

// Init runs the Waiting -> Ready handshake: it starts the message loop and
// GC sweeper, waits for the first READY or INIT_ERROR from an allowed
// origin, and returns the root Remote (or the initialisation error).
func (c *Consumer) Init(ctx context.Context) (*Remote, error) {
	if c.timeout <= 0 {
		emitConsumerTimeout(c.name)
		return nil, ErrHandshakeTimeout
	}

	go c.loop()
	go c.gcSweepLoop()

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case <-c.ready:
		c.mu.Lock()
		err, remote := c.initErr, c.remote
		c.mu.Unlock()
		if err != nil {
			return nil, err
		}
		emitConsumerBound(c.name)
		return remote, nil
	case <-timer.C:
		emitConsumerTimeout(c.name)
		c.shutdown()
		return nil, ErrHandshakeTimeout
	case <-ctx.Done():
		c.shutdown()
		return nil, ctx.Err()
	}
}

// Close stops the message loop and GC sweeper. It does not release
// outstanding handles; call Release on each Remote for that.
func (c *Consumer) Close() {
	c.shutdown()
}

func (c *Consumer) shutdown() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.stop)
}

func (c *Consumer) peerGone() bool {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	return c.closed
}

func (c *Consumer) loop() {
	for {
		select {
		case <-c.stop:
			return
		case msg, ok := <-c.peer.Inbox():
			if !ok {
				return
			}
			c.handleMessage(msg)
		}
	}
}

func (c *Consumer) gcSweepLoop() {
	ticker := time.NewTicker(c.gcSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweepCollected()
		}
	}
}

// sweepCollected is the fallback auto-release path: a periodic check for
// handle-scoped Remotes the garbage collector has already reclaimed without
// runtime.AddCleanup's callback having run yet.
func (c *Consumer) sweepCollected() {
	c.mu.Lock()
	var collected []string
	for id, wp := range c.activeHandles {
		if wp.Value() == nil {
			collected = append(collected, id)
			delete(c.activeHandles, id)
		}
	}
	c.mu.Unlock()
	for _, id := range collected {
		c.autoRelease(id)
	}
}

func (c *Consumer) handleMessage(msg Message) {
	if !c.allowedOrigins.allows(msg.Origin) {
		emitOriginDropped(c.name, msg.Origin)
		return
	}
	var env Envelope
	if err := c.codec.Unmarshal(msg.Data, &env); err != nil {
		return
	}
	if env.Protocol != protocolName || env.Name != c.name {
		return
	}
	switch env.Type {
	case MsgReady:
		c.handleReady(env)
	case MsgInitError:
		c.handleInitError(env)
	case MsgResult:
		c.pending.resolve(env.ID, c.materializeResult(env.Result))
	case MsgError:
		c.pending.reject(env.ID, &RemoteError{Message: env.Error})
	default:
		// CALL/GET/RELEASE_HANDLE travel Consumer -> Provider only.
	}
}

// handleReady implements "first READY wins": once bound, further READYs
// (e.g. a racing reply to a duplicate GET) are ignored.
func (c *Consumer) handleReady(env Envelope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bound {
		return
	}
	c.bound = true

	var values any
	var functions []string
	if env.Payload != nil {
		values = env.Payload.Values
		functions = env.Payload.Functions
	}
	s := &scope{
		consumer:  c,
		handle:    "",
		values:    values,
		functions: stringSet(functions),
		canonical: buildCanonicalIndex(values),
	}
	c.remote = newRemote(s, c.hideStructure)
	close(c.ready)
}

func (c *Consumer) handleInitError(env Envelope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bound {
		return
	}
	c.bound = true
	c.initErr = fmt.Errorf("%w: %s", ErrInitFailed, env.Error)
	close(c.ready)
}

// materializeResult converts a decoded RESULT payload into a *Remote when it
// is a handle reference, leaving every other value untouched.
func (c *Consumer) materializeResult(v any) any {
	ref, ok := asHandleRef(v)
	if !ok {
		return v
	}
	s := &scope{
		consumer:       c,
		handle:         ref.ID,
		values:         ref.Values,
		functions:      stringSet(ref.Functions),
		canonical:      buildCanonicalIndex(ref.Values),
		rootIsFunction: ref.Kind == HandleFunction,
	}
	r := newRemote(s, c.hideStructure)
	c.trackHandle(ref.ID, r)
	return r
}

// trackHandle registers r for auto-release: runtime.AddCleanup fires when r
// becomes unreachable (the primary path), and a weak reference backs the
// periodic sweep fallback for hosts where that callback is delayed past
// process lifetime.
func (c *Consumer) trackHandle(id string, r *Remote) {
	addHandleCleanup(r, func() { c.autoRelease(id) })
	c.mu.Lock()
	c.activeHandles[id] = weak.Make(r)
	c.mu.Unlock()
}

func (c *Consumer) autoRelease(id string) {
	if c.markReleased(id) {
		c.sendRelease(id)
	}
}

// markReleased records id as released and reports whether this call is the
// one that transitioned it (so release-triggering wire traffic fires at
// most once per handle, whether from an explicit Remote.Release or from
// auto-release).
func (c *Consumer) markReleased(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released[id] {
		return false
	}
	c.released[id] = true
	return true
}

func (c *Consumer) isReleased(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.released[id]
}

func (c *Consumer) sendRelease(id string) {
	emitHandleReleased(c.name, id)
	env := newReleaseHandle(c.name, id)
	data, err := c.codec.Marshal(env)
	if err != nil {
		return
	}
	_ = c.peer.Send(context.Background(), data, c.targetOrigin) // best-effort
}

// ReleaseAll releases every active handle, the Go equivalent of the
// before-unload teardown event: always fires, ignoring ReleaseOnPageHide.
func (c *Consumer) ReleaseAll() {
	c.mu.Lock()
	ids := make([]string, 0, len(c.activeHandles))
	for id := range c.activeHandles {
		ids = append(ids, id)
	}
	c.mu.Unlock()
	for _, id := range ids {
		c.autoRelease(id)
	}
}

// PageHide applies ReleaseOnPageHide's policy to every active handle.
// nonPersisted releases only when persisted is false.
func (c *Consumer) PageHide(persisted bool) {
	switch c.releaseOnPageHide {
	case PageHideOff:
		return
	case PageHideAll:
		c.ReleaseAll()
	case PageHideNonPersisted:
		if !persisted {
			c.ReleaseAll()
		}
	}
}

// invoke posts a CALL for method within handle's scope (handle == "" for
// the root) and blocks for the matching RESULT/ERROR, or ctx's expiry.
func (c *Consumer) invoke(ctx context.Context, handle, method string, args []any) (any, error) {
	if handle != "" && c.isReleased(handle) {
		return nil, newHandleError(ErrHandleReleased, handle)
	}
	if c.peerGone() {
		return nil, ErrPeerUnavailable
	}

	id, ch := c.pending.register()
	env := newCall(c.name, id, method, handle, args)
	data, err := c.codec.Marshal(env)
	if err != nil {
		c.pending.drop(id)
		return nil, err
	}
	if err := c.peer.Send(ctx, data, c.targetOrigin); err != nil {
		c.pending.drop(id)
		return nil, err
	}

	select {
	case res := <-ch:
		return res.value, res.err
	case <-ctx.Done():
		c.pending.drop(id)
		return nil, ctx.Err()
	case <-c.stop:
		c.pending.drop(id)
		return nil, ErrPeerUnavailable
	}
}

func stringSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, s := range items {
		set[s] = true
	}
	return set
}
