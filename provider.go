package bridge

import (
	"context"
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/zoobzio/bridge/wire/jsonwire"
)

// ProviderOptions configures a Provider. The zero value is valid: Codec and
// TargetOrigin fall back to their defaults via withDefaults, and a zero
// HandleTTL or SweepInterval disables the handle TTL sweeper.
type ProviderOptions struct {
	// Name is the channel name carried on every envelope.
	Name string

	// HandleTTL is how long a handle may sit idle before the sweeper
	// reclaims it. Zero disables the sweeper entirely (handles never
	// expire), matching SweepInterval == 0.
	HandleTTL time.Duration

	// SweepInterval is how often the TTL sweeper runs. Zero disables it.
	SweepInterval time.Duration

	// AllowedOrigins filters inbound messages. The zero value accepts all.
	AllowedOrigins OriginPolicy

	// TargetOrigin is used for the initial READY broadcast; responses echo
	// the request's own origin.
	TargetOrigin string

	// Codec encodes/decodes envelopes. Defaults to a JSON codec.
	Codec Codec
}

const (
	defaultHandleTTL     = 10 * time.Minute
	defaultSweepInterval = 60 * time.Second
	defaultTargetOrigin  = "*"
)

func (o ProviderOptions) withDefaults() ProviderOptions {
	if o.Codec == nil {
		o.Codec = jsonwire.New()
	}
	if o.TargetOrigin == "" {
		o.TargetOrigin = defaultTargetOrigin
	}
	return o
}

// Provider hosts a user-supplied API value and answers CALL/GET/
// RELEASE_HANDLE messages from a Consumer over a Peer.
type Provider struct {
	peer           Peer
	name           string
	api            any
	codec          Codec
	targetOrigin   string
	allowedOrigins OriginPolicy

	handles *handleTable

	snapshot  any
	functions []string

	handleTTL     time.Duration
	sweepInterval time.Duration
	stop          chan struct{}
}

// NewProvider builds the value snapshot and function path set for api,
// broadcasts READY to peer, and starts the message loop and (if configured)
// the handle TTL sweeper. If snapshot construction or the initial send
// fails, it attempts to emit INIT_ERROR before returning the error.
func NewProvider(peer Peer, api any, opts ProviderOptions) (*Provider, error) {
	opts = opts.withDefaults()

	p := &Provider{
		peer:           peer,
		name:           opts.Name,
		api:            api,
		codec:          opts.Codec,
		targetOrigin:   opts.TargetOrigin,
		allowedOrigins: opts.AllowedOrigins,
		handles:        newHandleTable(),
		handleTTL:      opts.HandleTTL,
		sweepInterval:  opts.SweepInterval,
		stop:           make(chan struct{}),
	}
	if p.handleTTL == 0 {
		p.handleTTL = defaultHandleTTL
	}
	if p.sweepInterval == 0 {
		p.sweepInterval = defaultSweepInterval
	}
	// The sweeper runs only when both HandleTTL and SweepInterval are
	// non-zero in opts. An unset field cannot be told apart from an explicit
	// zero, so leaving either one unset disables the sweeper; the defaults
	// assigned above never reach a running sweeper.
	sweeperEnabled := opts.HandleTTL != 0 && opts.SweepInterval != 0

	p.snapshot = cloneValuesOnly(api)
	p.functions = collectFunctionPaths(api)

	if err := p.broadcastReady(); err != nil {
		p.sendInitError(err)
		return p, err
	}
	emitReady(p.name)

	go p.loop()
	if sweeperEnabled {
		go p.sweepLoop()
	}
	return p, nil
}

func (p *Provider) broadcastReady() error {
	data, err := p.codec.Marshal(newReady(p.name, p.snapshot, p.functions))
	if err != nil {
		return err
	}
	return p.peer.Send(context.Background(), data, p.targetOrigin)
}

func (p *Provider) sendInitError(cause error) {
	emitInitError(p.name, cause)
	data, err := p.codec.Marshal(newInitError(p.name, serializeError(cause)))
	if err != nil {
		return
	}
	_ = p.peer.Send(context.Background(), data, p.targetOrigin) // best-effort; give up on failure
}

// Close stops the message loop and sweeper. It does not touch the
// underlying Peer.
func (p *Provider) Close() {
	close(p.stop)
}

func (p *Provider) loop() {
	for {
		select {
		case <-p.stop:
			return
		case msg, ok := <-p.peer.Inbox():
			if !ok {
				return
			}
			p.handleMessage(msg)
		}
	}
}

func (p *Provider) sweepLoop() {
	ticker := time.NewTicker(p.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			for _, id := range p.handles.sweep(p.handleTTL) {
				emitHandleExpired(p.name, id)
			}
		}
	}
}

func (p *Provider) handleMessage(msg Message) {
	if !p.allowedOrigins.allows(msg.Origin) {
		emitOriginDropped(p.name, msg.Origin)
		return
	}
	var env Envelope
	if err := p.codec.Unmarshal(msg.Data, &env); err != nil {
		return
	}
	if env.Protocol != protocolName || env.Name != p.name {
		return // unrelated channel or protocol; ignore silently
	}
	switch env.Type {
	case MsgGet:
		p.handleGet(msg.Origin)
	case MsgCall:
		p.handleCall(env, msg.Origin)
	case MsgReleaseHandle:
		p.handles.release(env.Handle)
		emitHandleReleased(p.name, env.Handle)
	default:
		// READY/RESULT/ERROR/INIT_ERROR travel Provider -> Consumer only;
		// anything else unrecognised is ignored per the wire contract.
	}
}

func (p *Provider) handleGet(origin string) {
	data, err := p.codec.Marshal(newReady(p.name, p.snapshot, p.functions))
	if err != nil {
		return
	}
	_ = p.peer.Send(context.Background(), data, origin)
}

func (p *Provider) handleCall(env Envelope, origin string) {
	start := time.Now()
	emitCallReceived(p.name, env.Method)

	result, callErr := p.dispatch(env)

	emitCallCompleted(p.name, env.Method, time.Since(start), callErr)

	var out Envelope
	if callErr != nil {
		out = newError(p.name, env.ID, serializeError(callErr))
	} else {
		out = newResult(p.name, env.ID, p.serializeResult(result))
	}
	data, err := p.codec.Marshal(out)
	if err != nil {
		return
	}
	_ = p.peer.Send(context.Background(), data, origin) // best-effort
}

// dispatch resolves env.Method (within env.Handle's scope, if any) and
// invokes it with env.Args, implementing spec §4.3's context selection,
// method resolution, and invocation steps.
func (p *Provider) dispatch(env Envelope) (any, error) {
	root := p.api
	if env.Handle != "" {
		h, ok := p.handles.get(env.Handle)
		if !ok {
			return nil, newHandleError(ErrHandleNotFound, env.Handle)
		}
		root = h.value
	}

	fn, err := p.resolveCallable(root, env.Method)
	if err != nil {
		return nil, err
	}
	return invoke(fn, env.Args)
}

func (p *Provider) resolveCallable(root any, method string) (reflect.Value, error) {
	if method == "" {
		v := reflect.ValueOf(root)
		if v.Kind() != reflect.Func {
			return reflect.Value{}, newMethodError("")
		}
		return v, nil
	}

	parentPath, key := method, ""
	if idx := strings.LastIndex(method, "."); idx >= 0 {
		parentPath, key = method[:idx], method[idx+1:]
	} else {
		parentPath, key = "", method
	}

	parent := getDeep(root, parentPath)
	if parent == nil {
		return reflect.Value{}, newMethodError(method)
	}
	m, ok := resolveMember(reflect.ValueOf(parent), key)
	if !ok || !m.value.IsValid() || m.value.Kind() != reflect.Func {
		return reflect.Value{}, newMethodError(method)
	}
	return m.value, nil
}

// serializeResult implements spec §4.3 step 4: a function or a composite
// value containing one becomes a handle payload; everything else is
// cloned for transport as a plain value.
func (p *Provider) serializeResult(result any) any {
	rv := reflect.ValueOf(result)
	if rv.IsValid() && rv.Kind() == reflect.Func {
		h := p.handles.create(HandleFunction, result)
		emitHandleCreated(p.name, h.id)
		return &HandleRef{Marker: handleRefMarker, ID: h.id, Kind: HandleFunction}
	}
	if isObject(rv) && !isStructuredClonePassThrough(deref(rv)) {
		if paths := collectFunctionPaths(result); len(paths) > 0 {
			h := p.handles.create(HandleObject, result)
			emitHandleCreated(p.name, h.id)
			return &HandleRef{
				Marker:    handleRefMarker,
				ID:        h.id,
				Kind:      HandleObject,
				Values:    cloneValuesOnly(result),
				Functions: paths,
			}
		}
	}
	return cloneValuesOnly(result)
}

// invoke calls fn with args converted to fn's parameter types, unwrapping a
// trailing error return and recovering a panic into an error so a single
// misbehaving API function can never take down the Provider.
func invoke(fn reflect.Value, args []any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &RemoteError{Message: serializeError(r)}
		}
	}()

	t := fn.Type()
	in, convErr := convertArgs(t, args)
	if convErr != nil {
		return nil, &RemoteError{Message: convErr.Error()}
	}

	out := fn.Call(in)
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if isErrorValue(out[0]) {
			if out[0].IsNil() {
				return nil, nil
			}
			return nil, &RemoteError{Message: serializeError(out[0].Interface())}
		}
		return valueOf(out[0]), nil
	default:
		last := out[len(out)-1]
		if isErrorValue(last) && !last.IsNil() {
			return nil, &RemoteError{Message: serializeError(last.Interface())}
		}
		return valueOf(out[0]), nil
	}
}

func isErrorValue(v reflect.Value) bool {
	return v.Type() == errorType
}

func valueOf(v reflect.Value) any {
	if !v.CanInterface() {
		return nil
	}
	return v.Interface()
}

// convertArgs converts the wire-decoded args to fn's parameter types.
// Arity is not enforced: missing trailing parameters get zero values and
// extra arguments are dropped, since the wire carries no static arity
// check.
func convertArgs(t reflect.Type, args []any) ([]reflect.Value, error) {
	n := t.NumIn()
	out := make([]reflect.Value, 0, len(args))
	for i, a := range args {
		var pt reflect.Type
		switch {
		case t.IsVariadic() && i >= n-1:
			pt = t.In(n - 1).Elem()
		case i < n:
			pt = t.In(i)
		default:
			continue // extra argument beyond the function's arity; dropped
		}
		cv, err := convertArg(a, pt)
		if err != nil {
			return nil, err
		}
		out = append(out, cv)
	}
	for len(out) < n && !(t.IsVariadic() && len(out) >= n-1) {
		out = append(out, reflect.Zero(t.In(len(out))))
	}
	return out, nil
}

func convertArg(arg any, target reflect.Type) (reflect.Value, error) {
	if arg == nil {
		return reflect.Zero(target), nil
	}
	av := reflect.ValueOf(arg)
	if av.Type().AssignableTo(target) {
		return av, nil
	}
	if isNumericKind(av.Kind()) && isNumericKind(target.Kind()) {
		return av.Convert(target), nil
	}
	// Fall back to a JSON round-trip for composite shapes (e.g. a decoded
	// map[string]any argument bound to a struct parameter).
	b, err := json.Marshal(arg)
	if err != nil {
		return reflect.Value{}, err
	}
	ptr := reflect.New(target)
	if err := json.Unmarshal(b, ptr.Interface()); err != nil {
		return reflect.Value{}, err
	}
	return ptr.Elem(), nil
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
