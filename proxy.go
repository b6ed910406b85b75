package bridge

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Callable is a function path resolved from a Remote: invoking it posts a
// CALL and blocks for the matching RESULT/ERROR.
type Callable func(ctx context.Context, args ...any) (any, error)

// scope is the resolution context shared by every Remote over one snapshot
// (the root's, or a handle's own scoped values/functions): the value tree,
// its function path set, and the canonical index used for alias resolution.
// The lazy fabric resolves every key through scope.resolve; the materialised
// fabric instead walks the tree buildMaterialized built from the same values
// and function set.
type scope struct {
	consumer *Consumer
	handle   string // "" for the root scope; a handle id for a scoped Remote
	values   any
	functions map[string]bool
	canonical map[uintptr]string

	// rootIsFunction is set when this scope's handle is a HandleFunction:
	// the Remote itself is callable at path "", rather than exposing
	// children.
	rootIsFunction bool
}

type resolveKind int

const (
	resolveUndefined resolveKind = iota
	resolveValue
	resolveCallable
	resolveProxy
)

// resolved is the outcome of scope.resolve for one (prefix, key) pair,
// implementing spec §4.4's six-step resolution order.
type resolved struct {
	kind        resolveKind
	value       any
	method      string
	childPrefix string
}

// resolve decides what key means under prefix ("" at the root): a callable
// function path, a plain value, a nested proxy, or undefined. full is
// prefix.key (or just key when prefix is empty).
func (s *scope) resolve(prefix, key string) resolved {
	full := joinPath(prefix, key)

	// 1: full is itself a recorded function path.
	if s.functions[full] {
		return resolved{kind: resolveCallable, method: full}
	}

	// 2: alias resolution — prefix's value is already indexed under some
	// canonical path c; if c.key is a function path, this is the same
	// function reached through a shared reference or a cycle.
	aliasMethod, aliasHasDescendant, aliasOK := s.aliasLookup(prefix, key)
	if aliasOK && s.functions[aliasMethod] {
		return resolved{kind: resolveCallable, method: aliasMethod}
	}

	// 3: full resolves to an actual value in the snapshot.
	v := getDeep(s.values, full)
	if v != nil {
		rv := deref(reflect.ValueOf(v))
		if isStructuredClonePassThrough(rv) || !isObject(rv) {
			return resolved{kind: resolveValue, value: v}
		}
		return resolved{kind: resolveProxy, childPrefix: full}
	}

	// 4: full itself is undefined, but some function path is nested under
	// it (or equals it) — a proxy anchored here still has something to
	// reach.
	if hasDescendantFunctionPath(s.functions, full) {
		return resolved{kind: resolveProxy, childPrefix: full}
	}

	// 5: same check through the alias expansion from step 2.
	if aliasOK && aliasHasDescendant {
		return resolved{kind: resolveProxy, childPrefix: full}
	}

	// 6: nothing found.
	return resolved{kind: resolveUndefined}
}

// aliasLookup finds prefix's canonical path (if its value is a shared
// reference recorded in the canonical index) and reports whether key under
// that canonical path is, or has, a function path.
func (s *scope) aliasLookup(prefix, key string) (method string, hasDescendant bool, ok bool) {
	parent := getDeep(s.values, prefix)
	if parent == nil {
		return "", false, false
	}
	id, idOk := identityOf(reflect.ValueOf(parent))
	if !idOk {
		return "", false, false
	}
	canon, found := s.canonical[id]
	if !found {
		return "", false, false
	}
	ck := joinPath(canon, key)
	return ck, hasDescendantFunctionPath(s.functions, ck), true
}

// Remote is the Go stand-in for the spec's intercepting proxy: since Go has
// no property-interception primitive, it exposes the same resolution
// algorithm as explicit methods. A lazy Remote resolves each Get/Call
// against scope on demand; a materialised Remote wraps a tree built once,
// with callables already installed at every function-path leaf.
type Remote struct {
	scope *scope

	lazy   bool
	prefix string // lazy mode: dotted path within scope

	node any // materialised mode: the subtree at this Remote's position
}

// newRemote builds the root (or handle-scoped root) Remote for s, choosing
// the lazy or materialised fabric per hideStructure.
func newRemote(s *scope, hideStructure bool) *Remote {
	if hideStructure {
		return &Remote{scope: s, lazy: true, prefix: ""}
	}
	return &Remote{scope: s, lazy: false, node: buildMaterialized(s)}
}

// Get resolves a dotted path to a value, a Callable, or a child Remote.
// An unresolvable final segment returns (nil, nil) — the spec's "undefined"
// outcome, not an error. For intermediate segments the fabrics differ: the
// lazy fabric returns an error for any intermediate segment that does not
// resolve to a nested proxy, while the materialised fabric returns (nil, nil)
// for a missing intermediate and an error only when indexing through a leaf.
func (r *Remote) Get(path string) (any, error) {
	if path == "" {
		return r.getSelf()
	}
	if path == "__release" && r.scope.handle != "" {
		return r.releaseCallable(), nil
	}
	if r.lazy {
		res, err := r.resolveLazy(path)
		if err != nil {
			return nil, err
		}
		return r.fromResolved(res), nil
	}
	return r.getMaterialised(path)
}

// Call resolves path to a function path and invokes it, blocking for the
// matching RESULT/ERROR. path == "" calls the Remote itself, valid only
// when it wraps a function-kind handle.
func (r *Remote) Call(ctx context.Context, path string, args ...any) (any, error) {
	if path == "" {
		if r.scope.rootIsFunction {
			return r.scope.consumer.invoke(ctx, r.scope.handle, "", args)
		}
		return nil, newMethodError("")
	}
	if path == "__release" && r.scope.handle != "" {
		return nil, r.Release(ctx)
	}

	if r.lazy {
		res, err := r.resolveLazy(path)
		if err != nil {
			return nil, err
		}
		if res.kind != resolveCallable {
			return nil, newMethodError(path)
		}
		return r.scope.consumer.invoke(ctx, r.scope.handle, res.method, args)
	}

	v, err := getMaterialisedRaw(r.node, path)
	if err != nil {
		return nil, err
	}
	fn, ok := v.(Callable)
	if !ok {
		return nil, newMethodError(path)
	}
	return fn(ctx, args...)
}

// Keys lists the immediate children visible at this Remote's position:
// readable value keys plus any function path's first segment.
func (r *Remote) Keys() []string {
	if !r.lazy {
		switch n := r.node.(type) {
		case map[string]any:
			keys := make([]string, 0, len(n))
			for k := range n {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			return keys
		case []any:
			keys := make([]string, len(n))
			for i := range n {
				keys[i] = strconv.Itoa(i)
			}
			return keys
		default:
			return nil
		}
	}

	set := map[string]bool{}
	if parent := getDeep(r.scope.values, r.prefix); parent != nil {
		for _, k := range listReadableKeys(reflect.ValueOf(parent)) {
			set[k] = true
		}
	}
	for p := range r.scope.functions {
		if child, ok := immediateChild(p, r.prefix); ok {
			set[child] = true
		}
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Release issues RELEASE_HANDLE for this Remote's handle. It is a no-op
// (returns an error) on the root Remote, which is not handle-backed.
// Calling Release more than once, or from more than one Remote sharing the
// same handle, sends RELEASE_HANDLE at most once.
func (r *Remote) Release(_ context.Context) error {
	if r.scope.handle == "" {
		return fmt.Errorf("bridge: root is not handle-backed")
	}
	if r.scope.consumer.markReleased(r.scope.handle) {
		r.scope.consumer.sendRelease(r.scope.handle)
	}
	return nil
}

func (r *Remote) releaseCallable() Callable {
	return func(ctx context.Context, _ ...any) (any, error) {
		return nil, r.Release(ctx)
	}
}

func (r *Remote) getSelf() (any, error) {
	if r.scope.rootIsFunction {
		method := ""
		return Callable(func(ctx context.Context, args ...any) (any, error) {
			return r.scope.consumer.invoke(ctx, r.scope.handle, method, args)
		}), nil
	}
	if !r.lazy {
		return r.node, nil
	}
	return nil, nil
}

// resolveLazy walks path's segments from r.prefix, requiring every
// intermediate segment to resolve to a proxy.
func (r *Remote) resolveLazy(path string) (resolved, error) {
	prefix := r.prefix
	segs := splitPath(path)
	var res resolved
	for i, seg := range segs {
		res = r.scope.resolve(prefix, seg)
		if i < len(segs)-1 {
			if res.kind != resolveProxy {
				return resolved{}, fmt.Errorf("bridge: %q is not traversable", joinPath(prefix, seg))
			}
			prefix = res.childPrefix
		}
	}
	return res, nil
}

func (r *Remote) fromResolved(res resolved) any {
	switch res.kind {
	case resolveValue:
		return res.value
	case resolveCallable:
		method := res.method
		return Callable(func(ctx context.Context, args ...any) (any, error) {
			return r.scope.consumer.invoke(ctx, r.scope.handle, method, args)
		})
	case resolveProxy:
		return &Remote{scope: r.scope, lazy: true, prefix: res.childPrefix}
	default:
		return nil
	}
}

func (r *Remote) getMaterialised(path string) (any, error) {
	v, err := getMaterialisedRaw(r.node, path)
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case map[string]any, []any:
		return &Remote{scope: r.scope, lazy: false, node: t}, nil
	default:
		return v, nil
	}
}

// getMaterialisedRaw walks a materialised tree by dotted path. A missing
// map key or out-of-range index returns (nil, nil) — undefined, not an
// error; only an attempt to index through a leaf (a non-container) is an
// error, since that path is malformed.
func getMaterialisedRaw(node any, path string) (any, error) {
	if path == "" {
		return node, nil
	}
	cur := node
	for _, seg := range splitPath(path) {
		switch c := cur.(type) {
		case map[string]any:
			v, ok := c[seg]
			if !ok {
				return nil, nil
			}
			cur = v
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(c) {
				return nil, nil
			}
			cur = c[idx]
		default:
			return nil, fmt.Errorf("bridge: %q is not traversable", path)
		}
	}
	return cur, nil
}

// buildMaterialized deep-copies scope's value snapshot (preserving shared
// references and cycles by identity) and installs a Callable at every
// recorded function path. Every function path's parent container already
// exists in the snapshot — cloneValuesOnly never omits the container a
// function was a member of, only the function itself — so installation
// only ever needs to set a leaf key/index, never create intermediate
// structure.
func buildMaterialized(s *scope) any {
	root := deepCopyAny(s.values, map[uintptr]any{})
	if root == nil {
		return root
	}
	paths := make([]string, 0, len(s.functions))
	for p := range s.functions {
		if p == "" {
			continue // rootIsFunction is handled at the Remote level, not in-tree
		}
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		installCallable(root, s, p)
	}
	return root
}

func deepCopyAny(v any, seen map[uintptr]any) any {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil
	}
	switch rv.Kind() {
	case reflect.Map:
		id := rv.Pointer()
		if existing, ok := seen[id]; ok {
			return existing
		}
		m := v.(map[string]any)
		out := make(map[string]any, len(m))
		seen[id] = out
		for k, val := range m {
			out[k] = deepCopyAny(val, seen)
		}
		return out
	case reflect.Slice:
		id := rv.Pointer()
		if existing, ok := seen[id]; ok {
			return existing
		}
		s := v.([]any)
		out := make([]any, len(s))
		seen[id] = out
		for i, val := range s {
			out[i] = deepCopyAny(val, seen)
		}
		return out
	default:
		return v
	}
}

func installCallable(root any, s *scope, path string) {
	parentPath, leaf := splitLast(path)
	parent := getDeep(root, parentPath)
	switch c := parent.(type) {
	case map[string]any:
		c[leaf] = makeCallable(s, path)
	case []any:
		idx, err := strconv.Atoi(leaf)
		if err == nil && idx >= 0 && idx < len(c) {
			c[idx] = makeCallable(s, path)
		}
	}
}

func makeCallable(s *scope, method string) Callable {
	return func(ctx context.Context, args ...any) (any, error) {
		return s.consumer.invoke(ctx, s.handle, method, args)
	}
}

func splitLast(path string) (parent, leaf string) {
	if idx := strings.LastIndex(path, "."); idx >= 0 {
		return path[:idx], path[idx+1:]
	}
	return "", path
}

// immediateChild reports whether path is prefix itself or nested under it,
// returning the first path segment beyond prefix.
func immediateChild(path, prefix string) (string, bool) {
	if prefix == "" {
		if path == "" {
			return "", false
		}
		if idx := strings.Index(path, "."); idx >= 0 {
			return path[:idx], true
		}
		return path, true
	}
	if !strings.HasPrefix(path, prefix+".") {
		return "", false
	}
	rest := path[len(prefix)+1:]
	if idx := strings.Index(rest, "."); idx >= 0 {
		rest = rest[:idx]
	}
	return rest, true
}
