package bridge

import (
	"reflect"
	"strconv"
)

// cloneValuesOnly produces a deep, value-only copy of root: every function
// is omitted, structured-clone pass-throughs are reused by reference, and
// shared references (including cycles) are preserved by identity so the
// clone contains its own cycles without ever recursing infinitely. Structs
// are represented as map[string]any in the clone, matching the plain-object
// shape a JS snapshot would take.
func cloneValuesOnly(root any) any {
	return cloneValue(reflect.ValueOf(root), map[uintptr]any{})
}

func cloneValue(v reflect.Value, seen map[uintptr]any) any {
	// Identity must be captured before deref strips the pointer a
	// self-referencing struct (or shared map/slice) is reached through —
	// see identityOf.
	id, hasID := identityOf(v)
	if hasID {
		if existing, ok := seen[id]; ok {
			return existing
		}
	}

	v = deref(v)
	if !v.IsValid() {
		return nil
	}
	if isStructuredClonePassThrough(v) {
		if v.CanInterface() {
			return v.Interface()
		}
		return nil
	}

	switch v.Kind() {
	case reflect.Func:
		return nil

	case reflect.Slice, reflect.Array:
		if hasID {
			out := make([]any, v.Len())
			seen[id] = out
			for i := 0; i < v.Len(); i++ {
				out[i] = cloneIndexed(v.Index(i), seen)
			}
			return out
		}
		out := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			out[i] = cloneIndexed(v.Index(i), seen)
		}
		return out

	case reflect.Map, reflect.Struct:
		out := map[string]any{}
		if hasID {
			seen[id] = out
		}
		for _, key := range listReadableKeys(v) {
			m, ok := resolveMember(v, key)
			if !ok || (m.value.IsValid() && m.value.Kind() == reflect.Func) {
				continue // functions are omitted from the value snapshot
			}
			out[key] = cloneValue(m.value, seen)
		}
		return out

	default:
		if v.CanInterface() {
			return v.Interface()
		}
		return nil
	}
}

// cloneIndexed clones a slice/array element, mapping function-valued
// elements to nil placeholders so sibling indices (and thus "arr.N" function
// paths) stay aligned with the original.
func cloneIndexed(v reflect.Value, seen map[uintptr]any) any {
	dv := deref(v)
	if dv.IsValid() && dv.Kind() == reflect.Func {
		return nil
	}
	return cloneValue(v, seen)
}

// buildCanonicalIndex walks a value snapshot (the output of cloneValuesOnly)
// breadth-first, recording for every encountered reference the first path
// at which it was discovered. It is the consumer-side structure used to
// translate alias paths (arising from cycles or shared references) into
// canonical function-set paths.
func buildCanonicalIndex(snapshot any) map[uintptr]string {
	index := map[uintptr]string{}
	visited := map[uintptr]bool{}
	queue := []pathNode{{value: reflect.ValueOf(snapshot), path: ""}}

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		if id, ok := identityOf(node.value); ok {
			if visited[id] {
				continue
			}
			visited[id] = true
			index[id] = node.path
		}

		v := deref(node.value)
		if !v.IsValid() {
			continue
		}

		switch v.Kind() {
		case reflect.Map:
			for _, k := range v.MapKeys() {
				key := keyString(k)
				queue = append(queue, pathNode{value: v.MapIndex(k), path: joinPath(node.path, key)})
			}
		case reflect.Slice, reflect.Array:
			for i := 0; i < v.Len(); i++ {
				queue = append(queue, pathNode{value: v.Index(i), path: joinPath(node.path, strconv.Itoa(i))})
			}
		}
	}
	return index
}

func keyString(v reflect.Value) string {
	v = deref(v)
	if v.Kind() == reflect.String {
		return v.String()
	}
	return stringify(v.Interface())
}
