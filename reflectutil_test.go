package bridge

import (
	"reflect"
	"sort"
	"testing"
)

type widget struct {
	Name string
	tags []string // unexported; never visible
}

func (w widget) Tags() []string { return w.tags } // accessor: zero-arg, one return
func (w widget) Rename(n string) widget {
	w.Name = n
	return w
} // not an accessor: takes an argument

type namedWidget struct {
	Name string
}

func (w namedWidget) String() string { return "widget:" + w.Name } // fmt.Stringer, excluded
func (w namedWidget) Error() string  { return "widget error: " + w.Name } // error shape, excluded

func TestExportedMethodsExcludesStringAndError(t *testing.T) {
	keys := listReadableKeys(reflect.ValueOf(namedWidget{Name: "a"}))
	sort.Strings(keys)
	want := []string{"Name"}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("listReadableKeys(namedWidget) = %v, want %v: String/Error should never surface as accessors", keys, want)
	}

	fnKeys := listFunctionKeysForCollect(reflect.ValueOf(namedWidget{Name: "a"}))
	sort.Strings(fnKeys)
	if !reflect.DeepEqual(fnKeys, want) {
		t.Errorf("listFunctionKeysForCollect(namedWidget) = %v, want %v: String/Error should never surface as callables either", fnKeys, want)
	}
}

func TestListReadableKeysStruct(t *testing.T) {
	w := widget{Name: "a", tags: []string{"x"}}
	keys := listReadableKeys(reflect.ValueOf(w))
	sort.Strings(keys)
	want := []string{"Name", "Tags"}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("listReadableKeys() = %v, want %v", keys, want)
	}
}

func TestListFunctionKeysForCollectStruct(t *testing.T) {
	w := widget{Name: "a"}
	keys := listFunctionKeysForCollect(reflect.ValueOf(w))
	sort.Strings(keys)
	want := []string{"Name", "Rename", "Tags"}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("listFunctionKeysForCollect() = %v, want %v", keys, want)
	}
}

func TestResolveMemberAccessorEvaluatesOnce(t *testing.T) {
	w := widget{Name: "a", tags: []string{"x", "y"}}
	m, ok := resolveMember(reflect.ValueOf(w), "Tags")
	if !ok {
		t.Fatal("resolveMember(Tags) ok = false")
	}
	if m.isMethod {
		t.Error("accessor member should not be marked isMethod")
	}
	if m.isFunction() {
		t.Error("accessor member should not be treated as a function path")
	}
	got := m.value.Interface().([]string)
	if !reflect.DeepEqual(got, []string{"x", "y"}) {
		t.Errorf("accessor value = %v, want [x y]", got)
	}
}

func TestResolveMemberCallableMethod(t *testing.T) {
	w := widget{Name: "a"}
	m, ok := resolveMember(reflect.ValueOf(w), "Rename")
	if !ok {
		t.Fatal("resolveMember(Rename) ok = false")
	}
	if !m.isMethod || !m.isFunction() {
		t.Error("Rename should resolve as a callable method")
	}
}

func TestResolveMemberMap(t *testing.T) {
	v := map[string]any{"a": 1, "b": "two"}
	m, ok := resolveMember(reflect.ValueOf(v), "a")
	if !ok || m.value.Interface() != 1 {
		t.Errorf("resolveMember(map, a) = %+v, %v", m, ok)
	}
	if _, ok := resolveMember(reflect.ValueOf(v), "missing"); ok {
		t.Error("resolveMember should report ok=false for a missing map key")
	}
}

func TestResolveMemberSlice(t *testing.T) {
	v := []any{"x", "y", "z"}
	m, ok := resolveMember(reflect.ValueOf(v), "1")
	if !ok || m.value.Interface() != "y" {
		t.Errorf("resolveMember(slice, 1) = %+v, %v", m, ok)
	}
	if _, ok := resolveMember(reflect.ValueOf(v), "9"); ok {
		t.Error("resolveMember should report ok=false for an out-of-range index")
	}
}

func TestGetDeep(t *testing.T) {
	root := map[string]any{
		"nested": map[string]any{"val": 2},
	}
	if got := getDeep(root, "nested.val"); got != 2 {
		t.Errorf("getDeep(nested.val) = %v, want 2", got)
	}
	if got := getDeep(root, ""); !reflect.DeepEqual(got, root) {
		t.Errorf("getDeep(\"\") should return root unchanged")
	}
	if got := getDeep(root, "nested.missing"); got != nil {
		t.Errorf("getDeep(missing) = %v, want nil", got)
	}
}

func TestIsStructuredClonePassThroughAndBrandTag(t *testing.T) {
	if !isStructuredClonePassThrough(reflect.ValueOf([]byte("hi"))) {
		t.Error("[]byte should be a pass-through")
	}
	if brandTag(reflect.ValueOf([]byte("hi"))) != "bytes" {
		t.Error(`brandTag([]byte) should be "bytes"`)
	}
	if brandTag(reflect.ValueOf(map[string]any{})) != "map" {
		t.Error(`brandTag(map) should be "map"`)
	}
	if brandTag(reflect.ValueOf(1)) != "primitive" {
		t.Error(`brandTag(int) should be "primitive"`)
	}
}
