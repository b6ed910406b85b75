package bridge

import (
	"reflect"
	"testing"
)

func TestCloneValuesOnlyOmitsFunctions(t *testing.T) {
	root := map[string]any{
		"a":    1,
		"test": func(n int) int { return n + 1 },
	}
	got := cloneValuesOnly(root)
	m, ok := got.(map[string]any)
	if !ok {
		t.Fatalf("cloneValuesOnly() = %T, want map[string]any", got)
	}
	if m["a"] != 1 {
		t.Errorf("a = %v, want 1", m["a"])
	}
	if _, present := m["test"]; present {
		t.Error("function-valued key should be omitted from the snapshot")
	}
}

func TestCloneValuesOnlyPreservesCycles(t *testing.T) {
	cycle := map[string]any{"a": 1}
	nested := map[string]any{"val": 2}
	cycle["nested"] = nested
	cycle["self"] = cycle
	nested["parent"] = cycle

	got := cloneValuesOnly(cycle).(map[string]any)
	if got["a"] != 1 {
		t.Errorf("a = %v, want 1", got["a"])
	}
	self := got["self"].(map[string]any)
	if self["a"] != 1 {
		t.Errorf("self.a = %v, want 1", self["a"])
	}
	gotNested := got["nested"].(map[string]any)
	parent := gotNested["parent"].(map[string]any)
	if parent["a"] != 1 {
		t.Errorf("nested.parent.a = %v, want 1", parent["a"])
	}

	// The clone must share identity across aliases, not just equal values.
	if reflect.ValueOf(self).Pointer() != reflect.ValueOf(got).Pointer() {
		t.Error("self should be the same clone instance as the root")
	}
}

type cycleNode struct {
	Val  int
	Next *cycleNode
}

func TestCloneValuesOnlyTerminatesOnPointerCycle(t *testing.T) {
	n := &cycleNode{Val: 1}
	n.Next = n

	got := cloneValuesOnly(n).(map[string]any)
	if got["Val"] != 1 {
		t.Errorf("Val = %v, want 1", got["Val"])
	}
	next := got["Next"].(map[string]any)
	if next["Val"] != 1 {
		t.Errorf("Next.Val = %v, want 1", next["Val"])
	}
	if reflect.ValueOf(next).Pointer() != reflect.ValueOf(got).Pointer() {
		t.Error("Next should be the same clone instance as the root: a struct reached through a pointer field must carry identity")
	}
}

func TestCloneValuesOnlyIsIdempotentOnItsOwnCodomain(t *testing.T) {
	root := map[string]any{"a": 1, "b": []any{1, 2, 3}}
	once := cloneValuesOnly(root)
	twice := cloneValuesOnly(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("cloneValuesOnly should be idempotent on a snapshot: %+v != %+v", once, twice)
	}
}

func TestBuildCanonicalIndexFindsFirstPath(t *testing.T) {
	shared := map[string]any{"v": 1}
	root := map[string]any{
		"a": shared,
		"b": shared,
	}
	snapshot := cloneValuesOnly(root).(map[string]any)
	index := buildCanonicalIndex(snapshot)

	id, ok := identityOf(reflect.ValueOf(snapshot["a"]))
	if !ok {
		t.Fatal("snapshot[a] should carry an identity")
	}
	// Go map iteration order is randomized, so which sibling key is recorded
	// as canonical is not deterministic across runs — only that exactly one
	// of them is.
	if index[id] != "a" && index[id] != "b" {
		t.Errorf("canonical path = %q, want %q or %q", index[id], "a", "b")
	}
}
