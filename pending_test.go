package bridge

import (
	"errors"
	"testing"
)

func TestPendingCallTableRegisterAndResolve(t *testing.T) {
	pt := newPendingCallTable()
	id, ch := pt.register()
	if id == "" {
		t.Fatal("register() should assign a non-empty id")
	}
	if !pt.resolve(id, 42) {
		t.Fatal("resolve() should succeed for a registered id")
	}
	res := <-ch
	if res.value != 42 || res.err != nil {
		t.Errorf("res = %+v, want value=42 err=nil", res)
	}
}

func TestPendingCallTableReject(t *testing.T) {
	pt := newPendingCallTable()
	id, ch := pt.register()
	boom := errors.New("boom")
	if !pt.reject(id, boom) {
		t.Fatal("reject() should succeed for a registered id")
	}
	res := <-ch
	if res.err != boom {
		t.Errorf("res.err = %v, want %v", res.err, boom)
	}
}

func TestPendingCallTableResolveUnknownIsFalse(t *testing.T) {
	pt := newPendingCallTable()
	if pt.resolve("never-registered", 1) {
		t.Error("resolve() should report false for an unknown id")
	}
}

func TestPendingCallTableResolveIsOnceOnly(t *testing.T) {
	pt := newPendingCallTable()
	id, _ := pt.register()
	if !pt.resolve(id, 1) {
		t.Fatal("first resolve() should succeed")
	}
	if pt.resolve(id, 2) {
		t.Error("a second resolve() for the same id should report false")
	}
}

func TestPendingCallTableDrop(t *testing.T) {
	pt := newPendingCallTable()
	id, _ := pt.register()
	pt.drop(id)
	if pt.resolve(id, 1) {
		t.Error("resolve() after drop() should report false")
	}
	if pt.len() != 0 {
		t.Errorf("len() = %d, want 0", pt.len())
	}
}

func TestPendingCallTableLen(t *testing.T) {
	pt := newPendingCallTable()
	pt.register()
	pt.register()
	if pt.len() != 2 {
		t.Errorf("len() = %d, want 2", pt.len())
	}
}
