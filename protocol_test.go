package bridge

import (
	"encoding/json"
	"testing"
)

func TestAsHandleRefFromStruct(t *testing.T) {
	ref := &HandleRef{Marker: handleRefMarker, ID: "h1", Kind: HandleFunction}
	got, ok := asHandleRef(ref)
	if !ok || got.ID != "h1" {
		t.Errorf("asHandleRef(*HandleRef) = %+v, %v", got, ok)
	}
}

func TestAsHandleRefFromDecodedMap(t *testing.T) {
	env := newResult("ch", "call-1", &HandleRef{
		Marker: handleRefMarker, ID: "h2", Kind: HandleObject,
		Values: map[string]any{"a": 1}, Functions: []string{"test"},
	})
	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded Envelope
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	ref, ok := asHandleRef(decoded.Result)
	if !ok {
		t.Fatal("asHandleRef() ok = false for a round-tripped handle payload")
	}
	if ref.ID != "h2" || ref.Kind != HandleObject {
		t.Errorf("ref = %+v, want ID=h2 Kind=object", ref)
	}
	if len(ref.Functions) != 1 || ref.Functions[0] != "test" {
		t.Errorf("ref.Functions = %v, want [test]", ref.Functions)
	}
}

func TestAsHandleRefRejectsPlainValue(t *testing.T) {
	if _, ok := asHandleRef(map[string]any{"a": 1}); ok {
		t.Error("asHandleRef() should reject a map without the handle marker")
	}
	if _, ok := asHandleRef(42); ok {
		t.Error("asHandleRef() should reject a non-map, non-HandleRef value")
	}
}

func TestEnvelopeConstructorsSetProtocolAndType(t *testing.T) {
	cases := []struct {
		name string
		env  Envelope
		want MessageType
	}{
		{"ready", newReady("ch", nil, nil), MsgReady},
		{"get", newGet("ch"), MsgGet},
		{"call", newCall("ch", "id", "m", "", nil), MsgCall},
		{"result", newResult("ch", "id", 1), MsgResult},
		{"error", newError("ch", "id", "boom"), MsgError},
		{"init_error", newInitError("ch", "boom"), MsgInitError},
		{"release", newReleaseHandle("ch", "h1"), MsgReleaseHandle},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if c.env.Protocol != protocolName {
				t.Errorf("Protocol = %q, want %q", c.env.Protocol, protocolName)
			}
			if c.env.Type != c.want {
				t.Errorf("Type = %q, want %q", c.env.Type, c.want)
			}
		})
	}
}
