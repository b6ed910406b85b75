package bridge

// protocolName is the envelope's literal discriminator, carried on every
// message so a shared transport can distinguish bridge traffic from
// anything else flowing over the same channel.
const protocolName = "iframe-rpc"

// MessageType discriminates the envelope's tagged union.
type MessageType string

const (
	MsgReady          MessageType = "READY"
	MsgGet            MessageType = "GET"
	MsgCall           MessageType = "CALL"
	MsgResult         MessageType = "RESULT"
	MsgError          MessageType = "ERROR"
	MsgInitError      MessageType = "INIT_ERROR"
	MsgReleaseHandle  MessageType = "RELEASE_HANDLE"
)

// HandleKind distinguishes a function handle (no scoped snapshot, the value
// itself is callable) from an object handle (a scoped values/functions pair,
// the result of a call whose composite return value contains functions).
type HandleKind string

const (
	HandleFunction HandleKind = "function"
	HandleObject   HandleKind = "object"
)

// Envelope is the wire-level message every Peer exchanges. Not every field
// is meaningful for every Type — see the per-type constructors below, which
// are the supported way to build one.
type Envelope struct {
	Protocol string        `json:"protocol" msgpack:"protocol"`
	Name     string        `json:"name" msgpack:"name"`
	Type     MessageType   `json:"type" msgpack:"type"`
	Payload  *ReadyPayload `json:"payload,omitempty" msgpack:"payload,omitempty"`
	ID       string        `json:"id,omitempty" msgpack:"id,omitempty"`
	Method   string        `json:"method,omitempty" msgpack:"method,omitempty"`
	Args     []any         `json:"args,omitempty" msgpack:"args,omitempty"`
	Handle   string        `json:"handle,omitempty" msgpack:"handle,omitempty"`
	Result   any           `json:"result,omitempty" msgpack:"result,omitempty"`
	Error    string        `json:"error,omitempty" msgpack:"error,omitempty"`
}

// ReadyPayload carries the root value snapshot and function path set sent
// with READY (and re-sent in response to GET).
type ReadyPayload struct {
	Values    any      `json:"values" msgpack:"values"`
	Functions []string `json:"functions" msgpack:"functions"`
}

// HandleRef is the payload shape that marks a value as handle-backed,
// appearing as the outermost wrapper of RESULT.Result (never nested: a
// single RESULT wraps at most one outermost composite in a handle).
type HandleRef struct {
	Marker    string     `json:"__rpc__" msgpack:"__rpc__"`
	ID        string     `json:"id" msgpack:"id"`
	Kind      HandleKind `json:"kind" msgpack:"kind"`
	Values    any        `json:"values,omitempty" msgpack:"values,omitempty"`
	Functions []string   `json:"functions,omitempty" msgpack:"functions,omitempty"`
}

const handleRefMarker = "handle"

// asHandleRef reports whether v is a decoded handle payload (a
// map[string]any with __rpc__ == "handle", the shape a generic codec
// produces when it decodes a HandleRef into `any`) and returns it
// normalised into a *HandleRef.
func asHandleRef(v any) (*HandleRef, bool) {
	switch t := v.(type) {
	case *HandleRef:
		return t, true
	case HandleRef:
		return &t, true
	case map[string]any:
		marker, _ := t["__rpc__"].(string)
		if marker != handleRefMarker {
			return nil, false
		}
		id, _ := t["id"].(string)
		kind, _ := t["kind"].(string)
		ref := &HandleRef{Marker: marker, ID: id, Kind: HandleKind(kind), Values: t["values"]}
		if fns, ok := t["functions"].([]any); ok {
			for _, f := range fns {
				if s, ok := f.(string); ok {
					ref.Functions = append(ref.Functions, s)
				}
			}
		}
		return ref, true
	default:
		return nil, false
	}
}

func newReady(name string, values any, functions []string) Envelope {
	return Envelope{Protocol: protocolName, Name: name, Type: MsgReady,
		Payload: &ReadyPayload{Values: values, Functions: functions}}
}

func newGet(name string) Envelope {
	return Envelope{Protocol: protocolName, Name: name, Type: MsgGet}
}

func newCall(name, id, method, handle string, args []any) Envelope {
	return Envelope{Protocol: protocolName, Name: name, Type: MsgCall,
		ID: id, Method: method, Handle: handle, Args: args}
}

func newResult(name, id string, result any) Envelope {
	return Envelope{Protocol: protocolName, Name: name, Type: MsgResult, ID: id, Result: result}
}

func newError(name, id, message string) Envelope {
	return Envelope{Protocol: protocolName, Name: name, Type: MsgError, ID: id, Error: message}
}

func newInitError(name, message string) Envelope {
	return Envelope{Protocol: protocolName, Name: name, Type: MsgInitError, Error: message}
}

func newReleaseHandle(name, handle string) Envelope {
	return Envelope{Protocol: protocolName, Name: name, Type: MsgReleaseHandle, Handle: handle}
}

// Codec provides content-type aware marshaling of envelopes over the wire.
type Codec interface {
	// ContentType returns the MIME type for this codec (e.g. "application/json").
	ContentType() string

	// Marshal encodes v into bytes.
	Marshal(v any) ([]byte, error)

	// Unmarshal decodes data into v.
	Unmarshal(data []byte, v any) error
}
