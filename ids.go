package bridge

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// genId returns a unique, time-sortable token suitable for handle ids,
// pending-call ids, and channel session tokens. UUIDv7 embeds a millisecond
// timestamp in its high bits, giving the same "time-prefixed unique token"
// property as a hand-rolled id without reinventing one.
func genId() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// serializeError collapses an arbitrary recovered value (an error, a string,
// or anything else a panic or a loosely-typed failure might carry) into a
// wire-safe message string.
func serializeError(v any) string {
	if v == nil {
		return ""
	}
	if err, ok := v.(error); ok {
		return err.Error()
	}
	if s, ok := v.(string); ok {
		return s
	}
	return stringify(v)
}

// stringify JSON-encodes v, falling back to fmt.Sprint when v is not
// JSON-representable.
func stringify(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
