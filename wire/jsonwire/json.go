// Package jsonwire provides bridge's default envelope codec.
package jsonwire

import "encoding/json"

// Codec implements bridge.Codec for JSON.
type Codec struct{}

// New returns a JSON envelope codec.
func New() *Codec {
	return &Codec{}
}

// ContentType returns the MIME type for JSON.
func (c *Codec) ContentType() string {
	return "application/json"
}

// Marshal encodes v as JSON.
func (c *Codec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal decodes JSON data into v.
func (c *Codec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
