// Package msgpackwire provides an alternate, binary envelope codec for
// bridge transports where JSON's verbosity matters (the same envelope
// shape, a more compact wire encoding).
package msgpackwire

import "github.com/vmihailenco/msgpack/v5"

// Codec implements bridge.Codec for MessagePack.
type Codec struct{}

// New returns a MessagePack envelope codec.
func New() *Codec {
	return &Codec{}
}

// ContentType returns the MIME type for MessagePack.
func (c *Codec) ContentType() string {
	return "application/msgpack"
}

// Marshal encodes v as MessagePack.
func (c *Codec) Marshal(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

// Unmarshal decodes MessagePack data into v.
func (c *Codec) Unmarshal(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}
