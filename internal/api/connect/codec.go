// Package connect provides the Connect RPC transport of the command boundary.
package connect

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// jsonCodec carries command records as plain JSON so the wire shapes match the
// records in package command exactly.
type jsonCodec struct{}

var _ connect.Codec = jsonCodec{}

// Name returns the codec name. It replaces connect's protobuf-backed JSON codec.
func (jsonCodec) Name() string {
	return "json"
}

// Marshal encodes a record.
func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

// Unmarshal decodes a record. An empty body leaves msg untouched.
func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}

// WithJSON registers the codec on a handler or client.
func WithJSON() connect.Option {
	return connect.WithCodec(jsonCodec{})
}
