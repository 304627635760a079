// Package entry defines the ledger entries persisted by the marketplace and
// their storage serialization.
package entry

import (
	"fmt"

	"github.com/ugorji/go/codec"
)

// Entries are stored as CBOR. The handle is configured once and shared; it is
// safe for concurrent use by encoders and decoders.
var cborHandle = func() *codec.CborHandle {
	h := new(codec.CborHandle)
	h.Canonical = true
	return h
}()

func marshal(v interface{}) ([]byte, error) {
	var out []byte
	enc := codec.NewEncoderBytes(&out, cborHandle)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode entry: %w", err)
	}
	return out, nil
}

func unmarshal(data []byte, v interface{}) error {
	dec := codec.NewDecoderBytes(data, cborHandle)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode entry: %w", err)
	}
	return nil
}
