package crypto

import (
	"bytes"

	"github.com/ugorji/go/codec"
)

// canonicalHandle encodes struct fields and map keys in sorted order, so that
// equal values always produce equal bytes.
func canonicalHandle() *codec.JsonHandle {
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	return jh
}

// Canonical returns the deterministic JSON encoding of v. It is the only
// serialization used for hashing and signing.
func Canonical(v interface{}) ([]byte, error) {
	b := new(bytes.Buffer)
	enc := codec.NewEncoder(b, canonicalHandle())

	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// DecodeCanonical decodes data produced by Canonical into v.
func DecodeCanonical(data []byte, v interface{}) error {
	dec := codec.NewDecoderBytes(data, canonicalHandle())
	return dec.Decode(v)
}
