package codec

import (
	"github.com/fxamacker/cbor/v2"
)

// CBOR encodes records with fxamacker/cbor. Struct fields without cbor tags
// fall back to their json tags, so store types need no extra tags.
// Build it with NewCBOR or MustCBOR; the zero value panics on use.
type CBOR[V any] struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var _ Codec[struct{}] = CBOR[struct{}]{}

// NewCBOR returns a CBOR codec. deterministic selects RFC 8949 core
// deterministic encoding, for callers that hash encoded values.
// Timestamps are written as RFC 3339 strings with nanoseconds.
func NewCBOR[V any](deterministic bool) (CBOR[V], error) {
	eo := cbor.PreferredUnsortedEncOptions()
	if deterministic {
		eo = cbor.CoreDetEncOptions()
	}
	eo.Time = cbor.TimeRFC3339Nano

	enc, err := eo.EncMode()
	if err != nil {
		return CBOR[V]{}, err
	}
	// A cached record with a repeated key is corrupt; fail the decode so the
	// memo drops it.
	dec, err := cbor.DecOptions{DupMapKey: cbor.DupMapKeyEnforcedAPF}.DecMode()
	if err != nil {
		return CBOR[V]{}, err
	}
	return CBOR[V]{enc: enc, dec: dec}, nil
}

// MustCBOR panics when NewCBOR fails. Meant for tests.
func MustCBOR[V any](deterministic bool) CBOR[V] {
	c, err := NewCBOR[V](deterministic)
	if err != nil {
		panic(err)
	}
	return c
}

func (c CBOR[V]) Encode(v V) ([]byte, error) { return c.enc.Marshal(v) }

func (c CBOR[V]) Decode(b []byte) (V, error) {
	var v V
	if err := c.dec.Unmarshal(b, &v); err != nil {
		return v, err
	}
	return v, nil
}
