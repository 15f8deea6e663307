package codec

import "fmt"

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// Names accepted by ByName.
const (
	NameCBOR    = "cbor"
	NameMsgpack = "msgpack"
	NameJSON    = "json"
)

// ByName returns the structured codec registered under name.
// An empty name selects CBOR.
func ByName[V any](name string) (Codec[V], error) {
	switch name {
	case "", NameCBOR:
		c, err := NewCBOR[V](false)
		if err != nil {
			return nil, err
		}
		return c, nil
	case NameMsgpack:
		return Msgpack[V]{}, nil
	case NameJSON:
		return JSON[V]{}, nil
	default:
		return nil, fmt.Errorf("codec: unknown codec %q", name)
	}
}
