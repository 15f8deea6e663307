package codec

// Bytes is an identity codec for []byte values. Encode/Decode return the
// input unchanged. Used for rendered images, which are already encoded.
type Bytes struct{}

var _ Codec[[]byte] = Bytes{}

func (Bytes) Encode(b []byte) ([]byte, error) { return b, nil }
func (Bytes) Decode(b []byte) ([]byte, error) { return b, nil }

