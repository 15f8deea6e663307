package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	version   byte = 1
	kindEntry byte = 1
	headerLen      = 4 + 1 + 1 + 8 + 4
)

var (
	ErrCorrupt = errors.New("qrcache: corrupt entry")
	magic4     = [...]byte{'Q', 'R', 'M', 'C'}
)

// Entry: magic(4) | ver(1) | kind(1) | epoch(u64 be) | vlen(u32 be) | payload(vlen)
func EncodeEntry(epoch uint64, payload []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(headerLen + len(payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kindEntry)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], epoch)
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(payload)))
	buf.Write(u4[:])

	buf.Write(payload)
	return buf.Bytes()
}

// DecodeEntry validates the frame and returns its epoch and payload. The
// payload aliases b. Trailing bytes after the payload are treated as corruption.
func DecodeEntry(b []byte) (epoch uint64, payload []byte, err error) {
	if len(b) < headerLen || !bytes.Equal(b[:4], magic4[:]) || b[4] != version || b[5] != kindEntry {
		return 0, nil, ErrCorrupt
	}

	off := 6
	epoch = binary.BigEndian.Uint64(b[off : off+8])
	off += 8

	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen != len(b)-off {
		return 0, nil, ErrCorrupt
	}
	return epoch, b[off:], nil
}
