package wire

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

func TestEntryRoundTrip(t *testing.T) {
	cases := []struct {
		epoch   uint64
		payload []byte
	}{
		{0, nil},
		{42, []byte("hello")},
		{math.MaxUint64, []byte{0, 1, 2, 3, 4}},
	}
	for _, tc := range cases {
		epoch, p, err := DecodeEntry(EncodeEntry(tc.epoch, tc.payload))
		if err != nil {
			t.Fatalf("DecodeEntry error: %v", err)
		}
		if epoch != tc.epoch {
			t.Fatalf("epoch mismatch: got %d want %d", epoch, tc.epoch)
		}
		if !bytes.Equal(p, tc.payload) {
			t.Fatalf("payload mismatch: got %x want %x", p, tc.payload)
		}
	}
}

func TestEntryRejectsTrailingBytes(t *testing.T) {
	enc := EncodeEntry(7, []byte("x"))
	enc = append(enc, 0xDE, 0xAD)
	if _, _, err := DecodeEntry(enc); err != ErrCorrupt {
		t.Fatalf("err=%v want ErrCorrupt", err)
	}
}

func TestEntryCorruptHeaders(t *testing.T) {
	enc := EncodeEntry(1, []byte("abc"))

	mutate := func(i int, b byte) []byte {
		c := append([]byte(nil), enc...)
		c[i] = b
		return c
	}

	cases := map[string][]byte{
		"bad magic":   mutate(0, 'X'),
		"bad version": mutate(4, version+1),
		"bad kind":    mutate(5, kindEntry+1),
		"short":       enc[:headerLen-1],
		"truncated":   enc[:len(enc)-1],
		"empty":       nil,
	}
	for name, b := range cases {
		if _, _, err := DecodeEntry(b); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestEntryHugeLengthRejected(t *testing.T) {
	enc := EncodeEntry(1, []byte("abc"))
	binary.BigEndian.PutUint32(enc[14:18], math.MaxUint32)
	if _, _, err := DecodeEntry(enc); err == nil {
		t.Fatal("expected error on oversized vlen")
	}
}
