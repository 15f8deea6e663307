package codec

import (
	"testing"
	"time"
)

type record struct {
	ID        int64
	Content   string
	Owners    []int64
	CreatedAt time.Time
}

func TestByNameRoundTrip(t *testing.T) {
	in := record{ID: 7, Content: "https://example.com", Owners: []int64{1, 2}, CreatedAt: time.Unix(1700000000, 0).UTC()}
	for _, name := range []string{"", NameCBOR, NameMsgpack, NameJSON} {
		c, err := ByName[record](name)
		if err != nil {
			t.Fatalf("%q: %v", name, err)
		}
		b, err := c.Encode(in)
		if err != nil {
			t.Fatalf("%q encode: %v", name, err)
		}
		out, err := c.Decode(b)
		if err != nil {
			t.Fatalf("%q decode: %v", name, err)
		}
		if out.ID != in.ID || out.Content != in.Content || len(out.Owners) != 2 || !out.CreatedAt.Equal(in.CreatedAt) {
			t.Fatalf("%q: got %+v", name, out)
		}
	}
}

func TestByNameUnknown(t *testing.T) {
	if _, err := ByName[record]("protobuf"); err == nil {
		t.Fatal("expected error for unknown codec")
	}
}

func TestLimitRejectsOversized(t *testing.T) {
	c := Limit[[]byte]{Inner: Bytes{}, MaxDecode: 4}
	if _, err := c.Decode([]byte("12345")); err == nil {
		t.Fatal("expected size error")
	}
	b, err := c.Decode([]byte("1234"))
	if err != nil || string(b) != "1234" {
		t.Fatalf("b=%q err=%v", b, err)
	}
}

func TestDeterministicCBORIsStable(t *testing.T) {
	c := MustCBOR[map[string]int](true)
	a, err := c.Encode(map[string]int{"b": 2, "a": 1, "c": 3})
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.Encode(map[string]int{"c": 3, "a": 1, "b": 2})
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Fatalf("deterministic encoding differs: %x vs %x", a, b)
	}
}

type tagged struct {
	ContentText string `json:"content"`
}

func TestMsgpackUsesJSONNames(t *testing.T) {
	b, err := Msgpack[tagged]{}.Encode(tagged{ContentText: "hi"})
	if err != nil {
		t.Fatal(err)
	}
	m, err := Msgpack[map[string]string]{}.Decode(b)
	if err != nil {
		t.Fatal(err)
	}
	if m["content"] != "hi" {
		t.Fatalf("got %v", m)
	}
}
