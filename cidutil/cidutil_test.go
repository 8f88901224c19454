package cidutil

import (
	"bytes"
	"testing"
)

func TestCIDv1RawSHA256_Deterministic(t *testing.T) {
	a := CIDv1RawSHA256([]byte("moji"))
	b := CIDv1RawSHA256([]byte("moji"))
	if a == "" || a != b {
		t.Fatalf("expected stable non-empty CID, got %q vs %q", a, b)
	}
	if a == CIDv1RawSHA256([]byte("moji!")) {
		t.Fatalf("expected different bytes to give different CIDs")
	}
	id, err := CIDv1RawSHA256CID([]byte("moji"))
	if err != nil {
		t.Fatalf("CIDv1RawSHA256CID: %v", err)
	}
	if id.String() != a {
		t.Fatalf("string/CID mismatch: %s vs %s", id, a)
	}
}

func TestCanonicalEntries_OrderIndependent(t *testing.T) {
	m1 := map[string][]byte{"b": []byte("2"), "a": []byte("1")}
	m2 := map[string][]byte{"a": []byte("1"), "b": []byte("2")}
	if !bytes.Equal(CanonicalEntries(m1), CanonicalEntries(m2)) {
		t.Fatalf("canonical encoding depends on map order")
	}
	want := []byte{1, 'a', 1, '1', 1, 'b', 1, '2'}
	if got := CanonicalEntries(m1); !bytes.Equal(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
	// framing keeps ("ab","") distinct from ("a","b")
	x := CanonicalEntries(map[string][]byte{"ab": nil})
	y := CanonicalEntries(map[string][]byte{"a": []byte("b")})
	if bytes.Equal(x, y) {
		t.Fatalf("framing ambiguity")
	}
	c1, err := EntriesCID(m1)
	if err != nil {
		t.Fatalf("EntriesCID: %v", err)
	}
	c2, _ := EntriesCID(m2)
	if c1 != c2 {
		t.Fatalf("EntriesCID not order independent")
	}
}

func TestDecodeEntries(t *testing.T) {
	in := map[string][]byte{"k2": []byte("v2"), "k1": nil, "k3": []byte("x")}
	got, err := DecodeEntries(CanonicalEntries(in))
	if err != nil {
		t.Fatalf("DecodeEntries: %v", err)
	}
	if len(got) != 3 || string(got["k2"]) != "v2" || len(got["k1"]) != 0 {
		t.Fatalf("decoded %v", got)
	}
	if m, err := DecodeEntries(nil); err != nil || len(m) != 0 {
		t.Fatalf("empty input: %v %v", m, err)
	}
	for _, bad := range [][]byte{
		{1, 'a'},                    // key without value
		{5, 'a'},                    // truncated key
		{1, 'b', 0, 1, 'a', 0},      // descending keys
		{1, 'a', 0, 1, 'a', 1, 'x'}, // repeated key
	} {
		if _, err := DecodeEntries(bad); err != ErrMalformedEntries {
			t.Fatalf("DecodeEntries(%v): got %v", bad, err)
		}
	}
}
