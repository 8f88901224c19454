package model

import "testing"

func TestEncodeMoji_CanonicalShape(t *testing.T) {
	b, err := EncodeMoji(NewMoji("pk1", "0123"))
	if err != nil {
		t.Fatalf("EncodeMoji: %v", err)
	}
	const want = `{"bred":[],"breeder":null,"dna":"0123","owner":"pk1","sire":null,"sired":[]}`
	if string(b) != want {
		t.Fatalf("unexpected encoding:\n got %s\nwant %s", b, want)
	}

	// nil lineage slices still encode as empty lists
	b, err = EncodeMoji(Moji{DNA: "0123", Owner: "pk1"})
	if err != nil {
		t.Fatalf("EncodeMoji: %v", err)
	}
	if string(b) != want {
		t.Fatalf("nil slices: got %s", b)
	}
}

func TestEncodeCollection_CanonicalShape(t *testing.T) {
	b, err := EncodeCollection(Collection{Key: "pk1", Moji: []string{"a", "b"}})
	if err != nil {
		t.Fatalf("EncodeCollection: %v", err)
	}
	if got, want := string(b), `{"key":"pk1","moji":["a","b"]}`; got != want {
		t.Fatalf("got %s want %s", got, want)
	}
	b, err = EncodeCollection(Collection{Key: "pk1"})
	if err != nil {
		t.Fatalf("EncodeCollection: %v", err)
	}
	if got, want := string(b), `{"key":"pk1","moji":[]}`; got != want {
		t.Fatalf("got %s want %s", got, want)
	}
}

func TestOwnerAndSireListing_RoundTrip(t *testing.T) {
	b, err := EncodeOwner(Owner{Key: "pk1", Name: "Alice <&>"})
	if err != nil {
		t.Fatalf("EncodeOwner: %v", err)
	}
	if got, want := string(b), `{"key":"pk1","name":"Alice <&>"}`; got != want {
		t.Fatalf("got %s want %s", got, want)
	}
	o, err := DecodeOwner(b)
	if err != nil {
		t.Fatalf("DecodeOwner: %v", err)
	}
	if o.Key != "pk1" || o.Name != "Alice <&>" {
		t.Fatalf("unexpected owner %+v", o)
	}

	b, err = EncodeSireListing(SireListing{Owner: "pk1", Sire: "addr"})
	if err != nil {
		t.Fatalf("EncodeSireListing: %v", err)
	}
	if got, want := string(b), `{"owner":"pk1","sire":"addr"}`; got != want {
		t.Fatalf("got %s want %s", got, want)
	}
}

func TestDecodeMoji_Lineage(t *testing.T) {
	m, err := DecodeMoji([]byte(`{"bred":["x"],"breeder":"b","dna":"d","owner":"o","sire":null,"sired":[]}`))
	if err != nil {
		t.Fatalf("DecodeMoji: %v", err)
	}
	if m.Sire != nil {
		t.Fatalf("expected nil sire")
	}
	if m.Breeder == nil || *m.Breeder != "b" {
		t.Fatalf("unexpected breeder %v", m.Breeder)
	}
	if len(m.Bred) != 1 || m.Bred[0] != "x" {
		t.Fatalf("unexpected bred %v", m.Bred)
	}
}

func TestDecode_RejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"empty":         ``,
		"not json":      `hello`,
		"unknown field": `{"key":"k","name":"n","extra":1}`,
		"trailing":      `{"key":"k","name":"n"}{}`,
		"array":         `["k"]`,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeOwner([]byte(in)); err == nil {
				t.Fatalf("expected error for %q", in)
			}
		})
	}
	if _, err := DecodeOwner([]byte(`{"key":"k","name":"n"}` + "\n")); err != nil {
		t.Fatalf("trailing newline should be accepted: %v", err)
	}
}
