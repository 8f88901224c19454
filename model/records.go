package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// CollectionSize is the number of moji minted with every new collection.
const CollectionSize = 3

// Owner registers a display name for a public key.
type Owner struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Collection lists the moji addresses owned by a public key, sorted ascending.
type Collection struct {
	Key  string   `json:"key"`
	Moji []string `json:"moji"`
}

// Moji is a collectible creature.
//
// Sire and Breeder are nil until breeding links the moji to its parents.
// Sired and Bred hold the addresses of offspring.
type Moji struct {
	Bred    []string `json:"bred"`
	Breeder *string  `json:"breeder"`
	DNA     string   `json:"dna"`
	Owner   string   `json:"owner"`
	Sire    *string  `json:"sire"`
	Sired   []string `json:"sired"`
}

// NewMoji returns an unbred moji with empty lineage.
func NewMoji(owner, dna string) Moji {
	return Moji{DNA: dna, Owner: owner, Bred: []string{}, Sired: []string{}}
}

// SireListing marks one of an owner's moji as available to sire offspring.
type SireListing struct {
	Owner string `json:"owner"`
	Sire  string `json:"sire"`
}

// EncodeOwner returns the canonical state bytes of o.
func EncodeOwner(o Owner) ([]byte, error) { return encode(o) }

// EncodeCollection returns the canonical state bytes of c.
func EncodeCollection(c Collection) ([]byte, error) {
	if c.Moji == nil {
		c.Moji = []string{}
	}
	return encode(c)
}

// EncodeMoji returns the canonical state bytes of m.
func EncodeMoji(m Moji) ([]byte, error) {
	if m.Bred == nil {
		m.Bred = []string{}
	}
	if m.Sired == nil {
		m.Sired = []string{}
	}
	return encode(m)
}

// EncodeSireListing returns the canonical state bytes of s.
func EncodeSireListing(s SireListing) ([]byte, error) { return encode(s) }

func DecodeOwner(b []byte) (Owner, error) {
	var o Owner
	if err := decodeStrict(b, &o); err != nil {
		return Owner{}, err
	}
	return o, nil
}

func DecodeCollection(b []byte) (Collection, error) {
	var c Collection
	if err := decodeStrict(b, &c); err != nil {
		return Collection{}, err
	}
	return c, nil
}

func DecodeMoji(b []byte) (Moji, error) {
	var m Moji
	if err := decodeStrict(b, &m); err != nil {
		return Moji{}, err
	}
	return m, nil
}

func DecodeSireListing(b []byte) (SireListing, error) {
	var s SireListing
	if err := decodeStrict(b, &s); err != nil {
		return SireListing{}, err
	}
	return s, nil
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

var errTrailingData = errors.New("model: trailing data after JSON value")

// decodeStrict decodes exactly one JSON object with no unknown fields.
func decodeStrict(b []byte, v any) error {
	if len(b) == 0 {
		return errors.New("model: empty input")
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("model: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return errTrailingData
	}
	return nil
}
