// Package envelope builds, encodes and verifies the signed transaction and
// batch messages that carry cryptomoji payloads to a ledger host.
//
// Messages use the protobuf wire format with the host's field numbers. They
// are encoded with protowire directly; no generated code is involved.
package envelope

import (
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"cryptomoji.dev/moji/address"
	"cryptomoji.dev/moji/keys"
	"cryptomoji.dev/moji/model"
	"cryptomoji.dev/moji/processor"
)

var (
	ErrPayloadHash = errors.New("envelope: payload does not match header hash")
	ErrSignature   = errors.New("envelope: header signature invalid")
)

const (
	txHeader          protowire.Number = 1
	txHeaderSignature protowire.Number = 2
	txPayload         protowire.Number = 3
)

// Transaction is a signed header plus the payload it commits to.
type Transaction struct {
	Header          []byte
	HeaderSignature string
	Payload         []byte
}

type txOptions struct {
	nonce         string
	familyName    string
	familyVersion string
	inputs        []string
	outputs       []string
	dependencies  []string
	batcherKeyHex string
}

type TxOption func(*txOptions)

// WithNonce fixes the header nonce. Without it a random nonce is drawn.
func WithNonce(n string) TxOption { return func(o *txOptions) { o.nonce = n } }

// WithFamily overrides the transaction family name and version.
func WithFamily(name, version string) TxOption {
	return func(o *txOptions) { o.familyName, o.familyVersion = name, version }
}

// WithInputs and WithOutputs narrow the addresses the host lets the
// transaction read and write. Both default to the cryptomoji namespace.
func WithInputs(addrs ...string) TxOption  { return func(o *txOptions) { o.inputs = addrs } }
func WithOutputs(addrs ...string) TxOption { return func(o *txOptions) { o.outputs = addrs } }

// WithDependencies lists header signatures that must commit first.
func WithDependencies(ids ...string) TxOption {
	return func(o *txOptions) { o.dependencies = ids }
}

// WithBatcher names a batcher other than the signer.
func WithBatcher(publicKeyHex string) TxOption {
	return func(o *txOptions) { o.batcherKeyHex = publicKeyHex }
}

// PayloadHash returns the lowercase hex SHA-512 of payload.
func PayloadHash(payload []byte) string {
	sum := sha512.Sum512(payload)
	return hex.EncodeToString(sum[:])
}

func randomNonce() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}

// NewTransaction signs a header committing to payload.
func NewTransaction(signer keys.Signer, payload []byte, opts ...TxOption) (Transaction, error) {
	o := txOptions{
		familyName:    processor.FamilyName,
		familyVersion: processor.FamilyVersion,
		inputs:        []string{address.Namespace},
		outputs:       []string{address.Namespace},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.nonce == "" {
		n, err := randomNonce()
		if err != nil {
			return Transaction{}, fmt.Errorf("envelope: nonce: %w", err)
		}
		o.nonce = n
	}
	pub := signer.PublicKeyHex()
	batcher := o.batcherKeyHex
	if batcher == "" {
		batcher = pub
	}
	hdr := Header{
		BatcherPublicKey: batcher,
		Dependencies:     o.dependencies,
		FamilyName:       o.familyName,
		FamilyVersion:    o.familyVersion,
		Inputs:           o.inputs,
		Nonce:            o.nonce,
		Outputs:          o.outputs,
		PayloadSHA512:    PayloadHash(payload),
		SignerPublicKey:  pub,
	}
	hb := hdr.Marshal()
	sig, err := signer.Sign(hb)
	if err != nil {
		return Transaction{}, fmt.Errorf("envelope: sign header: %w", err)
	}
	return Transaction{Header: hb, HeaderSignature: sig, Payload: payload}, nil
}

// NewActionTransaction encodes a and wraps it in a signed transaction.
func NewActionTransaction(signer keys.Signer, a model.Action, opts ...TxOption) (Transaction, error) {
	payload, err := model.EncodeAction(a)
	if err != nil {
		return Transaction{}, err
	}
	return NewTransaction(signer, payload, opts...)
}

// ID is the header signature, which identifies the transaction.
func (t Transaction) ID() string { return t.HeaderSignature }

func (t Transaction) ParsedHeader() (Header, error) { return UnmarshalHeader(t.Header) }

// Verify checks that the payload matches the header hash and that the
// header signature belongs to the header's signer.
func (t Transaction) Verify() (Header, error) {
	h, err := t.ParsedHeader()
	if err != nil {
		return Header{}, err
	}
	if h.PayloadSHA512 != PayloadHash(t.Payload) {
		return Header{}, ErrPayloadHash
	}
	if err := keys.Verify(h.SignerPublicKey, t.Header, t.HeaderSignature); err != nil {
		return Header{}, fmt.Errorf("%w: %v", ErrSignature, err)
	}
	return h, nil
}

// Request returns the fields the processor consumes. It does not verify.
func (t Transaction) Request() (processor.Request, error) {
	h, err := t.ParsedHeader()
	if err != nil {
		return processor.Request{}, err
	}
	return processor.Request{
		Payload:         t.Payload,
		SignerPublicKey: h.SignerPublicKey,
		Signature:       t.HeaderSignature,
	}, nil
}

func (t Transaction) Marshal() []byte {
	var b []byte
	b = appendBytes(b, txHeader, t.Header)
	b = appendString(b, txHeaderSignature, t.HeaderSignature)
	b = appendBytes(b, txPayload, t.Payload)
	return b
}

func UnmarshalTransaction(b []byte) (Transaction, error) {
	fields, err := parseFields(b)
	if err != nil {
		return Transaction{}, err
	}
	var t Transaction
	for _, f := range fields {
		switch f.num {
		case txHeader:
			if err := expectBytes(f); err != nil {
				return Transaction{}, err
			}
			t.Header = append([]byte(nil), f.bytes...)
		case txHeaderSignature:
			if err := expectBytes(f); err != nil {
				return Transaction{}, err
			}
			t.HeaderSignature = string(f.bytes)
		case txPayload:
			if err := expectBytes(f); err != nil {
				return Transaction{}, err
			}
			t.Payload = append([]byte(nil), f.bytes...)
		}
	}
	return t, nil
}
