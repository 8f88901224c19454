package envelope

import (
	"errors"
	"fmt"
	"slices"

	"google.golang.org/protobuf/encoding/protowire"

	"cryptomoji.dev/moji/keys"
	"cryptomoji.dev/moji/model"
)

var (
	ErrEmptyBatch    = errors.New("envelope: batch has no transactions")
	ErrBatchMismatch = errors.New("envelope: batch header does not match its transactions")
)

const (
	bhSignerPublicKey protowire.Number = 1
	bhTransactionIDs  protowire.Number = 2

	batchHeader          protowire.Number = 1
	batchHeaderSignature protowire.Number = 2
	batchTransactions    protowire.Number = 3
	batchTrace           protowire.Number = 4

	listBatches protowire.Number = 1
)

// BatchHeader lists, in order, the transactions a batch commits to.
type BatchHeader struct {
	SignerPublicKey string
	TransactionIDs  []string
}

func (h BatchHeader) Marshal() []byte {
	var b []byte
	b = appendString(b, bhSignerPublicKey, h.SignerPublicKey)
	b = appendStrings(b, bhTransactionIDs, h.TransactionIDs)
	return b
}

func UnmarshalBatchHeader(b []byte) (BatchHeader, error) {
	fields, err := parseFields(b)
	if err != nil {
		return BatchHeader{}, err
	}
	var h BatchHeader
	for _, f := range fields {
		switch f.num {
		case bhSignerPublicKey:
			if err := expectBytes(f); err != nil {
				return BatchHeader{}, err
			}
			h.SignerPublicKey = string(f.bytes)
		case bhTransactionIDs:
			if err := expectBytes(f); err != nil {
				return BatchHeader{}, err
			}
			h.TransactionIDs = append(h.TransactionIDs, string(f.bytes))
		}
	}
	return h, nil
}

// Batch is the unit of atomic commit: every transaction applies or none do.
type Batch struct {
	Header          []byte
	HeaderSignature string
	Transactions    []Transaction
	Trace           bool
}

// NewBatch signs a batch header over txs.
func NewBatch(signer keys.Signer, txs OneOrMany[Transaction]) (Batch, error) {
	items := txs.Items()
	if len(items) == 0 {
		return Batch{}, ErrEmptyBatch
	}
	ids := make([]string, 0, len(items))
	for _, t := range items {
		ids = append(ids, t.ID())
	}
	hb := BatchHeader{SignerPublicKey: signer.PublicKeyHex(), TransactionIDs: ids}.Marshal()
	sig, err := signer.Sign(hb)
	if err != nil {
		return Batch{}, fmt.Errorf("envelope: sign batch header: %w", err)
	}
	return Batch{Header: hb, HeaderSignature: sig, Transactions: slices.Clone(items)}, nil
}

func (b Batch) ID() string { return b.HeaderSignature }

// Verify checks the batch signature, that the header lists exactly the
// carried transactions in order, and that every transaction verifies and
// names the batch signer as its batcher.
func (b Batch) Verify() (BatchHeader, error) {
	h, err := UnmarshalBatchHeader(b.Header)
	if err != nil {
		return BatchHeader{}, err
	}
	if len(b.Transactions) == 0 {
		return BatchHeader{}, ErrEmptyBatch
	}
	if err := keys.Verify(h.SignerPublicKey, b.Header, b.HeaderSignature); err != nil {
		return BatchHeader{}, fmt.Errorf("%w: %v", ErrSignature, err)
	}
	if len(h.TransactionIDs) != len(b.Transactions) {
		return BatchHeader{}, ErrBatchMismatch
	}
	for i, t := range b.Transactions {
		if h.TransactionIDs[i] != t.ID() {
			return BatchHeader{}, fmt.Errorf("%w: transaction %d", ErrBatchMismatch, i)
		}
		th, err := t.Verify()
		if err != nil {
			return BatchHeader{}, fmt.Errorf("transaction %d: %w", i, err)
		}
		if th.BatcherPublicKey != h.SignerPublicKey {
			return BatchHeader{}, fmt.Errorf("%w: transaction %d names another batcher", ErrBatchMismatch, i)
		}
	}
	return h, nil
}

func (b Batch) Marshal() []byte {
	var out []byte
	out = appendBytes(out, batchHeader, b.Header)
	out = appendString(out, batchHeaderSignature, b.HeaderSignature)
	for _, t := range b.Transactions {
		out = protowire.AppendTag(out, batchTransactions, protowire.BytesType)
		out = protowire.AppendBytes(out, t.Marshal())
	}
	return appendBool(out, batchTrace, b.Trace)
}

func UnmarshalBatch(data []byte) (Batch, error) {
	fields, err := parseFields(data)
	if err != nil {
		return Batch{}, err
	}
	var b Batch
	for _, f := range fields {
		switch f.num {
		case batchHeader:
			if err := expectBytes(f); err != nil {
				return Batch{}, err
			}
			b.Header = append([]byte(nil), f.bytes...)
		case batchHeaderSignature:
			if err := expectBytes(f); err != nil {
				return Batch{}, err
			}
			b.HeaderSignature = string(f.bytes)
		case batchTransactions:
			if err := expectBytes(f); err != nil {
				return Batch{}, err
			}
			t, err := UnmarshalTransaction(f.bytes)
			if err != nil {
				return Batch{}, err
			}
			b.Transactions = append(b.Transactions, t)
		case batchTrace:
			if f.typ != protowire.VarintType {
				return Batch{}, fmt.Errorf("%w: trace has wire type %d", ErrMalformed, f.typ)
			}
			b.Trace = f.varint != 0
		}
	}
	return b, nil
}

// EncodeBatchList encodes one or more batches for submission.
func EncodeBatchList(batches OneOrMany[Batch]) []byte {
	var out []byte
	for _, b := range batches.Items() {
		out = protowire.AppendTag(out, listBatches, protowire.BytesType)
		out = protowire.AppendBytes(out, b.Marshal())
	}
	return out
}

func DecodeBatchList(data []byte) ([]Batch, error) {
	fields, err := parseFields(data)
	if err != nil {
		return nil, err
	}
	var out []Batch
	for _, f := range fields {
		if f.num != listBatches {
			continue
		}
		if err := expectBytes(f); err != nil {
			return nil, err
		}
		b, err := UnmarshalBatch(f.bytes)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// EncodeAll wraps each action in its own transaction, all of them in one
// batch, and returns the encoded batch list.
func EncodeAll(signer keys.Signer, actions OneOrMany[model.Action], opts ...TxOption) ([]byte, error) {
	b, err := BatchAll(signer, actions, opts...)
	if err != nil {
		return nil, err
	}
	return EncodeBatchList(One(b)), nil
}

// BatchAll is EncodeAll without the final encoding step.
func BatchAll(signer keys.Signer, actions OneOrMany[model.Action], opts ...TxOption) (Batch, error) {
	items := actions.Items()
	txs := make([]Transaction, 0, len(items))
	for i, a := range items {
		t, err := NewActionTransaction(signer, a, opts...)
		if err != nil {
			return Batch{}, fmt.Errorf("action %d: %w", i, err)
		}
		txs = append(txs, t)
	}
	return NewBatch(signer, Many(txs...))
}
