package ledger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"cryptomoji.dev/moji/address"
	"cryptomoji.dev/moji/envelope"
	"cryptomoji.dev/moji/keys"
	"cryptomoji.dev/moji/model"
	"cryptomoji.dev/moji/processor"
	"cryptomoji.dev/moji/state"
)

func signer(t *testing.T, b byte) keys.Signer {
	t.Helper()
	s, err := keys.NewSigner(keys.Ed25519, bytes.Repeat([]byte{b}, keys.SeedSize))
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	return s
}

func newLedger(t *testing.T) (*Ledger, *state.Memory) {
	t.Helper()
	mem := state.NewMemory()
	l := New(mem)
	h := processor.New()
	if err := l.Register(h.Registration(), h); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return l, mem
}

func batch(t *testing.T, s keys.Signer, actions ...model.Action) envelope.Batch {
	t.Helper()
	b, err := envelope.BatchAll(s, envelope.Many(actions...))
	if err != nil {
		t.Fatalf("BatchAll: %v", err)
	}
	return b
}

func submitOne(t *testing.T, l *Ledger, b envelope.Batch) BatchResult {
	t.Helper()
	res, err := l.Submit(context.Background(), envelope.One(b))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(res) != 1 {
		t.Fatalf("expected 1 result, got %d", len(res))
	}
	return res[0]
}

func TestSubmit_CommitsWholeBatch(t *testing.T) {
	l, mem := newLedger(t)
	s := signer(t, 1)
	res := submitOne(t, l, batch(t, s, model.CreateOwner("Alice"), model.CreateCollection()))
	if res.Status != StatusCommitted || res.Error != nil {
		t.Fatalf("result: %+v", res)
	}
	if len(res.Receipts) != 2 {
		t.Fatalf("receipts: %d", len(res.Receipts))
	}
	if mem.Len() != 5 {
		t.Fatalf("records: %d", mem.Len())
	}
	got, err := mem.Get(context.Background(), []string{address.OwnerAddress(s.PublicKeyHex())})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if o, err := model.DecodeOwner(got[address.OwnerAddress(s.PublicKeyHex())]); err != nil || o.Name != "Alice" {
		t.Fatalf("owner: %+v %v", o, err)
	}
}

func TestSubmit_RejectedTransactionDiscardsBatch(t *testing.T) {
	l, mem := newLedger(t)
	s := signer(t, 2)
	// The second CREATE_OWNER sees the first one's buffered write.
	res := submitOne(t, l, batch(t, s, model.CreateOwner("Alice"), model.CreateOwner("Alice again")))
	if res.Status != StatusInvalid {
		t.Fatalf("status: %s", res.Status)
	}
	if res.Error == nil || res.Error.Code != model.ErrInvalidTransaction || res.Error.RuleID != "MOJI-DUP-001" {
		t.Fatalf("error: %+v", res.Error)
	}
	if res.FailedTransaction == "" || res.Receipts != nil {
		t.Fatalf("result: %+v", res)
	}
	if mem.Len() != 0 {
		t.Fatalf("rejected batch wrote %d records", mem.Len())
	}
}

func TestSubmit_LaterBatchesStillApply(t *testing.T) {
	l, mem := newLedger(t)
	s := signer(t, 3)
	bad := batch(t, s, model.Action{Action: "TRADE_MOJI"})
	good := batch(t, s, model.CreateOwner("Alice"))
	res, err := l.Submit(context.Background(), envelope.Many(bad, good))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res[0].Status != StatusInvalid || res[0].Error.RuleID != "MOJI-ACT-001" {
		t.Fatalf("first: %+v", res[0])
	}
	if res[1].Status != StatusCommitted || mem.Len() != 1 {
		t.Fatalf("second: %+v (%d records)", res[1], mem.Len())
	}
}

func TestSubmit_SignatureChecks(t *testing.T) {
	l, mem := newLedger(t)
	b := batch(t, signer(t, 4), model.CreateOwner("Alice"))
	b.HeaderSignature = batch(t, signer(t, 5), model.CreateOwner("Alice")).HeaderSignature
	res := submitOne(t, l, b)
	if res.Status != StatusInvalid || res.Error.Code != model.ErrInvalidSignature {
		t.Fatalf("result: %+v", res)
	}

	tampered := batch(t, signer(t, 4), model.CreateOwner("Alice"))
	tampered.Transactions[0].Payload = []byte(`{"action":"CREATE_OWNER","name":"Mallory"}`)
	res = submitOne(t, l, tampered)
	if res.Status != StatusInvalid || res.Error.Code != model.ErrInvalidTransaction {
		t.Fatalf("tampered: %+v", res)
	}
	if mem.Len() != 0 {
		t.Fatalf("invalid batches wrote state")
	}
}

func TestSubmit_UnknownFamily(t *testing.T) {
	l, _ := newLedger(t)
	s := signer(t, 6)
	tx, err := envelope.NewActionTransaction(s, model.CreateOwner("A"), envelope.WithFamily("intkey", "1.0"))
	if err != nil {
		t.Fatalf("NewActionTransaction: %v", err)
	}
	b, err := envelope.NewBatch(s, envelope.One(tx))
	if err != nil {
		t.Fatalf("NewBatch: %v", err)
	}
	res := submitOne(t, l, b)
	if res.Status != StatusInvalid || res.Error.Code != model.ErrUnknownFamily {
		t.Fatalf("result: %+v", res)
	}
}

func TestSubmit_ScopeEnforced(t *testing.T) {
	l, mem := newLedger(t)
	s := signer(t, 7)
	// Outputs restricted to collections; CREATE_OWNER writes an owner address.
	tx, err := envelope.NewActionTransaction(s, model.CreateOwner("A"), envelope.WithOutputs(address.CollectionPrefix().String()))
	if err != nil {
		t.Fatalf("NewActionTransaction: %v", err)
	}
	b, _ := envelope.NewBatch(s, envelope.One(tx))
	res := submitOne(t, l, b)
	if res.Status != StatusInvalid || res.Error.RuleID != "LEDGER-SCOPE-001" {
		t.Fatalf("result: %+v", res.Error)
	}
	if mem.Len() != 0 {
		t.Fatalf("scoped-out write reached state")
	}
}

func TestSubmit_ReplayAndDependencies(t *testing.T) {
	l, _ := newLedger(t)
	s := signer(t, 8)
	first := batch(t, s, model.CreateOwner("Alice"))
	if res := submitOne(t, l, first); res.Status != StatusCommitted {
		t.Fatalf("first: %+v", res)
	}
	if res := submitOne(t, l, first); res.Status != StatusInvalid || res.Error.Code != model.ErrInvalidTransaction {
		t.Fatalf("replay: %+v", res)
	}

	dep, _ := envelope.NewActionTransaction(s, model.CreateCollection(), envelope.WithDependencies("not-committed"))
	b, _ := envelope.NewBatch(s, envelope.One(dep))
	if res := submitOne(t, l, b); res.Status != StatusInvalid {
		t.Fatalf("unmet dependency: %+v", res)
	}

	ok, _ := envelope.NewActionTransaction(s, model.CreateCollection(), envelope.WithDependencies(first.Transactions[0].ID()))
	b, _ = envelope.NewBatch(s, envelope.One(ok))
	if res := submitOne(t, l, b); res.Status != StatusCommitted {
		t.Fatalf("met dependency: %+v", res)
	}
}

type brokenStore struct{ state.Store }

var errDown = errors.New("store down")

func (brokenStore) Get(context.Context, []string) (map[string][]byte, error) { return nil, errDown }

func TestSubmit_StoreFailureIsRetryable(t *testing.T) {
	l := New(brokenStore{Store: state.NewMemory()})
	h := processor.New()
	if err := l.Register(h.Registration(), h); err != nil {
		t.Fatalf("Register: %v", err)
	}
	res := submitOne(t, l, batch(t, signer(t, 9), model.CreateOwner("A")))
	if res.Status != StatusFailed || res.Error.Code != model.ErrInternal || res.Error.RuleID != "MOJI-STATE-001" {
		t.Fatalf("result: %+v %+v", res, res.Error)
	}
}

func TestRegister_Validation(t *testing.T) {
	l, _ := newLedger(t)
	h := processor.New()
	if err := l.Register(h.Registration(), h); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
	if err := l.Register(processor.Registration{FamilyName: "x", FamilyVersions: []string{"1"}}, h); err == nil {
		t.Fatalf("expected missing namespace to fail")
	}
	if err := l.Register(processor.Registration{FamilyName: "x", FamilyVersions: []string{"1"}, Namespaces: []string{"aa"}}, nil); err == nil {
		t.Fatalf("expected nil handler to fail")
	}
}

func TestSubmitBytes(t *testing.T) {
	l, mem := newLedger(t)
	encoded, err := envelope.EncodeAll(signer(t, 10), envelope.One(model.CreateCollection()))
	if err != nil {
		t.Fatalf("EncodeAll: %v", err)
	}
	res, err := l.SubmitBytes(context.Background(), encoded)
	if err != nil {
		t.Fatalf("SubmitBytes: %v", err)
	}
	if res[0].Status != StatusCommitted || mem.Len() != model.CollectionSize+1 {
		t.Fatalf("result: %+v", res[0])
	}
	if _, err := l.SubmitBytes(context.Background(), nil); err == nil {
		t.Fatalf("expected empty batch list to fail")
	}
}

func TestSubmit_ContextCancelled(t *testing.T) {
	l, _ := newLedger(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := l.Submit(ctx, envelope.One(batch(t, signer(t, 11), model.CreateOwner("A"))))
	if !errors.Is(err, context.Canceled) || len(res) != 0 {
		t.Fatalf("expected cancellation, got %v (%d results)", err, len(res))
	}
}
