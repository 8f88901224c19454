package processor

import (
	"context"
	"errors"
	"testing"

	"cryptomoji.dev/moji/address"
	"cryptomoji.dev/moji/model"
	"cryptomoji.dev/moji/state"
)

func TestRegistration(t *testing.T) {
	reg := New().Registration()
	if !reg.Accepts("cryptomoji", "0.1") {
		t.Fatalf("expected registration to accept cryptomoji 0.1")
	}
	if reg.Accepts("cryptomoji", "0.2") || reg.Accepts("intkey", "0.1") {
		t.Fatalf("registration too permissive")
	}
	if !reg.Owns(address.CollectionAddress("k")) {
		t.Fatalf("expected namespace ownership")
	}
	if reg.Owns("000000" + address.CollectionAddress("k")[6:]) {
		t.Fatalf("foreign namespace owned")
	}
}

func TestCreateOwner_ThenDuplicate(t *testing.T) {
	h := New()
	store := newRecordingStore()
	req := Request{Payload: payload(t, model.CreateOwner("Alice")), SignerPublicKey: pk1, Signature: sig1}

	rc := mustApply(t, h, store, req)
	addr := address.OwnerAddress(pk1)
	if len(rc.Written) != 1 || rc.Written[0] != addr {
		t.Fatalf("unexpected written set %v", rc.Written)
	}
	if rc.Action != model.ActionCreateOwner || !rc.WriteSetCID.Defined() {
		t.Fatalf("unexpected receipt %+v", rc)
	}
	store.assertReadsBeforeWrite(t)

	got, err := store.Get(context.Background(), []string{addr})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got[addr]) != `{"key":"`+pk1+`","name":"Alice"}` {
		t.Fatalf("stored owner: %s", got[addr])
	}

	setsBefore := store.sets
	_, err = h.Apply(context.Background(), Request{Payload: payload(t, model.CreateOwner("Mallory")), SignerPublicKey: pk1, Signature: sig1}, store)
	expectRule(t, err, KindDuplicateEntity, "MOJI-DUP-001")
	if store.sets != setsBefore {
		t.Fatalf("duplicate owner issued a write")
	}
	after, err := store.Get(context.Background(), []string{addr})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(after[addr]) != string(got[addr]) {
		t.Fatalf("owner record changed: %s", after[addr])
	}
}

func TestCreateOwner_DoesNotTouchSireListing(t *testing.T) {
	h := New()
	store := state.NewMemory()
	mustApply(t, h, store, Request{Payload: payload(t, model.CreateOwner("Alice")), SignerPublicKey: pk1})
	got, err := store.Get(context.Background(), []string{address.SireListingAddress(pk1)})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if state.Exists(got, address.SireListingAddress(pk1)) {
		t.Fatalf("owner registration wrote the sire listing address")
	}
}

func TestCreateOwner_EmptyName(t *testing.T) {
	_, err := New().Apply(context.Background(), Request{Payload: []byte(`{"action":"CREATE_OWNER","name":"  "}`), SignerPublicKey: pk1}, state.NewMemory())
	expectRule(t, err, KindDecode, "MOJI-DEC-003")
}

func TestApply_DecodeFailureStopsBeforeDispatch(t *testing.T) {
	store := newRecordingStore()
	for _, p := range []string{``, `not json`, `{"name":"x"}`, `{"action":"CREATE_OWNER","name":"x","bogus":true}`} {
		_, err := New().Apply(context.Background(), Request{Payload: []byte(p), SignerPublicKey: pk1, Signature: sig1}, store)
		expectRule(t, err, KindDecode, "MOJI-DEC-001")
	}
	if len(store.ops) != 0 {
		t.Fatalf("decode failure reached the store: %v", store.ops)
	}
}

func TestApply_UnknownAction(t *testing.T) {
	store := newRecordingStore()
	_, err := New().Apply(context.Background(), Request{Payload: []byte(`{"action":"TRADE_MOJI"}`), SignerPublicKey: pk1}, store)
	expectRule(t, err, KindUnknownAction, "MOJI-ACT-001")
	if !IsTerminal(err) {
		t.Fatalf("unknown action should be terminal")
	}
	if len(store.ops) != 0 {
		t.Fatalf("unknown action reached the store")
	}
}

func TestApply_BreedMojiUnsupported(t *testing.T) {
	store := newRecordingStore()
	req := Request{Payload: payload(t, model.BreedMoji(address.MojiAddress(pk1, "a"), address.MojiAddress(pk2, "b"))), SignerPublicKey: pk1}
	_, err := New().Apply(context.Background(), req, store)
	expectRule(t, err, KindUnsupported, "MOJI-ACT-002")
	if len(store.ops) != 0 {
		t.Fatalf("unsupported action reached the store")
	}
}

func TestApply_MissingSigner(t *testing.T) {
	_, err := New().Apply(context.Background(), Request{Payload: payload(t, model.CreateCollection())}, state.NewMemory())
	expectRule(t, err, KindDecode, "MOJI-DEC-002")
}

func TestApply_StoreFailuresAreTransient(t *testing.T) {
	req := Request{Payload: payload(t, model.CreateOwner("Alice")), SignerPublicKey: pk1}

	_, err := New().Apply(context.Background(), req, &failingStore{getErr: errBackend, inner: state.NewMemory()})
	expectRule(t, err, KindTransient, "MOJI-STATE-001")
	if !errors.Is(err, errBackend) {
		t.Fatalf("cause not preserved: %v", err)
	}
	if IsTerminal(err) {
		t.Fatalf("store failure must not be terminal")
	}

	_, err = New().Apply(context.Background(), req, &failingStore{setErr: errBackend, inner: state.NewMemory()})
	expectRule(t, err, KindTransient, "MOJI-STATE-002")

	dropAll := func([]string) []string { return nil }
	_, err = New().Apply(context.Background(), req, &failingStore{ack: dropAll, inner: state.NewMemory()})
	expectRule(t, err, KindTransient, "MOJI-STATE-003")
}

func TestApply_NilStore(t *testing.T) {
	_, err := New().Apply(context.Background(), Request{Payload: payload(t, model.CreateCollection()), SignerPublicKey: pk1}, nil)
	expectRule(t, err, KindInternal, "MOJI-STATE-000")
}
