package state_test

import (
	"context"
	"errors"
	"testing"

	"cryptomoji.dev/moji/state"
	"cryptomoji.dev/moji/state/statetest"
)

func TestMulti_ReadFallbackWriteFirst(t *testing.T) {
	ctx := context.Background()
	primary, secondary := state.NewMemory(), state.NewMemory()
	k1, k2 := statetest.Key("00", 1), statetest.Key("00", 2)
	if _, err := secondary.Set(ctx, map[string][]byte{k2: []byte("from-secondary")}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	m := state.Multi{Stores: []state.Store{primary, secondary}}
	if _, err := m.Set(ctx, map[string][]byte{k1: []byte("from-primary")}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if secondary.Len() != 1 {
		t.Fatalf("Multi wrote to secondary")
	}
	got, err := m.Get(ctx, []string{k1, k2})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got[k1]) != "from-primary" || string(got[k2]) != "from-secondary" {
		t.Fatalf("fallback read wrong: %q %q", got[k1], got[k2])
	}
}

type ackDropper struct{ state.Store }

func (a ackDropper) Set(ctx context.Context, u map[string][]byte) ([]string, error) {
	keys, err := a.Store.Set(ctx, u)
	if err != nil || len(keys) == 0 {
		return keys, err
	}
	return keys[1:], nil
}

func TestReplicating_AckMismatch(t *testing.T) {
	ctx := context.Background()
	r := state.Replicating{Backends: []state.NamedStore{
		{Name: "ok", Store: state.NewMemory()},
		{Name: "lossy", Store: ackDropper{state.NewMemory()}},
	}}
	_, acks, err := r.SetAll(ctx, map[string][]byte{statetest.Key("00", 1): []byte("v")})
	if !errors.Is(err, state.ErrAckMismatch) {
		t.Fatalf("expected ErrAckMismatch, got %v", err)
	}
	if len(acks["ok"]) != 1 {
		t.Fatalf("expected ack from first backend, got %v", acks)
	}
}

func TestReplicating_NoBackends(t *testing.T) {
	if _, err := (state.Replicating{}).Get(context.Background(), nil); err == nil {
		t.Fatalf("expected error")
	}
}

func TestList_Unsupported(t *testing.T) {
	type bare struct{ state.Store }
	_, err := state.List(context.Background(), bare{state.NewMemory()}, "5f4d76")
	if !errors.Is(err, state.ErrListUnsupported) {
		t.Fatalf("expected ErrListUnsupported, got %v", err)
	}
}
