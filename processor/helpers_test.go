package processor

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cryptomoji.dev/moji/model"
	"cryptomoji.dev/moji/state"
)

const (
	pk1  = "034f355bdcb7cc0af728ef3cceb9615d90684bb5b2ca5f859ab0f0b704075871aa"
	pk2  = "02d0f8a2f5c0a5e4b0e8bd0f0ed0b5d8e9b64a3c2c4e0c9d4b6f1f5a7e3c2b1a90"
	sig1 = "3044022079be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f8179802201a2b3c4d5e6f708192a3b4c5d6e7f8091a2b3c4d5e6f708192a3b4c5d6e7f809"
)

// recordingStore wraps a Store and records the order of operations.
type recordingStore struct {
	state.Store
	ops  []string
	sets int
}

func newRecordingStore() *recordingStore {
	return &recordingStore{Store: state.NewMemory()}
}

func (r *recordingStore) Get(ctx context.Context, keys []string) (map[string][]byte, error) {
	r.ops = append(r.ops, "get")
	return r.Store.Get(ctx, keys)
}

func (r *recordingStore) Set(ctx context.Context, u map[string][]byte) ([]string, error) {
	r.ops = append(r.ops, "set")
	r.sets++
	return r.Store.Set(ctx, u)
}

// assertReadsBeforeWrite fails unless every get precedes the last set.
func (r *recordingStore) assertReadsBeforeWrite(t *testing.T) {
	t.Helper()
	seenSet := false
	for _, op := range r.ops {
		if op == "set" {
			if seenSet {
				t.Fatalf("more than one write issued: %v", r.ops)
			}
			seenSet = true
			continue
		}
		if seenSet {
			t.Fatalf("read issued after write: %v", r.ops)
		}
	}
}

type failingStore struct {
	getErr, setErr error
	ack            func([]string) []string
	inner          *state.Memory
}

func (f *failingStore) Get(ctx context.Context, keys []string) (map[string][]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.inner.Get(ctx, keys)
}

func (f *failingStore) Set(ctx context.Context, u map[string][]byte) ([]string, error) {
	if f.setErr != nil {
		return nil, f.setErr
	}
	keys, err := f.inner.Set(ctx, u)
	if err == nil && f.ack != nil {
		keys = f.ack(keys)
	}
	return keys, err
}

func (f *failingStore) Delete(ctx context.Context, keys []string) ([]string, error) {
	return f.inner.Delete(ctx, keys)
}

var errBackend = errors.New("backend unavailable")

func payload(t *testing.T, a model.Action) []byte {
	t.Helper()
	b, err := model.EncodeAction(a)
	if err != nil {
		t.Fatalf("EncodeAction: %v", err)
	}
	return b
}

func mustApply(t *testing.T, h *Handler, store state.Store, req Request) Receipt {
	t.Helper()
	rc, err := h.Apply(context.Background(), req, store)
	if err != nil {
		t.Fatalf("Apply(%s): %v", req.Payload, err)
	}
	return rc
}

func expectRule(t *testing.T, err error, kind Kind, rule string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected structured *processor.Error, got %T: %v", err, err)
	}
	if e.Kind != kind {
		t.Fatalf("expected Kind %s, got %s (%v)", kind, e.Kind, err)
	}
	if rule != "" && e.RuleID != rule {
		t.Fatalf("expected RuleID %s, got %s", rule, e.RuleID)
	}
}

type collectionVector struct {
	Signer     string   `json:"signer"`
	Signature  string   `json:"signature"`
	Genomes    []string `json:"genomes"`
	Moji       []string `json:"moji"`
	Collection string   `json:"collection"`
}

func loadCollectionVectors(t *testing.T) []collectionVector {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("..", "testdata", "conformance", "moji", "vectors.json"))
	if err != nil {
		t.Fatalf("read vectors: %v", err)
	}
	var v struct {
		Collections []collectionVector `json:"collections"`
	}
	if err := json.Unmarshal(b, &v); err != nil {
		t.Fatalf("decode vectors: %v", err)
	}
	if len(v.Collections) == 0 {
		t.Fatalf("no collection vectors")
	}
	return v.Collections
}
