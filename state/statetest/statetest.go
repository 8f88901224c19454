// Package statetest provides a conformance suite for state.Store adapters.
package statetest

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"cryptomoji.dev/moji/state"
)

// NewStore constructs a fresh, empty Store for a test.
// The returned Store MUST be isolated from other tests.
type NewStore func(t *testing.T) state.Store

// Key returns a deterministic valid key: namespace, kind and a hex index.
func Key(kind string, i int) string {
	const hexdigits = "0123456789abcdef"
	suffix := []byte(strings.Repeat("0", state.KeyLength-8))
	for n, p := i, len(suffix)-1; n > 0 && p >= 0; n, p = n/16, p-1 {
		suffix[p] = hexdigits[n%16]
	}
	return "5f4d76" + kind + string(suffix)
}

func RunStoreConformance(t *testing.T, newStore NewStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("GetMissingReturnsEmpty", func(t *testing.T) {
		s := newStore(t)
		k := Key("00", 1)
		got, err := s.Get(ctx, []string{k})
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		v, ok := got[k]
		if !ok {
			t.Fatalf("Get omitted requested key")
		}
		if len(v) != 0 {
			t.Fatalf("expected empty value, got %q", v)
		}
	})

	t.Run("SetGetRoundTrip", func(t *testing.T) {
		s := newStore(t)
		updates := map[string][]byte{
			Key("01", 2): []byte(`{"dna":"b"}`),
			Key("01", 1): []byte(`{"dna":"a"}`),
			Key("00", 1): []byte(`{"key":"k"}`),
		}
		written, err := s.Set(ctx, updates)
		if err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if want := state.SortedKeys(updates); !slices.Equal(written, want) {
			t.Fatalf("Set ack: got %v want %v", written, want)
		}
		got, err := s.Get(ctx, state.SortedKeys(updates))
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		for k, want := range updates {
			if !bytes.Equal(got[k], want) {
				t.Fatalf("Get(%s): got %q want %q", k, got[k], want)
			}
		}
	})

	t.Run("SetOverwrites", func(t *testing.T) {
		s := newStore(t)
		k := Key("02", 7)
		if _, err := s.Set(ctx, map[string][]byte{k: []byte("one")}); err != nil {
			t.Fatalf("Set(1) failed: %v", err)
		}
		if _, err := s.Set(ctx, map[string][]byte{k: []byte("two")}); err != nil {
			t.Fatalf("Set(2) failed: %v", err)
		}
		got, err := s.Get(ctx, []string{k})
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(got[k]) != "two" {
			t.Fatalf("expected overwrite, got %q", got[k])
		}
	})

	t.Run("DeleteReportsRemoved", func(t *testing.T) {
		s := newStore(t)
		present, absent := Key("01", 3), Key("01", 4)
		if _, err := s.Set(ctx, map[string][]byte{present: []byte("x")}); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		removed, err := s.Delete(ctx, []string{absent, present})
		if err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if !slices.Equal(removed, []string{present}) {
			t.Fatalf("Delete: got %v want [%s]", removed, present)
		}
		got, err := s.Get(ctx, []string{present})
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if len(got[present]) != 0 {
			t.Fatalf("value survived Delete")
		}
	})

	t.Run("RejectInvalidKeys", func(t *testing.T) {
		s := newStore(t)
		bad := []string{"", "5f4d76", strings.ToUpper(Key("00", 1)), Key("00", 1) + "0"}
		for _, k := range bad {
			if _, err := s.Get(ctx, []string{k}); !errors.Is(err, state.ErrInvalidKey) {
				t.Fatalf("Get(%q): got err=%v want ErrInvalidKey", k, err)
			}
			if _, err := s.Set(ctx, map[string][]byte{k: []byte("v")}); !errors.Is(err, state.ErrInvalidKey) {
				t.Fatalf("Set(%q): got err=%v want ErrInvalidKey", k, err)
			}
		}
	})

	t.Run("RejectEmptyValue", func(t *testing.T) {
		s := newStore(t)
		k := Key("00", 9)
		if _, err := s.Set(ctx, map[string][]byte{k: nil}); !errors.Is(err, state.ErrEmptyValue) {
			t.Fatalf("Set(empty): got err=%v want ErrEmptyValue", err)
		}
	})

	t.Run("SetIsAllOrNothing", func(t *testing.T) {
		s := newStore(t)
		good := Key("00", 10)
		_, err := s.Set(ctx, map[string][]byte{good: []byte("v"), "bad": []byte("v")})
		if err == nil {
			t.Fatalf("expected Set with an invalid key to fail")
		}
		got, err := s.Get(ctx, []string{good})
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if len(got[good]) != 0 {
			t.Fatalf("partial write observed after failed Set")
		}
	})

	t.Run("ListByPrefix", func(t *testing.T) {
		s := newStore(t)
		if _, ok := s.(state.Lister); !ok {
			t.Skip("store does not implement state.Lister")
		}
		updates := map[string][]byte{
			Key("01", 1): []byte("a"),
			Key("01", 2): []byte("b"),
			Key("00", 1): []byte("c"),
		}
		if _, err := s.Set(ctx, updates); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		got, err := state.List(ctx, s, "5f4d7601")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if want := []string{Key("01", 1), Key("01", 2)}; !slices.Equal(got, want) {
			t.Fatalf("List: got %v want %v", got, want)
		}
		all, err := state.List(ctx, s, "")
		if err != nil {
			t.Fatalf("List(all) failed: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("List(all): got %d keys", len(all))
		}
	})
}
