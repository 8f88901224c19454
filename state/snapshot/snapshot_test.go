package snapshot_test

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"cryptomoji.dev/moji/state"
	"cryptomoji.dev/moji/state/filestore"
	"cryptomoji.dev/moji/state/snapshot"
	"cryptomoji.dev/moji/state/statetest"
)

func seeded(t *testing.T) *state.Memory {
	t.Helper()
	m := state.NewMemory()
	_, err := m.Set(context.Background(), map[string][]byte{
		statetest.Key("01", 2): []byte(`{"dna":"b"}`),
		statetest.Key("01", 1): []byte(`{"dna":"a"}`),
		statetest.Key("00", 1): []byte(`{"key":"k","moji":[]}`),
	})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestSnapshot_ExportIsDeterministic(t *testing.T) {
	var a, b bytes.Buffer
	rootA, err := snapshot.Export(context.Background(), &a, seeded(t), snapshot.ExportOptions{IncludeIndex: true})
	if err != nil {
		t.Fatal(err)
	}
	rootB, err := snapshot.Export(context.Background(), &b, seeded(t), snapshot.ExportOptions{IncludeIndex: true})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) || !rootA.Equals(rootB) {
		t.Fatalf("expected deterministic snapshot bytes")
	}
}

func TestSnapshot_RoundTripIntoFilestore(t *testing.T) {
	var buf bytes.Buffer
	src := seeded(t)
	root, err := snapshot.Export(context.Background(), &buf, src, snapshot.ExportOptions{IncludeIndex: true})
	if err != nil {
		t.Fatal(err)
	}
	dst, err := filestore.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	got, err := snapshot.Import(context.Background(), bytes.NewReader(buf.Bytes()), dst, snapshot.ImportOptions{RequireIndex: true})
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equals(root) {
		t.Fatalf("root changed: %s vs %s", got, root)
	}
	k := statetest.Key("01", 2)
	v, err := dst.Get(context.Background(), []string{k})
	if err != nil || string(v[k]) != `{"dna":"b"}` {
		t.Fatalf("imported value %q %v", v[k], err)
	}
}

func TestSnapshot_PrefixExport(t *testing.T) {
	var buf bytes.Buffer
	if _, err := snapshot.Export(context.Background(), &buf, seeded(t), snapshot.ExportOptions{Prefix: "5f4d7601"}); err != nil {
		t.Fatal(err)
	}
	dst := state.NewMemory()
	if _, err := snapshot.Import(context.Background(), &buf, dst, snapshot.ImportOptions{}); err != nil {
		t.Fatal(err)
	}
	if dst.Len() != 2 {
		t.Fatalf("prefix export carried %d entries", dst.Len())
	}
}

func TestSnapshot_ImportRejectsTampering(t *testing.T) {
	var buf bytes.Buffer
	if _, err := snapshot.Export(context.Background(), &buf, seeded(t), snapshot.ExportOptions{IncludeIndex: true}); err != nil {
		t.Fatal(err)
	}
	tampered := bytes.Replace(buf.Bytes(), []byte(`{"dna":"a"}`), []byte(`{"dna":"z"}`), 1)
	dst := state.NewMemory()
	_, err := snapshot.Import(context.Background(), bytes.NewReader(tampered), dst, snapshot.ImportOptions{})
	if !errors.Is(err, snapshot.ErrEntryMismatch) {
		t.Fatalf("expected ErrEntryMismatch, got %v", err)
	}
	if dst.Len() != 0 {
		t.Fatalf("rejected snapshot wrote %d entries", dst.Len())
	}
}

func TestSnapshot_ImportRejectsBadEntries(t *testing.T) {
	cases := []struct {
		name    string
		content []byte
	}{
		{"state/not-an-address", []byte("x")},
		{"state/" + statetest.Key("00", 1), nil},
		{"../escape", []byte("x")},
		{"other/file", []byte("x")},
	}
	for _, tc := range cases {
		_, err := snapshot.Import(context.Background(), bytes.NewReader(makeTar(t, tc.name, tc.content)), state.NewMemory(), snapshot.ImportOptions{})
		if err == nil {
			t.Fatalf("expected %q to be rejected", tc.name)
		}
	}
	_, err := snapshot.Import(context.Background(), bytes.NewReader(makeTar(t, "other/file", []byte("x"))), state.NewMemory(), snapshot.ImportOptions{IgnoreUnknown: true})
	if err != nil {
		t.Fatalf("IgnoreUnknown: %v", err)
	}
	_, err = snapshot.Import(context.Background(), bytes.NewReader(makeTar(t, "state/"+statetest.Key("00", 1), []byte("x"))), state.NewMemory(), snapshot.ImportOptions{RequireIndex: true})
	if err == nil || !strings.Contains(err.Error(), "index") {
		t.Fatalf("expected missing index to fail, got %v", err)
	}
}

func makeTar(t *testing.T, name string, content []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	h := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		ModTime:  time.Unix(0, 0).UTC(),
		Typeflag: tar.TypeReg,
	}
	if err := tw.WriteHeader(h); err != nil {
		t.Fatal(err)
	}
	if _, err := tw.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}
