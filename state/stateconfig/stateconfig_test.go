package stateconfig_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cryptomoji.dev/moji/state"
	"cryptomoji.dev/moji/state/filestore"
	"cryptomoji.dev/moji/state/stateconfig"
	"cryptomoji.dev/moji/state/stateregistry"
	"cryptomoji.dev/moji/state/statetest"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "state.toml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadFile(t *testing.T) {
	p := writeConfig(t, `
write_policy = "all"

[[backends]]
name = "memory"

[[backends]]
name = "file"
id = "mirror"
config = { dir = "/tmp/x" }
`)
	cfg, err := stateconfig.LoadFile(p)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.WritePolicy != "all" || len(cfg.Backends) != 2 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Backends[1].ID != "mirror" || cfg.Backends[1].Config["dir"] != "/tmp/x" {
		t.Fatalf("unexpected backend: %+v", cfg.Backends[1])
	}
}

func TestLoadFile_RejectsUnknownKeys(t *testing.T) {
	p := writeConfig(t, `
policy = "all"

[[backends]]
name = "memory"
`)
	if _, err := stateconfig.LoadFile(p); err == nil || !strings.Contains(err.Error(), "unknown key") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  stateconfig.Config
	}{
		{"no backends", stateconfig.Config{}},
		{"missing name", stateconfig.Config{Backends: []stateconfig.BackendConfig{{}}}},
		{"duplicate id", stateconfig.Config{Backends: []stateconfig.BackendConfig{{Name: "memory"}, {Name: "memory"}}}},
		{"bad policy", stateconfig.Config{WritePolicy: "some", Backends: []stateconfig.BackendConfig{{Name: "memory"}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cfg.Validate(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestOpen_WriteAllReplicates(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	cfg := stateconfig.Config{
		WritePolicy: stateconfig.WriteAll,
		Backends:    []stateconfig.BackendConfig{
			{Name: "file", ID: "a", Config: map[string]string{"dir": a}},
			{Name: "file", ID: "b", Config: map[string]string{"dir": b}},
		},
	}
	s, closeFn, err := cfg.Open(stateregistry.UsageCLI, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer closeFn()
	if _, ok := s.(state.Replicating); !ok {
		t.Fatalf("expected Replicating, got %T", s)
	}
	k := statetest.Key("00", 7)
	if _, err := s.Set(context.Background(), map[string][]byte{k: []byte("v")}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	for _, dir := range []string{a, b} {
		fs, err := filestore.New(dir)
		if err != nil {
			t.Fatal(err)
		}
		got, err := fs.Get(context.Background(), []string{k})
		if err != nil || string(got[k]) != "v" {
			t.Fatalf("replica %s: %q %v", dir, got[k], err)
		}
	}
}

func TestOpen_FirstPolicyWritesPreferred(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	cfg := stateconfig.Config{Backends: []stateconfig.BackendConfig{
		{Name: "file", ID: "a", Config: map[string]string{"dir": a}},
		{Name: "file", ID: "b", Config: map[string]string{"dir": b}},
	}}
	s, closeFn, err := cfg.Open(stateregistry.UsageCLI, "b")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer closeFn()
	k := statetest.Key("01", 1)
	if _, err := s.Set(context.Background(), map[string][]byte{k: []byte("v")}); err != nil {
		t.Fatal(err)
	}
	fa, _ := filestore.New(a)
	if got, _ := fa.Get(context.Background(), []string{k}); state.Exists(got, k) {
		t.Fatalf("non-preferred backend received the write")
	}
	fb, _ := filestore.New(b)
	if got, _ := fb.Get(context.Background(), []string{k}); !state.Exists(got, k) {
		t.Fatalf("preferred backend missing the write")
	}
}

func TestOpen_Errors(t *testing.T) {
	cfg := stateconfig.Config{Backends: []stateconfig.BackendConfig{{Name: "memory"}}}
	if _, _, err := cfg.Open(stateregistry.UsageCLI, "nope"); err == nil {
		t.Fatalf("expected unknown preferred backend to fail")
	}
	bad := stateconfig.Config{Backends: []stateconfig.BackendConfig{{Name: "memory", Config: map[string]string{"x": "y"}}}}
	if _, _, err := bad.Open(stateregistry.UsageCLI, ""); err == nil {
		t.Fatalf("expected unknown setting to fail")
	}
	single, closeFn, err := cfg.Open(stateregistry.UsageDaemon, "")
	if err != nil {
		t.Fatal(err)
	}
	defer closeFn()
	if _, ok := single.(*state.Memory); !ok {
		t.Fatalf("single backend should be returned unwrapped, got %T", single)
	}
}
