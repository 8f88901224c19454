package keys

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDeriveRoleSeedDeterministic(t *testing.T) {
	root := testSeed(0)

	a, err := DeriveRoleSeed(root, "breeder")
	if err != nil {
		t.Fatalf("DeriveRoleSeed: %v", err)
	}
	b, err := DeriveRoleSeed(root, "breeder")
	if err != nil {
		t.Fatalf("DeriveRoleSeed: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("expected deterministic derivation")
	}
	c, err := DeriveRoleSeed(root, "collector")
	if err != nil {
		t.Fatalf("DeriveRoleSeed: %v", err)
	}
	if string(a) == string(c) {
		t.Fatalf("expected different roles to derive different seeds")
	}
	if _, err := DeriveRoleSeed(root[:5], "x"); err == nil {
		t.Fatalf("expected short root to fail")
	}
	if _, err := DeriveRoleSeed(root, "bad role"); err == nil {
		t.Fatalf("expected invalid role to fail")
	}
}

func TestKeyStore_RootAndRole(t *testing.T) {
	ks, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	root, path, err := ks.InitializeRootKey("alice", Ed25519, testSeed(9), false)
	if err != nil {
		t.Fatalf("InitializeRootKey: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("root key not written: %v", err)
	}
	if _, _, err := ks.InitializeRootKey("alice", Ed25519, testSeed(9), false); err == nil {
		t.Fatalf("expected existing root key to be protected")
	}

	role, rolePath, err := ks.DeriveKeyFromRole("alice", "breeder", Dilithium3, false)
	if err != nil {
		t.Fatalf("DeriveKeyFromRole: %v", err)
	}
	if filepath.Base(rolePath) != "breeder.key" {
		t.Fatalf("role path %s", rolePath)
	}
	if role.PublicKeyHex() == root.PublicKeyHex() {
		t.Fatalf("role key equals root key")
	}

	loaded, err := ks.Signer("alice", "", Ed25519)
	if err != nil {
		t.Fatalf("Signer: %v", err)
	}
	if loaded.PublicKeyHex() != root.PublicKeyHex() {
		t.Fatalf("loaded root differs")
	}
	loadedRole, err := ks.Signer("alice", "breeder", Dilithium3)
	if err != nil {
		t.Fatalf("Signer(role): %v", err)
	}
	if loadedRole.PublicKeyHex() != role.PublicKeyHex() {
		t.Fatalf("loaded role differs")
	}

	list, err := ks.ListKeys()
	if err != nil {
		t.Fatalf("ListKeys: %v", err)
	}
	if len(list) != 1 || list[0].Identifier != "alice" || strings.Join(list[0].Roles, ",") != "breeder" {
		t.Fatalf("ListKeys: %+v", list)
	}
}

func TestKeyStore_LoadSeedPrecedence(t *testing.T) {
	ks, _ := Open(t.TempDir())
	seed, err := ks.LoadSeed("0x"+strings.Repeat("ab", SeedSize), "ignored", "", "")
	if err != nil || seed[0] != 0xab {
		t.Fatalf("LoadSeed(hex): %v", err)
	}
	if _, err := ks.LoadSeed("", "", "", ""); err == nil {
		t.Fatalf("expected error with no signer")
	}
	if _, err := ks.LoadSeed("", "bad/name", "", ""); err == nil {
		t.Fatalf("expected invalid identifier to fail")
	}
}
