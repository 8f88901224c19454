package main

import (
	"crypto/rand"
	"flag"
	"fmt"
	"io"

	"cryptomoji.dev/moji/keys"
)

func cmdKey(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printKeyUsage(errOut)
		return 2
	}
	switch args[0] {
	case "init":
		return cmdKeyInit(args[1:], out, errOut)
	case "derive":
		return cmdKeyDerive(args[1:], out, errOut)
	case "list":
		return cmdKeyList(args[1:], out, errOut)
	case "show":
		return cmdKeyShow(args[1:], out, errOut)
	case "help", "-h", "--help":
		printKeyUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown key subcommand: %s\n\n", args[0])
		printKeyUsage(errOut)
		return 2
	}
}

func printKeyUsage(w io.Writer) {
	fmt.Fprintln(w, "moji key: local signing keys")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  moji key init --name <name> [--alg ed25519|dilithium3] [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  moji key derive --from <name> --role <role> [--alg ...] [--force]")
	fmt.Fprintln(w, "  moji key list")
	fmt.Fprintln(w, "  moji key show --name <name> [--role <role>] [--alg ...]")
}

func cmdKeyInit(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key init", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var dir string
	var name string
	var algName string
	var seedHex string
	var force bool

	fs.StringVar(&dir, "keys-dir", "", "Key store directory (default ~/.moji/keys)")
	fs.StringVar(&name, "name", "", "Key name (directory under the key store)")
	fs.StringVar(&algName, "alg", "ed25519", "Signature algorithm (ed25519, dilithium3)")
	fs.StringVar(&seedHex, "seed-hex", "", "Optional seed as 64 hex chars (for reproducible demos)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		return fail(errOut, 2, "missing --name")
	}
	if err := keys.CheckKeyName(name); err != nil {
		return fail(errOut, 2, "invalid --name: %v", err)
	}
	alg, err := keys.ParseAlgorithm(algName)
	if err != nil {
		return fail(errOut, 2, "invalid --alg: %v", err)
	}
	ks, err := keys.Open(dir)
	if err != nil {
		return fail(errOut, 1, "keys: %v", err)
	}

	var seed []byte
	if seedHex != "" {
		seed, err = keys.ParseSeedHex(seedHex)
		if err != nil {
			return fail(errOut, 2, "invalid --seed-hex: %v", err)
		}
	} else {
		seed = make([]byte, keys.SeedSize)
		if _, err := rand.Read(seed); err != nil {
			return fail(errOut, 1, "rand: %v", err)
		}
	}

	signer, path, err := ks.InitializeRootKey(name, alg, seed, force)
	if err != nil {
		return fail(errOut, 1, "write key: %v", err)
	}
	fmt.Fprintf(out, "Created root key: %s\n", signer.PublicKeyHex())
	fmt.Fprintf(out, "Stored at: %s\n", path)
	return 0
}

func cmdKeyDerive(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key derive", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var dir string
	var from string
	var role string
	var algName string
	var force bool

	fs.StringVar(&dir, "keys-dir", "", "Key store directory (default ~/.moji/keys)")
	fs.StringVar(&from, "from", "", "Root key name")
	fs.StringVar(&role, "role", "", "Role identifier (e.g. breeder, trader)")
	fs.StringVar(&algName, "alg", "ed25519", "Signature algorithm (ed25519, dilithium3)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if from == "" {
		return fail(errOut, 2, "missing --from")
	}
	if role == "" {
		return fail(errOut, 2, "missing --role")
	}
	alg, err := keys.ParseAlgorithm(algName)
	if err != nil {
		return fail(errOut, 2, "invalid --alg: %v", err)
	}
	ks, err := keys.Open(dir)
	if err != nil {
		return fail(errOut, 1, "keys: %v", err)
	}
	signer, path, err := ks.DeriveKeyFromRole(from, role, alg, force)
	if err != nil {
		return fail(errOut, 1, "derive role key: %v", err)
	}
	fmt.Fprintf(out, "Created role key: %s\n", signer.PublicKeyHex())
	fmt.Fprintf(out, "Stored at: %s\n", path)
	return 0
}

func cmdKeyShow(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key show", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var dir string
	var name string
	var role string
	var algName string

	fs.StringVar(&dir, "keys-dir", "", "Key store directory (default ~/.moji/keys)")
	fs.StringVar(&name, "name", "", "Key name")
	fs.StringVar(&role, "role", "", "Optional role (shows the derived role key)")
	fs.StringVar(&algName, "alg", "ed25519", "Signature algorithm (ed25519, dilithium3)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		return fail(errOut, 2, "missing --name")
	}
	alg, err := keys.ParseAlgorithm(algName)
	if err != nil {
		return fail(errOut, 2, "invalid --alg: %v", err)
	}
	ks, err := keys.Open(dir)
	if err != nil {
		return fail(errOut, 1, "keys: %v", err)
	}
	signer, err := ks.Signer(name, role, alg)
	if err != nil {
		return fail(errOut, 1, "load key: %v", err)
	}
	_, _ = fmt.Fprintln(out, signer.PublicKeyHex())
	return 0
}

func cmdKeyList(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key list", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var dir string
	fs.StringVar(&dir, "keys-dir", "", "Key store directory (default ~/.moji/keys)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	ks, err := keys.Open(dir)
	if err != nil {
		return fail(errOut, 1, "keys: %v", err)
	}
	entries, err := ks.ListKeys()
	if err != nil {
		return fail(errOut, 1, "list keys: %v", err)
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s\n", e.Identifier)
		for _, r := range e.Roles {
			fmt.Fprintf(out, "  - %s\n", r)
		}
	}
	return 0
}
