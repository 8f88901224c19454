package main

import (
	"fmt"
	"io"
	"os"

	_ "cryptomoji.dev/moji/state/filestore"
	_ "cryptomoji.dev/moji/state/grpcstate"
	_ "cryptomoji.dev/moji/state/sqlitestore"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "address":
		return cmdAddress(args[1:], out, errOut)
	case "key":
		return cmdKey(args[1:], out, errOut)
	case "tx":
		return cmdTx(args[1:], out, errOut)
	case "submit":
		return cmdSubmit(args[1:], out, errOut)
	case "state":
		return cmdState(args[1:], out, errOut)
	case "snapshot":
		return cmdSnapshot(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "moji: cryptomoji transaction and state tool")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  moji address <collection|owner|sire-listing|moji|moji-prefix> (--owner <pubhex> | --signer <name>) [--dna <dna>]")
	fmt.Fprintln(w, "  moji key init --name <name> [--alg ed25519|dilithium3] [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  moji key derive --from <name> --role <role> [--alg ...] [--force]")
	fmt.Fprintln(w, "  moji key list")
	fmt.Fprintln(w, "  moji key show --name <name> [--role <role>] [--alg ...]")
	fmt.Fprintln(w, "  moji tx (--signer <name> [--signer-role <role>] | --seed-hex <64hex> | --key-file <path>) [--out <file>] <action> [<action> ...]")
	fmt.Fprintln(w, "  moji submit [state flags] <batches.bin> [...]")
	fmt.Fprintln(w, "  moji state get [state flags] <address> [...]")
	fmt.Fprintln(w, "  moji state list [state flags] [--prefix <hex>]")
	fmt.Fprintln(w, "  moji snapshot export [state flags] [--prefix <hex>] [--no-index] --out <file.tar>")
	fmt.Fprintln(w, "  moji snapshot import [state flags] [--ignore-unknown] [--require-index] <file.tar>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Actions:")
	fmt.Fprintln(w, "  create-owner:<name>   create-collection   select-sire:<moji address>   breed-moji:<sire>,<breeder>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "State flags:")
	fmt.Fprintln(w, "  --config <moji.toml>  --backend <name>  --<backend>-<option> <value>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - keys are stored under ~/.moji/keys/<name> (override with --keys-dir)")
	fmt.Fprintln(w, "  - tx writes an encoded batch list; submit applies batch lists to state")
	fmt.Fprintln(w, "  - MOJI_LOG_LEVEL and MOJI_LOG_FORMAT control diagnostics on stderr")
}
