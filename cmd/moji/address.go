package main

import (
	"flag"
	"fmt"
	"io"

	"cryptomoji.dev/moji/address"
)

func cmdAddress(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: moji address <collection|owner|sire-listing|moji|moji-prefix> (--owner <pubhex> | --signer <name>) [--dna <dna>]")
		return 2
	}
	kind := args[0]

	fs := flag.NewFlagSet("address "+kind, flag.ContinueOnError)
	fs.SetOutput(errOut)
	var owner string
	var dna string
	fs.StringVar(&owner, "owner", "", "Owner public key (hex)")
	fs.StringVar(&dna, "dna", "", "Moji DNA (for moji)")
	sf := addSignerFlags(fs)
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}

	if owner == "" {
		if !sf.set() {
			return fail(errOut, 2, "missing --owner or --signer")
		}
		signer, err := sf.signer()
		if err != nil {
			return fail(errOut, 1, "signer: %v", err)
		}
		owner = signer.PublicKeyHex()
	}

	var addr string
	switch kind {
	case "collection":
		addr = address.CollectionAddress(owner)
	case "owner":
		addr = address.OwnerAddress(owner)
	case "sire-listing":
		addr = address.SireListingAddress(owner)
	case "moji":
		if dna == "" {
			return fail(errOut, 2, "missing --dna")
		}
		addr = address.MojiAddress(owner, dna)
	case "moji-prefix":
		addr = address.MojiOwnerPrefix(owner).String()
	default:
		return fail(errOut, 2, "unknown address kind: %s", kind)
	}
	_, _ = fmt.Fprintln(out, addr)
	return 0
}
