package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"cryptomoji.dev/moji/address"
	"cryptomoji.dev/moji/state"
)

func cmdState(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: moji state <subcommand> ...")
		fmt.Fprintln(errOut, "subcommands: get, list")
		return 2
	}
	switch args[0] {
	case "get":
		return cmdStateGet(args[1:], out, errOut)
	case "list":
		return cmdStateList(args[1:], out, errOut)
	default:
		fmt.Fprintf(errOut, "unknown state subcommand: %s\n", args[0])
		return 2
	}
}

func cmdStateGet(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("state get", flag.ContinueOnError)
	fs.SetOutput(errOut)
	sf := addStateFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		return fail(errOut, 2, "usage: moji state get [state flags] <address> [...]")
	}
	for _, a := range fs.Args() {
		if !address.IsValid(a) {
			return fail(errOut, 2, "invalid address: %s", a)
		}
	}
	store, closeFn, _, err := sf.open()
	if err != nil {
		return fail(errOut, 2, "state: %v", err)
	}
	defer closeFn()

	got, err := store.Get(context.Background(), fs.Args())
	if err != nil {
		return fail(errOut, 1, "get: %v", err)
	}
	code := 0
	for _, a := range fs.Args() {
		if !state.Exists(got, a) {
			fmt.Fprintf(errOut, "not found: %s\n", a)
			code = 1
			continue
		}
		fmt.Fprintf(out, "%s\t%s\n", a, got[a])
	}
	return code
}

func cmdStateList(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("state list", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var prefix string
	fs.StringVar(&prefix, "prefix", address.Namespace, "Address prefix to list")
	sf := addStateFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if !state.ValidPrefix(prefix) {
		return fail(errOut, 2, "invalid --prefix: %s", prefix)
	}
	store, closeFn, _, err := sf.open()
	if err != nil {
		return fail(errOut, 2, "state: %v", err)
	}
	defer closeFn()

	keys, err := state.List(context.Background(), store, prefix)
	if err != nil {
		return fail(errOut, 1, "list: %v", err)
	}
	for _, k := range keys {
		kind, _ := address.KindOf(k)
		fmt.Fprintf(out, "%s\t%s\n", k, kind)
	}
	return 0
}
