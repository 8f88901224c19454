package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"cryptomoji.dev/moji/state/snapshot"
)

func cmdSnapshot(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: moji snapshot <subcommand> ...")
		fmt.Fprintln(errOut, "subcommands: export, import")
		return 2
	}
	switch args[0] {
	case "export":
		return cmdSnapshotExport(args[1:], out, errOut)
	case "import":
		return cmdSnapshotImport(args[1:], out, errOut)
	default:
		fmt.Fprintf(errOut, "unknown snapshot subcommand: %s\n", args[0])
		return 2
	}
}

func cmdSnapshotExport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("snapshot export", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var outPath string
	var prefix string
	var noIndex bool
	fs.StringVar(&outPath, "out", "", "Output TAR file")
	fs.StringVar(&prefix, "prefix", "", "Only export addresses under this prefix")
	fs.BoolVar(&noIndex, "no-index", false, "Omit index.json")
	sf := addStateFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if outPath == "" {
		return fail(errOut, 2, "missing --out")
	}
	store, closeFn, _, err := sf.open()
	if err != nil {
		return fail(errOut, 2, "state: %v", err)
	}
	defer closeFn()

	f, err := os.Create(outPath)
	if err != nil {
		return fail(errOut, 1, "create %s: %v", outPath, err)
	}
	root, err := snapshot.Export(context.Background(), f, store, snapshot.ExportOptions{Prefix: prefix, IncludeIndex: !noIndex})
	if err != nil {
		_ = f.Close()
		return fail(errOut, 1, "export: %v", err)
	}
	if err := f.Close(); err != nil {
		return fail(errOut, 1, "close %s: %v", outPath, err)
	}
	_, _ = fmt.Fprintln(out, root)
	return 0
}

func cmdSnapshotImport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("snapshot import", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var ignoreUnknown bool
	var requireIndex bool
	fs.BoolVar(&ignoreUnknown, "ignore-unknown", false, "Skip unrecognized archive entries")
	fs.BoolVar(&requireIndex, "require-index", false, "Reject archives without index.json")
	sf := addStateFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		return fail(errOut, 2, "usage: moji snapshot import [state flags] <file.tar>")
	}
	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return fail(errOut, 1, "open: %v", err)
	}
	defer f.Close()

	store, closeFn, _, err := sf.open()
	if err != nil {
		return fail(errOut, 2, "state: %v", err)
	}
	defer closeFn()

	root, err := snapshot.Import(context.Background(), f, store, snapshot.ImportOptions{IgnoreUnknown: ignoreUnknown, RequireIndex: requireIndex})
	if err != nil {
		return fail(errOut, 1, "import: %v", err)
	}
	_, _ = fmt.Fprintln(out, root)
	return 0
}
