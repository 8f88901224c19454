package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"cryptomoji.dev/moji/envelope"
	"cryptomoji.dev/moji/model"
)

func cmdTx(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("tx", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var outPath string
	fs.StringVar(&outPath, "out", "", "Write the batch list here instead of stdout")
	sf := addSignerFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		return fail(errOut, 2, "usage: moji tx [signer flags] [--out <file>] <action> [<action> ...]")
	}
	if !sf.set() {
		return fail(errOut, 2, "missing --signer, --seed-hex or --key-file")
	}

	actions := make([]model.Action, 0, fs.NArg())
	for _, spec := range fs.Args() {
		a, err := parseAction(spec)
		if err != nil {
			return fail(errOut, 2, "invalid action %q: %v", spec, err)
		}
		actions = append(actions, a)
	}
	signer, err := sf.signer()
	if err != nil {
		return fail(errOut, 1, "signer: %v", err)
	}
	batch, err := envelope.BatchAll(signer, envelope.Many(actions...))
	if err != nil {
		return fail(errOut, 1, "build batch: %v", err)
	}
	encoded := envelope.EncodeBatchList(envelope.One(batch))

	if outPath == "" {
		_, err = out.Write(encoded)
		if err != nil {
			return fail(errOut, 1, "write: %v", err)
		}
		return 0
	}
	if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
		return fail(errOut, 1, "write %s: %v", outPath, err)
	}
	_, _ = fmt.Fprintln(out, batch.ID())
	return 0
}

// parseAction reads the compact action syntax: kind[:args].
func parseAction(spec string) (model.Action, error) {
	kind, arg, _ := strings.Cut(spec, ":")
	switch kind {
	case "create-owner":
		if arg == "" {
			return model.Action{}, fmt.Errorf("missing name")
		}
		return model.CreateOwner(arg), nil
	case "create-collection":
		if arg != "" {
			return model.Action{}, fmt.Errorf("unexpected argument")
		}
		return model.CreateCollection(), nil
	case "select-sire":
		if arg == "" {
			return model.Action{}, fmt.Errorf("missing moji address")
		}
		return model.SelectSire(arg), nil
	case "breed-moji":
		sire, breeder, ok := strings.Cut(arg, ",")
		if !ok || sire == "" || breeder == "" {
			return model.Action{}, fmt.Errorf("want breed-moji:<sire>,<breeder>")
		}
		return model.BreedMoji(sire, breeder), nil
	default:
		return model.Action{}, fmt.Errorf("unknown action kind %q", kind)
	}
}
