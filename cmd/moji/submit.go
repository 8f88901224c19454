package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"

	"cryptomoji.dev/moji/ledger"
	"cryptomoji.dev/moji/processor"
)

type receiptJSON struct {
	Action      string   `json:"action"`
	Written     []string `json:"written"`
	WriteSetCID string   `json:"writeSetCid"`
}

type resultJSON struct {
	Batch             string        `json:"batch"`
	Status            string        `json:"status"`
	Receipts          []receiptJSON `json:"receipts,omitempty"`
	FailedTransaction string        `json:"failedTransaction,omitempty"`
	Code              string        `json:"code,omitempty"`
	RuleID            string        `json:"ruleId,omitempty"`
	Message           string        `json:"message,omitempty"`
}

func cmdSubmit(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	fs.SetOutput(errOut)
	sf := addStateFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		return fail(errOut, 2, "usage: moji submit [state flags] <batches.bin> [...]")
	}

	store, closeFn, cfg, err := sf.open()
	if err != nil {
		return fail(errOut, 2, "state: %v", err)
	}
	defer closeFn()
	logger, err := newLogger(cfg, errOut)
	if err != nil {
		return fail(errOut, 2, "log: %v", err)
	}
	ctx := context.Background()
	shutdown, err := startTelemetry(ctx, cfg)
	if err != nil {
		return fail(errOut, 1, "telemetry: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	l := ledger.New(store, ledger.WithLogger(logger))
	h := processor.New(processor.WithLogger(logger))
	if err := l.Register(h.Registration(), h); err != nil {
		return fail(errOut, 1, "register: %v", err)
	}

	enc := json.NewEncoder(out)
	code := 0
	for _, path := range fs.Args() {
		b, err := os.ReadFile(path)
		if err != nil {
			return fail(errOut, 1, "read %s: %v", path, err)
		}
		results, err := l.SubmitBytes(ctx, b)
		if err != nil {
			return fail(errOut, 1, "submit %s: %v", path, err)
		}
		for _, r := range results {
			if r.Status != ledger.StatusCommitted {
				code = 1
			}
			if err := enc.Encode(toResultJSON(r)); err != nil {
				return fail(errOut, 1, "write: %v", err)
			}
		}
	}
	return code
}

func toResultJSON(r ledger.BatchResult) resultJSON {
	out := resultJSON{
		Batch:             r.BatchID,
		Status:            string(r.Status),
		FailedTransaction: r.FailedTransaction,
	}
	for _, rc := range r.Receipts {
		out.Receipts = append(out.Receipts, receiptJSON{
			Action:      string(rc.Action),
			Written:     rc.Written,
			WriteSetCID: rc.WriteSetCID.String(),
		})
	}
	if r.Error != nil {
		out.Code = string(r.Error.Code)
		out.RuleID = r.Error.RuleID
		out.Message = r.Error.Message
	}
	return out
}
