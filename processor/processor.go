// Package processor applies cryptomoji transactions to ledger state.
//
// Apply is a pure function of (prior state read, transaction): it keeps no
// state between calls, starts no goroutines, and never consults clocks or
// entropy sources. Every transition reads all the state its preconditions
// depend on before a single Set writes its results.
package processor

import (
	"context"
	"slices"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"cryptomoji.dev/moji/address"
	"cryptomoji.dev/moji/cidutil"
	"cryptomoji.dev/moji/model"
	"cryptomoji.dev/moji/state"
)

const (
	FamilyName    = "cryptomoji"
	FamilyVersion = "0.1"
)

// Registration announces which transactions a handler accepts. Hosts receive
// it explicitly at startup.
type Registration struct {
	FamilyName     string
	FamilyVersions []string
	Namespaces     []string
}

// Accepts reports whether the registration covers family at version.
func (r Registration) Accepts(family, version string) bool {
	return r.FamilyName == family && slices.Contains(r.FamilyVersions, version)
}

// Owns reports whether key falls inside one of the registered namespaces.
func (r Registration) Owns(key string) bool {
	for _, ns := range r.Namespaces {
		if strings.HasPrefix(key, ns) {
			return true
		}
	}
	return false
}

// Request carries the envelope fields the processor consumes.
type Request struct {
	Payload         []byte
	SignerPublicKey string
	// Signature is the hex header signature; it seeds CREATE_COLLECTION.
	Signature string
}

// Receipt describes an applied transaction.
type Receipt struct {
	Action  model.ActionType
	Written []string
	// WriteSetCID identifies the exact bytes written, so independent nodes
	// can compare outcomes.
	WriteSetCID cid.Cid
}

// Handler is the cryptomoji transaction handler. Its fields are immutable
// after New, so one Handler may serve any number of sequential calls.
type Handler struct {
	log    zerolog.Logger
	tracer trace.Tracer
}

type Option func(*Handler)

func WithLogger(l zerolog.Logger) Option {
	return func(h *Handler) { h.log = l }
}

func WithTracer(t trace.Tracer) Option {
	return func(h *Handler) { h.tracer = t }
}

func New(opts ...Option) *Handler {
	h := &Handler{
		log:    zerolog.Nop(),
		tracer: otel.Tracer("cryptomoji.dev/moji/processor"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Registration returns the family, versions and namespace this handler serves.
func (h *Handler) Registration() Registration {
	return Registration{
		FamilyName:     FamilyName,
		FamilyVersions: []string{FamilyVersion},
		Namespaces:     []string{address.Namespace},
	}
}

// Apply validates req against store and, when every precondition holds,
// writes the resulting records with one Set. Failures are *Error values; no
// write is issued after a failure is detected.
func (h *Handler) Apply(ctx context.Context, req Request, store state.Store) (Receipt, error) {
	ctx, span := h.tracer.Start(ctx, "processor.Apply")
	defer span.End()

	rc, err := h.apply(ctx, req, store)
	log := h.log.With().Str("signer", shortKey(req.SignerPublicKey)).Logger()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, RuleID(err))
		log.Warn().Str("kind", string(KindOf(err))).Str("rule", RuleID(err)).Err(err).Msg("transaction rejected")
		return Receipt{}, err
	}
	span.SetAttributes(
		attribute.String("moji.action", string(rc.Action)),
		attribute.Int("moji.writes", len(rc.Written)),
	)
	log.Debug().Str("action", string(rc.Action)).Strs("written", rc.Written).Str("write_set", rc.WriteSetCID.String()).Msg("transaction applied")
	return rc, nil
}

type transition func(ctx context.Context, tx txContext, a model.Action) (map[string][]byte, error)

// txContext is what a transition may know about its transaction.
type txContext struct {
	signer    string
	signature string
	store     state.Store
}

func (h *Handler) apply(ctx context.Context, req Request, store state.Store) (Receipt, error) {
	if store == nil {
		return Receipt{}, newError(KindInternal, "MOJI-STATE-000", "no state store supplied")
	}
	if req.SignerPublicKey == "" {
		return Receipt{}, newError(KindDecode, "MOJI-DEC-002", "missing signer public key")
	}
	action, err := model.DecodeAction(req.Payload)
	if err != nil {
		return Receipt{}, wrapError(KindDecode, "MOJI-DEC-001", "unable to decode payload", err)
	}

	var run transition
	switch action.Action {
	case model.ActionCreateOwner:
		run = createOwner
	case model.ActionCreateCollection:
		run = createCollection
	case model.ActionSelectSire:
		run = selectSire
	case model.ActionBreedMoji:
		run = breedMoji
	default:
		return Receipt{}, newError(KindUnknownAction, "MOJI-ACT-001", "unknown action "+string(action.Action))
	}

	tx := txContext{signer: req.SignerPublicKey, signature: req.Signature, store: store}
	writes, err := run(ctx, tx, action)
	if err != nil {
		return Receipt{}, err
	}
	return commit(ctx, store, action.Action, writes)
}

// commit issues the transition's single write and checks the acknowledgement.
func commit(ctx context.Context, store state.Store, action model.ActionType, writes map[string][]byte) (Receipt, error) {
	want := state.SortedKeys(writes)
	written, err := store.Set(ctx, writes)
	if err != nil {
		return Receipt{}, wrapError(KindTransient, "MOJI-STATE-002", "state write failed", err)
	}
	written = slices.Clone(written)
	slices.Sort(written)
	if !slices.Equal(written, want) {
		return Receipt{}, newError(KindTransient, "MOJI-STATE-003", "state write not fully acknowledged")
	}
	id, err := cidutil.EntriesCID(writes)
	if err != nil {
		return Receipt{}, wrapError(KindInternal, "MOJI-ENC-002", "write set identifier", err)
	}
	return Receipt{Action: action, Written: written, WriteSetCID: id}, nil
}

// read fetches keys in one call, mapping store failures to KindTransient.
func read(ctx context.Context, store state.Store, keys ...string) (map[string][]byte, error) {
	got, err := store.Get(ctx, keys)
	if err != nil {
		return nil, wrapError(KindTransient, "MOJI-STATE-001", "state read failed", err)
	}
	return got, nil
}

func shortKey(k string) string {
	if len(k) <= 16 {
		return k
	}
	return k[:16]
}
