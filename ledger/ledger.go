// Package ledger is a single-node development host for transaction handlers.
//
// It verifies batch and transaction signatures, routes each transaction to
// the handler registered for its family and version, and commits every batch
// atomically: all of a batch's writes reach the store, or none do. Batches
// are applied strictly in submission order.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"cryptomoji.dev/moji/envelope"
	"cryptomoji.dev/moji/keys"
	"cryptomoji.dev/moji/model"
	"cryptomoji.dev/moji/processor"
	"cryptomoji.dev/moji/state"
)

// Handler applies one transaction against the store it is given.
type Handler interface {
	Apply(ctx context.Context, req processor.Request, store state.Store) (processor.Receipt, error)
}

// Status is the outcome of one batch.
type Status string

const (
	// StatusCommitted: every transaction applied and the writes are stored.
	StatusCommitted Status = "COMMITTED"
	// StatusInvalid: the batch was rejected for good and wrote nothing.
	StatusInvalid Status = "INVALID"
	// StatusFailed: a store failure stopped the batch; it wrote nothing and
	// may be resubmitted.
	StatusFailed Status = "FAILED"
)

// BatchResult reports what happened to one submitted batch.
type BatchResult struct {
	BatchID  string
	Status   Status
	Receipts []processor.Receipt

	// FailedTransaction is the ID of the transaction that stopped the batch.
	FailedTransaction string
	Error             *model.CodedError
}

type registered struct {
	reg     processor.Registration
	handler Handler
}

// Ledger hosts handlers over a state store. It is safe for concurrent use;
// submissions are serialized.
type Ledger struct {
	mu        sync.Mutex
	store     state.Store
	handlers  []registered
	committed map[string]struct{}
	log       zerolog.Logger
	tracer    trace.Tracer
}

type Option func(*Ledger)

func WithLogger(l zerolog.Logger) Option { return func(lg *Ledger) { lg.log = l } }

func WithTracer(t trace.Tracer) Option { return func(lg *Ledger) { lg.tracer = t } }

func New(store state.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:     store,
		committed: map[string]struct{}{},
		log:       zerolog.Nop(),
		tracer:    otel.Tracer("cryptomoji.dev/moji/ledger"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Register makes handler responsible for every family version in reg. A
// family version may only be registered once.
func (l *Ledger) Register(reg processor.Registration, handler Handler) error {
	if reg.FamilyName == "" || len(reg.FamilyVersions) == 0 {
		return errors.New("ledger: registration needs a family name and at least one version")
	}
	if len(reg.Namespaces) == 0 {
		return errors.New("ledger: registration needs at least one namespace")
	}
	if handler == nil {
		return errors.New("ledger: nil handler")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, v := range reg.FamilyVersions {
		if _, ok := l.lookup(reg.FamilyName, v); ok {
			return fmt.Errorf("ledger: %s %s already registered", reg.FamilyName, v)
		}
	}
	l.handlers = append(l.handlers, registered{reg: reg, handler: handler})
	l.log.Info().Str("family", reg.FamilyName).Strs("versions", reg.FamilyVersions).Strs("namespaces", reg.Namespaces).Msg("handler registered")
	return nil
}

func (l *Ledger) lookup(family, version string) (registered, bool) {
	for _, r := range l.handlers {
		if r.reg.Accepts(family, version) {
			return r, true
		}
	}
	return registered{}, false
}

// Store returns the committed state.
func (l *Ledger) Store() state.Store { return l.store }

// Submit applies batches in order and reports each one's outcome. A rejected
// batch does not stop later batches. The returned error is non-nil only when
// ctx ends before every batch was considered.
func (l *Ledger) Submit(ctx context.Context, batches envelope.OneOrMany[envelope.Batch]) ([]BatchResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	items := batches.Items()
	out := make([]BatchResult, 0, len(items))
	for _, b := range items {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		out = append(out, l.applyBatch(ctx, b))
	}
	return out, nil
}

// SubmitBytes decodes an encoded batch list and submits it.
func (l *Ledger) SubmitBytes(ctx context.Context, batchList []byte) ([]BatchResult, error) {
	batches, err := envelope.DecodeBatchList(batchList)
	if err != nil {
		return nil, model.NewError(model.ErrInvalidBatch, err.Error())
	}
	if len(batches) == 0 {
		return nil, model.NewError(model.ErrInvalidBatch, "empty batch list")
	}
	return l.Submit(ctx, envelope.Many(batches...))
}

func (l *Ledger) applyBatch(ctx context.Context, b envelope.Batch) (res BatchResult) {
	ctx, span := l.tracer.Start(ctx, "ledger.Batch")
	defer span.End()
	res.BatchID = b.ID()
	log := l.log.With().Str("batch", shortID(b.ID())).Logger()
	defer func() {
		span.SetAttributes(attribute.String("moji.batch.status", string(res.Status)))
		if res.Error != nil {
			span.SetStatus(codes.Error, string(res.Error.Code))
			log.Warn().Str("status", string(res.Status)).Str("code", string(res.Error.Code)).Str("rule", res.Error.RuleID).Msg(res.Error.Message)
			return
		}
		log.Info().Int("transactions", len(res.Receipts)).Msg("batch committed")
	}()

	if _, err := b.Verify(); err != nil {
		res.Status = StatusInvalid
		res.Error = verifyError(err)
		return res
	}

	overlay := state.NewOverlay(l.store)
	inBatch := map[string]struct{}{}
	for _, tx := range b.Transactions {
		receipt, cerr, transient := l.applyTransaction(ctx, overlay, tx, inBatch)
		if cerr != nil {
			overlay.Discard()
			res.Status = StatusInvalid
			if transient {
				res.Status = StatusFailed
			}
			res.FailedTransaction = tx.ID()
			res.Receipts = nil
			res.Error = cerr
			return res
		}
		inBatch[tx.ID()] = struct{}{}
		res.Receipts = append(res.Receipts, receipt)
	}

	if _, err := overlay.Commit(ctx); err != nil {
		res.Status = StatusFailed
		res.Receipts = nil
		res.Error = model.NewError(model.ErrInternal, "commit batch: "+err.Error())
		return res
	}
	for id := range inBatch {
		l.committed[id] = struct{}{}
	}
	res.Status = StatusCommitted
	return res
}

func (l *Ledger) applyTransaction(ctx context.Context, overlay *state.Overlay, tx envelope.Transaction, inBatch map[string]struct{}) (processor.Receipt, *model.CodedError, bool) {
	if _, dup := l.committed[tx.ID()]; dup {
		return processor.Receipt{}, model.NewError(model.ErrInvalidTransaction, "transaction already committed"), false
	}
	if _, dup := inBatch[tx.ID()]; dup {
		return processor.Receipt{}, model.NewError(model.ErrInvalidTransaction, "transaction repeated in batch"), false
	}
	h, err := tx.ParsedHeader()
	if err != nil {
		return processor.Receipt{}, model.NewError(model.ErrInvalidTransaction, err.Error()), false
	}
	for _, dep := range h.Dependencies {
		_, done := l.committed[dep]
		_, earlier := inBatch[dep]
		if !done && !earlier {
			return processor.Receipt{}, model.NewError(model.ErrInvalidTransaction, "unmet dependency "+shortID(dep)), false
		}
	}
	r, ok := l.lookup(h.FamilyName, h.FamilyVersion)
	if !ok {
		return processor.Receipt{}, model.NewError(model.ErrUnknownFamily, fmt.Sprintf("no handler for %s %s", h.FamilyName, h.FamilyVersion)), false
	}
	req, err := tx.Request()
	if err != nil {
		return processor.Receipt{}, model.NewError(model.ErrInvalidTransaction, err.Error()), false
	}

	scoped := scopedStore{inner: overlay, inputs: h.Inputs, outputs: h.Outputs, reg: r.reg}
	receipt, err := r.handler.Apply(ctx, req, scoped)
	if err != nil {
		return processor.Receipt{}, handlerError(err), isRetryable(err)
	}
	return receipt, nil, false
}

func isRetryable(err error) bool {
	if errors.Is(err, ErrOutsideScope) {
		return false
	}
	return !processor.IsTerminal(err)
}

// handlerError maps a handler failure onto the stable submitter-facing codes.
func handlerError(err error) *model.CodedError {
	ce := &model.CodedError{Code: model.ErrInvalidTransaction, RuleID: processor.RuleID(err), Message: err.Error()}
	switch {
	case errors.Is(err, ErrOutsideScope):
		ce.RuleID = "LEDGER-SCOPE-001"
	case processor.KindOf(err) == processor.KindInternal, isRetryable(err):
		ce.Code = model.ErrInternal
	}
	return ce
}

func verifyError(err error) *model.CodedError {
	switch {
	case errors.Is(err, envelope.ErrSignature), errors.Is(err, keys.ErrUnknownKey):
		return model.NewError(model.ErrInvalidSignature, err.Error())
	case errors.Is(err, envelope.ErrPayloadHash), errors.Is(err, envelope.ErrMalformed):
		return model.NewError(model.ErrInvalidTransaction, err.Error())
	default:
		return model.NewError(model.ErrInvalidBatch, err.Error())
	}
}

func shortID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:16]
}
