package institution

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chakri-sirigiri/go-statements-parser/internal/model"
)

// Handler parses statements for one financial institution.
type Handler interface {
	// Name returns the institution key used in folder layout and storage.
	Name() string

	// StatementDate finds the statement date in extracted PDF text.
	StatementDate(text string) (time.Time, error)

	// Extract parses one statement's text into a TransactionRecord.
	// When net pay does not reconcile, the record is returned together
	// with a *ValidationError so the caller can store it before
	// aborting the batch.
	Extract(text, sourceFile string) (*model.TransactionRecord, error)

	// WriteExport writes records as CSV in the institution's column order.
	WriteExport(w io.Writer, records []*model.TransactionRecord) error

	// EnterToLedger posts records to the external ledger application.
	EnterToLedger(records []*model.TransactionRecord) error
}

// Errors reported by handlers. Callers wrap these with the source file.
var (
	ErrNoStatementDate  = errors.New("statement date not found")
	ErrInsufficientData = errors.New("no monetary fields extracted")
	ErrNotImplemented   = errors.New("statement processing not implemented")
)

// ValidationError reports a net pay that does not reconcile against the
// extracted earnings and deductions.
type ValidationError struct {
	SourceFile string
	Variant    model.Variant
	Expected   decimal.Decimal
	Actual     decimal.Decimal
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("paycheck validation failed for %s: expected net pay $%s, got $%s (difference $%s)",
		e.SourceFile, e.Expected.StringFixed(2), e.Actual.StringFixed(2), e.Diff().StringFixed(2))
}

// Diff returns the absolute gap between expected and actual net pay.
func (e *ValidationError) Diff() decimal.Decimal {
	return e.Expected.Sub(e.Actual).Abs()
}

// Registry holds named institution handlers.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds a handler. Panics on duplicate name.
func (r *Registry) Register(h Handler) {
	key := strings.ToLower(h.Name())
	if _, ok := r.handlers[key]; ok {
		panic("duplicate institution handler: " + key)
	}
	r.handlers[key] = h
}

// Get returns the handler for an institution, or nil.
func (r *Registry) Get(name string) Handler {
	return r.handlers[strings.ToLower(name)]
}

// Names returns the registered institution names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry returns a registry with all built-in handlers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewIPay())
	r.Register(NewStub("icici"))
	r.Register(NewStub("robinhood"))
	r.Register(NewStub("firstenergy"))
	r.Register(NewStub("cashapp"))
	return r
}
