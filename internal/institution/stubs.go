package institution

import (
	"fmt"
	"io"
	"time"

	"github.com/chakri-sirigiri/go-statements-parser/internal/model"
)

// Stub is a registered institution whose statement formats are not
// supported yet. Every operation reports ErrNotImplemented.
type Stub struct {
	name string
}

// NewStub returns a placeholder handler for an institution.
func NewStub(name string) *Stub {
	return &Stub{name: name}
}

// Name returns the institution key.
func (s *Stub) Name() string { return s.name }

// StatementDate reports that the institution is not supported.
func (s *Stub) StatementDate(string) (time.Time, error) {
	return time.Time{}, fmt.Errorf("%s: %w", s.name, ErrNotImplemented)
}

// Extract reports that the institution is not supported.
func (s *Stub) Extract(_, sourceFile string) (*model.TransactionRecord, error) {
	return nil, fmt.Errorf("%s %s: %w", s.name, sourceFile, ErrNotImplemented)
}

// WriteExport reports that the institution is not supported.
func (s *Stub) WriteExport(io.Writer, []*model.TransactionRecord) error {
	return fmt.Errorf("%s: %w", s.name, ErrNotImplemented)
}

// EnterToLedger reports that the institution is not supported.
func (s *Stub) EnterToLedger([]*model.TransactionRecord) error {
	return fmt.Errorf("%s: %w", s.name, ErrNotImplemented)
}
