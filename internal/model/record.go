package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionRecord is one parsed payslip: the statement identity plus
// every monetary field recovered from the document. Amounts are keyed by
// canonical field name and hold current-period magnitudes (always
// non-negative; deductions and taxes are stored unsigned).
type TransactionRecord struct {
	Institution   string
	StatementDate time.Time
	SourceFile    string
	Amounts       map[string]decimal.Decimal
}

// NewTransactionRecord creates an empty record for one statement.
func NewTransactionRecord(institution string, statementDate time.Time, sourceFile string) *TransactionRecord {
	return &TransactionRecord{
		Institution:   institution,
		StatementDate: statementDate,
		SourceFile:    sourceFile,
		Amounts:       make(map[string]decimal.Decimal),
	}
}

// Has reports whether a field was extracted.
func (r *TransactionRecord) Has(field string) bool {
	_, ok := r.Amounts[field]
	return ok
}

// Set stores an amount, replacing any previous value for the field.
func (r *TransactionRecord) Set(field string, amt decimal.Decimal) {
	r.Amounts[field] = amt
}

// Add accumulates an amount into a field, starting from zero if unset.
func (r *TransactionRecord) Add(field string, amt decimal.Decimal) {
	r.Amounts[field] = r.Amounts[field].Add(amt)
}

// Amount returns the extracted value for a field.
func (r *TransactionRecord) Amount(field string) (decimal.Decimal, bool) {
	v, ok := r.Amounts[field]
	return v, ok
}

// AmountOrZero returns the extracted value, or zero if the field is absent.
func (r *TransactionRecord) AmountOrZero(field string) decimal.Decimal {
	return r.Amounts[field]
}
