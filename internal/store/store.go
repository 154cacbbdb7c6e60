// Package store persists extracted transaction records. Two
// implementations exist: a CSV file under the data directory and a
// PostgreSQL database, selected by configuration.
package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chakri-sirigiri/go-statements-parser/internal/fields"
	"github.com/chakri-sirigiri/go-statements-parser/internal/model"
)

// Store is the persistence boundary for transaction records.
type Store interface {
	// FindKeys returns the dedupe keys of records already stored for an
	// institution and statement date.
	FindKeys(ctx context.Context, institution string, date time.Time) ([]DedupeKey, error)

	// Insert appends one record.
	Insert(ctx context.Context, rec *model.TransactionRecord) error

	// QueryPeriod returns an institution's records for a whole year, or
	// for the months of a year up to and including the period's month,
	// ordered by statement date.
	QueryPeriod(ctx context.Context, institution string, period model.Period) ([]*model.TransactionRecord, error)

	// Purge deletes an institution's records, narrowed to one statement
	// date when date is non-nil. Returns the number of deleted records.
	Purge(ctx context.Context, institution string, date *time.Time) (int, error)

	// Close releases the store's resources.
	Close() error
}

// DedupeKey identifies a stored record for duplicate detection.
type DedupeKey struct {
	SourceFile string
	RegularPay decimal.Decimal
	Bonus      decimal.Decimal
	GrossPay   decimal.Decimal
	NetPay     decimal.Decimal
}

// KeyOf builds the dedupe key for a record. Absent fields count as
// zero.
func KeyOf(rec *model.TransactionRecord) DedupeKey {
	return DedupeKey{
		SourceFile: rec.SourceFile,
		RegularPay: rec.AmountOrZero(fields.RegularPay),
		Bonus:      rec.AmountOrZero(fields.Bonus),
		GrossPay:   rec.AmountOrZero(fields.GrossPay),
		NetPay:     rec.AmountOrZero(fields.NetPay),
	}
}

// Matches reports whether two keys identify the same statement: either
// the same source file, or the same four monetary amounts.
func (k DedupeKey) Matches(o DedupeKey) bool {
	if k.SourceFile == o.SourceFile {
		return true
	}
	return k.RegularPay.Equal(o.RegularPay) &&
		k.Bonus.Equal(o.Bonus) &&
		k.GrossPay.Equal(o.GrossPay) &&
		k.NetPay.Equal(o.NetPay)
}

// IsDuplicate reports whether a candidate key matches any existing key.
func IsDuplicate(existing []DedupeKey, candidate DedupeKey) bool {
	for _, k := range existing {
		if candidate.Matches(k) {
			return true
		}
	}
	return false
}
