package store

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chakri-sirigiri/go-statements-parser/internal/fields"
	"github.com/chakri-sirigiri/go-statements-parser/internal/model"
)

const (
	csvFileName   = "transactions.csv"
	csvDateFormat = "2006-01-02"
)

// CSV stores records in one transactions.csv under the data directory.
// Reads load the whole file; inserts append one row; purge rewrites the
// file.
type CSV struct {
	path string
}

// NewCSV creates a CSV store rooted at the data directory. The file is
// created on first insert.
func NewCSV(dir string) *CSV {
	return &CSV{path: filepath.Join(dir, csvFileName)}
}

// Path returns the location of the backing file.
func (s *CSV) Path() string { return s.path }

func csvHeader() []string {
	return append([]string{"institution", "statement_date", "source_file"}, fields.Names()...)
}

func marshalRecord(rec *model.TransactionRecord) []string {
	row := make([]string, 0, 3+len(fields.Names()))
	row = append(row, rec.Institution, rec.StatementDate.Format(csvDateFormat), rec.SourceFile)
	for _, name := range fields.Names() {
		if amt, ok := rec.Amount(name); ok {
			row = append(row, amt.StringFixed(2))
		} else {
			row = append(row, "")
		}
	}
	return row
}

func unmarshalRecord(row []string) (*model.TransactionRecord, error) {
	names := fields.Names()
	if len(row) != 3+len(names) {
		return nil, fmt.Errorf("expected %d fields, got %d", 3+len(names), len(row))
	}

	date, err := time.Parse(csvDateFormat, row[1])
	if err != nil {
		return nil, fmt.Errorf("parsing statement_date %q: %w", row[1], err)
	}

	rec := model.NewTransactionRecord(row[0], date, row[2])
	for i, name := range names {
		cell := row[3+i]
		if cell == "" {
			continue
		}
		amt, err := decimal.NewFromString(cell)
		if err != nil {
			return nil, fmt.Errorf("parsing %s %q: %w", name, cell, err)
		}
		rec.Set(name, amt)
	}
	return rec, nil
}

func (s *CSV) readAll() ([]*model.TransactionRecord, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", s.path, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = len(csvHeader())
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	var recs []*model.TransactionRecord
	for i, row := range rows[1:] {
		rec, err := unmarshalRecord(row)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", s.path, i+2, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// FindKeys returns the dedupe keys stored for an institution and date.
func (s *CSV) FindKeys(ctx context.Context, institution string, date time.Time) ([]DedupeKey, error) {
	recs, err := s.readAll()
	if err != nil {
		return nil, err
	}

	var keys []DedupeKey
	for _, rec := range recs {
		if strings.EqualFold(rec.Institution, institution) && rec.StatementDate.Equal(date) {
			keys = append(keys, KeyOf(rec))
		}
	}
	return keys, nil
}

// Insert appends one record, writing the header when the file is new.
func (s *CSV) Insert(ctx context.Context, rec *model.TransactionRecord) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", s.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stating %s: %w", s.path, err)
	}

	cw := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := cw.Write(csvHeader()); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	if err := cw.Write(marshalRecord(rec)); err != nil {
		return fmt.Errorf("writing record for %s: %w", rec.SourceFile, err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return f.Close()
}

// QueryPeriod returns an institution's records inside the period,
// ordered by statement date, then source file.
func (s *CSV) QueryPeriod(ctx context.Context, institution string, period model.Period) ([]*model.TransactionRecord, error) {
	recs, err := s.readAll()
	if err != nil {
		return nil, err
	}

	var out []*model.TransactionRecord
	for _, rec := range recs {
		if !strings.EqualFold(rec.Institution, institution) {
			continue
		}
		if rec.StatementDate.Year() != period.Year {
			continue
		}
		if !period.WholeYear() && int(rec.StatementDate.Month()) > period.Month {
			continue
		}
		out = append(out, rec)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].StatementDate.Equal(out[j].StatementDate) {
			return out[i].StatementDate.Before(out[j].StatementDate)
		}
		return out[i].SourceFile < out[j].SourceFile
	})
	return out, nil
}

// Purge deletes an institution's records and rewrites the file.
func (s *CSV) Purge(ctx context.Context, institution string, date *time.Time) (int, error) {
	recs, err := s.readAll()
	if err != nil {
		return 0, err
	}

	var kept []*model.TransactionRecord
	removed := 0
	for _, rec := range recs {
		match := strings.EqualFold(rec.Institution, institution)
		if match && date != nil {
			match = rec.StatementDate.Equal(*date)
		}
		if match {
			removed++
			continue
		}
		kept = append(kept, rec)
	}

	if removed == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(csvHeader()); err != nil {
		return 0, fmt.Errorf("writing header: %w", err)
	}
	for _, rec := range kept {
		if err := cw.Write(marshalRecord(rec)); err != nil {
			return 0, fmt.Errorf("writing record for %s: %w", rec.SourceFile, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, err
	}

	if err := os.WriteFile(s.path, buf.Bytes(), 0o644); err != nil {
		return 0, fmt.Errorf("rewriting %s: %w", s.path, err)
	}
	return removed, nil
}

// Close is a no-op for the CSV store.
func (s *CSV) Close() error { return nil }
