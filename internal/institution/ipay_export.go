package institution

import (
	"encoding/csv"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/chakri-sirigiri/go-statements-parser/internal/fields"
	"github.com/chakri-sirigiri/go-statements-parser/internal/model"
)

const ipayExportDateFormat = "2006-01-02"

// ipayExportColumns lists the export columns in presentation order.
// The taxable offset is internal bookkeeping and is not exported.
func ipayExportColumns() []string {
	cols := []string{"statement_date"}
	for _, f := range fields.All() {
		if f.Name == fields.TaxableOff {
			continue
		}
		cols = append(cols, f.Name)
	}
	return cols
}

// WriteExport writes records as CSV, one row per statement. Absent
// fields become empty cells.
func (h *IPay) WriteExport(w io.Writer, records []*model.TransactionRecord) error {
	cw := csv.NewWriter(w)
	cols := ipayExportColumns()
	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("writing export header: %w", err)
	}

	for _, rec := range records {
		row := make([]string, len(cols))
		row[0] = rec.StatementDate.Format(ipayExportDateFormat)
		for i, name := range cols[1:] {
			if amt, ok := rec.Amount(name); ok {
				row[i+1] = amt.StringFixed(2)
			}
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing export row for %s: %w", rec.SourceFile, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// EnterToLedger posts records to the ledger application. There is no
// automation hook for the ledger yet, so the records are only counted
// and logged.
func (h *IPay) EnterToLedger(records []*model.TransactionRecord) error {
	log.WithField("count", len(records)).Info("ledger integration not implemented, records not posted")
	return nil
}
