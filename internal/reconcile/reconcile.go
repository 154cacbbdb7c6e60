// Package reconcile sums stored payslip records over a period and
// cross-checks the aggregate arithmetic: summed earnings against the
// stored gross pay, and earnings minus deductions against the stored
// net pay.
package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/chakri-sirigiri/go-statements-parser/internal/fields"
	"github.com/chakri-sirigiri/go-statements-parser/internal/model"
)

// tolerance is the largest aggregate difference still reported as a
// match.
var tolerance = decimal.New(1, -2)

// Report holds the period totals and the two cross-checks. Sums carries
// one total per canonical field; the differences are signed,
// calculated minus stored.
type Report struct {
	Period model.Period
	Count  int
	Sums   map[string]decimal.Decimal

	CalculatedGross decimal.Decimal
	StoredGross     decimal.Decimal
	GrossMatched    bool
	GrossDiff       decimal.Decimal

	StatutoryTotal decimal.Decimal
	OtherTotal     decimal.Decimal

	CalculatedNet decimal.Decimal
	StoredNet     decimal.Decimal
	NetMatched    bool
	NetDiff       decimal.Decimal
}

// Aggregate sums each monetary field across the records and computes
// the gross and net cross-checks. Summation is order independent, so
// the records may arrive in any order.
func Aggregate(period model.Period, records []*model.TransactionRecord) *Report {
	r := &Report{
		Period: period,
		Count:  len(records),
		Sums:   make(map[string]decimal.Decimal, len(fields.All())),
	}

	for _, name := range fields.Names() {
		total := decimal.Zero
		for _, rec := range records {
			total = total.Add(rec.AmountOrZero(name))
		}
		r.Sums[name] = total
	}

	r.CalculatedGross = r.Sums[fields.RegularPay].
		Add(r.Sums[fields.Bonus]).
		Add(r.Sums[fields.OtherIncome])
	r.StoredGross = r.Sums[fields.GrossPay]

	for _, name := range fields.Taxes() {
		r.StatutoryTotal = r.StatutoryTotal.Add(r.Sums[name])
	}
	// The taxable offset reduces net pay alongside the deductions even
	// though per-paycheck validation never sees it.
	for _, name := range append(fields.Deductions(), fields.TaxableOff) {
		r.OtherTotal = r.OtherTotal.Add(r.Sums[name])
	}

	r.CalculatedNet = r.CalculatedGross.Sub(r.StatutoryTotal).Sub(r.OtherTotal)
	r.StoredNet = r.Sums[fields.NetPay]

	r.GrossDiff = r.CalculatedGross.Sub(r.StoredGross)
	r.NetDiff = r.CalculatedNet.Sub(r.StoredNet)
	r.GrossMatched = r.GrossDiff.Abs().LessThan(tolerance)
	r.NetMatched = r.NetDiff.Abs().LessThan(tolerance)
	return r
}
