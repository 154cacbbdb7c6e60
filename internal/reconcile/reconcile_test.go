package reconcile

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chakri-sirigiri/go-statements-parser/internal/fields"
	"github.com/chakri-sirigiri/go-statements-parser/internal/model"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func record(day int, set map[string]string) *model.TransactionRecord {
	rec := model.NewTransactionRecord("ipay",
		time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
		"2024-01-15-regular.pdf")
	for name, amt := range set {
		rec.Set(name, dec(amt))
	}
	return rec
}

func TestAggregate_Matched(t *testing.T) {
	r1 := record(15, map[string]string{
		fields.RegularPay:       "2000.00",
		fields.GrossPay:         "2000.00",
		fields.FederalIncomeTax: "200.00",
		fields.K401Pretax:       "200.00",
		fields.NetPay:           "1600.00",
	})
	r2 := record(31, map[string]string{
		fields.RegularPay:       "2000.00",
		fields.OtherIncome:      "125.00",
		fields.GrossPay:         "2125.00",
		fields.FederalIncomeTax: "212.50",
		fields.K401Pretax:       "212.50",
		fields.NetPay:           "1700.00",
	})

	rep := Aggregate(model.Period{Year: 2024}, []*model.TransactionRecord{r1, r2})

	assert.Equal(t, 2, rep.Count)
	assert.True(t, rep.Sums[fields.RegularPay].Equal(dec("4000.00")))
	assert.True(t, rep.CalculatedGross.Equal(dec("4125.00")))
	assert.True(t, rep.StoredGross.Equal(dec("4125.00")))
	assert.True(t, rep.GrossMatched)
	assert.True(t, rep.StatutoryTotal.Equal(dec("412.50")))
	assert.True(t, rep.OtherTotal.Equal(dec("412.50")))
	assert.True(t, rep.CalculatedNet.Equal(dec("3300.00")))
	assert.True(t, rep.StoredNet.Equal(dec("3300.00")))
	assert.True(t, rep.NetMatched)
}

func TestAggregate_Mismatch(t *testing.T) {
	r1 := record(15, map[string]string{
		fields.RegularPay: "2000.00",
		fields.GrossPay:   "2000.00",
		fields.NetPay:     "1995.00",
	})

	rep := Aggregate(model.Period{Year: 2024}, []*model.TransactionRecord{r1})

	assert.True(t, rep.GrossMatched)
	assert.False(t, rep.NetMatched)
	assert.True(t, rep.NetDiff.Equal(dec("5.00")), "diff %s", rep.NetDiff)
}

func TestAggregate_OrderIndependent(t *testing.T) {
	r1 := record(15, map[string]string{
		fields.RegularPay: "2000.00",
		fields.GrossPay:   "2000.00",
		fields.NetPay:     "2000.00",
	})
	r2 := record(31, map[string]string{
		fields.Bonus:    "1477.00",
		fields.GrossPay: "1477.00",
		fields.NetPay:   "1477.00",
	})

	fwd := Aggregate(model.Period{Year: 2024}, []*model.TransactionRecord{r1, r2})
	rev := Aggregate(model.Period{Year: 2024}, []*model.TransactionRecord{r2, r1})

	for _, name := range fields.Names() {
		assert.True(t, fwd.Sums[name].Equal(rev.Sums[name]), "field %s", name)
	}
	assert.Equal(t, fwd.GrossMatched, rev.GrossMatched)
	assert.Equal(t, fwd.NetMatched, rev.NetMatched)
	assert.True(t, fwd.CalculatedNet.Equal(rev.CalculatedNet))
}

func TestAggregate_TaxableOffReducesNet(t *testing.T) {
	r1 := record(15, map[string]string{
		fields.RegularPay: "2000.00",
		fields.GrossPay:   "2000.00",
		fields.TaxableOff: "50.00",
		fields.NetPay:     "1950.00",
	})

	rep := Aggregate(model.Period{Year: 2024}, []*model.TransactionRecord{r1})

	assert.True(t, rep.OtherTotal.Equal(dec("50.00")))
	assert.True(t, rep.CalculatedNet.Equal(dec("1950.00")))
	assert.True(t, rep.NetMatched)
}

func TestAggregate_ToleranceBoundary(t *testing.T) {
	// differences under a cent match, a full cent does not
	r1 := record(15, map[string]string{
		fields.RegularPay: "2000.000",
		fields.GrossPay:   "2000.009",
	})
	rep := Aggregate(model.Period{Year: 2024}, []*model.TransactionRecord{r1})
	assert.True(t, rep.GrossMatched)

	r2 := record(15, map[string]string{
		fields.RegularPay: "2000.00",
		fields.GrossPay:   "2000.01",
	})
	rep = Aggregate(model.Period{Year: 2024}, []*model.TransactionRecord{r2})
	assert.False(t, rep.GrossMatched)
	assert.True(t, rep.GrossDiff.Equal(dec("-0.01")))
}

func TestFormatText(t *testing.T) {
	r1 := record(15, map[string]string{
		fields.RegularPay:       "2000.00",
		fields.GrossPay:         "2000.00",
		fields.FederalIncomeTax: "200.00",
		fields.NetPay:           "1800.00",
	})

	rep := Aggregate(model.Period{Year: 2024, Month: 3}, []*model.TransactionRecord{r1})
	out := FormatText(rep)

	assert.Contains(t, out, "Reconciliation for 03-2024")
	assert.Contains(t, out, "Regular Pay")
	assert.Contains(t, out, "2000.00")
	assert.Contains(t, out, "Federal Income Tax")
	assert.Contains(t, out, "-$        200.00")
	assert.Contains(t, out, "Matched?")
	assert.Contains(t, out, "Yes")
	assert.Contains(t, out, "Summary: 1 payslip(s) considered for 03-2024")
	assert.NotContains(t, out, "Bonus", "zero sums are omitted")
}

func TestFormatText_Mismatch(t *testing.T) {
	r1 := record(15, map[string]string{
		fields.RegularPay: "2000.00",
		fields.GrossPay:   "2000.00",
		fields.NetPay:     "1995.00",
	})

	out := FormatText(Aggregate(model.Period{Year: 2024}, []*model.TransactionRecord{r1}))

	assert.Contains(t, out, "No")
	assert.Contains(t, out, "Difference")
	assert.Contains(t, out, "5.00")
}

func TestAggregate_Empty(t *testing.T) {
	rep := Aggregate(model.Period{Year: 2024}, nil)
	require.NotNil(t, rep)
	assert.Equal(t, 0, rep.Count)
	assert.True(t, rep.GrossMatched, "zero against zero matches")
	assert.True(t, rep.NetMatched)
}
