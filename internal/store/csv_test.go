package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chakri-sirigiri/go-statements-parser/internal/fields"
	"github.com/chakri-sirigiri/go-statements-parser/internal/model"
)

func TestCSV_InsertAndQueryPeriod(t *testing.T) {
	s := NewCSV(t.TempDir())
	ctx := context.Background()

	later := record(time.January, 31, "2024-01-31-regular.pdf", map[string]string{
		fields.RegularPay: "5307.50",
		fields.NetPay:     "2773.65",
	})
	earlier := record(time.January, 15, "2024-01-15-regular.pdf", map[string]string{
		fields.RegularPay:       "5307.50",
		fields.FederalIncomeTax: "657.46",
		fields.NetPay:           "2773.65",
	})

	require.NoError(t, s.Insert(ctx, later))
	require.NoError(t, s.Insert(ctx, earlier))

	period, err := model.ParsePeriod("2024")
	require.NoError(t, err)

	recs, err := s.QueryPeriod(ctx, "ipay", period)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "2024-01-15-regular.pdf", recs[0].SourceFile)
	assert.Equal(t, "2024-01-31-regular.pdf", recs[1].SourceFile)
	assert.Equal(t, "ipay", recs[0].Institution)
	assert.True(t, recs[0].StatementDate.Equal(date(2024, time.January, 15)))

	amt, ok := recs[0].Amount(fields.FederalIncomeTax)
	require.True(t, ok)
	assert.True(t, amt.Equal(dec("657.46")))
	assert.False(t, recs[0].Has(fields.Bonus), "absent fields must stay absent after a roundtrip")
	assert.False(t, recs[1].Has(fields.FederalIncomeTax))
}

func TestCSV_QueryPeriod_MonthWindow(t *testing.T) {
	s := NewCSV(t.TempDir())
	ctx := context.Background()

	for _, rec := range []*model.TransactionRecord{
		record(time.January, 15, "2024-01-15-regular.pdf", map[string]string{fields.NetPay: "2773.65"}),
		record(time.February, 15, "2024-02-15-regular.pdf", map[string]string{fields.NetPay: "2773.65"}),
		record(time.March, 15, "2024-03-15-regular.pdf", map[string]string{fields.NetPay: "2773.65"}),
	} {
		require.NoError(t, s.Insert(ctx, rec))
	}
	outsideYear := model.NewTransactionRecord("ipay", date(2023, time.December, 15), "2023-12-15-regular.pdf")
	require.NoError(t, s.Insert(ctx, outsideYear))

	period, err := model.ParsePeriod("02-2024")
	require.NoError(t, err)

	recs, err := s.QueryPeriod(ctx, "ipay", period)
	require.NoError(t, err)
	require.Len(t, recs, 2, "a month period covers the year through that month")
	assert.Equal(t, "2024-01-15-regular.pdf", recs[0].SourceFile)
	assert.Equal(t, "2024-02-15-regular.pdf", recs[1].SourceFile)

	recs, err = s.QueryPeriod(ctx, "robinhood", period)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestCSV_FindKeys(t *testing.T) {
	s := NewCSV(t.TempDir())
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, record(time.January, 15, "2024-01-15-regular.pdf", map[string]string{
		fields.RegularPay: "5307.50",
		fields.NetPay:     "2773.65",
	})))
	require.NoError(t, s.Insert(ctx, record(time.January, 15, "2024-01-15-bonus.pdf", map[string]string{
		fields.Bonus:  "1477.00",
		fields.NetPay: "891.31",
	})))
	require.NoError(t, s.Insert(ctx, record(time.January, 31, "2024-01-31-regular.pdf", map[string]string{
		fields.NetPay: "2773.65",
	})))

	keys, err := s.FindKeys(ctx, "IPAY", date(2024, time.January, 15))
	require.NoError(t, err)
	require.Len(t, keys, 2)

	assert.Equal(t, "2024-01-15-regular.pdf", keys[0].SourceFile)
	assert.True(t, keys[0].RegularPay.Equal(dec("5307.50")))
	assert.Equal(t, "2024-01-15-bonus.pdf", keys[1].SourceFile)
	assert.True(t, keys[1].Bonus.Equal(dec("1477.00")))
	assert.True(t, keys[1].RegularPay.IsZero())
}

func TestCSV_AppendKeepsSingleHeader(t *testing.T) {
	dir := t.TempDir()
	s := NewCSV(dir)
	ctx := context.Background()

	assert.Equal(t, filepath.Join(dir, "transactions.csv"), s.Path())

	require.NoError(t, s.Insert(ctx, record(time.January, 15, "a.pdf", nil)))
	require.NoError(t, s.Insert(ctx, record(time.January, 31, "b.pdf", nil)))

	raw, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "institution,statement_date,source_file,regular_pay,"))
	assert.True(t, strings.HasSuffix(lines[0], ",taxable_off,net_pay"))
}

func TestCSV_Purge(t *testing.T) {
	s := NewCSV(t.TempDir())
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, record(time.January, 15, "2024-01-15-regular.pdf", nil)))
	require.NoError(t, s.Insert(ctx, record(time.January, 15, "2024-01-15-bonus.pdf", nil)))
	require.NoError(t, s.Insert(ctx, record(time.January, 31, "2024-01-31-regular.pdf", nil)))
	other := model.NewTransactionRecord("robinhood", date(2024, time.January, 15), "2024-01-15-regular.pdf")
	require.NoError(t, s.Insert(ctx, other))

	day := date(2024, time.January, 15)
	n, err := s.Purge(ctx, "ipay", &day)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	period, err := model.ParsePeriod("2024")
	require.NoError(t, err)

	recs, err := s.QueryPeriod(ctx, "ipay", period)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "2024-01-31-regular.pdf", recs[0].SourceFile)

	recs, err = s.QueryPeriod(ctx, "robinhood", period)
	require.NoError(t, err)
	assert.Len(t, recs, 1, "other institutions survive a purge")

	n, err = s.Purge(ctx, "ipay", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = s.Purge(ctx, "ipay", nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCSV_MissingFile(t *testing.T) {
	s := NewCSV(filepath.Join(t.TempDir(), "never-created"))
	ctx := context.Background()

	keys, err := s.FindKeys(ctx, "ipay", date(2024, time.January, 15))
	require.NoError(t, err)
	assert.Empty(t, keys)

	period, err := model.ParsePeriod("2024")
	require.NoError(t, err)
	recs, err := s.QueryPeriod(ctx, "ipay", period)
	require.NoError(t, err)
	assert.Empty(t, recs)

	n, err := s.Purge(ctx, "ipay", nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, s.Close())
}
