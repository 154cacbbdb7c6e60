package processor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chakri-sirigiri/go-statements-parser/internal/config"
	"github.com/chakri-sirigiri/go-statements-parser/internal/fields"
	"github.com/chakri-sirigiri/go-statements-parser/internal/institution"
	"github.com/chakri-sirigiri/go-statements-parser/internal/model"
	"github.com/chakri-sirigiri/go-statements-parser/internal/pdftext"
	"github.com/chakri-sirigiri/go-statements-parser/internal/runlog"
	"github.com/chakri-sirigiri/go-statements-parser/internal/store"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

// regularText is a payslip that passes validation:
// 5307.50 - 1352.10 taxes - 1181.75 deductions = 2773.65.
func regularText(payDate string) string {
	return "Company Inc\n" +
		"Pay Date: " + payDate + "\n\n" +
		"Earnings                        this period     year to date\n" +
		"Regular                         5307 50         26 537 50\n" +
		"Gross Pay                       5 307 50        26 537 50\n\n" +
		"Statutory\n" +
		"Federal Income Tax              -695 28         3 476 40\n" +
		"Social Security Tax             -320 46         1 602 30\n" +
		"Medicare Tax                    -74 95          374 75\n" +
		"OH State Income Tax             -155 26         776 30\n" +
		"Cleveland Income Tax            -106 15         530 75\n\n" +
		"Other\n" +
		"Pretax Medical                  -120 00         600 00\n" +
		"401K Pretax                     -530 75         2 653 75\n" +
		"ESPP                            -531 00         2 655 00\n\n" +
		"Net Pay                         2 773 65\n"
}

// invalidText is off by fifty dollars: 2000 - 200 = 1800, not 1750.
const invalidText = "Pay Date: 01/15/2024\n" +
	"Regular 2000 00 2000 00\n" +
	"Gross Pay 2000 00 2000 00\n" +
	"Federal Income Tax -200 00 -200 00\n" +
	"Net Pay 1750 00\n"

func newTestProcessor(t *testing.T) *Processor {
	t.Helper()
	root := t.TempDir()
	cfg := &config.Config{
		Institution: "ipay",
		Folders: config.FoldersConfig{
			Inbox:     filepath.Join(root, "inbox"),
			Organized: filepath.Join(root, "organized"),
			Export:    filepath.Join(root, "export"),
		},
		Store: config.StoreConfig{Driver: config.DriverCSV, Path: filepath.Join(root, "data")},
	}
	require.NoError(t, os.MkdirAll(cfg.Folders.Inbox, 0o755))
	require.NoError(t, os.MkdirAll(cfg.Folders.Organized, 0o755))

	st := store.NewCSV(cfg.Store.Path)
	t.Cleanup(func() { st.Close() })
	return New(cfg, institution.DefaultRegistry(), st, pdftext.NewTool())
}

func writeFile(t *testing.T, dir, name, text string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(text), 0o644))
}

func storedCount(t *testing.T, p *Processor) int {
	t.Helper()
	period, err := model.ParsePeriod("2024")
	require.NoError(t, err)
	recs, err := p.Store.QueryPeriod(context.Background(), "ipay", period)
	require.NoError(t, err)
	return len(recs)
}

func TestOrganize(t *testing.T) {
	p := newTestProcessor(t)
	writeFile(t, p.Config.Folders.Inbox, "Pay Statement Mar 15.txt", regularText("03/15/2024"))
	writeFile(t, p.Config.Folders.Inbox, "2024-02-01-manual_entry.txt", "entered by hand")
	writeFile(t, p.Config.Folders.Inbox, "scanned-receipt.txt", "no dates anywhere")

	res, err := p.Organize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-03-15-regular.txt"}, res.Organized)
	assert.ElementsMatch(t, []string{"2024-02-01-manual_entry.txt", "scanned-receipt.txt"}, res.Skipped)

	assert.FileExists(t, filepath.Join(p.Config.Folders.Organized, "2024-03-15-regular.txt"))
	assert.NoFileExists(t, filepath.Join(p.Config.Folders.Inbox, "Pay Statement Mar 15.txt"))
	assert.FileExists(t, filepath.Join(p.Config.Folders.Inbox, "2024-02-01-manual_entry.txt"),
		"manual entries stay in the inbox")
	assert.FileExists(t, filepath.Join(p.Config.Folders.Inbox, "scanned-receipt.txt"))
}

func TestOrganize_BonusKeepsTypeFromFilename(t *testing.T) {
	p := newTestProcessor(t)
	writeFile(t, p.Config.Folders.Inbox, "March Bonus Statement.txt", regularText("03/20/2024"))

	res, err := p.Organize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-20-bonus.txt"}, res.Organized)
}

func TestOrganize_Collision(t *testing.T) {
	p := newTestProcessor(t)
	ctx := context.Background()

	writeFile(t, p.Config.Folders.Organized, "2024-03-15-regular.txt", regularText("03/15/2024"))

	// Same contents: the inbox copy is dropped.
	writeFile(t, p.Config.Folders.Inbox, "redownloaded.txt", regularText("03/15/2024"))
	res, err := p.Organize(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-15-regular.txt"}, res.Organized)
	assert.NoFileExists(t, filepath.Join(p.Config.Folders.Inbox, "redownloaded.txt"))

	// Different contents: the file is skipped and left in the inbox.
	other := regularText("03/15/2024") + "Checking1 2 773 65 2 773 65\n"
	writeFile(t, p.Config.Folders.Inbox, "conflicting.txt", other)
	res, err = p.Organize(ctx)
	require.NoError(t, err)
	assert.Empty(t, res.Organized)
	assert.Equal(t, []string{"conflicting.txt"}, res.Skipped)
	assert.FileExists(t, filepath.Join(p.Config.Folders.Inbox, "conflicting.txt"))
}

func TestOrganize_MissingInbox(t *testing.T) {
	p := newTestProcessor(t)
	require.NoError(t, os.RemoveAll(p.Config.Folders.Inbox))

	res, err := p.Organize(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Organized)
	assert.Empty(t, res.Skipped)
}

func TestRun_EndToEnd(t *testing.T) {
	p := newTestProcessor(t)
	ctx := context.Background()
	writeFile(t, p.Config.Folders.Inbox, "Pay Statement Mar 29.txt", regularText("03/29/2024"))
	writeFile(t, p.Config.Folders.Inbox, "Pay Statement Mar 15.txt", regularText("03/15/2024"))
	writeFile(t, p.Config.Folders.Inbox, "w2-ye-summary.txt", "Pay Date: 12/31/2024\nW-2 Summary")

	res, err := p.Run(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 1, res.Skipped, "year-end summary is organized but not extracted")
	assert.Zero(t, res.Duplicates)
	assert.Zero(t, res.Failed)

	require.Len(t, res.Stored, 2)
	assert.Equal(t, "2024-03-15-regular.txt", res.Stored[0].SourceFile, "statements are processed chronologically")
	assert.Equal(t, "2024-03-29-regular.txt", res.Stored[1].SourceFile)
	assert.True(t, res.Stored[0].AmountOrZero(fields.NetPay).Equal(dec("2773.65")))
	assert.Equal(t, 2, storedCount(t, p))

	entries, err := runlog.Read(p.Config.Store.Path)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for _, e := range entries {
		assert.Equal(t, res.RunID, e.RunID)
	}

	// A second run finds nothing new: every statement is a duplicate.
	res, err = p.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, res.Stored)
	assert.Equal(t, 2, res.Duplicates)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 2, storedCount(t, p))
}

func TestExtract_ValidationFailureAbortsBatch(t *testing.T) {
	p := newTestProcessor(t)
	writeFile(t, p.Config.Folders.Organized, "2024-01-15-regular.txt", invalidText)
	writeFile(t, p.Config.Folders.Organized, "2024-02-15-regular.txt", regularText("02/15/2024"))

	res, err := p.Extract(context.Background())
	require.Error(t, err)

	var verr *institution.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Diff().Equal(dec("50.00")), "diff %s", verr.Diff())

	assert.Equal(t, 1, res.Failed)
	assert.Empty(t, res.Stored, "the later statement is not reached")
	assert.Equal(t, 1, storedCount(t, p), "the failed record is persisted for inspection")

	entries, readErr := runlog.Read(p.Config.Store.Path)
	require.NoError(t, readErr)
	require.Len(t, entries, 1)
	assert.Equal(t, runlog.OutcomeFailed, entries[0].Outcome)
}

func TestExtract_UnreadableStatementContinues(t *testing.T) {
	p := newTestProcessor(t)
	writeFile(t, p.Config.Folders.Organized, "2024-01-15-regular.txt", "no pay date in here")
	writeFile(t, p.Config.Folders.Organized, "2024-02-15-regular.txt", regularText("02/15/2024"))

	res, err := p.Extract(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Stored, 1)
	assert.Equal(t, "2024-02-15-regular.txt", res.Stored[0].SourceFile)
}

func TestExtractFile(t *testing.T) {
	p := newTestProcessor(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "2024-03-15-regular.txt")
	require.NoError(t, os.WriteFile(path, []byte(regularText("03/15/2024")), 0o644))

	rec, err := p.ExtractFile(ctx, path)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.AmountOrZero(fields.NetPay).Equal(dec("2773.65")))
	assert.Equal(t, 1, storedCount(t, p))

	rec, err = p.ExtractFile(ctx, path)
	assert.ErrorIs(t, err, ErrDuplicate)
	require.NotNil(t, rec, "the record is returned so the caller can show what matched")
	assert.Equal(t, 1, storedCount(t, p))
}

// fakeExtractor serves canned text instead of shelling out to pdftotext.
type fakeExtractor struct {
	text string
}

func (f fakeExtractor) Text(ctx context.Context, path string) (string, error) {
	return f.text, nil
}

func TestExtract_PDFGoesThroughExtractor(t *testing.T) {
	p := newTestProcessor(t)
	p.Extractor = fakeExtractor{text: regularText("03/15/2024")}
	writeFile(t, p.Config.Folders.Organized, "2024-03-15-regular.pdf", "%PDF-1.4 stand-in")

	res, err := p.Extract(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Stored, 1)
	assert.Equal(t, "2024-03-15-regular.pdf", res.Stored[0].SourceFile)
	assert.True(t, res.Stored[0].AmountOrZero(fields.NetPay).Equal(dec("2773.65")))
}

func TestExtract_UnknownInstitution(t *testing.T) {
	p := newTestProcessor(t)
	p.Config.Institution = "acme-bank"

	_, err := p.Extract(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown institution")
}

func TestSkipReason(t *testing.T) {
	assert.Equal(t, "manual entry", skipReason("2024-02-01-manual_entry.txt"))
	assert.Equal(t, "year-end summary", skipReason("2024-12-31-ye-summary.pdf"))
	assert.Empty(t, skipReason("2024-03-15-regular.pdf"))
	assert.Empty(t, skipReason("2024-03-15-bonus.txt"))
}
