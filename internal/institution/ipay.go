package institution

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/chakri-sirigiri/go-statements-parser/internal/fields"
	"github.com/chakri-sirigiri/go-statements-parser/internal/model"
)

// IPay parses ADP iPay payslips. The text of an iPay statement is
// line-oriented: each earnings, tax, and deduction line carries a label
// followed by a current-period amount and a year-to-date amount, with
// thousands separators rendered as spaces by the PDF text layer.
type IPay struct {
	// PromotionMarkers are substrings that, when found after a lone
	// amount on an income line, mark it as current-period income
	// rather than a year-to-date total.
	PromotionMarkers []string
}

// NewIPay returns an iPay handler with the default promotion markers.
func NewIPay() *IPay {
	return &IPay{PromotionMarkers: []string{"$", "non-taxable"}}
}

// Name returns the institution key.
func (h *IPay) Name() string { return "ipay" }

const ipayDateFormat = "1/2/2006"

var ipayPayDateRe = regexp.MustCompile(`(?i)pay\s+date[:\s]*(\d{1,2}/\d{1,2}/\d{4})`)

// StatementDate finds the pay date in the statement text.
func (h *IPay) StatementDate(text string) (time.Time, error) {
	m := ipayPayDateRe.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, ErrNoStatementDate
	}
	date, err := time.Parse(ipayDateFormat, m[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing pay date %q: %w", m[1], err)
	}
	return date, nil
}

// Extract parses one statement's text into a TransactionRecord. The
// scan is line by line: every line is offered to each field scanner,
// and the first line that yields a current-period amount for a field
// wins. On a validation failure the record is returned alongside the
// *ValidationError.
func (h *IPay) Extract(text, sourceFile string) (*model.TransactionRecord, error) {
	date, err := h.StatementDate(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sourceFile, err)
	}

	lines := strings.Split(text, "\n")
	variant := ipayClassify(lines, sourceFile)
	log.WithFields(log.Fields{
		"source_file": sourceFile,
		"variant":     variant,
	}).Debug("classified paycheck")

	rec := model.NewTransactionRecord(h.Name(), date, sourceFile)
	for _, line := range lines {
		h.scanRegularPay(line, rec, variant)
		h.scanOtherIncome(line, rec, variant)
		switch variant {
		case model.VariantBonus:
			h.scanBonusEarnings(line, rec)
		case model.VariantVacation:
			h.scanVacationEarnings(line, rec)
		}
		h.scanGrossPay(line, rec)
		h.scanTaxes(line, rec)
		switch variant {
		case model.VariantBonus:
			h.scanBonusDeductions(line, rec)
		case model.VariantVacation:
			h.scanVacationDeductions(line, rec)
		default:
			h.scanDeductions(line, rec)
		}
		h.scanNetPay(line, rec)
	}

	h.resolveNetPay(lines, rec)

	if len(rec.Amounts) == 0 {
		return nil, fmt.Errorf("%s: %w", sourceFile, ErrInsufficientData)
	}

	if err := h.validate(rec, variant); err != nil {
		return rec, err
	}
	return rec, nil
}

// ipayClassify determines the paycheck variant. The filename markers
// win; otherwise a line mentioning the keyword with equal current and
// YTD amounts identifies the variant, since equal amounts mean the
// first such payment of the year.
func ipayClassify(lines []string, sourceFile string) model.Variant {
	name := strings.ToLower(sourceFile)
	if strings.Contains(name, "bonus") || ipayHasFirstPeriodEarning(lines, "bonus") {
		return model.VariantBonus
	}
	if strings.Contains(name, "vacation") || ipayHasFirstPeriodEarning(lines, "vacation") {
		return model.VariantVacation
	}
	return model.VariantRegular
}

func ipayHasFirstPeriodEarning(lines []string, keyword string) bool {
	for _, line := range lines {
		if !strings.Contains(strings.ToLower(line), keyword) {
			continue
		}
		m := ipayTripleAmountRe.FindAllString(line, -1)
		if len(m) >= 2 && m[0] == m[1] {
			return true
		}
	}
	return false
}

var ipayTolerance = decimal.New(1, -2)

// validate checks the net pay arithmetic for the variant. Records with
// no earnings for the variant are skipped: those are YTD-only
// statements with nothing to reconcile.
func (h *IPay) validate(rec *model.TransactionRecord, variant model.Variant) error {
	statutory := sumFields(rec, fields.Taxes())

	var expected decimal.Decimal
	switch variant {
	case model.VariantBonus:
		bonus := rec.AmountOrZero(fields.Bonus)
		if bonus.IsZero() {
			log.WithField("source_file", rec.SourceFile).Warn("bonus paycheck has no bonus amount, skipping validation")
			return nil
		}
		expected = bonus.Sub(statutory).
			Sub(rec.AmountOrZero(fields.ESPP)).
			Sub(rec.AmountOrZero(fields.K401Pretax))
	case model.VariantVacation:
		vacation := rec.AmountOrZero(fields.OtherIncome)
		if vacation.IsZero() {
			log.WithField("source_file", rec.SourceFile).Warn("vacation paycheck has no vacation amount, skipping validation")
			return nil
		}
		expected = vacation.Sub(statutory).
			Sub(rec.AmountOrZero(fields.K401Pretax))
	default:
		gross := rec.AmountOrZero(fields.RegularPay).Add(rec.AmountOrZero(fields.OtherIncome))
		if gross.IsZero() {
			log.WithField("source_file", rec.SourceFile).Warn("paycheck has no earnings, skipping validation")
			return nil
		}
		expected = gross.Sub(statutory).Sub(sumFields(rec, fields.Deductions()))
	}

	actual := rec.AmountOrZero(fields.NetPay)
	if expected.Sub(actual).Abs().GreaterThan(ipayTolerance) {
		return &ValidationError{
			SourceFile: rec.SourceFile,
			Variant:    variant,
			Expected:   expected,
			Actual:     actual,
		}
	}
	return nil
}

func sumFields(rec *model.TransactionRecord, names []string) decimal.Decimal {
	total := decimal.Zero
	for _, name := range names {
		total = total.Add(rec.AmountOrZero(name))
	}
	return total
}
