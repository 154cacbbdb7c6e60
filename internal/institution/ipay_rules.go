package institution

import (
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/chakri-sirigiri/go-statements-parser/internal/amount"
	"github.com/chakri-sirigiri/go-statements-parser/internal/fields"
	"github.com/chakri-sirigiri/go-statements-parser/internal/model"
)

// Amount shapes found on iPay statement lines. The PDF text layer
// renders "1,218.00" as "1 218 00", so amounts appear as runs of
// digit groups.
var (
	// "1060 42" or "1 218": any two digit groups.
	ipayPairAmountRe = regexp.MustCompile(`\d+ \d+`)
	// "1 218 00": three digit groups.
	ipayTripleAmountRe = regexp.MustCompile(`\d+ \d+ \d+`)
	// "-1 846 15" or "-57 94": dollars with space thousands separators
	// followed by a two-digit cents group.
	ipayThousandsAmountRe = regexp.MustCompile(`-?\d{1,3}(?: \d{3})* \d{2}`)
	// "-467 80": signed pair.
	ipaySignedPairAmountRe = regexp.MustCompile(`-?\d+ \d+`)
	// "-120 00" or "-8.00": cents split by space or kept after a dot.
	ipayFlexAmountRe = regexp.MustCompile(`-?\d+[ .]\d{2}`)
	// "-314 58*": the starred current-period HSA amount.
	ipayStarredAmountRe = regexp.MustCompile(`(-?\d+ \d+)\*`)
	// "1 234 56" or "234 56": two or three digit groups.
	ipayNetPayAmountRe = regexp.MustCompile(`\d+ \d+(?: \d+)?`)

	ipayBonusEarningRe       = regexp.MustCompile(`bonus\s+(\d+ \d+ \d+)(?:\s+(\d+ \d+ \d+))?`)
	ipayPerformanceEarningRe = regexp.MustCompile(`performance\s+(\d+ \d+ \d+)(?:\s+(\d+ \d+ \d+))?`)
	ipayVacationEarningRe    = regexp.MustCompile(`vacation[:\s-]*(\d+ \d+ \d+)(?:\s+(\d+ \d+ \d+))?`)
	ipayEsppPairRe           = regexp.MustCompile(`(-?\d+ \d+)(?:\s+(\d+ \d+(?:\s+\d+)?))?`)

	ipayLeadingPairRe   = regexp.MustCompile(`^\d+\s+\d+`)
	ipayLeadingTripleRe = regexp.MustCompile(`^\d+\s+\d+\s+\d+`)
)

type ipayRule struct {
	label string
	field string
	re    *regexp.Regexp
	// starred amounts ("-314 58*") carry the current period alone, so a
	// single match is taken instead of requiring a current/YTD pair.
	starred bool
}

// ipayTaxRules are scanned in order on every line. Several labels feed
// the same canonical field because the employer's state and city vary.
var ipayTaxRules = []ipayRule{
	{label: "federal income tax", field: fields.FederalIncomeTax},
	{label: "social security tax", field: fields.SocialSecurityTax},
	{label: "medicare tax", field: fields.MedicareTax},
	{label: "oh state income tax", field: fields.StateIncomeTax},
	{label: "nc state income tax", field: fields.StateIncomeTax},
	{label: "brooklyn income tax", field: fields.LocalIncomeTax},
	{label: "cleveland income tax", field: fields.LocalIncomeTax},
}

// ipayDeductionRules are scanned in order and the first label present
// on the line decides the outcome for that line. Rule order matters:
// "illness plan lo" must come before "illness plan".
var ipayDeductionRules = []ipayRule{
	{label: "hsa plan", field: fields.HSAPlan, re: ipayStarredAmountRe, starred: true},
	{label: "illness plan lo", field: fields.IllnessPlan, re: ipayFlexAmountRe},
	{label: "illness plan", field: fields.IllnessPlan, re: ipayFlexAmountRe},
	{label: "legal", field: fields.Legal, re: ipayThousandsAmountRe},
	{label: "life ins", field: fields.LifeInsurance, re: ipayFlexAmountRe},
	{label: "life insurance", field: fields.LifeInsurance, re: ipayFlexAmountRe},
	{label: "pretax dental", field: fields.PretaxDental, re: ipayFlexAmountRe},
	{label: "pretax medical", field: fields.PretaxMedical, re: ipayFlexAmountRe},
	{label: "pretax vision", field: fields.PretaxVision, re: ipayFlexAmountRe},
	{label: "dep care", field: fields.DepCare, re: ipayFlexAmountRe},
	{label: "vol acc 40/20", field: fields.VolAcc4020, re: ipayFlexAmountRe},
	{label: "vol acc 20/10", field: fields.VolAcc4020, re: ipayFlexAmountRe},
	{label: "vol child life", field: fields.VolChildLife, re: ipayFlexAmountRe},
	{label: "vol spousl life", field: fields.VolSpousalLife, re: ipayFlexAmountRe},
	{label: "401k pretax", field: fields.K401Pretax, re: ipayThousandsAmountRe},
	{label: "espp", field: fields.ESPP, re: ipaySignedPairAmountRe},
	{label: "401k loan gp1", field: fields.K401LoanGP1, re: ipayThousandsAmountRe},
}

// ipayVacationDeductionRules cover vacation paychecks, which carry only
// statutory deductions and the 401k contribution.
var ipayVacationDeductionRules = []ipayRule{
	{label: "federal income tax", field: fields.FederalIncomeTax},
	{label: "social security tax", field: fields.SocialSecurityTax},
	{label: "medicare tax", field: fields.MedicareTax},
	{label: "oh state income tax", field: fields.StateIncomeTax},
	{label: "nc state income tax", field: fields.StateIncomeTax},
	{label: "brooklyn income tax", field: fields.LocalIncomeTax},
	{label: "cleveland income tax", field: fields.LocalIncomeTax},
	{label: "401k pretax", field: fields.K401Pretax},
}

// ipayOtherIncomeLabels mark supplemental income lines on regular
// paychecks. Scanned in order; "cola" also catches "retro cola" lines.
var ipayOtherIncomeLabels = []string{
	"cola",
	"retro cola",
	"contribution",
	"retro contribution",
	"retro contribtn",
	"award",
	"skillpay allow",
}

// scanRegularPay takes the current-period amount from a "Regular" line.
// On bonus and vacation paychecks the regular line carries only a YTD
// figure, so it is skipped.
func (h *IPay) scanRegularPay(line string, rec *model.TransactionRecord, variant model.Variant) {
	if !strings.Contains(strings.ToLower(line), "regular") {
		return
	}
	if variant != model.VariantRegular || rec.Has(fields.RegularPay) {
		return
	}
	matches := ipayPairAmountRe.FindAllString(line, -1)
	if len(matches) >= 2 {
		h.setAmount(rec, fields.RegularPay, matches[0])
	}
	// a lone amount is a YTD total, leave the field unset
}

// scanOtherIncome accumulates supplemental income (COLA, awards,
// contributions) on regular paychecks. A line with two amounts yields
// the first; a lone amount is promoted only when followed by a
// current-period marker such as a dollar sign.
func (h *IPay) scanOtherIncome(line string, rec *model.TransactionRecord, variant model.Variant) {
	if variant != model.VariantRegular {
		return
	}
	lower := strings.ToLower(line)
	for _, label := range ipayOtherIncomeLabels {
		idx := strings.Index(lower, label)
		if idx < 0 {
			continue
		}
		after := strings.TrimSpace(line[idx+len(label):])

		first := ipayLeadingPairRe.FindString(after)
		if first == "" {
			first = ipayLeadingTripleRe.FindString(after)
		}
		if first == "" {
			continue
		}
		rest := strings.TrimSpace(after[len(first):])
		second := ipayLeadingTripleRe.FindString(rest)
		if second == "" {
			second = ipayLeadingPairRe.FindString(rest)
		}

		if second != "" {
			h.addAmount(rec, fields.OtherIncome, first)
			return
		}
		end := strings.Index(lower, first) + len(first)
		remaining := strings.TrimSpace(line[end:])
		if h.isCurrentPeriod(remaining) {
			h.addAmount(rec, fields.OtherIncome, first)
		}
		return
	}
}

// isCurrentPeriod decides whether the text after a lone amount marks it
// as current-period income. Account routing details never do.
func (h *IPay) isCurrentPeriod(remaining string) bool {
	if remaining == "" {
		return false
	}
	lower := strings.ToLower(remaining)
	if strings.HasPrefix(lower, "g t l") || strings.HasPrefix(lower, "checking") {
		return false
	}
	for _, marker := range h.PromotionMarkers {
		if strings.Contains(lower, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

// scanBonusEarnings takes the bonus amount on bonus paychecks. The
// first captured amount is the current period.
func (h *IPay) scanBonusEarnings(line string, rec *model.TransactionRecord) {
	lower := strings.ToLower(line)
	var re *regexp.Regexp
	switch {
	case strings.Contains(lower, "bonus"):
		re = ipayBonusEarningRe
	case strings.Contains(lower, "performance"):
		re = ipayPerformanceEarningRe
	default:
		return
	}
	if rec.Has(fields.Bonus) {
		return
	}
	if m := re.FindAllStringSubmatch(lower, -1); len(m) > 0 {
		h.setAmount(rec, fields.Bonus, m[0][1])
	}
}

// scanVacationEarnings takes the vacation amount on vacation paychecks
// and maps it to other income.
func (h *IPay) scanVacationEarnings(line string, rec *model.TransactionRecord) {
	lower := strings.ToLower(line)
	if !strings.Contains(lower, "vacation") || rec.Has(fields.OtherIncome) {
		return
	}
	if m := ipayVacationEarningRe.FindAllStringSubmatch(lower, -1); len(m) > 0 {
		h.setAmount(rec, fields.OtherIncome, m[0][1])
	}
}

// scanGrossPay takes the current-period amount from a "Gross Pay" line.
// Gross amounts are usually thousands-grouped triples ("5 307 50"), but
// amounts under a thousand render as pairs, so the pair shape is tried
// when the triple shape does not find a current/YTD pair.
func (h *IPay) scanGrossPay(line string, rec *model.TransactionRecord) {
	if !strings.Contains(strings.ToLower(line), "gross pay") || rec.Has(fields.GrossPay) {
		return
	}
	matches := ipayTripleAmountRe.FindAllString(line, -1)
	if len(matches) < 2 {
		matches = ipayPairAmountRe.FindAllString(line, -1)
	}
	if len(matches) >= 2 {
		h.setAmount(rec, fields.GrossPay, matches[0])
	}
}

// scanTaxes extracts statutory taxes. Amounts are stored unsigned.
func (h *IPay) scanTaxes(line string, rec *model.TransactionRecord) {
	lower := strings.ToLower(line)
	for _, rule := range ipayTaxRules {
		if !strings.Contains(lower, rule.label) || rec.Has(rule.field) {
			continue
		}
		matches := ipayThousandsAmountRe.FindAllString(line, -1)
		if len(matches) >= 2 {
			h.setAmount(rec, rule.field, matches[0])
		}
	}
}

// scanDeductions extracts benefit and retirement deductions on regular
// paychecks. The first matching label decides the outcome for the
// line: either the field is set, or a lone YTD amount ends the scan
// with the field left unset.
func (h *IPay) scanDeductions(line string, rec *model.TransactionRecord) {
	lower := strings.ToLower(line)
	for _, rule := range ipayDeductionRules {
		if !strings.Contains(lower, rule.label) {
			continue
		}
		if rec.Has(rule.field) {
			continue
		}

		if rule.starred {
			m := rule.re.FindAllStringSubmatch(line, -1)
			if len(m) == 0 {
				continue
			}
			h.setAmount(rec, rule.field, m[0][1])
			return
		}

		matches := rule.re.FindAllString(line, -1)
		switch {
		case len(matches) >= 2:
			h.setAmount(rec, rule.field, matches[0])
			return
		case len(matches) == 1:
			// a lone amount is a YTD total
			return
		}
	}
}

// scanBonusDeductions extracts the only deductions taken from bonus
// paychecks: ESPP and the 401k contribution.
func (h *IPay) scanBonusDeductions(line string, rec *model.TransactionRecord) {
	lower := strings.ToLower(line)

	if strings.Contains(lower, "espp") && !rec.Has(fields.ESPP) {
		m := ipayEsppPairRe.FindAllStringSubmatch(line, -1)
		if len(m) > 0 && m[0][2] != "" {
			h.setAmount(rec, fields.ESPP, m[0][1])
		}
		// a lone amount is a YTD total
	}

	if strings.Contains(lower, "401k pretax") && !rec.Has(fields.K401Pretax) {
		matches := ipayThousandsAmountRe.FindAllString(line, -1)
		if len(matches) >= 2 {
			h.setAmount(rec, fields.K401Pretax, matches[0])
		}
	}
}

// scanVacationDeductions extracts statutory deductions and the 401k
// contribution on vacation paychecks.
func (h *IPay) scanVacationDeductions(line string, rec *model.TransactionRecord) {
	lower := strings.ToLower(line)
	for _, rule := range ipayVacationDeductionRules {
		if !strings.Contains(lower, rule.label) {
			continue
		}
		if rec.Has(rule.field) {
			continue
		}
		matches := ipayThousandsAmountRe.FindAllString(line, -1)
		switch {
		case len(matches) >= 2:
			h.setAmount(rec, rule.field, matches[0])
			return
		case len(matches) == 1:
			// a lone amount is a YTD total
			return
		}
	}
}

// scanNetPay takes the amount from a "Net Pay" line. Unlike earnings
// lines, a lone amount here is the current period: the net pay summary
// has no YTD column.
func (h *IPay) scanNetPay(line string, rec *model.TransactionRecord) {
	if !strings.Contains(strings.ToLower(line), "net pay") || rec.Has(fields.NetPay) {
		return
	}
	matches := ipayNetPayAmountRe.FindAllString(line, -1)
	if len(matches) >= 1 {
		h.setAmount(rec, fields.NetPay, matches[0])
	}
}

func (h *IPay) setAmount(rec *model.TransactionRecord, field, tok string) {
	amt, err := amount.Parse(strings.TrimPrefix(tok, "-"))
	if err != nil {
		log.WithError(err).WithField("field", field).Warn("could not parse amount")
		return
	}
	rec.Set(field, amt)
}

func (h *IPay) addAmount(rec *model.TransactionRecord, field, tok string) {
	amt, err := amount.Parse(strings.TrimPrefix(tok, "-"))
	if err != nil {
		log.WithError(err).WithField("field", field).Warn("could not parse amount")
		return
	}
	rec.Add(field, amt)
}
