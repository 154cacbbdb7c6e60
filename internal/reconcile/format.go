package reconcile

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/chakri-sirigiri/go-statements-parser/internal/fields"
	"github.com/chakri-sirigiri/go-statements-parser/internal/model"
)

const (
	ruleHeavy = "=================================================="
	ruleLight = "--------------------------------------------------"
)

// FormatText renders a report for the console: earnings, both gross
// figures with their match verdict, the deduction breakdown, and both
// net figures with theirs. Zero-sum fields are omitted from the
// breakdowns.
func FormatText(r *Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Reconciliation for %s\n", r.Period)
	b.WriteString(ruleHeavy + "\n")
	fmt.Fprintf(&b, "%-30s %15d\n\n", "Payslips", r.Count)

	b.WriteString("Earnings\n")
	b.WriteString(ruleLight + "\n")
	writeSums(&b, r, model.CategoryEarning, false)
	writeAmount(&b, "Gross Pay (calculated)", r.CalculatedGross, false)
	writeAmount(&b, "Gross Pay (stored)", r.StoredGross, false)
	writeVerdict(&b, r.GrossMatched, r.GrossDiff)

	b.WriteString("\nStatutory Deductions\n")
	b.WriteString(ruleLight + "\n")
	writeSums(&b, r, model.CategoryTax, true)
	writeAmount(&b, "Total Statutory Deductions", r.StatutoryTotal, true)

	b.WriteString("\nOther Deductions\n")
	b.WriteString(ruleLight + "\n")
	writeSums(&b, r, model.CategoryDeduction, true)
	writeSums(&b, r, model.CategoryOffset, true)
	writeAmount(&b, "Total Other Deductions", r.OtherTotal, true)

	b.WriteString("\n")
	writeAmount(&b, "Net Pay (calculated)", r.CalculatedNet, false)
	writeAmount(&b, "Net Pay (stored)", r.StoredNet, false)
	writeVerdict(&b, r.NetMatched, r.NetDiff)

	b.WriteString("\n" + ruleHeavy + "\n")
	fmt.Fprintf(&b, "Summary: %d payslip(s) considered for %s\n", r.Count, r.Period)
	b.WriteString(ruleHeavy + "\n")
	return b.String()
}

// writeSums prints one line per non-zero field total of a category, in
// column order.
func writeSums(b *strings.Builder, r *Report, cat model.FieldCategory, negate bool) {
	for _, f := range fields.All() {
		if f.Category != cat {
			continue
		}
		sum := r.Sums[f.Name]
		if sum.IsZero() {
			continue
		}
		writeAmount(b, f.Label, sum, negate)
	}
}

func writeAmount(b *strings.Builder, label string, amt decimal.Decimal, negate bool) {
	if negate {
		fmt.Fprintf(b, "%-30s -$%14s\n", label, amt.Abs().StringFixed(2))
		return
	}
	fmt.Fprintf(b, "%-30s $%15s\n", label, amt.StringFixed(2))
}

func writeVerdict(b *strings.Builder, matched bool, diff decimal.Decimal) {
	if matched {
		fmt.Fprintf(b, "%-30s %15s\n", "Matched?", "Yes")
		return
	}
	fmt.Fprintf(b, "%-30s %15s\n", "Matched?", "No")
	fmt.Fprintf(b, "%-30s $%15s\n", "Difference", diff.StringFixed(2))
}
