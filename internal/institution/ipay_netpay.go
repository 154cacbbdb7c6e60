package institution

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/chakri-sirigiri/go-statements-parser/internal/amount"
	"github.com/chakri-sirigiri/go-statements-parser/internal/fields"
	"github.com/chakri-sirigiri/go-statements-parser/internal/model"
)

// Deposit lines in the distribution section look like "Checking5 221 16
// 221 16" (current and YTD as digit pairs) or "Checking2 2 585 90"
// (a single thousands-grouped amount). The pair form is probed first
// because the triple probe would also match it.
var (
	ipayCheckingTwoPairsRe    = regexp.MustCompile(`\bchecking\d*\s+\d+\s+\d+\s+\d+\s+\d+$`)
	ipayCheckingTripleProbeRe = regexp.MustCompile(`\bchecking\d*\s+\d+\s+\d+\s+\d+`)
	ipayCheckingTripleRe      = regexp.MustCompile(`\bchecking\d*\s+(\d+\s+\d+\s+\d+)(?:\s+(\d+\s+\d+\s+\d+))?`)
	ipayCheckingPairRe        = regexp.MustCompile(`\bchecking\d*\s+(\d+\s+\d+)(?:\s+(\d+\s+\d+))?`)
)

// resolveNetPay applies the checking-account fallback. When the net pay
// summary is missing or zero, the actual net pay is the sum of the
// current-period deposits into the checking accounts listed in the
// distribution section.
func (h *IPay) resolveNetPay(lines []string, rec *model.TransactionRecord) {
	if np, ok := rec.Amount(fields.NetPay); ok && !np.IsZero() {
		return
	}

	total := decimal.Zero
	deposits := 0
	for _, line := range lines {
		lower := strings.ToLower(line)
		if !strings.Contains(lower, "checking") {
			continue
		}

		var matches [][]string
		switch {
		case ipayCheckingTwoPairsRe.MatchString(lower):
			matches = ipayCheckingPairRe.FindAllStringSubmatch(lower, -1)
		case ipayCheckingTripleProbeRe.MatchString(lower):
			matches = ipayCheckingTripleRe.FindAllStringSubmatch(lower, -1)
		default:
			matches = ipayCheckingPairRe.FindAllStringSubmatch(lower, -1)
		}

		for _, m := range matches {
			if m[2] == "" {
				// a lone amount is the YTD deposit total, nothing was
				// deposited this period
				continue
			}
			amt, err := amount.FromDigits(m[1])
			if err != nil {
				continue
			}
			total = total.Add(amt)
			deposits++
		}
	}

	if total.IsPositive() {
		rec.Set(fields.NetPay, total)
		log.WithFields(log.Fields{
			"deposits": deposits,
			"net_pay":  total.StringFixed(2),
		}).Debug("net pay resolved from checking deposits")
	}
}
