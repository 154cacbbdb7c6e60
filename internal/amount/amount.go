// Package amount converts the space-tokenized numbers found in payslip
// text into decimal values. Layout-preserving PDF extraction renders
// "1,218.00" as "1 218 00", so the digit groups have to be reassembled
// before they can be parsed.
package amount

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseError reports a token that could not be converted to an amount.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing amount %q: %v", e.Raw, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Normalize rewrites a space-tokenized number into decimal notation.
// When the token splits into two or more all-digit groups, the last
// group is the cents: "1 218 00" becomes "1218.00" and "221 16"
// becomes "221.16". Any other token is returned with spaces removed.
func Normalize(raw string) string {
	parts := strings.Fields(raw)
	if len(parts) >= 2 && allDigits(parts) {
		return strings.Join(parts[:len(parts)-1], "") + "." + parts[len(parts)-1]
	}
	return strings.ReplaceAll(raw, " ", "")
}

// Parse normalizes a token and converts it to a decimal.
func Parse(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(Normalize(raw))
	if err != nil {
		return decimal.Zero, &ParseError{Raw: raw, Err: err}
	}
	return d, nil
}

// FromDigits interprets a digit run (spaces ignored) as an amount whose
// last two digits are the cents: "221 16" becomes 221.16 and "2 585 90"
// becomes 2585.90. The run must be at least three digits long.
func FromDigits(raw string) (decimal.Decimal, error) {
	digits := strings.ReplaceAll(raw, " ", "")
	if len(digits) < 3 {
		return decimal.Zero, &ParseError{Raw: raw, Err: fmt.Errorf("need at least three digits, got %d", len(digits))}
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return decimal.Zero, &ParseError{Raw: raw, Err: fmt.Errorf("unexpected character %q", r)}
		}
	}
	d, err := decimal.NewFromString(digits[:len(digits)-2] + "." + digits[len(digits)-2:])
	if err != nil {
		return decimal.Zero, &ParseError{Raw: raw, Err: err}
	}
	return d, nil
}

func allDigits(parts []string) bool {
	for _, p := range parts {
		if p == "" {
			return false
		}
		for _, r := range p {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}
