package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Period selects the statements covered by a reconciliation: either a
// whole calendar year or a single month. Month 0 means the whole year.
type Period struct {
	Year  int
	Month int
}

// ParsePeriod parses "YYYY" or "MM-YYYY".
func ParsePeriod(s string) (Period, error) {
	if strings.Contains(s, "-") {
		parts := strings.SplitN(s, "-", 2)
		month, err := strconv.Atoi(parts[0])
		if err != nil {
			return Period{}, fmt.Errorf("invalid month in period %q: %w", s, err)
		}
		year, err := strconv.Atoi(parts[1])
		if err != nil {
			return Period{}, fmt.Errorf("invalid year in period %q: %w", s, err)
		}
		if month < 1 || month > 12 {
			return Period{}, fmt.Errorf("invalid month in period %q: must be between 1 and 12", s)
		}
		return Period{Year: year, Month: month}, nil
	}

	year, err := strconv.Atoi(s)
	if err != nil {
		return Period{}, fmt.Errorf("invalid period %q: expected YYYY or MM-YYYY: %w", s, err)
	}
	return Period{Year: year}, nil
}

// WholeYear reports whether the period covers the full year.
func (p Period) WholeYear() bool {
	return p.Month == 0
}

func (p Period) String() string {
	if p.WholeYear() {
		return strconv.Itoa(p.Year)
	}
	return fmt.Sprintf("%02d-%d", p.Month, p.Year)
}
