// Package statement defines the organized statement filename scheme:
// YYYY-MM-DD-<type>.pdf, sortable by date and self-describing. Plain
// .txt statements (pre-extracted text) follow the same scheme with
// their own extension.
package statement

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const dateFormat = "2006-01-02"

var extensions = []string{".pdf", ".txt"}

// Statement types encoded in organized filenames.
const (
	TypeRegular  = "regular"
	TypeBonus    = "bonus"
	TypeVacation = "vacation"
	TypeYearEnd  = "ye-summary"
)

// Format returns the organized filename for a statement date and type.
func Format(date time.Time, typ string) string {
	return date.Format(dateFormat) + "-" + typ + ".pdf"
}

// Canonical returns the organized filename for a statement, keeping a
// .txt source extension so text fixtures travel the same pipeline.
func Canonical(date time.Time, typ, sourceName string) string {
	name := Format(date, typ)
	if strings.EqualFold(filepath.Ext(sourceName), ".txt") {
		name = strings.TrimSuffix(name, ".pdf") + ".txt"
	}
	return name
}

// Parse splits an organized filename into statement date and type.
func Parse(name string) (time.Time, string, error) {
	base := name
	ok := false
	for _, ext := range extensions {
		if base, ok = strings.CutSuffix(name, ext); ok {
			break
		}
	}
	if !ok {
		return time.Time{}, "", fmt.Errorf("invalid statement filename %q: want a .pdf or .txt statement", name)
	}
	if len(base) < len(dateFormat)+2 || base[len(dateFormat)] != '-' {
		return time.Time{}, "", fmt.Errorf("invalid statement filename %q: want YYYY-MM-DD-<type>.pdf", name)
	}
	date, err := time.Parse(dateFormat, base[:len(dateFormat)])
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid statement filename %q: %w", name, err)
	}
	return date, base[len(dateFormat)+1:], nil
}

// TypeFromSource classifies a raw download filename by its markers:
// "bonus" and "vacation" name the paycheck variant, "ytd" marks a
// year-end summary, anything else is a regular statement. Already
// organized names keep their type, so organizing twice is harmless.
func TypeFromSource(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "bonus"):
		return TypeBonus
	case strings.Contains(lower, "vacation"):
		return TypeVacation
	case strings.Contains(lower, "ytd"), strings.Contains(lower, TypeYearEnd):
		return TypeYearEnd
	default:
		return TypeRegular
	}
}

// IsYearEnd reports whether an organized filename is a year-end summary.
// Year-end summaries carry YTD totals only and are never extracted.
func IsYearEnd(name string) bool {
	_, typ, err := Parse(name)
	return err == nil && typ == TypeYearEnd
}

// SortNames orders organized filenames chronologically in place, ties
// broken by name. Names that do not parse sort last.
func SortNames(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		di, dj := dateOrMax(names[i]), dateOrMax(names[j])
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return names[i] < names[j]
	})
}

func dateOrMax(name string) time.Time {
	date, _, err := Parse(name)
	if err != nil {
		return time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)
	}
	return date
}
