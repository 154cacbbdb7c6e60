package model

// FieldCategory groups payslip fields by the role they play in the net
// pay arithmetic.
type FieldCategory string

const (
	CategoryEarning   FieldCategory = "earning"
	CategoryTax       FieldCategory = "tax"
	CategoryDeduction FieldCategory = "deduction"
	CategoryOffset    FieldCategory = "offset"
	CategorySummary   FieldCategory = "summary"
)

// Field describes one canonical monetary field of a payslip record.
// Name is the map key, database column, and export header; Label is the
// display form used in reports.
type Field struct {
	Name     string
	Label    string
	Category FieldCategory
}
