package model

// Variant classifies a payslip by its earnings structure. The variant
// decides which extraction rules apply and which validation formula the
// record must satisfy.
type Variant string

const (
	VariantRegular  Variant = "regular"
	VariantBonus    Variant = "bonus"
	VariantVacation Variant = "vacation"
)
