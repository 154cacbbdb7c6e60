package fields

import "github.com/chakri-sirigiri/go-statements-parser/internal/model"

// Canonical field names. These are the map keys on a TransactionRecord,
// the database column names, and the export column headers.
const (
	RegularPay        = "regular_pay"
	Bonus             = "bonus"
	OtherIncome       = "other_income"
	GrossPay          = "gross_pay"
	FederalIncomeTax  = "federal_income_tax"
	SocialSecurityTax = "social_security_tax"
	MedicareTax       = "medicare_tax"
	StateIncomeTax    = "state_income_tax"
	LocalIncomeTax    = "local_income_tax"
	HSAPlan           = "hsa_plan"
	IllnessPlan       = "illness_plan"
	Legal             = "legal"
	LifeInsurance     = "life_insurance"
	PretaxDental      = "pretax_dental"
	PretaxMedical     = "pretax_medical"
	PretaxVision      = "pretax_vision"
	DepCare           = "dep_care"
	VolAcc4020        = "vol_acc_40_20"
	VolChildLife      = "vol_child_life"
	VolSpousalLife    = "vol_spousal_life"
	K401Pretax        = "k401_pretax"
	ESPP              = "espp"
	K401LoanGP1       = "k401_loan_gp1"
	TaxableOff        = "taxable_off"
	NetPay            = "net_pay"
)

// all lists every field in storage column order.
var all = []model.Field{
	{Name: RegularPay, Label: "Regular Pay", Category: model.CategoryEarning},
	{Name: Bonus, Label: "Bonus", Category: model.CategoryEarning},
	{Name: OtherIncome, Label: "Other Income", Category: model.CategoryEarning},
	{Name: GrossPay, Label: "Gross Pay", Category: model.CategorySummary},
	{Name: FederalIncomeTax, Label: "Federal Income Tax", Category: model.CategoryTax},
	{Name: SocialSecurityTax, Label: "Social Security Tax", Category: model.CategoryTax},
	{Name: MedicareTax, Label: "Medicare Tax", Category: model.CategoryTax},
	{Name: StateIncomeTax, Label: "State Income Tax", Category: model.CategoryTax},
	{Name: LocalIncomeTax, Label: "Local Income Tax", Category: model.CategoryTax},
	{Name: HSAPlan, Label: "HSA Plan", Category: model.CategoryDeduction},
	{Name: IllnessPlan, Label: "Illness Plan", Category: model.CategoryDeduction},
	{Name: Legal, Label: "Legal", Category: model.CategoryDeduction},
	{Name: LifeInsurance, Label: "Life Insurance", Category: model.CategoryDeduction},
	{Name: PretaxDental, Label: "Pretax Dental", Category: model.CategoryDeduction},
	{Name: PretaxMedical, Label: "Pretax Medical", Category: model.CategoryDeduction},
	{Name: PretaxVision, Label: "Pretax Vision", Category: model.CategoryDeduction},
	{Name: DepCare, Label: "Dep Care", Category: model.CategoryDeduction},
	{Name: VolAcc4020, Label: "Vol Acc 40/20/20/10", Category: model.CategoryDeduction},
	{Name: VolChildLife, Label: "Vol Child Life", Category: model.CategoryDeduction},
	{Name: VolSpousalLife, Label: "Vol Spousal Life", Category: model.CategoryDeduction},
	{Name: K401Pretax, Label: "401K Pretax", Category: model.CategoryDeduction},
	{Name: ESPP, Label: "ESPP", Category: model.CategoryDeduction},
	{Name: K401LoanGP1, Label: "401K Loan Gp1", Category: model.CategoryDeduction},
	{Name: TaxableOff, Label: "Taxable Off", Category: model.CategoryOffset},
	{Name: NetPay, Label: "Net Pay", Category: model.CategorySummary},
}

var byName = func() map[string]model.Field {
	m := make(map[string]model.Field, len(all))
	for _, f := range all {
		m[f.Name] = f
	}
	return m
}()

// All returns every field in storage column order.
func All() []model.Field {
	return all
}

// Names returns every field name in storage column order.
func Names() []string {
	names := make([]string, len(all))
	for i, f := range all {
		names[i] = f.Name
	}
	return names
}

// ByName returns a field by its canonical name.
func ByName(name string) (model.Field, bool) {
	f, ok := byName[name]
	return f, ok
}

// Taxes returns the statutory tax field names in column order.
func Taxes() []string {
	return byCategory(model.CategoryTax)
}

// Deductions returns the non-statutory deduction field names in column
// order. The taxable offset is not included.
func Deductions() []string {
	return byCategory(model.CategoryDeduction)
}

// Earnings returns the earning field names in column order.
func Earnings() []string {
	return byCategory(model.CategoryEarning)
}

func byCategory(c model.FieldCategory) []string {
	var names []string
	for _, f := range all {
		if f.Category == c {
			names = append(names, f.Name)
		}
	}
	return names
}
