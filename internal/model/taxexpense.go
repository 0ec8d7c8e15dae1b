package model

// Calculation bases shared by taxes and expenses.
const (
	CalcWI         = "wi"
	CalcNRI        = "nri"
	CalcOneMinusWI = "one_minus_wi"
	CalcGross      = "gross"
	CalcNet        = "net"
)

// TaxRow is one dated tax segment with a unit-keyed value.
type TaxRow struct {
	Schedule
	PctOfRevenue    *float64 `json:"pct_of_revenue,omitempty"`
	DollarPerMonth  *float64 `json:"dollar_per_month,omitempty"`
	DollarPerBbl    *float64 `json:"dollar_per_bbl,omitempty"`
	DollarPerMcf    *float64 `json:"dollar_per_mcf,omitempty"`
	DollarPerBoe    *float64 `json:"dollar_per_boe,omitempty"`
	Cap             string   `json:"cap,omitempty"`
	EscalationModel string   `json:"escalation_model"`
}

// Value returns whichever unit-keyed value is set, with its field name.
func (r *TaxRow) Value() (string, *float64) {
	switch {
	case r.PctOfRevenue != nil:
		return "pct_of_revenue", r.PctOfRevenue
	case r.DollarPerMonth != nil:
		return "dollar_per_month", r.DollarPerMonth
	case r.DollarPerBbl != nil:
		return "dollar_per_bbl", r.DollarPerBbl
	case r.DollarPerMcf != nil:
		return "dollar_per_mcf", r.DollarPerMcf
	case r.DollarPerBoe != nil:
		return "dollar_per_boe", r.DollarPerBoe
	}
	return "", nil
}

// AdValoremTax holds the ad valorem rows plus its calculation flags.
type AdValoremTax struct {
	DeductSeveranceTax string   `json:"deduct_severance_tax"`
	Calculation        string   `json:"calculation"`
	Rows               []TaxRow `json:"rows"`
}

// SeverancePhaseTax is one phase's severance rows.
type SeverancePhaseTax struct {
	Rows []TaxRow `json:"rows"`
}

// SeveranceTax groups severance rows by phase.
type SeveranceTax struct {
	Calculation    string            `json:"calculation"`
	Oil            SeverancePhaseTax `json:"oil"`
	Gas            SeverancePhaseTax `json:"gas"`
	NGL            SeverancePhaseTax `json:"ngl"`
	DripCondensate SeverancePhaseTax `json:"drip_condensate"`
}

// Phase returns the addressable severance rows for a phase.
func (t *SeveranceTax) Phase(phase string) *SeverancePhaseTax {
	switch phase {
	case PhaseOil:
		return &t.Oil
	case PhaseGas:
		return &t.Gas
	case PhaseNGL:
		return &t.NGL
	case PhaseDripCondensate:
		return &t.DripCondensate
	}
	return nil
}

// ProductionTaxesDocument holds both tax families for a well.
type ProductionTaxesDocument struct {
	DocumentMeta
	AdValoremTax AdValoremTax `json:"ad_valorem_tax"`
	SeveranceTax SeveranceTax `json:"severance_tax"`
}

func (d *ProductionTaxesDocument) Meta() *DocumentMeta { return &d.DocumentMeta }
func (d *ProductionTaxesDocument) Kind() string        { return KindProductionTaxes }

// ExpenseRow is one dated expense segment with a unit-keyed value.
type ExpenseRow struct {
	Schedule
	DollarPerBbl        *float64 `json:"dollar_per_bbl,omitempty"`
	DollarPerMcf        *float64 `json:"dollar_per_mcf,omitempty"`
	DollarPerMMBtu      *float64 `json:"dollar_per_mmbtu,omitempty"`
	PctOfRevenue        *float64 `json:"pct_of_revenue,omitempty"`
	FixedExpense        *float64 `json:"fixed_expense,omitempty"`
	FixedExpensePerWell *float64 `json:"fixed_expense_per_well,omitempty"`
	Cap                 string   `json:"cap,omitempty"`
	EscalationModel     string   `json:"escalation_model"`
}

// Value returns whichever unit-keyed value is set, with its field name.
func (r *ExpenseRow) Value() (string, *float64) {
	switch {
	case r.DollarPerBbl != nil:
		return "dollar_per_bbl", r.DollarPerBbl
	case r.DollarPerMcf != nil:
		return "dollar_per_mcf", r.DollarPerMcf
	case r.DollarPerMMBtu != nil:
		return "dollar_per_mmbtu", r.DollarPerMMBtu
	case r.PctOfRevenue != nil:
		return "pct_of_revenue", r.PctOfRevenue
	case r.FixedExpense != nil:
		return "fixed_expense", r.FixedExpense
	case r.FixedExpensePerWell != nil:
		return "fixed_expense_per_well", r.FixedExpensePerWell
	}
	return "", nil
}

// Variable expense categories.
const (
	ExpenseGathering      = "gathering"
	ExpenseProcessing     = "processing"
	ExpenseTransportation = "transportation"
	ExpenseMarketing      = "marketing"
	ExpenseOther          = "other"
)

// ExpenseCategory is one variable-expense bucket within a phase.
type ExpenseCategory struct {
	Description        string       `json:"description,omitempty"`
	ShrinkageCondition string       `json:"shrinkage_condition,omitempty"`
	Calculation        string       `json:"calculation"`
	DeductBeforeSevTax string       `json:"deduct_before_severance_tax"`
	DealTerms          float64      `json:"deal_terms"`
	Rows               []ExpenseRow `json:"rows"`
}

// PhaseVariableExpense groups a phase's variable-expense categories.
type PhaseVariableExpense struct {
	Gathering      ExpenseCategory `json:"gathering"`
	Processing     ExpenseCategory `json:"processing"`
	Transportation ExpenseCategory `json:"transportation"`
	Marketing      ExpenseCategory `json:"marketing"`
	Other          ExpenseCategory `json:"other"`
}

// Category returns the addressable bucket for a category name.
func (p *PhaseVariableExpense) Category(name string) *ExpenseCategory {
	switch name {
	case ExpenseGathering:
		return &p.Gathering
	case ExpenseProcessing:
		return &p.Processing
	case ExpenseTransportation:
		return &p.Transportation
	case ExpenseMarketing:
		return &p.Marketing
	case ExpenseOther:
		return &p.Other
	}
	return nil
}

// VariableExpenses groups variable expenses by phase.
type VariableExpenses struct {
	Oil            PhaseVariableExpense `json:"oil"`
	Gas            PhaseVariableExpense `json:"gas"`
	NGL            PhaseVariableExpense `json:"ngl"`
	DripCondensate PhaseVariableExpense `json:"drip_condensate"`
}

// Phase returns the addressable variable-expense group for a phase.
func (v *VariableExpenses) Phase(phase string) *PhaseVariableExpense {
	switch phase {
	case PhaseOil:
		return &v.Oil
	case PhaseGas:
		return &v.Gas
	case PhaseNGL:
		return &v.NGL
	case PhaseDripCondensate:
		return &v.DripCondensate
	}
	return nil
}

// FixedExpenseSlot is one of the generic fixed-cost positions. Slot names
// are claimed first-come-first-served by original keywords.
type FixedExpenseSlot struct {
	Slot        string       `json:"slot"`
	Description string       `json:"description,omitempty"`
	DealTerms   float64      `json:"deal_terms"`
	Rows        []ExpenseRow `json:"rows"`
}

// WaterDisposal holds water-phase disposal costs.
type WaterDisposal struct {
	Calculation string       `json:"calculation"`
	DealTerms   float64      `json:"deal_terms"`
	Rows        []ExpenseRow `json:"rows"`
}

// ExpensesDocument holds every expense family for a well.
type ExpensesDocument struct {
	DocumentMeta
	VariableExpenses VariableExpenses   `json:"variable_expenses"`
	FixedExpenses    []FixedExpenseSlot `json:"fixed_expenses"`
	WaterDisposal    WaterDisposal      `json:"water_disposal"`
}

func (d *ExpensesDocument) Meta() *DocumentMeta { return &d.DocumentMeta }
func (d *ExpensesDocument) Kind() string        { return KindExpenses }

// FixedSlot returns the slot claimed under name, or nil.
func (d *ExpensesDocument) FixedSlot(name string) *FixedExpenseSlot {
	for i := range d.FixedExpenses {
		if d.FixedExpenses[i].Slot == name {
			return &d.FixedExpenses[i]
		}
	}
	return nil
}
