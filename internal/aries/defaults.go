package aries

import (
	"github.com/sells-group/aries-import/internal/model"
)

// Fixed-expense slot names, claimed first-come-first-served by original
// keywords. monthly_well_cost goes first; the generic slots absorb the
// rest until full.
var fixedExpenseSlots = []string{
	"monthly_well_cost",
	"other_monthly_cost_1",
	"other_monthly_cost_2",
	"other_monthly_cost_3",
	"other_monthly_cost_4",
	"other_monthly_cost_5",
	"other_monthly_cost_6",
	"other_monthly_cost_7",
	"other_monthly_cost_8",
}

// DefaultCapexRow is the template every capex-bearing keyword starts from.
func DefaultCapexRow(date string) model.CapexRow {
	return model.CapexRow{
		Category:        model.CapexOtherInvestment,
		Date:            date,
		Tangible:        0,
		Intangible:      0,
		AfterEconLimit:  "no",
		Calculation:     model.CalcGross,
		DealTerms:       1,
		EscalationModel: EscalationNone,
	}
}

// DefaultCapex returns a fresh capex document shell.
func DefaultCapex() *model.CapexDocument {
	return &model.CapexDocument{DocumentMeta: model.NewMeta(model.KindCapex)}
}

// DefaultOwnership returns a fresh ownership document shell.
func DefaultOwnership() *model.OwnershipDocument {
	d := &model.OwnershipDocument{DocumentMeta: model.NewMeta(model.KindOwnership)}
	d.Ownership.Initial.IncludeNetProfitInterest = "yes"
	return d
}

// DefaultPricing returns a fresh pricing document shell.
func DefaultPricing() *model.PricingDocument {
	return &model.PricingDocument{DocumentMeta: model.NewMeta(model.KindPricing)}
}

// DefaultDifferentials returns a fresh differentials document shell.
func DefaultDifferentials() *model.DifferentialsDocument {
	return &model.DifferentialsDocument{DocumentMeta: model.NewMeta(model.KindDifferentials)}
}

// DefaultProductionTaxes returns a fresh production-taxes document with
// the legacy default flags.
func DefaultProductionTaxes() *model.ProductionTaxesDocument {
	d := &model.ProductionTaxesDocument{DocumentMeta: model.NewMeta(model.KindProductionTaxes)}
	d.AdValoremTax.DeductSeveranceTax = "no"
	d.AdValoremTax.Calculation = model.CalcNRI
	d.SeveranceTax.Calculation = model.CalcNRI
	return d
}

// DefaultExpenses returns a fresh expenses document with the legacy
// default bases on every bucket.
func DefaultExpenses() *model.ExpensesDocument {
	d := &model.ExpensesDocument{DocumentMeta: model.NewMeta(model.KindExpenses)}
	for _, phase := range []string{model.PhaseOil, model.PhaseGas, model.PhaseNGL, model.PhaseDripCondensate} {
		p := d.VariableExpenses.Phase(phase)
		for _, cat := range []string{model.ExpenseGathering, model.ExpenseProcessing, model.ExpenseTransportation, model.ExpenseMarketing, model.ExpenseOther} {
			c := p.Category(cat)
			c.Calculation = model.CalcWI
			c.DeductBeforeSevTax = "no"
			c.DealTerms = 1
			c.ShrinkageCondition = model.GasUnshrunk
		}
	}
	d.WaterDisposal.Calculation = model.CalcWI
	d.WaterDisposal.DealTerms = 1
	return d
}

// DefaultRisking returns a fresh risking document shell.
func DefaultRisking() *model.RiskingDocument {
	return &model.RiskingDocument{DocumentMeta: model.NewMeta(model.KindRisking)}
}

// DefaultStreamProperties returns a fresh stream-properties document with
// pass-through shrinkage and BTU content.
func DefaultStreamProperties() *model.StreamPropertiesDocument {
	d := &model.StreamPropertiesDocument{DocumentMeta: model.NewMeta(model.KindStreamProperties)}
	d.BTUContent.UnshrunkGas = 1.0
	d.BTUContent.ShrunkGas = 1.0
	return d
}
