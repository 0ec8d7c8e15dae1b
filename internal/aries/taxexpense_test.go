package aries

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/aries-import/internal/model"
)

func TestTax_AdValoremToLife(t *testing.T) {
	ctx := testContext()
	x := NewTaxExpenseExtractor(ctx)

	res := x.Extract([]model.EconomicRecord{
		rec(model.SectionTax, "ATX", "3 X % TO LIFE"),
	})
	require.NotNil(t, res.Taxes)
	rows := res.Taxes.AdValoremTax.Rows
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].PctOfRevenue)
	assert.Equal(t, 3.0, *rows[0].PctOfRevenue)
	assert.Equal(t, "2020-01-01", rows[0].Dates.StartDate)
	assert.Equal(t, model.EconLimit, rows[0].Dates.EndDate)
	// Plain ATX keeps the default NRI basis.
	assert.Equal(t, model.CalcNRI, res.Taxes.AdValoremTax.Calculation)
}

func TestTax_AdValoremSlashTUsesWICalculation(t *testing.T) {
	ctx := testContext()
	x := NewTaxExpenseExtractor(ctx)

	res := x.Extract([]model.EconomicRecord{
		rec(model.SectionTax, "ATX/T", "3 X % TO LIFE"),
	})
	require.NotNil(t, res.Taxes)
	assert.Equal(t, model.CalcWI, res.Taxes.AdValoremTax.Calculation)
}

func TestTax_BareSTXWritesBothPhases(t *testing.T) {
	ctx := testContext()
	x := NewTaxExpenseExtractor(ctx)

	res := x.Extract([]model.EconomicRecord{
		rec(model.SectionTax, "STX", "4.6 X % TO LIFE"),
	})
	require.NotNil(t, res.Taxes)
	require.Len(t, res.Taxes.SeveranceTax.Oil.Rows, 1)
	require.Len(t, res.Taxes.SeveranceTax.Gas.Rows, 1)
	assert.Equal(t, 4.6, *res.Taxes.SeveranceTax.Oil.Rows[0].PctOfRevenue)
}

func TestTax_SeveranceDollarUnitIsPhaseSpecific(t *testing.T) {
	ctx := testContext()
	x := NewTaxExpenseExtractor(ctx)

	res := x.Extract([]model.EconomicRecord{
		rec(model.SectionTax, "STX/GAS", "0.07 X $/M TO LIFE"),
		rec(model.SectionTax, "STX/OIL", "0.50 X $/M TO LIFE"),
	})
	require.NotNil(t, res.Taxes)
	gas := res.Taxes.SeveranceTax.Gas.Rows
	oil := res.Taxes.SeveranceTax.Oil.Rows
	require.Len(t, gas, 1)
	require.Len(t, oil, 1)
	require.NotNil(t, gas[0].DollarPerMcf)
	assert.Equal(t, 0.07, *gas[0].DollarPerMcf)
	require.NotNil(t, oil[0].DollarPerBbl)
	assert.Equal(t, 0.50, *oil[0].DollarPerBbl)
}

func TestExpense_VariableKeywordRouting(t *testing.T) {
	ctx := testContext()
	x := NewTaxExpenseExtractor(ctx)

	res := x.Extract([]model.EconomicRecord{
		rec(model.SectionTax, "GTC/GAS", "0.35 X $/M TO LIFE"),
		rec(model.SectionTax, "OPC/OIL", "4.25 X $/B TO LIFE"),
	})
	require.NotNil(t, res.Expenses)
	gath := res.Expenses.VariableExpenses.Gas.Gathering.Rows
	require.Len(t, gath, 1)
	require.NotNil(t, gath[0].DollarPerMcf)
	assert.Equal(t, 0.35, *gath[0].DollarPerMcf)

	other := res.Expenses.VariableExpenses.Oil.Other.Rows
	require.Len(t, other, 1)
	require.NotNil(t, other[0].DollarPerBbl)
	assert.Equal(t, 4.25, *other[0].DollarPerBbl)
}

func TestExpense_RateCutoffStoresThreshold(t *testing.T) {
	ctx := testContext()
	x := NewTaxExpenseExtractor(ctx)

	res := x.Extract([]model.EconomicRecord{
		rec(model.SectionTax, "OPC/OIL", "4.25 X $/B 10 BBL/D"),
	})
	rows := res.Expenses.VariableExpenses.Oil.Other.Rows
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].OilRate)
	assert.Equal(t, 10.0, rows[0].OilRate.Start)
	assert.Nil(t, rows[0].Dates)
}

func TestExpense_FixedSlotsClaimedInOrder(t *testing.T) {
	ctx := testContext()
	x := NewTaxExpenseExtractor(ctx)

	res := x.Extract([]model.EconomicRecord{
		rec(model.SectionTax, "OPC/T", "1500 X $/M TO LIFE"),
		rec(model.SectionTax, "OH/T", "800 X $/M TO LIFE"),
		rec(model.SectionTax, "OPC/T", "X X $/M TO LIFE"),
	})
	require.NotNil(t, res.Expenses)
	require.Len(t, res.Expenses.FixedExpenses, 2)
	assert.Equal(t, "monthly_well_cost", res.Expenses.FixedExpenses[0].Slot)
	assert.Equal(t, "OPC/T", res.Expenses.FixedExpenses[0].Description)
	assert.Equal(t, "other_monthly_cost_1", res.Expenses.FixedExpenses[1].Slot)
	// The repeated keyword reuses its claimed slot.
	require.NotNil(t, res.Expenses.FixedExpenses[0].Rows[0].FixedExpense)
	assert.Equal(t, 1500.0, *res.Expenses.FixedExpenses[0].Rows[0].FixedExpense)
}

func TestExpense_PerWellUnitFromWellCounts(t *testing.T) {
	ctx := testContext()
	ctx.WellCountByPhase = map[string]int{model.PhaseOil: 4}
	x := NewTaxExpenseExtractor(ctx)

	res := x.Extract([]model.EconomicRecord{
		rec(model.SectionTax, "OPC/T", "1500 X $/M TO LIFE"),
	})
	rows := res.Expenses.FixedExpenses[0].Rows
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].FixedExpense)
	require.NotNil(t, rows[0].FixedExpensePerWell)
	assert.Equal(t, 1500.0, *rows[0].FixedExpensePerWell)
}

func TestExpense_WaterKeywordRoutesToDisposal(t *testing.T) {
	ctx := testContext()
	x := NewTaxExpenseExtractor(ctx)

	res := x.Extract([]model.EconomicRecord{
		rec(model.SectionTax, "WTR", "1.20 X $/B TO LIFE"),
	})
	require.NotNil(t, res.Expenses)
	rows := res.Expenses.WaterDisposal.Rows
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].DollarPerBbl)
	assert.Equal(t, 1.20, *rows[0].DollarPerBbl)
}

func TestTaxExpense_NoRowsYieldsNilDocuments(t *testing.T) {
	ctx := testContext()
	x := NewTaxExpenseExtractor(ctx)
	res := x.Extract(nil)
	assert.Nil(t, res.Taxes)
	assert.Nil(t, res.Expenses)
}

func TestTax_AdValoremListMethodUsesMonthlyDollars(t *testing.T) {
	ctx := testContext()
	x := NewTaxExpenseExtractor(ctx)

	res := x.Extract([]model.EconomicRecord{
		rec(model.SectionTax, "ATX", "100 2*150 #"),
	})
	rows := res.Taxes.AdValoremTax.Rows
	require.Len(t, rows, 2)
	// The two identical trailing years collapse into one row.
	require.NotNil(t, rows[0].DollarPerMonth)
	assert.Equal(t, 100.0, *rows[0].DollarPerMonth)
	assert.Equal(t, 150.0, *rows[1].DollarPerMonth)
	assert.Equal(t, "2021-01-01", rows[1].Dates.StartDate)
	assert.Equal(t, "2022-12-31", rows[1].Dates.EndDate)
}

func TestTax_OverlayRowMergesByIntersection(t *testing.T) {
	ctx := testContext()
	x := NewTaxExpenseExtractor(ctx)

	over := rec(model.SectionTax, "STX/GAS", "2.5 X % TO LIFE")
	over.Sequence = model.SequenceOverlay

	res := x.Extract([]model.EconomicRecord{
		rec(model.SectionTax, "STX/GAS", "5 X % TO LIFE"),
		over,
	})
	rows := res.Taxes.SeveranceTax.Gas.Rows
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].PctOfRevenue)
	assert.Equal(t, 2.5, *rows[0].PctOfRevenue)
}

func TestTax_OverlayWithoutBaseAppends(t *testing.T) {
	ctx := testContext()
	x := NewTaxExpenseExtractor(ctx)

	over := rec(model.SectionTax, "ATX", "1.5 X % TO LIFE")
	over.Sequence = model.SequenceOverlay

	res := x.Extract([]model.EconomicRecord{over})
	require.NotNil(t, res.Taxes)
	rows := res.Taxes.AdValoremTax.Rows
	require.Len(t, rows, 1)
	assert.Equal(t, 1.5, *rows[0].PctOfRevenue)
}

func TestTax_AdValoremOverlayKeepsDollarPerMonthUnit(t *testing.T) {
	ctx := testContext()
	x := NewTaxExpenseExtractor(ctx)

	// $/M on an ad valorem row is dollars per month, not a per-barrel
	// rate, and the overlay merge must preserve that.
	over := rec(model.SectionTax, "ATX", "500 X $/M 2 YRS")
	over.Sequence = model.SequenceOverlay

	res := x.Extract([]model.EconomicRecord{
		rec(model.SectionTax, "ATX", "3 X % 2 YRS"),
		over,
	})
	rows := res.Taxes.AdValoremTax.Rows
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].PctOfRevenue)
	assert.Nil(t, rows[0].DollarPerBbl)
	require.NotNil(t, rows[0].DollarPerMonth)
	assert.Equal(t, 500.0, *rows[0].DollarPerMonth)
}

func TestTax_STXShimRewritesUnitFamily(t *testing.T) {
	ctx := testContext()
	x := NewTaxExpenseExtractor(ctx)

	// Base row is percent-based; the overlay for the same phase speaks
	// dollars, so the shim moves the merged value to the dollar field.
	over := rec(model.SectionTax, "STX/GAS", "0.08 X $/M 2 YRS")
	over.Sequence = model.SequenceOverlay

	res := x.Extract([]model.EconomicRecord{
		rec(model.SectionTax, "STX/GAS", "5 X % TO LIFE"),
		over,
	})
	rows := res.Taxes.SeveranceTax.Gas.Rows
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].PctOfRevenue)
	require.NotNil(t, rows[0].DollarPerMcf)
	assert.Equal(t, 0.08, *rows[0].DollarPerMcf)
}

func TestExpense_AdjacentIdenticalRowsCombine(t *testing.T) {
	ctx := testContext()
	x := NewTaxExpenseExtractor(ctx)

	res := x.Extract([]model.EconomicRecord{
		rec(model.SectionTax, "OPC/OIL", "4.25 X $/B 1 YR"),
		rec(model.SectionTax, "OPC/OIL", "4.25 X $/B 2 YRS"),
		rec(model.SectionTax, "OPC/OIL", "5.00 X $/B TO LIFE"),
	})
	rows := res.Expenses.VariableExpenses.Oil.Other.Rows
	require.Len(t, rows, 2)
	assert.Equal(t, "2020-01-01", rows[0].Dates.StartDate)
	assert.Equal(t, "2021-12-31", rows[0].Dates.EndDate)
	assert.Equal(t, 5.0, *rows[1].DollarPerBbl)
}

func TestExpense_DatesConvertToFPDOffsets(t *testing.T) {
	ctx := testContext()
	fpd := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	ctx.FPD = &fpd
	x := NewTaxExpenseExtractor(ctx)

	res := x.Extract([]model.EconomicRecord{
		rec(model.SectionTax, "OPC/OIL", "4.25 X $/B 1 YR"),
		rec(model.SectionTax, "OPC/OIL", "5.00 X $/B TO LIFE"),
	})
	rows := res.Expenses.VariableExpenses.Oil.Other.Rows
	require.Len(t, rows, 2)
	require.NotNil(t, rows[0].OffsetToFPD)
	assert.Equal(t, 1, rows[0].OffsetToFPD.Start)
	assert.Equal(t, 12, rows[0].OffsetToFPD.End)
	assert.Equal(t, 12, rows[0].OffsetToFPD.Period)
	// Open-ended tail stays calendar-based.
	require.NotNil(t, rows[1].Dates)
	assert.Equal(t, model.EconLimit, rows[1].Dates.EndDate)
}
