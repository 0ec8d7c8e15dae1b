package aries

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/aries-import/internal/model"
)

func pricingDocWithPrice(v float64) *model.PricingDocument {
	d := DefaultPricing()
	row := model.PriceRow{Price: model.F64(v), EscalationModel: EscalationNone}
	row.Dates = &model.DateRange{StartDate: "2020-01-01", EndDate: model.EconLimit}
	d.PriceModel.Oil.Rows = append(d.PriceModel.Oil.Rows, row)
	return d
}

func TestCompareAndSave_SharesEqualContent(t *testing.T) {
	var list DocumentList[*model.PricingDocument]
	w1 := model.WellKey{ScenarioID: "S1", WellID: "W1"}
	w2 := model.WellKey{ScenarioID: "S1", WellID: "W2"}

	a := pricingDocWithPrice(45)
	b := pricingDocWithPrice(45)

	got1, err := list.CompareAndSave(a, w1)
	require.NoError(t, err)
	got2, err := list.CompareAndSave(b, w2)
	require.NoError(t, err)

	assert.Equal(t, 1, list.Len())
	assert.Same(t, got1, got2)
	assert.True(t, got1.Wells.Has(w1))
	assert.True(t, got1.Wells.Has(w2))
}

func TestCompareAndSave_DistinctContentStaysSeparate(t *testing.T) {
	var list DocumentList[*model.PricingDocument]
	w1 := model.WellKey{ScenarioID: "S1", WellID: "W1"}
	w2 := model.WellKey{ScenarioID: "S1", WellID: "W2"}

	_, err := list.CompareAndSave(pricingDocWithPrice(45), w1)
	require.NoError(t, err)
	_, err = list.CompareAndSave(pricingDocWithPrice(50), w2)
	require.NoError(t, err)

	assert.Equal(t, 2, list.Len())
}

func TestCompareAndSave_SameWellTwiceIsIdempotent(t *testing.T) {
	var list DocumentList[*model.PricingDocument]
	w := model.WellKey{ScenarioID: "S1", WellID: "W1"}

	got1, err := list.CompareAndSave(pricingDocWithPrice(45), w)
	require.NoError(t, err)
	got2, err := list.CompareAndSave(pricingDocWithPrice(45), w)
	require.NoError(t, err)

	assert.Same(t, got1, got2)
	assert.Equal(t, 1, list.Len())
	assert.Len(t, got1.Wells.SortedList(), 1)
}

func TestCompareAndSave_IgnoresIdentityFields(t *testing.T) {
	var list DocumentList[*model.PricingDocument]
	a := pricingDocWithPrice(45)
	b := pricingDocWithPrice(45)
	b.Name = "SCEN1 pricing"

	_, err := list.CompareAndSave(a, model.WellKey{ScenarioID: "S1", WellID: "W1"})
	require.NoError(t, err)
	_, err = list.CompareAndSave(b, model.WellKey{ScenarioID: "S1", WellID: "W2"})
	require.NoError(t, err)

	assert.Equal(t, 1, list.Len())
}

func TestDetachAndFindByWell(t *testing.T) {
	var list DocumentList[*model.PricingDocument]
	w := model.WellKey{ScenarioID: "S1", WellID: "W1"}

	doc, err := list.CompareAndSave(pricingDocWithPrice(45), w)
	require.NoError(t, err)

	found, ok := list.FindByWell(w)
	require.True(t, ok)
	assert.Same(t, doc, found)

	list.Detach(w)
	_, ok = list.FindByWell(w)
	assert.False(t, ok)
	// The document itself survives; only the assignment is removed.
	assert.Equal(t, 1, list.Len())
}
