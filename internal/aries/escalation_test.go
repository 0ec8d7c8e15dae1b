package aries

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/aries-import/internal/model"
)

func escKey(keyword string) ConnectionKey {
	return ConnectionKey{
		PropNum:   "W1",
		Scenario:  "S1",
		Keyword:   keyword,
		ModelKind: model.KindPricing,
	}
}

func TestEscalation_NonEscalationTailReturnsNone(t *testing.T) {
	e := NewEscalationExtractor(nil, &ErrorLog{})
	id := e.Extract(escKey("PRI/OIL"), "TO", "LIFE", "2020-01-01", model.EconLimit)
	assert.Equal(t, EscalationNone, id)
}

func TestEscalation_PercentCompoundYearly(t *testing.T) {
	e := NewEscalationExtractor(nil, &ErrorLog{})
	id := e.Extract(escKey("PRI/OIL"), "3", "PC/Y", "2020-01-01", model.EconLimit)
	require.NotEqual(t, EscalationNone, id)

	docs, remap, err := e.Finalize()
	require.NoError(t, err)
	assert.Empty(t, remap)
	require.Len(t, docs, 1)
	d := docs[0]
	assert.Equal(t, id, d.ID)
	assert.Equal(t, model.EscalationCompound, d.CalculationMethod)
	assert.Equal(t, model.EscalationYearly, d.EscalationFrequency)
	require.Len(t, d.Rows, 1)
	require.NotNil(t, d.Rows[0].PctPerYear)
	assert.Equal(t, 3.0, *d.Rows[0].PctPerYear)
	assert.Nil(t, d.Rows[0].DollarPerYear)
}

func TestEscalation_SegmentsAccumulatePerKey(t *testing.T) {
	e := NewEscalationExtractor(nil, &ErrorLog{})
	key := escKey("PRI/GAS")
	id1 := e.Extract(key, "3", "PC/Y", "2020-01-01", "2020-12-31")
	id2 := e.Extract(key, "5", "PC/Y", "2021-01-01", model.EconLimit)
	assert.Equal(t, id1, id2)

	docs, _, err := e.Finalize()
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Len(t, docs[0].Rows, 2)
}

func TestEscalation_UnitFamilyConflictAbandons(t *testing.T) {
	errs := &ErrorLog{}
	e := NewEscalationExtractor(nil, errs)
	key := escKey("PRI/OIL")

	id1 := e.Extract(key, "3", "PC/Y", "2020-01-01", "2020-12-31")
	require.NotEqual(t, EscalationNone, id1)
	id2 := e.Extract(key, "0.50", "$E/Y", "2021-01-01", model.EconLimit)
	assert.Equal(t, EscalationNone, id2)
	assert.Equal(t, 1, errs.Count(SeverityError))

	// The key stays abandoned even for a compatible later segment.
	id3 := e.Extract(key, "4", "PC/Y", "2022-01-01", model.EconLimit)
	assert.Equal(t, EscalationNone, id3)

	docs, _, err := e.Finalize()
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestEscalation_ZeroModelToleratesFamilyChange(t *testing.T) {
	errs := &ErrorLog{}
	e := NewEscalationExtractor(nil, errs)
	key := escKey("OPC")

	id1 := e.Extract(key, "0", "PC/Y", "2020-01-01", "2020-12-31")
	require.NotEqual(t, EscalationNone, id1)
	id2 := e.Extract(key, "0.50", "$E/Y", "2021-01-01", model.EconLimit)
	assert.Equal(t, id1, id2)
	assert.Equal(t, 0, errs.Count(SeverityError))
	assert.Equal(t, 1, errs.Count(SeverityWarning))

	docs, _, err := e.Finalize()
	require.NoError(t, err)
	require.Len(t, docs, 1)
	// The conflicting segment was zeroed, keeping the model consistent.
	require.Len(t, docs[0].Rows, 2)
	require.NotNil(t, docs[0].Rows[1].PctPerYear)
	assert.Equal(t, 0.0, *docs[0].Rows[1].PctPerYear)
}

func TestEscalation_CustomDefinitionByName(t *testing.T) {
	custom := []CustomEscalation{{
		Name:      "ESCGAS",
		Family:    familyPercent,
		Method:    model.EscalationCompound,
		Frequency: model.EscalationYearly,
		Value:     2.5,
	}}
	e := NewEscalationExtractor(custom, &ErrorLog{})
	id := e.Extract(escKey("PRI/GAS"), "escgas", "", "2020-01-01", model.EconLimit)
	require.NotEqual(t, EscalationNone, id)

	docs, _, err := e.Finalize()
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, 2.5, *docs[0].Rows[0].PctPerYear)
}

func TestEscalation_FinalizeDeduplicatesAcrossWells(t *testing.T) {
	e := NewEscalationExtractor(nil, &ErrorLog{})
	k1 := escKey("PRI/OIL")
	k2 := k1
	k2.PropNum = "W2"

	id1 := e.Extract(k1, "3", "PC/Y", "2020-01-01", model.EconLimit)
	id2 := e.Extract(k2, "3", "PC/Y", "2020-01-01", model.EconLimit)
	require.NotEqual(t, id1, id2)

	docs, remap, err := e.Finalize()
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Len(t, remap, 1)
	canonical := docs[0].ID
	for superseded, target := range remap {
		assert.NotEqual(t, canonical, superseded)
		assert.Equal(t, canonical, target)
	}
	assert.Len(t, docs[0].Wells.SortedList(), 2)
}

func TestEscalation_FanOutCopiesPerProject(t *testing.T) {
	e := NewEscalationExtractor(nil, &ErrorLog{})
	e.Extract(escKey("PRI/OIL"), "3", "PC/Y", "2020-01-01", model.EconLimit)
	_, _, err := e.Finalize()
	require.NoError(t, err)

	out := e.FanOut([]string{"alpha", "beta"})
	require.Len(t, out, 2)
	require.Len(t, out["alpha"], 1)
	require.Len(t, out["beta"], 1)
	assert.NotEqual(t, out["alpha"][0].ID, out["beta"][0].ID)
	assert.Equal(t, out["alpha"][0].Rows, out["beta"][0].Rows)
}
