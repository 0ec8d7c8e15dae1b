package aries

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/aries-import/internal/model"
)

func TestOwnership_NetOnly(t *testing.T) {
	ctx := testContext()
	x := NewOwnershipExtractor(ctx)

	doc := x.Extract([]model.EconomicRecord{
		rec(model.SectionOwnership, "NET", "80 75 75 0 % TO LIFE"),
	})
	require.NotNil(t, doc)
	in := doc.Ownership.Initial
	assert.Equal(t, 80.0, in.WorkingInterest)
	assert.Equal(t, 75.0, in.NetRevenueInterestOil)
	assert.Equal(t, 75.0, in.NetRevenueInterestGas)
	assert.Equal(t, 93.75, in.LeaseNetRevenueInterest)
	assert.Equal(t, model.NPITypeExpense, in.NetProfitInterestType)
	assert.Equal(t, 0.0, in.NetProfitInterest)
	assert.Empty(t, doc.Ownership.Reversions)
}

func TestOwnership_NetFracScalesToPercent(t *testing.T) {
	ctx := testContext()
	x := NewOwnershipExtractor(ctx)

	doc := x.Extract([]model.EconomicRecord{
		rec(model.SectionOwnership, "NET", "0.80 0.75 0.75 0 FRAC TO LIFE"),
	})
	require.NotNil(t, doc)
	assert.Equal(t, 80.0, doc.Ownership.Initial.WorkingInterest)
	assert.Equal(t, 75.0, doc.Ownership.Initial.NetRevenueInterestOil)
}

func TestOwnership_NRIExceedsWIUsesPolicyDefault(t *testing.T) {
	ctx := testContext()
	x := NewOwnershipExtractor(ctx)

	doc := x.Extract([]model.EconomicRecord{
		rec(model.SectionOwnership, "NET", "50 60 60 0 % TO LIFE"),
	})
	require.NotNil(t, doc)
	assert.Equal(t, DefaultLeaseNRI, doc.Ownership.Initial.LeaseNetRevenueInterest)
	assert.Equal(t, 1, ctx.Errors.Count(SeverityWarning))
}

func TestOwnership_LeaseOwnerSplit(t *testing.T) {
	ctx := testContext()
	x := NewOwnershipExtractor(ctx)

	doc := x.Extract([]model.EconomicRecord{
		rec(model.SectionOwnership, "LSE", "100 12.5 2.5 0 % TO LIFE"),
		rec(model.SectionOwnership, "OWN", "50 0 0 0 % TO LIFE"),
	})
	require.NotNil(t, doc)
	in := doc.Ownership.Initial
	assert.Equal(t, 50.0, in.WorkingInterest)
	// 100*50*(100-15)/10000 = 42.5, no owner royalty share.
	assert.Equal(t, 42.5, in.NetRevenueInterestOil)
	assert.Equal(t, 85.0, in.LeaseNetRevenueInterest)
}

func TestOwnership_CombinedPercentageSignal(t *testing.T) {
	ctx := testContext()
	x := NewOwnershipExtractor(ctx)

	// Lease WI above 100 means the owner line already carries the
	// combined working interest.
	doc := x.Extract([]model.EconomicRecord{
		rec(model.SectionOwnership, "LSE", "200 0 0 0 % TO LIFE"),
		rec(model.SectionOwnership, "OWN", "37.5 0 0 0 % TO LIFE"),
	})
	require.NotNil(t, doc)
	assert.Equal(t, 37.5, doc.Ownership.Initial.WorkingInterest)
}

func TestOwnership_PayoutReversion(t *testing.T) {
	ctx := testContext()
	x := NewOwnershipExtractor(ctx)

	doc := x.Extract([]model.EconomicRecord{
		rec(model.SectionOwnership, "NET", "100 80 80 0 % TO LIFE"),
		rec(model.SectionOwnership, "NET", "50 40 40 0 % 1 PAYOUT"),
	})
	require.NotNil(t, doc)
	require.Len(t, doc.Ownership.Reversions, 1)
	seg := doc.Ownership.Reversions[0]
	assert.Equal(t, model.CutoffPayoutWithInvestment, seg.PrevSegmentCutoff)
	require.NotNil(t, seg.PayoutWithInvestment)
	assert.Equal(t, 1.0, *seg.PayoutWithInvestment)
	assert.Equal(t, 50.0, seg.WorkingInterest)
	assert.Equal(t, 40.0, seg.NetRevenueInterest)
}

func TestOwnership_DateReversionFromYears(t *testing.T) {
	ctx := testContext()
	x := NewOwnershipExtractor(ctx)

	doc := x.Extract([]model.EconomicRecord{
		rec(model.SectionOwnership, "NET", "100 80 80 0 % TO LIFE"),
		rec(model.SectionOwnership, "NET", "50 40 40 0 % 2 YRS"),
	})
	require.NotNil(t, doc)
	require.Len(t, doc.Ownership.Reversions, 1)
	seg := doc.Ownership.Reversions[0]
	assert.Equal(t, model.CutoffDate, seg.PrevSegmentCutoff)
	assert.Equal(t, "2021-12-31", seg.Date)
}

func TestOwnership_VolumeReversionScalesUnits(t *testing.T) {
	ctx := testContext()
	x := NewOwnershipExtractor(ctx)

	doc := x.Extract([]model.EconomicRecord{
		rec(model.SectionOwnership, "NET", "100 80 80 0 % TO LIFE"),
		rec(model.SectionOwnership, "NET", "50 40 40 0 % 250 MB"),
	})
	require.NotNil(t, doc)
	require.Len(t, doc.Ownership.Reversions, 1)
	seg := doc.Ownership.Reversions[0]
	assert.Equal(t, model.CutoffOilCum, seg.PrevSegmentCutoff)
	require.NotNil(t, seg.WellHeadOilCum)
	assert.Equal(t, 250000.0, *seg.WellHeadOilCum)
}

func TestOwnership_OwnLineFillsMatchingReversion(t *testing.T) {
	ctx := testContext()
	x := NewOwnershipExtractor(ctx)

	doc := x.Extract([]model.EconomicRecord{
		rec(model.SectionOwnership, "LSE", "100 12.5 0 0 % TO LIFE"),
		rec(model.SectionOwnership, "OWN", "100 0 0 0 % TO LIFE"),
		rec(model.SectionOwnership, "LSE", "100 25 0 0 % 1 PAYOUT"),
		rec(model.SectionOwnership, "OWN", "50 0 0 0 % 1 PAYOUT"),
	})
	require.NotNil(t, doc)
	require.Len(t, doc.Ownership.Reversions, 1)
	seg := doc.Ownership.Reversions[0]
	assert.Equal(t, 50.0, seg.WorkingInterest)
	// 100*50*(100-25)/10000 = 37.5
	assert.Equal(t, 37.5, seg.NetRevenueInterest)
}

func TestOwnership_SingleLeaseManyOwnersOpensNewPoints(t *testing.T) {
	ctx := testContext()
	x := NewOwnershipExtractor(ctx)

	doc := x.Extract([]model.EconomicRecord{
		rec(model.SectionOwnership, "LSE", "100 12.5 0 0 % TO LIFE"),
		rec(model.SectionOwnership, "OWN", "100 0 0 0 % TO LIFE"),
		rec(model.SectionOwnership, "OWN", "50 0 0 0 % 1 PAYOUT"),
		rec(model.SectionOwnership, "OWN", "25 0 0 0 % 2 PAYOUT"),
	})
	require.NotNil(t, doc)
	require.Len(t, doc.Ownership.Reversions, 2)
	assert.Equal(t, 50.0, doc.Ownership.Reversions[0].WorkingInterest)
	assert.Equal(t, 25.0, doc.Ownership.Reversions[1].WorkingInterest)
}

func TestOwnership_UnsupportedCutoffAbortsModel(t *testing.T) {
	ctx := testContext()
	x := NewOwnershipExtractor(ctx)

	doc := x.Extract([]model.EconomicRecord{
		rec(model.SectionOwnership, "NET", "100 80 80 0 % TO LIFE"),
		rec(model.SectionOwnership, "NET", "50 40 40 0 % 5 WK"),
	})
	assert.Nil(t, doc)
	assert.Equal(t, 1, ctx.Errors.Count(SeverityError))
}

func TestOwnership_BackupSourceFillsUnresolved(t *testing.T) {
	ctx := testContext()
	ctx.OwnershipBackup = &OwnershipBackup{NRIOil: 0.80, NRIGas: 0}

	x := NewOwnershipExtractor(ctx)
	doc := x.Extract(nil)
	require.NotNil(t, doc)
	in := doc.Ownership.Initial
	assert.Equal(t, 80.0, in.NetRevenueInterestOil)
	// Zero from the backup source means full interest, not none.
	assert.Equal(t, 100.0, in.NetRevenueInterestGas)
	assert.Equal(t, DefaultLeaseNRI, in.LeaseNetRevenueInterest)
}

func TestOwnership_NoDataNoBackupYieldsNil(t *testing.T) {
	ctx := testContext()
	x := NewOwnershipExtractor(ctx)
	assert.Nil(t, x.Extract(nil))
	assert.Equal(t, 0, ctx.Errors.Count(SeverityError))
}

func TestOwnership_LossOverridesLeaseNRI(t *testing.T) {
	ctx := testContext()
	x := NewOwnershipExtractor(ctx)

	doc := x.Extract([]model.EconomicRecord{
		rec(model.SectionOwnership, "NET", "80 75 75 0 % TO LIFE"),
		rec(model.SectionOwnership, "LOSS", "87.5"),
	})
	require.NotNil(t, doc)
	assert.Equal(t, 87.5, doc.Ownership.Initial.LeaseNetRevenueInterest)
}

func TestOwnership_PureNPIOwnerIsRevenueType(t *testing.T) {
	ctx := testContext()
	x := NewOwnershipExtractor(ctx)

	doc := x.Extract([]model.EconomicRecord{
		rec(model.SectionOwnership, "LSE", "100 0 0 10 % TO LIFE"),
		rec(model.SectionOwnership, "OWN", "0 0 0 50 % TO LIFE"),
	})
	require.NotNil(t, doc)
	in := doc.Ownership.Initial
	assert.Equal(t, model.NPITypeRevenue, in.NetProfitInterestType)
	assert.Equal(t, 5.0, in.NetProfitInterest)
}
