package model

// NPI attribution types.
const (
	NPITypeRevenue = "revenue"
	NPITypeExpense = "expense"
)

// Reversion trigger kinds recorded on a segment's PrevSegmentCutoff.
const (
	CutoffPayoutWithInvestment    = "payout_with_investment"
	CutoffPayoutWithoutInvestment = "payout_without_investment"
	CutoffDate                    = "date"
	CutoffOilCum                  = "well_head_oil_cum"
	CutoffGasCum                  = "well_head_gas_cum"
	CutoffLife                    = "life"
)

// InitialOwnership is the resolved pre-reversion interest block.
type InitialOwnership struct {
	WorkingInterest          float64 `json:"working_interest"`
	NetRevenueInterestOil    float64 `json:"net_revenue_interest"`
	NetRevenueInterestGas    float64 `json:"net_revenue_interest_gas"`
	LeaseNetRevenueInterest  float64 `json:"lease_net_revenue_interest"`
	NetProfitInterest        float64 `json:"net_profit_interest"`
	NetProfitInterestType    string  `json:"net_profit_interest_type"`
	IncludeNetProfitInterest string  `json:"include_net_profit_interest"`
}

// ReversionSegment is one entry in an ownership reversion ladder. Exactly
// one of the trigger fields (Date, WellHeadOilCum, WellHeadGasCum, Payout*)
// is set; PrevSegmentCutoff names which.
type ReversionSegment struct {
	WorkingInterest          float64  `json:"working_interest"`
	NetRevenueInterest       float64  `json:"net_revenue_interest"`
	LeaseNetRevenueInterest  float64  `json:"lease_net_revenue_interest"`
	Balance                  string   `json:"balance"`
	IncludeNetProfitInterest string   `json:"include_net_profit_interest"`
	PrevSegmentCutoff        string   `json:"prev_segment_cutoff"`
	Date                     string   `json:"date,omitempty"`
	WellHeadOilCum           *float64 `json:"well_head_oil_cum,omitempty"`
	WellHeadGasCum           *float64 `json:"well_head_gas_cum,omitempty"`
	PayoutWithInvestment     *float64 `json:"payout_with_investment,omitempty"`
	PayoutWithoutInvestment  *float64 `json:"payout_without_investment,omitempty"`
}

// OwnershipDocument is the resolved ownership model: the initial interest
// block plus zero or more reversion segments.
type OwnershipDocument struct {
	DocumentMeta
	Ownership OwnershipEconFunction `json:"ownership"`
}

// OwnershipEconFunction nests the initial ownership and reversion ladder.
type OwnershipEconFunction struct {
	Initial    InitialOwnership   `json:"initial_ownership"`
	Reversions []ReversionSegment `json:"reversions"`
}

func (d *OwnershipDocument) Meta() *DocumentMeta { return &d.DocumentMeta }
func (d *OwnershipDocument) Kind() string        { return KindOwnership }
