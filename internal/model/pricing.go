package model

// Phases carried by price, differential, tax, expense, and stream models.
const (
	PhaseOil            = "oil"
	PhaseGas            = "gas"
	PhaseNGL            = "ngl"
	PhaseDripCondensate = "drip_condensate"
	PhaseWater          = "water"
)

// PriceRow is one dated price segment. Exactly one unit-keyed value field
// is set; oil uses the renamed Price field.
type PriceRow struct {
	Schedule
	Price           *float64 `json:"price,omitempty"`
	DollarPerBbl    *float64 `json:"dollar_per_bbl,omitempty"`
	DollarPerMcf    *float64 `json:"dollar_per_mcf,omitempty"`
	DollarPerMMBtu  *float64 `json:"dollar_per_mmbtu,omitempty"`
	DollarPerGal    *float64 `json:"dollar_per_gal,omitempty"`
	PctOfOilPrice   *float64 `json:"pct_of_oil_price,omitempty"`
	Cap             string   `json:"cap,omitempty"`
	EscalationModel string   `json:"escalation_model"`
}

// Value returns whichever unit-keyed value is set, with its field name.
func (r *PriceRow) Value() (string, *float64) {
	switch {
	case r.Price != nil:
		return "price", r.Price
	case r.DollarPerBbl != nil:
		return "dollar_per_bbl", r.DollarPerBbl
	case r.DollarPerMcf != nil:
		return "dollar_per_mcf", r.DollarPerMcf
	case r.DollarPerMMBtu != nil:
		return "dollar_per_mmbtu", r.DollarPerMMBtu
	case r.DollarPerGal != nil:
		return "dollar_per_gal", r.DollarPerGal
	case r.PctOfOilPrice != nil:
		return "pct_of_oil_price", r.PctOfOilPrice
	}
	return "", nil
}

// PhasePriceModel is one phase's ordered price segments.
type PhasePriceModel struct {
	Rows []PriceRow `json:"rows"`
}

// PricingEconFunction groups price segments by phase.
type PricingEconFunction struct {
	Oil            PhasePriceModel `json:"oil"`
	Gas            PhasePriceModel `json:"gas"`
	NGL            PhasePriceModel `json:"ngl"`
	DripCondensate PhasePriceModel `json:"drip_condensate"`
}

// Phase returns the addressable model for a phase name.
func (f *PricingEconFunction) Phase(phase string) *PhasePriceModel {
	switch phase {
	case PhaseOil:
		return &f.Oil
	case PhaseGas:
		return &f.Gas
	case PhaseNGL:
		return &f.NGL
	case PhaseDripCondensate:
		return &f.DripCondensate
	}
	return nil
}

// PricingDocument is the price model for a well.
type PricingDocument struct {
	DocumentMeta
	PriceModel PricingEconFunction `json:"price_model"`
}

func (d *PricingDocument) Meta() *DocumentMeta { return &d.DocumentMeta }
func (d *PricingDocument) Kind() string        { return KindPricing }

// DifferentialRow is one dated differential segment. A percentage
// differential of literal zero means full base price (100), never zero.
type DifferentialRow struct {
	Schedule
	DollarPerBbl    *float64 `json:"dollar_per_bbl,omitempty"`
	DollarPerMcf    *float64 `json:"dollar_per_mcf,omitempty"`
	DollarPerMMBtu  *float64 `json:"dollar_per_mmbtu,omitempty"`
	PctOfBasePrice  *float64 `json:"pct_of_base_price,omitempty"`
	PctOfOilPrice   *float64 `json:"pct_of_oil_price,omitempty"`
	EscalationModel string   `json:"escalation_model"`
}

// Value returns whichever unit-keyed value is set, with its field name.
func (r *DifferentialRow) Value() (string, *float64) {
	switch {
	case r.DollarPerBbl != nil:
		return "dollar_per_bbl", r.DollarPerBbl
	case r.DollarPerMcf != nil:
		return "dollar_per_mcf", r.DollarPerMcf
	case r.DollarPerMMBtu != nil:
		return "dollar_per_mmbtu", r.DollarPerMMBtu
	case r.PctOfBasePrice != nil:
		return "pct_of_base_price", r.PctOfBasePrice
	case r.PctOfOilPrice != nil:
		return "pct_of_oil_price", r.PctOfOilPrice
	}
	return "", nil
}

// PhaseDifferential is one phase's rows within a differential slot.
type PhaseDifferential struct {
	Rows []DifferentialRow `json:"rows"`
}

// DifferentialSlot is one of the three ordered differential positions.
// Percentage differentials occupy a slot alone; dollar differentials merge
// into a shared slot when no percentage competes.
type DifferentialSlot struct {
	Oil            PhaseDifferential `json:"oil"`
	Gas            PhaseDifferential `json:"gas"`
	NGL            PhaseDifferential `json:"ngl"`
	DripCondensate PhaseDifferential `json:"drip_condensate"`
}

// Phase returns the addressable phase rows for a slot.
func (s *DifferentialSlot) Phase(phase string) *PhaseDifferential {
	switch phase {
	case PhaseOil:
		return &s.Oil
	case PhaseGas:
		return &s.Gas
	case PhaseNGL:
		return &s.NGL
	case PhaseDripCondensate:
		return &s.DripCondensate
	}
	return nil
}

// DifferentialsEconFunction is the fixed 3-slot differential layout.
type DifferentialsEconFunction struct {
	FirstDiff  DifferentialSlot `json:"differentials_1"`
	SecondDiff DifferentialSlot `json:"differentials_2"`
	ThirdDiff  DifferentialSlot `json:"differentials_3"`
}

// Slot returns the i-th slot (0-based) or nil past the third.
func (f *DifferentialsEconFunction) Slot(i int) *DifferentialSlot {
	switch i {
	case 0:
		return &f.FirstDiff
	case 1:
		return &f.SecondDiff
	case 2:
		return &f.ThirdDiff
	}
	return nil
}

// DifferentialsDocument is the differential model for a well.
type DifferentialsDocument struct {
	DocumentMeta
	Differentials DifferentialsEconFunction `json:"differentials"`
}

func (d *DifferentialsDocument) Meta() *DocumentMeta { return &d.DocumentMeta }
func (d *DifferentialsDocument) Kind() string        { return KindDifferentials }
