package model

// RiskRow is one dated risk multiplier segment.
type RiskRow struct {
	Schedule
	Multiplier float64 `json:"multiplier"`
}

// PhaseRisking is one phase's risk rows.
type PhaseRisking struct {
	Rows []RiskRow `json:"rows"`
}

// RiskingEconFunction groups risk multipliers by phase.
type RiskingEconFunction struct {
	Oil            PhaseRisking `json:"oil"`
	Gas            PhaseRisking `json:"gas"`
	NGL            PhaseRisking `json:"ngl"`
	DripCondensate PhaseRisking `json:"drip_condensate"`
	Water          PhaseRisking `json:"water"`
}

// Phase returns the addressable risk rows for a phase.
func (f *RiskingEconFunction) Phase(phase string) *PhaseRisking {
	switch phase {
	case PhaseOil:
		return &f.Oil
	case PhaseGas:
		return &f.Gas
	case PhaseNGL:
		return &f.NGL
	case PhaseDripCondensate:
		return &f.DripCondensate
	case PhaseWater:
		return &f.Water
	}
	return nil
}

// RiskingDocument holds per-phase risk multipliers for a well.
type RiskingDocument struct {
	DocumentMeta
	Risking RiskingEconFunction `json:"risking"`
}

func (d *RiskingDocument) Meta() *DocumentMeta { return &d.DocumentMeta }
func (d *RiskingDocument) Kind() string        { return KindRisking }

// Shrink classifications carried by yield rows.
const (
	GasShrunk   = "shrunk"
	GasUnshrunk = "unshrunk"
)

// YieldRow is one dated NGL/condensate yield segment.
type YieldRow struct {
	Schedule
	YieldValue float64 `json:"yield"`
	ShrunkGas  string  `json:"shrunk_gas"`
}

// ShrinkageRow is one dated gas-shrinkage segment.
type ShrinkageRow struct {
	Schedule
	PctRemaining float64 `json:"pct_remaining"`
}

// StreamPropertiesDocument holds yield and shrinkage models plus the BTU
// content used to convert gas price units.
type StreamPropertiesDocument struct {
	DocumentMeta
	Yields struct {
		NGL struct {
			Rows []YieldRow `json:"rows"`
		} `json:"ngl"`
		DripCondensate struct {
			Rows []YieldRow `json:"rows"`
		} `json:"drip_condensate"`
	} `json:"yields"`
	Shrinkage struct {
		Oil struct {
			Rows []ShrinkageRow `json:"rows"`
		} `json:"oil"`
		Gas struct {
			Rows []ShrinkageRow `json:"rows"`
		} `json:"gas"`
	} `json:"shrinkage"`
	BTUContent struct {
		UnshrunkGas float64 `json:"unshrunk_gas"`
		ShrunkGas   float64 `json:"shrunk_gas"`
	} `json:"btu_content"`
}

func (d *StreamPropertiesDocument) Meta() *DocumentMeta { return &d.DocumentMeta }
func (d *StreamPropertiesDocument) Kind() string        { return KindStreamProperties }

// Escalation calculation methods and frequencies.
const (
	EscalationCompound = "compound"
	EscalationSimple   = "simple"
	EscalationConstant = "constant"

	EscalationMonthly = "monthly"
	EscalationYearly  = "yearly"
)

// EscalationRow is one dated escalation segment; exactly one of the value
// fields is set, matching the document's unit family.
type EscalationRow struct {
	Schedule
	PctPerYear    *float64 `json:"pct_per_year,omitempty"`
	DollarPerYear *float64 `json:"dollar_per_year,omitempty"`
}

// EscalationDocument is a deduplicated escalation schedule referenced by id
// from dated rows.
type EscalationDocument struct {
	DocumentMeta
	EscalationFrequency string          `json:"escalation_frequency"`
	CalculationMethod   string          `json:"calculation_method"`
	Rows                []EscalationRow `json:"rows"`
}

func (d *EscalationDocument) Meta() *DocumentMeta { return &d.DocumentMeta }
func (d *EscalationDocument) Kind() string        { return KindEscalation }
