package model

// Capex categories resolved from keywords.
const (
	CapexOtherInvestment = "other_investment"
	CapexAbandonment     = "abandonment"
	CapexSalvage         = "salvage"
	CapexDrilling        = "drilling"
	CapexCompletion      = "completion"
	CapexWorkover        = "workover"
)

// CapexRow is one investment line. A row carries either a single calendar
// Date, an OffsetToEconLimit, or a cumulative-volume target.
type CapexRow struct {
	Category          string     `json:"category"`
	Date              string     `json:"date,omitempty"`
	OffsetToEconLimit *int       `json:"offset_to_econ_limit,omitempty"`
	CumVolume         *CumVolume `json:"cum_volume,omitempty"`
	Tangible          float64    `json:"tangible"`
	Intangible        float64    `json:"intangible"`
	AfterEconLimit    string     `json:"after_econ_limit"`
	Calculation       string     `json:"calculation"`
	DealTerms         float64    `json:"deal_terms"`
	EscalationModel   string     `json:"escalation_model"`
}

// CapexDocument holds a well's investment schedule.
type CapexDocument struct {
	DocumentMeta
	OtherCapex CapexRowList `json:"other_capex"`
}

// CapexRowList wraps the row list under the schema's "rows" key.
type CapexRowList struct {
	Rows []CapexRow `json:"rows"`
}

func (d *CapexDocument) Meta() *DocumentMeta { return &d.DocumentMeta }
func (d *CapexDocument) Kind() string        { return KindCapex }
