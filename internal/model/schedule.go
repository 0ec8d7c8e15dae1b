package model

// EconLimit is the sentinel open-ended end date meaning the row runs
// through the well's economic life.
const EconLimit = "Econ Limit"

// DateRange is a calendar window. EndDate is either an ISO date or the
// EconLimit sentinel.
type DateRange struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// PeriodRange is a month-offset window relative to an anchor (first
// production date or as-of date). Start/End are 1-based month ordinals and
// Period is the window length in months.
type PeriodRange struct {
	Start  int `json:"start"`
	End    int `json:"end"`
	Period int `json:"period"`
}

// RateRange is a production-rate threshold window. A nil End means
// unbounded.
type RateRange struct {
	Start float64  `json:"start"`
	End   *float64 `json:"end,omitempty"`
}

// CumVolume is a cumulative-volume cutoff target.
type CumVolume struct {
	Unit   string  `json:"unit"`
	Amount float64 `json:"amount"`
}

// Schedule carries exactly one of the cutoff shapes a dated row can have.
// Date-based and rate-based rows are mutually exclusive within one
// sub-model's row list.
type Schedule struct {
	Dates             *DateRange   `json:"dates,omitempty"`
	OffsetToFPD       *PeriodRange `json:"offset_to_fpd,omitempty"`
	OffsetToAsOf      *PeriodRange `json:"offset_to_as_of_date,omitempty"`
	OffsetToEconLimit *int         `json:"offset_to_econ_limit,omitempty"`
	OilRate           *RateRange   `json:"oil_rate,omitempty"`
	GasRate           *RateRange   `json:"gas_rate,omitempty"`
	WellHeadOilCum    *float64     `json:"well_head_oil_cum,omitempty"`
	WellHeadGasCum    *float64     `json:"well_head_gas_cum,omitempty"`
	CumVolume         *CumVolume   `json:"cum_volume,omitempty"`
}

// IsRateBased reports whether the schedule cuts off on a production rate
// rather than a date.
func (s Schedule) IsRateBased() bool {
	return s.OilRate != nil || s.GasRate != nil
}

// StartsAt returns the calendar start date when the schedule is date-based.
func (s Schedule) StartsAt() (string, bool) {
	if s.Dates == nil {
		return "", false
	}
	return s.Dates.StartDate, true
}

// F64 returns a pointer to v. Unit-keyed row values use *float64 so an
// absent unit and a zero value stay distinguishable.
func F64(v float64) *float64 { return &v }

// IntP returns a pointer to v.
func IntP(v int) *int { return &v }
