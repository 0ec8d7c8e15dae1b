package model

import "sort"

// Aries table sections. A well's economic lines are grouped into numbered
// sections; each extractor consumes one or two of them.
const (
	SectionMisc      = 2
	SectionStream    = 4
	SectionPrice     = 5
	SectionTax       = 6
	SectionOwnership = 7
	SectionCapex     = 8
	SectionOverlay   = 9
)

// SequenceOverlay marks a record whose sequence column carried the overlay
// flag instead of an ordinal.
const SequenceOverlay = -1

// EconomicRecord is one row of the AC_ECONOMIC source table. Records are
// immutable inputs, grouped and ordered by (section, sequence) before
// processing.
type EconomicRecord struct {
	PropNum         string `json:"propnum"`
	Section         int    `json:"section"`
	Sequence        int    `json:"sequence"`
	Keyword         string `json:"keyword"`
	OriginalKeyword string `json:"original_keyword"`
	Qualifier       string `json:"qualifier"`
	Expression      string `json:"expression"`
}

// IsOverlay reports whether the record belongs to the overlay pass.
func (r EconomicRecord) IsOverlay() bool {
	return r.Sequence == SequenceOverlay || r.Section == SectionOverlay
}

// WellKey identifies a (scenario, well) pair. Documents are assigned to
// wells through sets of these keys.
type WellKey struct {
	ScenarioID string `json:"scenario_id"`
	WellID     string `json:"well_id"`
}

// WellSet is the set of (scenario, well) pairs referencing a document.
type WellSet map[WellKey]struct{}

// Add inserts a key into the set, allocating on first use.
func (s *WellSet) Add(k WellKey) {
	if *s == nil {
		*s = make(WellSet)
	}
	(*s)[k] = struct{}{}
}

// Has reports membership.
func (s WellSet) Has(k WellKey) bool {
	_, ok := s[k]
	return ok
}

// Remove deletes a key if present.
func (s WellSet) Remove(k WellKey) {
	delete(s, k)
}

// SortedList returns the set as a deterministic slice. Sets are not
// externally representable, so every serialization path goes through this.
func (s WellSet) SortedList() []WellKey {
	out := make([]WellKey, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ScenarioID != out[j].ScenarioID {
			return out[i].ScenarioID < out[j].ScenarioID
		}
		return out[i].WellID < out[j].WellID
	})
	return out
}
