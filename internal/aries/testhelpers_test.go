package aries

import (
	"time"

	"github.com/sells-group/aries-import/internal/model"
)

// testContext builds an ExtractionContext with a 2020-01-01 base date and
// an empty lookup table, the way most extractor tests want it.
func testContext() *ExtractionContext {
	errs := &ErrorLog{}
	return &ExtractionContext{
		PropNum:          "W1",
		ScenarioID:       "S1",
		BaseDate:         time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		AsOfDate:         time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		Lookups:          &LookupTables{},
		Errors:           errs,
		Escalations:      NewEscalationExtractor(nil, errs),
		WellCountByPhase: map[string]int{},
	}
}

func rec(section int, keyword, expression string) model.EconomicRecord {
	return model.EconomicRecord{
		PropNum:         "W1",
		Section:         section,
		Keyword:         keyword,
		OriginalKeyword: keyword,
		Expression:      expression,
	}
}

func recSeq(section, seq int, keyword, expression string) model.EconomicRecord {
	r := rec(section, keyword, expression)
	r.Sequence = seq
	return r
}
