package aries

import (
	"strings"
	"time"

	"github.com/sells-group/aries-import/internal/model"
)

// capexCategories maps capex-bearing keywords to their categories. Any
// other keyword in the capex section is outside the grammar.
var capexCategories = map[string]string{
	"ABAN":     model.CapexAbandonment,
	"ABDN":     model.CapexAbandonment,
	"PLUG":     model.CapexAbandonment,
	"SALV":     model.CapexSalvage,
	"DRILL":    model.CapexDrilling,
	"COMPL":    model.CapexCompletion,
	"WORKOVER": model.CapexWorkover,
	"CAPITAL":  model.CapexOtherInvestment,
	"FACIL":    model.CapexOtherInvestment,
}

func isAbandonSalvage(category string) bool {
	return category == model.CapexAbandonment || category == model.CapexSalvage
}

// CapexExtractor interprets the capex section for one well/scenario. State
// carried across rows: the running start date, the INVWT/WEIGHT
// multiplier, the abandon/salvage delay parameters, and the previous row's
// date for incremental cutoffs.
type CapexExtractor struct {
	ctx *ExtractionContext

	startDate       time.Time
	invwtMultiplier float64
	delayDays       *float64
	delayDate       *time.Time
	prevDate        *time.Time
	sawCapex        bool
}

// NewCapexExtractor seeds the builder with the project base date.
func NewCapexExtractor(ctx *ExtractionContext) *CapexExtractor {
	return &CapexExtractor{
		ctx:             ctx,
		startDate:       ctx.BaseDate,
		invwtMultiplier: 1,
	}
}

// Name implements Extractor.
func (x *CapexExtractor) Name() string { return model.KindCapex }

// Extract runs the row scan and returns the capex document, or nil when no
// capex-bearing keyword was seen.
func (x *CapexExtractor) Extract(records []model.EconomicRecord) model.Document {
	x.resolveDelays(records)

	doc := DefaultCapex()
	for _, rec := range records {
		kw := strings.ToUpper(rec.Keyword)
		switch kw {
		case "TEXT", "ABANDON", "SALVAGE":
			continue
		case "START":
			x.applyStart(rec)
			continue
		case "INVWT", "WEIGHT":
			x.applyWeight(rec)
			continue
		}
		category, ok := capexCategories[kw]
		if !ok {
			x.ctx.LogWarning(rec, model.KindCapex, "keyword not in capex grammar, row ignored")
			continue
		}
		if row, ok := x.buildRow(rec, category); ok {
			doc.OtherCapex.Rows = append(doc.OtherCapex.Rows, row)
			x.sawCapex = true
		}
	}

	if !x.sawCapex {
		return nil
	}
	return doc
}

// resolveDelays is the pre-pass over ABANDON/SALVAGE parameter rows.
// Failure to resolve is tolerated; delays default to none.
func (x *CapexExtractor) resolveDelays(records []model.EconomicRecord) {
	for _, rec := range records {
		kw := strings.ToUpper(rec.Keyword)
		if kw != "ABANDON" && kw != "SALVAGE" {
			continue
		}
		ls, ok := x.ctx.Tokenize(rec, model.KindCapex)
		if !ok || len(ls) == 0 {
			continue
		}
		if v, numOK := TryParseNumber(ls[0]); numOK {
			x.delayDays = model.F64(v)
			continue
		}
		if t, err := ParseExpressionDate(ls[0]); err == nil {
			x.delayDate = &t
		}
	}
}

func (x *CapexExtractor) applyStart(rec model.EconomicRecord) {
	ls, ok := x.ctx.Tokenize(rec, model.KindCapex)
	if !ok {
		x.startDate = x.ctx.BaseDate
		return
	}
	mmYYYY, ok := ReadStart(strings.Join(ls, " "), x.ctx.BaseDate)
	if !ok {
		// Soft failure: fall back to the project base date.
		x.ctx.LogWarning(rec, model.KindCapex, "unreadable START date, using base date")
		x.startDate = x.ctx.BaseDate
		return
	}
	t, err := time.Parse("01/2006", mmYYYY)
	if err != nil {
		x.startDate = x.ctx.BaseDate
		return
	}
	x.startDate = t
}

func (x *CapexExtractor) applyWeight(rec model.EconomicRecord) {
	ls, ok := x.ctx.Tokenize(rec, model.KindCapex)
	if !ok {
		return
	}
	v, numOK := TryParseNumber(Token(ls, 0))
	if !numOK {
		x.ctx.LogWarning(rec, model.KindCapex, "non-numeric investment weight, multiplier unchanged")
		return
	}
	if v == 0 {
		// Division-by-zero guard: a zero weight means no weighting.
		x.invwtMultiplier = 1
		return
	}
	x.invwtMultiplier = v
}

func (x *CapexExtractor) buildRow(rec model.EconomicRecord, category string) (model.CapexRow, bool) {
	ls, ok := x.ctx.Tokenize(rec, model.KindCapex)
	if !ok {
		return model.CapexRow{}, false
	}

	row := DefaultCapexRow(FormatDate(EndOfMonth(x.startDate)))
	row.Category = category

	x.resolveCutoff(rec, ls, &row, category)

	// Escalation attaches only to rows anchored in time.
	if row.Date != "" || row.OffsetToEconLimit != nil {
		key := ConnectionKey{
			PropNum:   x.ctx.PropNum,
			Scenario:  x.ctx.ScenarioID,
			Keyword:   strings.ToUpper(rec.Keyword),
			ModelKind: model.KindCapex,
			Category:  category,
		}
		start := row.Date
		if start == "" {
			start = FormatDate(EndOfMonth(x.startDate))
		}
		row.EscalationModel = x.ctx.Escalations.Extract(key, Token(ls, 5), Token(ls, 6), start, model.EconLimit)
	}

	x.parseValues(rec, ls, &row)
	x.applyUnit(ls, &row)

	if !isAbandonSalvage(category) {
		row.DealTerms = x.invwtMultiplier
	}
	return row, true
}

// resolveCutoff applies the token-4 duration grammar to the row's date.
func (x *CapexExtractor) resolveCutoff(rec model.EconomicRecord, ls []string, row *model.CapexRow, category string) {
	unitTok := Token(ls, 4)
	kind, unit, known := ParseCutoffUnit(unitTok)
	if !known {
		if unitTok != "" && !strings.EqualFold(unitTok, "TO") {
			x.ctx.LogWarning(rec, model.KindCapex, "unrecognized capex cutoff unit "+unitTok)
		}
		return
	}

	switch kind {
	case CutoffLife:
		row.AfterEconLimit = "yes"
		if isAbandonSalvage(category) {
			// Abandonment and salvage land at the economic limit, biased
			// by any delay detected in the pre-pass.
			row.Date = ""
			offset := 0
			if x.delayDays != nil {
				offset = int(*x.delayDays)
			}
			row.OffsetToEconLimit = model.IntP(offset)
			if x.delayDate != nil {
				row.OffsetToEconLimit = nil
				row.Date = FormatDate(*x.delayDate)
			}
		}
	case CutoffMonths, CutoffIncrMonths, CutoffYears, CutoffIncrYears:
		// A capex duration is a spend delay counted from the anchor, not
		// a segment window: "3 MOS" from 1/2020 lands the spend in April.
		// Segment cutoffs elsewhere end their window inside the last
		// counted month instead.
		v, numOK := TryParseNumber(Token(ls, 3))
		if !numOK {
			x.ctx.LogError(rec, model.KindCapex, "non-numeric capex cutoff value, date left at start")
			return
		}
		anchor := x.startDate
		if (kind == CutoffIncrMonths || kind == CutoffIncrYears) && x.prevDate != nil {
			anchor = *x.prevDate
		}
		var years, months int
		if kind == CutoffYears || kind == CutoffIncrYears {
			years, months = DayMonthYearFromDecimal(v)
		} else {
			months = int(v)
		}
		t := EndOfMonth(OffsetMonths(anchor, years*12+months))
		row.Date = FormatDate(t)
		x.prevDate = &t
	case CutoffAbsDate:
		t, err := ParseExpressionDate(Token(ls, 3))
		if err != nil {
			x.ctx.LogError(rec, model.KindCapex, "unreadable absolute capex date, using base date")
			t = x.ctx.BaseDate
		}
		t2 := EndOfMonth(t)
		row.Date = FormatDate(t2)
		x.prevDate = &t2
	case CutoffVolume:
		v, numOK := TryParseNumber(Token(ls, 3))
		if !numOK {
			x.ctx.LogError(rec, model.KindCapex, "non-numeric cumulative capex target")
			return
		}
		row.Date = ""
		row.CumVolume = &model.CumVolume{Unit: unit, Amount: v}
	}
}

// parseValues reads tangible/intangible from positions 0/1. Unparseable
// values are logged and left at zero. SALV proceeds booked in the
// tax-expense section are a credit, so a positive value is negated there.
func (x *CapexExtractor) parseValues(rec model.EconomicRecord, ls []string, row *model.CapexRow) {
	if tok := Token(ls, 0); tok != "" {
		if v, ok := TryParseNumber(tok); ok {
			row.Tangible = v
		} else if !IsCarryForward(tok) {
			x.ctx.LogError(rec, model.KindCapex, "non-numeric tangible value "+tok)
		}
	}
	if tok := Token(ls, 1); tok != "" {
		if v, ok := TryParseNumber(tok); ok {
			row.Intangible = v
		} else if !IsCarryForward(tok) {
			x.ctx.LogError(rec, model.KindCapex, "non-numeric intangible value "+tok)
		}
	}
	if strings.EqualFold(rec.Keyword, "SALV") && rec.Section == model.SectionTax {
		if row.Tangible > 0 {
			row.Tangible = -row.Tangible
		}
		if row.Intangible > 0 {
			row.Intangible = -row.Intangible
		}
	}
}

// applyUnit reads the token-2 unit: M$ scales thousands to dollars and an
// N/G suffix picks the calculation basis (gross is the default).
func (x *CapexExtractor) applyUnit(ls []string, row *model.CapexRow) {
	unit := strings.ToUpper(Token(ls, 2))
	if unit == "" {
		return
	}
	if strings.HasPrefix(unit, "M$") {
		row.Tangible *= 1000
		row.Intangible *= 1000
	}
	switch {
	case strings.HasSuffix(unit, "N"):
		row.Calculation = model.CalcNet
	case strings.HasSuffix(unit, "G"):
		row.Calculation = model.CalcGross
	}
}
