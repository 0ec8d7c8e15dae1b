package aries

import (
	"strings"
	"time"

	"github.com/sells-group/aries-import/internal/model"
)

// Differential keyword groups. PAD and PAJ lines accumulate into
// per-(group, phase) buckets that fold into at most three ordered slots at
// the end of the scan.
const (
	diffGroupPAD = "PAD"
	diffGroupPAJ = "PAJ"
)

// phaseFromSuffix resolves the /PHASE keyword suffix.
func phaseFromSuffix(suffix string) (string, bool) {
	switch strings.ToUpper(suffix) {
	case "OIL":
		return model.PhaseOil, true
	case "GAS":
		return model.PhaseGas, true
	case "NGL":
		return model.PhaseNGL, true
	case "CND", "COND":
		return model.PhaseDripCondensate, true
	case "WTR", "WATER":
		return model.PhaseWater, true
	}
	return "", false
}

// segCursor walks one sub-model bucket's timeline: anchor is the bucket's
// first start, cursor the next segment's start. Keeping both lets absolute
// cutoffs (TO n YR) measure from the anchor while incremental ones chain
// off the previous row.
type segCursor struct {
	anchor time.Time
	cursor time.Time
}

func newSegCursor(start time.Time) *segCursor {
	return &segCursor{anchor: start, cursor: start}
}

// window consumes a date window ending at end (inclusive) and advances the
// cursor. A degenerate window (end before cursor) returns ok=false and the
// caller drops the row; this is the duplicate-row guard for the legacy
// repeat-previous-line convention.
func (c *segCursor) window(end time.Time) (model.DateRange, bool) {
	if !end.After(c.cursor) {
		return model.DateRange{}, false
	}
	w := model.DateRange{StartDate: FormatDate(c.cursor), EndDate: FormatDate(end)}
	c.cursor = end.AddDate(0, 0, 1)
	return w, true
}

// openEnded consumes the rest of the timeline.
func (c *segCursor) openEnded() model.DateRange {
	w := model.DateRange{StartDate: FormatDate(c.cursor), EndDate: model.EconLimit}
	return w
}

type diffBucket struct {
	group  string
	phase  string
	isPct  bool
	rows   []model.DifferentialRow
	cursor *segCursor
}

// PricingResult carries everything the pricing scan produces: the price
// model, the folded differential document, any orphaned differential
// buckets preserved for audit under an alternate qualifier, and the policy
// name when a project backup replaced the differentials outright.
type PricingResult struct {
	Pricing             *model.PricingDocument
	Differentials       *model.DifferentialsDocument
	OrphanDifferentials *model.DifferentialsDocument
	BackupName          string
}

// PricingExtractor interprets the price section (PRI/PAD/PAJ keywords) for
// one well/scenario.
type PricingExtractor struct {
	ctx *ExtractionContext

	startDate time.Time
	// UseOilPriceAsBase switches differential rows to pct_of_oil_price
	// and bypasses the dollar/percent unit table. Seeded from the project
	// settings.
	UseOilPriceAsBase bool
	// BTUSeen converts gas dollar_per_mcf values to dollar_per_mmbtu.
	BTUSeen bool

	priceCursors map[string]*segCursor
	priceDoc     *model.PricingDocument
	buckets      []*diffBucket
}

// NewPricingExtractor seeds the builder with the project base date.
func NewPricingExtractor(ctx *ExtractionContext) *PricingExtractor {
	return &PricingExtractor{
		ctx:               ctx,
		startDate:         ctx.BaseDate,
		UseOilPriceAsBase: ctx.UseOilPriceAsBase,
		priceCursors:      make(map[string]*segCursor),
		priceDoc:          DefaultPricing(),
	}
}

// Name implements Extractor.
func (x *PricingExtractor) Name() string { return model.KindPricing }

// Extract runs the row scan and folds the result.
func (x *PricingExtractor) Extract(records []model.EconomicRecord) *PricingResult {
	for _, r := range records {
		kw := strings.ToUpper(r.Keyword)
		base, _, hasPhase := strings.Cut(kw, "/")
		switch {
		case kw == "START":
			x.applyStart(r)
		case kw == "BTU":
			x.applyBTU(r)
		case base == "PRI" && hasPhase:
			x.priceRow(r)
		case (base == diffGroupPAD || base == diffGroupPAJ) && hasPhase:
			x.diffRow(r, base)
		default:
			x.ctx.LogWarning(r, model.KindPricing, "keyword not in pricing grammar, row ignored")
		}
	}
	return x.finalize()
}

func (x *PricingExtractor) applyStart(r model.EconomicRecord) {
	ls, ok := x.ctx.Tokenize(r, model.KindPricing)
	if !ok {
		return
	}
	mmYYYY, ok := ReadStart(strings.Join(ls, " "), x.ctx.BaseDate)
	if !ok {
		x.ctx.LogWarning(r, model.KindPricing, "unreadable START date, using base date")
		x.startDate = x.ctx.BaseDate
		return
	}
	if t, err := time.Parse("01/2006", mmYYYY); err == nil {
		x.startDate = t
	}
}

func (x *PricingExtractor) applyBTU(r model.EconomicRecord) {
	ls, ok := x.ctx.Tokenize(r, model.KindPricing)
	if !ok {
		return
	}
	if _, numOK := TryParseNumber(Token(ls, 0)); numOK {
		x.BTUSeen = true
	}
}

func (x *PricingExtractor) cursorFor(kind, phase string) *segCursor {
	k := kind + "/" + phase
	if c, ok := x.priceCursors[k]; ok {
		return c
	}
	c := newSegCursor(StartOfMonth(x.startDate))
	x.priceCursors[k] = c
	return c
}

// listSpec recognizes the list-method marker token and returns the shift
// per list item in months.
func listSpec(tok string) (int, bool) {
	switch strings.ToUpper(tok) {
	case "M#":
		return 1, true
	case "#", "#/Y":
		return 12, true
	}
	return 0, false
}

// expandListValues expands value tokens, honoring the n*value repeat
// shorthand. Non-numeric tokens end the list.
func expandListValues(ls []string) []float64 {
	var out []float64
	for _, tok := range ls {
		if n, rest, ok := strings.Cut(tok, "*"); ok {
			cnt, cok := TryParseNumber(n)
			v, vok := TryParseNumber(rest)
			if cok && vok {
				for i := 0; i < int(cnt); i++ {
					out = append(out, v)
				}
				continue
			}
		}
		v, ok := TryParseNumber(tok)
		if !ok {
			break
		}
		out = append(out, v)
	}
	return out
}

// findListMarker locates the list-method marker; returns its index and
// shift, or -1 when the row uses the formula method.
func findListMarker(ls []string) (int, int) {
	for i, tok := range ls {
		if shift, ok := listSpec(tok); ok {
			return i, shift
		}
	}
	return -1, 0
}

func (x *PricingExtractor) priceRow(r model.EconomicRecord) {
	_, suffix, _ := strings.Cut(strings.ToUpper(r.Keyword), "/")
	phase, ok := phaseFromSuffix(suffix)
	if !ok || phase == model.PhaseWater {
		x.ctx.LogWarning(r, model.KindPricing, "unsupported price phase "+suffix)
		return
	}
	ls, tok := x.ctx.Tokenize(r, model.KindPricing)
	if !tok {
		return
	}
	cur := x.cursorFor("price", phase)
	pm := x.priceDoc.PriceModel.Phase(phase)

	if idx, shift := findListMarker(ls); idx >= 0 {
		values := expandListValues(ls[:idx])
		for _, v := range values {
			end := EndOfMonth(OffsetMonths(cur.cursor, shift-1))
			w, wok := cur.window(end)
			if !wok {
				continue
			}
			row := model.PriceRow{EscalationModel: EscalationNone}
			row.Dates = &w
			x.setPriceValue(&row, phase, v)
			pm.Rows = append(pm.Rows, row)
		}
		return
	}

	value, vok := x.resolvePriceValue(r, ls, phase, pm)
	if !vok {
		return
	}

	row := model.PriceRow{EscalationModel: EscalationNone}
	if capTok := Token(ls, 1); capTok != "" && !IsCarryForward(capTok) {
		if _, capOK := TryParseNumber(capTok); capOK {
			row.Cap = capTok
		}
	}

	applyCutoff(x.ctx, r, ls, cur, &row.Schedule, model.KindPricing)
	if row.Schedule.Dates == nil && row.Schedule.CumVolume == nil {
		return // degenerate window dropped
	}
	x.setPriceValue(&row, phase, value)

	if row.Dates != nil {
		key := ConnectionKey{PropNum: x.ctx.PropNum, Scenario: x.ctx.ScenarioID, Keyword: strings.ToUpper(r.Keyword), ModelKind: model.KindPricing, Category: phase}
		row.EscalationModel = x.ctx.Escalations.Extract(key, Token(ls, 5), Token(ls, 6), row.Dates.StartDate, row.Dates.EndDate)
	}
	pm.Rows = append(pm.Rows, row)
}

// resolvePriceValue reads position 0, honoring the X carry-forward
// sentinel by copying the most recent dated row's value for the phase.
func (x *PricingExtractor) resolvePriceValue(r model.EconomicRecord, ls []string, phase string, pm *model.PhasePriceModel) (float64, bool) {
	tok := Token(ls, 0)
	if IsCarryForward(tok) {
		for i := len(pm.Rows) - 1; i >= 0; i-- {
			if _, v := pm.Rows[i].Value(); v != nil {
				return *v, true
			}
		}
		x.ctx.LogError(r, model.KindPricing, "carry-forward value with no prior segment")
		return 0, false
	}
	v, ok := TryParseNumber(tok)
	if !ok {
		x.ctx.LogError(r, model.KindPricing, "non-numeric price value "+tok)
		return 0, false
	}
	return v, true
}

// setPriceValue writes the unit-keyed value. Oil uses the renamed price
// field; gas converts to MMBtu pricing when a BTU row was seen.
func (x *PricingExtractor) setPriceValue(row *model.PriceRow, phase string, v float64) {
	switch phase {
	case model.PhaseOil:
		row.Price = model.F64(v)
	case model.PhaseGas:
		if x.BTUSeen {
			row.DollarPerMMBtu = model.F64(v)
		} else {
			row.DollarPerMcf = model.F64(v)
		}
	default:
		row.DollarPerBbl = model.F64(v)
	}
}

// applyCutoff interprets positions 3/4 as (value, duration unit) and fills
// the schedule. Unrecognized units log an error and fall back to LIFE.
// Returns true when the row is open-ended.
func applyCutoff(ctx *ExtractionContext, r model.EconomicRecord, ls []string, cur *segCursor, s *model.Schedule, modelName string) bool {
	unitTok := Token(ls, 4)
	kind, unit, known := ParseCutoffUnit(unitTok)
	if !known {
		if unitTok != "" {
			ctx.LogError(r, modelName, "unrecognized cutoff unit "+unitTok+", treating as LIFE")
		}
		kind = CutoffLife
	}

	switch kind {
	case CutoffLife:
		w := cur.openEnded()
		s.Dates = &w
		return true
	case CutoffMonths, CutoffIncrMonths, CutoffYears, CutoffIncrYears:
		v, numOK := TryParseNumber(Token(ls, 3))
		if !numOK {
			ctx.LogError(r, modelName, "non-numeric cutoff value, treating as LIFE")
			w := cur.openEnded()
			s.Dates = &w
			return true
		}
		var months int
		if kind == CutoffYears || kind == CutoffIncrYears {
			y, m := DayMonthYearFromDecimal(v)
			months = y*12 + m
		} else {
			months = int(v)
		}
		anchor := cur.anchor
		if kind == CutoffIncrMonths || kind == CutoffIncrYears {
			anchor = cur.cursor
		}
		end := EndOfMonth(OffsetMonths(anchor, months-1))
		if w, ok := cur.window(end); ok {
			s.Dates = &w
		}
		return false
	case CutoffAbsDate:
		t, err := ParseExpressionDate(Token(ls, 3))
		if err != nil {
			ctx.LogError(r, modelName, "unreadable absolute cutoff date, treating as LIFE")
			w := cur.openEnded()
			s.Dates = &w
			return true
		}
		if w, ok := cur.window(EndOfMonth(t)); ok {
			s.Dates = &w
		}
		return false
	case CutoffVolume:
		v, numOK := TryParseNumber(Token(ls, 3))
		if !numOK {
			ctx.LogError(r, modelName, "non-numeric cumulative cutoff")
			return false
		}
		s.CumVolume = &model.CumVolume{Unit: unit, Amount: v}
		return false
	case CutoffOilRate, CutoffGasRate:
		v, numOK := TryParseNumber(Token(ls, 3))
		if !numOK {
			ctx.LogError(r, modelName, "non-numeric rate cutoff")
			return false
		}
		rr := &model.RateRange{Start: v}
		if kind == CutoffOilRate {
			s.OilRate = rr
		} else {
			s.GasRate = rr
		}
		return false
	}
	return false
}

func (x *PricingExtractor) bucketFor(group, phase string, isPct bool) *diffBucket {
	for _, b := range x.buckets {
		if b.group == group && b.phase == phase {
			return b
		}
	}
	b := &diffBucket{group: group, phase: phase, isPct: isPct, cursor: newSegCursor(StartOfMonth(x.startDate))}
	x.buckets = append(x.buckets, b)
	return b
}

func (x *PricingExtractor) diffRow(r model.EconomicRecord, group string) {
	_, suffix, _ := strings.Cut(strings.ToUpper(r.Keyword), "/")
	phase, ok := phaseFromSuffix(suffix)
	if !ok || phase == model.PhaseWater {
		x.ctx.LogWarning(r, model.KindDifferentials, "unsupported differential phase "+suffix)
		return
	}
	ls, tok := x.ctx.Tokenize(r, model.KindDifferentials)
	if !tok {
		return
	}

	unit := strings.ToUpper(Token(ls, 2))
	isPct := unit == "%" || unit == "FRAC"
	b := x.bucketFor(group, phase, isPct)

	if idx, shift := findListMarker(ls); idx >= 0 {
		for _, v := range expandListValues(ls[:idx]) {
			end := EndOfMonth(OffsetMonths(b.cursor.cursor, shift-1))
			w, wok := b.cursor.window(end)
			if !wok {
				continue
			}
			row := model.DifferentialRow{EscalationModel: EscalationNone}
			row.Dates = &w
			x.setDiffValue(&row, phase, v, unit)
			b.rows = append(b.rows, row)
		}
		return
	}

	value, vok := x.resolveDiffValue(r, ls, b)
	if !vok {
		return
	}

	row := model.DifferentialRow{EscalationModel: EscalationNone}
	applyCutoff(x.ctx, r, ls, b.cursor, &row.Schedule, model.KindDifferentials)
	if row.Schedule.Dates == nil && row.Schedule.CumVolume == nil {
		return
	}
	x.setDiffValue(&row, phase, value, unit)

	if row.Dates != nil {
		key := ConnectionKey{PropNum: x.ctx.PropNum, Scenario: x.ctx.ScenarioID, Keyword: strings.ToUpper(r.Keyword), ModelKind: model.KindDifferentials, Category: phase}
		row.EscalationModel = x.ctx.Escalations.Extract(key, Token(ls, 5), Token(ls, 6), row.Dates.StartDate, row.Dates.EndDate)
	}
	b.rows = append(b.rows, row)
}

func (x *PricingExtractor) resolveDiffValue(r model.EconomicRecord, ls []string, b *diffBucket) (float64, bool) {
	tok := Token(ls, 0)
	if IsCarryForward(tok) {
		for i := len(b.rows) - 1; i >= 0; i-- {
			if _, v := b.rows[i].Value(); v != nil {
				return *v, true
			}
		}
		x.ctx.LogError(r, model.KindDifferentials, "carry-forward value with no prior segment")
		return 0, false
	}
	v, ok := TryParseNumber(tok)
	if !ok {
		x.ctx.LogError(r, model.KindDifferentials, "non-numeric differential value "+tok)
		return 0, false
	}
	return v, true
}

// setDiffValue writes the unit-keyed differential value. A literal zero
// percentage differential means "no change": full base price, 100.
func (x *PricingExtractor) setDiffValue(row *model.DifferentialRow, phase string, v float64, unit string) {
	if x.UseOilPriceAsBase {
		row.PctOfOilPrice = model.F64(v)
		return
	}
	switch unit {
	case "%", "FRAC":
		if unit == "FRAC" {
			v *= 100
		}
		if v == 0 {
			v = 100
		}
		row.PctOfBasePrice = model.F64(v)
	default:
		if phase == model.PhaseGas {
			if x.BTUSeen {
				row.DollarPerMMBtu = model.F64(v)
			} else {
				row.DollarPerMcf = model.F64(v)
			}
		} else {
			row.DollarPerBbl = model.F64(v)
		}
	}
}

// finalize folds buckets into at most three ordered differential slots,
// applies the project price backup, and splits off orphaned buckets.
func (x *PricingExtractor) finalize() *PricingResult {
	res := &PricingResult{Pricing: x.priceDoc}

	linePhases := make(map[string]bool)
	for _, b := range x.buckets {
		if len(b.rows) > 0 {
			linePhases[b.phase] = true
		}
	}

	backup := x.ctx.PriceBackup
	allPhases := []string{model.PhaseOil, model.PhaseGas, model.PhaseNGL, model.PhaseDripCondensate}
	if backup != nil && backup.CoversAllPhases(allPhases) {
		// Backup replaces differentials outright; line-level buckets are
		// preserved for audit under the orphan qualifier.
		res.BackupName = backup.Name
		if len(x.buckets) > 0 {
			res.OrphanDifferentials = x.foldBuckets(x.buckets)
		}
		return res
	}

	doc := x.foldBuckets(x.buckets)

	// Backup substitutes only the phases with no line-level differential.
	if backup != nil {
		slot := doc.Differentials.Slot(0)
		for _, phase := range allPhases {
			if linePhases[phase] {
				continue
			}
			v, ok := backup.Differentials[phase]
			if !ok {
				continue
			}
			row := model.DifferentialRow{EscalationModel: EscalationNone}
			row.Dates = &model.DateRange{StartDate: FormatDate(StartOfMonth(x.startDate)), EndDate: model.EconLimit}
			if phase == model.PhaseGas {
				row.DollarPerMcf = model.F64(v)
			} else {
				row.DollarPerBbl = model.F64(v)
			}
			slot.Phase(phase).Rows = append(slot.Phase(phase).Rows, row)
		}
	}

	if hasDifferentialRows(doc) {
		res.Differentials = doc
	}
	return res
}

// foldBuckets assigns buckets to slots: a percentage bucket always stands
// alone in its own slot; dollar buckets share a slot as long as the phase
// position is free.
func (x *PricingExtractor) foldBuckets(buckets []*diffBucket) *model.DifferentialsDocument {
	doc := DefaultDifferentials()
	type slotState struct {
		pctOnly bool
		used    map[string]bool
	}
	var slots []*slotState

	place := func(b *diffBucket) int {
		if !b.isPct {
			for i, s := range slots {
				if !s.pctOnly && !s.used[b.phase] {
					return i
				}
			}
		}
		slots = append(slots, &slotState{pctOnly: b.isPct, used: map[string]bool{}})
		return len(slots) - 1
	}

	for _, b := range buckets {
		if len(b.rows) == 0 {
			continue
		}
		i := place(b)
		if i >= 3 {
			x.ctx.Errors.Log("", "differential buckets exceed three slots, bucket dropped", x.ctx.ScenarioID, x.ctx.PropNum, model.KindDifferentials, model.SectionPrice, SeverityError)
			continue
		}
		slots[i].used[b.phase] = true
		dst := doc.Differentials.Slot(i).Phase(b.phase)
		dst.Rows = append(dst.Rows, b.rows...)
	}
	return doc
}

func hasDifferentialRows(doc *model.DifferentialsDocument) bool {
	for i := 0; i < 3; i++ {
		s := doc.Differentials.Slot(i)
		for _, phase := range []string{model.PhaseOil, model.PhaseGas, model.PhaseNGL, model.PhaseDripCondensate} {
			if len(s.Phase(phase).Rows) > 0 {
				return true
			}
		}
	}
	return false
}
