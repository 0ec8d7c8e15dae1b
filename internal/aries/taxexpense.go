package aries

import (
	"strings"
	"time"

	"github.com/sells-group/aries-import/internal/model"
)

// Variable-expense keyword routing. The category and default phase tables
// come from the legacy keyword grammar; a /PHASE suffix overrides the
// default phase.
var variableExpenseCategory = map[string]string{
	"CMP": model.ExpenseMarketing,
	"GPC": model.ExpenseProcessing,
	"GTC": model.ExpenseGathering,
	"LTC": model.ExpenseTransportation,
	"OPC": model.ExpenseOther,
	"TRC": model.ExpenseTransportation,
}

var variableDefaultPhase = map[string]string{
	"CMP": model.PhaseGas,
	"GPC": model.PhaseGas,
	"GTC": model.PhaseGas,
	"LTC": model.PhaseOil,
	"OPC": model.PhaseOil,
	"TRC": model.PhaseOil,
}

// Fixed-cost keywords claim generic monthly slots first-come-first-served.
// The /T variants of the variable keywords are flat monthly costs, not
// per-unit costs.
var fixedCostKeywords = map[string]bool{
	"OH":      true,
	"OH/T":    true,
	"OPC/T":   true,
	"CMP/T":   true,
	"GPC/T":   true,
	"GTC/T":   true,
	"LTC/T":   true,
	"TRC/T":   true,
	"MAINT":   true,
	"MAINT/T": true,
}

// overlayRow is a tax/expense segment parsed from an overlay-sequence
// record, staged until finalization so it can merge against base rows that
// may not exist yet at scan time.
type overlayRow struct {
	rec   model.EconomicRecord
	value float64
	unit  string
	sched model.Schedule
}

// TaxExpenseResult carries the two parallel documents a single pass
// produces. Either may be nil when the section held no rows for it.
type TaxExpenseResult struct {
	Taxes    *model.ProductionTaxesDocument
	Expenses *model.ExpensesDocument
}

// TaxExpenseExtractor interprets the tax-expense section in a single pass,
// producing production taxes and expenses together because one keyword can
// touch both documents.
type TaxExpenseExtractor struct {
	ctx *ExtractionContext

	startDate time.Time
	taxDoc    *model.ProductionTaxesDocument
	expDoc    *model.ExpensesDocument
	sawTax    bool
	sawExp    bool

	cursors map[string]*segCursor
	// slotByKeyword tracks which fixed slot each original keyword claimed.
	slotByKeyword map[string]string
	slotsClaimed  int

	// overlay-sequence rows staged under "{keyword}-overlay-{unit}".
	overlayRows map[string][]overlayRow
	overlayKeys []string
	// stxOverlayUnit remembers which unit an overlay used per severance
	// phase; the short-form STX shim rewrites base rows to match it.
	stxOverlayUnit map[string]string
}

func NewTaxExpenseExtractor(ctx *ExtractionContext) *TaxExpenseExtractor {
	return &TaxExpenseExtractor{
		ctx:            ctx,
		startDate:      ctx.BaseDate,
		taxDoc:         DefaultProductionTaxes(),
		expDoc:         DefaultExpenses(),
		cursors:        make(map[string]*segCursor),
		slotByKeyword:  make(map[string]string),
		overlayRows:    make(map[string][]overlayRow),
		stxOverlayUnit: make(map[string]string),
	}
}

// Name implements Extractor.
func (x *TaxExpenseExtractor) Name() string { return model.KindProductionTaxes }

// Extract scans the section and finalizes both documents.
func (x *TaxExpenseExtractor) Extract(records []model.EconomicRecord) *TaxExpenseResult {
	for _, r := range records {
		if r.IsOverlay() {
			x.stageOverlay(r)
			continue
		}
		x.dispatch(r)
	}
	return x.finalize()
}

func (x *TaxExpenseExtractor) dispatch(r model.EconomicRecord) {
	kw := strings.ToUpper(r.Keyword)
	base, suffix, _ := strings.Cut(kw, "/")

	switch {
	case kw == "START":
		x.applyStart(r)
	case kw == "TEXT":
		// annotation row
	case base == "WTR" || suffix == "WTR":
		x.waterRow(r)
	case base == "ATX":
		x.adValoremRow(r, suffix)
	case base == "STX" || base == "STD":
		x.severanceRow(r, suffix)
	case fixedCostKeywords[kw]:
		x.fixedRow(r, kw)
	case variableExpenseCategory[base] != "":
		x.variableRow(r, base, suffix)
	default:
		x.ctx.LogWarning(r, model.KindExpenses, "keyword not in tax-expense grammar, row ignored")
	}
}

func (x *TaxExpenseExtractor) applyStart(r model.EconomicRecord) {
	ls, ok := x.ctx.Tokenize(r, model.KindExpenses)
	if !ok {
		return
	}
	mmYYYY, ok := ReadStart(strings.Join(ls, " "), x.ctx.BaseDate)
	if !ok {
		x.ctx.LogWarning(r, model.KindExpenses, "unreadable START date, using base date")
		x.startDate = x.ctx.BaseDate
		return
	}
	if t, err := time.Parse("01/2006", mmYYYY); err == nil {
		x.startDate = t
	}
}

func (x *TaxExpenseExtractor) cursorFor(key string) *segCursor {
	if c, ok := x.cursors[key]; ok {
		return c
	}
	c := newSegCursor(StartOfMonth(x.startDate))
	x.cursors[key] = c
	return c
}

// taxUnitValue writes a tax value under its unit. family distinguishes the
// ad valorem dollars-per-month reading of $/M from severance's
// dollars-per-mcf reading.
func setTaxValue(row *model.TaxRow, unit, family, phase string, v float64) {
	switch strings.ToUpper(unit) {
	case "%", "":
		row.PctOfRevenue = model.F64(v)
	case "FRAC":
		row.PctOfRevenue = model.F64(v * 100)
	case "$/B":
		row.DollarPerBbl = model.F64(v)
	case "$/BOE":
		row.DollarPerBoe = model.F64(v)
	case "$/M":
		if family == "ad_valorem" {
			row.DollarPerMonth = model.F64(v)
		} else if phase == model.PhaseGas {
			row.DollarPerMcf = model.F64(v)
		} else {
			row.DollarPerBbl = model.F64(v)
		}
	default:
		row.PctOfRevenue = model.F64(v)
	}
}

func setExpenseValue(row *model.ExpenseRow, unit, phase string, v float64) {
	switch strings.ToUpper(unit) {
	case "%":
		row.PctOfRevenue = model.F64(v)
	case "FRAC":
		row.PctOfRevenue = model.F64(v * 100)
	case "$/B":
		row.DollarPerBbl = model.F64(v)
	case "$/M":
		row.DollarPerMcf = model.F64(v)
	case "$/MMBTU":
		row.DollarPerMMBtu = model.F64(v)
	default:
		if phase == model.PhaseGas {
			row.DollarPerMcf = model.F64(v)
		} else {
			row.DollarPerBbl = model.F64(v)
		}
	}
}

// lastTaxValue finds the carry-forward source for an X sentinel.
func lastTaxValue(rows []model.TaxRow) (float64, bool) {
	for i := len(rows) - 1; i >= 0; i-- {
		if _, v := rows[i].Value(); v != nil {
			return *v, true
		}
	}
	return 0, false
}

func lastExpenseValue(rows []model.ExpenseRow) (float64, bool) {
	for i := len(rows) - 1; i >= 0; i-- {
		if _, v := rows[i].Value(); v != nil {
			return *v, true
		}
	}
	return 0, false
}

func (x *TaxExpenseExtractor) adValoremRow(r model.EconomicRecord, suffix string) {
	ls, ok := x.ctx.Tokenize(r, model.KindProductionTaxes)
	if !ok {
		return
	}
	x.sawTax = true
	if suffix == "T" {
		// ATX/T taxes the working interest share.
		x.taxDoc.AdValoremTax.Calculation = model.CalcWI
	}
	cur := x.cursorFor("tax/ad_valorem")
	rows := &x.taxDoc.AdValoremTax.Rows

	if idx, shift := findListMarker(ls); idx >= 0 {
		for _, v := range expandListValues(ls[:idx]) {
			end := EndOfMonth(OffsetMonths(cur.cursor, shift-1))
			w, wok := cur.window(end)
			if !wok {
				continue
			}
			row := model.TaxRow{EscalationModel: EscalationNone}
			row.Dates = &w
			// time-based ad valorem list rows carry a flat monthly value
			row.DollarPerMonth = model.F64(v)
			*rows = append(*rows, row)
		}
		return
	}

	value, vok := x.taxValueAt(r, ls, *rows)
	if !vok {
		return
	}
	row := model.TaxRow{EscalationModel: EscalationNone}
	x.applyCap(ls, &row.Cap)
	applyCutoff(x.ctx, r, ls, cur, &row.Schedule, model.KindProductionTaxes)
	if !scheduleSet(row.Schedule) {
		return
	}
	setTaxValue(&row, Token(ls, 2), "ad_valorem", "", value)
	x.attachTaxEscalation(r, ls, &row, "ad_valorem")
	*rows = append(*rows, row)
}

func (x *TaxExpenseExtractor) severanceRow(r model.EconomicRecord, suffix string) {
	ls, ok := x.ctx.Tokenize(r, model.KindProductionTaxes)
	if !ok {
		return
	}
	x.sawTax = true

	phases := []string{model.PhaseOil, model.PhaseGas}
	if suffix != "" && suffix != "T" {
		phase, pok := phaseFromSuffix(suffix)
		if !pok || phase == model.PhaseWater {
			x.ctx.LogWarning(r, model.KindProductionTaxes, "unsupported severance phase "+suffix)
			return
		}
		phases = []string{phase}
	}

	for _, phase := range phases {
		pt := x.taxDoc.SeveranceTax.Phase(phase)
		cur := x.cursorFor("tax/severance/" + phase)

		if idx, shift := findListMarker(ls); idx >= 0 {
			for _, v := range expandListValues(ls[:idx]) {
				end := EndOfMonth(OffsetMonths(cur.cursor, shift-1))
				w, wok := cur.window(end)
				if !wok {
					continue
				}
				row := model.TaxRow{EscalationModel: EscalationNone}
				row.Dates = &w
				row.PctOfRevenue = model.F64(v)
				pt.Rows = append(pt.Rows, row)
			}
			continue
		}

		value, vok := x.taxValueAt(r, ls, pt.Rows)
		if !vok {
			return
		}
		row := model.TaxRow{EscalationModel: EscalationNone}
		x.applyCap(ls, &row.Cap)
		applyCutoff(x.ctx, r, ls, cur, &row.Schedule, model.KindProductionTaxes)
		if !scheduleSet(row.Schedule) {
			continue
		}
		setTaxValue(&row, Token(ls, 2), "severance", phase, value)
		x.attachTaxEscalation(r, ls, &row, "severance/"+phase)
		pt.Rows = append(pt.Rows, row)
	}
}

func (x *TaxExpenseExtractor) variableRow(r model.EconomicRecord, base, suffix string) {
	ls, ok := x.ctx.Tokenize(r, model.KindExpenses)
	if !ok {
		return
	}
	x.sawExp = true

	phase := variableDefaultPhase[base]
	if suffix != "" {
		if p, pok := phaseFromSuffix(suffix); pok && p != model.PhaseWater {
			phase = p
		}
	}
	category := variableExpenseCategory[base]
	bucket := x.expDoc.VariableExpenses.Phase(phase).Category(category)
	cur := x.cursorFor("exp/" + phase + "/" + category)

	if idx, shift := findListMarker(ls); idx >= 0 {
		for _, v := range expandListValues(ls[:idx]) {
			end := EndOfMonth(OffsetMonths(cur.cursor, shift-1))
			w, wok := cur.window(end)
			if !wok {
				continue
			}
			row := model.ExpenseRow{EscalationModel: EscalationNone}
			row.Dates = &w
			setExpenseValue(&row, "", phase, v)
			bucket.Rows = append(bucket.Rows, row)
		}
		return
	}

	value, vok := x.expenseValueAt(r, ls, bucket.Rows)
	if !vok {
		return
	}
	row := model.ExpenseRow{EscalationModel: EscalationNone}
	x.applyCap(ls, &row.Cap)
	applyCutoff(x.ctx, r, ls, cur, &row.Schedule, model.KindExpenses)
	if !scheduleSet(row.Schedule) {
		return
	}
	setExpenseValue(&row, Token(ls, 2), phase, value)
	x.attachExpenseEscalation(r, ls, &row, phase+"/"+category)
	bucket.Rows = append(bucket.Rows, row)
}

// fixedRow writes a flat monthly cost into the keyword's claimed slot,
// choosing a per-well unit when the well-count table says the keyword's
// phases are individually counted.
func (x *TaxExpenseExtractor) fixedRow(r model.EconomicRecord, kw string) {
	ls, ok := x.ctx.Tokenize(r, model.KindExpenses)
	if !ok {
		return
	}
	slot := x.claimSlot(r, kw)
	if slot == nil {
		return
	}
	x.sawExp = true
	cur := x.cursorFor("exp/fixed/" + slot.Slot)
	perWell := x.perWellFixedCost(kw)

	writeValue := func(row *model.ExpenseRow, v float64) {
		if perWell {
			row.FixedExpensePerWell = model.F64(v)
		} else {
			row.FixedExpense = model.F64(v)
		}
	}

	if idx, shift := findListMarker(ls); idx >= 0 {
		for _, v := range expandListValues(ls[:idx]) {
			end := EndOfMonth(OffsetMonths(cur.cursor, shift-1))
			w, wok := cur.window(end)
			if !wok {
				continue
			}
			row := model.ExpenseRow{EscalationModel: EscalationNone}
			row.Dates = &w
			writeValue(&row, v)
			slot.Rows = append(slot.Rows, row)
		}
		return
	}

	value, vok := x.expenseValueAt(r, ls, slot.Rows)
	if !vok {
		return
	}
	row := model.ExpenseRow{EscalationModel: EscalationNone}
	x.applyCap(ls, &row.Cap)
	applyCutoff(x.ctx, r, ls, cur, &row.Schedule, model.KindExpenses)
	if !scheduleSet(row.Schedule) {
		return
	}
	writeValue(&row, value)
	x.attachExpenseEscalation(r, ls, &row, "fixed/"+slot.Slot)
	slot.Rows = append(slot.Rows, row)
}

func (x *TaxExpenseExtractor) waterRow(r model.EconomicRecord) {
	ls, ok := x.ctx.Tokenize(r, model.KindExpenses)
	if !ok {
		return
	}
	x.sawExp = true
	wd := &x.expDoc.WaterDisposal
	cur := x.cursorFor("exp/water")

	if idx, shift := findListMarker(ls); idx >= 0 {
		for _, v := range expandListValues(ls[:idx]) {
			end := EndOfMonth(OffsetMonths(cur.cursor, shift-1))
			w, wok := cur.window(end)
			if !wok {
				continue
			}
			row := model.ExpenseRow{EscalationModel: EscalationNone}
			row.Dates = &w
			row.DollarPerBbl = model.F64(v)
			wd.Rows = append(wd.Rows, row)
		}
		return
	}

	value, vok := x.expenseValueAt(r, ls, wd.Rows)
	if !vok {
		return
	}
	row := model.ExpenseRow{EscalationModel: EscalationNone}
	x.applyCap(ls, &row.Cap)
	applyCutoff(x.ctx, r, ls, cur, &row.Schedule, model.KindExpenses)
	if !scheduleSet(row.Schedule) {
		return
	}
	row.DollarPerBbl = model.F64(value)
	x.attachExpenseEscalation(r, ls, &row, "water")
	wd.Rows = append(wd.Rows, row)
}

// claimSlot resolves the fixed slot for an original keyword, claiming the
// next free one on first use. A full assignment table is an error; the row
// is dropped rather than overwriting another keyword's slot.
func (x *TaxExpenseExtractor) claimSlot(r model.EconomicRecord, kw string) *model.FixedExpenseSlot {
	if name, ok := x.slotByKeyword[kw]; ok {
		return x.expDoc.FixedSlot(name)
	}
	if x.slotsClaimed >= len(fixedExpenseSlots) {
		x.ctx.LogError(r, model.KindExpenses, "all fixed expense slots claimed, row dropped")
		return nil
	}
	name := fixedExpenseSlots[x.slotsClaimed]
	x.slotsClaimed++
	x.slotByKeyword[kw] = name
	x.expDoc.FixedExpenses = append(x.expDoc.FixedExpenses, model.FixedExpenseSlot{
		Slot:        name,
		Description: kw,
		DealTerms:   1,
	})
	return x.expDoc.FixedSlot(name)
}

// perWellFixedCost reports whether the keyword's applicable phases carry
// explicit well counts while the competing phases carry none.
func (x *TaxExpenseExtractor) perWellFixedCost(kw string) bool {
	phases := []string{model.PhaseOil, model.PhaseGas}
	if _, suffix, ok := strings.Cut(kw, "/"); ok && suffix != "T" {
		if p, pok := phaseFromSuffix(suffix); pok {
			phases = []string{p}
		}
	}
	counted := false
	for _, p := range phases {
		if x.ctx.WellCountByPhase[p] > 0 {
			counted = true
		}
	}
	if !counted {
		return false
	}
	for p, n := range x.ctx.WellCountByPhase {
		if n == 0 {
			continue
		}
		applicable := false
		for _, ap := range phases {
			if p == ap {
				applicable = true
			}
		}
		if !applicable {
			return false
		}
	}
	return true
}

func (x *TaxExpenseExtractor) taxValueAt(r model.EconomicRecord, ls []string, rows []model.TaxRow) (float64, bool) {
	tok := Token(ls, 0)
	if IsCarryForward(tok) {
		if v, ok := lastTaxValue(rows); ok {
			return v, true
		}
		x.ctx.LogError(r, model.KindProductionTaxes, "carry-forward value with no prior segment")
		return 0, false
	}
	v, ok := TryParseNumber(tok)
	if !ok {
		x.ctx.LogError(r, model.KindProductionTaxes, "non-numeric tax value "+tok)
		return 0, false
	}
	return v, true
}

func (x *TaxExpenseExtractor) expenseValueAt(r model.EconomicRecord, ls []string, rows []model.ExpenseRow) (float64, bool) {
	tok := Token(ls, 0)
	if IsCarryForward(tok) {
		if v, ok := lastExpenseValue(rows); ok {
			return v, true
		}
		x.ctx.LogError(r, model.KindExpenses, "carry-forward value with no prior segment")
		return 0, false
	}
	v, ok := TryParseNumber(tok)
	if !ok {
		x.ctx.LogError(r, model.KindExpenses, "non-numeric expense value "+tok)
		return 0, false
	}
	return v, true
}

func (x *TaxExpenseExtractor) applyCap(ls []string, dst *string) {
	tok := Token(ls, 1)
	if tok == "" || IsCarryForward(tok) {
		return
	}
	if _, ok := TryParseNumber(tok); ok {
		*dst = tok
	}
}

func (x *TaxExpenseExtractor) attachTaxEscalation(r model.EconomicRecord, ls []string, row *model.TaxRow, category string) {
	if row.Dates == nil {
		return
	}
	key := ConnectionKey{PropNum: x.ctx.PropNum, Scenario: x.ctx.ScenarioID, Keyword: strings.ToUpper(r.Keyword), ModelKind: model.KindProductionTaxes, Category: category}
	row.EscalationModel = x.ctx.Escalations.Extract(key, Token(ls, 5), Token(ls, 6), row.Dates.StartDate, row.Dates.EndDate)
}

func (x *TaxExpenseExtractor) attachExpenseEscalation(r model.EconomicRecord, ls []string, row *model.ExpenseRow, category string) {
	if row.Dates == nil {
		return
	}
	key := ConnectionKey{PropNum: x.ctx.PropNum, Scenario: x.ctx.ScenarioID, Keyword: strings.ToUpper(r.Keyword), ModelKind: model.KindExpenses, Category: category}
	row.EscalationModel = x.ctx.Escalations.Extract(key, Token(ls, 5), Token(ls, 6), row.Dates.StartDate, row.Dates.EndDate)
}

func scheduleSet(s model.Schedule) bool {
	return s.Dates != nil || s.CumVolume != nil || s.OilRate != nil || s.GasRate != nil
}

// stageOverlay parses an overlay-sequence record into the side dictionary.
// Overlay rows may arrive before the base rows they scale, so they merge
// only at finalization.
func (x *TaxExpenseExtractor) stageOverlay(r model.EconomicRecord) {
	ls, ok := x.ctx.Tokenize(r, model.KindExpenses)
	if !ok {
		return
	}
	value, vok := TryParseNumber(Token(ls, 0))
	if !vok {
		x.ctx.LogError(r, model.KindExpenses, "non-numeric overlay value "+Token(ls, 0))
		return
	}
	unit := strings.ToUpper(Token(ls, 2))
	kw := strings.ToUpper(r.Keyword)
	key := kw + "-overlay-" + unit

	o := overlayRow{rec: r, value: value, unit: unit}
	cur := x.cursorFor("overlay/" + key)
	applyCutoff(x.ctx, r, ls, cur, &o.sched, model.KindExpenses)
	if !scheduleSet(o.sched) {
		return
	}

	if _, exists := x.overlayRows[key]; !exists {
		x.overlayKeys = append(x.overlayKeys, key)
	}
	x.overlayRows[key] = append(x.overlayRows[key], o)

	if base, suffix, _ := strings.Cut(kw, "/"); base == "STX" || base == "STD" {
		if phase, pok := phaseFromSuffix(suffix); pok {
			x.stxOverlayUnit[phase] = unit
		}
	}
}

// finalize merges staged overlays, applies the STX unit shim, collapses
// identical adjacent rows, reorders rate rows behind date rows, and
// converts dates to production offsets when the well's start is known.
func (x *TaxExpenseExtractor) finalize() *TaxExpenseResult {
	x.mergeOverlays()
	x.applySTXShim()

	x.taxDoc.AdValoremTax.Rows = finalizeTaxRows(x.ctx, x.taxDoc.AdValoremTax.Rows)
	for _, phase := range []string{model.PhaseOil, model.PhaseGas, model.PhaseNGL, model.PhaseDripCondensate} {
		pt := x.taxDoc.SeveranceTax.Phase(phase)
		pt.Rows = finalizeTaxRows(x.ctx, pt.Rows)
		pv := x.expDoc.VariableExpenses.Phase(phase)
		for _, cat := range []string{model.ExpenseGathering, model.ExpenseProcessing, model.ExpenseTransportation, model.ExpenseMarketing, model.ExpenseOther} {
			c := pv.Category(cat)
			c.Rows = finalizeExpenseRows(x.ctx, c.Rows)
		}
	}
	for i := range x.expDoc.FixedExpenses {
		x.expDoc.FixedExpenses[i].Rows = finalizeExpenseRows(x.ctx, x.expDoc.FixedExpenses[i].Rows)
	}
	x.expDoc.WaterDisposal.Rows = finalizeExpenseRows(x.ctx, x.expDoc.WaterDisposal.Rows)

	res := &TaxExpenseResult{}
	if x.sawTax {
		res.Taxes = x.taxDoc
	}
	if x.sawExp {
		res.Expenses = x.expDoc
	}
	return res
}

// mergeOverlays folds each staged overlay list into the document rows the
// keyword routes to, by date-range intersection. Overlapping base rows take
// the overlay value (last writer wins); an overlay with no intersecting
// base rows appends.
func (x *TaxExpenseExtractor) mergeOverlays() {
	for _, key := range x.overlayKeys {
		kw := strings.SplitN(key, "-overlay-", 2)[0]
		base, suffix, _ := strings.Cut(kw, "/")
		list := x.overlayRows[key]

		switch {
		case base == "ATX":
			x.sawTax = true
			x.taxDoc.AdValoremTax.Rows = mergeTaxOverlay(x.taxDoc.AdValoremTax.Rows, list, "ad_valorem")
		case base == "STX" || base == "STD":
			x.sawTax = true
			phases := []string{model.PhaseOil, model.PhaseGas}
			if p, pok := phaseFromSuffix(suffix); pok && p != model.PhaseWater {
				phases = []string{p}
			}
			for _, phase := range phases {
				pt := x.taxDoc.SeveranceTax.Phase(phase)
				pt.Rows = mergeTaxOverlay(pt.Rows, list, phase)
			}
		case variableExpenseCategory[base] != "":
			x.sawExp = true
			phase := variableDefaultPhase[base]
			if p, pok := phaseFromSuffix(suffix); pok && p != model.PhaseWater {
				phase = p
			}
			bucket := x.expDoc.VariableExpenses.Phase(phase).Category(variableExpenseCategory[base])
			bucket.Rows = mergeExpenseOverlay(bucket.Rows, list, phase)
		}
	}
}

func rangesIntersect(a, b *model.DateRange) bool {
	if a == nil || b == nil {
		return false
	}
	aEndsOpen := a.EndDate == model.EconLimit
	bEndsOpen := b.EndDate == model.EconLimit
	if !aEndsOpen && b.StartDate > a.EndDate {
		return false
	}
	if !bEndsOpen && a.StartDate > b.EndDate {
		return false
	}
	return true
}

func mergeTaxOverlay(rows []model.TaxRow, overlays []overlayRow, phase string) []model.TaxRow {
	family := "severance"
	if phase == "ad_valorem" {
		family = "ad_valorem"
	}
	for _, o := range overlays {
		hit := false
		for i := range rows {
			if rangesIntersect(rows[i].Dates, o.sched.Dates) {
				clearTaxValue(&rows[i])
				setTaxValue(&rows[i], o.unit, family, phase, o.value)
				hit = true
			}
		}
		if !hit {
			row := model.TaxRow{Schedule: o.sched, EscalationModel: EscalationNone}
			setTaxValue(&row, o.unit, family, phase, o.value)
			rows = append(rows, row)
		}
	}
	return rows
}

func mergeExpenseOverlay(rows []model.ExpenseRow, overlays []overlayRow, phase string) []model.ExpenseRow {
	for _, o := range overlays {
		hit := false
		for i := range rows {
			if rangesIntersect(rows[i].Dates, o.sched.Dates) {
				clearExpenseValue(&rows[i])
				setExpenseValue(&rows[i], o.unit, phase, o.value)
				hit = true
			}
		}
		if !hit {
			row := model.ExpenseRow{Schedule: o.sched, EscalationModel: EscalationNone}
			setExpenseValue(&row, o.unit, phase, o.value)
			rows = append(rows, row)
		}
	}
	return rows
}

func clearTaxValue(r *model.TaxRow) {
	r.PctOfRevenue, r.DollarPerMonth, r.DollarPerBbl, r.DollarPerMcf, r.DollarPerBoe = nil, nil, nil, nil, nil
}

func clearExpenseValue(r *model.ExpenseRow) {
	r.DollarPerBbl, r.DollarPerMcf, r.DollarPerMMBtu = nil, nil, nil
	r.PctOfRevenue, r.FixedExpense, r.FixedExpensePerWell = nil, nil, nil
}

// applySTXShim rewrites short-form severance rows whose unit disagrees
// with the unit the overlay actually specified for that phase. The value
// is preserved; only the field it lives under moves.
func (x *TaxExpenseExtractor) applySTXShim() {
	for phase, unit := range x.stxOverlayUnit {
		pt := x.taxDoc.SeveranceTax.Phase(phase)
		if pt == nil {
			continue
		}
		wantPct := unit == "%" || unit == "FRAC"
		for i := range pt.Rows {
			field, v := pt.Rows[i].Value()
			if v == nil {
				continue
			}
			isPct := field == "pct_of_revenue"
			if isPct == wantPct {
				continue
			}
			val := *v
			clearTaxValue(&pt.Rows[i])
			if wantPct {
				pt.Rows[i].PctOfRevenue = model.F64(val)
			} else {
				setTaxValue(&pt.Rows[i], "$/M", "severance", phase, val)
			}
		}
	}
}

// finalizeTaxRows collapses identical adjacent rows, moves rate-based rows
// behind date-based ones, and converts calendar windows to FPD offsets.
func finalizeTaxRows(ctx *ExtractionContext, rows []model.TaxRow) []model.TaxRow {
	if len(rows) == 0 {
		return rows
	}
	out := rows[:1]
	for _, r := range rows[1:] {
		last := &out[len(out)-1]
		if taxRowsMergeable(last, &r) {
			last.Dates.EndDate = r.Dates.EndDate
			continue
		}
		out = append(out, r)
	}
	out = orderTaxRows(out)
	if ctx.FPD != nil {
		for i := range out {
			convertToOffset(ctx, &out[i].Schedule)
		}
	}
	return out
}

func finalizeExpenseRows(ctx *ExtractionContext, rows []model.ExpenseRow) []model.ExpenseRow {
	if len(rows) == 0 {
		return rows
	}
	out := rows[:1]
	for _, r := range rows[1:] {
		last := &out[len(out)-1]
		if expenseRowsMergeable(last, &r) {
			last.Dates.EndDate = r.Dates.EndDate
			continue
		}
		out = append(out, r)
	}
	out = orderExpenseRows(out)
	if ctx.FPD != nil {
		for i := range out {
			convertToOffset(ctx, &out[i].Schedule)
		}
	}
	return out
}

func taxRowsMergeable(a, b *model.TaxRow) bool {
	if a.Dates == nil || b.Dates == nil || a.Dates.EndDate == model.EconLimit {
		return false
	}
	af, av := a.Value()
	bf, bv := b.Value()
	if af != bf || av == nil || bv == nil || *av != *bv {
		return false
	}
	if a.Cap != b.Cap || a.EscalationModel != b.EscalationModel {
		return false
	}
	next, err := NextDay(a.Dates.EndDate)
	return err == nil && next == b.Dates.StartDate
}

func expenseRowsMergeable(a, b *model.ExpenseRow) bool {
	if a.Dates == nil || b.Dates == nil || a.Dates.EndDate == model.EconLimit {
		return false
	}
	af, av := a.Value()
	bf, bv := b.Value()
	if af != bf || av == nil || bv == nil || *av != *bv {
		return false
	}
	if a.Cap != b.Cap || a.EscalationModel != b.EscalationModel {
		return false
	}
	next, err := NextDay(a.Dates.EndDate)
	return err == nil && next == b.Dates.StartDate
}

func orderTaxRows(rows []model.TaxRow) []model.TaxRow {
	dated := rows[:0:0]
	var rated []model.TaxRow
	for _, r := range rows {
		if r.IsRateBased() {
			rated = append(rated, r)
		} else {
			dated = append(dated, r)
		}
	}
	return append(dated, rated...)
}

func orderExpenseRows(rows []model.ExpenseRow) []model.ExpenseRow {
	dated := rows[:0:0]
	var rated []model.ExpenseRow
	for _, r := range rows {
		if r.IsRateBased() {
			rated = append(rated, r)
		} else {
			dated = append(dated, r)
		}
	}
	return append(dated, rated...)
}

// convertToOffset rewrites a bounded calendar window as 1-based month
// ordinals from the well's first production date. Open-ended and partial
// windows stay calendar-based.
func convertToOffset(ctx *ExtractionContext, s *model.Schedule) {
	if s.Dates == nil || s.Dates.EndDate == model.EconLimit {
		return
	}
	start, err1 := ParseISODate(s.Dates.StartDate)
	end, err2 := ParseISODate(s.Dates.EndDate)
	if err1 != nil || err2 != nil {
		return
	}
	fpd := *ctx.FPD
	so := MonthsBetween(fpd, start) + 1
	eo := MonthsBetween(fpd, end) + 1
	if so < 1 {
		return
	}
	s.OffsetToFPD = &model.PeriodRange{Start: so, End: eo, Period: eo - so + 1}
	s.Dates = nil
}
