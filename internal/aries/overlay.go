package aries

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/sells-group/aries-import/internal/model"
)

// WellModels is the per-(well, scenario) set of built documents the overlay
// pass reads and patches. Nil fields mean the primary builders produced no
// document of that kind.
type WellModels struct {
	Capex         *model.CapexDocument
	Taxes         *model.ProductionTaxesDocument
	Expenses      *model.ExpensesDocument
	Pricing       *model.PricingDocument
	Differentials *model.DifferentialsDocument
	Risking       *model.RiskingDocument
	Stream        *model.StreamPropertiesDocument
}

// ForecastNever marks a phase whose actual-vs-forecast replacement is
// disabled outright.
const ForecastNever = "never"

// OverlayResult carries the patched document set plus the forecast
// override map (phase -> replacement date or ForecastNever).
type OverlayResult struct {
	Models   *WellModels
	Forecast map[string]string
}

// dstState is the deduct-severance-tax detection ladder. The three
// conditions must arrive in order across consecutive overlay rows; any
// break resets to idle.
type dstState int

const (
	dstIdle dstState = iota
	dstSawExpense
	dstSawRevenue
)

type dstMachine struct {
	state      dstState
	refKeyword string
	phase      string
	category   string
}

func (m *dstMachine) reset() { *m = dstMachine{} }

// advance feeds one overlay row through the ladder. It returns true when
// the third condition lands; the caller marks the target and the machine
// resets.
func (m *dstMachine) advance(kw string, ls []string) bool {
	base, suffix, _ := strings.Cut(kw, "/")
	last := Token(ls, len(ls)-1)
	hasMul := false
	for _, tok := range ls {
		if strings.EqualFold(tok, "MUL") {
			hasMul = true
			break
		}
	}

	switch m.state {
	case dstIdle:
		if variableExpenseCategory[base] != "" && hasMul && endsOpen(ls) {
			phase := variableDefaultPhase[base]
			if p, ok := phaseFromSuffix(suffix); ok && p != model.PhaseWater {
				phase = p
			}
			m.state = dstSawExpense
			m.refKeyword = strings.ToUpper(last)
			m.phase = phase
			m.category = variableExpenseCategory[base]
		}
	case dstSawExpense:
		if strings.EqualFold(kw, m.refKeyword) && hasMul {
			m.state = dstSawRevenue
			m.refKeyword = strings.ToUpper(last)
			return false
		}
		m.reset()
	case dstSawRevenue:
		if (base == "STX" || base == "STD") && hasMul {
			p, _ := phaseFromSuffix(suffix)
			refHit := false
			for _, tok := range ls {
				if strings.EqualFold(tok, m.refKeyword) {
					refHit = true
					break
				}
			}
			if p == m.phase && refHit {
				return true
			}
		}
		m.reset()
	}
	return false
}

// endsOpen reports whether the expression's cutoff runs to life.
func endsOpen(ls []string) bool {
	for _, tok := range ls {
		if strings.EqualFold(tok, "LIFE") {
			return true
		}
	}
	return false
}

// OverlayResolver applies the section-9 keyword-driven patches to a
// well/scenario's already-built documents. Each sub-model kind has a
// copy-on-first-write cache keyed by (scenario, well); the originals are
// never mutated, so a well sharing a deduplicated document with other
// wells detaches onto its own patched copy at save time.
type OverlayResolver struct {
	ctx  *ExtractionContext
	base *WellModels

	taxCache    map[model.WellKey]*model.ProductionTaxesDocument
	expCache    map[model.WellKey]*model.ExpensesDocument
	priceCache  map[model.WellKey]*model.PricingDocument
	diffCache   map[model.WellKey]*model.DifferentialsDocument
	riskCache   map[model.WellKey]*model.RiskingDocument
	streamCache map[model.WellKey]*model.StreamPropertiesDocument

	dst      dstMachine
	forecast map[string]string
}

func NewOverlayResolver(ctx *ExtractionContext, base *WellModels) *OverlayResolver {
	return &OverlayResolver{
		ctx:         ctx,
		base:        base,
		taxCache:    make(map[model.WellKey]*model.ProductionTaxesDocument),
		expCache:    make(map[model.WellKey]*model.ExpensesDocument),
		priceCache:  make(map[model.WellKey]*model.PricingDocument),
		diffCache:   make(map[model.WellKey]*model.DifferentialsDocument),
		riskCache:   make(map[model.WellKey]*model.RiskingDocument),
		streamCache: make(map[model.WellKey]*model.StreamPropertiesDocument),
		forecast:    make(map[string]string),
	}
}

// clonePatch deep-copies a document through its JSON form and stamps a
// fresh id, since a patched copy is a new document for dedup purposes. The
// well-set is deliberately not carried over.
func clonePatch[D model.Document](src D, dst D) D {
	b, err := json.Marshal(src)
	if err == nil {
		_ = json.Unmarshal(b, dst)
	}
	dst.Meta().ID = uuid.NewString()
	dst.Meta().Wells = nil
	return dst
}

func (o *OverlayResolver) taxes() *model.ProductionTaxesDocument {
	k := o.ctx.Key()
	if d, ok := o.taxCache[k]; ok {
		return d
	}
	if o.base.Taxes == nil {
		o.base.Taxes = DefaultProductionTaxes()
	}
	d := clonePatch(o.base.Taxes, &model.ProductionTaxesDocument{})
	o.taxCache[k] = d
	return d
}

func (o *OverlayResolver) expenses() *model.ExpensesDocument {
	k := o.ctx.Key()
	if d, ok := o.expCache[k]; ok {
		return d
	}
	if o.base.Expenses == nil {
		o.base.Expenses = DefaultExpenses()
	}
	d := clonePatch(o.base.Expenses, &model.ExpensesDocument{})
	o.expCache[k] = d
	return d
}

func (o *OverlayResolver) pricing() *model.PricingDocument {
	k := o.ctx.Key()
	if d, ok := o.priceCache[k]; ok {
		return d
	}
	if o.base.Pricing == nil {
		o.base.Pricing = DefaultPricing()
	}
	d := clonePatch(o.base.Pricing, &model.PricingDocument{})
	o.priceCache[k] = d
	return d
}

func (o *OverlayResolver) differentials() *model.DifferentialsDocument {
	k := o.ctx.Key()
	if d, ok := o.diffCache[k]; ok {
		return d
	}
	if o.base.Differentials == nil {
		return nil
	}
	d := clonePatch(o.base.Differentials, &model.DifferentialsDocument{})
	o.diffCache[k] = d
	return d
}

func (o *OverlayResolver) risking() *model.RiskingDocument {
	k := o.ctx.Key()
	if d, ok := o.riskCache[k]; ok {
		return d
	}
	if o.base.Risking == nil {
		o.base.Risking = DefaultRisking()
	}
	d := clonePatch(o.base.Risking, &model.RiskingDocument{})
	o.riskCache[k] = d
	return d
}

func (o *OverlayResolver) stream() *model.StreamPropertiesDocument {
	k := o.ctx.Key()
	if d, ok := o.streamCache[k]; ok {
		return d
	}
	if o.base.Stream == nil {
		o.base.Stream = DefaultStreamProperties()
	}
	d := clonePatch(o.base.Stream, &model.StreamPropertiesDocument{})
	o.streamCache[k] = d
	return d
}

// Apply runs the overlay pass and returns the patched model set. Documents
// the pass never touched come back as the originals.
func (o *OverlayResolver) Apply(records []model.EconomicRecord) *OverlayResult {
	for _, r := range records {
		o.dispatch(r)
	}

	out := *o.base
	k := o.ctx.Key()
	if d, ok := o.taxCache[k]; ok {
		out.Taxes = d
	}
	if d, ok := o.expCache[k]; ok {
		out.Expenses = d
	}
	if d, ok := o.priceCache[k]; ok {
		out.Pricing = d
	}
	if d, ok := o.diffCache[k]; ok {
		out.Differentials = d
	}
	if d, ok := o.riskCache[k]; ok {
		out.Risking = d
	}
	if d, ok := o.streamCache[k]; ok {
		out.Stream = d
	}
	return &OverlayResult{Models: &out, Forecast: o.forecast}
}

// cleanKeyword strips the stream-reference prefix from an overlay keyword.
func cleanKeyword(kw string) string {
	kw = strings.ToUpper(strings.TrimSpace(kw))
	return strings.TrimPrefix(kw, "S/")
}

func (o *OverlayResolver) dispatch(r model.EconomicRecord) {
	kw := cleanKeyword(r.Keyword)
	ls, ok := o.ctx.Tokenize(r, "overlay")
	if !ok {
		return
	}

	if o.dst.advance(kw, ls) {
		bucket := o.expenses().VariableExpenses.Phase(o.dst.phase).Category(o.dst.category)
		bucket.DeductBeforeSevTax = "yes"
		o.dst.reset()
		return
	}

	base, suffix, _ := strings.Cut(kw, "/")
	switch {
	case base == "LOAD":
		o.forecastOverride(r, ls)
	case base == "NGL" || base == "CND" || base == "COND":
		o.yieldOverlay(r, ls, base, kw)
	case base == "SHK" || base == "SHRINK":
		o.shrinkOverlay(r, ls)
	case base == "WRK" || base == "WORKOVER":
		o.workoverOverlay(r, ls)
	case base == "ATX":
		o.adValoremOverlay(r, ls)
	case base == "STX" || base == "STD":
		o.severanceOverlay(r, ls, suffix)
	case base == "PRI" || base == "PAD" || base == "PAJ":
		o.priceOverlay(r, ls, suffix)
	case base == "RISK":
		o.riskOverlay(r, ls, suffix)
	case variableExpenseCategory[base] != "":
		o.expenseOverlay(r, ls, base, suffix)
	default:
		o.ctx.LogWarning(r, "overlay", "keyword not in overlay grammar, row ignored")
	}
}

// forecastOverride records a LOAD row: a phase plus either a replacement
// date or NEVER.
func (o *OverlayResolver) forecastOverride(r model.EconomicRecord, ls []string) {
	phase, ok := phaseFromSuffix(Token(ls, 0))
	if !ok {
		o.ctx.LogWarning(r, "overlay", "forecast override with unknown phase, row ignored")
		return
	}
	arg := Token(ls, 1)
	if strings.EqualFold(arg, "NEVER") {
		o.forecast[phase] = ForecastNever
		return
	}
	t, err := ParseExpressionDate(arg)
	if err != nil {
		o.ctx.LogError(r, "overlay", "unreadable forecast override date "+arg)
		return
	}
	o.forecast[phase] = FormatDate(t)
}

// yieldOverlay appends a computed yield row. The sales-NGL detour: when
// the value read as a shrink percentage matches an already-recorded gas
// shrinkage row, the overlay reclassifies the existing yield rows to the
// shrunk-gas basis instead of adding data.
func (o *OverlayResolver) yieldOverlay(r model.EconomicRecord, ls []string, base, kw string) {
	v, numOK := TryParseNumber(Token(ls, 0))
	if !numOK {
		o.ctx.LogError(r, "overlay", "non-numeric yield overlay value "+Token(ls, 0))
		return
	}

	if strings.Contains(kw, "SALES") {
		st := o.stream()
		shrinkPct := v * 100
		for _, sr := range st.Shrinkage.Gas.Rows {
			if sr.PctRemaining == shrinkPct {
				for i := range st.Yields.NGL.Rows {
					st.Yields.NGL.Rows[i].ShrunkGas = model.GasShrunk
				}
				return
			}
		}
	}

	st := o.stream()
	row := model.YieldRow{YieldValue: v, ShrunkGas: model.GasUnshrunk}
	row.Dates = &model.DateRange{StartDate: FormatDate(StartOfMonth(o.ctx.BaseDate)), EndDate: model.EconLimit}
	if base == "NGL" {
		st.Yields.NGL.Rows = append(st.Yields.NGL.Rows, row)
	} else {
		st.Yields.DripCondensate.Rows = append(st.Yields.DripCondensate.Rows, row)
	}
}

// shrinkOverlay multiplies the existing gas shrinkage percentages.
func (o *OverlayResolver) shrinkOverlay(r model.EconomicRecord, ls []string) {
	v, numOK := TryParseNumber(Token(ls, 0))
	if !numOK {
		o.ctx.LogError(r, "overlay", "non-numeric shrink overlay value "+Token(ls, 0))
		return
	}
	st := o.stream()
	if len(st.Shrinkage.Gas.Rows) == 0 {
		row := model.ShrinkageRow{PctRemaining: v * 100}
		row.Dates = &model.DateRange{StartDate: FormatDate(StartOfMonth(o.ctx.BaseDate)), EndDate: model.EconLimit}
		st.Shrinkage.Gas.Rows = append(st.Shrinkage.Gas.Rows, row)
		return
	}
	for i := range st.Shrinkage.Gas.Rows {
		st.Shrinkage.Gas.Rows[i].PctRemaining *= v
	}
}

// workoverOverlay copies the entire-well-life fixed cost into a new slot
// scaled by the overlay multiplier.
func (o *OverlayResolver) workoverOverlay(r model.EconomicRecord, ls []string) {
	v, numOK := TryParseNumber(Token(ls, 0))
	if !numOK {
		o.ctx.LogError(r, "overlay", "non-numeric workover multiplier "+Token(ls, 0))
		return
	}
	exp := o.expenses()

	var src *model.FixedExpenseSlot
	for i := range exp.FixedExpenses {
		for _, row := range exp.FixedExpenses[i].Rows {
			if row.Dates != nil && row.Dates.EndDate == model.EconLimit {
				src = &exp.FixedExpenses[i]
				break
			}
		}
		if src != nil {
			break
		}
	}
	if src == nil {
		o.ctx.LogWarning(r, "overlay", "workover overlay with no life-spanning fixed cost, row ignored")
		return
	}
	if len(exp.FixedExpenses) >= len(fixedExpenseSlots) {
		o.ctx.LogError(r, "overlay", "all fixed expense slots claimed, workover overlay dropped")
		return
	}
	slot := model.FixedExpenseSlot{
		Slot:        fixedExpenseSlots[len(exp.FixedExpenses)],
		Description: "WRK",
		DealTerms:   src.DealTerms * v,
		Rows:        append([]model.ExpenseRow(nil), src.Rows...),
	}
	exp.FixedExpenses = append(exp.FixedExpenses, slot)
}

// adValoremOverlay either multiplies the existing ad valorem rates, or,
// for the stream-861 form with a sub-1 leading value, replaces every row
// with the literal percentage and stops deducting severance tax.
func (o *OverlayResolver) adValoremOverlay(r model.EconomicRecord, ls []string) {
	v, numOK := TryParseNumber(Token(ls, 0))
	if !numOK {
		o.ctx.LogError(r, "overlay", "non-numeric ad valorem overlay value "+Token(ls, 0))
		return
	}
	tax := o.taxes()

	ref861 := false
	for _, tok := range ls {
		if tok == "861" || strings.EqualFold(tok, "S/861") {
			ref861 = true
			break
		}
	}
	if ref861 && v < 1 {
		pct := v * 100
		row := model.TaxRow{EscalationModel: EscalationNone, PctOfRevenue: model.F64(pct)}
		row.Dates = &model.DateRange{StartDate: FormatDate(StartOfMonth(o.ctx.BaseDate)), EndDate: model.EconLimit}
		tax.AdValoremTax.Rows = []model.TaxRow{row}
		tax.AdValoremTax.DeductSeveranceTax = "no"
		return
	}

	for i := range tax.AdValoremTax.Rows {
		if _, val := tax.AdValoremTax.Rows[i].Value(); val != nil {
			*val *= v
		}
	}
}

// severanceOverlay multiplies the phase's severance rates by the scalar.
func (o *OverlayResolver) severanceOverlay(r model.EconomicRecord, ls []string, suffix string) {
	v, numOK := TryParseNumber(Token(ls, 0))
	if !numOK {
		o.ctx.LogError(r, "overlay", "non-numeric severance overlay value "+Token(ls, 0))
		return
	}
	tax := o.taxes()
	phases := []string{model.PhaseOil, model.PhaseGas}
	if p, ok := phaseFromSuffix(suffix); ok && p != model.PhaseWater {
		phases = []string{p}
	}
	for _, phase := range phases {
		pt := tax.SeveranceTax.Phase(phase)
		for i := range pt.Rows {
			if _, val := pt.Rows[i].Value(); val != nil {
				*val *= v
			}
		}
	}
}

// priceOverlay applies a percentage multiplier to the price side: a
// pass-through percentage differential absorbs it directly; otherwise the
// price model's unit-keyed values scale in place.
func (o *OverlayResolver) priceOverlay(r model.EconomicRecord, ls []string, suffix string) {
	v, numOK := TryParseNumber(Token(ls, 0))
	if !numOK {
		o.ctx.LogError(r, "overlay", "non-numeric price overlay value "+Token(ls, 0))
		return
	}
	phase, ok := phaseFromSuffix(suffix)
	if !ok || phase == model.PhaseWater {
		o.ctx.LogWarning(r, "overlay", "price overlay with unknown phase, row ignored")
		return
	}

	if diff := o.differentials(); diff != nil {
		if rows := passThroughDiffRows(diff, phase); rows != nil {
			for i := range rows {
				if rows[i].PctOfBasePrice != nil {
					*rows[i].PctOfBasePrice *= v
				}
			}
			return
		}
	}

	price := o.pricing()
	pm := price.PriceModel.Phase(phase)
	for i := range pm.Rows {
		if _, val := pm.Rows[i].Value(); val != nil {
			*val *= v
		}
	}
}

// passThroughDiffRows returns the phase's percentage rows when every one
// of them is a pass-through (100%) default, else nil.
func passThroughDiffRows(diff *model.DifferentialsDocument, phase string) []model.DifferentialRow {
	for i := 0; i < 3; i++ {
		rows := diff.Differentials.Slot(i).Phase(phase).Rows
		if len(rows) == 0 {
			continue
		}
		allPass := true
		for _, row := range rows {
			if row.PctOfBasePrice == nil || *row.PctOfBasePrice != 100 {
				allPass = false
				break
			}
		}
		if allPass {
			return rows
		}
	}
	return nil
}

// riskOverlay folds a computed risk multiplier against the phase's rows.
func (o *OverlayResolver) riskOverlay(r model.EconomicRecord, ls []string, suffix string) {
	v, numOK := TryParseNumber(Token(ls, 0))
	if !numOK {
		o.ctx.LogError(r, "overlay", "non-numeric risk overlay value "+Token(ls, 0))
		return
	}
	phase, ok := phaseFromSuffix(suffix)
	if !ok {
		o.ctx.LogWarning(r, "overlay", "risk overlay with unknown phase, row ignored")
		return
	}
	if strings.EqualFold(Token(ls, 2), "%") {
		v /= 100
	}
	risk := o.risking()
	row := model.RiskRow{Multiplier: v}
	row.Dates = &model.DateRange{StartDate: FormatDate(StartOfMonth(o.ctx.BaseDate)), EndDate: model.EconLimit}
	pr := risk.Risking.Phase(phase)
	pr.Rows = foldRiskRows(pr.Rows, row)
}

// expenseOverlay adjusts an existing expense bucket: a trailing MUL pair
// scales the deal terms; an ownership-basis token switches the calculation
// basis and may flip the shrinkage condition.
func (o *OverlayResolver) expenseOverlay(r model.EconomicRecord, ls []string, base, suffix string) {
	phase := variableDefaultPhase[base]
	if p, ok := phaseFromSuffix(suffix); ok && p != model.PhaseWater {
		phase = p
	}
	bucket := o.expenses().VariableExpenses.Phase(phase).Category(variableExpenseCategory[base])

	if len(ls) >= 2 && strings.EqualFold(ls[len(ls)-2], "MUL") {
		v, numOK := TryParseNumber(Token(ls, 0))
		if !numOK {
			o.ctx.LogError(r, "overlay", "non-numeric expense overlay multiplier "+Token(ls, 0))
			return
		}
		bucket.DealTerms *= v
		return
	}

	if basis, shrink, ok := ownershipBasis(ls); ok {
		bucket.Calculation = basis
		if shrink != "" {
			bucket.ShrinkageCondition = shrink
		}
		return
	}

	o.ctx.LogWarning(r, "overlay", "expense overlay with unrecognized form, row ignored")
}

// ownershipBasis scans for a calculation-basis token and an optional
// shrink flag.
func ownershipBasis(ls []string) (basis, shrink string, ok bool) {
	for _, tok := range ls {
		switch strings.ToUpper(tok) {
		case "WI":
			basis, ok = model.CalcWI, true
		case "NRI", "NET":
			basis, ok = model.CalcNRI, true
		case "1-WI", "100-WI":
			basis, ok = model.CalcOneMinusWI, true
		case "SHK":
			shrink = model.GasShrunk
		case "UNSHK":
			shrink = model.GasUnshrunk
		}
	}
	return basis, shrink, ok
}
