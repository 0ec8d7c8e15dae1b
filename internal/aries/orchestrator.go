package aries

import (
	"runtime/debug"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/aries-import/internal/model"
)

// Extractor is the capability every row builder exposes to the
// orchestrator. Concrete builders keep their own typed Extract methods;
// the interface is for naming and dispatch bookkeeping only.
type Extractor interface {
	Name() string
}

// ProjectSettings carries the batch-level inputs shared by every well:
// identity, project dates, lookup tables, backups, and policy constants.
type ProjectSettings struct {
	ScenarioID      string
	BaseDate        time.Time
	AsOfDate        time.Time
	DefaultLeaseNRI float64

	Lookups           *LookupTables
	CustomEscalations []CustomEscalation
	OwnershipBackup   *OwnershipBackup
	PriceBackup       *PriceBackup

	// UseOilPriceAsBase writes differentials as pct_of_oil_price instead
	// of the dollar/percent unit table.
	UseOilPriceAsBase bool
}

// / WellInput is one well's slice of the batch: its economic lines across
// all sections plus the per-well seeds the builders need.
type WellInput struct {
	PropNum   string
	Qualifier string
	Records   []model.EconomicRecord
	// FPD enables offset-based schedules in finalization when known.
	FPD *time.Time
	// WellCountByPhase is regenerated per well; stale counts from a
	// previous well must never leak into fixed-expense unit decisions.
	WellCountByPhase map[string]int
}

// BatchResult is the finalized output of a batch run: the deduplicated
// document lists per kind, the escalation registry, per-well forecast
// overrides, and the accumulated import errors.
type BatchResult struct {
	Capex         []*model.CapexDocument
	Ownership     []*model.OwnershipDocument
	Pricing       []*model.PricingDocument
	Differentials []*model.DifferentialsDocument
	Taxes         []*model.ProductionTaxesDocument
	Expenses      []*model.ExpensesDocument
	Risking       []*model.RiskingDocument
	Stream        []*model.StreamPropertiesDocument
	Escalations   []*model.EscalationDocument

	Forecast map[model.WellKey]map[string]string
	Errors   []ImportError

	// PriceBackupName is the policy document named when a full-coverage
	// price backup replaced line-level differentials.
	PriceBackupName string
}

// orphanScenarioSuffix marks the alternate scenario that keeps differential
// buckets displaced by a full-coverage price backup. The orphan document
// never joins the primary scenario.
const orphanScenarioSuffix = "-orphan"

// Orchestrator drives the per-well builder pipeline and owns the
// project-scoped accumulators: the dedup lists, the escalation registry,
// and the error log. Wells are processed one at a time; callers wanting
// parallelism shard whole wells across orchestrators, never inside one.
type Orchestrator struct {
	settings    ProjectSettings
	errors      *ErrorLog
	escalations *EscalationExtractor

	capex         DocumentList[*model.CapexDocument]
	ownership     DocumentList[*model.OwnershipDocument]
	pricing       DocumentList[*model.PricingDocument]
	differentials DocumentList[*model.DifferentialsDocument]
	taxes         DocumentList[*model.ProductionTaxesDocument]
	expenses      DocumentList[*model.ExpensesDocument]
	risking       DocumentList[*model.RiskingDocument]
	stream        DocumentList[*model.StreamPropertiesDocument]

	forecast        map[model.WellKey]map[string]string
	priceBackupName string
}

func NewOrchestrator(settings ProjectSettings) *Orchestrator {
	if settings.Lookups == nil {
		settings.Lookups = &LookupTables{}
	}
	errs := &ErrorLog{}
	return &Orchestrator{
		settings:    settings,
		errors:      errs,
		escalations: NewEscalationExtractor(settings.CustomEscalations, errs),
		forecast:    make(map[model.WellKey]map[string]string),
	}
}

// Errors exposes the batch error log for callers that report mid-run.
func (o *Orchestrator) Errors() *ErrorLog { return o.errors }

// ownershipKeywords are the section-2 keywords routed to the ownership
// builder; the rest of section 2 belongs to the stream builder.
var ownershipKeywords = map[string]bool{
	"NET": true, "LSE": true, "OWN": true, "LOSS": true, "OPNET": true,
}

// wellSections is one well's records split into the five builder scopes.
type wellSections struct {
	ownership []model.EconomicRecord
	stream    []model.EconomicRecord
	price     []model.EconomicRecord
	tax       []model.EconomicRecord
	capex     []model.EconomicRecord
	overlay   []model.EconomicRecord
}

// splitSections groups a well's records by consuming builder. Section 2 is
// shared between ownership and stream; its rows are routed by keyword, with
// control rows (START, TEXT) duplicated to both scans.
func splitSections(records []model.EconomicRecord) wellSections {
	var s wellSections
	for _, r := range records {
		if r.IsOverlay() {
			s.overlay = append(s.overlay, r)
			continue
		}
		switch r.Section {
		case model.SectionMisc:
			base, _, _ := strings.Cut(strings.ToUpper(r.Keyword), "/")
			switch {
			case ownershipKeywords[base]:
				s.ownership = append(s.ownership, r)
			case base == "START" || base == "TEXT":
				s.ownership = append(s.ownership, r)
				s.stream = append(s.stream, r)
			default:
				s.stream = append(s.stream, r)
			}
		case model.SectionOwnership:
			s.ownership = append(s.ownership, r)
		case model.SectionStream:
			s.stream = append(s.stream, r)
		case model.SectionPrice:
			s.price = append(s.price, r)
		case model.SectionTax:
			// Salvage and abandonment lines booked in the tax-expense
			// section are still capex rows (SALV there is a credit).
			if _, capexKw := capexCategories[strings.ToUpper(r.Keyword)]; capexKw {
				s.capex = append(s.capex, r)
			} else {
				s.tax = append(s.tax, r)
			}
		case model.SectionCapex:
			s.capex = append(s.capex, r)
		}
	}
	return s
}

// runDomain executes one builder pass under a recover wrapper so a
// programmer error in one domain never blocks the others for the well.
func (o *Orchestrator) runDomain(well, domain string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("builder panic recovered",
				zap.String("well", well),
				zap.String("model", domain),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			o.errors.Log("", "unexpected failure, model skipped", o.settings.ScenarioID, well, domain, 0, SeverityError)
		}
	}()
	fn()
}

// ProcessWell runs the full builder pipeline for one well: section split,
// the five primary builders in fixed order, the overlay pass, and document
// registration. One well's failure reduces completeness, never the batch.
func (o *Orchestrator) ProcessWell(in WellInput) {
	ctx := o.newContext(in)
	key := ctx.Key()
	secs := splitSections(in.Records)

	base := &WellModels{}

	o.runDomain(in.PropNum, model.KindOwnership, func() {
		if doc := NewOwnershipExtractor(ctx).Extract(secs.ownership); doc != nil {
			if _, err := o.ownership.CompareAndSave(doc, key); err != nil {
				o.errors.Log("", "ownership save failed: "+err.Error(), ctx.ScenarioID, in.PropNum, model.KindOwnership, 0, SeverityError)
			}
		}
	})

	o.runDomain(in.PropNum, model.KindStreamProperties, func() {
		res := NewStreamExtractor(ctx).Extract(secs.stream)
		base.Risking = o.saveRisking(ctx, res.Risking, key)
		base.Stream = o.saveStream(ctx, res.Stream, key)
	})

	o.runDomain(in.PropNum, model.KindPricing, func() {
		res := NewPricingExtractor(ctx).Extract(secs.price)
		base.Pricing = o.savePricing(ctx, res.Pricing, key)
		base.Differentials = o.saveDifferentials(ctx, res.Differentials, key)
		if res.BackupName != "" {
			o.priceBackupName = res.BackupName
		}
		if res.OrphanDifferentials != nil {
			orphanKey := model.WellKey{ScenarioID: ctx.ScenarioID + orphanScenarioSuffix, WellID: in.PropNum}
			if _, err := o.differentials.CompareAndSave(res.OrphanDifferentials, orphanKey); err != nil {
				o.errors.Log("", "orphan differentials save failed: "+err.Error(), ctx.ScenarioID, in.PropNum, model.KindDifferentials, 0, SeverityError)
			}
		}
	})

	o.runDomain(in.PropNum, model.KindExpenses, func() {
		res := NewTaxExpenseExtractor(ctx).Extract(secs.tax)
		base.Taxes = o.saveTaxes(ctx, res.Taxes, key)
		base.Expenses = o.saveExpenses(ctx, res.Expenses, key)
	})

	o.runDomain(in.PropNum, model.KindCapex, func() {
		if doc := NewCapexExtractor(ctx).Extract(secs.capex); doc != nil {
			capex := doc.(*model.CapexDocument)
			if saved, err := o.capex.CompareAndSave(capex, key); err != nil {
				o.errors.Log("", "capex save failed: "+err.Error(), ctx.ScenarioID, in.PropNum, model.KindCapex, 0, SeverityError)
			} else {
				base.Capex = saved
			}
		}
	})

	if len(secs.overlay) > 0 {
		o.runDomain(in.PropNum, "overlay", func() {
			o.applyOverlay(ctx, base, secs.overlay, key)
		})
	}
}

// newContext builds the per-well extraction context, reseeding the
// well-scoped state and keeping the project-scoped collaborators shared.
func (o *Orchestrator) newContext(in WellInput) *ExtractionContext {
	counts := in.WellCountByPhase
	if counts == nil {
		counts = map[string]int{}
	}
	return &ExtractionContext{
		PropNum:           in.PropNum,
		ScenarioID:        o.settings.ScenarioID,
		Qualifier:         in.Qualifier,
		BaseDate:          o.settings.BaseDate,
		AsOfDate:          o.settings.AsOfDate,
		FPD:               in.FPD,
		Lookups:           o.settings.Lookups,
		Errors:            o.errors,
		DefaultLeaseNRI:   o.settings.DefaultLeaseNRI,
		WellCountByPhase:  counts,
		OwnershipBackup:   o.settings.OwnershipBackup,
		PriceBackup:       o.settings.PriceBackup,
		UseOilPriceAsBase: o.settings.UseOilPriceAsBase,
		Escalations:       o.escalations,
	}
}

// applyOverlay runs the overlay resolver against the well's canonical
// documents. A patched kind detaches the well from its shared base
// document and registers the copy; untouched kinds keep their assignment.
func (o *Orchestrator) applyOverlay(ctx *ExtractionContext, base *WellModels, records []model.EconomicRecord, key model.WellKey) {
	res := NewOverlayResolver(ctx, base).Apply(records)
	out := res.Models

	if out.Taxes != base.Taxes && out.Taxes != nil {
		o.taxes.Detach(key)
		out.Taxes, _ = o.taxes.CompareAndSave(out.Taxes, key)
	}
	if out.Expenses != base.Expenses && out.Expenses != nil {
		o.expenses.Detach(key)
		out.Expenses, _ = o.expenses.CompareAndSave(out.Expenses, key)
	}
	if out.Pricing != base.Pricing && out.Pricing != nil {
		o.pricing.Detach(key)
		out.Pricing, _ = o.pricing.CompareAndSave(out.Pricing, key)
	}
	if out.Differentials != base.Differentials && out.Differentials != nil {
		o.differentials.Detach(key)
		out.Differentials, _ = o.differentials.CompareAndSave(out.Differentials, key)
	}
	if out.Risking != base.Risking && out.Risking != nil {
		o.risking.Detach(key)
		out.Risking, _ = o.risking.CompareAndSave(out.Risking, key)
	}
	if out.Stream != base.Stream && out.Stream != nil {
		o.stream.Detach(key)
		out.Stream, _ = o.stream.CompareAndSave(out.Stream, key)
	}
	if len(res.Forecast) > 0 {
		o.forecast[key] = res.Forecast
	}
}

func (o *Orchestrator) savePricing(ctx *ExtractionContext, doc *model.PricingDocument, key model.WellKey) *model.PricingDocument {
	if doc == nil {
		return nil
	}
	saved, err := o.pricing.CompareAndSave(doc, key)
	if err != nil {
		o.errors.Log("", "pricing save failed: "+err.Error(), ctx.ScenarioID, ctx.PropNum, model.KindPricing, 0, SeverityError)
		return nil
	}
	return saved
}

func (o *Orchestrator) saveDifferentials(ctx *ExtractionContext, doc *model.DifferentialsDocument, key model.WellKey) *model.DifferentialsDocument {
	if doc == nil {
		return nil
	}
	saved, err := o.differentials.CompareAndSave(doc, key)
	if err != nil {
		o.errors.Log("", "differentials save failed: "+err.Error(), ctx.ScenarioID, ctx.PropNum, model.KindDifferentials, 0, SeverityError)
		return nil
	}
	return saved
}

func (o *Orchestrator) saveTaxes(ctx *ExtractionContext, doc *model.ProductionTaxesDocument, key model.WellKey) *model.ProductionTaxesDocument {
	if doc == nil {
		return nil
	}
	saved, err := o.taxes.CompareAndSave(doc, key)
	if err != nil {
		o.errors.Log("", "production taxes save failed: "+err.Error(), ctx.ScenarioID, ctx.PropNum, model.KindProductionTaxes, 0, SeverityError)
		return nil
	}
	return saved
}

func (o *Orchestrator) saveExpenses(ctx *ExtractionContext, doc *model.ExpensesDocument, key model.WellKey) *model.ExpensesDocument {
	if doc == nil {
		return nil
	}
	saved, err := o.expenses.CompareAndSave(doc, key)
	if err != nil {
		o.errors.Log("", "expenses save failed: "+err.Error(), ctx.ScenarioID, ctx.PropNum, model.KindExpenses, 0, SeverityError)
		return nil
	}
	return saved
}

func (o *Orchestrator) saveRisking(ctx *ExtractionContext, doc *model.RiskingDocument, key model.WellKey) *model.RiskingDocument {
	if doc == nil {
		return nil
	}
	saved, err := o.risking.CompareAndSave(doc, key)
	if err != nil {
		o.errors.Log("", "risking save failed: "+err.Error(), ctx.ScenarioID, ctx.PropNum, model.KindRisking, 0, SeverityError)
		return nil
	}
	return saved
}

func (o *Orchestrator) saveStream(ctx *ExtractionContext, doc *model.StreamPropertiesDocument, key model.WellKey) *model.StreamPropertiesDocument {
	if doc == nil {
		return nil
	}
	saved, err := o.stream.CompareAndSave(doc, key)
	if err != nil {
		o.errors.Log("", "stream properties save failed: "+err.Error(), ctx.ScenarioID, ctx.PropNum, model.KindStreamProperties, 0, SeverityError)
		return nil
	}
	return saved
}

// Finalize closes the batch: the escalation registry deduplicates its
// documents and every superseded escalation reference across the saved
// rows is rewritten to the canonical id.
func (o *Orchestrator) Finalize() (*BatchResult, error) {
	escDocs, remap, err := o.escalations.Finalize()
	if err != nil {
		return nil, err
	}
	if len(remap) > 0 {
		o.rewriteEscalationRefs(remap)
		// Canonical ids can make formerly-distinct documents identical.
		for _, consolidate := range []func() error{
			o.capex.Consolidate, o.pricing.Consolidate, o.differentials.Consolidate,
			o.taxes.Consolidate, o.expenses.Consolidate,
		} {
			if err := consolidate(); err != nil {
				return nil, err
			}
		}
	}

	return &BatchResult{
		Capex:           o.capex.Docs(),
		Ownership:       o.ownership.Docs(),
		Pricing:         o.pricing.Docs(),
		Differentials:   o.differentials.Docs(),
		Taxes:           o.taxes.Docs(),
		Expenses:        o.expenses.Docs(),
		Risking:         o.risking.Docs(),
		Stream:          o.stream.Docs(),
		Escalations:     escDocs,
		Forecast:        o.forecast,
		Errors:          o.errors.Entries(),
		PriceBackupName: o.priceBackupName,
	}, nil
}

func remapID(ref string, remap map[string]string) string {
	if canonical, ok := remap[ref]; ok {
		return canonical
	}
	return ref
}

func (o *Orchestrator) rewriteEscalationRefs(remap map[string]string) {
	for _, d := range o.capex.Docs() {
		for i := range d.OtherCapex.Rows {
			d.OtherCapex.Rows[i].EscalationModel = remapID(d.OtherCapex.Rows[i].EscalationModel, remap)
		}
	}
	for _, d := range o.pricing.Docs() {
		for _, phase := range []string{model.PhaseOil, model.PhaseGas, model.PhaseNGL, model.PhaseDripCondensate} {
			rows := d.PriceModel.Phase(phase).Rows
			for i := range rows {
				rows[i].EscalationModel = remapID(rows[i].EscalationModel, remap)
			}
		}
	}
	for _, d := range o.differentials.Docs() {
		for slot := 0; slot < 3; slot++ {
			for _, phase := range []string{model.PhaseOil, model.PhaseGas, model.PhaseNGL, model.PhaseDripCondensate} {
				rows := d.Differentials.Slot(slot).Phase(phase).Rows
				for i := range rows {
					rows[i].EscalationModel = remapID(rows[i].EscalationModel, remap)
				}
			}
		}
	}
	for _, d := range o.taxes.Docs() {
		for i := range d.AdValoremTax.Rows {
			d.AdValoremTax.Rows[i].EscalationModel = remapID(d.AdValoremTax.Rows[i].EscalationModel, remap)
		}
		for _, phase := range []string{model.PhaseOil, model.PhaseGas} {
			rows := d.SeveranceTax.Phase(phase).Rows
			for i := range rows {
				rows[i].EscalationModel = remapID(rows[i].EscalationModel, remap)
			}
		}
	}
	for _, d := range o.expenses.Docs() {
		for _, phase := range []string{model.PhaseOil, model.PhaseGas, model.PhaseNGL, model.PhaseDripCondensate} {
			p := d.VariableExpenses.Phase(phase)
			for _, cat := range []string{model.ExpenseGathering, model.ExpenseProcessing, model.ExpenseTransportation, model.ExpenseMarketing, model.ExpenseOther} {
				rows := p.Category(cat).Rows
				for i := range rows {
					rows[i].EscalationModel = remapID(rows[i].EscalationModel, remap)
				}
			}
		}
		for s := range d.FixedExpenses {
			rows := d.FixedExpenses[s].Rows
			for i := range rows {
				rows[i].EscalationModel = remapID(rows[i].EscalationModel, remap)
			}
		}
		for i := range d.WaterDisposal.Rows {
			d.WaterDisposal.Rows[i].EscalationModel = remapID(d.WaterDisposal.Rows[i].EscalationModel, remap)
		}
	}
}
