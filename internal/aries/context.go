package aries

import (
	"time"

	"github.com/sells-group/aries-import/internal/model"
)

// DefaultLeaseNRI is the policy lease-NRI constant substituted when a
// lease-level NRI cannot be derived from the input. Overridable via config.
const DefaultLeaseNRI = 75.0

// OwnershipBackup is the project-level fallback ownership source, consulted
// only when full per-row resolution fails. Values are fractions; a literal
// zero from this source means "full" (the legacy system's quirk), which
// NRIOilOrFull/NRIGasOrFull apply.
type OwnershipBackup struct {
	NRIOil float64
	NRIGas float64
}

// NRIOilOrFull remaps the zero-means-full quirk.
func (b *OwnershipBackup) NRIOilOrFull() float64 {
	if b.NRIOil == 0 {
		return 1
	}
	return b.NRIOil
}

// NRIGasOrFull remaps the zero-means-full quirk.
func (b *OwnershipBackup) NRIGasOrFull() float64 {
	if b.NRIGas == 0 {
		return 1
	}
	return b.NRIGas
}

// PriceBackup is the project-level price/differential fallback. When it
// covers every phase the line-level differential document is abandoned in
// favor of the named policy document.
type PriceBackup struct {
	Name          string
	Differentials map[string]float64
}

// CoversAllPhases reports whether the backup supplies a differential for
// every phase in phases.
func (b *PriceBackup) CoversAllPhases(phases []string) bool {
	if b == nil {
		return false
	}
	for _, p := range phases {
		if _, ok := b.Differentials[p]; !ok {
			return false
		}
	}
	return len(phases) > 0
}

// ExtractionContext carries the per-(well, scenario) inputs every builder
// needs: identity, project dates, lookup tables, the error sink, and the
// project-scoped escalation registry. Builders keep their own row-scan
// state; nothing here is mutated mid-scan except the error log and the
// escalation registry.
type ExtractionContext struct {
	PropNum    string
	ScenarioID string
	Qualifier  string

	BaseDate time.Time
	AsOfDate time.Time
	// FPD is the well's first production date when known; finalization
	// converts absolute dates to FPD offsets only when set.
	FPD *time.Time

	Lookups *LookupTables
	Errors  *ErrorLog

	DefaultLeaseNRI float64

	// WellCountByPhase is regenerated per well; it decides per-well vs
	// total fixed-expense units.
	WellCountByPhase map[string]int

	OwnershipBackup *OwnershipBackup
	PriceBackup     *PriceBackup

	// UseOilPriceAsBase switches differential rows to pct_of_oil_price,
	// bypassing the dollar/percent unit table.
	UseOilPriceAsBase bool

	Escalations *EscalationExtractor
}

// Key returns the (scenario, well) identity for document assignment.
func (c *ExtractionContext) Key() model.WellKey {
	return model.WellKey{ScenarioID: c.ScenarioID, WellID: c.PropNum}
}

// LeaseNRIDefault returns the configured policy constant, falling back to
// the package default.
func (c *ExtractionContext) LeaseNRIDefault() float64 {
	if c.DefaultLeaseNRI > 0 {
		return c.DefaultLeaseNRI
	}
	return DefaultLeaseNRI
}

// LogError records an error-severity report entry for a record.
func (c *ExtractionContext) LogError(rec model.EconomicRecord, modelName, message string) {
	c.Errors.Log(rec.Keyword+" "+rec.Expression, message, c.ScenarioID, c.PropNum, modelName, rec.Section, SeverityError)
}

// LogWarning records a warning-severity report entry for a record.
func (c *ExtractionContext) LogWarning(rec model.EconomicRecord, modelName, message string) {
	c.Errors.Log(rec.Keyword+" "+rec.Expression, message, c.ScenarioID, c.PropNum, modelName, rec.Section, SeverityWarning)
}

// Tokenize resolves a record's expression, logging and reporting failure
// as a skipped row.
func (c *ExtractionContext) Tokenize(rec model.EconomicRecord, modelName string) ([]string, bool) {
	ls, err := c.Lookups.Tokenize(rec.Expression)
	if err != nil {
		c.LogError(rec, modelName, "token resolution failed: "+err.Error())
		return nil, false
	}
	return ls, true
}
