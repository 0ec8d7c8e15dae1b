package aries

import (
	"strings"

	"github.com/sells-group/aries-import/internal/model"
)

// EscalationNone marks a row with no escalation attached.
const EscalationNone = "none"

// Escalation unit families. CC-style engines support exactly one
// calculation method per escalation model, so the family is sticky per
// connection key.
const (
	familyPercent = "percent"
	familyDollar  = "dollar"
)

type escalationUnitSpec struct {
	family    string
	method    string
	frequency string
}

// escalationUnits is the recognized escalation-unit grammar.
var escalationUnits = map[string]escalationUnitSpec{
	"PC/M": {familyPercent, model.EscalationCompound, model.EscalationMonthly},
	"PC/Y": {familyPercent, model.EscalationCompound, model.EscalationYearly},
	"PE/M": {familyPercent, model.EscalationSimple, model.EscalationMonthly},
	"PE/Y": {familyPercent, model.EscalationSimple, model.EscalationYearly},
	"SPD":  {familyPercent, model.EscalationSimple, model.EscalationMonthly},
	"$E/M": {familyDollar, model.EscalationConstant, model.EscalationMonthly},
	"$E/Y": {familyDollar, model.EscalationConstant, model.EscalationYearly},
}

// CustomEscalation is a named project-level escalation definition; a value
// token matching the name stands for the whole definition.
type CustomEscalation struct {
	Name      string
	Family    string
	Method    string
	Frequency string
	Value     float64
}

// ConnectionKey ties an escalation schedule to the row family it
// escalates.
type ConnectionKey struct {
	PropNum   string
	Scenario  string
	Keyword   string
	ModelKind string
	Category  string
}

type escalationState struct {
	doc       *model.EscalationDocument
	family    string
	abandoned bool
}

// EscalationExtractor builds per-connection-key escalation documents and
// deduplicates completed ones globally. Project-scoped: created once per
// batch and finalized at the end.
type EscalationExtractor struct {
	active   map[ConnectionKey]*escalationState
	registry DocumentList[*model.EscalationDocument]
	custom   map[string]CustomEscalation
	errors   *ErrorLog
}

// NewEscalationExtractor seeds the extractor with the project's custom
// escalation definitions.
func NewEscalationExtractor(custom []CustomEscalation, errors *ErrorLog) *EscalationExtractor {
	m := make(map[string]CustomEscalation, len(custom))
	for _, c := range custom {
		m[strings.ToUpper(c.Name)] = c
	}
	return &EscalationExtractor{
		active: make(map[ConnectionKey]*escalationState),
		custom: m,
		errors: nonNilErrorLog(errors),
	}
}

func nonNilErrorLog(l *ErrorLog) *ErrorLog {
	if l == nil {
		return &ErrorLog{}
	}
	return l
}

// Extract inspects the (value, unit) escalation tail of an expression and
// builds or extends the connection key's escalation document. It returns
// the escalation model id to attach to the enclosing row, or
// EscalationNone when the tail is not an escalation or escalation has been
// abandoned for this key. The enclosing row is always still emitted;
// escalation is an attachment, not a blocking dependency.
func (e *EscalationExtractor) Extract(key ConnectionKey, valueTok, unitTok, startDate, endDate string) string {
	spec, value, ok := e.classify(valueTok, unitTok)
	if !ok {
		return EscalationNone
	}

	st := e.active[key]
	if st == nil {
		st = &escalationState{
			doc:    &model.EscalationDocument{DocumentMeta: model.NewMeta(model.KindEscalation)},
			family: spec.family,
		}
		st.doc.EscalationFrequency = spec.frequency
		st.doc.CalculationMethod = spec.method
		e.active[key] = st
	}
	if st.abandoned {
		return EscalationNone
	}

	if spec.family != st.family {
		// Unit conflict. A previously all-zero model tolerates it by
		// zeroing the new segment; otherwise escalation is abandoned for
		// this key.
		if allZeroEscalation(st.doc.Rows) {
			value = 0
			e.errors.Log("", "escalation unit family changed on zero model; segment zeroed", key.Scenario, key.PropNum, key.ModelKind, 0, SeverityWarning)
		} else {
			st.abandoned = true
			e.errors.Log("", "incompatible escalation unit families; escalation abandoned", key.Scenario, key.PropNum, key.ModelKind, 0, SeverityError)
			return EscalationNone
		}
	}

	row := model.EscalationRow{}
	row.Dates = &model.DateRange{StartDate: startDate, EndDate: endDate}
	if st.family == familyDollar {
		row.DollarPerYear = model.F64(value)
	} else {
		row.PctPerYear = model.F64(value)
	}
	st.doc.Rows = append(st.doc.Rows, row)
	return st.doc.ID
}

// classify decides whether the tail is an escalation and yields its spec
// and numeric value.
func (e *EscalationExtractor) classify(valueTok, unitTok string) (escalationUnitSpec, float64, bool) {
	unit := strings.ToUpper(strings.TrimSpace(unitTok))
	if spec, ok := escalationUnits[unit]; ok {
		v, numOK := TryParseNumber(valueTok)
		if !numOK {
			return escalationUnitSpec{}, 0, false
		}
		return spec, v, true
	}
	if c, ok := e.custom[strings.ToUpper(strings.TrimSpace(valueTok))]; ok {
		return escalationUnitSpec{family: c.Family, method: c.Method, frequency: c.Frequency}, c.Value, true
	}
	return escalationUnitSpec{}, 0, false
}

func allZeroEscalation(rows []model.EscalationRow) bool {
	for _, r := range rows {
		if r.PctPerYear != nil && *r.PctPerYear != 0 {
			return false
		}
		if r.DollarPerYear != nil && *r.DollarPerYear != 0 {
			return false
		}
	}
	return true
}

// Finalize deduplicates the completed escalation documents by structural
// equality (ignoring well sets) and returns the canonical list plus a
// remap from superseded document ids to their canonical replacements.
// Callers rewrite row references through the remap.
func (e *EscalationExtractor) Finalize() ([]*model.EscalationDocument, map[string]string, error) {
	remap := make(map[string]string)
	for key, st := range e.active {
		if st.abandoned || len(st.doc.Rows) == 0 {
			continue
		}
		wk := model.WellKey{ScenarioID: key.Scenario, WellID: key.PropNum}
		canonical, err := e.registry.CompareAndSave(st.doc, wk)
		if err != nil {
			return nil, nil, err
		}
		if canonical.ID != st.doc.ID {
			remap[st.doc.ID] = canonical.ID
		}
	}
	return e.registry.Docs(), remap, nil
}

// FanOut deep-copies the finalized documents once per downstream project.
func (e *EscalationExtractor) FanOut(projects []string) map[string][]*model.EscalationDocument {
	out := make(map[string][]*model.EscalationDocument, len(projects))
	for _, p := range projects {
		var docs []*model.EscalationDocument
		for _, d := range e.registry.Docs() {
			cp := *d
			cp.DocumentMeta = model.NewMeta(model.KindEscalation)
			cp.Name = d.Name
			cp.Rows = append([]model.EscalationRow(nil), d.Rows...)
			for k := range d.Wells {
				cp.Wells.Add(k)
			}
			docs = append(docs, &cp)
		}
		out[p] = docs
	}
	return out
}
