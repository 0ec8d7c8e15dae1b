// Package report aggregates the per-row import log into the batch report
// surfaced by the CLI and the serve endpoint.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/sells-group/aries-import/internal/aries"
)

// ModelCounts is the error tally for one extraction model.
type ModelCounts struct {
	Model    string `json:"model"`
	Errors   int    `json:"errors"`
	Warnings int    `json:"warnings"`
}

// WellDetail is the full entry list for one well.
type WellDetail struct {
	Well    string              `json:"well"`
	Entries []aries.ImportError `json:"entries"`
}

// Report is the aggregated outcome of one import run.
type Report struct {
	Scenario  string        `json:"scenario"`
	Wells     int           `json:"wells"`
	Documents int           `json:"documents"`
	Errors    int           `json:"errors"`
	Warnings  int           `json:"warnings"`
	ByModel   []ModelCounts `json:"by_model,omitempty"`
	ByWell    []WellDetail  `json:"by_well,omitempty"`
}

// Build aggregates the raw entry list. Models and wells come out sorted so
// the report is stable across runs.
func Build(scenario string, wells, documents int, entries []aries.ImportError) *Report {
	r := &Report{
		Scenario:  scenario,
		Wells:     wells,
		Documents: documents,
	}

	byModel := map[string]*ModelCounts{}
	byWell := map[string][]aries.ImportError{}

	for _, e := range entries {
		switch e.Severity {
		case aries.SeverityError:
			r.Errors++
		case aries.SeverityWarning:
			r.Warnings++
		}

		modelName := e.Model
		if modelName == "" {
			modelName = "unknown"
		}
		mc, ok := byModel[modelName]
		if !ok {
			mc = &ModelCounts{Model: modelName}
			byModel[modelName] = mc
		}
		if e.Severity == aries.SeverityError {
			mc.Errors++
		} else {
			mc.Warnings++
		}

		if e.Well != "" {
			byWell[e.Well] = append(byWell[e.Well], e)
		}
	}

	for _, mc := range byModel {
		r.ByModel = append(r.ByModel, *mc)
	}
	sort.Slice(r.ByModel, func(i, j int) bool { return r.ByModel[i].Model < r.ByModel[j].Model })

	for well, list := range byWell {
		r.ByWell = append(r.ByWell, WellDetail{Well: well, Entries: list})
	}
	sort.Slice(r.ByWell, func(i, j int) bool { return r.ByWell[i].Well < r.ByWell[j].Well })

	return r
}

// Clean reports whether the run produced no errors and no warnings.
func (r *Report) Clean() bool {
	return r.Errors == 0 && r.Warnings == 0
}

// WriteText renders the report for terminal output.
func (r *Report) WriteText(w io.Writer) {
	fmt.Fprintf(w, "scenario %s: %d wells, %d documents, %d errors, %d warnings\n",
		r.Scenario, r.Wells, r.Documents, r.Errors, r.Warnings)

	for _, mc := range r.ByModel {
		fmt.Fprintf(w, "  %-18s errors=%d warnings=%d\n", mc.Model, mc.Errors, mc.Warnings)
	}
	for _, wd := range r.ByWell {
		fmt.Fprintf(w, "  well %s:\n", wd.Well)
		for _, e := range wd.Entries {
			line := fmt.Sprintf("    [%s] %s", e.Severity, e.Message)
			if e.Row != "" {
				line += fmt.Sprintf(" (row %q)", e.Row)
			}
			fmt.Fprintln(w, line)
		}
	}
}
