// Package store persists imported economic-model documents and the
// per-run import report behind a driver-agnostic interface.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/aries-import/internal/aries"
	"github.com/sells-group/aries-import/internal/model"
)

// RunStatus tracks the lifecycle of one import invocation.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// RunSummary is the headline result of a finished import run.
type RunSummary struct {
	Wells     int `json:"wells"`
	Documents int `json:"documents"`
	Errors    int `json:"errors"`
	Warnings  int `json:"warnings"`
}

// ImportRun records one invocation of the importer against a scenario.
type ImportRun struct {
	ID        string      `json:"id"`
	Scenario  string      `json:"scenario"`
	Status    RunStatus   `json:"status"`
	Summary   *RunSummary `json:"summary,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// RunFilter specifies criteria for listing import runs.
type RunFilter struct {
	Status   RunStatus `json:"status,omitempty"`
	Scenario string    `json:"scenario,omitempty"`
	Limit    int       `json:"limit,omitempty"`
	Offset   int       `json:"offset,omitempty"`
}

// DocumentFilter specifies criteria for listing persisted documents.
type DocumentFilter struct {
	Kind   string `json:"kind,omitempty"`
	WellID string `json:"well_id,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// PersistedDocument is the storage shape of a model document: the content
// as opaque JSON plus the well assignments flattened out of the in-memory
// set. Identity fields are lifted into columns so documents can be listed
// and filtered without unpacking the content.
type PersistedDocument struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Name      string          `json:"name,omitempty"`
	Content   json.RawMessage `json:"content"`
	Wells     []model.WellKey `json:"wells"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Store defines the persistence interface for the import pipeline.
type Store interface {
	// Import runs
	CreateRun(ctx context.Context, scenario string) (*ImportRun, error)
	CompleteRun(ctx context.Context, runID string, status RunStatus, summary *RunSummary) error
	GetRun(ctx context.Context, runID string) (*ImportRun, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]ImportRun, error)

	// Documents
	UpsertDocuments(ctx context.Context, docs []PersistedDocument) (int64, error)
	ListDocuments(ctx context.Context, filter DocumentFilter) ([]PersistedDocument, error)

	// Import report
	SaveImportErrors(ctx context.Context, runID string, entries []aries.ImportError) error
	ListImportErrors(ctx context.Context, runID string) ([]aries.ImportError, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Flatten converts a model document into its storage shape.
func Flatten(doc model.Document) (PersistedDocument, error) {
	content, err := json.Marshal(doc)
	if err != nil {
		return PersistedDocument{}, eris.Wrapf(err, "store: marshal %s document", doc.Kind())
	}
	meta := doc.Meta()
	return PersistedDocument{
		ID:        meta.ID,
		Kind:      doc.Kind(),
		Name:      meta.Name,
		Content:   content,
		Wells:     meta.Wells.SortedList(),
		CreatedAt: meta.CreatedAt,
		UpdatedAt: meta.UpdatedAt,
	}, nil
}

// FlattenBatch flattens every document produced by a finished batch, in a
// stable kind order.
func FlattenBatch(batch *aries.BatchResult) ([]PersistedDocument, error) {
	var out []PersistedDocument
	var err error
	if out, err = appendFlattened(out, batch.Ownership); err != nil {
		return nil, err
	}
	if out, err = appendFlattened(out, batch.Stream); err != nil {
		return nil, err
	}
	if out, err = appendFlattened(out, batch.Risking); err != nil {
		return nil, err
	}
	if out, err = appendFlattened(out, batch.Pricing); err != nil {
		return nil, err
	}
	if out, err = appendFlattened(out, batch.Differentials); err != nil {
		return nil, err
	}
	if out, err = appendFlattened(out, batch.Taxes); err != nil {
		return nil, err
	}
	if out, err = appendFlattened(out, batch.Expenses); err != nil {
		return nil, err
	}
	if out, err = appendFlattened(out, batch.Capex); err != nil {
		return nil, err
	}
	if out, err = appendFlattened(out, batch.Escalations); err != nil {
		return nil, err
	}
	return out, nil
}

func appendFlattened[D model.Document](dst []PersistedDocument, docs []D) ([]PersistedDocument, error) {
	for _, doc := range docs {
		pd, err := Flatten(doc)
		if err != nil {
			return nil, err
		}
		dst = append(dst, pd)
	}
	return dst, nil
}
