package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// Assumption kinds, used as document keys for persistence and naming.
const (
	KindCapex            = "capex"
	KindOwnership        = "ownership"
	KindPricing          = "pricing"
	KindDifferentials    = "differentials"
	KindProductionTaxes  = "production_taxes"
	KindExpenses         = "expenses"
	KindRisking          = "risking"
	KindStreamProperties = "stream_properties"
	KindEscalation       = "escalation"
)

// DocumentMeta is the bookkeeping shared by every model document. Only the
// Wells set mutates after a document has been matched during dedup; the
// rest is immutable after creation.
type DocumentMeta struct {
	ID            string    `json:"id"`
	Name          string    `json:"name,omitempty"`
	AssumptionKey string    `json:"assumptionKey"`
	Wells         WellSet   `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// NewMeta stamps a fresh document identity for the given assumption kind.
func NewMeta(kind string) DocumentMeta {
	now := time.Now().UTC()
	return DocumentMeta{
		ID:            uuid.NewString(),
		AssumptionKey: kind,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Document is the capability every model document exposes to the dedup and
// persistence layers.
type Document interface {
	Meta() *DocumentMeta
	Kind() string
}

// ContentKey returns a canonical serialization of the document's content
// with identity fields (id, name, timestamps) stripped, so two documents
// built independently for different wells compare equal when their economic
// content matches. Wells is excluded by its json:"-" tag.
func ContentKey(doc Document) (string, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", eris.Wrapf(err, "model: marshal %s document", doc.Kind())
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return "", eris.Wrap(err, "model: canonicalize document")
	}
	delete(m, "id")
	delete(m, "name")
	delete(m, "createdAt")
	delete(m, "updatedAt")
	canon, err := json.Marshal(m)
	if err != nil {
		return "", eris.Wrap(err, "model: canonicalize document")
	}
	return string(canon), nil
}
