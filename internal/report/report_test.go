package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/aries-import/internal/aries"
)

func TestBuildAggregates(t *testing.T) {
	entries := []aries.ImportError{
		{Well: "W2", Model: "pricing", Message: "orphan differential", Severity: aries.SeverityWarning},
		{Well: "W1", Model: "ownership", Message: "bad NRI", Severity: aries.SeverityError},
		{Well: "W1", Model: "ownership", Message: "reversion ignored", Severity: aries.SeverityWarning},
		{Well: "W1", Model: "pricing", Message: "bad price", Severity: aries.SeverityError},
	}

	r := Build("DEFAULT", 2, 9, entries)

	assert.Equal(t, "DEFAULT", r.Scenario)
	assert.Equal(t, 2, r.Wells)
	assert.Equal(t, 9, r.Documents)
	assert.Equal(t, 2, r.Errors)
	assert.Equal(t, 2, r.Warnings)
	assert.False(t, r.Clean())

	require.Len(t, r.ByModel, 2)
	assert.Equal(t, ModelCounts{Model: "ownership", Errors: 1, Warnings: 1}, r.ByModel[0])
	assert.Equal(t, ModelCounts{Model: "pricing", Errors: 1, Warnings: 1}, r.ByModel[1])

	require.Len(t, r.ByWell, 2)
	assert.Equal(t, "W1", r.ByWell[0].Well)
	assert.Len(t, r.ByWell[0].Entries, 3)
	assert.Equal(t, "W2", r.ByWell[1].Well)
	assert.Len(t, r.ByWell[1].Entries, 1)
}

func TestBuildEmpty(t *testing.T) {
	r := Build("DEFAULT", 5, 20, nil)
	assert.True(t, r.Clean())
	assert.Empty(t, r.ByModel)
	assert.Empty(t, r.ByWell)
}

func TestBuildUnknownModel(t *testing.T) {
	r := Build("DEFAULT", 1, 0, []aries.ImportError{
		{Message: "panic recovered", Severity: aries.SeverityError},
	})
	require.Len(t, r.ByModel, 1)
	assert.Equal(t, "unknown", r.ByModel[0].Model)
	assert.Empty(t, r.ByWell, "entries without a well key carry no per-well detail")
}

func TestWriteText(t *testing.T) {
	r := Build("DEFAULT", 1, 3, []aries.ImportError{
		{Well: "W1", Model: "stream", Row: "SHK 0.85", Message: "bad shrink", Severity: aries.SeverityError},
	})

	var sb strings.Builder
	r.WriteText(&sb)
	out := sb.String()

	assert.Contains(t, out, "scenario DEFAULT: 1 wells, 3 documents, 1 errors, 0 warnings")
	assert.Contains(t, out, "stream")
	assert.Contains(t, out, `bad shrink (row "SHK 0.85")`)
}
