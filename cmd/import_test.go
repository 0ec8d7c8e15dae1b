package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/aries-import/internal/loader"
	"github.com/sells-group/aries-import/internal/model"
	"github.com/sells-group/aries-import/internal/store"
)

func writeTestExport(t *testing.T) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(loader.SheetEconomic)
	require.NoError(t, err)

	rows := [][]string{
		{"PROPNUM", "SECTION", "SEQUENCE", "QUALIFIER", "KEYWORD", "EXPRESSION"},
		{"W1", "7", "10", "", "NET", "80 75 75 0 % TO LIFE"},
		{"W1", "4", "10", "", "SHK", "0.85 FRAC TO LIFE"},
		{"W1", "5", "10", "", "PRI/OIL", "45 X $ TO LIFE"},
		{"W1", "6", "10", "", "ATX", "3 X % TO LIFE"},
		{"W2", "7", "10", "", "NET", "80 75 75 0 % TO LIFE"},
	}
	for _, rowData := range rows {
		row := sheet.AddRow()
		for _, cellData := range rowData {
			row.AddCell().SetString(cellData)
		}
	}

	path := filepath.Join(t.TempDir(), "export.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestImportDryRun(t *testing.T) {
	path := writeTestExport(t)

	rootCmd.SetArgs([]string{"import", "--file", path, "--dry-run"})
	require.NoError(t, rootCmd.Execute())
}

func TestImportPersists(t *testing.T) {
	path := writeTestExport(t)
	dbPath := filepath.Join(t.TempDir(), "import.db")
	t.Setenv("ARIES_STORE_DRIVER", "sqlite")
	t.Setenv("ARIES_STORE_PATH", dbPath)

	rootCmd.SetArgs([]string{"import", "--file", path, "--dry-run=false", "--scenario", "CASE1"})
	require.NoError(t, rootCmd.Execute())

	st, err := store.NewSQLite(dbPath)
	require.NoError(t, err)
	defer st.Close()
	ctx := context.Background()

	runs, err := st.ListRuns(ctx, store.RunFilter{Scenario: "CASE1"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, store.RunStatusComplete, runs[0].Status)
	require.NotNil(t, runs[0].Summary)
	assert.Equal(t, 2, runs[0].Summary.Wells)
	assert.Greater(t, runs[0].Summary.Documents, 0)

	// Identical ownership lines dedup into one document shared by both wells.
	ownership, err := st.ListDocuments(ctx, store.DocumentFilter{Kind: model.KindOwnership})
	require.NoError(t, err)
	require.Len(t, ownership, 1)
	assert.Len(t, ownership[0].Wells, 2)

	pricing, err := st.ListDocuments(ctx, store.DocumentFilter{Kind: model.KindPricing, WellID: "W1"})
	require.NoError(t, err)
	assert.Len(t, pricing, 1)
}
