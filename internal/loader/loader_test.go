package loader

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/aries-import/internal/model"
)

func createTestWorkbook(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				row.AddCell().SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "export.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func econHeader() []string {
	return []string{"PROPNUM", "SECTION", "SEQUENCE", "QUALIFIER", "KEYWORD", "EXPRESSION"}
}

func TestLoadExportBasic(t *testing.T) {
	path := createTestWorkbook(t, map[string][][]string{
		SheetEconomic: {
			econHeader(),
			{"W1", "7", "20", "", "lse", "75 X X 0 % TO LIFE"},
			{"W1", "4", "10", "", "BTU", "1.1"},
			{"W1", "7", "10", "", "NET", "80 75 75 0 % TO LIFE"},
			{"W2", "5", "10", "", "PRI/OIL", "45 X $ TO LIFE"},
		},
	})

	export, err := LoadExport(path, Options{})
	require.NoError(t, err)
	require.Len(t, export.Wells, 2)
	assert.Equal(t, 4, export.RecordCount())

	w1 := export.Wells[0]
	assert.Equal(t, "W1", w1.PropNum)
	require.Len(t, w1.Records, 3)
	// Ordered by (section, sequence).
	assert.Equal(t, "BTU", w1.Records[0].Keyword)
	assert.Equal(t, "NET", w1.Records[1].Keyword)
	assert.Equal(t, "LSE", w1.Records[2].Keyword, "keywords normalize to upper case")
	assert.Equal(t, "lse", w1.Records[2].OriginalKeyword)
	assert.Equal(t, model.SectionOwnership, w1.Records[1].Section)
	assert.Equal(t, "80 75 75 0 % TO LIFE", w1.Records[1].Expression)

	assert.Equal(t, "W2", export.Wells[1].PropNum)
}

func TestLoadExportFloatishNumbers(t *testing.T) {
	path := createTestWorkbook(t, map[string][][]string{
		SheetEconomic: {
			econHeader(),
			{"W1", "7.0", "10.0", "", "NET", "80 75 75 0 % TO LIFE"},
		},
	})

	export, err := LoadExport(path, Options{})
	require.NoError(t, err)
	require.Len(t, export.Wells, 1)
	assert.Equal(t, 7, export.Wells[0].Records[0].Section)
	assert.Equal(t, 10, export.Wells[0].Records[0].Sequence)
}

func TestLoadExportOverlaySequence(t *testing.T) {
	path := createTestWorkbook(t, map[string][][]string{
		SheetEconomic: {
			econHeader(),
			{"W1", "6", "10", "", "ATX", "3 X % TO LIFE"},
			{"W1", "6", "OVERLAY", "", "ATX", "500 X $/M TO LIFE"},
			{"W1", "6", "overlay", "", "STX/GAS", "5 X % TO LIFE"},
		},
	})

	export, err := LoadExport(path, Options{})
	require.NoError(t, err)
	require.Len(t, export.Wells, 1)
	recs := export.Wells[0].Records
	require.Len(t, recs, 3)

	// Overlay-flagged rows carry the sentinel sequence in either case.
	assert.Equal(t, model.SequenceOverlay, recs[0].Sequence)
	assert.True(t, recs[0].IsOverlay())
	assert.Equal(t, "STX/GAS", recs[1].Keyword)
	assert.Equal(t, model.SequenceOverlay, recs[1].Sequence)
	assert.Equal(t, "ATX", recs[2].Keyword)
	assert.Equal(t, 10, recs[2].Sequence)
	assert.False(t, recs[2].IsOverlay())
}

func TestLoadExportQualifierFilter(t *testing.T) {
	path := createTestWorkbook(t, map[string][][]string{
		SheetEconomic: {
			econHeader(),
			{"W1", "7", "10", "BASE", "NET", "80 75 75 0 % TO LIFE"},
			{"W1", "7", "20", "ALT", "LSE", "70 X X 0 % TO LIFE"},
			{"W1", "4", "10", "", "BTU", "1.1"},
		},
	})

	export, err := LoadExport(path, Options{Qualifier: "BASE"})
	require.NoError(t, err)
	require.Len(t, export.Wells, 1)
	require.Len(t, export.Wells[0].Records, 2, "other qualifiers drop, unqualified rows stay")
	assert.Equal(t, "BTU", export.Wells[0].Records[0].Keyword)
	assert.Equal(t, "NET", export.Wells[0].Records[1].Keyword)
}

func TestLoadExportSkipsBlankPropnum(t *testing.T) {
	path := createTestWorkbook(t, map[string][][]string{
		SheetEconomic: {
			econHeader(),
			{"", "7", "10", "", "NET", "80"},
			{"W1", "7", "10", "", "NET", "80 75 75 0 % TO LIFE"},
		},
	})

	export, err := LoadExport(path, Options{})
	require.NoError(t, err)
	require.Len(t, export.Wells, 1)
	assert.Equal(t, 1, export.RecordCount())
}

func TestLoadExportLookupSheets(t *testing.T) {
	path := createTestWorkbook(t, map[string][][]string{
		SheetEconomic: {
			econHeader(),
			{"W1", "5", "10", "", "PRI/GAS", "@SIDEFILE(GASPRICE)"},
		},
		SheetSidefile: {
			{"FILENAME", "EXPRESSION"},
			{"GASPRICE", "3.25 X $ TO LIFE"},
		},
		SheetSysTable: {
			{"TBLNAME", "ALIAS", "VALUE"},
			{"escval", "stdesc", "2.5"},
		},
		SheetCommonLines: {
			{"KEYWORD", "EXPRESSION"},
			{"btu", "1.05"},
		},
	})

	export, err := LoadExport(path, Options{})
	require.NoError(t, err)

	assert.Equal(t, "3.25 X $ TO LIFE", export.Lookups.References["SIDEFILE.GASPRICE"])
	assert.Equal(t, "2.5", export.Lookups.References["ESCVAL.STDESC"])

	line, ok := export.Lookups.CommonLine("BTU")
	require.True(t, ok)
	assert.Equal(t, "1.05", line)

	// The economic row resolves through the loaded references.
	toks, err := export.Lookups.Tokenize(export.Wells[0].Records[0].Expression)
	require.NoError(t, err)
	assert.Equal(t, []string{"3.25", "X", "$", "TO", "LIFE"}, toks)
}

func TestLoadExportCustomEscalations(t *testing.T) {
	path := createTestWorkbook(t, map[string][][]string{
		SheetEconomic: {econHeader()},
		SheetEscalations: {
			{"NAME", "FAMILY", "METHOD", "FREQUENCY", "VALUE"},
			{"ESCGAS", "percent", "compound", "yearly", "3"},
		},
	})

	export, err := LoadExport(path, Options{})
	require.NoError(t, err)
	require.Len(t, export.CustomEscalations, 1)
	esc := export.CustomEscalations[0]
	assert.Equal(t, "ESCGAS", esc.Name)
	assert.Equal(t, "percent", esc.Family)
	assert.Equal(t, "compound", esc.Method)
	assert.Equal(t, "yearly", esc.Frequency)
	assert.Equal(t, 3.0, esc.Value)
}

func TestLoadExportMissingSheet(t *testing.T) {
	path := createTestWorkbook(t, map[string][][]string{
		"OTHER": {{"A"}},
	})

	_, err := LoadExport(path, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), SheetEconomic)
}

func TestLoadExportMissingColumn(t *testing.T) {
	path := createTestWorkbook(t, map[string][][]string{
		SheetEconomic: {
			{"PROPNUM", "SECTION", "KEYWORD", "EXPRESSION"},
			{"W1", "7", "NET", "80"},
		},
	})

	_, err := LoadExport(path, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SEQUENCE")
}
