// Package loader reads a legacy reserves-and-economics XLSX export into
// the record and lookup structures the extraction pipeline consumes.
package loader

import (
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/aries-import/internal/aries"
	"github.com/sells-group/aries-import/internal/model"
)

// Sheet names of an AC_ECONOMIC export. Only the economic table itself is
// mandatory; the side-channel sheets are loaded when present.
const (
	SheetEconomic    = "AC_ECONOMIC"
	SheetSidefile    = "AR_SIDEFILE"
	SheetSysTable    = "ARSYSTBL"
	SheetEscalations = "AR_ESCALATION"
	SheetCommonLines = "COMMON_LINES"
)

// Options configures an export load.
type Options struct {
	// Qualifier, when set, keeps only rows carrying that qualifier or no
	// qualifier at all. Empty keeps every row.
	Qualifier string
}

// WellRecords is one well's economic rows, ordered by (section, sequence).
type WellRecords struct {
	PropNum   string
	Qualifier string
	Records   []model.EconomicRecord
}

// Export is a fully loaded AC_ECONOMIC workbook.
type Export struct {
	Wells             []WellRecords
	Lookups           *aries.LookupTables
	CustomEscalations []aries.CustomEscalation
}

// RecordCount returns the total number of economic rows across wells.
func (e *Export) RecordCount() int {
	n := 0
	for _, w := range e.Wells {
		n += len(w.Records)
	}
	return n
}

// LoadExport opens the workbook at path and reads the economic table plus
// any side-channel lookup sheets.
func LoadExport(path string, opts Options) (*Export, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "loader: open workbook")
	}
	return readExport(f, opts)
}

func readExport(f *xlsx.File, opts Options) (*Export, error) {
	econ, ok := f.Sheet[SheetEconomic]
	if !ok {
		return nil, eris.Errorf("loader: sheet %q not found", SheetEconomic)
	}

	wells, err := readEconomic(econ, opts)
	if err != nil {
		return nil, err
	}

	out := &Export{
		Wells: wells,
		Lookups: &aries.LookupTables{
			References:  map[string]string{},
			CommonLines: map[string]string{},
		},
	}

	if sheet, ok := f.Sheet[SheetSidefile]; ok {
		if err := readSidefile(sheet, out.Lookups.References); err != nil {
			return nil, err
		}
	}
	if sheet, ok := f.Sheet[SheetSysTable]; ok {
		if err := readSysTable(sheet, out.Lookups.References); err != nil {
			return nil, err
		}
	}
	if sheet, ok := f.Sheet[SheetCommonLines]; ok {
		if err := readCommonLines(sheet, out.Lookups.CommonLines); err != nil {
			return nil, err
		}
	}
	if sheet, ok := f.Sheet[SheetEscalations]; ok {
		esc, err := readEscalations(sheet)
		if err != nil {
			return nil, err
		}
		out.CustomEscalations = esc
	}

	return out, nil
}

// readEconomic maps the economic table into per-well record groups. Wells
// keep their first-seen order; records within a well sort by
// (section, sequence) so extraction sees rows the way the legacy engine
// replayed them.
func readEconomic(sheet *xlsx.Sheet, opts Options) ([]WellRecords, error) {
	cols, err := headerIndex(sheet, "PROPNUM", "SECTION", "SEQUENCE", "KEYWORD", "EXPRESSION")
	if err != nil {
		return nil, eris.Wrapf(err, "loader: sheet %s", SheetEconomic)
	}
	qualifierCol, hasQualifier := headerOptional(sheet, "QUALIFIER")

	byWell := map[string]int{}
	var wells []WellRecords

	for i, row := range sheet.Rows {
		if i == 0 {
			continue
		}
		cells := rowToStrings(row)
		propnum := strings.TrimSpace(cell(cells, cols["PROPNUM"]))
		if propnum == "" {
			continue
		}

		qualifier := ""
		if hasQualifier {
			qualifier = strings.TrimSpace(cell(cells, qualifierCol))
		}
		if opts.Qualifier != "" && qualifier != "" && !strings.EqualFold(qualifier, opts.Qualifier) {
			continue
		}

		section, err := parseIntCell(cell(cells, cols["SECTION"]))
		if err != nil {
			return nil, eris.Wrapf(err, "loader: row %d: section", i+1)
		}
		sequence, err := parseSequenceCell(cell(cells, cols["SEQUENCE"]))
		if err != nil {
			return nil, eris.Wrapf(err, "loader: row %d: sequence", i+1)
		}

		rawKeyword := strings.TrimSpace(cell(cells, cols["KEYWORD"]))
		rec := model.EconomicRecord{
			PropNum:         propnum,
			Section:         section,
			Sequence:        sequence,
			Keyword:         strings.ToUpper(rawKeyword),
			OriginalKeyword: rawKeyword,
			Qualifier:       qualifier,
			Expression:      strings.TrimSpace(cell(cells, cols["EXPRESSION"])),
		}

		idx, ok := byWell[propnum]
		if !ok {
			idx = len(wells)
			byWell[propnum] = idx
			wells = append(wells, WellRecords{PropNum: propnum, Qualifier: qualifier})
		}
		wells[idx].Records = append(wells[idx].Records, rec)
	}

	for i := range wells {
		recs := wells[i].Records
		sort.SliceStable(recs, func(a, b int) bool {
			if recs[a].Section != recs[b].Section {
				return recs[a].Section < recs[b].Section
			}
			return recs[a].Sequence < recs[b].Sequence
		})
	}

	return wells, nil
}

// readSidefile registers "SIDEFILE.<name>" references. A name appearing on
// several rows keeps the last expression.
func readSidefile(sheet *xlsx.Sheet, refs map[string]string) error {
	cols, err := headerIndex(sheet, "FILENAME", "EXPRESSION")
	if err != nil {
		return eris.Wrapf(err, "loader: sheet %s", SheetSidefile)
	}
	for i, row := range sheet.Rows {
		if i == 0 {
			continue
		}
		cells := rowToStrings(row)
		name := strings.TrimSpace(cell(cells, cols["FILENAME"]))
		if name == "" {
			continue
		}
		refs["SIDEFILE."+strings.ToUpper(name)] = strings.TrimSpace(cell(cells, cols["EXPRESSION"]))
	}
	return nil
}

// readSysTable registers "<table>.<alias>" references from the system
// lookup table.
func readSysTable(sheet *xlsx.Sheet, refs map[string]string) error {
	cols, err := headerIndex(sheet, "TBLNAME", "ALIAS", "VALUE")
	if err != nil {
		return eris.Wrapf(err, "loader: sheet %s", SheetSysTable)
	}
	for i, row := range sheet.Rows {
		if i == 0 {
			continue
		}
		cells := rowToStrings(row)
		table := strings.TrimSpace(cell(cells, cols["TBLNAME"]))
		alias := strings.TrimSpace(cell(cells, cols["ALIAS"]))
		if table == "" || alias == "" {
			continue
		}
		key := strings.ToUpper(table) + "." + strings.ToUpper(alias)
		refs[key] = strings.TrimSpace(cell(cells, cols["VALUE"]))
	}
	return nil
}

func readCommonLines(sheet *xlsx.Sheet, lines map[string]string) error {
	cols, err := headerIndex(sheet, "KEYWORD", "EXPRESSION")
	if err != nil {
		return eris.Wrapf(err, "loader: sheet %s", SheetCommonLines)
	}
	for i, row := range sheet.Rows {
		if i == 0 {
			continue
		}
		cells := rowToStrings(row)
		keyword := strings.TrimSpace(cell(cells, cols["KEYWORD"]))
		if keyword == "" {
			continue
		}
		lines[strings.ToUpper(keyword)] = strings.TrimSpace(cell(cells, cols["EXPRESSION"]))
	}
	return nil
}

func readEscalations(sheet *xlsx.Sheet) ([]aries.CustomEscalation, error) {
	cols, err := headerIndex(sheet, "NAME", "FAMILY", "METHOD", "FREQUENCY", "VALUE")
	if err != nil {
		return nil, eris.Wrapf(err, "loader: sheet %s", SheetEscalations)
	}
	var out []aries.CustomEscalation
	for i, row := range sheet.Rows {
		if i == 0 {
			continue
		}
		cells := rowToStrings(row)
		name := strings.TrimSpace(cell(cells, cols["NAME"]))
		if name == "" {
			continue
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(cell(cells, cols["VALUE"])), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "loader: row %d: escalation value", i+1)
		}
		out = append(out, aries.CustomEscalation{
			Name:      name,
			Family:    strings.ToLower(strings.TrimSpace(cell(cells, cols["FAMILY"]))),
			Method:    strings.ToLower(strings.TrimSpace(cell(cells, cols["METHOD"]))),
			Frequency: strings.ToLower(strings.TrimSpace(cell(cells, cols["FREQUENCY"]))),
			Value:     value,
		})
	}
	return out, nil
}

// helpers

func headerIndex(sheet *xlsx.Sheet, required ...string) (map[string]int, error) {
	if len(sheet.Rows) == 0 {
		return nil, eris.New("empty sheet")
	}
	header := rowToStrings(sheet.Rows[0])
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToUpper(strings.TrimSpace(h))] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, eris.Errorf("missing column %s", name)
		}
	}
	return cols, nil
}

func headerOptional(sheet *xlsx.Sheet, name string) (int, bool) {
	if len(sheet.Rows) == 0 {
		return 0, false
	}
	for i, h := range rowToStrings(sheet.Rows[0]) {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i, true
		}
	}
	return 0, false
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, c := range row.Cells {
		cells[j] = c.String()
	}
	return cells
}

func cell(cells []string, i int) string {
	if i < 0 || i >= len(cells) {
		return ""
	}
	return cells[i]
}

// parseSequenceCell reads the SEQUENCE column, which carries either an
// ordinal or the literal overlay flag.
func parseSequenceCell(s string) (int, error) {
	if strings.EqualFold(strings.TrimSpace(s), "overlay") {
		return model.SequenceOverlay, nil
	}
	return parseIntCell(s)
}

// parseIntCell tolerates the numeric renderings spreadsheets produce for
// integer columns ("7", "7.0").
func parseIntCell(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, eris.New("empty numeric cell")
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "parse %q", s)
	}
	return int(f), nil
}
