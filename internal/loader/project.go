package loader

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/aries-import/internal/aries"
)

// ProjectFile is the optional YAML companion to an export: backup sources,
// extra lookup entries, and custom escalation definitions that live outside
// the workbook.
type ProjectFile struct {
	OwnershipBackup *struct {
		NRIOil float64 `yaml:"nri_oil"`
		NRIGas float64 `yaml:"nri_gas"`
	} `yaml:"ownership_backup"`

	PriceBackup *struct {
		Name          string             `yaml:"name"`
		Differentials map[string]float64 `yaml:"differentials"`
	} `yaml:"price_backup"`

	Escalations []struct {
		Name      string  `yaml:"name"`
		Family    string  `yaml:"family"`
		Method    string  `yaml:"method"`
		Frequency string  `yaml:"frequency"`
		Value     float64 `yaml:"value"`
	} `yaml:"escalations"`

	References  map[string]string `yaml:"references"`
	CommonLines map[string]string `yaml:"common_lines"`

	// UseOilPriceAsBase switches differential extraction to the
	// pct_of_oil_price override mode for the whole batch.
	UseOilPriceAsBase bool `yaml:"use_oil_price_as_base"`
}

// LoadProjectFile reads and parses the project YAML at path.
func LoadProjectFile(path string) (*ProjectFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "loader: read project file")
	}
	var pf ProjectFile
	if err := yaml.Unmarshal(raw, &pf); err != nil {
		return nil, eris.Wrap(err, "loader: parse project file")
	}
	return &pf, nil
}

// Apply folds the project file into settings and export lookups. Workbook
// entries win over project-file entries with the same key.
func (pf *ProjectFile) Apply(settings *aries.ProjectSettings, export *Export) {
	if pf == nil {
		return
	}

	if pf.OwnershipBackup != nil {
		settings.OwnershipBackup = &aries.OwnershipBackup{
			NRIOil: pf.OwnershipBackup.NRIOil,
			NRIGas: pf.OwnershipBackup.NRIGas,
		}
	}
	if pf.UseOilPriceAsBase {
		settings.UseOilPriceAsBase = true
	}
	if pf.PriceBackup != nil {
		settings.PriceBackup = &aries.PriceBackup{
			Name:          pf.PriceBackup.Name,
			Differentials: pf.PriceBackup.Differentials,
		}
	}
	for _, e := range pf.Escalations {
		settings.CustomEscalations = append(settings.CustomEscalations, aries.CustomEscalation{
			Name:      e.Name,
			Family:    e.Family,
			Method:    e.Method,
			Frequency: e.Frequency,
			Value:     e.Value,
		})
	}

	if export == nil || export.Lookups == nil {
		return
	}
	if export.Lookups.References == nil {
		export.Lookups.References = map[string]string{}
	}
	if export.Lookups.CommonLines == nil {
		export.Lookups.CommonLines = map[string]string{}
	}
	for key, value := range pf.References {
		upper := strings.ToUpper(strings.TrimSpace(key))
		if _, ok := export.Lookups.References[upper]; !ok {
			export.Lookups.References[upper] = value
		}
	}
	for keyword, expr := range pf.CommonLines {
		upper := strings.ToUpper(strings.TrimSpace(keyword))
		if _, ok := export.Lookups.CommonLines[upper]; !ok {
			export.Lookups.CommonLines[upper] = expr
		}
	}
}
