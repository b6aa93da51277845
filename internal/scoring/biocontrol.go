package scoring

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gardenkit/guildscore/internal/species"
)

// BiocontrolTable is the externally curated cross-species relationship
// table behind the pest-regulation and pathogen-suppression metrics. It
// is configuration data, not inferred: an organism absent from the table
// simply has no known antagonists.
type BiocontrolTable struct {
	// PestEnemies maps a herbivore to the entomopathogenic fungi known
	// to suppress it.
	PestEnemies map[string][]string `yaml:"pest_enemies"`
	// PathogenAntagonists maps a pathogen to its mycoparasite
	// antagonists.
	PathogenAntagonists map[string][]string `yaml:"pathogen_antagonists"`
}

// LoadBiocontrolTable reads the YAML relationship file. An empty path
// yields an empty table, which scores both biocontrol metrics as zero.
func LoadBiocontrolTable(path string) (BiocontrolTable, error) {
	var table BiocontrolTable
	if path == "" {
		return table, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return table, fmt.Errorf("failed to read biocontrol table: %w", err)
	}
	if err := yaml.Unmarshal(data, &table); err != nil {
		return table, fmt.Errorf("failed to parse biocontrol table: %w", err)
	}
	return table, nil
}

// ControlsPest reports whether any of the given fungi is a known enemy
// of the herbivore.
func (t BiocontrolTable) ControlsPest(herbivore string, fungi species.Set) bool {
	return anyMatch(t.PestEnemies[herbivore], fungi)
}

// SuppressesPathogen reports whether any of the given fungi antagonizes
// the pathogen.
func (t BiocontrolTable) SuppressesPathogen(pathogen string, fungi species.Set) bool {
	return anyMatch(t.PathogenAntagonists[pathogen], fungi)
}

func anyMatch(names []string, fungi species.Set) bool {
	for _, n := range names {
		if fungi.Has(n) {
			return true
		}
	}
	return false
}

// Size returns the number of relationship entries, for startup logging.
func (t BiocontrolTable) Size() int {
	return len(t.PestEnemies) + len(t.PathogenAntagonists)
}
