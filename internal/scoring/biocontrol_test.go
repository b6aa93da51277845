package scoring

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardenkit/guildscore/internal/species"
)

func TestLoadBiocontrolTable(t *testing.T) {
	t.Run("empty path yields empty table", func(t *testing.T) {
		table, err := LoadBiocontrolTable("")
		require.NoError(t, err)
		assert.Zero(t, table.Size())
	})

	t.Run("parses relationship file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "biocontrol.yaml")
		content := `
pest_enemies:
  aphis_pomi:
    - beauveria_bassiana
    - lecanicillium_lecanii
pathogen_antagonists:
  fusarium_oxysporum:
    - trichoderma_harzianum
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		table, err := LoadBiocontrolTable(path)
		require.NoError(t, err)
		assert.Equal(t, 2, table.Size())
		assert.True(t, table.ControlsPest("aphis_pomi", species.NewSet("beauveria_bassiana")))
		assert.False(t, table.ControlsPest("aphis_pomi", species.NewSet("trichoderma_harzianum")))
		assert.True(t, table.SuppressesPathogen("fusarium_oxysporum", species.NewSet("trichoderma_harzianum")))
		assert.False(t, table.SuppressesPathogen("unknown_pathogen", species.NewSet("trichoderma_harzianum")))
	})

	t.Run("missing file errors", func(t *testing.T) {
		_, err := LoadBiocontrolTable(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml errors", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("pest_enemies: [not a map"), 0o644))
		_, err := LoadBiocontrolTable(path)
		assert.Error(t, err)
	})
}

func TestSizeClassFor(t *testing.T) {
	tests := []struct {
		n    int
		want SizeClass
	}{
		{2, SizePair},
		{3, SizeSmall}, {4, SizeSmall},
		{5, SizeMedium}, {7, SizeMedium},
		{8, SizeLarge}, {20, SizeLarge},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SizeClassFor(tt.n), "n=%d", tt.n)
	}

	for _, class := range AllSizeClasses {
		assert.Equal(t, class, SizeClassFor(class.RepresentativeSize()))
	}
}
