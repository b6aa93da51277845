package calibration

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardenkit/guildscore/internal/scoring"
	"github.com/gardenkit/guildscore/internal/species"
)

func TestGeneratorRun(t *testing.T) {
	kb := aridKB(t, 20)
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	gen := NewGenerator(kb, scoring.BiocontrolTable{}, store, GeneratorConfig{
		GuildsPerCell:      300,
		Workers:            2,
		Seed:               42,
		Tiers:              []species.Tier{species.TierArid},
		SizeClasses:        []scoring.SizeClass{scoring.SizePair, scoring.SizeSmall},
		MinSamplesOverride: 100,
	})

	summary, err := gen.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 2, summary.Published)
	assert.Empty(t, summary.SkippedCells)

	data, err := os.ReadFile(filepath.Join(dir, "calibration_tier_6_arid_pair.json"))
	require.NoError(t, err)

	var table Table
	require.NoError(t, json.Unmarshal(data, &table))

	assert.Equal(t, species.TierArid.String(), table.Tier)
	assert.Equal(t, scoring.SizePair, table.SizeClass)
	assert.Equal(t, 300, table.SampleCount)
	assert.Equal(t, summary.RunID, table.RunID)
	assert.Equal(t, kb.Checksum(), table.KBChecksum)
	assert.False(t, table.GeneratedAt.IsZero())
	assert.NoError(t, table.ValidateSchema())

	for m, params := range table.Metrics {
		assert.Equal(t, 300, params.SampleCount, "metric %s", m)
		for i := 1; i < len(params.Values); i++ {
			assert.GreaterOrEqual(t, params.Values[i], params.Values[i-1],
				"metric %s breakpoints must be non-decreasing", m)
		}
	}
}

func TestGeneratorSkipsUndersizedCells(t *testing.T) {
	// Eight members cannot support large guilds (representative size 9).
	kb := aridKB(t, 8)
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	gen := NewGenerator(kb, scoring.BiocontrolTable{}, store, GeneratorConfig{
		GuildsPerCell:      150,
		Workers:            1,
		Seed:               7,
		Tiers:              []species.Tier{species.TierArid},
		SizeClasses:        []scoring.SizeClass{scoring.SizePair, scoring.SizeLarge},
		MinSamplesOverride: 100,
	})

	summary, err := gen.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Published)
	require.Len(t, summary.SkippedCells, 1)
	assert.Contains(t, summary.SkippedCells[0], "tier_6_arid/large")
}

func TestGeneratorSkipsEmptyTier(t *testing.T) {
	kb := aridKB(t, 12)
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	gen := NewGenerator(kb, scoring.BiocontrolTable{}, store, GeneratorConfig{
		GuildsPerCell:      150,
		Workers:            1,
		Seed:               7,
		Tiers:              []species.Tier{species.TierTropical},
		SizeClasses:        []scoring.SizeClass{scoring.SizePair},
		MinSamplesOverride: 100,
	})

	summary, err := gen.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Published)
	assert.Len(t, summary.SkippedCells, 1)
}

func TestGeneratorHonoursCancellation(t *testing.T) {
	kb := aridKB(t, 20)
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	gen := NewGenerator(kb, scoring.BiocontrolTable{}, store, GeneratorConfig{
		GuildsPerCell:      100000,
		Workers:            2,
		Seed:               1,
		Tiers:              []species.Tier{species.TierArid},
		SizeClasses:        []scoring.SizeClass{scoring.SizeLarge},
		MinSamplesOverride: 100,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = gen.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGeneratorDeterministicWithSingleWorker(t *testing.T) {
	kb := aridKB(t, 20)

	run := func(dir string) Table {
		store, err := NewStore(dir)
		require.NoError(t, err)

		gen := NewGenerator(kb, scoring.BiocontrolTable{}, store, GeneratorConfig{
			GuildsPerCell:      200,
			Workers:            1,
			Seed:               99,
			Tiers:              []species.Tier{species.TierArid},
			SizeClasses:        []scoring.SizeClass{scoring.SizeSmall},
			MinSamplesOverride: 100,
		})
		_, err = gen.Run(context.Background())
		require.NoError(t, err)

		data, err := os.ReadFile(filepath.Join(dir, "calibration_tier_6_arid_small.json"))
		require.NoError(t, err)
		var table Table
		require.NoError(t, json.Unmarshal(data, &table))
		return table
	}

	first := run(t.TempDir())
	second := run(t.TempDir())

	assert.Equal(t, first.Metrics, second.Metrics)
}
