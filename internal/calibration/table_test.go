package calibration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardenkit/guildscore/internal/scoring"
	"github.com/gardenkit/guildscore/internal/species"
)

func validTable(tier species.Tier, class scoring.SizeClass) *Table {
	metrics := make(map[scoring.Metric]scoring.PercentileParams, len(scoring.AllMetrics))
	for _, m := range scoring.AllMetrics {
		var p scoring.PercentileParams
		for i := range p.Values {
			p.Values[i] = float64(i)
		}
		p.SampleCount = MinSamples
		metrics[m] = p
	}
	return &Table{
		Tier:        tier.String(),
		SizeClass:   class,
		Metrics:     metrics,
		SampleCount: MinSamples,
		RunID:       "run-test",
		KBChecksum:  "deadbeefdeadbeef",
		GeneratedAt: time.Now().UTC(),
	}
}

func TestTableValidate(t *testing.T) {
	t.Run("complete table passes", func(t *testing.T) {
		assert.NoError(t, validTable(species.TierArid, scoring.SizePair).Validate())
	})

	t.Run("unknown tier fails", func(t *testing.T) {
		table := validTable(species.TierArid, scoring.SizePair)
		table.Tier = "tier_7_lunar"
		assert.Error(t, table.Validate())
	})

	t.Run("missing metric is a schema error", func(t *testing.T) {
		table := validTable(species.TierArid, scoring.SizePair)
		delete(table.Metrics, scoring.MetricPhyloDiversity)

		err := table.Validate()
		var schema *scoring.SchemaError
		require.ErrorAs(t, err, &schema)
		assert.Contains(t, schema.Missing, scoring.MetricPhyloDiversity)
	})

	t.Run("under-sampled table fails full validation only", func(t *testing.T) {
		table := validTable(species.TierArid, scoring.SizePair)
		table.SampleCount = MinSamples - 1

		assert.Error(t, table.Validate())
		assert.NoError(t, table.ValidateSchema())
	})
}

func TestNewSet(t *testing.T) {
	t.Run("rejects duplicate cells", func(t *testing.T) {
		_, err := NewSet([]*Table{
			validTable(species.TierArid, scoring.SizePair),
			validTable(species.TierArid, scoring.SizePair),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate calibration table")
	})

	t.Run("indexes by cell", func(t *testing.T) {
		set, err := NewSet([]*Table{
			validTable(species.TierArid, scoring.SizePair),
			validTable(species.TierTropical, scoring.SizeLarge),
		})
		require.NoError(t, err)

		assert.Equal(t, 2, set.Len())
		assert.True(t, set.HasCell(species.TierArid, scoring.SizePair))
		assert.False(t, set.HasCell(species.TierArid, scoring.SizeLarge))

		_, ok := set.Params(species.TierTropical, scoring.SizeLarge, scoring.MetricFungalNetwork)
		assert.True(t, ok)
		_, ok = set.Params(species.TierTropical, scoring.SizePair, scoring.MetricFungalNetwork)
		assert.False(t, ok)
	})
}

func TestComputeParams(t *testing.T) {
	// 101 evenly spaced samples 0..100 make every percentile its own
	// value.
	samples := make([]float64, 101)
	for i := range samples {
		samples[i] = float64(100 - i) // reverse order, computeParams sorts
	}

	params := computeParams(samples)

	assert.Equal(t, 101, params.SampleCount)
	assert.InDelta(t, 50.0, params.Mean, 1e-9)

	for i, level := range scoring.PercentileLevels {
		assert.InDelta(t, level, params.Values[i], 1e-9, "level %v", level)
	}

	// Non-decreasing breakpoints.
	for i := 1; i < len(params.Values); i++ {
		assert.GreaterOrEqual(t, params.Values[i], params.Values[i-1])
	}
}

func TestComputeParamsConstantSamples(t *testing.T) {
	samples := []float64{3, 3, 3, 3, 3}
	params := computeParams(samples)

	assert.InDelta(t, 3.0, params.Mean, 1e-9)
	assert.Zero(t, params.Std)
	for _, v := range params.Values {
		assert.InDelta(t, 3.0, v, 1e-9)
	}
}
