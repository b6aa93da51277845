package calibration

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gardenkit/guildscore/internal/species"
)

func envSpecies(tMin, tMax, pMin, pMax float64) *species.Species {
	return &species.Species{
		TempMinC:    tMin,
		TempMaxC:    tMax,
		PrecipMinMM: pMin,
		PrecipMaxMM: pMax,
	}
}

func TestCompatIndex(t *testing.T) {
	tests := []struct {
		name string
		a, b *species.Species
		want float64
	}{
		{
			name: "identical envelopes fully overlap",
			a:    envSpecies(0, 30, 400, 1200),
			b:    envSpecies(0, 30, 400, 1200),
			want: 1,
		},
		{
			name: "disjoint temperature ranges score zero",
			a:    envSpecies(0, 10, 400, 1200),
			b:    envSpecies(20, 35, 400, 1200),
			want: 0,
		},
		{
			name: "overlap measured against the narrower envelope",
			a:    envSpecies(0, 40, 400, 1200),
			b:    envSpecies(30, 50, 400, 1200), // 10 of b's 20 degrees overlap
			want: 0.5,
		},
		{
			name: "minimum of temperature and precipitation fractions",
			a:    envSpecies(0, 30, 0, 1000),
			b:    envSpecies(0, 30, 900, 1400), // 100 of b's 500mm overlap
			want: 0.2,
		},
		{
			name: "missing envelope data is treated as compatible",
			a:    &species.Species{},
			b:    envSpecies(0, 30, 400, 1200),
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CompatIndex(tt.a, tt.b), 1e-9)
			// Symmetric in its arguments.
			assert.InDelta(t, tt.want, CompatIndex(tt.b, tt.a), 1e-9)
		})
	}
}

func TestCompatible(t *testing.T) {
	a := envSpecies(0, 30, 0, 1000)

	assert.True(t, Compatible(a, envSpecies(0, 30, 900, 1400)))  // 100/500, exactly at threshold
	assert.False(t, Compatible(a, envSpecies(0, 30, 960, 1460))) // 40/500, below threshold
	assert.True(t, Compatible(a, &species.Species{}))            // no data
}
