package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardenkit/guildscore/internal/species"
)

func withTiers(tiers ...species.Tier) func(*species.Species) {
	return func(sp *species.Species) { sp.Tiers = species.TierSetOf(tiers...) }
}

func withEnvelope(tMin, tMax, pMin, pMax float64) func(*species.Species) {
	return func(sp *species.Species) {
		sp.TempMinC, sp.TempMaxC = tMin, tMax
		sp.PrecipMinMM, sp.PrecipMaxMM = pMin, pMax
	}
}

func TestCheckClimateVeto(t *testing.T) {
	banana := plant("musa_acuminata", withTiers(species.TierTropical))
	spruce := plant("picea_abies", withTiers(species.TierBorealPolar, species.TierContinental))

	check := CheckClimate([]*species.Species{banana, spruce}, nil)

	require.True(t, check.Veto)
	assert.Contains(t, check.VetoReason, VetoIncompatibleTiers)
	assert.Contains(t, check.VetoReason, "musa_acuminata")
	assert.Contains(t, check.VetoReason, "picea_abies")
	assert.Contains(t, check.VetoReason, "tier_1_tropical")
	assert.Contains(t, check.VetoReason, "tier_5_boreal_polar")
	assert.True(t, check.SharedTiers.IsEmpty())
}

func TestCheckClimateSharedTiers(t *testing.T) {
	a := plant("a", withTiers(species.TierMediterranean, species.TierHumidTemperate))
	b := plant("b", withTiers(species.TierHumidTemperate, species.TierContinental))
	c := plant("c", withTiers(species.TierHumidTemperate))

	check := CheckClimate([]*species.Species{a, b, c}, nil)

	require.False(t, check.Veto)
	assert.Equal(t, species.TierSetOf(species.TierHumidTemperate), check.SharedTiers)
	assert.Equal(t, species.TierHumidTemperate, check.ScoringTier)
}

func TestCheckClimateTargetTier(t *testing.T) {
	a := plant("a", withTiers(species.TierMediterranean, species.TierHumidTemperate))
	b := plant("b", withTiers(species.TierMediterranean, species.TierHumidTemperate))

	t.Run("target inside the intersection wins", func(t *testing.T) {
		target := species.TierHumidTemperate
		check := CheckClimate([]*species.Species{a, b}, &target)

		require.False(t, check.Veto)
		assert.Equal(t, species.TierHumidTemperate, check.ScoringTier)
		assert.Empty(t, check.Warnings)
	})

	t.Run("target outside falls back with a warning", func(t *testing.T) {
		target := species.TierArid
		check := CheckClimate([]*species.Species{a, b}, &target)

		require.False(t, check.Veto)
		assert.Equal(t, species.TierMediterranean, check.ScoringTier)
		require.Len(t, check.Warnings, 1)
		assert.Contains(t, check.Warnings[0], "not shared by all members")
	})
}

func TestEnvelopeWarnings(t *testing.T) {
	tests := []struct {
		name     string
		members  []*species.Species
		contains []string
	}{
		{
			name: "comfortable overlap is silent",
			members: []*species.Species{
				plant("a", withTiers(species.TierHumidTemperate), withEnvelope(-10, 30, 400, 1200)),
				plant("b", withTiers(species.TierHumidTemperate), withEnvelope(-5, 28, 500, 1100)),
			},
		},
		{
			name: "narrow temperature window warns",
			members: []*species.Species{
				plant("a", withTiers(species.TierHumidTemperate), withEnvelope(0, 22, 400, 1200)),
				plant("b", withTiers(species.TierHumidTemperate), withEnvelope(18, 35, 400, 1200)),
			},
			contains: []string{"temperature window is narrow"},
		},
		{
			name: "disjoint precipitation envelopes warn",
			members: []*species.Species{
				plant("a", withTiers(species.TierHumidTemperate), withEnvelope(0, 30, 200, 400)),
				plant("b", withTiers(species.TierHumidTemperate), withEnvelope(0, 30, 800, 1500)),
			},
			contains: []string{"precipitation envelopes do not overlap"},
		},
		{
			name: "missing envelopes are skipped",
			members: []*species.Species{
				plant("a", withTiers(species.TierHumidTemperate)),
				plant("b", withTiers(species.TierHumidTemperate)),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := CheckClimate(tt.members, nil)
			require.False(t, check.Veto)

			if len(tt.contains) == 0 {
				assert.Empty(t, check.Warnings)
				return
			}
			require.Len(t, check.Warnings, len(tt.contains))
			for i, want := range tt.contains {
				assert.Contains(t, check.Warnings[i], want)
			}
		})
	}
}
