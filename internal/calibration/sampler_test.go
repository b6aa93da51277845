package calibration

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardenkit/guildscore/internal/species"
)

// aridKB builds a knowledge base of n arid-tier species spread across a
// handful of families, with staggered climate envelopes so anchor
// sampling has both compatible and incompatible pairs to reject.
func aridKB(t *testing.T, n int) *species.KnowledgeBase {
	t.Helper()

	families := []string{"Cactaceae", "Agavaceae", "Fabaceae"}
	records := make([]species.Species, n)
	for i := range records {
		records[i] = species.Species{
			ID:             fmt.Sprintf("sp_%02d", i),
			ScientificName: fmt.Sprintf("Species %d", i),
			Family:         families[i%len(families)],
			Tiers:          species.TierSetOf(species.TierArid),
			TempMinC:       float64(i * 2),
			TempMaxC:       float64(i*2 + 20),
			PrecipMinMM:    float64(i * 30),
			PrecipMaxMM:    float64(i*30 + 200),
		}
	}

	kb, err := species.NewKnowledgeBase(records)
	require.NoError(t, err)
	return kb
}

func distinctIDs(t *testing.T, guild []*species.Species) {
	t.Helper()
	seen := make(map[string]struct{}, len(guild))
	for _, sp := range guild {
		_, dup := seen[sp.ID]
		require.False(t, dup, "duplicate member %s", sp.ID)
		seen[sp.ID] = struct{}{}
	}
}

func TestSamplerCanSample(t *testing.T) {
	kb := aridKB(t, 12)
	pool := kb.TierMembers(species.TierArid)
	rng := rand.New(rand.NewSource(1))

	assert.True(t, newSampler(kb, pool, 4, rng).canSample())
	assert.True(t, newSampler(kb, pool, 9, rng).canSample())
	assert.False(t, newSampler(kb, pool, 10, rng).canSample())
	assert.False(t, newSampler(kb, pool[:4], 2, rng).canSample())
}

func TestSamplerDrawsDistinctMembers(t *testing.T) {
	kb := aridKB(t, 15)
	pool := kb.TierMembers(species.TierArid)
	smp := newSampler(kb, pool, 5, rand.New(rand.NewSource(7)))

	for trial := 0; trial < 200; trial++ {
		guild := smp.sampleStratified()
		require.Len(t, guild, 5)
		distinctIDs(t, guild)
	}
}

func TestSampleUniformCoversPool(t *testing.T) {
	kb := aridKB(t, 10)
	pool := kb.TierMembers(species.TierArid)
	smp := newSampler(kb, pool, 3, rand.New(rand.NewSource(3)))

	seen := make(map[string]struct{})
	for trial := 0; trial < 500; trial++ {
		for _, sp := range smp.sampleUniform() {
			seen[sp.ID] = struct{}{}
		}
	}
	assert.Len(t, seen, 10)
}

func TestSampleAnchoredPrefersCompatiblePartners(t *testing.T) {
	kb := aridKB(t, 20)
	pool := kb.TierMembers(species.TierArid)
	smp := newSampler(kb, pool, 3, rand.New(rand.NewSource(11)))

	compatible, total := 0, 0
	for trial := 0; trial < 300; trial++ {
		guild := smp.sampleAnchored()
		require.Len(t, guild, 3)
		distinctIDs(t, guild)

		anchor := guild[0]
		for _, sp := range guild[1:] {
			if Compatible(anchor, sp) {
				compatible++
			}
			total++
		}
	}

	// Rejection sampling should make compatible partners dominate, far
	// beyond what uniform draws over staggered envelopes would give.
	assert.Greater(t, float64(compatible)/float64(total), 0.9)
}

func TestSampleSameFamilySeedsFromOneFamily(t *testing.T) {
	kb := aridKB(t, 18) // 6 members per family
	pool := kb.TierMembers(species.TierArid)
	smp := newSampler(kb, pool, 4, rand.New(rand.NewSource(5)))

	for trial := 0; trial < 100; trial++ {
		guild := smp.sampleSameFamily()
		require.Len(t, guild, 4)
		distinctIDs(t, guild)

		// All four fit inside a six-member family.
		family := guild[0].Family
		for _, sp := range guild[1:] {
			assert.Equal(t, family, sp.Family)
		}
	}
}

func TestSampleSameFamilyFallsBackWithoutFamilies(t *testing.T) {
	records := make([]species.Species, 8)
	for i := range records {
		records[i] = species.Species{
			ID:    fmt.Sprintf("solo_%d", i),
			Tiers: species.TierSetOf(species.TierArid),
		}
	}
	kb, err := species.NewKnowledgeBase(records)
	require.NoError(t, err)

	smp := newSampler(kb, kb.TierMembers(species.TierArid), 3, rand.New(rand.NewSource(9)))
	guild := smp.sampleSameFamily()
	require.Len(t, guild, 3)
	distinctIDs(t, guild)
}
