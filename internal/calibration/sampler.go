package calibration

import (
	"math/rand"

	"github.com/gardenkit/guildscore/internal/species"
)

// Stratum fractions for the Monte-Carlo sample. Climate-compatible
// anchor guilds carry the distribution; a uniform stratum widens the
// observed range; a same-family stratum populates the low-diversity tail
// that uniform sampling almost never reaches.
const (
	fracAnchor     = 0.70
	fracUniform    = 0.20
	fracSameFamily = 0.10

	// anchorAttempts bounds the rejection loop per guild slot before
	// falling back to an unconditioned draw.
	anchorAttempts = 50
)

// sampler draws random guilds of a fixed size from one tier's member
// pool. Not safe for concurrent use; each worker owns its own sampler.
type sampler struct {
	kb    *species.KnowledgeBase
	pool  []string
	size  int
	rng   *rand.Rand
}

func newSampler(kb *species.KnowledgeBase, pool []string, size int, rng *rand.Rand) *sampler {
	return &sampler{kb: kb, pool: pool, size: size, rng: rng}
}

// canSample reports whether the pool is large enough to draw distinct
// guilds of the configured size with some variety.
func (s *sampler) canSample() bool {
	return len(s.pool) >= s.size+3
}

// sampleStratified draws one guild using the stratum proportions.
func (s *sampler) sampleStratified() []*species.Species {
	switch r := s.rng.Float64(); {
	case r < fracAnchor:
		return s.sampleAnchored()
	case r < fracAnchor+fracUniform:
		return s.sampleUniform()
	default:
		return s.sampleSameFamily()
	}
}

// sampleUniform draws size distinct members uniformly.
func (s *sampler) sampleUniform() []*species.Species {
	idx := s.rng.Perm(len(s.pool))[:s.size]
	guild := make([]*species.Species, s.size)
	for i, j := range idx {
		guild[i], _ = s.kb.Get(s.pool[j])
	}
	return guild
}

// sampleAnchored picks a random anchor, then fills the guild with
// members climate-compatible with it, falling back to unconditioned
// draws when the rejection budget runs out.
func (s *sampler) sampleAnchored() []*species.Species {
	anchor, _ := s.kb.Get(s.pool[s.rng.Intn(len(s.pool))])

	guild := []*species.Species{anchor}
	used := map[string]struct{}{anchor.ID: {}}

	for len(guild) < s.size {
		var pick *species.Species
		for attempt := 0; attempt < anchorAttempts; attempt++ {
			cand, _ := s.kb.Get(s.pool[s.rng.Intn(len(s.pool))])
			if _, dup := used[cand.ID]; dup {
				continue
			}
			if Compatible(anchor, cand) {
				pick = cand
				break
			}
		}
		if pick == nil {
			pick = s.drawUnused(used)
		}
		guild = append(guild, pick)
		used[pick.ID] = struct{}{}
	}
	return guild
}

// sampleSameFamily seeds the guild from one family and tops up randomly
// when the family is smaller than the guild.
func (s *sampler) sampleSameFamily() []*species.Species {
	families := s.familiesInPool()
	if len(families) == 0 {
		return s.sampleUniform()
	}

	members := families[s.rng.Intn(len(families))]
	s.rng.Shuffle(len(members), func(i, j int) { members[i], members[j] = members[j], members[i] })

	guild := make([]*species.Species, 0, s.size)
	used := make(map[string]struct{}, s.size)
	for _, id := range members {
		if len(guild) == s.size {
			break
		}
		sp, _ := s.kb.Get(id)
		guild = append(guild, sp)
		used[id] = struct{}{}
	}
	for len(guild) < s.size {
		pick := s.drawUnused(used)
		guild = append(guild, pick)
		used[pick.ID] = struct{}{}
	}
	return guild
}

// familiesInPool lists families with at least two members in the pool.
// Membership slices are copied so shuffling never touches shared state.
func (s *sampler) familiesInPool() [][]string {
	inPool := make(map[string]struct{}, len(s.pool))
	for _, id := range s.pool {
		inPool[id] = struct{}{}
	}

	var out [][]string
	for _, family := range s.kb.Families() {
		var members []string
		for _, id := range s.kb.FamilyMembers(family) {
			if _, ok := inPool[id]; ok {
				members = append(members, id)
			}
		}
		if len(members) >= 2 {
			out = append(out, members)
		}
	}
	return out
}

func (s *sampler) drawUnused(used map[string]struct{}) *species.Species {
	for {
		cand, _ := s.kb.Get(s.pool[s.rng.Intn(len(s.pool))])
		if _, dup := used[cand.ID]; !dup {
			return cand
		}
	}
}
