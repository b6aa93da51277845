package scoring

import (
	"math"

	"github.com/gardenkit/guildscore/internal/species"
)

// Severity constants for shared-organism risks. Host-specific pathogens
// are full weight; generalists spread damage thinner.
const (
	severityHostSpecific = 1.0
	severityGeneralist   = 0.6
	severityHerbivore    = 0.5
)

// CSR dominance thresholds: a member counts as competitor-, stress- or
// ruderal-dominant above these percentages.
const (
	csrCompetitorThreshold = 60.0
	csrStressThreshold     = 60.0
	csrRuderalThreshold    = 50.0
)

// Pairwise strategy-conflict weights.
const (
	conflictCompetitorCompetitor = 1.0
	conflictCompetitorRuderal    = 0.8
	conflictRuderalRuderal       = 0.3
)

// competitorStressWeight depends on the stress-tolerator partner's light
// preference: a shade plant tolerates an overtopping competitor.
var competitorStressWeight = map[species.LightPreference]float64{
	species.LightFullSun: 0.9,
	species.LightPartial: 0.6,
	species.LightShade:   0.0,
}

// ComputeRawScores evaluates every percentile-scored metric for a guild
// of at least two members. All component functions are pure and
// invariant under member permutation. Missing interaction lists
// contribute zero.
func ComputeRawScores(members []*species.Species, biocontrol BiocontrolTable) RawScores {
	pestReg, pathSupp := biocontrolScores(members, biocontrol)

	return RawScores{
		MetricPathogenOverlap:     pathogenOverlap(members),
		MetricHerbivoreOverlap:    herbivoreOverlap(members),
		MetricStrategyConflict:    strategyConflict(members),
		MetricPestRegulation:      pestReg,
		MetricPathogenSuppression: pathSupp,
		MetricFungalNetwork:       fungalNetwork(members),
		MetricPhyloDiversity:      phyloDiversity(members),
		MetricStructuralDiversity: structuralDiversity(members),
		MetricPollinatorSupport:   pollinatorSupport(members),
	}
}

// pathogenOverlap sums (shared_fraction)² × severity over every
// pathogenic fungus hosted by at least two members. A fungus is
// host-specific for the guild when any member records it as such.
func pathogenOverlap(members []*species.Species) float64 {
	n := float64(len(members))

	counts := make(map[string]int)
	hostSpecific := make(map[string]bool)
	for _, sp := range members {
		for fungus, hs := range sp.PathogenicFungi {
			counts[fungus]++
			if hs {
				hostSpecific[fungus] = true
			}
		}
	}

	total := 0.0
	for fungus, k := range counts {
		if k < 2 {
			continue
		}
		frac := float64(k) / n
		severity := severityGeneralist
		if hostSpecific[fungus] {
			severity = severityHostSpecific
		}
		total += frac * frac * severity
	}
	return total
}

// herbivoreOverlap applies the same quadratic-overlap form to shared
// herbivores at fixed severity, excluding organisms any member also
// records as a pollinator or flower visitor.
func herbivoreOverlap(members []*species.Species) float64 {
	n := float64(len(members))

	visitors := make(species.Set)
	for _, sp := range members {
		for v := range sp.Pollinators {
			visitors[v] = struct{}{}
		}
	}

	counts := make(map[string]int)
	for _, sp := range members {
		for h := range sp.Herbivores {
			if visitors.Has(h) {
				continue
			}
			counts[h]++
		}
	}

	total := 0.0
	for _, k := range counts {
		if k < 2 {
			continue
		}
		frac := float64(k) / n
		total += frac * frac * severityHerbivore
	}
	return total
}

// strategyConflict scores antagonistic CSR pairings over all ordered
// member pairs, normalized by n(n-1). Within a pair at most one rule can
// fire because the strategy percentages sum to ~100.
func strategyConflict(members []*species.Species) float64 {
	n := len(members)

	total := 0.0
	for i, a := range members {
		for j, b := range members {
			if i == j {
				continue
			}
			total += pairConflict(a, b)
		}
	}
	return total / float64(n*(n-1))
}

func pairConflict(a, b *species.Species) float64 {
	aC := a.Strategy.C > csrCompetitorThreshold
	aR := a.Strategy.R > csrRuderalThreshold

	switch {
	case aC && b.Strategy.C > csrCompetitorThreshold:
		return conflictCompetitorCompetitor
	case aC && b.Strategy.S > csrStressThreshold:
		return competitorStressWeight[b.LightPreference]
	case aC && b.Strategy.R > csrRuderalThreshold:
		return conflictCompetitorRuderal
	case aR && b.Strategy.R > csrRuderalThreshold:
		return conflictRuderalRuderal
	}
	return 0
}

// fungalNetwork rewards shared beneficial fungi (network term) and broad
// participation (coverage term).
func fungalNetwork(members []*species.Species) float64 {
	n := float64(len(members))

	counts := make(map[string]int)
	covered := 0
	for _, sp := range members {
		beneficial := sp.BeneficialFungi()
		if len(beneficial) > 0 {
			covered++
		}
		for f := range beneficial {
			counts[f]++
		}
	}

	network := 0.0
	for _, k := range counts {
		if k < 2 {
			continue
		}
		network += float64(k) / n
	}
	coverage := float64(covered) / n

	return 0.6*network + 0.4*coverage
}

// phyloDiversity is the mean pairwise Euclidean distance over the full
// eigenvector embedding. Members without coordinates are skipped; fewer
// than two embedded members yields zero.
func phyloDiversity(members []*species.Species) float64 {
	var embedded []*species.Species
	for _, sp := range members {
		if len(sp.PhyloCoords) > 0 {
			embedded = append(embedded, sp)
		}
	}
	if len(embedded) < 2 {
		return 0
	}

	total, pairs := 0.0, 0
	for i := 0; i < len(embedded); i++ {
		for j := i + 1; j < len(embedded); j++ {
			total += euclidean(embedded[i].PhyloCoords, embedded[j].PhyloCoords)
			pairs++
		}
	}
	return total / float64(pairs)
}

func euclidean(a, b []float64) float64 {
	dims := len(a)
	if len(b) < dims {
		dims = len(b)
	}
	sum := 0.0
	for d := 0; d < dims; d++ {
		diff := a[d] - b[d]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

// structuralDiversity is the member height range scaled by the number of
// distinct growth forms present.
func structuralDiversity(members []*species.Species) float64 {
	minH, maxH := math.Inf(1), math.Inf(-1)
	forms := make(map[string]struct{})
	seen := false

	for _, sp := range members {
		if sp.HeightM > 0 {
			minH = math.Min(minH, sp.HeightM)
			maxH = math.Max(maxH, sp.HeightM)
			seen = true
		}
		if sp.GrowthForm != "" {
			forms[sp.GrowthForm] = struct{}{}
		}
	}
	if !seen {
		return 0
	}

	formCount := len(forms)
	if formCount == 0 {
		formCount = 1
	}
	return (maxH - minH) * float64(formCount)
}

// pollinatorSupport sums (shared_fraction)² over pollinators visiting at
// least two members.
func pollinatorSupport(members []*species.Species) float64 {
	n := float64(len(members))

	counts := make(map[string]int)
	for _, sp := range members {
		for p := range sp.Pollinators {
			counts[p]++
		}
	}

	total := 0.0
	for _, k := range counts {
		if k < 2 {
			continue
		}
		frac := float64(k) / n
		total += frac * frac
	}
	return total
}

// biocontrolScores counts cross-member biocontrol relationships: for
// each ordered pair (victim, helper), herbivores of the victim
// suppressed by an entomopathogenic fungus the helper hosts (pest
// regulation), and pathogens of the victim antagonized by a
// mycoparasite the helper hosts (pathogen suppression). The relationship
// table is externally curated and injected; an empty table scores zero.
func biocontrolScores(members []*species.Species, table BiocontrolTable) (pestReg, pathSupp float64) {
	for i, victim := range members {
		for j, helper := range members {
			if i == j {
				continue
			}
			for herbivore := range victim.Herbivores {
				if table.ControlsPest(herbivore, helper.EntomopathogenicFungi) {
					pestReg++
				}
			}
			for pathogen := range victim.Pathogens() {
				if table.SuppressesPathogen(pathogen, helper.MycoparasiteFungi) {
					pathSupp++
				}
			}
		}
	}
	return pestReg, pathSupp
}
