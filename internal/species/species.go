package species

import "sort"

// Set is an unordered collection of organism or fungus names. Each set is
// exclusively owned by its Species and never mutated after load.
type Set map[string]struct{}

// NewSet builds a set from names, dropping empties.
func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		if n != "" {
			s[n] = struct{}{}
		}
	}
	return s
}

// Has reports membership.
func (s Set) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the members in sorted order.
func (s Set) Names() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// LightPreference captures a species' light requirement, used to weight
// competitor/stress-tolerator strategy conflicts.
type LightPreference string

const (
	LightFullSun LightPreference = "full_sun"
	LightPartial LightPreference = "partial_shade"
	LightShade   LightPreference = "shade"
)

// CSR holds Grime strategy percentages (competitor, stress-tolerator,
// ruderal), summing to roughly 100.
type CSR struct {
	C float64 `json:"c"`
	S float64 `json:"s"`
	R float64 `json:"r"`
}

// Species is one record of the read-only knowledge base. Records are
// produced by the upstream trait pipeline and never modified here;
// absent lists mean "no data", not "no interactions".
type Species struct {
	ID             string `json:"id"`
	ScientificName string `json:"scientific_name"`
	Family         string `json:"family"`
	Genus          string `json:"genus"`

	HeightM    float64 `json:"height_m"`
	GrowthForm string  `json:"growth_form"`

	Strategy        CSR             `json:"strategy"`
	LightPreference LightPreference `json:"light_preference"`

	NitrogenFixer      bool    `json:"nitrogen_fixer"`
	NitrogenConfidence float64 `json:"nitrogen_confidence"`

	SoilPHMin float64 `json:"soil_ph_min"`
	SoilPHMax float64 `json:"soil_ph_max"`

	// Climate envelope, used for compatibility-weighted calibration
	// sampling and for non-fatal climate warnings.
	TempMinC     float64 `json:"temp_min_c"`
	TempMaxC     float64 `json:"temp_max_c"`
	PrecipMinMM  float64 `json:"precip_min_mm"`
	PrecipMaxMM  float64 `json:"precip_max_mm"`

	// Full phylogenetic eigenvector embedding. All retained coordinates
	// participate in diversity distances; truncating the set skews the
	// calibration distributions.
	PhyloCoords []float64 `json:"phylo_coords"`

	Tiers TierSet `json:"tiers"`

	// PathogenicFungi maps fungus name to whether it is host-specific on
	// this species.
	PathogenicFungi map[string]bool `json:"pathogenic_fungi"`

	MycorrhizalFungi      Set `json:"mycorrhizal_fungi"`
	EndophyticFungi       Set `json:"endophytic_fungi"`
	SaprotrophicFungi     Set `json:"saprotrophic_fungi"`
	MycoparasiteFungi     Set `json:"mycoparasite_fungi"`
	EntomopathogenicFungi Set `json:"entomopathogenic_fungi"`

	Herbivores         Set `json:"herbivores"`
	Pollinators        Set `json:"pollinators"`
	NonFungalPathogens Set `json:"nonfungal_pathogens"`
}

// BeneficialFungi returns the union of mycorrhizal, endophytic and
// saprotrophic partners.
func (sp *Species) BeneficialFungi() Set {
	out := make(Set, len(sp.MycorrhizalFungi)+len(sp.EndophyticFungi)+len(sp.SaprotrophicFungi))
	for f := range sp.MycorrhizalFungi {
		out[f] = struct{}{}
	}
	for f := range sp.EndophyticFungi {
		out[f] = struct{}{}
	}
	for f := range sp.SaprotrophicFungi {
		out[f] = struct{}{}
	}
	return out
}

// Pathogens returns the names of all recorded pathogens, fungal and
// non-fungal, used by the pathogen-antagonist metric.
func (sp *Species) Pathogens() Set {
	out := make(Set, len(sp.PathogenicFungi)+len(sp.NonFungalPathogens))
	for f := range sp.PathogenicFungi {
		out[f] = struct{}{}
	}
	for p := range sp.NonFungalPathogens {
		out[p] = struct{}{}
	}
	return out
}

// SoilPHMid returns the midpoint of the tolerated pH range, or 0 when the
// range is unset.
func (sp *Species) SoilPHMid() float64 {
	if sp.SoilPHMin == 0 && sp.SoilPHMax == 0 {
		return 0
	}
	return (sp.SoilPHMin + sp.SoilPHMax) / 2
}
