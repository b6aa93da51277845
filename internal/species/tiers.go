package species

import "strings"

// Tier is one of six disjoint Köppen-derived climate groups used to
// stratify calibration and to veto climate-incompatible guilds.
type Tier uint8

const (
	TierTropical Tier = iota
	TierMediterranean
	TierHumidTemperate
	TierContinental
	TierBorealPolar
	TierArid

	NumTiers = 6
)

var tierNames = [NumTiers]string{
	"tier_1_tropical",
	"tier_2_mediterranean",
	"tier_3_humid_temperate",
	"tier_4_continental",
	"tier_5_boreal_polar",
	"tier_6_arid",
}

var tierLabels = [NumTiers]string{
	"Tropical",
	"Mediterranean",
	"Humid Temperate",
	"Continental",
	"Boreal/Polar",
	"Arid",
}

// koppenTiers maps Köppen-Geiger codes onto tiers. A species may carry
// several codes and therefore belong to several tiers.
var koppenTiers = map[string]Tier{
	"Af": TierTropical, "Am": TierTropical, "As": TierTropical, "Aw": TierTropical,
	"Csa": TierMediterranean, "Csb": TierMediterranean, "Csc": TierMediterranean,
	"Cfa": TierHumidTemperate, "Cfb": TierHumidTemperate, "Cfc": TierHumidTemperate,
	"Cwa": TierHumidTemperate, "Cwb": TierHumidTemperate, "Cwc": TierHumidTemperate,
	"Dfa": TierContinental, "Dfb": TierContinental, "Dfc": TierContinental, "Dfd": TierContinental,
	"Dsa": TierContinental, "Dsb": TierContinental, "Dsc": TierContinental, "Dsd": TierContinental,
	"Dwa": TierContinental, "Dwb": TierContinental, "Dwc": TierContinental, "Dwd": TierContinental,
	"ET": TierBorealPolar, "EF": TierBorealPolar,
	"BWh": TierArid, "BWk": TierArid, "BSh": TierArid, "BSk": TierArid,
}

// String returns the canonical tier name.
func (t Tier) String() string {
	if int(t) < len(tierNames) {
		return tierNames[t]
	}
	return "unknown"
}

// Label returns a human-readable tier name for explanations.
func (t Tier) Label() string {
	if int(t) < len(tierLabels) {
		return tierLabels[t]
	}
	return "Unknown"
}

// ParseTier resolves a canonical tier name (or its numeric shorthand like
// "tier_3") back to a Tier.
func ParseTier(name string) (Tier, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range tierNames {
		if n == name || strings.HasPrefix(n, name+"_") || n == "tier_"+name {
			return Tier(i), true
		}
	}
	return 0, false
}

// AllTiers returns every tier in canonical order.
func AllTiers() []Tier {
	tiers := make([]Tier, NumTiers)
	for i := range tiers {
		tiers[i] = Tier(i)
	}
	return tiers
}

// TierSet is a bitset of climate tiers.
type TierSet uint8

// TierSetOf builds a set from individual tiers.
func TierSetOf(tiers ...Tier) TierSet {
	var s TierSet
	for _, t := range tiers {
		s |= 1 << t
	}
	return s
}

// TiersFromKoppen maps a list of Köppen codes to a tier set. Unknown
// codes are ignored rather than invented.
func TiersFromKoppen(codes []string) TierSet {
	var s TierSet
	for _, c := range codes {
		if t, ok := koppenTiers[strings.TrimSpace(c)]; ok {
			s |= 1 << t
		}
	}
	return s
}

// Contains reports membership of a single tier.
func (s TierSet) Contains(t Tier) bool {
	return s&(1<<t) != 0
}

// Intersect returns the tiers common to both sets.
func (s TierSet) Intersect(other TierSet) TierSet {
	return s & other
}

// IsEmpty reports whether the set holds no tiers.
func (s TierSet) IsEmpty() bool {
	return s == 0
}

// Len returns the number of tiers in the set.
func (s TierSet) Len() int {
	n := 0
	for t := 0; t < NumTiers; t++ {
		if s.Contains(Tier(t)) {
			n++
		}
	}
	return n
}

// Tiers lists the members of the set in canonical order.
func (s TierSet) Tiers() []Tier {
	var out []Tier
	for t := 0; t < NumTiers; t++ {
		if s.Contains(Tier(t)) {
			out = append(out, Tier(t))
		}
	}
	return out
}

// First returns the lowest-numbered tier in the set. Callers must check
// IsEmpty first.
func (s TierSet) First() Tier {
	for t := 0; t < NumTiers; t++ {
		if s.Contains(Tier(t)) {
			return Tier(t)
		}
	}
	return 0
}

// Names returns the canonical names of the member tiers.
func (s TierSet) Names() []string {
	tiers := s.Tiers()
	names := make([]string, len(tiers))
	for i, t := range tiers {
		names[i] = t.String()
	}
	return names
}
