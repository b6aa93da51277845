package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/gardenkit/guildscore/internal/species"
)

// VetoIncompatibleTiers is the reason string of the climate veto.
const VetoIncompatibleTiers = "Incompatible climate tiers"

// ClimateCheck is the gatekeeper outcome for one guild.
type ClimateCheck struct {
	Veto       bool
	VetoReason string
	// SharedTiers is the non-empty intersection when not vetoed.
	SharedTiers species.TierSet
	// ScoringTier selects the calibration stratum: the requested target
	// tier when it lies in the intersection, otherwise the first shared
	// tier in canonical order.
	ScoringTier species.Tier
	Warnings    []string
}

// CheckClimate intersects member tier sets. An empty intersection is a
// terminal veto naming the members whose tiers cannot be reconciled; a
// non-empty one passes the shared set downstream together with non-fatal
// envelope warnings. Pure function.
func CheckClimate(members []*species.Species, target *species.Tier) ClimateCheck {
	shared := members[0].Tiers
	for _, sp := range members[1:] {
		shared = shared.Intersect(sp.Tiers)
	}

	if shared.IsEmpty() {
		return ClimateCheck{
			Veto:       true,
			VetoReason: fmt.Sprintf("%s: %s", VetoIncompatibleTiers, conflictSummary(members)),
		}
	}

	check := ClimateCheck{
		SharedTiers: shared,
		ScoringTier: shared.First(),
		Warnings:    envelopeWarnings(members),
	}

	if target != nil {
		if shared.Contains(*target) {
			check.ScoringTier = *target
		} else {
			check.Warnings = append(check.Warnings, fmt.Sprintf(
				"requested tier %s is not shared by all members; scoring against %s instead",
				target.Label(), check.ScoringTier.Label()))
		}
	}

	return check
}

// conflictSummary names each member with its tiers so the caller can see
// which combination failed.
func conflictSummary(members []*species.Species) string {
	parts := make([]string, len(members))
	for i, sp := range members {
		tiers := strings.Join(sp.Tiers.Names(), "/")
		if tiers == "" {
			tiers = "none"
		}
		parts[i] = fmt.Sprintf("%s (%s)", sp.ScientificName, tiers)
	}
	return strings.Join(parts, ", ")
}

// envelopeWarnings flags guilds whose shared temperature or
// precipitation envelope is viable but tight. Members without envelope
// data are skipped, never guessed.
func envelopeWarnings(members []*species.Species) []string {
	tMin, tMax := math.Inf(-1), math.Inf(1)
	pMin, pMax := math.Inf(-1), math.Inf(1)
	haveTemp, havePrecip := false, false

	for _, sp := range members {
		if sp.TempMinC != 0 || sp.TempMaxC != 0 {
			tMin = math.Max(tMin, sp.TempMinC)
			tMax = math.Min(tMax, sp.TempMaxC)
			haveTemp = true
		}
		if sp.PrecipMinMM != 0 || sp.PrecipMaxMM != 0 {
			pMin = math.Max(pMin, sp.PrecipMinMM)
			pMax = math.Min(pMax, sp.PrecipMaxMM)
			havePrecip = true
		}
	}

	var warnings []string
	if haveTemp {
		if span := tMax - tMin; span <= 0 {
			warnings = append(warnings, "member temperature envelopes do not overlap; expect stress at range edges")
		} else if span < 5 {
			warnings = append(warnings, fmt.Sprintf("shared temperature window is narrow (%.1f°C)", span))
		}
	}
	if havePrecip {
		if span := pMax - pMin; span <= 0 {
			warnings = append(warnings, "member precipitation envelopes do not overlap; irrigation needs will diverge")
		} else if span < 100 {
			warnings = append(warnings, fmt.Sprintf("shared precipitation window is narrow (%.0f mm)", span))
		}
	}

	return warnings
}
