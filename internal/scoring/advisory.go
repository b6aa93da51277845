package scoring

import (
	"math"

	"github.com/gardenkit/guildscore/internal/species"
)

// Advisory flag keys and values. These are categorical judgements that
// bypass percentile calibration entirely and pass through to the caller
// unchanged.
const (
	FlagNitrogen = "nitrogen_fixation"
	FlagSoilPH   = "soil_ph"

	NitrogenNone     = "no_fixers"
	NitrogenSingle   = "single_fixer"
	NitrogenMultiple = "multiple_fixers"

	SoilPHCompatible = "compatible"
	SoilPHModerate   = "moderate_mismatch"
	SoilPHSevere     = "severe_mismatch"
)

// pH midpoint spreads beyond these bounds flag a mismatch.
const (
	soilPHSevereSpread   = 2.5
	soilPHModerateSpread = 1.5
)

// AdvisoryFlags evaluates the non-percentile checks: nitrogen
// self-sufficiency and soil-pH compatibility. Members without pH data
// are skipped rather than assumed.
func AdvisoryFlags(members []*species.Species) map[string]string {
	flags := map[string]string{
		FlagNitrogen: nitrogenFlag(members),
	}
	if ph := soilPHFlag(members); ph != "" {
		flags[FlagSoilPH] = ph
	}
	return flags
}

func nitrogenFlag(members []*species.Species) string {
	fixers := 0
	for _, sp := range members {
		if sp.NitrogenFixer {
			fixers++
		}
	}
	switch {
	case fixers == 0:
		return NitrogenNone
	case fixers == 1:
		return NitrogenSingle
	default:
		return NitrogenMultiple
	}
}

func soilPHFlag(members []*species.Species) string {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, sp := range members {
		mid := sp.SoilPHMid()
		if mid == 0 {
			continue
		}
		lo = math.Min(lo, mid)
		hi = math.Max(hi, mid)
	}
	if math.IsInf(lo, 1) {
		return ""
	}

	switch spread := hi - lo; {
	case spread > soilPHSevereSpread:
		return SoilPHSevere
	case spread > soilPHModerateSpread:
		return SoilPHModerate
	default:
		return SoilPHCompatible
	}
}
