package calibration

import "github.com/gardenkit/guildscore/internal/species"

// compatThreshold is the minimum envelope-overlap index for two species
// to count as climate-compatible during anchor sampling.
const compatThreshold = 0.2

// CompatIndex measures how strongly two species' climate envelopes
// overlap, in [0,1]. It is the smaller of the temperature and
// precipitation overlap fractions, each relative to the narrower
// envelope. Species without envelope data are treated as compatible so
// sparse records do not starve the sampler.
func CompatIndex(a, b *species.Species) float64 {
	t := overlapFraction(a.TempMinC, a.TempMaxC, b.TempMinC, b.TempMaxC)
	p := overlapFraction(a.PrecipMinMM, a.PrecipMaxMM, b.PrecipMinMM, b.PrecipMaxMM)
	if t < p {
		return t
	}
	return p
}

func overlapFraction(aMin, aMax, bMin, bMax float64) float64 {
	aRange := aMax - aMin
	bRange := bMax - bMin
	if aRange <= 0 || bRange <= 0 {
		return 1 // no envelope data
	}

	lo := aMin
	if bMin > lo {
		lo = bMin
	}
	hi := aMax
	if bMax < hi {
		hi = bMax
	}
	overlap := hi - lo
	if overlap <= 0 {
		return 0
	}

	narrower := aRange
	if bRange < narrower {
		narrower = bRange
	}
	return overlap / narrower
}

// Compatible reports whether the pair clears the sampling threshold.
func Compatible(a, b *species.Species) bool {
	return CompatIndex(a, b) >= compatThreshold
}
