package scoring

// PercentileLevels are the stored breakpoints of every calibration
// distribution, in ascending order.
var PercentileLevels = [13]float64{1, 5, 10, 20, 30, 40, 50, 60, 70, 80, 90, 95, 99}

// PercentileParams describes the calibration distribution of one metric
// within one (tier, size-class) cell.
type PercentileParams struct {
	// Values holds the raw-score value at each of PercentileLevels.
	// Non-decreasing by construction.
	Values      [13]float64 `json:"values"`
	Mean        float64     `json:"mean"`
	Std         float64     `json:"std"`
	SampleCount int         `json:"sample_count"`
}

// Rank maps a raw score to its percentile rank in [0,100] by linear
// interpolation between the stored breakpoints. Values outside the
// observed range clamp to the ends rather than extrapolate.
func (p PercentileParams) Rank(raw float64) float64 {
	if raw <= p.Values[0] {
		return 0
	}
	last := len(p.Values) - 1
	if raw >= p.Values[last] {
		return 100
	}

	for i := 0; i < last; i++ {
		lo, hi := p.Values[i], p.Values[i+1]
		if raw > hi {
			continue
		}
		if hi == lo {
			// Tied breakpoints resolve to the lower level.
			return PercentileLevels[i]
		}
		frac := (raw - lo) / (hi - lo)
		return PercentileLevels[i] + frac*(PercentileLevels[i+1]-PercentileLevels[i])
	}

	return 100
}

// Display converts a raw score into the 0-100 display score, inverting
// risk metrics so that higher always means better.
func (p PercentileParams) Display(m Metric, raw float64) float64 {
	rank := p.Rank(raw)
	if m.IsRisk() {
		return 100 - rank
	}
	return rank
}
