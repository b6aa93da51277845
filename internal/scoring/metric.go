package scoring

// Metric identifies one compatibility dimension. Raw values are
// meaningless in isolation; they acquire meaning only relative to the
// calibration distribution for the guild's tier and size class.
type Metric string

const (
	// Shared risks. Display scores are inverted so that higher is safer.
	MetricPathogenOverlap  Metric = "pathogen_overlap"   // n1
	MetricHerbivoreOverlap Metric = "herbivore_overlap"  // n2
	MetricStrategyConflict Metric = "strategy_conflict"  // n4

	// Shared benefits.
	MetricPestRegulation      Metric = "pest_regulation"      // p1
	MetricPathogenSuppression Metric = "pathogen_suppression" // p2
	MetricFungalNetwork       Metric = "fungal_network"       // p3
	MetricPhyloDiversity      Metric = "phylo_diversity"      // p4
	MetricStructuralDiversity Metric = "structural_diversity" // p5
	MetricPollinatorSupport   Metric = "pollinator_support"   // p6
)

// RiskMetrics lists the inverted metrics in canonical order.
var RiskMetrics = []Metric{
	MetricPathogenOverlap,
	MetricHerbivoreOverlap,
	MetricStrategyConflict,
}

// BenefitMetrics lists the direct metrics in canonical order.
var BenefitMetrics = []Metric{
	MetricPestRegulation,
	MetricPathogenSuppression,
	MetricFungalNetwork,
	MetricPhyloDiversity,
	MetricStructuralDiversity,
	MetricPollinatorSupport,
}

// AllMetrics lists every percentile-scored metric. Advisory flags
// (nitrogen self-sufficiency, soil pH) are not metrics: they bypass
// calibration entirely.
var AllMetrics = append(append([]Metric{}, RiskMetrics...), BenefitMetrics...)

// IsRisk reports whether the metric's display score is inverted.
func (m Metric) IsRisk() bool {
	switch m {
	case MetricPathogenOverlap, MetricHerbivoreOverlap, MetricStrategyConflict:
		return true
	}
	return false
}

// DisplayName returns the human-readable metric name used in
// explanations and API payloads.
func (m Metric) DisplayName() string {
	if n, ok := displayNames[m]; ok {
		return n
	}
	return string(m)
}

var displayNames = map[Metric]string{
	MetricPathogenOverlap:     "Disease Independence",
	MetricHerbivoreOverlap:    "Pest Independence",
	MetricStrategyConflict:    "Growth Strategy Harmony",
	MetricPestRegulation:      "Natural Pest Control",
	MetricPathogenSuppression: "Disease Suppression",
	MetricFungalNetwork:       "Beneficial Fungal Network",
	MetricPhyloDiversity:      "Evolutionary Diversity",
	MetricStructuralDiversity: "Structural Layering",
	MetricPollinatorSupport:   "Pollinator Support",
}

// RawScores holds one raw value per metric for a guild. Deterministic
// and invariant under member permutation.
type RawScores map[Metric]float64

// overallWeights combines normalized display scores into the overall
// score. Risk dimensions carry 40% of the weight, benefits 60%.
var overallWeights = map[Metric]float64{
	MetricPathogenOverlap:     0.20,
	MetricHerbivoreOverlap:    0.10,
	MetricStrategyConflict:    0.10,
	MetricPestRegulation:      0.05,
	MetricPathogenSuppression: 0.05,
	MetricFungalNetwork:       0.15,
	MetricPhyloDiversity:      0.10,
	MetricStructuralDiversity: 0.10,
	MetricPollinatorSupport:   0.15,
}
