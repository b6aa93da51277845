// Package explain renders a scored guild into structured prose for the
// gardening UI. It is a stateless formatter over scoring.Result; all
// numeric judgement happened upstream.
package explain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gardenkit/guildscore/internal/scoring"
)

// Overall score bands. Display scores sit in [0,100] so the thresholds
// are fixed, not calibrated.
const (
	thresholdExcellent = 80
	thresholdGood      = 60
	thresholdNeutral   = 40
	thresholdBelowAvg  = 20
)

// Display-score thresholds for listing individual factors.
const (
	riskNotableBelow   = 40
	riskHighBelow      = 20
	benefitNotableOver = 70
)

// Explanation is the full structured narrative for one scored guild.
type Explanation struct {
	Overall  Overall   `json:"overall"`
	Risks    []Factor  `json:"risks"`
	Benefits []Factor  `json:"benefits"`
	Warnings []Warning `json:"warnings"`
	Products []Product `json:"products,omitempty"`
}

// Overall summarizes the aggregate score band.
type Overall struct {
	Label   string `json:"label"`
	Rating  int    `json:"rating"`
	Stars   string `json:"stars"`
	Message string `json:"message"`
	Advice  string `json:"advice"`
}

// Factor describes one notable risk or benefit dimension.
type Factor struct {
	Metric     scoring.Metric `json:"metric"`
	Title      string         `json:"title"`
	Score      float64        `json:"score"`
	Message    string         `json:"message"`
	Mitigation string         `json:"mitigation,omitempty"`
}

// Warning carries advisory-flag and climate messages.
type Warning struct {
	Message string `json:"message"`
}

// Product is an optional amendment suggestion with an urgency tier.
type Product struct {
	Name    string `json:"name"`
	Urgency string `json:"urgency"`
	Reason  string `json:"reason"`
}

// Generate builds the explanation. A vetoed result short-circuits to a
// veto-only narrative with no percentile content.
func Generate(res *scoring.Result) *Explanation {
	if res.Veto {
		return vetoExplanation(res)
	}

	overall := 0.0
	if res.Overall != nil {
		overall = *res.Overall
	}

	exp := &Explanation{
		Overall:  assessOverall(overall),
		Risks:    collectRisks(res.Metrics),
		Benefits: collectBenefits(res.Metrics),
		Warnings: collectWarnings(res),
		Products: recommendProducts(res.Metrics),
	}
	return exp
}

func vetoExplanation(res *scoring.Result) *Explanation {
	return &Explanation{
		Overall: Overall{
			Label:   "Not Viable",
			Rating:  0,
			Stars:   "",
			Message: res.VetoReason,
			Advice:  "Replace the members that share no climate tier with the rest of the guild, then re-score.",
		},
		Risks:    []Factor{},
		Benefits: []Factor{},
		Warnings: []Warning{{Message: res.VetoReason}},
	}
}

func assessOverall(score float64) Overall {
	switch {
	case score >= thresholdExcellent:
		return overallBand(5, "Excellent",
			"These plants form a highly compatible guild with strong mutual support.",
			"Plant with confidence; keep spacing generous so the canopy layers develop.")
	case score >= thresholdGood:
		return overallBand(4, "Good",
			"A solid combination with more synergies than conflicts.",
			"Address the listed risks during placement and this guild should thrive.")
	case score >= thresholdNeutral:
		return overallBand(3, "Neutral",
			"Compatibility is average; benefits and risks roughly balance out.",
			"Consider swapping one or two members to strengthen the weakest dimensions.")
	case score >= thresholdBelowAvg:
		return overallBand(2, "Below Average",
			"This combination carries more shared risks than benefits.",
			"Rework the guild around the highest-risk members before planting.")
	default:
		return overallBand(1, "Poor Guild",
			"These plants are poorly matched and likely to compete or share pests and diseases.",
			"Start over with a different species mix rather than amending this one.")
	}
}

func overallBand(rating int, label, message, advice string) Overall {
	return Overall{
		Label:   label,
		Rating:  rating,
		Stars:   strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating),
		Message: message,
		Advice:  advice,
	}
}

var riskMessages = map[scoring.Metric]struct {
	message    string
	mitigation string
}{
	scoring.MetricPathogenOverlap: {
		message:    "Several members host the same pathogenic fungi, so disease can cascade through the guild.",
		mitigation: "Increase spacing for airflow, mulch to limit soil splash, and consider a protective fungal inoculant.",
	},
	scoring.MetricHerbivoreOverlap: {
		message:    "Multiple members attract the same herbivores, concentrating pest pressure.",
		mitigation: "Interplant strongly scented companions and stagger susceptible members apart from each other.",
	},
	scoring.MetricStrategyConflict: {
		message:    "Growth strategies clash: fast competitors will crowd slower neighbours.",
		mitigation: "Give competitors their own zone or choose a less aggressive cultivar.",
	},
}

var benefitMessages = map[scoring.Metric]string{
	scoring.MetricPestRegulation:      "Members host fungi that suppress each other's pests, building natural pest control.",
	scoring.MetricPathogenSuppression: "Antagonist fungi carried by some members help suppress diseases of the others.",
	scoring.MetricFungalNetwork:       "A shared beneficial fungal network links most of the guild below ground.",
	scoring.MetricPhyloDiversity:      "Members are evolutionarily distant, which spreads risk across lineages.",
	scoring.MetricStructuralDiversity: "Heights and growth forms layer well, using light and space efficiently.",
	scoring.MetricPollinatorSupport:   "Members share pollinators, concentrating visits and improving fruit set.",
}

func collectRisks(metrics map[scoring.Metric]float64) []Factor {
	var out []Factor
	for _, m := range scoring.RiskMetrics {
		score, ok := metrics[m]
		if !ok || score >= riskNotableBelow {
			continue
		}
		tmpl := riskMessages[m]
		f := Factor{
			Metric:  m,
			Title:   m.DisplayName(),
			Score:   score,
			Message: tmpl.message,
		}
		if score < riskHighBelow {
			f.Mitigation = tmpl.mitigation
		}
		out = append(out, f)
	}
	sortFactors(out)
	return out
}

func collectBenefits(metrics map[scoring.Metric]float64) []Factor {
	var out []Factor
	for _, m := range scoring.BenefitMetrics {
		score, ok := metrics[m]
		if !ok || score <= benefitNotableOver {
			continue
		}
		out = append(out, Factor{
			Metric:  m,
			Title:   m.DisplayName(),
			Score:   score,
			Message: benefitMessages[m],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// sortFactors orders risks worst-first.
func sortFactors(fs []Factor) {
	sort.Slice(fs, func(i, j int) bool { return fs[i].Score < fs[j].Score })
}

var flagWarnings = map[string]map[string]string{
	scoring.FlagNitrogen: {
		scoring.NitrogenNone:   "No nitrogen fixers in the guild; fertility depends entirely on amendments.",
		scoring.NitrogenSingle: "Only one nitrogen fixer; a second would make fertility more resilient.",
	},
	scoring.FlagSoilPH: {
		scoring.SoilPHModerate: "Members prefer moderately different soil pH; pick an intermediate target.",
		scoring.SoilPHSevere:   "Members prefer strongly different soil pH; no single soil will suit them all.",
	},
}

func collectWarnings(res *scoring.Result) []Warning {
	out := []Warning{}
	for flag, value := range res.Flags {
		if msg, ok := flagWarnings[flag][value]; ok {
			out = append(out, Warning{Message: msg})
		}
	}
	for _, w := range res.Climate.Warnings {
		out = append(out, Warning{Message: w})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Message < out[j].Message })
	return out
}

// recommendProducts suggests amendments keyed to the disease-pressure
// scores. Urgency tiers step with how far below safe the guild sits.
func recommendProducts(metrics map[scoring.Metric]float64) []Product {
	var out []Product

	if score, ok := metrics[scoring.MetricPathogenOverlap]; ok {
		if urgency := urgencyFor(score); urgency != "" {
			out = append(out, Product{
				Name:    "Mycorrhizal inoculant",
				Urgency: urgency,
				Reason:  fmt.Sprintf("Disease independence is %.0f/100; an established fungal network slows pathogen spread.", score),
			})
		}
	}
	if score, ok := metrics[scoring.MetricHerbivoreOverlap]; ok {
		if urgency := urgencyFor(score); urgency != "" {
			out = append(out, Product{
				Name:    "Biocontrol blend",
				Urgency: urgency,
				Reason:  fmt.Sprintf("Pest independence is %.0f/100; entomopathogenic fungi reduce shared pest load.", score),
			})
		}
	}
	return out
}

func urgencyFor(score float64) string {
	switch {
	case score < 20:
		return "Highly Recommended"
	case score < 40:
		return "Recommended"
	case score < 55:
		return "Optional"
	default:
		return ""
	}
}
