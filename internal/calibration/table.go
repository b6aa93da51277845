package calibration

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/gardenkit/guildscore/internal/scoring"
	"github.com/gardenkit/guildscore/internal/species"
)

// Sample-size floor: roughly 50 observations behind the smallest tail
// percentile (p1), so at least 5,000 guilds per cell; 10,000 is the
// recommended target. A finite-population correction is pointless at
// guild-space sizes beyond 10^20 combinations and is not applied.
const (
	MinSamples         = 5000
	RecommendedSamples = 10000
)

// Table holds the calibration distributions for one (tier, size-class)
// cell, plus enough metadata to detect staleness.
type Table struct {
	Tier        string                                      `json:"tier"`
	SizeClass   scoring.SizeClass                           `json:"size_class"`
	Metrics     map[scoring.Metric]scoring.PercentileParams `json:"metrics"`
	SampleCount int                                         `json:"sample_count"`
	RunID       string                                      `json:"run_id"`
	KBChecksum  string                                      `json:"kb_checksum"`
	GeneratedAt time.Time                                   `json:"generated_at"`
}

// ValidateSchema checks the tier name and the scorer's full metric set.
// A mismatched artifact means the table and the binary were built against
// different metric definitions.
func (t *Table) ValidateSchema() error {
	tier, ok := species.ParseTier(t.Tier)
	if !ok {
		return fmt.Errorf("calibration table names unknown tier %q", t.Tier)
	}

	var missing []scoring.Metric
	for _, m := range scoring.AllMetrics {
		if _, ok := t.Metrics[m]; !ok {
			missing = append(missing, m)
		}
	}
	if len(missing) > 0 {
		return &scoring.SchemaError{Tier: tier, SizeClass: t.SizeClass, Missing: missing}
	}
	return nil
}

// Validate is the full load-time check: schema plus the production
// sample floor. The generator enforces its own (possibly lowered) floor
// before persisting, so only loading applies the hard one.
func (t *Table) Validate() error {
	if err := t.ValidateSchema(); err != nil {
		return err
	}
	if t.SampleCount < MinSamples {
		return fmt.Errorf("calibration table %s/%s is under-sampled: %d < %d",
			t.Tier, t.SizeClass, t.SampleCount, MinSamples)
	}
	return nil
}

type cellKey struct {
	tier  species.Tier
	class scoring.SizeClass
}

// Set is the loaded collection of calibration tables. It implements
// scoring.TableSource and is immutable after construction.
type Set struct {
	tables map[cellKey]*Table
}

// NewSet indexes validated tables by cell.
func NewSet(tables []*Table) (*Set, error) {
	s := &Set{tables: make(map[cellKey]*Table, len(tables))}
	for _, t := range tables {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		tier, _ := species.ParseTier(t.Tier)
		key := cellKey{tier: tier, class: t.SizeClass}
		if _, dup := s.tables[key]; dup {
			return nil, fmt.Errorf("duplicate calibration table for %s/%s", t.Tier, t.SizeClass)
		}
		s.tables[key] = t
	}
	return s, nil
}

// Params implements scoring.TableSource.
func (s *Set) Params(tier species.Tier, class scoring.SizeClass, metric scoring.Metric) (scoring.PercentileParams, bool) {
	t, ok := s.tables[cellKey{tier: tier, class: class}]
	if !ok {
		return scoring.PercentileParams{}, false
	}
	p, ok := t.Metrics[metric]
	return p, ok
}

// HasCell implements scoring.TableSource.
func (s *Set) HasCell(tier species.Tier, class scoring.SizeClass) bool {
	_, ok := s.tables[cellKey{tier: tier, class: class}]
	return ok
}

// Tables returns the indexed tables sorted by tier then size class, for
// status reporting.
func (s *Set) Tables() []*Table {
	out := make([]*Table, 0, len(s.tables))
	for _, t := range s.tables {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Tier != out[j].Tier {
			return out[i].Tier < out[j].Tier
		}
		return out[i].SizeClass < out[j].SizeClass
	})
	return out
}

// Len returns the number of loaded cells.
func (s *Set) Len() int {
	return len(s.tables)
}

// computeParams turns raw samples of one metric into its persisted
// percentile form. Percentile values interpolate linearly between order
// statistics.
func computeParams(samples []float64) scoring.PercentileParams {
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)

	var params scoring.PercentileParams
	params.SampleCount = len(sorted)

	for i, level := range scoring.PercentileLevels {
		params.Values[i] = percentileOf(sorted, level)
	}

	mean := 0.0
	for _, v := range sorted {
		mean += v
	}
	mean /= float64(len(sorted))
	params.Mean = mean

	variance := 0.0
	for _, v := range sorted {
		variance += (v - mean) * (v - mean)
	}
	params.Std = math.Sqrt(variance / float64(len(sorted)))

	return params
}

func percentileOf(sorted []float64, level float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := level / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
