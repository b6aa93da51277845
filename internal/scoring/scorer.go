package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/gardenkit/guildscore/internal/species"
)

// TableSource resolves the calibration distribution for one metric in
// one (tier, size-class) cell. The second return is false when the cell
// has no published table.
type TableSource interface {
	Params(tier species.Tier, class SizeClass, metric Metric) (PercentileParams, bool)
	// HasCell reports whether any table exists for the cell at all,
	// distinguishing "uncalibrated" from "schema mismatch".
	HasCell(tier species.Tier, class SizeClass) bool
}

// Scorer runs the online pipeline: gatekeep, compute raw scores,
// normalize against calibration, aggregate. It holds only immutable
// reference data and is safe for concurrent use.
type Scorer struct {
	kb         *species.KnowledgeBase
	tables     TableSource
	biocontrol BiocontrolTable
}

// NewScorer wires the pipeline against loaded reference data.
func NewScorer(kb *species.KnowledgeBase, tables TableSource, biocontrol BiocontrolTable) *Scorer {
	return &Scorer{kb: kb, tables: tables, biocontrol: biocontrol}
}

// Score evaluates one guild. Input problems return *InputError; a
// missing calibration cell returns *UncalibratedError; a climate veto is
// a normal Result, not an error.
func (s *Scorer) Score(req GuildRequest) (*Result, error) {
	members, err := s.resolveGuild(req.PlantIDs)
	if err != nil {
		return nil, err
	}

	var target *species.Tier
	if req.TargetTier != "" {
		t, ok := species.ParseTier(req.TargetTier)
		if !ok {
			return nil, &InputError{Reason: fmt.Sprintf("unknown climate tier %q", req.TargetTier)}
		}
		target = &t
	}

	check := CheckClimate(members, target)
	if check.Veto {
		return &Result{
			Veto:       true,
			VetoReason: check.VetoReason,
			Climate:    ClimateSummary{Warnings: []string{}},
		}, nil
	}

	class := SizeClassFor(len(members))
	if !s.tables.HasCell(check.ScoringTier, class) {
		return nil, &UncalibratedError{Tier: check.ScoringTier, SizeClass: class}
	}

	raw := ComputeRawScores(members, s.biocontrol)
	display, err := s.normalize(check.ScoringTier, class, raw)
	if err != nil {
		return nil, err
	}

	overall := aggregate(display)
	warnings := check.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	return &Result{
		Overall:   &overall,
		Metrics:   display,
		Flags:     AdvisoryFlags(members),
		SizeClass: class,
		Climate: ClimateSummary{
			Tier:        check.ScoringTier.String(),
			SharedTiers: check.SharedTiers.Names(),
			Warnings:    warnings,
		},
	}, nil
}

// resolveGuild validates size, uniqueness and existence, and returns the
// member records.
func (s *Scorer) resolveGuild(ids []string) ([]*species.Species, error) {
	if len(ids) < MinGuildSize {
		return nil, &InputError{Reason: fmt.Sprintf("guild needs at least %d members, got %d", MinGuildSize, len(ids))}
	}
	if len(ids) > MaxGuildSize {
		return nil, &InputError{Reason: fmt.Sprintf("guild exceeds %d members", MaxGuildSize)}
	}

	seen := make(map[string]struct{}, len(ids))
	members := make([]*species.Species, 0, len(ids))
	var unknown []string

	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return nil, &InputError{Reason: fmt.Sprintf("duplicate species id %q", id)}
		}
		seen[id] = struct{}{}

		sp, ok := s.kb.Get(id)
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		members = append(members, sp)
	}

	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &InputError{Reason: fmt.Sprintf("unknown species ids: %v", unknown)}
	}

	return members, nil
}

// normalize maps each raw score through its calibration distribution.
// Every expected metric must be present in the cell; a partial table is
// a schema mismatch, not a lower-coverage score.
func (s *Scorer) normalize(tier species.Tier, class SizeClass, raw RawScores) (map[Metric]float64, error) {
	display := make(map[Metric]float64, len(AllMetrics))
	var missing []Metric

	for _, m := range AllMetrics {
		params, ok := s.tables.Params(tier, class, m)
		if !ok {
			missing = append(missing, m)
			continue
		}
		display[m] = params.Display(m, raw[m])
	}

	if len(missing) > 0 {
		return nil, &SchemaError{Tier: tier, SizeClass: class, Missing: missing}
	}
	return display, nil
}

// aggregate combines display scores with the fixed weights. The result
// is a plain weighted mean, deliberately not re-percentiled.
func aggregate(display map[Metric]float64) float64 {
	total, weightSum := 0.0, 0.0
	for m, score := range display {
		w := overallWeights[m]
		total += w * score
		weightSum += w
	}
	if weightSum == 0 {
		return 0
	}
	return clamp(math.Round(total/weightSum*10)/10, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
