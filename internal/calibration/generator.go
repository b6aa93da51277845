package calibration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gardenkit/guildscore/internal/scoring"
	"github.com/gardenkit/guildscore/internal/species"
)

// GeneratorConfig tunes one calibration run.
type GeneratorConfig struct {
	// GuildsPerCell is the Monte-Carlo sample size per (tier, size
	// class). Must meet MinSamples for the table to publish.
	GuildsPerCell int
	Workers       int
	Seed          int64
	// Tiers and SizeClasses restrict the run; empty means all.
	Tiers       []species.Tier
	SizeClasses []scoring.SizeClass
	// MinSamplesOverride lowers the floor for tests only; zero keeps
	// MinSamples.
	MinSamplesOverride int
}

// DefaultGeneratorConfig targets the recommended sample size.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		GuildsPerCell: RecommendedSamples,
		Workers:       runtime.NumCPU(),
		Seed:          time.Now().UnixNano(),
	}
}

// Generator builds calibration tables by scoring randomly sampled guilds
// with the same raw-score functions the online path uses. Must be re-run
// whenever the knowledge base changes.
type Generator struct {
	kb         *species.KnowledgeBase
	biocontrol scoring.BiocontrolTable
	store      *Store
	cfg        GeneratorConfig
}

// NewGenerator wires a run against loaded reference data.
func NewGenerator(kb *species.KnowledgeBase, biocontrol scoring.BiocontrolTable, store *Store, cfg GeneratorConfig) *Generator {
	if cfg.GuildsPerCell <= 0 {
		cfg.GuildsPerCell = RecommendedSamples
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if len(cfg.Tiers) == 0 {
		cfg.Tiers = species.AllTiers()
	}
	if len(cfg.SizeClasses) == 0 {
		cfg.SizeClasses = scoring.AllSizeClasses
	}
	return &Generator{kb: kb, biocontrol: biocontrol, store: store, cfg: cfg}
}

func (g *Generator) minSamples() int {
	if g.cfg.MinSamplesOverride > 0 {
		return g.cfg.MinSamplesOverride
	}
	return MinSamples
}

// RunSummary reports the outcome of one full run.
type RunSummary struct {
	RunID        string
	Published    int
	SkippedCells []string
}

// Run generates and persists one table per requested cell. A tier whose
// member pool is too small for a size class is skipped with a warning
// rather than published under-sampled.
func (g *Generator) Run(ctx context.Context) (*RunSummary, error) {
	runID := uuid.NewString()
	summary := &RunSummary{RunID: runID}

	slog.Info("Calibration run starting",
		"run_id", runID,
		"guilds_per_cell", g.cfg.GuildsPerCell,
		"workers", g.cfg.Workers,
		"kb_checksum", g.kb.Checksum())

	for _, tier := range g.cfg.Tiers {
		pool := g.kb.TierMembers(tier)

		for _, class := range g.cfg.SizeClasses {
			if err := ctx.Err(); err != nil {
				return summary, err
			}

			table, err := g.calibrateCell(ctx, tier, class, pool, runID)
			if err != nil {
				var skip *underSampledError
				if errors.As(err, &skip) {
					slog.Warn("Skipping under-sampled calibration cell",
						"tier", tier.String(),
						"size_class", class,
						"reason", skip.reason)
					summary.SkippedCells = append(summary.SkippedCells,
						fmt.Sprintf("%s/%s: %s", tier, class, skip.reason))
					continue
				}
				return summary, err
			}

			if err := g.store.Save(table); err != nil {
				return summary, err
			}
			summary.Published++
		}
	}

	slog.Info("Calibration run finished",
		"run_id", runID,
		"published", summary.Published,
		"skipped", len(summary.SkippedCells))

	return summary, nil
}

type underSampledError struct {
	reason string
}

func (e *underSampledError) Error() string {
	return "cell under-sampled: " + e.reason
}

// calibrateCell samples and scores one cell's guilds across workers,
// then reduces the merged raw scores to percentile parameters. Merge
// order does not matter: only the pooled sample distribution does.
func (g *Generator) calibrateCell(ctx context.Context, tier species.Tier, class scoring.SizeClass, pool []string, runID string) (*Table, error) {
	start := time.Now()
	size := class.RepresentativeSize()

	probe := newSampler(g.kb, pool, size, rand.New(rand.NewSource(g.cfg.Seed)))
	if !probe.canSample() {
		return nil, &underSampledError{
			reason: fmt.Sprintf("tier has %d members, need more than %d for size %d", len(pool), size+2, size),
		}
	}

	perWorker := g.cfg.GuildsPerCell / g.cfg.Workers
	remainder := g.cfg.GuildsPerCell % g.cfg.Workers

	results := make([][]scoring.RawScores, g.cfg.Workers)
	eg, egCtx := errgroup.WithContext(ctx)

	for w := 0; w < g.cfg.Workers; w++ {
		w := w
		quota := perWorker
		if w < remainder {
			quota++
		}
		// Distinct deterministic seed per worker; run-level determinism
		// additionally requires Workers=1.
		seed := g.cfg.Seed + int64(w)*7919 + int64(tier)*104729 + int64(size)

		eg.Go(func() error {
			smp := newSampler(g.kb, pool, size, rand.New(rand.NewSource(seed)))
			batch := make([]scoring.RawScores, 0, quota)

			for i := 0; i < quota; i++ {
				if i%1024 == 0 {
					if err := egCtx.Err(); err != nil {
						return err
					}
				}
				guild := smp.sampleStratified()
				batch = append(batch, scoring.ComputeRawScores(guild, g.biocontrol))
			}

			results[w] = batch
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var merged []scoring.RawScores
	for _, batch := range results {
		merged = append(merged, batch...)
	}

	if len(merged) < g.minSamples() {
		return nil, &underSampledError{
			reason: fmt.Sprintf("collected %d samples, floor is %d", len(merged), g.minSamples()),
		}
	}

	table := &Table{
		Tier:        tier.String(),
		SizeClass:   class,
		Metrics:     make(map[scoring.Metric]scoring.PercentileParams, len(scoring.AllMetrics)),
		SampleCount: len(merged),
		RunID:       runID,
		KBChecksum:  g.kb.Checksum(),
		GeneratedAt: time.Now().UTC(),
	}

	values := make([]float64, len(merged))
	for _, m := range scoring.AllMetrics {
		for i, raw := range merged {
			values[i] = raw[m]
		}
		table.Metrics[m] = computeParams(values)
	}

	slog.Info("Calibration cell complete",
		"tier", tier.String(),
		"size_class", class,
		"samples", table.SampleCount,
		"duration_ms", time.Since(start).Milliseconds())

	return table, nil
}
