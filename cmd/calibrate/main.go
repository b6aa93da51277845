// calibrate regenerates the Monte-Carlo calibration tables from the
// species knowledge base. Run it after every knowledge-base export; the
// scoring service refuses to substitute tables across tiers, so missing
// cells stay visibly uncalibrated until this completes.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/gardenkit/guildscore/internal/calibration"
	"github.com/gardenkit/guildscore/internal/monitoring"
	"github.com/gardenkit/guildscore/internal/scoring"
	"github.com/gardenkit/guildscore/internal/species"
)

func main() {
	app := &cli.App{
		Name:  "calibrate",
		Usage: "regenerate guild-score calibration tables",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "db",
				Usage:    "path to the species knowledge-base sqlite file",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "output directory for calibration artifacts",
				Value: "data/calibration",
			},
			&cli.StringFlag{
				Name:  "biocontrol",
				Usage: "path to the biocontrol relationship YAML (optional)",
			},
			&cli.IntFlag{
				Name:  "guilds-per-cell",
				Usage: "Monte-Carlo sample size per (tier, size-class) cell",
				Value: calibration.RecommendedSamples,
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "concurrent scoring workers (0 = all CPUs)",
			},
			&cli.Int64Flag{
				Name:  "seed",
				Usage: "random seed (0 = time-based); runs are only reproducible with workers=1",
			},
			&cli.StringFlag{
				Name:  "tiers",
				Usage: "comma-separated tier names to calibrate (default all)",
			},
			&cli.StringFlag{
				Name:  "size-classes",
				Usage: "comma-separated size classes to calibrate (default all)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "info",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "calibrate:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	logger := monitoring.NewLogger(c.String("log-level"))
	slog.SetDefault(logger.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := species.NewStore(c.String("db"))
	if err != nil {
		return err
	}
	defer store.Close()

	kb, err := store.LoadKnowledgeBase(ctx)
	if err != nil {
		return err
	}

	biocontrol, err := scoring.LoadBiocontrolTable(c.String("biocontrol"))
	if err != nil {
		return err
	}

	calStore, err := calibration.NewStore(c.String("out"))
	if err != nil {
		return err
	}

	cfg := calibration.GeneratorConfig{
		GuildsPerCell: c.Int("guilds-per-cell"),
		Workers:       c.Int("workers"),
		Seed:          c.Int64("seed"),
	}

	if cfg.Tiers, err = parseTiers(c.String("tiers")); err != nil {
		return err
	}
	if cfg.SizeClasses, err = parseSizeClasses(c.String("size-classes")); err != nil {
		return err
	}

	gen := calibration.NewGenerator(kb, biocontrol, calStore, cfg)
	summary, err := gen.Run(ctx)
	if err != nil {
		return err
	}

	if len(summary.SkippedCells) > 0 {
		logger.Warn("Some cells were not calibrated",
			"run_id", summary.RunID,
			"skipped", summary.SkippedCells)
	}
	logger.Info("Done", "run_id", summary.RunID, "published", summary.Published)

	return nil
}

func parseTiers(raw string) ([]species.Tier, error) {
	if raw == "" {
		return nil, nil
	}
	var out []species.Tier
	for _, name := range strings.Split(raw, ",") {
		t, ok := species.ParseTier(name)
		if !ok {
			return nil, fmt.Errorf("unknown tier %q", name)
		}
		out = append(out, t)
	}
	return out, nil
}

func parseSizeClasses(raw string) ([]scoring.SizeClass, error) {
	if raw == "" {
		return nil, nil
	}
	var out []scoring.SizeClass
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		found := false
		for _, class := range scoring.AllSizeClasses {
			if string(class) == name {
				out = append(out, class)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown size class %q", name)
		}
	}
	return out, nil
}
