package calibration

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gardenkit/guildscore/internal/scoring"
)

// Store persists calibration tables as one JSON artifact per
// (tier, size-class) cell under a flat directory.
type Store struct {
	dir string
}

// NewStore uses dir as the artifact directory, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create calibration directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(tier string, class scoring.SizeClass) string {
	return filepath.Join(s.dir, fmt.Sprintf("calibration_%s_%s.json", tier, class))
}

// Save writes one table atomically (write-then-rename). Only the schema
// is checked here; the sample floor was already enforced by whoever
// built the table.
func (s *Store) Save(t *Table) error {
	if err := t.ValidateSchema(); err != nil {
		return fmt.Errorf("refusing to persist invalid table: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "calibration_*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode calibration table: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to flush calibration table: %w", err)
	}

	final := s.path(t.Tier, t.SizeClass)
	if err := os.Rename(tmp.Name(), final); err != nil {
		return fmt.Errorf("failed to publish calibration table: %w", err)
	}

	slog.Info("Calibration table persisted",
		"tier", t.Tier,
		"size_class", t.SizeClass,
		"samples", t.SampleCount,
		"path", final)

	return nil
}

// LoadAll reads and validates every artifact in the directory. Any
// invalid table fails the whole load; the scorer must not start with a
// partial or mismatched calibration set.
func (s *Store) LoadAll() (*Set, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read calibration directory: %w", err)
	}

	var tables []*Table
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "calibration_") || !strings.HasSuffix(name, ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}

		var t Table
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		tables = append(tables, &t)
	}

	set, err := NewSet(tables)
	if err != nil {
		return nil, err
	}

	slog.Info("Calibration tables loaded", "cells", set.Len(), "dir", s.dir)
	return set, nil
}
