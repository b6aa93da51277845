package scoring

import (
	"fmt"

	"github.com/gardenkit/guildscore/internal/species"
)

// GuildRequest is one scoring call: an unordered, duplicate-free set of
// species ids plus an optional explicit target climate tier.
type GuildRequest struct {
	PlantIDs   []string `json:"plant_ids" binding:"required"`
	TargetTier string   `json:"target_tier,omitempty"`
}

// ClimateSummary reports the tier the guild was scored against and any
// non-fatal climate warnings.
type ClimateSummary struct {
	Tier        string   `json:"tier"`
	SharedTiers []string `json:"shared_tiers,omitempty"`
	Warnings    []string `json:"warnings"`
}

// Result is the scored outcome of one guild. A veto is a terminal
// user-facing state, not an error: Overall and Metrics are absent and
// VetoReason explains why the guild cannot be scored.
type Result struct {
	Veto       bool               `json:"veto"`
	VetoReason string             `json:"veto_reason,omitempty"`
	Overall    *float64           `json:"overall_score,omitempty"`
	Metrics    map[Metric]float64 `json:"metrics,omitempty"`
	Flags      map[string]string  `json:"flags,omitempty"`
	Climate    ClimateSummary     `json:"climate"`
	SizeClass  SizeClass          `json:"size_class,omitempty"`
}

// InputError rejects a malformed guild before any scoring work. Never
// retried.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return "invalid guild: " + e.Reason
}

// UncalibratedError surfaces a missing calibration cell. Substituting a
// neighbouring tier's table would silently mis-rank every metric, so the
// guild stays explicitly unscored instead.
type UncalibratedError struct {
	Tier      species.Tier
	SizeClass SizeClass
}

func (e *UncalibratedError) Error() string {
	return fmt.Sprintf("no calibration table for tier %s, size class %s", e.Tier, e.SizeClass)
}

// SchemaError reports a calibration artifact whose metric set does not
// match the scorer's. The artifact and the binary were built against
// different metric definitions; scoring with it would be meaningless.
type SchemaError struct {
	Tier      species.Tier
	SizeClass SizeClass
	Missing   []Metric
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("calibration table for tier %s, size class %s lacks metrics %v",
		e.Tier, e.SizeClass, e.Missing)
}
