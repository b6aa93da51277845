package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/gardenkit/guildscore/internal/errors"
	"github.com/gardenkit/guildscore/internal/explain"
	"github.com/gardenkit/guildscore/internal/monitoring"
	"github.com/gardenkit/guildscore/internal/scoring"
)

type handlers struct {
	deps    *dependencies
	metrics *monitoring.Metrics
	logger  *monitoring.Logger
}

func newHandlers(deps *dependencies, metrics *monitoring.Metrics, logger *monitoring.Logger) *handlers {
	return &handlers{deps: deps, metrics: metrics, logger: logger}
}

// health reports service status and reference-data shape.
func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":            "ok",
		"timestamp":         time.Now().Format(time.RFC3339),
		"species":           h.deps.kb.Len(),
		"kb_checksum":       h.deps.kb.Checksum(),
		"calibration_cells": h.deps.tables.Len(),
	})
}

// scoreGuild scores one guild.
//
//	@Summary  Score a guild
//	@Accept   json
//	@Produce  json
//	@Param    guild body scoring.GuildRequest true "guild to score"
//	@Success  200 {object} scoring.Result
//	@Router   /api/v1/guilds/score [post]
func (h *handlers) scoreGuild(c *gin.Context) {
	result, ok := h.runScore(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, result)
}

// explainGuild scores one guild and renders the structured explanation.
//
//	@Summary  Score and explain a guild
//	@Accept   json
//	@Produce  json
//	@Param    guild body scoring.GuildRequest true "guild to score"
//	@Success  200 {object} map[string]any
//	@Router   /api/v1/guilds/explain [post]
func (h *handlers) explainGuild(c *gin.Context) {
	result, ok := h.runScore(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"result":      result,
		"explanation": explain.Generate(result),
	})
}

// runScore binds, scores and maps pipeline errors onto the error
// taxonomy. A climate veto is a successful response, not an error.
func (h *handlers) runScore(c *gin.Context) (*scoring.Result, bool) {
	start := time.Now()

	var req scoring.GuildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.RecordScore(monitoring.OutcomeError, time.Since(start))
		c.Error(apperrors.NewValidationError("request body must contain plant_ids"))
		return nil, false
	}

	result, err := h.deps.scorer.Score(req)
	if err != nil {
		h.metrics.RecordScore(monitoring.OutcomeError, time.Since(start))

		var inputErr *scoring.InputError
		var uncalErr *scoring.UncalibratedError
		switch {
		case errors.As(err, &inputErr):
			c.Error(apperrors.NewValidationError(inputErr.Reason))
		case errors.As(err, &uncalErr):
			h.metrics.IncrementCalibrationMiss()
			c.Error(apperrors.NewCalibrationMissingError(uncalErr.Error()))
		default:
			c.Error(apperrors.ToAppError(err))
		}
		return nil, false
	}

	outcome := monitoring.OutcomeScored
	overall := 0.0
	if result.Veto {
		outcome = monitoring.OutcomeVeto
	} else {
		h.metrics.IncrementCalibrationHit()
		overall = *result.Overall
	}
	h.metrics.RecordScore(outcome, time.Since(start))
	h.logger.ScoreLogger(len(req.PlantIDs), result.Climate.Tier, overall, result.Veto, time.Since(start))

	return result, true
}

// searchSpecies looks up species by scientific name.
//
//	@Summary  Search species
//	@Produce  json
//	@Param    q     query string true  "name fragment"
//	@Param    limit query int    false "max results"
//	@Router   /api/v1/species [get]
func (h *handlers) searchSpecies(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.Error(apperrors.NewValidationError("query parameter q is required"))
		return
	}

	limit := 25
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.Error(apperrors.NewValidationError("limit must be an integer"))
			return
		}
		limit = n
	}

	matches, err := h.deps.store.Search(c.Request.Context(), query, limit)
	if err != nil {
		c.Error(apperrors.NewInternalError("species search failed", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"query": query, "count": len(matches), "species": matches})
}

// getSpecies returns one knowledge-base record.
//
//	@Summary  Get species by id
//	@Produce  json
//	@Param    id path string true "species id"
//	@Router   /api/v1/species/{id} [get]
func (h *handlers) getSpecies(c *gin.Context) {
	id := c.Param("id")
	sp, ok := h.deps.kb.Get(id)
	if !ok {
		c.Error(apperrors.NewNotFoundError("species " + id + " not found"))
		return
	}
	c.JSON(http.StatusOK, sp)
}

// calibrationStatus lists the loaded calibration cells with their run
// metadata so operators can see coverage and staleness at a glance.
func (h *handlers) calibrationStatus(c *gin.Context) {
	tables := h.deps.tables.Tables()

	cells := make([]gin.H, 0, len(tables))
	for _, t := range tables {
		stale := t.KBChecksum != h.deps.kb.Checksum()
		cells = append(cells, gin.H{
			"tier":         t.Tier,
			"size_class":   t.SizeClass,
			"sample_count": t.SampleCount,
			"run_id":       t.RunID,
			"generated_at": t.GeneratedAt,
			"stale":        stale,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"kb_checksum": h.deps.kb.Checksum(),
		"cells":       cells,
	})
}
