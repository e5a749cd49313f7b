// Package query implements the collector's read-side repository: the
// three paths of §4.4 (pipeline cost breakdown, pipeline listing, cost
// trending), grounded on the teacher's category query repository but
// built from scratch on raw aggregate SQL, since the product module never
// needed grouped sums or partial-null coverage arithmetic.
package query

import (
	"context"
	"time"

	database "hikari/internal/infrastructure/db"
	"hikari/internal/modules/collector/entity"
	"hikari/internal/modules/collector/repository"
)

// spanRepository serves the three §4.4 read paths. cache is optional: a nil
// database.CacheDatabase (no Redis host configured) simply means every
// lookup falls straight through to Postgres, same as a cache miss.
type spanRepository struct {
	db    database.Database
	cache database.CacheDatabase
	ttl   time.Duration
}

var _ repository.SpanQueryRepository = (*spanRepository)(nil)

func NewSpanRepository(db database.Database, cache database.CacheDatabase, ttl time.Duration) repository.SpanQueryRepository {
	return &spanRepository{db: db, cache: cache, ttl: ttl}
}

type pipelineTotals struct {
	TotalCount  int64    `gorm:"column:total_count"`
	CostedCount int64    `gorm:"column:costed_count"`
	TotalCost   *float64   `gorm:"column:total_cost"`
	FirstSeen   *time.Time `gorm:"column:first_seen"`
	LastSeen    *time.Time `gorm:"column:last_seen"`
}

// PipelineCostBreakdown implements §4.4.1. Relies on Postgres's SUM()
// treating an all-null group as NULL rather than 0, which is exactly the
// "if all cost_* are null, the group's cost stays null" rule the spec
// asks for — no special-casing needed in Go for that part.
func (r *spanRepository) PipelineCostBreakdown(ctx context.Context, params repository.CostBreakdownParams) (*entity.PipelineCost, error) {
	cacheKey := costBreakdownCacheKey(params.PipelineID)
	if cached, ok := getCached[entity.PipelineCost](ctx, r.cache, cacheKey); ok {
		return cached, nil
	}

	var totals pipelineTotals
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) AS total_count,
			COUNT(cost_total) AS costed_count,
			SUM(cost_total) AS total_cost,
			MIN(time) AS first_seen,
			MAX(time) AS last_seen
		FROM spans
		WHERE pipeline_id = ?
	`, params.PipelineID).Scan(&totals).Error
	if err != nil {
		return nil, database.MapDBError(err)
	}
	if totals.TotalCount == 0 {
		return nil, nil
	}

	var stages []entity.StageBreakdown
	err = r.db.WithContext(ctx).Raw(`
		SELECT
			stage,
			model,
			provider,
			SUM(tokens_input) AS tokens_input,
			SUM(tokens_output) AS tokens_output,
			SUM(cost_total) AS cost_total,
			COUNT(*) AS span_count
		FROM spans
		WHERE pipeline_id = ?
		GROUP BY stage, model, provider
		ORDER BY cost_total DESC NULLS LAST, stage ASC, model ASC
	`, params.PipelineID).Scan(&stages).Error
	if err != nil {
		return nil, database.MapDBError(err)
	}

	totalCost := 0.0
	if totals.TotalCost != nil {
		totalCost = *totals.TotalCost
	}
	coverageRatio := float64(totals.CostedCount) / float64(totals.TotalCount)

	result := &entity.PipelineCost{
		PipelineID:    params.PipelineID,
		TotalCost:     totalCost,
		IsPartial:     coverageRatio < 1.0,
		CoverageRatio: coverageRatio,
		Stages:        stages,
	}
	if totals.FirstSeen != nil {
		result.FirstSeen = *totals.FirstSeen
	}
	if totals.LastSeen != nil {
		result.LastSeen = *totals.LastSeen
	}

	setCached(ctx, r.cache, cacheKey, result, r.ttl)
	return result, nil
}
