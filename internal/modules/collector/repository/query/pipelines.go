package query

import (
	"context"
	"time"

	database "hikari/internal/infrastructure/db"
	"hikari/internal/modules/collector/entity"
	"hikari/internal/modules/collector/repository"
)

type pipelineRow struct {
	PipelineID  string    `gorm:"column:pipeline_id"`
	TotalCost   *float64  `gorm:"column:total_cost"`
	SpanCount   int64     `gorm:"column:span_count"`
	CostedCount int64     `gorm:"column:costed_count"`
	FirstSeen   time.Time `gorm:"column:first_seen"`
	LastSeen    time.Time `gorm:"column:last_seen"`
}

// ListPipelines implements §4.4.2: pipelines whose [first_seen, last_seen]
// interval intersects [params range], ordered last_seen DESC, pipeline_id
// ASC, paginated. limit/offset validation (limit<=1000, offset>=0,
// defaults) is the HTTP handler's job; this repository trusts its inputs.
func (r *spanRepository) ListPipelines(ctx context.Context, params repository.PipelineListParams) ([]entity.PipelineSummary, int64, error) {
	cacheKey := pipelineListCacheKey(params.Start, params.End, params.Limit, params.Offset)
	if cached, ok := getCached[cachedPipelineList](ctx, r.cache, cacheKey); ok {
		return cached.Summaries, cached.Total, nil
	}

	var total int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM (
			SELECT pipeline_id
			FROM spans
			GROUP BY pipeline_id
			HAVING MIN(time) <= ? AND MAX(time) >= ?
		) t
	`, params.End, params.Start).Scan(&total).Error
	if err != nil {
		return nil, 0, database.MapDBError(err)
	}
	if total == 0 {
		return nil, 0, nil
	}

	var rows []pipelineRow
	err = r.db.WithContext(ctx).Raw(`
		SELECT
			pipeline_id,
			SUM(cost_total) AS total_cost,
			COUNT(*) AS span_count,
			COUNT(cost_total) AS costed_count,
			MIN(time) AS first_seen,
			MAX(time) AS last_seen
		FROM spans
		GROUP BY pipeline_id
		HAVING MIN(time) <= ? AND MAX(time) >= ?
		ORDER BY MAX(time) DESC, pipeline_id ASC
		LIMIT ? OFFSET ?
	`, params.End, params.Start, params.Limit, params.Offset).Scan(&rows).Error
	if err != nil {
		return nil, 0, database.MapDBError(err)
	}

	summaries := make([]entity.PipelineSummary, len(rows))
	for i, row := range rows {
		totalCost := 0.0
		if row.TotalCost != nil {
			totalCost = *row.TotalCost
		}
		summaries[i] = entity.PipelineSummary{
			PipelineID: row.PipelineID,
			TotalCost:  totalCost,
			IsPartial:  row.CostedCount < row.SpanCount,
			SpanCount:  row.SpanCount,
			FirstSeen:  row.FirstSeen,
			LastSeen:   row.LastSeen,
		}
	}

	setCached(ctx, r.cache, cacheKey, cachedPipelineList{Summaries: summaries, Total: total}, r.ttl)
	return summaries, total, nil
}
