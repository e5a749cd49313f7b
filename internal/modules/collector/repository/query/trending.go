package query

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	database "hikari/internal/infrastructure/db"
	"hikari/internal/modules/collector/entity"
	"hikari/internal/modules/collector/repository"
)

const trendingBreakdownLimit = 20

type bucketTotalsRow struct {
	Bucket       time.Time `gorm:"column:bucket"`
	TotalCost    *float64  `gorm:"column:total_cost"`
	RequestCount *int64    `gorm:"column:request_count"`
}

type bucketBreakdownRow struct {
	Bucket time.Time `gorm:"column:bucket"`
	Key    string    `gorm:"column:key"`
	Cost   *float64  `gorm:"column:cost"`
}

// groupByColumn resolves the §4.4.3 group_by parameter to the matching
// column on the continuous aggregate tables (bucket, pipeline_id, stage,
// model, provider, ...). GroupBy is validated against entity.Valid() by
// the HTTP handler before this is ever called, so no default case is needed
// beyond the safety net.
func groupByColumn(g entity.TrendingGroupBy) string {
	switch g {
	case entity.GroupByModel:
		return "model"
	case entity.GroupByProvider:
		return "provider"
	case entity.GroupByStage:
		return "stage"
	default:
		return "stage"
	}
}

// bucketStep returns the Postgres interval step and truncation unit
// matching a trending interval, so the bucket series spans [start, end]
// even where the continuous aggregate has no row for a given bucket.
func bucketStep(i entity.TrendingInterval) (truncUnit, step string) {
	switch i {
	case entity.IntervalHour:
		return "hour", "1 hour"
	case entity.IntervalDay:
		return "day", "1 day"
	case entity.IntervalWeek:
		return "week", "1 week"
	default:
		return "hour", "1 hour"
	}
}

// CostTrending implements §4.4.3. The continuous aggregate already
// excludes cost_total IS NULL rows, so SUM/COUNT across it never need to
// special-case nulls; the only job left here is filling in buckets that
// have no aggregate row at all (no costed spans in that window) and
// computing the top-20-plus-"other" breakdown.
func (r *spanRepository) CostTrending(ctx context.Context, params repository.TrendingParams) ([]entity.TrendingBucket, error) {
	table := params.Interval.ContinuousAggregateTable()
	truncUnit, step := bucketStep(params.Interval)

	var totalsRows []bucketTotalsRow
	totalsQuery := fmt.Sprintf(`
		WITH buckets AS (
			SELECT generate_series(date_trunc(?, ?::timestamptz), ?::timestamptz, ?::interval) AS bucket
		)
		SELECT
			b.bucket AS bucket,
			SUM(a.cost_total) AS total_cost,
			SUM(a.span_count) AS request_count
		FROM buckets b
		LEFT JOIN %s a ON a.bucket = b.bucket
		GROUP BY b.bucket
		ORDER BY b.bucket ASC
	`, table)
	err := r.db.WithContext(ctx).Raw(totalsQuery, truncUnit, params.Start, params.End, step).Scan(&totalsRows).Error
	if err != nil {
		return nil, database.MapDBError(err)
	}

	groupCol := groupByColumn(params.GroupBy)
	var breakdownRows []bucketBreakdownRow
	breakdownQuery := fmt.Sprintf(`
		SELECT bucket AS bucket, %s AS key, SUM(cost_total) AS cost
		FROM %s
		WHERE bucket BETWEEN ? AND ?
		GROUP BY bucket, %s
		ORDER BY bucket ASC, cost DESC NULLS LAST
	`, groupCol, table, groupCol)
	err = r.db.WithContext(ctx).Raw(breakdownQuery, params.Start, params.End).Scan(&breakdownRows).Error
	if err != nil {
		return nil, database.MapDBError(err)
	}

	breakdownByBucket := make(map[int64][]bucketBreakdownRow)
	for _, row := range breakdownRows {
		key := row.Bucket.Unix()
		breakdownByBucket[key] = append(breakdownByBucket[key], row)
	}

	buckets := make([]entity.TrendingBucket, 0, len(totalsRows))
	for _, row := range totalsRows {
		totalCost := 0.0
		if row.TotalCost != nil {
			totalCost = *row.TotalCost
		}
		var requestCount int64
		if row.RequestCount != nil {
			requestCount = *row.RequestCount
		}

		avg := 0.0
		if requestCount > 0 {
			avg = totalCost / float64(requestCount)
		}

		entries := breakdownByBucket[row.Bucket.Unix()]
		sort.SliceStable(entries, func(i, j int) bool {
			return costOf(entries[i].Cost) > costOf(entries[j].Cost)
		})

		breakdown := buildBreakdown(entries, totalCost)

		buckets = append(buckets, entity.TrendingBucket{
			Timestamp:         row.Bucket,
			TotalCost:         totalCost,
			RequestCount:      requestCount,
			AvgCostPerRequest: avg,
			Breakdown:         breakdown,
		})
	}

	return buckets, nil
}

func costOf(c *float64) float64 {
	if c == nil {
		return 0
	}
	return *c
}

// buildBreakdown truncates to the top trendingBreakdownLimit entries by
// cost, folding the remainder into a synthetic "other" bucket, per §4.4.3.
func buildBreakdown(rows []bucketBreakdownRow, totalCost float64) []entity.TrendingBreakdownEntry {
	if len(rows) == 0 {
		return []entity.TrendingBreakdownEntry{}
	}

	top := rows
	var rest []bucketBreakdownRow
	if len(rows) > trendingBreakdownLimit {
		top = rows[:trendingBreakdownLimit]
		rest = rows[trendingBreakdownLimit:]
	}

	out := make([]entity.TrendingBreakdownEntry, 0, len(top)+1)
	for _, row := range top {
		cost := costOf(row.Cost)
		out = append(out, entity.TrendingBreakdownEntry{
			Key:        row.Key,
			Cost:       cost,
			Percentage: percentageOf(cost, totalCost),
		})
	}

	if len(rest) > 0 {
		var otherCost float64
		for _, row := range rest {
			otherCost += costOf(row.Cost)
		}
		out = append(out, entity.TrendingBreakdownEntry{
			Key:        "other",
			Cost:       otherCost,
			Percentage: percentageOf(otherCost, totalCost),
		})
	}

	return out
}

func percentageOf(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(part/total*100*10) / 10
}
