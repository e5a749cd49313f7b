package query

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	database "hikari/internal/infrastructure/db"
	"hikari/internal/modules/collector/entity"
)

// getCached fetches and unmarshals a cached value. A miss, a cache error,
// or no cache configured at all are all treated identically: fall through
// to Postgres. The cache is a latency optimization, never load-bearing for
// correctness.
func getCached[T any](ctx context.Context, cache database.CacheDatabase, key string) (*T, bool) {
	if cache == nil {
		return nil, false
	}

	raw, err := cache.GetClient().Get(ctx, key).Bytes()
	if err != nil {
		// redis.Nil (no such key) and any transport error both just mean
		// "not in cache"; the caller falls through to Postgres either way.
		return nil, false
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false
	}
	return &out, true
}

// setCached best-effort writes a value with the repository's configured
// TTL. Failures are swallowed: a cache write that doesn't land just means
// the next read falls through to Postgres again.
func setCached(ctx context.Context, cache database.CacheDatabase, key string, value any, ttl time.Duration) {
	if cache == nil {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	cache.GetClient().Set(ctx, key, raw, ttl)
}

func costBreakdownCacheKey(pipelineID string) string {
	return fmt.Sprintf("hikari:cost_breakdown:%s", pipelineID)
}

func pipelineListCacheKey(start, end time.Time, limit, offset int) string {
	return fmt.Sprintf("hikari:pipeline_list:%d:%d:%d:%d", start.Unix(), end.Unix(), limit, offset)
}

// cachedPipelineList is the JSON-serializable shape stashed under
// pipelineListCacheKey, since ListPipelines returns a (slice, total) pair
// rather than a single value.
type cachedPipelineList struct {
	Summaries []entity.PipelineSummary `json:"summaries"`
	Total     int64                    `json:"total"`
}
