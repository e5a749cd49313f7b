// Package command implements the collector's write-side repository.
package command

import (
	"context"

	database "hikari/internal/infrastructure/db"
	"hikari/internal/modules/collector/entity"
	"hikari/internal/modules/collector/repository"
)

// insertChunkSize bounds how many rows GORM packs into a single multi-row
// INSERT statement; cfg.DBBatchSize (default 500) already keeps callers
// under this, but InsertBatch chunks defensively in case a caller passes a
// larger slice (e.g. the shutdown drain flushing an oversized tail).
const insertChunkSize = 500

type spanRepository struct {
	db database.Database
}

var _ repository.SpanCommandRepository = (*spanRepository)(nil)

func NewSpanRepository(db database.Database) repository.SpanCommandRepository {
	return &spanRepository{db: db}
}

// InsertBatch writes spans in chunks of insertChunkSize via GORM's
// CreateInBatches, which emits one multi-row INSERT per chunk. Each span
// carries its own surrogate entity.Span.ID, so a re-delivered batch (same
// span_id/time as before) inserts as new rows rather than colliding on the
// primary key. A genuine primary key conflict (entity.Span.ID reused,
// which would mean a uid.NewUUID collision) is still treated by
// database.MapDBError as a permanent failure the writer drops rather than
// retries forever.
func (r *spanRepository) InsertBatch(ctx context.Context, spans []entity.Span) error {
	if len(spans) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).CreateInBatches(spans, insertChunkSize).Error
	return database.MapDBError(err)
}
