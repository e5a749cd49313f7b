package usecase

import (
	"context"

	"hikari/internal/infrastructure/logger"
	"hikari/internal/infrastructure/telemetry/tracer"
	"hikari/internal/modules/collector/buffer"
	"hikari/internal/modules/collector/decoder"
	"hikari/internal/pkg/utils"
)

type ingestTracesUseCase struct {
	Log    logger.Logger
	Tracer tracer.Tracer
	Buffer *buffer.Buffer
}

var _ IngestTracesUseCase = (*ingestTracesUseCase)(nil)

func NewIngestTracesUseCase(log logger.Logger, trc tracer.Tracer, buf *buffer.Buffer) IngestTracesUseCase {
	return &ingestTracesUseCase{
		Log:    log.WithField("action", useCaseName+".ingest_traces"),
		Tracer: trc,
		Buffer: buf,
	}
}

// Execute decodes the request body and enqueues every accepted span in one
// call to Buffer.Enqueue, so a cancelled request never leaves a partial
// enqueue behind (spec §5): either decoding fails before anything is
// queued, or the whole accepted batch goes in at once.
func (uc *ingestTracesUseCase) Execute(ctx context.Context, body []byte) (*IngestResult, error) {
	span, ctx := uc.Tracer.StartSpan(ctx, useCaseName+".ingest_traces")
	defer span.Finish()

	result, err := decoder.Decode(body)
	if err != nil {
		utils.RecordSpanError(span, err)
		return nil, err
	}

	if len(result.Accepted) > 0 {
		uc.Buffer.Enqueue(result.Accepted...)
	}

	errs := make([]string, len(result.Rejections))
	for i, r := range result.Rejections {
		errs[i] = r.Error()
	}

	if len(result.Rejections) > 0 {
		uc.Log.WithContext(ctx).WithField("accepted", len(result.Accepted)).
			WithField("rejected", len(result.Rejections)).
			Warn("ingest: some spans rejected")
	}

	return &IngestResult{
		Accepted: len(result.Accepted),
		Rejected: len(result.Rejections),
		Errors:   errs,
	}, nil
}
