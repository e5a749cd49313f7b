package usecase

import (
	"context"

	"hikari/internal/modules/collector/buffer"
	"hikari/internal/modules/collector/entity"
)

// connectionChecker is satisfied by the writer, kept narrow so the health
// usecase doesn't need to know about writing or retries.
type connectionChecker interface {
	Connected() bool
}

type healthUseCase struct {
	Buffer  *buffer.Buffer
	Writer  connectionChecker
	Version string
}

var _ HealthUseCase = (*healthUseCase)(nil)

func NewHealthUseCase(buf *buffer.Buffer, writer connectionChecker, version string) HealthUseCase {
	return &healthUseCase{Buffer: buf, Writer: writer, Version: version}
}

// Execute implements the §6 /v1/health status rule: healthy requires both
// a connected database and a buffer under 90% full; disconnection always
// wins over buffer pressure in naming the status "degraded" vs
// "unhealthy", matching the order the spec lists the two conditions in.
func (uc *healthUseCase) Execute(ctx context.Context) *entity.Health {
	connected := uc.Writer.Connected()
	usage := uc.Buffer.Usage()

	status := "healthy"
	switch {
	case !connected:
		status = "degraded"
	case usage > 0.9:
		status = "unhealthy"
	}

	return &entity.Health{
		Status:      status,
		DBConnected: connected,
		BufferUsage: usage,
		Version:     uc.Version,
	}
}
