package usecase_test

import (
	"context"
	"testing"

	"hikari/internal/infrastructure/logger"
	"hikari/internal/infrastructure/telemetry/tracer"
	"hikari/internal/modules/collector/buffer"
	"hikari/internal/modules/collector/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestTracesUseCase_Execute_AllAccepted(t *testing.T) {
	buf := buffer.New(100)
	uc := usecase.NewIngestTracesUseCase(logger.NewNoOpLogger(), tracer.NewNoOpTracer(), buf)

	body := []byte(`{
		"resourceSpans": [{
			"scopeSpans": [{
				"spans": [{
					"traceId": "t1",
					"spanId": "s1",
					"name": "llm.call",
					"startTimeUnixNano": "0",
					"endTimeUnixNano": "1000000",
					"attributes": [
						{"key": "hikari.stage", "value": {"stringValue": "s"}},
						{"key": "hikari.model", "value": {"stringValue": "m"}},
						{"key": "hikari.provider", "value": {"stringValue": "p"}}
					]
				}]
			}]
		}]
	}`)

	result, err := uc.Execute(context.Background(), body)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Accepted)
	assert.Equal(t, 0, result.Rejected)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 1, buf.Len())
}

func TestIngestTracesUseCase_Execute_PartialRejection(t *testing.T) {
	buf := buffer.New(100)
	uc := usecase.NewIngestTracesUseCase(logger.NewNoOpLogger(), tracer.NewNoOpTracer(), buf)

	body := []byte(`{
		"resourceSpans": [{
			"scopeSpans": [{
				"spans": [
					{
						"traceId": "t1",
						"spanId": "s1",
						"name": "llm.call",
						"startTimeUnixNano": "0",
						"endTimeUnixNano": "1000000",
						"attributes": [
							{"key": "hikari.stage", "value": {"stringValue": "s"}},
							{"key": "hikari.model", "value": {"stringValue": "m"}},
							{"key": "hikari.provider", "value": {"stringValue": "p"}}
						]
					},
					{
						"traceId": "t1",
						"spanId": "s2",
						"name": "llm.call",
						"startTimeUnixNano": "0",
						"endTimeUnixNano": "1000000",
						"attributes": []
					}
				]
			}]
		}]
	}`)

	result, err := uc.Execute(context.Background(), body)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Accepted)
	assert.Equal(t, 1, result.Rejected)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "span s2")
	assert.Equal(t, 1, buf.Len())
}

func TestIngestTracesUseCase_Execute_MalformedBody(t *testing.T) {
	buf := buffer.New(100)
	uc := usecase.NewIngestTracesUseCase(logger.NewNoOpLogger(), tracer.NewNoOpTracer(), buf)

	result, err := uc.Execute(context.Background(), []byte(`not json`))
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, 0, buf.Len())
}
