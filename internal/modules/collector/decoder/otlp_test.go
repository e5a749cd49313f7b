package decoder_test

import (
	"testing"

	"hikari/internal/modules/collector/decoder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEnvelope(extraAttrs string) []byte {
	return []byte(`{
		"resourceSpans": [{
			"scopeSpans": [{
				"spans": [{
					"traceId": "trace-1",
					"spanId": "span-1",
					"name": "llm.call",
					"startTimeUnixNano": "1000000000",
					"endTimeUnixNano": "1500000000",
					"attributes": [
						{"key": "hikari.pipeline_id", "value": {"stringValue": "pipeline-1"}},
						{"key": "hikari.stage", "value": {"stringValue": "summarize"}},
						{"key": "hikari.model", "value": {"stringValue": "gpt-4o"}},
						{"key": "hikari.provider", "value": {"stringValue": "openai"}}
						` + extraAttrs + `
					]
				}]
			}]
		}]
	}`)
}

func TestDecode_MalformedEnvelope(t *testing.T) {
	_, err := decoder.Decode([]byte(`not json`))
	require.Error(t, err)
	assert.Equal(t, decoder.ErrMalformedEnvelope, err)
}

func TestDecode_AcceptsValidSpan(t *testing.T) {
	res, err := decoder.Decode(validEnvelope(""))
	require.NoError(t, err)
	require.Len(t, res.Accepted, 1)
	assert.Empty(t, res.Rejections)

	span := res.Accepted[0]
	assert.Equal(t, "pipeline-1", span.PipelineID)
	assert.Equal(t, "summarize", span.Stage)
	assert.Equal(t, "gpt-4o", span.Model)
	assert.Equal(t, "openai", span.Provider)
	assert.Equal(t, int64(500), span.DurationMs)
	assert.Nil(t, span.CostTotal)
}

func TestDecode_PipelineIDFallsBackToTraceID(t *testing.T) {
	env := []byte(`{
		"resourceSpans": [{
			"scopeSpans": [{
				"spans": [{
					"traceId": "trace-fallback",
					"spanId": "span-1",
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

	res, err := decoder.Decode(env)
	require.NoError(t, err)
	require.Len(t, res.Accepted, 1)
	assert.Equal(t, "trace-fallback", res.Accepted[0].PipelineID)
}

func TestDecode_RejectsMissingRequiredAttribute(t *testing.T) {
	env := []byte(`{
		"resourceSpans": [{
			"scopeSpans": [{
				"spans": [{
					"traceId": "trace-1",
					"spanId": "span-missing",
					"name": "llm.call",
					"startTimeUnixNano": "0",
					"endTimeUnixNano": "1000000",
					"attributes": [
						{"key": "hikari.model", "value": {"stringValue": "m"}},
						{"key": "hikari.provider", "value": {"stringValue": "p"}}
					]
				}]
			}]
		}]
	}`)

	res, err := decoder.Decode(env)
	require.NoError(t, err)
	assert.Empty(t, res.Accepted)
	require.Len(t, res.Rejections, 1)
	assert.Contains(t, res.Rejections[0].Error(), "span span-missing")
	assert.Contains(t, res.Rejections[0].Error(), "hikari.stage")
}

func TestDecode_RejectsUnparseableTimestamp(t *testing.T) {
	env := []byte(`{
		"resourceSpans": [{
			"scopeSpans": [{
				"spans": [{
					"traceId": "trace-1",
					"spanId": "span-bad-time",
					"name": "llm.call",
					"startTimeUnixNano": "0",
					"endTimeUnixNano": "not-a-number",
					"attributes": [
						{"key": "hikari.stage", "value": {"stringValue": "s"}},
						{"key": "hikari.model", "value": {"stringValue": "m"}},
						{"key": "hikari.provider", "value": {"stringValue": "p"}}
					]
				}]
			}]
		}]
	}`)

	res, err := decoder.Decode(env)
	require.NoError(t, err)
	assert.Empty(t, res.Accepted)
	require.Len(t, res.Rejections, 1)
}

func TestDecode_CostTotalNulledWhenEitherComponentMissing(t *testing.T) {
	extra := `,
		{"key": "hikari.cost.input", "value": {"doubleValue": 0.01}},
		{"key": "hikari.cost.total", "value": {"doubleValue": 0.03}}`

	res, err := decoder.Decode(validEnvelope(extra))
	require.NoError(t, err)
	require.Len(t, res.Accepted, 1)

	span := res.Accepted[0]
	require.NotNil(t, span.CostInput)
	assert.Equal(t, 0.01, *span.CostInput)
	assert.Nil(t, span.CostOutput)
	assert.Nil(t, span.CostTotal)
}

func TestDecode_CostTotalKeptWhenBothComponentsPresent(t *testing.T) {
	extra := `,
		{"key": "hikari.cost.input", "value": {"doubleValue": 0.01}},
		{"key": "hikari.cost.output", "value": {"doubleValue": 0.02}},
		{"key": "hikari.cost.total", "value": {"doubleValue": 0.03}},
		{"key": "hikari.tokens.input", "value": {"intValue": "100"}},
		{"key": "hikari.tokens.output", "value": {"intValue": "200"}}`

	res, err := decoder.Decode(validEnvelope(extra))
	require.NoError(t, err)
	require.Len(t, res.Accepted, 1)

	span := res.Accepted[0]
	require.NotNil(t, span.CostTotal)
	assert.Equal(t, 0.03, *span.CostTotal)
	require.NotNil(t, span.TokensInput)
	assert.Equal(t, int64(100), *span.TokensInput)
	require.NotNil(t, span.TokensOutput)
	assert.Equal(t, int64(200), *span.TokensOutput)
}

// TestDecode_ResubmittedBatchGetsDistinctSurrogateIDs pins down the fix for
// the PK-collision gap: re-POSTing the exact same OTLP body (same span_id,
// same trace_id, same endTimeUnixNano ⇒ same time) must decode into spans
// that insert as new rows rather than bounce off a unique-violation. The
// surrogate entity.Span.ID, not (time, span_id), is what the primary key is
// built on now, so decoding the identical body twice must yield two spans
// with identical natural fields but distinct, non-empty IDs.
func TestDecode_ResubmittedBatchGetsDistinctSurrogateIDs(t *testing.T) {
	body := validEnvelope("")

	first, err := decoder.Decode(body)
	require.NoError(t, err)
	require.Len(t, first.Accepted, 1)

	second, err := decoder.Decode(body)
	require.NoError(t, err)
	require.Len(t, second.Accepted, 1)

	a, b := first.Accepted[0], second.Accepted[0]

	assert.Equal(t, a.TraceID, b.TraceID)
	assert.Equal(t, a.SpanID, b.SpanID)
	assert.Equal(t, a.Time, b.Time)

	assert.NotEmpty(t, a.ID)
	assert.NotEmpty(t, b.ID)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestDecode_MultipleSpans_OneRejectedDoesNotAffectSiblings(t *testing.T) {
	env := []byte(`{
		"resourceSpans": [{
			"scopeSpans": [{
				"spans": [
					{
						"traceId": "trace-1",
						"spanId": "span-ok",
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
						"traceId": "trace-1",
						"spanId": "span-bad",
						"name": "llm.call",
						"startTimeUnixNano": "0",
						"endTimeUnixNano": "1000000",
						"attributes": []
					}
				]
			}]
		}]
	}`)

	res, err := decoder.Decode(env)
	require.NoError(t, err)
	assert.Len(t, res.Accepted, 1)
	assert.Len(t, res.Rejections, 1)
	assert.Equal(t, "span-ok", res.Accepted[0].SpanID)
}
