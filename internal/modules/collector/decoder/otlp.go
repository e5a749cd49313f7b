// Package decoder parses the OTLP-JSON subset accepted at POST /v1/traces,
// flattens and coerces span attributes, and classifies each span as
// accepted or rejected-with-reason. Grounded in the teacher's lenient,
// drop-the-offending-unit style of validation (entity.Localized.Validate
// in the product module), but built from scratch: voyago never parsed an
// external wire format, only its own DTOs.
package decoder

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"hikari/internal/modules/collector/entity"

	"hikari/internal/pkg/apperror"
	"hikari/internal/pkg/uid"
)

// Attribute key vocabulary accepted from clients, per spec §6.
const (
	attrPipelineID   = "hikari.pipeline_id"
	attrStage        = "hikari.stage"
	attrModel        = "hikari.model"
	attrProvider     = "hikari.provider"
	attrTokensInput  = "hikari.tokens.input"
	attrTokensOutput = "hikari.tokens.output"
	attrCostInput    = "hikari.cost.input"
	attrCostOutput   = "hikari.cost.output"
	attrCostTotal    = "hikari.cost.total"
)

// ErrMalformedEnvelope is returned when the outer OTLP envelope cannot be
// parsed at all; per spec §4.1 this fails the whole request with no spans
// enqueued.
var ErrMalformedEnvelope = apperror.New(
	apperror.CodeMalformedEnvelope,
	"malformed OTLP envelope",
	apperror.KindPersistance,
)

type envelope struct {
	ResourceSpans []resourceSpans `json:"resourceSpans"`
}

type resourceSpans struct {
	ScopeSpans []scopeSpans `json:"scopeSpans"`
}

type scopeSpans struct {
	Spans []otlpSpan `json:"spans"`
}

type otlpSpan struct {
	TraceID           string      `json:"traceId"`
	SpanID            string      `json:"spanId"`
	Name              string      `json:"name"`
	StartTimeUnixNano string      `json:"startTimeUnixNano"`
	EndTimeUnixNano   string      `json:"endTimeUnixNano"`
	Attributes        []attribute `json:"attributes"`
}

type attribute struct {
	Key   string         `json:"key"`
	Value attributeValue `json:"value"`
}

type attributeValue struct {
	StringValue *string  `json:"stringValue"`
	IntValue    *string  `json:"intValue"`
	DoubleValue *float64 `json:"doubleValue"`
	BoolValue   *bool    `json:"boolValue"`
}

// Rejection reports why a single span was not enqueued. The id may be empty
// if the span itself never had a usable span_id.
type Rejection struct {
	SpanID string
	Reason string
}

// Error renders the rejection the way §8 scenario S4 expects it to read in
// the 207 response's errors[] array: "span <id>: <reason>".
func (r Rejection) Error() string {
	id := r.SpanID
	if id == "" {
		id = "<unknown>"
	}
	return fmt.Sprintf("span %s: %s", id, r.Reason)
}

// Result is the pair (accepted_records, rejection_details) from spec §4.1.
type Result struct {
	Accepted   []entity.Span
	Rejections []Rejection
}

// Decode parses one ingestion request body and classifies every contained
// span as accepted or rejected. It returns ErrMalformedEnvelope only for
// outer-envelope failures (unparseable JSON / wrong top-level shape); any
// other fault is scoped to a single span and surfaces as a Rejection.
func Decode(body []byte) (*Result, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, ErrMalformedEnvelope.WithError(err)
	}

	result := &Result{}
	for _, rs := range env.ResourceSpans {
		for _, ss := range rs.ScopeSpans {
			for _, s := range ss.Spans {
				span, rejection := decodeSpan(s)
				if rejection != nil {
					result.Rejections = append(result.Rejections, *rejection)
					continue
				}
				result.Accepted = append(result.Accepted, *span)
			}
		}
	}
	return result, nil
}

// decodeSpan performs steps 1-7 of spec §4.1 for a single OTLP span. A
// non-nil Rejection means the span is dropped; its sibling spans are never
// affected.
func decodeSpan(s otlpSpan) (*entity.Span, *Rejection) {
	attrs := flatten(s.Attributes)

	stage, ok := attrs.stringValue(attrStage)
	if !ok {
		return nil, &Rejection{SpanID: s.SpanID, Reason: "missing required attribute " + attrStage}
	}
	model, ok := attrs.stringValue(attrModel)
	if !ok {
		return nil, &Rejection{SpanID: s.SpanID, Reason: "missing required attribute " + attrModel}
	}
	provider, ok := attrs.stringValue(attrProvider)
	if !ok {
		return nil, &Rejection{SpanID: s.SpanID, Reason: "missing required attribute " + attrProvider}
	}

	endNanos, err := strconv.ParseInt(s.EndTimeUnixNano, 10, 64)
	if err != nil {
		return nil, &Rejection{SpanID: s.SpanID, Reason: "unparseable endTimeUnixNano"}
	}
	startNanos, err := strconv.ParseInt(s.StartTimeUnixNano, 10, 64)
	if err != nil {
		return nil, &Rejection{SpanID: s.SpanID, Reason: "unparseable startTimeUnixNano"}
	}

	pipelineID, ok := attrs.stringValue(attrPipelineID)
	if !ok || pipelineID == "" {
		pipelineID = s.TraceID
	}

	tokensInput := attrs.int64Value(attrTokensInput)
	tokensOutput := attrs.int64Value(attrTokensOutput)
	costInput := attrs.float64Value(attrCostInput)
	costOutput := attrs.float64Value(attrCostOutput)
	costTotal := attrs.float64Value(attrCostTotal)

	// Invariant 2 (spec §3): cost_total is null whenever either component is
	// null. If the sender sent a total anyway, drop the total rather than
	// reject the span — the component fields are still knowable and kept.
	if costInput == nil || costOutput == nil {
		costTotal = nil
	}

	span := entity.Span{
		ID:           uid.NewUUID(),
		Time:         time.Unix(0, endNanos).UTC(),
		TraceID:      s.TraceID,
		SpanID:       s.SpanID,
		SpanName:     s.Name,
		PipelineID:   pipelineID,
		Stage:        stage,
		Model:        model,
		Provider:     provider,
		TokensInput:  tokensInput,
		TokensOutput: tokensOutput,
		CostInput:    costInput,
		CostOutput:   costOutput,
		CostTotal:    costTotal,
		DurationMs:   (endNanos - startNanos) / int64(time.Millisecond),
	}

	return &span, nil
}

// flattened is the keyed attribute mapping produced by step 1 of §4.1.
type flattened map[string]attributeValue

func flatten(attrs []attribute) flattened {
	m := make(flattened, len(attrs))
	for _, a := range attrs {
		m[a.Key] = a.Value
	}
	return m
}

func (f flattened) stringValue(key string) (string, bool) {
	v, ok := f[key]
	if !ok || v.StringValue == nil {
		return "", false
	}
	return *v.StringValue, true
}

// int64Value coerces an attribute that may arrive as intValue (a decimal
// string, per OTLP JSON's protobuf int64 convention) into *int64. Absent or
// unparseable attributes yield nil — "unknown", never zero.
func (f flattened) int64Value(key string) *int64 {
	v, ok := f[key]
	if !ok {
		return nil
	}
	if v.IntValue != nil {
		n, err := strconv.ParseInt(*v.IntValue, 10, 64)
		if err != nil {
			return nil
		}
		return &n
	}
	if v.DoubleValue != nil {
		n := int64(*v.DoubleValue)
		return &n
	}
	return nil
}

// float64Value coerces an attribute that may arrive as doubleValue (possibly
// an integer-valued JSON number) or intValue into *float64.
func (f flattened) float64Value(key string) *float64 {
	v, ok := f[key]
	if !ok {
		return nil
	}
	if v.DoubleValue != nil {
		n := *v.DoubleValue
		return &n
	}
	if v.IntValue != nil {
		n, err := strconv.ParseFloat(*v.IntValue, 64)
		if err != nil {
			return nil
		}
		return &n
	}
	return nil
}
