package buffer_test

import (
	"sync"
	"testing"
	"time"

	"hikari/internal/modules/collector/buffer"
	"hikari/internal/modules/collector/entity"

	"github.com/stretchr/testify/assert"
)

func span(id string) entity.Span {
	return entity.Span{SpanID: id, TraceID: "t1", SpanName: "n", PipelineID: "p1", Stage: "s", Model: "m", Provider: "prov"}
}

func TestBuffer_EnqueueDrain_PreservesOrder(t *testing.T) {
	b := buffer.New(10)
	b.Enqueue(span("a"), span("b"), span("c"))

	got, ok := b.Drain(10)
	assert.True(t, ok)
	assert.Len(t, got, 3)
	assert.Equal(t, "a", got[0].SpanID)
	assert.Equal(t, "b", got[1].SpanID)
	assert.Equal(t, "c", got[2].SpanID)
}

func TestBuffer_Enqueue_DropsOldestOnOverflow(t *testing.T) {
	b := buffer.New(2)
	b.Enqueue(span("a"), span("b"), span("c"))

	assert.Equal(t, uint64(1), b.Overflow())
	got, ok := b.Drain(10)
	assert.True(t, ok)
	assert.Len(t, got, 2)
	assert.Equal(t, "b", got[0].SpanID)
	assert.Equal(t, "c", got[1].SpanID)
}

func TestBuffer_EnqueueFront_RespectsCapacityFromTail(t *testing.T) {
	b := buffer.New(2)
	b.Enqueue(span("existing"))
	b.EnqueueFront([]entity.Span{span("retry1"), span("retry2")})

	assert.Equal(t, uint64(1), b.Overflow())
	got, ok := b.Drain(10)
	assert.True(t, ok)
	assert.Len(t, got, 2)
	assert.Equal(t, "retry2", got[0].SpanID)
	assert.Equal(t, "existing", got[1].SpanID)
}

func TestBuffer_Drain_ReturnsAtMostRequested(t *testing.T) {
	b := buffer.New(10)
	b.Enqueue(span("a"), span("b"), span("c"))

	got, ok := b.Drain(2)
	assert.True(t, ok)
	assert.Len(t, got, 2)
	assert.Equal(t, 1, b.Len())
}

func TestBuffer_Drain_BlocksUntilEnqueue(t *testing.T) {
	b := buffer.New(10)

	var wg sync.WaitGroup
	wg.Add(1)
	var got []entity.Span
	var ok bool
	go func() {
		defer wg.Done()
		got, ok = b.Drain(10)
	}()

	time.Sleep(20 * time.Millisecond)
	b.Enqueue(span("a"))
	wg.Wait()

	assert.True(t, ok)
	assert.Len(t, got, 1)
}

func TestBuffer_Close_UnblocksDrainWithFalse(t *testing.T) {
	b := buffer.New(10)

	var wg sync.WaitGroup
	wg.Add(1)
	var ok bool
	go func() {
		defer wg.Done()
		_, ok = b.Drain(10)
	}()

	time.Sleep(20 * time.Millisecond)
	b.Close()
	wg.Wait()

	assert.False(t, ok)
}

func TestBuffer_Usage(t *testing.T) {
	b := buffer.New(4)
	assert.Equal(t, 0.0, b.Usage())

	b.Enqueue(span("a"), span("b"))
	assert.Equal(t, 0.5, b.Usage())
}

func TestBuffer_New_ClampsNonPositiveCapacity(t *testing.T) {
	b := buffer.New(0)
	b.Enqueue(span("a"), span("b"))
	assert.Equal(t, uint64(1), b.Overflow())
	assert.Equal(t, 1, b.Len())
}
