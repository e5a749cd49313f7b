package writer_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"hikari/internal/infrastructure/config"
	"hikari/internal/infrastructure/logger"
	"hikari/internal/modules/collector/buffer"
	"hikari/internal/modules/collector/entity"
	"hikari/internal/modules/collector/writer"
	"hikari/internal/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu       sync.Mutex
	inserted []entity.Span
	calls    int
	fail     func(callNum int) error
}

func (f *fakeRepo) InsertBatch(ctx context.Context, spans []entity.Span) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail != nil {
		if err := f.fail(f.calls); err != nil {
			return err
		}
	}
	f.inserted = append(f.inserted, spans...)
	return nil
}

func (f *fakeRepo) insertedLen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inserted)
}

func (f *fakeRepo) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testConfig() config.CollectorConfig {
	return config.CollectorConfig{
		DBBatchSize:            10,
		DBRetryIntervalSeconds: 1,
		DBWriteTimeoutSeconds:  2,
		ShutdownDrainSeconds:   2,
	}
}

func TestWriter_Run_PersistsAndMarksConnected(t *testing.T) {
	buf := buffer.New(100)
	repo := &fakeRepo{}
	w := writer.New(buf, repo, logger.NewNoOpLogger(), testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)

	buf.Enqueue(entity.Span{SpanID: "s1"}, entity.Span{SpanID: "s2"})

	require.Eventually(t, func() bool { return repo.insertedLen() == 2 }, time.Second, 10*time.Millisecond)
	assert.True(t, w.Connected())
	assert.Equal(t, uint64(1), w.Batches())

	cancel()
	<-w.Done()
}

func TestWriter_Run_GracefulShutdownDrainsRemaining(t *testing.T) {
	buf := buffer.New(100)
	repo := &fakeRepo{}
	w := writer.New(buf, repo, logger.NewNoOpLogger(), testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	buf.Enqueue(entity.Span{SpanID: "s1"}, entity.Span{SpanID: "s2"}, entity.Span{SpanID: "s3"})

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("writer did not shut down within the drain deadline")
	}

	assert.Equal(t, 3, repo.insertedLen())
}

func TestWriter_Run_PermanentFailureDropsBatch(t *testing.T) {
	buf := buffer.New(100)
	repo := &fakeRepo{
		fail: func(callNum int) error {
			return apperror.NewPersistance("TEST_PERMANENT", "permanent failure")
		},
	}
	w := writer.New(buf, repo, logger.NewNoOpLogger(), testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)

	buf.Enqueue(entity.Span{SpanID: "s1"})

	require.Eventually(t, func() bool { return repo.callCount() == 2 }, 3*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 2, repo.callCount())
	assert.Equal(t, 0, repo.insertedLen())
	assert.Equal(t, 0, buf.Len())

	cancel()
	<-w.Done()
}

func TestWriter_Run_TransientFailureRetriesThenReenqueuesAtHead(t *testing.T) {
	buf := buffer.New(100)
	repo := &fakeRepo{
		fail: func(callNum int) error {
			return apperror.NewTransient("TEST_TRANSIENT", "transient failure")
		},
	}
	w := writer.New(buf, repo, logger.NewNoOpLogger(), testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)

	buf.Enqueue(entity.Span{SpanID: "retry-me"})

	require.Eventually(t, func() bool { return repo.callCount() >= 2 }, 3*time.Second, 10*time.Millisecond)
	assert.False(t, w.Connected())

	require.Eventually(t, func() bool { return buf.Len() == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	<-w.Done()
}
