package worker

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/alertachile/monitor/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testEmergency(id string) *models.Emergency {
	return &models.Emergency{ID: id, Tipo: models.TipoSismo}
}

func TestPool_ProcessesAllSubmitted(t *testing.T) {
	var upserted atomic.Int64
	upsert := func(ctx context.Context, e *models.Emergency) error {
		upserted.Add(1)
		return nil
	}

	pool := NewPool(2, 10, upsert, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	for i := 0; i < 5; i++ {
		pool.Submit(ctx, testEmergency("e"))
	}
	pool.Stop()

	if upserted.Load() != 5 {
		t.Errorf("expected 5 upserts, got %d", upserted.Load())
	}
}

func TestPool_ConcurrentSubmit(t *testing.T) {
	var upserted atomic.Int64
	upsert := func(ctx context.Context, e *models.Emergency) error {
		upserted.Add(1)
		return nil
	}

	pool := NewPool(4, 100, upsert, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	done := make(chan struct{})
	for i := 0; i < 100; i++ {
		go func() {
			pool.Submit(ctx, testEmergency("e"))
			done <- struct{}{}
		}()
	}
	for i := 0; i < 100; i++ {
		<-done
	}
	pool.Stop()

	if upserted.Load() != 100 {
		t.Errorf("expected 100 upserts, got %d", upserted.Load())
	}
}

func TestPool_StopWaitsForInFlight(t *testing.T) {
	var upserted atomic.Int64
	upsert := func(ctx context.Context, e *models.Emergency) error {
		time.Sleep(10 * time.Millisecond)
		upserted.Add(1)
		return nil
	}

	pool := NewPool(2, 50, upsert, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	for i := 0; i < 10; i++ {
		pool.Submit(ctx, testEmergency("e"))
	}

	stopped := make(chan struct{})
	go func() {
		pool.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("pool.Stop() timed out")
	}

	if upserted.Load() != 10 {
		t.Errorf("expected 10 upserts before shutdown, got %d", upserted.Load())
	}
}

func TestPool_SubmitReturnsAfterCancel(t *testing.T) {
	blocked := make(chan struct{})
	upsert := func(ctx context.Context, e *models.Emergency) error {
		<-blocked
		return nil
	}

	pool := NewPool(1, 1, upsert, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	// First record occupies the worker, second fills the buffer.
	pool.Submit(ctx, testEmergency("in-flight"))
	pool.Submit(ctx, testEmergency("buffered"))

	cancel()

	returned := make(chan bool)
	go func() {
		returned <- pool.Submit(ctx, testEmergency("stranded"))
	}()

	select {
	case accepted := <-returned:
		if accepted {
			t.Error("expected Submit to reject after cancellation")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Submit blocked after context cancellation")
	}

	close(blocked)
	pool.Stop()
}

func TestPool_ErrorDoesNotStopWorkers(t *testing.T) {
	var calls atomic.Int64
	upsert := func(ctx context.Context, e *models.Emergency) error {
		calls.Add(1)
		return context.DeadlineExceeded
	}

	pool := NewPool(1, 10, upsert, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	for i := 0; i < 3; i++ {
		pool.Submit(ctx, testEmergency("e"))
	}
	pool.Stop()

	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}
