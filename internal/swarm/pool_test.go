package swarm

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolRunsTasksUpToLimit(t *testing.T) {
	p := New(2)
	var inFlight, maxInFlight int32

	for i := 0; i < 10; i++ {
		p.Go(context.Background(), func(ctx context.Context) error {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				max := atomic.LoadInt32(&maxInFlight)
				if n <= max || atomic.CompareAndSwapInt32(&maxInFlight, max, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return nil
		})
	}
	p.Wait()

	if maxInFlight > 2 {
		t.Fatalf("observed %d tasks in flight at once, want at most 2", maxInFlight)
	}
}

func TestPoolWaitCollectsTaskErrors(t *testing.T) {
	p := New(4)
	boom := context.Canceled
	p.Go(context.Background(), func(ctx context.Context) error { return nil })
	p.Go(context.Background(), func(ctx context.Context) error { return boom })

	errs := p.Wait()
	if len(errs) != 1 {
		t.Fatalf("errs = %d, want 1", len(errs))
	}
}

func TestPoolGoRecordsContextCancellation(t *testing.T) {
	p := New(1)
	// Fill the only slot with a task that blocks until released.
	release := make(chan struct{})
	p.Go(context.Background(), func(ctx context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.Go(ctx, func(ctx context.Context) error {
		t.Fatal("task should never run once its context is already cancelled and the pool is full")
		return nil
	})

	close(release)
	errs := p.Wait()
	if len(errs) != 1 || errs[0] != context.Canceled {
		t.Fatalf("errs = %v, want exactly [context.Canceled]", errs)
	}
}

func TestPoolAcquireReleaseRespectsLimit(t *testing.T) {
	p := New(1)
	if err := p.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := p.Acquire(ctx); err == nil {
		t.Fatal("expected Acquire to block and then time out while the only slot is held")
	}

	p.Release()
	if err := p.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire after Release: %v", err)
	}
}
