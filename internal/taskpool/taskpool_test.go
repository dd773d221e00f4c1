package taskpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestSpawnRunsAllTasks(t *testing.T) {
	pool := New(context.Background(), 2)
	var ran int32
	for i := 0; i < 5; i++ {
		pool.Spawn("compact", func(ctx context.Context) error {
			atomic.AddInt32(&ran, 1)
			return nil
		})
	}
	if err := pool.Wait(); err != nil {
		t.Fatalf("Wait() = %v, want nil", err)
	}
	if ran != 5 {
		t.Fatalf("ran %d tasks, want 5", ran)
	}
}

func TestWaitPropagatesFirstError(t *testing.T) {
	pool := New(context.Background(), 0)
	boom := errors.New("boom")
	pool.Spawn("g", func(ctx context.Context) error { return boom })
	if err := pool.Wait(); !errors.Is(err, boom) {
		t.Fatalf("Wait() = %v, want wrapping %v", err, boom)
	}
}

func TestHandleAfterWaitsForDependency(t *testing.T) {
	pool := New(context.Background(), 0)
	var mu sync.Mutex
	var order []int

	h := pool.Spawn("a", func(ctx context.Context) error {
		mu.Lock()
		order = append(order, 1)
		mu.Unlock()
		return nil
	})
	pool.Spawn("b", func(ctx context.Context) error {
		if err := h.After(); err != nil {
			return err
		}
		mu.Lock()
		order = append(order, 2)
		mu.Unlock()
		return nil
	})

	if err := pool.Wait(); err != nil {
		t.Fatalf("Wait() = %v, want nil", err)
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("order = %v, want [1 2]", order)
	}
}
