// Package taskpool implements a thread-pool / task-graph collaborator:
// "spawn task in group G" and "make task A depend on task B". The
// optimizer (kernel.OptimizeParallel) uses one task per per-type index.
//
// semaphore.Weighted bounds concurrency and errgroup.Group handles
// cancel-on-first-error fan-out plus first-error tracking, instead of a
// hand-rolled buffered-channel semaphore and sync.WaitGroup.
package taskpool

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Pool runs tasks, grouped for reporting purposes, with bounded
// concurrency and simple happens-before dependencies.
type Pool interface {
	// Spawn runs fn in group, returning a handle other tasks can depend on.
	Spawn(group string, fn func(ctx context.Context) error) Handle
	// Wait blocks until every spawned task has completed and returns the
	// first error encountered, if any.
	Wait() error
}

// Handle identifies a previously spawned task so a later task can be made
// to wait for it via the handle's After method.
type Handle struct {
	done chan struct{}
	err  func() error
}

// After blocks the calling goroutine until h's task has completed,
// propagating its error: task A depends on task B by calling
// After(b) before doing its own work.
func (h Handle) After() error {
	<-h.done
	return h.err()
}

// errgroupPool is the default Pool, built on golang.org/x/sync's errgroup
// (cancel-on-first-error fan-out) and semaphore (bounded concurrency).
type errgroupPool struct {
	ctx context.Context
	g   *errgroup.Group
	sem *semaphore.Weighted
}

// New returns a Pool backed by an errgroup.Group bounded to maxConcurrency
// simultaneous tasks. maxConcurrency <= 0 means unbounded.
func New(ctx context.Context, maxConcurrency int64) Pool {
	g, gctx := errgroup.WithContext(ctx)
	p := &errgroupPool{ctx: gctx, g: g}
	if maxConcurrency > 0 {
		p.sem = semaphore.NewWeighted(maxConcurrency)
	}
	return p
}

func (p *errgroupPool) Spawn(group string, fn func(ctx context.Context) error) Handle {
	done := make(chan struct{})
	var taskErr error
	p.g.Go(func() error {
		defer close(done)
		if p.sem != nil {
			if err := p.sem.Acquire(p.ctx, 1); err != nil {
				taskErr = fmt.Errorf("taskpool: group %q: acquire: %w", group, err)
				return taskErr
			}
			defer p.sem.Release(1)
		}
		if err := fn(p.ctx); err != nil {
			taskErr = fmt.Errorf("taskpool: group %q: %w", group, err)
			return taskErr
		}
		return nil
	})
	return Handle{done: done, err: func() error { return taskErr }}
}

func (p *errgroupPool) Wait() error {
	return p.g.Wait()
}
