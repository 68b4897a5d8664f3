// Package swarm provides a bounded worker pool for the scan orchestrator's
// two concurrency tiers (region-scans, and adapter calls within a
// region-scan), adapted from the teacher's AIMD-controlled engine into a
// fixed-bound pool: spec.md's concurrency model names hard caps (default 8
// region-scans, default 16 adapter calls), not a feedback-tuned target, so
// the additive-increase/multiplicative-decrease controller the teacher
// built for its own engine has no role here.
package swarm

import (
	"context"
	"sync"
)

// Task is one unit of work submitted to a Pool.
type Task func(ctx context.Context) error

// Pool runs submitted tasks with at most Limit running concurrently.
type Pool struct {
	sem   chan struct{}
	wg    sync.WaitGroup
	mu    sync.Mutex
	errs  []error
}

// New builds a Pool bounded to limit concurrent tasks. A limit <= 0 is
// treated as 1 (no concurrency, but still valid).
func New(limit int) *Pool {
	if limit <= 0 {
		limit = 1
	}
	return &Pool{sem: make(chan struct{}, limit)}
}

// Go submits a task, blocking until a slot is free or ctx is done. The
// task's error, if any, is collected but never stops other tasks from
// running — callers that need fail-fast semantics check ctx.Err()
// themselves inside the task.
func (p *Pool) Go(ctx context.Context, task Task) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		p.mu.Lock()
		p.errs = append(p.errs, ctx.Err())
		p.mu.Unlock()
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() { <-p.sem }()
		if err := task(ctx); err != nil {
			p.mu.Lock()
			p.errs = append(p.errs, err)
			p.mu.Unlock()
		}
	}()
}

// Wait blocks until every submitted task has returned and reports every
// collected error, in submission-completion order (not submission order).
func (p *Pool) Wait() []error {
	p.wg.Wait()
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.errs
}

// Acquire and Release let a caller hold one of the pool's slots across a
// span of work it tracks completion for itself (its own sync.WaitGroup)
// rather than the Pool's — needed when a pool's limit is shared across
// several independent callers (e.g. one adapter-call pool shared by every
// concurrently running region-scan) and no single caller owns Wait().
func (p *Pool) Acquire(ctx context.Context) error {
	select {
	case p.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a slot acquired via Acquire.
func (p *Pool) Release() {
	<-p.sem
}
