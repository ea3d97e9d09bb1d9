// Package tasks provides a bounded fire-and-forget worker pool for
// post-write triggers. Work is at-least-once from the caller's perspective:
// nothing deduplicates submissions, and two triggers for the same entity can
// run concurrently.
package tasks

import (
	"context"
	"log"
	"sync"
)

// Task is one unit of background work.
type Task func(ctx context.Context)

// Pool runs submitted tasks on a fixed set of workers over a bounded queue.
type Pool struct {
	queue  chan Task
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// NewPool starts workers goroutines consuming a queue of queueSize. Both
// must be positive.
func NewPool(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		queue:  make(chan Task, queueSize),
		ctx:    ctx,
		cancel: cancel,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.queue {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("background task panicked: %v", r)
				}
			}()
			task(p.ctx)
		}()
	}
}

// Submit enqueues a task without blocking. It returns false when the queue
// is saturated or the pool is closed; the caller decides whether a dropped
// trigger matters.
func (p *Pool) Submit(task Task) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	select {
	case p.queue <- task:
		return true
	default:
		return false
	}
}

// Close stops accepting work, drains the queue, and waits for in-flight
// tasks to finish. Tasks observe cancellation through their context after
// the drain completes.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
	p.cancel()
}
