package worker

import (
	"context"
	"sync"
	"time"
)

// Task is one unit of work. The context carries the per-task deadline; tasks
// must respect ctx and return promptly once it is done.
type Task func(ctx context.Context)

type (
	// Pool runs submitted tasks on a fixed number of workers. Each task gets
	// its own timeout, so one stalled unit (an unreachable address, a slow
	// key scan) cannot hold up the rest.
	Pool struct {
		tasks   chan Task
		timeout time.Duration

		haltCh   chan struct{}
		haltOnce sync.Once
		wg       sync.WaitGroup
	}
)

func NewPool(workers, queueSize int, timeout time.Duration) *Pool {
	p := &Pool{
		tasks:   make(chan Task, queueSize),
		timeout: timeout,
		haltCh:  make(chan struct{}),
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

func (p *Pool) run() {
	defer p.wg.Done()
	for {
		select {
		case task := <-p.tasks:
			ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
			task(ctx)
			cancel()
		case <-p.haltCh:
			return
		}
	}
}

// Submit queues task for execution. It never blocks: when the queue is full
// or the pool is halted it reports false and the caller decides whether that
// is a silent drop or a failure.
func (p *Pool) Submit(task Task) bool {
	select {
	case <-p.haltCh:
		return false
	default:
	}

	select {
	case p.tasks <- task:
		return true
	default:
		return false
	}
}

// Halt stops the workers and waits for in-flight tasks to finish. Queued but
// unstarted tasks are abandoned.
func (p *Pool) Halt() {
	p.haltOnce.Do(func() {
		close(p.haltCh)
	})
	p.wg.Wait()
}
