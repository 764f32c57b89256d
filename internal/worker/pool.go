// Package worker provides a bounded pool of goroutines that run download jobs.
// Submissions beyond the queue capacity are refused instead of spawning more
// goroutines.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/panics"
)

var (
	ErrQueueFull   = errors.New("task queue is full")
	ErrPoolStopped = errors.New("worker pool is stopped")
)

// Task is a unit of work. The context is cancelled when the task times out or
// the pool stops.
type Task func(ctx context.Context)

// Config represents pool configuration
type Config struct {
	MaxWorkers  int           // maximum number of workers
	QueueSize   int           // pending task capacity
	TaskTimeout time.Duration // timeout for a single task, 0 disables it
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		MaxWorkers:  2,
		QueueSize:   100,
		TaskTimeout: 30 * time.Minute,
	}
}

// Validate validates configuration
func (cfg *Config) Validate() error {
	if cfg.MaxWorkers < 1 {
		return errors.New("max workers must be greater than 0")
	}
	if cfg.QueueSize < 1 {
		return errors.New("queue size must be greater than 0")
	}
	if cfg.TaskTimeout < 0 {
		return errors.New("task timeout must be greater than or equal to 0")
	}
	return nil
}

// Stats is a point-in-time view of the pool counters
type Stats struct {
	ActiveWorkers  int64 `json:"active"`
	PendingTasks   int64 `json:"pending"`
	CompletedTasks int64 `json:"completed"`
	PanickedTasks  int64 `json:"panicked"`
}

// Pool runs submitted tasks on a fixed number of goroutines
type Pool struct {
	maxWorkers  int
	taskTimeout time.Duration
	onPanic     func(*panics.Recovered)

	tasks   chan Task
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.RWMutex
	stopped bool

	active    atomic.Int64
	pending   atomic.Int64
	completed atomic.Int64
	panicked  atomic.Int64
}

// NewPool creates a pool. Call Start before submitting.
func NewPool(cfg *Config) (*Pool, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pool config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		maxWorkers:  cfg.MaxWorkers,
		taskTimeout: cfg.TaskTimeout,
		tasks:       make(chan Task, cfg.QueueSize),
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// OnPanic registers a callback invoked with every panic recovered from a task
func (p *Pool) OnPanic(fn func(*panics.Recovered)) {
	p.onPanic = fn
}

// Start starts the workers
func (p *Pool) Start() {
	for i := 0; i < p.maxWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Stop cancels running tasks and waits for the workers until ctx expires
func (p *Pool) Stop(ctx context.Context) {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.cancel()
	close(p.tasks)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}
}

// Submit queues a task without blocking
func (p *Pool) Submit(task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return ErrPoolStopped
	}

	select {
	case p.tasks <- task:
		p.pending.Add(1)
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			p.run(task)
		}
	}
}

func (p *Pool) run(task Task) {
	p.pending.Add(-1)
	p.active.Add(1)
	defer p.active.Add(-1)

	ctx, cancel := p.ctx, context.CancelFunc(func() {})
	if p.taskTimeout > 0 {
		ctx, cancel = context.WithTimeout(p.ctx, p.taskTimeout)
	}
	defer cancel()

	if recovered := panics.Try(func() { task(ctx) }); recovered != nil {
		p.panicked.Add(1)
		if p.onPanic != nil {
			p.onPanic(recovered)
		}
		return
	}
	p.completed.Add(1)
}

// Stats returns the current counters
func (p *Pool) Stats() Stats {
	return Stats{
		ActiveWorkers:  p.active.Load(),
		PendingTasks:   p.pending.Load(),
		CompletedTasks: p.completed.Load(),
		PanickedTasks:  p.panicked.Load(),
	}
}
