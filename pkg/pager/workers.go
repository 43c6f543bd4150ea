package pager

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marmos91/feedpager/internal/logger"
)

// DefaultWorkers is the default number of fetch workers.
const DefaultWorkers = 4

// DefaultQueueSize is the default number of fetch jobs that may wait for a worker.
const DefaultQueueSize = 64

// WorkerPoolConfig configures the background fetch workers.
type WorkerPoolConfig struct {
	// Workers is the number of goroutines draining the queue.
	// Default: 4
	Workers int

	// QueueSize bounds the number of queued jobs.
	// Default: 64
	QueueSize int
}

// DefaultWorkerPoolConfig returns the default worker pool configuration.
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		Workers:   DefaultWorkers,
		QueueSize: DefaultQueueSize,
	}
}

// WorkerPool runs fetch jobs on a fixed set of goroutines.
type WorkerPool struct {
	config WorkerPoolConfig
	jobs   chan func()
	quit   chan struct{}
	done   chan struct{}
	wg     sync.WaitGroup

	pending atomic.Int64

	mu      sync.RWMutex
	started bool
	stopped bool
}

// NewWorkerPool creates a pool. Call Start before submitting.
func NewWorkerPool(config WorkerPoolConfig) *WorkerPool {
	if config.Workers <= 0 {
		config.Workers = DefaultWorkers
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultQueueSize
	}
	return &WorkerPool{
		config: config,
		jobs:   make(chan func(), config.QueueSize),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start launches the workers. Cancelling ctx has the same effect as Stop:
// queued jobs still run so every submitted request is answered.
func (p *WorkerPool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.stopped {
		return
	}
	p.started = true

	for i := 0; i < p.config.Workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	go func() {
		select {
		case <-ctx.Done():
			p.Stop(0)
		case <-p.quit:
		}
	}()
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		runJob(job)
		p.pending.Add(-1)
	}
}

// runJob executes job, turning a panic into a log line so a worker never
// dies. Protocol violations raised in strict mode are re-raised.
func runJob(job func()) {
	defer func() {
		if r := recover(); r != nil {
			if pe, ok := r.(*PageError); ok && pe.Kind == ProtocolViolation {
				panic(pe)
			}
			logger.Error("Fetch job panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	job()
}

// Submit queues job. It returns false when the pool is not running or the
// queue is full; the caller decides how to run the job instead.
func (p *WorkerPool) Submit(job func()) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.started || p.stopped {
		return false
	}

	p.pending.Add(1)
	select {
	case p.jobs <- job:
		return true
	default:
		p.pending.Add(-1)
		return false
	}
}

// Run submits job, or runs it on its own goroutine when the queue is full or
// the pool is not running. Overflow goroutines of a running pool are waited
// for by Stop like queued jobs.
func (p *WorkerPool) Run(job func()) {
	if p.Submit(job) {
		return
	}

	p.mu.RLock()
	tracked := p.started && !p.stopped
	if tracked {
		p.wg.Add(1)
		p.pending.Add(1)
	}
	p.mu.RUnlock()

	if !tracked {
		go runJob(job)
		return
	}
	go func() {
		defer p.wg.Done()
		defer p.pending.Add(-1)
		runJob(job)
	}()
}

// Pending returns the number of queued or running jobs.
func (p *WorkerPool) Pending() int {
	return int(p.pending.Load())
}

// Stop stops accepting jobs, lets workers drain the queue and waits up to
// timeout. It returns false if workers were still busy at the deadline.
// Stop may be called again, for instance after the Start context was
// cancelled, to wait for the drain.
func (p *WorkerPool) Stop(timeout time.Duration) bool {
	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.jobs)
		close(p.quit)
		go func() {
			p.wg.Wait()
			close(p.done)
		}()
	}
	p.mu.Unlock()

	select {
	case <-p.done:
		return true
	default:
	}
	if timeout <= 0 {
		return false
	}

	select {
	case <-p.done:
		return true
	case <-time.After(timeout):
		logger.Warn("Worker pool stop timed out", "pending", p.Pending())
		return false
	}
}
