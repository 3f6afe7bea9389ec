package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultTaskTimeout bounds a single task
const DefaultTaskTimeout = 2 * time.Minute

// PoolMetrics provides metrics about the worker pool's performance
type PoolMetrics struct {
	TotalTasks         int64
	CompletedTasks     int64
	FailedTasks        int64
	CurrentWorkers     int64
	PeakWorkers        int64
	AverageExecutionMs int64
	TotalExecutionMs   int64
}

// Task represents a unit of work to be executed
type Task func(ctx context.Context) error

// Pool manages a pool of workers for executing tasks concurrently
type Pool struct {
	maxWorkers    int
	taskTimeout   time.Duration
	tasks         chan Task
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
	activeWorkers int64

	// sendMu keeps Submit from sending on the channel Stop closes
	sendMu   sync.RWMutex
	stopping bool

	mu      sync.Mutex
	metrics PoolMetrics
}

// NewPool creates a new worker pool with the specified number of workers.
// Cancelling ctx stops every task.
func NewPool(ctx context.Context, maxWorkers int) (*Pool, error) {
	if maxWorkers <= 0 {
		return nil, fmt.Errorf("maxWorkers must be greater than 0, got %d", maxWorkers)
	}

	ctx, cancel := context.WithCancel(ctx)
	return &Pool{
		maxWorkers:  maxWorkers,
		taskTimeout: DefaultTaskTimeout,
		tasks:       make(chan Task, maxWorkers*2), // Buffer the channel to prevent blocking
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// SetTaskTimeout changes the per-task timeout, 0 disables it
func (p *Pool) SetTaskTimeout(d time.Duration) {
	p.taskTimeout = d
}

// Start starts the worker pool
func (p *Pool) Start() {
	for i := 0; i < p.maxWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Stop stops accepting tasks, waits for the queued ones and releases the pool
func (p *Pool) Stop() {
	p.sendMu.Lock()
	if p.stopping {
		p.sendMu.Unlock()
		return
	}
	p.stopping = true
	close(p.tasks)
	p.sendMu.Unlock()

	p.wg.Wait()
	p.cancel()
}

// GetMetrics returns the current metrics for the pool
func (p *Pool) GetMetrics() PoolMetrics {
	p.mu.Lock()
	defer p.mu.Unlock()

	m := p.metrics
	m.CurrentWorkers = atomic.LoadInt64(&p.activeWorkers)
	if done := m.CompletedTasks + m.FailedTasks; done > 0 {
		m.AverageExecutionMs = m.TotalExecutionMs / done
	}
	return m
}

// Submit queues a task. It reports false when the pool is stopping or its
// context is done, in which case the task never runs.
func (p *Pool) Submit(task Task) bool {
	p.sendMu.RLock()
	defer p.sendMu.RUnlock()

	if p.stopping || p.ctx.Err() != nil {
		return false
	}

	select {
	case p.tasks <- task:
		return true
	case <-p.ctx.Done():
		return false
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	current := atomic.AddInt64(&p.activeWorkers, 1)
	defer atomic.AddInt64(&p.activeWorkers, -1)

	p.mu.Lock()
	if current > p.metrics.PeakWorkers {
		p.metrics.PeakWorkers = current
	}
	p.mu.Unlock()

	for task := range p.tasks {
		p.run(task)
	}
}

func (p *Pool) run(task Task) {
	start := time.Now()

	taskCtx, cancel := p.ctx, context.CancelFunc(func() {})
	if p.taskTimeout > 0 {
		taskCtx, cancel = context.WithTimeout(p.ctx, p.taskTimeout)
	}
	err := task(taskCtx)
	cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.metrics.TotalExecutionMs += time.Since(start).Milliseconds()
	if err != nil {
		p.metrics.FailedTasks++
	} else {
		p.metrics.CompletedTasks++
	}
}

// ExecuteTasks runs tasks on the pool and waits for them. The first failure
// cancels the tasks still running and keeps the queued ones from starting;
// that first error is returned.
func (p *Pool) ExecuteTasks(tasks []Task) error {
	runCtx, cancelRun := context.WithCancel(p.ctx)
	defer cancelRun()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancelRun()
		})
	}

	p.mu.Lock()
	p.metrics.TotalTasks += int64(len(tasks))
	p.mu.Unlock()

	for _, t := range tasks {
		task := t
		wg.Add(1)
		wrapped := func(ctx context.Context) error {
			defer wg.Done()
			if err := runCtx.Err(); err != nil {
				fail(err)
				return err
			}

			taskCtx, cancelTask := context.WithCancel(ctx)
			defer cancelTask()
			stop := context.AfterFunc(runCtx, cancelTask)
			defer stop()

			err := task(taskCtx)
			if err != nil {
				fail(err)
			}
			return err
		}

		if !p.Submit(wrapped) {
			wg.Done()
			if err := p.ctx.Err(); err != nil {
				fail(err)
			} else {
				fail(fmt.Errorf("worker pool is stopped"))
			}
			break
		}
	}

	wg.Wait()
	return firstErr
}
