package dispatch

import (
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool runs submitted tasks on a fixed set of worker goroutines. Submit
// never blocks: when the queue is full the task gets its own goroutine.
type Pool struct {
	tasks chan func()
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	spilled atomic.Int64
}

func DefaultWorkers() int {
	return runtime.NumCPU() * 2
}

func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = DefaultWorkers()
	}

	p := &Pool{tasks: make(chan func(), workers*64)}
	for range workers {
		p.wg.Add(1)
		go p.work()
	}

	return p
}

func (p *Pool) work() {
	defer p.wg.Done()
	for task := range p.tasks {
		task()
	}
}

// Submit reports false if the pool was closed.
func (p *Pool) Submit(task func()) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return false
	}

	select {
	case p.tasks <- task:
	default:
		if n := p.spilled.Add(1); n%1000 == 1 {
			slog.Warn("dispatch pool saturated, spilling tasks", "spilled", n)
		}
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			task()
		}()
	}

	return true
}

// Close waits for queued tasks to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
}
