// Package parallel provides the worker pool used by the CPU backend to
// spread independent 1-D lines and output slabs across goroutines.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// minChunk is the smallest number of items handed to a single task by Range.
const minChunk = 64

// WorkerPool is a pool of goroutines for data-parallel array kernels.
//
// Each worker owns a queue and steals from the others when its own queue is
// empty, which balances lines of uneven cost.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers    int
	workQueues []chan func()
	done       chan struct{}
	wg         sync.WaitGroup
	running    atomic.Bool
}

// NewWorkerPool creates a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	queueSize := workers * 4
	if queueSize < 8 {
		queueSize = 8
	}

	p := &WorkerPool{
		workers:    workers,
		workQueues: make([]chan func(), workers),
		done:       make(chan struct{}),
	}
	for i := range workers {
		p.workQueues[i] = make(chan func(), queueSize)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	myQueue := p.workQueues[id]
	for {
		select {
		case <-p.done:
			p.drainQueue(myQueue)
			return
		case work := <-myQueue:
			work()
		default:
			if stolen := p.steal(id); stolen != nil {
				stolen()
				continue
			}
			select {
			case <-p.done:
				p.drainQueue(myQueue)
				return
			case work := <-myQueue:
				work()
			}
		}
	}
}

func (p *WorkerPool) drainQueue(queue chan func()) {
	for {
		select {
		case work := <-queue:
			work()
		default:
			return
		}
	}
}

// steal takes one item from another worker's queue, or returns nil.
func (p *WorkerPool) steal(myID int) func() {
	for i := range p.workers {
		if i == myID {
			continue
		}
		select {
		case work := <-p.workQueues[i]:
			return work
		default:
		}
	}
	return nil
}

// ExecuteAll runs every work item and waits for all of them.
// Items run inline on the calling goroutine when the pool is nil or closed,
// so results never depend on the pool state.
func (p *WorkerPool) ExecuteAll(work []func()) {
	if len(work) == 0 {
		return
	}
	if p == nil || !p.running.Load() || len(work) == 1 {
		for _, fn := range work {
			fn()
		}
		return
	}

	var completion sync.WaitGroup
	completion.Add(len(work))
	for i, fn := range work {
		wrapped := func() {
			defer completion.Done()
			fn()
		}
		select {
		case p.workQueues[i%p.workers] <- wrapped:
		case <-p.done:
			wrapped()
		}
	}
	completion.Wait()
}

// Range splits [0, n) into contiguous chunks and calls fn(lo, hi) for each,
// in parallel, returning when all chunks are done.
func (p *WorkerPool) Range(n int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	workers := 1
	if p != nil {
		workers = p.workers
	}
	chunk := (n + workers*4 - 1) / (workers * 4)
	if chunk < minChunk {
		chunk = minChunk
	}
	work := make([]func(), 0, (n+chunk-1)/chunk)
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		work = append(work, func() { fn(lo, hi) })
	}
	p.ExecuteAll(work)
}

// Close stops the workers after draining queued work.
// Close is safe to call multiple times.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning reports whether the pool is accepting work.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}

var (
	sharedOnce sync.Once
	shared     *WorkerPool
)

// Shared returns a process-wide pool sized to GOMAXPROCS.
func Shared() *WorkerPool {
	sharedOnce.Do(func() {
		shared = NewWorkerPool(0)
	})
	return shared
}
