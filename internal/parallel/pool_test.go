package parallel

import (
	"runtime"
	"sync/atomic"
	"testing"
)

func TestWorkerPool_Create(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	if pool.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", pool.Workers())
	}
	if !pool.IsRunning() {
		t.Error("Pool should be running after creation")
	}
}

func TestWorkerPool_CreateZeroWorkers(t *testing.T) {
	pool := NewWorkerPool(0)
	defer pool.Close()

	if want := runtime.GOMAXPROCS(0); pool.Workers() != want {
		t.Errorf("Workers() = %d, want %d (GOMAXPROCS)", pool.Workers(), want)
	}
}

func TestWorkerPool_ExecuteAll(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var counter atomic.Int64
	work := make([]func(), 100)
	for i := range work {
		work[i] = func() { counter.Add(1) }
	}
	pool.ExecuteAll(work)

	if got := counter.Load(); got != 100 {
		t.Errorf("counter = %d, want 100", got)
	}
}

func TestWorkerPool_ExecuteAllAfterClose(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Close()

	var counter atomic.Int64
	pool.ExecuteAll([]func(){
		func() { counter.Add(1) },
		func() { counter.Add(1) },
	})
	if got := counter.Load(); got != 2 {
		t.Errorf("closed pool ran %d items, want 2 (inline)", got)
	}
}

func TestWorkerPool_NilRunsInline(t *testing.T) {
	var p *WorkerPool
	sum := 0
	p.Range(10, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			sum += i
		}
	})
	if sum != 45 {
		t.Errorf("sum = %d, want 45", sum)
	}
}

func TestWorkerPool_RangeCoversEveryIndex(t *testing.T) {
	pool := NewWorkerPool(3)
	defer pool.Close()

	tests := []int{0, 1, 63, 64, 65, 1000, 4097}
	for _, n := range tests {
		hits := make([]atomic.Int32, n)
		pool.Range(n, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				hits[i].Add(1)
			}
		})
		for i := range hits {
			if got := hits[i].Load(); got != 1 {
				t.Fatalf("n=%d: index %d visited %d times, want 1", n, i, got)
			}
		}
	}
}

func TestWorkerPool_CloseIdempotent(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Close()
	pool.Close()
	if pool.IsRunning() {
		t.Error("pool should not be running after Close")
	}
}

func TestShared(t *testing.T) {
	if Shared() != Shared() {
		t.Error("Shared() should return the same pool")
	}
	if !Shared().IsRunning() {
		t.Error("shared pool should be running")
	}
}
