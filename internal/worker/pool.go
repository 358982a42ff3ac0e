// Package worker runs article annotation jobs concurrently with per-host
// rate limiting.
package worker

import (
	"context"
	"sync"
)

// Pool annotates articles on a fixed number of goroutines. Cancelling the
// parent context stops workers after the article they are on.
type Pool struct {
	size    int
	jobs    chan *AnnotateJob
	results chan *AnnotateResult
	wg      sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	jobsClosed    sync.Once
	resultsClosed sync.Once
}

// NewPool creates a pool of size workers bound to parent
func NewPool(parent context.Context, size int) *Pool {
	if size <= 0 {
		size = 1
	}

	ctx, cancel := context.WithCancel(parent)
	return &Pool{
		size:    size,
		jobs:    make(chan *AnnotateJob, size*2),
		results: make(chan *AnnotateResult, size*2),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the workers
func (p *Pool) Start() {
	p.wg.Add(p.size)
	for i := 0; i < p.size; i++ {
		go p.run()
	}
}

func (p *Pool) run() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			result := job.Run(p.ctx)
			select {
			case p.results <- result:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues a job and reports whether it was accepted. It blocks while
// the queue is full, so results must be read concurrently for large batches.
func (p *Pool) Submit(job *AnnotateJob) bool {
	if p.ctx.Err() != nil {
		return false
	}
	select {
	case <-p.ctx.Done():
		return false
	case p.jobs <- job:
		return true
	}
}

// Results is closed once every worker has exited after Close or Shutdown
func (p *Pool) Results() <-chan *AnnotateResult {
	return p.results
}

// Close stops accepting jobs. Queued jobs still run.
func (p *Pool) Close() {
	p.jobsClosed.Do(func() { close(p.jobs) })
	go func() {
		p.wg.Wait()
		p.closeResults()
	}()
}

// Wait closes the pool and returns every remaining result
func (p *Pool) Wait() []*AnnotateResult {
	p.Close()

	var out []*AnnotateResult
	for r := range p.results {
		out = append(out, r)
	}
	return out
}

// Shutdown cancels in-flight work and waits for the workers
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
	p.closeResults()
}

func (p *Pool) closeResults() {
	p.resultsClosed.Do(func() { close(p.results) })
}
