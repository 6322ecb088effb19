package cleanup

import (
	"sync"

	"sweeper/internal/models"
)

type job struct {
	chunk []models.CleanItem
	run   func([]models.CleanItem)
	wg    *sync.WaitGroup
}

// pool is a fixed set of long-lived workers pulling jobs from one channel,
// so an idle worker always takes the next chunk.
type pool struct {
	size int
	jobs chan job
	done sync.WaitGroup
}

func newPool(size int) *pool {
	p := &pool{size: size, jobs: make(chan job)}
	p.done.Add(size)
	for i := 0; i < size; i++ {
		go p.worker()
	}
	return p
}

func (p *pool) worker() {
	defer p.done.Done()
	for j := range p.jobs {
		j.run(j.chunk)
		j.wg.Done()
	}
}

// submit blocks until a worker accepts j.
func (p *pool) submit(j job) {
	p.jobs <- j
}

// close stops the workers once queued jobs are done.
func (p *pool) close() {
	close(p.jobs)
	p.done.Wait()
}
