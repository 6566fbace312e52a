package genetic

import "sync"

// executor abstracts how per-phase work items run. The generational loop is
// written once against this interface; the serial and parallel engines differ
// only in which implementation they carry.
//
// submit schedules one work item; wait blocks until every item submitted
// since the previous wait has finished (phase barrier). A panic raised by a
// work item is re-raised from wait on the caller's goroutine, unmodified.
type executor interface {
	submit(fn func())
	wait()
}

// inlineExecutor runs every work item immediately on the calling goroutine.
type inlineExecutor struct{}

func (inlineExecutor) submit(fn func()) { fn() }
func (inlineExecutor) wait()            {}

// workerPool is a fixed-size pool shared across a whole run. Work items for
// one phase are fanned out to the workers and wait acts as the barrier before
// the next phase begins.
type workerPool struct {
	jobs chan func()
	wg   sync.WaitGroup

	mu      sync.Mutex
	failure any // first panic raised by a work item since the last wait
}

func newWorkerPool(workers int) *workerPool {
	p := &workerPool{jobs: make(chan func())}
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *workerPool) worker() {
	for fn := range p.jobs {
		p.runOne(fn)
	}
}

func (p *workerPool) runOne(fn func()) {
	defer p.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			p.mu.Lock()
			if p.failure == nil {
				p.failure = r
			}
			p.mu.Unlock()
		}
	}()
	fn()
}

func (p *workerPool) submit(fn func()) {
	p.wg.Add(1)
	p.jobs <- fn
}

func (p *workerPool) wait() {
	p.wg.Wait()
	p.mu.Lock()
	r := p.failure
	p.failure = nil
	p.mu.Unlock()
	if r != nil {
		panic(r)
	}
}

// close releases the pool's goroutines. Submitting after close panics.
func (p *workerPool) close() {
	close(p.jobs)
}
