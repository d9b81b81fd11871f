package nw

import "sync"

// workerPool runs queued jobs on a single background goroutine in strict
// enqueue order, the resolution spec.md §9 gives to the "async dispatch
// ordering" open question. Generalised from utils.Worker[T]'s fixed
// message-type queue to arbitrary func() jobs, since a callback register
// dispatches whichever handler fired, not one uniform message shape.
type workerPool struct {
	q       chan func()
	once    sync.Once
	stopped chan struct{}
}

func newWorkerPool() *workerPool {
	p := &workerPool{
		q:       make(chan func(), 1000),
		stopped: make(chan struct{}),
	}
	go p.run()
	return p
}

func (this_ *workerPool) run() {
	for job := range this_.q {
		job()
	}
	close(this_.stopped)
}

// push enqueues job, preserving FIFO order relative to earlier pushes.
// Pushing after stop is a no-op.
func (this_ *workerPool) push(job func()) {
	defer func() {
		_ = recover()
	}()
	this_.q <- job
}

// stop closes the queue and waits for in-flight jobs to drain.
func (this_ *workerPool) stop() {
	this_.once.Do(func() {
		close(this_.q)
	})
	<-this_.stopped
}
