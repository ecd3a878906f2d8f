package simrun

import (
	"context"
	"sync"

	"github.com/bldgsim/beosim/log"
)

// Dispatcher fans SimJob runs out across a bounded in-process worker
// pool, adapted from the teacher's networked submit/fetch/push queue
// (cloudlus/server.go's dispatcher()) down to a single-process
// channel queue: no RPC transport, no worker heartbeat, since all
// workers are goroutines sharing this process rather than remote
// machines that can go silent.
type Dispatcher struct {
	workers int
	store   *RunStore
	log     *log.Logger

	queue   chan *SimJob
	results chan *SimJob
	wg      sync.WaitGroup
}

// NewDispatcher starts `workers` goroutines pulling from an internal
// queue. Call Submit to enqueue runs and Results to drain completions;
// call Close after every Submit to let the workers drain and exit.
func NewDispatcher(workers int, store *RunStore, logger *log.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = log.Default()
	}
	d := &Dispatcher{
		workers: workers,
		store:   store,
		log:     logger,
		queue:   make(chan *SimJob, workers*4),
		results: make(chan *SimJob, workers*4),
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.runWorker()
	}
	return d
}

func (d *Dispatcher) runWorker() {
	defer d.wg.Done()
	for j := range d.queue {
		j.Status = StatusRunning
		jobsRunning.Inc()
		if d.store != nil {
			_ = d.store.Put(j)
		}

		j.Execute(nil)

		jobsRunning.Dec()
		switch j.Status {
		case StatusComplete:
			jobsSucceeded.Inc()
		case StatusTimedOut:
			jobsTimedOut.Inc()
		default:
			jobsFailed.Inc()
		}
		if d.store != nil {
			_ = d.store.Put(j)
		}
		d.results <- j
	}
}

// Submit enqueues a job for execution. It blocks once the internal
// queue is full, providing natural backpressure.
func (d *Dispatcher) Submit(j *SimJob) {
	jobsQueued.Inc()
	if d.store != nil {
		_ = d.store.Put(j)
	}
	d.queue <- j
}

// Results returns the channel completed jobs are delivered on.
func (d *Dispatcher) Results() <-chan *SimJob { return d.results }

// Close stops accepting new submissions and waits for in-flight jobs
// to finish, then closes the results channel.
func (d *Dispatcher) Close() {
	close(d.queue)
	d.wg.Wait()
	close(d.results)
}

// RunAll submits every job, waits for all results, and returns them in
// completion order. Intended for batch (building, variant) fan-out
// where the caller wants a simple blocking call.
func (d *Dispatcher) RunAll(ctx context.Context, jobs []*SimJob) []*SimJob {
	go func() {
		for _, j := range jobs {
			select {
			case <-ctx.Done():
				return
			default:
			}
			d.Submit(j)
		}
		d.Close()
	}()

	out := make([]*SimJob, 0, len(jobs))
	for j := range d.results {
		out = append(out, j)
	}
	return out
}
