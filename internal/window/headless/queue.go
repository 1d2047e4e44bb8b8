package headless

import "sync"

// jobQueue is an unbounded FIFO drained by a single goroutine. post never
// blocks, so the page loop can queue work for itself.
type jobQueue struct {
	mu     sync.Mutex
	jobs   []func()
	wake   chan struct{}
	closed bool
	done   chan struct{}
}

func newJobQueue() *jobQueue {
	return &jobQueue{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// post appends job. It reports false once the queue is closed.
func (q *jobQueue) post(job func()) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.jobs = append(q.jobs, job)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true
}

// run executes jobs in order until the queue is closed and drained
func (q *jobQueue) run(exec func(job func())) {
	defer close(q.done)
	for {
		q.mu.Lock()
		if len(q.jobs) == 0 {
			closed := q.closed
			q.mu.Unlock()
			if closed {
				return
			}
			<-q.wake
			continue
		}
		job := q.jobs[0]
		q.jobs[0] = nil
		q.jobs = q.jobs[1:]
		q.mu.Unlock()

		exec(job)
	}
}

// close stops accepting jobs; queued jobs still run
func (q *jobQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}
