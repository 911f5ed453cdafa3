// Package mailbox implements the single-threaded actor substrate the
// trading core's stores run on: one goroutine per store, draining a
// buffered channel of jobs in arrival order. It is the Go rendition of
// the actix actor model the original implementation used — one mailbox,
// one handler goroutine, non-reentrant handlers, in-order delivery.
package mailbox

// Mailbox serializes access to a single owner's state: jobs sent to it
// run one at a time, in send order, on a dedicated goroutine.
type Mailbox struct {
	jobs chan func()
	done chan struct{}
}

// New starts a mailbox with the given job buffer depth.
func New(buffer int) *Mailbox {
	if buffer <= 0 {
		buffer = 64
	}
	m := &Mailbox{
		jobs: make(chan func(), buffer),
		done: make(chan struct{}),
	}
	go m.run()
	return m
}

func (m *Mailbox) run() {
	defer close(m.done)
	for job := range m.jobs {
		job()
	}
}

// Send enqueues a fire-and-forget job. It does not wait for the job to
// run.
func (m *Mailbox) Send(job func()) {
	m.jobs <- job
}

// Close stops accepting new jobs and waits for the goroutine to drain
// whatever is already queued.
func (m *Mailbox) Close() {
	close(m.jobs)
	<-m.done
}

// Ask enqueues a job and blocks until it runs, returning its result.
// This is the synchronous "send and await reply" pattern the
// Coordinator and cross-store queries use (e.g. Account Ledger querying
// Position Store for the prior position's sign).
func Ask[T any](m *Mailbox, job func() T) T {
	reply := make(chan T, 1)
	m.Send(func() {
		reply <- job()
	})
	return <-reply
}
