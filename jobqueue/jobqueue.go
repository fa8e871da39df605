// Package jobqueue implements the context-owned microtask queue: a FIFO
// of promise-reaction jobs and queueMicrotask callbacks, drained
// cooperatively by the host via Run.
package jobqueue

import (
	"container/list"
	"fmt"

	"github.com/dop251/goja"
	"github.com/sirupsen/logrus"
)

// Job is a single queued unit of work, run to completion with no
// preemption.
type Job func()

// UnhandledRejectionHandler is invoked with the thrown value when a job
// queued by EnqueueMicrotask throws. Rejections of promises are not
// tracked by the queue.
type UnhandledRejectionHandler func(reason goja.Value)

// Queue is a single-threaded, single-context FIFO job queue. It is not
// safe for concurrent use, matching the engine's single-threaded
// cooperative scheduling model.
type Queue struct {
	jobs       *list.List
	log        *logrus.Entry
	onRejected UnhandledRejectionHandler
}

// New returns an empty queue. log receives the default unhandled
// rejection message if onRejected is nil.
func New(log *logrus.Entry) *Queue {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Queue{jobs: list.New(), log: log}
}

// SetUnhandledRejectionHandler installs the host callback for unhandled
// promise rejections, replacing the default log-to-stderr behavior.
func (q *Queue) SetUnhandledRejectionHandler(h UnhandledRejectionHandler) {
	q.onRejected = h
}

// Enqueue appends a job to the back of the queue.
func (q *Queue) Enqueue(job Job) {
	q.jobs.PushBack(job)
}

// EnqueueMicrotask implements queueMicrotask(fn): schedules fn to run
// with no arguments and undefined `this`. The caller must reject
// synchronously with TypeError before calling this if fn is not
// callable - Queue itself has no JS-exception surface.
func (q *Queue) EnqueueMicrotask(fn goja.Callable) {
	q.Enqueue(func() {
		if _, err := fn(goja.Undefined()); err != nil {
			q.reportUnhandled(err)
		}
	})
}

// HasPendingJobs reports whether the queue is non-empty.
func (q *Queue) HasPendingJobs() bool {
	return q.jobs.Len() > 0
}

// Run drains the queue until empty, running each job to completion.
// Jobs enqueued during a job's execution (recursive enqueues) are
// appended and drained within the same call, matching run_jobs().
func (q *Queue) Run() {
	for q.jobs.Len() > 0 {
		front := q.jobs.Front()
		q.jobs.Remove(front)
		job := front.Value.(Job)
		job()
	}
}

func (q *Queue) reportUnhandled(err error) {
	if q.onRejected != nil {
		if gojaErr, ok := err.(*goja.Exception); ok {
			q.onRejected(gojaErr.Value())
			return
		}
		q.onRejected(goja.Undefined())
		return
	}
	q.log.WithField("error", fmt.Sprint(err)).Error("unhandled promise rejection")
}
