// Package queue carries thumbnail jobs from the upload path to the worker
// pool. Enqueue is fire-and-forget: the uploader hands off ownership of the
// payload and never awaits completion.
package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/PaulBabatuyi/filekeeper/internal/models"
)

// ErrQueueFull is returned when the queue cannot accept another job. The
// upload that triggered the enqueue still succeeds.
var ErrQueueFull = errors.New("queue: full")

// ErrQueueClosed is returned when enqueueing after shutdown.
var ErrQueueClosed = errors.New("queue: closed")

// Queue delivers jobs to a pool of workers. No ordering guarantee between
// jobs.
type Queue interface {
	Enqueue(ctx context.Context, job models.ThumbnailJob) error
	Jobs() <-chan models.ThumbnailJob
	Close()
}

// ChannelQueue is an in-process Queue backed by a buffered channel.
type ChannelQueue struct {
	jobs chan models.ThumbnailJob

	mu     sync.Mutex
	closed bool
}

func NewChannelQueue(size int) *ChannelQueue {
	return &ChannelQueue{jobs: make(chan models.ThumbnailJob, size)}
}

func (q *ChannelQueue) Enqueue(_ context.Context, job models.ThumbnailJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *ChannelQueue) Jobs() <-chan models.ThumbnailJob { return q.jobs }

// Close stops accepting jobs and lets consumers drain what remains.
func (q *ChannelQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
}
