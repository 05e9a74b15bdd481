// Package worker runs the thumbnail pipeline: a pool of slots consuming jobs
// from the queue, decoupled from the request-serving path.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/PaulBabatuyi/filekeeper/internal/errs"
	"github.com/PaulBabatuyi/filekeeper/internal/models"
	"github.com/PaulBabatuyi/filekeeper/internal/observability"
	"github.com/PaulBabatuyi/filekeeper/internal/queue"
)

// FileFinder is the slice of the file store the worker needs: an
// owner-scoped refetch, protecting against jobs that outlive their records.
type FileFinder interface {
	FindOwnedFile(ctx context.Context, id, ownerID string) (*models.FileRecord, error)
}

// Pool consumes thumbnail jobs. Each job occupies one slot; jobs run
// concurrently across slots. Job failures are terminal — there is no retry
// or dead-lettering here.
type Pool struct {
	queue   queue.Queue
	files   FileFinder
	proc    *ImageProcessor
	sem     *semaphore.Weighted
	metrics *observability.Metrics
	logger  *zap.Logger
	tracer  trace.Tracer

	wg sync.WaitGroup
}

func NewPool(q queue.Queue, files FileFinder, proc *ImageProcessor, slots int64, metrics *observability.Metrics, logger *zap.Logger) *Pool {
	if slots <= 0 {
		slots = 4
	}
	return &Pool{
		queue:   q,
		files:   files,
		proc:    proc,
		sem:     semaphore.NewWeighted(slots),
		metrics: metrics,
		logger:  logger,
		tracer:  otel.Tracer("filekeeper/worker"),
	}
}

// Start launches the consumer loop. It exits when ctx is cancelled or the
// queue is closed.
func (p *Pool) Start(ctx context.Context) {
	p.wg.Add(1)
	go p.run(ctx)
}

// Wait blocks until the consumer loop and all in-flight jobs finish. Close
// the queue first to drain it.
func (p *Pool) Wait() { p.wg.Wait() }

func (p *Pool) run(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.queue.Jobs():
			if !ok {
				return
			}
			if err := p.sem.Acquire(ctx, 1); err != nil {
				return
			}
			p.wg.Add(1)
			go func(job models.ThumbnailJob) {
				defer p.wg.Done()
				defer p.sem.Release(1)
				p.process(ctx, job)
			}(job)
		}
	}
}

func (p *Pool) process(ctx context.Context, job models.ThumbnailJob) {
	_, span := p.tracer.Start(ctx, "thumbnail.process",
		trace.WithAttributes(attribute.String("file_id", job.FileID)))
	defer span.End()

	if err := p.handle(ctx, job); err != nil {
		span.RecordError(err)
		p.metrics.ThumbnailJobs.WithLabelValues("failed").Inc()
		p.logger.Error("thumbnail job failed",
			zap.String("file_id", job.FileID),
			zap.String("owner_id", job.OwnerID),
			zap.Error(err),
		)
		return
	}
	p.metrics.ThumbnailJobs.WithLabelValues("ok").Inc()
	p.logger.Info("thumbnail job completed", zap.String("file_id", job.FileID))
}

func (p *Pool) handle(ctx context.Context, job models.ThumbnailJob) error {
	if job.FileID == "" {
		return errors.New("missing fileId")
	}
	if job.OwnerID == "" {
		return errors.New("missing userId")
	}

	f, err := p.files.FindOwnedFile(ctx, job.FileID, job.OwnerID)
	if errors.Is(err, errs.ErrNotFound) {
		return errors.New("file not found")
	}
	if err != nil {
		return fmt.Errorf("refetch record: %w", err)
	}

	return p.proc.GenerateAll(f)
}
