// Package worker provides an asynchronous worker pool for persisting exchange
// records using the provided storage.Driver and publishing completion events
// using the provided eventstream.Publisher.
//
// The pool decouples persistence from the gateway's HTTP hot path so that the
// client-gateway-backend interaction stays transparent.
package worker

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papercomputeco/wireline/pkg/eventstream"
	"github.com/papercomputeco/wireline/pkg/storage"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

// Job is a unit of work for the worker pool to execute against.
type Job struct {
	// Exchange is the record to persist.
	Exchange *storage.Exchange

	// Path is the client-facing route that produced the exchange.
	Path string

	// StartedAt and CompletedAt bound the exchange lifecycle for the
	// published event.
	StartedAt   time.Time
	CompletedAt time.Time
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Driver is the storage backend for persisting exchange records.
	Driver storage.Driver

	// Publisher is the optional eventstream publisher for completion events.
	// If nil, event publishing is disabled.
	Publisher eventstream.Publisher

	// GatewayName identifies this gateway instance in published events.
	GatewayName string

	// UpstreamURL identifies the backend in published events.
	UpstreamURL string

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// Logger is the provided zap logger
	Logger *zap.Logger
}

// Pool processes persistence jobs asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *zap.Logger
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: c.Logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := uint(0); i < c.NumWorkers; i++ {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full, resulting in the job being dropped
func (p *Pool) Enqueue(job Job) bool {
	select {
	case p.queue <- job:
		p.logger.Debug("job queued",
			zap.String("exchange_id", job.Exchange.ID),
			zap.String("model", job.Exchange.Model),
		)
		return true
	default:
		p.logger.Error("job not queued, queue full, job dropped",
			zap.String("exchange_id", job.Exchange.ID),
			zap.String("model", job.Exchange.Model),
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after the gateway HTTP server has stopped.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", zap.Uint("worker_id", id))

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("storage worker stopped", zap.Uint("worker_id", id))
}

// processJob persists the exchange record and publishes the completion event.
func (p *Pool) processJob(job Job) {
	ctx := context.Background()

	if err := p.config.Driver.Save(ctx, job.Exchange); err != nil {
		p.logger.Error("async exchange storage failed",
			zap.String("exchange_id", job.Exchange.ID),
			zap.Error(err),
		)
		return
	}

	p.logger.Info("exchange stored",
		zap.String("exchange_id", job.Exchange.ID),
		zap.String("model", job.Exchange.Model),
		zap.Int("status", job.Exchange.Status),
	)

	if p.config.Publisher == nil {
		return
	}

	event := p.buildEvent(job)
	if err := p.config.Publisher.PublishExchange(ctx, event); err != nil {
		// Publish failures are logged but never fail the stored exchange.
		p.logger.Warn("failed to publish exchange event",
			zap.String("exchange_id", job.Exchange.ID),
			zap.Error(err),
		)
	}
}

// buildEvent assembles the transport-neutral completion event for a job.
func (p *Pool) buildEvent(job Job) *eventstream.ExchangeCompletedEvent {
	ex := job.Exchange
	return &eventstream.ExchangeCompletedEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeExchangeCompleted,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source: eventstream.EventSource{
			Gateway:  p.config.GatewayName,
			Upstream: p.config.UpstreamURL,
		},
		RequestMeta: eventstream.ExchangeRequestMeta{
			Path:        job.Path,
			StartedAt:   job.StartedAt,
			CompletedAt: job.CompletedAt,
			DurationMs:  ex.DurationMs,
			Streaming:   ex.Streaming,
			HTTPStatus:  ex.Status,
		},
		Exchange: eventstream.ExchangeMeta{
			ExchangeID:      ex.ID,
			Model:           ex.Model,
			FinishReason:    ex.FinishReason,
			PromptChars:     ex.PromptChars,
			CompletionChars: ex.CompletionChars,
			Truncated:       ex.Truncated,
		},
	}
}
