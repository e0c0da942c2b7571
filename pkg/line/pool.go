// Package line provides the LINE-facing transport: the webhook server, the
// push-delivery sink, and the worker pool that decouples webhook
// acknowledgment from dispatch.
package line

import (
	"context"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/psplover16/line-ai-rebot/pkg/bot"
	"github.com/psplover16/line-ai-rebot/pkg/utils"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 64
)

// Job is one inbound message awaiting dispatch.
type Job struct {
	UserID string
	Text   string
}

// PoolConfig is the configuration options for the dispatch pool.
type PoolConfig struct {
	// Dispatcher processes dequeued messages.
	Dispatcher *bot.Dispatcher

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 64).
	QueueSize uint

	// Logger is the provided zap logger.
	Logger *zap.Logger
}

// Pool processes dispatch jobs asynchronously so the webhook handler can
// acknowledge the transport immediately. A full queue drops the job; only
// the logs reflect it.
type Pool struct {
	config *PoolConfig
	queue  chan Job
	wg     sync.WaitGroup
	logger *zap.Logger
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *PoolConfig) (*Pool, error) {
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	p := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: c.Logger,
	}

	p.wg.Add(int(c.NumWorkers))
	for i := uint(0); i < c.NumWorkers; i++ {
		go p.worker(i)
	}

	return p, nil
}

// Enqueue submits a job for processing by the pool.
// Returns true if enqueued, false if the queue is full and the job dropped.
func (p *Pool) Enqueue(job Job) bool {
	select {
	case p.queue <- job:
		p.logger.Debug("dispatch queued",
			zap.String("user_id", job.UserID),
			zap.String("text", utils.Truncate(job.Text, 64)),
		)
		return true
	default:
		p.logger.Error("dispatch queue full, message dropped",
			zap.String("user_id", job.UserID),
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight dispatches to drain.
// Call during graceful shutdown after the webhook server has stopped.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

// worker continuously pulls jobs off the queue and dispatches them.
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("dispatch worker started", zap.Uint("worker_id", id))

	for job := range p.queue {
		p.config.Dispatcher.Dispatch(context.Background(), job.UserID, job.Text)
	}

	p.logger.Debug("dispatch worker stopped", zap.Uint("worker_id", id))
}
