// Package worker provides an asynchronous worker pool for recording chat
// exchanges with the provided transcript.Driver.
//
// The pool decouples transcript writes from the streaming path so a slow or
// failing store never delays the reply shown to the user.
package worker

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/frantai/folio/pkg/eventstream"
	"github.com/frantai/folio/pkg/transcript"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
	defaultWriteTimeout      = 10 * time.Second
)

// Config is the configuration options for the worker pool.
type Config struct {
	// Driver is the transcript store exchanges are written to.
	Driver transcript.Driver

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// WriteTimeout bounds a single Put (defaults to 10s).
	WriteTimeout time.Duration

	// Publisher, when set, receives an event for every stored exchange.
	Publisher eventstream.Publisher

	// Source tags published events with the recording component.
	Source eventstream.EventSource

	// Logger is the provided zap logger
	Logger *zap.Logger
}

// Pool records exchanges asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan transcript.Exchange
	wg     sync.WaitGroup
	logger *zap.Logger

	// mu guards closed so Enqueue never sends on a closed queue.
	mu     sync.RWMutex
	closed bool
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Driver == nil {
		return nil, fmt.Errorf("transcript driver is required")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.WriteTimeout == 0 {
		c.WriteTimeout = defaultWriteTimeout
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}

	wp := &Pool{
		config: c,
		queue:  make(chan transcript.Exchange, c.QueueSize),
		logger: c.Logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits an exchange for recording. Returns true if enqueued, false
// if the queue is full or the pool is closed, resulting in the exchange being
// dropped. A zero CreatedAt is stamped here so queueing delay does not
// reorder a session's history.
func (p *Pool) Enqueue(ex transcript.Exchange) bool {
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now()
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.logger.Warn("exchange not queued, pool closed",
			zap.Stringer("session_id", ex.SessionID),
		)
		return false
	}

	select {
	case p.queue <- ex:
		p.logger.Debug("exchange queued",
			zap.Stringer("session_id", ex.SessionID),
		)
		return true
	default:
		p.logger.Error("exchange not queued, queue full, exchange dropped",
			zap.Stringer("session_id", ex.SessionID),
		)
		return false
	}
}

// Close signals workers to stop and waits for queued exchanges to drain.
// Calling Close more than once is safe.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls exchanges off the queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", zap.Uint("worker_id", id))

	for ex := range p.queue {
		p.record(ex)
	}

	p.logger.Debug("transcript worker stopped", zap.Uint("worker_id", id))
}

// record writes one exchange. Errors are logged, not returned.
func (p *Pool) record(ex transcript.Exchange) {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.WriteTimeout)
	defer cancel()

	if err := p.config.Driver.Put(ctx, &ex); err != nil {
		p.logger.Error("recording exchange failed",
			zap.Stringer("session_id", ex.SessionID),
			zap.Error(err),
		)
		return
	}

	p.logger.Debug("exchange recorded",
		zap.Int64("id", ex.ID),
		zap.Stringer("session_id", ex.SessionID),
		zap.Bool("failed", ex.Failed),
	)

	if p.config.Publisher == nil {
		return
	}

	if err := p.config.Publisher.PublishExchange(ctx, eventstream.NewExchangeRecordedEvent(&ex, p.config.Source)); err != nil {
		p.logger.Warn("publishing exchange event failed",
			zap.Int64("id", ex.ID),
			zap.Stringer("session_id", ex.SessionID),
			zap.Error(err),
		)
	}
}
