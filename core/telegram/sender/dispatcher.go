// Package sender runs outbound Bot API calls off the update goroutine.
package sender

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/ledgerbot/core/logger"
	"github.com/m3rciful/ledgerbot/core/telegram/netutil"
)

var (
	// ErrQueueClosed is returned when enqueue is attempted after dispatcher stop.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull indicates the queue is saturated and the job was not accepted.
	ErrQueueFull = errors.New("telegram sender: queue full")

	tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)
)

// Options controls the behaviour of the outbound dispatcher.
type Options struct {
	// QueueSize is the total capacity, split evenly across workers.
	QueueSize    int
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent retrying a single job.
	MaxDuration time.Duration
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 2 * time.Second
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = 12 * time.Second
	}
	return o
}

type job struct {
	ctx      context.Context
	action   string
	endpoint string
	run      func() error
}

// Dispatcher executes outbound Telegram calls asynchronously with retries.
// Jobs are sharded by the chat id carried in their context, so calls for one
// chat run in the order they were enqueued.
type Dispatcher struct {
	opts   Options
	shards []chan job
	wg     sync.WaitGroup
	errs   atomic.Uint64
	once   sync.Once

	// mu guards closed so no job is sent on a closed channel.
	mu     sync.RWMutex
	closed bool
}

// NewDispatcher starts the workers. Zero options take defaults.
func NewDispatcher(opts Options) *Dispatcher {
	opts = opts.withDefaults()
	perShard := opts.QueueSize / opts.Workers
	if perShard < 1 {
		perShard = 1
	}

	d := &Dispatcher{opts: opts, shards: make([]chan job, opts.Workers)}
	d.wg.Add(opts.Workers)
	for i := range d.shards {
		d.shards[i] = make(chan job, perShard)
		go d.worker(d.shards[i])
	}
	return d
}

func (d *Dispatcher) shardFor(ctx context.Context) chan job {
	chatID := uint64(logger.ChatIDFrom(ctx))
	return d.shards[chatID%uint64(len(d.shards))]
}

// Enqueue schedules run. Retried runs must be idempotent.
func (d *Dispatcher) Enqueue(ctx context.Context, action, endpoint string, run func() error) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.shardFor(ctx) <- job{ctx: ctx, action: action, endpoint: endpoint, run: run}:
		return nil
	default:
		return ErrQueueFull
	}
}

// EnqueueOrRun schedules run, or executes it inline when the dispatcher is nil,
// saturated or closed, so the call is never dropped.
func (d *Dispatcher) EnqueueOrRun(ctx context.Context, action, endpoint string, run func() error) error {
	if d == nil {
		return run()
	}
	err := d.Enqueue(ctx, action, endpoint, run)
	if errors.Is(err, ErrQueueFull) || errors.Is(err, ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", action),
			slog.String("endpoint", endpoint),
			slog.String("err", err.Error()),
		)
		return run()
	}
	return err
}

// ErrorCount returns the number of failed jobs.
func (d *Dispatcher) ErrorCount() uint64 {
	return d.errs.Load()
}

// Close stops accepting jobs and waits for queued ones to finish.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		d.mu.Lock()
		d.closed = true
		for _, ch := range d.shards {
			close(ch)
		}
		d.mu.Unlock()
		d.wg.Wait()
	})
}

func (d *Dispatcher) worker(jobs <-chan job) {
	defer d.wg.Done()
	for j := range jobs {
		d.handle(j)
	}
}

func (d *Dispatcher) handle(j job) {
	attrs := []slog.Attr{slog.String("action", j.action)}
	if j.endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", j.endpoint))
	}
	logger.Debug(j.ctx, "tg.sender", "send.start", attrs...)

	start := time.Now()
	attempts, err := d.attempt(j, attrs)
	attrs = append(attrs,
		slog.Int("attempts", attempts),
		slog.Duration("elapsed", logger.Took(start)),
	)
	if err == nil {
		event, level := "send.success", slog.LevelDebug
		if attempts > 1 {
			event, level = "send.retry.success", slog.LevelInfo
		}
		logger.Event(j.ctx, "tg.sender", level, event, attrs...)
		return
	}

	d.errs.Add(1)
	logger.Error(j.ctx, "tg.sender", "send.fail", append(attrs,
		slog.String("err", sanitizeErrorMessage(err)),
		slog.String("error_kind", netutil.Kind(err)),
		slog.Int("http_code", netutil.HTTPStatus(err)),
	)...)
}

// attempt runs the job until it succeeds, fails permanently, runs out of
// retries or exceeds MaxDuration. Flood waits from the API override the backoff.
func (d *Dispatcher) attempt(j job, attrs []slog.Attr) (int, error) {
	ctx, cancel := context.WithTimeout(j.ctx, d.opts.MaxDuration)
	defer cancel()

	limit := d.opts.MaxRetries + 1
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return n - 1, err
		}
		err := j.run()
		if err == nil {
			return n, nil
		}
		if n == limit || !netutil.ShouldRetry(err) {
			return n, err
		}

		delay := d.opts.RetryBackoff * time.Duration(n)
		if wait, ok := netutil.RetryAfter(err); ok && wait > delay {
			delay = wait
		}
		logger.Debug(j.ctx, "tg.sender", "send.retry.backoff", append(attrs,
			slog.Int("attempt", n),
			slog.Duration("backoff", delay),
			slog.String("error_kind", netutil.Kind(err)),
		)...)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return n, errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}
}

// sanitizeErrorMessage prevents accidental leakage of Telegram bot tokens in logs.
func sanitizeErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	return tokenRe.ReplaceAllString(err.Error(), "bot<redacted>")
}
