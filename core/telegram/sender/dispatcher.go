package sender

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/fishbot/core/logger"
	"github.com/m3rciful/fishbot/core/telegram/netutil"
)

var (
	// ErrQueueClosed is returned when enqueue is attempted after dispatcher stop.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull indicates the queue is saturated and the job was not accepted.
	ErrQueueFull = errors.New("telegram sender: queue full")
)

// Options controls the behaviour of the outbound dispatcher.
type Options struct {
	// QueueSize bounds each worker queue.
	QueueSize    int
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent retrying a single job.
	MaxDuration time.Duration
}

type job struct {
	ctx      context.Context
	action   string
	endpoint string
	run      func() error
}

// Dispatcher executes outbound Telegram calls asynchronously with retries.
// Jobs are sharded by chat ID so replies to one chat leave in enqueue order.
type Dispatcher struct {
	opts   Options
	queues []chan job
	stop   chan struct{}
	once   sync.Once
	mu     sync.RWMutex
	wg     sync.WaitGroup
	errs   atomic.Uint64
	sent   atomic.Uint64
}

// NewDispatcher starts a dispatcher with sane defaults if options are zeroed.
func NewDispatcher(opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 2 * time.Second
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = 12 * time.Second
	}

	d := &Dispatcher{
		opts:   opts,
		queues: make([]chan job, opts.Workers),
		stop:   make(chan struct{}),
	}

	d.wg.Add(opts.Workers)
	for i := range d.queues {
		d.queues[i] = make(chan job, opts.QueueSize)
		go d.worker(d.queues[i])
	}

	return d
}

// Enqueue schedules the provided function for asynchronous execution.
// The run closure must be idempotent if retries are desired.
func (d *Dispatcher) Enqueue(ctx context.Context, action, endpoint string, run func() error) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	select {
	case <-d.stop:
		return ErrQueueClosed
	default:
	}

	j := job{
		ctx:      ctx,
		action:   action,
		endpoint: endpoint,
		run:      run,
	}

	select {
	case d.shard(ctx) <- j:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *Dispatcher) shard(ctx context.Context) chan job {
	key := logger.ChatIDFrom(ctx)
	if key == 0 {
		key = logger.UserIDFrom(ctx)
	}
	if key < 0 {
		key = -key
	}
	return d.queues[int(key%int64(len(d.queues)))]
}

// ErrorCount returns the number of failed jobs.
func (d *Dispatcher) ErrorCount() uint64 {
	return d.errs.Load()
}

// SentCount returns the number of jobs that completed successfully.
func (d *Dispatcher) SentCount() uint64 {
	return d.sent.Load()
}

// Close stops workers and waits for them to finish processing queued jobs.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		d.mu.Lock()
		close(d.stop)
		for _, q := range d.queues {
			close(q)
		}
		d.mu.Unlock()
		d.wg.Wait()
	})
}

func (d *Dispatcher) worker(queue <-chan job) {
	defer d.wg.Done()
	for j := range queue {
		d.handleJob(j)
	}
}

func (d *Dispatcher) handleJob(j job) {
	ctx := j.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	logger.Debug(ctx, "tg.sender", "send.start", sendLogAttrs(ctx, j)...)

	attempt, err := d.execute(ctx, j)
	elapsed := slog.Int64("elapsed_ms", logger.RoundMS(time.Since(start)).Milliseconds())
	if err != nil {
		d.errs.Add(1)
		logger.Error(ctx, "tg.sender", "send.fail", append(sendLogAttrs(ctx, j),
			slog.String("error", sanitizeErrorMessage(err)),
			slog.String("error_kind", classifyError(err)),
			slog.Int("attempts", attempt),
			elapsed,
		)...)
		return
	}
	d.sent.Add(1)
	if attempt > 1 {
		logger.Info(ctx, "tg.sender", "send.retry.success", append(sendLogAttrs(ctx, j), slog.Int("attempt", attempt), elapsed)...)
		return
	}
	logger.Debug(ctx, "tg.sender", "send.success", append(sendLogAttrs(ctx, j), elapsed)...)
}

// execute runs j until it succeeds, fails permanently, runs out of attempts
// or exceeds MaxDuration. It returns the number of attempts made.
func (d *Dispatcher) execute(ctx context.Context, j job) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, d.opts.MaxDuration)
	defer cancel()

	limit := d.opts.MaxRetries + 1
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempt - 1, err
		}
		err := j.run()
		if err == nil {
			return attempt, nil
		}
		if attempt >= limit || !netutil.ShouldRetry(err) {
			return attempt, err
		}

		delay := d.opts.RetryBackoff * time.Duration(attempt)
		if wait := netutil.RetryAfter(err); wait > delay {
			delay = wait
		}
		logger.Debug(ctx, "tg.sender", "send.retry.backoff", append(sendLogAttrs(ctx, j),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
		)...)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt, ctx.Err()
		case <-timer.C:
		}
	}
}

func sendLogAttrs(ctx context.Context, j job) []slog.Attr {
	attrs := []slog.Attr{slog.String("action", j.action)}
	if j.endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", j.endpoint))
	}
	// rid and update ids come from ctx via the handler.
	return attrs
}
