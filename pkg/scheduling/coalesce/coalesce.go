package coalesce

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/vnykmshr/lineagekit/pkg/common/validation"
)

// Operation is the unit of work run by a Scheduler. Several positional
// arguments are passed as a single struct value.
type Operation[T any] func(ctx context.Context, args T) error

// Scheduler runs an Operation serially, always with the most recently
// scheduled arguments. Calls that arrive while an invocation is in flight
// collapse into a single pending slot.
type Scheduler[T any] interface {
	// Schedule records args as the pending arguments and makes sure a run
	// loop will pick them up. It never blocks on the operation.
	Schedule(args T)

	// Running reports whether a run loop is currently active.
	Running() bool

	// Wait blocks until the current run loop, if any, has gone idle.
	Wait(ctx context.Context) error

	// Stats returns counters describing the scheduler's activity.
	Stats() Stats
}

// Stats holds scheduler counters.
type Stats struct {
	// Scheduled is the number of Schedule calls.
	Scheduled uint64

	// Executed is the number of operation invocations.
	Executed uint64

	// Coalesced is the number of scheduled calls superseded by a later
	// call before a run loop read them.
	Coalesced uint64

	// Failed is the number of invocations that returned an error or panicked.
	Failed uint64
}

// Config holds optional scheduler settings.
type Config struct {
	// Name identifies the scheduler in logs and metrics.
	Name string

	// Context is passed to every invocation. Defaults to context.Background().
	// Canceling it does not stop the run loop; the operation decides how to
	// react.
	Context context.Context

	// Logger receives failure and panic reports. Defaults to slog.Default().
	Logger *slog.Logger

	// ErrorHandler is called with the error of every failed invocation,
	// including recovered panics. It runs on the run loop goroutine.
	ErrorHandler func(args any, err error)

	// OnIdle is called each time the run loop goes idle. It runs with the
	// scheduler's lock held and must not call back into the scheduler.
	OnIdle func()
}

type coalescer[T any] struct {
	op           Operation[T]
	name         string
	ctx          context.Context
	logger       *slog.Logger
	errorHandler func(args any, err error)
	onIdle       func()

	mu      sync.Mutex
	pending T
	seq     uint64 // bumped by every Schedule
	taken   uint64 // seq of the last arguments read by the run loop
	running bool
	idle    chan struct{}
	stats   Stats
}

// New creates a scheduler for op with default configuration.
// It panics if op is nil.
func New[T any](op Operation[T]) Scheduler[T] {
	return NewWithConfig(op, Config{})
}

// NewWithConfig creates a scheduler for op. It panics if op is nil.
func NewWithConfig[T any](op Operation[T], cfg Config) Scheduler[T] {
	s, err := NewSafe(op, cfg)
	if err != nil {
		panic("invalid coalescing scheduler: " + err.Error())
	}
	return s
}

// NewSafe creates a scheduler for op, returning an error instead of
// panicking when op is nil.
func NewSafe[T any](op Operation[T], cfg Config) (Scheduler[T], error) {
	if op == nil {
		return nil, validation.ValidateNotNil("coalesce", "operation", nil)
	}
	return newCoalescer(op, cfg), nil
}

func newCoalescer[T any](op Operation[T], cfg Config) *coalescer[T] {
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	name := cfg.Name
	if name == "" {
		name = "default"
	}

	idle := make(chan struct{})
	close(idle)

	return &coalescer[T]{
		op:           op,
		name:         name,
		ctx:          ctx,
		logger:       logger.With("scheduler", name),
		errorHandler: cfg.ErrorHandler,
		onIdle:       cfg.OnIdle,
		idle:         idle,
	}
}

func (c *coalescer[T]) Schedule(args T) {
	c.mu.Lock()
	c.pending = args
	c.seq++
	c.stats.Scheduled++
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.idle = make(chan struct{})
	c.mu.Unlock()

	go c.run()
}

func (c *coalescer[T]) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *coalescer[T]) Wait(ctx context.Context) error {
	c.mu.Lock()
	idle := c.idle
	c.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *coalescer[T]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// run is the loop started by the first Schedule after idle. Only this
// goroutine reads the pending slot, so invocations never overlap.
func (c *coalescer[T]) run() {
	for {
		c.mu.Lock()
		if c.seq == c.taken {
			c.finishLocked()
			c.mu.Unlock()
			return
		}
		args, seq := c.pending, c.seq
		if skipped := seq - c.taken - 1; skipped > 0 {
			c.stats.Coalesced += skipped
			c.logger.Debug("coalesced scheduled calls", "skipped", skipped)
		}
		c.taken = seq
		c.mu.Unlock()

		err := c.invoke(args)

		c.mu.Lock()
		c.stats.Executed++
		if err != nil {
			c.stats.Failed++
		}
		if c.seq == seq {
			c.finishLocked()
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()
	}
}

func (c *coalescer[T]) finishLocked() {
	var zero T
	c.pending = zero
	c.running = false
	close(c.idle)
	if c.onIdle != nil {
		c.onIdle()
	}
}

// invoke runs the operation once. Errors and panics are reported and
// swallowed so the loop always reaches the newer-arguments check.
func (c *coalescer[T]) invoke(args T) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("operation panicked: %v", r)
			c.logger.Error("coalesced operation panicked",
				"panic", r,
				"stack", string(debug.Stack()))
		}
		if err != nil {
			c.report(args, err, time.Since(start))
		}
	}()

	return c.op(c.ctx, args)
}

func (c *coalescer[T]) report(args T, err error, elapsed time.Duration) {
	c.logger.Warn("coalesced operation failed", "error", err, "duration", elapsed)
	if c.errorHandler == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("error handler panicked", "panic", r)
		}
	}()
	c.errorHandler(args, err)
}
