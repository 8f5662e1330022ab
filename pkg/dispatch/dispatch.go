package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	lkerrors "github.com/vnykmshr/lineagekit/pkg/common/errors"
	"github.com/vnykmshr/lineagekit/pkg/common/validation"
	"github.com/vnykmshr/lineagekit/pkg/metrics"
	"github.com/vnykmshr/lineagekit/pkg/scheduling/coalesce"
)

// Kind names a family of commands handled by the same handler.
type Kind string

// Command is a request produced by the user interface.
type Command struct {
	ID       uuid.UUID
	Kind     Kind
	Target   string
	IssuedAt time.Time
}

// NewCommand creates a command with a fresh random ID.
func NewCommand(kind Kind, target string) Command {
	return Command{
		ID:       uuid.New(),
		Kind:     kind,
		Target:   target,
		IssuedAt: time.Now(),
	}
}

func (c Command) String() string {
	return fmt.Sprintf("%s(%s)#%s", c.Kind, c.Target, c.ID)
}

// Handler executes a command. Handlers of one kind never run concurrently.
type Handler func(ctx context.Context, cmd Command) error

// Config holds dispatcher settings.
type Config struct {
	// Context is passed to every handler invocation.
	Context context.Context

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Metrics, when set, records scheduler and dispatch counters.
	Metrics *metrics.Registry

	// ErrorHandler is called with every failed command.
	ErrorHandler func(cmd Command, err error)
}

// Dispatcher routes commands to per-kind coalescing schedulers.
type Dispatcher struct {
	cfg    Config
	logger *slog.Logger

	mu         sync.RWMutex
	schedulers map[Kind]coalesce.Scheduler[Command]
	closed     bool
}

// New creates a dispatcher with no handlers.
func New(cfg Config) *Dispatcher {
	if cfg.Context == nil {
		cfg.Context = context.Background()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		cfg:        cfg,
		logger:     logger.With("component", "dispatch"),
		schedulers: make(map[Kind]coalesce.Scheduler[Command]),
	}
}

// Handle registers h for kind. A kind can be registered once.
func (d *Dispatcher) Handle(kind Kind, h Handler) error {
	if err := validation.ValidateNotEmpty("dispatch", "kind", string(kind)); err != nil {
		return err
	}
	if h == nil {
		return validation.ValidateNotNil("dispatch", "handler", nil)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return lkerrors.NewOperationError("dispatch", "Handle", lkerrors.ErrClosed)
	}
	if _, exists := d.schedulers[kind]; exists {
		return lkerrors.NewValidationError("dispatch", "kind", kind, "handler already registered")
	}

	d.schedulers[kind] = d.newScheduler(kind, h)
	return nil
}

func (d *Dispatcher) newScheduler(kind Kind, h Handler) coalesce.Scheduler[Command] {
	op := func(ctx context.Context, cmd Command) error {
		d.logger.Debug("running command", "kind", cmd.Kind, "target", cmd.Target, "command_id", cmd.ID)
		return h(ctx, cmd)
	}
	cfg := coalesce.Config{
		Name:    string(kind),
		Context: d.cfg.Context,
		Logger:  d.logger.With("kind", string(kind)),
	}
	if d.cfg.ErrorHandler != nil {
		cfg.ErrorHandler = func(args any, err error) {
			if cmd, ok := args.(Command); ok {
				d.cfg.ErrorHandler(cmd, err)
			}
		}
	}

	if d.cfg.Metrics != nil {
		return coalesce.NewWithRegistry(op, cfg, d.cfg.Metrics)
	}
	return coalesce.NewWithConfig(op, cfg)
}

// Dispatch hands cmd to the scheduler of its kind and returns immediately.
// A command superseded by a later one of the same kind before it started is
// dropped.
func (d *Dispatcher) Dispatch(cmd Command) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return lkerrors.NewOperationError("dispatch", "Dispatch", lkerrors.ErrClosed)
	}
	s, ok := d.schedulers[cmd.Kind]
	if !ok {
		return lkerrors.NewOperationError("dispatch", "Dispatch", lkerrors.ErrNotFound).
			WithContext(fmt.Sprintf("no handler for kind %q", cmd.Kind))
	}
	if cmd.ID == uuid.Nil {
		cmd.ID = uuid.New()
	}
	if cmd.IssuedAt.IsZero() {
		cmd.IssuedAt = time.Now()
	}

	if d.cfg.Metrics != nil {
		d.cfg.Metrics.CommandsDispatched.WithLabelValues(string(cmd.Kind)).Inc()
	}
	s.Schedule(cmd)
	return nil
}

// Wait blocks until every scheduler is idle or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	d.mu.RLock()
	schedulers := make([]coalesce.Scheduler[Command], 0, len(d.schedulers))
	for _, s := range d.schedulers {
		schedulers = append(schedulers, s)
	}
	d.mu.RUnlock()

	for _, s := range schedulers {
		if err := s.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close stops accepting commands and waits for in-flight ones to finish.
// Calling Close again only waits.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	return d.Wait(ctx)
}

// Kinds returns the registered kinds in sorted order.
func (d *Dispatcher) Kinds() []Kind {
	d.mu.RLock()
	defer d.mu.RUnlock()

	kinds := make([]Kind, 0, len(d.schedulers))
	for k := range d.schedulers {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Stats returns the scheduler counters of kind.
func (d *Dispatcher) Stats(kind Kind) (coalesce.Stats, bool) {
	d.mu.RLock()
	s, ok := d.schedulers[kind]
	d.mu.RUnlock()

	if !ok {
		return coalesce.Stats{}, false
	}
	return s.Stats(), true
}
