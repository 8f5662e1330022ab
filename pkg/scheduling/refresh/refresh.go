package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	lkerrors "github.com/vnykmshr/lineagekit/pkg/common/errors"
	"github.com/vnykmshr/lineagekit/pkg/common/validation"
	"github.com/vnykmshr/lineagekit/pkg/metrics"
)

// Job is one refresh step. ctx is canceled when the refresher stops.
type Job func(ctx context.Context) error

// Config holds refresher settings.
type Config struct {
	// Location evaluates schedules. Defaults to time.Local.
	Location *time.Location

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Metrics, when set, records run counts and durations.
	Metrics *metrics.Registry
}

// Entry describes a registered job.
type Entry struct {
	Name      string
	Spec      string
	Next      time.Time
	Prev      time.Time
	Runs      uint64
	Failures  uint64
	LastError string
}

type job struct {
	name string
	spec string
	fn   Job
	id   cron.EntryID

	run sync.Mutex // held for the duration of a run

	mu        sync.Mutex
	runs      uint64
	failures  uint64
	lastError string
}

// Refresher schedules jobs with robfig/cron.
type Refresher struct {
	cron    *cron.Cron
	logger  *slog.Logger
	metrics *metrics.Registry

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	jobs    map[string]*job
	started bool
}

// Parser accepts an optional seconds field and descriptors.
var Parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ValidateSpec reports whether spec is a schedule the refresher accepts.
func ValidateSpec(spec string) error {
	if _, err := Parser.Parse(spec); err != nil {
		return lkerrors.NewValidationError("refresh", "spec", spec, err.Error()).
			WithHint(`use "*/15 * * * *", "0 */15 * * * *" or "@every 15m"`)
	}
	return nil
}

// New creates a stopped refresher with no jobs.
func New(cfg Config) *Refresher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "refresh")
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}

	cronLogger := cronLog{logger}
	ctx, cancel := context.WithCancel(context.Background())

	return &Refresher{
		cron: cron.New(
			cron.WithParser(Parser),
			cron.WithLocation(loc),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		logger:  logger,
		metrics: cfg.Metrics,
		ctx:     ctx,
		cancel:  cancel,
		jobs:    make(map[string]*job),
	}
}

// Add registers fn under name on spec. Jobs can be added before or after
// Start.
func (r *Refresher) Add(name, spec string, fn Job) error {
	if err := validation.ValidateNotEmpty("refresh", "name", name); err != nil {
		return err
	}
	if fn == nil {
		return validation.ValidateNotNil("refresh", "job", nil)
	}
	if err := ValidateSpec(spec); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[name]; exists {
		return lkerrors.NewValidationError("refresh", "name", name, "job already registered")
	}

	j := &job{name: name, spec: spec, fn: fn}
	id, err := r.cron.AddFunc(spec, func() { _ = r.execute(r.ctx, j) })
	if err != nil {
		return lkerrors.NewOperationError("refresh", "Add", err).WithContext(name)
	}
	j.id = id
	r.jobs[name] = j

	r.logger.Debug("job registered", "job", name, "spec", spec)
	return nil
}

// Remove unschedules name. It reports whether the job existed.
func (r *Refresher) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[name]
	if !ok {
		return false
	}
	r.cron.Remove(j.id)
	delete(r.jobs, name)
	return true
}

// Start begins firing scheduled jobs in the background.
func (r *Refresher) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return
	}
	r.started = true
	r.cron.Start()
	r.logger.Info("refresher started", "jobs", len(r.jobs))
}

// Stop stops firing jobs and waits for running ones until ctx is done. The
// context passed to jobs is canceled once Stop returns.
func (r *Refresher) Stop(ctx context.Context) error {
	defer r.cancel()

	r.mu.Lock()
	r.started = false
	r.mu.Unlock()

	done := r.cron.Stop()
	select {
	case <-done.Done():
		r.logger.Info("refresher stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("refresh: stop: %w", ctx.Err())
	}
}

// RunNow runs name immediately and returns its error. It waits for a
// running instance of the same job to finish first.
func (r *Refresher) RunNow(ctx context.Context, name string) error {
	r.mu.RLock()
	j, ok := r.jobs[name]
	r.mu.RUnlock()

	if !ok {
		return lkerrors.NewOperationError("refresh", "RunNow", lkerrors.ErrNotFound).WithContext(name)
	}
	return r.execute(ctx, j)
}

// WarmUp runs every job once, concurrently, and returns the first error.
func (r *Refresher) WarmUp(ctx context.Context) error {
	r.mu.RLock()
	jobs := make([]*job, 0, len(r.jobs))
	for _, j := range r.jobs {
		jobs = append(jobs, j)
	}
	r.mu.RUnlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, j := range jobs {
		j := j
		g.Go(func() error {
			return r.execute(gctx, j)
		})
	}
	return g.Wait()
}

// Entries returns the registered jobs sorted by name.
func (r *Refresher) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, 0, len(r.jobs))
	for _, j := range r.jobs {
		ce := r.cron.Entry(j.id)
		j.mu.Lock()
		entries = append(entries, Entry{
			Name:      j.name,
			Spec:      j.spec,
			Next:      ce.Next,
			Prev:      ce.Prev,
			Runs:      j.runs,
			Failures:  j.failures,
			LastError: j.lastError,
		})
		j.mu.Unlock()
	}
	sort.Slice(entries, func(a, b int) bool { return entries[a].Name < entries[b].Name })
	return entries
}

func (r *Refresher) execute(ctx context.Context, j *job) (err error) {
	j.run.Lock()
	defer j.run.Unlock()

	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("job panicked: %v", p)
		}
		r.record(j, err, time.Since(start))
	}()

	return j.fn(ctx)
}

func (r *Refresher) record(j *job, err error, elapsed time.Duration) {
	j.mu.Lock()
	j.runs++
	if err != nil {
		j.failures++
		j.lastError = err.Error()
	} else {
		j.lastError = ""
	}
	j.mu.Unlock()

	result := "ok"
	if err != nil {
		result = "error"
		r.logger.Warn("refresh job failed", "job", j.name, "error", err, "duration", elapsed)
	} else {
		r.logger.Debug("refresh job finished", "job", j.name, "duration", elapsed)
	}

	if r.metrics != nil {
		r.metrics.RefreshRuns.WithLabelValues(j.name, result).Inc()
		r.metrics.RefreshDuration.WithLabelValues(j.name).Observe(elapsed.Seconds())
	}
}

// cronLog adapts slog to cron.Logger.
type cronLog struct {
	logger *slog.Logger
}

func (l cronLog) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLog) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
