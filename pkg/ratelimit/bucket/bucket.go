package bucket

import (
	"context"
	"math"
	"sync"
	"time"

	lkerrors "github.com/vnykmshr/lineagekit/pkg/common/errors"
)

// Limit is a refill rate in tokens per second.
type Limit float64

// Inf allows every event.
var Inf = Limit(math.Inf(1))

// Every converts a minimum interval between events to a Limit.
func Every(interval time.Duration) Limit {
	if interval <= 0 {
		return Inf
	}
	return Limit(time.Second) / Limit(interval)
}

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Limiter is a token bucket safe for concurrent use.
type Limiter struct {
	clock Clock

	mu     sync.Mutex
	limit  Limit
	burst  int
	tokens float64
	last   time.Time
}

// New creates a full bucket. It panics on a negative limit or a
// non-positive burst; use NewSafe to get an error instead.
func New(limit Limit, burst int) *Limiter {
	l, err := NewSafe(limit, burst)
	if err != nil {
		panic(err)
	}
	return l
}

// NewSafe creates a full bucket, validating its parameters.
func NewSafe(limit Limit, burst int) (*Limiter, error) {
	return NewWithClock(limit, burst, systemClock{})
}

// NewWithClock creates a full bucket reading time from clock.
func NewWithClock(limit Limit, burst int, clock Clock) (*Limiter, error) {
	if limit < 0 {
		return nil, lkerrors.NewValidationError("bucket", "limit", limit, "must not be negative").
			WithHint("use 0 to allow only the initial burst")
	}
	if burst <= 0 {
		return nil, lkerrors.NewValidationError("bucket", "burst", burst, "must be positive")
	}
	if clock == nil {
		return nil, lkerrors.NewValidationError("bucket", "clock", clock, "must not be nil")
	}
	return &Limiter{
		clock:  clock,
		limit:  limit,
		burst:  burst,
		tokens: float64(burst),
		last:   clock.Now(),
	}, nil
}

// Allow takes a token if one is available now.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill(l.clock.Now())
	if l.limit == Inf {
		return true
	}
	if l.tokens < 1 {
		return false
	}
	l.tokens--
	return true
}

// Wait blocks until a token is available or ctx is done. The token of an
// abandoned wait is returned to the bucket.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	delay, err := l.reserve()
	if err != nil {
		return err
	}
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		l.release()
		return ctx.Err()
	}
}

// reserve takes a token, possibly driving the bucket negative, and returns
// how long the caller must wait before using it.
func (l *Limiter) reserve() (time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill(l.clock.Now())
	switch {
	case l.limit == Inf:
		return 0, nil
	case l.tokens >= 1:
		l.tokens--
		return 0, nil
	case l.limit == 0:
		return 0, lkerrors.NewOperationError("bucket", "Wait", lkerrors.ErrTimeout).
			WithContext("zero limit and empty bucket")
	}

	missing := 1 - l.tokens
	l.tokens--
	return time.Duration(float64(time.Second) * missing / float64(l.limit)), nil
}

func (l *Limiter) release() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill(l.clock.Now())
	l.tokens = math.Min(l.tokens+1, float64(l.burst))
}

// refill adds the tokens earned since the last update. Callers hold mu.
func (l *Limiter) refill(now time.Time) {
	elapsed := now.Sub(l.last)
	if elapsed <= 0 {
		return
	}
	l.last = now

	switch l.limit {
	case Inf:
		l.tokens = float64(l.burst)
	case 0:
	default:
		l.tokens = math.Min(l.tokens+elapsed.Seconds()*float64(l.limit), float64(l.burst))
	}
}

// Limit returns the refill rate.
func (l *Limiter) Limit() Limit {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.limit
}

// Burst returns the bucket capacity.
func (l *Limiter) Burst() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.burst
}

// Tokens returns the tokens available now. It is negative while callers of
// Wait are queued.
func (l *Limiter) Tokens() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill(l.clock.Now())
	return l.tokens
}

// SetLimit changes the refill rate, keeping the tokens earned so far.
func (l *Limiter) SetLimit(limit Limit) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill(l.clock.Now())
	l.limit = limit
}
