package bucket

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vnykmshr/lineagekit/internal/testutil"
	lkerrors "github.com/vnykmshr/lineagekit/pkg/common/errors"
)

func newTestLimiter(t *testing.T, limit Limit, burst int) (*Limiter, *testutil.MockClock) {
	t.Helper()
	clock := testutil.NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	l, err := NewWithClock(limit, burst, clock)
	testutil.AssertNoError(t, err)
	return l, clock
}

func TestNewSafe(t *testing.T) {
	tests := []struct {
		name    string
		limit   Limit
		burst   int
		wantErr bool
	}{
		{"valid", 10, 5, false},
		{"zero limit", 0, 5, false},
		{"infinite limit", Inf, 1, false},
		{"negative limit", -1, 5, true},
		{"zero burst", 10, 0, true},
		{"negative burst", 10, -3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewSafe(tt.limit, tt.burst)
			if tt.wantErr {
				testutil.AssertEqual(t, lkerrors.IsValidationError(err), true)
				if l != nil {
					t.Error("expected nil limiter on error")
				}
				return
			}
			testutil.AssertNoError(t, err)
			testutil.AssertEqual(t, l.Limit(), tt.limit)
			testutil.AssertEqual(t, l.Burst(), tt.burst)
			testutil.AssertEqual(t, l.Tokens(), float64(tt.burst))
		})
	}
}

func TestNewPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	New(10, 0)
}

func TestEvery(t *testing.T) {
	testutil.AssertEqual(t, Every(100*time.Millisecond), Limit(10))
	testutil.AssertEqual(t, Every(0), Inf)
}

func TestAllowRefills(t *testing.T) {
	l, clock := newTestLimiter(t, 2, 3)

	for i := 0; i < 3; i++ {
		testutil.AssertEqual(t, l.Allow(), true)
	}
	testutil.AssertEqual(t, l.Allow(), false)

	clock.Advance(500 * time.Millisecond)
	testutil.AssertEqual(t, l.Allow(), true)
	testutil.AssertEqual(t, l.Allow(), false)

	clock.Advance(time.Hour)
	testutil.AssertEqual(t, l.Tokens(), float64(3))
}

func TestZeroAndInfiniteLimits(t *testing.T) {
	zero, clock := newTestLimiter(t, 0, 1)
	testutil.AssertEqual(t, zero.Allow(), true)
	clock.Advance(time.Hour)
	testutil.AssertEqual(t, zero.Allow(), false)

	err := zero.Wait(context.Background())
	testutil.AssertEqual(t, errors.Is(err, lkerrors.ErrTimeout), true)

	inf, _ := newTestLimiter(t, Inf, 1)
	for i := 0; i < 100; i++ {
		if !inf.Allow() {
			t.Fatal("infinite limit rejected an event")
		}
	}
}

func TestWaitDelays(t *testing.T) {
	l := New(Every(20*time.Millisecond), 1)
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	start := time.Now()
	for i := 0; i < 3; i++ {
		testutil.AssertNoError(t, l.Wait(ctx))
	}
	if elapsed := time.Since(start); elapsed < 35*time.Millisecond {
		t.Errorf("three waits at 50/s with burst 1 took %v", elapsed)
	}
}

func TestWaitCanceledReturnsToken(t *testing.T) {
	l, _ := newTestLimiter(t, 1, 1)
	testutil.AssertEqual(t, l.Allow(), true)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := l.Wait(ctx)
	testutil.AssertEqual(t, errors.Is(err, context.DeadlineExceeded), true)
	testutil.AssertEqual(t, l.Tokens(), float64(0))

	canceled, stop := context.WithCancel(context.Background())
	stop()
	testutil.AssertEqual(t, errors.Is(l.Wait(canceled), context.Canceled), true)
}

func TestSetLimit(t *testing.T) {
	l, clock := newTestLimiter(t, 1, 10)
	for l.Allow() {
	}
	l.SetLimit(4)
	clock.Advance(time.Second)
	testutil.AssertEqual(t, l.Tokens(), float64(4))
}
