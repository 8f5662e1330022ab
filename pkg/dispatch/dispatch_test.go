package dispatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vnykmshr/lineagekit/internal/testutil"
	lkerrors "github.com/vnykmshr/lineagekit/pkg/common/errors"
	"github.com/vnykmshr/lineagekit/pkg/metrics"
)

const selectApp Kind = "select-app"

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func closeDispatcher(t *testing.T, d *Dispatcher) {
	t.Helper()
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()
	testutil.AssertNoError(t, d.Close(ctx))
}

func TestNewCommand(t *testing.T) {
	a := NewCommand(selectApp, "Aperture")
	b := NewCommand(selectApp, "Aperture")

	testutil.AssertEqual(t, a.Kind, selectApp)
	testutil.AssertEqual(t, a.Target, "Aperture")
	if a.ID == uuid.Nil || a.ID == b.ID {
		t.Fatalf("commands need distinct IDs: %s %s", a.ID, b.ID)
	}
	if a.IssuedAt.IsZero() {
		t.Fatal("IssuedAt not set")
	}
}

func TestHandleValidation(t *testing.T) {
	d := New(Config{Logger: quietLogger})
	defer closeDispatcher(t, d)

	noop := func(context.Context, Command) error { return nil }

	testutil.AssertEqual(t, lkerrors.IsValidationError(d.Handle("", noop)), true)
	testutil.AssertEqual(t, lkerrors.IsValidationError(d.Handle(selectApp, nil)), true)
	testutil.AssertNoError(t, d.Handle(selectApp, noop))
	testutil.AssertEqual(t, lkerrors.IsValidationError(d.Handle(selectApp, noop)), true)
}

func TestDispatchUnknownKind(t *testing.T) {
	d := New(Config{Logger: quietLogger})
	defer closeDispatcher(t, d)

	err := d.Dispatch(NewCommand("refresh", ""))
	if !errors.Is(err, lkerrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDispatchCoalescesPerKind(t *testing.T) {
	d := New(Config{Logger: quietLogger})
	defer closeDispatcher(t, d)

	gate := testutil.NewGate()
	started := make(chan string, 8)
	seen := testutil.NewRecorder[string]()

	testutil.AssertNoError(t, d.Handle(selectApp, func(_ context.Context, cmd Command) error {
		seen.Record(cmd.Target)
		started <- cmd.Target
		if cmd.Target == "Aperture" {
			gate.Wait()
		}
		return nil
	}))

	testutil.AssertNoError(t, d.Dispatch(NewCommand(selectApp, "Aperture")))
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("handler did not start")
	}

	for _, app := range []string{"Etar", "Glimpse", "Jelly"} {
		testutil.AssertNoError(t, d.Dispatch(NewCommand(selectApp, app)))
	}
	gate.Open()

	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()
	testutil.AssertNoError(t, d.Wait(ctx))

	testutil.AssertSliceEqual(t, seen.Values(), []string{"Aperture", "Jelly"})

	stats, ok := d.Stats(selectApp)
	testutil.AssertEqual(t, ok, true)
	testutil.AssertEqual(t, stats.Scheduled, uint64(4))
	testutil.AssertEqual(t, stats.Executed, uint64(2))
	testutil.AssertEqual(t, stats.Coalesced, uint64(2))
}

func TestKindsDoNotBlockEachOther(t *testing.T) {
	d := New(Config{Logger: quietLogger})
	defer closeDispatcher(t, d)

	gate := testutil.NewGate()
	var refreshed int32

	testutil.AssertNoError(t, d.Handle(selectApp, func(context.Context, Command) error {
		gate.Wait()
		return nil
	}))
	testutil.AssertNoError(t, d.Handle("refresh", func(context.Context, Command) error {
		atomic.AddInt32(&refreshed, 1)
		return nil
	}))

	testutil.AssertNoError(t, d.Dispatch(NewCommand(selectApp, "Aperture")))
	testutil.AssertNoError(t, d.Dispatch(NewCommand("refresh", "catalog")))

	testutil.WaitForInt32(t, &refreshed, 1, time.Second)
	gate.Open()
}

func TestDispatchFillsMissingFields(t *testing.T) {
	d := New(Config{Logger: quietLogger})
	defer closeDispatcher(t, d)

	got := make(chan Command, 1)
	testutil.AssertNoError(t, d.Handle(selectApp, func(_ context.Context, cmd Command) error {
		got <- cmd
		return nil
	}))

	testutil.AssertNoError(t, d.Dispatch(Command{Kind: selectApp, Target: "Etar"}))
	cmd := <-got
	if cmd.ID == uuid.Nil || cmd.IssuedAt.IsZero() {
		t.Fatalf("command not completed: %+v", cmd)
	}
}

func TestErrorHandlerReceivesCommand(t *testing.T) {
	failures := make(chan Command, 1)
	d := New(Config{
		Logger: quietLogger,
		ErrorHandler: func(cmd Command, err error) {
			if err != nil {
				failures <- cmd
			}
		},
	})
	defer closeDispatcher(t, d)

	testutil.AssertNoError(t, d.Handle(selectApp, func(context.Context, Command) error {
		return errors.New("github unavailable")
	}))

	cmd := NewCommand(selectApp, "Recorder")
	testutil.AssertNoError(t, d.Dispatch(cmd))

	select {
	case failed := <-failures:
		testutil.AssertEqual(t, failed.ID, cmd.ID)
	case <-time.After(time.Second):
		t.Fatal("error handler not called")
	}
}

func TestCloseRejectsCommands(t *testing.T) {
	d := New(Config{Logger: quietLogger})
	testutil.AssertNoError(t, d.Handle(selectApp, func(context.Context, Command) error { return nil }))
	closeDispatcher(t, d)
	closeDispatcher(t, d)

	err := d.Dispatch(NewCommand(selectApp, "Aperture"))
	testutil.AssertEqual(t, errors.Is(err, lkerrors.ErrClosed), true)

	err = d.Handle("refresh", func(context.Context, Command) error { return nil })
	testutil.AssertEqual(t, errors.Is(err, lkerrors.ErrClosed), true)
}

func TestWaitHonorsContext(t *testing.T) {
	d := New(Config{Logger: quietLogger})
	gate := testutil.NewGate()
	testutil.AssertNoError(t, d.Handle(selectApp, func(context.Context, Command) error {
		gate.Wait()
		return nil
	}))
	testutil.AssertNoError(t, d.Dispatch(NewCommand(selectApp, "Aperture")))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	testutil.AssertEqual(t, errors.Is(d.Wait(ctx), context.DeadlineExceeded), true)

	gate.Open()
	closeDispatcher(t, d)
}

func TestKinds(t *testing.T) {
	d := New(Config{Logger: quietLogger})
	defer closeDispatcher(t, d)

	noop := func(context.Context, Command) error { return nil }
	testutil.AssertNoError(t, d.Handle("refresh", noop))
	testutil.AssertNoError(t, d.Handle(selectApp, noop))

	testutil.AssertSliceEqual(t, d.Kinds(), []Kind{"refresh", selectApp})

	_, ok := d.Stats("download")
	testutil.AssertEqual(t, ok, false)
}

func TestMetrics(t *testing.T) {
	reg := metrics.NewRegistry(prometheus.NewRegistry())
	d := New(Config{Logger: quietLogger, Metrics: reg})
	defer closeDispatcher(t, d)

	noop := func(context.Context, Command) error { return nil }
	testutil.AssertNoError(t, d.Handle(selectApp, noop))
	testutil.AssertNoError(t, d.Handle("refresh", noop))

	testutil.AssertNoError(t, d.Dispatch(NewCommand(selectApp, "Aperture")))
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()
	testutil.AssertNoError(t, d.Wait(ctx))
	testutil.AssertNoError(t, d.Dispatch(NewCommand(selectApp, "Etar")))
	testutil.AssertNoError(t, d.Dispatch(NewCommand("refresh", "catalog")))
	testutil.AssertNoError(t, d.Wait(ctx))

	testutil.AssertEqual(t, promtest.ToFloat64(reg.CommandsDispatched.WithLabelValues(string(selectApp))), 2.0)
	testutil.AssertEqual(t, promtest.ToFloat64(reg.CommandsDispatched.WithLabelValues("refresh")), 1.0)
	testutil.AssertEqual(t, promtest.ToFloat64(reg.CoalesceExecuted.WithLabelValues(string(selectApp))), 2.0)
	testutil.AssertEqual(t, promtest.ToFloat64(reg.CoalesceScheduled.WithLabelValues("refresh")), 1.0)
}
