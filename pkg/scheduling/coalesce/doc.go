/*
Package coalesce provides a scheduler that runs an operation serially with the
latest arguments, discarding calls that were superseded before they started.

A typical use is a user moving through a list: every selection schedules a
"render details" operation, but only the most recent selection matters.

	s := coalesce.New(func(ctx context.Context, app string) error {
		return renderBuilds(ctx, app)
	})

	s.Schedule("Aperture")
	s.Schedule("Glimpse") // replaces Aperture if it has not started yet

Semantics:

  - Schedule never blocks. It stores the arguments in a single-slot mailbox
    and starts a run loop if none is active.
  - The run loop reads the mailbox, invokes the operation, and then checks
    whether Schedule was called during the invocation. Each Schedule call
    bumps a sequence number, so equal-by-value arguments still count as
    newer. If nothing new arrived the loop exits.
  - At most one invocation is in flight per scheduler.
  - An in-flight invocation always runs to completion; a new Schedule never
    cancels it.

Errors and panics from the operation are reported to Config.ErrorHandler and
the logger, then the loop carries on. Schedule callers never see them.

Use Wait to block until the scheduler is idle, for example during shutdown or
in tests. NewWithMetrics records Prometheus counters for scheduled, executed,
coalesced and failed calls.
*/
package coalesce
