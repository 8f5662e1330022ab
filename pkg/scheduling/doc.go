/*
Package scheduling groups the execution primitives used by lineagekit.

  - coalesce: run an operation serially with only the latest pending
    arguments, collapsing bursts of calls into at most one queued run
  - refresh: run named jobs on cron schedules without overlapping runs

Coalescing:

	s := coalesce.New(func(ctx context.Context, app string) error {
		return showBuilds(ctx, app)
	})
	s.Schedule("Aperture")
	s.Schedule("Etar") // replaces any pending, not yet started call

Refreshing:

	r := refresh.New(refresh.Config{})
	_ = r.Add("catalog", "@every 1h", refreshCatalog)
	r.Start()
	defer r.Stop(ctx)

Both components are safe for concurrent use and report through log/slog and,
when given a metrics registry, Prometheus.
*/
package scheduling
