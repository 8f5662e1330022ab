// Package refresh runs named jobs on cron schedules.
//
// It keeps remote data (the apps catalog, default-branch builds) warm in the
// cache while the watch command is running. Schedules use the standard five
// field cron format with an optional leading seconds field, or descriptors such
// as "@hourly" and "@every 15m":
//
//	r := refresh.New(refresh.Config{Logger: logger, Metrics: registry})
//	_ = r.Add("catalog", "@every 1h", refreshCatalog)
//	_ = r.Add("builds", "*/15 * * * *", refreshBuilds)
//
//	_ = r.WarmUp(ctx) // run everything once before the first tick
//	r.Start()
//	defer r.Stop(ctx)
//
// A job never overlaps with itself: a tick that arrives while the previous run
// is still going is skipped, and RunNow waits for the running instance. Job
// errors are logged and counted; they never unschedule the job.
package refresh
