/*
Package lineagekit collects the building blocks behind the lineagekit command:
a coalescing task scheduler, a LineageOS version comparator and the clients
that read the LineageOS apps and devices catalogs, the blog index and the
server status API.

Scheduling (pkg/scheduling):
  - coalesce: latest-wins scheduler with at most one invocation in flight
  - refresh: cron-driven refresh jobs

Supporting packages (pkg):
  - version: LineageOS version normalization and ordering
  - dispatch: routes UI commands into per-kind coalescing schedulers
  - cache: memory and Redis caches with hit and miss metrics
  - ratelimit/bucket: token bucket pacing GitHub API calls
  - metrics: Prometheus collectors shared by every component

Example usage:

	import (
		"github.com/vnykmshr/lineagekit/pkg/scheduling/coalesce"
		"github.com/vnykmshr/lineagekit/pkg/version"
	)

	lookup := coalesce.New(func(ctx context.Context, app string) error {
		return showBuilds(ctx, app)
	})
	lookup.Schedule("Aperture")
	lookup.Schedule("Etar") // replaces Aperture if its lookup has not started

	version.Compare("lineage-22.1", "22.2") // -1

The lineagekit command lives in cmd/lineagekit.
*/
package lineagekit
