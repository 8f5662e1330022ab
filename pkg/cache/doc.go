/*
Package cache stores remote lookups (app catalogs, build lists) for a limited
time.

Two backends implement Cache: Memory keeps entries in the process and Redis
shares them between processes through any go-redis UniversalClient. Both
expire entries after the TTL passed to Set; a zero TTL keeps an entry until it
is deleted.

	c := cache.NewMemory()
	_ = cache.SetJSON(ctx, c, "builds:Aperture", builds, 5*time.Minute)

	var cached []lineageapps.Build
	if err := cache.GetJSON(ctx, c, "builds:Aperture", &cached); errors.Is(err, cache.ErrMiss) {
		// fetch again
	}

Wrap either backend with NewInstrumented to count hits and misses in
Prometheus.
*/
package cache
