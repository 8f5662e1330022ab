package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/vnykmshr/lineagekit/internal/catalog"
	"github.com/vnykmshr/lineagekit/internal/config"
	"github.com/vnykmshr/lineagekit/internal/devices"
	"github.com/vnykmshr/lineagekit/internal/lineageapps"
	"github.com/vnykmshr/lineagekit/internal/telemetry"
	"github.com/vnykmshr/lineagekit/pkg/cache"
	"github.com/vnykmshr/lineagekit/pkg/metrics"
	"github.com/vnykmshr/lineagekit/pkg/ratelimit/bucket"
)

// Env is everything a command needs, built once from the configuration.
type Env struct {
	Config     *config.Config
	ConfigPath string // empty when running on defaults
	Logger     *slog.Logger

	// Gatherer and Metrics are nil when metrics are disabled.
	Gatherer *prometheus.Registry
	Metrics  *metrics.Registry

	Fetcher *catalog.Fetcher
	Cache   cache.Cache // nil for the "none" backend
	Apps    *lineageapps.Client
	Mirrors devices.Mirrors

	redis redis.UniversalClient
}

// NewEnv wires the components described by cfg. Logs go to logOut.
func NewEnv(cfg *config.Config, path string, logOut io.Writer) (*Env, error) {
	env := &Env{
		Config:     cfg,
		ConfigPath: path,
		Logger:     telemetry.NewLogger(cfg.Logging.Level, cfg.Logging.Format, logOut),
		Mirrors:    Mirrors(cfg.Devices),
	}

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		env.Gatherer = reg
		env.Metrics = metrics.NewRegistryWithNamespace(reg, cfg.Metrics.Namespace)
	}

	c, err := env.newCache()
	if err != nil {
		return nil, err
	}
	env.Cache = c

	env.Fetcher = catalog.NewFetcher(cfg.Apps.Timeout.Duration, env.Metrics, env.Logger)

	var limiter *bucket.Limiter
	if cfg.Apps.RequestsPerSecond > 0 {
		limiter, err = bucket.NewSafe(bucket.Limit(cfg.Apps.RequestsPerSecond), cfg.Apps.RequestBurst)
		if err != nil {
			return nil, err
		}
	}

	env.Apps = lineageapps.NewClient(lineageapps.Options{
		Endpoints:   Endpoints(cfg.Apps),
		HTTP:        env.Fetcher.HTTP,
		Token:       cfg.Apps.Token,
		Cache:       env.Cache,
		CacheTTL:    cfg.Apps.CacheTTL.Duration,
		Concurrency: cfg.Apps.Concurrency,
		Limiter:     limiter,
		Metrics:     env.Metrics,
		Logger:      env.Logger,
	})

	env.Logger.Debug("environment ready",
		"config", path,
		"cache", cfg.Cache.Backend,
		"metrics", cfg.Metrics.Enabled,
	)
	return env, nil
}

func (e *Env) newCache() (cache.Cache, error) {
	cfg := e.Config.Cache

	var c cache.Cache
	switch cfg.Backend {
	case config.CacheNone:
		return nil, nil
	case config.CacheMemory:
		c = cache.NewMemory()
	case config.CacheRedis:
		e.redis = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{cfg.RedisAddr},
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		r, err := cache.NewRedis(cache.RedisConfig{Client: e.redis, Prefix: cfg.Prefix})
		if err != nil {
			return nil, err
		}
		c = r
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}

	if e.Metrics != nil {
		c = cache.NewInstrumented(c, cfg.Backend, e.Metrics)
	}
	return c, nil
}

// Close releases connections held by the environment.
func (e *Env) Close() error {
	if e.redis != nil {
		return e.redis.Close()
	}
	return nil
}

// Endpoints converts the apps section into client endpoints.
func Endpoints(cfg config.AppsConfig) lineageapps.Endpoints {
	return lineageapps.Endpoints{
		Organization:   cfg.Organization,
		RepoBaseURL:    cfg.RepoBaseURL,
		APIBaseURL:     cfg.APIBaseURL,
		NightlyBaseURL: cfg.NightlyBaseURL,
		IconBaseURL:    cfg.IconBaseURL,
		Workflow:       cfg.Workflow,
		ArtifactSuffix: cfg.ArtifactSuffix,
	}
}

// Mirrors converts the devices section into download mirrors.
func Mirrors(cfg config.DevicesConfig) devices.Mirrors {
	return devices.Mirrors{
		ImagesBaseURL:            cfg.ImagesBaseURL,
		OfficialImagesBaseURL:    cfg.OfficialImagesBaseURL,
		DownloadsBaseURL:         cfg.DownloadsBaseURL,
		OfficialDownloadsBaseURL: cfg.OfficialDownloadsBaseURL,
	}
}
