// Package config loads lineagekit configuration from TOML files and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	lkerrors "github.com/vnykmshr/lineagekit/pkg/common/errors"
	"github.com/vnykmshr/lineagekit/pkg/common/validation"
)

// FileName is the configuration file looked up on the search path.
const FileName = "lineagekit.toml"

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Duration is a time.Duration written as "30s" or "5m" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config is the complete lineagekit configuration.
type Config struct {
	Logging LoggingConfig `toml:"logging"`
	Apps    AppsConfig    `toml:"apps"`
	Devices DevicesConfig `toml:"devices"`
	Blog    BlogConfig    `toml:"blog"`
	Status  StatusConfig  `toml:"status"`
	Cache   CacheConfig   `toml:"cache"`
	Metrics MetricsConfig `toml:"metrics"`
	Refresh RefreshConfig `toml:"refresh"`
}

// LoggingConfig selects the log level and handler format.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// AppsConfig describes where app catalogs and GitHub builds come from.
type AppsConfig struct {
	// Catalog is a URL or file path of the apps JSON document.
	Catalog        string   `toml:"catalog"`
	Organization   string   `toml:"organization"`
	RepoBaseURL    string   `toml:"repo_base_url"`
	APIBaseURL     string   `toml:"api_base_url"`
	NightlyBaseURL string   `toml:"nightly_base_url"`
	IconBaseURL    string   `toml:"icon_base_url"`
	Workflow       string   `toml:"workflow"`
	ArtifactSuffix string   `toml:"artifact_suffix"`
	Token          string   `toml:"token"`
	Timeout        Duration `toml:"timeout"`
	Concurrency    int      `toml:"concurrency"`
	CacheTTL       Duration `toml:"cache_ttl"`

	// RequestsPerSecond paces GitHub API calls; 0 disables pacing.
	RequestsPerSecond float64 `toml:"requests_per_second"`
	RequestBurst      int     `toml:"request_burst"`
}

// DevicesConfig describes the devices catalog and its download mirrors.
type DevicesConfig struct {
	Catalog                  string `toml:"catalog"`
	ImagesBaseURL            string `toml:"images_base_url"`
	OfficialImagesBaseURL    string `toml:"official_images_base_url"`
	DownloadsBaseURL         string `toml:"downloads_base_url"`
	OfficialDownloadsBaseURL string `toml:"official_downloads_base_url"`
}

// BlogConfig locates the blog index and the post bodies.
type BlogConfig struct {
	// Pages is a URL or file path of the pages JSON document.
	Pages string `toml:"pages"`
	// ContentBase holds one <id>.html file per post.
	ContentBase string `toml:"content_base"`
}

// StatusConfig points at the system information API.
type StatusConfig struct {
	APIBaseURL string `toml:"api_base_url"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Backend       string `toml:"backend"`
	Prefix        string `toml:"prefix"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// MetricsConfig controls the Prometheus endpoint of the watch command.
type MetricsConfig struct {
	Enabled   bool   `toml:"enabled"`
	Listen    string `toml:"listen"`
	Namespace string `toml:"namespace"`
}

// RefreshConfig holds cron specs for the watch command.
type RefreshConfig struct {
	Catalog string `toml:"catalog"`
	Builds  string `toml:"builds"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "json",
		},
		Apps: AppsConfig{
			Catalog:        "assets/lineageapps/apps.json",
			Organization:   "LineageOS",
			RepoBaseURL:    "https://github.com",
			APIBaseURL:     "https://api.github.com/repos",
			NightlyBaseURL: "https://nightly.link",
			IconBaseURL:    "assets/lineageapps/icons",
			Workflow:       "build",
			ArtifactSuffix: ".apk",
			Timeout:        Duration{30 * time.Second},
			Concurrency:    4,
			CacheTTL:       Duration{5 * time.Minute},

			RequestsPerSecond: 5,
			RequestBurst:      10,
		},
		Devices: DevicesConfig{
			Catalog:                  "assets/downloads/devices.json",
			ImagesBaseURL:            "assets/downloads/images",
			OfficialImagesBaseURL:    "https://wiki.lineageos.org/images/devices",
			DownloadsBaseURL:         "https://lineage.sebaubuntu.dev",
			OfficialDownloadsBaseURL: "https://download.lineageos.org",
		},
		Blog: BlogConfig{
			Pages:       "assets/blog/pages.json",
			ContentBase: "assets/blog/pages",
		},
		Status: StatusConfig{
			APIBaseURL: "https://api.sebaubuntu.dev/system_info/v1",
		},
		Cache: CacheConfig{
			Backend:   CacheMemory,
			Prefix:    "lineagekit:",
			RedisAddr: "localhost:6379",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Listen:    ":9090",
			Namespace: "lineagekit",
		},
		Refresh: RefreshConfig{
			Catalog: "@every 1h",
			Builds:  "*/15 * * * *",
		},
	}
}

// SearchPaths returns the locations checked for FileName, highest priority
// first.
func SearchPaths() []string {
	paths := []string{filepath.Join("/etc", "lineagekit", FileName)}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "lineagekit", FileName))
	}
	return append(paths, filepath.Join(".", FileName))
}

// FindFile returns the first existing file on the search path.
func FindFile() (string, bool) {
	for _, p := range SearchPaths() {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}

// Load reads configuration from path, or from the search path when path is
// empty, applies environment overrides and validates the result. The
// returned string is the file that was read, empty when only defaults and
// the environment were used.
func Load(path string) (*Config, string, error) {
	cfg := Default()

	if path == "" {
		if found, ok := FindFile(); ok {
			path = found
		}
	}

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, "", fmt.Errorf("config file %s: %w", path, lkerrors.ErrNotFound)
			}
			return nil, "", fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := ApplyEnvOverrides(cfg); err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// Parse decodes a TOML document over the defaults without touching the
// environment.
func Parse(data string) (*Config, error) {
	cfg := Default()
	if _, err := toml.Decode(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Write encodes cfg as TOML into path, refusing to replace an existing file.
func Write(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("config file %s already exists", path)
		}
		return fmt.Errorf("create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// ApplyEnvOverrides copies LINEAGEKIT_* variables (and the conventional
// LOG_LEVEL, LOG_FORMAT and GITHUB_TOKEN) into cfg.
func ApplyEnvOverrides(cfg *Config) error {
	setString(&cfg.Logging.Level, "LOG_LEVEL", "LINEAGEKIT_LOG_LEVEL")
	setString(&cfg.Logging.Format, "LOG_FORMAT", "LINEAGEKIT_LOG_FORMAT")
	setString(&cfg.Apps.Catalog, "LINEAGEKIT_APPS_CATALOG")
	setString(&cfg.Apps.Token, "GITHUB_TOKEN", "LINEAGEKIT_GITHUB_TOKEN")
	setString(&cfg.Devices.Catalog, "LINEAGEKIT_DEVICES_CATALOG")
	setString(&cfg.Blog.Pages, "LINEAGEKIT_BLOG_PAGES")
	setString(&cfg.Status.APIBaseURL, "LINEAGEKIT_STATUS_API")
	setString(&cfg.Cache.Backend, "LINEAGEKIT_CACHE_BACKEND")
	setString(&cfg.Cache.RedisAddr, "LINEAGEKIT_REDIS_ADDR")
	setString(&cfg.Cache.RedisPassword, "LINEAGEKIT_REDIS_PASSWORD")
	setString(&cfg.Metrics.Listen, "LINEAGEKIT_METRICS_LISTEN")

	if v := os.Getenv("LINEAGEKIT_REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return lkerrors.NewValidationError("config", "LINEAGEKIT_REDIS_DB", v, "not an integer")
		}
		cfg.Cache.RedisDB = db
	}
	if v := os.Getenv("LINEAGEKIT_METRICS_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return lkerrors.NewValidationError("config", "LINEAGEKIT_METRICS_ENABLED", v, "not a boolean")
		}
		cfg.Metrics.Enabled = enabled
	}
	return nil
}

// setString assigns the last non-empty variable among keys.
func setString(dst *string, keys ...string) {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			*dst = v
		}
	}
}

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	switch c.Logging.Format {
	case "json", "text":
	default:
		return lkerrors.NewValidationError("config", "logging.format", c.Logging.Format, "unknown format").
			WithHint("use json or text")
	}

	checks := []error{
		validation.ValidateLocation("config", "apps.catalog", c.Apps.Catalog),
		validation.ValidateNotEmpty("config", "apps.organization", c.Apps.Organization),
		validation.ValidateURL("config", "apps.repo_base_url", c.Apps.RepoBaseURL),
		validation.ValidateURL("config", "apps.api_base_url", c.Apps.APIBaseURL),
		validation.ValidateURL("config", "apps.nightly_base_url", c.Apps.NightlyBaseURL),
		validation.ValidateNotEmpty("config", "apps.workflow", c.Apps.Workflow),
		validation.ValidateNotEmpty("config", "apps.artifact_suffix", c.Apps.ArtifactSuffix),
		validation.ValidatePositiveDuration("config", "apps.timeout", c.Apps.Timeout.Duration),
		validation.ValidatePositive("config", "apps.concurrency", c.Apps.Concurrency),
		validation.ValidateLocation("config", "devices.catalog", c.Devices.Catalog),
		validation.ValidateURL("config", "devices.official_images_base_url", c.Devices.OfficialImagesBaseURL),
		validation.ValidateURL("config", "devices.downloads_base_url", c.Devices.DownloadsBaseURL),
		validation.ValidateURL("config", "devices.official_downloads_base_url", c.Devices.OfficialDownloadsBaseURL),
		validation.ValidateLocation("config", "blog.pages", c.Blog.Pages),
		validation.ValidateLocation("config", "blog.content_base", c.Blog.ContentBase),
		validation.ValidateURL("config", "status.api_base_url", c.Status.APIBaseURL),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}

	switch c.Cache.Backend {
	case CacheNone, CacheMemory:
	case CacheRedis:
		if err := validation.ValidateNotEmpty("config", "cache.redis_addr", c.Cache.RedisAddr); err != nil {
			return err
		}
	default:
		return lkerrors.NewValidationError("config", "cache.backend", c.Cache.Backend, "unknown backend").
			WithHint("use none, memory or redis")
	}
	if c.Apps.RequestsPerSecond < 0 {
		return lkerrors.NewValidationError("config", "apps.requests_per_second", c.Apps.RequestsPerSecond, "must not be negative").
			WithHint("use 0 to disable request pacing")
	}
	if c.Apps.RequestsPerSecond > 0 {
		if err := validation.ValidatePositive("config", "apps.request_burst", c.Apps.RequestBurst); err != nil {
			return err
		}
	}
	if c.Cache.Backend != CacheNone && c.Apps.CacheTTL.Duration <= 0 {
		return lkerrors.NewValidationError("config", "apps.cache_ttl", c.Apps.CacheTTL.Duration, "must be positive").
			WithHint("set cache.backend = \"none\" to disable caching")
	}

	if c.Metrics.Enabled {
		if err := validation.ValidateNotEmpty("config", "metrics.listen", c.Metrics.Listen); err != nil {
			return err
		}
	}
	return nil
}
