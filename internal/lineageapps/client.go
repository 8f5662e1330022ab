package lineageapps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vnykmshr/lineagekit/internal/catalog"
	lkerrors "github.com/vnykmshr/lineagekit/pkg/common/errors"
	"github.com/vnykmshr/lineagekit/pkg/cache"
	"github.com/vnykmshr/lineagekit/pkg/metrics"
	"github.com/vnykmshr/lineagekit/pkg/ratelimit/bucket"
)

// Options configures a Client.
type Options struct {
	Endpoints Endpoints

	// HTTP defaults to a client with a 30 second timeout.
	HTTP *http.Client

	// Token is sent as a bearer token when set.
	Token string

	// Cache stores default-branch builds for CacheTTL. Nil disables caching.
	Cache    cache.Cache
	CacheTTL time.Duration

	// Concurrency bounds ResolveDownloads. Defaults to 4.
	Concurrency int

	// Limiter paces API requests. Nil sends them as fast as they come.
	Limiter *bucket.Limiter

	Metrics *metrics.Registry
	Logger  *slog.Logger
}

// Client queries the GitHub Actions API for app builds.
type Client struct {
	endpoints   Endpoints
	http        *http.Client
	token       string
	cache       cache.Cache
	cacheTTL    time.Duration
	concurrency int
	limiter     *bucket.Limiter
	metrics     *metrics.Registry
	logger      *slog.Logger
}

// NewClient creates a Client.
func NewClient(opts Options) *Client {
	if opts.Endpoints == (Endpoints{}) {
		opts.Endpoints = DefaultEndpoints()
	}
	if opts.HTTP == nil {
		opts.HTTP = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		endpoints:   opts.Endpoints,
		http:        opts.HTTP,
		token:       opts.Token,
		cache:       opts.Cache,
		cacheTTL:    opts.CacheTTL,
		concurrency: opts.Concurrency,
		limiter:     opts.Limiter,
		metrics:     opts.Metrics,
		logger:      opts.Logger.With("component", "lineageapps"),
	}
}

// WithLogger returns a copy of c that logs to logger. The copy shares the
// cache, limiter and HTTP client of c.
func (c *Client) WithLogger(logger *slog.Logger) *Client {
	clone := *c
	clone.logger = logger.With("component", "lineageapps")
	return &clone
}

// Endpoints returns the endpoints used by c.
func (c *Client) Endpoints() Endpoints {
	return c.endpoints
}

// Workflow is a GitHub Actions workflow.
type Workflow struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Path  string `json:"path"`
	State string `json:"state"`
}

// Run is the subset of a GitHub workflow run used to build a Build.
type Run struct {
	ID           int64     `json:"id"`
	CheckSuiteID int64     `json:"check_suite_id"`
	Event        string    `json:"event"`
	Status       string    `json:"status"`
	Conclusion   string    `json:"conclusion"`
	HeadBranch   string    `json:"head_branch"`
	HeadSHA      string    `json:"head_sha"`
	DisplayTitle string    `json:"display_title"`
	UpdatedAt    time.Time `json:"updated_at"`
	HeadCommit   *Commit   `json:"head_commit"`
}

// Commit is the head commit of a run.
type Commit struct {
	Author struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"author"`
}

// Artifact is a file uploaded by a workflow run.
type Artifact struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	SizeInBytes int64  `json:"size_in_bytes"`
	Expired     bool   `json:"expired"`
}

// Download pairs a build with its APK download URL, or the error that
// prevented resolving it.
type Download struct {
	Build Build
	URL   string
	Err   error
}

// BuildWorkflow returns the app's workflow named after Endpoints.Workflow.
func (c *Client) BuildWorkflow(ctx context.Context, app App) (Workflow, error) {
	var body struct {
		Workflows []Workflow `json:"workflows"`
	}
	url := c.endpoints.APIURL(app) + "/actions/workflows"
	if err := c.getJSON(ctx, "workflows", url, &body); err != nil {
		return Workflow{}, err
	}

	for _, w := range body.Workflows {
		if w.Name == c.endpoints.Workflow {
			return w, nil
		}
	}
	return Workflow{}, lkerrors.NewOperationError("lineageapps", "BuildWorkflow", lkerrors.ErrNotFound).
		WithContext(fmt.Sprintf("no %q workflow in %s", c.endpoints.Workflow, app.Repository))
}

// WorkflowRuns returns the runs of the app's build workflow.
func (c *Client) WorkflowRuns(ctx context.Context, app App) ([]Run, error) {
	w, err := c.BuildWorkflow(ctx, app)
	if err != nil {
		return nil, err
	}

	var body struct {
		WorkflowRuns []Run `json:"workflow_runs"`
	}
	url := fmt.Sprintf("%s/actions/workflows/%d/runs", c.endpoints.APIURL(app), w.ID)
	if err := c.getJSON(ctx, "runs", url, &body); err != nil {
		return nil, err
	}
	return body.WorkflowRuns, nil
}

// Builds returns the app's completed push builds, newest first as returned
// by GitHub.
func (c *Client) Builds(ctx context.Context, app App) ([]Build, error) {
	runs, err := c.WorkflowRuns(ctx, app)
	if err != nil {
		return nil, err
	}

	builds := make([]Build, 0, len(runs))
	for _, r := range runs {
		if r.Event != "push" || r.Status != "completed" {
			continue
		}
		builds = append(builds, BuildFromRun(app, r))
	}
	return builds, nil
}

// BuildFromRun maps a workflow run to a Build.
func BuildFromRun(app App, r Run) Build {
	b := Build{
		App:         app,
		RunID:       r.ID,
		SuiteID:     r.CheckSuiteID,
		Branch:      r.HeadBranch,
		HeadCommit:  r.HeadSHA,
		Description: r.DisplayTitle,
		Date:        r.UpdatedAt,
	}
	if r.HeadCommit != nil {
		b.AuthorName = r.HeadCommit.Author.Name
		b.AuthorEmail = r.HeadCommit.Author.Email
	}
	return b
}

// DefaultBranchBuilds returns the builds of the app's default branch. Results
// are cached when the client has a cache.
func (c *Client) DefaultBranchBuilds(ctx context.Context, app App) ([]Build, error) {
	key := "builds:" + app.Repository + ":" + app.Branch
	if c.cache != nil {
		var cached []Build
		err := cache.GetJSON(ctx, c.cache, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			c.logger.Warn("build cache read failed", "app", app.Name, "error", err)
		}
	}

	all, err := c.Builds(ctx, app)
	if err != nil {
		return nil, err
	}
	builds := make([]Build, 0, len(all))
	for _, b := range all {
		if b.Branch == app.Branch {
			builds = append(builds, b)
		}
	}

	if c.cache != nil {
		if err := cache.SetJSON(ctx, c.cache, key, builds, c.cacheTTL); err != nil {
			c.logger.Warn("build cache write failed", "app", app.Name, "error", err)
		}
	}
	return builds, nil
}

// APKArtifact returns the build's artifact whose name ends with
// Endpoints.ArtifactSuffix.
func (c *Client) APKArtifact(ctx context.Context, b Build) (Artifact, error) {
	var body struct {
		Artifacts []Artifact `json:"artifacts"`
	}
	if err := c.getJSON(ctx, "artifacts", c.endpoints.ArtifactsURL(b), &body); err != nil {
		return Artifact{}, err
	}

	for _, a := range body.Artifacts {
		if strings.HasSuffix(a.Name, c.endpoints.ArtifactSuffix) {
			return a, nil
		}
	}
	return Artifact{}, lkerrors.NewOperationError("lineageapps", "APKArtifact", lkerrors.ErrNotFound).
		WithContext(fmt.Sprintf("run %d of %s has no %s artifact", b.RunID, b.App.Repository, c.endpoints.ArtifactSuffix))
}

// DownloadURL resolves the nightly.link URL of the build's APK.
func (c *Client) DownloadURL(ctx context.Context, b Build) (string, error) {
	a, err := c.APKArtifact(ctx, b)
	if err != nil {
		return "", err
	}
	return c.endpoints.ArtifactDownloadURL(b, a.ID), nil
}

// ResolveDownloads resolves the download URL of every build with at most
// Options.Concurrency requests in flight. Per-build failures are reported in
// Download.Err; the returned error is set only when ctx ends first.
func (c *Client) ResolveDownloads(ctx context.Context, builds []Build) ([]Download, error) {
	out := make([]Download, len(builds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, b := range builds {
		i, b := i, b
		g.Go(func() error {
			url, err := c.DownloadURL(gctx, b)
			out[i] = Download{Build: b, URL: url, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, url string, dst any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return lkerrors.NewOperationError("lineageapps", endpoint, err).WithContext("rate limit")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return lkerrors.NewOperationError("lineageapps", endpoint, err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	c.observe(endpoint, resp, time.Since(start))
	if err != nil {
		return lkerrors.NewOperationError("lineageapps", endpoint, err).WithContext(url)
	}
	defer resp.Body.Close()

	if err := catalog.StatusError("lineageapps", endpoint, resp); err != nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return lkerrors.NewDecodeError(endpoint, -1, "", "invalid GitHub response").WithCause(err)
	}
	c.logger.Debug("github request", "endpoint", endpoint, "url", url, "duration", time.Since(start))
	return nil
}

func (c *Client) observe(endpoint string, resp *http.Response, elapsed time.Duration) {
	if c.metrics == nil {
		return
	}
	status := "error"
	if resp != nil {
		status = strconv.Itoa(resp.StatusCode)
	}
	c.metrics.HTTPRequests.WithLabelValues("github", endpoint, status).Inc()
	c.metrics.HTTPDuration.WithLabelValues("github", endpoint).Observe(elapsed.Seconds())
}
