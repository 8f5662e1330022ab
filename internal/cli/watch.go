package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vnykmshr/lineagekit/internal/lineageapps"
	"github.com/vnykmshr/lineagekit/internal/telemetry"
	"github.com/vnykmshr/lineagekit/pkg/scheduling/refresh"
)

// Job names registered by the watch command.
const (
	JobCatalog = "catalog"
	JobBuilds  = "builds"
)

// LatestBuild is the newest default-branch build of an app, as served on
// /builds.
type LatestBuild struct {
	App   string             `json:"app"`
	Build *lineageapps.Build `json:"build,omitempty"`
	Error string             `json:"error,omitempty"`
}

// watcher keeps the apps catalog and the latest build of every app fresh.
type watcher struct {
	env *Env

	mu     sync.RWMutex
	apps   []lineageapps.App
	latest map[string]LatestBuild
}

func newWatcher(env *Env) *watcher {
	return &watcher{env: env, latest: make(map[string]LatestBuild)}
}

func (w *watcher) refreshCatalog(ctx context.Context) error {
	apps, err := lineageapps.LoadApps(ctx, w.env.Fetcher, w.env.Config.Apps.Catalog)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.apps = apps
	w.mu.Unlock()
	w.env.Logger.Info("catalog refreshed", "apps", len(apps))
	return nil
}

func (w *watcher) catalog(ctx context.Context) ([]lineageapps.App, error) {
	w.mu.RLock()
	apps := w.apps
	w.mu.RUnlock()
	if apps != nil {
		return apps, nil
	}
	if err := w.refreshCatalog(ctx); err != nil {
		return nil, err
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.apps, nil
}

func (w *watcher) refreshBuilds(ctx context.Context) error {
	apps, err := w.catalog(ctx)
	if err != nil {
		return err
	}

	results := make([]LatestBuild, len(apps))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.env.Config.Apps.Concurrency)
	for i, app := range apps {
		i, app := i, app
		g.Go(func() error {
			res := LatestBuild{App: app.Name}
			builds, err := w.env.Apps.DefaultBranchBuilds(gctx, app)
			switch {
			case err != nil:
				res.Error = err.Error()
			case len(builds) > 0:
				b := builds[0]
				res.Build = &b
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}

	var failed []error
	latest := make(map[string]LatestBuild, len(results))
	for _, r := range results {
		latest[r.App] = r
		if r.Error != "" {
			failed = append(failed, fmt.Errorf("%s: %s", r.App, r.Error))
		}
	}

	w.mu.Lock()
	w.latest = latest
	w.mu.Unlock()

	w.env.Logger.Info("builds refreshed", "apps", len(results), "failed", len(failed))
	return errors.Join(failed...)
}

// Latest returns the last refreshed builds sorted by app name.
func (w *watcher) Latest() []LatestBuild {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]LatestBuild, 0, len(w.latest))
	for _, b := range w.latest {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].App < out[j].App })
	return out
}

// Handler serves /metrics, /builds and /healthz.
func (w *watcher) Handler() http.Handler {
	mux := http.NewServeMux()
	if w.env.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(w.env.Gatherer, promhttp.HandlerOpts{}))
	}
	mux.HandleFunc("/builds", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		out := NewOutput(true, rw, nil)
		if err := out.JSON(w.Latest()); err != nil {
			w.env.Logger.Warn("write /builds response", "error", err)
		}
	})
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok\n"))
	})
	return mux
}

func (w *watcher) refresher() (*refresh.Refresher, error) {
	cfg := w.env.Config.Refresh
	r := refresh.New(refresh.Config{
		Logger:  telemetry.WithComponent(w.env.Logger, "refresh"),
		Metrics: w.env.Metrics,
	})
	if err := r.Add(JobCatalog, cfg.Catalog, w.refreshCatalog); err != nil {
		return nil, err
	}
	if err := r.Add(JobBuilds, cfg.Builds, w.refreshBuilds); err != nil {
		return nil, err
	}
	return r, nil
}

func (w *watcher) print(out *Output) error {
	latest := w.Latest()
	headers := []string{"APP", "DATE", "COMMIT", "DESCRIPTION"}
	rows := make([][]string, len(latest))
	for i, l := range latest {
		switch {
		case l.Build != nil:
			rows[i] = []string{l.App, l.Build.Date.Local().Format(dateLayout), l.Build.ShortCommit(), l.Build.Description}
		case l.Error != "":
			rows[i] = []string{l.App, "-", "-", "error: " + l.Error}
		default:
			rows[i] = []string{l.App, "-", "-", "no builds"}
		}
	}
	return out.Print(headers, rows, latest)
}

// NewWatchCmd creates the command that keeps catalogs and builds fresh on a
// cron schedule and serves them with Prometheus metrics.
func NewWatchCmd(envFn func() (*Env, error), outputFn func() *Output) *cobra.Command {
	var listen string
	var once bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh catalogs and builds on a schedule and serve metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := envFn()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("listen") {
				listen = env.Config.Metrics.Listen
			}

			w := newWatcher(env)
			r, err := w.refresher()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := r.WarmUp(ctx); err != nil {
				env.Logger.Warn("initial refresh incomplete", "error", err)
			}
			if once {
				printErr := w.print(outputFn())
				if err := r.Stop(ctx); err != nil {
					return err
				}
				return printErr
			}

			var srv *http.Server
			serveErr := make(chan error, 1)
			if listen != "" {
				srv = &http.Server{
					Addr:              listen,
					Handler:           w.Handler(),
					ReadHeaderTimeout: 5 * time.Second,
				}
				go func() {
					env.Logger.Info("serving", "addr", listen)
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						serveErr <- err
					}
					close(serveErr)
				}()
			}

			r.Start()
			for _, e := range r.Entries() {
				env.Logger.Info("job scheduled", "job", e.Name, "spec", e.Spec, "next", e.Next)
			}

			var runErr error
			select {
			case <-ctx.Done():
				env.Logger.Info("shutting down")
			case err, ok := <-serveErr:
				if ok {
					runErr = fmt.Errorf("metrics server: %w", err)
				}
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if srv != nil {
				if err := srv.Shutdown(shutdownCtx); err != nil {
					env.Logger.Warn("metrics server shutdown", "error", err)
				}
			}
			if err := r.Stop(shutdownCtx); err != nil {
				return err
			}
			return runErr
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Address for /metrics and /builds (default from config)")
	cmd.Flags().BoolVar(&once, "once", false, "Refresh once, print the latest builds and exit")

	return cmd
}
