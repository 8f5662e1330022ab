// Package catalog fetches JSON catalogs and decodes them field by field so
// malformed entries are reported with their index and field name.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	lkerrors "github.com/vnykmshr/lineagekit/pkg/common/errors"
	"github.com/vnykmshr/lineagekit/pkg/metrics"
)

// MaxDocumentSize bounds catalog documents read over HTTP.
const MaxDocumentSize = 16 << 20

// ErrTooLarge is returned for HTTP documents over the fetcher's size limit.
var ErrTooLarge = errors.New("document too large")

// Fetcher reads catalog documents from http(s) URLs or local files.
type Fetcher struct {
	HTTP    *http.Client
	Metrics *metrics.Registry
	Logger  *slog.Logger

	// MaxSize overrides MaxDocumentSize when positive.
	MaxSize int64
}

// NewFetcher creates a Fetcher with the given request timeout.
func NewFetcher(timeout time.Duration, registry *metrics.Registry, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		HTTP:    &http.Client{Timeout: timeout},
		Metrics: registry,
		Logger:  logger,
	}
}

// IsURL reports whether location is fetched over HTTP.
func IsURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// Fetch returns the raw JSON document at location.
func (f *Fetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	return f.FetchAs(ctx, location, "application/json")
}

// FetchAs returns the raw document at location, asking HTTP servers for
// the accept media type.
func (f *Fetcher) FetchAs(ctx context.Context, location, accept string) ([]byte, error) {
	if !IsURL(location) {
		data, err := os.ReadFile(location)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, lkerrors.NewOperationError("catalog", "Fetch", lkerrors.ErrNotFound).WithContext(location)
		}
		if err != nil {
			return nil, lkerrors.NewOperationError("catalog", "Fetch", err).WithContext(location)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, lkerrors.NewOperationError("catalog", "Fetch", err).WithContext(location)
	}
	req.Header.Set("Accept", accept)

	client := f.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	start := time.Now()
	resp, err := client.Do(req)
	f.observe(resp, time.Since(start))
	if err != nil {
		return nil, lkerrors.NewOperationError("catalog", "Fetch", err).WithContext(location)
	}
	defer resp.Body.Close()

	if err := StatusError("catalog", "Fetch", resp); err != nil {
		return nil, err
	}

	limit := f.maxSize()
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, lkerrors.NewOperationError("catalog", "Fetch", err).WithContext(location)
	}
	if int64(len(data)) > limit {
		return nil, lkerrors.NewOperationError("catalog", "Fetch",
			fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)).WithContext(location)
	}
	f.logger().Debug("catalog fetched", "location", location, "bytes", len(data))
	return data, nil
}

func (f *Fetcher) maxSize() int64 {
	if f.MaxSize > 0 {
		return f.MaxSize
	}
	return MaxDocumentSize
}

func (f *Fetcher) logger() *slog.Logger {
	if f.Logger == nil {
		return slog.Default()
	}
	return f.Logger
}

func (f *Fetcher) observe(resp *http.Response, elapsed time.Duration) {
	if f.Metrics == nil {
		return
	}
	status := "error"
	if resp != nil {
		status = strconv.Itoa(resp.StatusCode)
	}
	f.Metrics.HTTPRequests.WithLabelValues("catalog", "document", status).Inc()
	f.Metrics.HTTPDuration.WithLabelValues("catalog", "document").Observe(elapsed.Seconds())
}

// StatusError converts a non-2xx response into an OperationError. 404
// wraps ErrNotFound.
func StatusError(module, operation string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	url := ""
	if resp.Request != nil && resp.Request.URL != nil {
		url = resp.Request.URL.String()
	}
	cause := fmt.Errorf("unexpected status %d", resp.StatusCode)
	if resp.StatusCode == http.StatusNotFound {
		cause = lkerrors.ErrNotFound
	}
	return lkerrors.NewOperationError(module, operation, cause).WithContext(url)
}
