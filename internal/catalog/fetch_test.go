package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vnykmshr/lineagekit/internal/testutil"
	lkerrors "github.com/vnykmshr/lineagekit/pkg/common/errors"
	"github.com/vnykmshr/lineagekit/pkg/metrics"
)

func TestIsURL(t *testing.T) {
	testutil.AssertEqual(t, IsURL("https://example.org/apps.json"), true)
	testutil.AssertEqual(t, IsURL("http://localhost/apps.json"), true)
	testutil.AssertEqual(t, IsURL("assets/lineageapps/apps.json"), false)
	testutil.AssertEqual(t, IsURL("/srv/https/apps.json"), false)
}

func TestFetchFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apps.json")
	testutil.AssertNoError(t, os.WriteFile(path, []byte(`[]`), 0o644))

	f := NewFetcher(time.Second, nil, nil)
	data, err := f.Fetch(context.Background(), path)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, string(data), "[]")

	_, err = f.Fetch(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	testutil.AssertEqual(t, errors.Is(err, lkerrors.ErrNotFound), true)
}

func TestFetchHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/devices.json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"codename":"lemonadep"}]`))
		case "/broken.json":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	reg := metrics.NewRegistry(prometheus.NewRegistry())
	f := NewFetcher(time.Second, reg, nil)
	ctx := context.Background()

	data, err := f.Fetch(ctx, srv.URL+"/devices.json")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, string(data), `[{"codename":"lemonadep"}]`)

	_, err = f.Fetch(ctx, srv.URL+"/missing.json")
	testutil.AssertEqual(t, lkerrors.IsNotFound(err), true)

	_, err = f.Fetch(ctx, srv.URL+"/broken.json")
	testutil.AssertError(t, err)
	testutil.AssertEqual(t, lkerrors.IsNotFound(err), false)

	testutil.AssertEqual(t, promtest.ToFloat64(reg.HTTPRequests.WithLabelValues("catalog", "document", "200")), 1.0)
	testutil.AssertEqual(t, promtest.ToFloat64(reg.HTTPRequests.WithLabelValues("catalog", "document", "404")), 1.0)
	testutil.AssertEqual(t, promtest.ToFloat64(reg.HTTPRequests.WithLabelValues("catalog", "document", "500")), 1.0)
}

func TestFetchCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewFetcher(time.Second, nil, nil).Fetch(ctx, srv.URL)
	testutil.AssertEqual(t, errors.Is(err, context.DeadlineExceeded), true)
}

func TestFetchTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"codename":"lemonadep"}]`))
	}))
	defer srv.Close()

	f := NewFetcher(time.Second, nil, nil)
	f.MaxSize = 8

	_, err := f.Fetch(context.Background(), srv.URL)
	testutil.AssertEqual(t, errors.Is(err, ErrTooLarge), true)

	f.MaxSize = int64(len(`[{"codename":"lemonadep"}]`))
	data, err := f.Fetch(context.Background(), srv.URL)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(data), int(f.MaxSize))
}

func TestFetchAsSendsAccept(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.Header.Get("Accept")))
	}))
	defer srv.Close()

	data, err := NewFetcher(time.Second, nil, nil).FetchAs(context.Background(), srv.URL, "text/html")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, string(data), "text/html")
}
