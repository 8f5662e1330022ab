// Package status turns the system information API of a server into titled
// groups of key/value pairs.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vnykmshr/lineagekit/internal/catalog"
	lkerrors "github.com/vnykmshr/lineagekit/pkg/common/errors"
)

// Unknown replaces missing and blank values.
const Unknown = "Unknown"

// Field is one formatted line of a Tab.
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Tab is a titled group of fields.
type Tab struct {
	Title  string  `json:"title"`
	Fields []Field `json:"fields"`
}

// Get returns the value of key.
func (t Tab) Get(key string) (string, bool) {
	for _, f := range t.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Dashboard is every tab that could be loaded, in section order.
type Dashboard struct {
	Tabs   []Tab    `json:"tabs"`
	Failed []string `json:"failed,omitempty"`
}

// Tab returns the tab titled title.
func (d Dashboard) Tab(title string) (Tab, bool) {
	for _, t := range d.Tabs {
		if t.Title == title {
			return t, true
		}
	}
	return Tab{}, false
}

// SectionNames lists the API endpoints in dashboard order.
func SectionNames() []string {
	names := make([]string, len(sections))
	for i, s := range sections {
		names[i] = s.name
	}
	return names
}

// Load fetches the named sections, or all of them when names is empty,
// from baseURL. A section that fails to load is logged and listed in
// Failed; Load returns an error only when every section failed.
func Load(ctx context.Context, f *catalog.Fetcher, baseURL string, names ...string) (Dashboard, error) {
	selected, err := selectSections(names)
	if err != nil {
		return Dashboard{}, err
	}

	tabs := make([][]Tab, len(selected))
	errs := make([]error, len(selected))

	var g errgroup.Group
	for i, s := range selected {
		i, s := i, s
		g.Go(func() error {
			location := strings.TrimSuffix(baseURL, "/") + "/" + s.name
			data, err := f.Fetch(ctx, location)
			if err == nil {
				tabs[i], err = s.build(data)
			}
			errs[i] = err
			return nil
		})
	}
	_ = g.Wait()

	logger := f.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var d Dashboard
	for i, s := range selected {
		if errs[i] != nil {
			logger.Warn("status section failed", "section", s.name, "error", errs[i])
			d.Failed = append(d.Failed, s.name)
			continue
		}
		d.Tabs = append(d.Tabs, tabs[i]...)
	}
	if len(d.Failed) == len(selected) {
		return d, lkerrors.NewOperationError("status", "Load", errors.Join(errs...)).WithContext(baseURL)
	}
	return d, nil
}

func selectSections(names []string) ([]section, error) {
	if len(names) == 0 {
		return sections, nil
	}
	out := make([]section, 0, len(names))
	for _, name := range names {
		found := false
		for _, s := range sections {
			if s.name == name {
				out = append(out, s)
				found = true
				break
			}
		}
		if !found {
			return nil, lkerrors.NewValidationError("status", "section", name, "unknown section").
				WithHint("use one of " + strings.Join(SectionNames(), ", "))
		}
	}
	return out, nil
}

// FormatValue renders a decoded JSON value: blank and missing values are
// Unknown, booleans are Yes or No and arrays are comma separated, Empty
// when they have no elements.
func FormatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return Unknown
	case string:
		if strings.TrimSpace(v) == "" {
			return Unknown
		}
		return v
	case bool:
		if v {
			return "Yes"
		}
		return "No"
	case []any:
		if len(v) == 0 {
			return "Empty"
		}
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = scalar(e)
		}
		return strings.Join(parts, ", ")
	default:
		return scalar(v)
	}
}

// scalar renders v the way it reads in JSON, without the Unknown rules.
func scalar(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return formatNumber(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

var binaryUnits = []string{"KiB", "MiB", "GiB", "TiB", "PiB", "EiB", "ZiB", "YiB"}

// HumanFileSize renders a byte count with binary units and one decimal,
// for example "1.5 KiB". Counts under 1024 are printed as "N B".
func HumanFileSize(bytes float64) string {
	const thresh = 1024
	if math.Abs(bytes) < thresh {
		return formatNumber(bytes) + " B"
	}

	u := -1
	for {
		bytes /= thresh
		u++
		if math.Round(math.Abs(bytes)*10)/10 < thresh || u == len(binaryUnits)-1 {
			break
		}
	}
	return strconv.FormatFloat(bytes, 'f', 1, 64) + " " + binaryUnits[u]
}
