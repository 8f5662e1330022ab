// Package blog reads the blog index and the posts it lists.
package blog

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/vnykmshr/lineagekit/internal/catalog"
	lkerrors "github.com/vnykmshr/lineagekit/pkg/common/errors"
)

// DateLayout is how post dates are shown, e.g. "March 5, 2024".
const DateLayout = "January 2, 2006"

const pagesDocument = "pages.json"

// Page is an entry of the blog index. Timestamp is in milliseconds since
// the Unix epoch.
type Page struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Author      string `json:"author"`
	Timestamp   int64  `json:"timestamp"`
}

// Date is the publication time in UTC.
func (p Page) Date() time.Time {
	return time.UnixMilli(p.Timestamp).UTC()
}

// FormattedDate renders Date with DateLayout.
func (p Page) FormattedDate() string {
	return p.Date().Format(DateLayout)
}

// Post is a page with its HTML body.
type Post struct {
	Page
	Content string `json:"content"`
}

// Pages is the decoded index in document order.
type Pages []Page

// Find returns the page whose id matches. Ids are compared as numbers, so
// "07" finds page 7.
func (ps Pages) Find(id string) (Page, error) {
	n, err := strconv.Atoi(strings.TrimSpace(id))
	if err == nil {
		for _, p := range ps {
			if p.ID == n {
				return p, nil
			}
		}
	}
	return Page{}, lkerrors.NewOperationError("blog", "Find", lkerrors.ErrNotFound).
		WithContext(fmt.Sprintf("post %q does not exist", id))
}

// Newest returns a copy ordered by timestamp, newest first.
func (ps Pages) Newest() Pages {
	out := make(Pages, len(ps))
	copy(out, ps)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})
	return out
}

// Decode parses the blog index. id, title and timestamp are required.
func Decode(data []byte) (Pages, error) {
	objs, err := catalog.Array(pagesDocument, data)
	if err != nil {
		return nil, err
	}

	out := make(Pages, 0, len(objs))
	for _, o := range objs {
		var p Page
		if p.ID, err = o.Int("id"); err != nil {
			return nil, err
		}
		if p.Title, err = o.String("title"); err != nil {
			return nil, err
		}
		if p.Description, err = o.OptionalString("description"); err != nil {
			return nil, err
		}
		if p.Author, err = o.OptionalString("author"); err != nil {
			return nil, err
		}
		ts, err := o.Float("timestamp")
		if err != nil {
			return nil, err
		}
		p.Timestamp = int64(ts)
		out = append(out, p)
	}
	return out, nil
}

// Source locates the index and the post bodies. Both may be URLs or
// local paths.
type Source struct {
	Pages       string
	ContentBase string
}

// ContentLocation is where the body of p is stored.
func (s Source) ContentLocation(p Page) string {
	return fmt.Sprintf("%s/%d.html", strings.TrimSuffix(s.ContentBase, "/"), p.ID)
}

// Load fetches and decodes the blog index.
func Load(ctx context.Context, f *catalog.Fetcher, src Source) (Pages, error) {
	data, err := f.Fetch(ctx, src.Pages)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// LoadPost fetches the index, finds the post with id and fetches its body.
func LoadPost(ctx context.Context, f *catalog.Fetcher, src Source, id string) (Post, error) {
	pages, err := Load(ctx, f, src)
	if err != nil {
		return Post{}, err
	}
	p, err := pages.Find(id)
	if err != nil {
		return Post{}, err
	}

	body, err := f.FetchAs(ctx, src.ContentLocation(p), "text/html")
	if err != nil {
		return Post{}, err
	}
	return Post{Page: p, Content: string(body)}, nil
}
