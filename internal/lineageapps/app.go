package lineageapps

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/vnykmshr/lineagekit/internal/catalog"
)

// Endpoints holds the base URLs and names used to build links and API
// requests.
type Endpoints struct {
	Organization   string
	RepoBaseURL    string
	APIBaseURL     string
	NightlyBaseURL string
	IconBaseURL    string
	Workflow       string
	ArtifactSuffix string
}

// DefaultEndpoints targets the LineageOS organization on GitHub.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Organization:   "LineageOS",
		RepoBaseURL:    "https://github.com",
		APIBaseURL:     "https://api.github.com/repos",
		NightlyBaseURL: "https://nightly.link",
		IconBaseURL:    "assets/lineageapps/icons",
		Workflow:       "build",
		ArtifactSuffix: ".apk",
	}
}

// App is an entry of the apps catalog.
type App struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Repository  string `json:"repository"`
	Branch      string `json:"branch"`
}

// Build is a completed push build of an app.
type Build struct {
	App         App       `json:"app"`
	RunID       int64     `json:"run_id"`
	SuiteID     int64     `json:"suite_id"`
	Branch      string    `json:"branch"`
	HeadCommit  string    `json:"head_commit"`
	AuthorName  string    `json:"author_name"`
	AuthorEmail string    `json:"author_email"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
}

// ShortCommit returns the first seven characters of the head commit.
func (b Build) ShortCommit() string {
	if len(b.HeadCommit) <= 7 {
		return b.HeadCommit
	}
	return b.HeadCommit[:7]
}

// IconURL is the app's SVG icon.
func (e Endpoints) IconURL(app App) string {
	return fmt.Sprintf("%s/%s.svg", e.IconBaseURL, app.Name)
}

// RepoURL is the app's repository page.
func (e Endpoints) RepoURL(app App) string {
	return fmt.Sprintf("%s/%s/%s", e.RepoBaseURL, e.Organization, app.Repository)
}

// APIURL is the base of the repository's REST API.
func (e Endpoints) APIURL(app App) string {
	return fmt.Sprintf("%s/%s/%s", e.APIBaseURL, e.Organization, app.Repository)
}

// BranchURL is the tree of the build's branch.
func (e Endpoints) BranchURL(b Build) string {
	return fmt.Sprintf("%s/tree/%s", e.RepoURL(b.App), b.Branch)
}

// CommitURL is the build's head commit.
func (e Endpoints) CommitURL(b Build) string {
	return fmt.Sprintf("%s/commit/%s", e.RepoURL(b.App), b.HeadCommit)
}

// ArtifactsURL lists the artifacts of the build's run.
func (e Endpoints) ArtifactsURL(b Build) string {
	return fmt.Sprintf("%s/actions/runs/%d/artifacts", e.APIURL(b.App), b.RunID)
}

// ArtifactDownloadURL is the public nightly.link download of an artifact.
func (e Endpoints) ArtifactDownloadURL(b Build, artifactID int64) string {
	return fmt.Sprintf("%s/%s/%s/suites/%d/artifacts/%d",
		e.NightlyBaseURL, e.Organization, b.App.Repository, b.SuiteID, artifactID)
}

const appsDocument = "apps.json"

// DecodeApps parses the apps catalog and returns the apps sorted by name.
// name, repository and branch are required; description may be absent.
func DecodeApps(data []byte) ([]App, error) {
	objs, err := catalog.Array(appsDocument, data)
	if err != nil {
		return nil, err
	}

	apps := make([]App, 0, len(objs))
	for _, o := range objs {
		app, err := decodeApp(o)
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}

	sort.SliceStable(apps, func(i, j int) bool {
		return strings.ToLower(apps[i].Name) < strings.ToLower(apps[j].Name)
	})
	return apps, nil
}

func decodeApp(o catalog.Object) (App, error) {
	var (
		app App
		err error
	)
	if app.Name, err = o.String("name"); err != nil {
		return App{}, err
	}
	if app.Description, err = o.OptionalString("description"); err != nil {
		return App{}, err
	}
	if app.Repository, err = o.String("repository"); err != nil {
		return App{}, err
	}
	if app.Branch, err = o.String("branch"); err != nil {
		return App{}, err
	}
	return app, nil
}

// LoadApps fetches and decodes the apps catalog at location.
func LoadApps(ctx context.Context, f *catalog.Fetcher, location string) ([]App, error) {
	data, err := f.Fetch(ctx, location)
	if err != nil {
		return nil, err
	}
	return DecodeApps(data)
}

// FindApp returns the app whose name matches name case-insensitively.
func FindApp(apps []App, name string) (App, bool) {
	for _, a := range apps {
		if strings.EqualFold(a.Name, name) {
			return a, true
		}
	}
	return App{}, false
}
