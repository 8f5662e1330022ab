package lineageapps

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vnykmshr/lineagekit/internal/catalog"
	"github.com/vnykmshr/lineagekit/internal/testutil"
	lkerrors "github.com/vnykmshr/lineagekit/pkg/common/errors"
)

const appsJSON = `[
	{"name": "Glimpse", "description": "Gallery", "repository": "android_packages_apps_Glimpse", "branch": "main"},
	{"name": "Aperture", "description": "Camera", "repository": "android_packages_apps_Aperture", "branch": "main"},
	{"name": "etar", "repository": "android_packages_apps_Etar", "branch": "lineage-22.1"}
]`

func TestDecodeApps(t *testing.T) {
	apps, err := DecodeApps([]byte(appsJSON))
	testutil.AssertNoError(t, err)

	names := make([]string, len(apps))
	for i, a := range apps {
		names[i] = a.Name
	}
	testutil.AssertSliceEqual(t, names, []string{"Aperture", "etar", "Glimpse"})
	testutil.AssertEqual(t, apps[1].Description, "")
	testutil.AssertEqual(t, apps[1].Branch, "lineage-22.1")
}

func TestDecodeAppsErrors(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		index int
		field string
	}{
		{"not an array", `{"name": "Aperture"}`, -1, ""},
		{"missing repository", `[{"name": "Aperture", "branch": "main"}]`, 0, "repository"},
		{"missing branch", `[{"name": "A", "repository": "r", "branch": "main"}, {"name": "B", "repository": "r"}]`, 1, "branch"},
		{"wrong type", `[{"name": 7, "repository": "r", "branch": "main"}]`, 0, "name"},
		{"null name", `[{"name": null, "repository": "r", "branch": "main"}]`, 0, "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeApps([]byte(tt.doc))
			var derr *lkerrors.DecodeError
			if !errors.As(err, &derr) {
				t.Fatalf("expected DecodeError, got %v", err)
			}
			testutil.AssertEqual(t, derr.Document, "apps.json")
			testutil.AssertEqual(t, derr.Index, tt.index)
			testutil.AssertEqual(t, derr.Field, tt.field)
		})
	}
}

func TestDecodeAppsEmpty(t *testing.T) {
	apps, err := DecodeApps([]byte(`[]`))
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(apps), 0)
}

func TestLoadApps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apps.json")
	testutil.AssertNoError(t, os.WriteFile(path, []byte(appsJSON), 0o644))

	apps, err := LoadApps(context.Background(), catalog.NewFetcher(time.Second, nil, nil), path)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(apps), 3)

	app, ok := FindApp(apps, "ETAR")
	testutil.AssertEqual(t, ok, true)
	testutil.AssertEqual(t, app.Repository, "android_packages_apps_Etar")

	_, ok = FindApp(apps, "Jelly")
	testutil.AssertEqual(t, ok, false)
}

func TestEndpointURLs(t *testing.T) {
	e := DefaultEndpoints()
	app := App{Name: "Aperture", Repository: "android_packages_apps_Aperture", Branch: "main"}
	b := Build{App: app, RunID: 101, SuiteID: 202, Branch: "main", HeadCommit: "0123456789abcdef"}

	testutil.AssertEqual(t, e.IconURL(app), "assets/lineageapps/icons/Aperture.svg")
	testutil.AssertEqual(t, e.RepoURL(app), "https://github.com/LineageOS/android_packages_apps_Aperture")
	testutil.AssertEqual(t, e.APIURL(app), "https://api.github.com/repos/LineageOS/android_packages_apps_Aperture")
	testutil.AssertEqual(t, e.BranchURL(b), "https://github.com/LineageOS/android_packages_apps_Aperture/tree/main")
	testutil.AssertEqual(t, e.CommitURL(b), "https://github.com/LineageOS/android_packages_apps_Aperture/commit/0123456789abcdef")
	testutil.AssertEqual(t, e.ArtifactsURL(b), "https://api.github.com/repos/LineageOS/android_packages_apps_Aperture/actions/runs/101/artifacts")
	testutil.AssertEqual(t, e.ArtifactDownloadURL(b, 303), "https://nightly.link/LineageOS/android_packages_apps_Aperture/suites/202/artifacts/303")
	testutil.AssertEqual(t, b.ShortCommit(), "0123456")
	testutil.AssertEqual(t, Build{HeadCommit: "abc"}.ShortCommit(), "abc")
}
