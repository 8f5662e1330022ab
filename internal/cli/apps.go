package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vnykmshr/lineagekit/internal/lineageapps"
	lkerrors "github.com/vnykmshr/lineagekit/pkg/common/errors"
)

const dateLayout = "2006-01-02 15:04"

// NewAppsCmd creates the command listing the apps catalog.
func NewAppsCmd(envFn func() (*Env, error), outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "apps",
		Short: "List the apps catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := envFn()
			if err != nil {
				return err
			}
			out := outputFn()

			apps, err := lineageapps.LoadApps(cmd.Context(), env.Fetcher, env.Config.Apps.Catalog)
			if err != nil {
				return err
			}

			endpoints := env.Apps.Endpoints()
			headers := []string{"NAME", "BRANCH", "REPOSITORY", "DESCRIPTION"}
			rows := make([][]string, len(apps))
			for i, a := range apps {
				rows[i] = []string{a.Name, a.Branch, endpoints.RepoURL(a), a.Description}
			}
			return out.Print(headers, rows, apps)
		},
	}
}

// buildRow is the JSON shape of one line of `builds`.
type buildRow struct {
	lineageapps.Build
	Download string `json:"download,omitempty"`
	Error    string `json:"error,omitempty"`
}

// NewBuildsCmd creates the command showing the builds of one app.
func NewBuildsCmd(envFn func() (*Env, error), outputFn func() *Output) *cobra.Command {
	var download bool
	var allBranches bool
	var limit int

	cmd := &cobra.Command{
		Use:   "builds APP",
		Short: "Show the latest builds of an app",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := envFn()
			if err != nil {
				return err
			}
			out := outputFn()
			ctx := cmd.Context()

			apps, err := lineageapps.LoadApps(ctx, env.Fetcher, env.Config.Apps.Catalog)
			if err != nil {
				return err
			}
			app, ok := lineageapps.FindApp(apps, args[0])
			if !ok {
				return lkerrors.NewOperationError("cli", "builds", lkerrors.ErrNotFound).
					WithContext(fmt.Sprintf("no app named %q", args[0]))
			}

			var builds []lineageapps.Build
			if allBranches {
				builds, err = env.Apps.Builds(ctx, app)
			} else {
				builds, err = env.Apps.DefaultBranchBuilds(ctx, app)
			}
			if err != nil {
				return err
			}
			if limit > 0 && len(builds) > limit {
				builds = builds[:limit]
			}

			rows := make([]buildRow, len(builds))
			for i, b := range builds {
				rows[i] = buildRow{Build: b}
			}
			if download {
				resolved, err := env.Apps.ResolveDownloads(ctx, builds)
				if err != nil {
					return err
				}
				for i, d := range resolved {
					rows[i].Download = d.URL
					if d.Err != nil {
						rows[i].Error = d.Err.Error()
					}
				}
			}

			if len(rows) == 0 && !out.JSONMode() {
				out.Success(fmt.Sprintf("No builds available for %s", app.Name))
				return nil
			}

			headers := []string{"RUN", "DATE", "BRANCH", "COMMIT", "AUTHOR", "DESCRIPTION"}
			if download {
				headers = append(headers, "DOWNLOAD")
			}
			table := make([][]string, len(rows))
			for i, r := range rows {
				table[i] = []string{
					strconv.FormatInt(r.RunID, 10),
					r.Date.Local().Format(dateLayout),
					r.Branch,
					r.ShortCommit(),
					r.AuthorName,
					r.Description,
				}
				if download {
					link := r.Download
					if r.Error != "" {
						link = "error: " + r.Error
					}
					table[i] = append(table[i], link)
				}
			}
			return out.Print(headers, table, rows)
		},
	}

	cmd.Flags().BoolVar(&download, "download", false, "Resolve APK download URLs")
	cmd.Flags().BoolVar(&allBranches, "all-branches", false, "Include builds of every branch")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of builds")

	return cmd
}
