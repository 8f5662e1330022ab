package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vnykmshr/lineagekit/internal/status"
)

// NewStatusCmd creates the command showing the server status dashboard.
func NewStatusCmd(envFn func() (*Env, error), outputFn func() *Output) *cobra.Command {
	var sections []string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the server status dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := envFn()
			if err != nil {
				return err
			}
			out := outputFn()

			d, err := status.Load(cmd.Context(), env.Fetcher, env.Config.Status.APIBaseURL, sections...)
			if err != nil {
				return err
			}
			if out.JSONMode() {
				return out.JSON(d)
			}

			for i, tab := range d.Tabs {
				if i > 0 {
					out.Text("")
				}
				out.Text(tab.Title)
				for _, f := range tab.Fields {
					out.Text(fmt.Sprintf("  %s: %s", f.Key, f.Value))
				}
			}
			for _, name := range d.Failed {
				out.Error(fmt.Sprintf("section %s unavailable", name))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&sections, "section", nil,
		"Only these sections ("+strings.Join(status.SectionNames(), ", ")+")")

	return cmd
}
