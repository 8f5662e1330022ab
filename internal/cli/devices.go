package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vnykmshr/lineagekit/internal/devices"
	lkerrors "github.com/vnykmshr/lineagekit/pkg/common/errors"
)

// NewDevicesCmd creates the command listing devices or describing one.
func NewDevicesCmd(envFn func() (*Env, error), outputFn func() *Output) *cobra.Command {
	var official bool
	var byVersion bool
	var supports string

	cmd := &cobra.Command{
		Use:   "devices [CODENAME]",
		Short: "List devices, or show one device",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := envFn()
			if err != nil {
				return err
			}
			out := outputFn()

			all, err := devices.Load(cmd.Context(), env.Fetcher, env.Config.Devices.Catalog)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				d, ok := all.Find(args[0])
				if !ok {
					return lkerrors.NewOperationError("cli", "devices", lkerrors.ErrNotFound).
						WithContext(fmt.Sprintf("no device with codename %q", args[0]))
				}
				if out.JSONMode() {
					return out.JSON(d)
				}
				out.Text(strings.TrimRight(d.Summary(env.Mirrors), "\n"))
				return nil
			}

			if official {
				all = all.Official()
			}
			if supports != "" {
				filtered := make(devices.Catalog, 0, len(all))
				for _, d := range all {
					if d.Supports(supports) {
						filtered = append(filtered, d)
					}
				}
				all = filtered
			}
			if byVersion {
				all = all.SortByLatestVersion()
			}

			headers := []string{"CODENAME", "MANUFACTURER", "MODEL", "SOC", "LATEST", "OFFICIAL"}
			rows := make([][]string, len(all))
			for i, d := range all {
				latest, _ := d.LatestVersion()
				rows[i] = []string{
					d.Codename,
					d.Manufacturer,
					d.Model,
					strings.TrimSpace(d.SoC.Vendor + " " + d.SoC.Model),
					latest,
					yesNo(d.Official),
				}
			}
			return out.Print(headers, rows, all)
		},
	}

	cmd.Flags().BoolVar(&official, "official", false, "Only official devices")
	cmd.Flags().StringVar(&supports, "supports", "", "Only devices supporting this version, e.g. 22.1")
	cmd.Flags().BoolVar(&byVersion, "by-version", false, "Sort by latest supported version, newest first")

	return cmd
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
