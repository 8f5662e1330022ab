package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vnykmshr/lineagekit/pkg/version"
)

// comparison is the JSON shape of `compare`.
type comparison struct {
	A      string `json:"a"`
	B      string `json:"b"`
	Result int    `json:"result"`
	ValidA bool   `json:"valid_a"`
	ValidB bool   `json:"valid_b"`
}

// NewCompareCmd creates the command comparing two LineageOS versions.
func NewCompareCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "compare A B",
		Short: "Compare two LineageOS versions",
		Long: `Compare two LineageOS versions such as "lineage-21.0", "22.1" or "20".
Invalid versions sort before valid ones. Prints A <, = or > B.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()
			a, b := args[0], args[1]
			result := version.Compare(a, b)

			if out.JSONMode() {
				return out.JSON(comparison{
					A:      a,
					B:      b,
					Result: result,
					ValidA: version.Valid(a),
					ValidB: version.Valid(b),
				})
			}

			op := "="
			switch result {
			case -1:
				op = "<"
			case 1:
				op = ">"
			}
			out.Text(fmt.Sprintf("%s %s %s", a, op, b))
			return nil
		},
	}
}
