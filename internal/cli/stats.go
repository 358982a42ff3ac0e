package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/needscore/internal/dataset"
	"github.com/ppiankov/needscore/internal/report"
)

var statsSave string

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats <dataset.json>",
	Short: "Count response values in a dataset",
	Long: `Stats counts the raw values of every response field and every full
response payload in one dataset, without validating them. Use it to spot
labels outside the taxonomy or impact values off the scale before evaluating.

Example:
  needscore stats data/predictions.json`,
	Args: usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := dataset.Load(args[0])
		if err != nil {
			return err
		}

		dist := report.Distribute(d)
		report.WriteDistribution(cmd.OutOrStdout(), dist)

		if statsSave != "" {
			if err := dataset.WriteJSON(statsSave, dist); err != nil {
				return fmt.Errorf("save stats: %w", err)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringVar(&statsSave, "save", "", "write the counts as JSON to this path")
}
