package cmd

import (
	"github.com/spf13/cobra"

	"phasegate.dev/pkg/phasegate/internal/domain"
	m "phasegate.dev/pkg/phasegate/internal/model"
)

// diffCmd represents the diff command.
var diffCmd = newDiffCmd()

func newDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff <old-report> <new-report>",
		Short: "Compare two audit reports",
		Long: `Print a unified diff of two report.json files. Report IDs and
timestamps are ignored, so two passes over unchanged source print nothing.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := workflow.Diff(cmd.Context(), domain.DiffArgs{
				Old: m.Path(args[0]),
				New: m.Path(args[1]),
			})

			return err
		},
	}
}

func init() {
	rootCmd.AddCommand(diffCmd)
}
