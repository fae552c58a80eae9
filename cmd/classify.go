package cmd

import (
	"github.com/spf13/cobra"
)

// mergedFlag points classify and audit at a merged corpus file.
var mergedFlag string

// classifyCmd represents the classify command.
var classifyCmd = newClassifyCmd()

func newClassifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify [paths...]",
		Short: "Label code units with semantic phases",
		Long:  classifyLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			classifyArgs, err := sourceArgs(args, mergedFlag)
			if err != nil {
				return err
			}

			return workflow.Classify(cmd.Context(), classifyArgs)
		},
	}

	cmd.Flags().StringVar(&mergedFlag, mergedFlagName, "", "read sources from a merged corpus split on \"// File:\" markers")

	return cmd
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}
