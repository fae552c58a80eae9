package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"phasegate.dev/pkg/phasegate/internal/domain"
	m "phasegate.dev/pkg/phasegate/internal/model"
)

const defaultMergedFile = "merged.txt"

var mergeFileFlag string

// mergeCmd represents the merge command.
var mergeCmd = newMergeCmd()

func newMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge [paths...]",
		Short: "Concatenate sources into one merged corpus",
		Long: `Write every source file of the given paths into a single file, each
preceded by a "// File: <path>" marker ("# File:" for PyTeal). The result
can be read back with "classify --merged" or "audit --merged".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := workflow.Merge(cmd.Context(), domain.MergeArgs{
				Paths:   parsePaths(args),
				Exclude: viper.GetStringSlice(excludeConfigKey),
				Output:  m.Path(mergeFileFlag),
			})
			if err != nil {
				return err
			}

			cmd.Printf("merged %d files into %s\n", count, mergeFileFlag)

			return nil
		},
	}

	cmd.Flags().StringVarP(&mergeFileFlag, "file", "f", defaultMergedFile, "merged corpus file to write")

	return cmd
}

func init() {
	rootCmd.AddCommand(mergeCmd)
}
