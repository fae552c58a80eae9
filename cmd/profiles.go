package cmd

import (
	"github.com/spf13/cobra"
)

// profilesCmd represents the profiles command.
var profilesCmd = newProfilesCmd()

func newProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the loaded ecosystem profiles",
		Long: `List the ecosystem profiles (built-in, plus any overrides from
--profiles) with their extensions, feasibility threshold and table sizes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return workflow.Profiles(cmd.Context())
		},
	}
}

func init() {
	rootCmd.AddCommand(profilesCmd)
}
