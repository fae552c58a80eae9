package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"phasegate.dev/pkg/phasegate/internal/adapter"
	"phasegate.dev/pkg/phasegate/internal/domain"
	m "phasegate.dev/pkg/phasegate/internal/model"
)

var (
	viewReportFlag   string
	viewMarkdownFlag bool
)

// viewCmd represents the view command.
var viewCmd = newViewCmd()

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view [finding-id]",
		Short: "View a saved audit report or one of its findings",
		Long: `View the report written by the last audit pass. With a finding ID
(e.g. H-03) the finding document is shown instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			viewArgs := domain.ViewArgs{
				Report:   reportPath(viewReportFlag),
				Markdown: viewMarkdownFlag,
			}
			if len(args) == 1 {
				viewArgs.Finding = args[0]
			}

			return workflow.View(cmd.Context(), viewArgs)
		},
	}

	cmd.Flags().StringVar(&viewReportFlag, "report", "", "report file to read (default <output>/"+adapter.ReportFile+")")
	cmd.Flags().BoolVar(&viewMarkdownFlag, markdownFlagName, false, "render finding documents for the terminal")

	return cmd
}

func init() {
	rootCmd.AddCommand(viewCmd)
}

func reportPath(explicit string) m.Path {
	if explicit != "" {
		return m.Path(explicit)
	}

	return m.Path(filepath.Join(viper.GetString(outputFlagName), adapter.ReportFile))
}
