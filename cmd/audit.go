package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"phasegate.dev/pkg/phasegate/internal/domain"
	m "phasegate.dev/pkg/phasegate/internal/model"
)

var (
	auditMergedFlag    string
	auditThresholdFlag float64
	auditResumeFlag    bool
)

// auditCmd represents the audit command.
var auditCmd = newAuditCmd()

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit [paths...]",
		Short: "Run one gated audit pass",
		Long:  auditLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			classifyArgs, err := sourceArgs(args, auditMergedFlag)
			if err != nil {
				return err
			}

			_, err = workflow.Audit(cmd.Context(), domain.AuditArgs{
				ClassifyArgs: classifyArgs,
				Output:       m.Path(viper.GetString(outputFlagName)),
				Threshold:    viper.GetFloat64(thresholdConfigKey),
				Resume:       auditResumeFlag,
			})

			return err
		},
	}

	configureAuditFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(auditCmd)
}

func configureAuditFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&auditMergedFlag, mergedFlagName, "", "read sources from a merged corpus split on \"// File:\" markers")
	cmd.Flags().Float64Var(&auditThresholdFlag, thresholdFlagName, viper.GetFloat64(thresholdConfigKey), "feasibility threshold for attack cost (0 uses the profile default)")
	bindFlagToConfig(cmd.Flags().Lookup(thresholdFlagName), thresholdConfigKey)
	cmd.Flags().BoolVar(&auditResumeFlag, resumeFlagName, false, "gate the next window of deferred hypotheses instead of starting a new pass")
}
