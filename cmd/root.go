// Package cmd provides the root command and CLI setup for phasegate.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"phasegate.dev/pkg/phasegate/internal/adapter"
	"phasegate.dev/pkg/phasegate/internal/controller"
	"phasegate.dev/pkg/phasegate/internal/domain"
	m "phasegate.dev/pkg/phasegate/internal/model"
	"phasegate.dev/pkg/phasegate/internal/profile"
)

var workflow domain.Workflow

// newWorkflow builds the workflow once flags and config are resolved.
var newWorkflow = buildWorkflow

// reportsOutputDirFlag is a root-level flag shared by commands that read/write reports.
var reportsOutputDirFlag string

// excludePatterns is a root-level flag that filters files for applicable commands.
var excludePatterns []string

var (
	ecosystemFlag   string
	profilesDirFlag string
	verboseFlag     bool
	plainFlag       bool
	runParallelFlag int
)

func init() {
	configureRootFlags(rootCmd)
}

const pathPatternsHelp = `Supports Go-style path patterns:
  - ./...                 recursively scan current directory
  - ./contracts/...       recursively scan contracts directory
  - ./x/bank ./x/staking  scan multiple directories (non-recursive)
  - ./src/Vault.sol       scan one file

Ecosystems are inferred from file extensions (.sol, .rs, .go, .cairo, .py)
unless --ecosystem forces one.`

const rootLongDescription = `Phasegate is a review assistant for smart-contract audits. It splits
contract source into code units, labels each unit with semantic phases
(snapshot, accounting, validation, mutation, commit, events, error), derives
at most 15 attack hypotheses per pass and runs every hypothesis through a
four-check validation gate before it can become a severity-tagged finding.

` + pathPatternsHelp

const classifyLongDescription = `Classify every code unit of the given paths (default: ./...) into
semantic phases. Units no lexicon pattern matches are shown as
UNCLASSIFIED and require manual review.

` + pathPatternsHelp

const auditLongDescription = `Run one audit pass over the given paths (default: ./...): classify,
generate hypotheses, gate them and score the survivors. The report is
written to the output directory together with one markdown document per
finding. Hypotheses beyond the limit of 15 are queued; run
"audit --resume" to gate the next window.

` + pathPatternsHelp

// rootCmd represents the base command when called without any subcommands.
var rootCmd = baseRootCmd()

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "phasegate",
		Short:             "Phase-based smart-contract review assistant",
		Long:              rootLongDescription,
		SilenceUsage:      true,
		PersistentPreRunE: prepareWorkflow,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

// newRootCmd returns a root command with its persistent flags, without
// subcommands.
func newRootCmd() *cobra.Command {
	cmd := baseRootCmd()
	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVarP(
			&reportsOutputDirFlag, outputFlagName, "o",
			viper.GetString(outputFlagName),
			"output directory for reports, the deferred queue and the agent session",
		)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(outputFlagName), outputFlagName)

	cmd.PersistentFlags().StringArrayVarP(&excludePatterns, excludeFlagName, "x", viper.GetStringSlice(excludeConfigKey), "exclude files matching regex (can be repeated)")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(excludeFlagName), excludeConfigKey)

	cmd.PersistentFlags().StringVarP(&ecosystemFlag, ecosystemFlagName, "e", viper.GetString(ecosystemFlagName), "force the ecosystem of every source (solidity, cosmwasm, cosmos, cairo, pyteal)")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(ecosystemFlagName), ecosystemFlagName)

	cmd.PersistentFlags().StringVar(&profilesDirFlag, profilesFlagName, viper.GetString(profilesDirKey), "directory of YAML profiles overriding the built-in ones")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(profilesFlagName), profilesDirKey)

	cmd.PersistentFlags().IntVarP(&runParallelFlag, runParallelFlagName, "p", viper.GetInt(runParallelConfigKey), "number of parallel workers for source ingestion (0 uses every CPU)")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(runParallelFlagName), runParallelConfigKey)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "log at debug level")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)

	cmd.PersistentFlags().BoolVar(&plainFlag, plainFlagName, false, "print plain tables even on a terminal")
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

func prepareWorkflow(cmd *cobra.Command, _ []string) error {
	configureLogger("", viper.GetBool(logVerboseKey))

	wf, err := newWorkflow(cmd)
	if err != nil {
		return err
	}

	workflow = wf

	return nil
}

func buildWorkflow(cmd *cobra.Command) (domain.Workflow, error) {
	profiles, err := profile.Default()
	if err != nil {
		return nil, fmt.Errorf("load built-in profiles: %w", err)
	}

	profiles, err = profiles.WithOverrides(viper.GetString(profilesDirKey))
	if err != nil {
		return nil, err
	}

	if err := profiles.Check(); err != nil {
		return nil, err
	}

	return domain.NewWorkflow(
		adapter.NewLocalSourceFSAdapter(),
		adapter.NewLocalUnitExtractor(adapter.NewLocalGoFileAdapter()),
		adapter.NewLocalReportStore(),
		adapter.NewLocalSessionStore(),
		controller.NewUI(cmd, !plainFlag),
		profiles,
	)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func parsePaths(args []string) []m.Path {
	paths := make([]m.Path, 0, len(args))
	for _, arg := range args {
		paths = append(paths, m.Path(arg))
	}

	return paths
}

func forcedEcosystem() (m.Ecosystem, error) {
	name := strings.TrimSpace(viper.GetString(ecosystemFlagName))
	if name == "" {
		return "", nil
	}

	return m.ParseEcosystem(name)
}

// sourceArgs collects the source selection shared by classify and audit.
func sourceArgs(args []string, merged string) (domain.ClassifyArgs, error) {
	eco, err := forcedEcosystem()
	if err != nil {
		return domain.ClassifyArgs{}, err
	}

	return domain.ClassifyArgs{
		Paths:     parsePaths(args),
		Exclude:   viper.GetStringSlice(excludeConfigKey),
		Merged:    m.Path(merged),
		Ecosystem: eco,
		Threads:   viper.GetInt(runParallelConfigKey),
	}, nil
}
