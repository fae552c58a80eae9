package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"phasegate.dev/pkg/phasegate/internal/domain"
	m "phasegate.dev/pkg/phasegate/internal/model"
)

const agentLongDescription = `Record an operator message in the agent session kept in the output
directory. A message starting with "[AUDIT AGENT: <Role>]" activates that
role; roles advance only in the order Protocol Mapper, Attack Hypothesis
Generator, Code Path Explorer, Adversarial Reviewer.

Directive lines:
  invariant: <text>          assert an invariant (Protocol Mapper)
  dispute <id> <reason>      dispute an invariant (Adversarial Reviewer)

Pass "-" to read the message from stdin. Without a message the session is shown.`

// agentCmd represents the agent command.
var agentCmd = newAgentCmd()

func newAgentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "agent [message...]",
		Short: "Advance the role-based review session",
		Long:  agentLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := agentInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			_, err = workflow.Agent(cmd.Context(), domain.AgentArgs{
				Output: m.Path(viper.GetString(outputFlagName)),
				Input:  input,
			})

			return err
		},
	}
}

func init() {
	rootCmd.AddCommand(agentCmd)
}

func agentInput(stdin io.Reader, args []string) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}

		return string(data), nil
	}

	return strings.Join(args, " "), nil
}
