package cmd

import (
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"phasegate.dev/pkg/phasegate/internal/domain"
	m "phasegate.dev/pkg/phasegate/internal/model"
)

func TestDiffCmd_ComparesTwoReports(t *testing.T) {
	mockWorkflow := useMockWorkflow(t)

	mockWorkflow.On("Diff", mock.Anything, domain.DiffArgs{
		Old: m.Path("pass1/report.json"),
		New: m.Path("pass2/report.json"),
	}).Return("", nil)

	_, err := executeCommand(newDiffCmd(), "diff", "pass1/report.json", "pass2/report.json")
	require.NoError(t, err)
}

func TestDiffCmd_RequiresTwoArgs(t *testing.T) {
	useMockWorkflow(t)

	_, err := executeCommand(newDiffCmd(), "diff", "pass1/report.json")
	require.Error(t, err)
}

func TestProfilesCmd(t *testing.T) {
	mockWorkflow := useMockWorkflow(t)

	mockWorkflow.On("Profiles", mock.Anything).Return(nil)

	_, err := executeCommand(newProfilesCmd(), "profiles")
	require.NoError(t, err)
}
