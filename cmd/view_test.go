package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"phasegate.dev/pkg/phasegate/internal/domain"
	m "phasegate.dev/pkg/phasegate/internal/model"
)

func TestViewCmd_UsesRootOutputFlagByDefault(t *testing.T) {
	mockWorkflow := useMockWorkflow(t)

	mockWorkflow.On("View", mock.Anything, mock.MatchedBy(func(args domain.ViewArgs) bool {
		return args.Report == m.Path(filepath.Join(defaultReportsDir, "report.json")) &&
			args.Finding == "" && !args.Markdown
	})).Return(nil)

	_, err := executeCommand(newViewCmd(), "view")
	require.NoError(t, err)
}

func TestViewCmd_FindingAndMarkdown(t *testing.T) {
	mockWorkflow := useMockWorkflow(t)

	mockWorkflow.On("View", mock.Anything, mock.MatchedBy(func(args domain.ViewArgs) bool {
		return args.Report == m.Path(filepath.Join("reports-dir", "report.json")) &&
			args.Finding == "H-03" && args.Markdown
	})).Return(nil)

	_, err := executeCommand(newViewCmd(), "view", "H-03", "--markdown", "--output", "reports-dir")
	require.NoError(t, err)
}

func TestViewCmd_ExplicitReport(t *testing.T) {
	mockWorkflow := useMockWorkflow(t)

	mockWorkflow.On("View", mock.Anything, mock.MatchedBy(func(args domain.ViewArgs) bool {
		return args.Report == m.Path("old/report.json")
	})).Return(nil)

	_, err := executeCommand(newViewCmd(), "view", "--report", "old/report.json")
	require.NoError(t, err)
}

func TestViewCmd_TooManyArgsAreRejected(t *testing.T) {
	useMockWorkflow(t)

	_, err := executeCommand(newViewCmd(), "view", "H-01", "H-02")
	require.Error(t, err)
}

func TestReportPath(t *testing.T) {
	assert.Equal(t, m.Path("a/report.json"), reportPath("a/report.json"))
	assert.Equal(t, m.Path(filepath.Join(defaultReportsDir, "report.json")), reportPath(""))
}
