package controller

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "phasegate.dev/pkg/phasegate/internal/model"
)

func testUI() (*SimpleUI, *bytes.Buffer) {
	var buf bytes.Buffer

	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	return NewSimpleUI(cmd), &buf
}

func sampleReport() m.Report {
	h := m.Hypothesis{
		ID:          "H-01",
		Kind:        m.KindValidationAfterMutation,
		UnitID:      "x/bank/keeper.go:Deposit",
		Ecosystem:   m.EcosystemCosmos,
		Phase:       m.PhaseMutation,
		Description: "validation after mutation in Deposit",
		Location:    "x/bank/keeper.go:7",
	}

	gate := m.GateResult{
		HypothesisID:     "H-01",
		Reachability:     m.Known(true, "entry point"),
		StateFreshness:   m.Known(true, "no stale read"),
		ExecutionClosure: m.Known(true, "closed"),
		EconomicRealism:  m.Known(true, "cheap"),
	}
	gate.Verdict = gate.Decide()

	return m.Report{
		ID:         "r-1",
		Pass:       1,
		Units:      3,
		Hypotheses: []m.Hypothesis{h},
		Deferred:   2,
		Gate:       []m.GateResult{gate},
		Findings: []m.Finding{{
			Hypothesis: h,
			Severity:   m.SeverityCriticalHigh,
			Impact:     m.Impact{Kind: m.ImpactDirectFundLoss, Access: m.AccessPermissionless, Conditions: m.ConditionsNone},
			Location:   h.Location,
			Gate:       gate,
		}},
		Escalations: []m.Escalation{{Disposition: m.DispositionUnknown, Subject: "x/bank/keeper.go:init", Reason: "unclassified"}},
	}
}

func TestSimpleUI_DisplayClassification(t *testing.T) {
	ui, buf := testUI()

	units := []m.CodeUnit{
		{ID: "a.go:Deposit", File: "a.go", Line: 3, Kind: m.KindPublic},
		{ID: "a.go:helper", File: "a.go", Line: 20, Kind: m.KindPrivate},
	}
	classes := map[string]m.Classification{
		"a.go:Deposit": m.NewClassification("a.go:Deposit", []m.PhaseHit{
			{Phase: m.PhaseValidation, Offset: 30},
			{Phase: m.PhaseMutation, Offset: 10},
		}),
	}

	require.NoError(t, ui.DisplayClassification(context.Background(), units, classes))

	out := buf.String()
	assert.Contains(t, out, "MUTATION > VALIDATION")
	assert.Contains(t, out, "UNCLASSIFIED")
	assert.Contains(t, out, "a.go:3")
	assert.Contains(t, out, "UNCLASSIFIED 1")
}

func TestSimpleUI_DisplayReport(t *testing.T) {
	ui, buf := testUI()

	require.NoError(t, ui.DisplayReport(context.Background(), sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "Report r-1 (pass 1)")
	assert.Contains(t, out, "Deferred: 2")
	assert.Contains(t, out, "audit --resume")
	assert.Contains(t, out, "CRITICAL/HIGH")
	assert.Contains(t, out, "direct-fund-loss/permissionless/none")
	assert.Contains(t, out, "Needs review")
	assert.Contains(t, out, "unclassified")
	assert.NotContains(t, out, "No findings passed")
}

func TestSimpleUI_DisplayReport_NoFindings(t *testing.T) {
	ui, buf := testUI()

	report := sampleReport()
	report.Findings = nil
	report.Escalations = nil
	report.Deferred = 0

	require.NoError(t, ui.DisplayReport(context.Background(), report))

	out := buf.String()
	assert.Contains(t, out, "No findings passed the validation gate")
	assert.NotContains(t, out, "Needs review")
	assert.NotContains(t, out, "--resume")
}

func TestSimpleUI_DisplayFinding(t *testing.T) {
	doc := []byte("# Title\n\n## Root Cause\n\nbody\n")

	t.Run("raw", func(t *testing.T) {
		ui, buf := testUI()
		require.NoError(t, ui.Start(context.Background()))
		require.NoError(t, ui.DisplayFinding(context.Background(), doc))
		assert.Equal(t, string(doc), buf.String())
	})

	t.Run("markdown", func(t *testing.T) {
		ui, buf := testUI()
		require.NoError(t, ui.Start(context.Background(), WithMarkdown()))
		require.NoError(t, ui.DisplayFinding(context.Background(), doc))
		assert.Contains(t, buf.String(), "Root Cause")
		assert.NotEqual(t, string(doc), buf.String())
	})
}

func TestSimpleUI_DisplayDiff(t *testing.T) {
	ui, buf := testUI()

	require.NoError(t, ui.DisplayDiff(context.Background(), ""))
	assert.Equal(t, "No differences\n", buf.String())

	buf.Reset()
	require.NoError(t, ui.DisplayDiff(context.Background(), "-a\n+b\n"))
	assert.Equal(t, "-a\n+b\n", buf.String())
}

func TestSimpleUI_DisplayProfiles(t *testing.T) {
	ui, buf := testUI()

	err := ui.DisplayProfiles(context.Background(), []ProfileSummary{{
		Ecosystem:  m.EcosystemCosmos,
		Name:       "Cosmos SDK",
		Extensions: []string{".go"},
		CostUnit:   "uatom",
		Threshold:  1000000,
		Patterns:   12,
		Exploits:   3,
	}})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Cosmos SDK")
	assert.Contains(t, out, "1000000 uatom")
}

func TestSimpleUI_DisplaySession(t *testing.T) {
	tests := []struct {
		name  string
		state m.SessionState
		want  []string
	}{
		{
			name:  "fresh",
			state: m.SessionState{ID: "s-1"},
			want:  []string{"Active role: none", "Next role: [AUDIT AGENT: Protocol Mapper]"},
		},
		{
			name: "explorer with dispute",
			state: m.SessionState{
				ID:      "s-2",
				Current: m.RoleCodePathExplorer,
				Invariants: []m.Invariant{
					{ID: "INV-1", Text: "total supply is conserved", Disputed: true, Dispute: "mint path skips it"},
				},
			},
			want: []string{"Active role: Code Path Explorer (gate)", "[AUDIT AGENT: Adversarial Reviewer]", "DISPUTED: mint path skips it"},
		},
		{
			name:  "complete",
			state: m.SessionState{ID: "s-3", Current: m.RoleAdversarialReviewer},
			want:  []string{"none, the review is complete"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ui, buf := testUI()
			require.NoError(t, ui.DisplaySession(context.Background(), tt.state))

			for _, want := range tt.want {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestSimpleUI_CancelledContext(t *testing.T) {
	ui, buf := testUI()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, ui.DisplayReport(ctx, sampleReport()), context.Canceled)
	assert.ErrorIs(t, ui.DisplayDiff(ctx, "x"), context.Canceled)
	assert.ErrorIs(t, ui.Start(ctx), context.Canceled)
	assert.Empty(t, buf.String())
}

func TestNewUI_NonTerminal(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetOut(&bytes.Buffer{})

	_, ok := NewUI(cmd, true).(*SimpleUI)
	assert.True(t, ok)
	assert.False(t, IsTTY(&bytes.Buffer{}))
	assert.Equal(t, 80, TerminalWidth(&bytes.Buffer{}))
}
