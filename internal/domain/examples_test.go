package domain

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	m "phasegate.dev/pkg/phasegate/internal/model"
)

const examplesPattern = "../../examples/..."

func hasHypothesis(hs []m.Hypothesis, file, unit string, kind m.HypothesisKind) bool {
	for _, h := range hs {
		if h.Kind == kind && strings.Contains(h.UnitID, file) && strings.HasSuffix(h.UnitID, unit) {
			return true
		}
	}

	return false
}

func TestExamples_Hypotheses(t *testing.T) {
	defer goleak.VerifyNone(t)

	wf, _ := newTestWorkflow(t)
	w := wf.(*workflow)

	corpus, escalations, err := w.ingest(context.Background(), ClassifyArgs{Paths: []m.Path{examplesPattern}})
	require.NoError(t, err)
	assert.Empty(t, escalations)
	assert.ElementsMatch(t, m.Ecosystems(), corpus.Ecosystems())

	batch := w.generator.Generate(corpus.Units(), corpus.Classifications())
	require.Len(t, batch.Hypotheses, m.MaxHypotheses)

	all := append(append([]m.Hypothesis{}, batch.Hypotheses...), batch.Deferred...)

	tests := []struct {
		file string
		unit string
		kind m.HypothesisKind
	}{
		{"Vault.sol", "::withdraw", m.KindSnapshotBeforeExternalCall},
		{"msg_server.go", "Withdraw", m.KindValidationAfterMutation},
		{"pool.cairo", "::remove_liquidity", m.KindValidationAfterMutation},
		{"contract.rs", "::refund", m.KindErrorHandling},
		{"escrow.py", "::approval_program", m.KindSnapshotBeforeExternalCall},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			assert.True(t, hasHypothesis(all, tt.file, tt.unit, tt.kind), "%s %s %s", tt.file, tt.unit, tt.kind)
		})
	}
}

func TestExamples_AuditPass(t *testing.T) {
	defer goleak.VerifyNone(t)

	wf, ui := newTestWorkflow(t)
	out := filepath.Join(t.TempDir(), "out")

	report, err := wf.Audit(context.Background(), AuditArgs{
		ClassifyArgs: ClassifyArgs{Paths: []m.Path{examplesPattern}, Threads: 2},
		Output:       m.Path(out),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Pass)
	assert.Len(t, report.Ecosystems, len(m.Ecosystems()))
	assert.Len(t, report.Hypotheses, m.MaxHypotheses)
	assert.Len(t, report.Gate, m.MaxHypotheses)
	assert.Positive(t, report.Deferred)
	assert.Equal(t, report.ID, ui.report.ID)

	for _, f := range report.Findings {
		assert.NotEmpty(t, f.Location, f.Hypothesis.ID)
		assert.Equal(t, m.VerdictValid, f.Gate.Verdict)
	}
}
