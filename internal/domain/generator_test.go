package domain

import (
	"fmt"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "phasegate.dev/pkg/phasegate/internal/model"
	"phasegate.dev/pkg/phasegate/internal/profile"
)

func generate(t *testing.T, reg *profile.Registry, units ...m.CodeUnit) m.HypothesisBatch {
	t.Helper()

	corpus := NewCorpus(reg, NewClassifier(reg), units)

	return NewGenerator(reg).Generate(corpus.Units(), corpus.Classifications())
}

func TestGenerator_ValidationAfterMutation(t *testing.T) {
	batch := generate(t, testRegistry(t), cosmosUnit("Deposit", depositSource, m.KindPublic, 0))

	require.Len(t, batch.Hypotheses, 2)
	assert.Zero(t, batch.Truncated())

	vam := batch.Hypotheses[0]
	assert.Equal(t, "H-01", vam.ID)
	assert.Equal(t, m.KindValidationAfterMutation, vam.Kind)
	assert.Equal(t, m.PhaseMutation, vam.Phase)
	assert.Contains(t, vam.Description, "validation after mutation")
	assert.Equal(t, "x/vault/keeper/msg_server.go:10", vam.Location)
	require.NotNil(t, vam.Exploit)
	assert.Contains(t, vam.Exploit.Name, "Osmosis")
	require.NotNil(t, vam.Cost)
	assert.Equal(t, m.Cost{Amount: 250000, Unit: "gas"}, *vam.Cost)

	silent := batch.Hypotheses[1]
	assert.Equal(t, "H-02", silent.ID)
	assert.Equal(t, m.KindSilentCommit, silent.Kind)
	assert.Nil(t, silent.Exploit)
}

func TestGenerator_Withdraw(t *testing.T) {
	batch := generate(t, testRegistry(t), cosmosUnit("Withdraw", withdrawSource, m.KindPublic, 0))

	kinds := make([]m.HypothesisKind, 0, len(batch.Hypotheses))
	for _, h := range batch.Hypotheses {
		kinds = append(kinds, h.Kind)
	}

	assert.Equal(t, []m.HypothesisKind{
		m.KindMixedValidationMutation,
		m.KindSnapshotBeforeExternalCall,
		m.KindSilentCommit,
	}, kinds)
}

func TestGenerator_Cap(t *testing.T) {
	units := make([]m.CodeUnit, 0, 20)
	for i := 0; i < 20; i++ {
		name := fmt.Sprintf("Update%02d", i)
		units = append(units, cosmosUnit(name, "func (k Keeper) "+name+"(ctx sdk.Context) {\n\tk.SetParams(ctx, p)\n}", m.KindPublic, i))
	}

	batch := generate(t, testRegistry(t), units...)

	require.Len(t, batch.Hypotheses, m.MaxHypotheses)
	assert.Equal(t, 25, batch.Truncated())
	assert.Equal(t, "H-15", batch.Hypotheses[14].ID)
	assert.Equal(t, "H-16", batch.Deferred[0].ID)
	assert.Equal(t, "H-40", batch.Deferred[24].ID)
}

func TestGenerator_Priority(t *testing.T) {
	single := cosmosUnit("Store", "func (k Keeper) Store(ctx sdk.Context) {\n\tk.SetParams(ctx, p)\n}", m.KindPublic, 0)
	mixed := cosmosUnit("Deposit", depositSource, m.KindPublic, 1)

	batch := generate(t, testRegistry(t), single, mixed)

	require.Len(t, batch.Hypotheses, 4)
	assert.Equal(t, mixed.ID, batch.Hypotheses[0].UnitID)
	assert.Equal(t, mixed.ID, batch.Hypotheses[1].UnitID)
	assert.Equal(t, single.ID, batch.Hypotheses[2].UnitID)
	assert.Equal(t, single.ID, batch.Hypotheses[3].UnitID)
}

func TestGenerator_Stable(t *testing.T) {
	reg := testRegistry(t)
	units := []m.CodeUnit{
		cosmosUnit("Withdraw", withdrawSource, m.KindPublic, 1),
		cosmosUnit("Deposit", depositSource, m.KindPublic, 0),
		cosmosUnit("Store", "func (k Keeper) Store(ctx sdk.Context) {\n\tk.SetParams(ctx, p)\n}", m.KindPublic, 2),
	}

	first := generate(t, reg, units...)

	for i := 0; i < 5; i++ {
		if diff := cmp.Diff(first, generate(t, reg, units...)); diff != "" {
			t.Fatalf("generator output changed between runs (-first +next):\n%s", diff)
		}
	}
}

const eventlessProfile = `ecosystem: cosmos
name: eventless
extensions: [".go"]
cost_unit: gas
lexicon:
  VALIDATION: ['\bif\b']
  MUTATION: ['\.Add\(']
  COMMIT: ['\bSet\w*\(']
`

func TestGenerator_NotApplicable(t *testing.T) {
	reg, err := profile.Load(fstest.MapFS{
		"profiles/cosmos.yaml": &fstest.MapFile{Data: []byte(eventlessProfile)},
	}, "profiles")
	require.NoError(t, err)

	batch := generate(t, reg, cosmosUnit("Store", "func (k Keeper) Store(ctx sdk.Context) {\n\tk.SetParams(ctx, p)\n}", m.KindPublic, 0))

	var skipped []string
	for _, skip := range batch.NotApplicable {
		skipped = append(skipped, fmt.Sprintf("%s:%s", skip.Kind, skip.Phase))
	}

	assert.Equal(t, "snapshot-before-external-call:SNAPSHOT error-handling:ERROR silent-commit:EVENTS", strings.Join(skipped, " "))

	for _, h := range batch.Hypotheses {
		assert.NotEqual(t, m.KindSilentCommit, h.Kind)
	}
}
