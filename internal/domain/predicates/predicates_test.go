package predicates

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "phasegate.dev/pkg/phasegate/internal/model"
	"phasegate.dev/pkg/phasegate/internal/profile"
)

func TestExternalCalls(t *testing.T) {
	reg, err := profile.Default()
	require.NoError(t, err)

	p, err := reg.Get(m.EcosystemCosmos)
	require.NoError(t, err)

	text := `func (k Keeper) Withdraw(ctx sdk.Context) error {
	balance := k.GetBalance(ctx, addr)
	if err := k.bankKeeper.SendCoins(ctx, from, to, amt); err != nil {
		return err
	}
	return k.ics4Wrapper.SendPacket(ctx, packet)
}`

	sites := ExternalCalls(p, text)
	require.Len(t, sites, 2)
	assert.Equal(t, "SendCoins", sites[0].Target)
	assert.Equal(t, "SendPacket", sites[1].Target)
	assert.Less(t, sites[0].Offset, sites[1].Offset)
}

func TestEconomicRealism(t *testing.T) {
	tests := []struct {
		name      string
		cost      *m.Cost
		threshold float64
		want      m.Check
	}{
		{"no cost", nil, 100, m.CheckUnknown},
		{"no threshold", &m.Cost{Amount: 10, Unit: "gas"}, 0, m.CheckUnknown},
		{"below", &m.Cost{Amount: 10, Unit: "gas"}, 100, m.CheckTrue},
		{"equal is not below", &m.Cost{Amount: 100, Unit: "gas"}, 100, m.CheckFalse},
		{"above", &m.Cost{Amount: 1000, Unit: "gas"}, 100, m.CheckFalse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EconomicRealism(m.Hypothesis{Cost: tt.cost}, tt.threshold)
			assert.Equal(t, tt.want, got.Value)
			assert.NotEmpty(t, got.Reason)
		})
	}
}

func TestBeforeAfter(t *testing.T) {
	offsets := []int{5, 20, 40}

	o, ok := before(offsets, 20)
	assert.True(t, ok)
	assert.Equal(t, 5, o)

	_, ok = before(offsets, 5)
	assert.False(t, ok)

	o, ok = after(offsets, 20)
	assert.True(t, ok)
	assert.Equal(t, 40, o)

	_, ok = after(offsets, 40)
	assert.False(t, ok)
}

func TestGuardedEnd(t *testing.T) {
	reg, err := profile.Default()
	require.NoError(t, err)

	tests := []struct {
		name string
		eco  m.Ecosystem
		text string
		want string
	}{
		{
			name: "go block",
			eco:  m.EcosystemCosmos,
			text: "if false {\n\tk.Set(x)\n}\nk.Save(y)",
			want: "if false {\n\tk.Set(x)\n}",
		},
		{
			name: "solidity block",
			eco:  m.EcosystemSolidity,
			text: "if (false) { x = 1; }\n    y = 2;",
			want: "if (false) { x = 1; }",
		},
		{
			name: "solidity statement",
			eco:  m.EcosystemSolidity,
			text: "if (false) x = 1;\n    y = 2;",
			want: "if (false) x = 1;",
		},
		{
			name: "require aborts the rest",
			eco:  m.EcosystemSolidity,
			text: "require(false, \"off\");\n    y = 2;",
			want: "require(false, \"off\");\n    y = 2;",
		},
		{
			name: "pyteal call",
			eco:  m.EcosystemPyTeal,
			text: "If(Int(0), App.globalPut(k, v), Approve())\nReturn(x)",
			want: "If(Int(0), App.globalPut(k, v), Approve())",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := reg.Get(tt.eco)
			require.NoError(t, err)

			var loc []int
			for _, guard := range p.AlwaysFalseGuards {
				if loc = guard.FindStringIndex(tt.text); loc != nil {
					break
				}
			}
			require.NotNil(t, loc)

			assert.Equal(t, tt.want, tt.text[loc[0]:guardedEnd(tt.eco, tt.text, loc)])
		})
	}
}

func TestDisabledBy(t *testing.T) {
	reg, err := profile.Default()
	require.NoError(t, err)

	p, err := reg.Get(m.EcosystemCosmos)
	require.NoError(t, err)

	u := m.CodeUnit{
		Name:      "Credit",
		Ecosystem: m.EcosystemCosmos,
		Text:      "func (k Keeper) Credit() {\n\tk.total = k.total.Add(d)\n\tif false {\n\t\tk.SetTotal(k.total)\n\t}\n}",
	}
	add := strings.Index(u.Text, ".Add(")
	set := strings.Index(u.Text, "SetTotal(")

	match, ok := disabledBy(p.AlwaysFalseGuards, u, []int{set})
	assert.True(t, ok)
	assert.Equal(t, "if false {", match)

	_, ok = disabledBy(p.AlwaysFalseGuards, u, []int{add, set})
	assert.False(t, ok)

	_, ok = disabledBy(p.AlwaysFalseGuards, u, nil)
	assert.False(t, ok)
}
