package controller

import (
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pagerWithLines(n int) pagerModel {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i+1)
	}

	return newPagerModel("test", lines)
}

func update(t *testing.T, pm pagerModel, msg tea.Msg) pagerModel {
	t.Helper()

	next, _ := pm.Update(msg)

	out, ok := next.(pagerModel)
	require.True(t, ok)

	return out
}

func TestPagerModel_Scroll(t *testing.T) {
	pm := update(t, pagerWithLines(50), tea.WindowSizeMsg{Width: 80, Height: 14})
	require.Equal(t, 10, pm.linesPerPage())
	require.Equal(t, 40, pm.maxOffset())

	pm = update(t, pm, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	assert.Equal(t, 1, pm.offset)

	pm = update(t, pm, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("k")})
	pm = update(t, pm, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("k")})
	assert.Equal(t, 0, pm.offset)

	pm = update(t, pm, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("G")})
	assert.Equal(t, 40, pm.offset)

	pm = update(t, pm, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	assert.Equal(t, 40, pm.offset)

	pm = update(t, pm, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("u")})
	assert.Equal(t, 30, pm.offset)

	pm = update(t, pm, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("g")})
	assert.Equal(t, 0, pm.offset)
}

func TestPagerModel_ResizeClampsOffset(t *testing.T) {
	pm := update(t, pagerWithLines(30), tea.WindowSizeMsg{Width: 80, Height: 14})
	pm = update(t, pm, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("G")})
	require.Equal(t, 20, pm.offset)

	pm = update(t, pm, tea.WindowSizeMsg{Width: 80, Height: 24})
	assert.Equal(t, 10, pm.offset)
}

func TestPagerModel_View(t *testing.T) {
	pm := update(t, pagerWithLines(5), tea.WindowSizeMsg{Width: 80, Height: 24})

	view := pm.View()
	assert.Contains(t, view, "test")
	assert.Contains(t, view, "line 1")
	assert.Contains(t, view, "line 5")
	assert.Contains(t, view, "Lines 1-5 of 5")
}

func TestPagerModel_Quit(t *testing.T) {
	for _, msg := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyEsc},
		{Type: tea.KeyCtrlC},
	} {
		next, cmd := pagerWithLines(3).Update(msg)
		require.NotNil(t, cmd)

		pm, ok := next.(pagerModel)
		require.True(t, ok)
		assert.True(t, pm.quitting)
		assert.Empty(t, pm.View())
	}
}

func TestReportLines(t *testing.T) {
	lines := reportLines(sampleReport())

	joined := fmt.Sprint(lines)
	assert.Contains(t, joined, "Report r-1 (pass 1)")
	assert.Contains(t, joined, "H-01")
	assert.Contains(t, joined, "Findings:")
	assert.Contains(t, joined, "Needs review:")
}
