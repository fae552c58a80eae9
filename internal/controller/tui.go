package controller

import (
	"context"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	m "phasegate.dev/pkg/phasegate/internal/model"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62"))
	footerStyle = lipgloss.NewStyle().Faint(true)

	severityStyles = map[m.Severity]lipgloss.Style{
		m.SeverityCriticalHigh: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		m.SeverityMedium:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208")),
		m.SeverityLow:          lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		m.SeverityInfo:         lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}

	verdictStyles = map[m.Verdict]lipgloss.Style{
		m.VerdictValid:        lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		m.VerdictInvalid:      lipgloss.NewStyle().Faint(true),
		m.VerdictInconclusive: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	}
)

// TUI implements UI using Bubble Tea. Long output (classifications,
// reports, finding documents) opens a scrollable pager; everything else is
// printed like SimpleUI.
type TUI struct {
	*SimpleUI

	output io.Writer
}

// NewTUI creates a new TUI.
func NewTUI(output io.Writer) *TUI {
	return &TUI{SimpleUI: newSimpleUI(output), output: output}
}

// DisplayClassification opens the classification table in the pager.
func (p *TUI) DisplayClassification(ctx context.Context, units []m.CodeUnit, classes map[string]m.Classification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return p.page(ctx, "Phase classification", splitLines(renderClassificationTable(units, classes)))
}

// DisplayReport opens the report in the pager with severity badges.
func (p *TUI) DisplayReport(ctx context.Context, report m.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return p.page(ctx, "Audit report", reportLines(report))
}

// DisplayFinding opens a rendered finding document in the pager.
func (p *TUI) DisplayFinding(ctx context.Context, doc []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rendered := string(doc)

	if p.cfg.markdown {
		out, err := renderMarkdown(doc, glamour.WithAutoStyle(), glamour.WithWordWrap(TerminalWidth(p.output)))
		if err != nil {
			return err
		}

		rendered = out
	}

	return p.page(ctx, "Finding", splitLines(rendered))
}

func (p *TUI) page(ctx context.Context, title string, lines []string) error {
	model := newPagerModel(p.cfg.title+" | "+title, lines)

	program := tea.NewProgram(model, tea.WithOutput(p.output), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("pager: %w", err)
	}

	return nil
}

func splitLines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}

func reportLines(report m.Report) []string {
	lines := []string{
		fmt.Sprintf("Report %s (pass %d)", report.ID, report.Pass),
		fmt.Sprintf("Units: %d | Hypotheses: %d | Deferred: %d", report.Units, len(report.Hypotheses), report.Deferred),
		"",
	}

	verdicts := make(map[string]m.Verdict, len(report.Gate))
	for _, g := range report.Gate {
		verdicts[g.HypothesisID] = g.Verdict
	}

	for _, h := range report.Hypotheses {
		v := verdicts[h.ID]
		lines = append(lines, fmt.Sprintf("  %s %-13s %-30s %s", h.ID, verdictStyles[v].Render(string(v)), h.Kind, h.Location))
	}

	if len(report.Findings) > 0 {
		lines = append(lines, "", "Findings:")

		for _, f := range report.Findings {
			lines = append(lines, fmt.Sprintf("  %s %s", severityStyles[f.Severity].Render(f.Severity.String()), f.Hypothesis.Description))
			lines = append(lines, "      "+f.Location)
		}
	}

	if len(report.Escalations) > 0 {
		lines = append(lines, "", "Needs review:")

		for _, e := range report.Escalations {
			lines = append(lines, fmt.Sprintf("  [%s] %s: %s", e.Disposition, e.Subject, e.Reason))
		}
	}

	return lines
}

// pagerModel is a Bubble Tea model scrolling a fixed list of lines.
type pagerModel struct {
	title    string
	lines    []string
	height   int
	width    int
	offset   int
	quitting bool
}

func newPagerModel(title string, lines []string) pagerModel {
	return pagerModel{title: title, lines: lines}
}

func (pm pagerModel) Init() tea.Cmd {
	return nil
}

func (pm pagerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		pm.height = msg.Height
		pm.width = msg.Width

		if pm.offset > pm.maxOffset() {
			pm.offset = pm.maxOffset()
		}

		return pm, nil

	case tea.KeyMsg:
		return pm.handleKeyPress(msg)
	}

	return pm, nil
}

func (pm pagerModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	//nolint:exhaustive // We only handle specific navigation keys
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		pm.quitting = true
		return pm, tea.Quit
	default:
	}

	switch msg.String() {
	case "q":
		pm.quitting = true
		return pm, tea.Quit

	case "down", "j":
		pm.offset = min(pm.offset+1, pm.maxOffset())

	case "up", "k":
		pm.offset = max(pm.offset-1, 0)

	case "g", "home":
		pm.offset = 0

	case "G", "end":
		pm.offset = pm.maxOffset()

	case "d", "pgdown":
		pm.offset = min(pm.offset+pm.linesPerPage(), pm.maxOffset())

	case "u", "pgup":
		pm.offset = max(pm.offset-pm.linesPerPage(), 0)
	}

	return pm, nil
}

func (pm pagerModel) linesPerPage() int {
	if pm.height == 0 {
		return 20
	}

	// Title (2 lines) and footer (2 lines).
	return max(pm.height-4, 1)
}

func (pm pagerModel) maxOffset() int {
	return max(len(pm.lines)-pm.linesPerPage(), 0)
}

func (pm pagerModel) View() string {
	if pm.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render(pm.title))
	b.WriteString("\n\n")

	end := min(pm.offset+pm.linesPerPage(), len(pm.lines))
	for _, line := range pm.lines[pm.offset:end] {
		b.WriteString(line)
		b.WriteString("\n")
	}

	footer := fmt.Sprintf("Lines %d-%d of %d | ↑/k ↓/j g/G d/u | q: quit", min(pm.offset+1, len(pm.lines)), end, len(pm.lines))
	b.WriteString("\n")
	b.WriteString(footerStyle.Render(footer))

	return b.String()
}
