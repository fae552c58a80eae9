package controller

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "phasegate.dev/pkg/phasegate/internal/model"
)

// SimpleUI implements UI with plain text and tables.
type SimpleUI struct {
	out io.Writer
	cfg StartConfig
}

// NewSimpleUI creates a new SimpleUI writing to the command output.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return newSimpleUI(cmd.OutOrStdout())
}

func newSimpleUI(out io.Writer) *SimpleUI {
	return &SimpleUI{out: out, cfg: newStartConfig(nil)}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.cfg = newStartConfig(options)

	return nil
}

// Close finalizes the UI.
func (s *SimpleUI) Close(_ context.Context) {}

// Wait blocks until the UI is closed (no-op for SimpleUI).
func (s *SimpleUI) Wait(_ context.Context) {}

// DisplayClassification prints the phases of every unit.
func (s *SimpleUI) DisplayClassification(ctx context.Context, units []m.CodeUnit, classes map[string]m.Classification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("\n%s", renderClassificationTable(units, classes))

	return nil
}

func phaseList(cls m.Classification) string {
	if cls.Unclassified() {
		return "UNCLASSIFIED"
	}

	phases := cls.Phases()
	names := make([]string, 0, len(phases))

	for _, p := range phases {
		names = append(names, string(p))
	}

	return strings.Join(names, " > ")
}

func renderClassificationTable(units []m.CodeUnit, classes map[string]m.Classification) string {
	var buf bytes.Buffer

	table := newTable(&buf, []string{"Unit", "Kind", "Location", "Phases"})

	unclassified := 0

	for _, u := range units {
		cls := classes[u.ID]
		if cls.Unclassified() {
			unclassified++
		}

		table.Append([]string{u.ID, string(u.Kind), u.Location(), phaseList(cls)})
	}

	table.SetFooter([]string{fmt.Sprintf("Total units %d", len(units)), "", "", fmt.Sprintf("Unclassified %d", unclassified)})
	table.Render()

	return buf.String()
}

// DisplayReport prints the hypotheses, gate verdicts, findings and every
// escalation of a report.
func (s *SimpleUI) DisplayReport(ctx context.Context, report m.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("%s", renderReport(report))

	return nil
}

func renderReport(report m.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Report %s (pass %d)\n", report.ID, report.Pass)
	fmt.Fprintf(&b, "Units: %d | Hypotheses: %d | Deferred: %d\n", report.Units, len(report.Hypotheses), report.Deferred)

	if report.Deferred > 0 {
		fmt.Fprintf(&b, "%d hypotheses over the limit of %d were deferred; run audit --resume for the next pass\n",
			report.Deferred, m.MaxHypotheses)
	}

	verdicts := make(map[string]m.Verdict, len(report.Gate))
	for _, g := range report.Gate {
		verdicts[g.HypothesisID] = g.Verdict
	}

	if len(report.Hypotheses) > 0 {
		var buf bytes.Buffer

		table := newTable(&buf, []string{"ID", "Kind", "Phase", "Location", "Verdict"})
		for _, h := range report.Hypotheses {
			table.Append([]string{h.ID, string(h.Kind), string(h.Phase), h.Location, string(verdicts[h.ID])})
		}

		counts := report.CountVerdicts()
		table.SetFooter([]string{"", "", "", "",
			fmt.Sprintf("%d valid / %d invalid / %d inconclusive",
				counts[m.VerdictValid], counts[m.VerdictInvalid], counts[m.VerdictInconclusive])})
		table.Render()
		fmt.Fprintf(&b, "\n%s", buf.String())
	}

	if len(report.Findings) > 0 {
		var buf bytes.Buffer

		table := newTable(&buf, []string{"ID", "Severity", "Location", "Impact"})
		for _, f := range report.Findings {
			table.Append([]string{f.Hypothesis.ID, f.Severity.String(), f.Location, f.Impact.String()})
		}

		table.Render()
		fmt.Fprintf(&b, "\nFindings\n%s", buf.String())
	} else {
		b.WriteString("\nNo findings passed the validation gate\n")
	}

	if len(report.Escalations) > 0 {
		var buf bytes.Buffer

		table := newTable(&buf, []string{"Disposition", "Subject", "Reason"})
		for _, e := range report.Escalations {
			table.Append([]string{string(e.Disposition), e.Subject, e.Reason})
		}

		table.Render()
		fmt.Fprintf(&b, "\nNeeds review\n%s", buf.String())
	}

	return b.String()
}

// DisplayFinding prints a finding document, rendered for the terminal when
// markdown rendering was requested.
func (s *SimpleUI) DisplayFinding(ctx context.Context, doc []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !s.cfg.markdown {
		s.printf("%s", doc)
		return nil
	}

	rendered, err := renderMarkdown(doc, glamour.WithStylePath("notty"), glamour.WithWordWrap(TerminalWidth(s.out)))
	if err != nil {
		return err
	}

	s.printf("%s", rendered)

	return nil
}

func renderMarkdown(doc []byte, options ...glamour.TermRendererOption) (string, error) {
	renderer, err := glamour.NewTermRenderer(options...)
	if err != nil {
		return "", fmt.Errorf("markdown renderer: %w", err)
	}

	out, err := renderer.Render(string(doc))
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}

	return out, nil
}

// DisplayDiff prints a unified diff between two reports.
func (s *SimpleUI) DisplayDiff(ctx context.Context, diff string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if diff == "" {
		s.printf("No differences\n")
		return nil
	}

	s.printf("%s", diff)

	return nil
}

// DisplayProfiles prints the loaded ecosystem profiles.
func (s *SimpleUI) DisplayProfiles(ctx context.Context, profiles []ProfileSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer

	table := newTable(&buf, []string{"Ecosystem", "Name", "Extensions", "Threshold", "Patterns", "Exploits"})
	for _, p := range profiles {
		table.Append([]string{
			string(p.Ecosystem),
			p.Name,
			strings.Join(p.Extensions, " "),
			strconv.FormatFloat(p.Threshold, 'f', -1, 64) + " " + p.CostUnit,
			strconv.Itoa(p.Patterns),
			strconv.Itoa(p.Exploits),
		})
	}

	table.Render()
	s.printf("\n%s", buf.String())

	return nil
}

// DisplaySession prints the agent session: the active role, the role that
// may follow it and every recorded invariant.
func (s *SimpleUI) DisplaySession(ctx context.Context, state m.SessionState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("%s", renderSession(state))

	return nil
}

func renderSession(state m.SessionState) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Session %s\n", state.ID)

	if state.Current == m.RoleNone {
		b.WriteString("Active role: none\n")
	} else {
		fmt.Fprintf(&b, "Active role: %s (%s)\n", state.Current, state.Current.Stage())
	}

	roles := m.Roles()
	if i := state.Current.Index() + 1; i < len(roles) {
		fmt.Fprintf(&b, "Next role: [AUDIT AGENT: %s]\n", roles[i])
	} else {
		b.WriteString("Next role: none, the review is complete\n")
	}

	if len(state.Invariants) == 0 {
		return b.String()
	}

	var buf bytes.Buffer

	table := newTable(&buf, []string{"ID", "Invariant", "Dispute"})
	for _, inv := range state.Invariants {
		dispute := ""
		if inv.Disputed {
			dispute = "DISPUTED: " + inv.Dispute
		}

		table.Append([]string{inv.ID, inv.Text, dispute})
	}

	table.Render()
	fmt.Fprintf(&b, "\n%s", buf.String())

	return b.String()
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)

	alignment := make([]int, len(header))
	for i := range alignment {
		alignment[i] = tablewriter.ALIGN_LEFT
	}

	table.SetColumnAlignment(alignment)

	return table
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.out, format, args...)
}
