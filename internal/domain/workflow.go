package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"

	"phasegate.dev/pkg/phasegate/internal/adapter"
	"phasegate.dev/pkg/phasegate/internal/controller"
	m "phasegate.dev/pkg/phasegate/internal/model"
	"phasegate.dev/pkg/phasegate/internal/profile"
)

// ErrFindingNotFound is returned by View for an unknown finding ID.
var ErrFindingNotFound = errors.New("finding not found")

// ClassifyArgs selects the sources to ingest.
type ClassifyArgs struct {
	Paths   []m.Path
	Exclude []string
	// Merged is a merged corpus file split on "// File:" markers.
	Merged m.Path
	// Ecosystem forces every source to be read as this ecosystem.
	Ecosystem m.Ecosystem
	Threads   int
}

// AuditArgs contains the arguments for one audit pass.
type AuditArgs struct {
	ClassifyArgs

	Output    m.Path
	Threshold float64
	Resume    bool
}

// ViewArgs selects a report, and optionally one finding of it.
type ViewArgs struct {
	Report   m.Path
	Finding  string
	Markdown bool
}

// DiffArgs names two reports to compare.
type DiffArgs struct {
	Old m.Path
	New m.Path
}

// AgentArgs carries one operator message for the agent session.
type AgentArgs struct {
	Output m.Path
	Input  string
}

// MergeArgs selects the sources to concatenate into one merged corpus.
type MergeArgs struct {
	Paths   []m.Path
	Exclude []string
	Output  m.Path
}

// Workflow defines the operations behind the CLI commands.
type Workflow interface {
	Classify(ctx context.Context, args ClassifyArgs) error
	Merge(ctx context.Context, args MergeArgs) (int, error)
	Audit(ctx context.Context, args AuditArgs) (m.Report, error)
	View(ctx context.Context, args ViewArgs) error
	Diff(ctx context.Context, args DiffArgs) (string, error)
	Profiles(ctx context.Context) error
	Agent(ctx context.Context, args AgentArgs) (m.SessionState, error)
}

type workflow struct {
	adapter.SourceFSAdapter
	adapter.UnitExtractor
	adapter.ReportStore
	adapter.SessionStore
	controller.UI

	profiles   *profile.Registry
	classifier Classifier
	generator  Generator
	severity   SeverityClassifier
	now        func() time.Time
}

// NewWorkflow creates a new Workflow instance with the provided dependencies.
func NewWorkflow(
	fsAdapter adapter.SourceFSAdapter,
	extractor adapter.UnitExtractor,
	reportStore adapter.ReportStore,
	sessionStore adapter.SessionStore,
	ui controller.UI,
	profiles *profile.Registry,
) (Workflow, error) {
	severity, err := NewSeverityClassifier(profiles)
	if err != nil {
		return nil, fmt.Errorf("severity matrix: %w", err)
	}

	return &workflow{
		SourceFSAdapter: fsAdapter,
		UnitExtractor:   extractor,
		ReportStore:     reportStore,
		SessionStore:    sessionStore,
		UI:              ui,
		profiles:        profiles,
		classifier:      NewClassifier(profiles),
		generator:       NewGenerator(profiles),
		severity:        severity,
		now:             time.Now,
	}, nil
}

// Classify ingests the sources and displays the phases of every unit.
func (w *workflow) Classify(ctx context.Context, args ClassifyArgs) error {
	if err := w.Start(ctx, controller.WithTitle("phasegate classify")); err != nil {
		slog.Error("Failed to start workflow UI", "error", err)
		return err
	}
	defer w.Close(ctx)

	corpus, escalations, err := w.ingest(ctx, args)
	if err != nil {
		return err
	}

	for _, e := range escalations {
		slog.Warn("source not classified", "source", e.Subject, "reason", e.Reason)
	}

	if err := w.DisplayClassification(ctx, corpus.Units(), corpus.Classifications()); err != nil {
		slog.Error("Failed to display classification", "error", err)
		return fmt.Errorf("display: %w", err)
	}

	w.Wait(ctx)

	return nil
}

func (w *workflow) ingest(ctx context.Context, args ClassifyArgs) (*Corpus, []m.Escalation, error) {
	units, escalations, err := w.collectUnits(ctx, args)
	if err != nil {
		slog.Error("Failed to collect code units", "error", err)
		return nil, nil, fmt.Errorf("collect units: %w", err)
	}

	return NewCorpus(w.profiles, w.classifier, units), escalations, nil
}

// View displays a saved report, or one finding document from it.
func (w *workflow) View(ctx context.Context, args ViewArgs) error {
	options := []controller.StartOption{controller.WithTitle("phasegate view")}
	if args.Markdown {
		options = append(options, controller.WithMarkdown())
	}

	if err := w.Start(ctx, options...); err != nil {
		slog.Error("Failed to start workflow UI", "error", err)
		return err
	}
	defer w.Close(ctx)

	report, err := w.LoadReport(ctx, args.Report)
	if err != nil {
		return fmt.Errorf("load report: %w", err)
	}

	if args.Finding == "" {
		if err := w.DisplayReport(ctx, report); err != nil {
			return fmt.Errorf("display: %w", err)
		}

		w.Wait(ctx)

		return nil
	}

	for _, f := range report.Findings {
		if !strings.EqualFold(f.Hypothesis.ID, args.Finding) {
			continue
		}

		doc, err := adapter.RenderFinding(f)
		if err != nil {
			return fmt.Errorf("render finding %s: %w", f.Hypothesis.ID, err)
		}

		if err := w.DisplayFinding(ctx, doc); err != nil {
			return fmt.Errorf("display: %w", err)
		}

		w.Wait(ctx)

		return nil
	}

	return fmt.Errorf("%w: %s", ErrFindingNotFound, args.Finding)
}

// Diff compares two reports as unified diff of their JSON form. Report IDs
// and timestamps are left out so only pipeline output is compared.
func (w *workflow) Diff(ctx context.Context, args DiffArgs) (string, error) {
	if err := w.Start(ctx, controller.WithTitle("phasegate diff")); err != nil {
		return "", err
	}
	defer w.Close(ctx)

	old, err := w.comparable(ctx, args.Old)
	if err != nil {
		return "", err
	}

	current, err := w.comparable(ctx, args.New)
	if err != nil {
		return "", err
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(old),
		B:        difflib.SplitLines(current),
		FromFile: string(args.Old),
		ToFile:   string(args.New),
		Context:  3,
	})
	if err != nil {
		return "", fmt.Errorf("diff reports: %w", err)
	}

	if err := w.DisplayDiff(ctx, diff); err != nil {
		return "", fmt.Errorf("display: %w", err)
	}

	return diff, nil
}

func (w *workflow) comparable(ctx context.Context, path m.Path) (string, error) {
	report, err := w.LoadReport(ctx, path)
	if err != nil {
		return "", fmt.Errorf("load report: %w", err)
	}

	report.ID = ""
	report.CreatedAt = time.Time{}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}

	return string(data) + "\n", nil
}

// Profiles displays the loaded ecosystem profiles.
func (w *workflow) Profiles(ctx context.Context) error {
	if err := w.Start(ctx, controller.WithTitle("phasegate profiles")); err != nil {
		return err
	}
	defer w.Close(ctx)

	all := w.profiles.All()
	summaries := make([]controller.ProfileSummary, 0, len(all))

	for _, p := range all {
		summaries = append(summaries, controller.ProfileSummary{
			Ecosystem:  p.Ecosystem,
			Name:       p.Name,
			Extensions: p.Extensions,
			CostUnit:   p.CostUnit,
			Threshold:  p.DefaultThreshold,
			Patterns:   len(p.Lexicon),
			Exploits:   len(p.Exploits),
		})
	}

	return w.DisplayProfiles(ctx, summaries)
}

var (
	invariantDirective = regexp.MustCompile(`(?i)^invariant:\s*(.+)$`)
	disputeDirective   = regexp.MustCompile(`(?i)^dispute\s+(\S+?):?\s+(.+)$`)
)

// Agent applies one operator message to the stored session. A message may
// open with an "[AUDIT AGENT: <Role>]" tag to activate the next role, and
// may carry "invariant: <text>" and "dispute <INV-n>: <reason>" lines. A
// message without a tag or directives only shows the session.
func (w *workflow) Agent(ctx context.Context, args AgentArgs) (m.SessionState, error) {
	if err := w.Start(ctx, controller.WithTitle("phasegate agent")); err != nil {
		return m.SessionState{}, err
	}
	defer w.Close(ctx)

	state, found, err := w.LoadSession(ctx, args.Output)
	if err != nil {
		return m.SessionState{}, fmt.Errorf("load session: %w", err)
	}

	if !found {
		state = m.NewSessionState()
	}

	session := NewSession(state)

	role, rest, tagged, err := m.ParseAgentTag(args.Input)
	if err != nil {
		return m.SessionState{}, err
	}

	var notes []string

	directives := 0

	for _, line := range strings.Split(rest, "\n") {
		line = strings.TrimSpace(line)

		switch {
		case line == "":
		case invariantDirective.MatchString(line):
			directives++
		case disputeDirective.MatchString(line):
			directives++
		default:
			notes = append(notes, line)
		}
	}

	if tagged {
		if err := session.Activate(role, strings.Join(notes, " ")); err != nil {
			return m.SessionState{}, err
		}

		slog.Info("agent role activated", "role", role, "session", state.ID)
	}

	if directives > 0 {
		if err := applyDirectives(session, rest); err != nil {
			return m.SessionState{}, err
		}
	}

	if tagged || directives > 0 || !found {
		if err := w.SaveSession(ctx, args.Output, session.State()); err != nil {
			return m.SessionState{}, fmt.Errorf("save session: %w", err)
		}
	}

	if err := w.DisplaySession(ctx, session.State()); err != nil {
		return m.SessionState{}, fmt.Errorf("display: %w", err)
	}

	return session.State(), nil
}

func applyDirectives(session *Session, text string) error {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)

		if match := invariantDirective.FindStringSubmatch(line); match != nil {
			if _, err := session.Assert(match[1]); err != nil {
				return err
			}

			continue
		}

		if match := disputeDirective.FindStringSubmatch(line); match != nil {
			if err := session.Dispute(match[1], match[2]); err != nil {
				return err
			}
		}
	}

	return nil
}
