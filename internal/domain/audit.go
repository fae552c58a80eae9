package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"phasegate.dev/pkg/phasegate/internal/controller"
	m "phasegate.dev/pkg/phasegate/internal/model"
)

var (
	// ErrNothingDeferred is returned by a resumed audit with an empty queue.
	ErrNothingDeferred = errors.New("no deferred hypotheses to resume")

	errUncited = errors.New("finding has no source location")
)

// Audit runs one pass of the kernel: classify, generate (or drain the
// deferred queue on resume), gate and score. Every hypothesis that does not
// end as a finding is escalated with its disposition.
func (w *workflow) Audit(ctx context.Context, args AuditArgs) (m.Report, error) {
	if err := w.Start(ctx, controller.WithTitle("phasegate audit")); err != nil {
		slog.Error("Failed to start workflow UI", "error", err)
		return m.Report{}, err
	}
	defer w.Close(ctx)

	corpus, escalations, err := w.ingest(ctx, args.ClassifyArgs)
	if err != nil {
		return m.Report{}, err
	}

	report := m.NewReport(1, w.now())
	report.Ecosystems = corpus.Ecosystems()
	report.Units = corpus.Len()
	report.Unclassified = corpus.Unclassified()
	report.Escalations = escalations

	for _, id := range report.Unclassified {
		report.Escalate(m.DispositionUnknown, id, "no phase matched, requires manual review")
	}

	hypotheses, deferred, err := w.nextBatch(ctx, args, corpus, &report)
	if err != nil {
		return m.Report{}, err
	}

	report.Hypotheses = hypotheses
	report.Deferred = len(deferred)

	gate := NewGate(args.Threshold)

	for _, h := range hypotheses {
		result := gate.Evaluate(h, corpus)
		report.Gate = append(report.Gate, result)

		switch result.Verdict {
		case m.VerdictValid:
			finding, err := w.finding(h, result, corpus)
			if err != nil {
				slog.Warn("valid hypothesis not reported", "hypothesis", h.ID, "error", err)
				report.Escalate(m.DispositionUnknown, h.ID, err.Error())

				continue
			}

			report.Findings = append(report.Findings, finding)
		case m.VerdictInvalid:
			report.Escalate(m.DispositionInvalid, h.ID, checkReasons(result, m.CheckFalse))
		case m.VerdictInconclusive:
			report.Escalate(m.DispositionInconclusive, h.ID, checkReasons(result, m.CheckUnknown))
		}
	}

	if err := w.SaveReport(ctx, args.Output, report); err != nil {
		slog.Error("Failed to save report", "error", err)
		return m.Report{}, fmt.Errorf("save report: %w", err)
	}

	if err := w.SaveDeferred(ctx, args.Output, deferred); err != nil {
		slog.Error("Failed to save deferred hypotheses", "error", err)
		return m.Report{}, fmt.Errorf("save deferred: %w", err)
	}

	if err := w.DisplayReport(ctx, report); err != nil {
		slog.Error("Failed to display report", "error", err)
		return m.Report{}, fmt.Errorf("display: %w", err)
	}

	w.Wait(ctx)

	return report, nil
}

// nextBatch returns the hypotheses to gate in this pass and the ones left
// for later passes.
func (w *workflow) nextBatch(ctx context.Context, args AuditArgs, corpus *Corpus, report *m.Report) ([]m.Hypothesis, []m.Hypothesis, error) {
	if !args.Resume {
		batch := w.generator.Generate(corpus.Units(), corpus.Classifications())

		for _, skip := range batch.NotApplicable {
			report.Escalate(m.DispositionNotApplicable,
				fmt.Sprintf("%s/%s", skip.Ecosystem, skip.Kind),
				fmt.Sprintf("the %s lexicon has no %s phase", skip.Ecosystem, skip.Phase))
		}

		if n := batch.Truncated(); n > 0 {
			slog.Info("hypotheses deferred", "count", n, "limit", m.MaxHypotheses)
		}

		return batch.Hypotheses, batch.Deferred, nil
	}

	queue, err := w.LoadDeferred(ctx, args.Output)
	if err != nil {
		return nil, nil, fmt.Errorf("load deferred: %w", err)
	}

	if len(queue) == 0 {
		return nil, nil, ErrNothingDeferred
	}

	previous, err := w.LoadReport(ctx, args.Output)
	if err != nil {
		slog.Warn("previous report unavailable, earlier findings are not carried forward", "error", err)
	} else {
		carryForward(report, previous)
	}

	n := min(len(queue), m.MaxHypotheses)

	return queue[:n], queue[n:], nil
}

// carryForward makes a resumed pass cumulative: the gate results, findings
// and hypothesis dispositions of earlier passes stay in the report.
func carryForward(report *m.Report, previous m.Report) {
	report.Pass = previous.Pass + 1

	gated := make(map[string]struct{}, len(previous.Gate))
	for _, g := range previous.Gate {
		gated[g.HypothesisID] = struct{}{}
	}

	report.Gate = append(report.Gate, previous.Gate...)
	report.Findings = append(report.Findings, previous.Findings...)

	for _, e := range previous.Escalations {
		if _, ok := gated[e.Subject]; ok {
			report.Escalations = append(report.Escalations, e)
		}
	}
}

func (w *workflow) finding(h m.Hypothesis, result m.GateResult, corpus *Corpus) (m.Finding, error) {
	if h.Location == "" {
		return m.Finding{}, fmt.Errorf("uncited: %w", errUncited)
	}

	p, err := corpus.Profile(h.Ecosystem)
	if err != nil {
		return m.Finding{}, err
	}

	descriptor, ok := p.Impacts[h.Kind]
	if !ok {
		return m.Finding{}, fmt.Errorf("unscored: %w: no impact for %s", ErrUnmappedImpact, h.Kind)
	}

	impact, err := ParseImpact(descriptor)
	if err != nil {
		return m.Finding{}, fmt.Errorf("unscored: %w", err)
	}

	severity, err := w.severity.Classify(h.Ecosystem, impact)
	if err != nil {
		return m.Finding{}, fmt.Errorf("unscored: %w", err)
	}

	return m.Finding{
		Hypothesis: h,
		Severity:   severity,
		Impact:     impact,
		Location:   h.Location,
		RootCause:  rootCause(h, result),
		Mitigation: p.Mitigations[h.Kind],
		Gate:       result,
	}, nil
}

func rootCause(h m.Hypothesis, result m.GateResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s (%s, %s phase).", h.Description, h.UnitID, h.Phase)

	for _, c := range result.NamedChecks() {
		fmt.Fprintf(&b, " %s: %s.", c.Name, c.Reason)
	}

	return b.String()
}

func checkReasons(result m.GateResult, value m.Check) string {
	var reasons []string

	for _, c := range result.NamedChecks() {
		if c.Value == value {
			reasons = append(reasons, fmt.Sprintf("%s %s: %s", c.Name, c.Value, c.Reason))
		}
	}

	return strings.Join(reasons, "; ")
}
