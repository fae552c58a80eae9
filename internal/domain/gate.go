package domain

import (
	"phasegate.dev/pkg/phasegate/internal/domain/predicates"
	m "phasegate.dev/pkg/phasegate/internal/model"
)

// Gate evaluates a hypothesis against the corpus.
type Gate interface {
	Evaluate(h m.Hypothesis, corpus predicates.Corpus) m.GateResult
}

type validationGate struct {
	threshold float64
}

// NewGate returns a Gate. A positive threshold overrides the feasibility
// threshold of every ecosystem profile.
func NewGate(threshold float64) Gate {
	return &validationGate{threshold: threshold}
}

// Evaluate runs the four predicates independently and derives the verdict:
// any unknown makes it Inconclusive, Valid needs all four to hold.
func (g *validationGate) Evaluate(h m.Hypothesis, corpus predicates.Corpus) m.GateResult {
	result := m.GateResult{
		HypothesisID:     h.ID,
		Reachability:     predicates.Reachability(h, corpus),
		StateFreshness:   predicates.StateFreshness(h, corpus),
		ExecutionClosure: predicates.ExecutionClosure(h, corpus),
		EconomicRealism:  predicates.EconomicRealism(h, g.thresholdFor(h, corpus)),
	}
	result.Verdict = result.Decide()

	return result
}

func (g *validationGate) thresholdFor(h m.Hypothesis, corpus predicates.Corpus) float64 {
	if g.threshold > 0 {
		return g.threshold
	}

	p, err := corpus.Profile(h.Ecosystem)
	if err != nil {
		return 0
	}

	return p.DefaultThreshold
}
