package model

import "sort"

// Phase is a semantic phase label.
type Phase string

const (
	PhaseSnapshot   Phase = "SNAPSHOT"
	PhaseAccounting Phase = "ACCOUNTING"
	PhaseValidation Phase = "VALIDATION"
	PhaseMutation   Phase = "MUTATION"
	PhaseCommit     Phase = "COMMIT"
	PhaseEvents     Phase = "EVENTS"
	PhaseError      Phase = "ERROR"
)

// Phases returns the taxonomy in canonical order.
func Phases() []Phase {
	return []Phase{PhaseSnapshot, PhaseAccounting, PhaseValidation, PhaseMutation, PhaseCommit, PhaseEvents, PhaseError}
}

// PhaseHit records one lexicon match inside a unit's text.
type PhaseHit struct {
	Phase  Phase
	Offset int
	Match  string
}

// Classification is the phase set assigned to one code unit. Hits are kept
// sorted by text offset so textual ordering between phases is observable.
type Classification struct {
	UnitID string
	Hits   []PhaseHit
}

// NewClassification sorts hits by offset (then phase order) and returns
// the classification.
func NewClassification(unitID string, hits []PhaseHit) Classification {
	rank := make(map[Phase]int, len(Phases()))
	for i, p := range Phases() {
		rank[p] = i
	}

	sorted := append([]PhaseHit(nil), hits...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Offset != sorted[j].Offset {
			return sorted[i].Offset < sorted[j].Offset
		}

		return rank[sorted[i].Phase] < rank[sorted[j].Phase]
	})

	return Classification{UnitID: unitID, Hits: sorted}
}

// Unclassified reports whether no phase matched. Callers must treat this as
// "requires manual review", not as "safe".
func (c Classification) Unclassified() bool {
	return len(c.Hits) == 0
}

// Has reports whether the phase occurs at least once.
func (c Classification) Has(p Phase) bool {
	_, ok := c.First(p)
	return ok
}

// First returns the offset of the first hit for the phase.
func (c Classification) First(p Phase) (int, bool) {
	for _, h := range c.Hits {
		if h.Phase == p {
			return h.Offset, true
		}
	}

	return 0, false
}

// Offsets returns every hit offset for the phase in ascending order.
func (c Classification) Offsets(p Phase) []int {
	var out []int

	for _, h := range c.Hits {
		if h.Phase == p {
			out = append(out, h.Offset)
		}
	}

	return out
}

// Phases returns the distinct phases in order of first appearance.
func (c Classification) Phases() []Phase {
	seen := make(map[Phase]struct{})

	var out []Phase

	for _, h := range c.Hits {
		if _, ok := seen[h.Phase]; ok {
			continue
		}

		seen[h.Phase] = struct{}{}
		out = append(out, h.Phase)
	}

	return out
}
