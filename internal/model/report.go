package model

import (
	"time"

	"github.com/google/uuid"
)

// Disposition is the taxonomy for outcomes that must reach the operator
// instead of being resolved silently.
type Disposition string

const (
	// DispositionUnknown means evidence is insufficient.
	DispositionUnknown Disposition = "Unknown"
	// DispositionInconclusive means a gate predicate is indeterminate.
	DispositionInconclusive Disposition = "Inconclusive"
	// DispositionInvalid means the hypothesis was disproved.
	DispositionInvalid Disposition = "Invalid"
	// DispositionNotApplicable means the pattern does not occur in the ecosystem.
	DispositionNotApplicable Disposition = "Not-Applicable"
)

// Escalation is one item the operator must resolve or acknowledge.
type Escalation struct {
	Disposition Disposition `json:"disposition"`
	Subject     string      `json:"subject"`
	Reason      string      `json:"reason"`
}

// Report is the result of one audit pass.
type Report struct {
	ID           string       `json:"id"`
	CreatedAt    time.Time    `json:"created_at"`
	Pass         int          `json:"pass"`
	Ecosystems   []Ecosystem  `json:"ecosystems"`
	Units        int          `json:"units"`
	Unclassified []string     `json:"unclassified,omitempty"`
	Hypotheses   []Hypothesis `json:"hypotheses"`
	Deferred     int          `json:"deferred"`
	Gate         []GateResult `json:"gate"`
	Findings     []Finding    `json:"findings"`
	Escalations  []Escalation `json:"escalations,omitempty"`
}

// NewReport creates an empty report with a fresh identifier.
func NewReport(pass int, now time.Time) Report {
	return Report{
		ID:        uuid.New().String(),
		CreatedAt: now.UTC(),
		Pass:      pass,
	}
}

// Escalate appends an escalation.
func (r *Report) Escalate(disposition Disposition, subject, reason string) {
	r.Escalations = append(r.Escalations, Escalation{Disposition: disposition, Subject: subject, Reason: reason})
}

// CountVerdicts tallies gate verdicts.
func (r Report) CountVerdicts() map[Verdict]int {
	counts := make(map[Verdict]int, 3)
	for _, g := range r.Gate {
		counts[g.Verdict]++
	}

	return counts
}
