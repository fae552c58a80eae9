package model

// HypothesisKind names the rule that produced a hypothesis.
type HypothesisKind string

const (
	// KindValidationAfterMutation: state is mutated before it is validated.
	KindValidationAfterMutation HypothesisKind = "validation-after-mutation"
	// KindMixedValidationMutation: validation and mutation share a unit.
	KindMixedValidationMutation HypothesisKind = "mixed-validation-mutation"
	// KindSnapshotBeforeExternalCall: a read is captured before an external call.
	KindSnapshotBeforeExternalCall HypothesisKind = "snapshot-before-external-call"
	// KindUnvalidatedMutation: state changes with no validation in the unit.
	KindUnvalidatedMutation HypothesisKind = "unvalidated-mutation"
	// KindErrorHandling: panics or discarded errors.
	KindErrorHandling HypothesisKind = "error-handling"
	// KindSilentCommit: state is persisted without emitting an event.
	KindSilentCommit HypothesisKind = "silent-commit"
)

// MaxHypotheses is the number of live hypotheses allowed per pass.
const MaxHypotheses = 15

// ExploitRef points at a historical exploit similar to a hypothesis.
type ExploitRef struct {
	Name      string  `json:"name"`
	Year      int     `json:"year,omitempty"`
	Reference string  `json:"reference,omitempty"`
	Cost      float64 `json:"cost,omitempty"`
}

// Cost is an estimate of what it takes to exercise a hypothesis
// (gas, fees or capital) expressed in the ecosystem's cost unit.
type Cost struct {
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

// Hypothesis is a candidate vulnerability claim awaiting validation.
type Hypothesis struct {
	ID          string         `json:"id"`
	Kind        HypothesisKind `json:"kind"`
	UnitID      string         `json:"unit_id"`
	Ecosystem   Ecosystem      `json:"ecosystem"`
	Phase       Phase          `json:"phase"`
	Description string         `json:"description"`
	Exploit     *ExploitRef    `json:"exploit,omitempty"`
	Location    string         `json:"location,omitempty"`
	Cost        *Cost          `json:"cost,omitempty"`
}

// HypothesisBatch is the generator output for one pass.
type HypothesisBatch struct {
	Hypotheses []Hypothesis

	// Deferred holds candidates beyond MaxHypotheses, in priority order.
	Deferred []Hypothesis

	// NotApplicable lists rules that can not fire in an ecosystem.
	NotApplicable []RuleSkip
}

// RuleSkip records a rule whose phase is absent from an ecosystem lexicon.
type RuleSkip struct {
	Ecosystem Ecosystem
	Kind      HypothesisKind
	Phase     Phase
}

// Truncated returns how many candidates did not fit in this pass.
func (b HypothesisBatch) Truncated() int {
	return len(b.Deferred)
}
