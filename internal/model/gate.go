package model

// Check is a tri-state predicate outcome. The zero value is CheckUnknown so
// a predicate that never ran can not be mistaken for a pass.
type Check int

const (
	// CheckUnknown means the evidence needed to decide is unavailable.
	CheckUnknown Check = iota
	// CheckTrue means the predicate holds.
	CheckTrue
	// CheckFalse means the predicate is disproved.
	CheckFalse
)

func (c Check) String() string {
	switch c {
	case CheckTrue:
		return "true"
	case CheckFalse:
		return "false"
	case CheckUnknown:
		return "unknown"
	}

	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (c Check) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Check) UnmarshalText(text []byte) error {
	switch string(text) {
	case "true":
		*c = CheckTrue
	case "false":
		*c = CheckFalse
	default:
		*c = CheckUnknown
	}

	return nil
}

// Evidence is a predicate outcome with the reason behind it.
type Evidence struct {
	Value  Check  `json:"value"`
	Reason string `json:"reason"`
}

// Known returns evidence for a decided predicate.
func Known(ok bool, reason string) Evidence {
	if ok {
		return Evidence{Value: CheckTrue, Reason: reason}
	}

	return Evidence{Value: CheckFalse, Reason: reason}
}

// Unknown returns evidence for an undecidable predicate.
func Unknown(reason string) Evidence {
	return Evidence{Value: CheckUnknown, Reason: reason}
}

// Verdict is the overall gate outcome.
type Verdict string

const (
	VerdictValid        Verdict = "Valid"
	VerdictInvalid      Verdict = "Invalid"
	VerdictInconclusive Verdict = "Inconclusive"
)

// GateResult is the evaluation of one hypothesis by the validation gate.
type GateResult struct {
	HypothesisID     string   `json:"hypothesis_id"`
	Reachability     Evidence `json:"reachability"`
	StateFreshness   Evidence `json:"state_freshness"`
	ExecutionClosure Evidence `json:"execution_closure"`
	EconomicRealism  Evidence `json:"economic_realism"`
	Verdict          Verdict  `json:"verdict"`
}

// NamedChecks returns the four checks in their canonical order.
func (g GateResult) NamedChecks() []NamedEvidence {
	return []NamedEvidence{
		{Name: "Reachability", Evidence: g.Reachability},
		{Name: "State Freshness", Evidence: g.StateFreshness},
		{Name: "Execution Closure", Evidence: g.ExecutionClosure},
		{Name: "Economic Realism", Evidence: g.EconomicRealism},
	}
}

// NamedEvidence pairs a check name with its evidence.
type NamedEvidence struct {
	Name string
	Evidence
}

// Decide computes the verdict from the four checks: any unknown forces
// Inconclusive, otherwise Valid requires all four to be true.
func (g GateResult) Decide() Verdict {
	allTrue := true

	for _, c := range g.NamedChecks() {
		switch c.Value {
		case CheckUnknown:
			return VerdictInconclusive
		case CheckFalse:
			allTrue = false
		case CheckTrue:
		}
	}

	if allTrue {
		return VerdictValid
	}

	return VerdictInvalid
}
