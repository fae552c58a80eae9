package model

import (
	"errors"
	"fmt"
	"strings"
)

// Severity is the ordinal severity of a finding.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityLow
	SeverityMedium
	SeverityCriticalHigh
)

var severityNames = map[Severity]string{
	SeverityInfo:         "INFO",
	SeverityLow:          "LOW",
	SeverityMedium:       "MEDIUM",
	SeverityCriticalHigh: "CRITICAL/HIGH",
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}

	return fmt.Sprintf("Severity(%d)", int(s))
}

// ErrUnknownSeverity is returned when a severity name can not be parsed.
var ErrUnknownSeverity = errors.New("unknown severity")

// ParseSeverity accepts the canonical names plus CRITICAL and HIGH.
func ParseSeverity(name string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "CRITICAL/HIGH", "CRITICAL", "HIGH":
		return SeverityCriticalHigh, nil
	case "MEDIUM":
		return SeverityMedium, nil
	case "LOW":
		return SeverityLow, nil
	case "INFO", "INFORMATIONAL":
		return SeverityInfo, nil
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownSeverity, name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}

	*s = parsed

	return nil
}

// ImpactKind is the primary impact category.
type ImpactKind string

const (
	ImpactDirectFundLoss      ImpactKind = "direct-fund-loss"
	ImpactIndirectFundLoss    ImpactKind = "indirect-fund-loss"
	ImpactPermanentDoS        ImpactKind = "permanent-dos"
	ImpactTemporaryDoS        ImpactKind = "temporary-dos"
	ImpactAccessControlBypass ImpactKind = "access-control-bypass"
	ImpactInformational       ImpactKind = "informational"
)

// Access describes who can trigger the impact.
type Access string

const (
	AccessPermissionless Access = "permissionless"
	AccessPrivileged     Access = "privileged"
	// AccessNotApplicable is only valid for informational impacts.
	AccessNotApplicable Access = "n/a"
)

// Conditions describes the preconditions the impact needs.
type Conditions string

const (
	ConditionsNone    Conditions = "none"
	ConditionsSpecial Conditions = "special"
	// ConditionsNotApplicable is only valid for informational impacts.
	ConditionsNotApplicable Conditions = "n/a"
)

// Impact is a closed impact descriptor used as the severity lookup key.
type Impact struct {
	Kind       ImpactKind `json:"kind" yaml:"kind"`
	Access     Access     `json:"access" yaml:"access"`
	Conditions Conditions `json:"conditions" yaml:"conditions"`
}

func (i Impact) String() string {
	return fmt.Sprintf("%s/%s/%s", i.Kind, i.Access, i.Conditions)
}

// Finding is a gate-passed, severity-tagged hypothesis ready for reporting.
type Finding struct {
	Hypothesis Hypothesis `json:"hypothesis"`
	Severity   Severity   `json:"severity"`
	Impact     Impact     `json:"impact"`
	Location   string     `json:"location"`
	RootCause  string     `json:"root_cause"`
	Mitigation string     `json:"mitigation,omitempty"`
	Gate       GateResult `json:"gate"`
}

// Title returns a one-line headline for the finding.
func (f Finding) Title() string {
	return fmt.Sprintf("[%s] %s", f.Severity, f.Hypothesis.Description)
}
