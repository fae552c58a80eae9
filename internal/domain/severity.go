package domain

import (
	"errors"
	"fmt"
	"strings"

	m "phasegate.dev/pkg/phasegate/internal/model"
	"phasegate.dev/pkg/phasegate/internal/profile"
)

// ErrUnmappedImpact is returned for impact descriptors outside the closed
// severity enumeration. There is no default severity.
var ErrUnmappedImpact = errors.New("unmapped impact descriptor")

// SeverityClassifier maps impact descriptors to severities.
type SeverityClassifier interface {
	Classify(eco m.Ecosystem, impact m.Impact) (m.Severity, error)
}

var baseRows = []struct {
	kind       m.ImpactKind
	access     m.Access
	conditions m.Conditions
	severity   m.Severity
}{
	{m.ImpactDirectFundLoss, m.AccessPermissionless, m.ConditionsNone, m.SeverityCriticalHigh},
	{m.ImpactDirectFundLoss, m.AccessPermissionless, m.ConditionsSpecial, m.SeverityMedium},
	{m.ImpactDirectFundLoss, m.AccessPrivileged, m.ConditionsNone, m.SeverityMedium},
	{m.ImpactDirectFundLoss, m.AccessPrivileged, m.ConditionsSpecial, m.SeverityLow},
	{m.ImpactIndirectFundLoss, m.AccessPermissionless, m.ConditionsNone, m.SeverityMedium},
	{m.ImpactIndirectFundLoss, m.AccessPermissionless, m.ConditionsSpecial, m.SeverityLow},
	{m.ImpactIndirectFundLoss, m.AccessPrivileged, m.ConditionsNone, m.SeverityLow},
	{m.ImpactIndirectFundLoss, m.AccessPrivileged, m.ConditionsSpecial, m.SeverityLow},
	{m.ImpactPermanentDoS, m.AccessPermissionless, m.ConditionsNone, m.SeverityCriticalHigh},
	{m.ImpactPermanentDoS, m.AccessPermissionless, m.ConditionsSpecial, m.SeverityMedium},
	{m.ImpactPermanentDoS, m.AccessPrivileged, m.ConditionsNone, m.SeverityMedium},
	{m.ImpactPermanentDoS, m.AccessPrivileged, m.ConditionsSpecial, m.SeverityLow},
	{m.ImpactTemporaryDoS, m.AccessPermissionless, m.ConditionsNone, m.SeverityMedium},
	{m.ImpactTemporaryDoS, m.AccessPermissionless, m.ConditionsSpecial, m.SeverityLow},
	{m.ImpactTemporaryDoS, m.AccessPrivileged, m.ConditionsNone, m.SeverityLow},
	{m.ImpactTemporaryDoS, m.AccessPrivileged, m.ConditionsSpecial, m.SeverityLow},
	{m.ImpactAccessControlBypass, m.AccessPermissionless, m.ConditionsNone, m.SeverityCriticalHigh},
	{m.ImpactAccessControlBypass, m.AccessPermissionless, m.ConditionsSpecial, m.SeverityMedium},
	{m.ImpactAccessControlBypass, m.AccessPrivileged, m.ConditionsNone, m.SeverityMedium},
	{m.ImpactAccessControlBypass, m.AccessPrivileged, m.ConditionsSpecial, m.SeverityLow},
	{m.ImpactInformational, m.AccessNotApplicable, m.ConditionsNotApplicable, m.SeverityInfo},
}

func baseMatrix() map[m.Impact]m.Severity {
	matrix := make(map[m.Impact]m.Severity, len(baseRows))
	for _, row := range baseRows {
		matrix[m.Impact{Kind: row.kind, Access: row.access, Conditions: row.conditions}] = row.severity
	}

	return matrix
}

var impactKinds = map[string]m.ImpactKind{
	"direct fund loss":            m.ImpactDirectFundLoss,
	"direct loss of funds":        m.ImpactDirectFundLoss,
	"direct theft of funds":       m.ImpactDirectFundLoss,
	"theft of funds":              m.ImpactDirectFundLoss,
	"indirect fund loss":          m.ImpactIndirectFundLoss,
	"indirect loss of funds":      m.ImpactIndirectFundLoss,
	"loss of yield":               m.ImpactIndirectFundLoss,
	"permanent dos":               m.ImpactPermanentDoS,
	"permanent denial of service": m.ImpactPermanentDoS,
	"permanent freezing of funds": m.ImpactPermanentDoS,
	"temporary dos":               m.ImpactTemporaryDoS,
	"temporary denial of service": m.ImpactTemporaryDoS,
	"temporary freezing of funds": m.ImpactTemporaryDoS,
	"access control bypass":       m.ImpactAccessControlBypass,
	"unauthorized access":         m.ImpactAccessControlBypass,
	"privilege escalation":        m.ImpactAccessControlBypass,
	"informational":               m.ImpactInformational,
	"info":                        m.ImpactInformational,
}

var accessQualifiers = map[string]m.Access{
	"permissionless": m.AccessPermissionless,
	"unprivileged":   m.AccessPermissionless,
	"any user":       m.AccessPermissionless,
	"privileged":     m.AccessPrivileged,
	"admin only":     m.AccessPrivileged,
	"owner only":     m.AccessPrivileged,
}

var conditionQualifiers = map[string]m.Conditions{
	"no special conditions":       m.ConditionsNone,
	"no conditions":               m.ConditionsNone,
	"none":                        m.ConditionsNone,
	"special conditions":          m.ConditionsSpecial,
	"requires special conditions": m.ConditionsSpecial,
	"special":                     m.ConditionsSpecial,
}

func normalize(s string) string {
	s = strings.NewReplacer("-", " ", "_", " ").Replace(strings.ToLower(s))
	return strings.Join(strings.Fields(s), " ")
}

// ParseImpact parses a free-text descriptor of the form
// "<impact>, <access>, <conditions>", for example
// "direct fund loss, permissionless, no special conditions". Qualifiers may
// come in any order. "informational" takes none.
func ParseImpact(descriptor string) (m.Impact, error) {
	parts := strings.Split(descriptor, ",")

	kind, ok := impactKinds[normalize(parts[0])]
	if !ok {
		return m.Impact{}, fmt.Errorf("%w: %q", ErrUnmappedImpact, descriptor)
	}

	impact := m.Impact{Kind: kind}

	if kind == m.ImpactInformational {
		if len(parts) > 1 {
			return m.Impact{}, fmt.Errorf("%w: informational takes no qualifiers: %q", ErrUnmappedImpact, descriptor)
		}

		impact.Access = m.AccessNotApplicable
		impact.Conditions = m.ConditionsNotApplicable

		return impact, nil
	}

	for _, part := range parts[1:] {
		q := normalize(part)

		if access, ok := accessQualifiers[q]; ok && impact.Access == "" {
			impact.Access = access
			continue
		}

		if conditions, ok := conditionQualifiers[q]; ok && impact.Conditions == "" {
			impact.Conditions = conditions
			continue
		}

		return m.Impact{}, fmt.Errorf("%w: qualifier %q in %q", ErrUnmappedImpact, strings.TrimSpace(part), descriptor)
	}

	if impact.Access == "" || impact.Conditions == "" {
		return m.Impact{}, fmt.Errorf("%w: %q needs both access and conditions", ErrUnmappedImpact, descriptor)
	}

	return impact, nil
}

type matrixClassifier struct {
	base      map[m.Impact]m.Severity
	overrides map[m.Ecosystem]map[m.Impact]m.Severity
}

// NewSeverityClassifier builds the base matrix and the per-ecosystem
// overrides of every profile in the registry.
func NewSeverityClassifier(profiles *profile.Registry) (SeverityClassifier, error) {
	c := &matrixClassifier{
		base:      baseMatrix(),
		overrides: make(map[m.Ecosystem]map[m.Impact]m.Severity),
	}

	for _, p := range profiles.All() {
		for _, o := range p.SeverityOverrides {
			impact, err := ParseImpact(o.Impact)
			if err != nil {
				return nil, fmt.Errorf("profile %s: %w", p.Ecosystem, err)
			}

			severity, err := m.ParseSeverity(o.Severity)
			if err != nil {
				return nil, fmt.Errorf("profile %s: %w", p.Ecosystem, err)
			}

			if c.overrides[p.Ecosystem] == nil {
				c.overrides[p.Ecosystem] = make(map[m.Impact]m.Severity)
			}

			c.overrides[p.Ecosystem][impact] = severity
		}
	}

	return c, nil
}

// Classify looks the impact up, ecosystem override first.
func (c *matrixClassifier) Classify(eco m.Ecosystem, impact m.Impact) (m.Severity, error) {
	if severity, ok := c.overrides[eco][impact]; ok {
		return severity, nil
	}

	severity, ok := c.base[impact]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnmappedImpact, impact)
	}

	return severity, nil
}
