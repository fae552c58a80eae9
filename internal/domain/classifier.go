package domain

import (
	"log/slog"

	m "phasegate.dev/pkg/phasegate/internal/model"
	"phasegate.dev/pkg/phasegate/internal/profile"
)

// Classifier assigns semantic phases to code units.
type Classifier interface {
	Classify(unit m.CodeUnit) m.Classification
}

type lexiconClassifier struct {
	profiles *profile.Registry
}

// NewClassifier returns a Classifier driven by the ecosystem lexicons of
// the registry.
func NewClassifier(profiles *profile.Registry) Classifier {
	return &lexiconClassifier{profiles: profiles}
}

// Classify matches the unit text against its ecosystem lexicon. A unit
// without a profile or without any match comes back unclassified, which
// means it needs manual review.
func (c *lexiconClassifier) Classify(unit m.CodeUnit) m.Classification {
	p, err := c.profiles.Get(unit.Ecosystem)
	if err != nil {
		slog.Debug("no profile for unit", "unit", unit.ID, "error", err)
		return m.NewClassification(unit.ID, nil)
	}

	var hits []m.PhaseHit

	for _, pat := range p.Lexicon {
		for _, loc := range pat.Regexp().FindAllStringIndex(unit.Text, -1) {
			hits = append(hits, m.PhaseHit{
				Phase:  pat.Phase,
				Offset: loc[0],
				Match:  unit.Text[loc[0]:loc[1]],
			})
		}
	}

	return m.NewClassification(unit.ID, hits)
}
