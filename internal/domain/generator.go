package domain

import (
	"fmt"
	"sort"

	"phasegate.dev/pkg/phasegate/internal/domain/predicates"
	m "phasegate.dev/pkg/phasegate/internal/model"
	"phasegate.dev/pkg/phasegate/internal/profile"
)

// Generator turns classified units into ordered hypotheses.
type Generator interface {
	Generate(units []m.CodeUnit, classes map[string]m.Classification) m.HypothesisBatch
}

// rule produces at most one hypothesis per unit.
type rule struct {
	kind  m.HypothesisKind
	phase m.Phase
	// needs lists the phases the ecosystem lexicon must define for the rule
	// to be applicable at all.
	needs []m.Phase
	match func(u m.CodeUnit, cls m.Classification, p *profile.Profile) (string, bool)
}

var rules = []rule{
	{
		kind:  m.KindValidationAfterMutation,
		phase: m.PhaseMutation,
		needs: []m.Phase{m.PhaseValidation, m.PhaseMutation},
		match: func(u m.CodeUnit, cls m.Classification, _ *profile.Profile) (string, bool) {
			mut, okMut := cls.First(m.PhaseMutation)
			val, okVal := cls.First(m.PhaseValidation)

			if !okMut || !okVal || mut >= val {
				return "", false
			}

			return fmt.Sprintf("validation after mutation in %s: state is mutated at +%d before the check at +%d", u.Name, mut, val), true
		},
	},
	{
		kind:  m.KindMixedValidationMutation,
		phase: m.PhaseValidation,
		needs: []m.Phase{m.PhaseValidation, m.PhaseMutation},
		match: func(u m.CodeUnit, cls m.Classification, _ *profile.Profile) (string, bool) {
			mut, okMut := cls.First(m.PhaseMutation)
			val, okVal := cls.First(m.PhaseValidation)

			if !okMut || !okVal || mut < val {
				return "", false
			}

			return fmt.Sprintf("%s mixes validation and mutation; confirm every path validates before it mutates", u.Name), true
		},
	},
	{
		kind:  m.KindSnapshotBeforeExternalCall,
		phase: m.PhaseSnapshot,
		needs: []m.Phase{m.PhaseSnapshot},
		match: func(u m.CodeUnit, cls m.Classification, p *profile.Profile) (string, bool) {
			read, ok := cls.First(m.PhaseSnapshot)
			if !ok {
				return "", false
			}

			for _, call := range predicates.ExternalCalls(p, u.Text) {
				if read < call.Offset {
					return fmt.Sprintf("%s captures state before external call %q", u.Name, call.Match), true
				}
			}

			return "", false
		},
	},
	{
		kind:  m.KindUnvalidatedMutation,
		phase: m.PhaseMutation,
		needs: []m.Phase{m.PhaseValidation, m.PhaseMutation, m.PhaseCommit},
		match: func(u m.CodeUnit, cls m.Classification, _ *profile.Profile) (string, bool) {
			if cls.Has(m.PhaseValidation) || (!cls.Has(m.PhaseMutation) && !cls.Has(m.PhaseCommit)) {
				return "", false
			}

			return fmt.Sprintf("%s changes state without any validation", u.Name), true
		},
	},
	{
		kind:  m.KindErrorHandling,
		phase: m.PhaseError,
		needs: []m.Phase{m.PhaseError},
		match: func(u m.CodeUnit, cls m.Classification, _ *profile.Profile) (string, bool) {
			for _, hit := range cls.Hits {
				if hit.Phase == m.PhaseError {
					return fmt.Sprintf("%s panics or discards an error at %q", u.Name, hit.Match), true
				}
			}

			return "", false
		},
	},
	{
		kind:  m.KindSilentCommit,
		phase: m.PhaseCommit,
		needs: []m.Phase{m.PhaseCommit, m.PhaseEvents},
		match: func(u m.CodeUnit, cls m.Classification, _ *profile.Profile) (string, bool) {
			if !cls.Has(m.PhaseCommit) || cls.Has(m.PhaseEvents) {
				return "", false
			}

			return fmt.Sprintf("%s commits state without emitting an event", u.Name), true
		},
	},
}

type hypothesisGenerator struct {
	profiles *profile.Registry
}

// NewGenerator returns a Generator using the exploit and cost tables of
// the registry.
func NewGenerator(profiles *profile.Registry) Generator {
	return &hypothesisGenerator{profiles: profiles}
}

type candidate struct {
	hypothesis m.Hypothesis
	priority   int
}

// Generate evaluates every rule against every unit. Units whose phases
// include both VALIDATION and MUTATION come first, then declaration order,
// then rule order. At most MaxHypotheses are admitted; the rest are
// returned as Deferred with their IDs already assigned.
func (g *hypothesisGenerator) Generate(units []m.CodeUnit, classes map[string]m.Classification) m.HypothesisBatch {
	ordered := make([]m.CodeUnit, len(units))
	copy(ordered, units)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	var (
		batch      m.HypothesisBatch
		candidates []candidate
		checked    = make(map[m.Ecosystem]struct{})
	)

	for _, u := range ordered {
		p, err := g.profiles.Get(u.Ecosystem)
		if err != nil {
			continue
		}

		if _, ok := checked[u.Ecosystem]; !ok {
			checked[u.Ecosystem] = struct{}{}
			batch.NotApplicable = append(batch.NotApplicable, notApplicable(p)...)
		}

		cls := classes[u.ID]

		priority := 1
		if cls.Has(m.PhaseValidation) && cls.Has(m.PhaseMutation) {
			priority = 0
		}

		for _, r := range rules {
			if !applicable(p, r) {
				continue
			}

			description, ok := r.match(u, cls, p)
			if !ok {
				continue
			}

			h := m.Hypothesis{
				Kind:        r.kind,
				UnitID:      u.ID,
				Ecosystem:   u.Ecosystem,
				Phase:       r.phase,
				Description: description,
				Location:    u.Location(),
			}

			if ref, ok := p.ExploitFor(r.kind); ok {
				h.Exploit = ref
			}

			if cost, ok := p.CostFor(r.kind); ok {
				h.Cost = cost
			}

			candidates = append(candidates, candidate{hypothesis: h, priority: priority})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].priority < candidates[j].priority })

	for i, c := range candidates {
		h := c.hypothesis
		h.ID = fmt.Sprintf("H-%02d", i+1)

		if i < m.MaxHypotheses {
			batch.Hypotheses = append(batch.Hypotheses, h)
		} else {
			batch.Deferred = append(batch.Deferred, h)
		}
	}

	return batch
}

func applicable(p *profile.Profile, r rule) bool {
	for _, phase := range r.needs {
		if !p.HasPhase(phase) {
			return false
		}
	}

	return true
}

func notApplicable(p *profile.Profile) []m.RuleSkip {
	var out []m.RuleSkip

	for _, r := range rules {
		for _, phase := range r.needs {
			if !p.HasPhase(phase) {
				out = append(out, m.RuleSkip{Ecosystem: p.Ecosystem, Kind: r.kind, Phase: phase})
				break
			}
		}
	}

	return out
}
