// Package profile loads the per-ecosystem reference data that drives the
// review pipeline: the phase lexicon, external call patterns, historical
// exploit table, cost estimates and severity overrides.
package profile

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"

	m "phasegate.dev/pkg/phasegate/internal/model"
)

// Exploit is one row of the historical exploit table.
type Exploit struct {
	Kind      m.HypothesisKind `yaml:"kind" validate:"required"`
	Name      string           `yaml:"name" validate:"required"`
	Year      int              `yaml:"year" validate:"omitempty,gte=2009"`
	Reference string           `yaml:"reference"`
	Cost      float64          `yaml:"cost" validate:"gte=0"`
}

// SeverityOverride replaces one cell of the base severity matrix.
type SeverityOverride struct {
	Impact   string `yaml:"impact" validate:"required"`
	Severity string `yaml:"severity" validate:"required"`
}

// Document is the on-disk YAML shape of a profile.
type Document struct {
	Ecosystem         string                       `yaml:"ecosystem" validate:"required,oneof=solidity cosmwasm cosmos cairo pyteal"`
	Name              string                       `yaml:"name" validate:"required"`
	Extensions        []string                     `yaml:"extensions" validate:"required,min=1,dive,startswith=."`
	CostUnit          string                       `yaml:"cost_unit" validate:"required"`
	DefaultThreshold  float64                      `yaml:"default_threshold" validate:"gte=0"`
	Lexicon           map[m.Phase][]string         `yaml:"lexicon" validate:"required,min=1,dive,keys,oneof=SNAPSHOT ACCOUNTING VALIDATION MUTATION COMMIT EVENTS ERROR,endkeys,min=1,dive,required"`
	ExternalCalls     []string                     `yaml:"external_calls" validate:"dive,required"`
	AlwaysFalseGuards []string                     `yaml:"always_false_guards" validate:"dive,required"`
	Builtins          []string                     `yaml:"builtins"`
	Exploits          []Exploit                    `yaml:"exploits" validate:"dive"`
	Costs             map[m.HypothesisKind]float64 `yaml:"costs"`
	Impacts           map[m.HypothesisKind]string  `yaml:"impacts"`
	Mitigations       map[m.HypothesisKind]string  `yaml:"mitigations"`
	SeverityOverrides []SeverityOverride           `yaml:"severity_overrides" validate:"dive"`
}

// Pattern is a compiled lexicon entry.
type Pattern struct {
	Phase  m.Phase
	Source string
	re     *regexp.Regexp
}

// Profile is a validated, compiled ecosystem profile.
type Profile struct {
	Ecosystem         m.Ecosystem
	Name              string
	Extensions        []string
	CostUnit          string
	DefaultThreshold  float64
	Lexicon           []Pattern
	ExternalCalls     []*regexp.Regexp
	AlwaysFalseGuards []*regexp.Regexp
	Builtins          map[string]struct{}
	Exploits          []Exploit
	Costs             map[m.HypothesisKind]float64
	Impacts           map[m.HypothesisKind]string
	Mitigations       map[m.HypothesisKind]string
	SeverityOverrides []SeverityOverride
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the document against its schema tags.
func (d Document) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("invalid profile %q: %w", d.Ecosystem, err)
	}

	return nil
}

// Compile validates the document and compiles every pattern.
func Compile(doc Document) (*Profile, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	eco, err := m.ParseEcosystem(doc.Ecosystem)
	if err != nil {
		return nil, err
	}

	p := &Profile{
		Ecosystem:         eco,
		Name:              doc.Name,
		Extensions:        doc.Extensions,
		CostUnit:          doc.CostUnit,
		DefaultThreshold:  doc.DefaultThreshold,
		Builtins:          make(map[string]struct{}, len(doc.Builtins)),
		Exploits:          doc.Exploits,
		Costs:             doc.Costs,
		Impacts:           doc.Impacts,
		Mitigations:       doc.Mitigations,
		SeverityOverrides: doc.SeverityOverrides,
	}

	// Lexicon is compiled in taxonomy order so classification output is
	// independent of map iteration order.
	for _, phase := range m.Phases() {
		for _, src := range doc.Lexicon[phase] {
			re, err := regexp.Compile(src)
			if err != nil {
				return nil, fmt.Errorf("profile %s: %s pattern %q: %w", eco, phase, src, err)
			}

			p.Lexicon = append(p.Lexicon, Pattern{Phase: phase, Source: src, re: re})
		}
	}

	if p.ExternalCalls, err = compileAll(eco, "external call", doc.ExternalCalls); err != nil {
		return nil, err
	}

	if p.AlwaysFalseGuards, err = compileAll(eco, "guard", doc.AlwaysFalseGuards); err != nil {
		return nil, err
	}

	for _, b := range doc.Builtins {
		p.Builtins[b] = struct{}{}
	}

	return p, nil
}

func compileAll(eco m.Ecosystem, what string, sources []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(sources))

	for _, src := range sources {
		re, err := regexp.Compile(src)
		if err != nil {
			return nil, fmt.Errorf("profile %s: %s pattern %q: %w", eco, what, src, err)
		}

		out = append(out, re)
	}

	return out, nil
}

// Regexp returns the compiled expression of a lexicon pattern.
func (p Pattern) Regexp() *regexp.Regexp {
	return p.re
}

// HasPhase reports whether the lexicon has any pattern for the phase.
func (p *Profile) HasPhase(phase m.Phase) bool {
	for _, pat := range p.Lexicon {
		if pat.Phase == phase {
			return true
		}
	}

	return false
}

// ExploitFor returns the first exploit in the table with the given kind.
func (p *Profile) ExploitFor(kind m.HypothesisKind) (*m.ExploitRef, bool) {
	for _, e := range p.Exploits {
		if e.Kind == kind {
			return &m.ExploitRef{Name: e.Name, Year: e.Year, Reference: e.Reference, Cost: e.Cost}, true
		}
	}

	return nil, false
}

// CostFor returns the cost estimate for a hypothesis kind. A matching
// exploit's recorded cost wins over the profile default.
func (p *Profile) CostFor(kind m.HypothesisKind) (*m.Cost, bool) {
	if ref, ok := p.ExploitFor(kind); ok && ref.Cost > 0 {
		return &m.Cost{Amount: ref.Cost, Unit: p.CostUnit}, true
	}

	amount, ok := p.Costs[kind]
	if !ok {
		return nil, false
	}

	return &m.Cost{Amount: amount, Unit: p.CostUnit}, true
}

// IsBuiltin reports whether a call target is a language builtin.
func (p *Profile) IsBuiltin(name string) bool {
	_, ok := p.Builtins[name]
	return ok
}
