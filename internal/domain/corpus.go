package domain

import (
	"log/slog"
	"sort"

	m "phasegate.dev/pkg/phasegate/internal/model"
	"phasegate.dev/pkg/phasegate/internal/profile"
)

// Corpus is the classified set of code units of one audit pass. It is
// built once and read by the generator and every gate predicate.
type Corpus struct {
	units    []m.CodeUnit
	byID     map[string]int
	byName   map[m.Ecosystem]map[string][]int
	classes  map[string]m.Classification
	profiles *profile.Registry
}

// NewCorpus classifies every unit and indexes the result. Units are kept
// in their Order.
func NewCorpus(profiles *profile.Registry, classifier Classifier, units []m.CodeUnit) *Corpus {
	sorted := make([]m.CodeUnit, len(units))
	copy(sorted, units)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	c := &Corpus{
		units:    sorted,
		byID:     make(map[string]int, len(sorted)),
		byName:   make(map[m.Ecosystem]map[string][]int),
		classes:  make(map[string]m.Classification, len(sorted)),
		profiles: profiles,
	}

	for i, u := range sorted {
		if _, dup := c.byID[u.ID]; dup {
			slog.Warn("duplicate unit id", "id", u.ID)
			continue
		}

		c.byID[u.ID] = i

		names, ok := c.byName[u.Ecosystem]
		if !ok {
			names = make(map[string][]int)
			c.byName[u.Ecosystem] = names
		}

		names[u.Name] = append(names[u.Name], i)
		c.classes[u.ID] = classifier.Classify(u)
	}

	return c
}

// Units returns the units in declaration order.
func (c *Corpus) Units() []m.CodeUnit {
	return c.units
}

// Len returns the number of units.
func (c *Corpus) Len() int {
	return len(c.units)
}

// Unit looks a unit up by ID.
func (c *Corpus) Unit(id string) (m.CodeUnit, bool) {
	i, ok := c.byID[id]
	if !ok {
		return m.CodeUnit{}, false
	}

	return c.units[i], true
}

// ByName returns the units of an ecosystem declared with the given name.
func (c *Corpus) ByName(eco m.Ecosystem, name string) []m.CodeUnit {
	idx := c.byName[eco][name]
	out := make([]m.CodeUnit, 0, len(idx))

	for _, i := range idx {
		out = append(out, c.units[i])
	}

	return out
}

// Classification returns the phase classification of a unit.
func (c *Corpus) Classification(id string) (m.Classification, bool) {
	cls, ok := c.classes[id]
	return cls, ok
}

// Classifications returns the classification of every unit, keyed by ID.
func (c *Corpus) Classifications() map[string]m.Classification {
	return c.classes
}

// Profile returns the profile of an ecosystem.
func (c *Corpus) Profile(eco m.Ecosystem) (*profile.Profile, error) {
	return c.profiles.Get(eco)
}

// Ecosystems returns the ecosystems present, in order of first appearance.
func (c *Corpus) Ecosystems() []m.Ecosystem {
	var (
		out  []m.Ecosystem
		seen = make(map[m.Ecosystem]struct{})
	)

	for _, u := range c.units {
		if _, ok := seen[u.Ecosystem]; ok {
			continue
		}

		seen[u.Ecosystem] = struct{}{}
		out = append(out, u.Ecosystem)
	}

	return out
}

// Unclassified returns the IDs of units no lexicon pattern matched.
func (c *Corpus) Unclassified() []string {
	var out []string

	for _, u := range c.units {
		if c.classes[u.ID].Unclassified() {
			out = append(out, u.ID)
		}
	}

	return out
}
