// Package predicates implements the four validation gate checks. Each
// predicate is evaluated in isolation and answers true, false or unknown;
// unknown is returned whenever the corpus does not hold enough evidence.
package predicates

import (
	"regexp"
	"sort"

	m "phasegate.dev/pkg/phasegate/internal/model"
	"phasegate.dev/pkg/phasegate/internal/profile"
)

// Corpus is the read-only view of the classified units a predicate needs.
type Corpus interface {
	Unit(id string) (m.CodeUnit, bool)
	Units() []m.CodeUnit
	ByName(eco m.Ecosystem, name string) []m.CodeUnit
	Classification(id string) (m.Classification, bool)
	Profile(eco m.Ecosystem) (*profile.Profile, error)
}

// CallSite is one external call matched in a unit's text.
type CallSite struct {
	Offset int
	Target string
	Match  string
}

// ExternalCalls returns the external call sites of text in offset order.
// Target is the "target" submatch of the profile pattern, empty when the
// pattern does not name one.
func ExternalCalls(p *profile.Profile, text string) []CallSite {
	var sites []CallSite

	for _, re := range p.ExternalCalls {
		target := re.SubexpIndex("target")

		for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
			site := CallSite{Offset: loc[0], Match: text[loc[0]:loc[1]]}
			if target > 0 && loc[2*target] >= 0 {
				site.Target = text[loc[2*target]:loc[2*target+1]]
			}

			sites = append(sites, site)
		}
	}

	sort.SliceStable(sites, func(i, j int) bool { return sites[i].Offset < sites[j].Offset })

	return sites
}

var callPattern = regexp.MustCompile(`\b([A-Za-z_]\w*)\s*\(`)

// Callees returns the corpus units a unit calls by name, in order of first
// call. Builtins and the unit itself are skipped.
func Callees(c Corpus, u m.CodeUnit) []m.CodeUnit {
	p, err := c.Profile(u.Ecosystem)
	if err != nil {
		return nil
	}

	var (
		out  []m.CodeUnit
		seen = map[string]struct{}{u.ID: {}}
	)

	for _, match := range callPattern.FindAllStringSubmatch(u.Text, -1) {
		name := match[1]
		if p.IsBuiltin(name) {
			continue
		}

		for _, callee := range c.ByName(u.Ecosystem, name) {
			if _, ok := seen[callee.ID]; ok {
				continue
			}

			seen[callee.ID] = struct{}{}
			out = append(out, callee)
		}
	}

	return out
}

func before(offsets []int, pos int) (int, bool) {
	for _, o := range offsets {
		if o < pos {
			return o, true
		}
	}

	return 0, false
}

func after(offsets []int, pos int) (int, bool) {
	for _, o := range offsets {
		if o > pos {
			return o, true
		}
	}

	return 0, false
}
