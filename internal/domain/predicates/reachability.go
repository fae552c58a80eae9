package predicates

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"phasegate.dev/pkg/phasegate/internal/adapter"
	m "phasegate.dev/pkg/phasegate/internal/model"
)

// Reachability checks that the hypothesis unit can be entered from a
// declared entry point and that the code the hypothesis is about is not
// disabled by an always-false guard in the unit's own text.
func Reachability(h m.Hypothesis, c Corpus) m.Evidence {
	u, ok := c.Unit(h.UnitID)
	if !ok {
		return m.Unknown(fmt.Sprintf("unit %s is not in the corpus", h.UnitID))
	}

	p, err := c.Profile(u.Ecosystem)
	if err != nil {
		return m.Unknown(err.Error())
	}

	if match, ok := disabledBy(p.AlwaysFalseGuards, u, guardedOffsets(h, c, u)); ok {
		return m.Known(false, fmt.Sprintf("%s is behind always-false guard %q", u.Name, match))
	}

	if u.Kind.IsEntry() {
		return m.Known(true, fmt.Sprintf("%s is declared %s", u.Name, u.Kind))
	}

	if entry, ok := reachedFrom(c, u); ok {
		return m.Known(true, fmt.Sprintf("%s is called from entry point %s", u.Name, entry.Name))
	}

	switch u.Kind {
	case m.KindInternal, m.KindPrivate:
		return m.Known(false, fmt.Sprintf("%s is %s and no entry point calls it", u.Name, u.Kind))
	case m.KindPublic, m.KindExternal, m.KindEntrypoint, m.KindUnknown:
	}

	return m.Unknown(fmt.Sprintf("visibility of %s is unknown and no entry point calls it", u.Name))
}

// reachedFrom runs a breadth-first search over call edges starting at every
// entry point of the unit's ecosystem.
func reachedFrom(c Corpus, target m.CodeUnit) (m.CodeUnit, bool) {
	for _, entry := range c.Units() {
		if entry.Ecosystem != target.Ecosystem || !entry.Kind.IsEntry() {
			continue
		}

		visited := map[string]struct{}{entry.ID: {}}
		queue := []m.CodeUnit{entry}

		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]

			for _, callee := range Callees(c, current) {
				if callee.ID == target.ID {
					return entry, true
				}

				if _, ok := visited[callee.ID]; ok {
					continue
				}

				visited[callee.ID] = struct{}{}
				queue = append(queue, callee)
			}
		}
	}

	return m.CodeUnit{}, false
}

// guardedOffsets returns the offsets the hypothesis depends on: the hits of
// its phase, or every hit when it names none.
func guardedOffsets(h m.Hypothesis, c Corpus, u m.CodeUnit) []int {
	cls, ok := c.Classification(u.ID)
	if !ok {
		return nil
	}

	if h.Phase != "" {
		if offsets := cls.Offsets(h.Phase); len(offsets) > 0 {
			return offsets
		}
	}

	offsets := make([]int, 0, len(cls.Hits))
	for _, hit := range cls.Hits {
		offsets = append(offsets, hit.Offset)
	}

	return offsets
}

// disabledBy reports the first guard match when every offset falls inside
// some guarded span. A guard elsewhere in the unit does not disable it.
func disabledBy(guards []*regexp.Regexp, u m.CodeUnit, offsets []int) (string, bool) {
	if len(offsets) == 0 {
		return "", false
	}

	type span struct {
		start, end int
		match      string
	}

	var spans []span

	for _, guard := range guards {
		for _, loc := range guard.FindAllStringIndex(u.Text, -1) {
			spans = append(spans, span{
				start: loc[0],
				end:   guardedEnd(u.Ecosystem, u.Text, loc),
				match: u.Text[loc[0]:loc[1]],
			})
		}
	}

	first := ""

	for _, off := range offsets {
		covered := false

		for _, s := range spans {
			if off >= s.start && off < s.end {
				covered = true

				if first == "" {
					first = s.match
				}

				break
			}
		}

		if !covered {
			return "", false
		}
	}

	return first, first != ""
}

// guardedEnd returns the end of the code a guard match disables. A guard
// opening a block covers that block and a call-style guard covers its
// arguments. A braceless if covers the rest of its statement. Anything
// else (require(false), assert(false)) aborts, so the remainder of the
// unit is dead.
func guardedEnd(eco m.Ecosystem, text string, loc []int) int {
	match := text[loc[0]:loc[1]]

	if i := strings.IndexByte(match, '{'); i >= 0 {
		return adapter.MatchClosing(eco, text, loc[0]+i)
	}

	if strings.HasPrefix(match, "If") {
		if i := strings.IndexByte(match, '('); i >= 0 {
			return adapter.MatchClosing(eco, text, loc[0]+i)
		}
	}

	if strings.HasPrefix(match, "if") {
		next := loc[1] + len(text[loc[1]:]) - len(strings.TrimLeftFunc(text[loc[1]:], unicode.IsSpace))
		if next < len(text) && text[next] == '{' {
			return adapter.MatchClosing(eco, text, next)
		}

		if end := strings.IndexByte(text[loc[1]:], ';'); end >= 0 {
			return loc[1] + end + 1
		}
	}

	return len(text)
}
