package predicates

import (
	"fmt"

	m "phasegate.dev/pkg/phasegate/internal/model"
)

// ExecutionClosure checks that every external call reachable from the unit
// resolves to a classified unit of the corpus. It never answers false: an
// unresolved call leaves the hypothesis open.
func ExecutionClosure(h m.Hypothesis, c Corpus) m.Evidence {
	u, ok := c.Unit(h.UnitID)
	if !ok {
		return m.Unknown(fmt.Sprintf("unit %s is not in the corpus", h.UnitID))
	}

	resolved := 0

	if open, ok := openCall(c, u, map[string]struct{}{}, &resolved); ok {
		return m.Unknown(open)
	}

	if resolved == 0 {
		return m.Known(true, fmt.Sprintf("%s makes no external calls", u.Name))
	}

	return m.Known(true, fmt.Sprintf("%d external call(s) resolve to classified units", resolved))
}

func openCall(c Corpus, u m.CodeUnit, visited map[string]struct{}, resolved *int) (string, bool) {
	visited[u.ID] = struct{}{}

	p, err := c.Profile(u.Ecosystem)
	if err != nil {
		return err.Error(), true
	}

	next := Callees(c, u)

	for _, call := range ExternalCalls(p, u.Text) {
		if call.Target == "" {
			return fmt.Sprintf("external call %q in %s has no resolvable target", call.Match, u.Name), true
		}

		targets := classified(c, c.ByName(u.Ecosystem, call.Target))
		if len(targets) == 0 {
			return fmt.Sprintf("external call %q in %s has no classified definition in the corpus", call.Match, u.Name), true
		}

		*resolved++

		next = append(next, targets...)
	}

	for _, callee := range next {
		if _, seen := visited[callee.ID]; seen {
			continue
		}

		if reason, open := openCall(c, callee, visited, resolved); open {
			return reason, true
		}
	}

	return "", false
}

func classified(c Corpus, units []m.CodeUnit) []m.CodeUnit {
	var out []m.CodeUnit

	for _, u := range units {
		if cls, ok := c.Classification(u.ID); ok && !cls.Unclassified() {
			out = append(out, u)
		}
	}

	return out
}
