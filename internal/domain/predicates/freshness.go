package predicates

import (
	"fmt"

	m "phasegate.dev/pkg/phasegate/internal/model"
)

// StateFreshness checks that no snapshot read is used across an external
// call that can change the underlying state. A unit is stale when a
// SNAPSHOT precedes an external call and a MUTATION or COMMIT follows it.
// Callees in the corpus are checked the same way.
func StateFreshness(h m.Hypothesis, c Corpus) m.Evidence {
	u, ok := c.Unit(h.UnitID)
	if !ok {
		return m.Unknown(fmt.Sprintf("unit %s is not in the corpus", h.UnitID))
	}

	if reason, stale := staleRead(c, u, map[string]struct{}{}); stale {
		return m.Known(false, reason)
	}

	return m.Known(true, fmt.Sprintf("no snapshot in %s is read across an external call", u.Name))
}

func staleRead(c Corpus, u m.CodeUnit, visited map[string]struct{}) (string, bool) {
	visited[u.ID] = struct{}{}

	cls, ok := c.Classification(u.ID)
	if !ok {
		return "", false
	}

	p, err := c.Profile(u.Ecosystem)
	if err != nil {
		return "", false
	}

	snapshots := cls.Offsets(m.PhaseSnapshot)
	writes := append(cls.Offsets(m.PhaseMutation), cls.Offsets(m.PhaseCommit)...)

	for _, call := range ExternalCalls(p, u.Text) {
		read, ok := before(snapshots, call.Offset)
		if !ok {
			continue
		}

		if _, ok := after(writes, call.Offset); ok {
			return fmt.Sprintf("%s reads state at +%d, calls %q, then writes the stale value", u.Name, read, call.Match), true
		}
	}

	for _, callee := range Callees(c, u) {
		if _, seen := visited[callee.ID]; seen {
			continue
		}

		if reason, stale := staleRead(c, callee, visited); stale {
			return reason, true
		}
	}

	return "", false
}
