package adapter

import (
	"regexp"
	"strings"

	m "phasegate.dev/pkg/phasegate/internal/model"
)

var pythonDef = regexp.MustCompile(`(?m)^([ \t]*)def\s+(\w+)\s*\(`)

// PyTeal program entry points.
var pytealPrograms = map[string]struct{}{
	"approval_program":    {},
	"clear_state_program": {},
	"approval":            {},
	"clear":               {},
}

// scanPythonUnits extracts top-level and nested "def" blocks by indentation.
// A unit ends at the first non-blank line indented at or left of its def.
func scanPythonUnits(content []byte) []rawUnit {
	text := string(content)

	var units []rawUnit

	for _, loc := range pythonDef.FindAllStringSubmatchIndex(text, -1) {
		indent := loc[3] - loc[2]
		name := text[loc[4]:loc[5]]
		start := loc[2] + indent
		end := pythonBlockEnd(text, loc[1], indent)

		units = append(units, rawUnit{
			name:  name,
			start: start,
			end:   end,
			kind:  pytealKind(name, decorators(text[:loc[0]], indent)),
		})
	}

	return units
}

func pythonBlockEnd(text string, from, indent int) int {
	// Skip the rest of the (possibly multi-line) signature.
	colon := strings.Index(text[from:], ":\n")
	if colon < 0 {
		return len(text)
	}

	pos := from + colon + 2
	end := pos

	for pos < len(text) {
		nl := strings.IndexByte(text[pos:], '\n')

		lineEnd := len(text)
		if nl >= 0 {
			lineEnd = pos + nl
		}

		line := text[pos:lineEnd]
		if strings.TrimSpace(line) != "" {
			if len(line)-len(strings.TrimLeft(line, " \t")) <= indent {
				return end
			}

			end = lineEnd
		}

		if nl < 0 {
			break
		}

		pos = lineEnd + 1
	}

	return end
}

// decorators returns the decorator lines directly above a def.
func decorators(before string, indent int) []string {
	lines := strings.Split(strings.TrimRight(before, " \t\r\n"), "\n")

	var out []string

	for i := len(lines) - 1; i >= 0; i-- {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		if !strings.HasPrefix(trimmed, "@") || len(line)-len(strings.TrimLeft(line, " \t")) != indent {
			break
		}

		out = append(out, trimmed)
	}

	return out
}

func pytealKind(name string, decos []string) m.EntryKind {
	for _, d := range decos {
		switch {
		case strings.Contains(d, "external"), strings.Contains(d, "router.method"),
			strings.Contains(d, ".create"), strings.Contains(d, "opt_in"):
			return m.KindExternal
		case strings.Contains(d, "Subroutine"), strings.Contains(d, "internal"):
			return m.KindInternal
		}
	}

	if _, ok := pytealPrograms[name]; ok {
		return m.KindEntrypoint
	}

	if strings.HasPrefix(name, "_") {
		return m.KindPrivate
	}

	return m.KindUnknown
}
