package adapter

import (
	"regexp"
	"strings"
	"unicode/utf8"

	m "phasegate.dev/pkg/phasegate/internal/model"
)

// headerMatch locates one function header. nameGroup is the submatch index
// holding the function name.
type headerMatch struct {
	re        *regexp.Regexp
	nameGroup int
}

// kindFunc derives the entry kind from the header text (match start up to
// the opening brace) and the content preceding the header.
type kindFunc func(name, header, before string) m.EntryKind

var (
	solidityHeader = headerMatch{
		re:        regexp.MustCompile(`\b(?:function\s+(\w+)|(constructor|receive|fallback))\s*\(`),
		nameGroup: 1,
	}
	rustHeader = headerMatch{
		re:        regexp.MustCompile(`(?m)^[ \t]*(?:pub(?:\([^)]*\))?\s+)?(?:const\s+)?(?:async\s+)?(?:unsafe\s+)?fn\s+(\w+)`),
		nameGroup: 1,
	}
	cairoHeader = headerMatch{
		re:        regexp.MustCompile(`(?m)^[ \t]*(?:pub\s+)?fn\s+(\w+)`),
		nameGroup: 1,
	}
)

var solidityVisibility = regexp.MustCompile(`\b(external|public|internal|private)\b`)

func solidityKind(name, header, _ string) m.EntryKind {
	switch name {
	case "receive", "fallback":
		return m.KindExternal
	case "constructor":
		return m.KindInternal
	}

	match := solidityVisibility.FindStringSubmatch(header)
	if match == nil {
		return m.KindUnknown
	}

	return m.EntryKind(match[1])
}

func rustKind(_, header, before string) m.EntryKind {
	if strings.Contains(lastLines(before, 3), "entry_point") {
		return m.KindEntrypoint
	}

	trimmed := strings.TrimSpace(header)

	switch {
	case strings.HasPrefix(trimmed, "pub(") || strings.HasPrefix(trimmed, "pub ("):
		return m.KindInternal
	case strings.HasPrefix(trimmed, "pub "):
		return m.KindPublic
	}

	return m.KindPrivate
}

var cairoImpl = regexp.MustCompile(`(?m)^[ \t]*impl\s`)

func cairoKind(_, _, before string) m.EntryKind {
	attrs := lastLines(before, 2)

	switch {
	case strings.Contains(attrs, "#[external"), strings.Contains(attrs, "#[l1_handler]"):
		return m.KindExternal
	case strings.Contains(attrs, "#[constructor]"):
		return m.KindInternal
	}

	// Functions inside an embedded ABI impl are external; generated traits
	// are internal. Anything else is left undecided.
	locs := cairoImpl.FindAllStringIndex(before, -1)
	if len(locs) == 0 {
		return m.KindUnknown
	}

	implAttrs := lastLines(before[:locs[len(locs)-1][0]], 2)

	switch {
	case strings.Contains(implAttrs, "abi(embed_v0)"), strings.Contains(implAttrs, "#[external(v0)]"):
		return m.KindExternal
	case strings.Contains(implAttrs, "generate_trait"):
		return m.KindInternal
	}

	return m.KindUnknown
}

func lastLines(text string, n int) string {
	lines := strings.Split(strings.TrimRight(text, " \t\r\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}

	return strings.Join(lines, "\n")
}

// scanBraceUnits finds every function header and extends it to the matching
// closing brace. Declarations without a body (interfaces, trait items) are
// skipped.
func scanBraceUnits(content []byte, header headerMatch, kind kindFunc, lex lexRules) []rawUnit {
	text := string(content)

	var units []rawUnit

	next := 0

	for _, loc := range header.re.FindAllStringSubmatchIndex(text, -1) {
		if loc[0] < next {
			// Nested inside the previous unit (closures, inner fns).
			continue
		}

		name := submatch(text, loc, header.nameGroup)
		if name == "" {
			name = submatch(text, loc, header.nameGroup+1)
		}

		open := bodyStart(text, loc[1])
		if open < 0 {
			continue
		}

		start := loc[0] + leadingSpace(text[loc[0]:loc[1]])
		end := matchClosing(text, open, lex)

		units = append(units, rawUnit{
			name:  name,
			start: start,
			end:   end,
			kind:  kind(name, text[loc[0]:open], text[:loc[0]]),
		})

		next = end
	}

	return units
}

func submatch(text string, loc []int, group int) string {
	if 2*group+1 >= len(loc) || loc[2*group] < 0 {
		return ""
	}

	return text[loc[2*group]:loc[2*group+1]]
}

func leadingSpace(s string) int {
	return len(s) - len(strings.TrimLeft(s, " \t\r\n"))
}

// bodyStart returns the index of the "{" opening the body, or -1 when a ";"
// at parenthesis depth zero ends the declaration first.
func bodyStart(text string, from int) int {
	depth := 0

	for i := from; i < len(text); i++ {
		switch text[i] {
		case '(', '<', '[':
			depth++
		case ')', '>', ']':
			if depth > 0 {
				depth--
			}
		case '{':
			if depth == 0 {
				return i
			}
		case ';':
			if depth == 0 {
				return -1
			}
		}
	}

	return -1
}

// lexRules selects how literals and comments are recognized while
// matching delimiters.
type lexRules struct {
	// runeLiterals: '{' is a one-character literal and 'a a lifetime or
	// label. Otherwise single quotes delimit strings.
	runeLiterals bool
	// hashComments: "#" starts a comment instead of "//" and "/*".
	hashComments bool
}

func lexFor(eco m.Ecosystem) lexRules {
	switch eco {
	case m.EcosystemCosmWasm, m.EcosystemCosmos:
		return lexRules{runeLiterals: true}
	case m.EcosystemPyTeal:
		return lexRules{hashComments: true}
	case m.EcosystemSolidity, m.EcosystemCairo:
	}

	return lexRules{}
}

var closers = map[byte]byte{'{': '}', '(': ')', '[': ']'}

// MatchClosing returns the offset just past the delimiter closing the
// "{", "(" or "[" at open in source text of the given ecosystem. String
// and character literals and comments are skipped. Unbalanced input runs
// to the end of the text.
func MatchClosing(eco m.Ecosystem, text string, open int) int {
	return matchClosing(text, open, lexFor(eco))
}

func matchClosing(text string, open int, lex lexRules) int {
	if open < 0 || open >= len(text) {
		return len(text)
	}

	opener := text[open]

	closer, ok := closers[opener]
	if !ok {
		return len(text)
	}

	depth := 0

	for i := open; i < len(text); i++ {
		c := text[i]

		switch {
		case c == '"':
			i = skipString(text, i)
		case c == '\'':
			i = skipQuote(text, i, lex)
		case lex.hashComments && c == '#':
			i = skipUntil(text, i, "\n")
		case !lex.hashComments && c == '/' && i+1 < len(text) && text[i+1] == '/':
			i = skipUntil(text, i, "\n")
		case !lex.hashComments && c == '/' && i+1 < len(text) && text[i+1] == '*':
			i = skipUntil(text, i+2, "*/") + 1
		case c == opener:
			depth++
		case c == closer:
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}

	return len(text)
}

// skipString returns the index of the quote closing the one at quote.
func skipString(text string, quote int) int {
	delim := text[quote]

	for i := quote + 1; i < len(text); i++ {
		switch text[i] {
		case '\\':
			i++
		case delim:
			return i
		}
	}

	return len(text)
}

// skipQuote handles a single quote. Without rune literals it opens a
// string. With them it is either a character literal ('{', '\n',
// '\u{7b}') or a lifetime, which is left in place.
func skipQuote(text string, quote int, lex lexRules) int {
	if !lex.runeLiterals {
		return skipString(text, quote)
	}

	if quote+1 >= len(text) {
		return quote
	}

	if text[quote+1] == '\\' {
		if quote+3 > len(text) {
			return len(text)
		}

		end := strings.IndexByte(text[quote+3:], '\'')
		if end < 0 {
			return len(text)
		}

		return quote + 3 + end
	}

	_, size := utf8.DecodeRuneInString(text[quote+1:])
	if end := quote + 1 + size; end < len(text) && text[end] == '\'' {
		return end
	}

	return quote
}

func skipUntil(text string, from int, marker string) int {
	idx := strings.Index(text[from:], marker)
	if idx < 0 {
		return len(text)
	}

	return from + idx
}
