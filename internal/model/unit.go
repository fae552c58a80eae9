package model

import "fmt"

// EntryKind is the declared visibility or entry-point kind of a code unit.
type EntryKind string

const (
	// KindPublic is callable by anyone (Go exported, Solidity public, Rust pub).
	KindPublic EntryKind = "public"
	// KindExternal is callable only from outside the contract.
	KindExternal EntryKind = "external"
	// KindEntrypoint is a registered message handler or ABI entry.
	KindEntrypoint EntryKind = "entrypoint"
	// KindInternal is callable only from inside the module or contract.
	KindInternal EntryKind = "internal"
	// KindPrivate is callable only from the declaring scope.
	KindPrivate EntryKind = "private"
	// KindUnknown means the extractor could not determine visibility.
	KindUnknown EntryKind = "unknown"
)

// IsEntry reports whether units of this kind are reachable from outside.
func (k EntryKind) IsEntry() bool {
	return k == KindPublic || k == KindExternal || k == KindEntrypoint
}

// CodeUnit is a named region of source (function or branch). Units are
// immutable once extracted.
type CodeUnit struct {
	ID        string
	Ecosystem Ecosystem
	Name      string
	File      Path
	Line      int
	EndLine   int
	Text      string
	Kind      EntryKind
	// Order is the declaration order across the whole corpus.
	Order int
}

// Location returns a file:line citation, or "" when the unit has none.
func (u CodeUnit) Location() string {
	if u.File == "" || u.Line <= 0 {
		return ""
	}

	return fmt.Sprintf("%s:%d", u.File, u.Line)
}
