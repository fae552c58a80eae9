// Package model defines the data structures shared by the review pipeline.
package model

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Path represents a file system path.
type Path string

// Ecosystem identifies the smart-contract platform a code unit belongs to.
type Ecosystem string

const (
	// EcosystemSolidity is Solidity on the EVM.
	EcosystemSolidity Ecosystem = "solidity"
	// EcosystemCosmWasm is Rust compiled to CosmWasm.
	EcosystemCosmWasm Ecosystem = "cosmwasm"
	// EcosystemCosmos is Go on the Cosmos SDK.
	EcosystemCosmos Ecosystem = "cosmos"
	// EcosystemCairo is Cairo on StarkNet.
	EcosystemCairo Ecosystem = "cairo"
	// EcosystemPyTeal is PyTeal on Algorand.
	EcosystemPyTeal Ecosystem = "pyteal"
)

// ErrUnknownEcosystem is returned when an ecosystem name or file extension
// does not map to any supported platform.
var ErrUnknownEcosystem = errors.New("unknown ecosystem")

// Ecosystems lists every supported ecosystem in a stable order.
func Ecosystems() []Ecosystem {
	return []Ecosystem{EcosystemSolidity, EcosystemCosmWasm, EcosystemCosmos, EcosystemCairo, EcosystemPyTeal}
}

var ecosystemAliases = map[string]Ecosystem{
	"solidity": EcosystemSolidity,
	"evm":      EcosystemSolidity,
	"cosmwasm": EcosystemCosmWasm,
	"rust":     EcosystemCosmWasm,
	"cosmos":   EcosystemCosmos,
	"go":       EcosystemCosmos,
	"cairo":    EcosystemCairo,
	"starknet": EcosystemCairo,
	"pyteal":   EcosystemPyTeal,
	"algorand": EcosystemPyTeal,
}

// ParseEcosystem resolves a user supplied ecosystem name.
func ParseEcosystem(name string) (Ecosystem, error) {
	eco, ok := ecosystemAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownEcosystem, name)
	}

	return eco, nil
}

var extensionEcosystems = map[string]Ecosystem{
	".sol":   EcosystemSolidity,
	".rs":    EcosystemCosmWasm,
	".go":    EcosystemCosmos,
	".cairo": EcosystemCairo,
	".py":    EcosystemPyTeal,
}

// EcosystemForPath infers the ecosystem from a file extension.
func EcosystemForPath(path Path) (Ecosystem, bool) {
	eco, ok := extensionEcosystems[strings.ToLower(filepath.Ext(string(path)))]
	return eco, ok
}

// File represents a source code file.
type File struct {
	FullPath  Path
	ShortPath Path
	Hash      string
}

// Source is one ingested file together with the ecosystem it is read as.
type Source struct {
	Origin    *File
	Ecosystem Ecosystem
	// Content is set when the source did not come from disk (merged corpus).
	Content []byte
}
