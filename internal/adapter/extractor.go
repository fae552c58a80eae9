package adapter

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	m "phasegate.dev/pkg/phasegate/internal/model"
)

// UnitExtractor splits a source file into code units. Extraction is the
// ingestion step only: it finds function boundaries and declared
// visibility, it does not analyze the code.
type UnitExtractor interface {
	Extract(ctx context.Context, source m.Source, content []byte) ([]m.CodeUnit, error)
}

// rawUnit is an extracted region before corpus-wide ordering is applied.
type rawUnit struct {
	name      string
	qualifier string
	start     int
	end       int
	kind      m.EntryKind
}

// LocalUnitExtractor dispatches to the extractor for the source ecosystem.
type LocalUnitExtractor struct {
	goFiles GoFileAdapter
}

// NewLocalUnitExtractor constructs a LocalUnitExtractor.
func NewLocalUnitExtractor(goFiles GoFileAdapter) *LocalUnitExtractor {
	return &LocalUnitExtractor{goFiles: goFiles}
}

// Extract returns the units of one source in declaration order. Order and
// ID uniqueness across files are assigned later by the workflow.
func (e *LocalUnitExtractor) Extract(ctx context.Context, source m.Source, content []byte) ([]m.CodeUnit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if source.Origin == nil {
		return nil, fmt.Errorf("missing source origin")
	}

	var (
		raws []rawUnit
		err  error
	)

	switch source.Ecosystem {
	case m.EcosystemCosmos:
		raws, err = e.goFiles.Units(ctx, string(source.Origin.FullPath), content)
	case m.EcosystemSolidity:
		raws = scanBraceUnits(content, solidityHeader, solidityKind, lexFor(source.Ecosystem))
	case m.EcosystemCosmWasm:
		raws = scanBraceUnits(content, rustHeader, rustKind, lexFor(source.Ecosystem))
	case m.EcosystemCairo:
		raws = scanBraceUnits(content, cairoHeader, cairoKind, lexFor(source.Ecosystem))
	case m.EcosystemPyTeal:
		raws = scanPythonUnits(content)
	default:
		return nil, fmt.Errorf("%w: %q", m.ErrUnknownEcosystem, source.Ecosystem)
	}

	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", source.Origin.ShortPath, err)
	}

	units := make([]m.CodeUnit, 0, len(raws))

	for _, r := range raws {
		qualified := r.name
		if r.qualifier != "" {
			qualified = r.qualifier + "." + r.name
		}

		units = append(units, m.CodeUnit{
			ID:        fmt.Sprintf("%s::%s", source.Origin.ShortPath, qualified),
			Ecosystem: source.Ecosystem,
			Name:      r.name,
			File:      source.Origin.ShortPath,
			Line:      lineAt(content, r.start),
			EndLine:   lineAt(content, r.end),
			Text:      string(content[r.start:r.end]),
			Kind:      r.kind,
		})
	}

	return units, nil
}

func lineAt(content []byte, offset int) int {
	if offset > len(content) {
		offset = len(content)
	}

	return 1 + strings.Count(string(content[:offset]), "\n")
}

var mergedMarker = regexp.MustCompile(`^\s*(?://|#|--)\s*[Ff]ile:\s*(\S+)\s*$`)

// SplitMerged splits a merged corpus (conventionally merged.txt) into one
// source per "// File: <path>" or "# File: <path>" section. Text before the
// first marker is attributed to the merged file itself. Sections whose
// ecosystem can not be inferred take the forced ecosystem, or are skipped
// when none is given.
func SplitMerged(merged m.Path, content []byte, forced m.Ecosystem) []m.Source {
	var (
		sources []m.Source
		name    = string(merged)
		body    strings.Builder
	)

	flush := func() {
		text := body.String()
		body.Reset()

		if strings.TrimSpace(text) == "" {
			return
		}

		eco := forced
		if eco == "" {
			inferred, ok := m.EcosystemForPath(m.Path(name))
			if !ok {
				return
			}

			eco = inferred
		}

		sources = append(sources, m.Source{
			Origin:    &m.File{FullPath: m.Path(name), ShortPath: m.Path(name)},
			Ecosystem: eco,
			Content:   []byte(text),
		})
	}

	for _, line := range strings.SplitAfter(string(content), "\n") {
		if match := mergedMarker.FindStringSubmatch(strings.TrimRight(line, "\r\n")); match != nil {
			flush()

			name = match[1]

			continue
		}

		body.WriteString(line)
	}

	flush()

	return sources
}
