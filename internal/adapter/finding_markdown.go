package adapter

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	m "phasegate.dev/pkg/phasegate/internal/model"
)

// ErrMalformedFinding is returned when a finding document does not follow
// the fixed section skeleton.
var ErrMalformedFinding = errors.New("malformed finding document")

// FindingSections are the level-two sections every finding document carries,
// in order, after its title.
var FindingSections = []string{
	"Triage Dashboard",
	"Validation Checks",
	"Executive Proof",
	"Root Cause",
	"Severity Platform Mapping",
	"Recommended Mitigation",
}

const checksSection = "Validation Checks"

// PlatformSeverity is how one bug bounty or contest platform labels a severity.
type PlatformSeverity struct {
	Platform string
	Label    string
}

var platformLabels = map[m.Severity][3]string{
	m.SeverityCriticalHigh: {"High", "Critical", "High"},
	m.SeverityMedium:       {"Medium", "High", "Medium"},
	m.SeverityLow:          {"QA (Low)", "Medium", "Low"},
	m.SeverityInfo:         {"QA (Non-Critical)", "Low", "Invalid"},
}

// PlatformMapping lists the platform labels for a severity.
func PlatformMapping(s m.Severity) []PlatformSeverity {
	labels, ok := platformLabels[s]
	if !ok {
		labels = [3]string{"n/a", "n/a", "n/a"}
	}

	return []PlatformSeverity{
		{Platform: "Code4rena", Label: labels[0]},
		{Platform: "Immunefi", Label: labels[1]},
		{Platform: "Sherlock", Label: labels[2]},
	}
}

var findingTemplate = template.Must(template.New("finding").Funcs(template.FuncMap{
	"amount":   formatAmount,
	"cell":     markdownCell,
	"platform": PlatformMapping,
}).Parse(`# {{ .Title }}

## Triage Dashboard

| Field | Value |
|---|---|
| ID | {{ cell .Hypothesis.ID }} |
| Severity | {{ .Severity }} |
| Impact | {{ cell .Impact.String }} |
| Location | ` + "`{{ .Location }}`" + ` |
| Ecosystem | {{ .Hypothesis.Ecosystem }} |
| Phase | {{ .Hypothesis.Phase }} |
| Verdict | {{ .Gate.Verdict }} |
{{- with .Hypothesis.Exploit }}
| Historical Exploit | {{ cell .Name }}{{ if .Year }} ({{ .Year }}){{ end }} |
{{- end }}

## Validation Checks

| Check | Result | Evidence |
|---|---|---|
{{- range .Gate.NamedChecks }}
| {{ .Name }} | {{ .Value }} | {{ cell .Reason }} |
{{- end }}

## Executive Proof

{{ .Hypothesis.Description }}.
{{- with .Hypothesis.Cost }}

Estimated cost to exercise: {{ amount .Amount }} {{ .Unit }}.
{{- end }}
{{- with .Hypothesis.Exploit }}{{ if .Reference }}

Reference: {{ .Reference }}
{{- end }}{{ end }}

## Root Cause

{{ .RootCause }}

## Severity Platform Mapping

| Platform | Severity |
|---|---|
{{- range platform .Severity }}
| {{ .Platform }} | {{ .Label }} |
{{- end }}

## Recommended Mitigation

{{ if .Mitigation }}{{ .Mitigation }}{{ else }}No mitigation recorded.{{ end }}
`))

func formatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func markdownCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

// RenderFinding renders a finding as a markdown document and verifies the
// result against the section skeleton.
func RenderFinding(f m.Finding) ([]byte, error) {
	if f.Location == "" {
		return nil, fmt.Errorf("%w: %s has no source location", ErrMalformedFinding, f.Hypothesis.ID)
	}

	var buf bytes.Buffer
	if err := findingTemplate.Execute(&buf, f); err != nil {
		return nil, fmt.Errorf("render finding %s: %w", f.Hypothesis.ID, err)
	}

	if err := VerifyFindingDocument(buf.Bytes()); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

var findingParser = goldmark.New(goldmark.WithExtensions(extension.Table)).Parser()

// VerifyFindingDocument parses a markdown document and checks that it has a
// title, every section of FindingSections in order, and a checks table.
func VerifyFindingDocument(doc []byte) error {
	root := findingParser.Parse(text.NewReader(doc))

	var (
		title    bool
		sections []string
		current  string
		table    bool
	)

	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n.Kind() {
		case ast.KindHeading:
			h := n.(*ast.Heading) //nolint:forcetypeassert // kind checked above

			switch h.Level {
			case 1:
				title = true
			case 2:
				current = strings.TrimSpace(nodeText(h, doc))
				sections = append(sections, current)
			}

			return ast.WalkSkipChildren, nil
		case extast.KindTable:
			if current == checksSection {
				table = true
			}

			return ast.WalkSkipChildren, nil
		}

		return ast.WalkContinue, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedFinding, err)
	}

	if !title {
		return fmt.Errorf("%w: missing title", ErrMalformedFinding)
	}

	next := 0

	for _, s := range sections {
		if next < len(FindingSections) && s == FindingSections[next] {
			next++
		}
	}

	if next < len(FindingSections) {
		return fmt.Errorf("%w: missing section %q", ErrMalformedFinding, FindingSections[next])
	}

	if !table {
		return fmt.Errorf("%w: %s has no table", ErrMalformedFinding, checksSection)
	}

	return nil
}

func nodeText(n ast.Node, src []byte) string {
	var sb strings.Builder

	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(src))
		case *ast.String:
			sb.Write(t.Value)
		default:
			sb.WriteString(nodeText(c, src))
		}
	}

	return sb.String()
}
