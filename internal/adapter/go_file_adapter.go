package adapter

import (
	"context"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
	"unicode"

	m "phasegate.dev/pkg/phasegate/internal/model"
)

// GoFileAdapter encapsulates Go parsing so the domain layer can work on
// code units while delegating compilation details to go/parser.
type GoFileAdapter interface {
	// Parse builds an AST using the provided file set and source bytes.
	Parse(ctx context.Context, fileSet *token.FileSet, filename string, src []byte) (*ast.File, error)

	// Units returns one raw unit per function declaration.
	Units(ctx context.Context, filename string, src []byte) ([]rawUnit, error)
}

// LocalGoFileAdapter provides a concrete GoFileAdapter backed by go/parser.
type LocalGoFileAdapter struct{}

// NewLocalGoFileAdapter constructs a LocalGoFileAdapter.
func NewLocalGoFileAdapter() *LocalGoFileAdapter {
	return &LocalGoFileAdapter{}
}

// Parse builds an AST for the provided filename/source pair.
func (a *LocalGoFileAdapter) Parse(ctx context.Context, fileSet *token.FileSet, filename string, src []byte) (*ast.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return parser.ParseFile(fileSet, filename, src, parser.ParseComments)
}

// Cosmos SDK hooks the chain calls directly.
var cosmosEntrypoints = map[string]struct{}{
	"BeginBlocker":            {},
	"EndBlocker":              {},
	"PreBlocker":              {},
	"InitGenesis":             {},
	"ExportGenesis":           {},
	"AnteHandle":              {},
	"PostHandle":              {},
	"OnRecvPacket":            {},
	"OnAcknowledgementPacket": {},
	"OnTimeoutPacket":         {},
}

// Units walks the top-level function declarations of a Go file.
func (a *LocalGoFileAdapter) Units(ctx context.Context, filename string, src []byte) ([]rawUnit, error) {
	fileSet := token.NewFileSet()

	file, err := a.Parse(ctx, fileSet, filename, src)
	if err != nil {
		return nil, err
	}

	var units []rawUnit

	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Body == nil {
			continue
		}

		receiver := receiverName(fn)

		units = append(units, rawUnit{
			name:      fn.Name.Name,
			qualifier: receiver,
			start:     fileSet.Position(fn.Pos()).Offset,
			end:       fileSet.Position(fn.End()).Offset,
			kind:      goEntryKind(fn.Name.Name, receiver),
		})
	}

	return units, nil
}

func receiverName(fn *ast.FuncDecl) string {
	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		return ""
	}

	expr := fn.Recv.List[0].Type
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
	}

	// Generic receivers: Keeper[T].
	if idx, ok := expr.(*ast.IndexExpr); ok {
		expr = idx.X
	}

	if ident, ok := expr.(*ast.Ident); ok {
		return ident.Name
	}

	return ""
}

func goEntryKind(name, receiver string) m.EntryKind {
	if strings.EqualFold(receiver, "msgServer") {
		return m.KindEntrypoint
	}

	if _, ok := cosmosEntrypoints[name]; ok {
		return m.KindEntrypoint
	}

	if name == "init" || name == "main" {
		return m.KindInternal
	}

	if r := []rune(name); len(r) > 0 && unicode.IsUpper(r[0]) {
		return m.KindPublic
	}

	return m.KindInternal
}
