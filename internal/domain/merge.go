package domain

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	m "phasegate.dev/pkg/phasegate/internal/model"
)

func fileMarker(eco m.Ecosystem) string {
	if eco == m.EcosystemPyTeal {
		return "# File: "
	}

	return "// File: "
}

// Merge concatenates the sources into one merged corpus, each file behind
// a "File:" marker line in its own comment syntax. The result can be fed
// back with ClassifyArgs.Merged. It returns the number of files written.
func (w *workflow) Merge(ctx context.Context, args MergeArgs) (int, error) {
	sources, err := w.Get(ctx, args.Paths, args.Exclude...)
	if err != nil {
		slog.Error("Failed to get sources", "error", err)
		return 0, fmt.Errorf("get sources: %w", err)
	}

	var buf bytes.Buffer

	for _, source := range sources {
		content, err := w.ReadFile(ctx, source.Origin.FullPath)
		if err != nil {
			return 0, fmt.Errorf("read %s: %w", source.Origin.ShortPath, err)
		}

		buf.WriteString(fileMarker(source.Ecosystem))
		buf.WriteString(string(source.Origin.ShortPath))
		buf.WriteString("\n")
		buf.Write(content)

		if !bytes.HasSuffix(content, []byte("\n")) {
			buf.WriteString("\n")
		}
	}

	if err := w.WriteFile(ctx, args.Output, buf.Bytes(), 0o600); err != nil {
		slog.Error("Failed to write merged corpus", "path", args.Output, "error", err)
		return 0, fmt.Errorf("write merged corpus: %w", err)
	}

	slog.Info("merged corpus written", "path", args.Output, "files", len(sources))

	return len(sources), nil
}
