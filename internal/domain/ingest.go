package domain

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"phasegate.dev/pkg/phasegate/internal/adapter"
	m "phasegate.dev/pkg/phasegate/internal/model"
)

// sources resolves the paths and the merged corpus into sources. A merged
// corpus on its own replaces the default "./..." scan.
func (w *workflow) sources(ctx context.Context, args ClassifyArgs) ([]m.Source, error) {
	var sources []m.Source

	if args.Merged == "" || len(args.Paths) > 0 {
		found, err := w.Get(ctx, args.Paths, args.Exclude...)
		if err != nil {
			return nil, fmt.Errorf("get sources: %w", err)
		}

		sources = append(sources, found...)
	}

	if args.Merged != "" {
		content, err := w.ReadFile(ctx, args.Merged)
		if err != nil {
			return nil, fmt.Errorf("read merged corpus: %w", err)
		}

		sources = append(sources, adapter.SplitMerged(args.Merged, content, args.Ecosystem)...)
	}

	if args.Ecosystem != "" {
		for i := range sources {
			sources[i].Ecosystem = args.Ecosystem
		}
	}

	return sources, nil
}

// collectUnits reads and extracts every source on a bounded worker pool.
// Results are stored by source index so declaration order does not depend
// on scheduling. A source that fails extraction is escalated, not fatal.
func (w *workflow) collectUnits(ctx context.Context, args ClassifyArgs) ([]m.CodeUnit, []m.Escalation, error) {
	sources, err := w.sources(ctx, args)
	if err != nil {
		return nil, nil, err
	}

	threads := args.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	results := make([][]m.CodeUnit, len(sources))
	failures := make([]error, len(sources))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(threads)

	for i, source := range sources {
		i, source := i, source
		group.Go(func() error {
			content := source.Content
			if content == nil {
				data, err := w.ReadFile(groupCtx, source.Origin.FullPath)
				if err != nil {
					return fmt.Errorf("read %s: %w", source.Origin.ShortPath, err)
				}

				content = data
			}

			units, err := w.Extract(groupCtx, source, content)
			if err != nil {
				if ctxErr := groupCtx.Err(); ctxErr != nil {
					return ctxErr
				}

				slog.Warn("unit extraction failed", "source", source.Origin.ShortPath, "error", err)
				failures[i] = err

				return nil
			}

			results[i] = units

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, nil, err
	}

	var (
		units       []m.CodeUnit
		escalations []m.Escalation
		seen        = make(map[string]int)
	)

	for i, source := range sources {
		if failures[i] != nil {
			escalations = append(escalations, m.Escalation{
				Disposition: m.DispositionUnknown,
				Subject:     string(source.Origin.ShortPath),
				Reason:      fmt.Sprintf("extraction failed, review manually: %v", failures[i]),
			})

			continue
		}

		for _, u := range results[i] {
			seen[u.ID]++
			if n := seen[u.ID]; n > 1 {
				u.ID = fmt.Sprintf("%s#%d", u.ID, n)
			}

			u.Order = len(units)
			units = append(units, u)
		}
	}

	slog.Debug("collected code units", "sources", len(sources), "units", len(units))

	return units, escalations, nil
}
