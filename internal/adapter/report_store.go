package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	m "phasegate.dev/pkg/phasegate/internal/model"
	"phasegate.dev/pkg/phasegate/pkg"
)

// File names inside the output directory.
const (
	ReportFile   = "report.json"
	DeferredFile = "deferred.gob"
	FindingsDir  = "findings"
)

// ReportStore persists audit reports, their finding documents and the
// queue of deferred hypotheses.
type ReportStore interface {
	SaveReport(ctx context.Context, dir m.Path, report m.Report) error
	LoadReport(ctx context.Context, path m.Path) (m.Report, error)
	SaveDeferred(ctx context.Context, dir m.Path, deferred []m.Hypothesis) error
	LoadDeferred(ctx context.Context, dir m.Path) ([]m.Hypothesis, error)
}

// LocalReportStore stores reports under an output directory on disk.
type LocalReportStore struct{}

// NewLocalReportStore constructs a LocalReportStore.
func NewLocalReportStore() *LocalReportStore {
	return &LocalReportStore{}
}

// SaveReport writes report.json and one markdown document per finding.
// A first pass replaces the finding documents of an earlier audit; resumed
// passes keep them.
func (s *LocalReportStore) SaveReport(ctx context.Context, dir m.Path, report m.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	findings := filepath.Join(string(dir), FindingsDir)
	if report.Pass <= 1 {
		if err := os.RemoveAll(findings); err != nil {
			slog.Error("failed to clear findings", "path", findings, "error", err)
			return fmt.Errorf("clear findings: %w", err)
		}
	}

	if err := os.MkdirAll(findings, 0o750); err != nil {
		slog.Error("failed to create output directory", "path", findings, "error", err)
		return fmt.Errorf("create output directory: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	path := filepath.Join(string(dir), ReportFile)
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		slog.Error("failed to write report", "path", path, "error", err)
		return fmt.Errorf("write report: %w", err)
	}

	for _, f := range report.Findings {
		doc, err := RenderFinding(f)
		if err != nil {
			slog.Error("failed to render finding", "id", f.Hypothesis.ID, "error", err)
			return err
		}

		name := filepath.Join(findings, f.Hypothesis.ID+".md")
		if err := os.WriteFile(name, doc, 0o600); err != nil {
			slog.Error("failed to write finding", "path", name, "error", err)
			return fmt.Errorf("write finding: %w", err)
		}
	}

	slog.Debug("saved report", "path", path, "findings", len(report.Findings))

	return nil
}

// LoadReport reads a report from a report.json file or an output directory.
func (s *LocalReportStore) LoadReport(ctx context.Context, path m.Path) (m.Report, error) {
	if err := ctx.Err(); err != nil {
		return m.Report{}, err
	}

	name := string(path)
	if info, err := os.Stat(name); err == nil && info.IsDir() {
		name = filepath.Join(name, ReportFile)
	}

	data, err := os.ReadFile(filepath.Clean(name))
	if err != nil {
		slog.Error("failed to read report", "path", name, "error", err)
		return m.Report{}, fmt.Errorf("read report: %w", err)
	}

	var report m.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return m.Report{}, fmt.Errorf("decode report %s: %w", name, err)
	}

	return report, nil
}

// SaveDeferred replaces the deferred queue. An empty slice removes it.
func (s *LocalReportStore) SaveDeferred(ctx context.Context, dir m.Path, deferred []m.Hypothesis) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := filepath.Join(string(dir), DeferredFile)

	if len(deferred) == 0 {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove deferred queue: %w", err)
		}

		return nil
	}

	queue, err := pkg.CreateQueue[m.Hypothesis](path)
	if err != nil {
		return err
	}

	if err := queue.AppendBatch(deferred); err != nil {
		_ = queue.Close()
		return err
	}

	return queue.Close()
}

// LoadDeferred returns the deferred queue, or nil when there is none.
func (s *LocalReportStore) LoadDeferred(ctx context.Context, dir m.Path) ([]m.Hypothesis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(string(dir), DeferredFile)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	queue, err := pkg.OpenQueue[m.Hypothesis](path)
	if err != nil {
		return nil, err
	}

	defer func() { _ = queue.Close() }()

	deferred := make([]m.Hypothesis, 0, queue.Len())

	err = queue.Range(func(_ uint64, h m.Hypothesis) error {
		deferred = append(deferred, h)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return deferred, nil
}
