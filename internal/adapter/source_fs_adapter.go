// Package adapter contains the infrastructure adapters used by the review
// pipeline: filesystem access, unit extraction and report storage.
package adapter

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	m "phasegate.dev/pkg/phasegate/internal/model"
)

// SourceFSAdapter abstracts filesystem-specific operations that the domain
// layer relies on when scanning a contract corpus, so workflow logic can be
// tested without touching the disk.
//
//nolint:interfacebloat // A richer interface keeps workflow logic decoupled from os/fs.
type SourceFSAdapter interface {
	// Get resolves path patterns into the sources of every file with a
	// recognized contract extension. "./..." descends recursively.
	Get(ctx context.Context, paths []m.Path, exclude ...string) ([]m.Source, error)

	// ReadFile loads a file from disk and returns its contents.
	ReadFile(ctx context.Context, path m.Path) ([]byte, error)

	// HashFile returns a SHA-256 fingerprint of the file at path.
	HashFile(ctx context.Context, path m.Path) (string, error)

	// FileInfo returns metadata for a path.
	FileInfo(ctx context.Context, path m.Path) (os.FileInfo, error)

	// WriteFile writes content to a file, creating parent directories.
	WriteFile(ctx context.Context, path m.Path, content []byte, perm os.FileMode) error

	// JoinPath joins path elements into a single path.
	JoinPath(ctx context.Context, elem ...string) m.Path
}

// LocalSourceFSAdapter is the os-backed SourceFSAdapter.
type LocalSourceFSAdapter struct{}

// NewLocalSourceFSAdapter constructs a LocalSourceFSAdapter.
func NewLocalSourceFSAdapter() *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{}
}

var skippedDirs = map[string]struct{}{
	".git":         {},
	"vendor":       {},
	"node_modules": {},
	"target":       {},
	"__pycache__":  {},
}

// Get resolves paths into sources. An empty path list means "./...".
func (a *LocalSourceFSAdapter) Get(ctx context.Context, paths []m.Path, exclude ...string) ([]m.Source, error) {
	if len(paths) == 0 {
		paths = []m.Path{"./..."}
	}

	excludes, err := compileExcludes(exclude)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})

	var sources []m.Source

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		root, recursive := splitPattern(string(p))

		files, err := a.resolve(root, recursive)
		if err != nil {
			return nil, err
		}

		for _, file := range files {
			if _, dup := seen[file]; dup || isExcluded(file, excludes) {
				continue
			}

			seen[file] = struct{}{}

			eco, ok := m.EcosystemForPath(m.Path(file))
			if !ok {
				continue
			}

			hash, err := a.HashFile(ctx, m.Path(file))
			if err != nil {
				return nil, fmt.Errorf("hash %s: %w", file, err)
			}

			sources = append(sources, m.Source{
				Origin:    &m.File{FullPath: m.Path(file), ShortPath: shortPath(file), Hash: hash},
				Ecosystem: eco,
			})
		}
	}

	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Origin.FullPath < sources[j].Origin.FullPath
	})

	return sources, nil
}

func splitPattern(pattern string) (string, bool) {
	if pattern == "..." {
		return ".", true
	}

	if strings.HasSuffix(pattern, "/...") {
		root := strings.TrimSuffix(pattern, "/...")
		if root == "" {
			root = "."
		}

		return root, true
	}

	return pattern, false
}

func (a *LocalSourceFSAdapter) resolve(root string, recursive bool) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}

	if !info.IsDir() {
		return []string{root}, nil
	}

	var files []string

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if path == root {
				return nil
			}

			if _, skip := skippedDirs[info.Name()]; skip || !recursive {
				return filepath.SkipDir
			}

			return nil
		}

		if isTestFile(path) {
			return nil
		}

		files = append(files, path)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

func isTestFile(path string) bool {
	base := filepath.Base(path)

	return strings.HasSuffix(base, "_test.go") ||
		strings.HasSuffix(base, ".t.sol") ||
		strings.HasPrefix(base, "test_")
}

func compileExcludes(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))

	for _, p := range patterns {
		if strings.TrimSpace(p) == "" {
			continue
		}

		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}

		out = append(out, re)
	}

	return out, nil
}

func isExcluded(path string, excludes []*regexp.Regexp) bool {
	for _, re := range excludes {
		if re.MatchString(path) {
			return true
		}
	}

	return false
}

func shortPath(path string) m.Path {
	wd, err := os.Getwd()
	if err != nil {
		return m.Path(path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return m.Path(path)
	}

	rel, err := filepath.Rel(wd, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return m.Path(path)
	}

	return m.Path(filepath.ToSlash(rel))
}

// ReadFile loads file contents from disk.
func (a *LocalSourceFSAdapter) ReadFile(_ context.Context, path m.Path) ([]byte, error) {
	return os.ReadFile(string(path))
}

// HashFile returns the SHA-256 hash of the file at the provided path.
func (a *LocalSourceFSAdapter) HashFile(_ context.Context, path m.Path) (string, error) {
	f, err := os.Open(string(path))
	if err != nil {
		return "", err
	}

	defer func() {
		_ = f.Close()
	}()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// FileInfo returns os.FileInfo metadata for the given path.
func (a *LocalSourceFSAdapter) FileInfo(_ context.Context, path m.Path) (os.FileInfo, error) {
	return os.Stat(string(path))
}

// WriteFile writes content to a file with the given permissions.
func (a *LocalSourceFSAdapter) WriteFile(_ context.Context, path m.Path, content []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(string(path)), 0o750); err != nil {
		return err
	}

	return os.WriteFile(string(path), content, perm)
}

// JoinPath joins path elements into a single path.
func (a *LocalSourceFSAdapter) JoinPath(_ context.Context, elem ...string) m.Path {
	return m.Path(filepath.Join(elem...))
}
