package profile

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	m "phasegate.dev/pkg/phasegate/internal/model"
)

//go:embed profiles/*.yaml
var embeddedProfiles embed.FS

// Registry holds one compiled profile per ecosystem.
type Registry struct {
	profiles map[m.Ecosystem]*Profile
}

// Default loads the profiles baked into the binary.
func Default() (*Registry, error) {
	return Load(embeddedProfiles, "profiles")
}

// Load reads every *.yaml file under dir in fsys.
func Load(fsys fs.FS, dir string) (*Registry, error) {
	reg := &Registry{profiles: make(map[m.Ecosystem]*Profile)}

	if err := reg.merge(fsys, dir); err != nil {
		return nil, err
	}

	return reg, nil
}

// WithOverrides returns the registry after replacing profiles with any
// found in dir on the local disk. An empty dir is a no-op.
func (r *Registry) WithOverrides(dir string) (*Registry, error) {
	if strings.TrimSpace(dir) == "" {
		return r, nil
	}

	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("profiles dir: %w", err)
	}

	if err := r.merge(os.DirFS(dir), "."); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Registry) merge(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("read profiles: %w", err)
	}

	for _, entry := range entries {
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}

		name := filepath.ToSlash(filepath.Join(dir, entry.Name()))

		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("read profile %s: %w", name, err)
		}

		p, err := Parse(data)
		if err != nil {
			slog.Error("Failed to load profile", "file", name, "error", err)
			return fmt.Errorf("load profile %s: %w", name, err)
		}

		slog.Debug("Loaded profile", "file", name, "ecosystem", p.Ecosystem, "patterns", len(p.Lexicon))
		r.profiles[p.Ecosystem] = p
	}

	return nil
}

// Parse decodes and compiles one YAML profile.
func Parse(data []byte) (*Profile, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}

	return Compile(doc)
}

// Get returns the profile for an ecosystem.
func (r *Registry) Get(eco m.Ecosystem) (*Profile, error) {
	p, ok := r.profiles[eco]
	if !ok {
		return nil, fmt.Errorf("%w: no profile for %q", m.ErrUnknownEcosystem, eco)
	}

	return p, nil
}

// All returns the loaded profiles sorted by ecosystem name.
func (r *Registry) All() []*Profile {
	out := make([]*Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Ecosystem < out[j].Ecosystem
	})

	return out
}

// ErrNoProfiles is returned when a registry ends up empty.
var ErrNoProfiles = errors.New("no profiles loaded")

// Check verifies that every supported ecosystem has a profile.
func (r *Registry) Check() error {
	if len(r.profiles) == 0 {
		return ErrNoProfiles
	}

	for _, eco := range m.Ecosystems() {
		if _, ok := r.profiles[eco]; !ok {
			return fmt.Errorf("%w: missing %s", ErrNoProfiles, eco)
		}
	}

	return nil
}
