// Package controller provides the output adapters that present
// classifications, audit reports, finding documents and agent sessions.
package controller

import (
	"context"

	m "phasegate.dev/pkg/phasegate/internal/model"
)

// ProfileSummary describes one loaded ecosystem profile.
type ProfileSummary struct {
	Ecosystem  m.Ecosystem
	Name       string
	Extensions []string
	CostUnit   string
	Threshold  float64
	Patterns   int
	Exploits   int
}

// StartOption is a functional option for Start method.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	title    string
	markdown bool
}

// WithTitle sets the heading shown by interactive views.
func WithTitle(title string) StartOption {
	return func(c *StartConfig) {
		c.title = title
	}
}

// WithMarkdown renders finding documents for the terminal instead of
// printing raw markdown.
func WithMarkdown() StartOption {
	return func(c *StartConfig) {
		c.markdown = true
	}
}

func newStartConfig(options []StartOption) StartConfig {
	cfg := StartConfig{title: "phasegate"}
	for _, opt := range options {
		opt(&cfg)
	}

	return cfg
}

// UI defines the interface for presenting pipeline output.
// Implementations can use different output methods (simple text, TUI, etc).
//
//nolint:interfacebloat // One method per command output.
type UI interface {
	Start(ctx context.Context, options ...StartOption) error
	Close(ctx context.Context)
	Wait(ctx context.Context) // Wait for UI to finish (user closes it)
	DisplayClassification(ctx context.Context, units []m.CodeUnit, classes map[string]m.Classification) error
	DisplayReport(ctx context.Context, report m.Report) error
	DisplayFinding(ctx context.Context, doc []byte) error
	DisplayDiff(ctx context.Context, diff string) error
	DisplayProfiles(ctx context.Context, profiles []ProfileSummary) error
	DisplaySession(ctx context.Context, state m.SessionState) error
}
