package controller

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const defaultWidth = 80

// IsTTY reports whether w is an interactive terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return term.IsTerminal(int(f.Fd())) //nolint:gosec // file descriptors fit in int
}

// TerminalWidth returns the width of w, or 80 when it is not a terminal.
func TerminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return defaultWidth
	}

	width, _, err := term.GetSize(int(f.Fd())) //nolint:gosec // file descriptors fit in int
	if err != nil || width <= 0 {
		return defaultWidth
	}

	return width
}

// NewUI picks the interactive TUI for terminals and SimpleUI otherwise.
func NewUI(cmd *cobra.Command, interactive bool) UI {
	if interactive && IsTTY(cmd.OutOrStdout()) {
		return NewTUI(cmd.OutOrStdout())
	}

	return NewSimpleUI(cmd)
}
