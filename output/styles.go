// Package output provides styling helpers for terminal output.
package output

import (
	"io"

	"github.com/muesli/termenv"
)

// Styles provides styled output helpers for the CLI. Styling degrades to
// plain text automatically when the writer is not a terminal.
type Styles struct {
	output *termenv.Output
}

// NewStyles creates a new Styles instance for the given writer.
func NewStyles(w io.Writer) *Styles {
	return &Styles{
		output: termenv.NewOutput(w),
	}
}

// Success returns a styled success string (green + bold).
func (s *Styles) Success(text string) string {
	return s.output.String(text).
		Foreground(s.output.Color("2")).
		Bold().
		String()
}

// Error returns a styled error string (red + bold).
func (s *Styles) Error(text string) string {
	return s.output.String(text).
		Foreground(s.output.Color("1")).
		Bold().
		String()
}

// Warning returns a styled warning string (yellow).
func (s *Styles) Warning(text string) string {
	return s.output.String(text).
		Foreground(s.output.Color("3")).
		String()
}

// FilePath returns a styled file path (cyan).
func (s *Styles) FilePath(text string) string {
	return s.output.String(text).
		Foreground(s.output.Color("6")).
		String()
}

// Account returns a styled account name (yellow).
func (s *Styles) Account(text string) string {
	return s.output.String(text).
		Foreground(s.output.Color("3")).
		String()
}

// Amount returns a styled amount (magenta).
func (s *Styles) Amount(text string) string {
	return s.output.String(text).
		Foreground(s.output.Color("5")).
		String()
}

// Negative returns a styled negative amount (red).
func (s *Styles) Negative(text string) string {
	return s.output.String(text).
		Foreground(s.output.Color("1")).
		String()
}

// Keyword returns a styled keyword (bold).
func (s *Styles) Keyword(text string) string {
	return s.output.String(text).
		Bold().
		String()
}

// Dim returns dimmed text for secondary information.
func (s *Styles) Dim(text string) string {
	return s.output.String(text).
		Faint().
		String()
}
