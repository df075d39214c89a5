// internal/service/report/palette.go

package report

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Palette styles report text. A plain palette returns text unchanged.
type Palette struct {
	bold   lipgloss.Style
	green  lipgloss.Style
	yellow lipgloss.Style
	red    lipgloss.Style
	plain  bool
}

// NewPalette builds a palette bound to w. Colour is used only when enabled and w is a terminal.
func NewPalette(w io.Writer, color bool) *Palette {
	if !color || !IsTerminal(w) {
		return PlainPalette()
	}

	r := lipgloss.NewRenderer(w, termenv.WithUnsafe())
	r.SetColorProfile(termenv.ANSI)

	return &Palette{
		bold:   r.NewStyle().Bold(true),
		green:  r.NewStyle().Foreground(lipgloss.Color("10")),
		yellow: r.NewStyle().Foreground(lipgloss.Color("11")),
		red:    r.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

// PlainPalette returns a palette that never emits escape codes
func PlainPalette() *Palette {
	return &Palette{plain: true}
}

// IsTerminal reports whether w is a terminal file descriptor
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (p *Palette) render(s lipgloss.Style, text string) string {
	if p.plain {
		return text
	}
	return s.Render(text)
}

func (p *Palette) Bold(text string) string   { return p.render(p.bold, text) }
func (p *Palette) Green(text string) string  { return p.render(p.green, text) }
func (p *Palette) Yellow(text string) string { return p.render(p.yellow, text) }
func (p *Palette) Red(text string) string    { return p.render(p.red, text) }

// Severity colours text by band
func (p *Palette) Severity(s Severity, text string) string {
	switch s {
	case SeverityLow:
		return p.Green(text)
	case SeverityMedium:
		return p.Yellow(text)
	case SeverityHigh:
		return p.Red(text)
	default:
		return text
	}
}

// Info prefixes a report line
func (p *Palette) Info(text string) string {
	return "[+] " + text
}

// Warn prefixes an advisory line with a red bang
func (p *Palette) Warn(text string) string {
	return "[" + p.Red("!") + "] " + text
}
