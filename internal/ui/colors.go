package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/svbridge/internal/models"
)

// Styles is the palette used by the CLI.
var Styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

func (p *Palette) Title(s string) string { return p.title.Render(s) }
func (p *Palette) OK(s string) string    { return p.ok.Render(s) }
func (p *Palette) Err(s string) string   { return p.err.Render(s) }
func (p *Palette) Warn(s string) string  { return p.warn.Render(s) }
func (p *Palette) Help(s string) string  { return p.help.Render(s) }

// Status renders a task status in its bucket's color.
func (p *Palette) Status(s models.TaskStatus) string {
	switch s {
	case models.TaskCompleted:
		return p.ok.Render(string(s))
	case models.TaskFailed:
		return p.err.Render(string(s))
	case models.TaskProcessing:
		return p.warn.Render(string(s))
	default:
		return p.help.Render(string(s))
	}
}

// Outcome renders a one-line ✓/✗ result for a subject.
func (p *Palette) Outcome(subject string, err error) string {
	if err != nil {
		return fmt.Sprintf("%s %s: %v", p.err.Render("✗"), subject, err)
	}
	return fmt.Sprintf("%s %s", p.ok.Render("✓"), subject)
}
