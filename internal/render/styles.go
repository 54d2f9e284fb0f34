package render

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette. Kept to the basic ANSI range so the dashboard reads the
// same on 16-color terminals as on TrueColor ones.
var (
	colorGreen  = lipgloss.Color("2")
	colorYellow = lipgloss.Color("3")
	colorBlue   = lipgloss.Color("4")
	colorRed    = lipgloss.Color("1")
	colorCyan   = lipgloss.Color("6")
)

// Styles bundles every style the renderer uses. A zero attribute set (the
// plain profile) degrades to unstyled text for non-interactive output.
type Styles struct {
	Title         lipgloss.Style
	SectionHeader lipgloss.Style
	ErrorHeader   lipgloss.Style
	URL           lipgloss.Style
	Bullet        lipgloss.Style
	Dim           lipgloss.Style

	phases map[string]lipgloss.Style
}

// NewStyles builds the style set. With plain set, every style renders text
// unchanged.
func NewStyles(plain bool) Styles {
	if plain {
		s := lipgloss.NewStyle()
		return Styles{
			Title:         s,
			SectionHeader: s,
			ErrorHeader:   s,
			URL:           s,
			Bullet:        s,
			Dim:           s,
			phases:        map[string]lipgloss.Style{},
		}
	}

	return Styles{
		Title:         lipgloss.NewStyle().Bold(true),
		SectionHeader: lipgloss.NewStyle().Bold(true).Underline(true),
		ErrorHeader:   lipgloss.NewStyle().Bold(true).Underline(true).Foreground(colorRed),
		URL:           lipgloss.NewStyle().Bold(true).Foreground(colorCyan),
		Bullet:        lipgloss.NewStyle().Foreground(colorBlue),
		Dim:           lipgloss.NewStyle().Faint(true),
		phases: map[string]lipgloss.Style{
			"green":  lipgloss.NewStyle().Foreground(colorGreen),
			"yellow": lipgloss.NewStyle().Foreground(colorYellow),
			"red":    lipgloss.NewStyle().Foreground(colorRed),
			"blue":   lipgloss.NewStyle().Foreground(colorBlue),
			"cyan":   lipgloss.NewStyle().Foreground(colorCyan),
		},
	}
}

// Phase returns the style for a phase color tag. Unknown tags render
// unstyled.
func (s Styles) Phase(color string) lipgloss.Style {
	if st, ok := s.phases[color]; ok {
		return st
	}
	return lipgloss.NewStyle()
}
