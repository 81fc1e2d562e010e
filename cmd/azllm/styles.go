package main

import "github.com/charmbracelet/lipgloss"

var (
	colorMuted   = lipgloss.Color("#656d76")
	colorAccent  = lipgloss.Color("#0969da")
	colorWarning = lipgloss.Color("#9a6700")
)

var (
	countStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	dimStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	headerStyle = lipgloss.NewStyle().Bold(true)
	pieceStyle  = lipgloss.NewStyle().Foreground(colorWarning)
)

// styler applies lipgloss styles only when writing to a terminal.
type styler bool

func (s styler) render(st lipgloss.Style, text string) string {
	if !s {
		return text
	}
	return st.Render(text)
}
