package tui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = newPalette()

type palette struct {
	title   lipgloss.Style
	meta    lipgloss.Style
	body    lipgloss.Style
	err     lipgloss.Style
	loading lipgloss.Style
	help    lipgloss.Style
	status  lipgloss.Style
}

func newPalette() palette {
	return palette{
		title:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F4C430")).Bold(true).MarginBottom(1),
		meta:    lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")),
		body:    lipgloss.NewStyle().Width(72),
		err:     lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555")).Bold(true),
		loading: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")).Italic(true),
		help:    lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")).Italic(true),
		status:  lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")),
	}
}
