package ui

import "github.com/charmbracelet/lipgloss"

// styles is the single stylesheet shared by every view renderer.
var styles = struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}{
	title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5A56E0")).MarginBottom(1),
	ok:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2EB872")),
	err:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E84855")),
	warn:  lipgloss.NewStyle().Foreground(lipgloss.Color("#F6AE2D")),
	help:  lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#6C6C6C")),
}
