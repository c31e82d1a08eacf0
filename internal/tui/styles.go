package tui

import "github.com/charmbracelet/lipgloss"

// Colour palette.
const (
	colorAccent = lipgloss.Color("86")
	colorMuted  = lipgloss.Color("241")
	colorError  = lipgloss.Color("196")
)

//nolint:gochecknoglobals // Shared lipgloss styles.
var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	rankStyle     = lipgloss.NewStyle().Foreground(colorMuted).Width(rankColumnWidth)
	errorStyle    = lipgloss.NewStyle().Foreground(colorError)
)

const rankColumnWidth = 12
