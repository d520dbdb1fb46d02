package main

import "github.com/charmbracelet/lipgloss"

// Centralized style definitions for command output.
var (
	okStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2")) // green
	failStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1")) // red
	headStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")) // cyan
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))            // gray
)
