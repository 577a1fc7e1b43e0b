package main

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("22")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	tableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("245"))

	handLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	handStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("228"))

	rowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	activeRowStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("48"))

	timeoutRowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))

	faintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))
)
