package cli

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	IncomeColor  = lipgloss.Color("#4ECDC4")
	ExpenseColor = lipgloss.Color("#FF6B6B")
	InfoColor    = lipgloss.Color("#95E1D3")
	SubtleColor  = lipgloss.Color("#666666")

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(InfoColor).
			MarginBottom(1)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	IncomeStyle  = lipgloss.NewStyle().Foreground(IncomeColor)
	ExpenseStyle = lipgloss.NewStyle().Foreground(ExpenseColor)
	SuccessStyle = lipgloss.NewStyle().Foreground(IncomeColor)
	InfoStyle    = lipgloss.NewStyle().Foreground(InfoColor)
	SubtleStyle  = lipgloss.NewStyle().Foreground(SubtleColor)

	// BoxStyle frames the summary card.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333")).
			Padding(0, 1)
)
