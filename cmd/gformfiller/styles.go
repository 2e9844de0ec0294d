package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/EnamSon/gformfiller/pkg/jobs"
)

var (
	accent  = lipgloss.Color("#FFB3BA")
	success = lipgloss.Color("#A8E6CF")
	warning = lipgloss.Color("#FFD59E")
	muted   = lipgloss.Color("#6B7280")
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true)

	cellStyle = lipgloss.NewStyle().
			Padding(0, 1)

	mutedStyle = lipgloss.NewStyle().
			Foreground(muted)

	successStyle = lipgloss.NewStyle().
			Foreground(success).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(warning)
)

func statusStyle(s jobs.Status) lipgloss.Style {
	switch s {
	case jobs.StatusCompleted:
		return successStyle
	case jobs.StatusFailed, jobs.StatusError:
		return errorStyle
	case jobs.StatusRunning:
		return warningStyle
	default:
		return mutedStyle
	}
}

// renderTable lays rows out under a bold header row.
func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return cellStyle
		}).
		String()
}
