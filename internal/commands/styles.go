package commands

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const (
	colorAccent    = "#7C3AED"
	colorAccentHi  = "#A78BFA"
	colorSecondary = "#B1B8C7"
	colorMuted     = "#6D7383"
	colorError     = "#EF4444"
	colorSuccess   = "#22C55E"
	colorWarning   = "#F59E0B"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorAccent))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(colorSecondary))
	valueStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorAccentHi))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(colorMuted))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color(colorSuccess))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(colorWarning))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(colorError))
	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colorAccent)).
			Padding(0, 1)
)

func field(label string, value any) string {
	return labelStyle.Render(fmt.Sprintf("%-18s", label)) + valueStyle.Render(fmt.Sprint(value))
}

func yesNo(due bool, dueText, okText string) string {
	if due {
		return warnStyle.Render(dueText)
	}
	return okStyle.Render(okText)
}

// formatDuration renders d as 1h05m or 12m30s.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm", h, m)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}
