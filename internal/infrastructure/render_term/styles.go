package render_term

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/davarch/ci-pulse/internal/domain"
)

var (
	colorSuccess = lipgloss.Color("46")  // green
	colorFailed  = lipgloss.Color("196") // red
	colorRunning = lipgloss.Color("33")  // blue
	colorPending = lipgloss.Color("214") // orange
	colorMuted   = lipgloss.Color("240") // gray

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			PaddingRight(1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			MarginTop(1)

	rowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	emptyStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorFailed)
)

func statusIcon(s domain.Status) string {
	switch s {
	case domain.StatusSuccess:
		return "✔"
	case domain.StatusFailed:
		return "✘"
	case domain.StatusRunning:
		return "▶"
	case domain.StatusPending:
		return "◷"
	case domain.StatusCanceled:
		return "⊘"
	case domain.StatusSkipped:
		return "»"
	default:
		return "?"
	}
}

func statusColor(s domain.Status) lipgloss.Color {
	switch s {
	case domain.StatusSuccess:
		return colorSuccess
	case domain.StatusFailed:
		return colorFailed
	case domain.StatusRunning:
		return colorRunning
	case domain.StatusPending:
		return colorPending
	default:
		return colorMuted
	}
}

func connectionBadge(c domain.ConnectionState) string {
	switch c {
	case domain.ConnConnected:
		return lipgloss.NewStyle().Foreground(colorSuccess).Render("● Connected")
	case domain.ConnConnecting:
		return lipgloss.NewStyle().Foreground(colorPending).Render("◌ Connecting...")
	default:
		return lipgloss.NewStyle().Foreground(colorFailed).Render("○ Disconnected")
	}
}
