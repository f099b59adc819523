package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#6BCB77")).
			MarginBottom(1)
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1)
	headingStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFD479"))
	sectionTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#6BCB77"))
	recommendedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)
	mutedStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
	detailTextStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	borderColor       = lipgloss.Color("#555555")
	errorBorderColor  = lipgloss.Color("#FF6B6B")

	labelStyleActive    = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	labelStyleComplete  = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	labelStyleAbandoned = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	labelStyleDefault   = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))
)
