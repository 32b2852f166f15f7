// Package output provides styled terminal rendering helpers for perfadvisor.
package output

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/perfadvisor/internal/metric"
)

// Color constants for consistent styling across the CLI.
var (
	// ColorPrimary is used for headers and emphasis.
	ColorPrimary = lipgloss.Color("#64b5f6")

	// ColorCritical is used for critical findings.
	ColorCritical = lipgloss.Color("#ef5350")

	// ColorHigh is used for high-severity findings.
	ColorHigh = lipgloss.Color("#ffb74d")

	// ColorMedium is used for medium-severity findings.
	ColorMedium = lipgloss.Color("#fff59d")

	// ColorOK is used for low severity and applied tasks.
	ColorOK = lipgloss.Color("#66bb6a")

	// ColorMuted is used for secondary text and borders.
	ColorMuted = lipgloss.Color("#888888")
)

// Styles provides reusable lipgloss styles.
var (
	// StyleHeader is used for section headers.
	StyleHeader = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	// StyleCritical is used for critical severities and risks.
	StyleCritical = lipgloss.NewStyle().
			Foreground(ColorCritical).
			Bold(true)

	// StyleHigh is used for high severities.
	StyleHigh = lipgloss.NewStyle().
			Foreground(ColorHigh)

	// StyleMedium is used for medium severities.
	StyleMedium = lipgloss.NewStyle().
			Foreground(ColorMedium)

	// StyleOK is used for low severities and applied markers.
	StyleOK = lipgloss.NewStyle().
			Foreground(ColorOK)

	// StyleMuted is used for de-emphasized text.
	StyleMuted = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// StyleBold is used for emphasized text.
	StyleBold = lipgloss.NewStyle().
			Bold(true)
)

// noColor tracks whether color output is disabled.
var noColor bool

// SetNoColor disables or enables color output globally. When disabled, all
// package-level styles are reassigned to unstyled renderers.
func SetNoColor(disabled bool) {
	noColor = disabled
	if disabled {
		plain := lipgloss.NewStyle()
		StyleHeader = plain
		StyleCritical = plain
		StyleHigh = plain
		StyleMedium = plain
		StyleOK = plain
		StyleMuted = plain
		StyleBold = plain
	}
}

// IsNoColor returns whether color output is currently disabled.
func IsNoColor() bool {
	return noColor
}

// StdoutIsTTY reports whether stdout is a terminal; piped output should
// not carry escape sequences.
func StdoutIsTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// Severity renders a severity label in its style.
func Severity(s metric.Severity) string {
	switch s {
	case metric.SeverityCritical:
		return StyleCritical.Render(string(s))
	case metric.SeverityHigh:
		return StyleHigh.Render(string(s))
	case metric.SeverityMedium:
		return StyleMedium.Render(string(s))
	default:
		return StyleOK.Render(string(s))
	}
}

// Risk renders a risk-level label in its style.
func Risk(r metric.RiskLevel) string {
	switch r {
	case metric.RiskHigh:
		return StyleCritical.Render(string(r))
	case metric.RiskMedium:
		return StyleMedium.Render(string(r))
	default:
		return StyleOK.Render(string(r))
	}
}
