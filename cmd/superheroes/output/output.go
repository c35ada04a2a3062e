// Package output prints styled messages for the superheroes CLI.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorInfo    = lipgloss.Color("#3B82F6")
	colorMuted   = lipgloss.Color("#6B7280")
	colorPrimary = lipgloss.Color("#7C3AED")

	successStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(colorInfo)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	primaryStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
)

// Writer is where messages go. Commands point it at cmd.OutOrStdout().
var Writer io.Writer = os.Stdout

func line(style lipgloss.Style, icon, format string, args ...any) {
	_, _ = fmt.Fprintln(Writer, style.Render(icon)+" "+fmt.Sprintf(format, args...))
}

// Success prints a success message.
func Success(format string, args ...any) { line(successStyle, "✓", format, args...) }

// Warning prints a warning message.
func Warning(format string, args ...any) { line(warningStyle, "⚠", format, args...) }

// Error prints an error message.
func Error(format string, args ...any) { line(errorStyle, "✗", format, args...) }

// Info prints an info message.
func Info(format string, args ...any) { line(infoStyle, "ℹ", format, args...) }

// Muted prints a muted message.
func Muted(format string, args ...any) {
	_, _ = fmt.Fprintln(Writer, mutedStyle.Render(fmt.Sprintf(format, args...)))
}

// Section prints a section header underlined to the title's width.
func Section(title string) {
	_, _ = fmt.Fprintf(Writer, "\n%s\n%s\n\n",
		primaryStyle.Render(title),
		mutedStyle.Render(strings.Repeat("═", lipgloss.Width(title))))
}

// StatusIcon returns a colored icon for a migration status.
func StatusIcon(status string) string {
	switch status {
	case "applied":
		return successStyle.Render("✓")
	case "pending":
		return warningStyle.Render("○")
	case "failed":
		return errorStyle.Render("✗")
	default:
		return mutedStyle.Render("•")
	}
}

// StrengthBadge colors a hero power strength.
func StrengthBadge(strength string) string {
	switch strength {
	case "Strong":
		return successStyle.Render(strength)
	case "Average":
		return infoStyle.Render(strength)
	case "Weak":
		return warningStyle.Render(strength)
	default:
		return mutedStyle.Render(strength)
	}
}
