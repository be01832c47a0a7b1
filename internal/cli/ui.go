package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Palette.
var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for counts.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	styleKey = lipgloss.NewStyle().Foreground(colorGray).Width(12)
)

// statusIcon is a colored glyph leading a status line.
type statusIcon struct {
	glyph string
	style lipgloss.Style
}

var (
	iconSuccess = statusIcon{"✓", lipgloss.NewStyle().Foreground(colorGreen)}
	iconError   = statusIcon{"✗", lipgloss.NewStyle().Foreground(colorRed)}
	iconWarning = statusIcon{"!", lipgloss.NewStyle().Foreground(colorYellow)}
	iconInfo    = statusIcon{"›", lipgloss.NewStyle().Foreground(colorGray)}
)

func printStatus(icon statusIcon, msg string) {
	fmt.Fprintln(statusOut, icon.style.Render(icon.glyph)+" "+msg)
}

func printSuccess(format string, args ...any) {
	printStatus(iconSuccess, fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	printStatus(iconError, fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	printStatus(iconWarning, StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	printStatus(iconInfo, fmt.Sprintf(format, args...))
}

// printKeyValue prints a labeled value in an aligned column.
func printKeyValue(key, value string) {
	fmt.Fprintln(statusOut, styleKey.Render(key)+" "+StyleValue.Render(value))
}

// printStats prints the outcome of a run on one dim line, e.g.
// "12 pinned · 2 skipped".
func printStats(pinned, skipped, failed int) {
	line := StyleDim.Render(fmt.Sprintf("%d pinned", pinned))
	if skipped > 0 {
		line += StyleDim.Render(fmt.Sprintf(" · %d skipped", skipped))
	}
	if failed > 0 {
		line += StyleDim.Render(fmt.Sprintf(" · %d failed", failed))
	}
	fmt.Fprintln(statusOut, "  "+line)
}
