package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/bamsammich/ddupe/internal/config"
)

// Catppuccin Mocha palette, mutable so config can override.
var (
	ColorKeep   = lipgloss.Color("#a6e3a1")
	ColorDupe   = lipgloss.Color("#f38ba8")
	ColorWarn   = lipgloss.Color("#f9e2af")
	ColorAccent = lipgloss.Color("#cba6f7")
	ColorMuted  = lipgloss.Color("#5a6278")
	ColorBright = lipgloss.Color("#cdd6f4")
)

var colorEnabled = true

// Pre-built styles, rebuilt by rebuildStyles() after color changes.
var (
	styleHeader         lipgloss.Style
	styleKeep           lipgloss.Style
	styleDupe           lipgloss.Style
	styleWarn           lipgloss.Style
	styleMuted          lipgloss.Style
	stylePath           lipgloss.Style
	styleBigNumber      lipgloss.Style
	styleSparkline      lipgloss.Style
	styleProgressFilled lipgloss.Style
	styleProgressEmpty  lipgloss.Style
)

func init() {
	rebuildStyles()
}

// rebuildStyles reconstructs all lipgloss styles from the current color vars.
// With color disabled every style renders its input unchanged.
func rebuildStyles() {
	if !colorEnabled {
		plain := lipgloss.NewStyle()
		styleHeader, styleKeep, styleDupe, styleWarn, styleMuted = plain, plain, plain, plain, plain
		stylePath, styleBigNumber, styleSparkline = plain, plain, plain
		styleProgressFilled, styleProgressEmpty = plain, plain
		return
	}
	styleHeader = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	styleKeep = lipgloss.NewStyle().Bold(true).Foreground(ColorKeep)
	styleDupe = lipgloss.NewStyle().Bold(true).Foreground(ColorDupe)
	styleWarn = lipgloss.NewStyle().Foreground(ColorWarn)
	styleMuted = lipgloss.NewStyle().Foreground(ColorMuted)
	stylePath = lipgloss.NewStyle().Foreground(ColorBright)
	styleBigNumber = lipgloss.NewStyle().Bold(true).Foreground(ColorKeep)
	styleSparkline = lipgloss.NewStyle().Foreground(ColorAccent)
	styleProgressFilled = lipgloss.NewStyle().Foreground(ColorKeep)
	styleProgressEmpty = lipgloss.NewStyle().Foreground(ColorMuted)
}

// ApplyTheme overrides colors from a config ThemeConfig and rebuilds all styles.
func ApplyTheme(tc config.ThemeConfig) {
	if tc.Keep != nil {
		ColorKeep = lipgloss.Color(*tc.Keep)
	}
	if tc.Dupe != nil {
		ColorDupe = lipgloss.Color(*tc.Dupe)
	}
	if tc.Warn != nil {
		ColorWarn = lipgloss.Color(*tc.Warn)
	}
	if tc.Accent != nil {
		ColorAccent = lipgloss.Color(*tc.Accent)
	}
	if tc.Muted != nil {
		ColorMuted = lipgloss.Color(*tc.Muted)
	}
	if tc.Bright != nil {
		ColorBright = lipgloss.Color(*tc.Bright)
	}
	rebuildStyles()
}

// SetColor turns styling on or off.
func SetColor(enabled bool) {
	colorEnabled = enabled
	rebuildStyles()
}

// ColorWanted reports whether output to a terminal should be styled.
// A non-empty NO_COLOR disables color regardless of the terminal.
func ColorWanted(isTTY bool) bool {
	return isTTY && os.Getenv("NO_COLOR") == ""
}
