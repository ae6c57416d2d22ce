// Package display holds the lipgloss styling and text-rendering helpers
// shared by the read, decode, and browse subcommands.
package display

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	HeaderColor  = lipgloss.Color("#4682B4") // Steel blue
	ObjectColor  = lipgloss.Color("#228B22") // Forest green
	ScalarColor  = lipgloss.Color("#CCCCCC") // Light gray
	StringColor  = lipgloss.Color("#FF8800") // Orange
	RefColor     = lipgloss.Color("#888888") // Medium gray
	ErrorColor   = lipgloss.Color("#CC3333") // Dark red
	BorderColor  = lipgloss.Color("#666666") // Dark gray
)

var (
	HeaderStyle = lipgloss.NewStyle().Foreground(HeaderColor).Bold(true)
	ObjectStyle = lipgloss.NewStyle().Foreground(ObjectColor).Bold(true)
	ScalarStyle = lipgloss.NewStyle().Foreground(ScalarColor)
	StringStyle = lipgloss.NewStyle().Foreground(StringColor)
	RefStyle    = lipgloss.NewStyle().Foreground(RefColor)
	ErrorStyle  = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true).
			Border(lipgloss.RoundedBorder()).BorderForeground(ErrorColor).Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true).Padding(0, 1)

	StatusBarStyle = lipgloss.NewStyle().Foreground(ScalarColor).Background(RefColor).Padding(0, 1)
)

// EventStyle picks the style used for one line of `tstream read` output,
// keyed by a short event-kind label (see EventLine).
func EventStyle(kind string) lipgloss.Style {
	switch kind {
	case "Header":
		return HeaderStyle
	case "BeginObject", "EndObject", "SingleClass", "ClassReference":
		return ObjectStyle
	case "Atom":
		return ScalarStyle
	case "CString", "Selector":
		return StringStyle
	case "ObjectReference", "Nil":
		return RefStyle
	default:
		return ScalarStyle
	}
}

// Indent renders n levels of tree indentation using a guide character, the
// way a pretty-printer threads branch lines through nested structures.
func Indent(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("  ", n-1) + "├─ "
}
