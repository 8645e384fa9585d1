package theme

import "github.com/charmbracelet/lipgloss"

// Styles describes reusable Lip Gloss styles shared across the UI.
type Styles struct {
	Label         *lipgloss.Style
	Field         *lipgloss.Style
	FocusedField  *lipgloss.Style
	DisabledField *lipgloss.Style
	Mode          *lipgloss.Style
	ActiveMode    *lipgloss.Style
	Header        *lipgloss.Style
	Cell          *lipgloss.Style
	SelectedCell  *lipgloss.Style
	EditingCell   *lipgloss.Style
	Hint          *lipgloss.Style
	Info          *lipgloss.Style
	Error         *lipgloss.Style
	Footer        *lipgloss.Style
	AlertTitle    *lipgloss.Style
	AlertBody     *lipgloss.Style
	AlertBox      *lipgloss.Style
	FilterPrompt  *lipgloss.Style
}

var defaultStyles = Styles{
	Label: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true),
	),
	Field: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("249")),
	),
	FocusedField: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("238")),
	),
	DisabledField: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true),
	),
	Mode: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("249")),
	),
	ActiveMode: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Bold(true),
	),
	Header: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true),
	),
	Cell: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("249")),
	),
	SelectedCell: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("238")).Bold(true),
	),
	EditingCell: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("33")),
	),
	Hint: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	),
	Info: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("249")),
	),
	Error: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	),
	Footer: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("249")),
	),
	AlertTitle: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	),
	AlertBody: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
	),
	AlertBox: ptr(
		lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("196")).Padding(0, 1),
	),
	FilterPrompt: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("34")).Bold(true),
	),
}

// Default exposes the standard style set used across the application.
func Default() *Styles {
	return &defaultStyles
}

func ptr(style lipgloss.Style) *lipgloss.Style {
	return &style
}
