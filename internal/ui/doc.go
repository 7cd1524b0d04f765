// Package ui styles CLI output with lipgloss.
//
// [Styles] is the shared palette: titles, success and failure marks, warnings and help text, plus
// [Palette.Status] for coloring normalized task statuses.
package ui
