// Package ui styles the human-facing status lines dtx writes to stderr.
//
// Styling is done with lipgloss, which drops colors automatically when the output is not a terminal,
// so piped and captured output stays plain text.
package ui
