// Package color provides terminal color theming for mongoctl.
//
// Colors are organized into semantic categories (success, warning, error,
// info, muted) and rendered through lipgloss adaptive styles so output stays
// readable on dark and light terminals. NO_COLOR and limited-color terminals
// are handled by lipgloss itself.
package color
