// Package ui implements an interactive terminal view of a playlist scan using bubbletea's Elm architecture.
//
// The TUI has two views:
//  1. [ScanView] : a spinner, progress bar, per-type counts and the most recent entry messages
//  2. [ResultView] : the final ScanLog summary with browsable lists of entries and errors
//
// The [ScanModel] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the ScanEngine, which never blocks on a slow renderer.
//
// Keyboard navigation uses vim-style bindings (j/k, tab, c, q) with contextual help displayed via charmbracelet/bubbles/help.
// The package also exposes the lipgloss palette used by the plain CLI output.
package ui
