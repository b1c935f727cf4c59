// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for playlist reconciliation:
//  1. [PlaylistListView] : Browse playlists and pick the reference (Release Radar)
//  2. [TrackListView] : Preview the reference tracks before running
//  3. [ConfirmView] : Confirm the reconcile into the configured target
//  4. [ReconcileView] : Monitor real-time progress updates per phase
//  5. [ResultView] : Display run counts and timings
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the Reconciler, providing
// non-blocking status reporting during a run.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with
// contextual help displayed via charmbracelet/bubbles/help.
package ui
