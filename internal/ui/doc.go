// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for browsing and syncing the library:
//  1. [LibraryView] : Browse the unified saved-track library
//  2. [ConfirmView] : Confirm a sync against one platform
//  3. [SyncView] : Monitor real-time progress updates
//  4. [ResultView] : Display the sync summary
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View
// pattern. Progress updates flow through a channel from the tasks engine,
// providing non-blocking status reporting during syncs.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with
// contextual help displayed via charmbracelet/bubbles/help.
package ui
