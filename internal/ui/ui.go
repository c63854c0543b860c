package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mlefebvre/tunesync/internal/repositories"
	"github.com/mlefebvre/tunesync/internal/shared"
	"github.com/mlefebvre/tunesync/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LibraryView ViewState = iota
	ConfirmView
	SyncView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	engine       *tasks.Engine
	userID       string
	platform     string
	width        int
	height       int
	libraryList  list.Model
	entries      []repositories.LibraryEntry
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	result       *tasks.SyncResult
	err          error
	help         help.Model
	keys         keyMap
}

// keyMap defines the key bindings for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	sync    key.Binding
	remove  key.Binding
	back    key.Binding
	yes     key.Binding
	no      key.Binding
	restart key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		sync: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sync"),
		),
		remove: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "remove"),
		),
		back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		yes: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "yes"),
		),
		no: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "no"),
		),
		restart: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "back to library"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.sync},
		{k.remove, k.back, k.yes, k.no},
		{k.restart, k.quit},
	}
}

// entryItem wraps a [repositories.LibraryEntry] to implement list.Item.
type entryItem struct {
	entry repositories.LibraryEntry
}

func (i entryItem) FilterValue() string { return i.entry.Track.Title() }
func (i entryItem) Title() string       { return i.entry.Track.Title() }
func (i entryItem) Description() string {
	parts := []string{i.entry.Track.Artist()}
	if album := i.entry.Track.Album(); album != nil {
		parts = append(parts, *album)
	}
	if ms := i.entry.Track.DurationMS(); ms != nil && *ms > 0 {
		parts = append(parts, shared.FormatDurationMS(*ms))
	}
	names := make([]string, 0, len(i.entry.Links))
	for _, link := range i.entry.Links {
		names = append(names, link.Platform())
	}
	if len(names) > 0 {
		parts = append(parts, strings.Join(names, ", "))
	}
	return strings.Join(parts, " • ")
}

type libraryFetchedMsg struct {
	entries []repositories.LibraryEntry
	err     error
}

type entryRemovedMsg struct {
	err error
}

type progressUpdateMsg tasks.ProgressUpdate

type syncCompleteMsg struct {
	result *tasks.SyncResult
	err    error
}

// NewModel creates a new TUI model with the provided dependencies. platform
// names the sync target offered by the library view.
func NewModel(ctx context.Context, engine *tasks.Engine, userID, platform string) *Model {
	return &Model{
		ctx:      ctx,
		view:     LibraryView,
		engine:   engine,
		userID:   userID,
		platform: platform,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init initializes the TUI by loading the library.
func (m *Model) Init() tea.Cmd {
	return m.fetchLibrary()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.libraryList.Width() == 0 {
			m.libraryList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case LibraryView:
			return m.handleLibraryKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case libraryFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.entries = msg.entries
		items := make([]list.Item, len(msg.entries))
		for i, entry := range msg.entries {
			items[i] = entryItem{entry: entry}
		}
		m.libraryList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.libraryList.Title = fmt.Sprintf("Library (%d tracks)", len(msg.entries))
		m.libraryList.SetSize(m.width-4, m.height-8)
		return m, nil

	case entryRemovedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		return m, m.fetchLibrary()

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case syncCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		return m, nil
	}

	return m.updateList(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case LibraryView:
		return m.renderLibrary()
	case ConfirmView:
		return m.renderConfirm()
	case SyncView:
		return m.renderSync()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleLibraryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "s":
		m.view = ConfirmView
		return m, nil
	case "x":
		selected := m.libraryList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(entryItem); ok {
				return m, m.removeEntry(item.entry.Saved.ID())
			}
		}
	}

	var cmd tea.Cmd
	m.libraryList, cmd = m.libraryList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "n", "esc":
		m.view = LibraryView
		return m, nil
	case "y":
		m.view = SyncView
		return m, m.startSync()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = LibraryView
		m.result = nil
		m.err = nil
		return m, m.fetchLibrary()
	}
	return m, nil
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.view == LibraryView {
		m.libraryList, cmd = m.libraryList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchLibrary() tea.Cmd {
	return func() tea.Msg {
		entries, err := m.engine.Library(m.userID)
		return libraryFetchedMsg{entries: entries, err: err}
	}
}

func (m *Model) removeEntry(id string) tea.Cmd {
	return func() tea.Msg {
		return entryRemovedMsg{err: m.engine.RemoveSavedTrack(id)}
	}
}

func (m *Model) startSync() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	progressChan := m.progressChan

	go func() {
		result, err := m.engine.Sync(m.ctx, m.userID, m.platform, progressChan)
		m.result = result
		m.err = err
		close(progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return syncCompleteMsg{result: m.result, err: m.err}
		}

		update, ok := <-m.progressChan
		if !ok {
			return syncCompleteMsg{result: m.result, err: m.err}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderLibrary() string {
	helpKeys := []key.Binding{m.keys.sync, m.keys.remove, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.libraryList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Sync library with %s?", m.platform))
	info := fmt.Sprintf("\nSaved tracks: %d\nPlatform: %s\n", len(m.entries), m.platform)

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderSync() string {
	title := styles.title.Render(fmt.Sprintf("Syncing with %s", m.platform))

	var phase string
	switch m.progress.Phase {
	case tasks.FetchLibrary:
		phase = "Fetching saved tracks..."
	case tasks.ReconcileTracks:
		phase = fmt.Sprintf("Reconciling tracks (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.FanOutLinks:
		phase = "Linking tracks on other platforms..."
	case tasks.RemoveTracks:
		phase = "Removing stale tracks..."
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Sync failed: %v\n\nPress r to go back, q to quit", m.err))
	}

	if m.result == nil {
		return styles.err.Render("No result available\n\nPress r to go back, q to quit")
	}

	title := styles.ok.Render("✓ Sync Complete")
	info := fmt.Sprintf(
		"\nPlatform: %s\nFetched: %d\nAdded: %d\nRemoved: %d",
		m.result.Platform,
		m.result.Fetched,
		m.result.Added,
		m.result.Removed,
	)

	var failed string
	if len(m.result.Failures) > 0 {
		failed = fmt.Sprintf("\n\n%s", styles.warn.Render(fmt.Sprintf("Failed to reconcile %d tracks:", len(m.result.Failures))))
		for _, failure := range m.result.Failures {
			failed += fmt.Sprintf("\n  • %s - %s", failure.Artist, failure.Title)
		}
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, failed, helpView)
}
