package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/memorymap/internal/memorymap"
	"github.com/felixgeelhaar/memorymap/internal/result"
	"github.com/felixgeelhaar/memorymap/internal/sessionctx"
)

// MapsLoader fetches the dashboard records.
type MapsLoader func(ctx context.Context) result.Result[[]memorymap.MemoryMap]

// Model is the dashboard state
type Model struct {
	ctx     context.Context
	session *sessionctx.Manager
	states  <-chan sessionctx.State
	load    MapsLoader

	// Data state
	maps      []memorymap.MemoryMap
	loading   bool
	lastError string
	expired   bool

	// UI state
	spinner  spinner.Model
	keys     keyMap
	width    int
	height   int
	quitting bool

	// Styles
	styles Styles
}

// Styles contains lipgloss styles for the TUI
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Error    lipgloss.Style
	Muted    lipgloss.Style
	Card     lipgloss.Style
	CardHead lipgloss.Style
	Border   lipgloss.Style
	Key      lipgloss.Style
	KeyDesc  lipgloss.Style
}

type keyMap struct {
	Quit    key.Binding
	Refresh key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
	}
}

// mapsLoadedMsg carries the outcome of a fetch.
type mapsLoadedMsg struct {
	res result.Result[[]memorymap.MemoryMap]
}

// sessionChangedMsg carries a state published by the session manager.
type sessionChangedMsg struct {
	state sessionctx.State
}

// NewModel creates the dashboard model. It subscribes to manager; call Close
// once the program has finished.
func NewModel(ctx context.Context, manager *sessionctx.Manager, load MapsLoader) Model {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("63"))),
	)
	return Model{
		ctx:     ctx,
		session: manager,
		states:  manager.Subscribe(),
		load:    load,
		loading: true,
		spinner: s,
		keys:    defaultKeys(),
		styles:  DefaultStyles(),
	}
}

// DefaultStyles returns the default lipgloss styles
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")). // Purple
			MarginBottom(1),
		Subtitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")), // Gray
		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")), // Red
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			Width(32),
		CardHead: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")),
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("196")).
			Padding(0, 1),
		Key: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")),
		KeyDesc: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
	}
}

// Init starts the spinner and the first fetch (required by Bubble Tea)
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch(), m.waitForSession())
}

// Update handles messages and updates the model state (required by Bubble Tea)
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			m.Close()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			if m.loading {
				return m, nil
			}
			m.loading = true
			m.lastError = ""
			return m, tea.Batch(m.spinner.Tick, m.fetch())
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case mapsLoadedMsg:
		m.loading = false
		if !msg.res.OK() {
			m.lastError = msg.res.Message()
			return m, nil
		}
		m.maps = msg.res.Value()
		m.lastError = ""
		return m, nil

	case sessionChangedMsg:
		// A forced logout leaves no user; there is nothing left to show.
		if !msg.state.Loading && !msg.state.Authenticated() {
			m.expired = true
			m.quitting = true
			m.Close()
			return m, tea.Quit
		}
		return m, m.waitForSession()
	}

	return m, nil
}

// View renders the TUI (required by Bubble Tea)
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return m.renderDashboard()
}

// Expired reports whether the dashboard closed because the session ended.
func (m Model) Expired() bool {
	return m.expired
}

// Err returns the last fetch error, or "".
func (m Model) Err() string {
	return m.lastError
}

// Maps returns the loaded records.
func (m Model) Maps() []memorymap.MemoryMap {
	return m.maps
}

// Close stops the session subscription. It is safe to call more than once.
func (m Model) Close() {
	m.session.Unsubscribe(m.states)
}

// waitForSession delivers the next session state, or nothing once closed.
func (m Model) waitForSession() tea.Cmd {
	states := m.states
	return func() tea.Msg {
		state, ok := <-states
		if !ok {
			return nil
		}
		return sessionChangedMsg{state: state}
	}
}

func (m Model) fetch() tea.Cmd {
	ctx, load := m.ctx, m.load
	return func() tea.Msg {
		return mapsLoadedMsg{res: load(ctx)}
	}
}
