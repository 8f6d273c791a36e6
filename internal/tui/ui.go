// Package tui renders the explorer queue as an interactive rating loop:
// one movie on screen, single-key verdicts, the next movie appearing
// without a visible wait.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/FreerikH/popcorn/internal/explorer"
	"github.com/FreerikH/popcorn/internal/model"
)

// refreshInterval drives snapshot re-reads so background replenishes show
// up in the status line without a keypress.
const refreshInterval = 500 * time.Millisecond

type keyMap struct {
	skip  key.Binding
	maybe key.Binding
	watch key.Binding
	retry key.Binding
	quit  key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		skip: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "skip"),
		),
		maybe: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "maybe"),
		),
		watch: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "watch"),
		),
		retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "retry"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.skip, k.maybe, k.watch, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.skip, k.maybe, k.watch},
		{k.retry, k.quit},
	}
}

type queueChangedMsg struct{ err error }

type tickMsg time.Time

// Model is the bubbletea state for the rating loop. The queue owns all
// movie state; the model only holds the last snapshot it rendered.
type Model struct {
	ctx   context.Context
	queue *explorer.Queue
	snap  explorer.Snapshot

	width  int
	height int
	help   help.Model
	keys   keyMap
	busy   bool
}

func NewModel(ctx context.Context, queue *explorer.Queue) *Model {
	return &Model{
		ctx:   ctx,
		queue: queue,
		help:  help.New(),
		keys:  newKeyMap(),
	}
}

func (m *Model) Init() tea.Cmd {
	m.busy = true
	return tea.Batch(m.initialize(), m.tick())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case queueChangedMsg:
		m.busy = false
		m.snap = m.queue.Snapshot()
		return m, nil

	case tickMsg:
		m.snap = m.queue.Snapshot()
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.retry):
		if m.snap.State == explorer.StateError && !m.busy {
			m.busy = true
			m.snap = explorer.Snapshot{State: explorer.StateLoading}
			return m, m.initialize()
		}

	case key.Matches(msg, m.keys.skip):
		return m.rate(model.RatingSkip)
	case key.Matches(msg, m.keys.maybe):
		return m.rate(model.RatingMaybe)
	case key.Matches(msg, m.keys.watch):
		return m.rate(model.RatingWatch)
	}
	return m, nil
}

func (m *Model) rate(rating model.Rating) (tea.Model, tea.Cmd) {
	if m.busy || m.snap.State != explorer.StateReady {
		return m, nil
	}
	m.busy = true
	return m, func() tea.Msg {
		return queueChangedMsg{err: m.queue.Rate(m.ctx, rating)}
	}
}

func (m *Model) initialize() tea.Cmd {
	return func() tea.Msg {
		return queueChangedMsg{err: m.queue.Initialize(m.ctx)}
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) View() string {
	var b strings.Builder

	switch m.snap.State {
	case explorer.StateLoading, explorer.StateEmpty:
		b.WriteString(styles.loading.Render("Finding something to watch..."))
	case explorer.StateError:
		msg := "Could not fetch the next movie"
		if m.snap.Err != nil {
			msg = fmt.Sprintf("%s: %v", msg, m.snap.Err)
		}
		b.WriteString(styles.err.Render(msg))
		b.WriteString("\n\n")
		b.WriteString(styles.help.Render("press r to retry"))
	case explorer.StateReady:
		b.WriteString(m.renderMovie())
	}

	b.WriteString("\n\n")
	b.WriteString(styles.status.Render(
		fmt.Sprintf("buffered %d · seen %d", m.snap.Buffered, m.snap.Seen),
	))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderMovie() string {
	movie := m.snap.Current
	if movie == nil {
		return styles.loading.Render("...")
	}

	var b strings.Builder
	title := movie.Title
	if movie.ReleaseDate != "" {
		title = fmt.Sprintf("%s (%s)", movie.Title, year(movie.ReleaseDate))
	}
	b.WriteString(styles.title.Render(title))
	b.WriteString("\n")

	if len(movie.Genres) > 0 {
		b.WriteString(styles.meta.Render(strings.Join(movie.Genres, " / ")))
		b.WriteString("\n")
	}
	if len(movie.StreamingOptions) > 0 {
		b.WriteString(styles.meta.Render("on " + strings.Join(movie.StreamingOptions, ", ")))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.body.Render(movie.Overview))
	if movie.PosterLink != "" {
		b.WriteString("\n\n")
		b.WriteString(styles.status.Render(movie.PosterLink))
	}
	return b.String()
}

func year(releaseDate string) string {
	if len(releaseDate) >= 4 {
		return releaseDate[:4]
	}
	return releaseDate
}
