// Package tui holds the interactive terminal views of cadencectl.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"cadence/internal/domain"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	colorAccent    = "#7C3AED"
	colorAccentHi  = "#A78BFA"
	colorSecondary = "#B1B8C7"
	colorWarning   = "#F59E0B"
	colorError     = "#EF4444"
)

// FocusControl is the slice of the focus service the watcher drives.
type FocusControl interface {
	Pause(ctx context.Context, userID, id int64) (*domain.FocusSession, error)
	Resume(ctx context.Context, userID, id int64) (*domain.FocusSession, error)
	End(ctx context.Context, userID, id int64) (*domain.FocusSession, error)
	Elapsed(sess *domain.FocusSession) time.Duration
}

type keyMap struct {
	Toggle key.Binding
	End    key.Binding
	Quit   key.Binding
	Help   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding { return []key.Binding{k.Toggle, k.End, k.Quit, k.Help} }

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Toggle, k.End}, {k.Quit, k.Help}}
}

var keys = keyMap{
	Toggle: key.NewBinding(key.WithKeys("p", " "), key.WithHelp("p/space", "pause/resume")),
	End:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "end & save")),
	Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q/esc", "leave running")),
	Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
}

type tickMsg struct{}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return tickMsg{} })
}

// FocusModel shows a live focus session and lets the user pause, resume or
// end it from the keyboard.
type FocusModel struct {
	ctx     context.Context
	ctl     FocusControl
	userID  int64
	session *domain.FocusSession
	title   string

	elapsed time.Duration
	width   int
	help    help.Model
	err     error

	ended    bool
	detached bool
}

// NewFocusModel creates a watcher for an open session.
func NewFocusModel(ctx context.Context, ctl FocusControl, userID int64, session *domain.FocusSession, title string) FocusModel {
	return FocusModel{
		ctx:     ctx,
		ctl:     ctl,
		userID:  userID,
		session: session,
		title:   title,
		elapsed: ctl.Elapsed(session),
		help:    help.New(),
	}
}

// Session returns the last known state of the watched session.
func (m FocusModel) Session() *domain.FocusSession { return m.session }

// Ended reports whether the user closed the session from the watcher.
func (m FocusModel) Ended() bool { return m.ended }

// Init starts the one-second ticker.
func (m FocusModel) Init() tea.Cmd { return tick() }

// Update handles ticks and key presses.
func (m FocusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if m.ended || m.detached {
			return m, nil
		}
		m.elapsed = m.ctl.Elapsed(m.session)
		return m, tick()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Toggle):
			op := m.ctl.Pause
			if m.session.State() == domain.FocusPaused {
				op = m.ctl.Resume
			}
			m.apply(op)
			return m, nil
		case key.Matches(msg, keys.End):
			m.apply(m.ctl.End)
			if m.err != nil {
				return m, nil
			}
			m.ended = true
			return m, tea.Quit
		case key.Matches(msg, keys.Quit):
			m.detached = true
			return m, tea.Quit
		case key.Matches(msg, keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
	}
	return m, nil
}

func (m *FocusModel) apply(op func(ctx context.Context, userID, id int64) (*domain.FocusSession, error)) {
	next, err := op(m.ctx, m.userID, m.session.ID)
	m.err = err
	if err != nil {
		return
	}
	m.session = next
	m.elapsed = m.ctl.Elapsed(next)
}

// View renders the watcher.
func (m FocusModel) View() string {
	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorAccentHi)).
		Render(fmt.Sprintf("FOCUS  #%d", m.session.TaskID))
	title := lipgloss.NewStyle().Bold(true).Render(m.title)

	clockColor := colorAccent
	state := "focusing"
	if m.session.State() == domain.FocusPaused {
		clockColor = colorWarning
		state = "paused"
	}
	clock := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(clockColor)).Padding(1, 4).
		Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color(clockColor)).
		Render(clockText(m.elapsed))
	sub := lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color(colorSecondary)).
		Render(fmt.Sprintf("%s since %s", state, m.session.StartTime.Local().Format("15:04")))

	parts := []string{header, title, clock, sub}
	if m.err != nil {
		parts = append(parts, lipgloss.NewStyle().Foreground(lipgloss.Color(colorError)).Render(m.err.Error()))
	}
	parts = append(parts, m.help.View(keys))
	body := strings.Join(parts, "\n\n")
	if m.width > 0 {
		body = lipgloss.PlaceHorizontal(m.width, lipgloss.Center, body)
	}
	return body
}

func clockText(d time.Duration) string {
	d = d.Truncate(time.Second)
	h := int(d.Hours())
	mm := int(d.Minutes()) % 60
	ss := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, mm, ss)
	}
	return fmt.Sprintf("%02d:%02d", mm, ss)
}

// RunFocus runs the watcher full screen and reports the outcome on out.
func RunFocus(ctx context.Context, ctl FocusControl, userID int64, session *domain.FocusSession, title string, out io.Writer) error {
	p := tea.NewProgram(NewFocusModel(ctx, ctl, userID, session, title), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return err
	}

	m := final.(FocusModel)
	if m.Ended() && m.Session().DurationMinutes != nil {
		fmt.Fprintf(out, "focus session #%d ended: %d min\n", m.Session().ID, *m.Session().DurationMinutes)
		return nil
	}
	fmt.Fprintf(out, "focus session #%d is still %s; 'cadencectl focus end %d' closes it\n",
		m.Session().ID, m.Session().State(), m.Session().ID)
	return nil
}
