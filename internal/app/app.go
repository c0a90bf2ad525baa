// Package app wires the session layer to the Bubble Tea runtime.
package app

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jacopomaroli/roombutler/internal/api"
	"github.com/jacopomaroli/roombutler/internal/bus"
	"github.com/jacopomaroli/roombutler/internal/session"
	"github.com/jacopomaroli/roombutler/internal/theme"
	"github.com/jacopomaroli/roombutler/internal/views/devices"
	"github.com/jacopomaroli/roombutler/internal/views/gathering"
	"github.com/jacopomaroli/roombutler/internal/views/status"
	"github.com/jacopomaroli/roombutler/internal/views/training"
)

// busMsg carries one bus event into the Bubble Tea update loop.
type busMsg struct {
	event string
	args  []any
}

// cmdDoneMsg is returned when a network command finishes.
type cmdDoneMsg struct {
	op  string
	err error
}

// forwardedEvents are the bus events the TUI reacts to.
var forwardedEvents = []string{
	bus.EventPong,
	bus.EventDisconnected,
	bus.EventEntitiesLoaded,
	bus.EventRoomChanged,
	bus.EventGatheringToggled,
	bus.EventTrainingToggled,
	bus.EventTrainingStarted,
	bus.EventTrainingFinished,
}

// rooms the butler knows how to label. Cycled with the room key.
var knownRooms = []string{"living room", "bedroom"}

// Model is the root Bubble Tea model.
type Model struct {
	session *session.Session
	bus     *bus.Bus
	ctx     context.Context
	cancel  context.CancelFunc

	keys   KeyMap
	width  int
	height int

	// events buffers bus publications until the update loop drains them.
	// Handlers never block on it; an overflowing UI drops the event.
	events chan busMsg
	subs   []bus.Subscription

	roomIdx int

	// Sub-views.
	statusBar status.Model
	devices   devices.Model
	gathering gathering.Model
	training  training.Model
}

// New creates the root model and attaches it to the bus.
func New(sess *session.Session, b *bus.Bus) *Model {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Model{
		session:   sess,
		bus:       b,
		ctx:       ctx,
		cancel:    cancel,
		keys:      DefaultKeyMap(),
		events:    make(chan busMsg, 64),
		statusBar: status.New(),
		devices:   devices.New(),
		gathering: gathering.New(),
		training:  training.New(),
	}
	for _, event := range forwardedEvents {
		m.subs = append(m.subs, b.Subscribe(event, m.forward(event)))
	}
	return m
}

// Close detaches the model from the bus.
func (m *Model) Close() {
	m.cancel()
	for _, sub := range m.subs {
		m.bus.Unsubscribe(sub)
	}
}

func (m *Model) forward(event string) bus.Handler {
	return func(args ...any) error {
		select {
		case m.events <- busMsg{event: event, args: args}:
		default:
		}
		return nil
	}
}

// Init loads the device list and starts draining bus events.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitForEvent(), m.loadEntities())
}

func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg { return <-m.events }
}

func (m *Model) loadEntities() tea.Cmd {
	return func() tea.Msg {
		return cmdDoneMsg{op: "load devices", err: m.session.LoadEntities(m.ctx)}
	}
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width - 2
		half := (msg.Width - 6) / 2
		m.devices.Width = half
		m.gathering.Width = half
		m.training.Width = half
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case busMsg:
		return m.handleBusEvent(msg)

	case cmdDoneMsg:
		if msg.err != nil {
			m.statusBar.Notice = msg.op + ": " + msg.err.Error()
		}
		m.syncToggles()
		return m, nil

	case spinner.TickMsg:
		if m.training.State == "idle" {
			return m, nil
		}
		var cmd tea.Cmd
		m.training, cmd = m.training.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) handleBusEvent(msg busMsg) (tea.Model, tea.Cmd) {
	var extra tea.Cmd

	switch msg.event {
	case bus.EventPong:
		m.statusBar.Connected = true

	case bus.EventDisconnected:
		m.statusBar.Connected = false

	case bus.EventEntitiesLoaded:
		if entities, ok := first[[]api.Entity](msg.args); ok {
			m.devices.SetEntities(entities)
		}

	case bus.EventRoomChanged:
		m.statusBar.Connected = true
		if rc, ok := first[session.RoomChange](msg.args); ok {
			m.statusBar.Room = rc.Room
			m.statusBar.Node = rc.Node
		}

	case bus.EventGatheringToggled:
		if active, ok := first[bool](msg.args); ok {
			m.gathering.State = stateName(active)
		}

	case bus.EventTrainingToggled:
		if active, ok := first[bool](msg.args); ok {
			m.training.State = stateName(active)
			if active {
				extra = m.training.Tick()
			}
		}

	case bus.EventTrainingStarted:
		m.statusBar.Connected = true
		m.training.State = "active"
		extra = m.training.Tick()

	case bus.EventTrainingFinished:
		m.statusBar.Connected = true
		m.training.State = "idle"
		if stats, ok := first[map[string]any](msg.args); ok {
			m.training.Stats = stats
		}
	}

	return m, tea.Batch(m.waitForEvent(), extra)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Escape):
		m.statusBar.Notice = ""
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.devices.MoveDown()
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.devices.MoveUp()
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		if cur, ok := m.devices.Current(); ok {
			m.session.SelectDevice(cur.ID)
			m.devices.Selected = cur.ID
			m.statusBar.Room = ""
			m.statusBar.Node = ""
		}
		return m, nil

	case key.Matches(msg, m.keys.Gather):
		mode := m.gathering.Mode
		m.gathering.State = "pending"
		return m, func() tea.Msg {
			return cmdDoneMsg{op: "gathering", err: m.session.ToggleGathering(m.ctx, mode)}
		}

	case key.Matches(msg, m.keys.Train):
		optimize := m.training.Optimize
		m.training.State = "pending"
		return m, tea.Batch(m.training.Tick(), func() tea.Msg {
			return cmdDoneMsg{op: "training", err: m.session.ToggleTraining(m.ctx, optimize)}
		})

	case key.Matches(msg, m.keys.Mode):
		if m.gathering.State == "idle" {
			m.gathering.CycleMode()
		}
		return m, nil

	case key.Matches(msg, m.keys.Optimize):
		if m.training.State == "idle" {
			m.training.Optimize = !m.training.Optimize
		}
		return m, nil

	case key.Matches(msg, m.keys.Room):
		room := knownRooms[m.roomIdx%len(knownRooms)]
		m.roomIdx++
		m.gathering.Room = room
		return m, func() tea.Msg {
			return cmdDoneMsg{op: "change room", err: m.session.ChangeRoom(m.ctx, room)}
		}

	case key.Matches(msg, m.keys.Refresh):
		return m, m.loadEntities()
	}

	return m, nil
}

// syncToggles pulls the settled slot states back into the views after a
// command resolves, correcting any optimistic pending display.
func (m *Model) syncToggles() {
	snap := m.session.Snapshot()
	m.gathering.State = snap.Gathering.String()
	m.training.State = snap.Training.String()
}

// View renders the full TUI.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	panels := lipgloss.JoinHorizontal(lipgloss.Top,
		m.devices.View(),
		lipgloss.JoinVertical(lipgloss.Left,
			m.gathering.View(),
			m.training.View(),
		),
	)

	sections := []string{
		m.statusBar.View(),
		panels,
		theme.StyleDimmed.Render("  j/k:navigate  enter:select  g:gather  t:train  m:mode  o:optimize  r:room  e:reload  q:quit"),
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func stateName(active bool) string {
	if active {
		return "active"
	}
	return "idle"
}

// first returns args[0] as T when present and of that type.
func first[T any](args []any) (T, bool) {
	var zero T
	if len(args) == 0 {
		return zero, false
	}
	v, ok := args[0].(T)
	if !ok {
		return zero, false
	}
	return v, ok
}
