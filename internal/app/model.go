package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/Rorical/RoriChat/internal/dispatcher"
	"github.com/Rorical/RoriChat/internal/models"
	"github.com/Rorical/RoriChat/internal/update"
	"github.com/Rorical/RoriChat/ui/components"
)

// Options are the static bits the UI shows.
type Options struct {
	Title   string
	Profile string
	Model   string
	Logger  zerolog.Logger
}

// AppModel is the Bubble Tea model. All state changes happen in Update, on
// the program's event loop.
type AppModel struct {
	state      models.AppModel
	keys       components.KeyMap
	transcript components.TranscriptView
	input      components.Input
	indicator  components.BusyIndicator
	dispatcher *dispatcher.EventDispatcher
	title      string
	width      int
	logger     zerolog.Logger
}

func NewAppModel(disp *dispatcher.EventDispatcher, opts Options) *AppModel {
	keys := components.DefaultKeyMap()
	m := &AppModel{
		state:      models.NewAppModel(),
		keys:       keys,
		transcript: components.NewTranscriptView(banner(opts.Title)),
		input:      components.NewInput(keys),
		indicator:  components.NewBusyIndicator("Generating response..."),
		dispatcher: disp,
		title:      opts.Title,
		logger:     opts.Logger,
	}

	m.appendMessage(models.NewChatMessage(models.System,
		fmt.Sprintf("Profile %s, loading model %s...", opts.Profile, opts.Model)))
	m.appendMessage(models.NewChatMessage(models.System,
		"Enter sends, Alt+Enter adds a new line, PgUp/PgDn scroll, Ctrl+C quits."))
	return m
}

func banner(title string) string {
	if title == "" {
		return ""
	}
	return title + " | local chat"
}

func (m *AppModel) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.dispatcher.ListenForCoreEvents(),
		textarea.Blink,
	}
	if m.title != "" {
		cmds = append(cmds, tea.SetWindowTitle(m.title))
	}
	return tea.Batch(cmds...)
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Send):
			return m, m.send()
		case key.Matches(msg, m.keys.ScrollUp):
			m.transcript.ScrollUp()
			return m, nil
		case key.Matches(msg, m.keys.ScrollDown):
			m.transcript.ScrollDown()
			return m, nil
		}
		return m, m.input.Update(msg)

	case tea.MouseMsg:
		return m, m.transcript.Update(msg)

	case update.CoreEventMsg:
		m.handleCoreEvent(msg)
		// keep exactly one listener outstanding
		return m, m.dispatcher.ListenForCoreEvents()

	case spinner.TickMsg:
		return m, m.indicator.Update(msg)
	}

	return m, m.input.Update(msg)
}

func (m *AppModel) send() tea.Cmd {
	result := update.Send(&m.state, m.input.Value(), m.dispatcher.GetEventBus())
	if result != update.SendAccepted {
		m.logger.Debug().Str("result", result.String()).Str("status", m.state.Status).Msg("Send not accepted")
		return nil
	}
	m.logger.Info().
		Str("request_id", m.state.InFlight.ID).
		Int("chars", len(m.state.InFlight.Text)).
		Msg("Sending message")

	m.input.Reset()
	m.input.SetBusy(true)
	if last, ok := m.state.Transcript.Last(); ok {
		m.transcript.Append(last)
	}
	return m.indicator.Start()
}

func (m *AppModel) handleCoreEvent(msg update.CoreEventMsg) {
	out := update.HandleCoreEvent(&m.state, msg, m.dispatcher.GetEventBus())
	for _, appended := range out.Appended {
		m.transcript.Append(appended)
	}
	if out.Finished {
		m.indicator.Stop()
		m.input.SetBusy(false)
	}
}

// appendMessage adds a message to both the model and the view.
func (m *AppModel) appendMessage(msg models.ChatMessage) {
	m.state.Transcript.Append(msg)
	m.transcript.Append(msg)
}

func (m *AppModel) layout(width, height int) {
	m.width = width
	m.state.Width = width
	m.state.Height = height
	m.input.SetWidth(width)
	// status bar takes the last row
	m.transcript.SetSize(width, height-m.input.Height()-1)
}

func (m *AppModel) View() string {
	var b strings.Builder

	b.WriteString(m.transcript.View())
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(components.RenderStatus(m.state.Status, m.indicator.View(), m.width))

	return b.String()
}
