package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/RoriChat/internal/models"
)

// TranscriptView is the read-only, scrollable chat history. Every append
// scrolls to the newest entry.
type TranscriptView struct {
	viewport viewport.Model
	renderer *MessageRenderer
	header   string
	rendered []string
	messages []models.ChatMessage
}

func NewTranscriptView(header string) TranscriptView {
	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = true
	return TranscriptView{
		viewport: vp,
		renderer: NewMessageRenderer(80),
		header:   header,
	}
}

// SetSize re-renders everything when the width changes.
func (t *TranscriptView) SetSize(width, height int) {
	widthChanged := width != t.viewport.Width
	t.viewport.Width = width
	t.viewport.Height = max(height, 1)
	if widthChanged {
		t.renderer.SetWidth(width)
		t.rendered = t.rendered[:0]
		for _, msg := range t.messages {
			t.rendered = append(t.rendered, t.renderer.Render(msg))
		}
	}
	t.refresh()
	t.viewport.GotoBottom()
}

func (t *TranscriptView) Append(msg models.ChatMessage) {
	t.messages = append(t.messages, msg)
	t.rendered = append(t.rendered, t.renderer.Render(msg))
	t.refresh()
	t.viewport.GotoBottom()
}

func (t *TranscriptView) AtBottom() bool {
	return t.viewport.AtBottom()
}

func (t *TranscriptView) ScrollUp() {
	t.viewport.SetYOffset(t.viewport.YOffset - t.viewport.Height/2)
}

func (t *TranscriptView) ScrollDown() {
	t.viewport.SetYOffset(t.viewport.YOffset + t.viewport.Height/2)
}

// Len is the number of messages shown.
func (t *TranscriptView) Len() int {
	return len(t.messages)
}

// Update only forwards mouse events; keyboard scrolling goes through
// ScrollUp/ScrollDown so typing never moves the view.
func (t *TranscriptView) Update(msg tea.Msg) tea.Cmd {
	if _, ok := msg.(tea.MouseMsg); !ok {
		return nil
	}
	var cmd tea.Cmd
	t.viewport, cmd = t.viewport.Update(msg)
	return cmd
}

func (t *TranscriptView) View() string {
	return t.viewport.View()
}

func (t *TranscriptView) refresh() {
	var b strings.Builder
	if t.header != "" {
		b.WriteString(RenderBanner(t.header))
		b.WriteString("\n\n")
	}
	for _, r := range t.rendered {
		b.WriteString(r)
	}
	t.viewport.SetContent(b.String())
}
