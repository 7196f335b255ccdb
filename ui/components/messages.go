package components

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/Rorical/RoriChat/internal/models"
	"github.com/Rorical/RoriChat/ui/styles"
)

const timeLayout = "15:04"

// MessageRenderer turns transcript entries into styled text for a given width.
type MessageRenderer struct {
	width      int
	mdRenderer *glamour.TermRenderer
}

func NewMessageRenderer(width int) *MessageRenderer {
	return &MessageRenderer{width: width}
}

func (r *MessageRenderer) SetWidth(width int) {
	if width == r.width {
		return
	}
	r.width = width
	r.mdRenderer = nil
}

func (r *MessageRenderer) Render(msg models.ChatMessage) string {
	stamp := styles.TimestampStyle().Render(msg.Timestamp.Format(timeLayout))

	switch msg.Sender {
	case models.User:
		return styles.UserStyle().Render(msg.Sender.String()+": "+msg.Text) + " " + stamp + "\n\n"
	case models.Assistant:
		header := styles.AssistantStyle().Render(msg.Sender.String()+":") + " " + stamp
		return header + "\n" + r.renderMarkdown(msg.Text) + "\n"
	case models.System:
		return styles.SystemStyle().Render(msg.Sender.String()+": "+msg.Text) + "\n\n"
	default:
		return msg.Text + "\n\n"
	}
}

func (r *MessageRenderer) renderMarkdown(content string) string {
	if strings.TrimSpace(content) == "" {
		return styles.SystemStyle().Render("(empty response)") + "\n"
	}
	if r.mdRenderer == nil {
		md, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(max(r.width-4, 20)),
		)
		if err != nil {
			return "  " + content + "\n"
		}
		r.mdRenderer = md
	}
	rendered, err := r.mdRenderer.Render(content)
	if err != nil {
		return "  " + content + "\n"
	}
	return rendered
}

// RenderBanner renders program notices such as the welcome text.
func RenderBanner(text string) string {
	return styles.BannerStyle().Render(text)
}
