package update

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Rorical/RoriChat/internal/eventbus"
	"github.com/Rorical/RoriChat/internal/models"
)

// SendResult tells the caller what happened to a send attempt.
type SendResult int

const (
	// SendAccepted: request queued, controller is now Busy.
	SendAccepted SendResult = iota
	// SendIgnored: blank input, nothing changed.
	SendIgnored
	// SendRejected: controller busy or model unavailable, nothing queued.
	SendRejected
)

func (r SendResult) String() string {
	switch r {
	case SendAccepted:
		return "accepted"
	case SendIgnored:
		return "ignored"
	case SendRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Send is the Idle -> Busy transition. The Busy gate is checked here rather
// than relying on a disabled widget, and the bus refuses a second request on
// its own as well.
func Send(appModel *models.AppModel, text string, eb *eventbus.EventBus) SendResult {
	text = strings.TrimSpace(text)
	if text == "" {
		return SendIgnored
	}
	if !appModel.ServiceReady {
		if appModel.Loading {
			appModel.Status = "Model is still loading"
		} else {
			appModel.Status = "Model not available"
		}
		return SendRejected
	}
	if !appModel.Idle() {
		appModel.Status = "Still generating the previous response"
		return SendRejected
	}

	req := models.PendingRequest{
		ID:         uuid.NewString(),
		Text:       text,
		EnqueuedAt: time.Now(),
	}
	if err := eb.SendToCore(eventbus.SendMessageEvent{Request: req}); err != nil {
		if errors.Is(err, eventbus.ErrBusy) {
			appModel.Status = "Still generating the previous response"
		} else {
			appModel.Status = "Error sending message: " + err.Error()
		}
		return SendRejected
	}

	appModel.Transcript.Append(models.NewChatMessage(models.User, text))
	appModel.SetBusy(req)
	// the indicator carries the busy text
	appModel.Status = ""
	return SendAccepted
}

// CoreEventMsg wraps core events for Bubble Tea
type CoreEventMsg struct {
	Event eventbus.CoreEvent
}

// Outcome lists what the UI has to do after a core event was applied.
type Outcome struct {
	Appended []models.ChatMessage
	Finished bool // request completed, stop the indicator and re-enable input
}

// HandleCoreEvent applies a worker event. A completion is the only Busy -> Idle transition.
func HandleCoreEvent(appModel *models.AppModel, coreEventMsg CoreEventMsg, eb *eventbus.EventBus) Outcome {
	switch event := coreEventMsg.Event.(type) {
	case eventbus.ServiceStatusEvent:
		appModel.Loading = false
		var msg models.ChatMessage
		if event.Err != nil {
			appModel.ServiceReady = false
			appModel.Status = "Model not available"
			msg = models.NewChatMessage(models.System, "Failed to initialize model: "+event.Err.Error())
		} else {
			appModel.ServiceReady = event.Ready
			appModel.Status = "Ready"
			msg = models.NewChatMessage(models.System, fmt.Sprintf("Model %s ready. Type your message and press Enter.", event.Model))
		}
		appModel.Transcript.Append(msg)
		return Outcome{Appended: []models.ChatMessage{msg}}

	case eventbus.CompletionEvent:
		var msg models.ChatMessage
		if event.Err != nil {
			msg = models.NewChatMessage(models.System, "Error processing message: "+errorText(event.Err))
			appModel.Status = "Ready (last request failed)"
		} else {
			msg = models.NewChatMessage(models.Assistant, event.Text)
			appModel.Status = fmt.Sprintf("Ready (%.1fs)", event.Duration.Seconds())
		}
		appModel.Transcript.Append(msg)
		appModel.SetIdle()
		if err := eb.Acknowledge(); err != nil {
			appModel.Status = "Error: " + err.Error()
		}
		return Outcome{Appended: []models.ChatMessage{msg}, Finished: true}
	}

	return Outcome{}
}

func errorText(err error) string {
	if s := err.Error(); s != "" {
		return s
	}
	return "unknown error"
}
