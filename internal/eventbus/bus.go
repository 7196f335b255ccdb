package eventbus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rorical/RoriChat/internal/models"
	"github.com/Rorical/RoriChat/internal/queue"
)

// UIEvent represents events sent from UI to Core
type UIEvent interface {
	UIEvent()
}

// CoreEvent represents events sent from Core to UI
type CoreEvent interface {
	CoreEvent()
}

// SendMessageEvent - UI asks the worker to generate a reply
type SendMessageEvent struct {
	Request models.PendingRequest
}

func (e SendMessageEvent) UIEvent() {}

// CompletionEvent - worker finished one request, successfully or not
type CompletionEvent struct {
	Request  models.PendingRequest
	Text     string
	Err      error
	Duration time.Duration
}

func (e CompletionEvent) CoreEvent() {}

// ServiceStatusEvent - outcome of inference service initialization
type ServiceStatusEvent struct {
	Ready bool
	Model string
	Err   error
}

func (e ServiceStatusEvent) CoreEvent() {}

// ErrBusy is returned when a request is already queued or in flight.
var ErrBusy = errors.New("a request is already in progress")

// EventBusError represents errors in event processing
type EventBusError struct {
	Operation string
	Err       error
	Timestamp time.Time
}

func (e EventBusError) Error() string {
	return e.Operation + ": " + e.Err.Error()
}

func (e EventBusError) Unwrap() error {
	return e.Err
}

// EventBus handles communication between UI and Core.
//
// The UI-to-core side is the request queue; its slot stays held until the UI
// acknowledges the matching CompletionEvent, which bounds in-flight requests
// to the queue capacity. The core-to-UI side is a task queue drained by the
// Bubble Tea loop.
type EventBus struct {
	uiToCore      *queue.Queue[UIEvent]
	coreToUI      *queue.Queue[CoreEvent]
	errorCallback func(EventBusError)
}

// NewEventBus creates a bus admitting at most requestCapacity outstanding requests.
func NewEventBus(requestCapacity int) *EventBus {
	return &EventBus{
		uiToCore: queue.New[UIEvent](requestCapacity),
		// worker only emits one status event plus one completion per request
		coreToUI: queue.New[CoreEvent](requestCapacity + 1),
	}
}

func (eb *EventBus) SetErrorCallback(callback func(EventBusError)) {
	eb.errorCallback = callback
}

func (eb *EventBus) reportError(operation string, err error) error {
	busError := EventBusError{
		Operation: operation,
		Err:       err,
		Timestamp: time.Now(),
	}
	if eb.errorCallback != nil {
		eb.errorCallback(busError)
	}
	return busError
}

// SendToCore never blocks. It fails with ErrBusy when the request slot is taken.
func (eb *EventBus) SendToCore(event UIEvent) error {
	if err := eb.uiToCore.TryPush(event); err != nil {
		if errors.Is(err, queue.ErrFull) {
			err = ErrBusy
		}
		return eb.reportError("SendToCore", err)
	}
	return nil
}

// NextForCore blocks the worker until the UI submits something.
func (eb *EventBus) NextForCore(ctx context.Context) (UIEvent, error) {
	return eb.uiToCore.Pop(ctx)
}

// SendToUI posts an event for the UI loop. It waits for room rather than
// dropping the event.
func (eb *EventBus) SendToUI(ctx context.Context, event CoreEvent) error {
	if err := eb.coreToUI.Push(ctx, event); err != nil {
		return eb.reportError("SendToUI", err)
	}
	return nil
}

// NextForUI is called from a Bubble Tea command to fetch the next worker event.
func (eb *EventBus) NextForUI(ctx context.Context) (CoreEvent, error) {
	ev, err := eb.coreToUI.Pop(ctx)
	if err != nil {
		return nil, err
	}
	if err := eb.coreToUI.Done(); err != nil {
		return nil, eb.reportError("NextForUI", err)
	}
	return ev, nil
}

// Acknowledge frees the request slot once the UI has applied a completion.
func (eb *EventBus) Acknowledge() error {
	if err := eb.uiToCore.Done(); err != nil {
		return eb.reportError("Acknowledge", fmt.Errorf("no request outstanding: %w", err))
	}
	return nil
}

// PendingRequests counts requests queued or in flight.
func (eb *EventBus) PendingRequests() int {
	return eb.uiToCore.Pending()
}

// QueuedRequests counts requests not yet picked up by the worker.
func (eb *EventBus) QueuedRequests() int {
	return eb.uiToCore.Len()
}
