package update

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rorical/RoriChat/internal/eventbus"
	"github.com/Rorical/RoriChat/internal/models"
)

func readyModel() models.AppModel {
	m := models.NewAppModel()
	m.ServiceReady = true
	m.Loading = false
	return m
}

// takeRequest plays the worker: pops the queued request.
func takeRequest(t *testing.T, eb *eventbus.EventBus) models.PendingRequest {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ev, err := eb.NextForCore(ctx)
	require.NoError(t, err)
	return ev.(eventbus.SendMessageEvent).Request
}

func TestSendHelloScenario(t *testing.T) {
	eb := eventbus.NewEventBus(1)
	m := readyModel()

	assert.Equal(t, SendAccepted, Send(&m, "Hello", eb))
	assert.True(t, m.IsProcessing)
	assert.False(t, m.SendEnabled)
	assert.Empty(t, m.Status)
	require.NotNil(t, m.InFlight)

	req := takeRequest(t, eb)
	assert.Equal(t, "Hello", req.Text)
	assert.Equal(t, m.InFlight.ID, req.ID)

	out := HandleCoreEvent(&m, CoreEventMsg{Event: eventbus.CompletionEvent{Request: req, Text: "Hi there"}}, eb)
	assert.True(t, out.Finished)

	msgs := m.Transcript.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, models.User, msgs[0].Sender)
	assert.Equal(t, "Hello", msgs[0].Text)
	assert.Equal(t, models.Assistant, msgs[1].Sender)
	assert.Equal(t, "Hi there", msgs[1].Text)
	assert.True(t, m.Idle())
	assert.Equal(t, 0, eb.PendingRequests())
}

func TestSendBlankInputIsIgnored(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\t "} {
		eb := eventbus.NewEventBus(1)
		m := readyModel()
		before := m

		assert.Equal(t, SendIgnored, Send(&m, input, eb), "input %q", input)
		assert.Equal(t, 0, eb.PendingRequests())
		assert.Equal(t, 0, m.Transcript.Len())
		assert.Equal(t, before.IsProcessing, m.IsProcessing)
		assert.Equal(t, before.SendEnabled, m.SendEnabled)
		assert.Equal(t, before.Status, m.Status)
	}
}

func TestSendTrimsInput(t *testing.T) {
	eb := eventbus.NewEventBus(1)
	m := readyModel()
	require.Equal(t, SendAccepted, Send(&m, "  hi  \n", eb))
	assert.Equal(t, "hi", takeRequest(t, eb).Text)
}

func TestSendWhileBusyNeverQueuesSecondRequest(t *testing.T) {
	eb := eventbus.NewEventBus(1)
	m := readyModel()
	require.Equal(t, SendAccepted, Send(&m, "first", eb))

	for _, text := range []string{"second", "third", "fourth"} {
		assert.Equal(t, SendRejected, Send(&m, text, eb))
		assert.LessOrEqual(t, eb.PendingRequests(), 1)
	}

	// worker picks the request up; still only one in flight
	req := takeRequest(t, eb)
	assert.Equal(t, SendRejected, Send(&m, "fifth", eb))
	assert.Equal(t, 1, eb.PendingRequests())
	assert.Equal(t, 1, m.Transcript.Len(), "rejected sends do not reach the transcript")

	HandleCoreEvent(&m, CoreEventMsg{Event: eventbus.CompletionEvent{Request: req, Text: "ok"}}, eb)
	assert.Equal(t, SendAccepted, Send(&m, "sixth", eb))
}

func TestSendBypassingWidgetGateIsStillRejected(t *testing.T) {
	eb := eventbus.NewEventBus(1)
	m := readyModel()
	require.Equal(t, SendAccepted, Send(&m, "first", eb))

	// a caller that forces the flag back on cannot slip a second request in
	m.SendEnabled = true
	m.IsProcessing = false
	assert.Equal(t, SendRejected, Send(&m, "sneaky", eb))
	assert.Equal(t, 1, eb.PendingRequests())
	assert.Equal(t, "Still generating the previous response", m.Status)
}

func TestSendBeforeServiceReady(t *testing.T) {
	t.Run("still loading", func(t *testing.T) {
		eb := eventbus.NewEventBus(1)
		m := models.NewAppModel()

		assert.Equal(t, SendRejected, Send(&m, "hello", eb))
		assert.Equal(t, 0, eb.PendingRequests())
		assert.Equal(t, "Model is still loading", m.Status)
		assert.Equal(t, 0, m.Transcript.Len())
	})

	t.Run("initialization failed", func(t *testing.T) {
		eb := eventbus.NewEventBus(1)
		m := models.NewAppModel()
		HandleCoreEvent(&m, CoreEventMsg{Event: eventbus.ServiceStatusEvent{Err: errors.New("no weights")}}, eb)

		assert.Equal(t, SendRejected, Send(&m, "hello", eb))
		assert.Equal(t, 0, eb.PendingRequests())
		assert.Equal(t, "Model not available", m.Status)
	})
}

func TestServiceFailureBecomesSystemMessage(t *testing.T) {
	eb := eventbus.NewEventBus(1)
	m := readyModel()
	require.Equal(t, SendAccepted, Send(&m, "X", eb))
	req := takeRequest(t, eb)

	out := HandleCoreEvent(&m, CoreEventMsg{Event: eventbus.CompletionEvent{Request: req, Err: errors.New("CUDA out of memory")}}, eb)
	assert.True(t, out.Finished)

	last, ok := m.Transcript.Last()
	require.True(t, ok)
	assert.Equal(t, models.System, last.Sender)
	assert.Equal(t, "Error processing message: CUDA out of memory", last.Text)
	assert.True(t, m.Idle())
	assert.True(t, m.SendEnabled)
}

func TestEmptyErrorTextStillDescribed(t *testing.T) {
	eb := eventbus.NewEventBus(1)
	m := readyModel()
	require.Equal(t, SendAccepted, Send(&m, "X", eb))
	takeRequest(t, eb)

	HandleCoreEvent(&m, CoreEventMsg{Event: eventbus.CompletionEvent{Err: errors.New("")}}, eb)
	last, _ := m.Transcript.Last()
	assert.Equal(t, "Error processing message: unknown error", last.Text)
}

func TestServiceStatusEvents(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		m := models.NewAppModel()
		out := HandleCoreEvent(&m, CoreEventMsg{Event: eventbus.ServiceStatusEvent{Ready: true, Model: "phi3"}}, eventbus.NewEventBus(1))
		assert.False(t, out.Finished)
		require.Len(t, out.Appended, 1)
		assert.True(t, m.ServiceReady)
		assert.False(t, m.Loading)
		assert.Contains(t, out.Appended[0].Text, "phi3")
		assert.Equal(t, "Ready", m.Status)
	})

	t.Run("failed", func(t *testing.T) {
		m := models.NewAppModel()
		HandleCoreEvent(&m, CoreEventMsg{Event: eventbus.ServiceStatusEvent{Err: errors.New("no such model")}}, eventbus.NewEventBus(1))
		assert.False(t, m.ServiceReady)
		assert.False(t, m.Loading)

		msgs := m.Transcript.Messages()
		require.Len(t, msgs, 1)
		assert.Equal(t, models.System, msgs[0].Sender)
		assert.Equal(t, "Failed to initialize model: no such model", msgs[0].Text)
	})
}

func TestNSendsProduceNRepliesInOrder(t *testing.T) {
	eb := eventbus.NewEventBus(1)
	m := readyModel()
	inputs := []string{"one", "two", "three", "four", "five"}

	for _, in := range inputs {
		require.Equal(t, SendAccepted, Send(&m, in, eb))
		req := takeRequest(t, eb)
		HandleCoreEvent(&m, CoreEventMsg{Event: eventbus.CompletionEvent{Request: req, Text: req.Text + "-reply"}}, eb)
	}

	var replies []string
	for _, msg := range m.Transcript.Messages() {
		if msg.Sender == models.Assistant {
			replies = append(replies, msg.Text)
		}
	}
	assert.Equal(t, []string{"one-reply", "two-reply", "three-reply", "four-reply", "five-reply"}, replies)
}

func TestSendResultString(t *testing.T) {
	assert.Equal(t, "accepted", SendAccepted.String())
	assert.Equal(t, "ignored", SendIgnored.String())
	assert.Equal(t, "rejected", SendRejected.String())
}
