package core

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rorical/RoriChat/internal/eventbus"
	"github.com/Rorical/RoriChat/internal/models"
)

type fakeService struct {
	initErr  error
	generate func(text string) (string, error)
	active   atomic.Int32
	overlap  atomic.Bool
}

func (f *fakeService) Name() string { return "fake" }

func (f *fakeService) Initialize(context.Context) error { return f.initErr }

func (f *fakeService) Generate(_ context.Context, text string) (string, error) {
	if f.active.Add(1) > 1 {
		f.overlap.Store(true)
	}
	defer f.active.Add(-1)
	return f.generate(text)
}

func startWorker(t *testing.T, svc *fakeService) (*eventbus.EventBus, *Worker) {
	t.Helper()
	eb := eventbus.NewEventBus(1)
	w := NewWorker(eb, svc, zerolog.Nop())
	w.Start(context.Background())
	t.Cleanup(w.Stop)
	return eb, w
}

func nextEvent(t *testing.T, eb *eventbus.EventBus) eventbus.CoreEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ev, err := eb.NextForUI(ctx)
	require.NoError(t, err, "timed out waiting for worker event")
	return ev
}

func request(text string) eventbus.SendMessageEvent {
	return eventbus.SendMessageEvent{Request: models.PendingRequest{ID: text, Text: text, EnqueuedAt: time.Now()}}
}

func TestWorkerReportsReadyThenReplies(t *testing.T) {
	svc := &fakeService{generate: func(text string) (string, error) {
		if text == "Hello" {
			return "Hi there", nil
		}
		return "?", nil
	}}
	eb, _ := startWorker(t, svc)

	status := nextEvent(t, eb).(eventbus.ServiceStatusEvent)
	assert.True(t, status.Ready)
	assert.Equal(t, "fake", status.Model)

	require.NoError(t, eb.SendToCore(request("Hello")))
	done := nextEvent(t, eb).(eventbus.CompletionEvent)
	assert.Equal(t, "Hello", done.Request.Text)
	assert.Equal(t, "Hi there", done.Text)
	assert.NoError(t, done.Err)
}

func TestWorkerInitFailureDoesNotStartLoop(t *testing.T) {
	svc := &fakeService{
		initErr:  errors.New("tokenizer missing"),
		generate: func(string) (string, error) { t.Error("Generate must not run"); return "", nil },
	}
	eb, w := startWorker(t, svc)

	status := nextEvent(t, eb).(eventbus.ServiceStatusEvent)
	assert.False(t, status.Ready)
	assert.EqualError(t, status.Err, "tokenizer missing")

	select {
	case <-w.Done():
	case <-time.After(time.Second):
		t.Fatal("worker should exit after failed initialization")
	}

	require.NoError(t, eb.SendToCore(request("ignored")))
	assert.Equal(t, 1, eb.QueuedRequests(), "nobody consumes requests")
}

func TestWorkerSurvivesServiceErrorsAndPanics(t *testing.T) {
	svc := &fakeService{generate: func(text string) (string, error) {
		switch text {
		case "X":
			return "", errors.New("CUDA out of memory")
		case "P":
			panic("index out of range")
		case "E":
			return "", errors.New("")
		}
		return "fine", nil
	}}
	eb, _ := startWorker(t, svc)
	nextEvent(t, eb)

	for _, tc := range []struct {
		input   string
		wantErr string
	}{
		{"X", "CUDA out of memory"},
		{"P", "inference panicked: index out of range"},
		{"E", "inference failed without a description"},
		{"ok", ""},
	} {
		require.NoError(t, eb.SendToCore(request(tc.input)))
		done := nextEvent(t, eb).(eventbus.CompletionEvent)
		require.NoError(t, eb.Acknowledge())

		if tc.wantErr == "" {
			assert.NoError(t, done.Err)
			assert.Equal(t, "fine", done.Text)
			continue
		}
		require.Error(t, done.Err, tc.input)
		assert.Equal(t, tc.wantErr, done.Err.Error())
	}
}

func TestWorkerProcessesInOrderOneAtATime(t *testing.T) {
	delays := map[string]time.Duration{"A": 30 * time.Millisecond, "B": 0, "C": 10 * time.Millisecond}
	svc := &fakeService{generate: func(text string) (string, error) {
		time.Sleep(delays[text])
		return text + "-reply", nil
	}}
	eb, _ := startWorker(t, svc)
	nextEvent(t, eb)

	var replies []string
	for _, in := range []string{"A", "B", "C"} {
		require.NoError(t, eb.SendToCore(request(in)))
		assert.ErrorIs(t, eb.SendToCore(request(in+"2")), eventbus.ErrBusy)

		done := nextEvent(t, eb).(eventbus.CompletionEvent)
		replies = append(replies, done.Text)
		require.NoError(t, eb.Acknowledge())
	}

	assert.Equal(t, []string{"A-reply", "B-reply", "C-reply"}, replies)
	assert.False(t, svc.overlap.Load(), "Generate must never run concurrently")
}

func TestWorkerStartTwiceRunsOneLoop(t *testing.T) {
	svc := &fakeService{generate: func(string) (string, error) { return "r", nil }}
	eb := eventbus.NewEventBus(1)
	w := NewWorker(eb, svc, zerolog.Nop())
	w.Start(context.Background())
	w.Start(context.Background())
	t.Cleanup(w.Stop)

	nextEvent(t, eb)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := eb.NextForUI(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "only one ready event expected")
}

func TestWorkerStop(t *testing.T) {
	svc := &fakeService{generate: func(string) (string, error) { return "r", nil }}
	eb, w := startWorker(t, svc)
	nextEvent(t, eb)

	w.Stop()
	select {
	case <-w.Done():
	case <-time.After(time.Second):
		t.Fatal("worker did not exit after Stop")
	}
}
