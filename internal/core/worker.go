package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Rorical/RoriChat/internal/eventbus"
	"github.com/Rorical/RoriChat/internal/inference"
)

// Worker is the single background consumer of chat requests. It owns the
// inference service and never touches UI state; results go back through the
// event bus.
type Worker struct {
	eventBus *eventbus.EventBus
	service  inference.Service
	logger   zerolog.Logger

	startOnce sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewWorker(eb *eventbus.EventBus, service inference.Service, logger zerolog.Logger) *Worker {
	return &Worker{
		eventBus: eb,
		service:  service,
		logger:   logger.With().Str("component", "worker").Logger(),
		cancel:   func() {},
		done:     make(chan struct{}),
	}
}

// Start launches the worker goroutine. Calling it again has no effect.
func (w *Worker) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(ctx)
		w.cancel = cancel
		go w.run(ctx)
	})
}

// Stop cancels the worker without waiting for it. A request already handed to
// the service is abandoned together with the process.
func (w *Worker) Stop() {
	w.cancel()
}

// Done is closed when the worker goroutine returns.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)

	if !w.initialize(ctx) {
		return
	}

	for {
		event, err := w.eventBus.NextForCore(ctx)
		if err != nil {
			w.logger.Debug().Err(err).Msg("Worker loop exiting")
			return
		}
		send, ok := event.(eventbus.SendMessageEvent)
		if !ok {
			continue
		}
		completion := w.process(ctx, send)
		if err := w.eventBus.SendToUI(ctx, completion); err != nil {
			w.logger.Error().Err(err).Str("request_id", send.Request.ID).Msg("Could not deliver result to UI")
			return
		}
	}
}

// initialize reports the outcome to the UI and tells run whether to start the loop.
func (w *Worker) initialize(ctx context.Context) bool {
	w.logger.Info().Str("model", w.service.Name()).Msg("Initializing inference service")

	if err := w.service.Initialize(ctx); err != nil {
		w.logger.Error().Err(err).Msg("Failed to initialize model")
		if sendErr := w.eventBus.SendToUI(ctx, eventbus.ServiceStatusEvent{Model: w.service.Name(), Err: err}); sendErr != nil {
			w.logger.Error().Err(sendErr).Msg("Could not report initialization failure")
		}
		return false
	}

	if err := w.eventBus.SendToUI(ctx, eventbus.ServiceStatusEvent{Ready: true, Model: w.service.Name()}); err != nil {
		w.logger.Error().Err(err).Msg("Could not report service ready")
		return false
	}
	return true
}

func (w *Worker) process(ctx context.Context, send eventbus.SendMessageEvent) eventbus.CompletionEvent {
	req := send.Request
	log := w.logger.With().Str("request_id", req.ID).Logger()
	log.Debug().Dur("queued_for", time.Since(req.EnqueuedAt)).Msg("Processing message from queue")

	start := time.Now()
	text, err := w.generate(ctx, req.Text)
	elapsed := time.Since(start)

	if err != nil {
		log.Error().Err(err).Dur("duration", elapsed).Msg("Error generating response")
	} else {
		log.Info().Msgf("Response generated in %.2f seconds", elapsed.Seconds())
	}

	return eventbus.CompletionEvent{
		Request:  req,
		Text:     text,
		Err:      err,
		Duration: elapsed,
	}
}

// generate turns a panicking backend into an ordinary error so one bad request
// cannot take the loop down.
func (w *Worker) generate(ctx context.Context, text string) (reply string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("inference panicked: %v", r)
		}
	}()

	reply, err = w.service.Generate(ctx, text)
	if err != nil && err.Error() == "" {
		err = errors.New("inference failed without a description")
	}
	return reply, err
}
