package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/RoriChat/internal/config"
	"github.com/Rorical/RoriChat/internal/core"
	"github.com/Rorical/RoriChat/internal/dispatcher"
	"github.com/Rorical/RoriChat/internal/eventbus"
	"github.com/Rorical/RoriChat/internal/inference"
	"github.com/Rorical/RoriChat/internal/logging"
)

// requestCapacity is the number of requests allowed in flight at once.
const requestCapacity = 1

// Application manages the complete application lifecycle
type Application struct {
	config     *config.Config
	logger     *logging.Logger
	eventBus   *eventbus.EventBus
	dispatcher *dispatcher.EventDispatcher
	worker     *core.Worker
	model      *AppModel
}

func NewApplication(cfg *config.Config, logger *logging.Logger) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	profile := cfg.Current()

	eb := eventbus.NewEventBus(requestCapacity)
	busLogger := logger.Component("eventbus")
	eb.SetErrorCallback(func(e eventbus.EventBusError) {
		busLogger.Warn().Err(e.Err).Str("operation", e.Operation).Msg("Event bus error")
	})

	disp := dispatcher.NewEventDispatcher(eb)

	backend := inference.NewOpenAIService(inference.OpenAIConfig{
		BaseURL: profile.BaseURL,
		APIKey:  profile.APIKey,
		Model:   profile.Model,
		Warmup:  profile.Warmup,
		Generation: inference.GenerationConfig{
			SystemPrompt: profile.SystemPrompt,
			MaxTokens:    profile.MaxTokens,
			Temperature:  *profile.Temperature,
			DoSample:     *profile.DoSample,
		},
	}, logger.Logger)
	service := inference.NewBreakerService(backend, inference.BreakerConfig{
		MaxFailures: cfg.Breaker.MaxFailures,
		Timeout:     cfg.Breaker.Timeout.Std(),
	}, logger.Logger)

	worker := core.NewWorker(eb, service, logger.Component("worker"))

	model := NewAppModel(disp, Options{
		Title:   cfg.WindowTitle,
		Profile: cfg.ActiveProfile,
		Model:   profile.Model,
		Logger:  logger.Component("ui"),
	})

	return &Application{
		config:     cfg,
		logger:     logger,
		eventBus:   eb,
		dispatcher: disp,
		worker:     worker,
		model:      model,
	}, nil
}

// Start loads the model in the background and runs the UI until the user quits.
func (app *Application) Start() error {
	app.logger.Info().
		Str("profile", app.config.ActiveProfile).
		Str("log_file", app.logger.Path()).
		Msg("Starting chat")

	app.worker.Start(context.Background())

	app.logger.MuteConsole()
	defer app.logger.UnmuteConsole()

	p := tea.NewProgram(app.model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

// Stop does not wait for an in-progress generation; the worker exits once
// the backend call returns.
func (app *Application) Stop() {
	app.worker.Stop()
	app.dispatcher.Stop()
	app.logger.Info().Msg("Chat stopped")
}
