package inference

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
)

// placeholderKey is sent to local servers that ignore authentication.
const placeholderKey = "local"

// OpenAIConfig points at any OpenAI-compatible server (Ollama, llama.cpp
// server, LM Studio).
type OpenAIConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	Warmup     bool
	Generation GenerationConfig
}

// OpenAIService talks to a locally hosted model over the OpenAI chat API.
type OpenAIService struct {
	cfg    OpenAIConfig
	client *openai.Client
	ready  atomic.Bool
	logger zerolog.Logger
}

func NewOpenAIService(cfg OpenAIConfig, logger zerolog.Logger) *OpenAIService {
	return &OpenAIService{
		cfg:    cfg,
		logger: logger.With().Str("component", "inference").Str("model", cfg.Model).Logger(),
	}
}

func (s *OpenAIService) Name() string {
	return s.cfg.Model
}

// Initialize connects to the server, checks that the model is served and
// optionally forces it to load with a one-token completion.
func (s *OpenAIService) Initialize(ctx context.Context) error {
	if s.cfg.Model == "" {
		return &ServiceError{Op: "initialize", Err: fmt.Errorf("%w: no model configured", ErrModelNotFound)}
	}

	key := s.cfg.APIKey
	if key == "" {
		key = placeholderKey
	}
	clientConfig := openai.DefaultConfig(key)
	if s.cfg.BaseURL != "" {
		clientConfig.BaseURL = s.cfg.BaseURL
	}
	client := openai.NewClientWithConfig(clientConfig)

	s.logger.Info().Str("base_url", clientConfig.BaseURL).Msg("Connecting to inference server")
	start := time.Now()

	models, err := client.ListModels(ctx)
	if err != nil {
		return &ServiceError{Op: "list models", Err: err}
	}
	if !hasModel(models.Models, s.cfg.Model) {
		return &ServiceError{Op: "initialize", Err: fmt.Errorf("%w: %s", ErrModelNotFound, s.cfg.Model)}
	}

	if s.cfg.Warmup {
		s.logger.Info().Msg("Loading model (this may take a while)...")
		_, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:     s.cfg.Model,
			Messages:  []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: "hi"}},
			MaxTokens: 1,
		})
		if err != nil {
			return &ServiceError{Op: "warmup", Err: err}
		}
	}

	s.client = client
	s.ready.Store(true)
	s.logger.Info().Dur("load_time", time.Since(start)).Msg("Model loaded successfully")
	return nil
}

func (s *OpenAIService) Generate(ctx context.Context, userText string) (string, error) {
	if !s.ready.Load() {
		return "", ErrNotInitialized
	}

	gen := s.cfg.Generation
	req := openai.ChatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: gen.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userText},
		},
		MaxTokens:   gen.MaxTokens,
		Temperature: gen.EffectiveTemperature(),
	}
	if req.Temperature == 0 {
		// go-openai omits a zero temperature, which would fall back to the server default
		req.Temperature = math.SmallestNonzeroFloat32
	}
	s.logger.Debug().
		Int("max_tokens", req.MaxTokens).
		Float32("temperature", req.Temperature).
		Bool("do_sample", gen.DoSample).
		Msg("Generation arguments")

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", &ServiceError{Op: "generate", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &ServiceError{Op: "generate", Err: ErrEmptyResponse}
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func hasModel(models []openai.Model, id string) bool {
	for _, m := range models {
		if m.ID == id {
			return true
		}
	}
	return false
}
