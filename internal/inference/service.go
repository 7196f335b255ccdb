// Package inference wraps the text completion backend the chat worker talks to.
package inference

import (
	"context"
	"errors"
)

var (
	ErrNotInitialized = errors.New("inference service not initialized")
	ErrEmptyResponse  = errors.New("model returned no choices")
	ErrModelNotFound  = errors.New("model not found")
)

// Service generates a reply for one user turn.
//
// Construction must not touch the network; Initialize does the loading and
// has to succeed before Generate is called. Generate is only ever called by a
// single goroutine at a time.
type Service interface {
	Initialize(ctx context.Context) error
	Generate(ctx context.Context, userText string) (string, error)
	Name() string
}

// GenerationConfig is fixed when the service is built.
type GenerationConfig struct {
	SystemPrompt string
	MaxTokens    int
	Temperature  float32
	DoSample     bool
}

const DefaultSystemPrompt = "You are a helpful AI assistant."

func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		SystemPrompt: DefaultSystemPrompt,
		MaxTokens:    500,
		Temperature:  0.7,
		DoSample:     true,
	}
}

// EffectiveTemperature is 0 (greedy decoding) when sampling is disabled.
func (c GenerationConfig) EffectiveTemperature() float32 {
	if !c.DoSample {
		return 0
	}
	return c.Temperature
}

// ServiceError records which operation of a backend failed.
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}
