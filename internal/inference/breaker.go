package inference

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

const (
	defaultBreakerMaxFailures uint32        = 5
	defaultBreakerTimeout     time.Duration = 30 * time.Second
)

// BreakerConfig configures when repeated failures stop reaching the backend.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures before the circuit opens.
	MaxFailures uint32
	// Timeout is how long the circuit stays open before letting one probe through.
	Timeout time.Duration
}

// BreakerService fails fast once the wrapped backend keeps failing, instead of
// making the user wait for every doomed request.
type BreakerService struct {
	inner   Service
	breaker *gobreaker.CircuitBreaker[string]
}

func NewBreakerService(inner Service, cfg BreakerConfig, logger zerolog.Logger) *BreakerService {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultBreakerMaxFailures
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultBreakerTimeout
	}

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "inference:" + inner.Name(),
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state change")
		},
	})

	return &BreakerService{inner: inner, breaker: cb}
}

func (s *BreakerService) Name() string { return s.inner.Name() }

func (s *BreakerService) Initialize(ctx context.Context) error {
	return s.inner.Initialize(ctx)
}

func (s *BreakerService) Generate(ctx context.Context, userText string) (string, error) {
	text, err := s.breaker.Execute(func() (string, error) {
		return s.inner.Generate(ctx, userText)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("model %q is failing repeatedly, try again later: %w", s.inner.Name(), err)
	}
	return text, err
}

func (s *BreakerService) State() gobreaker.State {
	return s.breaker.State()
}

var (
	_ Service = (*OpenAIService)(nil)
	_ Service = (*BreakerService)(nil)
)
