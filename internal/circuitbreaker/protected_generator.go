package circuitbreaker

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Generator mirrors ai.Generator to avoid a circular import.
type Generator interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ProtectedGenerator wraps a text generator with a CircuitBreaker.
// When the generation service starts failing, the circuit opens and
// calls fail fast with ErrCircuitOpen; the composer turns that into its
// fallback text so callers never notice beyond the generic phrasing.
type ProtectedGenerator struct {
	generator Generator
	breaker   *CircuitBreaker
	logger    *zap.Logger
}

// NewProtectedGenerator wraps a generator with circuit breaker protection.
func NewProtectedGenerator(generator Generator, breaker *CircuitBreaker, logger *zap.Logger) *ProtectedGenerator {
	return &ProtectedGenerator{
		generator: generator,
		breaker:   breaker,
		logger:    logger,
	}
}

// GenerateText attempts a generation call through the circuit breaker.
func (p *ProtectedGenerator) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if !p.breaker.Allow() {
		p.logger.Warn("circuit breaker rejected generation call",
			zap.String("breaker", p.breaker.config.Name),
			zap.String("state", p.breaker.GetState().String()),
		)
		return "", fmt.Errorf("%w: %s unavailable", ErrCircuitOpen, p.breaker.config.Name)
	}

	text, err := p.generator.GenerateText(ctx, systemPrompt, userPrompt)
	if err != nil {
		p.breaker.RecordFailure()
		return "", err
	}

	p.breaker.RecordSuccess()
	return text, nil
}

// Breaker returns the underlying circuit breaker for monitoring.
func (p *ProtectedGenerator) Breaker() *CircuitBreaker {
	return p.breaker
}
