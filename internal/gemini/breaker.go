package gemini

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"google.golang.org/genai"
)

// Circuit breaker thresholds for the upstream API. Five consecutive
// transport failures open the circuit; after breakerResetInterval a single
// probe request is let through to test recovery.
const (
	breakerMaxFailures   = 5
	breakerResetInterval = 30 * time.Second
)

// newBreaker builds the circuit breaker guarding calls to the Gemini API.
// Only transport-level failures count toward opening it: a canceled context
// means the browser gave up on the request, not that the upstream is
// unhealthy.
func newBreaker(log *slog.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "gemini",
		MaxRequests: 1,
		Interval:    breakerResetInterval,
		Timeout:     breakerResetInterval,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerMaxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				"name", name, "from", from.String(), "to", to.String())
		},
	})
}

// generate runs the transport call through the circuit breaker. A rejected
// call surfaces as a 503 StatusError so the endpoint reports the assistant
// as overloaded instead of failing generically.
func (c *sdkClient) generate(ctx context.Context, contents []*genai.Content) (*genai.GenerateContentResponse, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		return c.generateContentWithRetries(ctx, c.defaultModelName, contents, c.contentConfig)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.log.WarnContext(ctx, "Gemini call rejected by open circuit breaker", "error", err)
			return nil, &StatusError{Status: http.StatusServiceUnavailable, Err: err}
		}
		return nil, err
	}

	return result.(*genai.GenerateContentResponse), nil
}
