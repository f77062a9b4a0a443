// Package gemini implements the completion client for Google's Gemini API.
// It replays a conversation's full history and returns the generated reply.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
	"google.golang.org/genai"

	"github.com/nutrichat/nutrichat/internal/config"
	"github.com/nutrichat/nutrichat/internal/database"
)

// ErrEmptyReply indicates the model returned no usable text, either because
// the response was blocked by a safety filter or came back without content.
// Callers substitute the configured fallback reply.
var ErrEmptyReply = errors.New("empty reply from model")

// StatusError carries the upstream HTTP status code of a failed API call so
// the endpoint can propagate it.
type StatusError struct {
	Status int
	Err    error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %v", e.Status, e.Err)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// Client defines the completion operation used by the chat endpoint.
type Client interface {
	// Complete sends the full conversation history and returns the model's
	// reply text. Returns ErrEmptyReply when the model produced nothing
	// usable and *StatusError for upstream API failures.
	Complete(ctx context.Context, history []database.Turn) (string, error)
}

type sdkClient struct {
	genaiClient      *genai.Client
	log              *slog.Logger
	contentConfig    *genai.GenerateContentConfig
	breaker          *gobreaker.CircuitBreaker
	defaultModelName string
	maxRetries       int
	retryDelay       time.Duration
}

// NewClient creates a new Gemini completion client with the provided
// configuration and verifies the API key is present.
func NewClient(ctx context.Context, cfg config.GeminiConfig, log *slog.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	temperature := cfg.Temperature
	topP := cfg.TopP
	topK := float32(cfg.TopK)

	contentConfig := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		TopP:            &topP,
		TopK:            &topK,
		MaxOutputTokens: cfg.MaxOutputTokens,

		// Consumer-facing chat, block anything medium risk or above.
		SafetySettings: []*genai.SafetySetting{
			{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
			{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
			{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
			{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
		},
	}

	logger := log.With("component", "gemini_client")
	logger.Info("Gemini client initialized successfully", "model", cfg.Model)

	return &sdkClient{
		genaiClient:      gi,
		log:              logger,
		contentConfig:    contentConfig,
		breaker:          newBreaker(logger),
		defaultModelName: cfg.Model,
		maxRetries:       cfg.MaxRetries,
		retryDelay:       cfg.RetryDelay,
	}, nil
}

// Complete sends the conversation history to the model.
func (c *sdkClient) Complete(ctx context.Context, history []database.Turn) (string, error) {
	c.log.DebugContext(ctx, "generating reply", "turn_count", len(history))

	contents := toContents(history)

	resp, err := c.generate(ctx, contents)
	if err != nil {
		return "", err
	}

	return c.extractTextFromResponse(ctx, resp)
}

func toContents(history []database.Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, turn := range history {
		parts := make([]*genai.Part, 0, len(turn.Parts))
		for _, p := range turn.Parts {
			if p.InlineData != nil {
				parts = append(parts, genai.NewPartFromBytes(p.InlineData.Data, p.InlineData.MIMEType))
				continue
			}
			parts = append(parts, genai.NewPartFromText(p.Text))
		}
		contents = append(contents, genai.NewContentFromParts(parts, genai.Role(turn.Role)))
	}
	return contents
}

func (c *sdkClient) generateContentWithRetries(ctx context.Context, modelName string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	var resp *genai.GenerateContentResponse
	var err error

	for i := 0; i <= c.maxRetries; i++ {
		resp, err = c.genaiClient.Models.GenerateContent(ctx, modelName, contents, cfg)
		if err == nil {
			return resp, nil
		}

		c.log.WarnContext(ctx, "Gemini API call failed, checking for retry",
			"attempt", i+1, "max_retries", c.maxRetries, "error", err)

		var apiErr *genai.APIError
		if errors.As(err, &apiErr) {
			if (apiErr.Code == 500 || apiErr.Code == 503) && i < c.maxRetries {
				c.log.InfoContext(ctx, "retrying Gemini API call",
					"delay", c.retryDelay, "code", apiErr.Code)
				time.Sleep(c.retryDelay)
				continue
			}

			c.log.ErrorContext(ctx, "Gemini API call failed",
				"code", apiErr.Code, "error", err)
			return nil, &StatusError{Status: apiErr.Code, Err: err}
		}

		// Not an API error: context cancellation, transport failure, etc.
		c.log.ErrorContext(ctx, "Gemini API call failed with non-API error", "error", err)
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}

	return nil, fmt.Errorf("gemini API call failed after %d retries: %w", c.maxRetries, err)
}

func (c *sdkClient) extractTextFromResponse(ctx context.Context, resp *genai.GenerateContentResponse) (string, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		reason := fmt.Sprintf("%v", resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reason = resp.PromptFeedback.BlockReasonMessage
		}
		c.log.WarnContext(ctx, "Gemini request blocked by safety filter", "reason", reason)
		return "", fmt.Errorf("%w: blocked by safety filter: %s", ErrEmptyReply, reason)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		finishReason := "unknown"
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != genai.FinishReasonUnspecified {
			finishReason = fmt.Sprintf("%v", resp.Candidates[0].FinishReason)
		}
		c.log.WarnContext(ctx, "Gemini response missing candidates or content", "finish_reason", finishReason)
		return "", fmt.Errorf("%w: no content, finish reason: %s", ErrEmptyReply, finishReason)
	}

	text := resp.Text()
	if text == "" {
		c.log.WarnContext(ctx, "Gemini response text is empty")
		return "", ErrEmptyReply
	}

	return text, nil
}
