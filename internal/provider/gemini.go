package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// RetryPolicy bounds the adapter's retry behavior on 429/5xx responses.
// Backoff is fixed, not exponential — the budget is small enough that
// sophistication buys nothing.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultRetryPolicy retries twice after the initial attempt.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, Backoff: 2 * time.Second}

// Gemini is the genai-backed Provider implementation.
type Gemini struct {
	client *genai.Client
	retry  RetryPolicy
}

// NewGemini creates a Gemini provider from an API key.
func NewGemini(ctx context.Context, apiKey string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Gemini{client: client, retry: DefaultRetryPolicy}, nil
}

// NewGeminiWithRetry creates a Gemini provider with a custom retry policy.
func NewGeminiWithRetry(ctx context.Context, apiKey string, retry RetryPolicy) (*Gemini, error) {
	g, err := NewGemini(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	if retry.MaxAttempts > 0 {
		g.retry = retry
	}
	return g, nil
}

// Call sends the messages to Gemini and returns the response text with
// token usage. Rate-limit and server errors are retried per the policy;
// context cancellation and client errors are not.
func (g *Gemini) Call(ctx context.Context, messages []Message, opts CallOptions) (*Response, error) {
	model := opts.Model
	if model == "" {
		model = GetModelName()
	}

	config := &genai.GenerateContentConfig{}
	if opts.Temperature > 0 {
		config.Temperature = genai.Ptr(opts.Temperature)
	}

	var contents []*genai.Content
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			config.SystemInstruction = &genai.Content{
				Parts: []*genai.Part{{Text: msg.Content}},
			}
		case RoleModel:
			contents = append(contents, &genai.Content{
				Role:  "model",
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		}
	}

	var lastErr error
	var lastCode, attempts int
	for attempt := 1; attempt <= g.retry.MaxAttempts; attempt++ {
		attempts = attempt
		callStart := time.Now()
		resp, err := g.client.Models.GenerateContent(ctx, model, contents, config)
		duration := time.Since(callStart)

		if err == nil {
			if resp == nil {
				lastErr = fmt.Errorf("received empty response from Gemini API")
				continue
			}
			result := &Response{Text: resp.Text()}
			if resp.UsageMetadata != nil {
				result.Tokens = TokenCounts{
					Prompt:     int(resp.UsageMetadata.PromptTokenCount),
					Completion: int(resp.UsageMetadata.CandidatesTokenCount),
					Total:      int(resp.UsageMetadata.TotalTokenCount),
				}
			}
			log.Debug().
				Str("model", model).
				Int("attempt", attempt).
				Int("response_length", len(result.Text)).
				Int("total_tokens", result.Tokens.Total).
				Dur("duration", duration).
				Msg("Gemini call complete")
			return result, nil
		}

		lastErr = err
		if ctx.Err() != nil {
			// Caller aborted; surface the timeout rather than retrying.
			return nil, &CallError{Attempts: attempt, Err: ctx.Err()}
		}

		lastCode = 0
		var apiErr *genai.APIError
		if errors.As(err, &apiErr) {
			lastCode = apiErr.Code
		}
		if !retryable(lastCode) {
			break
		}
		if attempt < g.retry.MaxAttempts {
			log.Warn().
				Err(err).
				Int("code", lastCode).
				Int("attempt", attempt).
				Dur("backoff", g.retry.Backoff).
				Msg("Transient Gemini error, retrying")
			select {
			case <-time.After(g.retry.Backoff):
			case <-ctx.Done():
				return nil, &CallError{Attempts: attempt, Err: ctx.Err()}
			}
		}
	}

	log.Error().Err(lastErr).Int("code", lastCode).Int("attempts", attempts).Msg("Gemini call failed")
	return nil, &CallError{Code: lastCode, Attempts: attempts, Err: lastErr}
}

// retryable reports whether an upstream status is worth another attempt.
// Unknown codes (network-level failures) are treated as transient.
func retryable(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504, 0:
		return true
	}
	return false
}
