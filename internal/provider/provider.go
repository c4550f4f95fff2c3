// Package provider is the boundary to the LLM backend. It defines the
// role-tagged message contract the prompt composer emits, the token
// accounting returned to callers, and a Gemini-backed adapter with bounded
// retry on transient upstream failures.
package provider

import (
	"context"
	"fmt"
)

// Message roles.
const (
	RoleSystem = "system"
	RoleUser   = "user"
	RoleModel  = "model"
)

// Message is one role-tagged prompt message.
type Message struct {
	Role    string
	Content string
}

// TokenCounts tracks prompt/completion token usage. Counts accumulate
// additively across every provider call in a pipeline run and are returned
// to the caller for cost accounting.
type TokenCounts struct {
	Prompt     int `json:"prompt"`
	Completion int `json:"completion"`
	Total      int `json:"total"`
}

// Add accumulates another call's usage into t.
func (t *TokenCounts) Add(other TokenCounts) {
	t.Prompt += other.Prompt
	t.Completion += other.Completion
	t.Total += other.Total
}

// Response is the result of one provider call: the raw response text
// (expected to contain JSON) and the tokens it cost.
type Response struct {
	Text   string
	Tokens TokenCounts
}

// CallOptions configure a single provider call.
type CallOptions struct {
	Model       string
	Temperature float32
}

// Provider is the LLM call boundary. Implementations retry transient
// upstream failures themselves (bounded, fixed backoff); an error returned
// here is terminal for the request. Call must honor ctx cancellation.
type Provider interface {
	Call(ctx context.Context, messages []Message, opts CallOptions) (*Response, error)
}

// CallError reports an upstream provider failure that survived the
// adapter's own retries. It is the only error class that fails a whole
// generation request once drafting has begun.
type CallError struct {
	Code     int // HTTP-ish status from the upstream API, 0 if unknown
	Attempts int
	Err      error
}

func (e *CallError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("provider call failed after %d attempt(s) (status %d): %v", e.Attempts, e.Code, e.Err)
	}
	return fmt.Sprintf("provider call failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}
