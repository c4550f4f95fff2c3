package main

import "github.com/propscribe/listing-copy-kit/internal/facts"

// GenerateEvent is the input from the API layer.
type GenerateEvent struct {
	Type          string               `json:"type"`
	AccountID     string               `json:"accountId"`
	JobID         string               `json:"jobId,omitempty"`
	Facts         facts.Facts          `json:"facts,omitempty"`
	Controls      facts.Controls       `json:"controls,omitempty"`
	PhotoInsights *facts.PhotoInsights `json:"photoInsights,omitempty"`
	Model         string               `json:"model,omitempty"`
}
