// Package prompt composes the message sets sent to the provider for each
// pipeline stage. Composition is a pure function of its inputs: identical
// facts, controls, and insights always produce byte-identical messages.
//
// Static instruction text lives in text files under prompts/ and is
// embedded at compile time.
package prompt

import _ "embed"

// Version identifies the prompt wording in use. Bump when any embedded
// prompt text changes so stored results can be traced to their prompts.
const Version = "v4"

// draftSystemPrompt frames the drafting call: voice, compliance, channel
// conventions, and the JSON-only response rule.
//
//go:embed prompts/draft-system.txt
var draftSystemPrompt string

// critiqueSystemPrompt frames the review pass: fact-checking, compliance
// correction, and targeted violation fixes.
//
//go:embed prompts/critique-system.txt
var critiqueSystemPrompt string

// emergencySystemPrompt frames the last-resort regeneration when photo
// integration scored catastrophically low.
//
//go:embed prompts/emergency-system.txt
var emergencySystemPrompt string

// outputContract is the JSON shape the model must return, appended to
// every user message.
//
//go:embed prompts/output-contract.txt
var outputContract string
