package pipeline

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Stage names for the generation state machine, in execution order.
type Stage string

const (
	StageDrafting         Stage = "drafting"
	StageCritiquing       Stage = "critiquing"
	StageValidating       Stage = "validating"
	StagePolicyCheck      Stage = "policy_check"
	StagePostProcessing   Stage = "post_processing"
	StagePhotoValidation  Stage = "photo_validation"
	StageChannelFiltering Stage = "channel_filtering"
	StageDone             Stage = "done"
	StageFailed           Stage = "failed"
)

// Outcome of one stage execution.
type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeRetried  Outcome = "retried"  // stage needed its bounded retry
	OutcomeDegraded Outcome = "degraded" // stage kept a best-effort result
	OutcomeSkipped  Outcome = "skipped"
	OutcomeFailed   Outcome = "failed"
)

// Event describes one stage transition. The pipeline emits events instead
// of logging directly so deployments can route them to whatever collector
// they use; the default sink writes structured logs.
type Event struct {
	Stage    Stage
	Outcome  Outcome
	Duration time.Duration
	Detail   string
}

// EventSink consumes pipeline stage events. Sinks must be fast and must
// not retain the Event past the call.
type EventSink func(Event)

// LogSink is the default EventSink: one structured log line per stage.
func LogSink(e Event) {
	var evt *zerolog.Event
	if e.Outcome == OutcomeFailed {
		evt = log.Error()
	} else {
		evt = log.Info()
	}
	evt = evt.
		Str("stage", string(e.Stage)).
		Str("outcome", string(e.Outcome)).
		Dur("duration", e.Duration)
	if e.Detail != "" {
		evt = evt.Str("detail", e.Detail)
	}
	evt.Msg("Pipeline stage complete")
}
