// Package pipeline sequences one generation request through the
// draft/critique/validate/policy/post-process/photo-validate/filter state
// machine, with a bounded retry budget per stage.
//
// The failure taxonomy is deliberate: provider transport errors and input
// validation errors fail the request; everything else — schema mismatches
// past their retry, policy violations, poor photo integration — degrades
// to the best available result plus recorded flags. Generative correctness
// is best-effort, transport and schema correctness are hard requirements.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/propscribe/listing-copy-kit/internal/facts"
	"github.com/propscribe/listing-copy-kit/internal/kit"
	"github.com/propscribe/listing-copy-kit/internal/photoval"
	"github.com/propscribe/listing-copy-kit/internal/policy"
	"github.com/propscribe/listing-copy-kit/internal/postprocess"
	"github.com/propscribe/listing-copy-kit/internal/prompt"
	"github.com/propscribe/listing-copy-kit/internal/provider"
)

// Thresholds govern the emergency regeneration escalation. The defaults
// are inherited heuristics with no documented derivation; they are
// parameters precisely so deployments can tune them without a code change.
//
// A zero field takes its default. Negative values are the explicit
// opt-outs: a negative EmergencyScore disables escalation entirely
// (scores never go below 0), and a negative AcceptMargin accepts any
// strict improvement.
type Thresholds struct {
	// EmergencyScore is the integration score below which one emergency
	// regeneration is attempted.
	EmergencyScore int
	// AcceptMargin is how many points the emergency result must beat the
	// original by to replace it.
	AcceptMargin int
}

/// DefaultThresholds matches the historical behavior: escalate under 40,
// accept only a >20-point improvement.
var DefaultThresholds = Thresholds{EmergencyScore: 40, AcceptMargin: 20}

// withDefaults fills unset fields independently, so overriding one
// threshold does not silently zero the other.
func (t Thresholds) withDefaults() Thresholds {
	if t.EmergencyScore == 0 {
		t.EmergencyScore = DefaultThresholds.EmergencyScore
	}
	if t.AcceptMargin == 0 {
		t.AcceptMargin = DefaultThresholds.AcceptMargin
	}
	return t
}

// TierConfig optionally overrides model selection per caller tier.
type TierConfig struct {
	Model       string
	Temperature float32
}

// Config configures an Orchestrator.
type Config struct {
	Model       string
	Temperature float32
	Thresholds  Thresholds
	Events      EventSink
}

// Request is one generation request. Facts and Controls are expected to be
// normalized already; GenerateKit re-normalizes cheaply as a guard.
type Request struct {
	Facts         facts.Facts
	Controls      facts.Controls
	PhotoInsights *facts.PhotoInsights
	Tier          *TierConfig
}

// Result is what the caller receives for a successful (possibly
// best-effort) run.
type Result struct {
	Output        *kit.Output          `json:"outputs"`
	Flags         []string             `json:"flags"` // fair-housing denylist hits
	PromptVersion string               `json:"promptVersion"`
	RulesVersion  string               `json:"rulesVersion"`
	Tokens        provider.TokenCounts `json:"tokenCounts"`
	PhotoInsights *facts.PhotoInsights `json:"photoInsights,omitempty"`
	Integration   *photoval.Report     `json:"integration,omitempty"`
}

// Orchestrator runs generation requests. It is stateless: one instance is
// safe for concurrent use across independent requests.
type Orchestrator struct {
	provider   provider.Provider
	cfg        Config
	thresholds Thresholds
	events     EventSink
}

// New creates an Orchestrator around a provider.
func New(p provider.Provider, cfg Config) *Orchestrator {
	thresholds := cfg.Thresholds.withDefaults()
	events := cfg.Events
	if events == nil {
		events = LogSink
	}
	return &Orchestrator{provider: p, cfg: cfg, thresholds: thresholds, events: events}
}

// GenerateKit runs the full pipeline for one request. The returned error is
// non-nil only for input validation failures, provider transport failures,
// or a schema failure that survived its bounded retry.
func (o *Orchestrator) GenerateKit(ctx context.Context, req Request) (*Result, error) {
	runStart := time.Now()

	f := facts.NormalizeFacts(req.Facts)
	if err := facts.ValidateFacts(f); err != nil {
		o.emit(StageFailed, OutcomeFailed, runStart, err.Error())
		return nil, err
	}
	c, err := facts.NormalizeControls(req.Controls)
	if err != nil {
		o.emit(StageFailed, OutcomeFailed, runStart, err.Error())
		return nil, err
	}
	pi := req.PhotoInsights
	opts := o.callOptions(req.Tier)

	var tokens provider.TokenCounts

	// DRAFTING: one provider call, no retry at this stage. The draft is
	// parsed opportunistically so a later critique failure has a
	// schema-valid result to fall back to.
	stageStart := time.Now()
	draftResp, err := o.provider.Call(ctx, prompt.ComposeDraft(f, c, pi), opts)
	if err != nil {
		o.emit(StageDrafting, OutcomeFailed, stageStart, err.Error())
		return nil, err
	}
	tokens.Add(draftResp.Tokens)
	working, draftErr := kit.ParseOutput(draftResp.Text)
	if draftErr != nil {
		log.Debug().Err(draftErr).Msg("Draft is not schema-valid; critique must recover")
	}
	o.emit(StageDrafting, OutcomeOK, stageStart, "")

	// CRITIQUING + VALIDATING: one cycle, plus exactly one more if the
	// critique response fails schema validation.
	working, tokensUsed, err := o.critiqueAndValidate(ctx, f, c, pi, working, draftResp.Text, opts)
	tokens.Add(tokensUsed)
	if err != nil {
		o.emit(StageFailed, OutcomeFailed, runStart, err.Error())
		return nil, err
	}

	// POLICY_CHECK: violations trigger one seeded corrective critique;
	// the pipeline proceeds whether or not it resolved them.
	stageStart = time.Now()
	report := policy.Check(working.CombinedText(), c.Policy)
	if !report.Clean() {
		working = o.correctiveCritique(ctx, f, c, pi, working, report, opts, &tokens)
		o.emit(StagePolicyCheck, OutcomeRetried, stageStart, reportDetail(report))
	} else {
		o.emit(StagePolicyCheck, OutcomeOK, stageStart, "")
	}

	// POST_PROCESSING: hard caps and hashtag enrichment, then a policy
	// re-check — truncation can cut a mandatory term.
	stageStart = time.Now()
	postprocess.Apply(working, f, c)
	recheck := policy.Check(working.CombinedText(), c.Policy)
	if !recheck.Clean() {
		working = o.correctiveCritique(ctx, f, c, pi, working, recheck, opts, &tokens)
		postprocess.Apply(working, f, c)
		o.emit(StagePostProcessing, OutcomeRetried, stageStart, reportDetail(recheck))
	} else {
		o.emit(StagePostProcessing, OutcomeOK, stageStart, "")
	}

	// PHOTO_VALIDATION: only with insights present. Catastrophically low
	// integration triggers at most one emergency regeneration.
	var integration *photoval.Report
	stageStart = time.Now()
	if pi != nil {
		rep := photoval.Evaluate(working, pi, f)
		if rep.Score < o.thresholds.EmergencyScore {
			working, rep = o.emergencyRegenerate(ctx, f, c, pi, working, rep, opts, &tokens)
			o.emit(StagePhotoValidation, OutcomeDegraded, stageStart, "emergency regeneration attempted")
		} else {
			o.emit(StagePhotoValidation, OutcomeOK, stageStart, "")
		}
		integration = &rep
	} else {
		o.emit(StagePhotoValidation, OutcomeSkipped, stageStart, "no photo insights")
	}

	// CHANNEL_FILTERING: deterministic, no retry applicable.
	stageStart = time.Now()
	postprocess.FilterChannels(working, c)
	o.emit(StageChannelFiltering, OutcomeOK, stageStart, "")

	flags := policy.DenylistHits(working.CombinedText())
	o.emit(StageDone, OutcomeOK, runStart, "")

	return &Result{
		Output:        working,
		Flags:         flags,
		PromptVersion: prompt.Version,
		RulesVersion:  policy.RulesVersion,
		Tokens:        tokens,
		PhotoInsights: pi,
		Integration:   integration,
	}, nil
}

// critiqueAndValidate runs the critique call and schema validation, with
// exactly one additional critique+validate cycle on a schema failure.
//
// Error handling is asymmetric on purpose: a provider failure during
// critique degrades to the best schema-valid draft when one exists, while
// a schema failure that survives the retry is terminal.
func (o *Orchestrator) critiqueAndValidate(
	ctx context.Context,
	f facts.Facts,
	c facts.Controls,
	pi *facts.PhotoInsights,
	draft *kit.Output,
	rawDraft string,
	opts provider.CallOptions,
) (*kit.Output, provider.TokenCounts, error) {
	var tokens provider.TokenCounts
	working := draft

	embedded := draft
	if embedded == nil {
		// Draft never validated; give the critique the raw text wrapped in
		// an empty record so it can rebuild from the facts.
		embedded = &kit.Output{MLSDesc: postprocess.Cap(rawDraft, kit.MaxMLSDescLen)}
	}

	var lastSchemaErr error
	for attempt := 1; attempt <= 2; attempt++ {
		stageStart := time.Now()
		resp, err := o.provider.Call(ctx, prompt.ComposeCritique(f, embedded, c, pi, nil), opts)
		if err != nil {
			if working != nil {
				log.Warn().Err(err).Msg("Critique call failed, keeping schema-valid draft")
				o.emit(StageCritiquing, OutcomeDegraded, stageStart, "critique failed, draft kept")
				return working, tokens, nil
			}
			o.emit(StageCritiquing, OutcomeFailed, stageStart, err.Error())
			return nil, tokens, err
		}
		tokens.Add(resp.Tokens)
		o.emit(StageCritiquing, OutcomeOK, stageStart, "")

		stageStart = time.Now()
		out, perr := kit.ParseOutput(resp.Text)
		if perr == nil {
			o.emit(StageValidating, OutcomeOK, stageStart, "")
			return out, tokens, nil
		}
		lastSchemaErr = perr
		if attempt == 1 {
			log.Warn().Err(perr).Msg("Critique output failed schema validation, retrying once")
			o.emit(StageValidating, OutcomeRetried, stageStart, perr.Error())
		} else {
			o.emit(StageValidating, OutcomeFailed, stageStart, perr.Error())
		}
	}

	return nil, tokens, lastSchemaErr
}

// correctiveCritique issues one violation-seeded critique call and returns
// the corrected output if it validates, or the current one otherwise.
// Never fatal: policy correction is best-effort.
func (o *Orchestrator) correctiveCritique(
	ctx context.Context,
	f facts.Facts,
	c facts.Controls,
	pi *facts.PhotoInsights,
	current *kit.Output,
	violations policy.Report,
	opts provider.CallOptions,
	tokens *provider.TokenCounts,
) *kit.Output {
	resp, err := o.provider.Call(ctx, prompt.ComposeCritique(f, current, c, pi, &violations), opts)
	if err != nil {
		log.Warn().Err(err).Msg("Corrective critique call failed, keeping current output")
		return current
	}
	tokens.Add(resp.Tokens)

	out, perr := kit.ParseOutput(resp.Text)
	if perr != nil {
		log.Warn().Err(perr).Msg("Corrective critique output invalid, keeping current output")
		return current
	}
	return out
}

// emergencyRegenerate performs the single last-resort provider call. The
// emergency result replaces the working output only when its re-computed
// score beats the original by more than the accept margin.
func (o *Orchestrator) emergencyRegenerate(
	ctx context.Context,
	f facts.Facts,
	c facts.Controls,
	pi *facts.PhotoInsights,
	current *kit.Output,
	currentRep photoval.Report,
	opts provider.CallOptions,
	tokens *provider.TokenCounts,
) (*kit.Output, photoval.Report) {
	log.Warn().
		Int("score", currentRep.Score).
		Int("threshold", o.thresholds.EmergencyScore).
		Msg("Photo integration catastrophically low, attempting emergency regeneration")

	resp, err := o.provider.Call(ctx, prompt.ComposeEmergency(f, c, pi), opts)
	if err != nil {
		log.Warn().Err(err).Msg("Emergency regeneration call failed, keeping original output")
		return current, currentRep
	}
	tokens.Add(resp.Tokens)

	out, perr := kit.ParseOutput(resp.Text)
	if perr != nil {
		log.Warn().Err(perr).Msg("Emergency regeneration output invalid, keeping original output")
		return current, currentRep
	}

	postprocess.Apply(out, f, c)
	rep := photoval.Evaluate(out, pi, f)
	if rep.Score > currentRep.Score+o.thresholds.AcceptMargin {
		log.Info().
			Int("original_score", currentRep.Score).
			Int("emergency_score", rep.Score).
			Msg("Emergency regeneration accepted")
		return out, rep
	}
	log.Info().
		Int("original_score", currentRep.Score).
		Int("emergency_score", rep.Score).
		Msg("Emergency regeneration did not clear the accept margin, keeping original")
	return current, currentRep
}

func (o *Orchestrator) callOptions(tier *TierConfig) provider.CallOptions {
	opts := provider.CallOptions{Model: o.cfg.Model, Temperature: o.cfg.Temperature}
	if tier != nil {
		if tier.Model != "" {
			opts.Model = tier.Model
		}
		if tier.Temperature > 0 {
			opts.Temperature = tier.Temperature
		}
	}
	return opts
}

func (o *Orchestrator) emit(stage Stage, outcome Outcome, start time.Time, detail string) {
	o.events(Event{Stage: stage, Outcome: outcome, Duration: time.Since(start), Detail: detail})
}

func reportDetail(r policy.Report) string {
	detail := ""
	if len(r.Missing) > 0 {
		detail = "missing: " + strings.Join(r.Missing, ", ")
	}
	if len(r.Banned) > 0 {
		if detail != "" {
			detail += "; "
		}
		detail += "banned: " + strings.Join(r.Banned, ", ")
	}
	return detail
}
