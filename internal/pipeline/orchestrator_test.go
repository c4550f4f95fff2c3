package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/propscribe/listing-copy-kit/internal/facts"
	"github.com/propscribe/listing-copy-kit/internal/kit"
	"github.com/propscribe/listing-copy-kit/internal/provider"
)

// fakeProvider records every call, classified by prompt kind, and delegates
// the response to a per-test handler.
type fakeProvider struct {
	handler func(kind string, messages []provider.Message) (*provider.Response, error)
	calls   []string
}

func (f *fakeProvider) Call(_ context.Context, messages []provider.Message, _ provider.CallOptions) (*provider.Response, error) {
	kind := classify(messages)
	f.calls = append(f.calls, kind)
	return f.handler(kind, messages)
}

func (f *fakeProvider) count(kind string) int {
	n := 0
	for _, c := range f.calls {
		if c == kind {
			n++
		}
	}
	return n
}

func classify(messages []provider.Message) string {
	system := messages[0].Content
	switch {
	case strings.Contains(system, "corrective rewrite"):
		return "emergency"
	case strings.Contains(system, "editor reviewing"):
		if strings.Contains(messages[1].Content, "Policy violations to fix") {
			return "corrective"
		}
		return "critique"
	default:
		return "draft"
	}
}

func goodOutput() *kit.Output {
	return &kit.Output{
		MLSDesc: "Soaring vaulted ceilings crown this sun-drenched craftsman with a backyard pool and dream kitchen built for summer evenings.",
		IGSlides: []string{
			"POV: vaulted ceilings and your own pool",
			"The dream kitchen from your saved posts",
			"Summer evenings, sorted",
			"Space for everything you love",
			"Save this and DM us for a tour",
		},
		ReelScript: []kit.ReelSegment{
			{Voice: "Welcome home", Text: "12 Birch Lane", Shot: "Front exterior"},
			{Voice: "Look up", Text: "Vaulted ceilings", Shot: "Living room pan"},
			{Voice: "Cool off", Text: "Backyard pool", Shot: "Pool wide shot"},
			{Voice: "Come see it", Text: "DM for a tour", Shot: "Sunset exterior"},
		},
		ReelHooks:    []string{"Wait for the ceilings"},
		EmailSubject: "Just listed: vaulted ceilings and a pool",
		EmailBody:    "Vaulted ceilings, a backyard pool, and a dream kitchen for summer evenings. Reply to schedule a private tour.",
	}
}

func respond(o *kit.Output) *provider.Response {
	data, err := json.Marshal(o)
	if err != nil {
		panic(err)
	}
	return &provider.Response{
		Text:   string(data),
		Tokens: provider.TokenCounts{Prompt: 100, Completion: 50, Total: 150},
	}
}

func baseRequest() Request {
	return Request{
		Facts: facts.Facts{
			Address:  "12 Birch Lane",
			Beds:     "3",
			Features: []string{"pool", "modern kitchen"},
		},
	}
}

func newOrchestrator(f *fakeProvider) *Orchestrator {
	return New(f, Config{Events: func(Event) {}})
}

func TestGenerateKitHappyPath(t *testing.T) {
	fake := &fakeProvider{handler: func(kind string, _ []provider.Message) (*provider.Response, error) {
		return respond(goodOutput()), nil
	}}

	result, err := newOrchestrator(fake).GenerateKit(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fake.calls) != 2 || fake.calls[0] != "draft" || fake.calls[1] != "critique" {
		t.Errorf("expected [draft critique], got %v", fake.calls)
	}
	if result.Output.MLSDesc == "" || len(result.Output.IGSlides) == 0 {
		t.Error("expected populated output")
	}
	if result.Tokens.Total != 300 {
		t.Errorf("expected 300 accumulated tokens, got %d", result.Tokens.Total)
	}
	if result.PromptVersion == "" || result.RulesVersion == "" {
		t.Error("expected prompt and rules versions")
	}
}

func TestGenerateKitChannelFiltering(t *testing.T) {
	fake := &fakeProvider{handler: func(string, []provider.Message) (*provider.Response, error) {
		return respond(goodOutput()), nil
	}}

	req := baseRequest()
	req.Controls = facts.Controls{Channels: []string{facts.ChannelMLS}}
	result, err := newOrchestrator(fake).GenerateKit(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	o := result.Output
	if o.MLSDesc == "" {
		t.Error("mls channel should be populated")
	}
	if len(o.IGSlides) != 0 || len(o.ReelScript) != 0 || o.EmailSubject != "" || o.EmailBody != "" {
		t.Errorf("unselected channels should be empty: %+v", o)
	}
	if o.IGSlides == nil || o.ReelScript == nil {
		t.Error("filtered fields must be empty slices, not nil")
	}
}

func TestGenerateKitEmptyChannelsMeansAll(t *testing.T) {
	fake := &fakeProvider{handler: func(string, []provider.Message) (*provider.Response, error) {
		return respond(goodOutput()), nil
	}}

	result, err := newOrchestrator(fake).GenerateKit(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	o := result.Output
	if o.MLSDesc == "" || len(o.IGSlides) == 0 || len(o.ReelScript) == 0 || o.EmailSubject == "" || o.EmailBody == "" {
		t.Error("empty channel set should populate every channel")
	}
}

func TestGenerateKitMissingAddress(t *testing.T) {
	fake := &fakeProvider{handler: func(string, []provider.Message) (*provider.Response, error) {
		t.Fatal("provider must not be called for a blank listing")
		return nil, nil
	}}

	_, err := newOrchestrator(fake).GenerateKit(context.Background(), Request{})
	var verr *facts.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != "facts.address" {
		t.Errorf("expected field facts.address, got %q", verr.Field)
	}
}

func TestGenerateKitInvalidControls(t *testing.T) {
	fake := &fakeProvider{handler: func(string, []provider.Message) (*provider.Response, error) {
		t.Fatal("provider must not be called for invalid input")
		return nil, nil
	}}

	req := baseRequest()
	req.Controls = facts.Controls{Channels: []string{"tiktok"}}
	_, err := newOrchestrator(fake).GenerateKit(context.Background(), req)
	var verr *facts.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestGenerateKitDraftProviderErrorIsFatal(t *testing.T) {
	callErr := &provider.CallError{Code: 503, Attempts: 3, Err: errors.New("upstream down")}
	fake := &fakeProvider{handler: func(string, []provider.Message) (*provider.Response, error) {
		return nil, callErr
	}}

	_, err := newOrchestrator(fake).GenerateKit(context.Background(), baseRequest())
	var cerr *provider.CallError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected CallError, got %v", err)
	}
	if len(fake.calls) != 1 {
		t.Errorf("no stage should run after a draft failure, got calls %v", fake.calls)
	}
}

func TestGenerateKitCritiqueFailureKeepsDraft(t *testing.T) {
	draft := goodOutput()
	draft.EmailSubject = "Draft subject survives"
	fake := &fakeProvider{handler: func(kind string, _ []provider.Message) (*provider.Response, error) {
		if kind == "critique" {
			return nil, &provider.CallError{Code: 500, Attempts: 3, Err: errors.New("boom")}
		}
		return respond(draft), nil
	}}

	result, err := newOrchestrator(fake).GenerateKit(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("critique failure should degrade, not fail: %v", err)
	}
	if result.Output.EmailSubject != "Draft subject survives" {
		t.Errorf("expected the draft to be kept, got %q", result.Output.EmailSubject)
	}
}

func TestGenerateKitSchemaRetryThenSuccess(t *testing.T) {
	critiques := 0
	fake := &fakeProvider{handler: func(kind string, _ []provider.Message) (*provider.Response, error) {
		if kind == "critique" {
			critiques++
			if critiques == 1 {
				return &provider.Response{Text: "not json at all"}, nil
			}
		}
		return respond(goodOutput()), nil
	}}

	_, err := newOrchestrator(fake).GenerateKit(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("one schema retry should recover: %v", err)
	}
	if critiques != 2 {
		t.Errorf("expected exactly 2 critique calls, got %d", critiques)
	}
}

func TestGenerateKitSchemaFailureTwiceIsFatal(t *testing.T) {
	fake := &fakeProvider{handler: func(kind string, _ []provider.Message) (*provider.Response, error) {
		if kind == "critique" {
			return &provider.Response{Text: "still not json"}, nil
		}
		// The draft is also unparseable, so there is nothing to fall back to.
		return &provider.Response{Text: "garbage"}, nil
	}}

	_, err := newOrchestrator(fake).GenerateKit(context.Background(), baseRequest())
	var serr *kit.SchemaError
	if !errors.As(err, &serr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if fake.count("critique") != 2 {
		t.Errorf("expected exactly 2 critique attempts, got %d", fake.count("critique"))
	}
}

func TestGenerateKitPolicyViolationTriggersOneCorrective(t *testing.T) {
	violating := goodOutput() // contains no "open house" mention
	fixed := goodOutput()
	fixed.EmailBody = "Open house this Sunday. Vaulted ceilings, a pool, and a dream kitchen. Reply to schedule a tour."

	fake := &fakeProvider{handler: func(kind string, _ []provider.Message) (*provider.Response, error) {
		if kind == "corrective" {
			return respond(fixed), nil
		}
		return respond(violating), nil
	}}

	req := baseRequest()
	req.Controls = facts.Controls{Policy: facts.Policy{MustInclude: []string{"open house"}}}
	result, err := newOrchestrator(fake).GenerateKit(context.Background(), req)
	if err != nil {
		t.Fatalf("policy violations must not be fatal: %v", err)
	}
	if fake.count("corrective") != 1 {
		t.Errorf("expected 1 corrective call, got %d (calls %v)", fake.count("corrective"), fake.calls)
	}
	if !strings.Contains(strings.ToLower(result.Output.CombinedText()), "open house") {
		t.Error("corrective output should contain the required term")
	}
}

func TestGenerateKitUnresolvedPolicyViolationStillSucceeds(t *testing.T) {
	fake := &fakeProvider{handler: func(string, []provider.Message) (*provider.Response, error) {
		return respond(goodOutput()), nil // never fixes the violation
	}}

	req := baseRequest()
	req.Controls = facts.Controls{Policy: facts.Policy{MustInclude: []string{"open house"}}}
	result, err := newOrchestrator(fake).GenerateKit(context.Background(), req)
	if err != nil {
		t.Fatalf("unresolved violations degrade, not fail: %v", err)
	}
	if result.Output == nil {
		t.Fatal("expected best-effort output")
	}
	// One corrective at policy check, one more after post-processing recheck.
	if fake.count("corrective") != 2 {
		t.Errorf("expected 2 corrective calls, got %d", fake.count("corrective"))
	}
}

func lowIntegrationInsights() *facts.PhotoInsights {
	return &facts.PhotoInsights{
		MustMentionFeatures: []string{"vaulted ceilings", "wine cellar", "heated floors"},
		HeadlineFeature:     "wine cellar",
		ConversionHooks:     []string{"entertainer's dream"},
		LifestyleScenarios:  []string{"hosting friends in the cellar"},
	}
}

func plainOutput() *kit.Output {
	return &kit.Output{MLSDesc: "A plain three-bedroom house on a quiet street."}
}

func TestGenerateKitEmergencyRegenerationAccepted(t *testing.T) {
	integrated := &kit.Output{
		MLSDesc: "A rare wine cellar anchors this home, with vaulted ceilings, heated floors, and an entertainer's dream layout for hosting friends in the cellar.",
	}
	fake := &fakeProvider{handler: func(kind string, _ []provider.Message) (*provider.Response, error) {
		if kind == "emergency" {
			return respond(integrated), nil
		}
		return respond(plainOutput()), nil
	}}

	req := baseRequest()
	req.PhotoInsights = lowIntegrationInsights()
	result, err := newOrchestrator(fake).GenerateKit(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.count("emergency") != 1 {
		t.Fatalf("expected exactly 1 emergency call, got %d", fake.count("emergency"))
	}
	if !strings.Contains(result.Output.MLSDesc, "wine cellar") {
		t.Error("emergency result should have replaced the original")
	}
	if result.Integration == nil || result.Integration.Score <= DefaultThresholds.EmergencyScore {
		t.Errorf("expected improved integration score, got %+v", result.Integration)
	}
}

func TestGenerateKitEmergencyRegenerationRejected(t *testing.T) {
	fake := &fakeProvider{handler: func(kind string, _ []provider.Message) (*provider.Response, error) {
		return respond(plainOutput()), nil // emergency is no better
	}}

	req := baseRequest()
	req.PhotoInsights = lowIntegrationInsights()
	result, err := newOrchestrator(fake).GenerateKit(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.count("emergency") != 1 {
		t.Fatalf("expected exactly 1 emergency call, got %d", fake.count("emergency"))
	}
	if len(result.Integration.Issues) == 0 {
		t.Error("expected integration issues naming the missing features")
	}
	found := false
	for _, issue := range result.Integration.Issues {
		if strings.Contains(issue, "wine cellar") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an issue naming the missing feature, got %v", result.Integration.Issues)
	}
}

func TestThresholdDefaultsApplyPerField(t *testing.T) {
	fake := &fakeProvider{}

	orch := New(fake, Config{Thresholds: Thresholds{AcceptMargin: 5}})
	if orch.thresholds.EmergencyScore != DefaultThresholds.EmergencyScore {
		t.Errorf("expected default emergency score %d, got %d", DefaultThresholds.EmergencyScore, orch.thresholds.EmergencyScore)
	}
	if orch.thresholds.AcceptMargin != 5 {
		t.Errorf("expected accept margin 5, got %d", orch.thresholds.AcceptMargin)
	}

	orch = New(fake, Config{Thresholds: Thresholds{EmergencyScore: 25}})
	if orch.thresholds.AcceptMargin != DefaultThresholds.AcceptMargin {
		t.Errorf("expected default accept margin %d, got %d", DefaultThresholds.AcceptMargin, orch.thresholds.AcceptMargin)
	}
	if orch.thresholds.EmergencyScore != 25 {
		t.Errorf("expected emergency score 25, got %d", orch.thresholds.EmergencyScore)
	}
}

func TestGenerateKitNegativeEmergencyScoreDisablesEscalation(t *testing.T) {
	fake := &fakeProvider{handler: func(kind string, _ []provider.Message) (*provider.Response, error) {
		return respond(plainOutput()), nil
	}}

	req := baseRequest()
	req.PhotoInsights = lowIntegrationInsights()
	orch := New(fake, Config{
		Thresholds: Thresholds{EmergencyScore: -1, AcceptMargin: DefaultThresholds.AcceptMargin},
		Events:     func(Event) {},
	})
	result, err := orch.GenerateKit(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.count("emergency") != 0 {
		t.Errorf("escalation disabled, expected 0 emergency calls, got %d", fake.count("emergency"))
	}
	if result.Integration == nil || len(result.Integration.Issues) == 0 {
		t.Error("integration report should still record the low score")
	}
}

func TestGenerateKitNoInsightsSkipsPhotoValidation(t *testing.T) {
	fake := &fakeProvider{handler: func(string, []provider.Message) (*provider.Response, error) {
		return respond(goodOutput()), nil
	}}

	result, err := newOrchestrator(fake).GenerateKit(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Integration != nil {
		t.Error("integration report should be absent without insights")
	}
	if fake.count("emergency") != 0 {
		t.Error("no emergency call should happen without insights")
	}
}

func TestGenerateKitDenylistFlags(t *testing.T) {
	flagged := goodOutput()
	flagged.EmailBody = "A safe neighborhood find. Reply to schedule a tour of this pool home with vaulted ceilings for summer evenings."

	fake := &fakeProvider{handler: func(string, []provider.Message) (*provider.Response, error) {
		return respond(flagged), nil
	}}

	result, err := newOrchestrator(fake).GenerateKit(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Flags) != 1 || result.Flags[0] != "safe neighborhood" {
		t.Errorf("expected denylist flag, got %v", result.Flags)
	}
}

func TestGenerateKitEmitsStageEvents(t *testing.T) {
	fake := &fakeProvider{handler: func(string, []provider.Message) (*provider.Response, error) {
		return respond(goodOutput()), nil
	}}

	var stages []Stage
	orch := New(fake, Config{Events: func(e Event) { stages = append(stages, e.Stage) }})
	if _, err := orch.GenerateKit(context.Background(), baseRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []Stage{StageDrafting, StageCritiquing, StageValidating, StagePolicyCheck, StagePostProcessing, StagePhotoValidation, StageChannelFiltering, StageDone}
	if len(stages) != len(want) {
		t.Fatalf("expected %d events, got %v", len(want), stages)
	}
	for i, s := range want {
		if stages[i] != s {
			t.Errorf("event %d: expected %s, got %s", i, s, stages[i])
		}
	}
}
