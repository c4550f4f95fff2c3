package prompt

import (
	"strings"
	"testing"

	"github.com/propscribe/listing-copy-kit/internal/facts"
	"github.com/propscribe/listing-copy-kit/internal/kit"
	"github.com/propscribe/listing-copy-kit/internal/policy"
	"github.com/propscribe/listing-copy-kit/internal/provider"
)

func sampleFacts() facts.Facts {
	return facts.Facts{
		Address:      "12 Birch Lane",
		Neighborhood: "Maplewood",
		Beds:         "3",
		Baths:        "2",
		Features:     []string{"pool", "modern kitchen"},
		Tone:         "warm",
	}
}

func TestComposeDraftStructure(t *testing.T) {
	msgs := ComposeDraft(sampleFacts(), facts.Controls{}, nil)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != provider.RoleSystem || msgs[1].Role != provider.RoleUser {
		t.Errorf("unexpected roles: %s, %s", msgs[0].Role, msgs[1].Role)
	}
	user := msgs[1].Content
	for _, want := range []string{"12 Birch Lane", "Maplewood", "pool", "all channels", "mlsDesc"} {
		if !strings.Contains(user, want) {
			t.Errorf("user message missing %q", want)
		}
	}
}

func TestComposeDraftChannelExclusion(t *testing.T) {
	c := facts.Controls{Channels: []string{facts.ChannelMLS, facts.ChannelEmail}}
	msgs := ComposeDraft(sampleFacts(), c, nil)
	user := msgs[1].Content
	if !strings.Contains(user, "ONLY for: mls, email") {
		t.Errorf("missing inclusion instruction:\n%s", user)
	}
	if !strings.Contains(user, "instagram, reel") {
		t.Errorf("missing exclusion instruction:\n%s", user)
	}
}

func TestComposeDraftPolicyAndInsights(t *testing.T) {
	c := facts.Controls{Policy: facts.Policy{
		MustInclude: []string{"open house"},
		AvoidWords:  []string{"cozy"},
	}}
	pi := &facts.PhotoInsights{
		HeadlineFeature:     "vaulted ceilings",
		MustMentionFeatures: []string{"vaulted ceilings", "pool"},
		ConversionHooks:     []string{"dream kitchen"},
	}
	user := ComposeDraft(sampleFacts(), c, pi)[1].Content
	for _, want := range []string{"open house", "cozy", "vaulted ceilings", "dream kitchen"} {
		if !strings.Contains(user, want) {
			t.Errorf("user message missing %q", want)
		}
	}
}

func TestComposeDraftDeterministic(t *testing.T) {
	f := sampleFacts()
	c := facts.Controls{Channels: []string{facts.ChannelMLS}}
	pi := &facts.PhotoInsights{MustMentionFeatures: []string{"pool"}}

	a := ComposeDraft(f, c, pi)
	b := ComposeDraft(f, c, pi)
	if len(a) != len(b) {
		t.Fatal("message counts differ")
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("message %d differs between identical calls", i)
		}
	}
}

func TestComposeCritiqueEmbedsDraftAndViolations(t *testing.T) {
	draft := &kit.Output{MLSDesc: "A fine home."}
	violations := &policy.Report{Missing: []string{"open house"}, Banned: []string{"cozy"}}

	msgs := ComposeCritique(sampleFacts(), draft, facts.Controls{}, nil, violations)
	user := msgs[1].Content
	if !strings.Contains(user, "A fine home.") {
		t.Error("critique prompt missing the draft")
	}
	if !strings.Contains(user, `"open house" is missing`) {
		t.Error("critique prompt missing the missing-term instruction")
	}
	if !strings.Contains(user, `"cozy" appears`) {
		t.Error("critique prompt missing the banned-term instruction")
	}
	if !strings.Contains(user, "Fix only these violations") {
		t.Error("critique prompt missing the scope restriction")
	}
}

func TestComposeCritiqueWithoutViolations(t *testing.T) {
	msgs := ComposeCritique(sampleFacts(), &kit.Output{MLSDesc: "x"}, facts.Controls{}, nil, nil)
	if strings.Contains(msgs[1].Content, "Policy violations") {
		t.Error("violation section should be absent when no violations supplied")
	}
}

func TestComposeEmergencyRestatesFeatures(t *testing.T) {
	pi := &facts.PhotoInsights{
		HeadlineFeature:     "vaulted ceilings",
		MustMentionFeatures: []string{"vaulted ceilings", "wine cellar", "heated floors"},
	}
	msgs := ComposeEmergency(sampleFacts(), facts.Controls{}, pi)
	user := msgs[1].Content
	for i, feature := range pi.MustMentionFeatures {
		if !strings.Contains(user, feature) {
			t.Errorf("emergency prompt missing feature %d: %q", i, feature)
		}
	}
	if !strings.Contains(user, "1. vaulted ceilings") {
		t.Error("features should be numbered verbatim")
	}
}
