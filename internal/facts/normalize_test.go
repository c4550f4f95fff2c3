package facts

import (
	"errors"
	"testing"
)

func TestParseFactsTrimsAndCaps(t *testing.T) {
	raw := []byte(`{
		"address": "  12 Birch Lane  ",
		"beds": " 3 ",
		"features": ["pool", "  ", "modern kitchen", "", " deck ", "a","b","c","d","e","f","g","h"],
		"photoUrls": ["https://example.com/1.jpg", " "]
	}`)

	f, err := ParseFacts(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Address != "12 Birch Lane" {
		t.Errorf("address not trimmed: %q", f.Address)
	}
	if f.Beds != "3" {
		t.Errorf("beds not trimmed: %q", f.Beds)
	}
	if len(f.Features) != MaxListEntries {
		t.Errorf("expected features capped at %d, got %d", MaxListEntries, len(f.Features))
	}
	if f.Features[0] != "pool" || f.Features[1] != "modern kitchen" || f.Features[2] != "deck" {
		t.Errorf("empty entries not dropped: %v", f.Features[:3])
	}
	if len(f.PhotoURLs) != 1 {
		t.Errorf("expected 1 photo URL, got %v", f.PhotoURLs)
	}
}

func TestParseFactsWrongType(t *testing.T) {
	_, err := ParseFacts([]byte(`{"address": "1 Main St", "beds": 3}`))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != "facts.beds" {
		t.Errorf("expected field facts.beds, got %q", verr.Field)
	}
}

func TestParseFactsMissingAddress(t *testing.T) {
	_, err := ParseFacts([]byte(`{"address": "   "}`))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestNormalizeControlsChannels(t *testing.T) {
	c, err := NormalizeControls(Controls{Channels: []string{" MLS ", "instagram", "mls"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Channels) != 2 || c.Channels[0] != ChannelMLS || c.Channels[1] != ChannelInstagram {
		t.Errorf("unexpected channels: %v", c.Channels)
	}
}

func TestNormalizeControlsLeavesInputUntouched(t *testing.T) {
	input := []string{"MLS", "MLS", "email"}
	c, err := NormalizeControls(Controls{Channels: input})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Channels) != 2 || c.Channels[0] != ChannelMLS || c.Channels[1] != ChannelEmail {
		t.Errorf("unexpected channels: %v", c.Channels)
	}
	// The caller may persist its original request value afterwards, so the
	// backing array must not be rewritten in place.
	if input[0] != "MLS" || input[1] != "MLS" || input[2] != "email" {
		t.Errorf("input slice was mutated: %v", input)
	}
}

func TestNormalizeControlsUnknownChannel(t *testing.T) {
	_, err := NormalizeControls(Controls{Channels: []string{"tiktok"}})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestNormalizeControlsUnknownCTA(t *testing.T) {
	_, err := NormalizeControls(Controls{CTAType: "fax"})
	if err == nil {
		t.Error("expected error for unknown CTA variant")
	}
}

func TestWantsChannelEmptyMeansAll(t *testing.T) {
	var c Controls
	for _, ch := range AllChannels {
		if !c.WantsChannel(ch) {
			t.Errorf("empty channel set should request %s", ch)
		}
	}

	c.Channels = []string{ChannelMLS}
	if !c.WantsChannel(ChannelMLS) {
		t.Error("mls should be requested")
	}
	if c.WantsChannel(ChannelEmail) {
		t.Error("email should not be requested")
	}
}

func TestParsePhotoInsightsAbsent(t *testing.T) {
	for _, raw := range [][]byte{nil, []byte("null")} {
		pi, err := ParsePhotoInsights(raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if pi != nil {
			t.Errorf("expected nil insights for %q", raw)
		}
	}
}

func TestParsePhotoInsightsNormalized(t *testing.T) {
	pi, err := ParsePhotoInsights([]byte(`{
		"headlineFeature": " vaulted ceilings ",
		"mustMentionFeatures": ["pool", "", " chef's kitchen "]
	}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pi.HeadlineFeature != "vaulted ceilings" {
		t.Errorf("headline not trimmed: %q", pi.HeadlineFeature)
	}
	if len(pi.MustMentionFeatures) != 2 {
		t.Errorf("expected 2 must-mention features, got %v", pi.MustMentionFeatures)
	}
}

func TestNormalizeFactsIdempotent(t *testing.T) {
	f := NormalizeFacts(Facts{Address: " 9 Elm ", Features: []string{" pool "}})
	again := NormalizeFacts(f)
	if again.Address != f.Address || len(again.Features) != len(f.Features) {
		t.Error("normalization should be idempotent")
	}
}
