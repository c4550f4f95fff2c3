package facts

import (
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"
)

// ParseFacts decodes and normalizes a raw facts payload. Wrong JSON types
// (e.g. a number where a string is expected, or a non-array features field)
// fail with a *ValidationError; well-typed input is trimmed and bounded.
func ParseFacts(raw []byte) (Facts, error) {
	var f Facts
	if err := strictUnmarshal(raw, &f, "facts"); err != nil {
		return Facts{}, err
	}
	f = NormalizeFacts(f)
	if err := ValidateFacts(f); err != nil {
		return Facts{}, err
	}
	return f, nil
}

// ValidateFacts checks required fields on an already normalized Facts
// value. Every entry point runs it before generation so a blank listing
// fails fast instead of producing copy about nothing.
func ValidateFacts(f Facts) error {
	if f.Address == "" {
		return &ValidationError{Field: "facts.address", Message: "address is required"}
	}
	return nil
}

// ParseControls decodes and normalizes a raw controls payload.
func ParseControls(raw []byte) (Controls, error) {
	var c Controls
	if err := strictUnmarshal(raw, &c, "controls"); err != nil {
		return Controls{}, err
	}
	return NormalizeControls(c)
}

// ParsePhotoInsights decodes and normalizes an optional insights payload.
// A nil or empty payload returns (nil, nil) — no insights is a valid input.
func ParsePhotoInsights(raw []byte) (*PhotoInsights, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var pi PhotoInsights
	if err := strictUnmarshal(raw, &pi, "photoInsights"); err != nil {
		return nil, err
	}
	norm := NormalizeInsights(pi)
	return &norm, nil
}

// NormalizeFacts trims every string field, removes empty list entries, and
// caps list fields at MaxListEntries. Idempotent.
func NormalizeFacts(f Facts) Facts {
	f.Address = strings.TrimSpace(f.Address)
	f.Neighborhood = strings.TrimSpace(f.Neighborhood)
	f.Beds = strings.TrimSpace(f.Beds)
	f.Baths = strings.TrimSpace(f.Baths)
	f.Sqft = strings.TrimSpace(f.Sqft)
	f.PropertyType = strings.TrimSpace(f.PropertyType)
	f.Tone = strings.TrimSpace(f.Tone)
	f.BrandVoice = strings.TrimSpace(f.BrandVoice)
	f.Features = cleanList(f.Features)
	f.PhotoURLs = cleanList(f.PhotoURLs)
	return f
}

// NormalizeControls validates the channel set and CTA variant and trims the
// policy term lists. Unknown channels are an input error, not a soft flag —
// a typo'd channel would otherwise silently zero the caller's output.
func NormalizeControls(c Controls) (Controls, error) {
	seen := make(map[string]bool, len(c.Channels))
	// Fresh slice: the caller's backing array must stay untouched, since
	// callers persist the original request value after the pipeline runs.
	channels := make([]string, 0, len(c.Channels))
	for _, ch := range c.Channels {
		ch = strings.ToLower(strings.TrimSpace(ch))
		if ch == "" || seen[ch] {
			continue
		}
		if !knownChannel(ch) {
			return Controls{}, &ValidationError{Field: "controls.channels", Message: "unknown channel " + ch}
		}
		seen[ch] = true
		channels = append(channels, ch)
	}
	if len(channels) == 0 {
		channels = nil
	}
	c.Channels = channels

	c.CTAType = strings.ToLower(strings.TrimSpace(c.CTAType))
	switch c.CTAType {
	case "", CTAPhone, CTALink, CTACustom:
	default:
		return Controls{}, &ValidationError{Field: "controls.ctaType", Message: "unknown CTA variant " + c.CTAType}
	}

	c.CTAPhone = strings.TrimSpace(c.CTAPhone)
	c.CTALink = strings.TrimSpace(c.CTALink)
	c.CTACustom = strings.TrimSpace(c.CTACustom)
	c.SocialHandle = strings.TrimSpace(c.SocialHandle)
	c.HashtagStrategy = strings.ToLower(strings.TrimSpace(c.HashtagStrategy))
	c.ReadingLevel = strings.TrimSpace(c.ReadingLevel)
	c.MLSFormat = strings.ToLower(strings.TrimSpace(c.MLSFormat))
	c.Policy.MustInclude = cleanList(c.Policy.MustInclude)
	c.Policy.AvoidWords = cleanList(c.Policy.AvoidWords)
	return c, nil
}

// NormalizeInsights trims and bounds every list on the insights record.
func NormalizeInsights(pi PhotoInsights) PhotoInsights {
	pi.HeadlineFeature = strings.TrimSpace(pi.HeadlineFeature)
	pi.BuyerPersona = strings.TrimSpace(pi.BuyerPersona)
	pi.PropertyCategory = strings.TrimSpace(pi.PropertyCategory)
	pi.Features = cleanList(pi.Features)
	pi.MustMentionFeatures = cleanList(pi.MustMentionFeatures)
	pi.ConversionHooks = cleanList(pi.ConversionHooks)
	pi.LifestyleScenarios = cleanList(pi.LifestyleScenarios)
	pi.UrgencyTriggers = cleanList(pi.UrgencyTriggers)
	pi.BuyerBenefits = cleanList(pi.BuyerBenefits)
	pi.SocialProofElements = cleanList(pi.SocialProofElements)
	return pi
}

// cleanList trims entries, drops empties, and caps the result at
// MaxListEntries. Returns nil for an effectively empty list so the zero
// value round-trips cleanly through JSON.
func cleanList(in []string) []string {
	var out []string
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
		if len(out) == MaxListEntries {
			break
		}
	}
	if dropped := len(in) - len(out); dropped > 0 && len(out) == MaxListEntries {
		log.Debug().Int("dropped", dropped).Msg("List field capped during normalization")
	}
	return out
}

func knownChannel(ch string) bool {
	for _, known := range AllChannels {
		if ch == known {
			return true
		}
	}
	return false
}

// strictUnmarshal decodes JSON into dst and converts type mismatches into
// *ValidationError so the caller sees a malformed-request error rather than
// a bare json error.
func strictUnmarshal(raw []byte, dst any, doc string) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		if typeErr, ok := err.(*json.UnmarshalTypeError); ok {
			field := doc
			if typeErr.Field != "" {
				field = doc + "." + typeErr.Field
			}
			return &ValidationError{
				Field:   field,
				Message: "expected " + typeErr.Type.String() + ", got " + typeErr.Value,
				Err:     err,
			}
		}
		return &ValidationError{Field: doc, Message: "malformed JSON", Err: err}
	}
	return nil
}
