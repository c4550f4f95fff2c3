package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/propscribe/listing-copy-kit/internal/facts"
	"github.com/propscribe/listing-copy-kit/internal/kit"
	"github.com/propscribe/listing-copy-kit/internal/policy"
	"github.com/propscribe/listing-copy-kit/internal/provider"
)

// ComposeDraft builds the messages for the drafting call: the system
// instruction plus a user message carrying the facts, the optional
// photo-psychology briefing, channel selection, controls, policy
// constraints, and the output contract.
func ComposeDraft(f facts.Facts, c facts.Controls, pi *facts.PhotoInsights) []provider.Message {
	var sb strings.Builder

	sb.WriteString("## Listing Content Kit Request\n\n")
	writeFacts(&sb, f)
	writeChannels(&sb, c)
	writeControls(&sb, c)
	writePolicy(&sb, c.Policy)
	if pi != nil {
		writeInsights(&sb, pi)
	}
	sb.WriteString(outputContract)

	return []provider.Message{
		{Role: provider.RoleSystem, Content: draftSystemPrompt},
		{Role: provider.RoleUser, Content: sb.String()},
	}
}

// ComposeCritique builds the messages for a review pass over a draft. When
// violations is non-nil, the user message lists the exact missing and
// banned terms to fix, with instructions not to touch anything else.
func ComposeCritique(f facts.Facts, draft *kit.Output, c facts.Controls, pi *facts.PhotoInsights, violations *policy.Report) []provider.Message {
	var sb strings.Builder

	sb.WriteString("## Draft Review Request\n\n")
	writeFacts(&sb, f)
	writeChannels(&sb, c)
	writePolicy(&sb, c.Policy)
	if pi != nil {
		writeInsights(&sb, pi)
	}

	sb.WriteString("### Draft to review\n\n")
	sb.WriteString(marshalDraft(draft))
	sb.WriteString("\n\n")

	if violations != nil && !(len(violations.Missing) == 0 && len(violations.Banned) == 0) {
		sb.WriteString("### Policy violations to fix\n\n")
		for _, term := range violations.Missing {
			fmt.Fprintf(&sb, "- The required term %q is missing. Work it in naturally.\n", term)
		}
		for _, term := range violations.Banned {
			fmt.Fprintf(&sb, "- The banned term %q appears. Remove or replace it.\n", term)
		}
		sb.WriteString("\nFix only these violations. Leave unrelated content unchanged.\n\n")
	}

	sb.WriteString(outputContract)

	return []provider.Message{
		{Role: provider.RoleSystem, Content: critiqueSystemPrompt},
		{Role: provider.RoleUser, Content: sb.String()},
	}
}

// ComposeEmergency builds the maximally explicit last-resort prompt. The
// mandatory features are restated verbatim, numbered, with the headline
// feature called out, so the model has no room to drop them again.
func ComposeEmergency(f facts.Facts, c facts.Controls, pi *facts.PhotoInsights) []provider.Message {
	var sb strings.Builder

	sb.WriteString("## Corrective Rewrite Request\n\n")
	writeFacts(&sb, f)
	writeChannels(&sb, c)
	writePolicy(&sb, c.Policy)

	sb.WriteString("### Mandatory features (every one must appear by name)\n\n")
	if pi != nil {
		for i, feature := range pi.MustMentionFeatures {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, feature)
		}
		if pi.HeadlineFeature != "" {
			fmt.Fprintf(&sb, "\nHeadline feature (must lead the MLS description and the first Instagram slide): %s\n", pi.HeadlineFeature)
		}
	}
	sb.WriteString("\n")
	sb.WriteString(outputContract)

	return []provider.Message{
		{Role: provider.RoleSystem, Content: emergencySystemPrompt},
		{Role: provider.RoleUser, Content: sb.String()},
	}
}

func writeFacts(sb *strings.Builder, f facts.Facts) {
	sb.WriteString("### Property facts\n\n")
	fmt.Fprintf(sb, "- Address: %s\n", f.Address)
	writeIfSet(sb, "Neighborhood", f.Neighborhood)
	writeIfSet(sb, "Beds", f.Beds)
	writeIfSet(sb, "Baths", f.Baths)
	writeIfSet(sb, "Square footage", f.Sqft)
	writeIfSet(sb, "Property type", f.PropertyType)
	if len(f.Features) > 0 {
		fmt.Fprintf(sb, "- Features: %s\n", strings.Join(f.Features, "; "))
	}
	writeIfSet(sb, "Tone", f.Tone)
	writeIfSet(sb, "Brand voice", f.BrandVoice)
	sb.WriteString("\n")
}

func writeChannels(sb *strings.Builder, c facts.Controls) {
	sb.WriteString("### Channels\n\n")
	if len(c.Channels) == 0 {
		sb.WriteString("Produce content for all channels: mls, instagram, reel, email.\n\n")
		return
	}
	var excluded []string
	for _, ch := range facts.AllChannels {
		if !c.WantsChannel(ch) {
			excluded = append(excluded, ch)
		}
	}
	fmt.Fprintf(sb, "Produce content ONLY for: %s.\n", strings.Join(c.Channels, ", "))
	if len(excluded) > 0 {
		fmt.Fprintf(sb, "Excluded channels (use empty values): %s.\n", strings.Join(excluded, ", "))
	}
	sb.WriteString("\n")
}

func writeControls(sb *strings.Builder, c facts.Controls) {
	sb.WriteString("### Presentation\n\n")
	if c.OpenHouse != nil {
		fmt.Fprintf(sb, "- Open house: %s %s — promote it in every requested channel\n", c.OpenHouse.Date, c.OpenHouse.Time)
	}
	switch c.CTAType {
	case facts.CTAPhone:
		fmt.Fprintf(sb, "- Call to action: call %s\n", c.CTAPhone)
	case facts.CTALink:
		fmt.Fprintf(sb, "- Call to action: visit %s\n", c.CTALink)
	case facts.CTACustom:
		fmt.Fprintf(sb, "- Call to action: %s\n", c.CTACustom)
	}
	writeIfSet(sb, "Social handle", c.SocialHandle)
	writeIfSet(sb, "Reading level", c.ReadingLevel)
	if c.UseEmojis {
		sb.WriteString("- Emojis: welcome in Instagram and reel content (never MLS)\n")
	} else {
		sb.WriteString("- Emojis: do not use\n")
	}
	if c.MLSFormat == "structured" {
		sb.WriteString("- MLS format: short labeled sections rather than flowing paragraphs\n")
	}
	sb.WriteString("\n")
}

func writePolicy(sb *strings.Builder, pol facts.Policy) {
	if len(pol.MustInclude) == 0 && len(pol.AvoidWords) == 0 {
		return
	}
	sb.WriteString("### Content policy\n\n")
	if len(pol.MustInclude) > 0 {
		fmt.Fprintf(sb, "- These terms MUST appear somewhere in the copy: %s\n", strings.Join(pol.MustInclude, ", "))
	}
	if len(pol.AvoidWords) > 0 {
		fmt.Fprintf(sb, "- These terms must NEVER appear: %s\n", strings.Join(pol.AvoidWords, ", "))
	}
	sb.WriteString("\n")
}

func writeInsights(sb *strings.Builder, pi *facts.PhotoInsights) {
	sb.WriteString("### Photo insights briefing\n\n")
	if pi.HeadlineFeature != "" {
		fmt.Fprintf(sb, "- Headline feature (lead with this): %s\n", pi.HeadlineFeature)
	}
	if len(pi.MustMentionFeatures) > 0 {
		fmt.Fprintf(sb, "- Must-mention features: %s\n", strings.Join(pi.MustMentionFeatures, "; "))
	}
	writeIfSet(sb, "Buyer persona", pi.BuyerPersona)
	writeIfSet(sb, "Property category", pi.PropertyCategory)
	writeList(sb, "Conversion hooks", pi.ConversionHooks)
	writeList(sb, "Lifestyle scenarios", pi.LifestyleScenarios)
	writeList(sb, "Urgency triggers", pi.UrgencyTriggers)
	writeList(sb, "Buyer benefits", pi.BuyerBenefits)
	writeList(sb, "Social proof", pi.SocialProofElements)
	sb.WriteString("\n")
}

func writeIfSet(sb *strings.Builder, label, value string) {
	if value != "" {
		fmt.Fprintf(sb, "- %s: %s\n", label, value)
	}
}

func writeList(sb *strings.Builder, label string, values []string) {
	if len(values) > 0 {
		fmt.Fprintf(sb, "- %s: %s\n", label, strings.Join(values, "; "))
	}
}

// marshalDraft renders the draft deterministically for embedding in a
// critique prompt. Marshal errors cannot happen for Output (no channels,
// funcs, or cycles), so the fallback is just belt and braces.
func marshalDraft(draft *kit.Output) string {
	data, err := json.MarshalIndent(draft, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
