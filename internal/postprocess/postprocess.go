// Package postprocess applies the deterministic finishing passes to a
// generated kit: hard length caps, Instagram hashtag enrichment, and
// channel filtering. Everything here is pure string work — no provider
// calls, no randomness.
package postprocess

import (
	"github.com/rs/zerolog/log"

	"github.com/propscribe/listing-copy-kit/internal/facts"
	"github.com/propscribe/listing-copy-kit/internal/kit"
)

// Cap truncates s to at most max runes without reflowing. Capping an
// already-capped value is a no-op, and the result is never longer than the
// input.
func Cap(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// Apply enforces every per-field cap on the output in place, trimming
// oversized slides, hooks, and reel segments rather than failing. When
// Instagram slides are present it also derives the hashtag sets — this is
// the one spot where rendered content feeds back into further content, so
// it must run after drafting and critique are finalized.
func Apply(o *kit.Output, f facts.Facts, c facts.Controls) {
	o.MLSDesc = Cap(o.MLSDesc, kit.MaxMLSDescLen)

	if len(o.IGSlides) > kit.MaxIGSlides {
		log.Debug().Int("slides", len(o.IGSlides)).Msg("Trimming excess Instagram slides")
		o.IGSlides = o.IGSlides[:kit.MaxIGSlides]
	}
	for i, slide := range o.IGSlides {
		o.IGSlides[i] = Cap(slide, kit.MaxIGSlideLen)
	}

	if len(o.ReelScript) > kit.ReelSegmentCount {
		o.ReelScript = o.ReelScript[:kit.ReelSegmentCount]
	}
	if len(o.ReelHooks) > kit.MaxReelHooks {
		o.ReelHooks = o.ReelHooks[:kit.MaxReelHooks]
	}

	o.EmailSubject = Cap(o.EmailSubject, kit.MaxEmailSubjectLen)
	o.EmailBody = Cap(o.EmailBody, kit.MaxEmailBodyLen)

	if len(o.IGSlides) > 0 {
		o.IGHashtags = BuildHashtags(o, f, c)
	}
	o.EnsureDefaults()
}

// FilterChannels zeroes output fields for channels absent from the
// requested set. An empty set requests everything, so nothing is removed.
// Selected channels pass through untouched.
func FilterChannels(o *kit.Output, c facts.Controls) {
	if !c.WantsChannel(facts.ChannelMLS) {
		o.MLSDesc = ""
	}
	if !c.WantsChannel(facts.ChannelInstagram) {
		o.IGSlides = []string{}
		o.IGHashtags = nil
	}
	if !c.WantsChannel(facts.ChannelReel) {
		o.ReelScript = []kit.ReelSegment{}
		o.ReelHooks = []string{}
	}
	if !c.WantsChannel(facts.ChannelEmail) {
		o.EmailSubject = ""
		o.EmailBody = ""
	}
	o.EnsureDefaults()
}
