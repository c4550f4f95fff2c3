// Package policy scans rendered marketing copy for the caller's term rules
// and for a fixed fair-housing denylist. Detection only — the retry logic
// that acts on a violation report lives in the pipeline.
package policy

import (
	"strings"

	"github.com/propscribe/listing-copy-kit/internal/facts"
)

// RulesVersion identifies the denylist revision in use. Bump when the
// denylist changes so stored results can be traced to their rules.
const RulesVersion = "v2"

// denylist holds fair-housing-sensitive phrasing that must never appear in
// listing copy regardless of caller policy. Hits are surfaced to the caller
// as compliance flags.
var denylist = []string{
	"perfect for families",
	"family-friendly neighborhood",
	"safe neighborhood",
	"exclusive neighborhood",
	"no section 8",
	"ideal for young professionals",
	"churches nearby",
	"able-bodied",
	"integrated community",
}

// Report is the result of one policy scan. Empty slices mean the text is
// clean on that dimension.
type Report struct {
	Missing []string // mustInclude terms absent from the text
	Banned  []string // avoidWords terms present in the text
}

// Clean reports whether the scan found no violations.
func (r Report) Clean() bool {
	return len(r.Missing) == 0 && len(r.Banned) == 0
}

// Check runs a case-insensitive substring scan of text against the policy.
func Check(text string, pol facts.Policy) Report {
	lower := strings.ToLower(text)

	var report Report
	for _, term := range pol.MustInclude {
		if !strings.Contains(lower, strings.ToLower(term)) {
			report.Missing = append(report.Missing, term)
		}
	}
	for _, term := range pol.AvoidWords {
		if strings.Contains(lower, strings.ToLower(term)) {
			report.Banned = append(report.Banned, term)
		}
	}
	return report
}

// DenylistHits returns every fair-housing denylist phrase present in text.
func DenylistHits(text string) []string {
	lower := strings.ToLower(text)
	var hits []string
	for _, phrase := range denylist {
		if strings.Contains(lower, phrase) {
			hits = append(hits, phrase)
		}
	}
	return hits
}
