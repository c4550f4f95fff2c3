// Package photoval measures how well photo-derived insights were actually
// woven into generated copy. Scoring is heuristic: a 100-point baseline
// with fixed deductions per violated rule, 40 points riding on mandatory
// feature coverage and 60 on conversion-psychology language.
//
// Evaluate is total: any well-formed output and insights record (including
// empty feature lists) yields a score in [0,100] and never an error.
package photoval

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/propscribe/listing-copy-kit/internal/facts"
	"github.com/propscribe/listing-copy-kit/internal/kit"
)

// Point deductions per rule. The feature-coverage deduction scales with the
// fraction of mandatory features missing; the rest are fixed.
const (
	featureCoverageWeight = 40
	headlineDeduction     = 15
	igHookDeduction       = 10
	igEngageDeduction     = 10
	emailCTADeduction     = 10
	fabricationDeduction  = 5
	emotionalDeduction    = 5
	urgencyDeduction      = 5
)

// headlineWindow is how far into the MLS description the headline feature
// must appear to count as "prominent".
const headlineWindow = 200

// Report is the ephemeral result of one integration check.
type Report struct {
	Issues []string
	Score  int
}

var engagementWords = []string{"save", "share", "comment", "dm ", "dm.", "dm!", "follow", "tag "}

var ctaVerbs = []string{"schedule", "reply", "call", "book", "tour", "visit", "contact", "reach out"}

var numberPattern = regexp.MustCompile(`\d[\d,]{2,}`)

// Evaluate scores how thoroughly the insights appear in the rendered output.
// Channel rules only apply to channels that have content; facts are needed
// to tell grounded numbers from fabricated ones in email copy.
func Evaluate(o *kit.Output, pi *facts.PhotoInsights, f facts.Facts) Report {
	report := Report{Score: 100}
	if o == nil || pi == nil {
		return report
	}

	combined := strings.ToLower(o.CombinedText())

	// Mandatory feature coverage, worth featureCoverageWeight points.
	if len(pi.MustMentionFeatures) > 0 {
		var missing []string
		for _, feature := range pi.MustMentionFeatures {
			if !mentions(combined, feature) {
				missing = append(missing, feature)
			}
		}
		if len(missing) > 0 {
			deduct := featureCoverageWeight * len(missing) / len(pi.MustMentionFeatures)
			report.Score -= deduct
			report.Issues = append(report.Issues,
				fmt.Sprintf("mandatory features missing from copy: %s", strings.Join(missing, ", ")))
		}
	}

	// MLS: the headline feature has to lead, not hide in the closing line.
	if o.MLSDesc != "" && pi.HeadlineFeature != "" {
		opening := strings.ToLower(o.MLSDesc)
		if len(opening) > headlineWindow {
			opening = opening[:headlineWindow]
		}
		if !mentions(opening, pi.HeadlineFeature) {
			report.Score -= headlineDeduction
			report.Issues = append(report.Issues,
				fmt.Sprintf("MLS description does not open with headline feature %q", pi.HeadlineFeature))
		}
	}

	// Instagram: viral hook up front, engagement ask at the end.
	if len(o.IGSlides) > 0 {
		first := strings.ToLower(o.IGSlides[0])
		if !strings.HasPrefix(first, "pov") && !strings.Contains(first, "?") && !startsInterrogative(first) {
			report.Score -= igHookDeduction
			report.Issues = append(report.Issues, "first Instagram slide is not a hook (no POV/question opener)")
		}
		last := strings.ToLower(o.IGSlides[len(o.IGSlides)-1])
		if !containsAny(last, engagementWords) {
			report.Score -= igEngageDeduction
			report.Issues = append(report.Issues, "last Instagram slide has no engagement call")
		}
	}

	// Email: needs a clear ask, and no numbers the facts don't back.
	if o.EmailBody != "" {
		body := strings.ToLower(o.EmailBody)
		if !containsAny(body, ctaVerbs) {
			report.Score -= emailCTADeduction
			report.Issues = append(report.Issues, "email body has no call-to-action verb")
		}
		if fabricated := fabricatedNumbers(o.EmailBody, f); len(fabricated) > 0 {
			report.Score -= fabricationDeduction
			report.Issues = append(report.Issues,
				fmt.Sprintf("email contains numbers not grounded in facts: %s", strings.Join(fabricated, ", ")))
		}
	}

	// Psychology language: hooks/benefits and lifestyle/urgency signals.
	if len(pi.ConversionHooks) > 0 || len(pi.BuyerBenefits) > 0 {
		if !anyPhraseOverlap(combined, pi.ConversionHooks) && !anyPhraseOverlap(combined, pi.BuyerBenefits) {
			report.Score -= emotionalDeduction
			report.Issues = append(report.Issues, "no conversion hook or buyer benefit language detected")
		}
	}
	if len(pi.LifestyleScenarios) > 0 || len(pi.UrgencyTriggers) > 0 {
		if !anyPhraseOverlap(combined, pi.LifestyleScenarios) && !anyPhraseOverlap(combined, pi.UrgencyTriggers) {
			report.Score -= urgencyDeduction
			report.Issues = append(report.Issues, "no lifestyle or urgency language detected")
		}
	}

	if report.Score < 0 {
		report.Score = 0
	}
	return report
}

// mentions reports whether the feature is detectable in lowercased text:
// either the whole phrase appears, or every significant word of it does.
func mentions(lowerText, feature string) bool {
	feature = strings.ToLower(strings.TrimSpace(feature))
	if feature == "" {
		return true
	}
	if strings.Contains(lowerText, feature) {
		return true
	}
	matched := false
	for _, word := range strings.Fields(feature) {
		if len(word) < 4 {
			continue
		}
		if !strings.Contains(lowerText, word) {
			return false
		}
		matched = true
	}
	return matched
}

// anyPhraseOverlap reports whether any phrase in the list is detectable.
func anyPhraseOverlap(lowerText string, phrases []string) bool {
	for _, phrase := range phrases {
		if mentions(lowerText, phrase) {
			return true
		}
	}
	return false
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func startsInterrogative(s string) bool {
	for _, opener := range []string{"what ", "why ", "how ", "where ", "imagine ", "stop "} {
		if strings.HasPrefix(s, opener) {
			return true
		}
	}
	return false
}

// fabricatedNumbers returns numeric strings of three or more digits in text
// that none of the fact fields contain. Small numbers (bed/bath counts,
// slide numbering) are ignored — only specific figures can mislead.
func fabricatedNumbers(text string, f facts.Facts) []string {
	grounded := strings.Join([]string{f.Address, f.Beds, f.Baths, f.Sqft, f.Neighborhood}, " ")
	grounded = strings.ReplaceAll(grounded, ",", "")

	var fabricated []string
	for _, num := range numberPattern.FindAllString(text, -1) {
		plain := strings.ReplaceAll(num, ",", "")
		if !strings.Contains(grounded, plain) {
			fabricated = append(fabricated, num)
		}
	}
	return fabricated
}
