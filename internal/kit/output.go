// Package kit defines the per-channel marketing content record produced by
// one generation run, and validates provider JSON against it.
package kit

import "strings"

// Per-field limits for the content record. The validator reports violations
// as schema issues; the post-processor hard-truncates as a final guarantee.
const (
	MaxMLSDescLen      = 900
	MinIGSlides        = 5
	MaxIGSlides        = 7
	MaxIGSlideLen      = 110
	MaxIGHashtags      = 30
	ReelSegmentCount   = 4
	MaxReelHooks       = 3
	MaxEmailSubjectLen = 70
	MaxEmailBodyLen    = 900
)

// ReelSegment is one beat of the reel script: voiceover line, on-screen
// text, and shot direction.
type ReelSegment struct {
	Voice string `json:"voice"`
	Text  string `json:"text"`
	Shot  string `json:"shot"`
}

// Hashtags groups the Instagram hashtag set by category. The combined set
// across all categories is capped at MaxIGHashtags.
type Hashtags struct {
	Property  []string `json:"property,omitempty"`
	Location  []string `json:"location,omitempty"`
	Lifestyle []string `json:"lifestyle,omitempty"`
	Broad     []string `json:"broad,omitempty"`
}

// All flattens the categorized sets in a stable order.
func (h *Hashtags) All() []string {
	if h == nil {
		return nil
	}
	var out []string
	out = append(out, h.Property...)
	out = append(out, h.Location...)
	out = append(out, h.Lifestyle...)
	out = append(out, h.Broad...)
	return out
}

// Output is the channel content record. Fields for unselected channels are
// the empty string or empty slice after channel filtering — never null.
type Output struct {
	MLSDesc      string        `json:"mlsDesc"`
	IGSlides     []string      `json:"igSlides"`
	IGHashtags   *Hashtags     `json:"igHashtags,omitempty"`
	ReelScript   []ReelSegment `json:"reelScript"`
	ReelHooks    []string      `json:"reelHooks"`
	EmailSubject string        `json:"emailSubject"`
	EmailBody    string        `json:"emailBody"`
}

// EnsureDefaults replaces nil slices with empty ones so the record always
// serializes channel fields as "" / [] rather than null.
func (o *Output) EnsureDefaults() {
	if o.IGSlides == nil {
		o.IGSlides = []string{}
	}
	if o.ReelScript == nil {
		o.ReelScript = []ReelSegment{}
	}
	if o.ReelHooks == nil {
		o.ReelHooks = []string{}
	}
}

// CombinedText concatenates every rendered text field, newline separated.
// Policy scanning and photo-integration scoring both operate on this view.
func (o *Output) CombinedText() string {
	var sb strings.Builder
	appendLine := func(s string) {
		if s == "" {
			return
		}
		sb.WriteString(s)
		sb.WriteString("\n")
	}
	appendLine(o.MLSDesc)
	for _, slide := range o.IGSlides {
		appendLine(slide)
	}
	for _, tag := range o.IGHashtags.All() {
		appendLine(tag)
	}
	for _, seg := range o.ReelScript {
		appendLine(seg.Voice)
		appendLine(seg.Text)
	}
	for _, hook := range o.ReelHooks {
		appendLine(hook)
	}
	appendLine(o.EmailSubject)
	appendLine(o.EmailBody)
	return sb.String()
}
