// Package facts defines the canonical input records for one generation
// request — property Facts, caller Controls, and externally produced
// PhotoInsights — plus the normalization that turns raw request payloads
// into bounded, trimmed value objects.
//
// All three records are created once per request and treated as read-only
// for the rest of the pipeline.
package facts

// MaxListEntries caps every list field on Facts and PhotoInsights.
// Anything past the cap is silently dropped during normalization.
const MaxListEntries = 10

// Output channels a caller can request.
const (
	ChannelMLS       = "mls"
	ChannelInstagram = "instagram"
	ChannelReel      = "reel"
	ChannelEmail     = "email"
)

// AllChannels lists every supported channel in canonical order.
var AllChannels = []string{ChannelMLS, ChannelInstagram, ChannelReel, ChannelEmail}

// Facts is the sanitized property description used as grounding truth for
// generation. Numeric attributes stay free-text strings ("3", "2.5",
// "1,840") — the pipeline never does arithmetic on them.
type Facts struct {
	Address      string   `json:"address"`
	Neighborhood string   `json:"neighborhood,omitempty"`
	Beds         string   `json:"beds,omitempty"`
	Baths        string   `json:"baths,omitempty"`
	Sqft         string   `json:"sqft,omitempty"`
	Features     []string `json:"features,omitempty"`
	PhotoURLs    []string `json:"photoUrls,omitempty"`
	PropertyType string   `json:"propertyType,omitempty"`
	Tone         string   `json:"tone,omitempty"`
	BrandVoice   string   `json:"brandVoice,omitempty"`
}

// Policy holds the caller's term-level content rules. MustInclude terms must
// appear somewhere in the rendered output; AvoidWords must not.
type Policy struct {
	MustInclude []string `json:"mustInclude,omitempty"`
	AvoidWords  []string `json:"avoidWords,omitempty"`
}

// OpenHouse describes an optional open-house event to promote.
type OpenHouse struct {
	Date string `json:"date,omitempty"`
	Time string `json:"time,omitempty"`
}

// CTA variants.
const (
	CTAPhone  = "phone"
	CTALink   = "link"
	CTACustom = "custom"
)

// Controls is the caller-supplied generation configuration.
//
// An empty Channels slice means "all channels requested"; a non-empty slice
// restricts which Output fields may be non-empty after filtering.
type Controls struct {
	Channels        []string   `json:"channels,omitempty"`
	OpenHouse       *OpenHouse `json:"openHouse,omitempty"`
	CTAType         string     `json:"ctaType,omitempty"` // phone | link | custom
	CTAPhone        string     `json:"ctaPhone,omitempty"`
	CTALink         string     `json:"ctaLink,omitempty"`
	CTACustom       string     `json:"ctaCustom,omitempty"`
	SocialHandle    string     `json:"socialHandle,omitempty"`
	HashtagStrategy string     `json:"hashtagStrategy,omitempty"` // broad | niche | mixed
	ReadingLevel    string     `json:"readingLevel,omitempty"`
	UseEmojis       bool       `json:"useEmojis,omitempty"`
	MLSFormat       string     `json:"mlsFormat,omitempty"` // paragraph | structured
	Policy          Policy     `json:"policy,omitempty"`
}

// PhotoInsights is the externally produced structured summary of the
// property photos. The pipeline consumes it as read-only request context;
// a nil *PhotoInsights is a valid, common input meaning analysis was
// skipped or failed.
type PhotoInsights struct {
	Features            []string `json:"features,omitempty"`
	MustMentionFeatures []string `json:"mustMentionFeatures,omitempty"`
	HeadlineFeature     string   `json:"headlineFeature,omitempty"`
	BuyerPersona        string   `json:"buyerPersona,omitempty"`
	PropertyCategory    string   `json:"propertyCategory,omitempty"`
	ConversionHooks     []string `json:"conversionHooks,omitempty"`
	LifestyleScenarios  []string `json:"lifestyleScenarios,omitempty"`
	UrgencyTriggers     []string `json:"urgencyTriggers,omitempty"`
	BuyerBenefits       []string `json:"buyerBenefits,omitempty"`
	SocialProofElements []string `json:"socialProofElements,omitempty"`
}

// WantsChannel reports whether the caller requested the given channel.
// An empty channel set requests everything.
func (c Controls) WantsChannel(channel string) bool {
	if len(c.Channels) == 0 {
		return true
	}
	for _, ch := range c.Channels {
		if ch == channel {
			return true
		}
	}
	return false
}
