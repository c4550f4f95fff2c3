package postprocess

import (
	"strings"
	"unicode"

	"github.com/propscribe/listing-copy-kit/internal/facts"
	"github.com/propscribe/listing-copy-kit/internal/kit"
)

// broadTags are the always-relevant discovery hashtags, ordered roughly by
// reach. The hashtag strategy decides how many of them make the cut.
var broadTags = []string{
	"#realestate",
	"#newlisting",
	"#justlisted",
	"#dreamhome",
	"#housetour",
	"#homesweethome",
	"#realtor",
	"#homebuying",
}

// lifestyleStopwords are slide words too generic to make useful hashtags.
var lifestyleStopwords = map[string]bool{
	"about": true, "after": true, "before": true, "could": true,
	"every": true, "their": true, "there": true, "these": true,
	"thing": true, "where": true, "which": true, "would": true,
	"house": true, "home": true, "property": true, "listing": true,
}

// BuildHashtags merges property-derived tags with content-derived tags
// extracted from the rendered Instagram slides, deduplicates, and caps the
// combined set at kit.MaxIGHashtags. Category order (property, location,
// lifestyle, broad) decides who survives the cap.
func BuildHashtags(o *kit.Output, f facts.Facts, c facts.Controls) *kit.Hashtags {
	seen := make(map[string]bool)
	take := func(dst *[]string, tag string) {
		tag = tagify(tag)
		if tag == "#" || seen[tag] {
			return
		}
		seen[tag] = true
		*dst = append(*dst, tag)
	}

	h := &kit.Hashtags{}

	// Property tags come straight from the facts.
	if f.PropertyType != "" {
		take(&h.Property, f.PropertyType)
	}
	if f.Beds != "" {
		take(&h.Property, f.Beds+"bedroom")
	}
	for _, feature := range f.Features {
		take(&h.Property, feature)
	}

	// Location tags from neighborhood and social handle.
	if f.Neighborhood != "" {
		take(&h.Location, f.Neighborhood)
		take(&h.Location, f.Neighborhood+"realestate")
	}
	if c.SocialHandle != "" {
		take(&h.Location, strings.TrimPrefix(c.SocialHandle, "@"))
	}

	// Lifestyle tags extracted from the rendered slides themselves.
	for _, word := range slideKeywords(o.IGSlides) {
		take(&h.Lifestyle, word)
	}

	// Broad tags last; a niche strategy keeps only the top few.
	broad := broadTags
	if c.HashtagStrategy == "niche" {
		broad = broadTags[:3]
	}
	for _, tag := range broad {
		take(&h.Broad, tag)
	}

	capTotal(h, kit.MaxIGHashtags)
	return h
}

// slideKeywords pulls distinctive words out of the slide text, in order of
// first appearance.
func slideKeywords(slides []string) []string {
	var words []string
	seen := make(map[string]bool)
	for _, slide := range slides {
		for _, word := range strings.FieldsFunc(slide, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		}) {
			word = strings.ToLower(word)
			if len(word) < 5 || lifestyleStopwords[word] || seen[word] {
				continue
			}
			seen[word] = true
			words = append(words, word)
		}
	}
	// A handful is plenty; the rest is noise.
	if len(words) > 8 {
		words = words[:8]
	}
	return words
}

// capTotal trims categories from the end (broad first) until the combined
// set fits the limit.
func capTotal(h *kit.Hashtags, max int) {
	total := len(h.Property) + len(h.Location) + len(h.Lifestyle) + len(h.Broad)
	for _, cat := range []*[]string{&h.Broad, &h.Lifestyle, &h.Location, &h.Property} {
		for total > max && len(*cat) > 0 {
			*cat = (*cat)[:len(*cat)-1]
			total--
		}
	}
}

// tagify lowercases and strips everything but letters and digits, then
// prefixes "#". "Modern Kitchen" becomes "#modernkitchen".
func tagify(s string) string {
	var sb strings.Builder
	sb.WriteByte('#')
	for _, r := range strings.ToLower(strings.TrimPrefix(s, "#")) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
