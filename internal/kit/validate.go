package kit

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/propscribe/listing-copy-kit/internal/jsonutil"
)

// SchemaError reports that provider JSON failed Output validation. It is
// distinguishable from provider transport errors so the orchestrator can
// apply the schema retry policy (one extra critique cycle) instead of
// failing the request outright.
type SchemaError struct {
	Issues []string
	Err    error
}

func (e *SchemaError) Error() string {
	if len(e.Issues) > 0 {
		return fmt.Sprintf("output failed schema validation: %s", strings.Join(e.Issues, "; "))
	}
	if e.Err != nil {
		return fmt.Sprintf("output failed schema validation: %v", e.Err)
	}
	return "output failed schema validation"
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// ParseOutput decodes raw provider response text into a validated Output.
// Both undecodable JSON and cap/shape violations come back as *SchemaError.
func ParseOutput(raw string) (*Output, error) {
	out, err := jsonutil.Parse[Output](raw)
	if err != nil {
		log.Debug().Err(err).Int("raw_length", len(raw)).Msg("Provider response is not valid JSON")
		return nil, &SchemaError{Err: err}
	}
	if err := Validate(&out); err != nil {
		return nil, err
	}
	out.EnsureDefaults()
	return &out, nil
}

// Validate checks per-field caps and structural shape. Empty channel fields
// are always valid — the draft prompt tells the model to omit channels the
// caller excluded, so absence is expected, not an error.
func Validate(o *Output) error {
	var issues []string

	if n := utf8.RuneCountInString(o.MLSDesc); n > MaxMLSDescLen {
		issues = append(issues, fmt.Sprintf("mlsDesc is %d chars (max %d)", n, MaxMLSDescLen))
	}

	if len(o.IGSlides) > 0 {
		if len(o.IGSlides) < MinIGSlides || len(o.IGSlides) > MaxIGSlides {
			issues = append(issues, fmt.Sprintf("igSlides has %d slides (want %d-%d)", len(o.IGSlides), MinIGSlides, MaxIGSlides))
		}
		for i, slide := range o.IGSlides {
			if n := utf8.RuneCountInString(slide); n > MaxIGSlideLen {
				issues = append(issues, fmt.Sprintf("igSlides[%d] is %d chars (max %d)", i, n, MaxIGSlideLen))
			}
		}
	}

	if len(o.ReelScript) > 0 {
		if len(o.ReelScript) != ReelSegmentCount {
			issues = append(issues, fmt.Sprintf("reelScript has %d segments (want exactly %d)", len(o.ReelScript), ReelSegmentCount))
		}
		for i, seg := range o.ReelScript {
			if strings.TrimSpace(seg.Voice) == "" || strings.TrimSpace(seg.Shot) == "" {
				issues = append(issues, fmt.Sprintf("reelScript[%d] is missing voice or shot direction", i))
			}
		}
	}

	if len(o.ReelHooks) > MaxReelHooks {
		issues = append(issues, fmt.Sprintf("reelHooks has %d entries (max %d)", len(o.ReelHooks), MaxReelHooks))
	}

	if n := utf8.RuneCountInString(o.EmailSubject); n > MaxEmailSubjectLen {
		issues = append(issues, fmt.Sprintf("emailSubject is %d chars (max %d)", n, MaxEmailSubjectLen))
	}
	if n := utf8.RuneCountInString(o.EmailBody); n > MaxEmailBodyLen {
		issues = append(issues, fmt.Sprintf("emailBody is %d chars (max %d)", n, MaxEmailBodyLen))
	}

	if len(issues) > 0 {
		log.Debug().Strs("issues", issues).Msg("Output failed schema validation")
		return &SchemaError{Issues: issues}
	}
	return nil
}
