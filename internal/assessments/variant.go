package assessments

import (
	"errors"
	"strings"

	"ats-expert/internal/llm"
)

// Variant selects which of the fixed prompts is sent with the resume.
type Variant string

const (
	VariantOverview Variant = "overview"
	VariantImprove  Variant = "improve"
	VariantMatch    Variant = "match"
)

var ErrInvalidVariant = errors.New("assessment variant is invalid")

// Variants returns every variant in display order.
func Variants() []Variant {
	return []Variant{VariantOverview, VariantImprove, VariantMatch}
}

// ParseVariant normalizes and validates a variant string.
func ParseVariant(raw string) (Variant, error) {
	switch Variant(strings.ToLower(strings.TrimSpace(raw))) {
	case VariantOverview:
		return VariantOverview, nil
	case VariantImprove:
		return VariantImprove, nil
	case VariantMatch:
		return VariantMatch, nil
	default:
		return "", ErrInvalidVariant
	}
}

// Label is the button text shown on the page.
func (v Variant) Label() string {
	switch v {
	case VariantOverview:
		return "Tell Me about the resume"
	case VariantImprove:
		return "How can I improve my resume?"
	case VariantMatch:
		return "Percentage Matched"
	default:
		return string(v)
	}
}

// Prompt returns the fixed instruction text for the variant.
func (v Variant) Prompt() (string, error) {
	text, ok := llm.PromptTemplate(string(v))
	if !ok {
		return "", ErrInvalidVariant
	}
	return text, nil
}
