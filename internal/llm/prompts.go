package llm

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
)

var (
	//go:embed prompts/overview.txt
	promptOverview string
	//go:embed prompts/improve.txt
	promptImprove string
	//go:embed prompts/match.txt
	promptMatch string
)

// Prompt names, one per assessment variant.
const (
	PromptOverview = "overview"
	PromptImprove  = "improve"
	PromptMatch    = "match"
)

// PromptTemplate returns the prompt text and whether the name was recognized.
func PromptTemplate(name string) (string, bool) {
	switch name {
	case PromptOverview:
		return promptOverview, true
	case PromptImprove:
		return promptImprove, true
	case PromptMatch:
		return promptMatch, true
	default:
		return "", false
	}
}

// PromptHash fingerprints a prompt so stored results can be traced to the text used.
func PromptHash(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])[:12]
}
