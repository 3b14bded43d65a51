package llm

import (
	"context"
	"errors"

	"ats-expert/internal/convert"
)

// Client abstracts the generative model used to assess a resume.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Request is everything sent to the model for a single assessment.
// Resume holds the rendered first page of the uploaded PDF.
type Request struct {
	JobDescription string
	Resume         []convert.ImagePart
	Prompt         string
}

var (
	// ErrNotConfigured is returned when no API key was provided.
	ErrNotConfigured = errors.New("model client not configured")
	// ErrRejected marks errors the provider will keep returning for the same input.
	ErrRejected = errors.New("model rejected request")
	// ErrEmptyResponse is returned when the model produced no text.
	ErrEmptyResponse = errors.New("model returned no text")
)

// PlaceholderClient stands in when the API key is missing. It never
// reaches the network.
type PlaceholderClient struct{}

// Generate returns ErrNotConfigured.
func (PlaceholderClient) Generate(context.Context, Request) (string, error) {
	return "", ErrNotConfigured
}
