package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"ats-expert/internal/llm"
	"ats-expert/internal/shared/telemetry"
)

const DefaultModel = "gemini-2.5-flash"

type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client implements llm.Client against the Gemini API. One call per
// Generate, no retries.
type Client struct {
	models  generator
	model   string
	timeout time.Duration
}

// NewClient builds a Gemini client. A zero timeout leaves the deadline to the caller's context.
func NewClient(ctx context.Context, apiKey, model string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, llm.ErrNotConfigured
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return newClient(client.Models, model, timeout), nil
}

func newClient(models generator, model string, timeout time.Duration) *Client {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &Client{models: models, model: model, timeout: timeout}
}

// Model returns the model name used for requests.
func (c *Client) Model() string {
	return c.model
}

// Generate sends the job description, the resume image and the prompt, in
// that order, and returns the response text.
func (c *Client) Generate(ctx context.Context, req llm.Request) (string, error) {
	contents, err := BuildContents(req)
	if err != nil {
		return "", err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", classify(err)
	}
	logUsage(c.model, resp, time.Since(start))

	if resp == nil {
		return "", llm.ErrEmptyResponse
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: blocked: %s", llm.ErrEmptyResponse, resp.PromptFeedback.BlockReason)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", llm.ErrEmptyResponse
	}
	return text, nil
}

// BuildContents maps a request onto a single user turn with three parts.
// Identical requests always produce identical contents.
func BuildContents(req llm.Request) ([]*genai.Content, error) {
	if len(req.Resume) != 1 {
		return nil, fmt.Errorf("expected exactly one resume image, got %d", len(req.Resume))
	}
	img := req.Resume[0]
	data, err := base64.StdEncoding.DecodeString(img.Data)
	if err != nil {
		return nil, fmt.Errorf("decode resume image: %w", err)
	}

	parts := []*genai.Part{
		genai.NewPartFromText(req.JobDescription),
		genai.NewPartFromBytes(data, img.MimeType),
		genai.NewPartFromText(req.Prompt),
	}
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, nil
}

func classify(err error) error {
	code, ok := apiErrorCode(err)
	if !ok {
		return fmt.Errorf("gemini generate: %w", err)
	}
	switch {
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("gemini generate (%d): %w", code, err)
	case code >= 400 && code < 500:
		return fmt.Errorf("gemini generate (%d): %w: %w", code, llm.ErrRejected, err)
	default:
		return fmt.Errorf("gemini generate (%d): %w", code, err)
	}
}

func apiErrorCode(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, true
	}
	return 0, false
}

func logUsage(model string, resp *genai.GenerateContentResponse, elapsed time.Duration) {
	fields := map[string]any{
		"model":      model,
		"latency_ms": elapsed.Milliseconds(),
	}
	if resp != nil && resp.UsageMetadata != nil {
		fields["prompt_tokens"] = resp.UsageMetadata.PromptTokenCount
		fields["candidate_tokens"] = resp.UsageMetadata.CandidatesTokenCount
		fields["total_tokens"] = resp.UsageMetadata.TotalTokenCount
	}
	telemetry.Info("llm.generate", fields)
}

var _ llm.Client = (*Client)(nil)
