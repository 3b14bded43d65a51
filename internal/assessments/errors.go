package assessments

import (
	"context"
	"errors"
	"net/http"

	"ats-expert/internal/convert"
	"ats-expert/internal/llm"
)

var ErrNotFound = errors.New("not found")

// Reason classifies why an assessment did not produce a response.
type Reason string

const (
	ReasonNotConfigured  Reason = "not_configured"
	ReasonInvalidVariant Reason = "invalid_variant"
	ReasonMissingResume  Reason = "missing_resume"
	ReasonConversion     Reason = "conversion_failed"
	ReasonModel          Reason = "model_failed"
	ReasonInternal       Reason = "internal"
)

// Failure is returned by Service.Assess for every user-facing failure.
type Failure struct {
	Reason Reason
	Err    error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return string(f.Reason)
	}
	return string(f.Reason) + ": " + f.Err.Error()
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// ReasonOf extracts the failure reason; unknown errors are internal.
func ReasonOf(err error) Reason {
	var f *Failure
	if errors.As(err, &f) {
		return f.Reason
	}
	return ReasonInternal
}

// Describe returns the message shown to the user and an optional detail line.
// Details never include upstream error text.
func Describe(err error) (message, detail string) {
	switch ReasonOf(err) {
	case ReasonNotConfigured:
		return "API key not found. Please check your .env file.", ""
	case ReasonInvalidVariant:
		return "Unknown assessment type.", ""
	case ReasonMissingResume:
		return "Please upload a resume first.", ""
	case ReasonConversion:
		return "Failed to process the uploaded resume.", "Error converting PDF to image: " + conversionCause(err)
	case ReasonModel:
		return "Error while generating content: " + modelCause(err), ""
	default:
		return "Unexpected server error.", ""
	}
}

// StatusFor maps a failure onto an HTTP status code.
func StatusFor(err error) int {
	switch ReasonOf(err) {
	case ReasonNotConfigured:
		return http.StatusServiceUnavailable
	case ReasonInvalidVariant, ReasonMissingResume:
		return http.StatusBadRequest
	case ReasonConversion:
		if errors.Is(err, convert.ErrTooLarge) {
			return http.StatusRequestEntityTooLarge
		}
		return http.StatusUnprocessableEntity
	case ReasonModel:
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func conversionCause(err error) string {
	switch {
	case errors.Is(err, convert.ErrTooLarge):
		return "the file is larger than the upload limit"
	case errors.Is(err, convert.ErrNoPages):
		return "the PDF has no pages"
	case errors.Is(err, convert.ErrInvalidPDF):
		return "the file is not a valid PDF"
	case errors.Is(err, convert.ErrNoFile):
		return convert.ErrNoFile.Error()
	default:
		return "the first page could not be rendered"
	}
}

func modelCause(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "the request timed out"
	case errors.Is(err, llm.ErrRejected):
		return "the model rejected the request"
	case errors.Is(err, llm.ErrEmptyResponse):
		return "the model returned no text"
	default:
		return "the model service is unavailable"
	}
}
