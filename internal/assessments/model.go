package assessments

import (
	"io"
	"time"
)

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Request carries one button press. Resume is nil when nothing was uploaded.
type Request struct {
	Variant        Variant
	JobDescription string
	Resume         io.Reader
	FileName       string
}

// Assessment is a successful model response.
type Assessment struct {
	ID         string    `json:"assessmentId"`
	Variant    Variant   `json:"variant"`
	Model      string    `json:"model"`
	Response   string    `json:"response"`
	DurationMs int64     `json:"durationMs"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Record is the persisted history row. It never holds resume bytes or the
// rendered image; the job description is kept only as a hash.
type Record struct {
	ID                   string    `json:"id"`
	Variant              Variant   `json:"variant"`
	Model                string    `json:"model"`
	PromptHash           string    `json:"promptHash"`
	Status               string    `json:"status"`
	JobDescriptionSHA256 string    `json:"jobDescriptionSha256"`
	FileName             string    `json:"fileName,omitempty"`
	Response             *string   `json:"response,omitempty"`
	FailureReason        *string   `json:"failureReason,omitempty"`
	ReportKey            *string   `json:"reportKey,omitempty"`
	DurationMs           int64     `json:"durationMs"`
	CreatedAt            time.Time `json:"createdAt"`
}
