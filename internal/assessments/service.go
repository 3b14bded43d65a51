package assessments

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	"ats-expert/internal/convert"
	"ats-expert/internal/llm"
	"ats-expert/internal/shared/metrics"
	"ats-expert/internal/shared/storage/object"
	"ats-expert/internal/shared/telemetry"
	"ats-expert/internal/shared/util"
)

// Converter renders an uploaded PDF into image parts.
type Converter interface {
	Convert(ctx context.Context, r io.Reader) ([]convert.ImagePart, error)
}

// Service runs assessments. Repo and Reports are optional; when set, their
// failures are logged and never fail the request.
type Service struct {
	Converter Converter
	LLM       llm.Client
	Repo      Repo
	Reports   object.ObjectStore
	Model     string
	// ConfigErr is set at startup when the API key is missing.
	ConfigErr error

	now func() time.Time
}

// Ready reports whether assessments can run at all.
func (s *Service) Ready() error {
	if s.ConfigErr != nil {
		return s.ConfigErr
	}
	if s.LLM == nil {
		return llm.ErrNotConfigured
	}
	if s.Converter == nil {
		return errors.New("converter not configured")
	}
	return nil
}

// BuildRequest assembles the model request. Equal inputs give equal requests.
func BuildRequest(jobDescription string, resume []convert.ImagePart, prompt string) llm.Request {
	return llm.Request{
		JobDescription: jobDescription,
		Resume:         append([]convert.ImagePart(nil), resume...),
		Prompt:         prompt,
	}
}

// Assess converts the resume, calls the model once and returns its text.
// Errors are always *Failure.
func (s *Service) Assess(ctx context.Context, req Request) (Assessment, error) {
	start := s.clock()

	if err := s.Ready(); err != nil {
		return Assessment{}, s.fail(ReasonNotConfigured, err, req)
	}
	prompt, err := req.Variant.Prompt()
	if err != nil {
		return Assessment{}, s.fail(ReasonInvalidVariant, err, req)
	}
	metrics.IncAssessmentStarted(string(req.Variant))

	if req.Resume == nil {
		return Assessment{}, s.fail(ReasonMissingResume, convert.ErrNoFile, req)
	}

	convStart := time.Now()
	parts, err := s.Converter.Convert(ctx, req.Resume)
	metrics.ObserveConversionDurationMs(float64(time.Since(convStart).Milliseconds()))
	if err != nil {
		failure := s.fail(ReasonConversion, err, req)
		s.recordFailure(ctx, req, prompt, failure, start)
		return Assessment{}, failure
	}

	text, err := s.LLM.Generate(ctx, BuildRequest(req.JobDescription, parts, prompt))
	if err != nil {
		failure := s.fail(ReasonModel, err, req)
		s.recordFailure(ctx, req, prompt, failure, start)
		return Assessment{}, failure
	}

	finished := s.clock()
	a := Assessment{
		ID:         uuid.NewString(),
		Variant:    req.Variant,
		Model:      s.Model,
		Response:   text,
		DurationMs: finished.Sub(start).Milliseconds(),
		CreatedAt:  finished.UTC(),
	}

	reportKey := s.archive(ctx, a)
	record := s.baseRecord(req, prompt, a.ID, a.CreatedAt, a.DurationMs)
	record.Status = StatusCompleted
	record.Response = &a.Response
	record.ReportKey = reportKey
	s.record(ctx, record)

	metrics.IncAssessmentCompleted()
	metrics.ObserveAssessmentDurationMs(float64(a.DurationMs))
	telemetry.Info("assessment.complete", map[string]any{
		"assessment_id": a.ID,
		"variant":       string(a.Variant),
		"model":         a.Model,
		"duration_ms":   a.DurationMs,
		"response_len":  len(text),
	})
	return a, nil
}

// Get returns one history record.
func (s *Service) Get(ctx context.Context, id string) (Record, error) {
	if s.Repo == nil {
		return Record{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, id)
}

// List returns history records newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Record, error) {
	if s.Repo == nil {
		return []Record{}, nil
	}
	return s.Repo.List(ctx, limit, offset)
}

// OpenReport returns the archived Markdown report for an assessment.
func (s *Service) OpenReport(ctx context.Context, id string) (io.ReadCloser, error) {
	if s.Reports == nil {
		return nil, ErrNotFound
	}
	record, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.ReportKey == nil {
		return nil, ErrNotFound
	}
	rc, err := s.Reports.Open(ctx, *record.ReportKey)
	if errors.Is(err, object.ErrNotFound) {
		return nil, ErrNotFound
	}
	return rc, err
}

func (s *Service) fail(reason Reason, err error, req Request) *Failure {
	metrics.IncAssessmentFailed(string(reason))
	telemetry.Error("assessment.failed", map[string]any{
		"reason":  string(reason),
		"variant": string(req.Variant),
		"error":   err,
	})
	return &Failure{Reason: reason, Err: err}
}

func (s *Service) archive(ctx context.Context, a Assessment) *string {
	if s.Reports == nil {
		return nil
	}
	key := ReportKey(a.ID)
	if _, err := s.Reports.Put(ctx, key, reportContentType, bytes.NewReader(RenderReport(a))); err != nil {
		telemetry.Error("assessment.report_failed", map[string]any{
			"assessment_id": a.ID,
			"error":         err,
		})
		return nil
	}
	return &key
}

func (s *Service) recordFailure(ctx context.Context, req Request, prompt string, failure *Failure, start time.Time) {
	finished := s.clock()
	record := s.baseRecord(req, prompt, uuid.NewString(), finished.UTC(), finished.Sub(start).Milliseconds())
	record.Status = StatusFailed
	reason := string(failure.Reason)
	record.FailureReason = &reason
	s.record(ctx, record)
}

func (s *Service) baseRecord(req Request, prompt, id string, createdAt time.Time, durationMs int64) Record {
	fileName := ""
	if req.FileName != "" {
		if clean, err := util.SanitizeFileName(req.FileName); err == nil {
			fileName = clean
		}
	}
	return Record{
		ID:                   id,
		Variant:              req.Variant,
		Model:                s.Model,
		PromptHash:           llm.PromptHash(prompt),
		JobDescriptionSHA256: util.HashString(req.JobDescription),
		FileName:             fileName,
		DurationMs:           durationMs,
		CreatedAt:            createdAt,
	}
}

func (s *Service) record(ctx context.Context, record Record) {
	if s.Repo == nil {
		return
	}
	if err := s.Repo.Create(ctx, record); err != nil {
		telemetry.Error("assessment.record_failed", map[string]any{
			"assessment_id": record.ID,
			"error":         err,
		})
	}
}

func (s *Service) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}
