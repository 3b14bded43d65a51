package assessments

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"ats-expert/internal/convert"
)

const (
	formVariant        = "variant"
	formJobDescription = "job_description"
	formResume         = "resume"

	// room for the job description and multipart framing on top of the PDF
	formOverheadBytes = 1 << 20
	formMemoryBytes   = 8 << 20
)

// readForm parses a multipart submission into a Request. The returned
// cleanup closes the upload and removes any spooled temp files.
func (h *Handler) readForm(c *gin.Context) (Request, func(), error) {
	noop := func() {}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes()+formOverheadBytes)

	if err := c.Request.ParseMultipartForm(formMemoryBytes); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return Request{}, noop, &Failure{Reason: ReasonConversion, Err: convert.ErrTooLarge}
		case errors.Is(err, http.ErrNotMultipart):
			if err := c.Request.ParseForm(); err != nil {
				return Request{}, noop, fmt.Errorf("parse form: %w", err)
			}
		default:
			return Request{}, noop, fmt.Errorf("parse multipart form: %w", err)
		}
	}

	req := Request{
		Variant:        Variant(c.Request.FormValue(formVariant)),
		JobDescription: c.Request.FormValue(formJobDescription),
	}
	cleanup := func() {
		if c.Request.MultipartForm != nil {
			_ = c.Request.MultipartForm.RemoveAll()
		}
	}

	fh, err := formFile(c.Request)
	if err != nil {
		return req, cleanup, err
	}
	if fh == nil {
		return req, cleanup, nil
	}
	f, err := fh.Open()
	if err != nil {
		return req, cleanup, fmt.Errorf("open upload: %w", err)
	}
	req.Resume = f
	req.FileName = fh.Filename
	return req, func() {
		_ = f.Close()
		cleanup()
	}, nil
}

func formFile(r *http.Request) (*multipart.FileHeader, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	files := r.MultipartForm.File[formResume]
	if len(files) == 0 {
		return nil, nil
	}
	return files[0], nil
}
