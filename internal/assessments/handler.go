package assessments

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ats-expert/internal/convert"
	"ats-expert/internal/shared/server/middleware"
	"ats-expert/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the assessments service.
type Handler struct {
	Svc            *Service
	MaxUploadBytes int64
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, maxUploadBytes int64) *Handler {
	return &Handler{Svc: svc, MaxUploadBytes: maxUploadBytes}
}

// RegisterRoutes attaches the JSON API to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/assessments", h.createAssessment)
	rg.GET("/assessments", h.listAssessments)
	rg.GET("/assessments/:id", h.getAssessment)
	rg.GET("/assessments/:id/report", h.getReport)
}

func (h *Handler) createAssessment(c *gin.Context) {
	req, cleanup, err := h.readForm(c)
	defer cleanup()
	if err != nil {
		h.respondFailure(c, err)
		return
	}
	variant, err := ParseVariant(string(req.Variant))
	if err != nil {
		h.respondFailure(c, &Failure{Reason: ReasonInvalidVariant, Err: err})
		return
	}
	req.Variant = variant
	c.Set(middleware.VariantKey, string(variant))

	a, err := h.Svc.Assess(c.Request.Context(), req)
	if err != nil {
		h.respondFailure(c, err)
		return
	}
	c.Set(middleware.AssessmentIDKey, a.ID)
	respond.OK(c, a)
}

func (h *Handler) respondFailure(c *gin.Context, err error) {
	reason := ReasonOf(err)
	c.Set(middleware.FailureKey, string(reason))
	message, detail := Describe(err)
	var details any
	if detail != "" {
		details = []map[string]string{{"field": formResume, "issue": detail}}
	}
	respond.Error(c, StatusFor(err), string(reason), message, details)
}

func (h *Handler) getAssessment(c *gin.Context) {
	id := c.Param("id")
	record, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "assessment not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch assessment", nil)
		}
		return
	}
	c.Set(middleware.AssessmentIDKey, record.ID)
	respond.OK(c, record)
}

func (h *Handler) listAssessments(c *gin.Context) {
	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > 100 {
		limit = 100
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	records, err := h.Svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list assessments", nil)
		return
	}
	respond.OK(c, gin.H{
		"items":  records,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *Handler) getReport(c *gin.Context) {
	id := c.Param("id")
	rc, err := h.Svc.OpenReport(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "report not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to open report", nil)
		}
		return
	}
	defer rc.Close()

	c.Set(middleware.AssessmentIDKey, id)
	c.DataFromReader(http.StatusOK, -1, reportContentType, rc, map[string]string{
		"Content-Disposition": `attachment; filename="ats-report-` + id + `.md"`,
	})
}

func (h *Handler) maxUploadBytes() int64 {
	if h.MaxUploadBytes <= 0 {
		return convert.DefaultMaxBytes
	}
	return h.MaxUploadBytes
}
