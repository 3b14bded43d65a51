package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ats-expert/internal/shared/telemetry"
)

// Context keys handlers set so the access log can report them.
const (
	AssessmentIDKey = "assessmentId"
	VariantKey      = "variant"
	FailureKey      = "failureReason"
)

// Logging writes one access log line per request. 4xx responses log at warn
// and 5xx at error. Preflights and skipPaths are not logged.
func Logging(skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"status":      status,
			"duration_ms": float64(time.Since(start).Microseconds()) / 1000.0,
			"bytes_in":    c.Request.ContentLength,
			"bytes_out":   c.Writer.Size(),
			"client_ip":   c.ClientIP(),
		}
		if v := c.GetString(AssessmentIDKey); v != "" {
			fields["assessment_id"] = v
		}
		if v := c.GetString(VariantKey); v != "" {
			fields["variant"] = v
		}
		if v := c.GetString(FailureKey); v != "" {
			fields["failure_reason"] = v
		}

		switch {
		case status >= http.StatusInternalServerError:
			telemetry.Error("request.complete", fields)
		case status >= http.StatusBadRequest:
			telemetry.Warn("request.complete", fields)
		default:
			telemetry.Info("request.complete", fields)
		}
	}
}
