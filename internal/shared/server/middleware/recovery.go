package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"ats-expert/internal/shared/server/respond"
	"ats-expert/internal/shared/telemetry"
)

// Recovery turns a panic in any handler into a 500 error envelope.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			telemetry.Error("panic", map[string]any{
				"request_id": RequestIDFromContext(c),
				"variant":    c.GetString(VariantKey),
				"error":      fmt.Sprint(rec),
				"stack":      string(debug.Stack()),
				"path":       c.Request.URL.Path,
				"method":     c.Request.Method,
			})
			c.Set(FailureKey, "internal")
			respond.Error(c, http.StatusInternalServerError, "internal", "Unexpected server error.", nil)
		}()
		c.Next()
	}
}
