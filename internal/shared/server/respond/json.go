package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSON writes payload with status. Assessment output is per-submission, so
// responses are never cached.
func JSON(c *gin.Context, status int, payload any) {
	c.Header("Cache-Control", "no-store")
	c.JSON(status, payload)
}

// OK writes a 200 JSON response.
func OK(c *gin.Context, payload any) {
	JSON(c, http.StatusOK, payload)
}
