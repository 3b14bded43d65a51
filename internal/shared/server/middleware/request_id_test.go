package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name    string
		inbound string
		reuse   bool
	}{
		{name: "generated", inbound: ""},
		{name: "reused", inbound: "req-42_a.b", reuse: true},
		{name: "too long", inbound: strings.Repeat("a", maxRequestIDLen+1)},
		{name: "header injection", inbound: "abc def"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			var seen string
			r := gin.New()
			r.Use(RequestID())
			r.GET("/", func(c *gin.Context) {
				seen = RequestIDFromContext(c)
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.inbound != "" {
				req.Header.Set("X-Request-Id", tt.inbound)
			}
			resp := httptest.NewRecorder()
			r.ServeHTTP(resp, req)

			if got := resp.Header().Get("X-Request-Id"); got != seen {
				t.Fatalf("header %q does not match context %q", got, seen)
			}
			if tt.reuse {
				if seen != tt.inbound {
					t.Fatalf("expected inbound id reused, got %q", seen)
				}
				return
			}
			if _, err := uuid.Parse(seen); err != nil {
				t.Fatalf("expected a generated uuid, got %q", seen)
			}
		})
	}
}

func TestRequestIDFromNilContext(t *testing.T) {
	if got := RequestIDFromContext(nil); got != "" {
		t.Fatalf("expected empty id, got %q", got)
	}
}
