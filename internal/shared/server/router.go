package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ats-expert/internal/assessments"
	"ats-expert/internal/services/health"
	"ats-expert/internal/shared/config"
	"ats-expert/internal/shared/metrics"
	"ats-expert/internal/shared/server/middleware"
	"ats-expert/internal/shared/server/respond"
)

const assessRateLimitGroup = "ASSESS"

// RouterDeps carries everything the router needs.
type RouterDeps struct {
	Config            config.Config
	AssessmentHandler *assessments.Handler
	Health            *health.Service
	Limiter           *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging("/metrics", "/api/v1/health"),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				assessRateLimitGroup: {Rate: deps.Config.RateLimitRPS, Burst: deps.Config.RateLimitBurst},
			},
			GroupFor: groupFor,
			Limiter:  deps.Limiter,
			OnLimit:  onLimit(deps.AssessmentHandler),
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, deps.Health.Status(c.Request.Context()))
	})

	if deps.AssessmentHandler != nil {
		deps.AssessmentHandler.RegisterPageRoutes(r)
		deps.AssessmentHandler.RegisterRoutes(api)
	}

	return r
}

// groupFor puts every submission that can reach the model in the ASSESS group.
func groupFor(c *gin.Context) string {
	if c.Request.Method == http.MethodPost {
		return assessRateLimitGroup
	}
	return ""
}

// onLimit answers browser form posts with the page and everything else with
// the JSON envelope.
func onLimit(h *assessments.Handler) func(*gin.Context, time.Duration) {
	return func(c *gin.Context, retryAfter time.Duration) {
		if h != nil && c.Request.URL.Path == assessments.PageSubmitPath {
			h.RateLimitedPage(c, retryAfter)
			return
		}
		middleware.RateLimitedJSON(c, retryAfter)
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
