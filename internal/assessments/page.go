package assessments

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ats-expert/internal/shared/server/middleware"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	pageTemplateName = "index.html"

	// PageSubmitPath is where the form posts.
	PageSubmitPath = "/assess"
)

// PageTemplate parses the embedded HTML templates.
func PageTemplate() *template.Template {
	return template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))
}

type variantButton struct {
	Value string
	Label string
}

// pageView is everything the page renders. Nothing survives between
// requests; each submission carries its own inputs.
type pageView struct {
	ConfigError    string
	JobDescription string
	Variants       []variantButton
	FileName       string
	Selected       string
	Response       string
	Message        string
	Detail         string
	MaxUploadMB    int64
}

// RegisterPageRoutes serves the form page at / and its submit action.
func (h *Handler) RegisterPageRoutes(r *gin.Engine) {
	r.SetHTMLTemplate(PageTemplate())
	r.GET("/", h.showPage)
	r.POST(PageSubmitPath, h.submitPage)
}

func (h *Handler) newView() pageView {
	view := pageView{MaxUploadMB: h.maxUploadBytes() >> 20}
	for _, v := range Variants() {
		view.Variants = append(view.Variants, variantButton{Value: string(v), Label: v.Label()})
	}
	if err := h.Svc.Ready(); err != nil {
		view.ConfigError, _ = Describe(&Failure{Reason: ReasonNotConfigured, Err: err})
	}
	return view
}

func (h *Handler) showPage(c *gin.Context) {
	c.HTML(http.StatusOK, pageTemplateName, h.newView())
}

func (h *Handler) submitPage(c *gin.Context) {
	view := h.newView()

	req, cleanup, err := h.readForm(c)
	defer cleanup()
	view.JobDescription = req.JobDescription
	view.FileName = req.FileName
	if err != nil {
		h.renderFailure(c, view, err)
		return
	}

	variant, err := ParseVariant(string(req.Variant))
	if err != nil {
		h.renderFailure(c, view, &Failure{Reason: ReasonInvalidVariant, Err: err})
		return
	}
	req.Variant = variant
	view.Selected = string(variant)
	c.Set(middleware.VariantKey, string(variant))

	a, err := h.Svc.Assess(c.Request.Context(), req)
	if err != nil {
		h.renderFailure(c, view, err)
		return
	}
	c.Set(middleware.AssessmentIDKey, a.ID)
	view.Response = a.Response
	c.HTML(http.StatusOK, pageTemplateName, view)
}

func (h *Handler) renderFailure(c *gin.Context, view pageView, err error) {
	c.Set(middleware.FailureKey, string(ReasonOf(err)))
	view.Message, view.Detail = Describe(err)
	c.HTML(StatusFor(err), pageTemplateName, view)
}

// RateLimitedPage renders the form with a wait message when a browser
// submission is over its rate limit. The upload is not read.
func (h *Handler) RateLimitedPage(c *gin.Context, retryAfter time.Duration) {
	view := h.newView()
	view.Message = middleware.RateLimitedMessage
	view.Detail = fmt.Sprintf("Try again in %d seconds.", middleware.RetryAfterSeconds(retryAfter))
	c.HTML(http.StatusTooManyRequests, pageTemplateName, view)
}
