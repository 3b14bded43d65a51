package assessments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ats-expert/internal/convert"
	"ats-expert/internal/convert/converttest"
	localstore "ats-expert/internal/shared/storage/object/local"
	"ats-expert/mocks"
)

func setupRouter(t *testing.T, svc *Service, maxUpload int64) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(svc, maxUpload)
	h.RegisterPageRoutes(r)
	h.RegisterRoutes(r.Group("/api/v1"))
	return r
}

type formInput struct {
	variant        string
	jobDescription string
	fileName       string
	file           []byte
}

func multipartBody(t *testing.T, in formInput) (*bytes.Buffer, string) {
	t.Helper()
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	if in.variant != "" {
		require.NoError(t, writer.WriteField("variant", in.variant))
	}
	require.NoError(t, writer.WriteField("job_description", in.jobDescription))
	if in.file != nil {
		part, err := writer.CreateFormFile("resume", in.fileName)
		require.NoError(t, err)
		_, err = part.Write(in.file)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func post(t *testing.T, r *gin.Engine, path string, in formInput) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, in)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestPageRendersForm(t *testing.T) {
	svc, _ := newTestService(new(mocks.MockConverter), new(mocks.MockLLMClient))
	r := setupRouter(t, svc, 0)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	body := resp.Body.String()
	assert.Contains(t, body, "ATS Resume Expert")
	assert.Contains(t, body, "Job Description")
	assert.Contains(t, body, "Upload a resume (PDF)...")
	for _, v := range Variants() {
		assert.Contains(t, body, `value="`+string(v)+`"`)
	}
	assert.Contains(t, body, "Percentage Matched")
	assert.NotContains(t, body, `id="config-error"`)
}

func TestPageShowsConfigErrorWithoutKey(t *testing.T) {
	svc, _ := newTestService(new(mocks.MockConverter), nil)
	r := setupRouter(t, svc, 0)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `id="config-error"`)
	assert.Contains(t, resp.Body.String(), "API key not found. Please check your .env file.")
}

func TestPageSubmitWithoutResume(t *testing.T) {
	conv := new(mocks.MockConverter)
	client := new(mocks.MockLLMClient)
	svc, _ := newTestService(conv, client)
	r := setupRouter(t, svc, 0)

	for _, v := range Variants() {
		resp := post(t, r, "/assess", formInput{variant: string(v), jobDescription: "Backend engineer"})

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Contains(t, resp.Body.String(), "Please upload a resume first.")
		assert.Contains(t, resp.Body.String(), "Backend engineer")
	}
	conv.AssertNotCalled(t, "Convert", mock.Anything, mock.Anything)
	client.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestPageSubmitShowsResponse(t *testing.T) {
	client := new(mocks.MockLLMClient)
	svc, _ := newTestService(convert.New(&stubRasterizer{}, 0, 0), client)
	client.On("Generate", mock.Anything, mock.Anything).Return("Match: 82%", nil).Once()
	r := setupRouter(t, svc, 0)

	resp := post(t, r, "/assess", formInput{
		variant:        "match",
		jobDescription: "SRE, Kubernetes",
		fileName:       "resume.pdf",
		file:           converttest.PDF(1),
	})

	require.Equal(t, http.StatusOK, resp.Code)
	body := resp.Body.String()
	assert.Contains(t, body, "The Response is:")
	assert.Contains(t, body, "Match: 82%")
	assert.Contains(t, body, "SRE, Kubernetes")
	assert.Contains(t, body, "Resume uploaded successfully")
	client.AssertExpectations(t)
}

func TestPageSubmitCorruptResume(t *testing.T) {
	client := new(mocks.MockLLMClient)
	raster := &stubRasterizer{err: errors.New("Syntax Error: Couldn't read xref table")}
	svc, _ := newTestService(convert.New(raster, 0, 0), client)
	r := setupRouter(t, svc, 0)

	resp := post(t, r, "/assess", formInput{
		variant:  "overview",
		fileName: "resume.pdf",
		file:     converttest.Corrupt(),
	})

	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Contains(t, resp.Body.String(), "Failed to process the uploaded resume.")
	assert.Contains(t, resp.Body.String(), "Error converting PDF to image")
	client.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestAPICreateAssessment(t *testing.T) {
	client := new(mocks.MockLLMClient)
	svc, _ := newTestService(convert.New(&stubRasterizer{}, 0, 0), client)
	client.On("Generate", mock.Anything, mock.Anything).Return("Score: 5", nil).Once()
	r := setupRouter(t, svc, 0)

	resp := post(t, r, "/api/v1/assessments", formInput{
		variant:        "overview",
		jobDescription: "Go engineer",
		fileName:       "resume.pdf",
		file:           converttest.PDF(1),
	})

	require.Equal(t, http.StatusOK, resp.Code)
	var created Assessment
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, VariantOverview, created.Variant)
	assert.Equal(t, "Score: 5", created.Response)

	getResp := httptest.NewRecorder()
	r.ServeHTTP(getResp, httptest.NewRequest(http.MethodGet, "/api/v1/assessments/"+created.ID, nil))
	require.Equal(t, http.StatusOK, getResp.Code)
	var record Record
	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&record))
	assert.Equal(t, StatusCompleted, record.Status)
	assert.Equal(t, "resume.pdf", record.FileName)

	listResp := httptest.NewRecorder()
	r.ServeHTTP(listResp, httptest.NewRequest(http.MethodGet, "/api/v1/assessments?limit=5", nil))
	require.Equal(t, http.StatusOK, listResp.Code)
	var list struct {
		Items []Record `json:"items"`
		Limit int      `json:"limit"`
	}
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&list))
	assert.Len(t, list.Items, 1)
	assert.Equal(t, 5, list.Limit)
}

type errorEnvelope struct {
	Error struct {
		Code    string              `json:"code"`
		Message string              `json:"message"`
		Details []map[string]string `json:"details"`
	} `json:"error"`
}

func TestAPIFailures(t *testing.T) {
	tests := []struct {
		name       string
		in         formInput
		maxUpload  int64
		wantStatus int
		wantCode   string
	}{
		{name: "missing variant", in: formInput{file: converttest.PDF(1), fileName: "a.pdf"}, wantStatus: http.StatusBadRequest, wantCode: "invalid_variant"},
		{name: "missing resume", in: formInput{variant: "match"}, wantStatus: http.StatusBadRequest, wantCode: "missing_resume"},
		{name: "not a pdf", in: formInput{variant: "match", file: []byte("plain text"), fileName: "a.pdf"}, wantStatus: http.StatusUnprocessableEntity, wantCode: "conversion_failed"},
		{name: "too large", in: formInput{variant: "match", file: converttest.PDF(3), fileName: "a.pdf"}, maxUpload: 128, wantStatus: http.StatusRequestEntityTooLarge, wantCode: "conversion_failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(mocks.MockLLMClient)
			svc, _ := newTestService(convert.New(&stubRasterizer{}, tt.maxUpload, 0), client)
			r := setupRouter(t, svc, tt.maxUpload)

			resp := post(t, r, "/api/v1/assessments", tt.in)

			require.Equal(t, tt.wantStatus, resp.Code)
			var env errorEnvelope
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
			assert.Equal(t, tt.wantCode, env.Error.Code)
			assert.NotEmpty(t, env.Error.Message)
			client.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
		})
	}
}

func TestAPIModelFailure(t *testing.T) {
	client := new(mocks.MockLLMClient)
	svc, _ := newTestService(convert.New(&stubRasterizer{}, 0, 0), client)
	client.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("upstream 500")).Once()
	r := setupRouter(t, svc, 0)

	resp := post(t, r, "/api/v1/assessments", formInput{variant: "improve", file: converttest.PDF(1), fileName: "a.pdf"})

	require.Equal(t, http.StatusBadGateway, resp.Code)
	var env errorEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.Equal(t, "model_failed", env.Error.Code)
	assert.True(t, strings.HasPrefix(env.Error.Message, "Error while generating content: "))
	assert.NotContains(t, env.Error.Message, "upstream 500")
}

func TestAPIGetUnknownAssessment(t *testing.T) {
	svc, _ := newTestService(new(mocks.MockConverter), new(mocks.MockLLMClient))
	r := setupRouter(t, svc, 0)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/assessments/nope", nil))
	assert.Equal(t, http.StatusNotFound, resp.Code)

	reportResp := httptest.NewRecorder()
	r.ServeHTTP(reportResp, httptest.NewRequest(http.MethodGet, "/api/v1/assessments/nope/report", nil))
	assert.Equal(t, http.StatusNotFound, reportResp.Code)
}

func TestAPIReportDownload(t *testing.T) {
	conv := new(mocks.MockConverter)
	client := new(mocks.MockLLMClient)
	svc, _ := newTestService(conv, client)
	svc.Reports = localstore.New(t.TempDir())
	conv.On("Convert", mock.Anything, mock.Anything).Return(sampleParts, nil)
	client.On("Generate", mock.Anything, mock.Anything).Return("Keywords: Go, gRPC", nil)
	r := setupRouter(t, svc, 0)

	a, err := svc.Assess(context.Background(), Request{Variant: VariantMatch, Resume: strings.NewReader("pdf")})
	require.NoError(t, err)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/assessments/"+a.ID+"/report", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Header().Get("Content-Type"), "text/markdown")
	assert.Contains(t, resp.Header().Get("Content-Disposition"), a.ID)
	assert.Contains(t, resp.Body.String(), "Keywords: Go, gRPC")
}

func TestRateLimitedPageKeepsForm(t *testing.T) {
	gin.SetMode(gin.TestMode)
	client := new(mocks.MockLLMClient)
	svc, _ := newTestService(convert.New(&stubRasterizer{}, 0, 0), client)
	h := NewHandler(svc, 0)
	r := gin.New()
	h.RegisterPageRoutes(r)
	r.POST("/limited", func(c *gin.Context) { h.RateLimitedPage(c, 2500*time.Millisecond) })

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/limited", nil))

	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	body := resp.Body.String()
	assert.Contains(t, body, "Too many assessments, please wait before trying again.")
	assert.Contains(t, body, "Try again in 3 seconds.")
	assert.Contains(t, body, `name="variant"`)
	client.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}
