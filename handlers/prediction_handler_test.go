package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cyberlaw-backend/models"
	"cyberlaw-backend/service"
	"cyberlaw-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakePredictor struct {
	outcome *service.PredictOutcome
	err     error
	queries []string
}

func (p *fakePredictor) PredictAndRender(ctx context.Context, q string) (*service.PredictOutcome, error) {
	p.queries = append(p.queries, q)
	return p.outcome, p.err
}

type fakeReports struct {
	data []byte
	err  error
}

func (r *fakeReports) Open(ctx context.Context) (io.ReadCloser, error) {
	if r.err != nil {
		return nil, r.err
	}
	return io.NopCloser(bytes.NewReader(r.data)), nil
}

type fakeSections []models.LawEntry

func (s fakeSections) Entries() []models.LawEntry { return s }

var sampleResult = &models.PredictionResult{
	Section:    "Section 66D",
	Offense:    "Cheating by personation",
	Punishment: "Imprisonment up to 3 years",
	CaseType:   "Criminal",
	Procedure:  "File a complaint.",
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	PDFURL  string          `json:"pdf_url"`
	Error   apiError        `json:"error"`
}

func newTestRouter(p Predictor, r ReportSource, s SectionLister) *gin.Engine {
	h := NewPredictionHandler(p, r, s, zap.NewNop())
	return NewRouter(h, zap.NewNop(), http.NotFoundHandler())
}

func do(t *testing.T, router *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestPredict_Success(t *testing.T) {
	p := &fakePredictor{outcome: &service.PredictOutcome{Result: sampleResult, ReportPath: "static/cyber_law_report.pdf"}}
	router := newTestRouter(p, &fakeReports{}, fakeSections{})

	w, env := do(t, router, http.MethodPost, "/predict", `{"query":"phishing attack on bank account"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "Prediction successful", env.Message)
	assert.Equal(t, "static/cyber_law_report.pdf", env.PDFURL)
	assert.JSONEq(t, `{"Section":"Section 66D","Offense":"Cheating by personation",`+
		`"Punishment":"Imprisonment up to 3 years","Case Type":"Criminal","Procedure":"File a complaint."}`, string(env.Data))
	assert.Equal(t, []string{"phishing attack on bank account"}, p.queries)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestPredict_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
		code   string
	}{
		{"empty query", `{"query":""}`, service.ErrEmptyQuery, http.StatusBadRequest, "EMPTY_QUERY"},
		{"missing body", "", service.ErrEmptyQuery, http.StatusBadRequest, "EMPTY_QUERY"},
		{"malformed json", `{"query":`, nil, http.StatusBadRequest, "INVALID_REQUEST"},
		{"inconsistent model", `{"query":"x"}`, fmt.Errorf("%w: Section 99", service.ErrModelInconsistency), http.StatusInternalServerError, "MODEL_INCONSISTENCY"},
		{"report failure", `{"query":"x"}`, fmt.Errorf("%w: disk full", service.ErrReportFailed), http.StatusInternalServerError, "REPORT_FAILED"},
		{"unexpected", `{"query":"x"}`, errors.New("boom"), http.StatusInternalServerError, "PREDICTION_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&fakePredictor{err: tt.err}, &fakeReports{}, fakeSections{})
			w, env := do(t, router, http.MethodPost, "/predict", tt.body)

			assert.Equal(t, tt.status, w.Code)
			assert.False(t, env.Success)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestPredict_EmptyQueryMessage(t *testing.T) {
	router := newTestRouter(&fakePredictor{err: service.ErrEmptyQuery}, &fakeReports{}, fakeSections{})
	_, env := do(t, router, http.MethodPost, "/predict", `{}`)
	assert.Equal(t, "No query provided", env.Error.Message)
}

func TestDownloadReport(t *testing.T) {
	router := newTestRouter(&fakePredictor{}, &fakeReports{data: []byte("%PDF-1.3 test")}, fakeSections{})

	w, _ := do(t, router, http.MethodGet, "/download_report", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="cyber_law_report.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.3 test", w.Body.String())
}

func TestDownloadReport_NotFound(t *testing.T) {
	reports := &fakeReports{err: fmt.Errorf("report not yet generated: %w", storage.ErrNotFound)}
	router := newTestRouter(&fakePredictor{}, reports, fakeSections{})

	w, env := do(t, router, http.MethodGet, "/download_report", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "REPORT_NOT_FOUND", env.Error.Code)
	assert.Equal(t, "Report not found", env.Error.Message)
}

func TestDownloadReport_StoreError(t *testing.T) {
	router := newTestRouter(&fakePredictor{}, &fakeReports{err: errors.New("access denied")}, fakeSections{})

	w, env := do(t, router, http.MethodGet, "/download_report", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "REPORT_UNAVAILABLE", env.Error.Code)
}

func TestListSections(t *testing.T) {
	sections := fakeSections{
		{Section: "Section 43", Offense: "Damage to computer", Punishment: "Compensation", CaseType: "Civil"},
		{Section: "Section 66", Offense: "Hacking", Punishment: "3 years", CaseType: "Criminal"},
	}
	router := newTestRouter(&fakePredictor{}, &fakeReports{}, sections)

	w, env := do(t, router, http.MethodGet, "/sections", "")

	assert.Equal(t, http.StatusOK, w.Code)
	var got []models.LawEntry
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, []models.LawEntry(sections), got)
}

func TestHealth(t *testing.T) {
	router := newTestRouter(&fakePredictor{}, &fakeReports{}, fakeSections{})
	w, _ := do(t, router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRequestID_Propagates(t *testing.T) {
	router := newTestRouter(&fakePredictor{}, &fakeReports{}, fakeSections{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}
