package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/Skufu/glucocheck/internal/assessment"
	"github.com/Skufu/glucocheck/internal/backend"
	"github.com/Skufu/glucocheck/internal/store"
	"github.com/Skufu/glucocheck/internal/vitals"
)

const session = "0190b5a6-7c1e-7000-8000-000000000001"

type fakeBackend struct {
	resp      assessment.PredictionResponse
	err       error
	healthErr error
	calls     int
}

func (f *fakeBackend) Predict(ctx context.Context, in vitals.Inputs) (assessment.PredictionResponse, error) {
	f.calls++
	return f.resp, f.err
}

func (f *fakeBackend) HealthCheck(ctx context.Context) error {
	return f.healthErr
}

func (f *fakeBackend) Dataset(ctx context.Context, name string) (json.RawMessage, error) {
	if name != "model-info" {
		return nil, &backend.UnknownDatasetError{Name: name}
	}
	return json.RawMessage(`{"success":true,"accuracy":0.77}`), nil
}

func (f *fakeBackend) Overview(ctx context.Context) (map[string]json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return map[string]json.RawMessage{"model-info": json.RawMessage(`{"success":true}`)}, nil
}

type failingStore struct {
	*store.MemoryStore
}

func (failingStore) Ping(context.Context) error { return errors.New("database is locked") }

func newTestServer(t *testing.T, fb *fakeBackend) (*Server, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	srv := NewServer(store.NewMemory(10), fb, nil)
	srv.now = func() time.Time { return time.Date(2025, 3, 14, 15, 4, 5, 0, time.UTC) }
	return srv, srv.Router()
}

func do(router http.Handler, method, target, contentType, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set(sessionHeader, session)
	router.ServeHTTP(w, req)
	return w
}

func sampleForm() string {
	return vitals.SampleInputs().Form().Encode()
}

func TestRouterHealthz(t *testing.T) {
	_, router := newTestServer(t, &fakeBackend{})

	w := do(router, "GET", "/healthz", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestReadyzReportsDegradedDependencies(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := NewServer(failingStore{store.NewMemory(10)}, &fakeBackend{healthErr: errors.New("connection refused")}, nil)

	w := do(srv.Router(), "GET", "/readyz", "", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "database is locked") || !strings.Contains(body, "connection refused") {
		t.Fatalf("expected both failures in body, got %s", body)
	}
}

func TestLimitBodySize(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(limitBodySize(10))
	router.POST("/echo", func(c *gin.Context) {
		_, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "too large"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	t.Run("within limit", func(t *testing.T) {
		w := do(router, "POST", "/echo", "", "12345")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("over limit", func(t *testing.T) {
		w := do(router, "POST", "/echo", "", "01234567890")
		if w.Code != http.StatusRequestEntityTooLarge {
			t.Fatalf("expected 413, got %d", w.Code)
		}
	})
}

func TestSessionCookieIsMinted(t *testing.T) {
	_, router := newTestServer(t, &fakeBackend{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/fields", nil)
	router.ServeHTTP(w, req)

	id := w.Header().Get(sessionHeader)
	if id == "" || !strings.Contains(w.Header().Get("Set-Cookie"), sessionCookie+"="+id) {
		t.Fatalf("expected a minted session, got header %q cookie %q", id, w.Header().Get("Set-Cookie"))
	}
}

func TestAnnotate(t *testing.T) {
	_, router := newTestServer(t, &fakeBackend{})

	w := do(router, "GET", "/api/annotate?field=glucose&value=150", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var ann vitals.Annotation
	if err := json.Unmarshal(w.Body.Bytes(), &ann); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ann.Status != vitals.StatusHigh || ann.Color != "#ef4444" {
		t.Fatalf("unexpected annotation: %+v", ann)
	}

	w = do(router, "POST", "/api/annotate", "application/json", `{"bmi": 17, "age": "150"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"underweight"`) || !strings.Contains(body, "Value must be between 1 and 120") {
		t.Fatalf("unexpected batch body: %s", body)
	}
	if !strings.Contains(body, `"valid":false`) {
		t.Fatalf("expected valid=false, got %s", body)
	}
}

func TestAssessValidationFailure(t *testing.T) {
	fb := &fakeBackend{}
	_, router := newTestServer(t, fb)

	form := vitals.SampleInputs().Form()
	form.Set(vitals.Age, "150")
	form.Set(vitals.BloodPressure, "")

	w := do(router, "POST", "/api/assess", "application/x-www-form-urlencoded", form.Encode())
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for validation failure, got %d", w.Code)
	}
	var body struct {
		Error   string              `json:"error"`
		Message string              `json:"message"`
		Fields  []vitals.FieldIssue `json:"fields"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "validation_failed" || body.Message != "Please enter a valid bloodpressure between 0 and 200" {
		t.Fatalf("unexpected validation body: %+v", body)
	}
	if len(body.Fields) != 2 || body.Fields[1].Field != vitals.Age {
		t.Fatalf("expected bloodpressure and age issues, got %+v", body.Fields)
	}
	if fb.calls != 0 {
		t.Fatalf("backend must not be called for invalid input")
	}
}

func TestAssessRecordsHistory(t *testing.T) {
	fb := &fakeBackend{resp: assessment.PredictionResponse{Success: true, Prediction: 1, Probability: 0.85}}
	_, router := newTestServer(t, fb)

	for i := 0; i < 11; i++ {
		w := do(router, "POST", "/api/assess", "application/x-www-form-urlencoded", sampleForm())
		if w.Code != http.StatusOK {
			t.Fatalf("assess %d: expected 200, got %d: %s", i, w.Code, w.Body.String())
		}
	}

	w := do(router, "GET", "/api/history", "", "")
	var body struct {
		History []assessment.Record `json:"history"`
		Stats   assessment.Stats    `json:"stats"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.History) != 10 {
		t.Fatalf("expected history capped at 10, got %d", len(body.History))
	}
	if body.Stats.HighRiskCount != 10 || body.Stats.AverageRisk != "85.0%" {
		t.Fatalf("unexpected stats: %+v", body.Stats)
	}
}

func TestAssessAcceptsJSON(t *testing.T) {
	fb := &fakeBackend{resp: assessment.PredictionResponse{Success: true, Prediction: 0, Probability: 0.12}}
	_, router := newTestServer(t, fb)

	payload, _ := json.Marshal(vitals.SampleInputs())
	w := do(router, "POST", "/api/assess", "application/json", string(payload))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"Minimal Risk"`) {
		t.Fatalf("expected rendered result, got %s", w.Body.String())
	}
}

func TestAssessBackendFailure(t *testing.T) {
	cases := map[string]*fakeBackend{
		"transport":   {err: assessment.NewBackendError(errors.New("dial tcp: connection refused"))},
		"not success": {resp: assessment.PredictionResponse{Success: false, Error: "Model not loaded"}},
	}
	for name, fb := range cases {
		t.Run(name, func(t *testing.T) {
			_, router := newTestServer(t, fb)
			w := do(router, "POST", "/api/assess", "application/x-www-form-urlencoded", sampleForm())
			if w.Code != http.StatusBadGateway {
				t.Fatalf("expected 502, got %d", w.Code)
			}
			if !strings.Contains(w.Body.String(), "backend_error") {
				t.Fatalf("unexpected body: %s", w.Body.String())
			}

			w = do(router, "GET", "/api/history", "", "")
			if !strings.Contains(w.Body.String(), `"history":[]`) {
				t.Fatalf("failed assessment must not be recorded: %s", w.Body.String())
			}
		})
	}
}

func TestHistoryClearAndExport(t *testing.T) {
	fb := &fakeBackend{resp: assessment.PredictionResponse{Success: true, Prediction: 1, Probability: 0.7}}
	_, router := newTestServer(t, fb)
	do(router, "POST", "/api/assess", "application/x-www-form-urlencoded", sampleForm())

	w := do(router, "GET", "/api/history/export", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("Content-Disposition"); !strings.Contains(got, "diabetes_assessment_history_2025-03-14.csv") {
		t.Fatalf("unexpected disposition %q", got)
	}
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "Date,Time,Risk Level,Probability,BMI") {
		t.Fatalf("unexpected csv: %q", w.Body.String())
	}

	w = do(router, "GET", "/api/history/export?format=xlsx", "", "")
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	rows, _ := f.GetRows("History")
	_ = f.Close()
	if len(rows) != 2 {
		t.Fatalf("expected header and one row, got %d", len(rows))
	}

	if w := do(router, "GET", "/api/history/export?format=pdf", "", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown format, got %d", w.Code)
	}

	if w := do(router, "DELETE", "/api/history", "", ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	w = do(router, "GET", "/api/history/stats", "", "")
	if !strings.Contains(w.Body.String(), `"total_assessments":0`) {
		t.Fatalf("expected empty stats, got %s", w.Body.String())
	}
}

func TestReportEndpoints(t *testing.T) {
	fb := &fakeBackend{resp: assessment.PredictionResponse{Success: true, Prediction: 1, Probability: 0.9}}
	_, router := newTestServer(t, fb)

	if w := do(router, "GET", "/api/report", "", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without history, got %d", w.Code)
	}
	do(router, "POST", "/api/assess", "application/x-www-form-urlencoded", sampleForm())

	w := do(router, "GET", "/api/report", "", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"medical_priority":"URGENT`) {
		t.Fatalf("unexpected report: %d %s", w.Code, w.Body.String())
	}

	w = do(router, "GET", "/api/report/export", "", "")
	if !strings.Contains(w.Header().Get("Content-Disposition"), "diabetes_assessment_report_20250314_150405.txt") {
		t.Fatalf("unexpected disposition %q", w.Header().Get("Content-Disposition"))
	}
	if !strings.Contains(w.Body.String(), "DIABETES RISK ASSESSMENT REPORT") {
		t.Fatalf("unexpected text report: %s", w.Body.String())
	}

	w = do(router, "GET", "/api/report/html", "", "")
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/html") || !strings.Contains(w.Body.String(), "<h1") {
		t.Fatalf("unexpected html report")
	}
}

func TestDatasetProxy(t *testing.T) {
	_, router := newTestServer(t, &fakeBackend{})

	w := do(router, "GET", "/api/dataset/model-info", "", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "accuracy") {
		t.Fatalf("unexpected dataset response: %d %s", w.Code, w.Body.String())
	}
	if w := do(router, "GET", "/api/dataset/secrets", "", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if w := do(router, "GET", "/api/dataset/overview", "", ""); w.Code != http.StatusOK {
		t.Fatalf("expected overview 200, got %d", w.Code)
	}

	_, router = newTestServer(t, &fakeBackend{err: &assessment.BackendError{Message: "model not loaded"}})
	if w := do(router, "GET", "/api/dataset/overview", "", ""); w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}

func TestUIActions(t *testing.T) {
	_, router := newTestServer(t, &fakeBackend{})

	w := do(router, "POST", "/api/ui/actions", "application/json", `{"type":"next_step"}`)
	if w.Code != http.StatusUnprocessableEntity || !strings.Contains(w.Body.String(), "Please enter a valid pregnancies") {
		t.Fatalf("expected rejected step, got %d %s", w.Code, w.Body.String())
	}

	do(router, "POST", "/api/ui/actions", "application/json", `{"type":"load_sample"}`)
	w = do(router, "POST", "/api/ui/actions", "application/json", `{"type":"next_step"}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"step":2`) {
		t.Fatalf("expected step 2, got %d %s", w.Code, w.Body.String())
	}

	do(router, "POST", "/api/ui/actions", "application/json", `{"type":"toggle_theme"}`)
	w = do(router, "GET", "/api/ui", "", "")
	if !strings.Contains(w.Body.String(), `"theme":"dark"`) || !strings.Contains(w.Body.String(), `"step":2`) {
		t.Fatalf("expected persisted state, got %s", w.Body.String())
	}

	if w := do(router, "POST", "/api/ui/actions", "application/json", `{"type":"dance"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown action, got %d", w.Code)
	}
}

func TestAssessUpdatesUIState(t *testing.T) {
	fb := &fakeBackend{resp: assessment.PredictionResponse{Success: true, Prediction: 1, Probability: 0.85}}
	_, router := newTestServer(t, fb)
	do(router, "POST", "/api/assess", "application/x-www-form-urlencoded", sampleForm())

	w := do(router, "GET", "/api/ui", "", "")
	if !strings.Contains(w.Body.String(), `"section":"results"`) || !strings.Contains(w.Body.String(), "Diabetes Risk Detected") {
		t.Fatalf("expected result in ui state, got %s", w.Body.String())
	}
}

func TestTools(t *testing.T) {
	_, router := newTestServer(t, &fakeBackend{})

	w := do(router, "POST", "/api/bmi", "application/json", `{"height_cm":180,"weight_kg":81}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"bmi":25`) {
		t.Fatalf("unexpected bmi response: %d %s", w.Code, w.Body.String())
	}
	if w := do(router, "POST", "/api/bmi", "application/json", `{"height_cm":0,"weight_kg":81}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	w = do(router, "GET", "/api/quick-check/glucose?"+url.Values{"value": {"130"}}.Encode(), "", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Pre-diabetes") {
		t.Fatalf("unexpected quick check: %d %s", w.Code, w.Body.String())
	}
	if w := do(router, "GET", "/api/quick-check/insulin?value=10", "", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
