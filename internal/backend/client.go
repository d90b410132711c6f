// Package backend talks to the prediction and statistics service. Every call
// is a single attempt; failures surface as *assessment.BackendError.
package backend

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/Skufu/glucocheck/internal/assessment"
	"github.com/Skufu/glucocheck/internal/vitals"
)

//go:embed predict.schema.json
var predictSchemaJSON string

var predictSchema = func() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("predict.schema.json", strings.NewReader(predictSchemaJSON)); err != nil {
		panic(err)
	}
	return compiler.MustCompile("predict.schema.json")
}()

// Client is safe for concurrent use.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// New builds a client for the service at baseURL. A nil logger disables logging.
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")

	return &Client{http: rc, logger: logger.Named("backend")}
}

// Predict submits validated inputs and returns the checked response. The
// caller turns a non-success response into a record error via
// assessment.ToRecord.
func (c *Client) Predict(ctx context.Context, in vitals.Inputs) (assessment.PredictionResponse, error) {
	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormDataFromValues(in.Form()).
		Post("/predict")
	if err != nil {
		c.logger.Error("predict request failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return assessment.PredictionResponse{}, assessment.NewBackendError(err)
	}

	body := resp.Body()
	if err := checkPredictBody(body); err != nil {
		c.logger.Error("predict response rejected",
			zap.Int("status_code", resp.StatusCode()),
			zap.Error(err),
		)
		return assessment.PredictionResponse{}, assessment.NewBackendError(err)
	}

	var out assessment.PredictionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return assessment.PredictionResponse{}, assessment.NewBackendError(fmt.Errorf("decode predict response: %w", err))
	}

	c.logger.Info("predict completed",
		zap.Bool("success", out.Success),
		zap.Int("prediction", out.Prediction),
		zap.Float64("probability", out.Probability),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

func checkPredictBody(body []byte) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("predict response is not json: %w", err)
	}
	if err := predictSchema.Validate(doc); err != nil {
		return fmt.Errorf("unexpected predict response: %w", err)
	}
	return nil
}

// History returns the service's session history, most recent first.
func (c *Client) History(ctx context.Context) ([]assessment.Record, error) {
	body, err := c.get(ctx, "/history")
	if err != nil {
		return nil, err
	}
	var payload struct {
		History []assessment.Record `json:"history"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, assessment.NewBackendError(fmt.Errorf("decode history: %w", err))
	}

	// The service appends, so its list is oldest first.
	out := make([]assessment.Record, len(payload.History))
	for i, rec := range payload.History {
		out[len(out)-1-i] = rec
	}
	return out, nil
}

func (c *Client) ClearHistory(ctx context.Context) error {
	_, err := c.post(ctx, "/clear_history")
	return err
}

// HealthCheck reports an error unless the service answers "healthy".
func (c *Client) HealthCheck(ctx context.Context) error {
	body, err := c.get(ctx, "/health_check")
	if err != nil {
		return err
	}
	if status := gjson.GetBytes(body, "status").String(); status != "healthy" {
		return fmt.Errorf("backend status %q", status)
	}
	return nil
}

// GenerateReport asks the service for its structured report of the latest
// prediction in its session.
func (c *Client) GenerateReport(ctx context.Context) (json.RawMessage, error) {
	return c.post(ctx, "/generate_report")
}

// ExportReport returns the service's downloadable report payload
// ({report, filename}).
func (c *Client) ExportReport(ctx context.Context) (json.RawMessage, error) {
	return c.post(ctx, "/export_report")
}

func (c *Client) get(ctx context.Context, path string) (json.RawMessage, error) {
	return c.do(ctx, resty.MethodGet, path)
}

func (c *Client) post(ctx context.Context, path string) (json.RawMessage, error) {
	return c.do(ctx, resty.MethodPost, path)
}

func (c *Client) do(ctx context.Context, method, path string) (json.RawMessage, error) {
	resp, err := c.http.R().SetContext(ctx).Execute(method, path)
	if err != nil {
		c.logger.Error("backend request failed", zap.String("path", path), zap.Error(err))
		return nil, assessment.NewBackendError(err)
	}

	body := resp.Body()
	if err := payloadError(resp.StatusCode(), body); err != nil {
		c.logger.Warn("backend returned error",
			zap.String("path", path),
			zap.Int("status_code", resp.StatusCode()),
			zap.Error(err),
		)
		return nil, err
	}
	c.logger.Debug("backend request completed", zap.String("path", path), zap.Int("bytes", len(body)))
	return json.RawMessage(body), nil
}

// payloadError inspects an opaque payload for the service's failure markers.
func payloadError(status int, body []byte) error {
	if !gjson.ValidBytes(body) {
		return assessment.NewBackendError(fmt.Errorf("status %d: response is not json", status))
	}
	parsed := gjson.ParseBytes(body)
	msg := parsed.Get("error").String()
	if success := parsed.Get("success"); success.Exists() && !success.Bool() {
		if msg == "" {
			msg = "request failed"
		}
		return &assessment.BackendError{Message: msg}
	}
	if status >= 400 {
		if msg == "" {
			msg = fmt.Sprintf("status %d", status)
		}
		return assessment.NewBackendError(errors.New(msg))
	}
	return nil
}
