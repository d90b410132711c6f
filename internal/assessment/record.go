// Package assessment turns backend predictions into history records and
// derives the risk wording shown next to them.
package assessment

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Skufu/glucocheck/internal/vitals"
)

// DefaultHistorySize is how many records the local history keeps.
const DefaultHistorySize = 10

const defaultPredictionError = "An error occurred during prediction"

// PredictionResponse is the body returned by the backend's /predict endpoint.
type PredictionResponse struct {
	Success     bool    `json:"success"`
	Prediction  int     `json:"prediction"`
	Probability float64 `json:"probability"`
	Error       string  `json:"error,omitempty"`
}

// BackendError is a display-only failure of a single submission.
type BackendError struct {
	Message string
	Cause   error
}

func (e *BackendError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *BackendError) Unwrap() error {
	return e.Cause
}

// NewBackendError wraps a transport failure with the generic user message.
func NewBackendError(cause error) *BackendError {
	return &BackendError{
		Message: "An error occurred while processing your request. Please try again.",
		Cause:   cause,
	}
}

// Record is one completed assessment. Records are never modified after
// ToRecord returns them.
type Record struct {
	ID          string        `json:"id"`
	Timestamp   time.Time     `json:"timestamp"`
	Inputs      vitals.Inputs `json:"inputs"`
	Prediction  int           `json:"prediction"`
	Probability float64       `json:"probability"`
}

// Positive reports whether the model predicted diabetes.
func (r Record) Positive() bool {
	return r.Prediction == 1
}

// RiskLevel is the tiered label for this record.
func (r Record) RiskLevel() string {
	return RiskLevel(r.Probability, r.Positive())
}

// UnmarshalJSON also reads the keys used by the prediction service and by
// older browser-stored entries ("features", "date", numeric ids).
func (r *Record) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID          json.RawMessage `json:"id"`
		Timestamp   string          `json:"timestamp"`
		Date        string          `json:"date"`
		Inputs      *vitals.Inputs  `json:"inputs"`
		Features    *vitals.Inputs  `json:"features"`
		Prediction  int             `json:"prediction"`
		Probability float64         `json:"probability"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	ts := wire.Timestamp
	if ts == "" {
		ts = wire.Date
	}
	var when time.Time
	if ts != "" {
		t, err := parseTimestamp(ts)
		if err != nil {
			return fmt.Errorf("record timestamp: %w", err)
		}
		when = t
	}

	out := Record{
		ID:          decodeID(wire.ID),
		Timestamp:   when,
		Prediction:  wire.Prediction,
		Probability: wire.Probability,
	}
	switch {
	case wire.Inputs != nil:
		out.Inputs = *wire.Inputs
	case wire.Features != nil:
		out.Inputs = *wire.Features
	}
	if out.ID == "" && !when.IsZero() {
		out.ID = fmt.Sprintf("%d", when.UnixMilli())
	}
	*r = out
	return nil
}

func decodeID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// The prediction service writes naive ISO timestamps without a zone.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func parseTimestamp(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// ToRecord converts a prediction response into a history record. A
// non-success response yields a *BackendError and no record.
func ToRecord(inputs vitals.Inputs, resp PredictionResponse, now time.Time) (Record, error) {
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = defaultPredictionError
		}
		return Record{}, &BackendError{Message: msg}
	}
	if resp.Prediction != 0 && resp.Prediction != 1 {
		return Record{}, &BackendError{Message: fmt.Sprintf("unexpected prediction value %d", resp.Prediction)}
	}
	if resp.Probability < 0 || resp.Probability > 1 {
		return Record{}, &BackendError{Message: fmt.Sprintf("probability %v outside [0,1]", resp.Probability)}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return Record{}, fmt.Errorf("generate record id: %w", err)
	}
	return Record{
		ID:          id.String(),
		Timestamp:   now.UTC(),
		Inputs:      inputs,
		Prediction:  resp.Prediction,
		Probability: resp.Probability,
	}, nil
}

// AppendToHistory returns a new history with rec first, truncated to maxSize.
// The input slice is left untouched.
func AppendToHistory(history []Record, rec Record, maxSize int) []Record {
	if maxSize <= 0 {
		maxSize = DefaultHistorySize
	}
	n := len(history) + 1
	if n > maxSize {
		n = maxSize
	}
	out := make([]Record, 0, n)
	out = append(out, rec)
	for _, r := range history {
		if len(out) == n {
			break
		}
		out = append(out, r)
	}
	return out
}
