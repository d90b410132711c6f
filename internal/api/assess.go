package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Skufu/glucocheck/internal/assessment"
	"github.com/Skufu/glucocheck/internal/ui"
	"github.com/Skufu/glucocheck/internal/vitals"
)

func (s *Server) fields(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"fields": vitals.Fields(), "total_steps": vitals.TotalSteps})
}

func (s *Server) annotate(c *gin.Context) {
	field := c.Query("field")
	if field == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "field is required"})
		return
	}
	c.JSON(http.StatusOK, vitals.Annotate(field, c.Query("value")))
}

func (s *Server) annotateBatch(c *gin.Context) {
	raw, err := bindRaw(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	out := make(map[string]vitals.Annotation, len(raw))
	for field, value := range raw {
		a := vitals.Annotate(field, value)
		out[a.Field] = a
	}
	c.JSON(http.StatusOK, gin.H{"annotations": out, "valid": vitals.Valid(raw)})
}

// assess validates a full submission, asks the backend for a prediction and
// records it in the caller's history.
func (s *Server) assess(c *gin.Context) {
	raw, err := bindRaw(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	inputs, err := vitals.ValidateAll(raw)
	var verr *vitals.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "validation_failed",
			"message": verr.Error(),
			"fields":  verr.Issues,
		})
		return
	}
	if err != nil {
		s.internalError(c, "validate inputs", err)
		return
	}

	ctx := c.Request.Context()
	resp, err := s.backend.Predict(ctx, inputs)
	if err == nil {
		var rec assessment.Record
		rec, err = assessment.ToRecord(inputs, resp, s.now())
		if err == nil {
			s.recordAssessment(c, rec)
			return
		}
	}

	var be *assessment.BackendError
	if !errors.As(err, &be) {
		s.internalError(c, "build record", err)
		return
	}
	s.log.Warn("assessment failed", zap.String("owner", owner(c)), zap.Error(err))
	s.updateUI(c, ui.Action{Type: ui.ActionShowError, Message: be.Message})
	c.JSON(http.StatusBadGateway, gin.H{"error": "backend_error", "message": be.Message})
}

func (s *Server) recordAssessment(c *gin.Context, rec assessment.Record) {
	history, err := s.store.Append(c.Request.Context(), owner(c), rec)
	if err != nil {
		s.internalError(c, "save assessment", err)
		return
	}
	s.updateUI(c, ui.Action{Type: ui.ActionShowResult, Record: &rec})
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"record":       rec,
		"result":       ui.RenderRecord(rec),
		"history_size": len(history),
	})
}

// bindRaw reads a submission as raw strings from either a JSON object
// (numbers or strings) or a form body.
func bindRaw(c *gin.Context) (map[string]string, error) {
	if c.ContentType() == gin.MIMEJSON {
		var body map[string]json.RawMessage
		if err := c.ShouldBindJSON(&body); err != nil {
			return nil, err
		}
		raw := make(map[string]string, len(body))
		for k, v := range body {
			var s string
			if err := json.Unmarshal(v, &s); err == nil {
				raw[k] = s
				continue
			}
			text := strings.TrimSpace(string(v))
			if text == "null" {
				continue
			}
			if !json.Valid(v) || strings.HasPrefix(text, "{") || strings.HasPrefix(text, "[") {
				return nil, fmt.Errorf("field %s: expected number or string", k)
			}
			raw[k] = text
		}
		return raw, nil
	}
	if err := c.Request.ParseForm(); err != nil {
		return nil, err
	}
	return vitals.RawFromForm(c.Request.PostForm), nil
}
