package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Skufu/glucocheck/internal/assessment"
	"github.com/Skufu/glucocheck/internal/backend"
	"github.com/Skufu/glucocheck/internal/report"
	"github.com/Skufu/glucocheck/internal/ui"
)

const (
	mimeCSV  = "text/csv; charset=utf-8"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func (s *Server) loadHistory(c *gin.Context) ([]assessment.Record, bool) {
	history, err := s.store.List(c.Request.Context(), owner(c))
	if err != nil {
		s.internalError(c, "load history", err)
		return nil, false
	}
	return history, true
}

func (s *Server) history(c *gin.Context) {
	history, ok := s.loadHistory(c)
	if !ok {
		return
	}
	view := ui.RenderHistory(history, nil)
	c.JSON(http.StatusOK, gin.H{"history": history, "stats": view.Stats, "items": view.Items})
}

func (s *Server) clearHistory(c *gin.Context) {
	if err := s.store.Clear(c.Request.Context(), owner(c)); err != nil {
		s.internalError(c, "clear history", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) historyStats(c *gin.Context) {
	history, ok := s.loadHistory(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, assessment.Summarize(history))
}

func (s *Server) exportHistory(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "csv"))
	if format != "csv" && format != "xlsx" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or xlsx"})
		return
	}
	history, ok := s.loadHistory(c)
	if !ok {
		return
	}

	now := s.now()
	var buf bytes.Buffer
	var err error
	filename, mime := report.CSVFilename(now), mimeCSV
	if format == "xlsx" {
		filename, mime = report.XLSXFilename(now), mimeXLSX
		err = report.WriteXLSX(&buf, history, nil)
	} else {
		err = report.WriteCSV(&buf, history, nil)
	}
	if err != nil {
		s.internalError(c, "export history", err)
		return
	}
	attachment(c, filename)
	c.Data(http.StatusOK, mime, buf.Bytes())
}

func (s *Server) report(c *gin.Context) {
	history, ok := s.loadHistory(c)
	if !ok {
		return
	}
	if len(history) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "No prediction history available"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"report":    report.Generate(history[0]),
		"timestamp": s.now().UTC(),
	})
}

func (s *Server) exportReport(c *gin.Context) {
	history, ok := s.loadHistory(c)
	if !ok {
		return
	}
	if len(history) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "No data to export"})
		return
	}
	now := s.now()
	attachment(c, report.TextFilename(now))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(report.Text(history, now)))
}

func (s *Server) reportHTML(c *gin.Context) {
	history, ok := s.loadHistory(c)
	if !ok {
		return
	}
	page, err := report.HTML(history, s.now())
	if err != nil {
		s.internalError(c, "render report", err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

func (s *Server) dataset(c *gin.Context) {
	payload, err := s.backend.Dataset(c.Request.Context(), c.Param("name"))
	if err != nil {
		s.backendFailure(c, err)
		return
	}
	c.Data(http.StatusOK, gin.MIMEJSON, payload)
}

func (s *Server) datasetOverview(c *gin.Context) {
	out, err := s.backend.Overview(c.Request.Context())
	if err != nil {
		s.backendFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) backendFailure(c *gin.Context, err error) {
	var unknown *backend.UnknownDatasetError
	if errors.As(err, &unknown) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": unknown.Error()})
		return
	}
	var be *assessment.BackendError
	if errors.As(err, &be) {
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "backend_error", "message": be.Message})
		return
	}
	s.internalError(c, "backend request", err)
}

func attachment(c *gin.Context, filename string) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
}
