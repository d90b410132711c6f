// Package api is the HTTP surface the browser talks to.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Skufu/glucocheck/internal/assessment"
	"github.com/Skufu/glucocheck/internal/logger"
	"github.com/Skufu/glucocheck/internal/store"
	"github.com/Skufu/glucocheck/internal/vitals"
)

// Backend is the prediction service as the handlers use it.
type Backend interface {
	Predict(ctx context.Context, in vitals.Inputs) (assessment.PredictionResponse, error)
	HealthCheck(ctx context.Context) error
	Dataset(ctx context.Context, name string) (json.RawMessage, error)
	Overview(ctx context.Context) (map[string]json.RawMessage, error)
}

const (
	sessionCookie = "glucocheck_session"
	sessionHeader = "X-Session-ID"
	ownerKey      = "owner"
	maxBodyBytes  = 1 << 20
)

type Server struct {
	store   store.Store
	backend Backend
	log     *zap.Logger
	now     func() time.Time
}

func NewServer(st store.Store, backend Backend, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{store: st, backend: backend, log: log, now: time.Now}
}

// Router wires every route and middleware.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(
		logger.GinMiddleware(s.log),
		gin.Recovery(),
		limitBodySize(maxBodyBytes),
		cors.New(cors.Config{
			AllowOrigins:  []string{"*"},
			AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", sessionHeader},
			ExposeHeaders: []string{sessionHeader, "Content-Disposition"},
			MaxAge:        12 * time.Hour,
		}),
	)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/readyz", s.ready)

	api := router.Group("/api", sessionOwner())
	{
		api.GET("/fields", s.fields)
		api.GET("/annotate", s.annotate)
		api.POST("/annotate", s.annotateBatch)
		api.POST("/assess", s.assess)

		api.GET("/history", s.history)
		api.DELETE("/history", s.clearHistory)
		api.POST("/history/clear", s.clearHistory)
		api.GET("/history/stats", s.historyStats)
		api.GET("/history/export", s.exportHistory)

		api.GET("/report", s.report)
		api.GET("/report/export", s.exportReport)
		api.GET("/report/html", s.reportHTML)

		api.GET("/dataset/overview", s.datasetOverview)
		api.GET("/dataset/:name", s.dataset)

		api.GET("/ui", s.uiState)
		api.POST("/ui/actions", s.uiAction)

		api.POST("/bmi", s.bmi)
		api.GET("/quick-check/:field", s.quickCheck)
	}
	return router
}

func (s *Server) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := gin.H{"status": "ok", "store": "ok", "backend": "ok"}
	if err := s.store.Ping(ctx); err != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
		body["store"] = fmt.Sprintf("unhealthy: %v", err)
	}
	if err := s.backend.HealthCheck(ctx); err != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
		body["backend"] = fmt.Sprintf("unhealthy: %v", err)
	}
	c.JSON(status, body)
}

func limitBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// sessionOwner scopes history and preferences to a session id taken from
// the X-Session-ID header or the session cookie, minting one when neither
// holds a valid UUID.
func sessionOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(sessionHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = ""
		}
		if id == "" {
			if v, err := c.Cookie(sessionCookie); err == nil {
				if _, err := uuid.Parse(v); err == nil {
					id = v
				}
			}
		}
		if id == "" {
			id = uuid.NewString()
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(sessionCookie, id, int((30 * 24 * time.Hour).Seconds()), "/", "", false, true)
		c.Header(sessionHeader, id)
		c.Set(ownerKey, id)
		c.Next()
	}
}

func owner(c *gin.Context) string {
	return c.GetString(ownerKey)
}

// internalError logs err and answers with a generic 500.
func (s *Server) internalError(c *gin.Context, msg string, err error) {
	_ = c.Error(err)
	s.log.Error(msg, zap.Error(err), zap.String("owner", owner(c)))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": msg})
}
