package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Skufu/glucocheck/internal/api"
	"github.com/Skufu/glucocheck/internal/backend"
	"github.com/Skufu/glucocheck/internal/config"
	"github.com/Skufu/glucocheck/internal/store"
)

func testConfig(t *testing.T, backendURL string) *config.Config {
	t.Helper()
	t.Setenv("HISTORY_DRIVER", "memory")
	t.Setenv("BACKEND_URL", backendURL)
	t.Setenv("BACKEND_TIMEOUT", "2s")
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected config error: %v", err)
	}
	return cfg
}

func TestNewHTTPServerTimeouts(t *testing.T) {
	cfg := testConfig(t, "http://localhost:5000")
	server := newHTTPServer(cfg, http.NotFoundHandler())

	if server.Addr != ":8080" {
		t.Fatalf("expected default port 8080, got %s", server.Addr)
	}
	if server.WriteTimeout != 17*time.Second {
		t.Fatalf("expected write timeout to cover the backend, got %s", server.WriteTimeout)
	}
	if server.ReadHeaderTimeout != 5*time.Second {
		t.Fatalf("unexpected read header timeout %s", server.ReadHeaderTimeout)
	}
}

func TestServerWiring(t *testing.T) {
	gin.SetMode(gin.TestMode)
	predictor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/health_check":
			_, _ = w.Write([]byte(`{"status":"healthy"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer predictor.Close()

	cfg := testConfig(t, predictor.URL)
	st, err := store.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	bk := backend.New(cfg.BackendURL, cfg.BackendTimeout, nil)
	server := newHTTPServer(cfg, api.NewServer(st, bk, nil).Router())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/readyz", nil)
	server.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"backend":"ok"`) {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}
