package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Skufu/glucocheck/internal/api"
	"github.com/Skufu/glucocheck/internal/backend"
	"github.com/Skufu/glucocheck/internal/config"
	"github.com/Skufu/glucocheck/internal/logger"
	"github.com/Skufu/glucocheck/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	logg, err := logger.New(cfg.LogLevel, cfg.LogFormat, "glucocheck-server")
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = logg.Sync() }()

	ctx := context.Background()
	st, err := store.Open(ctx, cfg)
	if err != nil {
		logg.Fatal("history store unavailable", zap.String("driver", cfg.HistoryDriver), zap.Error(err))
	}
	defer st.Close()

	bk := backend.New(cfg.BackendURL, cfg.BackendTimeout, logg)
	server := newHTTPServer(cfg, api.NewServer(st, bk, logg).Router())

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("server error", zap.Error(err))
		}
	}()

	logg.Info("server listening",
		zap.String("port", cfg.Port),
		zap.String("backend", cfg.BackendURL),
		zap.String("history_driver", cfg.HistoryDriver),
	)
	waitForShutdown(server, logg)
}

func newHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	// Predictions can take up to the backend timeout, so writes get that on top.
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15*time.Second + cfg.BackendTimeout,
		IdleTimeout:       60 * time.Second,
	}
}

func waitForShutdown(server *http.Server, logg *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logg.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logg.Error("graceful shutdown failed", zap.Error(err))
	}
}
