package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/siterisk/backend/internal/config"
	"github.com/siterisk/backend/internal/handler"
	"github.com/siterisk/backend/internal/logging"
	"github.com/siterisk/backend/internal/metrics"
	"github.com/siterisk/backend/internal/repository"
	"github.com/siterisk/backend/internal/service"
	"github.com/siterisk/backend/pkg/auth"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel)

	pool, err := repository.NewPool(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		logging.Fatal("failed to connect to database", "error", err)
	}
	defer pool.Close()

	snapshotRepo := repository.NewPgSnapshotRepository(pool, cfg.InjuryWindowDays)
	thresholdStore := repository.NewPgThresholdStore(pool)
	settingsService := service.NewRiskSettingsService(thresholdStore)
	riskService := service.NewRiskService(snapshotRepo, settingsService, service.RiskServiceConfig{
		Concurrency: cfg.PortfolioConcurrency,
	})

	h := handler.New(pool, cfg.FrontendURL)
	riskHandler := handler.NewRiskHandler(riskService)
	settingsHandler := handler.NewRiskSettingsHandler(settingsService)

	if !cfg.AuthRequired {
		slog.Warn("AUTH_REQUIRED is false; every request runs as the development owner", "owner_id", auth.DevOwnerID)
	}
	wrapAuth := auth.Middleware(cfg.AuthRequired, auth.SessionSecretBytes(cfg.SessionSecret))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	writeLimiter := handler.NewRateLimiter(ctx, cfg.SettingsRateLimit)
	wrapWrite := func(next http.HandlerFunc) http.Handler {
		return wrapAuth(writeLimiter.Middleware(next))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", h.Health)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /api/risk/presets", settingsHandler.Presets)

	// リスク評価 API（認証必須）
	mux.Handle("GET /api/me/portfolio/risk", wrapAuth(http.HandlerFunc(riskHandler.Portfolio)))
	mux.Handle("GET /api/projects/{id}/risk", wrapAuth(http.HandlerFunc(riskHandler.Project)))

	// 閾値・重み設定 API（認証必須）
	mux.Handle("GET /api/me/risk-settings", wrapAuth(http.HandlerFunc(settingsHandler.Get)))
	mux.Handle("PUT /api/me/risk-settings", wrapWrite(settingsHandler.Save))
	mux.Handle("PUT /api/me/risk-settings/preset", wrapWrite(settingsHandler.ApplyPreset))

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handler.RequestLogger(handler.SecurityHeaders(h.CORS(mux))),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
