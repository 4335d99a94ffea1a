package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dealhub/dealhub/internal/api/http"
	"github.com/dealhub/dealhub/internal/app"
	"github.com/dealhub/dealhub/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := app.NewLogger(cfg.LogLevel)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("startup error: %v", err)
	}
	a.Start(ctx)

	apiServer := httpapi.NewServer(a.Engine, a.Watchdog, a.Completion, a.Store, a.Hub, cfg.AdminTokenHash, logger)

	// No WriteTimeout: account streams stay open.
	httpServer := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           apiServer.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// background loops
	go func() {
		ticker := time.NewTicker(cfg.AllowanceSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := a.Watchdog.Sweep(ctx, cfg.AllowanceSweepBatch)
				if err != nil {
					logger.Error().Err(err).Msg("allowance sweep failed")
					continue
				}
				if n > 0 {
					logger.Info().Int("cancelled", n).Msg("allowance sweep cancelled requests")
				}
			}
		}
	}()

	// start server
	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Str("store", cfg.StoreBackend).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctxShutdown)
	if err := a.Shutdown(ctxShutdown); err != nil {
		logger.Warn().Err(err).Msg("shutdown incomplete")
	}
	stop()
}
