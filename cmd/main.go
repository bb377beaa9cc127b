package main

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"raffle/internal/config"
	"raffle/internal/handlers"
	"raffle/internal/history"
	"raffle/internal/services"

	"github.com/google/logger"
)

//go:embed all:templates
var templateFS embed.FS

//go:embed all:assets
var assetsFS embed.FS

func main() {
	defer logger.Init("raffle", true, false, io.Discard).Close()

	// 1. Load configuration (.env, optional YAML file, RAFFLE_* env).
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// 2. Open the history database.
	store, err := history.Open(cfg.DBPath)
	if err != nil {
		logger.Fatalf("Failed to open history store: %v", err)
	}
	defer store.Close()

	// 3. Initialize the Lottery Service, one raffle session per tenant.
	lotteryService := services.NewLotteryService(func(tenantID string) services.HistoryStore {
		return store.Tenant(tenantID)
	})
	defer lotteryService.Close()

	// 4. Load HTML templates from the embedded filesystem.
	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		logger.Fatalf("Failed to parse templates: %v", err)
	}

	assetsSubFS, err := fs.Sub(assetsFS, "assets")
	if err != nil {
		logger.Fatalf("Failed to create assets sub-filesystem: %v", err)
	}

	// 5. Initialize the HTTP Handler and the router.
	httpHandler := handlers.NewHTTPHandler(lotteryService, templates, handlers.Options{
		PostLength: cfg.PostLength,
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
	})
	r := handlers.SetupRouter(handlers.RouterConfig{
		Mode:          cfg.Mode,
		SessionSecret: cfg.SessionSecret,
		Assets:        assetsSubFS,
	}, httpHandler)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. Start the background janitor to clean up inactive sessions.
	go func() {
		ticker := time.NewTicker(cfg.JanitorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n := lotteryService.CleanUpInactiveSessions(cfg.SessionIdle)
				logger.Infof("Performed cleanup of inactive sessions: %d removed, %d live", n, lotteryService.Len())
			}
		}
	}()

	// 7. Run the server until interrupted.
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Infof("Server starting on http://localhost%s", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to run server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown: %v", err)
	}
}
