package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"chibichitra/internal/http/handlers"
	"chibichitra/internal/http/httpapi"
	"chibichitra/internal/infra"
	"chibichitra/internal/ledger"
	"chibichitra/internal/providers/style"
	"chibichitra/internal/queue"
	"chibichitra/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "api")

	files, err := storage.NewFileStore(cfg.DataDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to configure storage")
	}

	store, err := ledger.NewStore(cfg.LedgerPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to open ledger")
	}

	pipeline := style.NewPipeline(style.Options{
		BaseURL: cfg.StyleAPIURL,
		Logger:  logger,
	})
	if cfg.StyleAPIURL == "" {
		logger.Warn().Msg("api: no style service configured, previews use local normalization only")
	}

	app := handlers.NewApp(logger, queue.NewRegistry(store), queue.NewView(store), files, pipeline)
	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		RateLimitPerMin: cfg.RateLimitPerMin,
	})
	server := infra.NewHTTPServer(cfg, router, logger)

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
