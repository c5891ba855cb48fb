package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"chibichitra/internal/infra"
	"chibichitra/internal/ledger"
	"chibichitra/internal/providers/mail"
	"chibichitra/internal/providers/mesh"
	"chibichitra/internal/queue"
	"chibichitra/internal/storage"
)

func main() {
	once := flag.Bool("once", false, "run a single processing pass and exit")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	files, err := storage.NewFileStore(cfg.DataDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure storage")
	}

	store, err := ledger.NewStore(cfg.LedgerPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to open ledger")
	}

	builder, err := mesh.NewClient(mesh.Options{
		BaseURL:      cfg.MeshAPIURL,
		ProcessedDir: files.Dir(storage.DirProcessed),
		MeshDir:      files.Dir(storage.DirMeshes),
		Logger:       logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure mesh client")
	}

	var mailer queue.ResultMailer
	sender, err := mail.NewSender(mail.Options{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		Logger:   logger,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("worker: mail delivery disabled")
		mailer = mail.Disabled()
	} else {
		mailer = sender
	}

	processor := queue.NewProcessor(store, builder, mailer, logger)
	logger.Info().Str("ledger", filepath.Clean(cfg.LedgerPath)).Msg("worker: started")

	if *once {
		if _, err := processor.RunOnce(ctx); err != nil {
			logger.Error().Err(err).Msg("worker: pass failed")
			os.Exit(1)
		}
		return
	}

	ticker := time.NewTicker(cfg.WorkerPollInterval)
	defer ticker.Stop()
	for {
		if _, err := processor.RunOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			logger.Error().Err(err).Msg("worker: pass failed")
		}
		select {
		case <-ctx.Done():
			logger.Info().Msg("worker: stopped")
			return
		case <-ticker.C:
		}
	}
	logger.Info().Msg("worker: stopped")
}
