package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/offerdesk/backend/internal/application/generation"
	"github.com/offerdesk/backend/internal/infrastructure/config"
	"github.com/offerdesk/backend/internal/infrastructure/logger"
	infraprinting "github.com/offerdesk/backend/internal/infrastructure/printing"
	"github.com/offerdesk/backend/internal/infrastructure/storage"
	"github.com/offerdesk/backend/internal/interfaces/http/handler"
	"github.com/offerdesk/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting offer PDF service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port))

	// Template pipeline
	templates, err := infraprinting.NewTemplateStore(&infraprinting.TemplateStoreConfig{
		ExternalDir: cfg.Templates.ExternalDir,
	})
	if err != nil {
		log.Fatal("Failed to load templates", zap.Error(err))
	}
	tmplEngine := infraprinting.NewTemplateEngine()
	assembler := infraprinting.NewAssembler(cfg.Templates.AssetRoot)

	// Browser renderer, one scoped browser per generation run
	renderer := infraprinting.NewChromedpRenderer(&infraprinting.ChromedpConfig{
		DefaultTimeout:  cfg.PDF.RenderTimeout,
		RemoteURL:       cfg.PDF.ChromeRemoteURL,
		NoSandbox:       cfg.PDF.NoSandbox,
		AllowFileAccess: true,
		Logger:          log,
	})

	artifacts := infraprinting.NewArtifactStore(cfg.Output.HTMLDir, cfg.Output.PDFDir, log)

	// Optional blob publication
	var publisher storage.Publisher
	if cfg.Storage.Enabled {
		s3Publisher, err := storage.NewS3Publisher(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize storage publisher", zap.Error(err))
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := s3Publisher.EnsureBucket(ctx); err != nil {
			cancel()
			log.Fatal("Failed to ensure storage bucket", zap.Error(err))
		}
		cancel()
		publisher = s3Publisher
		log.Info("Blob publication enabled", zap.String("bucket", s3Publisher.GetBucket()))
	}

	service := generation.NewService(templates, tmplEngine, assembler, renderer, artifacts, publisher, cfg, log)

	// Retention sweep for old PDFs
	if cfg.Output.RetentionDays > 0 {
		age := time.Duration(cfg.Output.RetentionDays) * 24 * time.Hour
		go func() {
			ticker := time.NewTicker(12 * time.Hour)
			defer ticker.Stop()
			for range ticker.C {
				if _, err := artifacts.CleanupOlderThan(age); err != nil {
					log.Warn("Retention sweep failed", zap.Error(err))
				}
			}
		}()
	}

	engine := router.New(cfg, log, router.Handlers{
		Offer:  handler.NewOfferHandler(service),
		System: handler.NewSystemHandler(cfg.App.Name, cfg.App.Env),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}
