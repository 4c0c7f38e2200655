package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/docsift/docsift/internal/blob"
	"github.com/docsift/docsift/internal/common"
	"github.com/docsift/docsift/internal/export"
	"github.com/docsift/docsift/internal/llm/openai"
	"github.com/docsift/docsift/internal/ocr"
	"github.com/docsift/docsift/internal/pipeline"
	"github.com/docsift/docsift/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", "error", err)
	}

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Wire OCR + LLM stages
	resolver := blob.NewResolver(cfg.Blob, logger)
	extractor := ocr.NewExtractor(ocr.Config{
		Pdftoppm:    cfg.OCR.Pdftoppm,
		DPI:         cfg.OCR.DPI,
		Language:    cfg.OCR.Language,
		PSM:         cfg.OCR.PSM,
		MaxPages:    cfg.OCR.MaxPages,
		TessdataDir: cfg.OCR.TessdataDir,
		Preprocess:  cfg.OCR.Preprocess,
		ScratchDir:  cfg.OCR.ScratchDir,
		PageTimeout: cfg.OCR.PageTimeout,
	}, logger)

	llmClient := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
		Lenient:     true,
	}, logger)

	ocrStage := pipeline.NewOCRStage(resolver, extractor, logger)
	parseStage := pipeline.NewParseStage(llmClient, logger)
	processor := pipeline.NewProcessor(ocrStage, parseStage, logger)
	exporter := export.NewService(logger)

	srv := server.New(processor, exporter, cfg.Server, logger)
	httpServer := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: srv.Router(),
	}

	go func() {
		logger.Info("http serving", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	logger.Info("stopped")
}
