package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/docsift/docsift/internal/blob"
	"github.com/docsift/docsift/internal/common"
	"github.com/docsift/docsift/internal/export"
	"github.com/docsift/docsift/internal/llm/openai"
	"github.com/docsift/docsift/internal/ocr"
	"github.com/docsift/docsift/internal/pipeline"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", "error", err)
	}

	if len(os.Args) < 2 || len(os.Args) > 3 {
		logger.Error("usage", "cmd", "runpipeline <pdf-path-or-azblob-url> [outdir]")
		os.Exit(2)
	}
	source := os.Args[1]
	outDir := "./out"
	if len(os.Args) == 3 {
		outDir = os.Args[2]
	}

	cfg := common.LoadConfig()
	if cfg.LLM.APIKey == "" {
		logger.Error("OPENAI_API_KEY env var is required")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

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

	processor := pipeline.NewProcessor(
		pipeline.NewOCRStage(resolver, extractor, logger),
		pipeline.NewParseStage(llmClient, logger),
		logger,
	)

	start := time.Now()
	res, err := processor.ProcessDocument(ctx, source)
	if err != nil {
		logger.Error("pipeline failed",
			"source", source, "error", err, "duration_ms", time.Since(start).Milliseconds())
		os.Exit(1)
	}

	if err := export.NewService(logger).WriteDir(res.Tables, outDir); err != nil {
		logger.Error("export failed", "outdir", outDir, "error", err)
		os.Exit(1)
	}

	logger.Info("pipeline OK",
		"run_id", res.RunID.String(),
		"status", string(res.Status),
		"pages", res.Pages,
		"documents", len(res.Tables.Documents),
		"line_items", len(res.Tables.LineItems),
		"payments", len(res.Tables.Payments),
		"warnings", len(res.Warnings),
		"outdir", outDir,
		"duration_ms", res.Duration.Milliseconds(),
	)
}
