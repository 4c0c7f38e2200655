package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/docsift/docsift/constants"
	"github.com/docsift/docsift/internal/common"
	"github.com/docsift/docsift/internal/tables"
)

// Result is the outcome of one document run.
type Result struct {
	RunID         uuid.UUID           `json:"run_id"`
	Source        string              `json:"source"`
	Status        constants.RunStatus `json:"status"`
	Pages         int                 `json:"pages"`
	OCRConfidence float32             `json:"ocr_confidence"`
	Tables        *tables.Tables      `json:"tables"`
	Warnings      []string            `json:"warnings,omitempty"`
	Duration      time.Duration       `json:"-"`
}

// Processor coordinates OCR (page text) then LLM parse (fields) for one
// document, sequentially, one page at a time.
type Processor struct {
	Logger *slog.Logger
	OCR    *OCRStage
	Parse  *ParseStage
}

func NewProcessor(ocr *OCRStage, parse *ParseStage, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, OCR: ocr, Parse: parse}
}

// ProcessDocument runs the whole pipeline for one source and returns the
// accumulated tables. Only document-level failures surface as errors.
func (p *Processor) ProcessDocument(ctx context.Context, source string) (*Result, error) {
	runID := uuid.New()
	ctx = common.WithRunID(ctx, runID.String())
	start := time.Now()

	p.Logger.Info("pipeline.run.start",
		"run_id", runID,
		"req_id", common.RequestIDFromContext(ctx),
		"source", source,
		"status", string(constants.RunStatusRunning),
	)

	pages, sum, err := p.OCR.Run(ctx, source)
	if err != nil {
		p.Logger.Error("pipeline.run.failed", "run_id", runID, "stage", "ocr", "error", err)
		return &Result{
			RunID:    runID,
			Source:   source,
			Status:   constants.RunStatusFailed,
			Warnings: sum.Warnings,
			Duration: time.Since(start),
		}, err
	}

	p.Logger.Debug("pipeline.run.stage",
		"run_id", runID,
		"status", string(constants.RunStatusOCROK),
		"pages", sum.Pages,
	)

	t, parseWarns := p.Parse.Run(ctx, pages, filepath.Base(source))

	res := &Result{
		RunID:         runID,
		Source:        source,
		Status:        constants.RunStatusLLMOK,
		Pages:         sum.Pages,
		OCRConfidence: sum.Confidence,
		Tables:        t,
		Warnings:      append(sum.Warnings, parseWarns...),
		Duration:      time.Since(start),
	}
	if len(res.Warnings) > 0 {
		res.Status = constants.RunStatusPartial
	}

	p.Logger.Info("pipeline.run.ok",
		"run_id", runID,
		"source", source,
		"status", string(res.Status),
		"pages", res.Pages,
		"documents", len(t.Documents),
		"line_items", len(t.LineItems),
		"payments", len(t.Payments),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}
