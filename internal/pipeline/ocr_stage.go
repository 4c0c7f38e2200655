package pipeline

import (
	"context"
	"log/slog"

	"github.com/docsift/docsift/internal/common"
	"github.com/docsift/docsift/internal/ocr"
)

// TextExtractor is the OCR contract the stage depends on.
type TextExtractor interface {
	Extract(ctx context.Context, path string) ([]ocr.PageText, ocr.Summary, error)
}

// SourceResolver maps a source string (local path or blob URL) to a local file.
type SourceResolver interface {
	Resolve(ctx context.Context, source string) (path string, cleanup func(), err error)
}

type OCRStage struct {
	Resolver  SourceResolver
	Extractor TextExtractor
	Logger    *slog.Logger
}

func NewOCRStage(resolver SourceResolver, extractor TextExtractor, logger *slog.Logger) *OCRStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &OCRStage{Resolver: resolver, Extractor: extractor, Logger: logger}
}

// Run resolves the source and recognizes every page. A document-level failure
// (unreadable source, zero pages rendered) is returned as an error; per-page
// recognition failures ride along inside the page slice.
func (s *OCRStage) Run(ctx context.Context, source string) ([]ocr.PageText, ocr.Summary, error) {
	path, cleanup, err := s.Resolver.Resolve(ctx, source)
	if err != nil {
		return nil, ocr.Summary{}, common.WrapError(err, "resolve source")
	}
	defer cleanup()

	pages, sum, err := s.Extractor.Extract(ctx, path)
	if err != nil {
		s.Logger.Error("pipeline.ocr.failed", "source", source, "error", err)
		return nil, sum, err
	}

	s.Logger.Info("pipeline.ocr.ok",
		"source", source,
		"pages", sum.Pages,
		"method", sum.Method,
		"confidence", sum.Confidence,
	)
	return pages, sum, nil
}
