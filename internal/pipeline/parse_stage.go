package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/docsift/docsift/internal/llm"
	"github.com/docsift/docsift/internal/ocr"
	"github.com/docsift/docsift/internal/tables"
)

type ParseStage struct {
	Logger    *slog.Logger
	Extractor llm.PageExtractor
}

func NewParseStage(extractor llm.PageExtractor, logger *slog.Logger) *ParseStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParseStage{Logger: logger, Extractor: extractor}
}

// Run sends each page's text to the LLM in order and accumulates the three
// output tables. Policy is log-and-continue: a page whose extraction fails
// still gets its placeholder summary row, and the run never aborts here.
func (s *ParseStage) Run(ctx context.Context, pages []ocr.PageText, filenameHint string) (*tables.Tables, []string) {
	t := tables.New()
	var warns []string

	for _, page := range pages {
		if page.Warning != "" || page.Text == "" {
			// nothing to send: the OCR stage already failed this page
			s.Logger.Warn("pipeline.parse.page_skipped", "page", page.PageIndex, "reason", page.Warning)
			t.AppendFailure(page.PageIndex)
			warns = append(warns, fmt.Sprintf("page %d: skipped (no text)", page.PageIndex))
			continue
		}

		px, _, err := s.Extractor.ExtractPage(ctx, llm.ExtractRequest{
			PageText:       page.Text,
			PageIndex:      page.PageIndex,
			FilenameHint:   filenameHint,
			PrepConfidence: page.Confidence,
		})
		if err != nil {
			s.Logger.Error("pipeline.parse.page_failed", "page", page.PageIndex, "error", err)
			t.AppendFailure(page.PageIndex)
			warns = append(warns, fmt.Sprintf("page %d: %v", page.PageIndex, err))
			continue
		}
		t.AppendPage(page.PageIndex, px)
	}

	s.Logger.Info("pipeline.parse.ok",
		"pages", len(pages),
		"documents", len(t.Documents),
		"line_items", len(t.LineItems),
		"payments", len(t.Payments),
		"warnings", len(warns),
	)
	return t, warns
}
