package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/docsift/docsift/constants"
	"github.com/docsift/docsift/internal/common"
	"github.com/docsift/docsift/internal/llm"
	"github.com/docsift/docsift/internal/ocr"
)

type passthroughResolver struct{}

func (passthroughResolver) Resolve(_ context.Context, source string) (string, func(), error) {
	return source, func() {}, nil
}

type stubTextExtractor struct {
	pages []ocr.PageText
	sum   ocr.Summary
	err   error
}

func (s stubTextExtractor) Extract(context.Context, string) ([]ocr.PageText, ocr.Summary, error) {
	return s.pages, s.sum, s.err
}

type stubPageExtractor struct {
	failOn map[int]bool
	calls  int
}

func (s *stubPageExtractor) ExtractPage(_ context.Context, req llm.ExtractRequest) (llm.PageExtraction, []byte, error) {
	s.calls++
	if s.failOn[req.PageIndex] {
		return llm.PageExtraction{}, nil, errors.New("endpoint error")
	}
	return llm.PageExtraction{
		DocType:   "invoice",
		Invoice:   &llm.InvoiceFields{Amount: fmt.Sprintf("%d.00", req.PageIndex)},
		LineItems: []llm.LineItem{{Description: "item", Amount: "1.00"}},
	}, []byte(`{}`), nil
}

func newTestProcessor(text stubTextExtractor, page *stubPageExtractor) *Processor {
	return NewProcessor(
		NewOCRStage(passthroughResolver{}, text, nil),
		NewParseStage(page, nil),
		nil,
	)
}

func pagesOfText(texts ...string) ([]ocr.PageText, ocr.Summary) {
	pages := make([]ocr.PageText, len(texts))
	for i, txt := range texts {
		pages[i] = ocr.PageText{PageIndex: i + 1, Text: txt, Confidence: 0.9}
	}
	return pages, ocr.Summary{Pages: len(pages), Method: "pdf-ocr", Confidence: 0.9}
}

func TestProcessDocumentOneSummaryRowPerPage(t *testing.T) {
	pages, sum := pagesOfText("a", "b", "c")
	px := &stubPageExtractor{}
	p := newTestProcessor(stubTextExtractor{pages: pages, sum: sum}, px)

	res, err := p.ProcessDocument(context.Background(), "doc.pdf")
	if err != nil {
		t.Fatalf("ProcessDocument: %v", err)
	}
	if res.Pages != 3 || len(res.Tables.Documents) != 3 {
		t.Fatalf("expected 3 summary rows for 3 pages, got %d/%d", res.Pages, len(res.Tables.Documents))
	}
	if px.calls != 3 {
		t.Fatalf("extractor called %d times", px.calls)
	}
	if res.Status != constants.RunStatusLLMOK {
		t.Fatalf("status = %s", res.Status)
	}
	if len(res.Tables.LineItems) != 3 {
		t.Fatalf("line items: %d", len(res.Tables.LineItems))
	}
}

func TestProcessDocumentPageFailureLogsAndContinues(t *testing.T) {
	pages, sum := pagesOfText("a", "b", "c")
	px := &stubPageExtractor{failOn: map[int]bool{2: true}}
	p := newTestProcessor(stubTextExtractor{pages: pages, sum: sum}, px)

	res, err := p.ProcessDocument(context.Background(), "doc.pdf")
	if err != nil {
		t.Fatalf("ProcessDocument: %v", err)
	}
	if len(res.Tables.Documents) != 3 {
		t.Fatalf("failed page lost its summary row: %d", len(res.Tables.Documents))
	}
	if res.Tables.Documents[1].DocType != constants.OtherDoc {
		t.Fatalf("placeholder doc type = %q", res.Tables.Documents[1].DocType)
	}
	if res.Status != constants.RunStatusPartial {
		t.Fatalf("status = %s", res.Status)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("warnings: %v", res.Warnings)
	}
}

func TestProcessDocumentSkipsEmptyOCRPages(t *testing.T) {
	pages := []ocr.PageText{
		{PageIndex: 1, Text: "ok", Confidence: 0.9},
		{PageIndex: 2, Warning: "engine error"},
	}
	sum := ocr.Summary{Pages: 2, Warnings: []string{"page 2: engine error"}}
	px := &stubPageExtractor{}
	p := newTestProcessor(stubTextExtractor{pages: pages, sum: sum}, px)

	res, err := p.ProcessDocument(context.Background(), "doc.pdf")
	if err != nil {
		t.Fatalf("ProcessDocument: %v", err)
	}
	if px.calls != 1 {
		t.Fatalf("LLM should not see failed pages, called %d times", px.calls)
	}
	if len(res.Tables.Documents) != 2 {
		t.Fatalf("summary rows: %d", len(res.Tables.Documents))
	}
}

func TestProcessDocumentOCRFailure(t *testing.T) {
	p := newTestProcessor(stubTextExtractor{err: errors.New("no pages rendered")}, &stubPageExtractor{})

	res, err := p.ProcessDocument(context.Background(), "bad.pdf")
	if err == nil {
		t.Fatalf("expected document-level error")
	}
	if res == nil || res.Status != constants.RunStatusFailed {
		t.Fatalf("result = %+v", res)
	}
}

type failingResolver struct {
	err error
}

func (r failingResolver) Resolve(context.Context, string) (string, func(), error) {
	return "", func() {}, r.err
}

func TestProcessDocumentResolverFailure(t *testing.T) {
	notFound := common.NewAppError("SOURCE_NOT_FOUND", "/data/absent.pdf", common.ErrNotFound)
	p := NewProcessor(
		NewOCRStage(failingResolver{err: notFound}, stubTextExtractor{}, nil),
		NewParseStage(&stubPageExtractor{}, nil),
		nil,
	)
	_, err := p.ProcessDocument(context.Background(), "/data/absent.pdf")
	if err == nil {
		t.Fatalf("expected resolver error to surface")
	}
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("sentinel lost through the stage wrap: %v", err)
	}
}

func TestProcessDocumentLogsStatusProgression(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	pages, sum := pagesOfText("a")
	p := NewProcessor(
		NewOCRStage(passthroughResolver{}, stubTextExtractor{pages: pages, sum: sum}, logger),
		NewParseStage(&stubPageExtractor{}, logger),
		logger,
	)
	if _, err := p.ProcessDocument(context.Background(), "doc.pdf"); err != nil {
		t.Fatalf("ProcessDocument: %v", err)
	}

	logs := buf.String()
	for _, status := range []constants.RunStatus{constants.RunStatusRunning, constants.RunStatusOCROK, constants.RunStatusLLMOK} {
		if !strings.Contains(logs, string(status)) {
			t.Fatalf("status %s missing from run logs:\n%s", status, logs)
		}
	}
}
