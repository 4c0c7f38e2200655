package ocr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/docsift/docsift/internal/common"
)

// fakeRunner pretends to be pdftoppm: it writes one PNG per configured page
// under the output prefix (the last argument).
type fakeRunner struct {
	pages int
	err   error
}

func (r fakeRunner) Run(_ context.Context, _ string, args ...string) ([]byte, []byte, error) {
	if r.err != nil {
		return nil, []byte("boom"), r.err
	}
	prefix := args[len(args)-1]
	for i := 1; i <= r.pages; i++ {
		path := fmt.Sprintf("%s-%d.png", prefix, i)
		if err := os.WriteFile(path, []byte("png"), 0o644); err != nil {
			return nil, nil, err
		}
	}
	return nil, nil, nil
}

type fakeRecognizer struct {
	texts   map[int]string // keyed by page number parsed from the file name
	failOn  map[int]bool
	invoked int
}

func (r *fakeRecognizer) Recognize(_ context.Context, imagePath string) (Recognition, error) {
	r.invoked++
	base := filepath.Base(imagePath)
	var n int
	if _, err := fmt.Sscanf(base, "page-%d.png", &n); err != nil {
		return Recognition{}, fmt.Errorf("unexpected image name %q", base)
	}
	if r.failOn[n] {
		return Recognition{}, errors.New("engine error")
	}
	return Recognition{Text: r.texts[n], Confidence: 0.9}, nil
}

func newTestExtractor(t *testing.T, runner Runner, rec Recognizer) *Extractor {
	t.Helper()
	e := NewExtractor(Config{Preprocess: false, ScratchDir: t.TempDir()}, nil)
	e.runner = runner
	e.recognizer = rec
	return e
}

func TestExtractPageCountMatchesRenderedPages(t *testing.T) {
	rec := &fakeRecognizer{texts: map[int]string{1: "alpha", 2: "beta", 3: "gamma"}}
	e := newTestExtractor(t, fakeRunner{pages: 3}, rec)

	pages, sum, err := e.Extract(context.Background(), "doc.pdf")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(pages) != 3 || sum.Pages != 3 {
		t.Fatalf("expected 3 pages, got %d (summary %d)", len(pages), sum.Pages)
	}
	for i, p := range pages {
		if p.PageIndex != i+1 {
			t.Fatalf("page %d has index %d", i, p.PageIndex)
		}
	}
	if pages[1].Text != "beta" {
		t.Fatalf("page 2 text = %q", pages[1].Text)
	}
	if sum.Method != "pdf-ocr" {
		t.Fatalf("unexpected method %q", sum.Method)
	}
}

func TestExtractFailedPageKeepsItsSlot(t *testing.T) {
	rec := &fakeRecognizer{
		texts:  map[int]string{1: "first", 3: "third"},
		failOn: map[int]bool{2: true},
	}
	e := newTestExtractor(t, fakeRunner{pages: 3}, rec)

	pages, sum, err := e.Extract(context.Background(), "doc.pdf")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(pages))
	}
	if pages[1].Text != "" || pages[1].Warning == "" {
		t.Fatalf("failed page should be empty with a warning: %+v", pages[1])
	}
	if len(sum.Warnings) == 0 {
		t.Fatalf("expected summary warnings")
	}
}

func TestExtractRasterizeFailure(t *testing.T) {
	e := newTestExtractor(t, fakeRunner{err: errors.New("exit 1")}, &fakeRecognizer{})
	_, _, err := e.Extract(context.Background(), "doc.pdf")
	if err == nil {
		t.Fatalf("expected error when rasterization fails")
	}
	if !errors.Is(err, common.ErrOCR) {
		t.Fatalf("rasterize error not tagged as ocr failure: %v", err)
	}
}

func TestExtractRejectsNonPDF(t *testing.T) {
	e := newTestExtractor(t, fakeRunner{pages: 1}, &fakeRecognizer{})
	_, _, err := e.Extract(context.Background(), "photo.jpg")
	if err == nil {
		t.Fatalf("expected error for unsupported extension")
	}
	if !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("unsupported extension not tagged as invalid input: %v", err)
	}
}

func TestClipStderr(t *testing.T) {
	if got := clipStderr("short"); got != "short" {
		t.Fatalf("short stderr modified: %q", got)
	}
	long := strings.Repeat("e", stderrCap+100)
	got := clipStderr(long)
	if len(got) >= len(long) {
		t.Fatalf("long stderr not clipped: %d bytes", len(got))
	}
	if !strings.HasSuffix(got, "...(clipped)") {
		t.Fatalf("clip marker missing: %q", got[len(got)-20:])
	}
}

func TestExtractMaxPages(t *testing.T) {
	rec := &fakeRecognizer{texts: map[int]string{1: "a", 2: "b", 3: "c", 4: "d"}}
	e := NewExtractor(Config{Preprocess: false, ScratchDir: t.TempDir(), MaxPages: 2}, nil)
	e.runner = fakeRunner{pages: 4}
	e.recognizer = rec

	pages, sum, err := e.Extract(context.Background(), "doc.pdf")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected truncation to 2 pages, got %d", len(pages))
	}
	if len(sum.Warnings) == 0 || !strings.Contains(sum.Warnings[0], "truncated") {
		t.Fatalf("expected truncation warning, got %v", sum.Warnings)
	}
}

func TestJoinPages(t *testing.T) {
	pages := []PageText{
		{PageIndex: 1, Text: "one"},
		{PageIndex: 2, Text: "two"},
	}
	joined := JoinPages(pages)
	if joined != "one"+PageBreak+"two" {
		t.Fatalf("unexpected join: %q", joined)
	}
	if got := 1 + strings.Count(joined, "\f"); got != 2 {
		t.Fatalf("page marker count wrong: %d", got)
	}
}

func TestHeuristicConfidence(t *testing.T) {
	low := heuristicConfidence("zz")
	high := heuristicConfidence("Invoice dated 2024-03-01 for $1,234.56 from billing@vendor.example total 1234.56 due on receipt with extended terms and conditions attached below the line")
	if high <= low {
		t.Fatalf("expected richer text to score higher: low=%v high=%v", low, high)
	}
	if high > 1.0 {
		t.Fatalf("confidence above 1: %v", high)
	}
}
