package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/docsift/docsift/constants"
	"github.com/docsift/docsift/internal/common"
)

// PageBreak separates pages when page texts are concatenated into a single
// document view.
const PageBreak = "\n\f\n"

type Config struct {
	Pdftoppm string // binary name or absolute path; if empty -> "pdftoppm"

	DPI      int    // rasterization DPI, default 300
	Language string // default "eng"
	PSM      int    // tesseract page segmentation mode; 0 = engine default
	MaxPages int    // 0 = no limit

	TessdataDir string
	Preprocess  bool          // enhance page images before recognition
	ScratchDir  string        // "" = system temp
	PageTimeout time.Duration // cap per-page recognition; 0 = no cap
}

// PageText is one page's OCR output. PageIndex is 1-based. A page whose
// recognition failed still occupies its slot, with empty Text and a Warning.
type PageText struct {
	PageIndex  int
	Text       string
	Confidence float32
	Warning    string
}

type Summary struct {
	Pages      int
	Method     string // "pdf-ocr"
	Language   string
	Confidence float32 // mean over recognized pages
	Duration   time.Duration
	Warnings   []string
}

type Extractor struct {
	cfg        Config
	runner     Runner
	recognizer Recognizer
	logger     *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Extractor{
		cfg:        cfg,
		runner:     execRunner{logger: logger},
		recognizer: newTesseractRecognizer(cfg),
		logger:     logger,
	}
}

// Extract rasterizes every page of the PDF and recognizes each page image in
// order. The returned slice always has exactly one entry per rendered page.
func (e *Extractor) Extract(ctx context.Context, path string) ([]PageText, Summary, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	if constants.MapExtToFormat(ext) != constants.PDF {
		e.logger.Error("ocr.extract.unsupported", "path", path, "ext", ext)
		return nil, Summary{}, common.NewAppError("UNSUPPORTED_FORMAT", fmt.Sprintf("unsupported extension %q", ext), common.ErrInvalidInput)
	}

	e.logger.Debug("ocr.extract.start", "path", path, "dpi", e.cfg.DPI, "lang", e.cfg.Language)

	images, cleanup, warns, err := e.rasterizePDF(ctx, path)
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		return nil, Summary{Warnings: warns, Duration: time.Since(start)}, err
	}

	pages := make([]PageText, 0, len(images))
	var confSum float64
	var confPages int
	for i, img := range images {
		page := PageText{PageIndex: i + 1}

		target := img
		if e.cfg.Preprocess {
			if prep, perr := preprocessPage(img); perr != nil {
				e.logger.Warn("ocr.preprocess.failed", "page", page.PageIndex, "error", perr)
				warns = append(warns, fmt.Sprintf("page %d: preprocess: %v", page.PageIndex, perr))
			} else {
				target = prep
			}
		}

		rec, rerr := e.recognizePage(ctx, target)
		if rerr != nil {
			// log and continue: the page keeps its slot with empty text
			e.logger.Warn("ocr.page.failed", "page", page.PageIndex, "error", rerr)
			page.Warning = rerr.Error()
			warns = append(warns, fmt.Sprintf("page %d: %v", page.PageIndex, rerr))
			pages = append(pages, page)
			continue
		}
		page.Text = rec.Text
		page.Confidence = rec.Confidence
		confSum += float64(rec.Confidence)
		confPages++
		pages = append(pages, page)
	}

	sum := Summary{
		Pages:    len(pages),
		Method:   "pdf-ocr",
		Language: e.cfg.Language,
		Duration: time.Since(start),
		Warnings: warns,
	}
	if confPages > 0 {
		sum.Confidence = float32(confSum / float64(confPages))
	}

	e.logger.Info("ocr.extract.ok",
		"path", path,
		"pages", sum.Pages,
		"confidence", sum.Confidence,
		"warnings", len(sum.Warnings),
		"elapsed_ms", sum.Duration.Milliseconds(),
	)
	return pages, sum, nil
}

func (e *Extractor) recognizePage(ctx context.Context, imagePath string) (Recognition, error) {
	if e.cfg.PageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = common.WithTimeout(ctx, e.cfg.PageTimeout)
		defer cancel()
	}
	return e.recognizer.Recognize(ctx, imagePath)
}

// JoinPages concatenates page texts with a clear page break marker.
func JoinPages(pages []PageText) string {
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = p.Text
	}
	return strings.Join(parts, PageBreak)
}
