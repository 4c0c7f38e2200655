package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/docsift/docsift/internal/common"
)

// rasterizePDF renders every page of the PDF into a PNG per page and returns
// the image paths in page order, plus a cleanup func for the scratch dir.
// pdftoppm zero-pads page numbers, so a lexicographic sort preserves order.
func (e *Extractor) rasterizePDF(ctx context.Context, path string) ([]string, func(), []string, error) {
	tmpDir, err := os.MkdirTemp(e.cfg.ScratchDir, "docsift-pages-*")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("scratch dir: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r <DPI> -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return nil, cleanup, []string{string(errb)}, common.NewAppError("OCR_RASTERIZE", fmt.Sprintf("pdftoppm: %v", err), common.ErrOCR)
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)

	var warns []string
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		warns = append(warns, fmt.Sprintf("truncated to first %d of %d pages", e.cfg.MaxPages, len(matches)))
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return nil, cleanup, []string{"pdftoppm produced no images"}, common.NewAppError("OCR_NO_PAGES", "no pages rendered", common.ErrOCR)
	}
	return matches, cleanup, warns, nil
}
