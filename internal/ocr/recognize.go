package ocr

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// Recognition is the output of recognizing a single page image.
type Recognition struct {
	Text       string
	Confidence float32 // 0..1, mean word confidence when available
}

// Recognizer turns a page image into text. Stubbed in tests.
type Recognizer interface {
	Recognize(ctx context.Context, imagePath string) (Recognition, error)
}

type tesseractRecognizer struct {
	lang        string
	psm         int
	dpi         int
	tessdataDir string
}

func newTesseractRecognizer(cfg Config) *tesseractRecognizer {
	return &tesseractRecognizer{
		lang:        cfg.Language,
		psm:         cfg.PSM,
		dpi:         cfg.DPI,
		tessdataDir: cfg.TessdataDir,
	}
}

func (r *tesseractRecognizer) Recognize(ctx context.Context, imagePath string) (Recognition, error) {
	select {
	case <-ctx.Done():
		return Recognition{}, ctx.Err()
	default:
	}

	c := gosseract.NewClient()
	defer func() { _ = c.Close() }()

	if r.tessdataDir != "" {
		if err := c.SetTessdataPrefix(r.tessdataDir); err != nil {
			return Recognition{}, fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	if err := c.SetImage(imagePath); err != nil {
		return Recognition{}, fmt.Errorf("set image: %w", err)
	}
	if r.lang != "" {
		if err := c.SetLanguage(r.lang); err != nil {
			return Recognition{}, fmt.Errorf("set language: %w", err)
		}
	}
	if r.psm > 0 {
		if err := c.SetPageSegMode(gosseract.PageSegMode(r.psm)); err != nil {
			return Recognition{}, fmt.Errorf("set psm: %w", err)
		}
	}
	if r.dpi > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(r.dpi)); err != nil {
			return Recognition{}, fmt.Errorf("set dpi: %w", err)
		}
	}

	text, err := c.Text()
	if err != nil {
		return Recognition{}, fmt.Errorf("recognize text: %w", err)
	}
	text = strings.TrimSpace(text)

	return Recognition{Text: text, Confidence: meanWordConfidence(c, text)}, nil
}

// meanWordConfidence averages per-word confidences reported by tesseract.
// Falls back to a content heuristic when no word boxes are available.
func meanWordConfidence(c *gosseract.Client, text string) float32 {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return heuristicConfidence(text)
	}
	var sum float64
	for _, b := range boxes {
		sum += b.Confidence / 100.0
	}
	return float32(sum / float64(len(boxes)))
}

// preprocessPage enhances a rendered page before recognition: grayscale for
// contrast, then contrast and sharpen passes that help with low-quality scans.
func preprocessPage(imagePath string) (string, error) {
	src, err := imaging.Open(imagePath)
	if err != nil {
		return "", fmt.Errorf("open page image: %w", err)
	}

	img := imaging.Grayscale(src)
	img = imaging.AdjustContrast(img, 30)
	img = imaging.Sharpen(img, 1.5)

	dir, base := filepath.Dir(imagePath), filepath.Base(imagePath)
	outPath := filepath.Join(dir, "prep-"+base)
	if err := imaging.Save(img, outPath); err != nil {
		return "", fmt.Errorf("save preprocessed page: %w", err)
	}
	return outPath, nil
}
