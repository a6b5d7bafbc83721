package textsource

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/ezpz4akash/docu-check/internal/core/domain"
)

// Config holds the external tool bindings for scanned documents.
type Config struct {
	TesseractBin string
	PdftoppmBin  string
	OCRDPI       int
}

func (c *Config) applyDefaults() {
	if c.TesseractBin == "" {
		c.TesseractBin = "tesseract"
	}
	if c.PdftoppmBin == "" {
		c.PdftoppmBin = "pdftoppm"
	}
	if c.OCRDPI <= 0 {
		c.OCRDPI = 300
	}
}

// Extractor turns saved files into text units. PDFs are read natively first;
// scanned PDFs with no extractable text fall back to rasterize-and-OCR.
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Extractor {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

// NewWithRunner is the test seam for stubbing external commands.
func NewWithRunner(cfg Config, runner Runner, logger *slog.Logger) *Extractor {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{cfg: cfg, runner: runner, logger: logger}
}

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true,
	".tif": true, ".tiff": true, ".bmp": true, ".gif": true,
}

// Extract produces one unit per logical page. Unreadable binary files yield
// no units rather than an error so one opaque attachment cannot fail a job.
func (e *Extractor) Extract(ctx context.Context, path string) ([]domain.TextUnit, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch {
	case ext == ".pdf":
		return e.extractPDF(ctx, path)
	case imageExts[ext]:
		return e.extractImage(ctx, path)
	default:
		return e.extractPlaintext(path)
	}
}

func (e *Extractor) extractPDF(ctx context.Context, path string) ([]domain.TextUnit, error) {
	units, err := readPDFPages(path)
	if err != nil {
		e.logger.Warn("native pdf read failed, falling back to ocr", "path", path, "error", err)
		return e.ocrPDF(ctx, path)
	}
	if len(units) == 0 {
		e.logger.Info("pdf has no extractable text, falling back to ocr", "path", path)
		return e.ocrPDF(ctx, path)
	}
	return units, nil
}

func readPDFPages(path string) ([]domain.TextUnit, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	base := filepath.Base(path)
	var units []domain.TextUnit
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		units = append(units, domain.TextUnit{
			Name: fmt.Sprintf("%s:page:%d", base, i),
			Text: text,
		})
	}
	return units, nil
}

// ocrPDF rasterizes pages with pdftoppm and reads each one with tesseract.
func (e *Extractor) ocrPDF(ctx context.Context, path string) ([]domain.TextUnit, error) {
	tmpDir, err := os.MkdirTemp("", "docucheck-ocr-*")
	if err != nil {
		return nil, fmt.Errorf("create ocr temp dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			e.logger.Warn("failed to remove ocr temp dir", "path", tmpDir, "error", rmErr)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	if _, errb, err := e.runner.Run(ctx, e.cfg.PdftoppmBin, "-r", fmt.Sprintf("%d", e.cfg.OCRDPI), "-png", path, prefix); err != nil {
		return nil, domain.WrapError(domain.ErrExtraction, "rasterize pdf",
			fmt.Errorf("pdftoppm: %w: %s", err, truncate(string(errb), 512)))
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return nil, domain.WrapError(domain.ErrExtraction, "rasterize pdf", fmt.Errorf("pdftoppm produced no pages for %q", path))
	}

	base := filepath.Base(path)
	var units []domain.TextUnit
	for i, img := range matches {
		text, err := e.tesseract(ctx, img)
		if err != nil {
			e.logger.Warn("ocr page failed", "path", path, "page", i+1, "error", err)
			continue
		}
		units = append(units, domain.TextUnit{
			Name: fmt.Sprintf("%s:page:%d", base, i+1),
			Text: text,
		})
	}
	return units, nil
}

func (e *Extractor) extractImage(ctx context.Context, path string) ([]domain.TextUnit, error) {
	text, err := e.tesseract(ctx, path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrExtraction, "ocr image", err)
	}
	return []domain.TextUnit{{Name: filepath.Base(path), Text: text}}, nil
}

func (e *Extractor) tesseract(ctx context.Context, path string) (string, error) {
	// tesseract <file> stdout -l eng
	out, errb, err := e.runner.Run(ctx, e.cfg.TesseractBin, path, "stdout", "-l", "eng")
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 512))
	}
	return string(out), nil
}

func (e *Extractor) extractPlaintext(path string) ([]domain.TextUnit, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrExtraction, "read file", err)
	}
	if !utf8.Valid(raw) {
		e.logger.Info("skipping non-text file", "path", path)
		return nil, nil
	}
	return []domain.TextUnit{{Name: filepath.Base(path), Text: string(raw)}}, nil
}
