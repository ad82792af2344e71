package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/contract-extractor/constants"
	"github.com/joseph-ayodele/contract-extractor/internal/common"
)

var reBoxNoise = regexp.MustCompile(`(?m)^\s*[_\-]{3,}\s*$`)

// TextOnlyParser reads the PDF text layer with pdftotext and falls back to
// pdftoppm + tesseract OCR for scanned documents. It never yields tables.
type TextOnlyParser struct {
	cfg    common.ParserConfig
	runner Runner
	logger *slog.Logger
}

// NewTextOnlyParser fills binary and OCR defaults. A nil runner executes
// the real binaries.
func NewTextOnlyParser(cfg common.ParserConfig, runner Runner, logger *slog.Logger) *TextOnlyParser {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if runner == nil {
		runner = ExecRunner{Logger: logger}
	}
	return &TextOnlyParser{cfg: cfg, runner: runner, logger: logger}
}

func (p *TextOnlyParser) Name() string   { return constants.ParserMethodTextOnly }
func (p *TextOnlyParser) Degraded() bool { return true }

func (p *TextOnlyParser) Parse(ctx context.Context, path string) (Document, error) {
	doc := Document{Method: constants.ParserMethodTextOnly}

	text, pages, err := p.pdfToText(ctx, path)
	if err != nil {
		return doc, fmt.Errorf("pdftotext %s: %w", filepath.Base(path), err)
	}
	if strings.TrimSpace(text) != "" {
		p.logger.Debug("document.textlayer.ok", "path", path, "pages", pages, "chars", len(text))
		doc.Text, doc.Pages = text, pages
		return doc, nil
	}

	p.logger.Info("document.textlayer.empty", "path", path, "fallback", "ocr")
	text, pages, warns, err := p.pdfToOCR(ctx, path)
	for _, w := range warns {
		p.logger.Warn("document.ocr.warning", "path", path, "warning", w)
	}
	if err != nil {
		return doc, fmt.Errorf("ocr %s: %w", filepath.Base(path), err)
	}
	doc.Text, doc.Pages = text, pages
	return doc, nil
}

func (p *TextOnlyParser) pdfToText(ctx context.Context, path string) (string, int, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := p.runner.Run(ctx, p.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		if msg := strings.TrimSpace(string(errb)); msg != "" {
			return "", 0, fmt.Errorf("%w: %s", err, truncate(msg, 512))
		}
		return "", 0, err
	}
	text := string(out)
	// pdftotext ends every page with a form feed
	pages := strings.Count(text, "\f")
	if pages == 0 && strings.TrimSpace(text) != "" {
		pages = 1
	}
	return strings.ReplaceAll(text, "\f", "\n\n"), pages, nil
}

func (p *TextOnlyParser) pdfToOCR(ctx context.Context, path string) (string, int, []string, error) {
	tmpDir, err := os.MkdirTemp("", "contract-pp-*")
	if err != nil {
		return "", 0, nil, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			p.logger.Warn("failed to remove temp dir", "path", tmpDir, "error", err)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	args := []string{"-r", strconv.Itoa(p.cfg.DPI), "-png"}
	if p.cfg.MaxPages > 0 {
		args = append(args, "-l", strconv.Itoa(p.cfg.MaxPages))
	}
	args = append(args, path, prefix)
	if _, errb, err := p.runner.Run(ctx, p.cfg.Pdftoppm, args...); err != nil {
		return "", 0, []string{string(errb)}, err
	}

	// prefix-1.png, prefix-2.png, ... (zero padded for long documents)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if p.cfg.MaxPages > 0 && len(matches) > p.cfg.MaxPages {
		matches = matches[:p.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return "", 0, nil, errors.New("pdftoppm produced no images")
	}

	var b strings.Builder
	var warns []string
	for _, img := range matches {
		txt, err := p.tesseract(ctx, img)
		if err != nil {
			warns = append(warns, err.Error())
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(txt)
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", len(matches), warns, fmt.Errorf("%w: no text recognised on %d page(s)", common.ErrNoResult, len(matches))
	}
	return b.String(), len(matches), warns, nil
}

func (p *TextOnlyParser) tesseract(ctx context.Context, image string) (string, error) {
	// tesseract <file> stdout -l <lang>
	args := []string{image, "stdout", "-l", p.cfg.TesseractLang}
	if p.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", p.cfg.TessdataDir)
	}
	out, errb, err := p.runner.Run(ctx, p.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract %s: %w: %s", filepath.Base(image), err, truncate(string(errb), 256))
	}
	return reBoxNoise.ReplaceAllString(string(out), ""), nil
}
