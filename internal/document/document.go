package document

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/joseph-ayodele/contract-extractor/internal/common"
)

// Table is a header row plus body rows, cell text only.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Document is the parsed content of one source file.
type Document struct {
	Text   string
	Tables []Table
	Pages  int
	Method string // constants.ParserMethodStructured | constants.ParserMethodTextOnly
}

// Parser turns a local document file into text and tables.
type Parser interface {
	Parse(ctx context.Context, path string) (Document, error)
	// Degraded reports whether this parser loses table structure, in which
	// case callers discount the confidence score.
	Degraded() bool
	Name() string
}

// New picks the parser variant once: a configured layout service URL
// selects StructuredParser, otherwise TextOnlyParser.
func New(cfg common.ParserConfig, logger *slog.Logger) Parser {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.LayoutServiceURL != "" {
		client := &http.Client{Timeout: timeoutOf(cfg)}
		return NewStructuredParser(cfg, client, logger)
	}
	return NewTextOnlyParser(cfg, nil, logger)
}
