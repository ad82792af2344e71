package document

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/contract-extractor/constants"
	"github.com/joseph-ayodele/contract-extractor/internal/common"
)

const defaultConvertPath = "/v1/convert/file"

// StructuredParser sends the PDF to a docling-serve compatible layout
// service and reads text and tables back from the markdown rendering.
type StructuredParser struct {
	baseURL    string
	path       string
	httpClient *http.Client
	logger     *slog.Logger
}

type convertResponse struct {
	Document struct {
		Filename  string `json:"filename"`
		MDContent string `json:"md_content"`
	} `json:"document"`
	Status string `json:"status"`
	Errors []struct {
		ErrorMessage string `json:"error_message"`
	} `json:"errors"`
}

// NewStructuredParser builds a client for cfg.LayoutServiceURL. A nil
// client gets one with the configured timeout.
func NewStructuredParser(cfg common.ParserConfig, client *http.Client, logger *slog.Logger) *StructuredParser {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = &http.Client{Timeout: timeoutOf(cfg)}
	}
	path := cfg.LayoutServicePath
	if path == "" {
		path = defaultConvertPath
	}
	return &StructuredParser{
		baseURL:    strings.TrimRight(cfg.LayoutServiceURL, "/"),
		path:       "/" + strings.TrimLeft(path, "/"),
		httpClient: client,
		logger:     logger,
	}
}

func timeoutOf(cfg common.ParserConfig) time.Duration {
	if cfg.TimeoutSeconds <= 0 {
		return 120 * time.Second
	}
	return time.Duration(cfg.TimeoutSeconds) * time.Second
}

func (p *StructuredParser) Name() string   { return constants.ParserMethodStructured }
func (p *StructuredParser) Degraded() bool { return false }

func (p *StructuredParser) Parse(ctx context.Context, path string) (Document, error) {
	doc := Document{Method: constants.ParserMethodStructured}
	start := time.Now()

	body, contentType, err := multipartBody(path)
	if err != nil {
		return doc, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+p.path, body)
	if err != nil {
		return doc, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", constants.JSONContentType)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return doc, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return doc, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return doc, fmt.Errorf("layout service returned %d: %s", resp.StatusCode, truncate(string(raw), 512))
	}

	var result convertResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return doc, fmt.Errorf("failed to parse response: %w", err)
	}
	switch result.Status {
	case "", "success", "partial_success":
	default:
		msgs := make([]string, 0, len(result.Errors))
		for _, e := range result.Errors {
			msgs = append(msgs, e.ErrorMessage)
		}
		return doc, fmt.Errorf("layout service status %q: %s", result.Status, strings.Join(msgs, "; "))
	}
	if strings.TrimSpace(result.Document.MDContent) == "" {
		return doc, fmt.Errorf("%w: layout service returned no content for %s", common.ErrNoResult, filepath.Base(path))
	}

	doc.Text = result.Document.MDContent
	doc.Tables = ParseMarkdownTables(result.Document.MDContent)
	p.logger.Debug("document.layout.ok",
		"path", path,
		"status", result.Status,
		"tables", len(doc.Tables),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return doc, nil
}

func multipartBody(path string) (*bytes.Buffer, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("files", filepath.Base(path))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("read document: %w", err)
	}
	if err := w.WriteField("to_formats", "md"); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("image_export_mode", "placeholder"); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
