package document

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/joseph-ayodele/contract-extractor/constants"
	"github.com/joseph-ayodele/contract-extractor/internal/common"
)

type call struct {
	name string
	args []string
}

// stubRunner answers each binary from a fixed table and records calls.
// For pdftoppm it writes the requested number of page images.
type stubRunner struct {
	outputs   map[string]string
	failures  map[string]error
	pageCount int
	calls     []call
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.calls = append(s.calls, call{name: name, args: args})
	if err := s.failures[name]; err != nil {
		return nil, []byte(name + " failed"), err
	}
	if name == "pdftoppm" {
		prefix := args[len(args)-1]
		for i := 1; i <= s.pageCount; i++ {
			if err := os.WriteFile(prefix+"-"+string(rune('0'+i))+".png", []byte("png"), 0o644); err != nil {
				return nil, nil, err
			}
		}
	}
	return []byte(s.outputs[name]), nil, nil
}

func (s *stubRunner) called(name string) int {
	n := 0
	for _, c := range s.calls {
		if c.name == name {
			n++
		}
	}
	return n
}

func TestTextOnlyParserTextLayer(t *testing.T) {
	runner := &stubRunner{outputs: map[string]string{
		"pdftotext": "Contract Number: CTR-1\fPage two\f",
	}}
	p := NewTextOnlyParser(common.ParserConfig{}, runner, nil)

	doc, err := p.Parse(context.Background(), "/tmp/contract.pdf")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Pages != 2 {
		t.Errorf("expected 2 pages, got %d", doc.Pages)
	}
	if !strings.Contains(doc.Text, "CTR-1") || strings.Contains(doc.Text, "\f") {
		t.Errorf("unexpected text %q", doc.Text)
	}
	if len(doc.Tables) != 0 {
		t.Error("text-only parser must not yield tables")
	}
	if doc.Method != constants.ParserMethodTextOnly || !p.Degraded() {
		t.Error("expected degraded text-only parser")
	}
	if runner.called("tesseract") != 0 {
		t.Error("OCR must not run when a text layer exists")
	}
	args := strings.Join(runner.calls[0].args, " ")
	if args != "-layout -enc UTF-8 -eol unix /tmp/contract.pdf -" {
		t.Errorf("unexpected pdftotext args %q", args)
	}
}

func TestTextOnlyParserOCRFallback(t *testing.T) {
	runner := &stubRunner{
		outputs: map[string]string{
			"pdftotext": "  \f",
			"tesseract": "NPI: 1234567890\n-----\n",
		},
		pageCount: 2,
	}
	p := NewTextOnlyParser(common.ParserConfig{TessdataDir: "/usr/share/tessdata"}, runner, nil)

	doc, err := p.Parse(context.Background(), "/tmp/scan.pdf")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Pages != 2 {
		t.Errorf("expected 2 OCR pages, got %d", doc.Pages)
	}
	if runner.called("tesseract") != 2 {
		t.Errorf("expected tesseract per page, got %d calls", runner.called("tesseract"))
	}
	if strings.Contains(doc.Text, "-----") {
		t.Errorf("expected box noise removed, got %q", doc.Text)
	}
	if strings.Count(doc.Text, "NPI: 1234567890") != 2 {
		t.Errorf("expected text from both pages, got %q", doc.Text)
	}
	for _, c := range runner.calls {
		if c.name == "tesseract" && !strings.Contains(strings.Join(c.args, " "), "--tessdata-dir /usr/share/tessdata") {
			t.Errorf("expected tessdata dir in %v", c.args)
		}
	}
}

func TestTextOnlyParserErrors(t *testing.T) {
	boom := errors.New("exit status 1")

	t.Run("pdftotext fails", func(t *testing.T) {
		runner := &stubRunner{failures: map[string]error{"pdftotext": boom}}
		_, err := NewTextOnlyParser(common.ParserConfig{}, runner, nil).Parse(context.Background(), "/tmp/a.pdf")
		if !errors.Is(err, boom) {
			t.Fatalf("expected wrapped runner error, got %v", err)
		}
	})

	t.Run("no pages rendered", func(t *testing.T) {
		runner := &stubRunner{outputs: map[string]string{"pdftotext": ""}}
		_, err := NewTextOnlyParser(common.ParserConfig{}, runner, nil).Parse(context.Background(), "/tmp/a.pdf")
		if err == nil {
			t.Fatal("expected error when pdftoppm renders nothing")
		}
	})

	t.Run("ocr finds nothing", func(t *testing.T) {
		runner := &stubRunner{outputs: map[string]string{"pdftotext": "", "tesseract": "   "}, pageCount: 1}
		_, err := NewTextOnlyParser(common.ParserConfig{}, runner, nil).Parse(context.Background(), "/tmp/a.pdf")
		if !errors.Is(err, common.ErrNoResult) {
			t.Fatalf("expected ErrNoResult, got %v", err)
		}
	})
}
