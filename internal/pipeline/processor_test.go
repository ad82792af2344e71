package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/joseph-ayodele/contract-extractor/constants"
	"github.com/joseph-ayodele/contract-extractor/internal/common"
	"github.com/joseph-ayodele/contract-extractor/internal/document"
	"github.com/joseph-ayodele/contract-extractor/internal/events"
	"github.com/joseph-ayodele/contract-extractor/internal/extract"
	"github.com/joseph-ayodele/contract-extractor/internal/repository"
	"github.com/joseph-ayodele/contract-extractor/internal/schema"
	"github.com/joseph-ayodele/contract-extractor/internal/storage"
)

var testClock = common.FixedClock{T: time.Date(2024, 3, 9, 8, 7, 6, 0, time.UTC)}

const contractText = "PROVIDER SERVICES AGREEMENT\n" +
	"Contract Number: CTR-2024-001\n" +
	"Provider: General Hospital\n" +
	"NPI: 1234567890\n" +
	"Effective Date: 01/15/2024\n"

// stubParser returns a fixed document, or err, and records the paths it saw.
type stubParser struct {
	doc      document.Document
	err      error
	degraded bool
	seen     []string
}

func (p *stubParser) Parse(_ context.Context, path string) (document.Document, error) {
	p.seen = append(p.seen, path)
	if _, err := os.Stat(path); err != nil {
		return document.Document{}, err
	}
	return p.doc, p.err
}

func (p *stubParser) Degraded() bool { return p.degraded }

func (p *stubParser) Name() string {
	if p.degraded {
		return constants.ParserMethodTextOnly
	}
	return constants.ParserMethodStructured
}

type fixture struct {
	store *storage.FSStore
	jobs  repository.ExtractionJobRepository
	proc  *Processor
}

func newFixture(t *testing.T, parser *stubParser) fixture {
	t.Helper()
	store, err := storage.NewFSStore(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	db, err := repository.Open(context.Background(), ":memory:", nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(db.Close)
	jobs := repository.NewExtractionJobRepository(db, testClock, nil)

	stage := NewParseStage(parser, extract.NewExtractor(extract.WithClock(testClock)), 0.7, nil)
	cfg := Config{RawBucket: "raw", ProcessedBucket: "processed", TempDir: t.TempDir()}
	proc := NewProcessor(cfg, store, stage, nil, WithLedger(jobs), WithClock(testClock))
	return fixture{store: store, jobs: jobs, proc: proc}
}

func (f fixture) putRaw(t *testing.T, key string) {
	t.Helper()
	p := filepath.Join(f.store.BucketDir("raw"), filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func structuredDoc() document.Document {
	return document.Document{
		Text: contractText,
		Tables: []document.Table{{
			Headers: []string{"CPT Code", "Rate Amount"},
			Rows:    [][]string{{"99213", "$125.50"}},
		}},
		Pages:  1,
		Method: constants.ParserMethodStructured,
	}
}

func TestProcessKeyWritesRecord(t *testing.T) {
	parser := &stubParser{doc: structuredDoc()}
	f := newFixture(t, parser)
	f.putRaw(t, "incoming/contract_a.pdf")
	ctx := context.Background()

	record, err := f.proc.ProcessKey(ctx, "incoming/contract_a.pdf")
	if err != nil {
		t.Fatalf("ProcessKey: %v", err)
	}
	if record.ContractID != "CTR-2024-001" || record.ExtractionMetadata.ConfidenceScore != 0.75 {
		t.Errorf("unexpected record %+v", record)
	}
	if record.ExtractionMetadata.SourceFile != "incoming/contract_a.pdf" {
		t.Errorf("source_file = %q", record.ExtractionMetadata.SourceFile)
	}
	if len(record.ExtractionMetadata.ValidationErrors) != 0 {
		t.Errorf("unexpected validation errors %v", record.ExtractionMetadata.ValidationErrors)
	}

	outKey := "contracts/payer=unknown/contract_date=2024-01-15/contract_a.json"
	var stored schema.ContractRecord
	if err := f.store.GetJSON(ctx, "processed", outKey, &stored); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if !reflect.DeepEqual(stored, *record) {
		t.Errorf("stored record differs:\n got %+v\nwant %+v", stored, *record)
	}

	// the temp download is removed once the record is written
	if len(parser.seen) != 1 {
		t.Fatalf("parser saw %v", parser.seen)
	}
	if _, err := os.Stat(parser.seen[0]); !os.IsNotExist(err) {
		t.Errorf("temp file left behind: %v", err)
	}

	jobs, err := f.jobs.ListRecent(ctx, 5)
	if err != nil || len(jobs) != 1 {
		t.Fatalf("ListRecent = %v, %v", jobs, err)
	}
	if jobs[0].Status != constants.JobStatusSucceeded || *jobs[0].OutputKey != outKey {
		t.Errorf("unexpected job %+v", jobs[0])
	}
}

func TestProcessKeyDegradedParser(t *testing.T) {
	doc := document.Document{Text: contractText, Pages: 1, Method: constants.ParserMethodTextOnly}
	f := newFixture(t, &stubParser{doc: doc, degraded: true})
	f.putRaw(t, "b.pdf")

	record, err := f.proc.ProcessKey(context.Background(), "b.pdf")
	if err != nil {
		t.Fatalf("ProcessKey: %v", err)
	}
	// 0.60 without rate schedules, scaled by 0.7
	if record.ExtractionMetadata.ConfidenceScore != 0.42 {
		t.Errorf("confidence = %v, want 0.42", record.ExtractionMetadata.ConfidenceScore)
	}
	if record.ExtractionMetadata.ParserMethod != constants.ParserMethodTextOnly {
		t.Errorf("parser_method = %q", record.ExtractionMetadata.ParserMethod)
	}
	if record.RateSchedules == nil || len(record.RateSchedules) != 0 {
		t.Errorf("rate_schedules = %#v", record.RateSchedules)
	}
}

func TestProcessKeyAdvisoryValidation(t *testing.T) {
	doc := structuredDoc()
	doc.Text += "Termination Date: 01/01/2023\n"
	f := newFixture(t, &stubParser{doc: doc})
	f.putRaw(t, "c.pdf")

	record, err := f.proc.ProcessKey(context.Background(), "c.pdf")
	if err != nil {
		t.Fatalf("ProcessKey should still write the record: %v", err)
	}
	want := []string{"termination_date: must not precede effective_date"}
	if !reflect.DeepEqual(record.ExtractionMetadata.ValidationErrors, want) {
		t.Errorf("validation_errors = %v, want %v", record.ExtractionMetadata.ValidationErrors, want)
	}
	ok, err := f.store.Exists(context.Background(), "processed", "contracts/payer=unknown/contract_date=2024-01-15/c.json")
	if err != nil || !ok {
		t.Errorf("record not written: %v %v", ok, err)
	}
}

func TestProcessKeyFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("missing object", func(t *testing.T) {
		f := newFixture(t, &stubParser{doc: structuredDoc()})
		_, err := f.proc.ProcessKey(ctx, "missing.pdf")
		if !errors.Is(err, common.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		jobs, _ := f.jobs.ListRecent(ctx, 5)
		if len(jobs) != 1 || jobs[0].Status != constants.JobStatusFailed || jobs[0].ErrorMessage == nil {
			t.Errorf("failure not recorded: %+v", jobs)
		}
	})

	t.Run("parser error", func(t *testing.T) {
		f := newFixture(t, &stubParser{err: errors.New("boom")})
		f.putRaw(t, "d.pdf")
		_, err := f.proc.ProcessKey(ctx, "d.pdf")
		if !errors.Is(err, common.ErrNoResult) {
			t.Fatalf("expected ErrNoResult, got %v", err)
		}
		keys, _ := f.store.List(ctx, "processed", "", "")
		if len(keys) != 0 {
			t.Errorf("nothing should be written, got %v", keys)
		}
	})

	t.Run("temp dir unavailable", func(t *testing.T) {
		f := newFixture(t, &stubParser{doc: structuredDoc()})
		f.putRaw(t, "e.pdf")
		blocker := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(blocker, nil, 0o644); err != nil {
			t.Fatal(err)
		}
		f.proc.Cfg.TempDir = filepath.Join(blocker, "tmp")
		if _, err := f.proc.ProcessKey(ctx, "e.pdf"); !errors.Is(err, common.ErrInternal) {
			t.Errorf("expected ErrInternal, got %v", err)
		}
	})
}

func TestProcessKeyAcceptsAnyExtension(t *testing.T) {
	f := newFixture(t, &stubParser{doc: structuredDoc()})
	f.putRaw(t, "scans/contract.bin")
	ctx := context.Background()

	record, err := f.proc.ProcessKey(ctx, "scans/contract.bin")
	if err != nil {
		t.Fatalf("ProcessKey: %v", err)
	}
	if record.ExtractionMetadata.SourceFile != "scans/contract.bin" {
		t.Errorf("source_file = %q", record.ExtractionMetadata.SourceFile)
	}
	keys, err := f.store.List(ctx, "processed", "", "")
	if err != nil || len(keys) != 1 {
		t.Errorf("expected one record written, got %v %v", keys, err)
	}
}

func TestProcessEvent(t *testing.T) {
	f := newFixture(t, &stubParser{doc: structuredDoc()})
	f.putRaw(t, "incoming/My Contract.pdf")

	ev, err := events.Parse([]byte(`{"Records": [
		{"s3": {"bucket": {"name": "raw"}, "object": {"key": "incoming/My+Contract.pdf"}}},
		{"s3": {"bucket": {"name": "raw"}, "object": {"key": "incoming/absent.pdf"}}},
		{"s3": {"bucket": {"name": "elsewhere"}, "object": {"key": "x.pdf"}}},
		{"s3": {"bucket": {"name": "raw"}, "object": {"key": "readme.md"}}}
	]}`))
	if err != nil {
		t.Fatal(err)
	}

	ids := f.proc.ProcessEvent(context.Background(), ev)
	if !reflect.DeepEqual(ids, []string{"CTR-2024-001"}) {
		t.Errorf("ids = %v", ids)
	}
	ok, _ := f.store.Exists(context.Background(), "processed", "contracts/payer=unknown/contract_date=2024-01-15/My Contract.json")
	if !ok {
		t.Error("expected record for the decoded key")
	}

	empty := f.proc.ProcessEvent(context.Background(), events.Event{})
	if empty == nil || len(empty) != 0 {
		t.Errorf("empty event should give an empty list, got %#v", empty)
	}
}
