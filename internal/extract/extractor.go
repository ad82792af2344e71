package extract

import (
	"log/slog"

	"github.com/joseph-ayodele/contract-extractor/internal/common"
	"github.com/joseph-ayodele/contract-extractor/internal/document"
	"github.com/joseph-ayodele/contract-extractor/internal/schema"
)

// Extractor turns a parsed document into a contract record. It holds no
// per-document state and is safe for concurrent use.
type Extractor struct {
	clock   common.Clock
	version string
	logger  *slog.Logger
}

type Option func(*Extractor)

// WithClock pins the time used for synthetic ids and metadata stamps.
func WithClock(c common.Clock) Option {
	return func(e *Extractor) { e.clock = c }
}

// WithVersion sets extraction_metadata.extractor_version.
func WithVersion(v string) Option {
	return func(e *Extractor) {
		if v != "" {
			e.version = v
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		clock:   common.SystemClock{},
		version: schema.DefaultExtractorVersion,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.clock = common.ClockOrSystem(e.clock)
	return e
}

// Extract runs field extraction, rate mapping, amendment extraction and
// scoring over doc. The score is not penalised for degraded parsers; the
// caller does that.
func (e *Extractor) Extract(doc document.Document) schema.ContractRecord {
	text := document.NormalizeText(doc.Text)
	fields := ExtractFields(text, e.clock)

	record := schema.ContractRecord{
		ContractID:      fields.ContractID,
		PayerID:         fields.PayerID,
		PayerName:       fields.PayerName,
		ProviderNPI:     fields.ProviderNPI,
		ProviderName:    fields.ProviderName,
		EffectiveDate:   fields.EffectiveDate,
		TerminationDate: fields.TerminationDate,
		RateSchedules:   MapRateSchedules(doc.Tables),
		Amendments:      ExtractAmendments(text),
		ExtractionMetadata: schema.ExtractionMetadata{
			ExtractedAt:      e.clock.Now().UTC(),
			ExtractorVersion: e.version,
			ParserMethod:     doc.Method,
		},
	}
	record.ExtractionMetadata.ConfidenceScore = Score(record)

	e.logger.Debug("extract.done",
		"contract_id", record.ContractID,
		"rate_items", len(record.RateSchedules),
		"amendments", len(record.Amendments),
		"confidence", record.ExtractionMetadata.ConfidenceScore,
	)
	return record
}
