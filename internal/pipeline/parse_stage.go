package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/contract-extractor/internal/common"
	"github.com/joseph-ayodele/contract-extractor/internal/document"
	"github.com/joseph-ayodele/contract-extractor/internal/extract"
	"github.com/joseph-ayodele/contract-extractor/internal/schema"
)

// ParseStage turns one local file into a scored, advisory-validated
// record. It touches no storage.
type ParseStage struct {
	Parser        document.Parser
	Extractor     *extract.Extractor
	PenaltyFactor float64
	Logger        *slog.Logger
}

func NewParseStage(parser document.Parser, extractor *extract.Extractor, penaltyFactor float64, logger *slog.Logger) *ParseStage {
	if logger == nil {
		logger = slog.Default()
	}
	if extractor == nil {
		extractor = extract.NewExtractor(extract.WithLogger(logger))
	}
	if penaltyFactor <= 0 || penaltyFactor > 1 {
		penaltyFactor = extract.DegradedPenalty
	}
	return &ParseStage{Parser: parser, Extractor: extractor, PenaltyFactor: penaltyFactor, Logger: logger}
}

// Run parses path and builds the record; sourceFile is stored in
// extraction_metadata.source_file. Parse failures wrap common.ErrNoResult.
func (s *ParseStage) Run(ctx context.Context, path, sourceFile string) (schema.ContractRecord, error) {
	doc, err := s.Parser.Parse(ctx, path)
	if err != nil {
		s.Logger.Error("pipeline.parse.failed", "parser", s.Parser.Name(), "source_file", sourceFile, "err", err)
		if errors.Is(err, common.ErrNoResult) {
			return schema.ContractRecord{}, fmt.Errorf("parse %s: %w", sourceFile, err)
		}
		return schema.ContractRecord{}, fmt.Errorf("%w: parse %s: %w", common.ErrNoResult, sourceFile, err)
	}
	s.Logger.Info("pipeline.parse.ok",
		"parser", s.Parser.Name(),
		"method", doc.Method,
		"pages", doc.Pages,
		"tables", len(doc.Tables),
		"text_len", len(doc.Text),
	)

	record := s.Extractor.Extract(doc)
	record.ExtractionMetadata.SourceFile = sourceFile
	if s.Parser.Degraded() {
		before := record.ExtractionMetadata.ConfidenceScore
		record.ExtractionMetadata.ConfidenceScore = extract.ApplyPenalty(before, s.PenaltyFactor)
		s.Logger.Debug("pipeline.confidence.penalised", "before", before, "after", record.ExtractionMetadata.ConfidenceScore)
	}

	if ok, errs := schema.Validate(record); !ok {
		record.ExtractionMetadata.ValidationErrors = errs
		s.Logger.Warn("pipeline.validate.advisory", "contract_id", record.ContractID, "errors", errs)
	}
	return record, nil
}
