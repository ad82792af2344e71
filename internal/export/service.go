package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/contract-extractor/internal/schema"
	"github.com/joseph-ayodele/contract-extractor/internal/storage"
)

const (
	ContractsSheet = "Contracts"
	RatesSheet     = "Rates"
)

var contractHeaders = []string{
	"Contract ID",
	"Payer ID",
	"Payer Name",
	"Provider NPI",
	"Provider Name",
	"Effective Date",
	"Termination Date",
	"Rate Items",
	"Amendments",
	"Confidence",
	"Parser Method",
	"Source File",
	"Validation Errors",
}

var rateHeaders = []string{
	"Contract ID",
	"Payer ID",
	"Service Category",
	"CPT Code",
	"Modifier",
	"Rate Type",
	"Rate Amount",
	"Rate Unit",
	"Effective Date",
}

// Service reads records back from the processed bucket and renders them
// as an XLSX workbook.
type Service struct {
	store  storage.ObjectStore
	bucket string
	logger *slog.Logger
}

func NewService(store storage.ObjectStore, bucket string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, bucket: bucket, logger: logger}
}

// LoadRecords decodes every .json object under prefix, in key order.
// An empty prefix means storage.RecordPrefix.
func (s *Service) LoadRecords(ctx context.Context, prefix string) ([]schema.ContractRecord, error) {
	if prefix == "" {
		prefix = storage.RecordPrefix
	}
	keys, err := s.store.List(ctx, s.bucket, prefix, ".json")
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	records := make([]schema.ContractRecord, 0, len(keys))
	for _, key := range keys {
		var r schema.ContractRecord
		if err := s.store.GetJSON(ctx, s.bucket, key, &r); err != nil {
			return nil, fmt.Errorf("load record %s: %w", key, err)
		}
		records = append(records, r)
	}
	s.logger.Debug("export.records.loaded", "bucket", s.bucket, "prefix", prefix, "count", len(records))
	return records, nil
}

// Export loads records under prefix and returns the workbook bytes.
func (s *Service) Export(ctx context.Context, prefix string) ([]byte, int, error) {
	records, err := s.LoadRecords(ctx, prefix)
	if err != nil {
		return nil, 0, err
	}
	b, err := s.ExportXLSX(records)
	return b, len(records), err
}

// ExportXLSX writes one Contracts row per record and one Rates row per
// rate line item.
func (s *Service) ExportXLSX(records []schema.ContractRecord) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", ContractsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(RatesSheet); err != nil {
		return nil, err
	}
	activeIndex, _ := f.GetSheetIndex(ContractsSheet)
	f.SetActiveSheet(activeIndex)

	writeRow(f, ContractsSheet, 1, toAny(contractHeaders))
	writeRow(f, RatesSheet, 1, toAny(rateHeaders))

	rateRow := 2
	for i, r := range records {
		writeRow(f, ContractsSheet, i+2, []any{
			r.ContractID,
			r.PayerID,
			r.PayerName,
			r.ProviderNPI,
			r.ProviderName,
			r.EffectiveDate,
			r.TerminationDate,
			len(r.RateSchedules),
			len(r.Amendments),
			r.ExtractionMetadata.ConfidenceScore,
			r.ExtractionMetadata.ParserMethod,
			r.ExtractionMetadata.SourceFile,
			truncate(strings.Join(r.ExtractionMetadata.ValidationErrors, "; "), 240),
		})
		for _, item := range r.RateSchedules {
			writeRow(f, RatesSheet, rateRow, []any{
				r.ContractID,
				r.PayerID,
				item.ServiceCategory,
				item.CPTCode,
				item.Modifier,
				string(item.RateType),
				item.RateAmount,
				item.RateUnit,
				item.EffectiveDate,
			})
			rateRow++
		}
	}

	_ = f.SetColWidth(ContractsSheet, "A", "A", 20) // contract id
	_ = f.SetColWidth(ContractsSheet, "B", "E", 22)
	_ = f.SetColWidth(ContractsSheet, "F", "G", 14) // dates
	_ = f.SetColWidth(ContractsSheet, "L", "L", 48) // source file
	_ = f.SetColWidth(ContractsSheet, "M", "M", 60)
	_ = f.SetColWidth(RatesSheet, "A", "E", 18)
	_ = f.SetColWidth(RatesSheet, "F", "F", 16)
	_ = f.SetColWidth(RatesSheet, "G", "I", 14)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"contracts", len(records),
		"rates", rateRow-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
