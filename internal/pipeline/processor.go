package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/contract-extractor/constants"
	"github.com/joseph-ayodele/contract-extractor/internal/common"
	"github.com/joseph-ayodele/contract-extractor/internal/entity"
	"github.com/joseph-ayodele/contract-extractor/internal/events"
	"github.com/joseph-ayodele/contract-extractor/internal/logger"
	"github.com/joseph-ayodele/contract-extractor/internal/repository"
	"github.com/joseph-ayodele/contract-extractor/internal/schema"
	"github.com/joseph-ayodele/contract-extractor/internal/storage"
)

// Config names the buckets and scratch space used per document.
type Config struct {
	RawBucket       string
	ProcessedBucket string
	TempDir         string // "" means the OS temp dir
}

// ConfigFrom picks the pipeline settings out of the application config.
func ConfigFrom(c *common.Config) Config {
	return Config{
		RawBucket:       c.Storage.RawBucket,
		ProcessedBucket: c.Storage.ProcessedBucket,
		TempDir:         c.Extraction.TempDir,
	}
}

// Processor coordinates download, parse, extraction and upload for
// object keys in the raw bucket.
type Processor struct {
	Cfg    Config
	Store  storage.ObjectStore
	Parse  *ParseStage
	Jobs   repository.ExtractionJobRepository // nil: attempts are not recorded
	Clock  common.Clock
	Logger *slog.Logger
}

type Option func(*Processor)

func WithLedger(jobs repository.ExtractionJobRepository) Option {
	return func(p *Processor) { p.Jobs = jobs }
}

func WithClock(c common.Clock) Option {
	return func(p *Processor) { p.Clock = c }
}

func NewProcessor(cfg Config, store storage.ObjectStore, parse *ParseStage, logger *slog.Logger, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{Cfg: cfg, Store: store, Parse: parse, Logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	p.Clock = common.ClockOrSystem(p.Clock)
	return p
}

// ProcessKey downloads key from the raw bucket, extracts a record and
// writes it to the processed bucket.
func (p *Processor) ProcessKey(ctx context.Context, key string) (*schema.ContractRecord, error) {
	ctx = common.WithSourceKey(ctx, key)
	log := logger.WithContext(ctx, p.Logger)

	var jobID uuid.UUID
	if p.Jobs != nil {
		job, err := p.Jobs.Start(ctx, key)
		if err != nil {
			log.Warn("pipeline.ledger.start_failed", "err", err)
		} else {
			jobID = job.ID
		}
	}

	record, outKey, err := p.process(ctx, key, log)
	if err != nil {
		log.Error("pipeline.process.failed", "err", err)
		p.finishFailure(ctx, jobID, err, log)
		return nil, err
	}

	if jobID != uuid.Nil {
		res := entity.JobResult{
			ContractID:       record.ContractID,
			PayerID:          record.PayerID,
			Confidence:       record.ExtractionMetadata.ConfidenceScore,
			ParserMethod:     record.ExtractionMetadata.ParserMethod,
			OutputKey:        outKey,
			ValidationErrors: record.ExtractionMetadata.ValidationErrors,
		}
		if err := p.Jobs.FinishSuccess(ctx, jobID, res); err != nil {
			log.Warn("pipeline.ledger.finish_failed", "job_id", jobID, "err", err)
		}
	}
	log.Info("pipeline.process.ok",
		"contract_id", record.ContractID,
		"output_key", outKey,
		"confidence", record.ExtractionMetadata.ConfidenceScore,
	)
	return &record, nil
}

func (p *Processor) process(ctx context.Context, key string, log *slog.Logger) (schema.ContractRecord, string, error) {
	dir, err := os.MkdirTemp(p.Cfg.TempDir, "contract-")
	if err != nil {
		return schema.ContractRecord{}, "", fmt.Errorf("%w: create temp dir: %w", common.ErrInternal, err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Warn("pipeline.cleanup.failed", "dir", dir, "err", err)
		}
	}()

	local := filepath.Join(dir, uuid.NewString()+"."+constants.DocumentExt)
	if err := p.Store.Download(ctx, p.Cfg.RawBucket, key, local); err != nil {
		return schema.ContractRecord{}, "", common.WrapError(err, "download "+key)
	}
	log.Debug("pipeline.download.ok", "path", local)

	record, err := p.Parse.Run(ctx, local, key)
	if err != nil {
		return schema.ContractRecord{}, "", err
	}

	outKey := storage.OutputKey(record, key, p.Clock.Now())
	if err := p.Store.PutJSON(ctx, p.Cfg.ProcessedBucket, outKey, record); err != nil {
		return schema.ContractRecord{}, "", common.WrapError(err, "upload "+outKey)
	}
	return record, outKey, nil
}

func (p *Processor) finishFailure(ctx context.Context, jobID uuid.UUID, cause error, log *slog.Logger) {
	if jobID == uuid.Nil {
		return
	}
	if err := p.Jobs.FinishFailure(ctx, jobID, cause.Error()); err != nil {
		log.Warn("pipeline.ledger.finish_failed", "job_id", jobID, "err", err)
	}
}

// ProcessEvent processes every matching record of ev and returns the
// contract ids written. Failed records are logged and skipped.
func (p *Processor) ProcessEvent(ctx context.Context, ev events.Event) []string {
	keys := events.Filter(ev, p.Cfg.RawBucket, p.Logger)
	ids := make([]string, 0, len(keys))
	for i, key := range keys {
		if ctx.Err() != nil {
			p.Logger.Warn("pipeline.event.cancelled", "remaining", len(keys)-i)
			break
		}
		record, err := p.ProcessKey(ctx, key)
		if err != nil {
			continue
		}
		ids = append(ids, record.ContractID)
	}
	p.Logger.Info("pipeline.event.done", "records", len(ev.Records), "processed", len(ids))
	return ids
}
