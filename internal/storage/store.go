package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/contract-extractor/constants"
	"github.com/joseph-ayodele/contract-extractor/internal/common"
	"github.com/joseph-ayodele/contract-extractor/internal/schema"
)

// ObjectStore reads source documents and writes records. Implementations
// do not retry; transport failures wrap common.ErrTransport and missing
// objects wrap common.ErrNotFound.
type ObjectStore interface {
	Download(ctx context.Context, bucket, key, dst string) error
	PutJSON(ctx context.Context, bucket, key string, v any) error
	GetJSON(ctx context.Context, bucket, key string, v any) error
	List(ctx context.Context, bucket, prefix, suffix string) ([]string, error)
	Exists(ctx context.Context, bucket, key string) (bool, error)
	Delete(ctx context.Context, bucket, key string) error
}

// BucketEnsurer is implemented by stores that can create a missing bucket.
type BucketEnsurer interface {
	EnsureBucket(ctx context.Context, bucket string) error
}

// New builds the store selected by cfg.Backend ("s3" or "fs").
func New(cfg common.StorageConfig, logger *slog.Logger) (ObjectStore, error) {
	switch cfg.Backend {
	case "", "s3":
		return NewMinioStore(cfg, logger)
	case "fs":
		return NewFSStore(cfg.LocalRoot, logger)
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", common.ErrInvalidInput, cfg.Backend)
	}
}

// RecordPrefix is the top-level prefix of every output key.
const RecordPrefix = "contracts/"

// OutputKey partitions a record by payer and contract date:
// contracts/payer=<payer_id>/contract_date=<effective_date>/<basename>.json.
// A missing payer id becomes "unknown" and a missing effective date
// becomes now's UTC date.
func OutputKey(r schema.ContractRecord, sourceKey string, now time.Time) string {
	payerID := r.PayerID
	if payerID == "" {
		payerID = "unknown"
	}
	contractDate := r.EffectiveDate
	if contractDate == "" {
		contractDate = now.UTC().Format("2006-01-02")
	}
	return fmt.Sprintf("%spayer=%s/contract_date=%s/%s.json",
		RecordPrefix, payerID, contractDate, constants.DocumentBaseName(sourceKey))
}
