package async

import (
	"context"
	"errors"
	"time"

	"github.com/joseph-ayodele/contract-extractor/internal/schema"
)

// ErrQueueClosed is returned by Enqueue after Shutdown has started.
var ErrQueueClosed = errors.New("queue is shutting down")

// Job is one raw-bucket object waiting to be processed.
type Job struct {
	Key         string
	SubmittedAt time.Time
	RequestID   string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

// KeyProcessor is the part of pipeline.Processor the queue needs.
type KeyProcessor interface {
	ProcessKey(ctx context.Context, key string) (*schema.ContractRecord, error)
}
