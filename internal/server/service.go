package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/contract-extractor/internal/async"
	"github.com/joseph-ayodele/contract-extractor/internal/common"
	"github.com/joseph-ayodele/contract-extractor/internal/events"
	"github.com/joseph-ayodele/contract-extractor/internal/schema"
)

// ExtractionService is shared by the HTTP and gRPC surfaces.
type ExtractionService struct {
	proc      async.KeyProcessor
	queue     async.Queue
	rawBucket string
	logger    *slog.Logger
}

func NewExtractionService(proc async.KeyProcessor, queue async.Queue, rawBucket string, logger *slog.Logger) *ExtractionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractionService{proc: proc, queue: queue, rawBucket: rawBucket, logger: logger}
}

// ProcessDocument runs one raw-bucket key synchronously.
func (s *ExtractionService) ProcessDocument(ctx context.Context, key string) (*schema.ContractRecord, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("%w: key is required", common.ErrInvalidInput)
	}
	s.logger.Info("server.process_document", "key", key, "request_id", common.RequestIDFromContext(ctx))
	return s.proc.ProcessKey(ctx, key)
}

// SubmitEvent queues every matching record of ev and returns how many
// were queued.
func (s *ExtractionService) SubmitEvent(ctx context.Context, ev events.Event) (int, error) {
	keys := events.Filter(ev, s.rawBucket, s.logger)
	requestID := common.RequestIDFromContext(ctx)
	queued := 0
	for _, key := range keys {
		job := async.Job{Key: key, SubmittedAt: time.Now(), RequestID: requestID}
		if err := s.queue.Enqueue(ctx, job); err != nil {
			return queued, err
		}
		queued++
	}
	s.logger.Info("server.submit_event", "records", len(ev.Records), "queued", queued, "request_id", requestID)
	return queued, nil
}
