package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/joseph-ayodele/contract-extractor/internal/async"
	"github.com/joseph-ayodele/contract-extractor/internal/common"
	"github.com/joseph-ayodele/contract-extractor/internal/schema"
)

type stubProcessor struct{}

func (stubProcessor) ProcessKey(_ context.Context, key string) (*schema.ContractRecord, error) {
	switch key {
	case "missing.pdf":
		return nil, fmt.Errorf("download %s: %w", key, common.ErrNotFound)
	case "blank.pdf":
		return nil, fmt.Errorf("parse %s: %w", key, common.ErrNoResult)
	}
	return &schema.ContractRecord{
		ContractID:    "CTR-2024-001",
		EffectiveDate: "2024-01-15",
		RateSchedules: []schema.RateLineItem{{CPTCode: "99213", RateType: "FEE_SCHEDULE", RateAmount: 125.5, RateUnit: "EACH"}},
		Amendments:    []schema.Amendment{},
		ExtractionMetadata: schema.ExtractionMetadata{
			ConfidenceScore:  0.75,
			SourceFile:       key,
			ExtractorVersion: "1.0.0",
		},
	}, nil
}

type fakeQueue struct {
	mu     sync.Mutex
	jobs   []async.Job
	closed bool
}

func (q *fakeQueue) Enqueue(_ context.Context, job async.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return async.ErrQueueClosed
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *fakeQueue) Shutdown(context.Context) {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}

func (q *fakeQueue) keys() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, 0, len(q.jobs))
	for _, j := range q.jobs {
		out = append(out, j.Key)
	}
	return out
}

const testEvent = `{"Records": [
	{"s3": {"bucket": {"name": "raw"}, "object": {"key": "incoming/a.pdf"}}},
	{"s3": {"bucket": {"name": "raw"}, "object": {"key": "incoming/b+c.pdf"}}},
	{"s3": {"bucket": {"name": "other"}, "object": {"key": "x.pdf"}}},
	{"s3": {"bucket": {"name": "raw"}, "object": {"key": "notes.txt"}}}
]}`

func newTestService() (*ExtractionService, *fakeQueue) {
	q := &fakeQueue{}
	return NewExtractionService(stubProcessor{}, q, "raw", nil), q
}
