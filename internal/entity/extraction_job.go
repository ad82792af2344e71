package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/contract-extractor/constants"
)

// ExtractionJob is one processing attempt for a source document.
type ExtractionJob struct {
	ID               uuid.UUID           `json:"id"`
	SourceKey        string              `json:"source_key"`
	Status           constants.JobStatus `json:"status"`
	ContractID       *string             `json:"contract_id,omitempty"`
	PayerID          *string             `json:"payer_id,omitempty"`
	Confidence       *float64            `json:"confidence,omitempty"`
	ParserMethod     *string             `json:"parser_method,omitempty"`
	OutputKey        *string             `json:"output_key,omitempty"`
	ValidationErrors []string            `json:"validation_errors,omitempty"`
	ErrorMessage     *string             `json:"error_message,omitempty"`
	StartedAt        time.Time           `json:"started_at"`
	FinishedAt       *time.Time          `json:"finished_at,omitempty"`
}

// JobResult carries the outcome of a successful attempt.
type JobResult struct {
	ContractID       string
	PayerID          string
	Confidence       float64
	ParserMethod     string
	OutputKey        string
	ValidationErrors []string
}
