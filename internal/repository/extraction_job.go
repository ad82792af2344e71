package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/contract-extractor/constants"
	"github.com/joseph-ayodele/contract-extractor/internal/common"
	"github.com/joseph-ayodele/contract-extractor/internal/entity"
)

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type ExtractionJobRepository interface {
	Start(ctx context.Context, sourceKey string) (*entity.ExtractionJob, error)
	FinishSuccess(ctx context.Context, jobID uuid.UUID, res entity.JobResult) error
	FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error
	Get(ctx context.Context, jobID uuid.UUID) (*entity.ExtractionJob, error)
	ListRecent(ctx context.Context, limit int) ([]*entity.ExtractionJob, error)
}

type extractionJobRepo struct {
	db    *DB
	clock common.Clock
	log   *slog.Logger
}

func NewExtractionJobRepository(db *DB, clock common.Clock, log *slog.Logger) ExtractionJobRepository {
	if log == nil {
		log = slog.Default()
	}
	return &extractionJobRepo{db: db, clock: common.ClockOrSystem(clock), log: log}
}

type jobRow struct {
	ID               string          `db:"id"`
	SourceKey        string          `db:"source_key"`
	Status           string          `db:"status"`
	ContractID       sql.NullString  `db:"contract_id"`
	PayerID          sql.NullString  `db:"payer_id"`
	Confidence       sql.NullFloat64 `db:"confidence"`
	ParserMethod     sql.NullString  `db:"parser_method"`
	OutputKey        sql.NullString  `db:"output_key"`
	ValidationErrors sql.NullString  `db:"validation_errors"`
	ErrorMessage     sql.NullString  `db:"error_message"`
	StartedAt        string          `db:"started_at"`
	FinishedAt       sql.NullString  `db:"finished_at"`
}

const jobColumns = `id, source_key, status, contract_id, payer_id, confidence, parser_method,
	output_key, validation_errors, error_message, started_at, finished_at`

func (r *extractionJobRepo) now() time.Time { return r.clock.Now().UTC() }

func (r *extractionJobRepo) Start(ctx context.Context, sourceKey string) (*entity.ExtractionJob, error) {
	job := &entity.ExtractionJob{
		ID:        uuid.New(),
		SourceKey: sourceKey,
		Status:    constants.JobStatusRunning,
		StartedAt: r.now(),
	}
	q := r.db.Rebind(`INSERT INTO extraction_job (id, source_key, status, started_at) VALUES (?, ?, ?, ?)`)
	if _, err := r.db.ExecContext(ctx, q, job.ID.String(), sourceKey, string(job.Status), job.StartedAt.Format(timeLayout)); err != nil {
		r.log.Error("extraction_job start failed", "source_key", sourceKey, "err", err)
		return nil, fmt.Errorf("%w: insert extraction_job: %v", common.ErrDatabase, err)
	}
	r.log.Debug("extraction_job started", "job_id", job.ID, "source_key", sourceKey)
	return job, nil
}

func (r *extractionJobRepo) FinishSuccess(ctx context.Context, jobID uuid.UUID, res entity.JobResult) error {
	var verrs sql.NullString
	if len(res.ValidationErrors) > 0 {
		b, err := json.Marshal(res.ValidationErrors)
		if err != nil {
			return fmt.Errorf("encode validation errors: %w", err)
		}
		verrs = sql.NullString{String: string(b), Valid: true}
	}
	q := r.db.Rebind(`UPDATE extraction_job SET status = ?, contract_id = ?, payer_id = ?, confidence = ?,
		parser_method = ?, output_key = ?, validation_errors = ?, finished_at = ? WHERE id = ?`)
	return r.update(ctx, jobID, q,
		string(constants.JobStatusSucceeded),
		res.ContractID,
		nullable(res.PayerID),
		res.Confidence,
		nullable(res.ParserMethod),
		res.OutputKey,
		verrs,
		r.now().Format(timeLayout),
		jobID.String(),
	)
}

func (r *extractionJobRepo) FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error {
	q := r.db.Rebind(`UPDATE extraction_job SET status = ?, error_message = ?, finished_at = ? WHERE id = ?`)
	if err := r.update(ctx, jobID, q, string(constants.JobStatusFailed), message, r.now().Format(timeLayout), jobID.String()); err != nil {
		return err
	}
	r.log.Warn("extraction_job finished (FAILED)", "job_id", jobID, "error", message)
	return nil
}

func (r *extractionJobRepo) update(ctx context.Context, jobID uuid.UUID, q string, args ...any) error {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		r.log.Error("extraction_job update failed", "job_id", jobID, "err", err)
		return fmt.Errorf("%w: update extraction_job: %v", common.ErrDatabase, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: extraction_job %s", common.ErrNotFound, jobID)
	}
	return nil
}

func (r *extractionJobRepo) Get(ctx context.Context, jobID uuid.UUID) (*entity.ExtractionJob, error) {
	var row jobRow
	q := r.db.Rebind(`SELECT ` + jobColumns + ` FROM extraction_job WHERE id = ?`)
	if err := r.db.GetContext(ctx, &row, q, jobID.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: extraction_job %s", common.ErrNotFound, jobID)
		}
		return nil, fmt.Errorf("%w: get extraction_job: %v", common.ErrDatabase, err)
	}
	return row.toEntity()
}

// ListRecent returns the newest attempts first. limit <= 0 means 20.
func (r *extractionJobRepo) ListRecent(ctx context.Context, limit int) ([]*entity.ExtractionJob, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []jobRow
	q := r.db.Rebind(`SELECT ` + jobColumns + ` FROM extraction_job ORDER BY started_at DESC, id LIMIT ?`)
	if err := r.db.SelectContext(ctx, &rows, q, limit); err != nil {
		return nil, fmt.Errorf("%w: list extraction_job: %v", common.ErrDatabase, err)
	}
	jobs := make([]*entity.ExtractionJob, 0, len(rows))
	for _, row := range rows {
		job, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (row jobRow) toEntity() (*entity.ExtractionJob, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: bad job id %q: %v", common.ErrDatabase, row.ID, err)
	}
	started, err := time.Parse(timeLayout, row.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: bad started_at %q: %v", common.ErrDatabase, row.StartedAt, err)
	}
	job := &entity.ExtractionJob{
		ID:           id,
		SourceKey:    row.SourceKey,
		Status:       constants.JobStatus(row.Status),
		ContractID:   stringPtr(row.ContractID),
		PayerID:      stringPtr(row.PayerID),
		ParserMethod: stringPtr(row.ParserMethod),
		OutputKey:    stringPtr(row.OutputKey),
		ErrorMessage: stringPtr(row.ErrorMessage),
		StartedAt:    started,
	}
	if row.Confidence.Valid {
		c := row.Confidence.Float64
		job.Confidence = &c
	}
	if row.ValidationErrors.Valid && row.ValidationErrors.String != "" {
		if err := json.Unmarshal([]byte(row.ValidationErrors.String), &job.ValidationErrors); err != nil {
			return nil, fmt.Errorf("%w: bad validation_errors: %v", common.ErrDatabase, err)
		}
	}
	if row.FinishedAt.Valid {
		finished, err := time.Parse(timeLayout, row.FinishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("%w: bad finished_at %q: %v", common.ErrDatabase, row.FinishedAt.String, err)
		}
		job.FinishedAt = &finished
	}
	return job, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
