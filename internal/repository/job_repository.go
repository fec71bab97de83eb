package repository

import (
	"context"
	"errors"
	"time"

	"docuscan/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const jobColumns = "id, document_id, status, attempts, last_attempted_at, error_message, created_at"

type JobRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewJobRepository(db *pgxpool.Pool, logger *zap.Logger) *JobRepository {
	return &JobRepository{
		db:     db,
		logger: logger,
	}
}

func (r *JobRepository) Create(ctx context.Context, job *models.OCRJob) error {
	query := squirrel.Insert("ocr_jobs").
		Columns("id", "document_id", "status", "attempts", "created_at").
		Values(job.ID, job.DocumentID, job.Status, job.Attempts, job.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

// ClaimNextEligible flips the oldest eligible pending job to processing and
// returns it, or nil when no job qualifies. Eligibility means status=pending
// and last_attempted_at either never set or not in the future; never-tried
// jobs sort before jobs awaiting retry. The conditional UPDATE over a
// FOR UPDATE SKIP LOCKED subselect guarantees at most one claimer per job
// even with overlapping invocations.
func (r *JobRepository) ClaimNextEligible(ctx context.Context) (*models.OCRJob, error) {
	query := squirrel.Update("ocr_jobs").
		Set("status", models.JobStatusProcessing).
		Where(`id = (
			SELECT id FROM ocr_jobs
			WHERE status = 'pending'
			  AND (last_attempted_at IS NULL OR last_attempted_at <= NOW())
			ORDER BY last_attempted_at ASC NULLS FIRST
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)`).
		Where(squirrel.Eq{"status": models.JobStatusPending}).
		Suffix("RETURNING " + jobColumns).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var job models.OCRJob
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&job.ID, &job.DocumentID, &job.Status, &job.Attempts, &job.LastAttemptedAt, &job.ErrorMessage, &job.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &job, nil
}

// MarkProcessing records the start of the given attempt.
func (r *JobRepository) MarkProcessing(ctx context.Context, id uuid.UUID, attempt int) error {
	query := squirrel.Update("ocr_jobs").
		Set("status", models.JobStatusProcessing).
		Set("attempts", attempt).
		Set("last_attempted_at", squirrel.Expr("NOW()")).
		Set("error_message", nil).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *JobRepository) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	query := squirrel.Update("ocr_jobs").
		Set("status", models.JobStatusCompleted).
		Set("error_message", nil).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *JobRepository) MarkFailedPermanent(ctx context.Context, id uuid.UUID, message string) error {
	query := squirrel.Update("ocr_jobs").
		Set("status", models.JobStatusFailed).
		Set("error_message", message).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

// ScheduleRetry puts the job back in the pending pool with a future
// last_attempted_at so the claim query defers it until notBefore.
func (r *JobRepository) ScheduleRetry(ctx context.Context, id uuid.UUID, message string, notBefore time.Time) error {
	query := squirrel.Update("ocr_jobs").
		Set("status", models.JobStatusPending).
		Set("error_message", message).
		Set("last_attempted_at", notBefore).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.OCRJob, error) {
	query := squirrel.Select(jobColumns).
		From("ocr_jobs").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var job models.OCRJob
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&job.ID, &job.DocumentID, &job.Status, &job.Attempts, &job.LastAttemptedAt, &job.ErrorMessage, &job.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &job, nil
}
