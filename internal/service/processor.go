package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docuscan/internal/models"
	"docuscan/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobStore is the persistence contract the processor needs from the
// ocr_jobs table. ClaimNextEligible must be safe under concurrent
// invocations: at most one caller receives any given job.
type JobStore interface {
	ClaimNextEligible(ctx context.Context) (*models.OCRJob, error)
	MarkProcessing(ctx context.Context, id uuid.UUID, attempt int) error
	MarkCompleted(ctx context.Context, id uuid.UUID) error
	MarkFailedPermanent(ctx context.Context, id uuid.UUID, message string) error
	ScheduleRetry(ctx context.Context, id uuid.UUID, message string, notBefore time.Time) error
}

type DocumentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.DocumentStatus, upd models.DocumentUpdate) error
}

type FileStorage interface {
	Download(ctx context.Context, ref string) (data []byte, mimeType string, err error)
}

type TextExtractor interface {
	Extract(ctx context.Context, data []byte, mimeType string) (*ExtractionResult, error)
}

// CreditLedger debits one credit per successfully processed document.
type CreditLedger interface {
	DeductCredit(ctx context.Context, userID uuid.UUID) error
}

type ProcessOutcome string

const (
	OutcomeNoWork          ProcessOutcome = "no_work"
	OutcomeCompleted       ProcessOutcome = "completed"
	OutcomeRetryScheduled  ProcessOutcome = "retry_scheduled"
	OutcomeFailedPermanent ProcessOutcome = "failed_permanent"
)

type ProcessResult struct {
	Outcome ProcessOutcome
	JobID   uuid.UUID
	Attempt int
	Message string
}

// QueueProcessorConfig holds the invocation-level bounds and policy toggles.
type QueueProcessorConfig struct {
	DownloadTimeout   time.Duration
	ExtractionTimeout time.Duration
	// RetryBlocked treats safety-filter rejections like transient failures.
	// Off by default: a blocked input stays blocked on retry.
	RetryBlocked bool
}

// QueueProcessor drives one OCR job per invocation: claim, download,
// extract, then apply the success or retry transition to both stores.
// Concurrency safety comes entirely from the store's atomic claim; the
// processor itself holds no shared state.
type QueueProcessor struct {
	jobs      JobStore
	documents DocumentStore
	storage   FileStorage
	extractor TextExtractor
	ledger    CreditLedger
	cfg       QueueProcessorConfig
	logger    *zap.Logger
	now       func() time.Time
}

func NewQueueProcessor(
	jobs JobStore,
	documents DocumentStore,
	storage FileStorage,
	extractor TextExtractor,
	ledger CreditLedger,
	cfg QueueProcessorConfig,
	logger *zap.Logger,
) *QueueProcessor {
	return &QueueProcessor{
		jobs:      jobs,
		documents: documents,
		storage:   storage,
		extractor: extractor,
		ledger:    ledger,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// ProcessNext claims and processes at most one eligible job. A nil error
// with OutcomeNoWork means the queue was empty; errors are reserved for
// unexpected infrastructure failures at the invocation boundary.
func (p *QueueProcessor) ProcessNext(ctx context.Context) (*ProcessResult, error) {
	job, err := p.jobs.ClaimNextEligible(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}
	if job == nil {
		return &ProcessResult{Outcome: OutcomeNoWork}, nil
	}

	p.logger.Info("Claimed OCR job",
		zap.String("job_id", job.ID.String()),
		zap.String("document_id", job.DocumentID.String()),
		zap.Int("previous_attempts", job.Attempts),
	)

	doc, err := p.documents.GetByID(ctx, job.DocumentID)
	if err != nil && !errors.Is(err, repository.ErrDocumentNotFound) {
		// Transient store failure, not an integrity problem: requeue the
		// job without consuming an attempt and surface the error.
		if schedErr := p.jobs.ScheduleRetry(ctx, job.ID, fmt.Sprintf("failed to load document: %v", err), p.now()); schedErr != nil {
			p.logger.Error("Failed to requeue job", zap.Error(schedErr), zap.String("job_id", job.ID.String()))
		}
		return nil, fmt.Errorf("failed to load document %s: %w", job.DocumentID, err)
	}
	if doc == nil || doc.FilePath == "" {
		// Data-integrity failure: no retry can restore a missing document
		// or storage reference.
		msg := fmt.Sprintf("document %s is missing or has no storage reference", job.DocumentID)
		if markErr := p.jobs.MarkFailedPermanent(ctx, job.ID, msg); markErr != nil {
			p.logger.Error("Failed to mark job failed", zap.Error(markErr), zap.String("job_id", job.ID.String()))
		}
		if doc != nil {
			p.updateDocument(ctx, doc.ID, models.DocumentStatusFailed, models.DocumentUpdate{ErrorMessage: &msg})
		}
		return &ProcessResult{Outcome: OutcomeFailedPermanent, JobID: job.ID, Message: msg}, nil
	}

	attempt := job.Attempts + 1
	if attempt > MaxRetries {
		msg := "Maximum retry attempts exceeded"
		if markErr := p.jobs.MarkFailedPermanent(ctx, job.ID, msg); markErr != nil {
			p.logger.Error("Failed to mark job failed", zap.Error(markErr), zap.String("job_id", job.ID.String()))
		}
		p.updateDocument(ctx, doc.ID, models.DocumentStatusFailed, models.DocumentUpdate{ErrorMessage: &msg})
		return &ProcessResult{Outcome: OutcomeFailedPermanent, JobID: job.ID, Attempt: attempt, Message: msg}, nil
	}

	if err := p.jobs.MarkProcessing(ctx, job.ID, attempt); err != nil {
		return nil, fmt.Errorf("failed to mark job processing: %w", err)
	}
	// Keeping the document's user-visible status in sync is best effort.
	p.updateDocument(ctx, doc.ID, models.DocumentStatusProcessing, models.DocumentUpdate{})

	downloadCtx, cancel := context.WithTimeout(ctx, p.cfg.DownloadTimeout)
	data, mimeType, err := p.storage.Download(downloadCtx, doc.FilePath)
	cancel()
	if err != nil {
		return p.handleFailure(ctx, job, doc, attempt, fmt.Sprintf("failed to download file: %v", err), true), nil
	}

	extractCtx, cancel := context.WithTimeout(ctx, p.cfg.ExtractionTimeout)
	result, err := p.extractor.Extract(extractCtx, data, mimeType)
	cancel()
	if err != nil {
		return p.handleFailure(ctx, job, doc, attempt, err.Error(), p.isRetryable(err)), nil
	}

	text := sanitizeUTF8(result.Text)
	// Count after sanitizing so the stored count always matches the stored
	// text.
	wordCount := countWords(text)
	procTime := result.ProcessingTime

	p.updateDocument(ctx, doc.ID, models.DocumentStatusCompleted, models.DocumentUpdate{
		OCRText:        &text,
		WordCount:      &wordCount,
		ProcessingTime: &procTime,
		ClearError:     true,
	})

	if err := p.jobs.MarkCompleted(ctx, job.ID); err != nil {
		p.logger.Error("Failed to mark job completed", zap.Error(err), zap.String("job_id", job.ID.String()))
	}

	// Billing is fire and forget: a successful extraction is never undone
	// because the debit failed.
	if err := p.ledger.DeductCredit(ctx, doc.UserID); err != nil {
		p.logger.Error("Failed to deduct credit",
			zap.Error(err),
			zap.String("user_id", doc.UserID.String()),
			zap.String("document_id", doc.ID.String()),
		)
	}

	p.logger.Info("OCR job completed",
		zap.String("job_id", job.ID.String()),
		zap.Int("attempt", attempt),
		zap.Int("word_count", wordCount),
		zap.String("method", result.Method),
	)

	return &ProcessResult{Outcome: OutcomeCompleted, JobID: job.ID, Attempt: attempt}, nil
}

// handleFailure applies the retry policy after a failed download or
// extraction. The attempt is already consumed at this point.
func (p *QueueProcessor) handleFailure(ctx context.Context, job *models.OCRJob, doc *models.Document, attempt int, detail string, retryable bool) *ProcessResult {
	decision := DecideRetry(attempt)

	if !retryable || !decision.Retry {
		if err := p.jobs.MarkFailedPermanent(ctx, job.ID, detail); err != nil {
			p.logger.Error("Failed to mark job failed", zap.Error(err), zap.String("job_id", job.ID.String()))
		}
		docMsg := "OCR failed: " + detail
		p.updateDocument(ctx, doc.ID, models.DocumentStatusFailed, models.DocumentUpdate{ErrorMessage: &docMsg})

		p.logger.Warn("OCR job failed permanently",
			zap.String("job_id", job.ID.String()),
			zap.Int("attempt", attempt),
			zap.String("detail", detail),
		)
		return &ProcessResult{Outcome: OutcomeFailedPermanent, JobID: job.ID, Attempt: attempt, Message: detail}
	}

	notBefore := p.now().Add(decision.Delay)
	if err := p.jobs.ScheduleRetry(ctx, job.ID, detail, notBefore); err != nil {
		p.logger.Error("Failed to schedule retry", zap.Error(err), zap.String("job_id", job.ID.String()))
	}
	// The document stays visibly in progress across retries.
	docMsg := fmt.Sprintf("attempt %d failed, retrying", attempt)
	p.updateDocument(ctx, doc.ID, models.DocumentStatusProcessing, models.DocumentUpdate{ErrorMessage: &docMsg})

	p.logger.Warn("OCR job failed, retry scheduled",
		zap.String("job_id", job.ID.String()),
		zap.Int("attempt", attempt),
		zap.Duration("delay", decision.Delay),
		zap.String("detail", detail),
	)
	return &ProcessResult{Outcome: OutcomeRetryScheduled, JobID: job.ID, Attempt: attempt, Message: detail}
}

// isRetryable classifies extraction failures. Safety-filter blocks are
// permanent unless RetryBlocked is set; everything else is treated as
// transient infrastructure failure.
func (p *QueueProcessor) isRetryable(err error) bool {
	var extErr *ExtractionError
	if errors.As(err, &extErr) && extErr.Kind == KindBlocked {
		return p.cfg.RetryBlocked
	}
	return true
}

// updateDocument logs and swallows store errors: document status is a
// secondary record and must not change the job's outcome.
func (p *QueueProcessor) updateDocument(ctx context.Context, id uuid.UUID, status models.DocumentStatus, upd models.DocumentUpdate) {
	if err := p.documents.UpdateStatus(ctx, id, status, upd); err != nil {
		p.logger.Warn("Failed to update document status",
			zap.Error(err),
			zap.String("document_id", id.String()),
			zap.String("status", string(status)),
		)
	}
}
