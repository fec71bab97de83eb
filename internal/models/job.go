package models

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// OCRJob tracks the processing lifecycle of a single document.
// Attempts counts processing attempts started and never decreases.
// LastAttemptedAt doubles as the "not eligible before" marker when a
// retry is scheduled in the future.
type OCRJob struct {
	ID              uuid.UUID  `db:"id"`
	DocumentID      uuid.UUID  `db:"document_id"`
	Status          JobStatus  `db:"status"`
	Attempts        int        `db:"attempts"`
	LastAttemptedAt *time.Time `db:"last_attempted_at"`
	ErrorMessage    *string    `db:"error_message"`
	CreatedAt       time.Time  `db:"created_at"`
}
