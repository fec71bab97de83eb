package models

import (
	"time"

	"github.com/google/uuid"
)

type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusCompleted  DocumentStatus = "completed"
	DocumentStatusFailed     DocumentStatus = "failed"
)

type Document struct {
	ID               uuid.UUID      `db:"id"`
	UserID           uuid.UUID      `db:"user_id"`
	OriginalFilename string         `db:"original_filename"`
	Status           DocumentStatus `db:"status"`
	OCRText          *string        `db:"ocr_text"`
	WordCount        *int           `db:"word_count"`
	ProcessingTime   *float64       `db:"processing_time"`
	ErrorMessage     *string        `db:"error_message"`
	FilePath         string         `db:"file_path"`
	CreatedAt        time.Time      `db:"created_at"`
}

// DocumentUpdate carries the optional result fields of a status update.
// Nil pointers leave the column untouched; ClearError nulls error_message.
type DocumentUpdate struct {
	OCRText        *string
	WordCount      *int
	ProcessingTime *float64
	ErrorMessage   *string
	ClearError     bool
}
