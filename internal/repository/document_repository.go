package repository

import (
	"context"
	"errors"

	"docuscan/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ErrDocumentNotFound is returned when no document row matches the given ID.
// Callers use it to tell a missing document apart from a store failure.
var ErrDocumentNotFound = errors.New("document not found")

const documentColumns = "id, user_id, original_filename, status, ocr_text, word_count, processing_time, error_message, file_path, created_at"

type DocumentRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewDocumentRepository(db *pgxpool.Pool, logger *zap.Logger) *DocumentRepository {
	return &DocumentRepository{
		db:     db,
		logger: logger,
	}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := squirrel.Insert("documents").
		Columns("id", "user_id", "original_filename", "status", "file_path", "created_at").
		Values(doc.ID, doc.UserID, doc.OriginalFilename, doc.Status, doc.FilePath, doc.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	query := squirrel.Select(documentColumns).
		From("documents").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var doc models.Document
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&doc.ID, &doc.UserID, &doc.OriginalFilename, &doc.Status, &doc.OCRText,
		&doc.WordCount, &doc.ProcessingTime, &doc.ErrorMessage, &doc.FilePath, &doc.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}

	return &doc, nil
}

// UpdateStatus sets the lifecycle status and any result fields present in upd.
func (r *DocumentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.DocumentStatus, upd models.DocumentUpdate) error {
	query := squirrel.Update("documents").
		Set("status", status).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	if upd.OCRText != nil {
		query = query.Set("ocr_text", *upd.OCRText)
	}
	if upd.WordCount != nil {
		query = query.Set("word_count", *upd.WordCount)
	}
	if upd.ProcessingTime != nil {
		query = query.Set("processing_time", *upd.ProcessingTime)
	}
	if upd.ErrorMessage != nil {
		query = query.Set("error_message", *upd.ErrorMessage)
	} else if upd.ClearError {
		query = query.Set("error_message", nil)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *DocumentRepository) ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Document, error) {
	query := squirrel.Select(documentColumns).
		From("documents").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var documents []*models.Document
	for rows.Next() {
		var doc models.Document
		if err := rows.Scan(
			&doc.ID, &doc.UserID, &doc.OriginalFilename, &doc.Status, &doc.OCRText,
			&doc.WordCount, &doc.ProcessingTime, &doc.ErrorMessage, &doc.FilePath, &doc.CreatedAt,
		); err != nil {
			return nil, err
		}
		documents = append(documents, &doc)
	}

	return documents, rows.Err()
}
