package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"docuscan/internal/dto"
	"docuscan/internal/models"
	"docuscan/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrDocumentNotFound = errors.New("document not found")

var supportedExtensions = []string{".jpg", ".jpeg", ".png", ".pdf"}

// DocumentService is the CRUD surface around the queue: it accepts uploads,
// creates pending documents and OCR jobs, and reads back results. All state
// transitions after submission belong to the QueueProcessor.
type DocumentService struct {
	docs      *repository.DocumentRepository
	jobs      *repository.JobRepository
	users     *repository.UserRepository
	storage   *LocalStorage
	processor *QueueProcessor
	logger    *zap.Logger
}

func NewDocumentService(
	docs *repository.DocumentRepository,
	jobs *repository.JobRepository,
	users *repository.UserRepository,
	storage *LocalStorage,
	processor *QueueProcessor,
	logger *zap.Logger,
) *DocumentService {
	return &DocumentService{
		docs:      docs,
		jobs:      jobs,
		users:     users,
		storage:   storage,
		processor: processor,
		logger:    logger,
	}
}

// Upload stores the file and creates a pending document record.
func (s *DocumentService) Upload(ctx context.Context, userID uuid.UUID, file io.Reader, fileName string) (*dto.DocumentResponse, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	supported := false
	for _, e := range supportedExtensions {
		if ext == e {
			supported = true
			break
		}
	}
	if !supported {
		return nil, fmt.Errorf("unsupported file format: %s (supported: jpg, jpeg, png, pdf)", ext)
	}

	ref, err := s.storage.Save(ctx, file, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	doc := &models.Document{
		ID:               uuid.New(),
		UserID:           userID,
		OriginalFilename: fileName,
		Status:           models.DocumentStatusPending,
		FilePath:         ref,
		CreatedAt:        time.Now(),
	}

	if err := s.docs.Create(ctx, doc); err != nil {
		if delErr := s.storage.Delete(ctx, ref); delErr != nil {
			s.logger.Warn("Failed to clean up stored file", zap.Error(delErr), zap.String("ref", ref))
		}
		return nil, fmt.Errorf("failed to create document record: %w", err)
	}

	return documentToResponse(doc), nil
}

// RequestProcessing verifies ownership and credit balance, then enqueues an
// OCR job for the document. The queue is kicked best effort; an external
// cron drains anything the kick misses.
func (s *DocumentService) RequestProcessing(ctx context.Context, userID, documentID uuid.UUID) (*dto.ProcessRequestResponse, error) {
	doc, err := s.getOwned(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, doc.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user.CreditBalance < 1 {
		msg := "Insufficient credits"
		if updErr := s.docs.UpdateStatus(ctx, doc.ID, models.DocumentStatusFailed, models.DocumentUpdate{ErrorMessage: &msg}); updErr != nil {
			s.logger.Warn("Failed to mark document failed", zap.Error(updErr))
		}
		return nil, repository.ErrInsufficientCredits
	}

	job := &models.OCRJob{
		ID:         uuid.New(),
		DocumentID: doc.ID,
		Status:     models.JobStatusPending,
		CreatedAt:  time.Now(),
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create OCR job: %w", err)
	}

	s.kickQueue()

	return &dto.ProcessRequestResponse{
		JobID:      job.ID.String(),
		DocumentID: doc.ID.String(),
		Status:     string(job.Status),
	}, nil
}

// kickQueue runs one processor invocation in the background so a fresh
// upload does not wait for the next cron tick.
func (s *DocumentService) kickQueue() {
	if s.processor == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := s.processor.ProcessNext(ctx); err != nil {
			s.logger.Error("Background queue invocation failed", zap.Error(err))
		}
	}()
}

func (s *DocumentService) Get(ctx context.Context, userID, documentID uuid.UUID) (*dto.DocumentResponse, error) {
	doc, err := s.getOwned(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}
	return documentToResponse(doc), nil
}

func (s *DocumentService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*dto.DocumentResponse, error) {
	docs, err := s.docs.ListByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.DocumentResponse, len(docs))
	for i, doc := range docs {
		responses[i] = documentToResponse(doc)
	}
	return responses, nil
}

func (s *DocumentService) getOwned(ctx context.Context, userID, documentID uuid.UUID) (*models.Document, error) {
	doc, err := s.docs.GetByID(ctx, documentID)
	if errors.Is(err, repository.ErrDocumentNotFound) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	// Other users' documents look like missing ones.
	if doc.UserID != userID {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}

func documentToResponse(doc *models.Document) *dto.DocumentResponse {
	resp := &dto.DocumentResponse{
		ID:               doc.ID.String(),
		OriginalFilename: doc.OriginalFilename,
		Status:           string(doc.Status),
		CreatedAt:        doc.CreatedAt.Format(time.RFC3339),
	}
	if doc.OCRText != nil {
		resp.OCRText = *doc.OCRText
	}
	if doc.WordCount != nil {
		resp.WordCount = doc.WordCount
	}
	if doc.ProcessingTime != nil {
		resp.ProcessingTime = doc.ProcessingTime
	}
	if doc.ErrorMessage != nil {
		resp.ErrorMessage = *doc.ErrorMessage
	}
	return resp
}
