package service

import (
	"context"
	"strings"
	"time"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// OCRService routes extraction by file type: PDFs with an embedded text
// layer are read directly with go-fitz, everything else (and scanned PDFs)
// goes through the vision model.
type OCRService struct {
	vision TextExtractor
	logger *zap.Logger
}

func NewOCRService(vision TextExtractor, logger *zap.Logger) *OCRService {
	return &OCRService{
		vision: vision,
		logger: logger,
	}
}

func (s *OCRService) Extract(ctx context.Context, data []byte, mimeType string) (*ExtractionResult, error) {
	if mimeType == "application/pdf" {
		start := time.Now()
		text, err := s.extractPDFTextLayer(data)
		if err == nil && text != "" {
			s.logger.Info("PDF text layer extracted",
				zap.Int("text_length", len(text)),
			)
			return &ExtractionResult{
				Text:           text,
				WordCount:      countWords(text),
				ProcessingTime: time.Since(start).Seconds(),
				Method:         "pdf-text-layer",
			}, nil
		}
		if err != nil {
			s.logger.Warn("PDF text layer extraction failed, falling back to vision", zap.Error(err))
		}
	}

	return s.vision.Extract(ctx, data, mimeType)
}

// extractPDFTextLayer returns the concatenated text layer of all pages, or
// an empty string when the PDF is image-only.
func (s *OCRService) extractPDFTextLayer(data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", err
	}
	defer doc.Close()

	var textBuilder strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		pageText, err := doc.Text(i)
		if err != nil {
			s.logger.Warn("Failed to extract text from page",
				zap.Int("page", i+1),
				zap.Error(err),
			)
			continue
		}
		if strings.TrimSpace(pageText) != "" {
			textBuilder.WriteString(pageText)
			textBuilder.WriteString("\n")
		}
	}

	return strings.TrimSpace(textBuilder.String()), nil
}
