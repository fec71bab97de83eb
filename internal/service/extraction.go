package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"docuscan/pkg/config"

	"go.uber.org/zap"
)

// ExtractionErrorKind classifies vision-provider failures for the retry
// policy.
type ExtractionErrorKind string

const (
	// KindBlocked means the provider's safety filter rejected the input.
	KindBlocked ExtractionErrorKind = "blocked"
	// KindEmpty means the provider returned no usable text candidate.
	KindEmpty ExtractionErrorKind = "empty"
	// KindTransport covers network and HTTP-level failures.
	KindTransport ExtractionErrorKind = "transport"
)

type ExtractionError struct {
	Kind    ExtractionErrorKind
	Message string
	Err     error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed (%s): %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("extraction failed (%s): %s", e.Kind, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// ExtractionResult is a successful OCR pass over one file.
type ExtractionResult struct {
	Text           string
	WordCount      int
	ProcessingTime float64 // seconds
	Method         string
}

// extractionInstruction is sent verbatim with every vision request.
const extractionInstruction = "Extract all text from this document using OCR. Return only the extracted text without any additional commentary or analysis."

// GeminiClient calls the Gemini generateContent REST endpoint to extract
// text from images and scanned documents.
type GeminiClient struct {
	httpClient *http.Client
	baseURL    string
	model      string
	apiKey     string
	maxTokens  int
	logger     *zap.Logger
}

func NewGeminiClient(cfg *config.GeminiConfig, logger *zap.Logger) *GeminiClient {
	return &GeminiClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		maxTokens:  cfg.MaxOutputTokens,
		logger:     logger,
	}
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// Extract sends the file bytes to the vision model and returns the extracted
// text with its word count and elapsed wall-clock time. Failures come back
// as *ExtractionError classified for the retry policy.
func (c *GeminiClient) Extract(ctx context.Context, data []byte, mimeType string) (*ExtractionResult, error) {
	start := time.Now()

	reqBody := geminiRequest{
		Contents: []geminiContent{
			{
				Parts: []geminiPart{
					{Text: extractionInstruction},
					{InlineData: &geminiInlineData{
						MimeType: mimeType,
						Data:     base64.StdEncoding.EncodeToString(data),
					}},
				},
			},
		},
		// Low-temperature settings keep the extraction deterministic.
		GenerationConfig: geminiGenerationConfig{
			Temperature:     0.1,
			TopP:            0.8,
			TopK:            40,
			MaxOutputTokens: c.maxTokens,
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &ExtractionError{Kind: KindTransport, Message: "failed to marshal request", Err: err}
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, &ExtractionError{Kind: KindTransport, Message: "failed to create request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ExtractionError{Kind: KindTransport, Message: "vision request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, &ExtractionError{
			Kind:    KindTransport,
			Message: fmt.Sprintf("vision API returned status %d: %s", resp.StatusCode, string(bodyBytes)),
		}
	}

	var visionResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason"`
		} `json:"candidates"`
		PromptFeedback struct {
			BlockReason string `json:"blockReason"`
		} `json:"promptFeedback"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&visionResp); err != nil {
		return nil, &ExtractionError{Kind: KindTransport, Message: "failed to decode response", Err: err}
	}

	if visionResp.PromptFeedback.BlockReason != "" {
		return nil, &ExtractionError{
			Kind:    KindBlocked,
			Message: fmt.Sprintf("content blocked by safety filter: %s", visionResp.PromptFeedback.BlockReason),
		}
	}

	if len(visionResp.Candidates) == 0 {
		return nil, &ExtractionError{Kind: KindEmpty, Message: "no candidates in response"}
	}

	candidate := visionResp.Candidates[0]
	if candidate.FinishReason == "SAFETY" {
		return nil, &ExtractionError{
			Kind:    KindBlocked,
			Message: "candidate stopped by safety filter",
		}
	}

	var textBuilder strings.Builder
	for _, part := range candidate.Content.Parts {
		textBuilder.WriteString(part.Text)
	}
	text := strings.TrimSpace(textBuilder.String())

	if text == "" {
		return nil, &ExtractionError{Kind: KindEmpty, Message: "response contained no text"}
	}

	elapsed := time.Since(start).Seconds()

	c.logger.Info("Text extracted via Gemini Vision",
		zap.String("model", c.model),
		zap.Int("text_length", len(text)),
		zap.Float64("elapsed_seconds", elapsed),
	)

	return &ExtractionResult{
		Text:           text,
		WordCount:      countWords(text),
		ProcessingTime: elapsed,
		Method:         "gemini-vision",
	}, nil
}
