package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"docuscan/pkg/config"

	"go.uber.org/zap"
)

func newTestGeminiClient(t *testing.T, handler http.HandlerFunc) (*GeminiClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewGeminiClient(&config.GeminiConfig{
		APIKey:          "test-key",
		Model:           "gemini-pro-vision",
		BaseURL:         srv.URL,
		MaxOutputTokens: 1024,
		Timeout:         5 * time.Second,
	}, zap.NewNop())

	return client, srv
}

func TestGeminiExtractSuccess(t *testing.T) {
	var gotReq geminiRequest

	client, _ := newTestGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{
					"content": map[string]any{
						"parts": []map[string]any{
							{"text": "Hello   world\n\nfoo"},
						},
					},
					"finishReason": "STOP",
				},
			},
		})
	})

	result, err := client.Extract(context.Background(), []byte("image-bytes"), "image/png")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if result.Text != "Hello   world\n\nfoo" {
		t.Errorf("text = %q", result.Text)
	}
	if result.WordCount != 3 {
		t.Errorf("word count = %d, want 3", result.WordCount)
	}
	if result.ProcessingTime < 0 {
		t.Errorf("processing time = %f, want >= 0", result.ProcessingTime)
	}

	// The request carries the fixed instruction, the inline file and the
	// deterministic-leaning generation settings.
	if len(gotReq.Contents) != 1 || len(gotReq.Contents[0].Parts) != 2 {
		t.Fatalf("unexpected request shape: %+v", gotReq)
	}
	if gotReq.Contents[0].Parts[0].Text != extractionInstruction {
		t.Errorf("instruction = %q", gotReq.Contents[0].Parts[0].Text)
	}
	if gotReq.Contents[0].Parts[1].InlineData == nil || gotReq.Contents[0].Parts[1].InlineData.MimeType != "image/png" {
		t.Errorf("inline data = %+v", gotReq.Contents[0].Parts[1].InlineData)
	}
	if gotReq.GenerationConfig.Temperature != 0.1 {
		t.Errorf("temperature = %f, want 0.1", gotReq.GenerationConfig.Temperature)
	}
	if gotReq.GenerationConfig.MaxOutputTokens != 1024 {
		t.Errorf("max output tokens = %d, want 1024", gotReq.GenerationConfig.MaxOutputTokens)
	}
}

func TestGeminiExtractFailures(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantKind ExtractionErrorKind
	}{
		{
			name: "prompt blocked",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{
					"promptFeedback": map[string]any{"blockReason": "SAFETY"},
				})
			},
			wantKind: KindBlocked,
		},
		{
			name: "candidate stopped for safety",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{
					"candidates": []map[string]any{
						{"finishReason": "SAFETY"},
					},
				})
			},
			wantKind: KindBlocked,
		},
		{
			name: "no candidates",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
			},
			wantKind: KindEmpty,
		},
		{
			name: "empty text",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{
					"candidates": []map[string]any{
						{
							"content": map[string]any{
								"parts": []map[string]any{{"text": "   "}},
							},
							"finishReason": "STOP",
						},
					},
				})
			},
			wantKind: KindEmpty,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			wantKind: KindTransport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestGeminiClient(t, tt.handler)

			_, err := client.Extract(context.Background(), []byte("image-bytes"), "image/png")
			if err == nil {
				t.Fatal("expected error")
			}

			var extErr *ExtractionError
			if !errors.As(err, &extErr) {
				t.Fatalf("error type = %T, want *ExtractionError", err)
			}
			if extErr.Kind != tt.wantKind {
				t.Errorf("kind = %v, want %v", extErr.Kind, tt.wantKind)
			}
		})
	}
}

func TestGeminiExtractConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewGeminiClient(&config.GeminiConfig{
		APIKey:  "test-key",
		Model:   "gemini-pro-vision",
		BaseURL: url,
		Timeout: time.Second,
	}, zap.NewNop())

	_, err := client.Extract(context.Background(), []byte("x"), "image/png")

	var extErr *ExtractionError
	if !errors.As(err, &extErr) || extErr.Kind != KindTransport {
		t.Fatalf("err = %v, want transport extraction error", err)
	}
}
