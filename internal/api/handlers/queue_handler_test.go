package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"docuscan/internal/dto"
	"docuscan/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type stubRunner struct {
	result *service.ProcessResult
	err    error
}

func (s *stubRunner) ProcessNext(ctx context.Context) (*service.ProcessResult, error) {
	return s.result, s.err
}

func newQueueApp(runner QueueRunner) *fiber.App {
	app := fiber.New()
	handler := NewQueueHandler(runner, zap.NewNop())
	app.Post("/internal/queue/process", handler.ProcessQueue)
	return app
}

func TestProcessQueueOutcomes(t *testing.T) {
	jobID := uuid.New()

	tests := []struct {
		name        string
		result      *service.ProcessResult
		wantMessage string
		wantSuccess bool
	}{
		{
			name:        "no work",
			result:      &service.ProcessResult{Outcome: service.OutcomeNoWork},
			wantMessage: "No pending jobs",
		},
		{
			name:        "completed",
			result:      &service.ProcessResult{Outcome: service.OutcomeCompleted, JobID: jobID, Attempt: 1},
			wantMessage: "Job completed",
			wantSuccess: true,
		},
		{
			name:        "retry scheduled",
			result:      &service.ProcessResult{Outcome: service.OutcomeRetryScheduled, JobID: jobID, Attempt: 2, Message: "upstream timeout"},
			wantMessage: "Job failed - retry scheduled",
		},
		{
			name:        "permanent failure",
			result:      &service.ProcessResult{Outcome: service.OutcomeFailedPermanent, JobID: jobID, Attempt: 4, Message: "Maximum retry attempts exceeded"},
			wantMessage: "Job failed - Maximum retry attempts exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newQueueApp(&stubRunner{result: tt.result})

			req := httptest.NewRequest(http.MethodPost, "/internal/queue/process", nil)
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want 200", resp.StatusCode)
			}

			var body dto.QueueProcessResponse
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", body.Message, tt.wantMessage)
			}
			if body.Success != tt.wantSuccess {
				t.Errorf("success = %v, want %v", body.Success, tt.wantSuccess)
			}
		})
	}
}

func TestProcessQueueInternalError(t *testing.T) {
	app := newQueueApp(&stubRunner{err: errors.New("pool exhausted")})

	req := httptest.NewRequest(http.MethodPost, "/internal/queue/process", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// Internal detail must not leak to the caller.
	if body["error"] != "Internal server error" {
		t.Errorf("error = %q, want generic message", body["error"])
	}
}

func TestProcessQueueMethodNotAllowed(t *testing.T) {
	app := newQueueApp(&stubRunner{result: &service.ProcessResult{Outcome: service.OutcomeNoWork}})

	req := httptest.NewRequest(http.MethodGet, "/internal/queue/process", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}
