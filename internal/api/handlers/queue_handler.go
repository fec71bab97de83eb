package handlers

import (
	"context"

	"docuscan/internal/dto"
	"docuscan/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QueueRunner is the single-invocation contract of the queue processor.
type QueueRunner interface {
	ProcessNext(ctx context.Context) (*service.ProcessResult, error)
}

type QueueHandler struct {
	processor QueueRunner
	logger    *zap.Logger
}

func NewQueueHandler(processor QueueRunner, logger *zap.Logger) *QueueHandler {
	return &QueueHandler{
		processor: processor,
		logger:    logger,
	}
}

// ProcessQueue godoc
// @Summary Process one queued OCR job
// @Description Claims and processes at most one eligible job. Intended to be triggered by a scheduler.
// @Tags queue
// @Produce json
// @Success 200 {object} dto.QueueProcessResponse
// @Failure 500 {object} map[string]string
// @Router /internal/queue/process [post]
func (h *QueueHandler) ProcessQueue(c *fiber.Ctx) error {
	result, err := h.processor.ProcessNext(c.Context())
	if err != nil {
		// Unexpected infrastructure failure; detail stays in the logs.
		h.logger.Error("Queue processor error", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}

	resp := dto.QueueProcessResponse{
		Attempt: result.Attempt,
	}
	if result.JobID != uuid.Nil {
		resp.JobID = result.JobID.String()
	}

	switch result.Outcome {
	case service.OutcomeNoWork:
		resp.Message = "No pending jobs"
	case service.OutcomeCompleted:
		resp.Message = "Job completed"
		resp.Success = true
	case service.OutcomeRetryScheduled:
		resp.Message = "Job failed - retry scheduled"
	case service.OutcomeFailedPermanent:
		resp.Message = "Job failed - " + result.Message
	}

	return c.JSON(resp)
}
