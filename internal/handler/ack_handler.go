package handler

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/club-notifier/internal/queue"
)

// AckHandler accepts acknowledgment callbacks from the messenger gateway and
// enqueues them for async processing. The callback returns as soon as the
// message is on the broker; routing and storage happen in the ack worker.
type AckHandler struct {
	publisher queue.Publisher
}

func NewAckHandler(publisher queue.Publisher) (*AckHandler, error) {
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	return &AckHandler{publisher: publisher}, nil
}

func RegisterAckRoutes(router fiber.Router, publisher queue.Publisher) error {
	h, err := NewAckHandler(publisher)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/acks", h.SubmitAck)

	return nil
}

type submitAckRequest struct {
	ExternalID int64  `json:"externalId"`
	Token      string `json:"token"`
}

func (h *AckHandler) SubmitAck(c *fiber.Ctx) error {
	var req submitAckRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.ExternalID <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "externalId must be positive")
	}
	if strings.TrimSpace(req.Token) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "token is required")
	}

	msg := queue.AckMessage{
		RecipientExternalID: req.ExternalID,
		Token:               req.Token,
	}
	if err := h.publisher.Publish(c.Context(), queue.AcksQueueName, msg); err != nil {
		return fmt.Errorf("failed to enqueue acknowledgment: %w", err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status": "queued",
	})
}
