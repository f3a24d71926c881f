package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/club-notifier/internal/repository"
	"github.com/kursadbilgin/club-notifier/internal/service"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
)

type BatchService interface {
	SendBatch(ctx context.Context, text string, externalIDs []int64) (*service.BatchResult, error)
	ResendUnacknowledged(ctx context.Context, batchID string) (*service.BatchResult, error)
	GetBatchSummary(ctx context.Context, batchID string) (*repository.BatchSummary, error)
	ListBatches(ctx context.Context, page int, pageSize int) (*repository.BatchListPage, error)
}

type BatchHandler struct {
	service BatchService
}

func NewBatchHandler(service BatchService) (*BatchHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("batch service is required")
	}
	return &BatchHandler{service: service}, nil
}

func RegisterBatchRoutes(router fiber.Router, service BatchService) error {
	h, err := NewBatchHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/batches", h.SendBatch)
	v1.Get("/batches", h.ListBatches)
	v1.Get("/batches/:batchId", h.GetBatchSummary)
	v1.Post("/batches/:batchId/resend", h.Resend)

	return nil
}

type sendBatchRequest struct {
	Text       string  `json:"text"`
	Recipients []int64 `json:"recipients,omitempty"`
}

type batchResultResponse struct {
	BatchID   string `json:"batchId"`
	Attempted int    `json:"attempted"`
	Delivered int    `json:"delivered"`
	Failed    int    `json:"failed"`
}

type batchSummaryResponse struct {
	BatchID      string    `json:"batchId"`
	Content      string    `json:"content"`
	SentAt       time.Time `json:"sentAt"`
	Total        int       `json:"total"`
	Acknowledged int       `json:"acknowledged"`
}

type listBatchesResponse struct {
	Data []batchSummaryResponse `json:"data"`
	Meta listMeta               `json:"meta"`
}

type listMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalPages int   `json:"totalPages"`
	Total      int64 `json:"total"`
}

func (h *BatchHandler) SendBatch(c *fiber.Ctx) error {
	var req sendBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.SendBatch(c.Context(), req.Text, req.Recipients)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusAccepted).JSON(toBatchResultResponse(result))
}

func (h *BatchHandler) Resend(c *fiber.Ctx) error {
	batchID := strings.TrimSpace(c.Params("batchId"))

	result, err := h.service.ResendUnacknowledged(c.Context(), batchID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusAccepted).JSON(toBatchResultResponse(result))
}

func (h *BatchHandler) GetBatchSummary(c *fiber.Ctx) error {
	batchID := strings.TrimSpace(c.Params("batchId"))

	summary, err := h.service.GetBatchSummary(c.Context(), batchID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toBatchSummaryResponse(summary))
}

func (h *BatchHandler) ListBatches(c *fiber.Ctx) error {
	page := c.QueryInt("page", defaultPage)
	pageSize := c.QueryInt("pageSize", defaultPageSize)

	result, err := h.service.ListBatches(c.Context(), page, pageSize)
	if err != nil {
		return toHTTPError(err)
	}

	items := make([]batchSummaryResponse, 0, len(result.Summaries))
	for i := range result.Summaries {
		items = append(items, toBatchSummaryResponse(&result.Summaries[i]))
	}

	return c.Status(fiber.StatusOK).JSON(listBatchesResponse{
		Data: items,
		Meta: listMeta{
			Page:       result.Page,
			PageSize:   result.PageSize,
			TotalPages: result.TotalPages,
			Total:      result.TotalBatches,
		},
	})
}

func toBatchResultResponse(result *service.BatchResult) batchResultResponse {
	return batchResultResponse{
		BatchID:   result.BatchID,
		Attempted: result.Attempted,
		Delivered: result.Delivered,
		Failed:    result.Failed,
	}
}

func toBatchSummaryResponse(summary *repository.BatchSummary) batchSummaryResponse {
	return batchSummaryResponse{
		BatchID:      summary.BatchID,
		Content:      summary.Content,
		SentAt:       summary.SentAt,
		Total:        summary.Total,
		Acknowledged: summary.Acknowledged,
	}
}
