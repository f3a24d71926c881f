package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/club-notifier/internal/domain"
)

type DirectoryService interface {
	Register(ctx context.Context, externalID int64) (*domain.Recipient, error)
	Get(ctx context.Context, externalID int64) (*domain.Recipient, error)
	Activate(ctx context.Context, externalID int64) (*domain.Recipient, error)
	SetNotificationPreference(ctx context.Context, externalID int64, t domain.ReminderType, enabled bool) (*domain.Recipient, error)
	SetVisibility(ctx context.Context, externalID int64, c domain.VisibilityComponent, visible bool) (*domain.Recipient, error)
	ListActive(ctx context.Context) ([]domain.Recipient, error)
}

type RecipientHandler struct {
	service DirectoryService
}

func NewRecipientHandler(service DirectoryService) (*RecipientHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("directory service is required")
	}
	return &RecipientHandler{service: service}, nil
}

func RegisterRecipientRoutes(router fiber.Router, service DirectoryService) error {
	h, err := NewRecipientHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/recipients", h.Register)
	v1.Get("/recipients", h.ListActive)
	v1.Get("/recipients/:externalId", h.Get)
	v1.Post("/recipients/:externalId/activate", h.Activate)
	v1.Put("/recipients/:externalId/preferences/:type", h.SetPreference)
	v1.Put("/recipients/:externalId/visibility/:component", h.SetVisibility)

	return nil
}

type registerRecipientRequest struct {
	ExternalID int64 `json:"externalId"`
}

type setPreferenceRequest struct {
	Enabled *bool `json:"enabled"`
}

type setVisibilityRequest struct {
	Visible *bool `json:"visible"`
}

type recipientResponse struct {
	ID         string          `json:"id"`
	ExternalID int64           `json:"externalId"`
	Active     bool            `json:"active"`
	Reminders  map[string]bool `json:"reminders"`
	Visibility map[string]bool `json:"visibility"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

type listRecipientsResponse struct {
	Data  []recipientResponse `json:"data"`
	Total int                 `json:"total"`
}

func (h *RecipientHandler) Register(c *fiber.Ctx) error {
	var req registerRecipientRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	recipient, err := h.service.Register(c.Context(), req.ExternalID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(toRecipientResponse(recipient))
}

func (h *RecipientHandler) Get(c *fiber.Ctx) error {
	externalID, err := paramExternalID(c)
	if err != nil {
		return err
	}

	recipient, err := h.service.Get(c.Context(), externalID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toRecipientResponse(recipient))
}

func (h *RecipientHandler) Activate(c *fiber.Ctx) error {
	externalID, err := paramExternalID(c)
	if err != nil {
		return err
	}

	recipient, err := h.service.Activate(c.Context(), externalID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toRecipientResponse(recipient))
}

func (h *RecipientHandler) SetPreference(c *fiber.Ctx) error {
	externalID, err := paramExternalID(c)
	if err != nil {
		return err
	}

	reminderType, err := domain.ParseReminderType(c.Params("type"))
	if err != nil {
		return toHTTPError(err)
	}

	var req setPreferenceRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Enabled == nil {
		return fiber.NewError(fiber.StatusBadRequest, "enabled is required")
	}

	recipient, err := h.service.SetNotificationPreference(c.Context(), externalID, reminderType, *req.Enabled)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toRecipientResponse(recipient))
}

func (h *RecipientHandler) SetVisibility(c *fiber.Ctx) error {
	externalID, err := paramExternalID(c)
	if err != nil {
		return err
	}

	component, err := domain.ParseVisibilityComponent(c.Params("component"))
	if err != nil {
		return toHTTPError(err)
	}

	var req setVisibilityRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Visible == nil {
		return fiber.NewError(fiber.StatusBadRequest, "visible is required")
	}

	recipient, err := h.service.SetVisibility(c.Context(), externalID, component, *req.Visible)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toRecipientResponse(recipient))
}

func (h *RecipientHandler) ListActive(c *fiber.Ctx) error {
	recipients, err := h.service.ListActive(c.Context())
	if err != nil {
		return toHTTPError(err)
	}

	items := make([]recipientResponse, 0, len(recipients))
	for i := range recipients {
		items = append(items, toRecipientResponse(&recipients[i]))
	}

	return c.Status(fiber.StatusOK).JSON(listRecipientsResponse{
		Data:  items,
		Total: len(items),
	})
}

func paramExternalID(c *fiber.Ctx) (int64, error) {
	raw := strings.TrimSpace(c.Params("externalId"))
	externalID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || externalID <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid external id")
	}
	return externalID, nil
}

func toRecipientResponse(r *domain.Recipient) recipientResponse {
	return recipientResponse{
		ID:         r.ID,
		ExternalID: r.ExternalID,
		Active:     r.Active,
		Reminders: map[string]bool{
			domain.ReminderDues.String(): r.AllowDues,
			domain.ReminderVPN.String():  r.AllowVPN,
		},
		Visibility: map[string]bool{
			domain.VisibilityStatus.String():  r.ShowStatus,
			domain.VisibilityDues.String():    r.ShowDues,
			domain.VisibilityVPN.String():     r.ShowVPN,
			domain.VisibilitySavings.String(): r.ShowSavings,
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return err
	}
}
