package handler

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

type SweepScheduler interface {
	Reschedule(ctx context.Context, hour int, minute int) error
	SweepTime() (hour int, minute int)
}

type SweepTrigger interface {
	Run(ctx context.Context) error
}

type ScheduleHandler struct {
	scheduler SweepScheduler
	sweep     SweepTrigger
	timezone  string
}

func NewScheduleHandler(scheduler SweepScheduler, sweep SweepTrigger, timezone string) (*ScheduleHandler, error) {
	if scheduler == nil {
		return nil, fmt.Errorf("scheduler is required")
	}
	if sweep == nil {
		return nil, fmt.Errorf("sweep trigger is required")
	}
	return &ScheduleHandler{
		scheduler: scheduler,
		sweep:     sweep,
		timezone:  timezone,
	}, nil
}

func RegisterScheduleRoutes(router fiber.Router, scheduler SweepScheduler, sweep SweepTrigger, timezone string) error {
	h, err := NewScheduleHandler(scheduler, sweep, timezone)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Get("/schedule", h.GetSchedule)
	v1.Put("/schedule", h.SetSchedule)
	v1.Post("/sweeps", h.RunSweep)

	return nil
}

type setScheduleRequest struct {
	Hour   *int `json:"hour"`
	Minute *int `json:"minute"`
}

type scheduleResponse struct {
	Hour     int    `json:"hour"`
	Minute   int    `json:"minute"`
	Timezone string `json:"timezone"`
}

func (h *ScheduleHandler) GetSchedule(c *fiber.Ctx) error {
	hour, minute := h.scheduler.SweepTime()

	return c.Status(fiber.StatusOK).JSON(scheduleResponse{
		Hour:     hour,
		Minute:   minute,
		Timezone: h.timezone,
	})
}

func (h *ScheduleHandler) SetSchedule(c *fiber.Ctx) error {
	var req setScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Hour == nil || req.Minute == nil {
		return fiber.NewError(fiber.StatusBadRequest, "hour and minute are required")
	}

	if err := h.scheduler.Reschedule(c.Context(), *req.Hour, *req.Minute); err != nil {
		return toHTTPError(err)
	}

	hour, minute := h.scheduler.SweepTime()

	return c.Status(fiber.StatusOK).JSON(scheduleResponse{
		Hour:     hour,
		Minute:   minute,
		Timezone: h.timezone,
	})
}

// RunSweep triggers one reminder sweep immediately without touching the
// daily schedule.
func (h *ScheduleHandler) RunSweep(c *fiber.Ctx) error {
	if err := h.sweep.Run(c.Context()); err != nil {
		return fmt.Errorf("sweep finished with errors: %w", err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "completed",
	})
}
