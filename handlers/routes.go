package handlers

import (
	"context"
	"time"

	"wms-core/models"

	"github.com/gofiber/fiber/v2"
)

// 2-opt 마감 기본값
const defaultRouteTimeout = 2 * time.Second

type RouteRequest struct {
	Floor     int           `json:"floor"`
	Start     models.Cell   `json:"start"`
	Picks     []models.Cell `json:"picks"`
	TimeoutMS int           `json:"timeout_ms"`
}

type MultiFloorRouteRequest struct {
	StartFloor int                `json:"start_floor"`
	Start      models.Cell        `json:"start"`
	Picks      []models.FloorPick `json:"picks"`
	TimeoutMS  int                `json:"timeout_ms"`
}

func routeContext(parent context.Context, timeoutMS int) (context.Context, context.CancelFunc) {
	timeout := defaultRouteTimeout
	if timeoutMS > 0 {
		timeout = time.Duration(timeoutMS) * time.Millisecond
	}
	return context.WithTimeout(parent, timeout)
}

// HandlePlanRoute - 한 층 피킹 경로
func (h *API) HandlePlanRoute(c *fiber.Ctx) error {
	var req RouteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "잘못된 요청 형식입니다"})
	}

	ctx, cancel := routeContext(c.UserContext(), req.TimeoutMS)
	defer cancel()

	route, err := h.Routes.PlanRoute(ctx, req.Floor, req.Start, req.Picks)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "route": route})
}

// HandlePlanMultiFloorRoute - 여러 층 피킹 경로
func (h *API) HandlePlanMultiFloorRoute(c *fiber.Ctx) error {
	var req MultiFloorRouteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "잘못된 요청 형식입니다"})
	}

	ctx, cancel := routeContext(c.UserContext(), req.TimeoutMS)
	defer cancel()

	route, err := h.Routes.PlanMultiFloorRoute(ctx, req.StartFloor, req.Start, req.Picks)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "route": route})
}
