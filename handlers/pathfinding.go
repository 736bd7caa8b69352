package handlers

import (
	"errors"
	"log"

	"wms-core/models"
	"wms-core/services"

	"github.com/gofiber/fiber/v2"
)

type PathfindingRequest struct {
	Floor int         `json:"floor"`
	Start models.Cell `json:"start"`
	Goal  models.Cell `json:"goal"`
}

type PathfindingResponse struct {
	Success     bool          `json:"success"`
	Path        []models.Cell `json:"path,omitempty"`
	Cost        int           `json:"cost"`
	Goal        *models.Cell  `json:"goal,omitempty"`
	Effective   *models.Cell  `json:"effective,omitempty"`
	Substituted bool          `json:"substituted"`
	Message     string        `json:"message,omitempty"`
}

func (h *API) HandlePathfinding(c *fiber.Ctx) error {
	var req PathfindingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(PathfindingResponse{
			Success: false,
			Message: "잘못된 요청 형식입니다",
		})
	}

	log.Printf("📍 경로 탐색 요청: 층 %d (%s) → (%s)", req.Floor, req.Start, req.Goal)

	fm, err := h.Warehouse.Floor(req.Floor)
	if err != nil {
		return respondError(c, err)
	}

	res, err := h.Warehouse.Pathfinder().ShortestPath(fm, req.Start, req.Goal)
	switch {
	case errors.Is(err, services.ErrUnreachable):
		log.Printf("❌ 경로를 찾을 수 없습니다")
		return c.Status(fiber.StatusOK).JSON(PathfindingResponse{
			Success: false,
			Message: "경로를 찾을 수 없습니다",
		})
	case err != nil:
		return respondError(c, err)
	}

	log.Printf("✅ 경로 탐색 성공: %d개 셀 (비용 %d)", len(res.Path), res.Cost)
	return c.Status(fiber.StatusOK).JSON(PathfindingResponse{
		Success:     true,
		Path:        res.Path,
		Cost:        res.Cost,
		Goal:        &res.Goal,
		Effective:   &res.Effective,
		Substituted: res.Substituted,
		Message:     "경로 탐색 성공",
	})
}
