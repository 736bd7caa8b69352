package handlers

import (
	"wms-core/models"

	"github.com/gofiber/fiber/v2"
)

type CartRequest struct {
	ID       string      `json:"id"`
	Capacity int         `json:"capacity"`
	Floor    int         `json:"floor"`
	Position models.Cell `json:"position"`
}

type TrafficResetRequest struct {
	Floor *int `json:"floor,omitempty"` // 없으면 전체
}

// HandleListCarts - 카트 목록 + 통계
func (h *API) HandleListCarts(c *fiber.Ctx) error {
	fleet := h.Coordinator.Fleet()
	return c.JSON(fiber.Map{
		"success": true,
		"carts":   fleet.All(),
		"stats":   fleet.Stats(),
	})
}

// HandleRegisterCart - 카트 등록
func (h *API) HandleRegisterCart(c *fiber.Ctx) error {
	var req CartRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "잘못된 요청 형식입니다"})
	}
	if _, err := h.Warehouse.Floor(req.Floor); err != nil {
		return respondError(c, err)
	}

	cart, err := h.Coordinator.Fleet().Register(req.ID, req.Capacity, req.Floor, req.Position)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "cart": cart})
}

// HandleListTasks - 작업 목록
func (h *API) HandleListTasks(c *fiber.Ctx) error {
	tasks := h.Coordinator.Tasks()
	return c.JSON(fiber.Map{"success": true, "count": len(tasks), "tasks": tasks})
}

// HandleAssignTask - 작업 배정
func (h *API) HandleAssignTask(c *fiber.Ctx) error {
	var req models.TaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "잘못된 요청 형식입니다"})
	}

	task, err := h.Coordinator.AssignTask(req, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "task": task})
}

// HandleCompleteTask - 작업 완료
func (h *API) HandleCompleteTask(c *fiber.Ctx) error {
	task, err := h.Coordinator.CompleteTask(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "task": task})
}

// HandleTrafficHeatmap - 층 통행 히트맵
func (h *API) HandleTrafficHeatmap(c *fiber.Ctx) error {
	index, err := c.ParamsInt("floor")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "floor must be an integer"})
	}
	fm, err := h.Warehouse.Floor(index)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":   true,
		"heatmap":   fm.Heatmap(),
		"threshold": h.Coordinator.Threshold(),
	})
}

// HandleResetTraffic - 세션 경계: 통행 카운터 초기화
func (h *API) HandleResetTraffic(c *fiber.Ctx) error {
	var req TrafficResetRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "잘못된 요청 형식입니다"})
		}
	}
	floor := -1
	if req.Floor != nil {
		floor = *req.Floor
	}
	if err := h.Warehouse.ResetTraffic(floor); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}
