package handlers

import (
	"wms-core/models"
	"wms-core/services"

	"github.com/gofiber/fiber/v2"
)

// PlacementRequest - 배치 요청. Cell 이 있으면 지정 셀에 배정, 없으면 최적 슬롯에 배치.
type PlacementRequest struct {
	Item  models.Item  `json:"item"`
	Floor int          `json:"floor"`
	Cell  *models.Cell `json:"cell,omitempty"`
}

type OccupancyRequest struct {
	Entries []models.OccupancyEntry `json:"entries"`
}

type HighDemandRequest struct {
	ItemIDs []string `json:"item_ids"`
}

type RebalanceRequest struct {
	Threshold int `json:"threshold"` // 0 이면 설정값
}

// HandleSuggestSlot - 슬롯 추천 (상태 변경 없음)
func (h *API) HandleSuggestSlot(c *fiber.Ctx) error {
	var item models.Item
	if err := c.BodyParser(&item); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "잘못된 요청 형식입니다"})
	}

	sug, ok, err := h.Allocator.SuggestSlot(item)
	if err != nil {
		return respondError(c, err)
	}
	if !ok {
		return c.JSON(fiber.Map{"found": false, "error": services.ErrNoAvailableSlot.Error()})
	}
	return c.JSON(fiber.Map{"found": true, "suggestion": sug})
}

// HandlePlaceItem - 배치 (추천 + 배정 또는 지정 셀 배정)
func (h *API) HandlePlaceItem(c *fiber.Ctx) error {
	var req PlacementRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "잘못된 요청 형식입니다"})
	}
	actor := actorFrom(c)

	if req.Cell != nil {
		p, err := h.Allocator.AssignSlot(req.Item, req.Floor, *req.Cell, actor)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"found": true, "placement": p})
	}

	p, ok, err := h.Allocator.PlaceItem(req.Item, actor)
	if err != nil {
		return respondError(c, err)
	}
	if !ok {
		return c.JSON(fiber.Map{"found": false, "error": services.ErrNoAvailableSlot.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"found": true, "placement": p})
}

// HandleReleaseItem - 품목 출고 (슬롯 해제)
func (h *API) HandleReleaseItem(c *fiber.Ctx) error {
	p, err := h.Allocator.ReleaseItem(c.Params("itemID"), actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "placement": p})
}

// HandleOverride - 관리자 수동 배치
func (h *API) HandleOverride(c *fiber.Ctx) error {
	var cmd models.ManualPlacement
	if err := c.BodyParser(&cmd); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "잘못된 요청 형식입니다"})
	}
	if cmd.Actor.ID == "" {
		cmd.Actor = actorFrom(c)
	}

	p, err := h.Allocator.Override(cmd)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "placement": p})
}

// HandleSeedOccupancy - 재고 스냅샷 동기화
func (h *API) HandleSeedOccupancy(c *fiber.Ctx) error {
	var req OccupancyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "잘못된 요청 형식입니다"})
	}
	if err := h.Allocator.SeedOccupancy(req.Entries, actorFrom(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "count": len(req.Entries)})
}

// HandleSetHighDemand - 수요 예측 상위 품목 교체
func (h *API) HandleSetHighDemand(c *fiber.Ctx) error {
	var req HighDemandRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "잘못된 요청 형식입니다"})
		}
	}
	h.Allocator.SetHighDemand(req.ItemIDs)
	return c.JSON(fiber.Map{"success": true, "item_ids": h.Allocator.HighDemand()})
}

// HandleRebalance - 재배치 제안 스캔
func (h *API) HandleRebalance(c *fiber.Ctx) error {
	var req RebalanceRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "잘못된 요청 형식입니다"})
		}
	}
	proposals := h.Allocator.CheckForRebalancing(req.Threshold, actorFrom(c))
	if proposals == nil {
		proposals = []models.RelocationProposal{}
	}
	return c.JSON(fiber.Map{
		"success":   true,
		"count":     len(proposals),
		"proposals": proposals,
	})
}
