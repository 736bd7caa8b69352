package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HandleGetRecentAudit - 최근 감사 레코드 조회
func (h *API) HandleGetRecentAudit(c *fiber.Ctx) error {
	limit := queryInt(c, "limit", 100)

	h.Warehouse.Audit().Flush()
	records, err := h.Warehouse.Audit().Store().Recent(limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch audit records",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(records),
		"records": records,
	})
}

// HandleGetAuditByRange - 시간 범위로 감사 레코드 조회
func (h *API) HandleGetAuditByRange(c *fiber.Ctx) error {
	startStr := c.Query("start") // RFC3339
	endStr := c.Query("end")     // RFC3339

	// 시작 시간 파싱
	start := time.Now().Add(-24 * time.Hour)
	if startStr != "" {
		parsed, err := time.Parse(time.RFC3339, startStr)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid start time format (use RFC3339)",
			})
		}
		start = parsed
	}

	// 종료 시간 파싱
	end := time.Now()
	if endStr != "" {
		parsed, err := time.Parse(time.RFC3339, endStr)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid end time format (use RFC3339)",
			})
		}
		end = parsed
	}

	limit := queryInt(c, "limit", 100)

	h.Warehouse.Audit().Flush()
	records, err := h.Warehouse.Audit().Store().Between(start, end, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch audit records",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(records),
		"time_range": fiber.Map{
			"start": start.Format(time.RFC3339),
			"end":   end.Format(time.RFC3339),
		},
		"records": records,
	})
}

// HandleGetAuditByAction - 액션별 감사 레코드 조회
func (h *API) HandleGetAuditByAction(c *fiber.Ctx) error {
	action := c.Query("action")
	if action == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "action parameter is required",
		})
	}
	limit := queryInt(c, "limit", 100)

	h.Warehouse.Audit().Flush()
	records, err := h.Warehouse.Audit().Store().ByAction(action, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch audit records",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(records),
		"action":  action,
		"records": records,
	})
}

// HandleGetAuditStats - 감사 로그 통계
func (h *API) HandleGetAuditStats(c *fiber.Ctx) error {
	hours, err := strconv.Atoi(c.Query("hours", "24"))
	if err != nil || hours <= 0 {
		hours = 24
	}

	h.Warehouse.Audit().Flush()
	stats, err := h.Warehouse.Audit().Store().Stats(hours)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch stats",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"stats":   stats,
	})
}
