package handlers

import (
	"errors"
	"strconv"
	"time"

	"wms-core/models"
	"wms-core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
)

// API - HTTP 핸들러가 공유하는 서비스 묶음
type API struct {
	Warehouse   *services.Warehouse
	Allocator   *services.Allocator
	Routes      *services.RouteOptimizer
	Coordinator *services.Coordinator
	Hub         *DispatchHub
	StartedAt   time.Time
}

// NewAPI - 창고 하나에 대한 서비스 구성. threshold <= 0 이면 튜닝 값.
func NewAPI(wh *services.Warehouse, hub *DispatchHub, threshold int) *API {
	if hub != nil {
		wh.SetBroadcaster(hub.BroadcastMessage)
	}
	return &API{
		Warehouse:   wh,
		Allocator:   services.NewAllocator(wh),
		Routes:      services.NewRouteOptimizer(wh),
		Coordinator: services.NewCoordinator(wh, services.NewFleet(), threshold),
		Hub:         hub,
		StartedAt:   time.Now(),
	}
}

// NewApp - 미들웨어와 라우트가 연결된 fiber 앱
func NewApp(h *API, corsOrigins string) *fiber.App {
	app := fiber.New(fiber.Config{AppName: "wms-core"})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: corsOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, X-Actor-ID, X-Actor-Role",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	h.Register(app)
	return app
}

// Register - 라우트 등록
func (h *API) Register(app *fiber.App) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("WMS core 서버가 실행 중입니다.")
	})

	api := app.Group("/api")
	api.Get("/health", h.HandleHealth)

	// 층
	api.Get("/floors", h.HandleListFloors)
	api.Get("/floors/:floor", h.HandleGetFloor)

	// 경로 탐색
	api.Post("/pathfinding", h.HandlePathfinding)

	// 슬롯 배치
	api.Post("/placements/suggest", h.HandleSuggestSlot)
	api.Post("/placements/override", h.HandleOverride)
	api.Post("/placements", h.HandlePlaceItem)
	api.Delete("/placements/:itemID", h.HandleReleaseItem)
	api.Put("/occupancy", h.HandleSeedOccupancy)
	api.Put("/forecast/high-demand", h.HandleSetHighDemand)
	api.Post("/rebalance", h.HandleRebalance)

	// 피킹 경로
	api.Post("/routes", h.HandlePlanRoute)
	api.Post("/routes/multi-floor", h.HandlePlanMultiFloorRoute)

	// 카트 / 작업
	api.Get("/carts", h.HandleListCarts)
	api.Post("/carts", h.HandleRegisterCart)
	api.Get("/tasks", h.HandleListTasks)
	api.Post("/tasks", h.HandleAssignTask)
	api.Post("/tasks/:id/complete", h.HandleCompleteTask)

	// 통행량
	api.Get("/traffic/:floor", h.HandleTrafficHeatmap)
	api.Post("/traffic/reset", h.HandleResetTraffic)

	// 감사 로그 조회
	auditAPI := api.Group("/audit")
	auditAPI.Get("/recent", h.HandleGetRecentAudit)   // 최근 레코드
	auditAPI.Get("/range", h.HandleGetAuditByRange)   // 시간 범위
	auditAPI.Get("/action", h.HandleGetAuditByAction) // 액션별
	auditAPI.Get("/stats", h.HandleGetAuditStats)     // 통계

	// WebSocket
	app.Use("/websocket", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/websocket/dispatch", websocket.New(h.HandleDispatchWebSocket))
}

// HandleHealth - 상태 확인
func (h *API) HandleHealth(c *fiber.Ctx) error {
	clients := 0
	if h.Hub != nil {
		clients = h.Hub.GetClientCount()
	}
	return c.JSON(fiber.Map{
		"status":    "OK",
		"warehouse": h.Warehouse.Name(),
		"floors":    len(h.Warehouse.Floors()),
		"carts":     h.Coordinator.Fleet().Count(),
		"clients":   clients,
		"cache":     h.Warehouse.Pathfinder().Stats(),
		"uptime":    time.Since(h.StartedAt).Round(time.Second).String(),
		"time":      time.Now().Format(time.RFC3339),
	})
}

// HandleListFloors - 층 요약 목록
func (h *API) HandleListFloors(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"floors":  h.Warehouse.Summaries(),
	})
}

// HandleGetFloor - 층 상세 (존, 코리도어, 출고 지점, 배치)
func (h *API) HandleGetFloor(c *fiber.Ctx) error {
	index, err := c.ParamsInt("floor")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "floor must be an integer"})
	}
	fm, err := h.Warehouse.Floor(index)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"summary":    fm.Summary(),
		"zones":      fm.Zones(),
		"exits":      fm.Exits(),
		"corridors":  fm.Corridors(),
		"placements": fm.Placements(),
	})
}

// respondError - 서비스 에러를 HTTP 상태 코드로 변환
func respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		status = fiber.StatusForbidden
	case errors.Is(err, services.ErrInvalidOverride),
		errors.Is(err, services.ErrInvalidRequest),
		errors.Is(err, services.ErrOutOfBounds),
		errors.Is(err, services.ErrNotStorageCell),
		errors.Is(err, services.ErrInvalidLayout),
		errors.Is(err, services.ErrCorruptOccupancy):
		status = fiber.StatusBadRequest
	case errors.Is(err, services.ErrUnknownFloor),
		errors.Is(err, services.ErrUnknownCart),
		errors.Is(err, services.ErrUnknownTask),
		errors.Is(err, services.ErrItemNotPlaced):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrSlotTaken),
		errors.Is(err, services.ErrItemPlaced),
		errors.Is(err, services.ErrNoCarts):
		status = fiber.StatusConflict
	case errors.Is(err, services.ErrUnreachable):
		status = fiber.StatusUnprocessableEntity
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// actorFrom - 요청 헤더의 행위자 (없으면 system)
func actorFrom(c *fiber.Ctx) models.Actor {
	id := c.Get("X-Actor-ID")
	if id == "" {
		return models.SystemActor
	}
	return models.Actor{ID: id, Role: c.Get("X-Actor-Role")}
}

// queryInt - 양수 쿼리 파라미터 (없거나 잘못되면 def)
func queryInt(c *fiber.Ctx, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
