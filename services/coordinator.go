package services

import (
	"cmp"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"wms-core/models"

	"github.com/google/uuid"
)

// Coordinator - 카트 작업 배정과 코리도어 혼잡 제어
type Coordinator struct {
	wh        *Warehouse
	fleet     *Fleet
	threshold int

	mu    sync.Mutex // 카트 선택 → 이동 반영을 직렬화
	tasks map[string]*models.TaskAssignment

	completed []string // 완료 순서
	history   int      // 보관할 완료 작업 수
}

// DefaultTaskHistory - 메모리에 남겨 두는 완료 작업 수 기본값
const DefaultTaskHistory = 1000

// NewCoordinator - threshold <= 0 이면 튜닝 값 사용
func NewCoordinator(wh *Warehouse, fleet *Fleet, threshold int) *Coordinator {
	if threshold <= 0 {
		threshold = wh.Tuning().CongestionThreshold
	}
	return &Coordinator{
		wh:        wh,
		fleet:     fleet,
		threshold: threshold,
		tasks:     make(map[string]*models.TaskAssignment),
		history:   DefaultTaskHistory,
	}
}

// SetTaskHistory - 완료 작업 보관 수 변경 (n < 0 이면 무시). 초과분은 바로 정리.
func (c *Coordinator) SetTaskHistory(n int) {
	if n < 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = n
	c.pruneLocked()
}

// pruneLocked - 보관 수를 넘는 완료 작업을 완료 순서대로 삭제. 진행 중 작업은 남긴다.
func (c *Coordinator) pruneLocked() {
	for len(c.completed) > c.history {
		delete(c.tasks, c.completed[0])
		c.completed = c.completed[1:]
	}
}

// Fleet returns the managed fleet.
func (c *Coordinator) Fleet() *Fleet { return c.fleet }

// Threshold returns the congestion threshold in use.
func (c *Coordinator) Threshold() int { return c.threshold }

// cartDistance - 같은 층이면 경로 거리(없으면 맨해튼), 다른 층이면 맨해튼 + 층 이동 비용
func (c *Coordinator) cartDistance(fm *FloorMap, target models.Cell) func(models.Cart) int {
	pf := c.wh.Pathfinder()
	change := c.wh.Tuning().FloorChangeCost
	return func(cart models.Cart) int {
		if cart.Floor != fm.Index() {
			return cart.Position.Manhattan(target) + change
		}
		if d, err := pf.Distance(fm, cart.Position, target); err == nil {
			return d
		}
		return cart.Position.Manhattan(target)
	}
}

// ChooseCart - 현재 플릿에서 카트 선택 (상태 변경 없음)
func (c *Coordinator) ChooseCart(floor int, target models.Cell, required int) (models.CartChoice, error) {
	fm, err := c.wh.Floor(floor)
	if err != nil {
		return models.CartChoice{}, err
	}
	if !fm.InBounds(target) {
		return models.CartChoice{}, fmt.Errorf("%w: floor %d cell %s", ErrOutOfBounds, floor, target)
	}
	return ChooseCart(c.fleet.All(), required, c.cartDistance(fm, target))
}

// AssignTask - 카트 선택 → 혼잡 판정 → 경로 → 카트 이동/카운터 갱신 → 목표 주변 대기 작업 추가
func (c *Coordinator) AssignTask(req models.TaskRequest, actor models.Actor) (models.TaskAssignment, error) {
	fm, err := c.wh.Floor(req.Floor)
	if err != nil {
		return models.TaskAssignment{}, err
	}
	if !fm.InBounds(req.Target) {
		return models.TaskAssignment{}, fmt.Errorf("%w: floor %d cell %s", ErrOutOfBounds, req.Floor, req.Target)
	}
	if req.Pallets < 1 {
		req.Pallets = 1
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	choice, err := ChooseCart(c.fleet.All(), req.Pallets, c.cartDistance(fm, req.Target))
	if err != nil {
		return models.TaskAssignment{}, err
	}
	cart := choice.Cart

	task := models.TaskAssignment{
		ID:         uuid.New().String(),
		Request:    req,
		CartID:     cart.ID,
		Trips:      choice.Trips,
		Split:      choice.Split,
		AssignedAt: time.Now(),
	}

	// 혼잡 판정
	preferred := req.Corridor
	if preferred == "" {
		preferred = fm.CorridorOf(req.Target)
	}
	var cong CongestionResult
	if preferred != "" {
		cong = fm.ResolveCongestion(preferred, c.threshold)
		task.Corridor = cong.Corridor
		task.Rerouted = cong.Rerouted
	}

	// 경로 (우회 시 대체 코리도어를 경유)
	end := req.Target
	if cart.Floor == req.Floor {
		path, cost, effective, err := c.routeVia(fm, cart.Position, req.Target, cong)
		if err == nil {
			task.Path, task.Distance, end = path, cost, effective
		} else {
			task.Fallback = true
			task.Distance = cart.Position.Manhattan(req.Target)
		}
	} else {
		task.Fallback = true
		task.Distance = cart.Position.Manhattan(req.Target) + c.wh.Tuning().FloorChangeCost
	}

	// 한 작업의 총 이동 = 운행 횟수 × 편도
	moved := task.Distance * task.Trips
	if _, err := c.fleet.move(cart.ID, req.Floor, end, moved); err != nil {
		return models.TaskAssignment{}, err
	}
	fm.RecordCrossing(task.Path, cong.Corridor)
	fm.AddPending(req.Target, 1)

	c.tasks[task.ID] = &task

	rec := auditRecord(actor, models.ActionTaskAssign, req.Floor, req.Target)
	rec.CartID = cart.ID
	rec.ItemID = req.ItemID
	rec.Before = marshalState(cart)
	rec.After = marshalState(task)
	c.wh.audit.Record(rec)
	c.wh.publish(models.MessageTypeTask, task)

	if cong.Rerouted || cong.Saturated {
		rec := auditRecord(actor, models.ActionReroute, req.Floor, req.Target)
		rec.CartID = cart.ID
		rec.Before = cong.Preferred
		rec.After = cong.Corridor
		c.wh.audit.Record(rec)
		c.wh.publish(models.MessageTypeCongestion, models.CongestionData{
			Floor:     req.Floor,
			Preferred: cong.Preferred,
			Actual:    cong.Corridor,
			Count:     cong.Count,
			Saturated: cong.Saturated,
		})
		log.Printf("🚧 [Fleet] 코리도어 %s 혼잡 → %s (saturated=%v)", cong.Preferred, cong.Corridor, cong.Saturated)
	}

	log.Printf("🚚 [Fleet] 작업 배정: %s → 카트 %s (trips %d, 거리 %d)", task.ID, cart.ID, task.Trips, task.Distance)
	return task, nil
}

// routeVia - 우회가 없으면 직접 경로, 있으면 대체 코리도어 안의 경유 셀을 거친다
func (c *Coordinator) routeVia(fm *FloorMap, from, to models.Cell, cong CongestionResult) ([]models.Cell, int, models.Cell, error) {
	pf := c.wh.Pathfinder()
	if cong.Rerouted {
		if via, ok := fm.corridorWaypoint(cong.Corridor, to); ok {
			first, err1 := pf.ShortestPath(fm, from, via)
			second, err2 := pf.ShortestPath(fm, via, to)
			if err1 == nil && err2 == nil {
				return appendLeg(first.Path, second.Path), first.Cost + second.Cost, second.Effective, nil
			}
		}
	}
	res, err := pf.ShortestPath(fm, from, to)
	if err != nil {
		return nil, 0, models.Cell{}, err
	}
	return res.Path, res.Cost, res.Effective, nil
}

// CompleteTask - 작업 완료. 목표 주변 대기 작업을 줄이고, 남은 작업이 없으면 카트를 대기 상태로.
func (c *Coordinator) CompleteTask(id string) (models.TaskAssignment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	task, ok := c.tasks[id]
	if !ok {
		return models.TaskAssignment{}, fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}
	if task.CompletedAt != nil {
		return *task, nil
	}
	now := time.Now()
	task.CompletedAt = &now

	if fm, err := c.wh.Floor(task.Request.Floor); err == nil {
		fm.AddPending(task.Request.Target, -1)
	}

	open := false
	for _, t := range c.tasks {
		if t.CartID == task.CartID && t.CompletedAt == nil {
			open = true
			break
		}
	}
	if !open {
		c.fleet.setState(task.CartID, models.CartIdle)
	}

	done := *task
	c.completed = append(c.completed, id)
	c.pruneLocked()

	log.Printf("✅ [Fleet] 작업 완료: %s (카트 %s)", id, done.CartID)
	return done, nil
}

// Tasks - 작업 목록 (배정 시각 순)
func (c *Coordinator) Tasks() []models.TaskAssignment {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.TaskAssignment, 0, len(c.tasks))
	for _, t := range c.tasks {
		out = append(out, *t)
	}
	slices.SortFunc(out, func(a, b models.TaskAssignment) int {
		return cmp.Or(a.AssignedAt.Compare(b.AssignedAt), cmp.Compare(a.ID, b.ID))
	})
	return out
}
