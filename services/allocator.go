package services

import (
	"fmt"
	"log"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"wms-core/models"
)

// Allocator - 슬롯 점수 계산 / 배정 / 해제.
//
// 점유 상태는 각 FloorMap 안에만 있고 (배치 테이블과 같은 구조), 모든 변경은 층 잠금
// 아래에서 일어난다. PlaceItem 은 추천과 배정을 한 트랜잭션으로 처리한다.
type Allocator struct {
	wh *Warehouse

	mu         sync.RWMutex
	highDemand map[string]bool
}

// NewAllocator - Allocator 생성
func NewAllocator(wh *Warehouse) *Allocator {
	return &Allocator{
		wh:         wh,
		highDemand: make(map[string]bool),
	}
}

// SetHighDemand - 수요 예측 상위 품목 집합 교체 (빈 집합 허용)
func (a *Allocator) SetHighDemand(itemIDs []string) {
	set := make(map[string]bool, len(itemIDs))
	for _, id := range itemIDs {
		if id = strings.TrimSpace(id); id != "" {
			set[id] = true
		}
	}
	a.mu.Lock()
	a.highDemand = set
	a.mu.Unlock()
	log.Printf("📈 [Allocator] 수요 예측 상위 품목 %d개 반영", len(set))
}

// HighDemand returns the current boost set, sorted.
func (a *Allocator) HighDemand() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]string, 0, len(a.highDemand))
	for id := range a.highDemand {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func (a *Allocator) isHighDemand(itemID string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.highDemand[itemID]
}

func validateItem(item models.Item) error {
	if strings.TrimSpace(item.ID) == "" {
		return fmt.Errorf("%w: item id is empty", ErrInvalidRequest)
	}
	if !item.Turnover.Valid() {
		return fmt.Errorf("%w: unknown turnover class %q", ErrInvalidRequest, item.Turnover)
	}
	if item.Weight < 0 || math.IsNaN(item.Weight) {
		return fmt.Errorf("%w: weight must be >= 0", ErrInvalidRequest)
	}
	return nil
}

// ========================================
// 점수 계산
// ========================================

// scorer - 한 번의 요청 동안 쓰는 점수 계산 컨텍스트 (층 잠금 아래에서만 사용)
type scorer struct {
	weights   models.ScoringWeights
	pf        *Pathfinder
	boosted   bool
	exitCache map[*FloorMap][]int
}

func (a *Allocator) newScorer(item models.Item) *scorer {
	return &scorer{
		weights:   a.wh.Tuning().Scoring,
		pf:        a.wh.Pathfinder(),
		boosted:   a.isHighDemand(item.ID),
		exitCache: make(map[*FloorMap][]int),
	}
}

func (s *scorer) exitDistances(fm *FloorMap) []int {
	d, ok := s.exitCache[fm]
	if !ok {
		d = s.pf.ExitDistances(fm)
		s.exitCache[fm] = d
	}
	return d
}

// eligible - 하드 제약: 보행 접근 가능, 위험물은 안전 존, 파손주의는 출구에서 충분히 먼 셀
func (s *scorer) eligible(fm *FloorMap, item models.Item, c models.Cell) (int, bool) {
	exitDist := s.exitDistances(fm)[fm.idx(c)]
	if exitDist < 0 {
		return 0, false
	}
	if item.Hazardous && !fm.IsHazmatSafe(c) {
		return 0, false
	}
	if item.Fragile && exitDist < s.weights.FragileMinExitDistance {
		return 0, false
	}
	return exitDist, true
}

// scoreLocked - 낮을수록 좋은 점수와 항목별 기여도
func (s *scorer) scoreLocked(fm *FloorMap, item models.Item, c models.Cell, exitDist int) (float64, map[string]float64) {
	w := s.weights

	mult := w.TurnoverMultiplier(item.Turnover)
	if s.boosted {
		mult *= w.ForecastBoost
	}
	alpha := 1 + w.TrafficAlpha*float64(fm.trafficAtLocked(c))
	distance := float64(exitDist) * mult * alpha

	weight := 0.0
	if w.HeavyWeightThreshold > 0 && item.Weight > w.HeavyWeightThreshold {
		ratio := item.Weight / w.HeavyWeightThreshold
		weight = float64(fm.Index())*w.FloorPenalty + float64(exitDist)*w.HeavyDistanceFactor*ratio
	}

	congestion := w.CongestionWeight * float64(fm.occupiedRingLocked(c))
	workload := w.WorkloadWeight * float64(fm.pendingRingLocked(c))

	total := distance + weight + congestion + workload
	return total, map[string]float64{
		"distance":   distance,
		"alpha":      alpha,
		"weight":     weight,
		"congestion": congestion,
		"workload":   workload,
	}
}

// suggestLocked - 모든 층의 빈 보관 셀 중 최소 점수 후보. 동점은 층, y, x 순.
func (s *scorer) suggestLocked(floors []*FloorMap, item models.Item, exclude map[models.FloorPick]bool) (models.SlotSuggestion, bool) {
	var best models.SlotSuggestion
	found := false
	for _, fm := range floors {
		for i, isStorage := range fm.storage {
			if !isStorage {
				continue
			}
			if _, taken := fm.occupancy[i]; taken {
				continue
			}
			c := fm.cellAt(i)
			if exclude[models.FloorPick{Floor: fm.Index(), Cell: c}] {
				continue
			}
			exitDist, ok := s.eligible(fm, item, c)
			if !ok {
				continue
			}
			score, breakdown := s.scoreLocked(fm, item, c, exitDist)
			if !found || score < best.Score {
				best = models.SlotSuggestion{Floor: fm.Index(), Cell: c, Score: score, Breakdown: breakdown}
				found = true
			}
		}
	}
	return best, found
}

// findItemLocked - 품목의 현재 배치 (모든 층 잠금 상태에서)
func findItemLocked(floors []*FloorMap, itemID string) (*FloorMap, *models.Placement) {
	for _, fm := range floors {
		for _, p := range fm.occupancy {
			if p.Item.ID == itemID {
				return fm, p
			}
		}
	}
	return nil, nil
}

// ========================================
// 공개 연산
// ========================================

// SuggestSlot - 최적 슬롯 추천 (상태 변경 없음). 후보가 없으면 ok=false.
func (a *Allocator) SuggestSlot(item models.Item) (models.SlotSuggestion, bool, error) {
	if err := validateItem(item); err != nil {
		return models.SlotSuggestion{}, false, err
	}
	floors, unlock := a.wh.lockFloors(false)
	defer unlock()

	s := a.newScorer(item)
	sug, ok := s.suggestLocked(floors, item, nil)
	return sug, ok, nil
}

// PlaceItem - 추천 + 배정을 한 번에 (동시 호출자가 같은 셀을 받지 않는다).
// 후보가 없으면 ok=false, 에러 없음.
func (a *Allocator) PlaceItem(item models.Item, actor models.Actor) (models.Placement, bool, error) {
	if err := validateItem(item); err != nil {
		return models.Placement{}, false, err
	}
	floors, unlock := a.wh.lockFloors(true)

	if _, p := findItemLocked(floors, item.ID); p != nil {
		unlock()
		return models.Placement{}, false, fmt.Errorf("%w: %s at floor %d cell %s", ErrItemPlaced, item.ID, p.Floor, p.Cell)
	}

	s := a.newScorer(item)
	sug, ok := s.suggestLocked(floors, item, nil)
	if !ok {
		unlock()
		log.Printf("⚠️ [Allocator] 빈 슬롯 없음: %s", item.ID)
		return models.Placement{}, false, nil
	}

	fm := floorByIndex(floors, sug.Floor)
	p := models.NewPlacement(item, sug.Floor, sug.Cell, sug.Score)
	if err := fm.occupyLocked(p); err != nil {
		unlock()
		return models.Placement{}, false, fmt.Errorf("%w: %v", ErrCorruptOccupancy, err)
	}
	placed := *p
	unlock()

	a.emitPlacement(actor, placed, "")
	return placed, true, nil
}

// AssignSlot - 지정 셀에 배정. 셀이 비어 있지 않거나 제약을 어기면 실패한다.
func (a *Allocator) AssignSlot(item models.Item, floor int, cell models.Cell, actor models.Actor) (models.Placement, error) {
	if err := validateItem(item); err != nil {
		return models.Placement{}, err
	}
	floors, unlock := a.wh.lockFloors(true)

	fm := floorByIndex(floors, floor)
	if fm == nil {
		unlock()
		return models.Placement{}, fmt.Errorf("%w: %d", ErrUnknownFloor, floor)
	}
	if !fm.InBounds(cell) {
		unlock()
		return models.Placement{}, fmt.Errorf("%w: floor %d cell %s", ErrOutOfBounds, floor, cell)
	}
	if !fm.IsStorage(cell) {
		unlock()
		return models.Placement{}, fmt.Errorf("%w: floor %d cell %s", ErrNotStorageCell, floor, cell)
	}
	if !fm.availableLocked(cell) {
		unlock()
		return models.Placement{}, fmt.Errorf("%w: floor %d cell %s", ErrSlotTaken, floor, cell)
	}
	if _, p := findItemLocked(floors, item.ID); p != nil {
		unlock()
		return models.Placement{}, fmt.Errorf("%w: %s", ErrItemPlaced, item.ID)
	}

	s := a.newScorer(item)
	exitDist, ok := s.eligible(fm, item, cell)
	if !ok {
		unlock()
		return models.Placement{}, fmt.Errorf("%w: cell %s violates placement constraints for %s", ErrInvalidRequest, cell, item.ID)
	}
	score, _ := s.scoreLocked(fm, item, cell, exitDist)

	p := models.NewPlacement(item, floor, cell, score)
	if err := fm.occupyLocked(p); err != nil {
		unlock()
		return models.Placement{}, err
	}
	placed := *p
	unlock()

	a.emitPlacement(actor, placed, "")
	return placed, nil
}

// ReleaseSlot - 셀 해제 (Reserved → Released → Free). 해제된 배치를 돌려준다.
func (a *Allocator) ReleaseSlot(floor int, cell models.Cell, actor models.Actor) (models.Placement, error) {
	fm, unlock, err := a.wh.lockFloor(floor)
	if err != nil {
		return models.Placement{}, err
	}
	p, ok := fm.vacateLocked(cell)
	unlock()
	if !ok {
		return models.Placement{}, fmt.Errorf("%w: floor %d cell %s", ErrItemNotPlaced, floor, cell)
	}
	return a.finishRelease(*p, actor), nil
}

// ReleaseItem - 품목 ID 로 해제
func (a *Allocator) ReleaseItem(itemID string, actor models.Actor) (models.Placement, error) {
	floors, unlock := a.wh.lockFloors(true)
	fm, p := findItemLocked(floors, itemID)
	if p == nil {
		unlock()
		return models.Placement{}, fmt.Errorf("%w: %s", ErrItemNotPlaced, itemID)
	}
	fm.vacateLocked(p.Cell)
	released := *p
	unlock()

	return a.finishRelease(released, actor), nil
}

func (a *Allocator) finishRelease(p models.Placement, actor models.Actor) models.Placement {
	before := p
	now := time.Now()
	p.State = models.SlotReleased
	p.ReleasedAt = &now

	rec := auditRecord(actor, models.ActionRelease, p.Floor, p.Cell)
	rec.ItemID = p.Item.ID
	rec.Before = marshalState(before)
	rec.After = marshalState(models.SlotFree)
	a.wh.audit.Record(rec)
	a.wh.publish(models.MessageTypeRelease, p)
	return p
}

// Locate - 품목의 현재 배치
func (a *Allocator) Locate(itemID string) (models.Placement, bool) {
	floors, unlock := a.wh.lockFloors(false)
	defer unlock()
	_, p := findItemLocked(floors, itemID)
	if p == nil {
		return models.Placement{}, false
	}
	return *p, true
}

// SeedOccupancy - 재고 스냅샷으로 점유 상태 전체 교체.
// 스냅샷이 잘못되면 ErrCorruptOccupancy 를 돌려주고 기존 상태는 그대로 둔다.
func (a *Allocator) SeedOccupancy(entries []models.OccupancyEntry, actor models.Actor) error {
	floors, unlock := a.wh.lockFloors(true)

	next := make(map[*FloorMap]map[int]*models.Placement, len(floors))
	for _, fm := range floors {
		next[fm] = make(map[int]*models.Placement)
	}
	items := make(map[string]bool, len(entries))

	for k, e := range entries {
		fm := floorByIndex(floors, e.Floor)
		switch {
		case fm == nil:
			unlock()
			return fmt.Errorf("%w: entry %d: unknown floor %d", ErrCorruptOccupancy, k, e.Floor)
		case !fm.IsStorage(e.Cell):
			unlock()
			return fmt.Errorf("%w: entry %d: floor %d cell %s is not a storage slot", ErrCorruptOccupancy, k, e.Floor, e.Cell)
		case e.Item.ID == "" || items[e.Item.ID]:
			unlock()
			return fmt.Errorf("%w: entry %d: item id %q empty or duplicated", ErrCorruptOccupancy, k, e.Item.ID)
		}
		i := fm.idx(e.Cell)
		if _, dup := next[fm][i]; dup {
			unlock()
			return fmt.Errorf("%w: entry %d: floor %d cell %s listed twice", ErrCorruptOccupancy, k, e.Floor, e.Cell)
		}
		if e.Item.Turnover == "" {
			e.Item.Turnover = models.TurnoverMedium
		}
		if err := validateItem(e.Item); err != nil {
			unlock()
			return fmt.Errorf("%w: entry %d: %w", ErrCorruptOccupancy, k, err)
		}
		items[e.Item.ID] = true
		next[fm][i] = models.NewPlacement(e.Item, e.Floor, e.Cell, 0)
	}

	for fm, occ := range next {
		fm.occupancy = occ
	}
	unlock()

	rec := auditRecord(actor, models.ActionSeed, 0, models.Cell{})
	rec.After = marshalState(map[string]int{"placements": len(entries)})
	a.wh.audit.Record(rec)
	log.Printf("📦 [Allocator] 재고 스냅샷 동기화: %d개 배치", len(entries))
	return nil
}

func (a *Allocator) emitPlacement(actor models.Actor, p models.Placement, justification string) {
	action := models.ActionAssign
	if p.Manual {
		action = models.ActionOverride
	}
	rec := auditRecord(actor, action, p.Floor, p.Cell)
	rec.ItemID = p.Item.ID
	rec.Before = marshalState(models.SlotFree)
	rec.After = marshalState(p)
	rec.Justification = justification
	a.wh.audit.Record(rec)
	a.wh.publish(models.MessageTypePlacement, p)
}

func floorByIndex(floors []*FloorMap, index int) *FloorMap {
	for _, fm := range floors {
		if fm.Index() == index {
			return fm
		}
	}
	return nil
}
