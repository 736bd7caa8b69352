package services

import (
	"cmp"
	"fmt"
	"log"
	"slices"
	"strings"
	"sync"
	"time"

	"wms-core/models"
)

// Fleet - 카트(chariot) 상태 관리
type Fleet struct {
	mu    sync.RWMutex
	carts map[string]*models.Cart // cart_id -> Cart
}

// NewFleet - Fleet 생성
func NewFleet() *Fleet {
	return &Fleet{carts: make(map[string]*models.Cart)}
}

// Register - 카트 등록
//
// 새 카트를 등록하거나, 이미 있으면 용량/위치만 갱신한다.
// 누적 작업 수와 이동 거리는 세션 동안 유지된다.
func (f *Fleet) Register(id string, capacity, floor int, position models.Cell) (models.Cart, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.Cart{}, fmt.Errorf("%w: cart id is empty", ErrInvalidRequest)
	}
	if capacity < 1 {
		return models.Cart{}, fmt.Errorf("%w: cart capacity must be >= 1", ErrInvalidRequest)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	if cart, exists := f.carts[id]; exists {
		cart.Capacity = capacity
		cart.Floor = floor
		cart.Position = position
		cart.LastUpdate = now
		log.Printf("[Fleet] cart re-registered: %s\n", id)
		return *cart, nil
	}

	cart := &models.Cart{
		ID:           id,
		Capacity:     capacity,
		Floor:        floor,
		Position:     position,
		State:        models.CartIdle,
		RegisteredAt: now,
		LastUpdate:   now,
	}
	f.carts[id] = cart
	log.Printf("[Fleet] cart registered: %s (capacity %d)\n", id, capacity)
	return *cart, nil
}

// Get - 카트 조회
func (f *Fleet) Get(id string) (models.Cart, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	cart, exists := f.carts[id]
	if !exists {
		return models.Cart{}, fmt.Errorf("%w: %s", ErrUnknownCart, id)
	}
	return *cart, nil
}

// All - 모든 카트 (ID 순)
func (f *Fleet) All() []models.Cart {
	f.mu.RLock()
	defer f.mu.RUnlock()

	result := make([]models.Cart, 0, len(f.carts))
	for _, cart := range f.carts {
		result = append(result, *cart)
	}
	slices.SortFunc(result, func(a, b models.Cart) int { return cmp.Compare(a.ID, b.ID) })
	return result
}

// Count - 등록된 카트 수
func (f *Fleet) Count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.carts)
}

// move - 작업 배정 결과 반영 (위치, 누적 작업/거리)
func (f *Fleet) move(id string, floor int, position models.Cell, distance int) (models.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cart, exists := f.carts[id]
	if !exists {
		return models.Cart{}, fmt.Errorf("%w: %s", ErrUnknownCart, id)
	}
	cart.Floor = floor
	cart.Position = position
	cart.TasksDone++
	cart.DistanceMoved += distance
	cart.State = models.CartAssigned
	cart.LastUpdate = time.Now()
	return *cart, nil
}

// setState - 카트 상태 변경
func (f *Fleet) setState(id string, state models.CartState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cart, ok := f.carts[id]; ok {
		cart.State = state
		cart.LastUpdate = time.Now()
	}
}

// Stats - 카트 통계
func (f *Fleet) Stats() models.FleetStats {
	f.mu.RLock()
	defer f.mu.RUnlock()

	stats := models.FleetStats{TotalCarts: len(f.carts)}
	for _, cart := range f.carts {
		if cart.State == models.CartIdle {
			stats.IdleCarts++
		}
		stats.TotalTasks += cart.TasksDone
		stats.TotalDistance += cart.DistanceMoved
	}
	if stats.TotalCarts > 0 {
		stats.AvgTasks = float64(stats.TotalTasks) / float64(stats.TotalCarts)
	}
	return stats
}

// ChooseCart - 용량 조건을 만족하는 카트 중 (작업 수 적은 순, 거리 가까운 순, 용량 큰 순, ID 순) 첫 번째.
// 용량을 만족하는 카트가 없으면 최대 용량 카트 중에서 고르고 ceil(required/capacity) 회 운행으로 분할한다.
func ChooseCart(carts []models.Cart, required int, distance func(models.Cart) int) (models.CartChoice, error) {
	if len(carts) == 0 {
		return models.CartChoice{}, ErrNoCarts
	}
	if required < 1 {
		required = 1
	}

	var pool []models.Cart
	for _, c := range carts {
		if c.Capacity >= required {
			pool = append(pool, c)
		}
	}
	split := false
	if len(pool) == 0 {
		maxCap := 0
		for _, c := range carts {
			maxCap = max(maxCap, c.Capacity)
		}
		for _, c := range carts {
			if c.Capacity == maxCap {
				pool = append(pool, c)
			}
		}
		split = true
	}

	dist := make(map[string]int, len(pool))
	for _, c := range pool {
		dist[c.ID] = distance(c)
	}
	slices.SortFunc(pool, func(a, b models.Cart) int {
		return cmp.Or(
			cmp.Compare(a.TasksDone, b.TasksDone),
			cmp.Compare(dist[a.ID], dist[b.ID]),
			cmp.Compare(b.Capacity, a.Capacity),
			cmp.Compare(a.ID, b.ID),
		)
	})

	best := pool[0]
	trips := 1
	if split {
		trips = (required + best.Capacity - 1) / best.Capacity
	}
	return models.CartChoice{
		Cart:     best,
		Distance: dist[best.ID],
		Trips:    trips,
		Split:    split && trips > 1,
	}, nil
}
