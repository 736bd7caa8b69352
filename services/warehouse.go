package services

import (
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"wms-core/models"
)

// Warehouse - 층별 FloorMap 을 소유하고 각 컴포넌트에 같은 핸들을 주입한다.
//
// 잠금 순서: mu(RLock) → 층 인덱스 오름차순 FloorMap.mu. ReplaceFloor 만 mu 를 쓰기 잠금한다.
type Warehouse struct {
	name       string
	tuning     models.Tuning
	pathfinder *Pathfinder
	audit      *AuditLog

	mu      sync.RWMutex
	floors  map[int]*FloorMap
	order   []int
	version uint64

	bmu       sync.RWMutex
	broadcast func(models.WebSocketMessage)
}

// NewWarehouse - 레이아웃으로 창고 생성
func NewWarehouse(layout models.WarehouseLayout, audit *AuditLog) (*Warehouse, error) {
	if err := ValidateLayout(layout); err != nil {
		return nil, err
	}
	if audit == nil {
		audit = NewAuditLog(nil, 0, 0)
	}

	w := &Warehouse{
		name:       layout.Name,
		tuning:     layout.Tuning,
		pathfinder: NewPathfinder(layout.Tuning.SearchRadius),
		audit:      audit,
		floors:     make(map[int]*FloorMap, len(layout.Floors)),
	}
	for _, f := range layout.Floors {
		w.version++
		fm, err := NewFloorMap(f, w.version)
		if err != nil {
			return nil, err
		}
		w.floors[f.Index] = fm
		w.order = append(w.order, f.Index)
	}
	slices.Sort(w.order)

	log.Printf("✅ 창고 로드 완료: %s (%d개 층)", layout.Name, len(w.order))
	return w, nil
}

// Name returns the warehouse name.
func (w *Warehouse) Name() string { return w.name }

// Tuning returns the tuning block.
func (w *Warehouse) Tuning() models.Tuning { return w.tuning }

// Pathfinder returns the shared pathfinder.
func (w *Warehouse) Pathfinder() *Pathfinder { return w.pathfinder }

// Audit returns the audit log.
func (w *Warehouse) Audit() *AuditLog { return w.audit }

// SetBroadcaster - 디스패치 스트림 연결
func (w *Warehouse) SetBroadcaster(fn func(models.WebSocketMessage)) {
	w.bmu.Lock()
	defer w.bmu.Unlock()
	w.broadcast = fn
}

// publish - 디스패치 메시지 전송 (연결 없으면 무시)
func (w *Warehouse) publish(msgType string, data interface{}) {
	w.bmu.RLock()
	fn := w.broadcast
	w.bmu.RUnlock()
	if fn == nil {
		return
	}
	fn(models.WebSocketMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	})
}

// Floor - 층 조회
func (w *Warehouse) Floor(index int) (*FloorMap, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	fm, ok := w.floors[index]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFloor, index)
	}
	return fm, nil
}

// Floors returns all floors ordered by index.
func (w *Warehouse) Floors() []*FloorMap {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]*FloorMap, 0, len(w.order))
	for _, i := range w.order {
		out = append(out, w.floors[i])
	}
	return out
}

// Summaries - 층 요약 목록
func (w *Warehouse) Summaries() []models.FloorSummary {
	floors := w.Floors()
	out := make([]models.FloorSummary, 0, len(floors))
	for _, fm := range floors {
		out = append(out, fm.Summary())
	}
	return out
}

// lockFloors - 모든 층을 인덱스 순서로 잠근다. write=false 면 읽기 잠금.
func (w *Warehouse) lockFloors(write bool) ([]*FloorMap, func()) {
	w.mu.RLock()
	floors := make([]*FloorMap, 0, len(w.order))
	for _, i := range w.order {
		fm := w.floors[i]
		if write {
			fm.mu.Lock()
		} else {
			fm.mu.RLock()
		}
		floors = append(floors, fm)
	}
	return floors, func() {
		for k := len(floors) - 1; k >= 0; k-- {
			if write {
				floors[k].mu.Unlock()
			} else {
				floors[k].mu.RUnlock()
			}
		}
		w.mu.RUnlock()
	}
}

// lockFloor - 한 층만 쓰기 잠금
func (w *Warehouse) lockFloor(index int) (*FloorMap, func(), error) {
	w.mu.RLock()
	fm, ok := w.floors[index]
	if !ok {
		w.mu.RUnlock()
		return nil, nil, fmt.Errorf("%w: %d", ErrUnknownFloor, index)
	}
	fm.mu.Lock()
	return fm, func() {
		fm.mu.Unlock()
		w.mu.RUnlock()
	}, nil
}

// ReplaceFloor - 관리자 레이아웃 변경. 새 버전으로 층을 다시 만들고 경로 캐시를 통째로 비운다.
// 새 레이아웃에서도 보관 셀인 곳의 배치는 유지되고, 나머지는 반환된다 (점유 해제).
func (w *Warehouse) ReplaceFloor(layout models.FloorLayout, actor models.Actor) ([]models.Placement, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	old, ok := w.floors[layout.Index]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFloor, layout.Index)
	}

	w.version++
	fm, err := NewFloorMap(layout, w.version)
	if err != nil {
		w.version--
		return nil, err
	}

	old.mu.Lock()
	var dropped []models.Placement
	for _, p := range old.placementsLocked() {
		cp := p
		if err := fm.occupyLocked(&cp); err != nil {
			dropped = append(dropped, p)
		}
	}
	for name, v := range old.traffic {
		if _, ok := fm.corridorCells[name]; ok {
			fm.traffic[name] = v
		}
	}
	old.mu.Unlock()

	w.floors[layout.Index] = fm
	w.pathfinder.Invalidate()

	rec := auditRecord(actor, models.ActionLayout, layout.Index, models.Cell{})
	rec.Justification = "layout replaced"
	rec.After = marshalState(fm.Summary())
	w.audit.Record(rec)

	log.Printf("🗺️ 층 %d 레이아웃 교체 (version %d, 해제된 배치 %d개)", layout.Index, w.version, len(dropped))
	return dropped, nil
}
