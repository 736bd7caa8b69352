package services

import (
	"encoding/json"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"wms-core/models"
)

// AuditStore - 감사 레코드 저장/조회 대상
type AuditStore interface {
	WriteBatch(records []models.AuditRecord) error
	Recent(limit int) ([]models.AuditRecord, error)
	ByAction(action string, limit int) ([]models.AuditRecord, error)
	Between(start, end time.Time, limit int) ([]models.AuditRecord, error)
	Stats(hours int) (models.AuditStats, error)
}

// AuditLog - 감사 로그 버퍼 (비동기 일괄 처리)
type AuditLog struct {
	records   []models.AuditRecord
	mu        sync.Mutex
	flushMu   sync.Mutex
	store     AuditStore
	flushSize int           // 일괄 저장 크기
	flushTime time.Duration // 자동 플러시 시간
	stopChan  chan bool
	running   bool
}

// NewAuditLog - 감사 로그 생성 (store 가 nil 이면 메모리 저장소)
func NewAuditLog(store AuditStore, flushSize int, flushInterval time.Duration) *AuditLog {
	if store == nil {
		store = NewMemoryAuditStore(10_000)
	}
	if flushSize <= 0 {
		flushSize = 50
	}
	if flushInterval <= 0 {
		flushInterval = 5 * time.Second
	}
	return &AuditLog{
		records:   make([]models.AuditRecord, 0, flushSize*2),
		store:     store,
		flushSize: flushSize,
		flushTime: flushInterval,
		stopChan:  make(chan bool),
	}
}

// Store returns the backing store (used for queries).
func (al *AuditLog) Store() AuditStore { return al.store }

// Start - 자동 플러시 고루틴 시작
func (al *AuditLog) Start() {
	al.mu.Lock()
	if al.running {
		al.mu.Unlock()
		return
	}
	al.running = true
	al.mu.Unlock()

	go al.autoFlush()
	log.Printf("✅ 감사 로그 시작 (flushSize: %d, flushInterval: %v)", al.flushSize, al.flushTime)
}

// autoFlush - 주기적 저장
func (al *AuditLog) autoFlush() {
	ticker := time.NewTicker(al.flushTime)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			al.Flush()
		case <-al.stopChan:
			al.Flush() // 종료 시 남은 레코드 저장
			return
		}
	}
}

// Record - 버퍼에 추가. 버퍼가 차면 즉시 플러시한다.
func (al *AuditLog) Record(rec models.AuditRecord) {
	if al == nil {
		return
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	al.mu.Lock()
	al.records = append(al.records, rec)
	size := len(al.records)
	running := al.running
	al.mu.Unlock()

	if size >= al.flushSize {
		if running {
			go al.Flush()
		} else {
			al.Flush()
		}
	}
}

// Flush - 버퍼의 모든 레코드를 저장소에 기록
func (al *AuditLog) Flush() {
	al.flushMu.Lock()
	defer al.flushMu.Unlock()

	al.mu.Lock()
	if len(al.records) == 0 {
		al.mu.Unlock()
		return
	}
	toSave := make([]models.AuditRecord, len(al.records))
	copy(toSave, al.records)
	al.records = al.records[:0]
	al.mu.Unlock()

	if err := al.store.WriteBatch(toSave); err != nil {
		log.Printf("❌ 감사 로그 저장 실패: %v", err)
		return
	}
	log.Printf("💾 감사 로그 %d개 저장 완료", len(toSave))
}

// Pending returns the number of buffered, unflushed records.
func (al *AuditLog) Pending() int {
	al.mu.Lock()
	defer al.mu.Unlock()
	return len(al.records)
}

// Stop - 자동 플러시 종료 (남은 레코드 저장)
func (al *AuditLog) Stop() {
	al.mu.Lock()
	running := al.running
	al.running = false
	al.mu.Unlock()

	if running {
		al.stopChan <- true
	} else {
		al.Flush()
	}
	log.Println("🛑 감사 로그 종료")
}

// ========================================
// 레코드 생성 헬퍼
// ========================================

// auditRecord - 기본 필드가 채워진 레코드
func auditRecord(actor models.Actor, action string, floor int, cell models.Cell) models.AuditRecord {
	return models.AuditRecord{
		CreatedAt: time.Now(),
		Actor:     actor.ID,
		ActorRole: actor.Role,
		Action:    action,
		Floor:     floor,
		CellX:     cell.X,
		CellY:     cell.Y,
	}
}

// marshalState - before/after 스냅샷 JSON 직렬화
func marshalState(v interface{}) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// ========================================
// 메모리 저장소 (DB 미사용 시)
// ========================================

// MemoryAuditStore - 최근 N개만 보관하는 인메모리 저장소
type MemoryAuditStore struct {
	mu      sync.RWMutex
	records []models.AuditRecord
	limit   int
	nextID  uint
}

// NewMemoryAuditStore - limit 개까지 보관
func NewMemoryAuditStore(limit int) *MemoryAuditStore {
	return &MemoryAuditStore{limit: limit}
}

// WriteBatch implements AuditStore.
func (m *MemoryAuditStore) WriteBatch(records []models.AuditRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		m.nextID++
		r.ID = m.nextID
		m.records = append(m.records, r)
	}
	if over := len(m.records) - m.limit; m.limit > 0 && over > 0 {
		m.records = slices.Delete(m.records, 0, over)
	}
	return nil
}

// Recent implements AuditStore (newest first).
func (m *MemoryAuditStore) Recent(limit int) ([]models.AuditRecord, error) {
	return m.filter(func(models.AuditRecord) bool { return true }, limit), nil
}

// ByAction implements AuditStore (newest first).
func (m *MemoryAuditStore) ByAction(action string, limit int) ([]models.AuditRecord, error) {
	return m.filter(func(r models.AuditRecord) bool { return r.Action == action }, limit), nil
}

// Between implements AuditStore (newest first).
func (m *MemoryAuditStore) Between(start, end time.Time, limit int) ([]models.AuditRecord, error) {
	return m.filter(func(r models.AuditRecord) bool {
		return !r.CreatedAt.Before(start) && !r.CreatedAt.After(end)
	}, limit), nil
}

// Stats implements AuditStore.
func (m *MemoryAuditStore) Stats(hours int) (models.AuditStats, error) {
	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	stats := models.AuditStats{
		ActionCounts: make(map[string]int64),
		TimeRange:    fmt.Sprintf("Last %d hours", hours),
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.records {
		if r.CreatedAt.Before(since) {
			continue
		}
		stats.Total++
		stats.ActionCounts[r.Action]++
	}
	return stats, nil
}

func (m *MemoryAuditStore) filter(keep func(models.AuditRecord) bool, limit int) []models.AuditRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.AuditRecord
	for i := len(m.records) - 1; i >= 0; i-- {
		if !keep(m.records[i]) {
			continue
		}
		out = append(out, m.records[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
