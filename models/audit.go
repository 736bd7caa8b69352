package models

import (
	"time"
)

// 감사 로그 액션
const (
	ActionAssign     = "assign"      // 슬롯 배정
	ActionRelease    = "release"     // 슬롯 해제
	ActionOverride   = "override"    // 관리자 수동 배치
	ActionRebalance  = "rebalance"   // 재배치 제안
	ActionSeed       = "seed"        // 재고 스냅샷 동기화
	ActionTaskAssign = "task_assign" // 카트 작업 배정
	ActionReroute    = "reroute"     // 혼잡 우회
	ActionLayout     = "layout"      // 층 레이아웃 교체
)

// AuditRecord - 외부 불변 로그로 넘길 감사 레코드
type AuditRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	Actor     string `gorm:"index;size:64" json:"actor"`
	ActorRole string `gorm:"size:32" json:"actor_role"`
	Action    string `gorm:"index;size:32" json:"action"`

	// 대상
	Floor  int    `json:"floor"`
	CellX  int    `json:"cell_x"`
	CellY  int    `json:"cell_y"`
	ItemID string `gorm:"index;size:64" json:"item_id"`
	CartID string `gorm:"size:64" json:"cart_id"`

	// 변경 전/후 (JSON)
	Before string `json:"before"`
	After  string `json:"after"`

	Justification string `json:"justification"`
}

// AuditStats - 감사 로그 통계
type AuditStats struct {
	Total        int64            `json:"total"`
	ActionCounts map[string]int64 `json:"action_counts"`
	TimeRange    string           `json:"time_range"`
}
