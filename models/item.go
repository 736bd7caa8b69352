package models

import (
	"time"

	"github.com/google/uuid"
)

// ========================================
// 회전율 등급 상수
// ========================================
const (
	TurnoverFast   TurnoverClass = "fast"
	TurnoverMedium TurnoverClass = "medium"
	TurnoverSlow   TurnoverClass = "slow"
)

// TurnoverClass - 피킹 빈도 등급
type TurnoverClass string

// Valid reports whether c is a known class.
func (c TurnoverClass) Valid() bool {
	return c == TurnoverFast || c == TurnoverMedium || c == TurnoverSlow
}

// 슬롯 상태: Free → Reserved(item) → Released → Free
const (
	SlotFree     SlotState = "free"
	SlotReserved SlotState = "reserved"
	SlotReleased SlotState = "released"
)

// SlotState - 보관 셀 상태
type SlotState string

// Item - 배치 요청 품목
type Item struct {
	ID        string        `json:"id"`
	Weight    float64       `json:"weight"` // kg
	Turnover  TurnoverClass `json:"turnover"`
	Hazardous bool          `json:"hazardous"`
	Fragile   bool          `json:"fragile"`
}

// Placement - 품목과 (층, 셀)의 바인딩
type Placement struct {
	ID         string     `json:"id"`
	Item       Item       `json:"item"`
	Floor      int        `json:"floor"`
	Cell       Cell       `json:"cell"`
	State      SlotState  `json:"state"`
	Score      float64    `json:"score"`
	Manual     bool       `json:"manual"` // 관리자 수동 배치
	PlacedAt   time.Time  `json:"placed_at"`
	ReleasedAt *time.Time `json:"released_at,omitempty"`
}

// NewPlacement - Reserved 상태의 배치 생성
func NewPlacement(item Item, floor int, cell Cell, score float64) *Placement {
	return &Placement{
		ID:       uuid.New().String(),
		Item:     item,
		Floor:    floor,
		Cell:     cell,
		State:    SlotReserved,
		Score:    score,
		PlacedAt: time.Now(),
	}
}

// SlotSuggestion - 슬롯 추천 결과
type SlotSuggestion struct {
	Floor     int                `json:"floor"`
	Cell      Cell               `json:"cell"`
	Score     float64            `json:"score"`
	Breakdown map[string]float64 `json:"breakdown"` // 항목별 점수 기여도
}

// OccupancyEntry - 재고 스냅샷의 한 줄 (어느 셀이 어떤 품목으로 차 있는지)
type OccupancyEntry struct {
	Floor int  `json:"floor"`
	Cell  Cell `json:"cell"`
	Item  Item `json:"item"`
}

// RelocationProposal - 재배치 제안
type RelocationProposal struct {
	Placement    Placement `json:"placement"`
	ToFloor      int       `json:"to_floor"`
	ToCell       Cell      `json:"to_cell"`
	CurrentScore float64   `json:"current_score"`
	NewScore     float64   `json:"new_score"`
	Improvement  float64   `json:"improvement"` // 1 - new/current
	Reasons      []string  `json:"reasons"`     // "traffic", "turnover_mismatch"
}

// ManualPlacement - 관리자 수동 배치 명령
type ManualPlacement struct {
	Item          Item   `json:"item"`
	Floor         int    `json:"floor"`
	Cell          Cell   `json:"cell"`
	Justification string `json:"justification"`
	Actor         Actor  `json:"actor"`
}

// Actor - 외부 인증 시스템이 제공하는 행위자 정보 (코어는 조회만 한다)
type Actor struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// SystemActor - 내부 자동 처리 행위자
var SystemActor = Actor{ID: "system", Role: "system"}
