package models

import "time"

// ========================================
// 카트 상태 상수
// ========================================
const (
	CartIdle     CartState = "idle"     // 대기 중
	CartAssigned CartState = "assigned" // 작업 배정됨
)

// CartState - 카트 상태 타입
type CartState string

// ========================================
// 카트(chariot) 정보
// ========================================
type Cart struct {
	ID            string    `json:"id"`             // 카트 고유 ID
	Capacity      int       `json:"capacity"`       // 적재 용량 (팔레트 단위)
	Floor         int       `json:"floor"`          // 현재 층
	Position      Cell      `json:"position"`       // 현재 위치
	State         CartState `json:"state"`          // 현재 상태
	TasksDone     int       `json:"tasks_done"`     // 누적 작업 수
	DistanceMoved int       `json:"distance_moved"` // 누적 이동 거리 (셀)
	RegisteredAt  time.Time `json:"registered_at"`
	LastUpdate    time.Time `json:"last_update"`
}

// CartChoice - 카트 선택 결과
type CartChoice struct {
	Cart     Cart `json:"cart"`
	Distance int  `json:"distance"` // 카트 위치 → 목표 거리
	Trips    int  `json:"trips"`    // 필요한 운행 횟수 (용량 부족 시 > 1)
	Split    bool `json:"split"`    // 작업 분할 필요 여부
}

// ========================================
// 작업
// ========================================

// TaskRequest - 작업 배정 요청
type TaskRequest struct {
	Floor    int    `json:"floor"`
	Target   Cell   `json:"target"`
	Pallets  int    `json:"pallets"`
	Corridor string `json:"corridor,omitempty"` // 비어 있으면 목표 셀의 코리도어
	ItemID   string `json:"item_id,omitempty"`
}

// TaskAssignment - 작업 배정 결과
type TaskAssignment struct {
	ID          string      `json:"id"`
	Request     TaskRequest `json:"request"`
	CartID      string      `json:"cart_id"`
	Trips       int         `json:"trips"`
	Split       bool        `json:"split"`
	Corridor    string      `json:"corridor"` // 실제 통과 코리도어
	Rerouted    bool        `json:"rerouted"` // 혼잡으로 우회했는지
	Path        []Cell      `json:"path"`     // 카트 → 목표 경로
	Distance    int         `json:"distance"`
	Fallback    bool        `json:"fallback"` // 경로 없음 → 맨해튼 거리 사용
	AssignedAt  time.Time   `json:"assigned_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

// ========================================
// 카트 통계 데이터
// ========================================
type FleetStats struct {
	TotalCarts    int     `json:"total_carts"`
	IdleCarts     int     `json:"idle_carts"`
	TotalTasks    int     `json:"total_tasks"`
	TotalDistance int     `json:"total_distance"`
	AvgTasks      float64 `json:"avg_tasks"`
}
