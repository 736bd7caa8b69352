package models

// ========================================
// 디스패치 메시지 타입 상수
// ========================================
const (
	// Server → 작업 실행 시스템
	MessageTypePlacement  = "placement"   // 슬롯 배정 결과
	MessageTypeRelease    = "release"     // 슬롯 해제
	MessageTypeRoute      = "route"       // 피킹 경로
	MessageTypeTask       = "task"        // 카트 작업 배정
	MessageTypeRelocation = "relocation"  // 재배치 제안
	MessageTypeCongestion = "congestion"  // 혼잡 우회 알림
	MessageTypeSystemInfo = "system_info" // 연결 확인 등

	// 작업 실행 시스템 → Server
	MessageTypeTaskDone = "task_done" // 작업 완료 보고
)

// ========================================
// 공통 WebSocket 메시지 형식
// ========================================
type WebSocketMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"` // Unix timestamp (ms)
}

// TaskDoneData - 작업 완료 보고
type TaskDoneData struct {
	TaskID string `json:"task_id"`
}

// CongestionData - 혼잡 우회 알림
type CongestionData struct {
	Floor     int    `json:"floor"`
	Preferred string `json:"preferred"`
	Actual    string `json:"actual"`
	Count     int    `json:"count"`
	Saturated bool   `json:"saturated"` // 모든 코리도어 포화
}
