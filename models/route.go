package models

import "time"

// RouteKPI - 경로 지표
type RouteKPI struct {
	TotalDistance int     `json:"total_distance"` // 간선 비용 합 (셀)
	Turns         int     `json:"turns"`          // 셀 단위 경로의 방향 전환 수
	EstimatedTime float64 `json:"estimated_time"` // 초
	ItemCount     int     `json:"item_count"`
}

// Route - 피킹 방문 순서 + 지표
type Route struct {
	ID        string    `json:"id"`
	Floor     int       `json:"floor"`
	Start     Cell      `json:"start"`
	Stops     []Cell    `json:"stops"`     // 방문 순서 (start 제외)
	Path      []Cell    `json:"path"`      // 셀 단위로 이어 붙인 경로
	Blocked   []Cell    `json:"blocked"`   // 도달 불가 목표
	Fallbacks []Cell    `json:"fallbacks"` // 맨해튼 거리로 대체된 목표 (범위 밖 등)
	KPI       RouteKPI  `json:"kpi"`
	Truncated bool      `json:"truncated"` // 마감으로 2-opt 중단
	CreatedAt time.Time `json:"created_at"`
}

// FloorPick - 층이 지정된 피킹 위치
type FloorPick struct {
	Floor int  `json:"floor"`
	Cell  Cell `json:"cell"`
}

// FloorLeg - 다층 경로의 한 층 구간
type FloorLeg struct {
	Route  *Route `json:"route"`
	Shaft  string `json:"shaft,omitempty"`  // 다음 층으로 이동할 엘리베이터 존
	Access *Cell  `json:"access,omitempty"` // 엘리베이터 접근 셀
}

// MultiFloorRoute - 여러 층에 걸친 경로
type MultiFloorRoute struct {
	ID      string      `json:"id"`
	Legs    []FloorLeg  `json:"legs"`
	Blocked []FloorPick `json:"blocked"`
	KPI     RouteKPI    `json:"kpi"`
}

// HeatmapPoint - 셀별 통행 카운터
type HeatmapPoint struct {
	Cell      Cell    `json:"cell"`
	Value     int     `json:"value"`     // 원시 카운트
	Intensity float64 `json:"intensity"` // 0-1 정규화
}

// Heatmap - 층 통행 히트맵
type Heatmap struct {
	Floor     int            `json:"floor"`
	Points    []HeatmapPoint `json:"points"`
	MaxValue  int            `json:"max_value"`
	Corridors map[string]int `json:"corridors"`
}
