package models

import (
	"fmt"
	"time"
)

// ========================================
// 존 종류 상수
// ========================================
const (
	ZoneWalkable   ZoneKind = "walkable"   // 통로 (코리도어로 집계)
	ZoneStorage    ZoneKind = "storage"    // 랙 / 보관 슬롯
	ZoneTransition ZoneKind = "transition" // 엘리베이터 등 층간 이동
	ZoneObstacle   ZoneKind = "obstacle"   // 기둥, 벽, 설비
)

// ZoneKind - 존의 의미 태그 (레이아웃 로드 시 명시, 이름으로 추론하지 않음)
type ZoneKind string

// Valid reports whether k is one of the four declared kinds.
func (k ZoneKind) Valid() bool {
	switch k {
	case ZoneWalkable, ZoneStorage, ZoneTransition, ZoneObstacle:
		return true
	}
	return false
}

// Restrictiveness orders kinds for overlapping zones; the highest wins.
func (k ZoneKind) Restrictiveness() int {
	switch k {
	case ZoneObstacle:
		return 3
	case ZoneTransition:
		return 2
	case ZoneStorage:
		return 1
	default:
		return 0
	}
}

// BlocksWalking - 보행(카트 주행) 불가 여부
func (k ZoneKind) BlocksWalking() bool {
	return k == ZoneObstacle || k == ZoneTransition || k == ZoneStorage
}

// ========================================
// 좌표 / 영역
// ========================================

// Cell - 한 층 그리드의 정수 좌표
type Cell struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Manhattan returns |dx| + |dy|.
func (c Cell) Manhattan(o Cell) int {
	return abs(c.X-o.X) + abs(c.Y-o.Y)
}

// Chebyshev returns max(|dx|, |dy|).
func (c Cell) Chebyshev(o Cell) int {
	return max(abs(c.X-o.X), abs(c.Y-o.Y))
}

// Add offsets the cell.
func (c Cell) Add(dx, dy int) Cell {
	return Cell{X: c.X + dx, Y: c.Y + dy}
}

func (c Cell) String() string {
	return fmt.Sprintf("%d,%d", c.X, c.Y)
}

// Rect - 축 정렬 사각형 (양 끝 포함)
type Rect struct {
	X0 int `json:"x0" yaml:"x0"`
	Y0 int `json:"y0" yaml:"y0"`
	X1 int `json:"x1" yaml:"x1"`
	Y1 int `json:"y1" yaml:"y1"`
}

// Normalized returns the rect with X0<=X1 and Y0<=Y1.
func (r Rect) Normalized() Rect {
	if r.X0 > r.X1 {
		r.X0, r.X1 = r.X1, r.X0
	}
	if r.Y0 > r.Y1 {
		r.Y0, r.Y1 = r.Y1, r.Y0
	}
	return r
}

// Contains reports whether c lies inside the (normalized) rect.
func (r Rect) Contains(c Cell) bool {
	n := r.Normalized()
	return c.X >= n.X0 && c.X <= n.X1 && c.Y >= n.Y0 && c.Y <= n.Y1
}

// Center - 사각형 중심 셀 (정수 나눗셈)
func (r Rect) Center() Cell {
	n := r.Normalized()
	return Cell{X: (n.X0 + n.X1) / 2, Y: (n.Y0 + n.Y1) / 2}
}

// Zone - 이름이 있는 영역. 불규칙한 모양은 사각형 여러 개로 표현한다.
type Zone struct {
	Name       string   `json:"name" yaml:"name"`
	Kind       ZoneKind `json:"kind" yaml:"kind"`
	Rects      []Rect   `json:"rects" yaml:"rects"`
	HazmatSafe bool     `json:"hazmat_safe,omitempty" yaml:"hazmat_safe,omitempty"` // 위험물 보관 허용 구역
}

// Contains reports whether any rect of the zone covers c.
func (z Zone) Contains(c Cell) bool {
	for _, r := range z.Rects {
		if r.Contains(c) {
			return true
		}
	}
	return false
}

// ========================================
// 층 / 창고 레이아웃
// ========================================

// FloorLayout - 한 층의 정적 레이아웃 정의
type FloorLayout struct {
	Index     int    `json:"index" yaml:"index"`
	Name      string `json:"name" yaml:"name"`
	Width     int    `json:"width" yaml:"width"`
	Height    int    `json:"height" yaml:"height"`
	Zones     []Zone `json:"zones" yaml:"zones"`
	Obstacles []Cell `json:"obstacles" yaml:"obstacles"` // 고정 장애물 셀
	Exits     []Cell `json:"exits" yaml:"exits"`         // 출고 지점
}

// WarehouseLayout - 창고 전체 레이아웃 + 튜닝 값
type WarehouseLayout struct {
	Name      string        `json:"name" yaml:"name"`
	Floors    []FloorLayout `json:"floors" yaml:"floors"`
	Tuning    Tuning        `json:"tuning" yaml:"tuning"`
	CreatedAt time.Time     `json:"created_at" yaml:"-"`
}

// FloorSummary - 층 정보 응답용
type FloorSummary struct {
	Index         int    `json:"index"`
	Name          string `json:"name"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Zones         int    `json:"zones"`
	WalkableCells int    `json:"walkable_cells"`
	StorageCells  int    `json:"storage_cells"`
	OccupiedCells int    `json:"occupied_cells"`
	LayoutVersion uint64 `json:"layout_version"`
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
