package services

import "errors"

// Sentinel errors for the warehouse core.
var (
	// ErrUnreachable - 탐색 반경 안에 도달 가능한 보행 셀이 없음 (목표 단위, 비치명적)
	ErrUnreachable = errors.New("services: target unreachable")
	// ErrOutOfBounds - 층 크기를 벗어난 셀
	ErrOutOfBounds = errors.New("services: cell out of bounds")
	// ErrNoAvailableSlot - 조건을 만족하는 빈 슬롯이 없음 (HTTP 응답 신호용)
	ErrNoAvailableSlot = errors.New("services: no available slot")
	// ErrInvalidOverride - 수동 배치 사유 부족 또는 권한 없음
	ErrInvalidOverride = errors.New("services: invalid override")
	// ErrUnauthorized - 수동 배치 권한 부족 (ErrInvalidOverride 로도 매칭됨)
	ErrUnauthorized = errors.New("services: actor not authorized")

	// ErrInvalidLayout - 레이아웃 구조 오류 (치명적)
	ErrInvalidLayout = errors.New("services: invalid floor layout")
	// ErrCorruptOccupancy - 점유 상태 오류 (치명적)
	ErrCorruptOccupancy = errors.New("services: corrupt occupancy state")

	ErrSlotTaken      = errors.New("services: slot not available")
	ErrNotStorageCell = errors.New("services: cell is not a storage slot")
	ErrUnknownFloor   = errors.New("services: unknown floor")
	ErrItemNotPlaced  = errors.New("services: item has no placement")
	ErrItemPlaced     = errors.New("services: item already placed")
	ErrUnknownCart    = errors.New("services: unknown cart")
	ErrNoCarts        = errors.New("services: no carts available")
	ErrUnknownTask    = errors.New("services: unknown task")
	ErrInvalidRequest = errors.New("services: invalid request")
)

func isUnreachable(err error) bool {
	return errors.Is(err, ErrUnreachable)
}
