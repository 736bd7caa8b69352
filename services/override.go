package services

import (
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"wms-core/models"
)

// ValidateOverride - 수동 배치 명령의 사유/권한 검증 (상태 변경 전에 호출)
func ValidateOverride(policy models.OverridePolicy, cmd models.ManualPlacement) error {
	justification := strings.TrimSpace(cmd.Justification)
	if justification == "" {
		return fmt.Errorf("%w: justification is required", ErrInvalidOverride)
	}
	if n := utf8.RuneCountInString(justification); n < policy.MinJustificationLength {
		return fmt.Errorf("%w: justification has %d characters, need at least %d",
			ErrInvalidOverride, n, policy.MinJustificationLength)
	}

	level, known := policy.RoleLevels[cmd.Actor.Role]
	if cmd.Actor.ID == "" || !known || level < policy.RequiredLevel {
		return fmt.Errorf("%w: %w: actor %q role %q (level %d, need %d)",
			ErrInvalidOverride, ErrUnauthorized, cmd.Actor.ID, cmd.Actor.Role, level, policy.RequiredLevel)
	}
	return nil
}

// Override - 관리자 수동 배치. 점수와 업무 제약(위험물/파손주의)은 건너뛰지만
// 물리 제약(범위 안, 장애물이 아닌 빈 보관 셀)은 지킨다.
func (a *Allocator) Override(cmd models.ManualPlacement) (models.Placement, error) {
	if err := ValidateOverride(a.wh.Tuning().Override, cmd); err != nil {
		log.Printf("🚫 [Allocator] 수동 배치 거부: %v", err)
		return models.Placement{}, err
	}
	if cmd.Item.Turnover == "" {
		cmd.Item.Turnover = models.TurnoverMedium
	}
	if err := validateItem(cmd.Item); err != nil {
		return models.Placement{}, err
	}

	floors, unlock := a.wh.lockFloors(true)
	fm := floorByIndex(floors, cmd.Floor)
	switch {
	case fm == nil:
		unlock()
		return models.Placement{}, fmt.Errorf("%w: %d", ErrUnknownFloor, cmd.Floor)
	case !fm.InBounds(cmd.Cell):
		unlock()
		return models.Placement{}, fmt.Errorf("%w: floor %d cell %s", ErrOutOfBounds, cmd.Floor, cmd.Cell)
	case fm.IsObstacle(cmd.Cell):
		unlock()
		return models.Placement{}, fmt.Errorf("%w: floor %d cell %s is an obstacle", ErrNotStorageCell, cmd.Floor, cmd.Cell)
	case !fm.IsStorage(cmd.Cell):
		unlock()
		return models.Placement{}, fmt.Errorf("%w: floor %d cell %s", ErrNotStorageCell, cmd.Floor, cmd.Cell)
	}
	if _, p := findItemLocked(floors, cmd.Item.ID); p != nil {
		unlock()
		return models.Placement{}, fmt.Errorf("%w: %s", ErrItemPlaced, cmd.Item.ID)
	}

	p := models.NewPlacement(cmd.Item, cmd.Floor, cmd.Cell, 0)
	p.Manual = true
	if err := fm.occupyLocked(p); err != nil {
		unlock()
		return models.Placement{}, err
	}
	placed := *p
	unlock()

	log.Printf("✍️ [Allocator] 수동 배치: %s → 층 %d %s (%s)", cmd.Item.ID, cmd.Floor, cmd.Cell, cmd.Actor.ID)
	a.emitPlacement(cmd.Actor, placed, strings.TrimSpace(cmd.Justification))
	return placed, nil
}
