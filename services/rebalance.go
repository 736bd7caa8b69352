package services

import (
	"log"
	"slices"

	"wms-core/models"
)

// 재배치 사유
const (
	ReasonTraffic          = "traffic"
	ReasonTurnoverMismatch = "turnover_mismatch"
)

// cellClasses - 출구 거리 3분위로 셀 회전율 등급 구분 (가까운 1/3 = fast)
func cellClasses(fm *FloorMap, exitDist []int) func(models.Cell) models.TurnoverClass {
	var dists []int
	for i, d := range exitDist {
		if d >= 0 && fm.storage[i] {
			dists = append(dists, d)
		}
	}
	slices.Sort(dists)
	if len(dists) == 0 {
		return func(models.Cell) models.TurnoverClass { return models.TurnoverMedium }
	}
	cut1, cut2 := dists[len(dists)/3], dists[2*len(dists)/3]
	return func(c models.Cell) models.TurnoverClass {
		d := exitDist[fm.idx(c)]
		switch {
		case d < cut1:
			return models.TurnoverFast
		case d < cut2:
			return models.TurnoverMedium
		default:
			return models.TurnoverSlow
		}
	}
}

// CheckForRebalancing - 통행량이 threshold 를 넘는 셀과 회전율 등급이 맞지 않는 셀의 배치를
// 찾아, 원래 셀을 잠시 비운 채 다시 추천했을 때 RebalanceImprovement 이상 좋아지면 제안한다.
// 점유 상태는 어떤 경우에도 원래대로 돌려놓는다. threshold <= 0 이면 튜닝 값을 쓴다.
func (a *Allocator) CheckForRebalancing(threshold int, actor models.Actor) []models.RelocationProposal {
	tuning := a.wh.Tuning()
	if threshold <= 0 {
		threshold = tuning.CongestionThreshold
	}
	keep := 1 - tuning.RebalanceImprovement

	floors, unlock := a.wh.lockFloors(true)

	claimed := make(map[models.FloorPick]bool)
	var proposals []models.RelocationProposal
	for _, fm := range floors {
		classOf := cellClasses(fm, a.wh.Pathfinder().ExitDistances(fm))

		for _, p := range fm.placementsLocked() {
			if p.Manual {
				continue
			}
			var reasons []string
			if fm.trafficAtLocked(p.Cell) > threshold {
				reasons = append(reasons, ReasonTraffic)
			}
			if classOf(p.Cell) != p.Item.Turnover {
				reasons = append(reasons, ReasonTurnoverMismatch)
			}
			if len(reasons) == 0 {
				continue
			}

			if prop, ok := a.hypotheticalMove(floors, fm, p, claimed); ok && prop.NewScore <= keep*prop.CurrentScore {
				prop.Reasons = reasons
				claimed[models.FloorPick{Floor: prop.ToFloor, Cell: prop.ToCell}] = true
				proposals = append(proposals, prop)
			}
		}
	}
	unlock()

	for _, prop := range proposals {
		rec := auditRecord(actor, models.ActionRebalance, prop.Placement.Floor, prop.Placement.Cell)
		rec.ItemID = prop.Placement.Item.ID
		rec.Before = marshalState(prop.Placement)
		rec.After = marshalState(models.FloorPick{Floor: prop.ToFloor, Cell: prop.ToCell})
		a.wh.audit.Record(rec)
		a.wh.publish(models.MessageTypeRelocation, prop)
	}
	if len(proposals) > 0 {
		log.Printf("🔁 [Allocator] 재배치 제안 %d건", len(proposals))
	}
	return proposals
}

// hypotheticalMove - 원래 셀을 비운 상태로 점수 비교. 반환 전에 점유를 복원한다.
func (a *Allocator) hypotheticalMove(floors []*FloorMap, fm *FloorMap, p models.Placement, claimed map[models.FloorPick]bool) (models.RelocationProposal, bool) {
	held, ok := fm.vacateLocked(p.Cell)
	if !ok {
		return models.RelocationProposal{}, false
	}
	defer func() { fm.occupancy[fm.idx(p.Cell)] = held }()

	s := a.newScorer(p.Item)
	exitDist, eligible := s.eligible(fm, p.Item, p.Cell)
	if !eligible {
		// 제약이 바뀐 셀은 거리 항만으로 비교할 수 없으므로 건너뛴다
		return models.RelocationProposal{}, false
	}
	current, _ := s.scoreLocked(fm, p.Item, p.Cell, exitDist)
	if current <= 0 {
		return models.RelocationProposal{}, false
	}

	alt, found := s.suggestLocked(floors, p.Item, claimed)
	if !found || (alt.Floor == p.Floor && alt.Cell == p.Cell) {
		return models.RelocationProposal{}, false
	}

	return models.RelocationProposal{
		Placement:    p,
		ToFloor:      alt.Floor,
		ToCell:       alt.Cell,
		CurrentScore: current,
		NewScore:     alt.Score,
		Improvement:  1 - alt.Score/current,
	}, true
}
