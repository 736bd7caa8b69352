package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"slices"
	"time"

	"wms-core/algorithms"
	"wms-core/models"

	"github.com/google/uuid"
)

// RouteOptimizer - 피킹 방문 순서 계획 (최근접 이웃 + 2-opt)
type RouteOptimizer struct {
	wh *Warehouse
}

// NewRouteOptimizer - RouteOptimizer 생성
func NewRouteOptimizer(wh *Warehouse) *RouteOptimizer {
	return &RouteOptimizer{wh: wh}
}

// PlanRoute - 한 층의 피킹 경로.
// 도달 불가 목표는 Blocked, 범위 밖 목표는 맨해튼 거리로 대체해 Fallbacks 에 기록하고
// 나머지로 최선의 경로를 돌려준다. ctx 가 끝나면 그때까지의 최선 순서를 쓴다 (Truncated).
func (ro *RouteOptimizer) PlanRoute(ctx context.Context, floor int, start models.Cell, picks []models.Cell) (*models.Route, error) {
	fm, err := ro.wh.Floor(floor)
	if err != nil {
		return nil, err
	}
	if !fm.InBounds(start) {
		return nil, fmt.Errorf("%w: start %s on floor %d", ErrOutOfBounds, start, floor)
	}
	pf := ro.wh.Pathfinder()
	tuning := ro.wh.Tuning()

	route := &models.Route{
		ID:        uuid.New().String(),
		Floor:     floor,
		Start:     start,
		Stops:     []models.Cell{},
		Blocked:   []models.Cell{},
		Fallbacks: []models.Cell{},
		CreatedAt: time.Now(),
	}

	// 중복 제거 + 도달성 분류
	points := []models.Cell{start}
	fallback := []bool{false}
	seen := make(map[models.Cell]bool, len(picks))
	for _, p := range picks {
		if seen[p] {
			continue
		}
		seen[p] = true

		if !fm.InBounds(p) {
			route.Fallbacks = append(route.Fallbacks, p)
			points = append(points, p)
			fallback = append(fallback, true)
			continue
		}
		if _, err := pf.Distance(fm, start, p); err != nil {
			if isUnreachable(err) {
				route.Blocked = append(route.Blocked, p)
				continue
			}
			return nil, err
		}
		points = append(points, p)
		fallback = append(fallback, false)
	}

	// 거리 행렬
	n := len(points)
	dist := make([][]int, n)
	for i := range dist {
		dist[i] = make([]int, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := points[i].Manhattan(points[j])
			if !fallback[i] && !fallback[j] {
				if pd, err := pf.Distance(fm, points[i], points[j]); err == nil {
					d = pd
				}
			}
			dist[i][j], dist[j][i] = d, d
		}
	}

	order := algorithms.NearestNeighbor(dist)
	order, length, truncated := algorithms.TwoOptPath(ctx, dist, order)
	route.Truncated = truncated

	// 셀 단위 경로 이어 붙이기 (대체 목표는 구간 경로 없음)
	cur := start
	if res, err := pf.ShortestPath(fm, start, start); err == nil {
		route.Path = res.Path
		cur = res.Effective
	}
	for _, k := range order[1:] {
		route.Stops = append(route.Stops, points[k])
		if fallback[k] {
			continue
		}
		res, err := pf.ShortestPath(fm, cur, points[k])
		if err != nil {
			continue
		}
		route.Path = appendLeg(route.Path, res.Path)
		cur = res.Effective
	}

	route.KPI = models.RouteKPI{
		TotalDistance: length,
		Turns:         algorithms.CountTurns(route.Path),
		ItemCount:     len(route.Stops),
	}
	route.KPI.EstimatedTime = estimateTime(tuning, length, len(route.Stops))

	fm.RecordCrossing(route.Path, "")
	ro.wh.publish(models.MessageTypeRoute, route)
	return route, nil
}

func estimateTime(t models.Tuning, distance, items int) float64 {
	speed := t.TravelSpeed
	if speed <= 0 {
		speed = 1
	}
	return float64(distance)/speed + float64(items)*t.HandlingTime
}

// appendLeg - 앞 구간 끝 셀과 겹치는 첫 셀은 생략
func appendLeg(path, leg []models.Cell) []models.Cell {
	if len(path) > 0 && len(leg) > 0 && path[len(path)-1] == leg[0] {
		leg = leg[1:]
	}
	return append(path, leg...)
}

// ========================================
// 다층 경로
// ========================================

// PlanMultiFloorRoute - 층별로 PlanRoute 를 돌리고 같은 이름의 전이 존(엘리베이터)으로 층을 잇는다.
// 시작 층을 먼저, 이후 시작 층과 가까운 층 순으로 방문한다.
func (ro *RouteOptimizer) PlanMultiFloorRoute(ctx context.Context, startFloor int, start models.Cell, picks []models.FloorPick) (*models.MultiFloorRoute, error) {
	if _, err := ro.wh.Floor(startFloor); err != nil {
		return nil, err
	}
	mr := &models.MultiFloorRoute{ID: uuid.New().String(), Blocked: []models.FloorPick{}}

	byFloor := make(map[int][]models.Cell)
	for _, p := range picks {
		if _, err := ro.wh.Floor(p.Floor); err != nil {
			mr.Blocked = append(mr.Blocked, p)
			continue
		}
		byFloor[p.Floor] = append(byFloor[p.Floor], p.Cell)
	}

	others := make([]int, 0, len(byFloor))
	for f := range byFloor {
		if f != startFloor {
			others = append(others, f)
		}
	}
	slices.SortFunc(others, func(a, b int) int {
		da, db := absInt(a-startFloor), absInt(b-startFloor)
		if da != db {
			return da - db
		}
		return a - b
	})

	curCell := start
	visit := append([]int{startFloor}, others...)
	for k := 0; k < len(visit); k++ {
		floor := visit[k]
		route, err := ro.PlanRoute(ctx, floor, curCell, byFloor[floor])
		if err != nil {
			return nil, err
		}
		leg := models.FloorLeg{Route: route}
		for _, c := range route.Blocked {
			mr.Blocked = append(mr.Blocked, models.FloorPick{Floor: floor, Cell: c})
		}

		// 다음 층으로 갈 엘리베이터 찾기 (연결 안 되는 층은 통째로 차단)
		for k+1 < len(visit) {
			next := visit[k+1]
			shaft, here, there, ok := ro.findShaft(floor, next, lastCell(route))
			if ok {
				ro.extendToShaft(route, floor, here)
				leg.Shaft = shaft
				leg.Access = &here
				curCell = there
				break
			}
			log.Printf("⚠️ 층 %d → %d 연결 엘리베이터 없음", floor, next)
			for _, c := range byFloor[next] {
				mr.Blocked = append(mr.Blocked, models.FloorPick{Floor: next, Cell: c})
			}
			visit = slices.Delete(visit, k+1, k+2)
		}

		mr.Legs = append(mr.Legs, leg)
		mr.KPI.TotalDistance += route.KPI.TotalDistance
		mr.KPI.Turns += route.KPI.Turns
		mr.KPI.ItemCount += route.KPI.ItemCount
		mr.KPI.EstimatedTime += route.KPI.EstimatedTime
	}
	return mr, nil
}

// extendToShaft - 층 경로 끝에 엘리베이터 접근 셀까지의 구간과 층 이동 비용을 더한다
func (ro *RouteOptimizer) extendToShaft(route *models.Route, floor int, access models.Cell) {
	tuning := ro.wh.Tuning()
	if fm, err := ro.wh.Floor(floor); err == nil {
		if res, err := ro.wh.Pathfinder().ShortestPath(fm, lastCell(route), access); err == nil {
			route.Path = appendLeg(route.Path, res.Path)
			route.KPI.TotalDistance += res.Cost
			route.KPI.Turns = algorithms.CountTurns(route.Path)
		}
	}
	route.KPI.TotalDistance += tuning.FloorChangeCost
	route.KPI.EstimatedTime = estimateTime(tuning, route.KPI.TotalDistance, route.KPI.ItemCount)
}

func lastCell(r *models.Route) models.Cell {
	if len(r.Path) > 0 {
		return r.Path[len(r.Path)-1]
	}
	return r.Start
}

// findShaft - from/to 층 양쪽에 같은 이름으로 있는 전이 존 중 현재 위치에서 가장 가까운 것
func (ro *RouteOptimizer) findShaft(from, to int, pos models.Cell) (string, models.Cell, models.Cell, bool) {
	fromMap, err := ro.wh.Floor(from)
	if err != nil {
		return "", models.Cell{}, models.Cell{}, false
	}
	toMap, err := ro.wh.Floor(to)
	if err != nil {
		return "", models.Cell{}, models.Cell{}, false
	}

	targets := make(map[string]models.Zone)
	for _, z := range toMap.Zones() {
		if z.Kind == models.ZoneTransition {
			targets[z.Name] = z
		}
	}

	bestName, bestD := "", math.MaxInt
	var bestHere, bestThere models.Cell
	for _, z := range fromMap.Zones() {
		tz, ok := targets[z.Name]
		if z.Kind != models.ZoneTransition || !ok {
			continue
		}
		here, ok1 := transitionAccess(fromMap, z)
		there, ok2 := transitionAccess(toMap, tz)
		if !ok1 || !ok2 {
			continue
		}
		d, err := ro.wh.Pathfinder().Distance(fromMap, pos, here)
		if err != nil {
			continue
		}
		if d < bestD || (d == bestD && z.Name < bestName) {
			bestName, bestD, bestHere, bestThere = z.Name, d, here, there
		}
	}
	return bestName, bestHere, bestThere, bestName != ""
}
