package services

import (
	"fmt"
	"math"
	"slices"
	"sync"

	"wms-core/models"
)

// FloorMap - 한 층의 그리드 모델.
//
// 생성 시 장애물/보관/보행 행렬과 4방향 보행 인접 리스트를 한 번 계산하고 이후 읽기 전용으로
// 쓴다. 점유, 통행 카운터, 대기 작업 수만 mu 아래에서 바뀐다 (층 단위 배타 영역).
type FloorMap struct {
	index   int
	name    string
	width   int
	height  int
	zones   []models.Zone
	exits   []models.Cell
	version uint64

	obstacle   []bool
	storage    []bool
	walkable   []bool
	hazmatSafe []bool
	kind       []models.ZoneKind
	corridor   []string // 보행 셀: 코리도어 이름, 보관 셀: 접근 코리도어
	access     []int    // 보관 셀 → 인접 보행 셀 인덱스 (-1 없음)
	adj        [][]int
	component  []int // 보행 셀의 연결 요소 번호 (-1 비보행)

	corridorCells  map[string][]int
	corridorCenter map[string]models.Cell

	mu        sync.RWMutex
	occupancy map[int]*models.Placement
	pending   []int
	heat      []int
	traffic   map[string]int
}

var offsets4 = [4][2]int{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}

// NewFloorMap - 레이아웃으로부터 층 모델 생성
func NewFloorMap(layout models.FloorLayout, version uint64) (*FloorMap, error) {
	if layout.Width <= 0 || layout.Height <= 0 {
		return nil, fmt.Errorf("%w: floor %d has size %dx%d", ErrInvalidLayout, layout.Index, layout.Width, layout.Height)
	}

	fm := &FloorMap{
		index:          layout.Index,
		name:           layout.Name,
		width:          layout.Width,
		height:         layout.Height,
		zones:          slices.Clone(layout.Zones),
		exits:          slices.Clone(layout.Exits),
		version:        version,
		corridorCells:  make(map[string][]int),
		corridorCenter: make(map[string]models.Cell),
		occupancy:      make(map[int]*models.Placement),
		traffic:        make(map[string]int),
	}
	total := fm.width * fm.height

	fm.obstacle = make([]bool, total)
	fm.storage = make([]bool, total)
	fm.walkable = make([]bool, total)
	fm.hazmatSafe = make([]bool, total)
	fm.kind = make([]models.ZoneKind, total)
	fm.corridor = make([]string, total)
	fm.access = make([]int, total)
	fm.adj = make([][]int, total)
	fm.pending = make([]int, total)
	fm.heat = make([]int, total)

	fixed := make([]bool, total)
	for _, c := range layout.Obstacles {
		if !fm.InBounds(c) {
			return nil, fmt.Errorf("%w: obstacle %s outside floor %d", ErrInvalidLayout, c, layout.Index)
		}
		fixed[fm.idx(c)] = true
	}
	for _, c := range layout.Exits {
		if !fm.InBounds(c) {
			return nil, fmt.Errorf("%w: exit %s outside floor %d", ErrInvalidLayout, c, layout.Index)
		}
	}

	names := make(map[string]bool, len(layout.Zones))
	walkZone := make([]string, total)
	for _, z := range layout.Zones {
		if !z.Kind.Valid() {
			return nil, fmt.Errorf("%w: zone %q has unknown kind %q", ErrInvalidLayout, z.Name, z.Kind)
		}
		if z.Name == "" || names[z.Name] {
			return nil, fmt.Errorf("%w: zone name %q empty or duplicated", ErrInvalidLayout, z.Name)
		}
		names[z.Name] = true
		if len(z.Rects) == 0 {
			return nil, fmt.Errorf("%w: zone %q has no rectangles", ErrInvalidLayout, z.Name)
		}

		for _, r := range z.Rects {
			n := r.Normalized()
			if !fm.InBounds(models.Cell{X: n.X0, Y: n.Y0}) || !fm.InBounds(models.Cell{X: n.X1, Y: n.Y1}) {
				return nil, fmt.Errorf("%w: zone %q rect %+v outside floor", ErrInvalidLayout, z.Name, r)
			}
			for y := n.Y0; y <= n.Y1; y++ {
				for x := n.X0; x <= n.X1; x++ {
					i := y*fm.width + x
					// 겹치는 존은 가장 제한적인 종류가 이긴다
					if z.Kind.Restrictiveness() > fm.kind[i].Restrictiveness() || fm.kind[i] == "" {
						fm.kind[i] = z.Kind
					}
					if z.Kind == models.ZoneStorage && z.HazmatSafe {
						fm.hazmatSafe[i] = true
					}
					if z.Kind == models.ZoneWalkable && walkZone[i] == "" {
						walkZone[i] = z.Name
					}
				}
			}
		}
	}

	for i := 0; i < total; i++ {
		k := fm.kind[i]
		fm.obstacle[i] = fixed[i] || k == models.ZoneObstacle
		fm.storage[i] = k == models.ZoneStorage && !fixed[i]
		fm.walkable[i] = !fixed[i] && !k.BlocksWalking()
		if !fm.storage[i] {
			fm.hazmatSafe[i] = false
		}
	}

	// 인접 리스트: 보행 셀끼리만 연결
	for i := 0; i < total; i++ {
		fm.access[i] = -1
		if !fm.walkable[i] {
			continue
		}
		x, y := i%fm.width, i/fm.width
		for _, d := range offsets4 {
			nc := models.Cell{X: x + d[0], Y: y + d[1]}
			if !fm.InBounds(nc) {
				continue
			}
			j := fm.idx(nc)
			if fm.walkable[j] {
				fm.adj[i] = append(fm.adj[i], j)
			}
		}
	}

	fm.labelComponents()

	// 코리도어: 이름 있는 보행 존, 그 외 보행 셀은 셀 단위 코리도어
	for i := 0; i < total; i++ {
		if !fm.walkable[i] {
			continue
		}
		if walkZone[i] != "" {
			fm.corridor[i] = walkZone[i]
			fm.corridorCells[walkZone[i]] = append(fm.corridorCells[walkZone[i]], i)
		} else {
			fm.corridor[i] = "cell:" + fm.cellAt(i).String()
		}
	}
	for name, cells := range fm.corridorCells {
		sx, sy := 0, 0
		for _, i := range cells {
			sx += i % fm.width
			sy += i / fm.width
		}
		fm.corridorCenter[name] = models.Cell{X: sx / len(cells), Y: sy / len(cells)}
	}

	// 보관 셀의 접근 셀 / 접근 코리도어
	for i := 0; i < total; i++ {
		if !fm.storage[i] {
			continue
		}
		x, y := i%fm.width, i/fm.width
		for _, d := range offsets4 {
			nc := models.Cell{X: x + d[0], Y: y + d[1]}
			if fm.InBounds(nc) && fm.walkable[fm.idx(nc)] {
				fm.access[i] = fm.idx(nc)
				fm.corridor[i] = fm.corridor[fm.access[i]]
				break
			}
		}
	}

	return fm, nil
}

// labelComponents - 보행 그래프 연결 요소 라벨링
func (fm *FloorMap) labelComponents() {
	fm.component = make([]int, len(fm.walkable))
	for i := range fm.component {
		fm.component[i] = -1
	}
	label := 0
	queue := make([]int, 0, 64)
	for i, w := range fm.walkable {
		if !w || fm.component[i] >= 0 {
			continue
		}
		fm.component[i] = label
		queue = append(queue[:0], i)
		for head := 0; head < len(queue); head++ {
			for _, nb := range fm.adj[queue[head]] {
				if fm.component[nb] < 0 {
					fm.component[nb] = label
					queue = append(queue, nb)
				}
			}
		}
		label++
	}
}

// Connected reports whether two walkable cells share a connected component.
func (fm *FloorMap) Connected(a, b models.Cell) bool {
	if !fm.IsWalkable(a) || !fm.IsWalkable(b) {
		return false
	}
	return fm.component[fm.idx(a)] == fm.component[fm.idx(b)]
}

// Index returns the floor index.
func (fm *FloorMap) Index() int { return fm.index }

// Name returns the floor display name.
func (fm *FloorMap) Name() string { return fm.name }

// Version returns the layout version the floor was built from.
func (fm *FloorMap) Version() uint64 { return fm.version }

// Width returns the grid width.
func (fm *FloorMap) Width() int { return fm.width }

// Height returns the grid height.
func (fm *FloorMap) Height() int { return fm.height }

// Zones returns a copy of the zone table.
func (fm *FloorMap) Zones() []models.Zone { return slices.Clone(fm.zones) }

// Exits returns a copy of the declared exit cells.
func (fm *FloorMap) Exits() []models.Cell { return slices.Clone(fm.exits) }

// InBounds reports whether c lies on the floor.
func (fm *FloorMap) InBounds(c models.Cell) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < fm.width && c.Y < fm.height
}

func (fm *FloorMap) idx(c models.Cell) int { return c.Y*fm.width + c.X }

func (fm *FloorMap) cellAt(i int) models.Cell {
	return models.Cell{X: i % fm.width, Y: i / fm.width}
}

// Size implements algorithms.Graph.
func (fm *FloorMap) Size() (int, int) { return fm.width, fm.height }

// NeighborIndices implements algorithms.Graph.
func (fm *FloorMap) NeighborIndices(i int) []int { return fm.adj[i] }

// IsWalkable - 범위 안이고 장애물/전이/보관 존 밖이면 true
func (fm *FloorMap) IsWalkable(c models.Cell) bool {
	return fm.InBounds(c) && fm.walkable[fm.idx(c)]
}

// IsObstacle reports fixed obstacles and Obstacle-zone cells.
func (fm *FloorMap) IsObstacle(c models.Cell) bool {
	return fm.InBounds(c) && fm.obstacle[fm.idx(c)]
}

// IsStorage reports whether c is a storage slot (occupied or not).
func (fm *FloorMap) IsStorage(c models.Cell) bool {
	return fm.InBounds(c) && fm.storage[fm.idx(c)]
}

// IsHazmatSafe reports whether c is a storage slot in a hazmat-safe zone.
func (fm *FloorMap) IsHazmatSafe(c models.Cell) bool {
	return fm.InBounds(c) && fm.hazmatSafe[fm.idx(c)]
}

// KindAt returns the effective zone kind, "" outside every zone.
func (fm *FloorMap) KindAt(c models.Cell) models.ZoneKind {
	if !fm.InBounds(c) {
		return ""
	}
	return fm.kind[fm.idx(c)]
}

// Neighbors - 보행 가능한 4방향 이웃만 반환
func (fm *FloorMap) Neighbors(c models.Cell) []models.Cell {
	if !fm.InBounds(c) {
		return nil
	}
	adj := fm.adj[fm.idx(c)]
	out := make([]models.Cell, len(adj))
	for k, j := range adj {
		out[k] = fm.cellAt(j)
	}
	return out
}

// AccessCell returns the walkable cell a storage slot is served from.
func (fm *FloorMap) AccessCell(c models.Cell) (models.Cell, bool) {
	if !fm.IsStorage(c) {
		return models.Cell{}, false
	}
	a := fm.access[fm.idx(c)]
	if a < 0 {
		return models.Cell{}, false
	}
	return fm.cellAt(a), true
}

// CorridorOf - 셀의 코리도어 (보관 셀은 접근 코리도어). 해당 없으면 "".
func (fm *FloorMap) CorridorOf(c models.Cell) string {
	if !fm.InBounds(c) {
		return ""
	}
	return fm.corridor[fm.idx(c)]
}

// Corridors returns the named corridors sorted by name.
func (fm *FloorMap) Corridors() []string {
	out := make([]string, 0, len(fm.corridorCells))
	for name := range fm.corridorCells {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// corridorAnchor - 코리도어 중심 (셀 단위 코리도어는 그 셀)
func (fm *FloorMap) corridorAnchor(name string) (models.Cell, bool) {
	if c, ok := fm.corridorCenter[name]; ok {
		return c, true
	}
	var c models.Cell
	if _, err := fmt.Sscanf(name, "cell:%d,%d", &c.X, &c.Y); err == nil && fm.InBounds(c) {
		return c, true
	}
	return models.Cell{}, false
}

// corridorWaypoint - 코리도어 안에서 target 에 가장 가까운 보행 셀
func (fm *FloorMap) corridorWaypoint(name string, target models.Cell) (models.Cell, bool) {
	cells, ok := fm.corridorCells[name]
	if !ok {
		c, ok := fm.corridorAnchor(name)
		return c, ok && fm.IsWalkable(c)
	}
	best, bestD := -1, math.MaxInt
	for _, i := range cells {
		if d := fm.cellAt(i).Manhattan(target); d < bestD {
			best, bestD = i, d
		}
	}
	return fm.cellAt(best), best >= 0
}

// StorageCells returns every storage slot in row-major order.
func (fm *FloorMap) StorageCells() []models.Cell {
	var out []models.Cell
	for i, s := range fm.storage {
		if s {
			out = append(out, fm.cellAt(i))
		}
	}
	return out
}

// ========================================
// 점유 (mu 보호)
// ========================================

// IsStorageSlotAvailable - 보관 존 안이고, 고정 장애물이 아니며, 점유되지 않은 셀이면 true
func (fm *FloorMap) IsStorageSlotAvailable(c models.Cell) bool {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	return fm.availableLocked(c)
}

func (fm *FloorMap) availableLocked(c models.Cell) bool {
	if !fm.IsStorage(c) {
		return false
	}
	_, taken := fm.occupancy[fm.idx(c)]
	return !taken
}

// Occupant returns a copy of the placement holding c.
func (fm *FloorMap) Occupant(c models.Cell) (models.Placement, bool) {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	if !fm.InBounds(c) {
		return models.Placement{}, false
	}
	p, ok := fm.occupancy[fm.idx(c)]
	if !ok {
		return models.Placement{}, false
	}
	return *p, true
}

// Placements returns copies of all current placements in row-major order.
func (fm *FloorMap) Placements() []models.Placement {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	return fm.placementsLocked()
}

func (fm *FloorMap) placementsLocked() []models.Placement {
	keys := make([]int, 0, len(fm.occupancy))
	for i := range fm.occupancy {
		keys = append(keys, i)
	}
	slices.Sort(keys)
	out := make([]models.Placement, 0, len(keys))
	for _, i := range keys {
		out = append(out, *fm.occupancy[i])
	}
	return out
}

// OccupiedCount returns the number of filled storage slots.
func (fm *FloorMap) OccupiedCount() int {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	return len(fm.occupancy)
}

func (fm *FloorMap) occupyLocked(p *models.Placement) error {
	if !fm.availableLocked(p.Cell) {
		return fmt.Errorf("%w: floor %d cell %s", ErrSlotTaken, fm.index, p.Cell)
	}
	fm.occupancy[fm.idx(p.Cell)] = p
	return nil
}

func (fm *FloorMap) vacateLocked(c models.Cell) (*models.Placement, bool) {
	if !fm.InBounds(c) {
		return nil, false
	}
	i := fm.idx(c)
	p, ok := fm.occupancy[i]
	if ok {
		delete(fm.occupancy, i)
	}
	return p, ok
}

// occupiedRingLocked - 8방향 이웃 중 점유된 셀 수
func (fm *FloorMap) occupiedRingLocked(c models.Cell) int {
	n := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nc := c.Add(dx, dy)
			if !fm.InBounds(nc) {
				continue
			}
			if _, ok := fm.occupancy[fm.idx(nc)]; ok {
				n++
			}
		}
	}
	return n
}

// pendingRingLocked - 8방향 이웃의 대기 작업 합
func (fm *FloorMap) pendingRingLocked(c models.Cell) int {
	n := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nc := c.Add(dx, dy)
			if fm.InBounds(nc) {
				n += fm.pending[fm.idx(nc)]
			}
		}
	}
	return n
}

// AddPending adjusts the pending-task count of a cell (never below zero).
func (fm *FloorMap) AddPending(c models.Cell, delta int) {
	if !fm.InBounds(c) {
		return
	}
	fm.mu.Lock()
	defer fm.mu.Unlock()
	i := fm.idx(c)
	fm.pending[i] = max(0, fm.pending[i]+delta)
}

// PendingAt returns the pending-task count of a cell.
func (fm *FloorMap) PendingAt(c models.Cell) int {
	if !fm.InBounds(c) {
		return 0
	}
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	return fm.pending[fm.idx(c)]
}

// ========================================
// 통행 카운터 / 히트맵 (mu 보호)
// ========================================

// RecordCrossing - 경로가 지난 셀의 히트맵을 1씩 올리고, 지나간 이름 있는 코리도어
// 카운터도 한 번씩 올린다. skip 코리도어는 이미 집계된 것으로 보고 건너뛴다.
func (fm *FloorMap) RecordCrossing(path []models.Cell, skip string) {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	fm.recordCrossingLocked(path, skip)
}

func (fm *FloorMap) recordCrossingLocked(path []models.Cell, skip string) {
	seen := make(map[string]bool)
	for _, c := range path {
		if !fm.InBounds(c) {
			continue
		}
		i := fm.idx(c)
		fm.heat[i]++
		name := fm.corridor[i]
		if _, named := fm.corridorCells[name]; !named || name == skip || seen[name] {
			continue
		}
		seen[name] = true
		fm.traffic[name]++
	}
}

// CorridorTraffic returns the counter of a corridor.
func (fm *FloorMap) CorridorTraffic(name string) int {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	return fm.traffic[name]
}

// TrafficCounters returns a copy of all corridor counters.
func (fm *FloorMap) TrafficCounters() map[string]int {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	out := make(map[string]int, len(fm.traffic))
	for k, v := range fm.traffic {
		out[k] = v
	}
	return out
}

// trafficAtLocked - 보관/보행 셀의 코리도어 카운터와 셀 히트맵 중 큰 값
func (fm *FloorMap) trafficAtLocked(c models.Cell) int {
	if !fm.InBounds(c) {
		return 0
	}
	i := fm.idx(c)
	t := fm.traffic[fm.corridor[i]]
	if a := fm.access[i]; a >= 0 {
		t = max(t, fm.heat[a])
	} else if fm.walkable[i] {
		t = max(t, fm.heat[i])
	}
	return t
}

// TrafficAt - 점수 계산에 쓰이는 셀 통행량
func (fm *FloorMap) TrafficAt(c models.Cell) int {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	return fm.trafficAtLocked(c)
}

// ResetTraffic clears all counters (session boundary).
func (fm *FloorMap) ResetTraffic() {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	clear(fm.traffic)
	clear(fm.heat)
}

// DecayTraffic multiplies every counter by factor (0..1), flooring the result.
func (fm *FloorMap) DecayTraffic(factor float64) {
	factor = math.Max(0, math.Min(1, factor))
	fm.mu.Lock()
	defer fm.mu.Unlock()
	for k, v := range fm.traffic {
		if nv := int(float64(v) * factor); nv > 0 {
			fm.traffic[k] = nv
		} else {
			delete(fm.traffic, k)
		}
	}
	for i, v := range fm.heat {
		fm.heat[i] = int(float64(v) * factor)
	}
}

// Heatmap - 셀별 통행 히트맵
func (fm *FloorMap) Heatmap() models.Heatmap {
	fm.mu.RLock()
	defer fm.mu.RUnlock()

	hm := models.Heatmap{Floor: fm.index, Corridors: make(map[string]int, len(fm.traffic))}
	for i, v := range fm.heat {
		if v > hm.MaxValue {
			hm.MaxValue = v
		}
		if v > 0 {
			hm.Points = append(hm.Points, models.HeatmapPoint{Cell: fm.cellAt(i), Value: v})
		}
	}
	for k := range hm.Points {
		hm.Points[k].Intensity = float64(hm.Points[k].Value) / float64(hm.MaxValue)
	}
	for k, v := range fm.traffic {
		hm.Corridors[k] = v
	}
	return hm
}

// Summary - 층 요약
func (fm *FloorMap) Summary() models.FloorSummary {
	s := models.FloorSummary{
		Index:         fm.index,
		Name:          fm.name,
		Width:         fm.width,
		Height:        fm.height,
		Zones:         len(fm.zones),
		LayoutVersion: fm.version,
	}
	for i := range fm.walkable {
		if fm.walkable[i] {
			s.WalkableCells++
		}
		if fm.storage[i] {
			s.StorageCells++
		}
	}
	s.OccupiedCells = fm.OccupiedCount()
	return s
}
