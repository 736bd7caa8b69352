package services

import (
	"fmt"
	"slices"
	"sync"

	"wms-core/algorithms"
	"wms-core/models"
)

// maxPairEntries - 쌍 거리 캐시 상한 (넘으면 통째로 비움)
const maxPairEntries = 200_000

// PathResult - 최단 경로 결과
type PathResult struct {
	Path        []models.Cell `json:"path"`
	Cost        int           `json:"cost"`
	Goal        models.Cell   `json:"goal"`      // 요청한 실제 목표 (라벨용, 비용 0)
	Effective   models.Cell   `json:"effective"` // 경로가 끝나는 보행 셀
	Substituted bool          `json:"substituted"`
}

// DistanceMap - 다중 출발 BFS 거리장
type DistanceMap struct {
	width int
	dist  []int
}

// At returns the distance of c to the nearest target, ok=false if unreachable.
func (d DistanceMap) At(c models.Cell) (int, bool) {
	if d.width == 0 || c.X < 0 || c.Y < 0 || c.X >= d.width {
		return 0, false
	}
	i := c.Y*d.width + c.X
	if i >= len(d.dist) || d.dist[i] == algorithms.Unreachable {
		return 0, false
	}
	return d.dist[i], true
}

type pairKey struct {
	floor   int
	version uint64
	a, b    int // a <= b
}

type fieldKey struct {
	floor   int
	version uint64
	targets string
}

type floorKey struct {
	floor   int
	version uint64
}

// CacheStats - 경로 캐시 통계
type CacheStats struct {
	PairEntries  int   `json:"pair_entries"`
	FieldEntries int   `json:"field_entries"`
	Hits         int64 `json:"hits"`
	Misses       int64 `json:"misses"`
}

// Pathfinder - A* 경로 계획 + 거리 캐시.
// 캐시는 레이아웃 버전으로 키를 잡고, 레이아웃이 바뀌면 Invalidate 로 통째로 비운다.
// 점유 변화는 보행성에 영향이 없으므로 캐시를 건드리지 않는다.
type Pathfinder struct {
	radius int

	mu       sync.RWMutex
	pairs    map[pairKey]int
	fields   map[fieldKey]DistanceMap
	exitDist map[floorKey][]int
	hits     int64
	misses   int64
}

// NewPathfinder - searchRadius 는 비보행 목표 대체 탐색 반경
func NewPathfinder(searchRadius int) *Pathfinder {
	if searchRadius < 1 {
		searchRadius = 1
	}
	return &Pathfinder{
		radius:   searchRadius,
		pairs:    make(map[pairKey]int),
		fields:   make(map[fieldKey]DistanceMap),
		exitDist: make(map[floorKey][]int),
	}
}

// SearchRadius returns the ring search radius.
func (pf *Pathfinder) SearchRadius() int { return pf.radius }

// Invalidate - 모든 캐시 삭제 (레이아웃 변경 시)
func (pf *Pathfinder) Invalidate() {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	clear(pf.pairs)
	clear(pf.fields)
	clear(pf.exitDist)
}

// Stats returns cache statistics.
func (pf *Pathfinder) Stats() CacheStats {
	pf.mu.RLock()
	defer pf.mu.RUnlock()
	return CacheStats{
		PairEntries:  len(pf.pairs),
		FieldEntries: len(pf.fields),
		Hits:         pf.hits,
		Misses:       pf.misses,
	}
}

// walkableCandidates - c 가 보행 가능하면 [c], 아니면 반경 1..N 링에서 보행 셀을
// 가까운 순(링, 맨해튼, y, x)으로 나열한다.
func (pf *Pathfinder) walkableCandidates(fm *FloorMap, c models.Cell) []models.Cell {
	if fm.IsWalkable(c) {
		return []models.Cell{c}
	}
	var out []models.Cell
	for r := 1; r <= pf.radius; r++ {
		var ring []models.Cell
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if max(absInt(dx), absInt(dy)) != r {
					continue
				}
				nc := c.Add(dx, dy)
				if fm.IsWalkable(nc) {
					ring = append(ring, nc)
				}
			}
		}
		slices.SortFunc(ring, func(a, b models.Cell) int {
			if da, db := a.Manhattan(c), b.Manhattan(c); da != db {
				return da - db
			}
			if a.Y != b.Y {
				return a.Y - b.Y
			}
			return a.X - b.X
		})
		out = append(out, ring...)
	}
	return out
}

// resolvePair - 서로 연결된 (출발, 목표) 보행 셀 쌍 선택
func (pf *Pathfinder) resolvePair(fm *FloorMap, start, goal models.Cell) (models.Cell, models.Cell, error) {
	if !fm.InBounds(start) || !fm.InBounds(goal) {
		return models.Cell{}, models.Cell{}, fmt.Errorf("%w: floor %d %s -> %s", ErrOutOfBounds, fm.Index(), start, goal)
	}
	starts := pf.walkableCandidates(fm, start)
	goals := pf.walkableCandidates(fm, goal)
	for _, s := range starts {
		for _, g := range goals {
			if fm.Connected(s, g) {
				return s, g, nil
			}
		}
	}
	return models.Cell{}, models.Cell{}, fmt.Errorf("%w: floor %d %s -> %s", ErrUnreachable, fm.Index(), start, goal)
}

// ShortestPath - 균일 비용 A* 최단 경로.
// 목표가 랙 면처럼 보행 불가이면 가장 가까운 보행 셀로 대체하고 실제 목표는 Goal 로 남긴다.
func (pf *Pathfinder) ShortestPath(fm *FloorMap, start, goal models.Cell) (PathResult, error) {
	s, g, err := pf.resolvePair(fm, start, goal)
	if err != nil {
		return PathResult{}, err
	}

	idxPath, cost, ok := algorithms.FindPath(fm, fm.idx(s), fm.idx(g))
	if !ok {
		// 같은 연결 요소인데 경로가 없으면 인접 리스트가 깨진 것
		return PathResult{}, fmt.Errorf("%w: floor %d %s -> %s", ErrUnreachable, fm.Index(), s, g)
	}

	path := make([]models.Cell, len(idxPath))
	for k, i := range idxPath {
		path[k] = fm.cellAt(i)
	}
	pf.storePair(fm, start, goal, cost)

	return PathResult{
		Path:        path,
		Cost:        cost,
		Goal:        goal,
		Effective:   g,
		Substituted: g != goal,
	}, nil
}

func (pf *Pathfinder) key(fm *FloorMap, a, b models.Cell) pairKey {
	ia, ib := fm.idx(a), fm.idx(b)
	if ia > ib {
		ia, ib = ib, ia
	}
	return pairKey{floor: fm.Index(), version: fm.Version(), a: ia, b: ib}
}

func (pf *Pathfinder) storePair(fm *FloorMap, a, b models.Cell, d int) {
	k := pf.key(fm, a, b)
	pf.mu.Lock()
	defer pf.mu.Unlock()
	if len(pf.pairs) >= maxPairEntries {
		clear(pf.pairs)
	}
	pf.pairs[k] = d
}

// Distance - 캐시된 쌍 거리. 무방향 쌍으로 캐시하므로 Distance(a,b) == Distance(b,a).
func (pf *Pathfinder) Distance(fm *FloorMap, a, b models.Cell) (int, error) {
	if !fm.InBounds(a) || !fm.InBounds(b) {
		return 0, fmt.Errorf("%w: floor %d %s -> %s", ErrOutOfBounds, fm.Index(), a, b)
	}
	k := pf.key(fm, a, b)

	pf.mu.Lock()
	d, ok := pf.pairs[k]
	if ok {
		pf.hits++
	} else {
		pf.misses++
	}
	pf.mu.Unlock()
	if ok {
		if d < 0 {
			return 0, fmt.Errorf("%w: floor %d %s -> %s", ErrUnreachable, fm.Index(), a, b)
		}
		return d, nil
	}

	// 항상 작은 인덱스 쪽에서 계산해서 방향과 무관한 결과를 만든다
	from, to := a, b
	if fm.idx(from) > fm.idx(to) {
		from, to = to, from
	}
	res, err := pf.ShortestPath(fm, from, to)
	if err != nil {
		if isUnreachable(err) {
			pf.storePair(fm, a, b, -1)
		}
		return 0, err
	}
	return res.Cost, nil
}

// DistanceMap - targets 로부터의 다중 출발 BFS 거리장 (레이아웃 버전 단위 캐시).
// 보행 불가 target 은 보행 가능한 4방향 이웃을 출발점으로 쓴다.
func (pf *Pathfinder) DistanceMap(fm *FloorMap, targets []models.Cell) DistanceMap {
	k := fieldKey{floor: fm.Index(), version: fm.Version(), targets: cellsKey(targets)}

	pf.mu.RLock()
	dm, ok := pf.fields[k]
	pf.mu.RUnlock()
	if ok {
		return dm
	}

	var sources []int
	for _, t := range targets {
		if !fm.InBounds(t) {
			continue
		}
		if fm.IsWalkable(t) {
			sources = append(sources, fm.idx(t))
			continue
		}
		for _, d := range offsets4 {
			if nc := t.Add(d[0], d[1]); fm.IsWalkable(nc) {
				sources = append(sources, fm.idx(nc))
			}
		}
	}
	dm = DistanceMap{width: fm.Width(), dist: algorithms.DistanceField(fm, sources)}

	pf.mu.Lock()
	pf.fields[k] = dm
	pf.mu.Unlock()
	return dm
}

// ExitDistances - 보관 셀별 출고 거리 (1 + 인접 보행 셀 중 최소 거리).
// 보행 접근이 없는 보관 셀은 -1. 출고 지점이 없으면 전이 존 접근 셀을 쓰고,
// 그것도 없으면 접근 가능한 모든 보관 셀이 0 이다.
func (pf *Pathfinder) ExitDistances(fm *FloorMap) []int {
	k := floorKey{floor: fm.Index(), version: fm.Version()}
	pf.mu.RLock()
	cached, ok := pf.exitDist[k]
	pf.mu.RUnlock()
	if ok {
		return cached
	}

	targets := fm.Exits()
	if len(targets) == 0 {
		for _, z := range fm.Zones() {
			if z.Kind != models.ZoneTransition {
				continue
			}
			if c, ok := transitionAccess(fm, z); ok {
				targets = append(targets, c)
			}
		}
	}
	var dm DistanceMap
	if len(targets) > 0 {
		dm = pf.DistanceMap(fm, targets)
	}

	out := make([]int, fm.Width()*fm.Height())
	for i := range out {
		out[i] = -1
		c := fm.cellAt(i)
		if !fm.IsStorage(c) {
			continue
		}
		best := -1
		for _, d := range offsets4 {
			nc := c.Add(d[0], d[1])
			if !fm.IsWalkable(nc) {
				continue
			}
			if len(targets) == 0 {
				best = 0
				break
			}
			if v, ok := dm.At(nc); ok && (best < 0 || v+1 < best) {
				best = v + 1
			}
		}
		out[i] = best
	}

	pf.mu.Lock()
	pf.exitDist[k] = out
	pf.mu.Unlock()
	return out
}

// transitionAccess - 전이 존(엘리베이터)에 가장 가까운 보행 셀.
// 존 셀에 맞닿은 보행 셀 중 (y, x) 순서가 가장 앞선 것.
func transitionAccess(fm *FloorMap, z models.Zone) (models.Cell, bool) {
	for y := 0; y < fm.Height(); y++ {
		for x := 0; x < fm.Width(); x++ {
			c := models.Cell{X: x, Y: y}
			if !fm.IsWalkable(c) {
				continue
			}
			for _, d := range offsets4 {
				if z.Contains(c.Add(d[0], d[1])) {
					return c, true
				}
			}
		}
	}
	return models.Cell{}, false
}

func cellsKey(cells []models.Cell) string {
	sorted := slices.Clone(cells)
	slices.SortFunc(sorted, func(a, b models.Cell) int {
		if a.Y != b.Y {
			return a.Y - b.Y
		}
		return a.X - b.X
	})
	key := make([]byte, 0, len(sorted)*8)
	for _, c := range sorted {
		key = fmt.Appendf(key, "%d,%d;", c.X, c.Y)
	}
	return string(key)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
