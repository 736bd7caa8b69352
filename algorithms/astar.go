package algorithms

import (
	"container/heap"
)

// Graph - 행 우선(row-major) 인덱스로 주소 지정되는 4방향 그리드 그래프.
// NeighborIndices 는 보행 가능한 이웃만 돌려줘야 한다.
type Graph interface {
	Size() (width, height int)
	NeighborIndices(idx int) []int
}

// Node - A* 노드
type Node struct {
	idx    int
	g, h   int
	f      int
	seq    int // 삽입 순서 (동점 처리)
	index  int // for heap
	parent *Node
}

// PriorityQueue - A* 우선순위 큐
type PriorityQueue []*Node

func (pq PriorityQueue) Len() int { return len(pq) }

func (pq PriorityQueue) Less(i, j int) bool {
	if pq[i].f != pq[j].f {
		return pq[i].f < pq[j].f
	}
	if pq[i].h != pq[j].h {
		return pq[i].h < pq[j].h
	}
	return pq[i].seq < pq[j].seq
}

func (pq PriorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *PriorityQueue) Push(x interface{}) {
	n := len(*pq)
	node := x.(*Node)
	node.index = n
	*pq = append(*pq, node)
}

func (pq *PriorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.index = -1
	*pq = old[0 : n-1]
	return node
}

// manhattan - 인덱스 두 개의 맨해튼 거리 (허용 휴리스틱)
func manhattan(a, b, width int) int {
	ax, ay := a%width, a/width
	bx, by := b%width, b/width
	return absInt(ax-bx) + absInt(ay-by)
}

// FindPath - 균일 비용(1/step) A*. 경로(start, goal 포함)와 비용을 돌려준다.
// 경로가 없으면 ok=false.
func FindPath(g Graph, start, goal int) (path []int, cost int, ok bool) {
	width, height := g.Size()
	total := width * height
	if start < 0 || goal < 0 || start >= total || goal >= total {
		return nil, 0, false
	}
	if start == goal {
		return []int{start}, 0, true
	}

	gScore := make([]int, total)
	for i := range gScore {
		gScore[i] = -1
	}
	closed := make([]bool, total)

	openSet := make(PriorityQueue, 0, 64)
	heap.Init(&openSet)

	seq := 0
	h0 := manhattan(start, goal, width)
	heap.Push(&openSet, &Node{idx: start, g: 0, h: h0, f: h0, seq: seq})
	gScore[start] = 0

	for openSet.Len() > 0 {
		current := heap.Pop(&openSet).(*Node)
		if closed[current.idx] {
			continue
		}

		// 목표 도달
		if current.idx == goal {
			return reconstructPath(current), current.g, true
		}
		closed[current.idx] = true

		for _, nb := range g.NeighborIndices(current.idx) {
			if closed[nb] {
				continue
			}
			tentativeG := current.g + 1
			if gScore[nb] >= 0 && tentativeG >= gScore[nb] {
				continue
			}
			gScore[nb] = tentativeG
			seq++
			h := manhattan(nb, goal, width)
			heap.Push(&openSet, &Node{
				idx:    nb,
				g:      tentativeG,
				h:      h,
				f:      tentativeG + h,
				seq:    seq,
				parent: current,
			})
		}
	}

	// 경로 없음
	return nil, 0, false
}

// reconstructPath - 경로 재구성
func reconstructPath(n *Node) []int {
	var path []int
	for n != nil {
		path = append(path, n.idx)
		n = n.parent
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
