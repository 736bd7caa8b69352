package algorithms

import (
	"context"

	"wms-core/models"
)

// NearestNeighbor builds a greedy open tour over a square distance matrix.
// Position 0 (the start) is fixed; at each step the closest unvisited index is
// appended, ties broken by the lower index.
func NearestNeighbor(dist [][]int) []int {
	n := len(dist)
	if n == 0 {
		return nil
	}
	order := make([]int, 0, n)
	order = append(order, 0)

	visited := make([]bool, n)
	visited[0] = true
	cur := 0
	for len(order) < n {
		best := -1
		for j := 1; j < n; j++ {
			if visited[j] {
				continue
			}
			if best < 0 || dist[cur][j] < dist[cur][best] {
				best = j
			}
		}
		visited[best] = true
		order = append(order, best)
		cur = best
	}
	return order
}

// PathLength sums consecutive edge costs of an open tour.
func PathLength(dist [][]int, order []int) int {
	total := 0
	for i := 1; i < len(order); i++ {
		total += dist[order[i-1]][order[i]]
	}
	return total
}

// TwoOptPath improves an open tour (a path, not a cycle) by reversing the
// segment [i..k] whenever that strictly shortens the total length. The first
// element stays fixed. Scanning stops after a full pass without improvement,
// or when ctx is done, in which case the best tour so far is returned with
// truncated=true. dist must be symmetric.
func TwoOptPath(ctx context.Context, dist [][]int, order []int) (tour []int, length int, truncated bool) {
	cur := make([]int, len(order))
	copy(cur, order)
	length = PathLength(dist, cur)

	n := len(cur)
	if n < 3 {
		return cur, length, false
	}

	for {
		improved := false
		for i := 1; i < n-1; i++ {
			select {
			case <-ctx.Done():
				return cur, length, true
			default:
			}

			for k := i + 1; k < n; k++ {
				a, b, c := cur[i-1], cur[i], cur[k]
				delta := dist[a][c] - dist[a][b]
				if k+1 < n {
					d := cur[k+1]
					delta += dist[b][d] - dist[c][d]
				}
				if delta < 0 {
					reverseSegment(cur, i, k)
					length += delta
					improved = true
				}
			}
		}
		if !improved {
			return cur, length, false
		}
	}
}

func reverseSegment(s []int, i, k int) {
	for i < k {
		s[i], s[k] = s[k], s[i]
		i++
		k--
	}
}

// CountTurns counts direction changes along a cell-by-cell path.
// Repeated cells (zero-length steps) are ignored.
func CountTurns(path []models.Cell) int {
	turns := 0
	var prevDX, prevDY int
	hasPrev := false
	for i := 1; i < len(path); i++ {
		dx := path[i].X - path[i-1].X
		dy := path[i].Y - path[i-1].Y
		if dx == 0 && dy == 0 {
			continue
		}
		if hasPrev && (dx != prevDX || dy != prevDY) {
			turns++
		}
		prevDX, prevDY = dx, dy
		hasPrev = true
	}
	return turns
}
