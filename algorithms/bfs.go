package algorithms

// Unreachable marks cells a distance field could not reach.
const Unreachable = -1

// DistanceField runs a multi-source breadth-first expansion from sources and
// returns, for every cell index, the step distance to the nearest source or
// Unreachable. Sources outside the grid are ignored.
func DistanceField(g Graph, sources []int) []int {
	width, height := g.Size()
	total := width * height
	dist := make([]int, total)
	for i := range dist {
		dist[i] = Unreachable
	}

	queue := make([]int, 0, len(sources))
	for _, s := range sources {
		if s < 0 || s >= total || dist[s] == 0 {
			continue
		}
		dist[s] = 0
		queue = append(queue, s)
	}

	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		for _, nb := range g.NeighborIndices(cur) {
			if dist[nb] != Unreachable {
				continue
			}
			dist[nb] = dist[cur] + 1
			queue = append(queue, nb)
		}
	}
	return dist
}
