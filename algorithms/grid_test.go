package algorithms

// testGrid - '#' 는 장애물인 문자열 그리드
type testGrid struct {
	w, h    int
	blocked []bool
}

func newTestGrid(rows ...string) *testGrid {
	g := &testGrid{w: len(rows[0]), h: len(rows)}
	g.blocked = make([]bool, g.w*g.h)
	for y, row := range rows {
		for x, ch := range row {
			g.blocked[y*g.w+x] = ch == '#'
		}
	}
	return g
}

func (g *testGrid) Size() (int, int) { return g.w, g.h }

func (g *testGrid) NeighborIndices(i int) []int {
	x, y := i%g.w, i/g.w
	var out []int
	for _, d := range [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
		nx, ny := x+d[0], y+d[1]
		if nx < 0 || ny < 0 || nx >= g.w || ny >= g.h {
			continue
		}
		n := ny*g.w + nx
		if !g.blocked[n] {
			out = append(out, n)
		}
	}
	return out
}
