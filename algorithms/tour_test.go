package algorithms

import (
	"context"
	"math/rand"
	"testing"

	"wms-core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lineMatrix - 1차원 좌표의 거리 행렬
func lineMatrix(xs []int) [][]int {
	n := len(xs)
	m := make([][]int, n)
	for i := range m {
		m[i] = make([]int, n)
		for j := range m[i] {
			m[i][j] = absInt(xs[i] - xs[j])
		}
	}
	return m
}

func TestNearestNeighborFixesStart(t *testing.T) {
	dist := lineMatrix([]int{0, 10, 1, 5})
	order := NearestNeighbor(dist)
	assert.Equal(t, []int{0, 2, 3, 1}, order)
	assert.Equal(t, 10, PathLength(dist, order))
}

func TestNearestNeighborEmpty(t *testing.T) {
	assert.Nil(t, NearestNeighbor(nil))
}

func TestTwoOptNeverWorsens(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 50; trial++ {
		n := 2 + rng.Intn(9)
		pts := make([]models.Cell, n)
		for i := range pts {
			pts[i] = models.Cell{X: rng.Intn(20), Y: rng.Intn(20)}
		}
		dist := make([][]int, n)
		for i := range dist {
			dist[i] = make([]int, n)
			for j := range dist[i] {
				dist[i][j] = pts[i].Manhattan(pts[j])
			}
		}

		initial := NearestNeighbor(dist)
		tour, length, truncated := TwoOptPath(context.Background(), dist, initial)
		require.False(t, truncated)
		assert.LessOrEqual(t, length, PathLength(dist, initial))
		assert.Equal(t, PathLength(dist, tour), length)
		assert.Equal(t, 0, tour[0])
		assert.ElementsMatch(t, initial, tour)
	}
}

func TestTwoOptImprovesCrossing(t *testing.T) {
	dist := lineMatrix([]int{0, 3, 1, 2})
	tour, length, _ := TwoOptPath(context.Background(), dist, []int{0, 1, 2, 3})
	assert.Equal(t, []int{0, 2, 3, 1}, tour)
	assert.Equal(t, 3, length)
}

func TestTwoOptCancelled(t *testing.T) {
	dist := lineMatrix([]int{0, 3, 1, 2, 7, 4})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	order := []int{0, 1, 2, 3, 4, 5}
	tour, length, truncated := TwoOptPath(ctx, dist, order)
	assert.True(t, truncated)
	assert.Equal(t, order, tour)
	assert.Equal(t, PathLength(dist, order), length)
}

func TestCountTurns(t *testing.T) {
	path := []models.Cell{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 1}, {X: 2, Y: 1}, {X: 2, Y: 2}, {X: 1, Y: 2}}
	assert.Equal(t, 2, CountTurns(path))
	assert.Equal(t, 0, CountTurns([]models.Cell{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 0, Y: 2}}))
	assert.Equal(t, 0, CountTurns(nil))
}
