package services

import (
	"context"
	"testing"

	"wms-core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanRouteSingleFloor(t *testing.T) {
	wh := newTestWarehouse(t, testLayout())
	ro := NewRouteOptimizer(wh)
	fm, _ := wh.Floor(0)

	picks := []models.Cell{cell(3, 1), cell(5, 3), cell(1, 3), cell(3, 1)}
	route, err := ro.PlanRoute(context.Background(), 0, cell(0, 0), picks)
	require.NoError(t, err)

	assert.Len(t, route.Stops, 3, "중복 목표는 한 번만")
	assert.ElementsMatch(t, []models.Cell{cell(3, 1), cell(5, 3), cell(1, 3)}, route.Stops)
	assert.Empty(t, route.Blocked)
	assert.Empty(t, route.Fallbacks)
	assert.False(t, route.Truncated)

	require.NotEmpty(t, route.Path)
	assert.Equal(t, cell(0, 0), route.Path[0])
	for i := 1; i < len(route.Path); i++ {
		assert.Equal(t, 1, route.Path[i-1].Manhattan(route.Path[i]), "step %d", i)
	}

	assert.Equal(t, 3, route.KPI.ItemCount)
	assert.Greater(t, route.KPI.TotalDistance, 0)
	assert.InDelta(t, float64(route.KPI.TotalDistance)+90, route.KPI.EstimatedTime, 1e-9)

	assert.Greater(t, fm.Heatmap().MaxValue, 0, "경로는 통행량에 반영된다")
}

func TestPlanRouteBlockedAndFallback(t *testing.T) {
	layout := models.WarehouseLayout{
		Name:   "split",
		Floors: []models.FloorLayout{splitFloor()},
		Tuning: models.DefaultTuning(),
	}
	wh := newTestWarehouse(t, layout)
	ro := NewRouteOptimizer(wh)

	route, err := ro.PlanRoute(context.Background(), 0, cell(0, 0),
		[]models.Cell{cell(1, 2), cell(4, 0), cell(3, 2), cell(10, 10)})
	require.NoError(t, err)

	assert.Equal(t, []models.Cell{cell(4, 0), cell(3, 2)}, route.Blocked)
	assert.Equal(t, []models.Cell{cell(10, 10)}, route.Fallbacks)
	assert.Contains(t, route.Stops, cell(1, 2))
	assert.Contains(t, route.Stops, cell(10, 10))
	assert.NotContains(t, route.Stops, cell(4, 0))
}

func TestPlanRouteErrors(t *testing.T) {
	wh := newTestWarehouse(t, testLayout())
	ro := NewRouteOptimizer(wh)

	_, err := ro.PlanRoute(context.Background(), 2, cell(0, 0), nil)
	assert.ErrorIs(t, err, ErrUnknownFloor)
	_, err = ro.PlanRoute(context.Background(), 0, cell(-1, 0), nil)
	assert.ErrorIs(t, err, ErrOutOfBounds)

	route, err := ro.PlanRoute(context.Background(), 0, cell(0, 0), nil)
	require.NoError(t, err)
	assert.Empty(t, route.Stops)
	assert.Equal(t, 0, route.KPI.TotalDistance)
}

func TestPlanRouteDeadline(t *testing.T) {
	wh := newTestWarehouse(t, testLayout())
	ro := NewRouteOptimizer(wh)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	picks := []models.Cell{cell(5, 1), cell(1, 3), cell(4, 3), cell(2, 1), cell(6, 4)}
	route, err := ro.PlanRoute(ctx, 0, cell(0, 0), picks)
	require.NoError(t, err)
	assert.True(t, route.Truncated)
	assert.Len(t, route.Stops, len(picks), "마감이 지나도 모든 목표를 방문한다")
}

func TestPlanMultiFloorRoute(t *testing.T) {
	opts := DefaultLayoutOptions()
	opts.Seed = 42
	layout, err := GenerateLayout(opts)
	require.NoError(t, err)
	wh := newTestWarehouse(t, layout)
	ro := NewRouteOptimizer(wh)

	picks := []models.FloorPick{
		{Floor: 0, Cell: cell(6, 3)},
		{Floor: 1, Cell: cell(9, 7)},
		{Floor: 5, Cell: cell(1, 1)},
	}
	mr, err := ro.PlanMultiFloorRoute(context.Background(), 0, cell(1, 0), picks)
	require.NoError(t, err)

	require.Len(t, mr.Legs, 2)
	assert.Equal(t, 0, mr.Legs[0].Route.Floor)
	assert.Equal(t, "elevator-A", mr.Legs[0].Shaft)
	require.NotNil(t, mr.Legs[0].Access)
	assert.Equal(t, cell(1, 0), *mr.Legs[0].Access)
	assert.Equal(t, 1, mr.Legs[1].Route.Floor)
	assert.Empty(t, mr.Legs[1].Shaft)

	assert.Contains(t, mr.Blocked, models.FloorPick{Floor: 5, Cell: cell(1, 1)})
	assert.Equal(t, 2, mr.KPI.ItemCount)
	assert.GreaterOrEqual(t, mr.KPI.TotalDistance, layout.Tuning.FloorChangeCost)
}

func TestPlanMultiFloorRouteWithoutShaft(t *testing.T) {
	layout := testLayout()
	layout.Floors = append(layout.Floors, testFloor(1))
	wh := newTestWarehouse(t, layout)
	ro := NewRouteOptimizer(wh)

	mr, err := ro.PlanMultiFloorRoute(context.Background(), 0, cell(0, 0), []models.FloorPick{
		{Floor: 0, Cell: cell(3, 1)},
		{Floor: 1, Cell: cell(3, 1)},
	})
	require.NoError(t, err)
	require.Len(t, mr.Legs, 1)
	assert.Equal(t, []models.FloorPick{{Floor: 1, Cell: cell(3, 1)}}, mr.Blocked)

	_, err = ro.PlanMultiFloorRoute(context.Background(), 7, cell(0, 0), nil)
	assert.ErrorIs(t, err, ErrUnknownFloor)
}
