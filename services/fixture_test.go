package services

import (
	"testing"

	"wms-core/models"

	"github.com/stretchr/testify/require"
)

// testFloor - 7x5 층.
//
//	y=0  front 통로 (출고 지점 0,0)
//	y=1  rack-a (x=1..5)
//	y=2  mid 통로
//	y=3  rack-b (x=1..5, 위험물 허용)
//	y=4  back 통로
//
// x=0, x=6 의 y=1,3 셀은 존 밖 (셀 단위 코리도어)
func testFloor(index int) models.FloorLayout {
	return models.FloorLayout{
		Index:  index,
		Name:   "test",
		Width:  7,
		Height: 5,
		Zones: []models.Zone{
			{Name: "front", Kind: models.ZoneWalkable, Rects: []models.Rect{{X0: 0, Y0: 0, X1: 6, Y1: 0}}},
			{Name: "mid", Kind: models.ZoneWalkable, Rects: []models.Rect{{X0: 0, Y0: 2, X1: 6, Y1: 2}}},
			{Name: "back", Kind: models.ZoneWalkable, Rects: []models.Rect{{X0: 0, Y0: 4, X1: 6, Y1: 4}}},
			{Name: "rack-a", Kind: models.ZoneStorage, Rects: []models.Rect{{X0: 1, Y0: 1, X1: 5, Y1: 1}}},
			{Name: "rack-b", Kind: models.ZoneStorage, Rects: []models.Rect{{X0: 1, Y0: 3, X1: 5, Y1: 3}}, HazmatSafe: true},
		},
		Exits: []models.Cell{{X: 0, Y: 0}},
	}
}

func testLayout() models.WarehouseLayout {
	return models.WarehouseLayout{
		Name:   "test-wh",
		Floors: []models.FloorLayout{testFloor(0)},
		Tuning: models.DefaultTuning(),
	}
}

func newTestWarehouse(t *testing.T, layout models.WarehouseLayout) *Warehouse {
	t.Helper()
	wh, err := NewWarehouse(layout, NewAuditLog(NewMemoryAuditStore(0), 1000, 0))
	require.NoError(t, err)
	return wh
}

func testFloorMap(t *testing.T) *FloorMap {
	t.Helper()
	fm, err := NewFloorMap(testFloor(0), 1)
	require.NoError(t, err)
	return fm
}

func cell(x, y int) models.Cell { return models.Cell{X: x, Y: y} }

func item(id string, turnover models.TurnoverClass) models.Item {
	return models.Item{ID: id, Weight: 10, Turnover: turnover}
}

// auditActions - 플러시 후 저장된 액션 목록 (오래된 순)
func auditActions(t *testing.T, wh *Warehouse) []string {
	t.Helper()
	wh.Audit().Flush()
	recs, err := wh.Audit().Store().Recent(0)
	require.NoError(t, err)
	out := make([]string, len(recs))
	for i, r := range recs {
		out[len(recs)-1-i] = r.Action
	}
	return out
}
