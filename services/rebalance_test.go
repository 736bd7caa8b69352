package services

import (
	"testing"

	"wms-core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebalanceTurnoverMismatch(t *testing.T) {
	wh := newTestWarehouse(t, testLayout())
	a := NewAllocator(wh)
	fm, _ := wh.Floor(0)

	_, err := a.AssignSlot(item("f1", models.TurnoverFast), 0, cell(5, 3), models.SystemActor)
	require.NoError(t, err)

	props := a.CheckForRebalancing(0, models.SystemActor)
	require.Len(t, props, 1)
	p := props[0]
	assert.Equal(t, "f1", p.Placement.Item.ID)
	assert.Equal(t, cell(1, 1), p.ToCell)
	assert.InDelta(t, 4.0, p.CurrentScore, 1e-9)
	assert.InDelta(t, 1.0, p.NewScore, 1e-9)
	assert.InDelta(t, 0.75, p.Improvement, 1e-9)
	assert.Equal(t, []string{ReasonTurnoverMismatch}, p.Reasons)

	// 제안만 하고 점유는 그대로
	occ, ok := fm.Occupant(cell(5, 3))
	require.True(t, ok)
	assert.Equal(t, "f1", occ.Item.ID)
	assert.Equal(t, 1, fm.OccupiedCount())
	assert.Contains(t, auditActions(t, wh), models.ActionRebalance)
}

func TestRebalanceTargetsAreDistinct(t *testing.T) {
	wh := newTestWarehouse(t, testLayout())
	a := NewAllocator(wh)

	_, err := a.AssignSlot(item("f1", models.TurnoverFast), 0, cell(5, 3), models.SystemActor)
	require.NoError(t, err)
	_, err = a.AssignSlot(item("f2", models.TurnoverFast), 0, cell(4, 3), models.SystemActor)
	require.NoError(t, err)

	props := a.CheckForRebalancing(0, models.SystemActor)
	require.Len(t, props, 2)
	assert.Equal(t, "f2", props[0].Placement.Item.ID)
	assert.Equal(t, cell(1, 1), props[0].ToCell)
	assert.Equal(t, "f1", props[1].Placement.Item.ID)
	assert.Equal(t, cell(2, 1), props[1].ToCell)
}

func TestRebalanceTrafficReason(t *testing.T) {
	wh := newTestWarehouse(t, testLayout())
	a := NewAllocator(wh)
	fm, _ := wh.Floor(0)

	_, err := a.AssignSlot(item("m", models.TurnoverMedium), 0, cell(3, 1), models.SystemActor)
	require.NoError(t, err)
	front := []models.Cell{cell(0, 0), cell(1, 0), cell(2, 0), cell(3, 0)}
	for i := 0; i < 6; i++ {
		fm.RecordCrossing(front, "")
	}

	props := a.CheckForRebalancing(0, models.SystemActor)
	require.Len(t, props, 1)
	assert.Equal(t, []string{ReasonTraffic}, props[0].Reasons)
	assert.Equal(t, cell(1, 1), props[0].ToCell)
	assert.InDelta(t, 6.4, props[0].CurrentScore, 1e-9)
	assert.InDelta(t, 3.2, props[0].NewScore, 1e-9)

	// 임계값을 올리면 제안 없음
	assert.Empty(t, a.CheckForRebalancing(10, models.SystemActor))
}

func TestRebalanceSkipsManualAndWellPlaced(t *testing.T) {
	wh := newTestWarehouse(t, testLayout())
	a := NewAllocator(wh)

	_, err := a.Override(models.ManualPlacement{
		Item:          item("pinned", models.TurnoverFast),
		Cell:          cell(5, 3),
		Justification: "kept near the dock door",
		Actor:         supervisor,
	})
	require.NoError(t, err)
	_, err = a.AssignSlot(item("good", models.TurnoverFast), 0, cell(1, 1), models.SystemActor)
	require.NoError(t, err)

	assert.Empty(t, a.CheckForRebalancing(0, models.SystemActor))
}
