package services

import (
	"testing"

	"wms-core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCoordinator(t *testing.T, layout models.WarehouseLayout, threshold int) (*Warehouse, *Coordinator) {
	t.Helper()
	wh := newTestWarehouse(t, layout)
	return wh, NewCoordinator(wh, NewFleet(), threshold)
}

func TestAssignTaskPicksCapableCart(t *testing.T) {
	wh, co := newTestCoordinator(t, testLayout(), 0)
	fm, _ := wh.Floor(0)
	assert.Equal(t, 5, co.Threshold())

	_, err := co.AssignTask(models.TaskRequest{Floor: 0, Target: cell(3, 1)}, models.SystemActor)
	assert.ErrorIs(t, err, ErrNoCarts)

	for _, c := range []struct {
		id  string
		cap int
		pos models.Cell
	}{{"big", 3, cell(6, 0)}, {"s1", 1, cell(0, 0)}, {"s2", 1, cell(0, 4)}} {
		_, err := co.Fleet().Register(c.id, c.cap, 0, c.pos)
		require.NoError(t, err)
	}

	task, err := co.AssignTask(models.TaskRequest{Floor: 0, Target: cell(3, 1), Pallets: 2, ItemID: "sku-1"}, models.SystemActor)
	require.NoError(t, err)
	assert.Equal(t, "big", task.CartID)
	assert.Equal(t, 1, task.Trips)
	assert.False(t, task.Split)
	assert.Equal(t, 3, task.Distance)
	assert.Equal(t, "front", task.Corridor)
	assert.False(t, task.Rerouted)
	assert.False(t, task.Fallback)

	cart, err := co.Fleet().Get("big")
	require.NoError(t, err)
	assert.Equal(t, cell(3, 0), cart.Position)
	assert.Equal(t, models.CartAssigned, cart.State)
	assert.Equal(t, 1, cart.TasksDone)

	assert.Equal(t, 1, fm.PendingAt(cell(3, 1)))
	assert.Equal(t, 1, fm.CorridorTraffic("front"), "선택된 코리도어는 한 번만 센다")

	done, err := co.CompleteTask(task.ID)
	require.NoError(t, err)
	assert.NotNil(t, done.CompletedAt)
	assert.Equal(t, 0, fm.PendingAt(cell(3, 1)))
	cart, _ = co.Fleet().Get("big")
	assert.Equal(t, models.CartIdle, cart.State)

	// 두 번 완료해도 대기 작업은 음수가 되지 않는다
	_, err = co.CompleteTask(task.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, fm.PendingAt(cell(3, 1)))

	_, err = co.CompleteTask("missing")
	assert.ErrorIs(t, err, ErrUnknownTask)

	assert.Equal(t, []string{models.ActionTaskAssign}, auditActions(t, wh))
	assert.Len(t, co.Tasks(), 1)
}

func TestAssignTaskReroutesWhenCongested(t *testing.T) {
	wh, co := newTestCoordinator(t, testLayout(), 1)
	_, err := co.Fleet().Register("c", 1, 0, cell(0, 0))
	require.NoError(t, err)

	first, err := co.AssignTask(models.TaskRequest{Floor: 0, Target: cell(3, 1)}, models.SystemActor)
	require.NoError(t, err)
	assert.Equal(t, "front", first.Corridor)

	second, err := co.AssignTask(models.TaskRequest{Floor: 0, Target: cell(3, 1)}, models.SystemActor)
	require.NoError(t, err)
	assert.True(t, second.Rerouted)
	assert.Equal(t, "mid", second.Corridor)
	assert.Contains(t, second.Path, cell(3, 2), "우회 경로는 mid 코리도어를 지난다")

	assert.Equal(t, []string{models.ActionTaskAssign, models.ActionTaskAssign, models.ActionReroute}, auditActions(t, wh))
}

func TestAssignTaskSplitsOverCapacity(t *testing.T) {
	_, co := newTestCoordinator(t, testLayout(), 0)
	for _, id := range []string{"a", "b"} {
		_, err := co.Fleet().Register(id, 1, 0, cell(0, 0))
		require.NoError(t, err)
	}

	task, err := co.AssignTask(models.TaskRequest{Floor: 0, Target: cell(2, 1), Pallets: 3}, models.SystemActor)
	require.NoError(t, err)
	assert.Equal(t, 3, task.Trips)
	assert.True(t, task.Split)

	cart, _ := co.Fleet().Get(task.CartID)
	assert.Equal(t, task.Distance*3, cart.DistanceMoved)
}

func TestChooseCartAcrossFloors(t *testing.T) {
	layout := testLayout()
	layout.Floors = append(layout.Floors, testFloor(1))
	_, co := newTestCoordinator(t, layout, 0)

	_, err := co.Fleet().Register("upstairs", 1, 1, cell(0, 0))
	require.NoError(t, err)

	choice, err := co.ChooseCart(0, cell(3, 1), 1)
	require.NoError(t, err)
	assert.Equal(t, 4+layout.Tuning.FloorChangeCost, choice.Distance)

	task, err := co.AssignTask(models.TaskRequest{Floor: 0, Target: cell(3, 1)}, models.SystemActor)
	require.NoError(t, err)
	assert.True(t, task.Fallback)
	assert.Empty(t, task.Path)

	_, err = co.ChooseCart(0, cell(30, 1), 1)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestCompletedTaskHistoryIsCapped(t *testing.T) {
	_, co := newTestCoordinator(t, testLayout(), 100)
	_, err := co.Fleet().Register("c1", 2, 0, cell(0, 0))
	require.NoError(t, err)
	co.SetTaskHistory(2)

	var ids []string
	for i := 0; i < 4; i++ {
		task, err := co.AssignTask(models.TaskRequest{Floor: 0, Target: cell(1, 1)}, models.SystemActor)
		require.NoError(t, err)
		ids = append(ids, task.ID)
	}
	for _, id := range ids[:3] {
		_, err := co.CompleteTask(id)
		require.NoError(t, err)
	}

	// 완료 3건 중 가장 오래된 1건만 정리, 진행 중 작업은 유지
	tasks := co.Tasks()
	require.Len(t, tasks, 3)
	kept := make([]string, 0, len(tasks))
	for _, task := range tasks {
		kept = append(kept, task.ID)
	}
	assert.ElementsMatch(t, ids[1:], kept)

	_, err = co.CompleteTask(ids[0])
	assert.ErrorIs(t, err, ErrUnknownTask)

	co.SetTaskHistory(0)
	tasks = co.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, ids[3], tasks[0].ID)
	assert.Nil(t, tasks[0].CompletedAt)
}
