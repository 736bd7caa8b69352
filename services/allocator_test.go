package services

import (
	"fmt"
	"sync"
	"testing"

	"wms-core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestSlotFastItemTakesNearestCell(t *testing.T) {
	wh := newTestWarehouse(t, testLayout())
	a := NewAllocator(wh)

	sug, ok, err := a.SuggestSlot(item("fast-1", models.TurnoverFast))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, sug.Floor)
	assert.Equal(t, cell(1, 1), sug.Cell)
	assert.InDelta(t, 1.0, sug.Score, 1e-9)
	assert.InDelta(t, 1.0, sug.Breakdown["alpha"], 1e-9)

	// 추천은 상태를 바꾸지 않는다
	fm, _ := wh.Floor(0)
	assert.True(t, fm.IsStorageSlotAvailable(cell(1, 1)))
}

func TestSuggestSlotHardConstraints(t *testing.T) {
	wh := newTestWarehouse(t, testLayout())
	a := NewAllocator(wh)

	hazmat := item("hz", models.TurnoverMedium)
	hazmat.Hazardous = true
	sug, ok, err := a.SuggestSlot(hazmat)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, cell(1, 3), sug.Cell, "위험물은 안전 존에만")

	fragile := item("fr", models.TurnoverMedium)
	fragile.Fragile = true
	sug, ok, err = a.SuggestSlot(fragile)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, cell(2, 1), sug.Cell, "파손주의는 출구에서 3 이상")
}

func TestSuggestSlotScoringTerms(t *testing.T) {
	t.Run("forecast boost", func(t *testing.T) {
		wh := newTestWarehouse(t, testLayout())
		a := NewAllocator(wh)
		a.SetHighDemand([]string{" hot ", ""})
		assert.Equal(t, []string{"hot"}, a.HighDemand())

		sug, ok, err := a.SuggestSlot(item("hot", models.TurnoverMedium))
		require.NoError(t, err)
		require.True(t, ok)
		assert.InDelta(t, 1.6, sug.Score, 1e-9)
	})

	t.Run("heavy item", func(t *testing.T) {
		wh := newTestWarehouse(t, testLayout())
		heavy := item("heavy", models.TurnoverMedium)
		heavy.Weight = 100

		sug, ok, err := NewAllocator(wh).SuggestSlot(heavy)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, cell(1, 1), sug.Cell)
		assert.InDelta(t, 2.0, sug.Breakdown["weight"], 1e-9)
		assert.InDelta(t, 4.0, sug.Score, 1e-9)
	})

	t.Run("corridor traffic", func(t *testing.T) {
		wh := newTestWarehouse(t, testLayout())
		fm, _ := wh.Floor(0)
		front := []models.Cell{cell(0, 0), cell(1, 0), cell(2, 0), cell(3, 0), cell(4, 0), cell(5, 0), cell(6, 0)}
		for i := 0; i < 20; i++ {
			fm.RecordCrossing(front, "")
		}

		sug, ok, err := NewAllocator(wh).SuggestSlot(item("m", models.TurnoverMedium))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, cell(1, 3), sug.Cell, "혼잡한 front 대신 mid 쪽 랙")
		assert.InDelta(t, 4.0, sug.Score, 1e-9)
	})

	t.Run("neighbour occupancy", func(t *testing.T) {
		wh := newTestWarehouse(t, testLayout())
		a := NewAllocator(wh)
		_, err := a.AssignSlot(item("x", models.TurnoverMedium), 0, cell(2, 1), models.SystemActor)
		require.NoError(t, err)

		sug, ok, err := a.SuggestSlot(item("f", models.TurnoverFast))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, cell(1, 3), sug.Cell)
		assert.InDelta(t, 2.0, sug.Score, 1e-9)
	})

	t.Run("pending workload and tie order", func(t *testing.T) {
		wh := newTestWarehouse(t, testLayout())
		fm, _ := wh.Floor(0)
		fm.AddPending(cell(1, 0), 1)

		sug, ok, err := NewAllocator(wh).SuggestSlot(item("f", models.TurnoverFast))
		require.NoError(t, err)
		require.True(t, ok)
		// (3,1) 과 (1,3) 이 2.0 으로 동점 → 행 우선으로 앞선 (3,1)
		assert.Equal(t, cell(3, 1), sug.Cell)
		assert.InDelta(t, 2.0, sug.Score, 1e-9)
	})
}

func TestPlaceItemFullWarehouse(t *testing.T) {
	wh := newTestWarehouse(t, testLayout())
	a := NewAllocator(wh)
	fm, _ := wh.Floor(0)

	var entries []models.OccupancyEntry
	for k, c := range fm.StorageCells() {
		entries = append(entries, models.OccupancyEntry{Floor: 0, Cell: c, Item: item(fmt.Sprintf("s%d", k), "")})
	}
	require.NoError(t, a.SeedOccupancy(entries, models.SystemActor))
	assert.Equal(t, 10, fm.OccupiedCount())

	_, ok, err := a.PlaceItem(item("late", models.TurnoverFast), models.SystemActor)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = a.SuggestSlot(item("late", models.TurnoverFast))
	require.NoError(t, err)
	assert.False(t, ok)

	p, found := a.Locate("s0")
	require.True(t, found)
	assert.Equal(t, models.TurnoverMedium, p.Item.Turnover)
}

func TestPlaceItemRejectsBadItems(t *testing.T) {
	wh := newTestWarehouse(t, testLayout())
	a := NewAllocator(wh)

	_, _, err := a.PlaceItem(item(" ", models.TurnoverFast), models.SystemActor)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, _, err = a.PlaceItem(item("x", "weekly"), models.SystemActor)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, ok, err := a.PlaceItem(item("x", models.TurnoverFast), models.SystemActor)
	require.NoError(t, err)
	require.True(t, ok)
	_, _, err = a.PlaceItem(item("x", models.TurnoverFast), models.SystemActor)
	assert.ErrorIs(t, err, ErrItemPlaced)
}

func TestPlaceItemConcurrentNoDoubleBooking(t *testing.T) {
	wh := newTestWarehouse(t, testLayout())
	a := NewAllocator(wh)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		placed []models.Placement
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, ok, err := a.PlaceItem(item(fmt.Sprintf("item-%d", i), models.TurnoverMedium), models.SystemActor)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				placed = append(placed, p)
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	require.Len(t, placed, 10)
	cells := make(map[models.Cell]bool)
	for _, p := range placed {
		assert.False(t, cells[p.Cell], "cell %s booked twice", p.Cell)
		cells[p.Cell] = true
	}
	fm, _ := wh.Floor(0)
	assert.Equal(t, 10, fm.OccupiedCount())
}

func TestAssignSlotErrors(t *testing.T) {
	wh := newTestWarehouse(t, testLayout())
	a := NewAllocator(wh)
	actor := models.SystemActor

	_, err := a.AssignSlot(item("a", models.TurnoverFast), 0, cell(0, 0), actor)
	assert.ErrorIs(t, err, ErrNotStorageCell)
	_, err = a.AssignSlot(item("a", models.TurnoverFast), 0, cell(9, 9), actor)
	assert.ErrorIs(t, err, ErrOutOfBounds)
	_, err = a.AssignSlot(item("a", models.TurnoverFast), 3, cell(1, 1), actor)
	assert.ErrorIs(t, err, ErrUnknownFloor)

	hz := item("hz", models.TurnoverFast)
	hz.Hazardous = true
	_, err = a.AssignSlot(hz, 0, cell(1, 1), actor)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	p, err := a.AssignSlot(item("a", models.TurnoverFast), 0, cell(1, 1), actor)
	require.NoError(t, err)
	assert.Equal(t, models.SlotReserved, p.State)
	assert.NotEmpty(t, p.ID)

	_, err = a.AssignSlot(item("b", models.TurnoverFast), 0, cell(1, 1), actor)
	assert.ErrorIs(t, err, ErrSlotTaken)
	_, err = a.AssignSlot(item("a", models.TurnoverFast), 0, cell(2, 1), actor)
	assert.ErrorIs(t, err, ErrItemPlaced)
}

func TestReleaseFreesSlot(t *testing.T) {
	wh := newTestWarehouse(t, testLayout())
	a := NewAllocator(wh)
	fm, _ := wh.Floor(0)

	p, ok, err := a.PlaceItem(item("a", models.TurnoverFast), models.SystemActor)
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, fm.IsStorageSlotAvailable(p.Cell))

	released, err := a.ReleaseItem("a", models.SystemActor)
	require.NoError(t, err)
	assert.Equal(t, models.SlotReleased, released.State)
	assert.NotNil(t, released.ReleasedAt)
	assert.True(t, fm.IsStorageSlotAvailable(p.Cell))
	_, found := a.Locate("a")
	assert.False(t, found)

	_, err = a.ReleaseItem("a", models.SystemActor)
	assert.ErrorIs(t, err, ErrItemNotPlaced)
	_, err = a.ReleaseSlot(0, p.Cell, models.SystemActor)
	assert.ErrorIs(t, err, ErrItemNotPlaced)
	_, err = a.ReleaseSlot(4, p.Cell, models.SystemActor)
	assert.ErrorIs(t, err, ErrUnknownFloor)

	assert.Equal(t, []string{models.ActionAssign, models.ActionRelease}, auditActions(t, wh))
}

func TestSeedOccupancyIsAllOrNothing(t *testing.T) {
	wh := newTestWarehouse(t, testLayout())
	a := NewAllocator(wh)

	require.NoError(t, a.SeedOccupancy([]models.OccupancyEntry{
		{Floor: 0, Cell: cell(1, 1), Item: item("keep", models.TurnoverFast)},
	}, models.SystemActor))

	bad := map[string][]models.OccupancyEntry{
		"walkable cell": {{Floor: 0, Cell: cell(0, 0), Item: item("x", models.TurnoverFast)}},
		"unknown floor": {{Floor: 9, Cell: cell(1, 1), Item: item("x", models.TurnoverFast)}},
		"duplicate item": {
			{Floor: 0, Cell: cell(2, 1), Item: item("x", models.TurnoverFast)},
			{Floor: 0, Cell: cell(3, 1), Item: item("x", models.TurnoverFast)},
		},
		"duplicate cell": {
			{Floor: 0, Cell: cell(2, 1), Item: item("x", models.TurnoverFast)},
			{Floor: 0, Cell: cell(2, 1), Item: item("y", models.TurnoverFast)},
		},
		"bad turnover": {{Floor: 0, Cell: cell(2, 1), Item: models.Item{ID: "x", Weight: 1, Turnover: "FAST"}}},
		"negative weight": {
			{Floor: 0, Cell: cell(2, 1), Item: item("x", models.TurnoverFast)},
			{Floor: 0, Cell: cell(3, 1), Item: models.Item{ID: "y", Weight: -5, Turnover: models.TurnoverSlow}},
		},
	}
	for name, entries := range bad {
		t.Run(name, func(t *testing.T) {
			err := a.SeedOccupancy(entries, models.SystemActor)
			assert.ErrorIs(t, err, ErrCorruptOccupancy)

			p, found := a.Locate("keep")
			require.True(t, found)
			assert.Equal(t, cell(1, 1), p.Cell)
		})
	}
}
