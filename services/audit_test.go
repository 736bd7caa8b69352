package services

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"wms-core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(action string, at time.Time) models.AuditRecord {
	return models.AuditRecord{Actor: "tester", Action: action, CreatedAt: at}
}

func TestAuditLogFlushesBySize(t *testing.T) {
	store := NewMemoryAuditStore(0)
	al := NewAuditLog(store, 3, time.Hour)

	al.Record(record(models.ActionAssign, time.Time{}))
	al.Record(record(models.ActionAssign, time.Time{}))
	assert.Equal(t, 2, al.Pending())
	recs, _ := store.Recent(0)
	assert.Empty(t, recs)

	al.Record(record(models.ActionRelease, time.Time{}))
	assert.Equal(t, 0, al.Pending())
	recs, _ = store.Recent(0)
	require.Len(t, recs, 3)
	assert.Equal(t, models.ActionRelease, recs[0].Action, "최신 순")
	assert.Equal(t, uint(3), recs[0].ID)
	assert.False(t, recs[0].CreatedAt.IsZero())
}

func TestAuditLogStopFlushes(t *testing.T) {
	store := NewMemoryAuditStore(0)
	al := NewAuditLog(store, 100, time.Hour)
	al.Start()
	al.Start()

	al.Record(record(models.ActionSeed, time.Time{}))
	al.Stop()

	recs, err := store.Recent(0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, models.ActionSeed, recs[0].Action)
}

func TestAuditLogNilIsNoop(t *testing.T) {
	var al *AuditLog
	assert.NotPanics(t, func() { al.Record(record(models.ActionAssign, time.Time{})) })
}

func TestMemoryAuditStoreQueries(t *testing.T) {
	store := NewMemoryAuditStore(4)
	now := time.Now()

	require.NoError(t, store.WriteBatch([]models.AuditRecord{
		record(models.ActionAssign, now.Add(-72*time.Hour)),
		record(models.ActionAssign, now.Add(-3*time.Hour)),
		record(models.ActionRelease, now.Add(-2*time.Hour)),
		record(models.ActionAssign, now.Add(-time.Hour)),
		record(models.ActionOverride, now),
	}))

	all, _ := store.Recent(0)
	require.Len(t, all, 4, "보관 한도를 넘는 오래된 레코드는 버린다")
	assert.Equal(t, models.ActionOverride, all[0].Action)

	top, _ := store.Recent(2)
	assert.Len(t, top, 2)

	assigns, _ := store.ByAction(models.ActionAssign, 0)
	assert.Len(t, assigns, 2)

	window, _ := store.Between(now.Add(-150*time.Minute), now.Add(-30*time.Minute), 0)
	require.Len(t, window, 2)
	assert.Equal(t, models.ActionAssign, window[0].Action)
	assert.Equal(t, models.ActionRelease, window[1].Action)

	stats, _ := store.Stats(24)
	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, int64(2), stats.ActionCounts[models.ActionAssign])
	assert.Equal(t, "Last 24 hours", stats.TimeRange)
}

func TestGormAuditStoreSQLite(t *testing.T) {
	db, err := OpenDatabase(Config{DBDriver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "audit.db")})
	require.NoError(t, err)
	require.NotNil(t, db)
	store := NewGormAuditStore(db)

	now := time.Now()
	var batch []models.AuditRecord
	for i := 0; i < 5; i++ {
		rec := record(models.ActionAssign, now.Add(-time.Duration(5-i)*time.Minute))
		rec.ItemID = fmt.Sprintf("sku-%d", i)
		batch = append(batch, rec)
	}
	batch = append(batch, record(models.ActionOverride, now.Add(-48*time.Hour)))
	require.NoError(t, store.WriteBatch(batch))

	recent, err := store.Recent(3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "sku-4", recent[0].ItemID)

	all, err := store.Recent(0)
	require.NoError(t, err)
	assert.Len(t, all, 6)

	overrides, err := store.ByAction(models.ActionOverride, 10)
	require.NoError(t, err)
	assert.Len(t, overrides, 1)

	window, err := store.Between(now.Add(-time.Hour), now.Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Len(t, window, 5)

	stats, err := store.Stats(24)
	require.NoError(t, err)
	assert.Equal(t, int64(5), stats.Total)
	assert.Equal(t, int64(5), stats.ActionCounts[models.ActionAssign])
	assert.Zero(t, stats.ActionCounts[models.ActionOverride])
}

func TestOpenDatabaseDrivers(t *testing.T) {
	db, err := OpenDatabase(Config{DBDriver: "none"})
	assert.NoError(t, err)
	assert.Nil(t, db)

	_, err = OpenDatabase(Config{DBDriver: "mysql"})
	assert.Error(t, err, "접속 정보 없이 MySQL 을 열 수 없다")

	_, err = OpenDatabase(Config{DBDriver: "postgres"})
	assert.Error(t, err)
}
