package model

import (
	"context"
	"path/filepath"
	"testing"

	gormlogger "gorm.io/gorm/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T, name string, models ...any) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), name)),
		&gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models...))
	return db
}

func swapMetadataDB(t *testing.T, db *gorm.DB) {
	t.Helper()
	original := DB
	DB = db
	t.Cleanup(func() { DB = original })
}

func swapAnalyticsDB(t *testing.T, db *gorm.DB) {
	t.Helper()
	original := AnalyticsDB
	AnalyticsDB = db
	t.Cleanup(func() { AnalyticsDB = original })
}

func TestGetPlayerMatchHistoryNewestFirst(t *testing.T) {
	swapAnalyticsDB(t, newTestDB(t, "analytics.db", &PlayerMatchHistory{}))
	ctx := context.Background()

	require.NoError(t, InsertPlayerMatchHistory(ctx, []PlayerMatchHistory{
		{AccountID: 7, MatchID: 100, HeroID: 1},
		{AccountID: 7, MatchID: 300, HeroID: 2},
		{AccountID: 7, MatchID: 200, HeroID: 3},
		{AccountID: 8, MatchID: 400, HeroID: 4},
	}))

	rows, err := GetPlayerMatchHistory(ctx, 7)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, uint64(300), rows[0].MatchID)
	assert.Equal(t, uint64(200), rows[1].MatchID)
	assert.Equal(t, uint64(100), rows[2].MatchID)
}

func TestInsertPlayerMatchHistoryIgnoresDuplicates(t *testing.T) {
	swapAnalyticsDB(t, newTestDB(t, "analytics.db", &PlayerMatchHistory{}))
	ctx := context.Background()

	require.NoError(t, InsertPlayerMatchHistory(ctx, []PlayerMatchHistory{
		{AccountID: 7, MatchID: 100, PlayerKills: 5},
	}))
	// A refetch may repeat rows already stored; the first write wins.
	require.NoError(t, InsertPlayerMatchHistory(ctx, []PlayerMatchHistory{
		{AccountID: 7, MatchID: 100, PlayerKills: 99},
		{AccountID: 7, MatchID: 101, PlayerKills: 2},
	}))

	rows, err := GetPlayerMatchHistory(ctx, 7)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, uint32(5), rows[1].PlayerKills)
}

func TestInsertPlayerMatchHistoryEmptyIsNoop(t *testing.T) {
	// No store wired at all; an empty batch must not touch it.
	swapAnalyticsDB(t, nil)
	require.NoError(t, InsertPlayerMatchHistory(context.Background(), nil))
}

func TestProtectedUserFiltering(t *testing.T) {
	swapMetadataDB(t, newTestDB(t, "meta.db", &ProtectedUser{}))
	protectedSetCache.Forget("all")
	t.Cleanup(func() { protectedSetCache.Forget("all") })
	ctx := context.Background()

	require.NoError(t, DB.Create(&ProtectedUser{AccountID: 42}).Error)

	protected, err := IsProtected(ctx, 42)
	require.NoError(t, err)
	assert.True(t, protected)

	protected, err = IsProtected(ctx, 43)
	require.NoError(t, err)
	assert.False(t, protected)

	filtered, err := FilterProtected(ctx, []uint32{41, 42, 43})
	require.NoError(t, err)
	assert.Equal(t, []uint32{41, 43}, filtered)
}

func TestProtectedSetIsCached(t *testing.T) {
	swapMetadataDB(t, newTestDB(t, "meta.db", &ProtectedUser{}))
	protectedSetCache.Forget("all")
	t.Cleanup(func() { protectedSetCache.Forget("all") })
	ctx := context.Background()

	protected, err := IsProtected(ctx, 42)
	require.NoError(t, err)
	assert.False(t, protected)

	// Rows written behind the cache stay invisible until the entry expires
	// or is forgotten.
	require.NoError(t, DB.Create(&ProtectedUser{AccountID: 42}).Error)

	protected, err = IsProtected(ctx, 42)
	require.NoError(t, err)
	assert.False(t, protected)

	protectedSetCache.Forget("all")
	protected, err = IsProtected(ctx, 42)
	require.NoError(t, err)
	assert.True(t, protected)
}

func TestIsValidApiKey(t *testing.T) {
	swapMetadataDB(t, newTestDB(t, "meta.db", &ApiKey{}))
	ctx := context.Background()

	disabled := true
	require.NoError(t, DB.Create(&ApiKey{
		Key: "11111111-2222-3333-4444-555555555555",
	}).Error)
	require.NoError(t, DB.Create(&ApiKey{
		Key:      "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee",
		Disabled: &disabled,
	}).Error)

	assert.True(t, IsValidApiKey(ctx, "11111111-2222-3333-4444-555555555555"))
	assert.False(t, IsValidApiKey(ctx, "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"))
	assert.False(t, IsValidApiKey(ctx, "99999999-9999-9999-9999-999999999999"))
}
