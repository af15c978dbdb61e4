package repository

import (
	"testing"

	"chat-relay/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	// A private in-memory database lives per connection; keep the pool at one
	// so every query sees the same database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.DailyMessageCount{},
		&models.Conversation{},
		&models.Message{},
	))
	return db
}

func TestQuotaRepository(t *testing.T) {
	t.Run("GetCount returns nil for a fresh user", func(t *testing.T) {
		repo := NewQuotaRepository(newTestDB(t))

		record, err := repo.GetCount("user-1")

		assert.NoError(t, err)
		assert.Nil(t, record)
	})

	t.Run("InsertCount creates a row with count=1 and today's date", func(t *testing.T) {
		repo := NewQuotaRepository(newTestDB(t))

		require.NoError(t, repo.InsertCount("user-1", "2026-08-30"))

		record, err := repo.GetCount("user-1")
		require.NoError(t, err)
		require.NotNil(t, record)
		assert.Equal(t, 1, record.Count)
		assert.Equal(t, "2026-08-30", record.LastResetDate)
	})

	t.Run("UpdateCount overwrites the stored count", func(t *testing.T) {
		repo := NewQuotaRepository(newTestDB(t))
		require.NoError(t, repo.InsertCount("user-1", "2026-08-30"))

		require.NoError(t, repo.UpdateCount("user-1", 42))

		record, err := repo.GetCount("user-1")
		require.NoError(t, err)
		assert.Equal(t, 42, record.Count)
	})

	t.Run("ResetCount zeroes the count and moves the reset date", func(t *testing.T) {
		repo := NewQuotaRepository(newTestDB(t))
		require.NoError(t, repo.InsertCount("user-1", "2026-08-29"))
		require.NoError(t, repo.UpdateCount("user-1", 77))

		require.NoError(t, repo.ResetCount("user-1", "2026-08-30"))

		record, err := repo.GetCount("user-1")
		require.NoError(t, err)
		assert.Equal(t, 0, record.Count)
		assert.Equal(t, "2026-08-30", record.LastResetDate)
	})

	t.Run("rows are keyed per user", func(t *testing.T) {
		repo := NewQuotaRepository(newTestDB(t))
		require.NoError(t, repo.InsertCount("user-1", "2026-08-30"))
		require.NoError(t, repo.InsertCount("user-2", "2026-08-30"))
		require.NoError(t, repo.UpdateCount("user-1", 10))

		record, err := repo.GetCount("user-2")
		require.NoError(t, err)
		assert.Equal(t, 1, record.Count)
	})

	t.Run("empty user id is rejected", func(t *testing.T) {
		repo := NewQuotaRepository(newTestDB(t))

		_, err := repo.GetCount("")
		assert.Error(t, err)
	})
}
