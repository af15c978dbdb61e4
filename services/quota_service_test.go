package services

import (
	"errors"
	"testing"

	"chat-relay/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockQuotaRepository is a mock type for the QuotaRepository interface
type MockQuotaRepository struct {
	mock.Mock
}

func (m *MockQuotaRepository) GetCount(userID string) (*models.DailyMessageCount, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DailyMessageCount), args.Error(1)
}

func (m *MockQuotaRepository) ResetCount(userID, today string) error {
	args := m.Called(userID, today)
	return args.Error(0)
}

func (m *MockQuotaRepository) UpdateCount(userID string, count int) error {
	args := m.Called(userID, count)
	return args.Error(0)
}

func (m *MockQuotaRepository) InsertCount(userID, today string) error {
	args := m.Called(userID, today)
	return args.Error(0)
}

const testToday = "2026-08-30"

func TestQuotaService_CheckAndIncrement(t *testing.T) {
	t.Run("first call for a fresh user inserts count=1 and allows", func(t *testing.T) {
		mockRepo := new(MockQuotaRepository)
		mockRepo.On("GetCount", "user-1").Return(nil, nil)
		mockRepo.On("InsertCount", "user-1", testToday).Return(nil)

		service := NewQuotaService(mockRepo, 100)
		allowed, err := service.CheckAndIncrement("user-1", testToday)

		assert.NoError(t, err)
		assert.True(t, allowed)
		mockRepo.AssertExpectations(t)
		mockRepo.AssertNotCalled(t, "ResetCount", mock.Anything, mock.Anything)
		mockRepo.AssertNotCalled(t, "UpdateCount", mock.Anything, mock.Anything)
	})

	t.Run("stale record is reset before the comparison, regardless of prior count", func(t *testing.T) {
		mockRepo := new(MockQuotaRepository)
		mockRepo.On("GetCount", "user-1").Return(&models.DailyMessageCount{
			UserID: "user-1", Count: 100, LastResetDate: "2026-08-29",
		}, nil)
		mockRepo.On("ResetCount", "user-1", testToday).Return(nil)
		mockRepo.On("UpdateCount", "user-1", 1).Return(nil)

		service := NewQuotaService(mockRepo, 100)
		allowed, err := service.CheckAndIncrement("user-1", testToday)

		assert.NoError(t, err)
		assert.True(t, allowed)
		mockRepo.AssertExpectations(t)
	})

	t.Run("count at the ceiling is denied without incrementing", func(t *testing.T) {
		mockRepo := new(MockQuotaRepository)
		mockRepo.On("GetCount", "user-1").Return(&models.DailyMessageCount{
			UserID: "user-1", Count: 100, LastResetDate: testToday,
		}, nil)

		service := NewQuotaService(mockRepo, 100)
		allowed, err := service.CheckAndIncrement("user-1", testToday)

		assert.NoError(t, err)
		assert.False(t, allowed)
		mockRepo.AssertNotCalled(t, "UpdateCount", mock.Anything, mock.Anything)
		mockRepo.AssertNotCalled(t, "InsertCount", mock.Anything, mock.Anything)
	})

	t.Run("count one below the ceiling is allowed and becomes the ceiling", func(t *testing.T) {
		mockRepo := new(MockQuotaRepository)
		mockRepo.On("GetCount", "user-1").Return(&models.DailyMessageCount{
			UserID: "user-1", Count: 99, LastResetDate: testToday,
		}, nil)
		mockRepo.On("UpdateCount", "user-1", 100).Return(nil)

		service := NewQuotaService(mockRepo, 100)
		allowed, err := service.CheckAndIncrement("user-1", testToday)

		assert.NoError(t, err)
		assert.True(t, allowed)
		mockRepo.AssertExpectations(t)
	})

	t.Run("read failure is fatal", func(t *testing.T) {
		mockRepo := new(MockQuotaRepository)
		mockRepo.On("GetCount", "user-1").Return(nil, errors.New("db is down"))

		service := NewQuotaService(mockRepo, 100)
		allowed, err := service.CheckAndIncrement("user-1", testToday)

		assert.Error(t, err)
		assert.False(t, allowed)
	})

	t.Run("bookkeeping write failure does not block the message", func(t *testing.T) {
		mockRepo := new(MockQuotaRepository)
		mockRepo.On("GetCount", "user-1").Return(&models.DailyMessageCount{
			UserID: "user-1", Count: 5, LastResetDate: testToday,
		}, nil)
		mockRepo.On("UpdateCount", "user-1", 6).Return(errors.New("write failed"))

		service := NewQuotaService(mockRepo, 100)
		allowed, err := service.CheckAndIncrement("user-1", testToday)

		// Soft-fail: the error is logged, the relay still proceeds.
		assert.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("reset write failure still resets the effective count for this evaluation", func(t *testing.T) {
		mockRepo := new(MockQuotaRepository)
		mockRepo.On("GetCount", "user-1").Return(&models.DailyMessageCount{
			UserID: "user-1", Count: 100, LastResetDate: "2026-08-29",
		}, nil)
		mockRepo.On("ResetCount", "user-1", testToday).Return(errors.New("write failed"))
		mockRepo.On("UpdateCount", "user-1", 1).Return(nil)

		service := NewQuotaService(mockRepo, 100)
		allowed, err := service.CheckAndIncrement("user-1", testToday)

		assert.NoError(t, err)
		assert.True(t, allowed)
		mockRepo.AssertExpectations(t)
	})
}

func TestQuotaService_Used(t *testing.T) {
	t.Run("missing record counts as zero", func(t *testing.T) {
		mockRepo := new(MockQuotaRepository)
		mockRepo.On("GetCount", "user-1").Return(nil, nil)

		service := NewQuotaService(mockRepo, 100)
		used, err := service.Used("user-1", testToday)

		assert.NoError(t, err)
		assert.Equal(t, 0, used)
	})

	t.Run("stale record counts as zero", func(t *testing.T) {
		mockRepo := new(MockQuotaRepository)
		mockRepo.On("GetCount", "user-1").Return(&models.DailyMessageCount{
			UserID: "user-1", Count: 42, LastResetDate: "2026-08-29",
		}, nil)

		service := NewQuotaService(mockRepo, 100)
		used, err := service.Used("user-1", testToday)

		assert.NoError(t, err)
		assert.Equal(t, 0, used)
	})

	t.Run("current record reports its count", func(t *testing.T) {
		mockRepo := new(MockQuotaRepository)
		mockRepo.On("GetCount", "user-1").Return(&models.DailyMessageCount{
			UserID: "user-1", Count: 42, LastResetDate: testToday,
		}, nil)

		service := NewQuotaService(mockRepo, 100)
		used, err := service.Used("user-1", testToday)

		assert.NoError(t, err)
		assert.Equal(t, 42, used)
	})
}
