package repository

import (
	"errors"
	"fmt"
	"log"

	"chat-relay/models"

	"gorm.io/gorm"
)

// QuotaRepository defines the interface for interacting with per-user daily
// message counts.
type QuotaRepository interface {
	// GetCount returns the quota row for the user, or (nil, nil) when no row
	// exists yet. Absence is not an error: it implies a fresh user with an
	// effective count of 0.
	GetCount(userID string) (*models.DailyMessageCount, error)
	// ResetCount sets the stored count to 0 and the reset date to today.
	ResetCount(userID, today string) error
	// UpdateCount overwrites the stored count for an existing row.
	UpdateCount(userID string, count int) error
	// InsertCount creates the row for a fresh user with count=1.
	InsertCount(userID, today string) error
}

type quotaRepository struct {
	db *gorm.DB
}

// NewQuotaRepository creates a new instance of QuotaRepository.
func NewQuotaRepository(db *gorm.DB) QuotaRepository {
	return &quotaRepository{db: db}
}

func (r *quotaRepository) GetCount(userID string) (*models.DailyMessageCount, error) {
	if userID == "" {
		return nil, errors.New("user ID cannot be empty")
	}

	var record models.DailyMessageCount
	err := r.db.First(&record, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("INFO: [QuotaRepository] No quota record found for user %s.", userID)
			return nil, nil
		}
		log.Printf("ERROR: [QuotaRepository] Failed to fetch quota for user %s: %v", userID, err)
		return nil, fmt.Errorf("failed to fetch quota for user %s: %w", userID, err)
	}
	return &record, nil
}

func (r *quotaRepository) ResetCount(userID, today string) error {
	if userID == "" {
		return errors.New("user ID cannot be empty")
	}

	err := r.db.Model(&models.DailyMessageCount{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{"count": 0, "last_reset_date": today}).Error
	if err != nil {
		log.Printf("ERROR: [QuotaRepository] Failed to reset quota for user %s: %v", userID, err)
		return fmt.Errorf("failed to reset quota for user %s: %w", userID, err)
	}
	log.Printf("INFO: [QuotaRepository] Reset quota for user %s (last_reset_date=%s).", userID, today)
	return nil
}

func (r *quotaRepository) UpdateCount(userID string, count int) error {
	if userID == "" {
		return errors.New("user ID cannot be empty")
	}

	err := r.db.Model(&models.DailyMessageCount{}).
		Where("user_id = ?", userID).
		UpdateColumn("count", count).Error
	if err != nil {
		log.Printf("ERROR: [QuotaRepository] Failed to update quota count for user %s: %v", userID, err)
		return fmt.Errorf("failed to update quota count for user %s: %w", userID, err)
	}
	return nil
}

func (r *quotaRepository) InsertCount(userID, today string) error {
	if userID == "" {
		return errors.New("user ID cannot be empty")
	}

	record := models.DailyMessageCount{
		UserID:        userID,
		Count:         1,
		LastResetDate: today,
	}
	if err := r.db.Create(&record).Error; err != nil {
		log.Printf("ERROR: [QuotaRepository] Failed to insert quota record for user %s: %v", userID, err)
		return fmt.Errorf("failed to insert quota record for user %s: %w", userID, err)
	}
	return nil
}
