package models

import "time"

// DateLayout is the calendar-date format used for quota reset boundaries.
const DateLayout = "2006-01-02"

// DailyMessageCount tracks how many relay messages a user has sent since the
// last daily reset. One row per user.
//
// Invariant: Count reflects messages sent since LastResetDate. A row whose
// LastResetDate is not today is stale and must be reset before being
// consulted.
type DailyMessageCount struct {
	UserID        string    `json:"user_id" gorm:"primaryKey"`
	Count         int       `json:"count" gorm:"default:0"`
	LastResetDate string    `json:"last_reset_date"` // YYYY-MM-DD
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName specifies the table name for the DailyMessageCount model.
func (DailyMessageCount) TableName() string {
	return "daily_message_counts"
}

// Today returns the current calendar date in DateLayout, in UTC.
func Today() string {
	return time.Now().UTC().Format(DateLayout)
}
