package services

import (
	"fmt"
	"log"

	"chat-relay/repository"
)

// QuotaService is the per-user daily message ledger. It checks the current
// count against the daily ceiling and records the send in one pass.
type QuotaService interface {
	// CheckAndIncrement evaluates the user's count for `today` against the
	// daily ceiling. It returns (true, nil) when the message is allowed (the
	// count has been incremented), (false, nil) when the ceiling is reached,
	// and (false, err) on a persistence read failure.
	CheckAndIncrement(userID, today string) (bool, error)
	// Used returns the user's effective count for `today`, treating missing
	// or stale records as 0. It never mutates the ledger.
	Used(userID, today string) (int, error)
	// Limit returns the configured daily ceiling.
	Limit() int
}

type quotaService struct {
	quotaRepo repository.QuotaRepository
	limit     int
}

// NewQuotaService creates a QuotaService enforcing the given daily limit.
func NewQuotaService(quotaRepo repository.QuotaRepository, limit int) QuotaService {
	return &quotaService{quotaRepo: quotaRepo, limit: limit}
}

func (s *quotaService) Limit() int {
	return s.limit
}

func (s *quotaService) Used(userID, today string) (int, error) {
	record, err := s.quotaRepo.GetCount(userID)
	if err != nil {
		return 0, fmt.Errorf("quota lookup failed for user %s: %w", userID, err)
	}
	if record == nil || record.LastResetDate != today {
		return 0, nil
	}
	return record.Count, nil
}

// CheckAndIncrement implements the ledger algorithm:
//  1. fetch the record; absence means a fresh user with effective count 0
//  2. a record from an earlier day is reset in place before the comparison
//  3. count >= limit denies without incrementing
//  4. otherwise increment (update existing row, or insert count=1)
//
// The read in step 1 is fatal on failure. The writes in steps 2 and 4 are
// bookkeeping: failures are logged and the message is still allowed.
//
// Two concurrent calls for the same user can both read a sub-ceiling count
// and both be allowed, so the ceiling can be exceeded by a small margin.
// That soft enforcement is intentional.
func (s *quotaService) CheckAndIncrement(userID, today string) (bool, error) {
	record, err := s.quotaRepo.GetCount(userID)
	if err != nil {
		return false, fmt.Errorf("quota lookup failed for user %s: %w", userID, err)
	}

	currentCount := 0
	if record != nil {
		currentCount = record.Count
		if record.LastResetDate != today {
			// New day: reset before the quota comparison.
			currentCount = 0
			if resetErr := s.quotaRepo.ResetCount(userID, today); resetErr != nil {
				log.Printf("ERROR: [QuotaService] Failed to reset daily count for user %s: %v", userID, resetErr)
			}
		}
	}

	if currentCount >= s.limit {
		log.Printf("INFO: [QuotaService] User %s denied: daily limit (%d) reached with count %d.", userID, s.limit, currentCount)
		return false, nil
	}

	if record != nil {
		if incErr := s.quotaRepo.UpdateCount(userID, currentCount+1); incErr != nil {
			log.Printf("ERROR: [QuotaService] Failed to increment daily count for user %s: %v", userID, incErr)
		}
	} else {
		if insErr := s.quotaRepo.InsertCount(userID, today); insErr != nil {
			log.Printf("ERROR: [QuotaService] Failed to insert daily count for user %s: %v", userID, insErr)
		}
	}

	return true, nil
}
