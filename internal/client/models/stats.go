// Package models defines the records exchanged with the NebulaRun backend
// and persisted in the offline database. Field tags follow the backend's
// column names.
package models

import "time"

// PlayerStats is the per-user aggregate. At most one record per user id
// exists in any store; the record is created on first login, mutated at the
// end of every run and on every cosmetic purchase, and never deleted.
type PlayerStats struct {
	UserID              string    `json:"user_id"`
	BestDistance        int       `json:"best_distance"`
	BestCoinsEarned     int       `json:"best_coins_earned"`
	TotalSessions       int       `json:"total_sessions"`
	TotalDistance       int64     `json:"total_distance"`
	TotalCoinsCollected int64     `json:"total_coins_collected"`
	TotalCoinsSpent     int64     `json:"total_coins_spent"`
	ChallengesCompleted int       `json:"challenges_completed"`
	ActualSkin          string    `json:"actual_skin"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// SameValues reports whether the mutable statistic fields of two records are
// identical. UpdatedAt is deliberately excluded: it is the freshness marker,
// not a value.
func (s *PlayerStats) SameValues(o *PlayerStats) bool {
	return s.BestDistance == o.BestDistance &&
		s.BestCoinsEarned == o.BestCoinsEarned &&
		s.TotalSessions == o.TotalSessions &&
		s.TotalDistance == o.TotalDistance &&
		s.TotalCoinsCollected == o.TotalCoinsCollected &&
		s.TotalCoinsSpent == o.TotalCoinsSpent &&
		s.ChallengesCompleted == o.ChallengesCompleted &&
		s.ActualSkin == o.ActualSkin
}

// Balance is the player's spendable coin count.
func (s *PlayerStats) Balance() int64 {
	return s.TotalCoinsCollected - s.TotalCoinsSpent
}
