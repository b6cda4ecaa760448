package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Challenge type tags as issued by the backend.
const (
	ChallengeTypeWalk  = "WALK"
	ChallengeTypeCoins = "COINS"
)

// Date is a day-granularity timestamp serialized as "2006-01-02", the format
// the daily_challenges table uses for challenge_date.
type Date struct {
	time.Time
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format("2006-01-02"))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", s, err)
	}
	d.Time = t
	return nil
}

// DailyChallenge is a server-defined, date-scoped objective. Immutable once
// issued; superseded daily by new server rows.
type DailyChallenge struct {
	ID            int    `json:"id"`
	ChallengeDate Date   `json:"challenge_date"`
	Description   string `json:"description"`
	RewardCoins   int    `json:"reward_coins"`
	AmountNeeded  int    `json:"amount_needed"`
	ChallengeType string `json:"challenge_type"`
}

// Satisfied reports whether a session with the given distance and coin count
// meets the challenge target.
func (c *DailyChallenge) Satisfied(sessionDistance, sessionCoins int) bool {
	switch c.ChallengeType {
	case ChallengeTypeWalk:
		return sessionDistance >= c.AmountNeeded
	case ChallengeTypeCoins:
		return sessionCoins >= c.AmountNeeded
	default:
		return false
	}
}

// CompletedChallenge is the (user, challenge) join record. Created once per
// pair; duplicate insertion is treated as success.
type CompletedChallenge struct {
	UserID        string    `json:"user_id"`
	ChallengeID   int       `json:"challenge_id"`
	CompletedAt   time.Time `json:"completed_at,omitzero"`
	RewardClaimed bool      `json:"reward_claimed"`
}
