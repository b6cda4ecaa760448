package dao

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/nebularun/internal/client/models"
)

// CompletedChallengesDAO implements CompletedChallenges.
type CompletedChallengesDAO struct {
	c *Client
}

func NewCompletedChallengesDAO(c *Client) *CompletedChallengesDAO {
	return &CompletedChallengesDAO{c: c}
}

func (d *CompletedChallengesDAO) GetCompleted(ctx context.Context, token string) (map[int]struct{}, error) {
	var rows []struct {
		ChallengeID int `json:"challenge_id"`
	}
	if err := d.c.do(ctx, http.MethodGet, "/rest/v1/completed_challenges?select=challenge_id", token, nil, "", &rows); err != nil {
		return nil, err
	}

	set := make(map[int]struct{}, len(rows))
	for _, r := range rows {
		set[r.ChallengeID] = struct{}{}
	}
	return set, nil
}

func (d *CompletedChallengesDAO) InsertCompleted(ctx context.Context, token, userID string, challengeID int) error {
	body := models.CompletedChallenge{
		UserID:        userID,
		ChallengeID:   challengeID,
		RewardClaimed: true,
	}

	err := d.c.do(ctx, http.MethodPost, "/rest/v1/completed_challenges", token, body, "return=minimal", nil)

	// a conflict means the pair already exists: idempotent success
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusConflict {
		return nil
	}
	return err
}
