package dao

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrijs2005/nebularun/internal/client/models"
	"github.com/dmitrijs2005/nebularun/internal/common"
)

// PlayerStatsDAO implements PlayerStats over the player_stats resource.
// Row-level security scopes reads to the bearer token's user.
type PlayerStatsDAO struct {
	c *Client
}

func NewPlayerStatsDAO(c *Client) *PlayerStatsDAO {
	return &PlayerStatsDAO{c: c}
}

func (d *PlayerStatsDAO) GetStats(ctx context.Context, token string) (*models.PlayerStats, error) {
	var rows []models.PlayerStats
	if err := d.c.do(ctx, http.MethodGet, "/rest/v1/player_stats?select=*&limit=1", token, nil, "", &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// SaveStats patches the mutable counters and the equipped cosmetic only;
// user_id and updated_at are left to the server.
func (d *PlayerStatsDAO) SaveStats(ctx context.Context, token string, dto *models.PlayerStats) error {
	path := "/rest/v1/player_stats?user_id=eq." + url.QueryEscape(dto.UserID)

	body := map[string]any{
		"best_distance":         dto.BestDistance,
		"best_coins_earned":     dto.BestCoinsEarned,
		"total_sessions":        dto.TotalSessions,
		"total_distance":        dto.TotalDistance,
		"total_coins_collected": dto.TotalCoinsCollected,
		"total_coins_spent":     dto.TotalCoinsSpent,
		"challenges_completed":  dto.ChallengesCompleted,
		"actual_skin":           dto.ActualSkin,
	}

	return d.c.do(ctx, http.MethodPatch, path, token, body, "return=minimal", nil)
}

func (d *PlayerStatsDAO) UpsertStats(ctx context.Context, token string, dto *models.PlayerStats) error {
	return d.c.do(ctx, http.MethodPost, "/rest/v1/player_stats", token, dto,
		"resolution=merge-duplicates,return=minimal", nil)
}

func (d *PlayerStatsDAO) GetServerTimestamp(ctx context.Context, token, userID string) (time.Time, error) {
	path := "/rest/v1/player_stats?select=updated_at&user_id=eq." + url.QueryEscape(userID) + "&limit=1"

	var rows []struct {
		UpdatedAt time.Time `json:"updated_at"`
	}
	if err := d.c.do(ctx, http.MethodGet, path, token, nil, "", &rows); err != nil {
		return time.Time{}, err
	}
	if len(rows) == 0 {
		return time.Time{}, fmt.Errorf("%w: no stats row for user %s", common.ErrNotFound, userID)
	}
	return rows[0].UpdatedAt, nil
}
