package dao

import (
	"context"
	"time"

	"github.com/dmitrijs2005/nebularun/internal/client/models"
)

// Auth issues and refreshes token pairs. Failures carry the raw server error
// body inside a *StatusError.
type Auth interface {
	Login(ctx context.Context, email, password string) (*models.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	Register(ctx context.Context, email, password string) (*models.TokenPair, error)
}

// PlayerStats reads and writes the player_stats resource.
type PlayerStats interface {
	// GetStats fetches the authenticated user's row. An empty result set is a
	// valid "no record yet" success: (nil, nil).
	GetStats(ctx context.Context, token string) (*models.PlayerStats, error)

	// SaveStats partially updates (PATCH) the mutable statistic fields.
	SaveStats(ctx context.Context, token string, dto *models.PlayerStats) error

	// UpsertStats inserts or merges the row by user id; used for first-time
	// creation.
	UpsertStats(ctx context.Context, token string, dto *models.PlayerStats) error

	// GetServerTimestamp fetches just the last-modified marker for cheap
	// freshness comparison.
	GetServerTimestamp(ctx context.Context, token, userID string) (time.Time, error)
}

// Inventory reads and appends ownership rows.
type Inventory interface {
	GetInventory(ctx context.Context, userID, token string) ([]models.InventoryItem, error)

	// GetLastInventoryTimestamp returns the maximum acquired_at, or the zero
	// time when the user owns nothing yet.
	GetLastInventoryTimestamp(ctx context.Context, userID, token string) (time.Time, error)

	UploadItem(ctx context.Context, item models.InventoryItem, token string) error
}

// DailyChallenges lists the server-defined objectives.
type DailyChallenges interface {
	// GetActiveChallenges returns every challenge dated today (UTC) or
	// earlier; the filter is applied server-side.
	GetActiveChallenges(ctx context.Context) ([]models.DailyChallenge, error)
}

// CompletedChallenges tracks the (user, challenge) join records.
type CompletedChallenges interface {
	GetCompleted(ctx context.Context, token string) (map[int]struct{}, error)

	// InsertCompleted is idempotent: an already-exists conflict is treated
	// identically to success.
	InsertCompleted(ctx context.Context, token, userID string, challengeID int) error
}

// Cosmetics serves the read-only catalog.
type Cosmetics interface {
	GetCosmetic(ctx context.Context, token, name string) (*models.CosmeticItem, error)
	GetAllCosmetics(ctx context.Context, token string) ([]models.CosmeticItem, error)
}
