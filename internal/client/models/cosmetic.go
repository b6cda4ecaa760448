package models

import "time"

// Rarity tiers for cosmetic items.
const (
	RarityCommon    = "common"
	RarityRare      = "rare"
	RarityEpic      = "epic"
	RarityLegendary = "legendary"
)

// CosmeticItem is a catalog entry, read-only from the client's perspective
// and cached wholesale for offline pricing lookups.
type CosmeticItem struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PriceCoins  int       `json:"price_coins"`
	Rarity      string    `json:"rarity"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
