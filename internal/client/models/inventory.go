package models

import "time"

// InventoryItem is an ownership record: created on purchase or granted
// reward, never mutated, never deleted. (user_id, item_name) uniqueness is a
// soft invariant enforced by merge logic, not a hard constraint.
type InventoryItem struct {
	UserID     string    `json:"user_id"`
	ItemName   string    `json:"item_name"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// LatestAcquired returns the maximum acquisition time across items, or the
// zero time when the list is empty.
func LatestAcquired(items []InventoryItem) time.Time {
	var max time.Time
	for _, it := range items {
		if it.AcquiredAt.After(max) {
			max = it.AcquiredAt
		}
	}
	return max
}
