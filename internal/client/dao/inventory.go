package dao

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrijs2005/nebularun/internal/client/models"
)

// InventoryDAO implements Inventory over the inventory resource.
type InventoryDAO struct {
	c *Client
}

func NewInventoryDAO(c *Client) *InventoryDAO {
	return &InventoryDAO{c: c}
}

func (d *InventoryDAO) GetInventory(ctx context.Context, userID, token string) ([]models.InventoryItem, error) {
	path := "/rest/v1/inventory?user_id=eq." + url.QueryEscape(userID) + "&select=*"

	var items []models.InventoryItem
	if err := d.c.do(ctx, http.MethodGet, path, token, nil, "", &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (d *InventoryDAO) GetLastInventoryTimestamp(ctx context.Context, userID, token string) (time.Time, error) {
	path := "/rest/v1/inventory?select=acquired_at&user_id=eq." + url.QueryEscape(userID) +
		"&order=acquired_at.desc&limit=1"

	var rows []struct {
		AcquiredAt time.Time `json:"acquired_at"`
	}
	if err := d.c.do(ctx, http.MethodGet, path, token, nil, "", &rows); err != nil {
		return time.Time{}, err
	}
	if len(rows) == 0 {
		// "never": the user owns nothing yet
		return time.Time{}, nil
	}
	return rows[0].AcquiredAt, nil
}

func (d *InventoryDAO) UploadItem(ctx context.Context, item models.InventoryItem, token string) error {
	body := models.InventoryItem{
		UserID:     item.UserID,
		ItemName:   item.ItemName,
		AcquiredAt: item.AcquiredAt.UTC(),
	}
	return d.c.do(ctx, http.MethodPost, "/rest/v1/inventory", token, body, "return=minimal", nil)
}
