package dao

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/nebularun/internal/client/models"
	"github.com/dmitrijs2005/nebularun/internal/common"
)

// CosmeticsDAO implements Cosmetics over the cosmetic_items catalog.
type CosmeticsDAO struct {
	c *Client
}

func NewCosmeticsDAO(c *Client) *CosmeticsDAO {
	return &CosmeticsDAO{c: c}
}

func (d *CosmeticsDAO) GetCosmetic(ctx context.Context, token, name string) (*models.CosmeticItem, error) {
	path := "/rest/v1/cosmetic_items?name=eq." + url.QueryEscape(name) + "&select=*"

	var list []models.CosmeticItem
	if err := d.c.do(ctx, http.MethodGet, path, token, nil, "", &list); err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: cosmetic %s", common.ErrNotFound, name)
	}
	return &list[0], nil
}

func (d *CosmeticsDAO) GetAllCosmetics(ctx context.Context, token string) ([]models.CosmeticItem, error) {
	var list []models.CosmeticItem
	if err := d.c.do(ctx, http.MethodGet, "/rest/v1/cosmetic_items?select=*", token, nil, "", &list); err != nil {
		return nil, err
	}
	return list, nil
}
