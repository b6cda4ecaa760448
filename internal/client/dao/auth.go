package dao

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/nebularun/internal/client/models"
)

// AuthDAO implements Auth against the backend's token endpoints.
type AuthDAO struct {
	c *Client
}

func NewAuthDAO(c *Client) *AuthDAO {
	return &AuthDAO{c: c}
}

func (d *AuthDAO) Login(ctx context.Context, email, password string) (*models.TokenPair, error) {
	body := map[string]string{"email": email, "password": password}

	var tp models.TokenPair
	if err := d.c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", body, "", &tp); err != nil {
		return nil, err
	}
	return &tp, nil
}

func (d *AuthDAO) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	body := map[string]string{"refresh_token": refreshToken}

	var tp models.TokenPair
	if err := d.c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", "", body, "", &tp); err != nil {
		return nil, err
	}
	return &tp, nil
}

func (d *AuthDAO) Register(ctx context.Context, email, password string) (*models.TokenPair, error) {
	body := map[string]string{"email": email, "password": password}

	var tp models.TokenPair
	if err := d.c.do(ctx, http.MethodPost, "/auth/v1/signup", "", body, "", &tp); err != nil {
		return nil, err
	}
	return &tp, nil
}
