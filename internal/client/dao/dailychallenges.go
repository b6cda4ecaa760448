package dao

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/nebularun/internal/client/models"
)

// now is a test seam so the UTC date filter can be pinned in tests.
var now = time.Now

// DailyChallengesDAO implements DailyChallenges. The resource is readable
// with the API key alone, no bearer token required.
type DailyChallengesDAO struct {
	c *Client
}

func NewDailyChallengesDAO(c *Client) *DailyChallengesDAO {
	return &DailyChallengesDAO{c: c}
}

func (d *DailyChallengesDAO) GetActiveChallenges(ctx context.Context) ([]models.DailyChallenge, error) {
	today := now().UTC().Format("2006-01-02")
	path := "/rest/v1/daily_challenges?select=*&challenge_date=lte." + today

	var list []models.DailyChallenge
	if err := d.c.do(ctx, http.MethodGet, path, "", nil, "", &list); err != nil {
		return nil, err
	}
	return list, nil
}
