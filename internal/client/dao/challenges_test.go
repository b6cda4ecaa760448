package dao

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/nebularun/internal/client/models"
)

func TestDailyChallengesDAO_FiltersByTodayUTC(t *testing.T) {
	orig := now
	now = func() time.Time { return time.Date(2024, 6, 15, 23, 30, 0, 0, time.UTC) }
	t.Cleanup(func() { now = orig })

	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`[
			{"id":1,"challenge_date":"2024-06-15","description":"Walk 500 m",
			 "reward_coins":50,"amount_needed":500,"challenge_type":"WALK"}
		]`))
	})

	list, err := NewDailyChallengesDAO(c).GetActiveChallenges(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "select=*&challenge_date=lte.2024-06-15", gotQuery)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].ID)
	assert.Equal(t, models.ChallengeTypeWalk, list[0].ChallengeType)
	assert.Equal(t, 500, list[0].AmountNeeded)
	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), list[0].ChallengeDate.Time)
}

func TestCompletedChallengesDAO_GetCompleted_BuildsSet(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "select=challenge_id", r.URL.RawQuery)
		_, _ = w.Write([]byte(`[{"challenge_id":1},{"challenge_id":3},{"challenge_id":1}]`))
	})

	set, err := NewCompletedChallengesDAO(c).GetCompleted(context.Background(), "tok")
	require.NoError(t, err)
	assert.Len(t, set, 2)
	assert.Contains(t, set, 1)
	assert.Contains(t, set, 3)
}

func TestCompletedChallengesDAO_InsertCompleted_Idempotent(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		var body models.CompletedChallenge
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "u-1", body.UserID)
		assert.Equal(t, 7, body.ChallengeID)
		assert.True(t, body.RewardClaimed)

		if calls == 1 {
			w.WriteHeader(http.StatusCreated)
			return
		}
		// duplicate insert: the backend answers 409
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"duplicate key value"}`))
	})

	d := NewCompletedChallengesDAO(c)
	require.NoError(t, d.InsertCompleted(context.Background(), "tok", "u-1", 7))
	require.NoError(t, d.InsertCompleted(context.Background(), "tok", "u-1", 7))
	assert.Equal(t, 2, calls)
}

func TestCompletedChallengesDAO_InsertCompleted_OtherErrorsPropagate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := NewCompletedChallengesDAO(c).InsertCompleted(context.Background(), "tok", "u-1", 7)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Code)
}

func TestCosmeticsDAO_GetCosmetic(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "name=eq.nebula_red&select=*", r.URL.RawQuery)
		_, _ = w.Write([]byte(`[{"name":"nebula_red","price_coins":100,"rarity":"rare"}]`))
	})

	item, err := NewCosmeticsDAO(c).GetCosmetic(context.Background(), "tok", "nebula_red")
	require.NoError(t, err)
	assert.Equal(t, 100, item.PriceCoins)
	assert.Equal(t, models.RarityRare, item.Rarity)
}

func TestCosmeticsDAO_GetAllCosmetics(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"name":"a"},{"name":"b"}]`))
	})

	list, err := NewCosmeticsDAO(c).GetAllCosmetics(context.Background(), "tok")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
