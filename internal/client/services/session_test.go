package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/nebularun/internal/client/dao"
	"github.com/dmitrijs2005/nebularun/internal/client/models"
	"github.com/dmitrijs2005/nebularun/internal/client/repositories/playerstats"
)

type fakeChallengesDAO struct {
	list []models.DailyChallenge
	err  error
}

func (f *fakeChallengesDAO) GetActiveChallenges(ctx context.Context) ([]models.DailyChallenge, error) {
	return f.list, f.err
}

type fakeCompletedDAO struct {
	set    map[int]struct{}
	getErr error

	inserted  []int
	attempts  int
	insertErr error
}

func (f *fakeCompletedDAO) GetCompleted(ctx context.Context, token string) (map[int]struct{}, error) {
	return f.set, f.getErr
}

func (f *fakeCompletedDAO) InsertCompleted(ctx context.Context, token, userID string, challengeID int) error {
	f.attempts++
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, challengeID)
	return nil
}

type fakeStatsDAO struct {
	remote *models.PlayerStats
}

func (f *fakeStatsDAO) GetStats(ctx context.Context, token string) (*models.PlayerStats, error) {
	return f.remote, nil
}

func (f *fakeStatsDAO) SaveStats(ctx context.Context, token string, dto *models.PlayerStats) error {
	f.remote = dto
	return nil
}

func (f *fakeStatsDAO) UpsertStats(ctx context.Context, token string, dto *models.PlayerStats) error {
	f.remote = dto
	return nil
}

func (f *fakeStatsDAO) GetServerTimestamp(ctx context.Context, token, userID string) (time.Time, error) {
	return time.Time{}, nil
}

func walkChallenge(id, target, reward int) models.DailyChallenge {
	return models.DailyChallenge{
		ID:            id,
		ChallengeType: models.ChallengeTypeWalk,
		AmountNeeded:  target,
		RewardCoins:   reward,
	}
}

func coinsChallenge(id, target, reward int) models.DailyChallenge {
	return models.DailyChallenge{
		ID:            id,
		ChallengeType: models.ChallengeTypeCoins,
		AmountNeeded:  target,
		RewardCoins:   reward,
	}
}

type sessionFixture struct {
	svc        *SessionService
	challenges *fakeChallengesDAO
	completed  *fakeCompletedDAO
	statsDAO   *fakeStatsDAO
	stats      *playerstats.Repository
}

func newSessionFixture(t *testing.T, isOnline bool) *sessionFixture {
	t.Helper()
	dataDir := t.TempDir()
	log := testLogger()
	prober := online(isOnline)

	ch := &fakeChallengesDAO{}
	comp := &fakeCompletedDAO{}
	sd := &fakeStatsDAO{}
	stats := playerstats.New(dataDir, "u1", sd, prober, log)

	return &sessionFixture{
		svc:        NewSessionService(dataDir, "u1", ch, comp, stats, prober, log),
		challenges: ch,
		completed:  comp,
		statsDAO:   sd,
		stats:      stats,
	}
}

func TestFinishRun_FirstSession(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, true)
	f.challenges.list = []models.DailyChallenge{
		walkChallenge(1, 500, 25),
		coinsChallenge(2, 100, 50),
	}

	res, err := f.svc.FinishRun(ctx, "t", 600, 10)
	require.NoError(t, err)

	// WALK 500 met by 600m, COINS 100 not met by 10
	assert.Equal(t, 25, res.RewardCoins)
	assert.Equal(t, []int{1}, f.completed.inserted)

	st := res.Stats
	assert.Equal(t, "u1", st.UserID)
	assert.Equal(t, 1, st.TotalSessions)
	assert.Equal(t, int64(600), st.TotalDistance)
	assert.Equal(t, int64(35), st.TotalCoinsCollected)
	assert.Equal(t, 600, st.BestDistance)
	assert.Equal(t, 35, st.BestCoinsEarned)
	assert.Equal(t, 1, st.ChallengesCompleted)
}

func TestFinishRun_AggregatesExistingStats(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, true)
	f.challenges.list = []models.DailyChallenge{walkChallenge(9, 100000, 500)}

	seed := models.PlayerStats{
		UserID:              "u1",
		BestDistance:        1000,
		BestCoinsEarned:     40,
		TotalSessions:       5,
		TotalDistance:       4000,
		TotalCoinsCollected: 200,
		TotalCoinsSpent:     50,
		ChallengesCompleted: 2,
		ActualSkin:          "default",
		UpdatedAt:           time.Now().UTC(),
	}
	require.NoError(t, f.stats.Save(ctx, "t", &seed, playerstats.SaveOptions{SkipRemote: true, KeepTimestamp: true}))

	res, err := f.svc.FinishRun(ctx, "t", 700, 30)
	require.NoError(t, err)
	require.Zero(t, res.RewardCoins)

	st := res.Stats
	assert.Equal(t, 6, st.TotalSessions)
	assert.Equal(t, int64(4700), st.TotalDistance)
	assert.Equal(t, int64(230), st.TotalCoinsCollected)
	assert.Equal(t, 1000, st.BestDistance, "shorter run must not lower the best")
	assert.Equal(t, 40, st.BestCoinsEarned)
	assert.Equal(t, 2, st.ChallengesCompleted)
}

func TestFinishRun_CompletedChallengeNotRegranted(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, true)
	f.challenges.list = []models.DailyChallenge{walkChallenge(1, 500, 25)}
	f.completed.set = map[int]struct{}{1: {}}

	res, err := f.svc.FinishRun(ctx, "t", 600, 0)
	require.NoError(t, err)
	assert.Zero(t, res.RewardCoins)
	assert.Empty(t, f.completed.inserted)
}

func TestFinishRun_OfflineUsesCachesAndDoesNotDoubleGrant(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, false)
	f.challenges.err = errors.New("unreachable")
	f.completed.getErr = errors.New("unreachable")
	f.completed.insertErr = errors.New("unreachable")

	// no local cache yet: the embedded template seeds the challenge list,
	// which includes a WALK 500 objective
	res, err := f.svc.FinishRun(ctx, "t", 600, 0)
	require.NoError(t, err)
	assert.Equal(t, 25, res.RewardCoins)

	// same run replayed: completion came from the local cache this time
	res2, err := f.svc.FinishRun(ctx, "t", 600, 0)
	require.NoError(t, err)
	assert.Zero(t, res2.RewardCoins)
	assert.Equal(t, 2, res2.Stats.TotalSessions)
}

func TestFlushPending(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, true)
	f.challenges.list = []models.DailyChallenge{walkChallenge(7, 100, 10)}
	f.completed.getErr = errors.New("flaky")
	f.completed.insertErr = errors.New("flaky")

	_, err := f.svc.FinishRun(ctx, "t", 150, 0)
	require.NoError(t, err)

	// backend recovers
	f.completed.insertErr = nil
	require.NoError(t, f.svc.FlushPending(ctx, "t"))
	assert.Equal(t, []int{7}, f.completed.inserted)

	// queue is drained, a second flush pushes nothing
	require.NoError(t, f.svc.FlushPending(ctx, "t"))
	assert.Equal(t, []int{7}, f.completed.inserted)
}

func TestFinishRun_QueuedCompletionNotRegrantedWhenReadsSucceed(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, true)
	f.challenges.list = []models.DailyChallenge{walkChallenge(3, 500, 25)}
	// reads stay healthy while the insert is rejected, so the backend keeps
	// reporting the challenge as open
	f.completed.insertErr = errors.New("insert rejected")

	res, err := f.svc.FinishRun(ctx, "t", 600, 0)
	require.NoError(t, err)
	assert.Equal(t, 25, res.RewardCoins)

	res2, err := f.svc.FinishRun(ctx, "t", 600, 0)
	require.NoError(t, err)
	assert.Zero(t, res2.RewardCoins, "local completion cache must override the backend read")
}

func TestFlushPending_DropsRejectedCompletion(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, true)
	f.challenges.list = []models.DailyChallenge{walkChallenge(7, 100, 10)}
	f.completed.insertErr = errors.New("flaky")

	_, err := f.svc.FinishRun(ctx, "t", 150, 0)
	require.NoError(t, err)

	// the backend now rejects the row outright: no backoff, no requeue
	f.completed.insertErr = &dao.StatusError{Code: 422, Body: "unknown challenge"}
	f.completed.attempts = 0
	require.NoError(t, f.svc.FlushPending(ctx, "t"))
	assert.Equal(t, 1, f.completed.attempts, "a permanent rejection is not retried")
	assert.Empty(t, f.completed.inserted)

	f.completed.insertErr = nil
	f.completed.attempts = 0
	require.NoError(t, f.svc.FlushPending(ctx, "t"))
	assert.Zero(t, f.completed.attempts, "the rejected id left the queue")
}

func TestFlushPending_OfflineNoop(t *testing.T) {
	f := newSessionFixture(t, false)
	require.NoError(t, f.svc.FlushPending(context.Background(), "t"))
}
