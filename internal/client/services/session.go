package services

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/nebularun/internal/client/dao"
	"github.com/dmitrijs2005/nebularun/internal/client/models"
	"github.com/dmitrijs2005/nebularun/internal/client/repositories/playerstats"
	"github.com/dmitrijs2005/nebularun/internal/common"
	"github.com/dmitrijs2005/nebularun/internal/jsontable"
	"github.com/dmitrijs2005/nebularun/internal/logging"
	"github.com/dmitrijs2005/nebularun/internal/netx"
)

// challengeTemplate seeds the challenge cache on a first run that never saw
// the backend, so offline players still get objectives.
//
//go:embed daily_challenges.json
var challengeTemplate []byte

// RunResult is what FinishRun resolved: the updated aggregate and the coins
// earned from challenges completed during the run.
type RunResult struct {
	Stats       *models.PlayerStats
	RewardCoins int
}

// SessionService orchestrates the end of a run: challenge evaluation, reward
// accounting and the stats aggregate update, all tolerant of the backend
// being unreachable.
type SessionService struct {
	userID     string
	challenges dao.DailyChallenges
	completed  dao.CompletedChallenges
	stats      *playerstats.Repository
	prober     netx.Prober
	log        logging.Logger

	active  *jsontable.Table[models.DailyChallenge]
	done    *jsontable.Table[int]
	pending *jsontable.Table[int]
}

func NewSessionService(dataDir, userID string, challenges dao.DailyChallenges, completed dao.CompletedChallenges, stats *playerstats.Repository, prober netx.Prober, log logging.Logger) *SessionService {
	dir := filepath.Join(dataDir, common.OfflineDBDirName)
	return &SessionService{
		userID:     userID,
		challenges: challenges,
		completed:  completed,
		stats:      stats,
		prober:     prober,
		log:        log,
		active:     jsontable.New[models.DailyChallenge](filepath.Join(dir, "daily_challenges.json")),
		done:       jsontable.New[int](filepath.Join(dir, userID+"-completed_challenges.json")),
		pending:    jsontable.New[int](filepath.Join(dir, userID+"-pending_challenges.json")),
	}
}

// FinishRun records a finished session: evaluates the day's challenges
// against the run, grants rewards, and folds everything into the player
// aggregate. It always produces a result; backend failures degrade to the
// local caches.
func (s *SessionService) FinishRun(ctx context.Context, token string, distance, coins int) (*RunResult, error) {
	active := s.activeChallenges(ctx)
	done := s.completedSet(ctx, token)

	reward := 0
	for _, ch := range active {
		if _, ok := done[ch.ID]; ok {
			continue
		}
		if !ch.Satisfied(distance, coins) {
			continue
		}

		reward += ch.RewardCoins
		s.log.Info(ctx, "challenge completed", "id", ch.ID, "reward", ch.RewardCoins)

		if err := s.completed.InsertCompleted(ctx, token, s.userID, ch.ID); err != nil {
			s.log.Warn(ctx, "completion insert failed, queued for retry", "id", ch.ID, "error", err)
			s.queuePending(ctx, ch.ID)
		}
		s.markCompletedLocally(ctx, ch.ID)
	}

	stats, err := s.loadOrCreateStats(ctx, token, distance, coins, reward)
	if err != nil {
		return nil, err
	}

	if err := s.stats.Save(ctx, token, stats, playerstats.SaveOptions{}); err != nil {
		s.log.Warn(ctx, "stats save failed", "error", err)
	}

	return &RunResult{Stats: stats, RewardCoins: reward}, nil
}

// Missions returns the current objectives and the set of ids the user has
// already completed, both degrading to the local caches when offline.
func (s *SessionService) Missions(ctx context.Context, token string) ([]models.DailyChallenge, map[int]struct{}) {
	return s.activeChallenges(ctx), s.completedSet(ctx, token)
}

// activeChallenges fetches the current challenge list, refreshing the shared
// cache on success. An empty or failed fetch falls back to the cache, seeded
// from the embedded template the very first time.
func (s *SessionService) activeChallenges(ctx context.Context) []models.DailyChallenge {
	list, err := s.challenges.GetActiveChallenges(ctx)
	if err != nil {
		s.log.Warn(ctx, "active challenges fetch failed", "error", err)
	}

	if len(list) > 0 {
		s.active.ReplaceAll(list)
		if err := s.active.Save(); err != nil {
			s.log.Warn(ctx, "challenge cache save failed", "error", err)
		}
		return list
	}

	if err := s.active.Load(); err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			s.log.Warn(ctx, "challenge cache load failed", "error", err)
		}
		var tmpl []models.DailyChallenge
		if err := json.Unmarshal(challengeTemplate, &tmpl); err != nil {
			s.log.Error(ctx, "challenge template unreadable", "error", err)
			return nil
		}
		s.active.ReplaceAll(tmpl)
		if err := s.active.Save(); err != nil {
			s.log.Warn(ctx, "challenge cache seed failed", "error", err)
		}
	}
	return s.active.All()
}

// completedSet is the union of the backend's completion set and the local
// cache. The cache side covers completions whose insert is still queued: a
// backend that serves reads but rejected the insert would otherwise report
// them as open and let the reward be granted twice.
func (s *SessionService) completedSet(ctx context.Context, token string) map[int]struct{} {
	remote, err := s.completed.GetCompleted(ctx, token)
	if err != nil {
		s.log.Warn(ctx, "completed challenges fetch failed", "error", err)
	}

	if err := s.done.Load(); err != nil && !errors.Is(err, common.ErrNotFound) {
		s.log.Warn(ctx, "completed cache load failed", "error", err)
	}

	set := make(map[int]struct{}, len(remote)+len(s.done.All()))
	for id := range remote {
		set[id] = struct{}{}
	}
	for _, id := range s.done.All() {
		set[id] = struct{}{}
	}
	return set
}

// markCompletedLocally records the completion in the cache and prunes the
// challenge from the cached active list so an offline replay of the same day
// cannot grant the reward twice.
func (s *SessionService) markCompletedLocally(ctx context.Context, id int) {
	if err := s.done.Load(); err != nil && !errors.Is(err, common.ErrNotFound) {
		s.log.Warn(ctx, "completed cache load failed", "error", err)
	}
	s.done.AddUnique(id)
	if err := s.done.Save(); err != nil {
		s.log.Warn(ctx, "completed cache save failed", "error", err)
	}

	remaining := make([]models.DailyChallenge, 0, len(s.active.All()))
	for _, ch := range s.active.All() {
		if ch.ID != id {
			remaining = append(remaining, ch)
		}
	}
	s.active.ReplaceAll(remaining)
	if err := s.active.Save(); err != nil {
		s.log.Warn(ctx, "challenge cache save failed", "error", err)
	}
}

func (s *SessionService) queuePending(ctx context.Context, id int) {
	if err := s.pending.Load(); err != nil && !errors.Is(err, common.ErrNotFound) {
		s.log.Warn(ctx, "pending cache load failed", "error", err)
	}
	s.pending.AddUnique(id)
	if err := s.pending.Save(); err != nil {
		s.log.Warn(ctx, "pending cache save failed", "error", err)
	}
}

// loadOrCreateStats resolves the pre-run aggregate (Sync when online, cache
// otherwise) and applies the session to it. A user with no record at all
// gets one seeded from this very session.
func (s *SessionService) loadOrCreateStats(ctx context.Context, token string, distance, coins, reward int) (*models.PlayerStats, error) {
	var stats *models.PlayerStats

	if s.prober.Online(ctx) {
		synced, err := s.stats.Sync(ctx, token)
		if err != nil && !errors.Is(err, common.ErrNoLocalData) {
			s.log.Warn(ctx, "stats sync failed", "error", err)
		}
		stats = synced
	}
	if stats == nil {
		cached, err := s.stats.Get(ctx)
		if err != nil && !errors.Is(err, common.ErrNoCachedData) {
			return nil, fmt.Errorf("load stats: %w", err)
		}
		stats = cached
	}

	earned := int64(coins + reward)

	if stats == nil {
		first := &models.PlayerStats{
			UserID:              s.userID,
			BestDistance:        distance,
			BestCoinsEarned:     coins + reward,
			TotalSessions:       1,
			TotalDistance:       int64(distance),
			TotalCoinsCollected: earned,
			ActualSkin:          "default",
		}
		if reward > 0 {
			first.ChallengesCompleted = 1
		}
		return first, nil
	}

	stats.TotalSessions++
	stats.TotalDistance += int64(distance)
	stats.TotalCoinsCollected += earned
	if distance > stats.BestDistance {
		stats.BestDistance = distance
	}
	if coins+reward > stats.BestCoinsEarned {
		stats.BestCoinsEarned = coins + reward
	}
	if reward > 0 {
		stats.ChallengesCompleted++
	}
	return stats, nil
}

// permanentInsertError reports whether the backend rejected the row outright,
// so neither retrying nor requeueing can help. 401 is excluded because a
// refreshed token may still get the row through, and a duplicate 409 never
// reaches here: the DAO treats it as success.
func permanentInsertError(err error) bool {
	var se *dao.StatusError
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code {
	case http.StatusUnauthorized, http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return se.Code >= 400 && se.Code < 500
}

// FlushPending retries the completion inserts that failed during earlier
// runs. Each id gets a short exponential backoff; ids that still fail on a
// transient error stay queued for the next flush, while ids the backend
// rejects outright are dropped.
func (s *SessionService) FlushPending(ctx context.Context, token string) error {
	if !s.prober.Online(ctx) {
		return nil
	}

	if err := s.pending.Load(); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load pending completions: %w", err)
	}

	var remaining []int
	for _, id := range s.pending.All() {
		backoff := retry.WithMaxRetries(3, retry.NewExponential(200*time.Millisecond))
		err := retry.Do(ctx, backoff, func(ctx context.Context) error {
			err := s.completed.InsertCompleted(ctx, token, s.userID, id)
			switch {
			case err == nil:
				return nil
			case permanentInsertError(err):
				return err
			default:
				return retry.RetryableError(err)
			}
		})
		if err != nil {
			if permanentInsertError(err) {
				s.log.Warn(ctx, "pending completion rejected by the backend, dropped", "id", id, "error", err)
				continue
			}
			s.log.Warn(ctx, "pending completion still failing", "id", id, "error", err)
			remaining = append(remaining, id)
			continue
		}
		s.log.Info(ctx, "pending completion flushed", "id", id)
	}

	s.pending.ReplaceAll(remaining)
	if err := s.pending.Save(); err != nil {
		return fmt.Errorf("save pending completions: %w", err)
	}
	return nil
}
