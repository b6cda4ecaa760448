package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dmitrijs2005/nebularun/internal/client/config"
	"github.com/dmitrijs2005/nebularun/internal/client/dao"
	"github.com/dmitrijs2005/nebularun/internal/client/repositories/inventory"
	"github.com/dmitrijs2005/nebularun/internal/client/repositories/playerstats"
	"github.com/dmitrijs2005/nebularun/internal/client/repositories/settings"
	"github.com/dmitrijs2005/nebularun/internal/client/services"
	"github.com/dmitrijs2005/nebularun/internal/common"
	"github.com/dmitrijs2005/nebularun/internal/filex"
	"github.com/dmitrijs2005/nebularun/internal/logging"
	"github.com/dmitrijs2005/nebularun/internal/netx"

	_ "modernc.org/sqlite"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// App carries the wiring of the CLI: configuration, the settings database,
// the DAOs and the per-session services. Session-scoped fields (userID,
// token, repositories) are populated on login and cleared on logout.
type App struct {
	config *config.Config
	log    logging.Logger
	db     *sql.DB
	prober netx.Prober

	client        *dao.Client
	auth          *services.AuthService
	challengesDAO dao.DailyChallenges
	completedDAO  dao.CompletedChallenges
	cosmeticsDAO  dao.Cosmetics
	statsDAO      dao.PlayerStats
	inventoryDAO  dao.Inventory

	// mu serializes REPL commands with the watcher's reconciliation: the
	// repositories and their table caches expect a single caller at a time,
	// and logout clears the session fields the watcher reads.
	mu sync.Mutex

	userID  string
	token   string
	stats   *playerstats.Repository
	inv     *inventory.Repository
	session *services.SessionService
	shop    *services.ShopService

	Mode   Mode
	reader *bufio.Reader
}

func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()

	log := logging.NewDefault(slog.LevelWarn)

	if _, err := filex.EnsureSubDir(c.DataDir, common.OfflineDBDirName); err != nil {
		return nil, fmt.Errorf("create offline db dir: %w", err)
	}

	db, err := settings.Open(ctx, filepath.Join(c.DataDir, "settings.db"))
	if err != nil {
		return nil, err
	}

	client := dao.NewClient(c.BaseURL, c.APIKey, c.RequestTimeout, log)
	prober := netx.NewHTTPProber(c.BaseURL, 3*time.Second)

	app := &App{
		config:        c,
		log:           log,
		db:            db,
		prober:        prober,
		client:        client,
		challengesDAO: dao.NewDailyChallengesDAO(client),
		completedDAO:  dao.NewCompletedChallengesDAO(client),
		cosmeticsDAO:  dao.NewCosmeticsDAO(client),
		statsDAO:      dao.NewPlayerStatsDAO(client),
		inventoryDAO:  dao.NewInventoryDAO(client),
		reader:        bufio.NewReader(os.Stdin),
	}
	app.auth = services.NewAuthService(dao.NewAuthDAO(client), db, c.DataDir, prober, log)

	return app, nil
}

// startSession builds the user-scoped repositories and services once a token
// is available.
func (a *App) startSession(ctx context.Context, token string) {
	a.token = token
	a.userID = a.auth.UserID(ctx)

	a.stats = playerstats.New(a.config.DataDir, a.userID, a.statsDAO, a.prober, a.log)
	a.inv = inventory.New(a.config.DataDir, a.userID, a.inventoryDAO, a.prober, a.log)
	a.session = services.NewSessionService(a.config.DataDir, a.userID, a.challengesDAO, a.completedDAO, a.stats, a.prober, a.log)
	a.shop = services.NewShopService(a.config.DataDir, a.userID, a.cosmeticsDAO, a.inv, a.stats, a.prober, a.log)
}

func (a *App) endSession() {
	a.token = ""
	a.userID = ""
	a.stats = nil
	a.inv = nil
	a.session = nil
	a.shop = nil
}

func (a *App) isLoggedIn() bool {
	return a.token != ""
}

// setMode flips the reported mode. Once the watcher goroutine is running,
// callers hold mu.
func (a *App) setMode(mode Mode) {
	if a.Mode != mode {
		a.Mode = mode
		fmt.Printf("Switched to %s mode\n", mode)
	}
}

func (a *App) Run(ctx context.Context) {
	defer a.db.Close()
	a.Root(ctx)
}

// StartOnlineStatusWatcher probes backend reachability on a ticker and flips
// the Mode accordingly. On an offline→online transition it flushes pending
// challenge completions and merges the inventory.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			probeCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			isOnline := a.prober.Online(probeCtx)
			cancel()

			a.mu.Lock()
			if isOnline {
				wasOffline := a.Mode != ModeOnline
				a.setMode(ModeOnline)
				// re-checked under mu: a concurrent logout may have
				// cleared the session since the probe
				if wasOffline && a.isLoggedIn() {
					a.reconcile(ctx)
				}
			} else {
				a.setMode(ModeOffline)
			}
			a.mu.Unlock()

		case <-ctx.Done():
			return
		}
	}
}

// reconcile pushes state that accumulated while offline.
func (a *App) reconcile(ctx context.Context) {
	if err := a.session.FlushPending(ctx, a.token); err != nil {
		a.log.Warn(ctx, "pending completions flush failed", "error", err)
	}
	if _, err := a.inv.Merge(ctx, a.token); err != nil {
		a.log.Warn(ctx, "inventory merge failed", "error", err)
	}
	if _, err := a.stats.Sync(ctx, a.token); err != nil {
		a.log.Warn(ctx, "stats sync failed", "error", err)
	}
}
