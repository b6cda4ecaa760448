// Package playerstats reconciles one user's statistics between the local
// JSON table and the remote player_stats resource. The repository is the
// only component allowed to talk to both sides; after every operation the
// local store holds exactly one record.
package playerstats

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/nebularun/internal/client/dao"
	"github.com/dmitrijs2005/nebularun/internal/client/models"
	"github.com/dmitrijs2005/nebularun/internal/common"
	"github.com/dmitrijs2005/nebularun/internal/jsontable"
	"github.com/dmitrijs2005/nebularun/internal/logging"
	"github.com/dmitrijs2005/nebularun/internal/netx"
)

// now is a test seam for timestamp stamping.
var now = time.Now

// SaveOptions tweaks Save. The zero value gives the default behavior:
// stamp UpdatedAt and push to the remote when online.
type SaveOptions struct {
	// SkipRemote keeps the write local even when online.
	SkipRemote bool

	// KeepTimestamp preserves the record's UpdatedAt instead of stamping it.
	KeepTimestamp bool
}

type Repository struct {
	remote dao.PlayerStats
	local  *jsontable.Table[models.PlayerStats]
	prober netx.Prober
	log    logging.Logger
}

// New builds a repository over the user-scoped stats table under
// dataDir/offline_db.
func New(dataDir, userID string, remote dao.PlayerStats, prober netx.Prober, log logging.Logger) *Repository {
	path := filepath.Join(dataDir, common.OfflineDBDirName, userID+"-player_stats.json")
	return &Repository{
		remote: remote,
		local:  jsontable.New[models.PlayerStats](path),
		prober: prober,
		log:    log,
	}
}

// Get returns the cached record. It never touches the network.
func (r *Repository) Get(ctx context.Context) (*models.PlayerStats, error) {
	if err := r.local.Load(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrNoCachedData, err)
	}
	dto, ok := r.local.First()
	if !ok {
		return nil, common.ErrNoCachedData
	}
	return &dto, nil
}

// Save replaces the local record with dto and persists it. The remote upsert
// happens only when enabled and the backend is reachable; an offline skip is
// still a success, the next Sync acts as the retry.
func (r *Repository) Save(ctx context.Context, token string, dto *models.PlayerStats, opts SaveOptions) error {
	if !opts.KeepTimestamp {
		dto.UpdatedAt = now().UTC()
	}

	r.local.ReplaceAll([]models.PlayerStats{*dto})
	if err := r.local.Save(); err != nil {
		return fmt.Errorf("save local stats: %w", err)
	}

	if opts.SkipRemote || !r.prober.Online(ctx) {
		r.log.Debug(ctx, "stats save kept local", "skip_remote", opts.SkipRemote)
		return nil
	}

	if err := r.remote.UpsertStats(ctx, token, dto); err != nil {
		return fmt.Errorf("upsert remote stats: %w", err)
	}
	return nil
}

// Sync reconciles the local and remote records and returns the resolved one.
//
// Resolution order: remote unreachable → local wins and is pushed;
// field-identical → local, no write; otherwise the strictly newer updated_at
// wins; equal timestamps with differing values → local wins (tie-break
// favors the writer that is currently running) and is pushed.
func (r *Repository) Sync(ctx context.Context, token string) (*models.PlayerStats, error) {
	if err := r.local.Load(); err != nil && !errors.Is(err, common.ErrNotFound) {
		r.log.Warn(ctx, "stats cache load failed", "error", err)
	}

	local, ok := r.local.First()
	if !ok {
		return nil, common.ErrNoLocalData
	}

	remote, err := r.remote.GetStats(ctx, token)
	if err != nil {
		r.log.Warn(ctx, "remote stats fetch failed, pushing local", "error", err)
		if err := r.remote.SaveStats(ctx, token, &local); err != nil {
			return nil, fmt.Errorf("push local stats: %w", err)
		}
		return &local, nil
	}

	if remote == nil {
		// no remote row yet: first sync after an offline-created record
		if err := r.remote.UpsertStats(ctx, token, &local); err != nil {
			return nil, fmt.Errorf("upsert local stats: %w", err)
		}
		return &local, nil
	}

	if local.SameValues(remote) {
		r.log.Debug(ctx, "stats identical, skipping write")
		return &local, nil
	}

	switch {
	case local.UpdatedAt.After(remote.UpdatedAt):
		if err := r.remote.SaveStats(ctx, token, &local); err != nil {
			return nil, fmt.Errorf("push local stats: %w", err)
		}
		return &local, nil

	case remote.UpdatedAt.After(local.UpdatedAt):
		r.local.ReplaceAll([]models.PlayerStats{*remote})
		if err := r.local.Save(); err != nil {
			return nil, fmt.Errorf("save remote stats locally: %w", err)
		}
		return remote, nil

	default:
		if err := r.remote.SaveStats(ctx, token, &local); err != nil {
			return nil, fmt.Errorf("push local stats: %w", err)
		}
		return &local, nil
	}
}
