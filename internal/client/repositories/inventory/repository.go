// Package inventory reconciles the user's ownership records between the
// local JSON table and the remote inventory resource. Items are append-only,
// so reconciliation is watermark- and set-based rather than field-level.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/dmitrijs2005/nebularun/internal/client/dao"
	"github.com/dmitrijs2005/nebularun/internal/client/models"
	"github.com/dmitrijs2005/nebularun/internal/common"
	"github.com/dmitrijs2005/nebularun/internal/jsontable"
	"github.com/dmitrijs2005/nebularun/internal/logging"
	"github.com/dmitrijs2005/nebularun/internal/netx"
)

type Repository struct {
	userID string
	remote dao.Inventory
	local  *jsontable.Table[models.InventoryItem]
	prober netx.Prober
	log    logging.Logger
}

func New(dataDir, userID string, remote dao.Inventory, prober netx.Prober, log logging.Logger) *Repository {
	path := filepath.Join(dataDir, common.OfflineDBDirName, userID+"-inventory.json")
	return &Repository{
		userID: userID,
		remote: remote,
		local:  jsontable.New[models.InventoryItem](path),
		prober: prober,
		log:    log,
	}
}

// Sync reconciles by acquisition watermark: the side with the later maximum
// acquired_at is treated as ahead. A local lead pushes only the rows past the
// remote watermark; a remote lead replaces the cache wholesale. Individual
// upload failures are logged and skipped, the next sync retries them.
func (r *Repository) Sync(ctx context.Context, token string) ([]models.InventoryItem, error) {
	if err := r.local.Load(); err != nil && !errors.Is(err, common.ErrNotFound) {
		r.log.Warn(ctx, "inventory cache load failed", "error", err)
	}

	localTime := models.LatestAcquired(r.local.All())

	remoteTime, err := r.remote.GetLastInventoryTimestamp(ctx, r.userID, token)
	if err != nil {
		return nil, fmt.Errorf("remote inventory timestamp: %w", err)
	}

	switch {
	case localTime.After(remoteTime):
		for _, it := range r.local.All() {
			if !it.AcquiredAt.After(remoteTime) {
				continue
			}
			if err := r.remote.UploadItem(ctx, it, token); err != nil {
				r.log.Warn(ctx, "inventory item upload failed", "item", it.ItemName, "error", err)
			}
		}
		return r.local.All(), nil

	case remoteTime.After(localTime):
		items, err := r.remote.GetInventory(ctx, r.userID, token)
		if err != nil {
			return nil, fmt.Errorf("fetch remote inventory: %w", err)
		}
		r.local.ReplaceAll(items)
		if err := r.local.Save(); err != nil {
			return nil, fmt.Errorf("save remote inventory locally: %w", err)
		}
		return items, nil

	default:
		return r.local.All(), nil
	}
}

// GetLocalOrSync serves the cache when offline and a full Sync when online.
func (r *Repository) GetLocalOrSync(ctx context.Context, token string) ([]models.InventoryItem, error) {
	if r.prober.Online(ctx) {
		return r.Sync(ctx, token)
	}
	if err := r.local.Load(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrNoCachedData, err)
	}
	return r.local.All(), nil
}

// Merge performs a full set union by item name, uploading rows only the
// client knows and caching rows only the server knows. Offline it is a
// silent no-op: (nil, nil).
func (r *Repository) Merge(ctx context.Context, token string) ([]models.InventoryItem, error) {
	if !r.prober.Online(ctx) {
		return nil, nil
	}

	if err := r.local.Load(); err != nil && !errors.Is(err, common.ErrNotFound) {
		r.log.Warn(ctx, "inventory cache load failed", "error", err)
	}

	remoteItems, err := r.remote.GetInventory(ctx, r.userID, token)
	if err != nil {
		return nil, fmt.Errorf("fetch remote inventory: %w", err)
	}

	remoteNames := make(map[string]struct{}, len(remoteItems))
	for _, it := range remoteItems {
		remoteNames[it.ItemName] = struct{}{}
	}
	localNames := make(map[string]struct{})
	for _, it := range r.local.All() {
		localNames[it.ItemName] = struct{}{}
	}

	for _, it := range r.local.All() {
		if _, ok := remoteNames[it.ItemName]; ok {
			continue
		}
		if err := r.remote.UploadItem(ctx, it, token); err != nil {
			r.log.Warn(ctx, "inventory item upload failed", "item", it.ItemName, "error", err)
		}
	}

	var added bool
	for _, it := range remoteItems {
		if _, ok := localNames[it.ItemName]; ok {
			continue
		}
		r.local.Add(it)
		added = true
	}
	if added {
		if err := r.local.Save(); err != nil {
			r.log.Warn(ctx, "inventory cache save failed", "error", err)
		}
	}

	return r.local.All(), nil
}

// Append records a newly acquired item locally and uploads it
// opportunistically. An upload failure does not fail the append: the item is
// already durable in the cache and Merge reconciles it later.
func (r *Repository) Append(ctx context.Context, token string, item models.InventoryItem) error {
	if err := r.local.Load(); err != nil && !errors.Is(err, common.ErrNotFound) {
		r.log.Warn(ctx, "inventory cache load failed", "error", err)
	}

	r.local.Add(item)
	if err := r.local.Save(); err != nil {
		return fmt.Errorf("save inventory item: %w", err)
	}

	if r.prober.Online(ctx) {
		if err := r.remote.UploadItem(ctx, item, token); err != nil {
			r.log.Warn(ctx, "inventory item upload failed", "item", item.ItemName, "error", err)
		}
	}
	return nil
}
