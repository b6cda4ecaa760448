package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/nebularun/internal/client/dao"
	"github.com/dmitrijs2005/nebularun/internal/client/models"
	"github.com/dmitrijs2005/nebularun/internal/client/repositories/inventory"
	"github.com/dmitrijs2005/nebularun/internal/client/repositories/playerstats"
	"github.com/dmitrijs2005/nebularun/internal/common"
	"github.com/dmitrijs2005/nebularun/internal/jsontable"
	"github.com/dmitrijs2005/nebularun/internal/logging"
	"github.com/dmitrijs2005/nebularun/internal/netx"
)

// DefaultSkin is always owned and always equippable.
const DefaultSkin = "default"

// ShopService sells and equips cosmetics against the player's coin balance.
// The catalog is cached wholesale so prices stay available offline.
type ShopService struct {
	userID    string
	cosmetics dao.Cosmetics
	inventory *inventory.Repository
	stats     *playerstats.Repository
	prober    netx.Prober
	log       logging.Logger

	catalog *jsontable.Table[models.CosmeticItem]
}

func NewShopService(dataDir, userID string, cosmetics dao.Cosmetics, inv *inventory.Repository, stats *playerstats.Repository, prober netx.Prober, log logging.Logger) *ShopService {
	path := filepath.Join(dataDir, common.OfflineDBDirName, "cosmetics.json")
	return &ShopService{
		userID:    userID,
		cosmetics: cosmetics,
		inventory: inv,
		stats:     stats,
		prober:    prober,
		log:       log,
		catalog:   jsontable.New[models.CosmeticItem](path),
	}
}

// Catalog returns the cosmetic catalog, refreshing the offline cache when
// the backend is reachable.
func (s *ShopService) Catalog(ctx context.Context, token string) ([]models.CosmeticItem, error) {
	if s.prober.Online(ctx) {
		items, err := s.cosmetics.GetAllCosmetics(ctx, token)
		if err == nil {
			s.catalog.ReplaceAll(items)
			if err := s.catalog.Save(); err != nil {
				s.log.Warn(ctx, "catalog cache save failed", "error", err)
			}
			return items, nil
		}
		s.log.Warn(ctx, "catalog fetch failed, using cache", "error", err)
	}

	if err := s.catalog.Load(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrNoCachedData, err)
	}
	return s.catalog.All(), nil
}

// item resolves one catalog entry by name, remote first, cache second.
func (s *ShopService) item(ctx context.Context, token, name string) (*models.CosmeticItem, error) {
	if s.prober.Online(ctx) {
		it, err := s.cosmetics.GetCosmetic(ctx, token, name)
		if err == nil {
			return it, nil
		}
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		s.log.Warn(ctx, "cosmetic fetch failed, using cache", "name", name, "error", err)
	}

	if err := s.catalog.Load(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrNoCachedData, err)
	}
	for _, it := range s.catalog.All() {
		if it.Name == name {
			return &it, nil
		}
	}
	return nil, fmt.Errorf("cosmetic %q: %w", name, common.ErrNotFound)
}

// Purchase buys a cosmetic: checks ownership and balance, appends the
// inventory record and charges the price against total_coins_spent. The
// charge and the ownership record land locally first; sync passes settle the
// backend.
func (s *ShopService) Purchase(ctx context.Context, token, name string) error {
	owned, err := s.owns(ctx, token, name)
	if err != nil {
		return err
	}
	if owned {
		return fmt.Errorf("cosmetic %q: %w", name, common.ErrAlreadyOwned)
	}

	it, err := s.item(ctx, token, name)
	if err != nil {
		return err
	}

	stats, err := s.stats.Get(ctx)
	if err != nil {
		return fmt.Errorf("load stats: %w", err)
	}
	if stats.Balance() < int64(it.PriceCoins) {
		return fmt.Errorf("need %d coins, have %d: %w", it.PriceCoins, stats.Balance(), common.ErrInsufficientCoins)
	}

	stats.TotalCoinsSpent += int64(it.PriceCoins)
	if err := s.stats.Save(ctx, token, stats, playerstats.SaveOptions{}); err != nil {
		return fmt.Errorf("charge purchase: %w", err)
	}

	rec := models.InventoryItem{
		UserID:     s.userID,
		ItemName:   name,
		AcquiredAt: time.Now().UTC(),
	}
	if err := s.inventory.Append(ctx, token, rec); err != nil {
		return fmt.Errorf("record purchase: %w", err)
	}
	return nil
}

// Equip switches the active skin. Only owned cosmetics (and the default
// skin) are equippable.
func (s *ShopService) Equip(ctx context.Context, token, name string) error {
	if name != DefaultSkin {
		owned, err := s.owns(ctx, token, name)
		if err != nil {
			return err
		}
		if !owned {
			return fmt.Errorf("cosmetic %q: %w", name, common.ErrNotOwned)
		}
	}

	stats, err := s.stats.Get(ctx)
	if err != nil {
		return fmt.Errorf("load stats: %w", err)
	}
	if stats.ActualSkin == name {
		return nil
	}

	stats.ActualSkin = name
	if err := s.stats.Save(ctx, token, stats, playerstats.SaveOptions{}); err != nil {
		return fmt.Errorf("save equipped skin: %w", err)
	}
	return nil
}

func (s *ShopService) owns(ctx context.Context, token, name string) (bool, error) {
	items, err := s.inventory.GetLocalOrSync(ctx, token)
	if err != nil && !errors.Is(err, common.ErrNoCachedData) {
		return false, fmt.Errorf("load inventory: %w", err)
	}
	for _, it := range items {
		if it.ItemName == name {
			return true, nil
		}
	}
	return false, nil
}
