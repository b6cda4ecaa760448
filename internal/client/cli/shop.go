package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/nebularun/internal/common"
)

func (a *App) showShop(ctx context.Context) {
	items, err := a.shop.Catalog(ctx, a.token)
	if err != nil {
		if errors.Is(err, common.ErrNoCachedData) {
			fmt.Println("Catalog unavailable offline until it has been fetched once")
		} else {
			fmt.Println("Failed to load the catalog:", err)
		}
		return
	}

	for _, it := range items {
		fmt.Printf("%-20s %5d coins  [%s]  %s\n", it.Name, it.PriceCoins, it.Rarity, it.Description)
	}
}

func (a *App) buy(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: buy <item>")
		return
	}
	name := args[0]

	err := a.shop.Purchase(ctx, a.token, name)
	switch {
	case err == nil:
		fmt.Printf("Bought %s\n", name)
	case errors.Is(err, common.ErrAlreadyOwned):
		fmt.Println("You already own", name)
	case errors.Is(err, common.ErrInsufficientCoins):
		fmt.Println("Not enough coins:", err)
	case errors.Is(err, common.ErrNotFound):
		fmt.Println("No such item:", name)
	default:
		fmt.Println("Purchase failed:", err)
	}
}

func (a *App) equip(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: equip <item>")
		return
	}
	name := args[0]

	err := a.shop.Equip(ctx, a.token, name)
	switch {
	case err == nil:
		fmt.Printf("Equipped %s\n", name)
	case errors.Is(err, common.ErrNotOwned):
		fmt.Println("You do not own", name)
	default:
		fmt.Println("Equip failed:", err)
	}
}

func (a *App) showInventory(ctx context.Context) {
	items, err := a.inv.GetLocalOrSync(ctx, a.token)
	if err != nil {
		if errors.Is(err, common.ErrNoCachedData) {
			fmt.Println("Inventory is empty")
		} else {
			fmt.Println("Failed to load the inventory:", err)
		}
		return
	}
	if len(items) == 0 {
		fmt.Println("Inventory is empty")
		return
	}

	for _, it := range items {
		fmt.Printf("%-20s acquired %s\n", it.ItemName, it.AcquiredAt.Format("2006-01-02 15:04"))
	}
}
