package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/nebularun/internal/common"
)

// finishRun records a completed session: "run <metres> <coins>".
func (a *App) finishRun(ctx context.Context, args []string) {
	if len(args) != 2 {
		fmt.Println("Usage: run <metres> <coins>")
		return
	}

	distance, err := strconv.Atoi(args[0])
	if err != nil || distance < 0 {
		fmt.Println("metres must be a non-negative number")
		return
	}
	coins, err := strconv.Atoi(args[1])
	if err != nil || coins < 0 {
		fmt.Println("coins must be a non-negative number")
		return
	}

	res, err := a.session.FinishRun(ctx, a.token, distance, coins)
	if err != nil {
		fmt.Println("Failed to record the run:", err)
		return
	}

	fmt.Printf("Run recorded: %dm, %d coins collected\n", distance, coins)
	if res.RewardCoins > 0 {
		fmt.Printf("Mission rewards: +%d coins\n", res.RewardCoins)
	}
	fmt.Printf("Balance: %d coins\n", res.Stats.Balance())
}

func (a *App) showStats(ctx context.Context) {
	st, err := a.stats.Get(ctx)
	if err != nil {
		if errors.Is(err, common.ErrNoCachedData) {
			fmt.Println("No stats yet; finish a run first")
		} else {
			fmt.Println("Failed to load stats:", err)
		}
		return
	}

	fmt.Printf("Sessions:            %d\n", st.TotalSessions)
	fmt.Printf("Total distance:      %dm\n", st.TotalDistance)
	fmt.Printf("Best distance:       %dm\n", st.BestDistance)
	fmt.Printf("Best coins in a run: %d\n", st.BestCoinsEarned)
	fmt.Printf("Coins collected:     %d\n", st.TotalCoinsCollected)
	fmt.Printf("Coins spent:         %d\n", st.TotalCoinsSpent)
	fmt.Printf("Balance:             %d\n", st.Balance())
	fmt.Printf("Missions completed:  %d\n", st.ChallengesCompleted)
	fmt.Printf("Equipped skin:       %s\n", st.ActualSkin)
}

// sync reconciles everything that can be reconciled right now.
func (a *App) sync(ctx context.Context) {
	if !a.prober.Online(ctx) {
		fmt.Println("Backend unreachable; changes will sync when it is back")
		return
	}

	if _, err := a.stats.Sync(ctx, a.token); err != nil {
		if errors.Is(err, common.ErrNoLocalData) {
			fmt.Println("Nothing to sync yet")
		} else {
			fmt.Println("Stats sync failed:", err)
		}
	} else {
		fmt.Println("Stats synced")
	}

	if _, err := a.inv.Merge(ctx, a.token); err != nil {
		fmt.Println("Inventory merge failed:", err)
	} else {
		fmt.Println("Inventory merged")
	}

	if err := a.session.FlushPending(ctx, a.token); err != nil {
		fmt.Println("Mission completion flush failed:", err)
	}
}
