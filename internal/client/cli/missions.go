package cli

import (
	"context"
	"fmt"
)

func (a *App) showMissions(ctx context.Context) {
	active, done := a.session.Missions(ctx, a.token)
	if len(active) == 0 {
		fmt.Println("No missions available")
		return
	}

	for _, ch := range active {
		mark := " "
		if _, ok := done[ch.ID]; ok {
			mark = "x"
		}
		fmt.Printf("[%s] #%d %s (%s %d) +%d coins\n",
			mark, ch.ID, ch.Description, ch.ChallengeType, ch.AmountNeeded, ch.RewardCoins)
	}
}
