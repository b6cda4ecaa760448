package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

func (a *App) getStatus() string {
	a.mu.Lock()
	uid, mode := a.userID, a.Mode
	a.mu.Unlock()

	s := ""
	if uid != "" {
		s = uid + " "
	}
	if mode != "" {
		s = s + string(mode)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// Root runs the interactive loop until the user exits or stdin closes.
func (a *App) Root(ctx context.Context) {
	fmt.Println("Welcome to NebulaRun CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	a.AutoLogin(ctx)

	go func() {
		a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)
	}()

	for {
		fmt.Printf("nebula %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		if a.dispatch(ctx, parts[0], parts[1:]) {
			return
		}
	}
}

// dispatch executes a single command while holding the lock shared with the
// online watcher, so a background reconcile never runs concurrently with a
// command over the same repositories. It reports whether the loop should
// terminate.
func (a *App) dispatch(ctx context.Context, cmd string, args []string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.isLoggedIn() {
		switch cmd {
		case "help":
			fmt.Println("Available commands: register, login, exit")
		case "register":
			_ = a.Register(ctx)
		case "login":
			_ = a.Login(ctx)
		case "exit", "quit":
			fmt.Println("Bye!")
			return true
		default:
			fmt.Println("Unknown command:", cmd)
		}
		return false
	}

	switch cmd {
	case "help":
		fmt.Println("Available commands: run <metres> <coins>, stats, missions, shop, buy <item>, equip <item>, inventory, sync, logout, exit")
	case "run":
		a.finishRun(ctx, args)
	case "stats":
		a.showStats(ctx)
	case "missions":
		a.showMissions(ctx)
	case "shop":
		a.showShop(ctx)
	case "buy":
		a.buy(ctx, args)
	case "equip":
		a.equip(ctx, args)
	case "inventory":
		a.showInventory(ctx)
	case "sync":
		a.sync(ctx)
	case "logout":
		_ = a.Logout(ctx)
	case "exit", "quit":
		fmt.Println("Bye!")
		return true
	default:
		fmt.Println("Unknown command:", cmd)
	}
	return false
}
