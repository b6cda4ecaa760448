package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/nebularun/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts the user for an email and password and attempts to create
// a new account. On success a session is started immediately.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}

	if err := a.auth.Register(ctx, email, password); err != nil {
		fmt.Println("Registration failed:", err)
		return err
	}

	token, err := a.auth.EnsureToken(ctx)
	if err != nil {
		return err
	}
	a.startSession(ctx, token)
	a.setMode(ModeOnline)
	fmt.Println("Success!")
	return nil
}

// Login prompts for credentials and authenticates online. When the backend
// is unreachable it falls back to the cached session, which only works for
// the user who logged in on this device before.
func (a *App) Login(ctx context.Context) error {
	if a.prober.Online(ctx) {
		email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
		if err != nil {
			return err
		}
		password, err := getPassword(os.Stdout)
		if err != nil {
			return err
		}

		if err := a.auth.Login(ctx, email, password); err != nil {
			fmt.Println("Login failed:", err)
			return err
		}

		token, err := a.auth.EnsureToken(ctx)
		if err != nil {
			return err
		}
		a.startSession(ctx, token)
		a.setMode(ModeOnline)
		fmt.Println("Login successful")
		return nil
	}

	fmt.Println("Backend unreachable, trying offline session...")
	return a.offlineLogin(ctx)
}

func (a *App) offlineLogin(ctx context.Context) error {
	token, err := a.auth.AutoLogin(ctx)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNoSession):
			fmt.Println("No cached session on this device")
		case errors.Is(err, common.ErrNoLocalData):
			fmt.Println("Cached session found but no offline data; connect once to play offline")
		default:
			fmt.Println("Offline login failed:", err)
		}
		return err
	}
	a.startSession(ctx, token)
	a.setMode(ModeOffline)
	fmt.Println("Offline session restored")
	return nil
}

// AutoLogin tries to restore a session without prompting: saved credentials
// online, the cached token offline. Failures are silent, the user can still
// log in manually.
func (a *App) AutoLogin(ctx context.Context) {
	token, err := a.auth.AutoLogin(ctx)
	if err != nil {
		return
	}
	a.startSession(ctx, token)
	if a.prober.Online(ctx) {
		a.setMode(ModeOnline)
	} else {
		a.setMode(ModeOffline)
	}
	fmt.Println("Session restored")
}

// Logout drops the session and the saved credentials.
func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	a.endSession()
	fmt.Println("Logged out")
	return nil
}
