// Package services contains application services for the NebulaRun client:
// authentication and session state, end-of-run orchestration, and the
// cosmetics shop.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/nebularun/internal/client/dao"
	"github.com/dmitrijs2005/nebularun/internal/client/repositories/settings"
	"github.com/dmitrijs2005/nebularun/internal/common"
	"github.com/dmitrijs2005/nebularun/internal/dbx"
	"github.com/dmitrijs2005/nebularun/internal/logging"
	"github.com/dmitrijs2005/nebularun/internal/netx"
)

// AuthService owns the token pair and saved credentials. Tokens and
// credentials live in the SQLite settings store; the service is the only
// writer.
type AuthService struct {
	dao     dao.Auth
	db      *sql.DB
	dataDir string
	prober  netx.Prober
	log     logging.Logger
}

func NewAuthService(d dao.Auth, db *sql.DB, dataDir string, prober netx.Prober, log logging.Logger) *AuthService {
	return &AuthService{dao: d, db: db, dataDir: dataDir, prober: prober, log: log}
}

func (a *AuthService) getSettingsRepo() settings.Repository {
	return settings.NewSQLiteRepository(a.db)
}

// Login authenticates online and persists the token pair together with the
// credentials used, enabling later AutoLogin.
func (a *AuthService) Login(ctx context.Context, email, password string) error {
	pair, err := a.dao.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	return a.saveSession(ctx, email, password, pair.AccessToken, pair.RefreshToken)
}

// Register creates the account and stores the resulting session the same way
// Login does.
func (a *AuthService) Register(ctx context.Context, email, password string) error {
	pair, err := a.dao.Register(ctx, email, password)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	return a.saveSession(ctx, email, password, pair.AccessToken, pair.RefreshToken)
}

func (a *AuthService) saveSession(ctx context.Context, email, password, access, refresh string) error {
	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		txRepo := settings.NewSQLiteRepository(tx)
		for k, v := range map[string]string{
			settings.KeyAccessToken:  access,
			settings.KeyRefreshToken: refresh,
			settings.KeySavedEmail:   email,
			settings.KeySavedPass:    password,
		} {
			if err := txRepo.Set(ctx, k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// EnsureToken returns a usable access token: the cached one while it is still
// valid, otherwise one obtained through the refresh token. With neither
// available it returns common.ErrNoSession.
func (a *AuthService) EnsureToken(ctx context.Context) (string, error) {
	repo := a.getSettingsRepo()

	access, err := repo.Get(ctx, settings.KeyAccessToken)
	if err != nil {
		return "", err
	}
	if access != "" && !tokenExpired(access) {
		return access, nil
	}

	refresh, err := repo.Get(ctx, settings.KeyRefreshToken)
	if err != nil {
		return "", err
	}
	if refresh == "" || !a.prober.Online(ctx) {
		if access != "" {
			// expired but the best we have offline
			return access, nil
		}
		return "", common.ErrNoSession
	}

	pair, err := a.dao.Refresh(ctx, refresh)
	if err != nil {
		return "", fmt.Errorf("refresh token: %w", err)
	}
	err = dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		txRepo := settings.NewSQLiteRepository(tx)
		if err := txRepo.Set(ctx, settings.KeyAccessToken, pair.AccessToken); err != nil {
			return err
		}
		return txRepo.Set(ctx, settings.KeyRefreshToken, pair.RefreshToken)
	})
	if err != nil {
		return "", err
	}
	return pair.AccessToken, nil
}

// UserID extracts the subject claim from the cached access token. The
// signature is not verified, the backend already did that when it issued the
// token; an undecodable token reads as the empty string.
func (a *AuthService) UserID(ctx context.Context) string {
	access, err := a.getSettingsRepo().Get(ctx, settings.KeyAccessToken)
	if err != nil || access == "" {
		return ""
	}
	return subjectClaim(access)
}

func subjectClaim(token string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}

func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}

// AutoLogin restores a session without user input. Online with saved
// credentials it performs a fresh login; offline it falls back to the cached
// token, but only when the user's stats cache exists, an offline session
// with no local data would have nothing to serve.
func (a *AuthService) AutoLogin(ctx context.Context) (string, error) {
	repo := a.getSettingsRepo()

	if a.prober.Online(ctx) {
		email, err := repo.Get(ctx, settings.KeySavedEmail)
		if err != nil {
			return "", err
		}
		pass, err := repo.Get(ctx, settings.KeySavedPass)
		if err != nil {
			return "", err
		}
		if email != "" && pass != "" {
			if err := a.Login(ctx, email, pass); err != nil {
				return "", err
			}
			return a.EnsureToken(ctx)
		}
	}

	access, err := repo.Get(ctx, settings.KeyAccessToken)
	if err != nil {
		return "", err
	}
	if access == "" {
		return "", common.ErrNoSession
	}

	uid := subjectClaim(access)
	statsPath := filepath.Join(a.dataDir, common.OfflineDBDirName, uid+"-player_stats.json")
	if _, err := os.Stat(statsPath); err != nil {
		return "", fmt.Errorf("%w: no offline stats for user", common.ErrNoLocalData)
	}
	return access, nil
}

// Logout drops the session and the saved credentials. The install id and the
// offline tables stay, they belong to the device, not the session.
func (a *AuthService) Logout(ctx context.Context) error {
	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		txRepo := settings.NewSQLiteRepository(tx)
		for _, k := range []string{
			settings.KeyAccessToken,
			settings.KeyRefreshToken,
			settings.KeySavedEmail,
			settings.KeySavedPass,
		} {
			if err := txRepo.Delete(ctx, k); err != nil {
				return err
			}
		}
		return nil
	})
}

// InstallID returns the device identifier, generating and persisting one on
// first call.
func (a *AuthService) InstallID(ctx context.Context) (string, error) {
	repo := a.getSettingsRepo()

	id, err := repo.Get(ctx, settings.KeyInstallID)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}

	id = uuid.NewString()
	if err := repo.Set(ctx, settings.KeyInstallID, id); err != nil {
		return "", err
	}
	return id, nil
}
