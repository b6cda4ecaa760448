// Package settings provides the key-value store for session credentials and
// other small client state kept outside the JSON tables: token pair, saved
// login, install id.
package settings

import "context"

// Repository describes the key-value operations. A missing key reads as an
// empty string, not an error.
type Repository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// Well-known keys.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeySavedEmail   = "saved_email"
	KeySavedPass    = "saved_password"
	KeyInstallID    = "install_id"
)
