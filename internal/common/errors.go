// Package common defines shared constants and sentinel errors used across the
// NebulaRun client layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Local store errors.
	ErrNotFound = errors.New("not found")
	ErrParse    = errors.New("parse error")
	ErrIO       = errors.New("i/o error")

	// Repository-level errors.
	ErrNoCachedData = errors.New("no cached data")
	ErrNoLocalData  = errors.New("no local data to sync")

	// Remote access errors.
	ErrDecode  = errors.New("decode error")
	ErrOffline = errors.New("offline")

	// Auth errors.
	ErrUnauthorized = errors.New("unauthorized")
	ErrNoSession    = errors.New("no session")

	// Shop-specific errors.
	ErrInsufficientCoins = errors.New("insufficient coins")
	ErrAlreadyOwned      = errors.New("already owned")
	ErrNotOwned          = errors.New("not owned")
)
