// Package store persists assessment history and UI preferences.
package store

import (
	"context"
	"errors"

	"github.com/Skufu/glucocheck/internal/assessment"
)

// Storage keys shared with the browser's local storage layout.
const (
	HistoryKey = "diabetesHistory"
	ThemeKey   = "theme"
)

// ErrNotFound is returned when a preference has never been set.
var ErrNotFound = errors.New("store: not found")

// HistoryStore owns the ordered, most-recent-first assessment history of
// each owner (a browser session or CLI profile).
type HistoryStore interface {
	// List returns the history, most recent first.
	List(ctx context.Context, owner string) ([]assessment.Record, error)

	// Append adds rec to the front of the history, evicting the oldest
	// entries beyond the store's capacity, and returns the new history.
	Append(ctx context.Context, owner string, rec assessment.Record) ([]assessment.Record, error)

	// Clear removes the owner's entire history.
	Clear(ctx context.Context, owner string) error
}

// PreferenceStore keeps small per-owner settings such as the theme.
type PreferenceStore interface {
	GetPreference(ctx context.Context, owner, key string) (string, error)
	SetPreference(ctx context.Context, owner, key, value string) error
}

// Store is implemented by every backend in this package.
type Store interface {
	HistoryStore
	PreferenceStore

	// Ping verifies the backing service is reachable.
	Ping(ctx context.Context) error

	Close() error
}

func capacity(n int) int {
	if n <= 0 {
		return assessment.DefaultHistorySize
	}
	return n
}
