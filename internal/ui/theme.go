package ui

import (
	"context"
	"errors"

	"github.com/Skufu/glucocheck/internal/store"
)

// LoadTheme returns the saved theme, light when none is saved.
func LoadTheme(ctx context.Context, prefs store.PreferenceStore, owner string) (Theme, error) {
	v, err := prefs.GetPreference(ctx, owner, store.ThemeKey)
	if errors.Is(err, store.ErrNotFound) {
		return ThemeLight, nil
	}
	if err != nil {
		return ThemeLight, err
	}
	return ParseTheme(v), nil
}

func SaveTheme(ctx context.Context, prefs store.PreferenceStore, owner string, t Theme) error {
	return prefs.SetPreference(ctx, owner, store.ThemeKey, string(t))
}

// DispatchAndPersist runs Dispatch and saves the theme when the action
// changed it.
func DispatchAndPersist(ctx context.Context, prefs store.PreferenceStore, owner string, s State, a Action) (State, error) {
	next, err := Dispatch(s, a)
	if err != nil {
		return next, err
	}
	if next.Theme != s.Theme {
		if err := SaveTheme(ctx, prefs, owner, next.Theme); err != nil {
			return s, err
		}
	}
	return next, nil
}
