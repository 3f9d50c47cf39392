package dating

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// loadTraits treats a missing assessment as nil traits
func loadTraits(ctx context.Context, store MatchStore, userID int64) (*PersonalityTraits, error) {
	traits, err := store.GetPersonalityTraits(ctx, userID)
	if errors.Is(err, ErrTraitsNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load traits for user %d: %w", userID, err)
	}
	return traits, nil
}

// loadPreferences treats missing preferences as nil
func loadPreferences(ctx context.Context, store MatchStore, userID int64) (*UserPreferences, error) {
	prefs, err := store.GetPreferences(ctx, userID)
	if errors.Is(err, ErrPreferencesNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences for user %d: %w", userID, err)
	}
	return prefs, nil
}

// effectiveWeights falls back to DefaultWeights when preferences are missing or unusable
func effectiveWeights(prefs *UserPreferences, logger zerolog.Logger) Weights {
	if prefs == nil {
		return DefaultWeights()
	}
	if err := prefs.Weights.Validate(); err != nil {
		logger.Warn().Err(err).Int64("user_id", prefs.UserID).Msg("Using default weights")
		return DefaultWeights()
	}
	return prefs.Weights
}

// usablePreferences keeps the hard filters of prefs but swaps in usable weights
func usablePreferences(prefs *UserPreferences, logger zerolog.Logger) *UserPreferences {
	if prefs == nil {
		return nil
	}
	cp := *prefs
	cp.Weights = effectiveWeights(prefs, logger)
	return &cp
}

// profile is a loaded user with everything the engine derives from it
type profile struct {
	user     *User
	traits   *PersonalityTraits
	prefs    *UserPreferences
	features *ProfileFeatures
}

func loadProfile(ctx context.Context, store MatchStore, userID int64) (*profile, error) {
	user, err := store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	traits, err := loadTraits(ctx, store, userID)
	if err != nil {
		return nil, err
	}
	prefs, err := loadPreferences(ctx, store, userID)
	if err != nil {
		return nil, err
	}
	features, err := BuildFeatures(user, traits)
	if err != nil {
		return nil, err
	}

	return &profile{user: user, traits: traits, prefs: prefs, features: features}, nil
}
