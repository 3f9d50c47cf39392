package dating

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// MatchListener is told about every newly created match
type MatchListener interface {
	MatchCreated(ctx context.Context, match *Match)
}

// LikeMatcher records likes and turns reciprocal likes into matches.
// Storage unique constraints are the only concurrency control.
type LikeMatcher struct {
	store    MatchStore
	scorer   *Scorer
	listener MatchListener
	logger   zerolog.Logger
}

func NewLikeMatcher(store MatchStore, scorer *Scorer, listener MatchListener, logger zerolog.Logger) *LikeMatcher {
	return &LikeMatcher{
		store:    store,
		scorer:   scorer,
		listener: listener,
		logger:   logger,
	}
}

// RecordLike stores sender -> receiver and creates the match when receiver
// already liked sender. A repeated like returns ErrDuplicateLike together with
// the pending outcome, or succeeds with the existing match once the pair matched.
func (m *LikeMatcher) RecordLike(ctx context.Context, senderID, receiverID int64) (*LikeOutcome, error) {
	if senderID == receiverID {
		RecordLike("rejected")
		return nil, ErrSelfLike
	}

	sender, err := m.store.GetUser(ctx, senderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sender %d: %w", senderID, err)
	}
	receiver, err := m.store.GetUser(ctx, receiverID)
	if err != nil {
		return nil, fmt.Errorf("failed to load receiver %d: %w", receiverID, err)
	}

	// A duplicate still checks reciprocity so an interrupted earlier attempt completes
	duplicate := false
	if err := m.store.InsertUserLike(ctx, &UserLike{SenderID: senderID, ReceiverID: receiverID}); err != nil {
		if !errors.Is(err, ErrDuplicateLike) {
			return nil, fmt.Errorf("failed to record like: %w", err)
		}
		duplicate = true
	}

	if _, err := m.store.FindReciprocalLike(ctx, senderID, receiverID); err != nil {
		if !errors.Is(err, ErrLikeNotFound) {
			return nil, fmt.Errorf("failed to check reciprocal like: %w", err)
		}
		outcome := &LikeOutcome{Status: LikePending}
		if duplicate {
			RecordLike("duplicate")
			return outcome, ErrDuplicateLike
		}
		RecordLike(string(LikePending))
		return outcome, nil
	}

	score, err := m.matchScore(ctx, sender, receiver)
	if err != nil {
		return nil, err
	}

	user1, user2 := normalizePair(senderID, receiverID)
	match := &Match{User1ID: user1, User2ID: user2, Score: score}
	if err := m.store.InsertMatch(ctx, match); err != nil {
		if !errors.Is(err, ErrMatchExists) {
			return nil, fmt.Errorf("failed to create match: %w", err)
		}

		existing, err := m.store.FindMatch(ctx, user1, user2)
		if err != nil {
			return nil, fmt.Errorf("failed to load existing match: %w", err)
		}
		RecordLike(string(LikeMatched))
		return &LikeOutcome{Status: LikeMatched, Match: existing}, nil
	}

	RecordLike(string(LikeMatched))
	RecordMatch(match.Score)
	m.logger.Info().
		Int64("match_id", match.ID).
		Int64("user1_id", match.User1ID).
		Int64("user2_id", match.User2ID).
		Float64("score", match.Score).
		Msg("Match created")

	if m.listener != nil {
		m.listener.MatchCreated(ctx, match)
	}
	return &LikeOutcome{Status: LikeMatched, Match: match}, nil
}

// matchScore averages the score computed with each side's own weights
func (m *LikeMatcher) matchScore(ctx context.Context, a, b *User) (float64, error) {
	featuresA, err := m.features(ctx, a)
	if err != nil {
		return 0, err
	}
	featuresB, err := m.features(ctx, b)
	if err != nil {
		return 0, err
	}

	weightsA, err := m.weights(ctx, a.ID)
	if err != nil {
		return 0, err
	}
	weightsB, err := m.weights(ctx, b.ID)
	if err != nil {
		return 0, err
	}

	scoreA, _, err := m.scorer.Score(featuresA, featuresB, weightsA)
	if err != nil {
		return 0, err
	}
	scoreB, _, err := m.scorer.Score(featuresB, featuresA, weightsB)
	if err != nil {
		return 0, err
	}

	return (scoreA + scoreB) / 2, nil
}

func (m *LikeMatcher) features(ctx context.Context, user *User) (*ProfileFeatures, error) {
	traits, err := loadTraits(ctx, m.store, user.ID)
	if err != nil {
		return nil, err
	}
	return BuildFeatures(user, traits)
}

func (m *LikeMatcher) weights(ctx context.Context, userID int64) (Weights, error) {
	prefs, err := loadPreferences(ctx, m.store, userID)
	if err != nil {
		return Weights{}, err
	}
	return effectiveWeights(prefs, m.logger), nil
}
