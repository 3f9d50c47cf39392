package dating

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMatcher(store MatchStore, listener MatchListener) *LikeMatcher {
	return NewLikeMatcher(store, NewScorer(DefaultScoringConfig()), listener, zerolog.Nop())
}

func seededStore() *memStore {
	store := newMemStore()
	store.addUser(testUser(1, 21, "climbing", "jazz"))
	store.addUser(testUser(2, 23, "jazz", "film"))
	store.addUser(testUser(3, 30))
	return store
}

func TestRecordLikeLifecycle(t *testing.T) {
	store := seededStore()
	listener := &recordingListener{}
	matcher := newTestMatcher(store, listener)
	ctx := context.Background()

	outcome, err := matcher.RecordLike(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, LikePending, outcome.Status)
	assert.Nil(t, outcome.Match)
	assert.Zero(t, store.matchCount())

	outcome, err = matcher.RecordLike(ctx, 2, 1)
	require.NoError(t, err)
	require.Equal(t, LikeMatched, outcome.Status)
	require.NotNil(t, outcome.Match)
	assert.Equal(t, int64(1), outcome.Match.User1ID)
	assert.Equal(t, int64(2), outcome.Match.User2ID)
	assert.Equal(t, 1, store.matchCount())
	assert.Equal(t, 1, listener.count())

	first := outcome.Match

	// repeating either direction is an idempotent success
	for _, pair := range [][2]int64{{2, 1}, {1, 2}} {
		outcome, err = matcher.RecordLike(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.Equal(t, LikeMatched, outcome.Status)
		assert.Equal(t, first.ID, outcome.Match.ID)
		assert.Equal(t, first.Score, outcome.Match.Score)
	}
	assert.Equal(t, 1, store.matchCount())
	assert.Equal(t, 1, listener.count())
}

func TestRecordLikeDuplicatePending(t *testing.T) {
	store := seededStore()
	matcher := newTestMatcher(store, nil)
	ctx := context.Background()

	_, err := matcher.RecordLike(ctx, 1, 3)
	require.NoError(t, err)

	outcome, err := matcher.RecordLike(ctx, 1, 3)
	assert.ErrorIs(t, err, ErrDuplicateLike)
	require.NotNil(t, outcome)
	assert.Equal(t, LikePending, outcome.Status)
}

func TestRecordLikeHealsInterruptedMatch(t *testing.T) {
	store := seededStore()
	ctx := context.Background()

	// both edges exist but the match insert never happened
	require.NoError(t, store.InsertUserLike(ctx, &UserLike{SenderID: 1, ReceiverID: 2}))
	require.NoError(t, store.InsertUserLike(ctx, &UserLike{SenderID: 2, ReceiverID: 1}))

	outcome, err := newTestMatcher(store, nil).RecordLike(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, LikeMatched, outcome.Status)
	assert.Equal(t, 1, store.matchCount())
}

func TestRecordLikeValidation(t *testing.T) {
	store := seededStore()
	matcher := newTestMatcher(store, nil)
	ctx := context.Background()

	_, err := matcher.RecordLike(ctx, 1, 1)
	assert.ErrorIs(t, err, ErrSelfLike)

	_, err = matcher.RecordLike(ctx, 1, 99)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = matcher.RecordLike(ctx, 99, 1)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRecordLikePropagatesStoreFailures(t *testing.T) {
	store := seededStore()
	boom := errors.New("connection reset")
	store.insertLikeErr = boom

	_, err := newTestMatcher(store, nil).RecordLike(context.Background(), 1, 2)
	assert.ErrorIs(t, err, boom)
}

func TestMatchScoreIsSymmetric(t *testing.T) {
	build := func() *memStore {
		store := seededStore()
		store.setPrefs(&UserPreferences{UserID: 1, Weights: Weights{AgeWeight: 5, InterestsWeight: 1}})
		store.setPrefs(&UserPreferences{UserID: 2, Weights: Weights{InterestsWeight: 3, PersonalityWeight: 1}})
		store.setTraits(&PersonalityTraits{UserID: 1, Extroversion: 80, Openness: 60, Conscientiousness: 40, Agreeableness: 70, Neuroticism: 20})
		store.setTraits(&PersonalityTraits{UserID: 2, Extroversion: 30, Openness: 90, Conscientiousness: 55, Agreeableness: 60, Neuroticism: 45})
		return store
	}
	ctx := context.Background()

	forward := build()
	fm := newTestMatcher(forward, nil)
	_, err := fm.RecordLike(ctx, 1, 2)
	require.NoError(t, err)
	ab, err := fm.RecordLike(ctx, 2, 1)
	require.NoError(t, err)

	backward := build()
	bm := newTestMatcher(backward, nil)
	_, err = bm.RecordLike(ctx, 2, 1)
	require.NoError(t, err)
	ba, err := bm.RecordLike(ctx, 1, 2)
	require.NoError(t, err)

	assert.Equal(t, ab.Match.Score, ba.Match.Score)
	assert.Greater(t, ab.Match.Score, 0.0)
}

func TestMatchScoreFallsBackToDefaultWeights(t *testing.T) {
	ctx := context.Background()

	withDefaults := seededStore()
	_, err := newTestMatcher(withDefaults, nil).RecordLike(ctx, 1, 2)
	require.NoError(t, err)
	expected, err := newTestMatcher(withDefaults, nil).RecordLike(ctx, 2, 1)
	require.NoError(t, err)

	// zero weights are unusable and behave like missing preferences
	broken := seededStore()
	broken.setPrefs(&UserPreferences{UserID: 1})
	_, err = newTestMatcher(broken, nil).RecordLike(ctx, 1, 2)
	require.NoError(t, err)
	got, err := newTestMatcher(broken, nil).RecordLike(ctx, 2, 1)
	require.NoError(t, err)

	assert.Equal(t, expected.Match.Score, got.Match.Score)
}

func TestConcurrentReciprocalLikesCreateOneMatch(t *testing.T) {
	for round := 0; round < 50; round++ {
		store := seededStore()
		listener := &recordingListener{}
		matcher := newTestMatcher(store, listener)

		var wg sync.WaitGroup
		outcomes := make([]*LikeOutcome, 2)
		errs := make([]error, 2)
		for i, pair := range [][2]int64{{1, 2}, {2, 1}} {
			wg.Add(1)
			go func(i int, sender, receiver int64) {
				defer wg.Done()
				outcomes[i], errs[i] = matcher.RecordLike(context.Background(), sender, receiver)
			}(i, pair[0], pair[1])
		}
		wg.Wait()

		require.NoError(t, errs[0])
		require.NoError(t, errs[1])
		assert.Equal(t, 1, store.matchCount())
		assert.Equal(t, 1, listener.count())

		matched := 0
		for _, o := range outcomes {
			if o.Status == LikeMatched {
				matched++
			}
		}
		assert.GreaterOrEqual(t, matched, 1)
	}
}
