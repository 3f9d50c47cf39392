package dating

import "context"

// MatchStore is the storage the engine needs. Implementations must back
// InsertUserLike and InsertMatch with unique constraints; the engine takes
// no locks of its own.
type MatchStore interface {
	GetUser(ctx context.Context, id int64) (*User, error)
	GetPersonalityTraits(ctx context.Context, userID int64) (*PersonalityTraits, error)
	GetPreferences(ctx context.Context, userID int64) (*UserPreferences, error)

	// QueryCandidatePool may pre-filter on indexed columns; callers re-validate
	QueryCandidatePool(ctx context.Context, hints *CandidateHints) ([]*Candidate, error)

	// InsertUserLike returns ErrDuplicateLike when sender already liked receiver
	InsertUserLike(ctx context.Context, like *UserLike) error

	// FindReciprocalLike looks up the receiver -> sender edge
	FindReciprocalLike(ctx context.Context, senderID, receiverID int64) (*UserLike, error)

	// InsertMatch returns ErrMatchExists when the unordered pair is already matched
	InsertMatch(ctx context.Context, match *Match) error
	FindMatch(ctx context.Context, userA, userB int64) (*Match, error)

	UpsertScoreCard(ctx context.Context, card *ScoreCard) error
}

// normalizePair orders a pair so the smaller id comes first
func normalizePair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}
