package dating

import "errors"

var (
	// Validation
	ErrInvalidPreferences = errors.New("invalid preferences")
	ErrSelfLike           = errors.New("cannot like yourself")
	ErrInvalidProfile     = errors.New("invalid profile data")

	// Not found
	ErrUserNotFound        = errors.New("user not found")
	ErrTraitsNotFound      = errors.New("personality traits not found")
	ErrPreferencesNotFound = errors.New("preferences not found")
	ErrLikeNotFound        = errors.New("like not found")
	ErrMatchNotFound       = errors.New("match not found")
	ErrScoreCardNotFound   = errors.New("score card not found")

	// Conflict
	ErrDuplicateLike = errors.New("user already liked")
	ErrMatchExists   = errors.New("match already exists")
)
