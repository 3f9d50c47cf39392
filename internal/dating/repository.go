package dating

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Repository is the Postgres-backed MatchStore plus the service-layer paths
type Repository interface {
	MatchStore

	UpsertPreferences(ctx context.Context, prefs *UserPreferences) error
	UpsertPersonalityTraits(ctx context.Context, traits *PersonalityTraits) error
	GetScoreCard(ctx context.Context, userID int64) (*ScoreCard, error)
	GetUserMatches(ctx context.Context, userID int64) ([]*Match, error)
	ListUserIDs(ctx context.Context) ([]int64, error)
	GetEngineStats(ctx context.Context) (*EngineStats, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func pgErrorCode(err error) string {
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		return string(pgErr.Code)
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pgErrorCode(err) == pgUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return pgErrorCode(err) == pgForeignKeyViolation
}

const userColumns = `u.id, u.email, u.name, u.age, u.gender, u.college, u.major, u.year,
	u.latitude, u.longitude, u.interests, u.created_at, u.updated_at`

// Users & profile data

func (r *postgresRepository) GetUser(ctx context.Context, id int64) (*User, error) {
	var user User
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1`

	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

func (r *postgresRepository) GetPersonalityTraits(ctx context.Context, userID int64) (*PersonalityTraits, error) {
	var traits PersonalityTraits
	query := `
		SELECT user_id, extroversion, openness, conscientiousness, agreeableness, neuroticism, updated_at
		FROM personality_traits
		WHERE user_id = $1
	`

	err := r.db.GetContext(ctx, &traits, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTraitsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get personality traits: %w", err)
	}
	return &traits, nil
}

func (r *postgresRepository) UpsertPersonalityTraits(ctx context.Context, traits *PersonalityTraits) error {
	query := `
		INSERT INTO personality_traits (
			user_id, extroversion, openness, conscientiousness, agreeableness, neuroticism
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id)
		DO UPDATE SET
			extroversion = EXCLUDED.extroversion,
			openness = EXCLUDED.openness,
			conscientiousness = EXCLUDED.conscientiousness,
			agreeableness = EXCLUDED.agreeableness,
			neuroticism = EXCLUDED.neuroticism,
			updated_at = CURRENT_TIMESTAMP
		RETURNING updated_at
	`

	err := r.db.QueryRowxContext(
		ctx, query,
		traits.UserID, traits.Extroversion, traits.Openness,
		traits.Conscientiousness, traits.Agreeableness, traits.Neuroticism,
	).Scan(&traits.UpdatedAt)
	if isForeignKeyViolation(err) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("upsert personality traits: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetPreferences(ctx context.Context, userID int64) (*UserPreferences, error) {
	var prefs UserPreferences
	query := `
		SELECT user_id, min_age, max_age, preferred_genders, max_distance,
		       college_preference, major_preference, min_year, max_year,
		       age_weight, distance_weight, interests_weight, college_weight,
		       major_weight, year_weight, personality_weight, updated_at
		FROM user_preferences
		WHERE user_id = $1
	`

	err := r.db.GetContext(ctx, &prefs, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPreferencesNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}
	return &prefs, nil
}

func (r *postgresRepository) UpsertPreferences(ctx context.Context, prefs *UserPreferences) error {
	query := `
		INSERT INTO user_preferences (
			user_id, min_age, max_age, preferred_genders, max_distance,
			college_preference, major_preference, min_year, max_year,
			age_weight, distance_weight, interests_weight, college_weight,
			major_weight, year_weight, personality_weight
		) VALUES (
			:user_id, :min_age, :max_age, :preferred_genders, :max_distance,
			:college_preference, :major_preference, :min_year, :max_year,
			:age_weight, :distance_weight, :interests_weight, :college_weight,
			:major_weight, :year_weight, :personality_weight
		)
		ON CONFLICT (user_id)
		DO UPDATE SET
			min_age = EXCLUDED.min_age,
			max_age = EXCLUDED.max_age,
			preferred_genders = EXCLUDED.preferred_genders,
			max_distance = EXCLUDED.max_distance,
			college_preference = EXCLUDED.college_preference,
			major_preference = EXCLUDED.major_preference,
			min_year = EXCLUDED.min_year,
			max_year = EXCLUDED.max_year,
			age_weight = EXCLUDED.age_weight,
			distance_weight = EXCLUDED.distance_weight,
			interests_weight = EXCLUDED.interests_weight,
			college_weight = EXCLUDED.college_weight,
			major_weight = EXCLUDED.major_weight,
			year_weight = EXCLUDED.year_weight,
			personality_weight = EXCLUDED.personality_weight,
			updated_at = CURRENT_TIMESTAMP
		RETURNING updated_at
	`

	if prefs.PreferredGenders == nil {
		prefs.PreferredGenders = pq.StringArray{}
	}

	rows, err := r.db.NamedQueryContext(ctx, query, prefs)
	if isForeignKeyViolation(err) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("upsert preferences: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&prefs.UpdatedAt); err != nil {
			return fmt.Errorf("upsert preferences: %w", err)
		}
	}
	return rows.Err()
}

// Candidate pool

// candidateRow is a users row LEFT JOINed with personality_traits
type candidateRow struct {
	User
	TraitUserID       sql.NullInt64 `db:"trait_user_id"`
	Extroversion      sql.NullInt64 `db:"extroversion"`
	Openness          sql.NullInt64 `db:"openness"`
	Conscientiousness sql.NullInt64 `db:"conscientiousness"`
	Agreeableness     sql.NullInt64 `db:"agreeableness"`
	Neuroticism       sql.NullInt64 `db:"neuroticism"`
}

func (row *candidateRow) candidate() *Candidate {
	user := row.User
	c := &Candidate{User: &user}
	if row.TraitUserID.Valid {
		c.Traits = &PersonalityTraits{
			UserID:            row.TraitUserID.Int64,
			Extroversion:      int(row.Extroversion.Int64),
			Openness:          int(row.Openness.Int64),
			Conscientiousness: int(row.Conscientiousness.Int64),
			Agreeableness:     int(row.Agreeableness.Int64),
			Neuroticism:       int(row.Neuroticism.Int64),
		}
	}
	return c
}

// buildCandidateQuery pre-filters on indexed columns only. It must never be
// stricter than PreferenceFilter.
func buildCandidateQuery(hints *CandidateHints) (string, []interface{}) {
	var (
		conditions []string
		args       []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if hints.ExcludeUserID != 0 {
		conditions = append(conditions, "u.id <> "+arg(hints.ExcludeUserID))
	}
	if hints.AfterUserID > 0 {
		conditions = append(conditions, "u.id > "+arg(hints.AfterUserID))
	}
	if hints.MinAge > 0 {
		conditions = append(conditions, "u.age >= "+arg(hints.MinAge))
	}
	if hints.MaxAge > 0 {
		conditions = append(conditions, "u.age <= "+arg(hints.MaxAge))
	}
	if len(hints.Genders) > 0 {
		conditions = append(conditions,
			`lower(regexp_replace(btrim(u.gender), '\s+', ' ', 'g')) = ANY(`+arg(pq.StringArray(hints.Genders))+`)`)
	}

	query := `
		SELECT ` + userColumns + `,
		       pt.user_id AS trait_user_id, pt.extroversion, pt.openness,
		       pt.conscientiousness, pt.agreeableness, pt.neuroticism
		FROM users u
		LEFT JOIN personality_traits pt ON pt.user_id = u.id`
	if len(conditions) > 0 {
		query += "\n\t\tWHERE " + strings.Join(conditions, " AND ")
	}
	query += "\n\t\tORDER BY u.id"
	if hints.Limit > 0 {
		query += " LIMIT " + arg(hints.Limit)
	}
	return query, args
}

func (r *postgresRepository) QueryCandidatePool(ctx context.Context, hints *CandidateHints) ([]*Candidate, error) {
	if hints == nil {
		hints = &CandidateHints{}
	}
	query, args := buildCandidateQuery(hints)

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query candidate pool: %w", err)
	}
	defer rows.Close()

	var candidates []*Candidate
	for rows.Next() {
		var row candidateRow
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		candidates = append(candidates, row.candidate())
	}
	return candidates, rows.Err()
}

// Likes

func (r *postgresRepository) InsertUserLike(ctx context.Context, like *UserLike) error {
	query := `
		INSERT INTO user_likes (sender_id, receiver_id)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	err := r.db.QueryRowxContext(ctx, query, like.SenderID, like.ReceiverID).Scan(&like.ID, &like.CreatedAt)
	switch {
	case isUniqueViolation(err):
		return ErrDuplicateLike
	case isForeignKeyViolation(err):
		return ErrUserNotFound
	case err != nil:
		return fmt.Errorf("insert like: %w", err)
	}
	return nil
}

func (r *postgresRepository) FindReciprocalLike(ctx context.Context, senderID, receiverID int64) (*UserLike, error) {
	var like UserLike
	query := `
		SELECT id, sender_id, receiver_id, created_at
		FROM user_likes
		WHERE sender_id = $1 AND receiver_id = $2
	`

	err := r.db.GetContext(ctx, &like, query, receiverID, senderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLikeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find reciprocal like: %w", err)
	}
	return &like, nil
}

// Matches

func (r *postgresRepository) InsertMatch(ctx context.Context, match *Match) error {
	match.User1ID, match.User2ID = normalizePair(match.User1ID, match.User2ID)

	query := `
		INSERT INTO matches (user1_id, user2_id, score)
		VALUES ($1, $2, $3)
		ON CONFLICT (user1_id, user2_id) DO NOTHING
		RETURNING id, created_at
	`

	err := r.db.QueryRowxContext(ctx, query, match.User1ID, match.User2ID, match.Score).
		Scan(&match.ID, &match.CreatedAt)
	// DO NOTHING returns no row when the pair already exists
	if errors.Is(err, sql.ErrNoRows) || isUniqueViolation(err) {
		return ErrMatchExists
	}
	if err != nil {
		return fmt.Errorf("insert match: %w", err)
	}
	return nil
}

func (r *postgresRepository) FindMatch(ctx context.Context, userA, userB int64) (*Match, error) {
	user1, user2 := normalizePair(userA, userB)

	var match Match
	query := `
		SELECT id, user1_id, user2_id, score, created_at
		FROM matches
		WHERE user1_id = $1 AND user2_id = $2
	`

	err := r.db.GetContext(ctx, &match, query, user1, user2)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find match: %w", err)
	}
	return &match, nil
}

func (r *postgresRepository) GetUserMatches(ctx context.Context, userID int64) ([]*Match, error) {
	matches := []*Match{}
	query := `
		SELECT id, user1_id, user2_id, score, created_at
		FROM matches
		WHERE user1_id = $1 OR user2_id = $1
		ORDER BY created_at DESC, id DESC
	`

	if err := r.db.SelectContext(ctx, &matches, query, userID); err != nil {
		return nil, fmt.Errorf("get user matches: %w", err)
	}
	return matches, nil
}

// Score cards

func (r *postgresRepository) GetScoreCard(ctx context.Context, userID int64) (*ScoreCard, error) {
	var card ScoreCard
	query := `
		SELECT user_id, college, major, year, latitude, longitude, interests,
		       preferences, personality_label, score, computed_at
		FROM score_cards
		WHERE user_id = $1
	`

	err := r.db.GetContext(ctx, &card, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrScoreCardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get score card: %w", err)
	}
	return &card, nil
}

func (r *postgresRepository) UpsertScoreCard(ctx context.Context, card *ScoreCard) error {
	query := `
		INSERT INTO score_cards (
			user_id, college, major, year, latitude, longitude, interests,
			preferences, personality_label, score, computed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id)
		DO UPDATE SET
			college = EXCLUDED.college,
			major = EXCLUDED.major,
			year = EXCLUDED.year,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			interests = EXCLUDED.interests,
			preferences = EXCLUDED.preferences,
			personality_label = EXCLUDED.personality_label,
			score = EXCLUDED.score,
			computed_at = EXCLUDED.computed_at
	`

	interests := card.Interests
	if interests == nil {
		interests = pq.StringArray{}
	}
	preferences := []byte(card.Preferences)
	if len(preferences) == 0 {
		preferences = []byte("{}")
	}

	_, err := r.db.ExecContext(
		ctx, query,
		card.UserID, card.College, card.Major, card.Year,
		card.Latitude, card.Longitude, interests, preferences,
		card.PersonalityLabel, card.Score, card.ComputedAt,
	)
	if isForeignKeyViolation(err) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("upsert score card: %w", err)
	}
	return nil
}

// Batch & reporting

func (r *postgresRepository) ListUserIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM users ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list user ids: %w", err)
	}
	return ids, nil
}

func (r *postgresRepository) GetEngineStats(ctx context.Context) (*EngineStats, error) {
	var stats EngineStats
	query := `
		SELECT
			(SELECT COUNT(*) FROM users) AS total_users,
			(SELECT COUNT(*) FROM user_likes) AS total_likes,
			(SELECT COUNT(*) FROM matches) AS total_matches,
			(SELECT COALESCE(AVG(score), 0) FROM matches) AS average_match_score,
			(SELECT COUNT(*) FROM score_cards) AS score_cards
	`

	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("get engine stats: %w", err)
	}
	return &stats, nil
}
