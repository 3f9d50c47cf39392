// internal/common/database/migrations.go
// Idempotent schema migrations run at startup

package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

var migrations = []string{
	// Users table
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		email VARCHAR(255) UNIQUE NOT NULL,
		name VARCHAR(255) NOT NULL DEFAULT '',
		age INTEGER NOT NULL CHECK (age > 0),
		gender VARCHAR(50) NOT NULL DEFAULT '',
		college VARCHAR(255) NOT NULL DEFAULT '',
		major VARCHAR(255) NOT NULL DEFAULT '',
		year INTEGER NOT NULL DEFAULT 0 CHECK (year >= 0),
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		interests TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
		CHECK ((latitude IS NULL) = (longitude IS NULL))
	)`,

	// Personality traits (0-100 per trait)
	`CREATE TABLE IF NOT EXISTS personality_traits (
		user_id BIGINT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		extroversion INTEGER NOT NULL CHECK (extroversion BETWEEN 0 AND 100),
		openness INTEGER NOT NULL CHECK (openness BETWEEN 0 AND 100),
		conscientiousness INTEGER NOT NULL CHECK (conscientiousness BETWEEN 0 AND 100),
		agreeableness INTEGER NOT NULL CHECK (agreeableness BETWEEN 0 AND 100),
		neuroticism INTEGER NOT NULL CHECK (neuroticism BETWEEN 0 AND 100),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
	)`,

	// Matching preferences and weights
	`CREATE TABLE IF NOT EXISTS user_preferences (
		user_id BIGINT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		min_age INTEGER NOT NULL DEFAULT 0,
		max_age INTEGER NOT NULL DEFAULT 0,
		preferred_genders TEXT[] NOT NULL DEFAULT '{}',
		max_distance DOUBLE PRECISION NOT NULL DEFAULT 0,
		college_preference VARCHAR(255) NOT NULL DEFAULT '',
		major_preference VARCHAR(255) NOT NULL DEFAULT '',
		min_year INTEGER NOT NULL DEFAULT 0,
		max_year INTEGER NOT NULL DEFAULT 0,
		age_weight DOUBLE PRECISION NOT NULL DEFAULT 1,
		distance_weight DOUBLE PRECISION NOT NULL DEFAULT 1,
		interests_weight DOUBLE PRECISION NOT NULL DEFAULT 1,
		college_weight DOUBLE PRECISION NOT NULL DEFAULT 1,
		major_weight DOUBLE PRECISION NOT NULL DEFAULT 1,
		year_weight DOUBLE PRECISION NOT NULL DEFAULT 1,
		personality_weight DOUBLE PRECISION NOT NULL DEFAULT 1,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
	)`,

	// Denormalized score cards
	`CREATE TABLE IF NOT EXISTS score_cards (
		user_id BIGINT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		college VARCHAR(255) NOT NULL DEFAULT '',
		major VARCHAR(255) NOT NULL DEFAULT '',
		year INTEGER NOT NULL DEFAULT 0,
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		interests TEXT[] NOT NULL DEFAULT '{}',
		preferences JSONB NOT NULL DEFAULT '{}',
		personality_label VARCHAR(50) NOT NULL DEFAULT '',
		score DOUBLE PRECISION NOT NULL DEFAULT 0,
		computed_at TIMESTAMP WITH TIME ZONE NOT NULL
	)`,

	// Likes
	`CREATE TABLE IF NOT EXISTS user_likes (
		id BIGSERIAL PRIMARY KEY,
		sender_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		receiver_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT unique_user_like UNIQUE(sender_id, receiver_id),
		CONSTRAINT no_self_like CHECK (sender_id <> receiver_id)
	)`,

	// Matches, stored as an ordered pair
	`CREATE TABLE IF NOT EXISTS matches (
		id BIGSERIAL PRIMARY KEY,
		user1_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		user2_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		score DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT unique_match UNIQUE(user1_id, user2_id),
		CONSTRAINT ordered_match CHECK (user1_id < user2_id)
	)`,

	// Indexes
	`CREATE INDEX IF NOT EXISTS idx_users_age ON users(age)`,
	`CREATE INDEX IF NOT EXISTS idx_users_gender ON users(lower(regexp_replace(btrim(gender), '\s+', ' ', 'g')))`,
	`CREATE INDEX IF NOT EXISTS idx_user_likes_receiver ON user_likes(receiver_id)`,
	`CREATE INDEX IF NOT EXISTS idx_matches_user2 ON matches(user2_id)`,
	`CREATE INDEX IF NOT EXISTS idx_matches_created ON matches(created_at DESC)`,
}

// Migrate creates the matching schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sqlx.DB, logger zerolog.Logger) error {
	for i, migration := range migrations {
		logger.Debug().Int("step", i+1).Int("total", len(migrations)).Msg("Running migration")
		if _, err := db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	logger.Info().Int("statements", len(migrations)).Msg("Migrations complete")
	return nil
}
