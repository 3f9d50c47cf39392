package dating

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
)

// ScoreCardCache is the hot copy in front of score_cards.
// Get returns ErrScoreCardNotFound on a miss.
type ScoreCardCache interface {
	Get(ctx context.Context, userID int64) (*ScoreCard, error)
	Set(ctx context.Context, card *ScoreCard) error
	Delete(ctx context.Context, userID int64) error
}

const (
	cacheBreakerFailureThreshold = 5
	cacheBreakerTimeout          = 30 * time.Second
)

type redisScoreCardCache struct {
	client  *redis.Client
	ttl     time.Duration
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  zerolog.Logger
}

// NewRedisScoreCardCache wraps every Redis call in a circuit breaker. While the
// breaker is open reads behave as misses and writes are dropped.
func NewRedisScoreCardCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) ScoreCardCache {
	c := &redisScoreCardCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}

	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "scorecard-cache",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cacheBreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cacheBreakerFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Cache circuit breaker changed state")
		},
	})

	return c
}

func scoreCardKey(userID int64) string {
	return fmt.Sprintf("matching:scorecard:%d", userID)
}

func (c *redisScoreCardCache) Get(ctx context.Context, userID int64) (*ScoreCard, error) {
	data, err := c.breaker.Execute(func() ([]byte, error) {
		b, err := c.client.Get(ctx, scoreCardKey(userID)).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return b, err
	})
	if err != nil {
		RecordScoreCardCache("error")
		c.logger.Debug().Err(err).Int64("user_id", userID).Msg("Score card cache read failed")
		return nil, ErrScoreCardNotFound
	}
	if data == nil {
		RecordScoreCardCache("miss")
		return nil, ErrScoreCardNotFound
	}

	var card ScoreCard
	if err := json.Unmarshal(data, &card); err != nil {
		RecordScoreCardCache("error")
		return nil, ErrScoreCardNotFound
	}

	RecordScoreCardCache("hit")
	return &card, nil
}

func (c *redisScoreCardCache) Set(ctx context.Context, card *ScoreCard) error {
	data, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("marshal score card: %w", err)
	}

	_, err = c.breaker.Execute(func() ([]byte, error) {
		return nil, c.client.Set(ctx, scoreCardKey(card.UserID), data, c.ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("cache score card: %w", err)
	}
	return nil
}

func (c *redisScoreCardCache) Delete(ctx context.Context, userID int64) error {
	_, err := c.breaker.Execute(func() ([]byte, error) {
		return nil, c.client.Del(ctx, scoreCardKey(userID)).Err()
	})
	if err != nil {
		return fmt.Errorf("evict score card: %w", err)
	}
	return nil
}

// nopScoreCardCache is used when Redis is not configured
type nopScoreCardCache struct{}

func NewNopScoreCardCache() ScoreCardCache {
	return nopScoreCardCache{}
}

func (nopScoreCardCache) Get(context.Context, int64) (*ScoreCard, error) {
	return nil, ErrScoreCardNotFound
}

func (nopScoreCardCache) Set(context.Context, *ScoreCard) error { return nil }

func (nopScoreCardCache) Delete(context.Context, int64) error { return nil }
