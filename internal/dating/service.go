// internal/dating/service.go

package dating

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type Service interface {
	// Discovery
	GetCandidates(ctx context.Context, userID int64, limit int) ([]*ScoredCandidate, error)
	CalculateCompatibility(ctx context.Context, userID, otherUserID int64) (*CompatibilityReport, error)

	// Likes & matches
	RecordLike(ctx context.Context, senderID, receiverID int64) (*LikeOutcome, error)
	GetMatches(ctx context.Context, userID int64) ([]*Match, error)

	// Profile inputs
	UpdatePreferences(ctx context.Context, userID int64, dto *UpdatePreferencesDTO) (*UserPreferences, error)
	UpdatePersonality(ctx context.Context, userID int64, dto *UpdatePersonalityDTO) (*PersonalityTraits, error)

	// Score cards
	GetScoreCard(ctx context.Context, userID int64) (*ScoreCard, error)
	InvalidateScoreCard(ctx context.Context, userID int64) error
	RefreshScoreCards(ctx context.Context) error

	// Reporting
	GetEngineStats(ctx context.Context) (*EngineStats, error)
}

type ServiceConfig struct {
	Scoring               ScoringConfig
	DefaultCandidateLimit int
	MaxCandidateLimit     int
	CandidatePoolSize     int
	ScoreCardTTL          time.Duration
	ScoreCardTopK         int
	RefreshConcurrency    int
}

type service struct {
	repo    Repository
	cache   ScoreCardCache
	filter  PreferenceFilter
	scorer  *Scorer
	ranker  *CandidateRanker
	matcher *LikeMatcher
	cfg     ServiceConfig
	logger  zerolog.Logger
	now     func() time.Time
}

func NewService(repo Repository, cache ScoreCardCache, listener MatchListener, cfg ServiceConfig, logger zerolog.Logger) Service {
	if cache == nil {
		cache = NewNopScoreCardCache()
	}
	if cfg.RefreshConcurrency < 1 {
		cfg.RefreshConcurrency = 1
	}

	scorer := NewScorer(cfg.Scoring)
	return &service{
		repo:    repo,
		cache:   cache,
		filter:  NewPreferenceFilter(),
		scorer:  scorer,
		ranker:  NewCandidateRanker(scorer, logger),
		matcher: NewLikeMatcher(repo, scorer, listener, logger),
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *service) clampLimit(limit int) int {
	if limit <= 0 {
		return s.cfg.DefaultCandidateLimit
	}
	if s.cfg.MaxCandidateLimit > 0 && limit > s.cfg.MaxCandidateLimit {
		return s.cfg.MaxCandidateLimit
	}
	return limit
}

// candidateHints pushes the indexed part of prefs down to storage
func (s *service) candidateHints(userID int64, prefs *UserPreferences) *CandidateHints {
	hints := &CandidateHints{
		ExcludeUserID: userID,
		Limit:         s.cfg.CandidatePoolSize,
	}
	if prefs == nil {
		return hints
	}

	hints.MinAge = prefs.MinAge
	hints.MaxAge = prefs.MaxAge
	for _, g := range prefs.PreferredGenders {
		if tok := normalizeToken(g); tok != "" {
			hints.Genders = append(hints.Genders, tok)
		}
	}
	return hints
}

// rankFor walks the whole pool in id-ordered pages of CandidatePoolSize and
// keeps the running top limit, so every user is considered on every request
func (s *service) rankFor(ctx context.Context, p *profile, limit int) ([]*ScoredCandidate, error) {
	prefs := usablePreferences(p.prefs, s.logger)
	hints := s.candidateHints(p.user.ID, prefs)

	best := []*ScoredCandidate{}
	for {
		page, err := s.repo.QueryCandidatePool(ctx, hints)
		if err != nil {
			return nil, fmt.Errorf("failed to load candidate pool: %w", err)
		}

		ranked, err := s.ranker.Rank(ctx, p.features, prefs, page, limit)
		if err != nil {
			return nil, err
		}
		best = mergeRanked(best, ranked, limit)

		if hints.Limit <= 0 || len(page) < hints.Limit {
			return best, nil
		}
		last := page[len(page)-1]
		if last == nil || last.User == nil || last.User.ID <= hints.AfterUserID {
			return best, nil
		}
		hints.AfterUserID = last.User.ID
	}
}

func (s *service) GetCandidates(ctx context.Context, userID int64, limit int) ([]*ScoredCandidate, error) {
	p, err := loadProfile(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	return s.rankFor(ctx, p, s.clampLimit(limit))
}

func (s *service) CalculateCompatibility(ctx context.Context, userID, otherUserID int64) (*CompatibilityReport, error) {
	user, err := loadProfile(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	other, err := loadProfile(ctx, s.repo, otherUserID)
	if err != nil {
		return nil, err
	}

	forUser, factors, err := s.scorer.Score(user.features, other.features, effectiveWeights(user.prefs, s.logger))
	if err != nil {
		return nil, err
	}
	forOther, _, err := s.scorer.Score(other.features, user.features, effectiveWeights(other.prefs, s.logger))
	if err != nil {
		return nil, err
	}

	violations := s.filter.Violations(user.features, user.prefs, other.features)
	return &CompatibilityReport{
		UserID:        userID,
		OtherUserID:   otherUserID,
		Score:         (forUser + forOther) / 2,
		ScoreForUser:  forUser,
		ScoreForOther: forOther,
		Factors:       factors,
		Eligible:      len(violations) == 0,
		Violations:    violations,
	}, nil
}

func (s *service) RecordLike(ctx context.Context, senderID, receiverID int64) (*LikeOutcome, error) {
	return s.matcher.RecordLike(ctx, senderID, receiverID)
}

func (s *service) GetMatches(ctx context.Context, userID int64) ([]*Match, error) {
	return s.repo.GetUserMatches(ctx, userID)
}

func (s *service) UpdatePreferences(ctx context.Context, userID int64, dto *UpdatePreferencesDTO) (*UserPreferences, error) {
	prefs := dto.toPreferences(userID)
	if err := prefs.Weights.Validate(); err != nil {
		return nil, err
	}
	if prefs.MinAge > 0 && prefs.MaxAge > 0 && prefs.MinAge > prefs.MaxAge {
		return nil, fmt.Errorf("%w: min_age exceeds max_age", ErrInvalidPreferences)
	}
	if prefs.MinYear > 0 && prefs.MaxYear > 0 && prefs.MinYear > prefs.MaxYear {
		return nil, fmt.Errorf("%w: min_year exceeds max_year", ErrInvalidPreferences)
	}

	if err := s.repo.UpsertPreferences(ctx, prefs); err != nil {
		return nil, err
	}

	s.invalidateQuietly(ctx, userID)
	return prefs, nil
}

func (s *service) UpdatePersonality(ctx context.Context, userID int64, dto *UpdatePersonalityDTO) (*PersonalityTraits, error) {
	traits := dto.toTraits(userID)
	if _, err := personalityVector(traits); err != nil {
		return nil, err
	}

	if err := s.repo.UpsertPersonalityTraits(ctx, traits); err != nil {
		return nil, err
	}

	s.invalidateQuietly(ctx, userID)
	return traits, nil
}

// invalidateQuietly keeps a cache outage from failing a write that already committed
func (s *service) invalidateQuietly(ctx context.Context, userID int64) {
	if err := s.InvalidateScoreCard(ctx, userID); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", userID).Msg("Failed to invalidate score card")
	}
}

// InvalidateScoreCard evicts the cached copy. The stored row goes stale on its
// own because the write that triggered this bumped updated_at.
func (s *service) InvalidateScoreCard(ctx context.Context, userID int64) error {
	return s.cache.Delete(ctx, userID)
}

// GetScoreCard reads through Redis, then the stored row if still fresh, then recomputes
func (s *service) GetScoreCard(ctx context.Context, userID int64) (*ScoreCard, error) {
	if card, err := s.cache.Get(ctx, userID); err == nil {
		return card, nil
	}

	p, err := loadProfile(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}

	stored, err := s.repo.GetScoreCard(ctx, userID)
	if err != nil && !errors.Is(err, ErrScoreCardNotFound) {
		return nil, err
	}
	if stored != nil && s.fresh(stored, p) {
		s.cacheQuietly(ctx, stored)
		return stored, nil
	}

	return s.refresh(ctx, p)
}

// fresh reports whether card postdates every input it was computed from and is within TTL
func (s *service) fresh(card *ScoreCard, p *profile) bool {
	if s.cfg.ScoreCardTTL > 0 && s.now().Sub(card.ComputedAt) > s.cfg.ScoreCardTTL {
		return false
	}
	if card.ComputedAt.Before(p.user.UpdatedAt) {
		return false
	}
	if p.traits != nil && card.ComputedAt.Before(p.traits.UpdatedAt) {
		return false
	}
	if p.prefs != nil && card.ComputedAt.Before(p.prefs.UpdatedAt) {
		return false
	}
	return true
}

func (s *service) cacheQuietly(ctx context.Context, card *ScoreCard) {
	if err := s.cache.Set(ctx, card); err != nil {
		s.logger.Debug().Err(err).Int64("user_id", card.UserID).Msg("Failed to cache score card")
	}
}

// refresh recomputes, stores and caches the score card
func (s *service) refresh(ctx context.Context, p *profile) (*ScoreCard, error) {
	card, err := s.computeScoreCard(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpsertScoreCard(ctx, card); err != nil {
		return nil, err
	}
	s.cacheQuietly(ctx, card)
	return card, nil
}

// computeScoreCard scores the user as the mean of their top-K candidate scores
func (s *service) computeScoreCard(ctx context.Context, p *profile) (*ScoreCard, error) {
	ranked, err := s.rankFor(ctx, p, s.cfg.ScoreCardTopK)
	if err != nil {
		return nil, err
	}

	var score float64
	if len(ranked) > 0 {
		for _, c := range ranked {
			score += c.Score
		}
		score /= float64(len(ranked))
	}

	snapshot := json.RawMessage("{}")
	if p.prefs != nil {
		data, err := json.Marshal(p.prefs)
		if err != nil {
			return nil, fmt.Errorf("failed to snapshot preferences: %w", err)
		}
		snapshot = data
	}

	interests := make([]string, 0, len(p.features.Interests))
	for tok := range p.features.Interests {
		interests = append(interests, tok)
	}
	sort.Strings(interests)

	return &ScoreCard{
		UserID:           p.user.ID,
		College:          p.features.College,
		Major:            p.features.Major,
		Year:             p.features.Year,
		Latitude:         p.user.Latitude,
		Longitude:        p.user.Longitude,
		Interests:        interests,
		Preferences:      snapshot,
		PersonalityLabel: PersonalityLabel(p.traits),
		Score:            score,
		ComputedAt:       s.now().UTC(),
	}, nil
}

// RefreshScoreCards recomputes every user's card with bounded parallelism.
// A failing user is logged and skipped; cancellation stops the batch.
func (s *service) RefreshScoreCards(ctx context.Context) error {
	ids, err := s.repo.ListUserIDs(ctx)
	if err != nil {
		return err
	}

	start := s.now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.RefreshConcurrency)

	for _, id := range ids {
		id := id
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			p, err := loadProfile(gctx, s.repo, id)
			if err == nil {
				_, err = s.refresh(gctx, p)
			}
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				RecordScoreCardRefresh("failed")
				s.logger.Warn().Err(err).Int64("user_id", id).Msg("Score card refresh failed")
				return nil
			}

			RecordScoreCardRefresh("ok")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	s.logger.Info().
		Int("users", len(ids)).
		Dur("duration", s.now().Sub(start)).
		Msg("Score cards refreshed")
	return nil
}

func (s *service) GetEngineStats(ctx context.Context) (*EngineStats, error) {
	stats, err := s.repo.GetEngineStats(ctx)
	if err != nil {
		return nil, err
	}
	stats.LastUpdated = s.now()
	return stats, nil
}
