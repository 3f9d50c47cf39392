package dating

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

// CandidateRanker filters, scores and orders a candidate pool
type CandidateRanker struct {
	filter PreferenceFilter
	scorer *Scorer
	logger zerolog.Logger
}

func NewCandidateRanker(scorer *Scorer, logger zerolog.Logger) *CandidateRanker {
	return &CandidateRanker{
		filter: NewPreferenceFilter(),
		scorer: scorer,
		logger: logger,
	}
}

// Rank returns eligible candidates by score descending, ties by id ascending,
// truncated to limit (limit <= 0 keeps all). Nil prefs score with DefaultWeights.
// On cancellation partial results are discarded.
func (r *CandidateRanker) Rank(ctx context.Context, requester *ProfileFeatures, prefs *UserPreferences, pool []*Candidate, limit int) ([]*ScoredCandidate, error) {
	start := time.Now()
	defer func() { RecordRankingDuration(time.Since(start)) }()

	if requester == nil {
		return nil, fmt.Errorf("%w: nil requester", ErrInvalidProfile)
	}

	weights := DefaultWeights()
	if prefs != nil {
		weights = prefs.Weights
	}
	if err := weights.Validate(); err != nil {
		return nil, err
	}

	scored := make([]*ScoredCandidate, 0, len(pool))
	for _, candidate := range pool {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if candidate == nil || candidate.User == nil {
			continue
		}

		features, err := BuildFeatures(candidate.User, candidate.Traits)
		if err != nil {
			r.logger.Warn().
				Err(err).
				Int64("requester_id", requester.UserID).
				Int64("candidate_id", candidate.User.ID).
				Msg("Skipping candidate with unusable profile")
			RecordSkippedCandidate()
			continue
		}

		if !r.filter.Eligible(requester, prefs, features) {
			continue
		}

		score, factors, err := r.scorer.Score(requester, features, weights)
		if err != nil {
			return nil, err
		}

		scored = append(scored, &ScoredCandidate{
			UserID:  candidate.User.ID,
			User:    candidate.User,
			Score:   score,
			Factors: factors,
		})
	}

	return topScored(scored, limit), nil
}

// topScored orders by score descending, ties by id ascending, and keeps the
// first limit entries (limit <= 0 keeps all)
func topScored(scored []*ScoredCandidate, limit int) []*ScoredCandidate {
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].UserID < scored[j].UserID
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// mergeRanked combines two ranked lists into one of at most limit entries
func mergeRanked(a, b []*ScoredCandidate, limit int) []*ScoredCandidate {
	merged := make([]*ScoredCandidate, 0, len(a)+len(b))
	merged = append(merged, a...)
	merged = append(merged, b...)
	return topScored(merged, limit)
}
