package dating

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	likesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_likes_total",
			Help: "Total number of likes recorded, by outcome",
		},
		[]string{"outcome"},
	)

	matchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matching_matches_total",
			Help: "Total number of matches created",
		},
	)

	compatibilityScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matching_compatibility_scores",
			Help:    "Distribution of persisted match scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	rankingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matching_ranking_duration_seconds",
			Help:    "Time spent filtering and scoring a candidate pool",
			Buckets: prometheus.DefBuckets,
		},
	)

	candidatesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matching_candidates_skipped_total",
			Help: "Candidates dropped from ranking because their features could not be built",
		},
	)

	scoreCardCacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_scorecard_cache_total",
			Help: "ScoreCard cache lookups, by result",
		},
		[]string{"result"},
	)

	scoreCardRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_scorecard_refreshes_total",
			Help: "ScoreCard recomputations, by status",
		},
		[]string{"status"},
	)
)

func RecordLike(outcome string) {
	likesTotal.WithLabelValues(outcome).Inc()
}

func RecordMatch(score float64) {
	matchesTotal.Inc()
	compatibilityScores.Observe(score)
}

func RecordRankingDuration(d time.Duration) {
	rankingDuration.Observe(d.Seconds())
}

func RecordSkippedCandidate() {
	candidatesSkipped.Inc()
}

func RecordScoreCardCache(result string) {
	scoreCardCacheResults.WithLabelValues(result).Inc()
}

func RecordScoreCardRefresh(status string) {
	scoreCardRefreshes.WithLabelValues(status).Inc()
}
