package dating

import (
	"fmt"
	"math"
)

const neutralSimilarity = 0.5

// ScoringConfig holds the fixed normalization constants of the scorer
type ScoringConfig struct {
	AgeToleranceSpan        float64
	YearToleranceSpan       float64
	MaxDistanceNormalizerKm float64
}

func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		AgeToleranceSpan:        10,
		YearToleranceSpan:       4,
		MaxDistanceNormalizerKm: 100,
	}
}

// DefaultWeights weighs every factor equally. Used when a user has no valid preferences.
func DefaultWeights() Weights {
	return Weights{
		AgeWeight:         1,
		DistanceWeight:    1,
		InterestsWeight:   1,
		CollegeWeight:     1,
		MajorWeight:       1,
		YearWeight:        1,
		PersonalityWeight: 1,
	}
}

func (w Weights) values() [7]float64 {
	return [7]float64{
		w.AgeWeight, w.DistanceWeight, w.InterestsWeight,
		w.CollegeWeight, w.MajorWeight, w.YearWeight, w.PersonalityWeight,
	}
}

// Validate requires finite, non-negative weights with a positive sum
func (w Weights) Validate() error {
	var sum float64
	for _, v := range w.values() {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: weights must be finite and non-negative", ErrInvalidPreferences)
		}
		sum += v
	}
	if sum <= 0 || math.IsInf(sum, 0) {
		return fmt.Errorf("%w: at least one weight must be positive", ErrInvalidPreferences)
	}
	return nil
}

func (f *CompatibilityFactors) values() [7]float64 {
	return [7]float64{f.Age, f.Distance, f.Interests, f.College, f.Major, f.Year, f.Personality}
}

// Scorer computes weighted compatibility in [0,100]. Safe for concurrent use.
type Scorer struct {
	cfg ScoringConfig
}

// NewScorer falls back to the default for any non-positive constant
func NewScorer(cfg ScoringConfig) *Scorer {
	def := DefaultScoringConfig()
	if cfg.AgeToleranceSpan <= 0 {
		cfg.AgeToleranceSpan = def.AgeToleranceSpan
	}
	if cfg.YearToleranceSpan <= 0 {
		cfg.YearToleranceSpan = def.YearToleranceSpan
	}
	if cfg.MaxDistanceNormalizerKm <= 0 {
		cfg.MaxDistanceNormalizerKm = def.MaxDistanceNormalizerKm
	}
	return &Scorer{cfg: cfg}
}

// Score rates candidate for requester using requester's weights
func (s *Scorer) Score(requester, candidate *ProfileFeatures, w Weights) (float64, *CompatibilityFactors, error) {
	if err := w.Validate(); err != nil {
		return 0, nil, err
	}

	factors := s.Factors(requester, candidate)

	var weighted, total float64
	weights := w.values()
	for i, sim := range factors.values() {
		weighted += weights[i] * sim
		total += weights[i]
	}

	score := 100 * weighted / total
	if math.IsNaN(score) {
		score = 0
	}
	return clamp(score, 0, 100), factors, nil
}

// Factors computes every per-factor similarity without weighting
func (s *Scorer) Factors(a, b *ProfileFeatures) *CompatibilityFactors {
	return &CompatibilityFactors{
		Age:         linearSimilarity(float64(a.Age), float64(b.Age), s.cfg.AgeToleranceSpan),
		Distance:    s.distanceSimilarity(a.Location, b.Location),
		Interests:   jaccard(a.Interests, b.Interests),
		College:     tokenSimilarity(a.College, b.College),
		Major:       tokenSimilarity(a.Major, b.Major),
		Year:        yearSimilarity(a.Year, b.Year, s.cfg.YearToleranceSpan),
		Personality: personalitySimilarity(a.Personality, b.Personality),
	}
}

func (s *Scorer) distanceSimilarity(a, b *GeoPoint) float64 {
	if a == nil || b == nil {
		return neutralSimilarity
	}
	return 1 - math.Min(1, haversineDistance(*a, *b)/s.cfg.MaxDistanceNormalizerKm)
}

func linearSimilarity(a, b, span float64) float64 {
	return 1 - math.Min(1, math.Abs(a-b)/span)
}

func yearSimilarity(a, b int, span float64) float64 {
	if a == 0 || b == 0 {
		return neutralSimilarity
	}
	return linearSimilarity(float64(a), float64(b), span)
}

func tokenSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return neutralSimilarity
	}
	if a == b {
		return 1
	}
	return 0
}

// jaccard is 0 when both sets are empty and neutral when only one side has interests
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	if len(a) == 0 || len(b) == 0 {
		return neutralSimilarity
	}

	shared := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			shared++
		}
	}
	union := len(a) + len(b) - shared
	return float64(shared) / float64(union)
}

// personalitySimilarity is the cosine of the trait vectors, centered at the
// scale midpoint, mapped from [-1,1] to [0,1]
func personalitySimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return neutralSimilarity
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := a[i]-0.5, b[i]-0.5
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return neutralSimilarity
	}

	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return clamp((cos+1)/2, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
