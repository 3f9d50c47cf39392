package dating

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// TraitScaleMax is the upper bound of every personality trait score
const TraitScaleMax = 100

type User struct {
	ID        int64          `json:"id" db:"id"`
	Email     string         `json:"email" db:"email"`
	Name      string         `json:"name" db:"name"`
	Age       int            `json:"age" db:"age"`
	Gender    string         `json:"gender" db:"gender"`
	College   string         `json:"college" db:"college"`
	Major     string         `json:"major" db:"major"`
	Year      int            `json:"year" db:"year"`
	Latitude  *float64       `json:"latitude,omitempty" db:"latitude"`
	Longitude *float64       `json:"longitude,omitempty" db:"longitude"`
	Interests pq.StringArray `json:"interests" db:"interests"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}

type PersonalityTraits struct {
	UserID            int64     `json:"user_id" db:"user_id"`
	Extroversion      int       `json:"extroversion" db:"extroversion"`
	Openness          int       `json:"openness" db:"openness"`
	Conscientiousness int       `json:"conscientiousness" db:"conscientiousness"`
	Agreeableness     int       `json:"agreeableness" db:"agreeableness"`
	Neuroticism       int       `json:"neuroticism" db:"neuroticism"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// Weights are the per-factor importance a user assigns. They need not sum to 1.
type Weights struct {
	AgeWeight         float64 `json:"age_weight" db:"age_weight"`
	DistanceWeight    float64 `json:"distance_weight" db:"distance_weight"`
	InterestsWeight   float64 `json:"interests_weight" db:"interests_weight"`
	CollegeWeight     float64 `json:"college_weight" db:"college_weight"`
	MajorWeight       float64 `json:"major_weight" db:"major_weight"`
	YearWeight        float64 `json:"year_weight" db:"year_weight"`
	PersonalityWeight float64 `json:"personality_weight" db:"personality_weight"`
}

// UserPreferences holds hard filters plus scoring weights.
// A zero bound or empty string/list means "no constraint".
type UserPreferences struct {
	UserID            int64          `json:"user_id" db:"user_id"`
	MinAge            int            `json:"min_age" db:"min_age"`
	MaxAge            int            `json:"max_age" db:"max_age"`
	PreferredGenders  pq.StringArray `json:"preferred_genders" db:"preferred_genders"`
	MaxDistance       float64        `json:"max_distance" db:"max_distance"`
	CollegePreference string         `json:"college_preference" db:"college_preference"`
	MajorPreference   string         `json:"major_preference" db:"major_preference"`
	MinYear           int            `json:"min_year" db:"min_year"`
	MaxYear           int            `json:"max_year" db:"max_year"`
	Weights
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ScoreCard is a denormalized snapshot of a user's matchability. Never the source of truth.
type ScoreCard struct {
	UserID           int64           `json:"user_id" db:"user_id"`
	College          string          `json:"college" db:"college"`
	Major            string          `json:"major" db:"major"`
	Year             int             `json:"year" db:"year"`
	Latitude         *float64        `json:"latitude,omitempty" db:"latitude"`
	Longitude        *float64        `json:"longitude,omitempty" db:"longitude"`
	Interests        pq.StringArray  `json:"interests" db:"interests"`
	Preferences      json.RawMessage `json:"preferences" db:"preferences"`
	PersonalityLabel string          `json:"personality_label" db:"personality_label"`
	Score            float64         `json:"score" db:"score"`
	ComputedAt       time.Time       `json:"computed_at" db:"computed_at"`
}

type UserLike struct {
	ID         int64     `json:"id" db:"id"`
	SenderID   int64     `json:"sender_id" db:"sender_id"`
	ReceiverID int64     `json:"receiver_id" db:"receiver_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Match is stored with User1ID < User2ID
type Match struct {
	ID        int64     `json:"id" db:"id"`
	User1ID   int64     `json:"user1_id" db:"user1_id"`
	User2ID   int64     `json:"user2_id" db:"user2_id"`
	Score     float64   `json:"score" db:"score"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// OtherUser returns the id of the pair member that is not userID
func (m *Match) OtherUser(userID int64) int64 {
	if m.User1ID == userID {
		return m.User2ID
	}
	return m.User1ID
}

type LikeStatus string

const (
	LikePending LikeStatus = "pending"
	LikeMatched LikeStatus = "matched"
)

type LikeOutcome struct {
	Status LikeStatus `json:"status"`
	Match  *Match     `json:"match,omitempty"`
}

// Candidate is a pool entry: the profile plus its traits when the user has taken the assessment
type Candidate struct {
	User   *User
	Traits *PersonalityTraits
}

// CandidateHints lets storage pre-filter the pool on indexed columns.
// Pages are ordered by id; AfterUserID is the keyset cursor and Limit the page size.
type CandidateHints struct {
	ExcludeUserID int64
	AfterUserID   int64
	MinAge        int
	MaxAge        int
	Genders       []string
	Limit         int
}

type ScoredCandidate struct {
	UserID  int64                 `json:"user_id"`
	User    *User                 `json:"user"`
	Score   float64               `json:"score"`
	Factors *CompatibilityFactors `json:"factors"`
}

// CompatibilityFactors are the per-factor similarities, each in [0,1]
type CompatibilityFactors struct {
	Age         float64 `json:"age"`
	Distance    float64 `json:"distance"`
	Interests   float64 `json:"interests"`
	College     float64 `json:"college"`
	Major       float64 `json:"major"`
	Year        float64 `json:"year"`
	Personality float64 `json:"personality"`
}

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// EngineStats summarizes matching activity for operators
type EngineStats struct {
	TotalUsers        int64     `json:"total_users" db:"total_users"`
	TotalLikes        int64     `json:"total_likes" db:"total_likes"`
	TotalMatches      int64     `json:"total_matches" db:"total_matches"`
	AverageMatchScore float64   `json:"average_match_score" db:"average_match_score"`
	ScoreCards        int64     `json:"score_cards" db:"score_cards"`
	LastUpdated       time.Time `json:"last_updated"`
}
