// internal/dating/dto.go
package dating

import "time"

// DTOs for API requests/responses

type LikeDTO struct {
	ReceiverID int64 `json:"receiver_id" validate:"required,gt=0"`
}

type WeightsDTO struct {
	Age         *float64 `json:"age" validate:"omitempty,gte=0,lte=1000"`
	Distance    *float64 `json:"distance" validate:"omitempty,gte=0,lte=1000"`
	Interests   *float64 `json:"interests" validate:"omitempty,gte=0,lte=1000"`
	College     *float64 `json:"college" validate:"omitempty,gte=0,lte=1000"`
	Major       *float64 `json:"major" validate:"omitempty,gte=0,lte=1000"`
	Year        *float64 `json:"year" validate:"omitempty,gte=0,lte=1000"`
	Personality *float64 `json:"personality" validate:"omitempty,gte=0,lte=1000"`
}

// toWeights fills omitted factors from DefaultWeights
func (d *WeightsDTO) toWeights() Weights {
	w := DefaultWeights()
	if d == nil {
		return w
	}

	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	set(&w.AgeWeight, d.Age)
	set(&w.DistanceWeight, d.Distance)
	set(&w.InterestsWeight, d.Interests)
	set(&w.CollegeWeight, d.College)
	set(&w.MajorWeight, d.Major)
	set(&w.YearWeight, d.Year)
	set(&w.PersonalityWeight, d.Personality)
	return w
}

// UpdatePreferencesDTO: zero or empty fields mean "no constraint"
type UpdatePreferencesDTO struct {
	MinAge            int         `json:"min_age" validate:"omitempty,min=18,max=120"`
	MaxAge            int         `json:"max_age" validate:"omitempty,min=18,max=120,gtefield=MinAge"`
	PreferredGenders  []string    `json:"preferred_genders" validate:"omitempty,max=10,dive,required,max=32"`
	MaxDistance       float64     `json:"max_distance" validate:"gte=0,lte=20000"`
	CollegePreference string      `json:"college_preference" validate:"max=128"`
	MajorPreference   string      `json:"major_preference" validate:"max=128"`
	MinYear           int         `json:"min_year" validate:"omitempty,min=1,max=10"`
	MaxYear           int         `json:"max_year" validate:"omitempty,min=1,max=10,gtefield=MinYear"`
	Weights           *WeightsDTO `json:"weights"`
}

func (d *UpdatePreferencesDTO) toPreferences(userID int64) *UserPreferences {
	return &UserPreferences{
		UserID:            userID,
		MinAge:            d.MinAge,
		MaxAge:            d.MaxAge,
		PreferredGenders:  d.PreferredGenders,
		MaxDistance:       d.MaxDistance,
		CollegePreference: d.CollegePreference,
		MajorPreference:   d.MajorPreference,
		MinYear:           d.MinYear,
		MaxYear:           d.MaxYear,
		Weights:           d.Weights.toWeights(),
	}
}

type UpdatePersonalityDTO struct {
	Extroversion      *int `json:"extroversion" validate:"required,min=0,max=100"`
	Openness          *int `json:"openness" validate:"required,min=0,max=100"`
	Conscientiousness *int `json:"conscientiousness" validate:"required,min=0,max=100"`
	Agreeableness     *int `json:"agreeableness" validate:"required,min=0,max=100"`
	Neuroticism       *int `json:"neuroticism" validate:"required,min=0,max=100"`
}

func (d *UpdatePersonalityDTO) toTraits(userID int64) *PersonalityTraits {
	return &PersonalityTraits{
		UserID:            userID,
		Extroversion:      *d.Extroversion,
		Openness:          *d.Openness,
		Conscientiousness: *d.Conscientiousness,
		Agreeableness:     *d.Agreeableness,
		Neuroticism:       *d.Neuroticism,
	}
}

// CompatibilityReport scores a pair from both sides
type CompatibilityReport struct {
	UserID        int64                 `json:"user_id"`
	OtherUserID   int64                 `json:"other_user_id"`
	Score         float64               `json:"score"`
	ScoreForUser  float64               `json:"score_for_user"`
	ScoreForOther float64               `json:"score_for_other"`
	Factors       *CompatibilityFactors `json:"factors"`
	Eligible      bool                  `json:"eligible"`
	Violations    []Constraint          `json:"violations,omitempty"`
}

// MatchView is a match as seen by one of its two users
type MatchView struct {
	ID            int64     `json:"id"`
	MatchedUserID int64     `json:"matched_user_id"`
	Score         float64   `json:"score"`
	CreatedAt     time.Time `json:"created_at"`
}

func toMatchViews(userID int64, matches []*Match) []*MatchView {
	views := make([]*MatchView, 0, len(matches))
	for _, m := range matches {
		views = append(views, &MatchView{
			ID:            m.ID,
			MatchedUserID: m.OtherUser(userID),
			Score:         m.Score,
			CreatedAt:     m.CreatedAt,
		})
	}
	return views
}
