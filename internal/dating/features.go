package dating

import (
	"fmt"
	"math"
	"strings"
)

// traitNames indexes ProfileFeatures.Personality
var traitNames = [5]string{"extroversion", "openness", "conscientiousness", "agreeableness", "neuroticism"}

// ProfileFeatures is the normalized, comparable view of one user. Treat as immutable.
type ProfileFeatures struct {
	UserID    int64
	Age       int
	Gender    string
	College   string
	Major     string
	Year      int
	Location  *GeoPoint
	Interests map[string]struct{}

	// Personality holds the five traits scaled to [0,1], or nil without an assessment
	Personality []float64
}

// BuildFeatures normalizes a user row and its optional traits
func BuildFeatures(user *User, traits *PersonalityTraits) (*ProfileFeatures, error) {
	if user == nil {
		return nil, fmt.Errorf("%w: nil user", ErrInvalidProfile)
	}
	if user.Age <= 0 {
		return nil, fmt.Errorf("%w: user %d has age %d", ErrInvalidProfile, user.ID, user.Age)
	}
	if user.Year < 0 {
		return nil, fmt.Errorf("%w: user %d has year %d", ErrInvalidProfile, user.ID, user.Year)
	}

	location, err := buildLocation(user)
	if err != nil {
		return nil, err
	}

	f := &ProfileFeatures{
		UserID:    user.ID,
		Age:       user.Age,
		Gender:    normalizeToken(user.Gender),
		College:   normalizeToken(user.College),
		Major:     normalizeToken(user.Major),
		Year:      user.Year,
		Location:  location,
		Interests: make(map[string]struct{}, len(user.Interests)),
	}

	for _, interest := range user.Interests {
		if tok := normalizeToken(interest); tok != "" {
			f.Interests[tok] = struct{}{}
		}
	}

	if traits != nil {
		vector, err := personalityVector(traits)
		if err != nil {
			return nil, fmt.Errorf("user %d: %w", user.ID, err)
		}
		f.Personality = vector
	}

	return f, nil
}

func buildLocation(user *User) (*GeoPoint, error) {
	if user.Latitude == nil && user.Longitude == nil {
		return nil, nil
	}
	if user.Latitude == nil || user.Longitude == nil {
		return nil, fmt.Errorf("%w: user %d has a partial location", ErrInvalidProfile, user.ID)
	}

	lat, lng := *user.Latitude, *user.Longitude
	if math.IsNaN(lat) || math.IsNaN(lng) || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, fmt.Errorf("%w: user %d has coordinates (%v, %v)", ErrInvalidProfile, user.ID, lat, lng)
	}
	return &GeoPoint{Lat: lat, Lng: lng}, nil
}

func personalityVector(t *PersonalityTraits) ([]float64, error) {
	raw := traitValues(t)
	vector := make([]float64, len(raw))
	for i, v := range raw {
		if v < 0 || v > TraitScaleMax {
			return nil, fmt.Errorf("%w: %s %d outside [0,%d]", ErrInvalidProfile, traitNames[i], v, TraitScaleMax)
		}
		vector[i] = float64(v) / TraitScaleMax
	}
	return vector, nil
}

func traitValues(t *PersonalityTraits) [5]int {
	return [5]int{t.Extroversion, t.Openness, t.Conscientiousness, t.Agreeableness, t.Neuroticism}
}

// PersonalityLabel names the dominant trait, or "" without traits. Ties go to the earlier trait.
func PersonalityLabel(t *PersonalityTraits) string {
	if t == nil {
		return ""
	}
	values := traitValues(t)
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return traitNames[best]
}

// normalizeToken lower-cases, trims and collapses inner whitespace
func normalizeToken(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
