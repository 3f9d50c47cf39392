package dating

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterNilPreferencesOnlyExcludesSelf(t *testing.T) {
	filter := NewPreferenceFilter()
	u := mustFeatures(t, testUser(1, 30), nil)
	v := mustFeatures(t, &User{ID: 2, Age: 80}, nil)

	assert.True(t, filter.Eligible(u, nil, v))
	assert.False(t, filter.Eligible(u, nil, u))
	assert.Equal(t, []Constraint{ConstraintSelf}, filter.Violations(u, nil, u))
}

func TestFilterSelfAlwaysFails(t *testing.T) {
	filter := NewPreferenceFilter()
	u := mustFeatures(t, testUser(1, 22), nil)

	for _, prefs := range []*UserPreferences{nil, {}, {MinAge: 18, MaxAge: 99, MaxDistance: 1000}} {
		assert.False(t, filter.Eligible(u, prefs, u))
	}
}

func TestFilterMissingDataFailsSetConstraint(t *testing.T) {
	filter := NewPreferenceFilter()
	requester := mustFeatures(t, testUser(1, 22), nil)
	bare := mustFeatures(t, &User{ID: 2, Age: 22}, nil)

	tests := []struct {
		name  string
		prefs *UserPreferences
		want  Constraint
	}{
		{"gender", &UserPreferences{PreferredGenders: []string{"female"}}, ConstraintGender},
		{"distance", &UserPreferences{MaxDistance: 10}, ConstraintDistance},
		{"year", &UserPreferences{MinYear: 1}, ConstraintYear},
		{"college", &UserPreferences{CollegePreference: "MIT"}, ConstraintCollege},
		{"major", &UserPreferences{MajorPreference: "Physics"}, ConstraintMajor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, []Constraint{tt.want}, filter.Violations(requester, tt.prefs, bare))
		})
	}

	// a requester without a location cannot satisfy a distance limit either
	nowhere := mustFeatures(t, &User{ID: 3, Age: 22}, nil)
	located := mustFeatures(t, testUser(4, 22), nil)
	assert.False(t, filter.Eligible(nowhere, &UserPreferences{MaxDistance: 10}, located))
}

// violation names one way to break a single constraint
type violation struct {
	constraint Constraint
	apply      func(r *rand.Rand, u *User, prefs *UserPreferences)
}

var violations = []violation{
	{ConstraintAge, func(r *rand.Rand, u *User, p *UserPreferences) { u.Age = p.MaxAge + 1 + r.Intn(5) }},
	{ConstraintAge, func(r *rand.Rand, u *User, p *UserPreferences) { u.Age = p.MinAge - 1 - r.Intn(2) }},
	{ConstraintGender, func(_ *rand.Rand, u *User, _ *UserPreferences) { u.Gender = "male" }},
	{ConstraintGender, func(_ *rand.Rand, u *User, _ *UserPreferences) { u.Gender = "" }},
	{ConstraintDistance, func(r *rand.Rand, u *User, _ *UserPreferences) { u.Latitude = floatPtr(*u.Latitude + 1 + r.Float64()) }},
	{ConstraintDistance, func(_ *rand.Rand, u *User, _ *UserPreferences) { u.Latitude, u.Longitude = nil, nil }},
	{ConstraintYear, func(_ *rand.Rand, u *User, p *UserPreferences) { u.Year = p.MaxYear + 1 }},
	{ConstraintYear, func(_ *rand.Rand, u *User, _ *UserPreferences) { u.Year = 0 }},
	{ConstraintCollege, func(_ *rand.Rand, u *User, _ *UserPreferences) { u.College = "Harvard" }},
	{ConstraintCollege, func(_ *rand.Rand, u *User, _ *UserPreferences) { u.College = "" }},
	{ConstraintMajor, func(_ *rand.Rand, u *User, _ *UserPreferences) { u.Major = "Mathematics" }},
}

func randomPrefs(r *rand.Rand) *UserPreferences {
	minAge := 19 + r.Intn(6)
	minYear := 1 + r.Intn(2)
	return &UserPreferences{
		UserID:            1,
		MinAge:            minAge,
		MaxAge:            minAge + 3 + r.Intn(8),
		PreferredGenders:  []string{"Female", "nonbinary"},
		MaxDistance:       20 + r.Float64()*80,
		CollegePreference: "MIT",
		MajorPreference:   "physics",
		MinYear:           minYear,
		MaxYear:           minYear + 1 + r.Intn(3),
		Weights:           DefaultWeights(),
	}
}

// satisfyingUser meets every constraint of p, with noisy formatting on the tokens
func satisfyingUser(r *rand.Rand, p *UserPreferences) *User {
	genders := []string{"female", " FEMALE", "Nonbinary"}
	return &User{
		ID:        2 + r.Int63n(1000),
		Age:       p.MinAge + r.Intn(p.MaxAge-p.MinAge+1),
		Gender:    genders[r.Intn(len(genders))],
		College:   " mit ",
		Major:     "PHYSICS",
		Year:      p.MinYear + r.Intn(p.MaxYear-p.MinYear+1),
		Latitude:  floatPtr(42.3601 + (r.Float64()-0.5)*0.1),
		Longitude: floatPtr(-71.0942 + (r.Float64()-0.5)*0.1),
	}
}

func TestFilterProperty(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	filter := NewPreferenceFilter()
	requester := mustFeatures(t, testUser(1, 22), nil)

	for i := 0; i < 500; i++ {
		prefs := randomPrefs(r)
		base := satisfyingUser(r, prefs)

		candidate, err := BuildFeatures(base, nil)
		require.NoError(t, err)
		require.True(t, filter.Eligible(requester, prefs, candidate), "iteration %d: %+v", i, base)

		v := violations[r.Intn(len(violations))]
		broken := *base
		v.apply(r, &broken, prefs)
		if broken.Age <= 0 {
			continue
		}

		candidate, err = BuildFeatures(&broken, nil)
		require.NoError(t, err)
		assert.False(t, filter.Eligible(requester, prefs, candidate), "iteration %d: %s", i, v.constraint)
		assert.Equal(t, []Constraint{v.constraint}, filter.Violations(requester, prefs, candidate), "iteration %d", i)
	}
}
