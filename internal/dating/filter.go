package dating

// Constraint names a hard preference a candidate can violate
type Constraint string

const (
	ConstraintSelf     Constraint = "self"
	ConstraintAge      Constraint = "age"
	ConstraintGender   Constraint = "gender"
	ConstraintDistance Constraint = "distance"
	ConstraintYear     Constraint = "year"
	ConstraintCollege  Constraint = "college"
	ConstraintMajor    Constraint = "major"
)

// PreferenceFilter applies a requester's hard constraints to a candidate.
// A constraint that is set but cannot be evaluated for lack of data fails.
type PreferenceFilter struct{}

func NewPreferenceFilter() PreferenceFilter {
	return PreferenceFilter{}
}

// Eligible reports whether candidate passes every constraint
func (f PreferenceFilter) Eligible(requester *ProfileFeatures, prefs *UserPreferences, candidate *ProfileFeatures) bool {
	return len(f.Violations(requester, prefs, candidate)) == 0
}

// Violations lists every constraint candidate fails. Nil prefs only exclude self.
func (f PreferenceFilter) Violations(requester *ProfileFeatures, prefs *UserPreferences, candidate *ProfileFeatures) []Constraint {
	var failed []Constraint

	if requester.UserID == candidate.UserID {
		failed = append(failed, ConstraintSelf)
	}
	if prefs == nil {
		return failed
	}

	if (prefs.MinAge > 0 && candidate.Age < prefs.MinAge) ||
		(prefs.MaxAge > 0 && candidate.Age > prefs.MaxAge) {
		failed = append(failed, ConstraintAge)
	}

	if len(prefs.PreferredGenders) > 0 && !genderAllowed(prefs.PreferredGenders, candidate.Gender) {
		failed = append(failed, ConstraintGender)
	}

	if prefs.MaxDistance > 0 {
		if requester.Location == nil || candidate.Location == nil ||
			haversineDistance(*requester.Location, *candidate.Location) > prefs.MaxDistance {
			failed = append(failed, ConstraintDistance)
		}
	}

	if prefs.MinYear > 0 || prefs.MaxYear > 0 {
		if candidate.Year == 0 ||
			(prefs.MinYear > 0 && candidate.Year < prefs.MinYear) ||
			(prefs.MaxYear > 0 && candidate.Year > prefs.MaxYear) {
			failed = append(failed, ConstraintYear)
		}
	}

	if !tokenMatches(prefs.CollegePreference, candidate.College) {
		failed = append(failed, ConstraintCollege)
	}
	if !tokenMatches(prefs.MajorPreference, candidate.Major) {
		failed = append(failed, ConstraintMajor)
	}

	return failed
}

func genderAllowed(preferred []string, gender string) bool {
	if gender == "" {
		return false
	}
	for _, g := range preferred {
		if normalizeToken(g) == gender {
			return true
		}
	}
	return false
}

// tokenMatches treats an empty preference as satisfied
func tokenMatches(preference, value string) bool {
	want := normalizeToken(preference)
	if want == "" {
		return true
	}
	return value != "" && value == want
}
