package dating

import (
	"context"
	"sort"
	"sync"
	"time"
)

// memStore is an in-memory Repository with the same uniqueness rules as the schema
type memStore struct {
	mu sync.Mutex

	users   map[int64]*User
	traits  map[int64]*PersonalityTraits
	prefs   map[int64]*UserPreferences
	likes   map[[2]int64]*UserLike
	matches map[[2]int64]*Match
	cards   map[int64]*ScoreCard
	nextID  int64
	now     func() time.Time

	// injected failures
	insertLikeErr error
	poolErr       error

	scoreCardUpserts int
	poolQueries      int
}

func newMemStore() *memStore {
	return &memStore{
		users:   make(map[int64]*User),
		traits:  make(map[int64]*PersonalityTraits),
		prefs:   make(map[int64]*UserPreferences),
		likes:   make(map[[2]int64]*UserLike),
		matches: make(map[[2]int64]*Match),
		cards:   make(map[int64]*ScoreCard),
		now:     time.Now,
	}
}

func (s *memStore) addUser(u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = s.now()
	}
	s.users[u.ID] = &cp
}

func (s *memStore) setTraits(t *PersonalityTraits) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	cp.UpdatedAt = s.now()
	s.traits[t.UserID] = &cp
}

func (s *memStore) setPrefs(p *UserPreferences) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	cp.UpdatedAt = s.now()
	s.prefs[p.UserID] = &cp
}

func (s *memStore) matchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.matches)
}

func (s *memStore) GetUser(_ context.Context, id int64) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memStore) GetPersonalityTraits(_ context.Context, userID int64) (*PersonalityTraits, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.traits[userID]
	if !ok {
		return nil, ErrTraitsNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *memStore) GetPreferences(_ context.Context, userID int64) (*UserPreferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prefs[userID]
	if !ok {
		return nil, ErrPreferencesNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memStore) QueryCandidatePool(_ context.Context, hints *CandidateHints) ([]*Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.poolQueries++
	if s.poolErr != nil {
		return nil, s.poolErr
	}
	if hints == nil {
		hints = &CandidateHints{}
	}

	ids := make([]int64, 0, len(s.users))
	for id := range s.users {
		if id == hints.ExcludeUserID || id <= hints.AfterUserID {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if hints.Limit > 0 && len(ids) > hints.Limit {
		ids = ids[:hints.Limit]
	}

	pool := make([]*Candidate, 0, len(ids))
	for _, id := range ids {
		cu := *s.users[id]
		c := &Candidate{User: &cu}
		if t, ok := s.traits[id]; ok {
			ct := *t
			c.Traits = &ct
		}
		pool = append(pool, c)
	}
	return pool, nil
}

func (s *memStore) InsertUserLike(_ context.Context, like *UserLike) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertLikeErr != nil {
		return s.insertLikeErr
	}
	if _, ok := s.users[like.SenderID]; !ok {
		return ErrUserNotFound
	}
	if _, ok := s.users[like.ReceiverID]; !ok {
		return ErrUserNotFound
	}

	key := [2]int64{like.SenderID, like.ReceiverID}
	if _, ok := s.likes[key]; ok {
		return ErrDuplicateLike
	}
	s.nextID++
	like.ID = s.nextID
	like.CreatedAt = s.now()
	cp := *like
	s.likes[key] = &cp
	return nil
}

func (s *memStore) FindReciprocalLike(_ context.Context, senderID, receiverID int64) (*UserLike, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	like, ok := s.likes[[2]int64{receiverID, senderID}]
	if !ok {
		return nil, ErrLikeNotFound
	}
	cp := *like
	return &cp, nil
}

func (s *memStore) InsertMatch(_ context.Context, match *Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	match.User1ID, match.User2ID = normalizePair(match.User1ID, match.User2ID)
	key := [2]int64{match.User1ID, match.User2ID}
	if _, ok := s.matches[key]; ok {
		return ErrMatchExists
	}
	s.nextID++
	match.ID = s.nextID
	match.CreatedAt = s.now()
	cp := *match
	s.matches[key] = &cp
	return nil
}

func (s *memStore) FindMatch(_ context.Context, userA, userB int64) (*Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, b := normalizePair(userA, userB)
	m, ok := s.matches[[2]int64{a, b}]
	if !ok {
		return nil, ErrMatchNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *memStore) UpsertScoreCard(_ context.Context, card *ScoreCard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[card.UserID]; !ok {
		return ErrUserNotFound
	}
	cp := *card
	s.cards[card.UserID] = &cp
	s.scoreCardUpserts++
	return nil
}

func (s *memStore) UpsertPreferences(_ context.Context, prefs *UserPreferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[prefs.UserID]; !ok {
		return ErrUserNotFound
	}
	prefs.UpdatedAt = s.now()
	cp := *prefs
	s.prefs[prefs.UserID] = &cp
	return nil
}

func (s *memStore) UpsertPersonalityTraits(_ context.Context, traits *PersonalityTraits) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[traits.UserID]; !ok {
		return ErrUserNotFound
	}
	traits.UpdatedAt = s.now()
	cp := *traits
	s.traits[traits.UserID] = &cp
	return nil
}

func (s *memStore) GetScoreCard(_ context.Context, userID int64) (*ScoreCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[userID]
	if !ok {
		return nil, ErrScoreCardNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *memStore) GetUserMatches(_ context.Context, userID int64) ([]*Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matches := []*Match{}
	for _, m := range s.matches {
		if m.User1ID == userID || m.User2ID == userID {
			cp := *m
			matches = append(matches, &cp)
		}
	}
	return matches, nil
}

func (s *memStore) ListUserIDs(_ context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *memStore) GetEngineStats(_ context.Context) (*EngineStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &EngineStats{
		TotalUsers:   int64(len(s.users)),
		TotalLikes:   int64(len(s.likes)),
		TotalMatches: int64(len(s.matches)),
		ScoreCards:   int64(len(s.cards)),
	}
	for _, m := range s.matches {
		stats.AverageMatchScore += m.Score
	}
	if len(s.matches) > 0 {
		stats.AverageMatchScore /= float64(len(s.matches))
	}
	return stats, nil
}

// memCache is a map-backed ScoreCardCache that records evictions
type memCache struct {
	mu      sync.Mutex
	cards   map[int64]*ScoreCard
	deletes []int64
	hits    int
}

func newMemCache() *memCache {
	return &memCache{cards: make(map[int64]*ScoreCard)}
}

func (c *memCache) Get(_ context.Context, userID int64) (*ScoreCard, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	card, ok := c.cards[userID]
	if !ok {
		return nil, ErrScoreCardNotFound
	}
	c.hits++
	cp := *card
	return &cp, nil
}

func (c *memCache) Set(_ context.Context, card *ScoreCard) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *card
	c.cards[card.UserID] = &cp
	return nil
}

func (c *memCache) Delete(_ context.Context, userID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cards, userID)
	c.deletes = append(c.deletes, userID)
	return nil
}

// recordingListener counts announced matches
type recordingListener struct {
	mu      sync.Mutex
	matches []*Match
}

func (l *recordingListener) MatchCreated(_ context.Context, match *Match) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.matches = append(l.matches, match)
}

func (l *recordingListener) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.matches)
}

// fakeClock advances one millisecond per reading
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Millisecond)
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// Fixture helpers

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

func testUser(id int64, age int, interests ...string) *User {
	return &User{
		ID:        id,
		Email:     "user" + string(rune('a'+id%26)) + "@campus.edu",
		Name:      "User",
		Age:       age,
		Gender:    "female",
		College:   "MIT",
		Major:     "Physics",
		Year:      2,
		Latitude:  floatPtr(42.3601),
		Longitude: floatPtr(-71.0942),
		Interests: interests,
	}
}

func mustFeatures(t interface{ Fatalf(string, ...interface{}) }, u *User, traits *PersonalityTraits) *ProfileFeatures {
	f, err := BuildFeatures(u, traits)
	if err != nil {
		t.Fatalf("build features for %d: %v", u.ID, err)
	}
	return f
}
