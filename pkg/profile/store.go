package profile

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// DefaultWindow is how many recent context entries reach generation prompts.
// It is also the upper bound: a smaller window may be configured, never a
// larger one.
const DefaultWindow = 5

// Entry is one utterance in a session's conversation context.
type Entry struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Snapshot is the exported state of a session's profile and full history.
type Snapshot struct {
	SessionID string  `json:"session_id"`
	Profile   Profile `json:"profile"`
	History   []Entry `json:"history"`
}

type record struct {
	mu      sync.Mutex
	profile Profile
	history []Entry
}

// Store keeps one profile and context per session. Entries expire after the
// configured idle TTL so abandoned sessions do not leak.
type Store struct {
	cache  *cache.Cache
	window int

	// guards record creation only; merges lock the record itself
	createMu sync.Mutex
}

// NewStore creates a store. ttl <= 0 keeps entries until Delete. window is
// clamped to 1..DefaultWindow, with <= 0 meaning DefaultWindow.
func NewStore(ttl time.Duration, window int) *Store {
	if window <= 0 || window > DefaultWindow {
		window = DefaultWindow
	}
	expiration := ttl
	cleanup := ttl / 6
	if ttl <= 0 {
		expiration = cache.NoExpiration
		cleanup = 0
	}
	return &Store{
		cache:  cache.New(expiration, cleanup),
		window: window,
	}
}

func (s *Store) lookup(sessionID string) (*record, bool) {
	if x, found := s.cache.Get(sessionID); found {
		return x.(*record), true
	}
	return nil, false
}

func (s *Store) loadOrCreate(sessionID string) *record {
	if r, ok := s.lookup(sessionID); ok {
		return r
	}
	s.createMu.Lock()
	defer s.createMu.Unlock()
	if r, ok := s.lookup(sessionID); ok {
		return r
	}
	r := &record{}
	s.cache.Set(sessionID, r, cache.DefaultExpiration)
	return r
}

// Get returns the current profile, empty when the session has none yet.
func (s *Store) Get(sessionID string) Profile {
	r, ok := s.lookup(sessionID)
	if !ok {
		return Profile{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.profile.Clone()
}

// Merge folds partial into the session profile and returns the result.
func (s *Store) Merge(sessionID string, partial Profile) Profile {
	r := s.loadOrCreate(sessionID)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profile = r.profile.Merge(partial)
	s.touch(sessionID, r)
	return r.profile.Clone()
}

// AppendContext records one utterance. The full history is retained.
func (s *Store) AppendContext(sessionID, role, text string) {
	r := s.loadOrCreate(sessionID)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, Entry{Role: role, Content: text, At: time.Now()})
	s.touch(sessionID, r)
}

// Window returns at most the configured number of most recent entries.
func (s *Store) Window(sessionID string) []Entry {
	r, ok := s.lookup(sessionID)
	if !ok {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	start := len(r.history) - s.window
	if start < 0 {
		start = 0
	}
	return append([]Entry(nil), r.history[start:]...)
}

// History returns every recorded entry.
func (s *Store) History(sessionID string) []Entry {
	r, ok := s.lookup(sessionID)
	if !ok {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.history...)
}

// Snapshot exports the session's profile and history.
func (s *Store) Snapshot(sessionID string) Snapshot {
	snap := Snapshot{SessionID: sessionID}
	r, ok := s.lookup(sessionID)
	if !ok {
		return snap
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	snap.Profile = r.profile.Clone()
	snap.History = append([]Entry(nil), r.history...)
	return snap
}

// Reset replaces any state for sessionID with an empty record.
func (s *Store) Reset(sessionID string) {
	s.createMu.Lock()
	defer s.createMu.Unlock()
	s.cache.Set(sessionID, &record{}, cache.DefaultExpiration)
}

// Delete drops all state for sessionID.
func (s *Store) Delete(sessionID string) {
	s.cache.Delete(sessionID)
}

// WindowSize reports how many entries Window returns at most.
func (s *Store) WindowSize() int {
	return s.window
}

// touch refreshes the idle expiration. Caller holds r.mu.
func (s *Store) touch(sessionID string, r *record) {
	if x, found := s.cache.Get(sessionID); found && x.(*record) == r {
		s.cache.Set(sessionID, r, cache.DefaultExpiration)
	}
}
