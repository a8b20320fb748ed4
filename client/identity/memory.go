package identity

import "sync"

// MemoryStore is a Store that lives for the duration of the process.
// It backs sessions where durable persistence is unavailable.
type MemoryStore struct {
	lock       sync.Mutex
	activeGame string
	token      string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) ActiveGame() (string, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.activeGame, s.activeGame != ""
}

func (s *MemoryStore) SetActiveGame(id string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.activeGame = id
}

func (s *MemoryStore) ClientToken() (string, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.token, s.token != ""
}

func (s *MemoryStore) SetClientToken(token string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.token = token
}

// MemoryLocator is a Locator seeded from an explicit startup value,
// the stand-in for a URL query parameter in headless runs.
type MemoryLocator struct {
	lock       sync.Mutex
	activeGame string
}

func NewMemoryLocator(initial string) *MemoryLocator {
	return &MemoryLocator{activeGame: initial}
}

func (l *MemoryLocator) ActiveGame() (string, bool) {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.activeGame, l.activeGame != ""
}

func (l *MemoryLocator) SetActiveGame(id string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.activeGame = id
}
