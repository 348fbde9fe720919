package conversation

import (
	"sync"
	"time"
)

type sessionEntry struct {
	conversationID uint
	lastAccessed   time.Time
}

// SessionStore remembers the current conversation of each login session. When
// full, the least recently used session is forgotten.
type SessionStore struct {
	lock     sync.Mutex
	sessions map[string]*sessionEntry
	maxSize  int
}

func NewSessionStore(maxSize int) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*sessionEntry, maxSize),
		maxSize:  max(maxSize, 1),
	}
}

func (s *SessionStore) Get(sessionID string) (uint, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	entry, exists := s.sessions[sessionID]
	if !exists {
		return 0, false
	}
	entry.lastAccessed = time.Now()
	return entry.conversationID, true
}

func (s *SessionStore) Set(sessionID string, conversationID uint) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if entry, exists := s.sessions[sessionID]; exists {
		entry.conversationID = conversationID
		entry.lastAccessed = time.Now()
		return
	}

	if len(s.sessions) >= s.maxSize {
		oldestID := ""
		var oldestTime time.Time
		for id, entry := range s.sessions {
			if oldestID == "" || entry.lastAccessed.Before(oldestTime) {
				oldestID = id
				oldestTime = entry.lastAccessed
			}
		}
		delete(s.sessions, oldestID)
	}

	s.sessions[sessionID] = &sessionEntry{
		conversationID: conversationID,
		lastAccessed:   time.Now(),
	}
}

func (s *SessionStore) Clear(sessionID string) {
	s.lock.Lock()
	defer s.lock.Unlock()

	delete(s.sessions, sessionID)
}
