package dialog

import (
	"sync"
	"time"
)

// Store хранит диалоговые сессии в памяти, по одной на чат.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[int64]*Session),
		now:      time.Now,
	}
}

// Get возвращает копию сессии; если её нет — пустую в StateIdle.
func (s *Store) Get(chatID int64) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[chatID]; ok {
		return *sess
	}
	return Session{ChatID: chatID, State: StateIdle}
}

func (s *Store) Set(chatID int64, sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.ChatID = chatID
	sess.UpdatedAt = s.now()
	s.sessions[chatID] = &sess
}

func (s *Store) Reset(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, chatID)
}

// PruneIdle удаляет брошенные сессии старше idle и возвращает их число.
func (s *Store) PruneIdle(idle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-idle)
	n := 0
	for chatID, sess := range s.sessions {
		if sess.UpdatedAt.Before(cutoff) {
			delete(s.sessions, chatID)
			n++
		}
	}
	return n
}
