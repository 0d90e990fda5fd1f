// internal/infrastructure/persistence/in_memory_storage/session_store.go
package storage

import (
	"sync"
)

// Session - диалог одной сессии.
// Append/Restore/TrimHistory/Len/Turns вызываются только под Lock.
type Session struct {
	sync.Mutex
	ID    string
	turns []Turn
}

// Len - число сообщений
func (s *Session) Len() int {
	return len(s.turns)
}

// Append добавляет сообщение в конец
func (s *Session) Append(turn Turn) {
	s.turns = append(s.turns, turn)
}

// Restore заменяет диалог снимком, полученным ранее через Turns
func (s *Session) Restore(turns []Turn) {
	s.turns = make([]Turn, len(turns))
	copy(s.turns, turns)
}

// TrimHistory оставляет первое сообщение и последние 2*maxPairs остальных
func (s *Session) TrimHistory(maxPairs int) {
	if len(s.turns) == 0 {
		return
	}
	keep := 2 * maxPairs
	rest := s.turns[1:]
	if len(rest) <= keep {
		return
	}

	trimmed := make([]Turn, 0, keep+1)
	trimmed = append(trimmed, s.turns[0])
	trimmed = append(trimmed, rest[len(rest)-keep:]...)
	s.turns = trimmed
}

// Turns возвращает копию сообщений
func (s *Session) Turns() []Turn {
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// SessionStore - диалоги по идентификатору сессии
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionStore создает пустое хранилище сессий
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session)}
}

// Session возвращает сессию, создавая ее при первом обращении
func (st *SessionStore) Session(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		s = &Session{ID: id}
		st.sessions[id] = s
	}
	return s
}

// Transcript возвращает копию диалога сессии (nil если сессии нет)
func (st *SessionStore) Transcript(id string) []Turn {
	st.mu.Lock()
	s, ok := st.sessions[id]
	st.mu.Unlock()
	if !ok {
		return nil
	}

	s.Lock()
	defer s.Unlock()
	return s.Turns()
}

// Count - число сессий
func (st *SessionStore) Count() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
