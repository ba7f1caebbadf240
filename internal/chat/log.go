package chat

import (
	"sync"
	"time"
)

// session holds one conversation's turn history.
type session struct {
	Turns     []Turn
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Log provides in-memory per-session turn storage. Sessions expire after a
// period of inactivity.
type Log struct {
	mu       sync.RWMutex
	sessions map[string]*session
	maxTurns int
	ttl      time.Duration
}

// NewLog creates a turn log. maxTurns caps each session's retained history;
// ttl is the inactivity window after which a session is dropped.
func NewLog(maxTurns int, ttl time.Duration) *Log {
	l := &Log{
		sessions: make(map[string]*session),
		maxTurns: maxTurns,
		ttl:      ttl,
	}
	go l.cleanupLoop()
	return l
}

// DefaultLog creates a log with sensible defaults: 40 retained turns per
// session, one hour of inactivity before expiry.
func DefaultLog() *Log {
	return NewLog(40, time.Hour)
}

// Append adds a turn to the session, creating the session on first use.
func (l *Log) Append(sessionID string, t Turn) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.sessions[sessionID]
	if !ok {
		s = &session{CreatedAt: time.Now()}
		l.sessions[sessionID] = s
	}
	s.Turns = append(s.Turns, t)
	s.UpdatedAt = time.Now()

	if len(s.Turns) > l.maxTurns {
		s.Turns = s.Turns[len(s.Turns)-l.maxTurns:]
	}
}

// History returns a copy of the session's turns, or nil when the session is
// unknown.
func (l *Log) History(sessionID string) []Turn {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s, ok := l.sessions[sessionID]
	if !ok {
		return nil
	}
	turns := make([]Turn, len(s.Turns))
	copy(turns, s.Turns)
	return turns
}

// Remove deletes the first turn whose text matches exactly. It reports
// whether a turn was removed.
func (l *Log) Remove(sessionID, text string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.sessions[sessionID]
	if !ok {
		return false
	}
	for i, t := range s.Turns {
		if t.Text == text {
			s.Turns = append(s.Turns[:i], s.Turns[i+1:]...)
			s.UpdatedAt = time.Now()
			return true
		}
	}
	return false
}

// take removes and returns the turn matched by id, or by exact text when the
// id is empty. The returned index is the turn's former position.
func (l *Log) take(sessionID, id, text string) (Turn, int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.sessions[sessionID]
	if !ok {
		return Turn{}, -1, false
	}
	for i, t := range s.Turns {
		if (id != "" && t.ID == id) || (id == "" && t.Text == text) {
			s.Turns = append(s.Turns[:i], s.Turns[i+1:]...)
			s.UpdatedAt = time.Now()
			return t, i, true
		}
	}
	return Turn{}, -1, false
}

// insert places a turn at position i, clamped to the session's bounds.
func (l *Log) insert(sessionID string, i int, t Turn) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.sessions[sessionID]
	if !ok {
		s = &session{CreatedAt: time.Now()}
		l.sessions[sessionID] = s
	}
	if i < 0 {
		i = 0
	}
	if i > len(s.Turns) {
		i = len(s.Turns)
	}
	s.Turns = append(s.Turns[:i], append([]Turn{t}, s.Turns[i:]...)...)
	s.UpdatedAt = time.Now()
}

// Clear removes a session outright.
func (l *Log) Clear(sessionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.sessions, sessionID)
}

func (l *Log) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		l.cleanup()
	}
}

func (l *Log) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for id, s := range l.sessions {
		if now.Sub(s.UpdatedAt) > l.ttl {
			delete(l.sessions, id)
		}
	}
}
