package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	model "github.com/greenpaw/ecobuddies/backend/internal/model/session"
)

var (
	// ErrSessionNotFound reports an unknown or expired session ID.
	ErrSessionNotFound = errors.New("session not found")
)

const startingHappiness = 50

// Service owns every active visit's session. Each session has exactly one
// writer at a time: all mutation funnels through Update, which holds the
// store lock for the duration of the in-memory transition.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session
}

// NewService bootstraps the in-memory session store.
func NewService() *Service {
	return &Service{
		sessions: make(map[string]*model.Session),
	}
}

// CreateSession provisions a fresh visit on the intro screen.
func (s *Service) CreateSession(_ context.Context) (model.Session, error) {
	sess := &model.Session{
		ID:             uuid.NewString(),
		CreatedAt:      time.Now().UTC(),
		Screen:         model.ScreenIntro,
		Happiness:      startingHappiness,
		CompletedTasks: make([]string, 0, 8),
		ChatHistory:    make([]model.ChatMessage, 0, 16),
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return sess.Clone(), nil
}

// Get returns a snapshot of the session for rendering.
func (s *Service) Get(_ context.Context, sessionID string) (model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return model.Session{}, ErrSessionNotFound
	}
	return sess.Clone(), nil
}

// Update applies fn to the live session under the store lock. If fn returns
// an error the caller is expected to have left the session untouched.
func (s *Service) Update(_ context.Context, sessionID string, fn func(*model.Session) error) (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return model.Session{}, ErrSessionNotFound
	}
	if err := fn(sess); err != nil {
		return model.Session{}, err
	}
	return sess.Clone(), nil
}

// Delete discards a finished visit.
func (s *Service) Delete(_ context.Context, sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}
