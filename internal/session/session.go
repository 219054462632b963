package session

import (
	"context"
	"sync"
	"time"

	"github.com/anonto42/feedback-loop/backend/internal/explore"
	"github.com/anonto42/feedback-loop/backend/internal/models"
	"github.com/anonto42/feedback-loop/backend/internal/notifications"
	"github.com/anonto42/feedback-loop/backend/internal/prefs"
)

type EventType int

const (
	EventSignedIn EventType = iota
	EventSignedOut
	EventExpired
)

// Event is an auth-state change of one session.
type Event struct {
	Type     EventType
	Identity *models.Identity
}

// Session is one signed-in browser session: its identity, explore filters, durable preferences
// and live notification subscription.
type Session struct {
	ID string

	identity *models.Identity
	storage  prefs.Storage
	explore  *explore.State
	notif    *notifications.Controller

	mu        sync.Mutex
	closed    bool
	lastSeen  time.Time
	nextID    int
	observers map[int]func(Event)
}

// New returns a session without live notification updates. The manager builds its sessions
// through newSession.
func New(ctx context.Context, id string, identity *models.Identity, storage prefs.Storage) *Session {
	return newSession(ctx, id, identity, storage, nil, time.Now())
}

func newSession(ctx context.Context, id string, identity *models.Identity, storage prefs.Storage, notif *notifications.Controller, now time.Time) *Session {
	return &Session{
		ID:        id,
		identity:  identity,
		storage:   storage,
		explore:   explore.NewState(ctx, storage),
		notif:     notif,
		lastSeen:  now,
		observers: make(map[int]func(Event)),
	}
}

// Identity returns the signed-in user, or nil once the session has ended.
func (s *Session) Identity() *models.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	return s.identity
}

func (s *Session) UserID() string {
	if id := s.Identity(); id != nil {
		return id.ID
	}
	return ""
}

func (s *Session) Explore() *explore.State { return s.explore }

func (s *Session) Storage() prefs.Storage { return s.storage }

// LiveNotifications reports whether the realtime subscription for this session is up.
func (s *Session) LiveNotifications() bool {
	if s.notif == nil {
		return false
	}
	_, live := s.notif.Bound()
	return live
}

// Subscribe registers fn for auth-state changes. The returned function removes it.
func (s *Session) Subscribe(fn func(Event)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

func (s *Session) emit(ev Event) {
	s.mu.Lock()
	obs := make([]func(Event), 0, len(s.observers))
	for _, fn := range s.observers {
		obs = append(obs, fn)
	}
	s.mu.Unlock()
	for _, fn := range obs {
		fn(ev)
	}
}

// Touch marks the session as in use at now. Long-lived streams call it to stay clear of pruning.
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen.Before(cutoff)
}

func (s *Session) start() {
	if s.notif != nil {
		s.notif.Bind(s.identity.ID)
	}
	s.emit(Event{Type: EventSignedIn, Identity: s.identity})
}

// end stops live updates and tells observers why the session is gone. Safe to call twice.
func (s *Session) end(reason EventType) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	if s.notif != nil {
		s.notif.Unbind()
	}
	s.emit(Event{Type: reason, Identity: s.identity})
}

// WelcomeDue reports whether the welcome modal should be shown at now.
func (s *Session) WelcomeDue(ctx context.Context, now time.Time) bool {
	return prefs.ShouldShowWelcome(ctx, s.storage, now)
}

func (s *Session) MarkWelcomeShown(ctx context.Context, now time.Time) {
	prefs.MarkWelcomeShown(ctx, s.storage, now)
}
