package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/anonto42/feedback-loop/backend/internal/auth"
	"github.com/anonto42/feedback-loop/backend/internal/models"
	"github.com/anonto42/feedback-loop/backend/internal/notifications"
	"github.com/anonto42/feedback-loop/backend/internal/prefs"
	"github.com/anonto42/feedback-loop/backend/internal/query"
	"github.com/anonto42/feedback-loop/backend/internal/realtime"
	"github.com/google/uuid"
)

// ErrProfileMissing means the account exists but has no profile row.
var ErrProfileMissing = errors.New("profile not found for user")

// Profiles is the subset of the data gateway the session manager needs.
type Profiles interface {
	CreateProfile(ctx context.Context, userID, handle string, displayName *string) (*models.Profile, error)
	GetProfileByID(ctx context.Context, id string) (*models.Profile, error)
}

// StorageFunc returns the durable preference storage of a user.
type StorageFunc func(userID string) prefs.Storage

type Config struct {
	Provider      auth.Provider
	Tokens        *auth.Tokens
	Profiles      Profiles
	Cache         *query.Client
	Notifications *notifications.Service
	// Feed may be nil, in which case sessions get no live notification updates.
	Feed     realtime.Feed
	Debounce time.Duration
	Storage  StorageFunc
}

// Result is what a successful sign-in or sign-up hands back to the client.
type Result struct {
	Token   string          `json:"token"`
	User    models.Identity `json:"user"`
	Profile *models.Profile `json:"profile"`
	Session *Session        `json:"-"`
}

// Manager owns the live sessions, keyed by the session id carried in the token.
type Manager struct {
	cfg Config
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	revoked  map[string]time.Time // signed-out session ids until their tokens expire
}

func NewManager(cfg Config) *Manager {
	if cfg.Storage == nil {
		cfg.Storage = func(string) prefs.Storage { return prefs.NewMemoryStorage() }
	}
	return &Manager{
		cfg:      cfg,
		now:      time.Now,
		sessions: make(map[string]*Session),
		revoked:  make(map[string]time.Time),
	}
}

// SignUp creates the account and its profile, then opens a session.
func (m *Manager) SignUp(ctx context.Context, req models.SignUpRequest) (*Result, error) {
	id, err := m.cfg.Provider.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	var displayName *string
	if dn := strings.TrimSpace(req.DisplayName); dn != "" {
		displayName = &dn
	}
	handle := strings.ToLower(strings.TrimSpace(req.Handle))
	profile, err := m.cfg.Profiles.CreateProfile(ctx, id.ID, handle, displayName)
	if err != nil {
		return nil, err
	}
	return m.open(ctx, id, profile)
}

// SignIn verifies the credentials, loads the profile and opens a session.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*Result, error) {
	id, err := m.cfg.Provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	profile, err := m.cfg.Profiles.GetProfileByID(ctx, id.ID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		return nil, ErrProfileMissing
	}
	return m.open(ctx, id, profile)
}

func (m *Manager) open(ctx context.Context, id *models.Identity, profile *models.Profile) (*Result, error) {
	sid := uuid.NewString()
	token, err := m.cfg.Tokens.Issue(*id, sid)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	s := m.register(ctx, sid, id)
	m.cfg.Cache.Invalidate(ctx, query.CurrentUserKey(id.ID))
	log.Printf("Session %s opened for %s", sid, id.ID)
	return &Result{Token: token, User: *id, Profile: profile, Session: s}, nil
}

func (m *Manager) build(ctx context.Context, sid string, id *models.Identity) *Session {
	var ctrl *notifications.Controller
	if m.cfg.Feed != nil && m.cfg.Notifications != nil {
		ctrl = notifications.NewController(m.cfg.Feed, m.cfg.Notifications, m.cfg.Debounce)
	}
	return newSession(ctx, sid, id, m.cfg.Storage(id.ID), ctrl, m.now())
}

// register installs a new session under sid, ending any session it replaces.
func (m *Manager) register(ctx context.Context, sid string, id *models.Identity) *Session {
	s := m.build(ctx, sid, id)

	m.mu.Lock()
	old := m.sessions[sid]
	m.sessions[sid] = s
	m.mu.Unlock()

	if old != nil {
		old.end(EventExpired)
	}
	s.start()
	return s
}

// Resolve returns the session named by verified token claims. A valid token whose session is
// not held here, after a restart or on another instance, gets a fresh session for the same id.
func (m *Manager) Resolve(ctx context.Context, claims *models.JwtCustomClaims) (*Session, error) {
	if claims == nil || claims.UserID == "" || claims.SessionID == "" {
		return nil, models.ErrUnauthenticated
	}

	m.mu.Lock()
	s, err := m.lookupLocked(claims)
	m.mu.Unlock()
	if s != nil || err != nil {
		return s, err
	}

	id, err := m.cfg.Provider.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUnauthenticated
		}
		return nil, err
	}
	return m.restore(ctx, claims, id)
}

// lookupLocked returns the live session for claims, nil when none is held, or
// ErrUnauthenticated when the session id was revoked or belongs to another user.
func (m *Manager) lookupLocked(claims *models.JwtCustomClaims) (*Session, error) {
	if _, revoked := m.revoked[claims.SessionID]; revoked {
		return nil, models.ErrUnauthenticated
	}
	s, ok := m.sessions[claims.SessionID]
	if !ok {
		return nil, nil
	}
	if s.UserID() != claims.UserID {
		return nil, models.ErrUnauthenticated
	}
	s.Touch(m.now())
	return s, nil
}

// restore installs a session for claims unless a concurrent request already did, or the
// session was signed out while the user was being looked up. The loser's unstarted session
// is dropped.
func (m *Manager) restore(ctx context.Context, claims *models.JwtCustomClaims, id *models.Identity) (*Session, error) {
	s := m.build(ctx, claims.SessionID, id)

	m.mu.Lock()
	existing, err := m.lookupLocked(claims)
	if existing != nil || err != nil {
		m.mu.Unlock()
		return existing, err
	}
	m.sessions[claims.SessionID] = s
	m.mu.Unlock()

	s.start()
	log.Printf("Session %s restored for %s", claims.SessionID, id.ID)
	return s, nil
}

// SignOut ends the session. The cached current user is cleared before it is invalidated so no
// reader sees the signed-out profile.
func (m *Manager) SignOut(ctx context.Context, s *Session) error {
	userID := s.UserID()
	if userID == "" {
		return models.ErrUnauthenticated
	}
	if err := m.cfg.Provider.SignOut(ctx, userID); err != nil {
		return err
	}

	m.mu.Lock()
	if m.sessions[s.ID] == s {
		delete(m.sessions, s.ID)
	}
	m.revoked[s.ID] = m.now().Add(auth.TokenTTL)
	m.mu.Unlock()
	s.end(EventSignedOut)

	m.cfg.Cache.Set(query.CurrentUserKey(userID), (*models.Profile)(nil))
	m.cfg.Cache.Invalidate(ctx, query.CurrentUserKey(userID))
	log.Printf("Session %s closed for %s", s.ID, userID)
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Prune ends sessions idle for longer than idle. They come back through Resolve if their
// token is still valid.
func (m *Manager) Prune(idle time.Duration) int {
	now := m.now()
	cutoff := now.Add(-idle)
	var stale []*Session

	m.mu.Lock()
	for sid, until := range m.revoked {
		if now.After(until) {
			delete(m.revoked, sid)
		}
	}
	for sid, s := range m.sessions {
		if s.idleSince(cutoff) {
			delete(m.sessions, sid)
			stale = append(stale, s)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.end(EventExpired)
	}
	return len(stale)
}

// RunJanitor prunes idle sessions every interval until ctx is done.
func (m *Manager) RunJanitor(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Prune(idle); n > 0 {
				log.Printf("Pruned %d idle sessions", n)
			}
		}
	}
}

// Close ends every session.
func (m *Manager) Close() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range all {
		s.end(EventExpired)
	}
}
