package session

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/stage-portal/internal/models"
	"github.com/noah-isme/stage-portal/pkg/apierr"
)

// Event is the cross-component notification emitted on session changes.
type Event string

const (
	EventLogin  Event = "login"
	EventLogout Event = "logout"
)

// Gateway is the slice of the API client the store needs.
type Gateway interface {
	Login(ctx context.Context, email, password string) (*models.Session, error)
	GetUser(ctx context.Context, id int) (*models.User, error)
}

// Backend persists the session across process restarts.
type Backend interface {
	Load(ctx context.Context) (*models.Session, error)
	Save(ctx context.Context, s *models.Session) error
	Clear(ctx context.Context) error
}

// Store owns the authenticated session and its credential token. All other
// components read it through Current/Token; only Login, Logout and a failed
// CheckSession ever write it.
type Store struct {
	mu      sync.Mutex
	current *models.Session

	backend Backend
	gw      Gateway
	logger  *zap.Logger
	now     func() time.Time

	subMu       sync.Mutex
	subscribers []func(Event)
}

// Params groups constructor dependencies.
type Params struct {
	Backend Backend
	Logger  *zap.Logger
}

// NewStore constructs a Store; call Use to bind the gateway once it exists
// (the gateway in turn reads this store as its token source).
func NewStore(params Params) *Store {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		backend: params.Backend,
		logger:  logger,
		now:     time.Now,
	}
}

// Use binds the remote gateway.
func (s *Store) Use(gw Gateway) {
	s.gw = gw
}

// Subscribe registers a listener for login/logout events. Listeners run
// synchronously, outside the state lock, in registration order.
func (s *Store) Subscribe(fn func(Event)) {
	if fn == nil {
		return
	}
	s.subMu.Lock()
	s.subscribers = append(s.subscribers, fn)
	s.subMu.Unlock()
}

func (s *Store) emit(event Event) {
	s.subMu.Lock()
	listeners := make([]func(Event), len(s.subscribers))
	copy(listeners, s.subscribers)
	s.subMu.Unlock()
	for _, fn := range listeners {
		fn(event)
	}
}

// Restore loads a previously persisted session. Invalid persisted state is
// discarded rather than trusted.
func (s *Store) Restore(ctx context.Context) {
	if s.backend == nil {
		return
	}
	persisted, err := s.backend.Load(ctx)
	if err != nil {
		s.logger.Warn("session restore failed", zap.Error(err))
		return
	}
	if persisted == nil {
		return
	}
	if !persisted.Valid() {
		s.logger.Warn("discarding invalid persisted session")
		if err := s.backend.Clear(ctx); err != nil {
			s.logger.Warn("session clear failed", zap.Error(err))
		}
		return
	}
	s.mu.Lock()
	s.current = persisted
	s.mu.Unlock()
}

// Login exchanges credentials for a session, replacing any existing one.
func (s *Store) Login(ctx context.Context, email, password string) (*models.Session, error) {
	if s.gw == nil {
		return nil, apierr.New(apierr.KindUnknown, 0, "session store has no gateway")
	}
	sess, err := s.gw.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()

	if s.backend != nil {
		if err := s.backend.Save(ctx, sess); err != nil {
			s.logger.Warn("session persist failed", zap.Error(err))
		}
	}

	s.emit(EventLogin)
	copied := *sess
	return &copied, nil
}

// Logout clears the session locally. It always succeeds and is idempotent.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	hadSession := s.current != nil
	s.current = nil
	s.mu.Unlock()

	if s.backend != nil {
		if err := s.backend.Clear(ctx); err != nil {
			s.logger.Warn("session clear failed", zap.Error(err))
		}
	}

	if hadSession {
		s.emit(EventLogout)
	}
}

// Current returns a copy of the active session, or nil.
func (s *Store) Current() *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	copied := *s.current
	return &copied
}

// IsAuthenticated reports whether a session is active.
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// Token implements gateway.TokenSource.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}

// HandleAuthFailure clears the session when err reports that the server no
// longer accepts the credentials. Any command can pass its error here; only
// an unauthorized classification with an active session triggers the forced
// logout. Returns true when a logout happened.
func (s *Store) HandleAuthFailure(ctx context.Context, err error) bool {
	if !apierr.Is(err, apierr.KindUnauthorized) {
		return false
	}
	s.mu.Lock()
	active := s.current != nil
	s.mu.Unlock()
	if !active {
		return false
	}
	s.logger.Info("server rejected credentials, clearing session")
	s.Logout(ctx)
	return true
}

// CheckSession re-validates the cached identity against the server. Any
// mismatch or failure clears the session and returns false.
func (s *Store) CheckSession(ctx context.Context) bool {
	current := s.Current()
	if current == nil {
		return false
	}

	if s.tokenExpired(current.Token) {
		s.logger.Info("cached token expired", zap.Int("user_id", current.UserID))
		s.Logout(ctx)
		return false
	}

	if s.gw == nil {
		s.Logout(ctx)
		return false
	}
	user, err := s.gw.GetUser(ctx, current.UserID)
	if err != nil || user == nil || user.ID != current.UserID {
		if err != nil {
			s.logger.Info("session check failed", zap.Error(err))
		}
		s.Logout(ctx)
		return false
	}
	return true
}

// tokenExpired peeks at the token's exp claim without verifying the
// signature; verification is the server's job. Opaque tokens pass through.
func (s *Store) tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(s.now())
}
