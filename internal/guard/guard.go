package guard

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/stage-portal/internal/models"
	"github.com/noah-isme/stage-portal/pkg/apierr"
)

// SessionChecker is the slice of the session store the guard consumes.
type SessionChecker interface {
	Current() *models.Session
	CheckSession(ctx context.Context) bool
}

// Navigator receives the guard's routing decisions. The rendering layer
// owns what a redirect means.
type Navigator interface {
	RedirectToLogin()
	AccessDenied()
}

// Guard is the sole client-side authorization checkpoint. The server
// re-enforces authorization on every request independently.
type Guard struct {
	sessions SessionChecker
	nav      Navigator
	logger   *zap.Logger
}

// New constructs a Guard.
func New(sessions SessionChecker, nav Navigator, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{sessions: sessions, nav: nav, logger: logger}
}

// Protect runs fn only when three gates pass in order: an active session
// exists, its role matches, and the server still recognises the identity.
// On any failed gate fn never runs.
func (g *Guard) Protect(ctx context.Context, requiredRole models.Role, fn func(context.Context) error) error {
	current := g.sessions.Current()
	if current == nil {
		g.redirectToLogin()
		return apierr.ErrNotAuthenticated
	}

	if current.Role != requiredRole {
		g.logger.Info("access denied",
			zap.String("required_role", string(requiredRole)),
			zap.String("session_role", string(current.Role)))
		if g.nav != nil {
			g.nav.AccessDenied()
		}
		return apierr.ErrAccessDenied
	}

	if !g.sessions.CheckSession(ctx) {
		g.redirectToLogin()
		return apierr.ErrNotAuthenticated
	}

	return fn(ctx)
}

func (g *Guard) redirectToLogin() {
	if g.nav != nil {
		g.nav.RedirectToLogin()
	}
}
