package editor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/khoahotran/portgen/internal/application/service"
	"github.com/khoahotran/portgen/internal/domain/portfolio"
	"github.com/khoahotran/portgen/pkg/apperror"
)

const DefaultIdleTimeout = 30 * time.Minute

// Manager keeps open sessions in memory. A session not touched for the idle
// timeout is dropped along with its unsaved changes.
type Manager struct {
	sessions *cache.Cache
	deps     Deps
}

func NewManager(deps Deps, idleTimeout time.Duration) *Manager {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	c := cache.New(idleTimeout, idleTimeout/2)
	m := &Manager{sessions: c, deps: deps}
	if deps.Logger != nil {
		c.OnEvicted(func(id string, _ interface{}) {
			deps.Logger.Debug("Edit session closed", zap.String("session_id", id))
		})
	}
	return m
}

// Open loads the portfolio for principal. Sessions that fail to load are
// not registered.
func (m *Manager) Open(ctx context.Context, principal service.Principal, portfolioID string) (*Session, error) {
	if principal.UserID == "" {
		return nil, apperror.NewUnauthorized("no session", nil)
	}
	if err := portfolio.ValidateID(portfolioID); err != nil {
		return nil, err
	}

	s := NewSession(uuid.NewString(), portfolioID, principal, m.deps)
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	m.sessions.SetDefault(s.ID(), s)
	return s, nil
}

// Get returns the caller's session and extends its idle deadline.
func (m *Manager) Get(principal service.Principal, sessionID string) (*Session, error) {
	v, ok := m.sessions.Get(sessionID)
	if !ok {
		return nil, apperror.NewNotFound("edit session", sessionID)
	}
	s := v.(*Session)
	if s.OwnerID() != principal.UserID {
		return nil, apperror.NewPermissionDenied("edit session belongs to another user")
	}
	m.sessions.SetDefault(sessionID, s)
	return s, nil
}

func (m *Manager) Close(principal service.Principal, sessionID string) error {
	if _, err := m.Get(principal, sessionID); err != nil {
		return err
	}
	m.sessions.Delete(sessionID)
	return nil
}

// CloseForPortfolio drops every session editing portfolioID, used when the
// portfolio is deleted.
func (m *Manager) CloseForPortfolio(portfolioID string) {
	for id, item := range m.sessions.Items() {
		if s, ok := item.Object.(*Session); ok && s.PortfolioID() == portfolioID {
			m.sessions.Delete(id)
		}
	}
}

func (m *Manager) Count() int {
	return m.sessions.ItemCount()
}
