package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

type Role string

const (
	RoleCandidate Role = "candidate"
	RoleEmployer  Role = "employer"
)

var ErrNoSession = errors.New("not logged in")

// Session is the persisted login state.
type Session struct {
	Token string `json:"token"`
	Role  Role   `json:"role"`
	Email string `json:"email"`
}

func ParseRole(value string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleCandidate:
		return RoleCandidate, nil
	case RoleEmployer:
		return RoleEmployer, nil
	default:
		return "", fmt.Errorf("unknown role %q (expected candidate or employer)", value)
	}
}

// Context is the explicit session handed to every controller.
// The token is read by value at flow start and is never refreshed.
type Context struct {
	mu      sync.RWMutex
	store   *Store
	current *Session
	logger  *zap.Logger
}

// Open loads the persisted session, if any. A missing file yields an empty context.
func Open(store *Store, logger *zap.Logger) (*Context, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	current, err := store.Load()
	if err != nil && !errors.Is(err, ErrNoSession) {
		return nil, err
	}

	return &Context{store: store, current: current, logger: logger}, nil
}

// Token implements platform.TokenSource.
func (c *Context) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return ""
	}
	return c.current.Token
}

func (c *Context) Current() (Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return Session{}, false
	}
	return *c.current, true
}

func (c *Context) Role() Role {
	s, _ := c.Current()
	return s.Role
}

// Begin installs and persists a new session, replacing any previous one.
func (c *Context) Begin(s Session) error {
	s.Token = strings.TrimSpace(s.Token)
	if s.Token == "" {
		return errors.New("session token must not be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Save(&s); err != nil {
		return err
	}
	c.current = &s

	c.logger.Debug("session started", zap.String("role", string(s.Role)), zap.String("email", s.Email))
	return nil
}

// End drops the session from memory and disk. Memory is cleared even if the file removal fails.
func (c *Context) End() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = nil
	if err := c.store.Clear(); err != nil {
		return err
	}

	c.logger.Debug("session cleared")
	return nil
}

// Require returns the current session or ErrNoSession.
func (c *Context) Require(roles ...Role) (Session, error) {
	s, ok := c.Current()
	if !ok {
		return Session{}, ErrNoSession
	}
	if len(roles) == 0 {
		return s, nil
	}
	for _, role := range roles {
		if s.Role == role {
			return s, nil
		}
	}
	return Session{}, fmt.Errorf("logged in as %s, this action needs %v", s.Role, roles)
}
