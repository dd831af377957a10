// Package session holds the explicit session context: who is logged in and
// which theme is active. It is loaded once from the store and passed to the
// commands that need it.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mrz1836/testmo/internal/constants"
	"github.com/mrz1836/testmo/internal/domain"
	testmoerrors "github.com/mrz1836/testmo/internal/errors"
)

// Repository persists the session.
type Repository interface {
	LoadSession(ctx context.Context) (domain.Session, error)
	SaveSession(ctx context.Context, s domain.Session) error
}

// UserLookup resolves a stored username to its current user record.
type UserLookup func(username string) (domain.User, error)

// Context is the current session.
type Context struct {
	mu    sync.RWMutex
	repo  Repository
	user  *domain.User
	theme constants.Theme
}

// Init loads the session. A stored user that no longer exists is treated as
// logged out. defaultTheme applies when no theme was stored.
func Init(ctx context.Context, repo Repository, lookup UserLookup, defaultTheme constants.Theme) (*Context, error) {
	stored, err := repo.LoadSession(ctx)
	if err != nil {
		return nil, testmoerrors.Wrap(err, "failed to load session")
	}

	c := &Context{repo: repo, theme: stored.Theme}
	if c.theme == "" {
		c.theme = defaultTheme
	}
	if c.theme == "" {
		c.theme = constants.ThemeLight
	}

	if stored.Username != "" && lookup != nil {
		u, err := lookup(stored.Username)
		switch {
		case err == nil:
			c.user = &u
		case errors.Is(err, testmoerrors.ErrUserNotFound):
			if err := c.persist(ctx); err != nil {
				return nil, err
			}
		default:
			return nil, err
		}
	}
	return c, nil
}

// User returns the logged-in user.
func (c *Context) User() (domain.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return domain.User{}, false
	}
	return *c.user, true
}

// RequireUser returns the logged-in user or ErrNotLoggedIn.
func (c *Context) RequireUser() (domain.User, error) {
	u, ok := c.User()
	if !ok {
		return domain.User{}, testmoerrors.ErrNotLoggedIn
	}
	return u, nil
}

// Username is the actor name for activity entries, empty when logged out.
func (c *Context) Username() string {
	u, _ := c.User()
	return u.Username
}

// Theme returns the active theme.
func (c *Context) Theme() constants.Theme {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.theme
}

// Login makes u the current user.
func (c *Context) Login(ctx context.Context, u domain.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	pub := u.Public()
	c.user = &pub
	return c.persist(ctx)
}

// Logout clears the current user. The theme is kept.
func (c *Context) Logout(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = nil
	return c.persist(ctx)
}

// ToggleTheme switches between light and dark and returns the new theme.
func (c *Context) ToggleTheme(ctx context.Context) (constants.Theme, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.theme = c.theme.Toggle()
	return c.theme, c.persist(ctx)
}

// SetTheme sets the theme explicitly.
func (c *Context) SetTheme(ctx context.Context, t constants.Theme) error {
	if t != constants.ThemeLight && t != constants.ThemeDark {
		return fmt.Errorf("%w: theme %q", testmoerrors.ErrInvalidArgument, t)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.theme = t
	return c.persist(ctx)
}

// persist must be called with mu held, or before c is shared.
func (c *Context) persist(ctx context.Context) error {
	s := domain.Session{Theme: c.theme}
	if c.user != nil {
		s.Username = c.user.Username
	}
	if err := c.repo.SaveSession(ctx, s); err != nil {
		return testmoerrors.Wrap(err, "failed to save session")
	}
	return nil
}
