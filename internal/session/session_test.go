package session

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/testmo/internal/constants"
	"github.com/mrz1836/testmo/internal/domain"
	testmoerrors "github.com/mrz1836/testmo/internal/errors"
)

type memSession struct {
	s       domain.Session
	saves   int
	loadErr error
}

func (m *memSession) LoadSession(context.Context) (domain.Session, error) { return m.s, m.loadErr }

func (m *memSession) SaveSession(_ context.Context, s domain.Session) error {
	m.saves++
	m.s = s
	return nil
}

func lookup(users ...domain.User) UserLookup {
	return func(username string) (domain.User, error) {
		for _, u := range users {
			if u.Username == username {
				return u, nil
			}
		}
		return domain.User{}, fmt.Errorf("%w: %s", testmoerrors.ErrUserNotFound, username)
	}
}

func TestInit(t *testing.T) {
	t.Parallel()

	alice := domain.User{Username: "alice", Name: "Alice"}

	t.Run("restores stored user and theme", func(t *testing.T) {
		t.Parallel()
		repo := &memSession{s: domain.Session{Username: "alice", Theme: constants.ThemeDark}}
		c, err := Init(context.Background(), repo, lookup(alice), constants.ThemeLight)
		require.NoError(t, err)

		u, ok := c.User()
		require.True(t, ok)
		assert.Equal(t, "Alice", u.Name)
		assert.Equal(t, "alice", c.Username())
		assert.Equal(t, constants.ThemeDark, c.Theme())
	})

	t.Run("empty session uses the default theme", func(t *testing.T) {
		t.Parallel()
		c, err := Init(context.Background(), &memSession{}, lookup(), constants.ThemeDark)
		require.NoError(t, err)
		_, err = c.RequireUser()
		require.ErrorIs(t, err, testmoerrors.ErrNotLoggedIn)
		assert.Equal(t, constants.ThemeDark, c.Theme())
		assert.Empty(t, c.Username())
	})

	t.Run("vanished user is logged out", func(t *testing.T) {
		t.Parallel()
		repo := &memSession{s: domain.Session{Username: "ghost"}}
		c, err := Init(context.Background(), repo, lookup(alice), "")
		require.NoError(t, err)
		_, ok := c.User()
		assert.False(t, ok)
		assert.Empty(t, repo.s.Username)
		assert.Equal(t, constants.ThemeLight, c.Theme())
	})

	t.Run("load error", func(t *testing.T) {
		t.Parallel()
		_, err := Init(context.Background(), &memSession{loadErr: errors.New("io")}, nil, "")
		require.Error(t, err)
	})
}

func TestContext_LoginLogoutTheme(t *testing.T) {
	t.Parallel()

	repo := &memSession{}
	ctx := context.Background()
	c, err := Init(ctx, repo, lookup(), constants.ThemeLight)
	require.NoError(t, err)

	require.NoError(t, c.Login(ctx, domain.User{Username: "bob", PasswordHash: "$2a$"}))
	u, err := c.RequireUser()
	require.NoError(t, err)
	assert.Empty(t, u.PasswordHash)
	assert.Equal(t, "bob", repo.s.Username)

	theme, err := c.ToggleTheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, constants.ThemeDark, theme)
	assert.Equal(t, constants.ThemeDark, repo.s.Theme)

	require.NoError(t, c.Logout(ctx))
	assert.Empty(t, repo.s.Username)
	assert.Equal(t, constants.ThemeDark, repo.s.Theme)

	require.NoError(t, c.SetTheme(ctx, constants.ThemeLight))
	require.ErrorIs(t, c.SetTheme(ctx, "neon"), testmoerrors.ErrInvalidArgument)
	assert.Equal(t, constants.ThemeLight, c.Theme())
}
