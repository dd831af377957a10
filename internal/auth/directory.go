// Package auth is the local user directory: a KV-backed user list with bcrypt
// credentials, a bootstrap administrator that cannot be removed, and login
// auditing through the activity journal.
package auth

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/mrz1836/testmo/internal/activity"
	"github.com/mrz1836/testmo/internal/constants"
	"github.com/mrz1836/testmo/internal/domain"
	testmoerrors "github.com/mrz1836/testmo/internal/errors"
)

// DefaultBootstrapPassword is the initial administrator password.
const DefaultBootstrapPassword = "password"

const (
	adminName  = "Administrator"
	adminColor = "#0ea5e9"
)

// Repository persists the user list.
type Repository interface {
	LoadUsers(ctx context.Context) ([]domain.User, error)
	SaveUsers(ctx context.Context, users []domain.User) error
}

// Directory manages users. It is safe for concurrent use.
type Directory struct {
	mu                sync.Mutex
	repo              Repository
	journal           *activity.Journal
	users             []domain.User
	cost              int
	bootstrapPassword string
	logger            zerolog.Logger
}

// Option configures a Directory.
type Option func(*Directory)

// WithBcryptCost sets the bcrypt work factor for new hashes.
func WithBcryptCost(cost int) Option {
	return func(d *Directory) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			d.cost = cost
		}
	}
}

// WithBootstrapPassword sets the password given to the bootstrap administrator.
func WithBootstrapPassword(pw string) Option {
	return func(d *Directory) {
		if pw != "" {
			d.bootstrapPassword = pw
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Directory) { d.logger = l }
}

// NewDirectory creates a directory over repo. journal may be nil.
func NewDirectory(repo Repository, journal *activity.Journal, opts ...Option) *Directory {
	d := &Directory{
		repo:              repo,
		journal:           journal,
		cost:              constants.DefaultBcryptCost,
		bootstrapPassword: DefaultBootstrapPassword,
		logger:            zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Load reads the user list and creates the administrator when it is missing.
func (d *Directory) Load(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	users, err := d.repo.LoadUsers(ctx)
	if err != nil {
		return testmoerrors.Wrap(err, "failed to load users")
	}
	d.users = users

	if d.indexOf(constants.AdminUsername) >= 0 {
		return nil
	}
	hash, err := d.hash(d.bootstrapPassword)
	if err != nil {
		return err
	}
	d.users = append([]domain.User{{
		Username:     constants.AdminUsername,
		Name:         adminName,
		Role:         constants.RoleAdmin,
		Initials:     "AD",
		Color:        adminColor,
		PasswordHash: hash,
	}}, d.users...)
	d.logger.Info().Str("username", constants.AdminUsername).Msg("created bootstrap administrator")
	return d.save(ctx)
}

// Users returns every user without credentials.
func (d *Directory) Users() []domain.User {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]domain.User, len(d.users))
	for i, u := range d.users {
		out[i] = u.Public()
	}
	return out
}

// Get returns one user without credentials. Usernames match case-insensitively.
func (d *Directory) Get(username string) (domain.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	i := d.indexOf(username)
	if i < 0 {
		return domain.User{}, fmt.Errorf("%w: %s", testmoerrors.ErrUserNotFound, username)
	}
	return d.users[i].Public(), nil
}

// Add creates a user. Role defaults to Tester; initials and color are derived
// when empty.
func (d *Directory) Add(ctx context.Context, u domain.User, password string) (domain.User, error) {
	u.Username = strings.TrimSpace(u.Username)
	u.Name = strings.TrimSpace(u.Name)
	if u.Username == "" {
		return domain.User{}, fmt.Errorf("username %w", testmoerrors.ErrEmptyValue)
	}
	if password == "" {
		return domain.User{}, fmt.Errorf("password %w", testmoerrors.ErrEmptyValue)
	}
	if u.Name == "" {
		u.Name = u.Username
	}
	if u.Role == "" {
		u.Role = constants.RoleTester
	}
	if !u.Role.IsValid() {
		return domain.User{}, fmt.Errorf("%w: role %q", testmoerrors.ErrInvalidArgument, u.Role)
	}
	if u.Initials == "" {
		u.Initials = domain.InitialsFor(u.Name)
	}
	if u.Color == "" {
		u.Color = fmt.Sprintf("#%06x", rand.IntN(0x1000000)) //nolint:gosec // avatar color only
	}

	hash, err := d.hash(password)
	if err != nil {
		return domain.User{}, err
	}
	u.PasswordHash = hash

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.indexOf(u.Username) >= 0 {
		return domain.User{}, fmt.Errorf("%w: %s", testmoerrors.ErrUserExists, u.Username)
	}
	d.users = append(d.users, u)
	if err := d.save(ctx); err != nil {
		d.users = d.users[:len(d.users)-1]
		return domain.User{}, err
	}
	return u.Public(), nil
}

// Update replaces a user's profile fields. The username and password are kept.
func (d *Directory) Update(ctx context.Context, u domain.User) (domain.User, error) {
	if u.Role != "" && !u.Role.IsValid() {
		return domain.User{}, fmt.Errorf("%w: role %q", testmoerrors.ErrInvalidArgument, u.Role)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.indexOf(u.Username)
	if i < 0 {
		return domain.User{}, fmt.Errorf("%w: %s", testmoerrors.ErrUserNotFound, u.Username)
	}
	prev := d.users[i]
	if prev.Username == constants.AdminUsername && u.Role != "" && u.Role != constants.RoleAdmin {
		return domain.User{}, fmt.Errorf("%w: cannot demote %s", testmoerrors.ErrProtectedUser, prev.Username)
	}
	next := prev
	if name := strings.TrimSpace(u.Name); name != "" {
		next.Name = name
		if u.Initials == "" {
			next.Initials = domain.InitialsFor(name)
		}
	}
	if u.Initials != "" {
		next.Initials = u.Initials
	}
	if u.Role != "" {
		next.Role = u.Role
	}
	if u.Color != "" {
		next.Color = u.Color
	}
	d.users[i] = next
	if err := d.save(ctx); err != nil {
		d.users[i] = prev
		return domain.User{}, err
	}
	return next.Public(), nil
}

// SetPassword replaces a user's password.
func (d *Directory) SetPassword(ctx context.Context, username, password string) error {
	if password == "" {
		return fmt.Errorf("password %w", testmoerrors.ErrEmptyValue)
	}
	hash, err := d.hash(password)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.indexOf(username)
	if i < 0 {
		return fmt.Errorf("%w: %s", testmoerrors.ErrUserNotFound, username)
	}
	prev := d.users[i].PasswordHash
	d.users[i].PasswordHash = hash
	if err := d.save(ctx); err != nil {
		d.users[i].PasswordHash = prev
		return err
	}
	return nil
}

// Delete removes a user. The administrator is protected.
func (d *Directory) Delete(ctx context.Context, username string) error {
	if strings.EqualFold(strings.TrimSpace(username), constants.AdminUsername) {
		return fmt.Errorf("%w: %s", testmoerrors.ErrProtectedUser, constants.AdminUsername)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.indexOf(username)
	if i < 0 {
		return fmt.Errorf("%w: %s", testmoerrors.ErrUserNotFound, username)
	}
	prev := slices.Clone(d.users)
	d.users = slices.Delete(d.users, i, i+1)
	if err := d.save(ctx); err != nil {
		d.users = prev
		return err
	}
	return nil
}

// Authenticate checks credentials and records a login activity entry. Unknown
// users and wrong passwords produce the same error.
//
// A stored user without a hash predates hashed credentials; it accepts the
// bootstrap password once and is upgraded to a hash.
func (d *Directory) Authenticate(ctx context.Context, username, password string) (domain.User, error) {
	d.mu.Lock()
	i := d.indexOf(username)
	if i < 0 {
		d.mu.Unlock()
		return domain.User{}, testmoerrors.ErrInvalidCredentials
	}
	u := d.users[i]
	d.mu.Unlock()

	if u.PasswordHash == "" {
		if password != d.bootstrapPassword {
			return domain.User{}, testmoerrors.ErrInvalidCredentials
		}
		if err := d.SetPassword(ctx, u.Username, password); err != nil {
			d.logger.Warn().Err(err).Str("username", u.Username).Msg("failed to upgrade legacy credentials")
		}
	} else if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return domain.User{}, testmoerrors.ErrInvalidCredentials
		}
		return domain.User{}, fmt.Errorf("%w: %w", testmoerrors.ErrInvalidCredentials, err)
	}

	if d.journal != nil {
		d.journal.Record(ctx, u.Username, constants.ActionLogin, "System", "User logged in")
	}
	d.logger.Info().Str("username", u.Username).Msg("user logged in")
	return u.Public(), nil
}

func (d *Directory) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), d.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(h), nil
}

// indexOf must be called with mu held.
func (d *Directory) indexOf(username string) int {
	username = strings.TrimSpace(username)
	return slices.IndexFunc(d.users, func(u domain.User) bool {
		return strings.EqualFold(u.Username, username)
	})
}

func (d *Directory) save(ctx context.Context) error {
	if err := d.repo.SaveUsers(ctx, d.users); err != nil {
		return testmoerrors.Wrap(err, "failed to save users")
	}
	return nil
}
