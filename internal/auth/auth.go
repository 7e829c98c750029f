// Package auth keeps a mock, local-only identity so the CLI can gate
// analysis behind a signed-in user. Nothing is verified against a server.
package auth

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/stockgpt/internal/database"
	"github.com/Alias1177/stockgpt/models"
)

// StoreKey is where the session lives in the key-value store
const StoreKey = "stockgpt_user"

const (
	avatarBase        = "https://api.dicebear.com/7.x/avataaars/svg?seed="
	minPasswordLength = 6
)

var (
	ErrInvalidEmail  = errors.New("Please enter a valid email address.")
	ErrShortPassword = errors.New("Password must be at least 6 characters.")
	ErrNameRequired  = errors.New("Name is required.")
	ErrNotSignedIn   = errors.New("Please sign in first.")
)

var demoNames = []string{"Alex Trader", "Jordan Belfort", "Warren B.", "Crypto King"}

type Service struct {
	store  models.KeyValueStore
	pick   func(n int) int
	logger zerolog.Logger
}

func NewService(store models.KeyValueStore) *Service {
	return &Service{
		store:  store,
		pick:   rand.IntN,
		logger: log.With().Str("component", "auth").Logger(),
	}
}

// Current returns the signed-in user, or nil. A session that cannot be
// decoded is removed.
func (s *Service) Current(ctx context.Context) (*models.User, error) {
	var user models.User
	ok, err := database.GetJSON(ctx, s.store, StoreKey, &user)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Discarding corrupt session")
		if derr := s.store.Delete(ctx, StoreKey); derr != nil {
			return nil, derr
		}
		return nil, nil
	}
	if !ok {
		return nil, nil
	}
	return &user, nil
}

// Require returns the signed-in user or ErrNotSignedIn
func (s *Service) Require(ctx context.Context) (*models.User, error) {
	user, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotSignedIn
	}
	return user, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if err := checkCredentials(email, password); err != nil {
		return nil, err
	}
	user := &models.User{
		ID:     "u_" + shortID(),
		Name:   strings.SplitN(email, "@", 2)[0],
		Email:  email,
		Avatar: avatarBase + url.QueryEscape(email),
	}
	return user, s.save(ctx, user)
}

func (s *Service) Signup(ctx context.Context, email, password, name string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if err := checkCredentials(email, password); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	user := &models.User{
		ID:     "u_" + shortID(),
		Name:   name,
		Email:  email,
		Avatar: avatarBase + url.QueryEscape(name),
	}
	return user, s.save(ctx, user)
}

// GoogleSignIn simulates a third-party sign-in with a random demo identity
func (s *Service) GoogleSignIn(ctx context.Context) (*models.User, error) {
	name := demoNames[s.pick(len(demoNames))]
	user := &models.User{
		ID:     "g_" + shortID(),
		Name:   name,
		Email:  strings.Replace(strings.ToLower(name), " ", ".", 1) + "@gmail.com",
		Avatar: avatarBase + url.QueryEscape(name) + "&backgroundColor=c0aede",
	}
	return user, s.save(ctx, user)
}

func (s *Service) Logout(ctx context.Context) error {
	return s.store.Delete(ctx, StoreKey)
}

func (s *Service) save(ctx context.Context, user *models.User) error {
	if err := database.SetJSON(ctx, s.store, StoreKey, user); err != nil {
		return err
	}
	s.logger.Info().Str("id", user.ID).Str("email", user.Email).Msg("Signed in")
	return nil
}

func checkCredentials(email, password string) error {
	if !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return ErrShortPassword
	}
	return nil
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
}
