package app

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"cadence/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials indicates that the provided username or password was incorrect.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrSessionNotFound indicates that the requested session does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired indicates that the session has expired.
	ErrSessionExpired = errors.New("session expired")
	// ErrUserNotFound indicates that the user does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// DefaultSessionTTL is how long a login session lives.
const DefaultSessionTTL = 24 * time.Hour

// AuthService handles authentication, login sessions and user profiles.
type AuthService struct {
	users    domain.UserRepository
	sessions domain.SessionRepository
	clock    Clock
	ttl      time.Duration
}

// NewAuthService creates a new authentication service.
func NewAuthService(users domain.UserRepository, sessions domain.SessionRepository, clock Clock, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &AuthService{users: users, sessions: sessions, clock: clock, ttl: ttl}
}

// TTL returns the configured session lifetime.
func (s *AuthService) TTL() time.Duration { return s.ttl }

// Login authenticates a user and creates a session.
func (s *AuthService) Login(ctx context.Context, username, password, userAgent, ip string) (string, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil || user == nil || user.PasswordHash == "" {
		return "", ErrInvalidCredentials
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.newSession(ctx, user.ID, userAgent, ip)
}

// Logout invalidates a session.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// ValidateSession checks if a session token is valid and matches the user agent.
func (s *AuthService) ValidateSession(ctx context.Context, token, userAgent string) (*domain.User, error) {
	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil || session == nil {
		return nil, ErrSessionNotFound
	}

	if s.clock.Now().After(session.ExpiresAt) || session.UserAgent != userAgent {
		_ = s.sessions.Delete(ctx, token)
		return nil, ErrSessionExpired
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil || user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// CreateInitialUser creates the first user if no users exist.
func (s *AuthService) CreateInitialUser(ctx context.Context, username, password, timezone string) (*domain.User, error) {
	count, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: users already exist", domain.ErrValidation)
	}
	if username == "" || len(password) < 8 {
		return nil, fmt.Errorf("%w: username required and password must be at least 8 characters", domain.ErrValidation)
	}
	tz, err := normalizeTimezone(timezone)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.users.Create(ctx, username, string(hash), tz)
}

// EnsureUser returns the named user, creating a password-less account when
// missing. Used by forward auth, SSO and the local CLI.
func (s *AuthService) EnsureUser(ctx context.Context, username, timezone string) (*domain.User, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: username required", domain.ErrValidation)
	}
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}
	tz, err := normalizeTimezone(timezone)
	if err != nil {
		return nil, err
	}
	user, err = s.users.Create(ctx, username, "", tz)
	if err != nil {
		// Lost a creation race on the unique username.
		if again, gerr := s.users.GetByUsername(ctx, username); gerr == nil && again != nil {
			return again, nil
		}
		return nil, err
	}
	return user, nil
}

// ValidateForwardAuth validates a request from a forward-auth proxy that set
// the Remote-User header.
func (s *AuthService) ValidateForwardAuth(ctx context.Context, remoteUser string) (*domain.User, error) {
	if remoteUser == "" {
		return nil, errors.New("no remote user header")
	}
	return s.EnsureUser(ctx, remoteUser, "")
}

// LoginWithUser creates a session for an already authenticated user (e.g. via SSO).
func (s *AuthService) LoginWithUser(ctx context.Context, username, userAgent, ip string) (string, error) {
	user, err := s.EnsureUser(ctx, username, "")
	if err != nil {
		return "", err
	}
	return s.newSession(ctx, user.ID, userAgent, ip)
}

// SetTimezone updates the profile timezone. Unknown zones are rejected here
// so that stored profiles always resolve.
func (s *AuthService) SetTimezone(ctx context.Context, userID int64, timezone string) error {
	if !domain.ValidTimezone(timezone) {
		return fmt.Errorf("%w: unknown timezone %q", domain.ErrValidation, timezone)
	}
	return s.users.SetTimezone(ctx, userID, timezone)
}

// CleanupExpired removes expired login sessions.
func (s *AuthService) CleanupExpired(ctx context.Context) error {
	return s.sessions.DeleteExpired(ctx)
}

func (s *AuthService) newSession(ctx context.Context, userID int64, userAgent, ip string) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	expiresAt := s.clock.Now().Add(s.ttl)
	if err := s.sessions.Create(ctx, userID, token, userAgent, ip, expiresAt); err != nil {
		return "", err
	}
	return token, nil
}

func normalizeTimezone(tz string) (string, error) {
	if tz == "" {
		return domain.DefaultTimezone, nil
	}
	if !domain.ValidTimezone(tz) {
		return "", fmt.Errorf("%w: unknown timezone %q", domain.ErrValidation, tz)
	}
	return tz, nil
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// ConstantTimeCompare performs a constant-time comparison of two strings.
func ConstantTimeCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
