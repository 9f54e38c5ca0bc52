package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mamadbah2/stockroom/internal/config"
	"github.com/mamadbah2/stockroom/internal/domain/models"
	"github.com/mamadbah2/stockroom/internal/repository/mongodb"
)

var (
	// ErrInvalidCredentials is returned when the email is unknown or the password does not match.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidToken is returned for malformed, expired, wrongly signed or revoked tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrUserExists is returned when creating a user whose email is already registered.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound is returned when changing the role of an unknown email.
	ErrUserNotFound = errors.New("user not found")
	// ErrWeakPassword is returned when a new password is shorter than 8 characters.
	ErrWeakPassword = errors.New("password must be at least 8 characters")
)

// Store is the identity storage the service needs.
type Store interface {
	FindCredentialsByEmail(ctx context.Context, email string) (models.Credentials, error)
	InsertCredentials(ctx context.Context, c models.Credentials) error
	EnsureProfile(ctx context.Context, p models.UserProfile) (models.UserProfile, error)
	SetRoleByEmail(ctx context.Context, email string, role models.Role) error
}

// Session is returned on a successful sign-in.
type Session struct {
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expiresAt"`
	Profile   models.UserProfile `json:"profile"`
}

// Service signs users in and out and resolves bearer tokens to profiles.
type Service struct {
	store       Store
	revocations RevocationStore
	secret      []byte
	ttl         time.Duration
	adminEmails map[string]struct{}
	hashCost    int
	logger      *zap.Logger
	now         func() time.Time
}

// NewService wires a new auth service instance.
func NewService(store Store, revocations RevocationStore, cfg config.AuthConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if revocations == nil {
		revocations = NewMemoryRevocations()
	}

	admins := make(map[string]struct{}, len(cfg.AdminEmails))
	for _, email := range cfg.AdminEmails {
		admins[normalizeEmail(email)] = struct{}{}
	}

	return &Service{
		store:       store,
		revocations: revocations,
		secret:      []byte(cfg.JWTSecret),
		ttl:         cfg.TokenTTL,
		adminEmails: admins,
		hashCost:    bcrypt.DefaultCost,
		logger:      logger,
		now:         time.Now,
	}
}

// SignIn checks the password and returns a fresh session token.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)

	creds, err := s.store.FindCredentialsByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("sign in: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn("sign in rejected", zap.String("email", email))
		return Session{}, ErrInvalidCredentials
	}

	profile, err := s.ensureProfile(ctx, creds.UID, creds.Email, creds.Name)
	if err != nil {
		return Session{}, err
	}

	token, expires, err := s.issueToken(creds.UID, creds.Email)
	if err != nil {
		return Session{}, err
	}

	s.logger.Info("user signed in", zap.String("uid", creds.UID), zap.String("role", string(profile.Role)))
	return Session{Token: token, ExpiresAt: expires, Profile: profile}, nil
}

// SignOut revokes the token so it can no longer authenticate.
func (s *Service) SignOut(ctx context.Context, token string) error {
	claims, err := s.parseToken(token)
	if err != nil {
		return err
	}
	if err := s.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}

	s.logger.Info("user signed out", zap.String("uid", claims.Subject))
	return nil
}

// Authenticate resolves a bearer token to the caller's profile, creating the profile on first sight.
func (s *Service) Authenticate(ctx context.Context, token string) (models.UserProfile, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return models.UserProfile{}, err
	}

	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("authenticate: %w", err)
	}
	if revoked {
		return models.UserProfile{}, ErrInvalidToken
	}

	return s.ensureProfile(ctx, claims.Subject, claims.Email, "")
}

// CreateUser registers a sign-in identity. The profile is created on first sign-in.
func (s *Service) CreateUser(ctx context.Context, email, password, name string) (string, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return "", fmt.Errorf("invalid email %q", email)
	}
	if len(password) < 8 {
		return "", ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	creds := models.Credentials{
		UID:          uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.InsertCredentials(ctx, creds); err != nil {
		if errors.Is(err, mongodb.ErrDuplicate) {
			return "", ErrUserExists
		}
		return "", fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user created", zap.String("uid", creds.UID))
	return creds.UID, nil
}

// SetRole changes a user's role. It is only reachable from the operator CLI.
func (s *Service) SetRole(ctx context.Context, email string, role models.Role) error {
	if !role.Valid() {
		return fmt.Errorf("unknown role %q", role)
	}
	email = normalizeEmail(email)

	creds, err := s.store.FindCredentialsByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("set role: %w", err)
	}

	if _, err := s.ensureProfile(ctx, creds.UID, creds.Email, creds.Name); err != nil {
		return err
	}
	if err := s.store.SetRoleByEmail(ctx, creds.Email, role); err != nil {
		return fmt.Errorf("set role: %w", err)
	}

	s.logger.Info("role changed", zap.String("uid", creds.UID), zap.String("role", string(role)))
	return nil
}

func (s *Service) ensureProfile(ctx context.Context, uid, email, name string) (models.UserProfile, error) {
	role := models.RoleUser
	if _, ok := s.adminEmails[normalizeEmail(email)]; ok {
		role = models.RoleAdmin
	}

	profile, err := s.store.EnsureProfile(ctx, models.UserProfile{
		UID:       uid,
		Email:     email,
		Name:      name,
		Role:      role,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("load profile: %w", err)
	}
	return profile, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
