package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"food-ordering-api/apperrors"
	"food-ordering-api/auth"
	"food-ordering-api/models"
	"food-ordering-api/repository"
)

const bcryptCost = 10

// RegisterInput is the signup payload shared by customer and admin signup.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is returned by signup and login.
type AuthResult struct {
	Token     string       `json:"token"`
	ExpiresIn int64        `json:"expiresIn"` // seconds
	User      *models.User `json:"user"`
}

// AuthService handles signup, login and token verification.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenIssuer
	revoked   auth.RevocationStore
	adminCode string
	logger    *logrus.Logger
	now       func() time.Time
}

// NewAuthService wires the service. An empty adminCode disables admin signup
// verification.
func NewAuthService(users repository.UserRepository, tokens *auth.TokenIssuer, revoked auth.RevocationStore, adminCode string, logger *logrus.Logger) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		revoked:   revoked,
		adminCode: adminCode,
		logger:    logger,
		now:       time.Now,
	}
}

// Register creates a customer account and signs a token for it.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	return s.register(ctx, in, models.RoleCustomer)
}

// RegisterAdmin creates an admin account. It does not check the signup code;
// callers are expected to call VerifyAdminSignupCode first.
func (s *AuthService) RegisterAdmin(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	return s.register(ctx, in, models.RoleAdmin)
}

func (s *AuthService) register(ctx context.Context, in RegisterInput, role models.UserRole) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	existing, err := s.users.FindByEmail(ctx, in.Email)
	if err == nil && existing != nil {
		return nil, apperrors.Conflict("User already exists")
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal("Failed to register user", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, apperrors.Internal("Failed to hash password", err)
	}

	user := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// Lost a race with a concurrent signup for the same email.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("User already exists")
		}
		return nil, apperrors.Internal("Failed to register user", err)
	}

	s.logger.WithFields(logrus.Fields{"user_id": user.ID, "role": role}).Info("user registered")
	return s.issue(user)
}

// VerifyAdminSignupCode compares code against the configured shared code.
func (s *AuthService) VerifyAdminSignupCode(code string) bool {
	if s.adminCode == "" || code == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(code), []byte(s.adminCode)) == 1
}

// Login checks the password and signs a fresh token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, in.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("User not found")
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to log in", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, apperrors.InvalidCredentials()
	}
	return s.issue(user)
}

// Authenticate resolves a bearer token to the identity of a stored user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, apperrors.Unauthenticated("Authorization token required")
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, apperrors.Unauthenticated("Invalid or expired token")
	}

	// An unreachable revocation store fails open: the signature and expiry
	// checks above still hold.
	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", claims.UserID).Warn("token revocation check failed, accepting token")
	}
	if revoked {
		return nil, apperrors.Unauthenticated("Token has been revoked")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Unauthenticated("User no longer exists")
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to verify token", err)
	}
	if !user.Role.Valid() {
		return nil, apperrors.Unauthenticated("Account has an unknown role")
	}

	return &Identity{UserID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role}, nil
}

// RequireRole fails with Forbidden unless the identity has the given role.
func (s *AuthService) RequireRole(identity *Identity, role models.UserRole) error {
	if identity == nil {
		return apperrors.Unauthenticated("Authorization token required")
	}
	if identity.Role != role {
		return apperrors.Forbidden("Insufficient permissions")
	}
	return nil
}

// Logout revokes the token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return apperrors.Unauthenticated("Invalid or expired token")
	}
	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if err := s.revoked.Revoke(ctx, claims.ID, ttl); err != nil {
		return apperrors.Internal("Failed to log out", err)
	}
	s.logger.WithField("user_id", claims.UserID).Info("user logged out")
	return nil
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, apperrors.Internal("Failed to generate token", err)
	}
	return &AuthResult{Token: token, ExpiresIn: int64(s.tokens.TTL().Seconds()), User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
