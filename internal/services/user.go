package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"naksha-backend/internal/domain"
	"naksha-backend/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// The source enforced two different minimums (8 on one path, 6 on the
// other); 8 is the canonical policy.
const minPasswordLength = 8

// UserStore is the persistence surface the user service needs.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// sessionClaims embeds the user ID in the signed token. Validity is entirely
// signature plus expiry; nothing is persisted server-side.
type sessionClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// UserService handles registration, login and session tokens.
type UserService struct {
	users     UserStore
	jwtSecret []byte
	tokenTTL  time.Duration
	validate  *validator.Validate
}

// NewUserService creates a new user service
func NewUserService(users UserStore, jwtSecret string, tokenTTL time.Duration) *UserService {
	return &UserService{
		users:     users,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		validate:  validator.New(),
	}
}

// Register creates a user with a bcrypt-hashed password. Duplicate emails
// surface domain.ErrDuplicateEmail from the store's unique index.
func (s *UserService) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, fmt.Errorf("%w: invalid email format", domain.ErrInvalidInput)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters",
			domain.ErrInvalidInput, minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login verifies credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return user, nil
}

// IssueToken produces a signed session token expiring tokenTTL from now.
func (s *UserService) IssueToken(userID string) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
		UserID: userID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// VerifyToken checks signature and expiry and returns the embedded user ID.
// Every failure mode collapses to domain.ErrInvalidToken.
func (s *UserService) VerifyToken(tokenString string) (string, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid || claims.UserID == "" {
		return "", domain.ErrInvalidToken
	}

	return claims.UserID, nil
}

// Profile returns the user record for an authenticated session.
func (s *UserService) Profile(ctx context.Context, userID string) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}
