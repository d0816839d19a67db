package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ocastrobeltran/gestio-qa-backend/internal/auth/domain"
	"github.com/ocastrobeltran/gestio-qa-backend/internal/auth/repository"
)

// Claims is the token payload: who the caller is and which role they hold.
type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type AuthService struct {
	userRepo  *repository.UserRepository
	secret    []byte
	expiresIn time.Duration
}

func NewAuthService(userRepo *repository.UserRepository, secret string, expiresIn time.Duration) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		secret:    []byte(secret),
		expiresIn: expiresIn,
	}
}

// Login verifies the credentials and issues a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, "", domain.ErrBadCredentials
		}
		return nil, "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", domain.ErrBadCredentials
	}

	token, err := s.SignToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Register creates a user. Hashing happens here and only here; there is no
// implicit re-hash on unrelated updates. Only admins may mint admins.
func (s *AuthService) Register(ctx context.Context, actorRole, fullName, email, password, role string) (*domain.User, error) {
	if role == "" {
		role = domain.RoleStakeholder
	}
	if role == domain.RoleAdmin && actorRole != domain.RoleAdmin {
		return nil, domain.ErrAdminOnlyRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return s.userRepo.Create(ctx, fullName, email, string(hash), role)
}

// ListUsers returns every account, for the admin user directory.
func (s *AuthService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.userRepo.List(ctx)
}

func (s *AuthService) SignToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ParseToken validates a bearer token and returns its claims.
func (s *AuthService) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, domain.ErrTokenInvalid
	}
	return claims, nil
}
