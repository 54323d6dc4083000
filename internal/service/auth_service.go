package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vedran77/feedline/internal/domain"
	"github.com/vedran77/feedline/internal/repository"
	"github.com/vedran77/feedline/pkg/validator"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNameTaken      = errors.New("user already exists")
	ErrUserNotFound   = errors.New("user not found")
	ErrBadCredentials = errors.New("incorrect password")
	ErrUnauthorized   = errors.New("invalid or expired token")
)

// Claims is the JWT payload issued on login.
type Claims struct {
	UserID int64  `json:"userId"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
	jwt.RegisteredClaims
}

type AuthService struct {
	userRepo  repository.UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
	hashCost  int
	now       func() time.Time
}

func NewAuthService(userRepo repository.UserRepository, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		hashCost:  bcrypt.DefaultCost,
		now:       time.Now,
	}
}

// SetHashCost overrides the bcrypt cost (tests use bcrypt.MinCost).
func (s *AuthService) SetHashCost(cost int) {
	s.hashCost = cost
}

// SetClock overrides the time source used for token issue and expiry checks.
func (s *AuthService) SetClock(now func() time.Time) {
	s.now = now
}

type RegisterInput struct {
	Name        string `json:"name"`
	Password    string `json:"password"`
	Avatar      string `json:"avatar"`
	Description string `json:"description,omitempty"`
	Background  string `json:"background,omitempty"`
}

type LoginInput struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token string
	User  *domain.User
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	existing, err := s.userRepo.GetByName(ctx, input.Name)
	if err != nil {
		return nil, err
	}
	// A taken name wins over any field error.
	if existing != nil {
		return nil, ErrNameTaken
	}

	if errs := validator.ValidateRegister(input.Name, input.Password, input.Avatar); errs.HasErrors() {
		return nil, errs
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &domain.User{
		Name:         input.Name,
		PasswordHash: string(hash),
		Avatar:       input.Avatar,
		Description:  input.Description,
		Background:   input.Background,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration of the same name.
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrNameTaken
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return user, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := s.userRepo.GetByName(ctx, input.Name)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrBadCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	return &LoginResult{Token: token, User: user}, nil
}

// Authenticate verifies signature, algorithm and expiry of a bearer token.
func (s *AuthService) Authenticate(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrUnauthorized
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if claims.UserID <= 0 {
		return nil, fmt.Errorf("%w: missing user id", ErrUnauthorized)
	}

	return claims, nil
}

func (s *AuthService) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *AuthService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.userRepo.List(ctx)
}

// SeedUsers registers fixed accounts, skipping names that already exist.
func (s *AuthService) SeedUsers(ctx context.Context, seeds []RegisterInput) error {
	for _, in := range seeds {
		if _, err := s.Register(ctx, in); err != nil && !errors.Is(err, ErrNameTaken) {
			return fmt.Errorf("seeding user %q: %w", in.Name, err)
		}
	}
	return nil
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: user.ID,
		Name:   user.Name,
		Avatar: user.Avatar,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
