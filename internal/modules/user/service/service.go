package service

import (
	"context"
	"errors"
	"os"
	"strconv"
	"time"

	"failboard.id/failboard/internal/entity"
	search "failboard.id/failboard/internal/modules/search/service"
	"failboard.id/failboard/internal/modules/user/dto"
	"failboard.id/failboard/internal/modules/user/repository"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService interface {
	Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error)
	Register(ctx context.Context, input dto.RegisterInput) (*dto.AuthResponse, error)
}

type authService struct {
	repo        repository.UserRepository
	secret      string
	tokenTTL    time.Duration
	defaultRole string
	meili       search.SearchService
}

func NewAuthService(repo repository.UserRepository, meili search.SearchService) AuthService {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-secret"
	}

	ttl := time.Hour
	if ttlStr := os.Getenv("JWT_TTL_MINUTES"); ttlStr != "" {
		if minutes, err := strconv.Atoi(ttlStr); err == nil {
			ttl = time.Duration(minutes) * time.Minute
		}
	}

	return &authService{
		repo:        repo,
		secret:      secret,
		tokenTTL:    ttl,
		defaultRole: entity.RoleMember,
		meili:       meili,
	}
}

func (s *authService) Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error) {
	user, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("invalid credentials")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, errors.New("invalid credentials")
	}

	return s.buildAuthResponse(user)
}

func (s *authService) Register(ctx context.Context, input dto.RegisterInput) (*dto.AuthResponse, error) {
	if _, err := s.repo.FindByEmail(ctx, input.Email); err == nil {
		return nil, errors.New("email already registered")
	}
	if _, err := s.repo.FindByUsername(ctx, input.Username); err == nil {
		return nil, errors.New("username already taken")
	}

	role, err := s.repo.FindRoleByName(ctx, s.defaultRole)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hash),
		RoleID:       &role.ID,
	}
	profile := &entity.Profile{DisplayName: input.DisplayName}

	if err := s.repo.Create(ctx, user, profile); err != nil {
		return nil, err
	}

	user.Role = *role
	user.Profile = profile
	return s.buildAuthResponse(user)
}

func (s *authService) buildAuthResponse(user *entity.User) (*dto.AuthResponse, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return nil, err
	}

	resp := &dto.AuthResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokenTTL.Seconds()),
		User:        user,
		Role:        &user.Role,
		Profile:     user.Profile,
	}

	// Search token is best-effort: login still succeeds without search.
	if s.meili != nil {
		if searchToken, err := s.meili.GenerateSearchToken(); err == nil {
			resp.SearchToken = searchToken
		}
	}

	return resp, nil
}
