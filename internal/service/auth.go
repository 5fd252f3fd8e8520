package service

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Skotchmaster/marketplace/internal/events"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/pkg/hash"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	"github.com/Skotchmaster/marketplace/pkg/tokens"
)

const minPasswordLen = 6

var emailRe = regexp.MustCompile(`^\S+@\S+\.\S+$`)

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByID(ctx context.Context, id uint) (*models.User, error)
	UpdateProfile(ctx context.Context, id uint, p repo.ProfileUpdate, now time.Time) (*models.User, error)
	SetRefreshToken(ctx context.Context, id uint, hash string, exp time.Time) error
	UserByRefreshHash(ctx context.Context, hash string, now time.Time) (*models.User, error)
}

type AuthService struct {
	Users         UserStore
	JWTSecret     []byte
	RefreshSecret []byte
	Events        events.Publisher
	Now           func() time.Time
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
	Address  string
	Role     string
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         *models.User
}

type ProfileInput struct {
	Name     string
	Email    string
	Phone    string
	Address  string
	ImageURL string
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (string, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" || in.Password == "" || strings.TrimSpace(in.Name) == "" ||
		strings.TrimSpace(in.Phone) == "" || strings.TrimSpace(in.Address) == "" || strings.TrimSpace(in.Role) == "" {
		return "", fail(ErrValidation, "all fields are required")
	}
	if !emailRe.MatchString(in.Email) {
		return "", fail(ErrValidation, "invalid email format")
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLen {
		return "", fail(ErrValidation, "password must be at least 6 characters")
	}

	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		l.Error("register_error", "reason", "cannot hash the password", "error", err)
		return "", err
	}

	now := nowFunc(s.Now)
	user := models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: pwHash,
		Phone:        in.Phone,
		Address:      in.Address,
		Role:         in.Role,
		Status:       models.UserStatusActive,
		RegisteredAt: now,
	}
	if err := s.Users.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return "", fail(ErrConflict, "email already registered")
		}
		return "", err
	}

	token, _, err := tokens.SignAccessToken(user.ID, now, s.JWTSecret)
	if err != nil {
		return "", err
	}

	publish(ctx, s.Events, events.TopicUsers, idKey(user.ID), "registered",
		map[string]any{"user_id": user.ID, "email": user.Email, "tipo_usuario": user.Role}, now)
	l.Info("register_success", "user_id", user.ID)
	return token, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fail(ErrUnauthorized, "invalid credentials")
	}

	user, err := s.Users.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fail(ErrUnauthorized, "invalid credentials")
		}
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, fail(ErrUnauthorized, "invalid credentials")
	}

	now := nowFunc(s.Now)
	access, _, err := tokens.SignAccessToken(user.ID, now, s.JWTSecret)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := tokens.SignRefreshToken(user.ID, now, s.refreshSecret())
	if err != nil {
		return nil, err
	}
	if err := s.Users.SetRefreshToken(ctx, user.ID, tokens.Hash(refresh), refreshExp); err != nil {
		return nil, err
	}

	publish(ctx, s.Events, events.TopicUsers, idKey(user.ID), "logged_in", map[string]any{"user_id": user.ID}, now)
	l.Info("login_success", "user_id", user.ID)
	return &LoginResult{AccessToken: access, RefreshToken: refresh, User: user}, nil
}

// Refresh trades a stored, unexpired refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	if strings.TrimSpace(refreshToken) == "" {
		return "", fail(ErrValidation, "refresh token is required")
	}

	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.refreshSecret())
	if err != nil {
		l.Debug("refresh_rejected", "reason", "invalid signature or expired", "error", err)
		return "", fail(ErrUnauthorized, "invalid refresh token")
	}

	now := nowFunc(s.Now)
	user, err := s.Users.UserByRefreshHash(ctx, tokens.Hash(refreshToken), now)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Debug("refresh_rejected", "reason", "token not stored or superseded")
			return "", fail(ErrUnauthorized, "invalid refresh token")
		}
		return "", err
	}
	if user.ID != claims.UserID {
		return "", fail(ErrUnauthorized, "invalid refresh token")
	}

	access, _, err := tokens.SignAccessToken(user.ID, now, s.JWTSecret)
	if err != nil {
		return "", err
	}
	return access, nil
}

func (s *AuthService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.Users.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fail(ErrNotFound, "user not found")
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uint, in ProfileInput) (*models.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	if strings.TrimSpace(in.Name) == "" || in.Email == "" || strings.TrimSpace(in.Phone) == "" ||
		strings.TrimSpace(in.Address) == "" || strings.TrimSpace(in.ImageURL) == "" {
		return nil, fail(ErrValidation, "all fields are required")
	}
	if !emailRe.MatchString(in.Email) {
		return nil, fail(ErrValidation, "invalid email format")
	}

	user, err := s.Users.UpdateProfile(ctx, userID, repo.ProfileUpdate{
		Name:     in.Name,
		Email:    in.Email,
		Phone:    in.Phone,
		Address:  in.Address,
		ImageURL: in.ImageURL,
	}, nowFunc(s.Now))
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return nil, fail(ErrNotFound, "user not found")
	case errors.Is(err, repo.ErrDuplicate):
		return nil, fail(ErrConflict, "email already in use")
	case err != nil:
		return nil, err
	}
	return user, nil
}

func (s *AuthService) refreshSecret() []byte {
	if len(s.RefreshSecret) == 0 {
		return s.JWTSecret
	}
	return s.RefreshSecret
}

func idKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
