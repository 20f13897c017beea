package authservice

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Leopold1975/microblog/internal/microblog/domain/errs"
	"github.com/Leopold1975/microblog/internal/microblog/domain/models"
	"github.com/Leopold1975/microblog/internal/microblog/repository/userrepo"
	"github.com/Leopold1975/microblog/internal/pkg/config"
	"github.com/Leopold1975/microblog/internal/pkg/jwtauth"
	"github.com/Leopold1975/microblog/internal/pkg/validation"
	"github.com/Leopold1975/microblog/pkg/logger"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	minNameLen        = 3
	maxNameLen        = 32
	fallbackName      = "user"
	maxCreateAttempts = 3
)

var (
	ErrNameTaken          = errs.New(errs.ErrConflict, "User with this name already exists")
	ErrInvalidCredentials = errs.New(errs.ErrUnauthorized, "Invalid credentials")
	ErrInvalidToken       = errs.New(errs.ErrUnauthorized, "Invalid or expired token")
	ErrUserGone           = errs.New(errs.ErrUnauthorized, "User not found")
)

var nameCharsRe = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

type Repository interface {
	CreateUser(ctx context.Context, u models.User) error
	GetUserByID(ctx context.Context, id string) (models.User, error)
	GetUserByName(ctx context.Context, name string) (models.User, error)
	GetUserByGoogleID(ctx context.Context, googleID string) (models.User, error)
}

type AuthService struct {
	userRepo Repository
	cfg      config.Auth
	validate *validation.Validator
	lg       logger.Logger
}

func New(userRepo Repository, cfg config.Auth, lg logger.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		cfg:      cfg,
		validate: validation.New(),
		lg:       lg,
	}
}

func (as *AuthService) SignUp(ctx context.Context, req SignUpRequest) (Session, error) {
	if err := as.validate.Validate(req); err != nil {
		return Session{}, err //nolint:wrapcheck
	}

	name := strings.ToLower(req.Name)

	_, err := as.userRepo.GetUserByName(ctx, name)
	if err == nil {
		return Session{}, ErrNameTaken
	} else if !errors.Is(err, userrepo.ErrNotFound) {
		return Session{}, fmt.Errorf("get user error: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, fmt.Errorf("generate from password error: %w", err)
	}

	passwordHash := string(hash)

	u := models.User{
		ID:           uuid.NewString(),
		Name:         name,
		PasswordHash: &passwordHash,
		Color:        randomColor(),
		CreatedAt:    time.Now().UTC(),
	}

	if err := as.userRepo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, userrepo.ErrAlreadyExists) {
			return Session{}, ErrNameTaken
		}

		return Session{}, fmt.Errorf("create user error: %w", err)
	}

	as.lg.Infof("user %s signed up", u.ID)

	return as.session(u)
}

// SignIn fails with the same error for an unknown name, a passwordless
// account and a wrong password.
func (as *AuthService) SignIn(ctx context.Context, req SignInRequest) (Session, error) {
	if err := as.validate.Validate(req); err != nil {
		return Session{}, err //nolint:wrapcheck
	}

	u, err := as.userRepo.GetUserByName(ctx, strings.ToLower(req.Name))
	if errors.Is(err, userrepo.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	} else if err != nil {
		return Session{}, fmt.Errorf("get user error: %w", err)
	}

	if u.PasswordHash == nil {
		return Session{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*u.PasswordHash), []byte(req.Password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	return as.session(u)
}

// Refresh verifies the refresh token and issues a new pair of tokens.
func (as *AuthService) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	if refreshToken == "" {
		return Session{}, ErrInvalidToken
	}

	claims, err := jwtauth.ValidateToken(refreshToken, jwtauth.Refresh, as.cfg.RefreshSecret)
	if err != nil {
		as.lg.Debugf("refresh token rejected: %v", err)

		return Session{}, ErrInvalidToken
	}

	u, err := as.currentUser(ctx, claims.Subject)
	if err != nil {
		return Session{}, err
	}

	return as.session(u)
}

// VerifyAccess checks an access token and returns the identity it carries.
func (as *AuthService) VerifyAccess(accessToken string) (models.AuthUser, error) {
	if accessToken == "" {
		return models.AuthUser{}, ErrInvalidToken
	}

	claims, err := jwtauth.ValidateToken(accessToken, jwtauth.Access, as.cfg.AccessSecret)
	if err != nil {
		return models.AuthUser{}, ErrInvalidToken
	}

	return models.AuthUser{ID: claims.Subject, Name: claims.Name}, nil
}

func (as *AuthService) Me(ctx context.Context, userID string) (models.AuthUser, error) {
	u, err := as.currentUser(ctx, userID)
	if err != nil {
		return models.AuthUser{}, err
	}

	return u.Public(), nil
}

// GoogleLogin signs in the account linked to the Google subject, creating one
// on first login. A create that loses a race for the name is retried with a
// suffixed name.
func (as *AuthService) GoogleLogin(ctx context.Context, profile GoogleProfile) (Session, error) {
	for attempt := range maxCreateAttempts {
		u, err := as.userRepo.GetUserByGoogleID(ctx, profile.GoogleID)
		if err == nil {
			return as.session(u)
		} else if !errors.Is(err, userrepo.ErrNotFound) {
			return Session{}, fmt.Errorf("get user by google id error: %w", err)
		}

		name, err := as.freeName(ctx, profile.DisplayName, attempt)
		if err != nil {
			return Session{}, err
		}

		googleID := profile.GoogleID

		u = models.User{
			ID:        uuid.NewString(),
			Name:      name,
			GoogleID:  &googleID,
			Color:     randomColor(),
			CreatedAt: time.Now().UTC(),
		}

		err = as.userRepo.CreateUser(ctx, u)
		if errors.Is(err, userrepo.ErrAlreadyExists) {
			as.lg.Debugf("google user name %q taken concurrently, attempt %d", name, attempt+1)

			continue
		} else if err != nil {
			return Session{}, fmt.Errorf("create user error: %w", err)
		}

		as.lg.Infof("user %s signed up with google", u.ID)

		return as.session(u)
	}

	return Session{}, ErrNameTaken
}

// freeName derives a user name from a display name. The plain name is used
// on the first attempt when it is free; otherwise a timestamp suffix is added.
func (as *AuthService) freeName(ctx context.Context, displayName string, attempt int) (string, error) {
	name := NameFromDisplayName(displayName)

	if attempt == 0 {
		_, err := as.userRepo.GetUserByName(ctx, name)
		if errors.Is(err, userrepo.ErrNotFound) {
			return name, nil
		} else if err != nil {
			return "", fmt.Errorf("get user error: %w", err)
		}
	}

	suffix := "_" + strconv.FormatInt(time.Now().UnixMilli()+int64(attempt), 10)
	if len(name)+len(suffix) > maxNameLen {
		name = name[:maxNameLen-len(suffix)]
	}

	return name + suffix, nil
}

// NameFromDisplayName maps a display name onto the user name alphabet.
// Names shorter than the minimum get a "user_" prefix.
func NameFromDisplayName(displayName string) string {
	name := strings.ToLower(nameCharsRe.ReplaceAllString(displayName, "_"))
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}

	if name == "" {
		return fallbackName
	}

	if len(name) < minNameLen {
		return fallbackName + "_" + name
	}

	return name
}

func (as *AuthService) currentUser(ctx context.Context, id string) (models.User, error) {
	u, err := as.userRepo.GetUserByID(ctx, id)
	if errors.Is(err, userrepo.ErrNotFound) {
		return models.User{}, ErrUserGone
	} else if err != nil {
		return models.User{}, fmt.Errorf("get user error: %w", err)
	}

	return u, nil
}

func (as *AuthService) session(u models.User) (Session, error) {
	access, err := jwtauth.GetToken(u, jwtauth.Access, as.cfg.AccessTTL, as.cfg.AccessSecret)
	if err != nil {
		return Session{}, fmt.Errorf("can't get access token error: %w", err)
	}

	refresh, err := jwtauth.GetToken(u, jwtauth.Refresh, as.cfg.RefreshTTL, as.cfg.RefreshSecret)
	if err != nil {
		return Session{}, fmt.Errorf("can't get refresh token error: %w", err)
	}

	return Session{
		User:   u.Public(),
		Tokens: Tokens{Access: access, Refresh: refresh},
	}, nil
}

func randomColor() string {
	return models.AvatarColors[rand.IntN(len(models.AvatarColors))] //nolint:gosec
}
