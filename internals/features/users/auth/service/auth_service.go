// internals/features/users/auth/service/auth_service.go
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"triddle_backend/internals/constants"
	userModel "triddle_backend/internals/features/users/user/model"
	"triddle_backend/internals/helpers/apperror"
)

const accessTTLDefault = 24 * time.Hour

// UserStore: persistence user + blacklist token.
type UserStore interface {
	FindUserByEmailOrUsername(ctx context.Context, identifier string) (*userModel.UserModel, error)
	FindUserByGoogleID(ctx context.Context, googleID string) (*userModel.UserModel, error)
	FindUserByID(ctx context.Context, userID uuid.UUID) (*userModel.UserModel, error)
	CreateUser(ctx context.Context, user *userModel.UserModel) error
	UpdateUserPassword(ctx context.Context, userID uuid.UUID, hash string) error
	BlacklistToken(ctx context.Context, tokenHash string, expiredAt time.Time) error
	IsBlacklisted(ctx context.Context, tokenHash string) (bool, error)
}

type Options struct {
	Secret       string
	AccessTTL    time.Duration
	PasswordCost int
	Google       GoogleVerifier // nil -> login Google nonaktif
	Now          func() time.Time
}

type AuthService struct {
	store   UserStore
	secret  []byte
	ttl     time.Duration
	pwdCost int
	google  GoogleVerifier
	now     func() time.Time
}

func NewAuthService(store UserStore, opt Options) *AuthService {
	if opt.AccessTTL <= 0 {
		opt.AccessTTL = accessTTLDefault
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	return &AuthService{
		store:   store,
		secret:  []byte(opt.Secret),
		ttl:     opt.AccessTTL,
		pwdCost: opt.PasswordCost,
		google:  opt.Google,
		now:     opt.Now,
	}
}

type RegisterInput struct {
	UserName string
	Email    string
	Password string
}

// Session: hasil login.
type Session struct {
	AccessToken string
	ExpiresAt   time.Time
	User        *userModel.UserModel
}

var errBadCredentials = fiber.NewError(fiber.StatusUnauthorized, "invalid identifier or password")

/* ==========================
   REGISTER / LOGIN
========================== */

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*userModel.UserModel, error) {
	in.UserName = strings.TrimSpace(in.UserName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	hash, err := hashPassword(in.Password, s.pwdCost)
	if err != nil {
		return nil, err
	}
	user := &userModel.UserModel{
		UserName: in.UserName,
		Email:    in.Email,
		Password: hash,
		Role:     constants.RoleUser,
		IsActive: true,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("user", "", "email or user name already registered")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	log.Printf("[AuthService] registered user=%s", user.ID)
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, identifier, password string) (*Session, error) {
	user, err := s.store.FindUserByEmailOrUsername(ctx, identifier)
	if err != nil {
		var nf *apperror.NotFoundError
		if errors.As(err, &nf) {
			return nil, errBadCredentials
		}
		return nil, err
	}
	if err := checkPasswordHash(user.Password, password); err != nil {
		return nil, errBadCredentials
	}
	return s.issue(user)
}

// LoginGoogle: verifikasi ID token; user baru dibuat kalau google_id belum dikenal.
func (s *AuthService) LoginGoogle(ctx context.Context, idToken string) (*Session, error) {
	if s.google == nil {
		return nil, fiber.NewError(fiber.StatusServiceUnavailable, "google login is not configured")
	}
	ident, err := s.google.Verify(idToken)
	if err != nil {
		log.Printf("[AuthService] google token rejected: %v", err)
		return nil, fiber.NewError(fiber.StatusUnauthorized, "invalid Google ID token")
	}

	user, err := s.store.FindUserByGoogleID(ctx, ident.Subject)
	var nf *apperror.NotFoundError
	switch {
	case err == nil:
	case errors.As(err, &nf):
		if user, err = s.createGoogleUser(ctx, ident); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}
	return s.issue(user)
}

func (s *AuthService) createGoogleUser(ctx context.Context, ident *GoogleIdentity) (*userModel.UserModel, error) {
	dummy, err := hashPassword(uuid.NewString(), s.pwdCost)
	if err != nil {
		return nil, err
	}
	gid := ident.Subject
	user := &userModel.UserModel{
		UserName: googleUserName(ident),
		Email:    strings.ToLower(strings.TrimSpace(ident.Email)),
		Password: dummy,
		GoogleID: &gid,
		Role:     constants.RoleUser,
		IsActive: true,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("user", "", "email already registered")
		}
		return nil, fmt.Errorf("create google user: %w", err)
	}
	log.Printf("[AuthService] google user created user=%s", user.ID)
	return user, nil
}

// issue menandatangani access token HS256.
func (s *AuthService) issue(user *userModel.UserModel) (*Session, error) {
	if !user.IsActive {
		return nil, apperror.Forbidden("account is deactivated")
	}
	now := s.now().UTC()
	exp := now.Add(s.ttl)
	claims := jwt.MapClaims{
		"typ":       "access",
		"sub":       user.ID.String(),
		"id":        user.ID.String(),
		"user_name": user.UserName,
		"role":      user.Role,
		"iat":       now.Unix(),
		"exp":       exp.Unix(),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Session{AccessToken: tok, ExpiresAt: exp, User: user}, nil
}

/* ==========================
   LOGOUT / BLACKLIST
========================== */

// Logout mem-blacklist token sampai exp-nya lewat. Token kosong = no-op.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil
	}
	if err := s.store.BlacklistToken(ctx, TokenHash(rawToken), s.blacklistUntil(rawToken)); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}
	return nil
}

// IsBlacklisted dipakai AuthJWT.
func (s *AuthService) IsBlacklisted(ctx context.Context, rawToken string) (bool, error) {
	return s.store.IsBlacklisted(ctx, TokenHash(rawToken))
}

func (s *AuthService) blacklistUntil(rawToken string) time.Time {
	now := s.now().UTC()
	claims := jwt.MapClaims{}
	// signature sudah dicek middleware; di sini cukup baca exp
	if _, _, err := new(jwt.Parser).ParseUnverified(rawToken, claims); err == nil {
		if exp, ok := claims["exp"].(float64); ok {
			if until := time.Unix(int64(exp), 0).UTC(); until.After(now) {
				return until.Add(time.Minute)
			}
		}
	}
	return now.Add(s.ttl)
}

func TokenHash(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return hex.EncodeToString(sum[:])
}

/* ==========================
   ME
========================== */

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*userModel.UserModel, error) {
	return s.store.FindUserByID(ctx, userID)
}

func googleUserName(ident *GoogleIdentity) string {
	name := strings.TrimSpace(ident.Name)
	if name == "" {
		name, _, _ = strings.Cut(ident.Email, "@")
	}
	if len(name) > 40 {
		name = name[:40]
	}
	// user_name unik; suffix dari google sub
	suffix := ident.Subject
	if len(suffix) > 8 {
		suffix = suffix[len(suffix)-8:]
	}
	return name + "-" + suffix
}
