// internals/features/users/auth/repository/auth_repository.go
package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	authModel "triddle_backend/internals/features/users/auth/model"
	"triddle_backend/internals/features/users/auth/service"
	userModel "triddle_backend/internals/features/users/user/model"
	"triddle_backend/internals/helpers/apperror"
)

type AuthRepository struct {
	db *gorm.DB
}

var _ service.UserStore = (*AuthRepository)(nil)

func NewAuthRepository(db *gorm.DB) *AuthRepository {
	return &AuthRepository{db: db}
}

/* ====================== USER ====================== */

func (r *AuthRepository) firstUser(ctx context.Context, what string, key any, query string, args ...any) (*userModel.UserModel, error) {
	var user userModel.UserModel
	if err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound(what, key)
		}
		return nil, err
	}
	return &user, nil
}

func (r *AuthRepository) FindUserByEmailOrUsername(ctx context.Context, identifier string) (*userModel.UserModel, error) {
	id := strings.TrimSpace(identifier)
	return r.firstUser(ctx, "user", "", "LOWER(email) = LOWER(?) OR user_name = ?", id, id)
}

func (r *AuthRepository) FindUserByGoogleID(ctx context.Context, googleID string) (*userModel.UserModel, error) {
	return r.firstUser(ctx, "user", "", "google_id = ?", googleID)
}

func (r *AuthRepository) FindUserByID(ctx context.Context, userID uuid.UUID) (*userModel.UserModel, error) {
	return r.firstUser(ctx, "user", userID, "id = ?", userID)
}

// CreateUser: unique violation keluar sebagai gorm.ErrDuplicatedKey (TranslateError aktif).
func (r *AuthRepository) CreateUser(ctx context.Context, user *userModel.UserModel) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *AuthRepository) UpdateUserPassword(ctx context.Context, userID uuid.UUID, hash string) error {
	res := r.db.WithContext(ctx).Model(&userModel.UserModel{}).
		Where("id = ?", userID).
		Update("password", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("user", userID)
	}
	return nil
}

/* ====================== BLACKLIST TOKEN ====================== */

// BlacklistToken idempotent: logout dua kali tidak error.
func (r *AuthRepository) BlacklistToken(ctx context.Context, tokenHash string, expiredAt time.Time) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "token"}}, DoNothing: true}).
		Create(&authModel.TokenBlacklist{Token: tokenHash, ExpiredAt: expiredAt.UTC()}).Error
}

func (r *AuthRepository) IsBlacklisted(ctx context.Context, tokenHash string) (bool, error) {
	var exists bool
	err := r.db.WithContext(ctx).
		Raw(`SELECT EXISTS(SELECT 1 FROM token_blacklist WHERE token = ?)`, tokenHash).
		Scan(&exists).Error
	return exists, err
}

// CleanupExpiredBlacklist hapus entri yang expired_at-nya sebelum `before`.
func (r *AuthRepository) CleanupExpiredBlacklist(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`DELETE FROM token_blacklist WHERE expired_at < ?`, before.UTC())
	return res.RowsAffected, res.Error
}
