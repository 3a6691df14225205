package service

import (
	"context"
	"fmt"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"triddle_backend/internals/helpers/apperror"
)

func hashPassword(pw string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func checkPasswordHash(hash, pw string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw))
}

// validatePassword: 8..72 byte (batas bcrypt), minimal satu huruf & satu angka.
func validatePassword(pw string) error {
	if len(pw) < 8 || len(pw) > 72 {
		return apperror.Invalid(nil, "password", "password must be 8 to 72 characters")
	}
	var letter, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !letter || !digit {
		return apperror.Invalid(nil, "password", "password must contain letters and numbers")
	}
	return nil
}

// ChangePassword: wajib tahu password lama.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := checkPasswordHash(user.Password, current); err != nil {
		return apperror.Invalid(nil, "current_password", "current password is incorrect")
	}
	if current == next {
		return apperror.Invalid(nil, "new_password", "new password must differ from the current one")
	}
	if err := validatePassword(next); err != nil {
		return err
	}
	hash, err := hashPassword(next, s.pwdCost)
	if err != nil {
		return err
	}
	return s.store.UpdateUserPassword(ctx, userID, hash)
}
