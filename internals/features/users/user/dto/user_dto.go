package dto

import (
	"time"

	"github.com/google/uuid"

	uModel "triddle_backend/internals/features/users/user/model"
)

type UserResponse struct {
	ID           uuid.UUID `json:"id"`
	UserName     string    `json:"user_name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	GoogleLinked bool      `json:"google_linked"`
	CreatedAt    time.Time `json:"created_at"`
}

func FromModel(u *uModel.UserModel) UserResponse {
	return UserResponse{
		ID:           u.ID,
		UserName:     u.UserName,
		Email:        u.Email,
		Role:         u.Role,
		IsActive:     u.IsActive,
		GoogleLinked: u.GoogleID != nil && *u.GoogleID != "",
		CreatedAt:    u.CreatedAt,
	}
}
