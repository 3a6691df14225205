package dto

import (
	"time"

	"triddle_backend/internals/features/users/auth/service"
	userDTO "triddle_backend/internals/features/users/user/dto"
)

type RegisterRequest struct {
	UserName string `json:"user_name" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

func (r RegisterRequest) ToInput() service.RegisterInput {
	return service.RegisterInput{UserName: r.UserName, Email: r.Email, Password: r.Password}
}

type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

type GoogleLoginRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

type LoginResponse struct {
	AccessToken string               `json:"access_token"`
	TokenType   string               `json:"token_type"`
	ExpiresAt   time.Time            `json:"expires_at"`
	User        userDTO.UserResponse `json:"user"`
}

func ToLoginResponse(s *service.Session) LoginResponse {
	return LoginResponse{
		AccessToken: s.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   s.ExpiresAt,
		User:        userDTO.FromModel(s.User),
	}
}
