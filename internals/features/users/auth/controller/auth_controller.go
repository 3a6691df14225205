package controller

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"triddle_backend/internals/configs"
	"triddle_backend/internals/features/users/auth/dto"
	"triddle_backend/internals/features/users/auth/service"
	userDTO "triddle_backend/internals/features/users/user/dto"
	helper "triddle_backend/internals/helpers"
)

var validate = validator.New()

type AuthController struct {
	Svc *service.AuthService
}

func NewAuthController(svc *service.AuthService) *AuthController {
	return &AuthController{Svc: svc}
}

func secureCookie() bool {
	return !strings.EqualFold(configs.GetEnv("COOKIE_SECURE", "true"), "false")
}

func setAccessCookie(c *fiber.Ctx, token string, exp time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    token,
		HTTPOnly: true,
		Secure:   secureCookie(),
		SameSite: "None",
		Path:     "/",
		Expires:  exp,
	})
}

// 🟢 POST /api/auth/register
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	user, err := ac.Svc.Register(c.UserContext(), req.ToInput())
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonCreated(c, "Registration successful", userDTO.FromModel(user))
}

// 🔑 POST /api/auth/login
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid input format")
	}
	if err := validate.Struct(&req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	sess, err := ac.Svc.Login(c.UserContext(), req.Identifier, req.Password)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	setAccessCookie(c, sess.AccessToken, sess.ExpiresAt)
	return helper.JsonOK(c, "Login successful", dto.ToLoginResponse(sess))
}

// 🔑 POST /api/auth/login-google
func (ac *AuthController) LoginGoogle(c *fiber.Ctx) error {
	var req dto.GoogleLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	sess, err := ac.Svc.LoginGoogle(c.UserContext(), req.IDToken)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	setAccessCookie(c, sess.AccessToken, sess.ExpiresAt)
	return helper.JsonOK(c, "Login successful", dto.ToLoginResponse(sess))
}

// 🚪 POST /api/u/auth/logout
func (ac *AuthController) Logout(c *fiber.Ctx) error {
	if err := ac.Svc.Logout(c.UserContext(), helper.GetRawAccessToken(c)); err != nil {
		return helper.JsonFromError(c, err)
	}
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    "",
		HTTPOnly: true,
		Secure:   secureCookie(),
		SameSite: "None",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
		MaxAge:   -1,
	})
	return helper.JsonOK(c, "Logout successful", nil)
}

// 👤 GET /api/u/auth/me
func (ac *AuthController) Me(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	user, err := ac.Svc.Me(c.UserContext(), userID)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "ok", userDTO.FromModel(user))
}

// 🔒 POST /api/u/auth/change-password
func (ac *AuthController) ChangePassword(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid input format")
	}
	if err := validate.Struct(&req); err != nil {
		return helper.JsonValidationError(c, err)
	}
	if err := ac.Svc.ChangePassword(c.UserContext(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonUpdated(c, "Password changed", nil)
}
