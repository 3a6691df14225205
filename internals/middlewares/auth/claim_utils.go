// internals/middlewares/auth/claims_utils.go
package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"triddle_backend/internals/constants"
)

var errNoToken = errors.New("no token provided")

// extractBearerToken: Authorization "Bearer <token>", fallback cookie access_token kalau diizinkan.
func extractBearerToken(c *fiber.Ctx, allowCookie bool) (string, error) {
	auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if auth == "" {
		if !allowCookie {
			return "", errNoToken
		}
		if tok := strings.TrimSpace(c.Cookies("access_token")); tok != "" {
			return tok, nil
		}
		return "", errNoToken
	}

	// toleransi spasi ganda & case-insensitive
	fields := strings.Fields(auth)
	if len(fields) < 2 || !strings.EqualFold(fields[0], "Bearer") {
		return "", errors.New("invalid token format")
	}
	tok := strings.Trim(strings.TrimSpace(fields[1]), "\"'")
	if tok == "" {
		return "", errNoToken
	}
	return tok, nil
}

// extractUserID: urutan preferensi id -> sub -> user_id.
func extractUserID(claims jwt.MapClaims) (uuid.UUID, error) {
	for _, key := range []string{"id", "sub", "user_id"} {
		if s, ok := claims[key].(string); ok && strings.TrimSpace(s) != "" {
			return uuid.Parse(strings.TrimSpace(s))
		}
	}
	return uuid.Nil, errors.New("no user id")
}

func storeBasicClaimsToLocals(c *fiber.Ctx, userID uuid.UUID, claims jwt.MapClaims) {
	c.Locals(constants.LocUserID, userID)
	if role, ok := claims["role"].(string); ok {
		c.Locals(constants.LocUserRole, role)
	}
	if userName, ok := claims["user_name"].(string); ok {
		c.Locals(constants.LocUserName, userName)
	}
}
