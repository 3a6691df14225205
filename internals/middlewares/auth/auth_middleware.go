// internals/middlewares/auth/auth_middleware.go
package auth

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	"triddle_backend/internals/constants"
	helper "triddle_backend/internals/helpers"
)

type AuthJWTOpts struct {
	Secret              string
	BlacklistChecker    func(ctx context.Context, rawToken string) (bool, error) // true = token sudah logout
	AllowCookieFallback bool                                                     // pakai cookie access_token jika tidak ada Bearer
}

var errUnauthorized = errors.New("unauthorized")

// AuthJWT: wajib login. Set Locals user_id (uuid), userRole, raw_token.
func AuthJWT(o AuthJWTOpts) fiber.Handler {
	secret := strings.TrimSpace(o.Secret)
	if secret == "" {
		panic("AuthJWT: Secret wajib diisi")
	}

	return func(c *fiber.Ctx) error {
		if err := authenticate(c, secret, o); err != nil {
			if errors.Is(err, errUnauthorized) {
				return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized")
			}
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return helper.JsonError(c, fe.Code, fe.Message)
			}
			return helper.JsonFromError(c, err)
		}
		return c.Next()
	}
}

// OptionalAuthJWT: token valid -> Locals terisi; tanpa token / token jelek -> lanjut anonim.
func OptionalAuthJWT(o AuthJWTOpts) fiber.Handler {
	secret := strings.TrimSpace(o.Secret)
	if secret == "" {
		panic("OptionalAuthJWT: Secret wajib diisi")
	}

	return func(c *fiber.Ctx) error {
		if err := authenticate(c, secret, o); err != nil && !errors.Is(err, errUnauthorized) {
			var fe *fiber.Error
			if !errors.As(err, &fe) {
				log.Printf("[AUTH] optional auth skipped: %v", err)
			}
		}
		return c.Next()
	}
}

func authenticate(c *fiber.Ctx, secret string, o AuthJWTOpts) error {
	raw, err := extractBearerToken(c, o.AllowCookieFallback)
	if err != nil {
		return errUnauthorized
	}

	tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
	}
	userID, err := extractUserID(claims)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid user id in token")
	}

	if o.BlacklistChecker != nil {
		black, err := o.BlacklistChecker(c.UserContext(), raw)
		if err != nil {
			return err
		}
		if black {
			return fiber.NewError(fiber.StatusUnauthorized, "Token revoked")
		}
	}

	storeBasicClaimsToLocals(c, userID, claims)
	c.Locals(constants.LocRawToken, raw)
	return nil
}
