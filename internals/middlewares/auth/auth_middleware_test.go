package auth

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"triddle_backend/internals/constants"
)

const testSecret = "unit-test-secret"

func sign(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func newApp(mw fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Get("/me", mw, func(c *fiber.Ctx) error {
		id, _ := c.Locals(constants.LocUserID).(uuid.UUID)
		role, _ := c.Locals(constants.LocUserRole).(string)
		return c.JSON(fiber.Map{"id": id.String(), "role": role})
	})
	return app
}

func TestAuthJWTAcceptsValidToken(t *testing.T) {
	uid := uuid.New()
	tok := sign(t, jwt.MapClaims{"id": uid.String(), "role": "user", "exp": time.Now().Add(time.Hour).Unix()}, testSecret)

	app := newApp(AuthJWT(AuthJWTOpts{Secret: testSecret}))
	req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAuthJWTRejects(t *testing.T) {
	uid := uuid.New()
	cases := map[string]string{
		"missing":      "",
		"wrong secret": "Bearer " + sign(t, jwt.MapClaims{"id": uid.String(), "exp": time.Now().Add(time.Hour).Unix()}, "other"),
		"expired":      "Bearer " + sign(t, jwt.MapClaims{"id": uid.String(), "exp": time.Now().Add(-time.Hour).Unix()}, testSecret),
		"no user id":   "Bearer " + sign(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}, testSecret),
		"bad scheme":   "Basic abc",
	}
	app := newApp(AuthJWT(AuthJWTOpts{Secret: testSecret}))
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestAuthJWTBlacklist(t *testing.T) {
	tok := sign(t, jwt.MapClaims{"sub": uuid.NewString(), "exp": time.Now().Add(time.Hour).Unix()}, testSecret)

	revoked := AuthJWT(AuthJWTOpts{Secret: testSecret, BlacklistChecker: func(_ context.Context, raw string) (bool, error) {
		return raw == tok, nil
	}})
	req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := newApp(revoked).Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	broken := AuthJWT(AuthJWTOpts{Secret: testSecret, BlacklistChecker: func(context.Context, string) (bool, error) {
		return false, errors.New("db down")
	}})
	req = httptest.NewRequest(fiber.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err = newApp(broken).Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestAuthJWTCookieFallback(t *testing.T) {
	tok := sign(t, jwt.MapClaims{"id": uuid.NewString(), "exp": time.Now().Add(time.Hour).Unix()}, testSecret)
	withCookie := func(allow bool) int {
		r := httptest.NewRequest(fiber.MethodGet, "/me", nil)
		r.Header.Set("Cookie", "access_token="+tok)
		resp, err := newApp(AuthJWT(AuthJWTOpts{Secret: testSecret, AllowCookieFallback: allow})).Test(r)
		require.NoError(t, err)
		return resp.StatusCode
	}
	assert.Equal(t, fiber.StatusOK, withCookie(true))
	assert.Equal(t, fiber.StatusUnauthorized, withCookie(false))
}

func TestOptionalAuthJWTLetsAnonymousThrough(t *testing.T) {
	app := newApp(OptionalAuthJWT(AuthJWTOpts{Secret: testSecret}))

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	r := httptest.NewRequest(fiber.MethodGet, "/me", nil)
	r.Header.Set("Authorization", "Bearer garbage")
	resp, err = app.Test(r)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
