package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	helper "triddle_backend/internals/helpers"
)

func ipLimiter(max int, window time.Duration, message string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return helper.JsonError(c, fiber.StatusTooManyRequests, message)
		},
	})
}

// Global limiter: untuk semua endpoint biasa
func GlobalRateLimiter() fiber.Handler {
	return ipLimiter(300, time.Minute, "Too many requests, please try again later")
}

// Rate limiter untuk login route (lebih ketat)
func LoginRateLimiter() fiber.Handler {
	return ipLimiter(5, time.Minute, "Too many login attempts, please wait a moment")
}

// Rate limiter untuk register route
func RegisterRateLimiter() fiber.Handler {
	return ipLimiter(3, 5*time.Minute, "Too many registration attempts, please wait a few minutes")
}

// SubmissionRateLimiter: start/answer/finalize responden. Auto-save cukup sering.
func SubmissionRateLimiter() fiber.Handler {
	return ipLimiter(120, time.Minute, "Too many submissions, slow down")
}

// UploadRateLimiter untuk upload file jawaban
func UploadRateLimiter() fiber.Handler {
	return ipLimiter(20, time.Minute, "Too many uploads, please try again later")
}
