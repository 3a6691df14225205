package middlewares

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/utils"

	"triddle_backend/internals/constants"
)

const defaultRequestTimeout = 5 * time.Second

// RequestContext: Request-ID + timing + batas waktu per request (selaras dengan statement_timeout DB).
func RequestContext(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(constants.HeaderRequestID)
		if id == "" {
			id = utils.UUID()
		}
		c.Set(constants.HeaderRequestID, id)
		c.Locals(constants.LocReqID, id)

		start := time.Now()
		ctx, cancel := context.WithTimeout(c.Context(), timeout)
		defer cancel()
		c.SetUserContext(ctx)

		err := c.Next()
		log.Printf("[REQ] id=%s %s %s status=%d dur=%s", id, c.Method(), c.OriginalURL(), c.Response().StatusCode(), time.Since(start))
		return err
	}
}
