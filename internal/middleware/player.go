package middleware

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

const PlayerIDKey = "playerID"

func EnsurePlayerID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Check if playerID is already set
		if c.Locals(PlayerIDKey) != nil {
			return c.Next()
		}

		// Check header first
		playerID := c.Get("X-Player-ID")
		if playerID == "" {
			playerID = c.Query("playerId")
		}

		if playerID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Player ID is required. Please ensure client is properly initialized.",
			})
		}

		// Store in context for this request
		c.Locals(PlayerIDKey, playerID)
		return c.Next()
	}
}

// RequestLogger prints one line per request once the handler has run.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		fmt.Printf("%s %s -> %d (player %v)\n", c.Method(), c.Path(), c.Response().StatusCode(), c.Locals(PlayerIDKey))
		return err
	}
}
