package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// currentUserID reads the authenticated user's id from the request
// locals set by the auth middleware. The sender identity is always
// derived here, never from request payload fields.
func currentUserID(c *fiber.Ctx) (int64, error) {
	raw, ok := c.Locals("user_id").(string)
	if !ok {
		return 0, errors.New("missing user id")
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		return 0, errors.New("invalid user id")
	}
	return userID, nil
}
