package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"dossierapi/internal/http/middleware"
)

var errInvalidID = errors.New("invalid id")

// currentUserID returns the authenticated user. Routes behind middleware.Auth always have one.
func currentUserID(c *fiber.Ctx) (int64, bool) {
	p := middleware.PrincipalFromCtx(c)
	if p == nil {
		return 0, false
	}
	return p.User.ID, true
}

func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// queryInt parses an optional integer query parameter; missing yields 0.
func queryInt(c *fiber.Ctx, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func invalidID(c *fiber.Ctx) error {
	return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
}

func invalidBody(c *fiber.Ctx) error {
	return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "malformed request body")
}
