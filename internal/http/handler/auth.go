package handler

import (
	"github.com/gofiber/fiber/v2"

	"dossierapi/internal/http/middleware"
	"dossierapi/internal/service"
)

type authResponse struct {
	*service.AuthResult
	TokenType string `json:"token_type"`
}

// Register godoc
// @Summary Create an account and return its first token
// @Tags auth
// @Accept json
// @Param body body service.RegisterInput true "account"
// @Success 201 {object} authResponse
// @Failure 422 {object} errorPayload
// @Router /auth/register [post]
func Register(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.RegisterInput
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
		res, err := svc.Register(c.UserContext(), in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(authResponse{AuthResult: res, TokenType: "Bearer"})
	}
}

// Login godoc
// @Summary Exchange credentials for a token
// @Tags auth
// @Accept json
// @Param body body service.LoginInput true "credentials"
// @Success 200 {object} authResponse
// @Failure 401 {object} errorPayload
// @Router /auth/login [post]
func Login(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.LoginInput
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
		res, err := svc.Login(c.UserContext(), in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(authResponse{AuthResult: res, TokenType: "Bearer"})
	}
}

// Logout godoc
// @Summary Revoke the token used for this request
// @Tags auth
// @Success 204
// @Router /auth/logout [post]
func Logout(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Logout(c.UserContext(), middleware.PrincipalFromCtx(c)); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// CurrentUser godoc
// @Summary The authenticated user
// @Tags auth
// @Success 200 {object} model.User
// @Router /auth/user [get]
func CurrentUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := middleware.PrincipalFromCtx(c)
		if p == nil {
			return fiber.ErrUnauthorized
		}
		return c.JSON(p.User)
	}
}

// ListTokens godoc
// @Summary List personal access tokens
// @Tags tokens
// @Success 200 {array} model.AccessToken
// @Router /tokens [get]
func ListTokens(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := currentUserID(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		tokens, err := svc.ListTokens(c.UserContext(), userID)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"data": tokens})
	}
}

// CreateToken godoc
// @Summary Issue a named token limited to abilities the calling token holds
// @Tags tokens
// @Accept json
// @Param body body service.CreateTokenInput true "token"
// @Success 201 {object} service.IssuedToken
// @Router /tokens [post]
func CreateToken(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := currentUserID(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		var in service.CreateTokenInput
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
		// A token can only hand out abilities it holds itself.
		caller := middleware.PrincipalFromCtx(c).Token
		if len(in.Abilities) == 0 {
			in.Abilities = append([]string(nil), caller.Abilities...)
		}
		for _, a := range in.Abilities {
			if !caller.Can(a) {
				return fiber.ErrForbidden
			}
		}
		issued, err := svc.CreateToken(c.UserContext(), userID, in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(issued)
	}
}

// RevokeToken godoc
// @Summary Revoke one of the caller's tokens
// @Tags tokens
// @Param tokenId path int true "token id"
// @Success 204
// @Router /tokens/{tokenId} [delete]
func RevokeToken(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := currentUserID(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		tokenID, err := paramID(c, "tokenId")
		if err != nil {
			return invalidID(c)
		}
		if err := svc.RevokeToken(c.UserContext(), userID, tokenID); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
