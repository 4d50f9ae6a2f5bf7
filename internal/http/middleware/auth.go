package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"dossierapi/internal/service"
)

// PrincipalLocalKey is the Fiber locals key holding the authenticated *service.Principal.
const PrincipalLocalKey = "principal"

const (
	AbilityRead  = "dossiers:read"
	AbilityWrite = "dossiers:write"
)

// Auth resolves the bearer token of the request. Missing or rejected tokens
// end the request with 401.
func Auth(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return fiber.ErrUnauthorized
		}

		p, err := svc.Authenticate(c.UserContext(), raw)
		if err != nil {
			if errors.Is(err, service.ErrUnauthenticated) {
				return fiber.ErrUnauthorized
			}
			return err
		}
		c.Locals(PrincipalLocalKey, p)
		return c.Next()
	}
}

// RequireAbility checks the token abilities: safe methods need read, everything
// else needs write.
func RequireAbility(read, write string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := PrincipalFromCtx(c)
		if p == nil {
			return fiber.ErrUnauthorized
		}
		need := write
		switch c.Method() {
		case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
			need = read
		}
		if !p.Token.Can(need) {
			return fiber.ErrForbidden
		}
		return c.Next()
	}
}

// PrincipalFromCtx returns the principal stored by Auth, or nil.
func PrincipalFromCtx(c *fiber.Ctx) *service.Principal {
	p, _ := c.Locals(PrincipalLocalKey).(*service.Principal)
	return p
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
