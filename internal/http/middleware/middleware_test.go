package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"dossierapi/internal/model"
	"dossierapi/internal/service"
	serviceMocks "dossierapi/internal/service/mocks"
)

func TestRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())

	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendString(RequestIDFromCtx(c))
	})

	t.Run("should generate new request id if not present", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		ridHeader := resp.Header.Get(RequestIDHeader)
		assert.NotEmpty(t, ridHeader)

		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, ridHeader, string(body))
	})

	t.Run("should preserve existing request id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(RequestIDHeader, "test-id-123")

		resp, _ := app.Test(req)

		assert.Equal(t, "test-id-123", resp.Header.Get(RequestIDHeader))
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "test-id-123", string(body))
	})
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()
	loc := time.FixedZone("WIB", 7*3600)

	app.Use(RequestID())
	app.Use(LoggerWithWriter(&buf, loc))

	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusAccepted)
	})

	req := httptest.NewRequest("GET", "/test?x=1", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	var logData map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logData))

	assert.NotEmpty(t, logData["request_id"])
	assert.Equal(t, "GET", logData["method"])
	assert.Equal(t, "/test", logData["path"])
	assert.Equal(t, float64(fiber.StatusAccepted), logData["status"])
	assert.NotNil(t, logData["latency"])
	assert.Equal(t, "INFO", logData["level"])
	require.IsType(t, "", logData["ts"])
	assert.Contains(t, logData["ts"], "+07:00")
}

func TestLogger_ErrorStatus(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()
	app.Use(LoggerWithWriter(&buf, nil))

	app.Get("/missing", func(c *fiber.Ctx) error {
		return fiber.ErrNotFound
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("boom")
	})

	resp, _ := app.Test(httptest.NewRequest("GET", "/missing", nil))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var logData map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logData))
	assert.Equal(t, float64(fiber.StatusNotFound), logData["status"])
	assert.Equal(t, "WARN", logData["level"])

	buf.Reset()
	app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logData))
	assert.Equal(t, float64(fiber.StatusInternalServerError), logData["status"])
	assert.Equal(t, "ERROR", logData["level"])
}

func TestAuth(t *testing.T) {
	principal := &service.Principal{
		User:  model.User{ID: 7},
		Token: model.AccessToken{ID: 42, UserID: 7, Abilities: []string{"*"}},
	}

	tests := []struct {
		name       string
		header     string
		setupMocks func(svc *serviceMocks.MockAuthService)
		wantStatus int
	}{
		{
			name:   "valid bearer",
			header: "Bearer good-token",
			setupMocks: func(svc *serviceMocks.MockAuthService) {
				svc.On("Authenticate", mock.Anything, "good-token").Return(principal, nil)
			},
			wantStatus: fiber.StatusOK,
		},
		{
			name:       "missing header",
			setupMocks: func(svc *serviceMocks.MockAuthService) {},
			wantStatus: fiber.StatusUnauthorized,
		},
		{
			name:       "wrong scheme",
			header:     "Basic dXNlcjpwYXNz",
			setupMocks: func(svc *serviceMocks.MockAuthService) {},
			wantStatus: fiber.StatusUnauthorized,
		},
		{
			name:   "revoked token",
			header: "bearer old-token",
			setupMocks: func(svc *serviceMocks.MockAuthService) {
				svc.On("Authenticate", mock.Anything, "old-token").Return(nil, service.ErrUnauthenticated)
			},
			wantStatus: fiber.StatusUnauthorized,
		},
		{
			name:   "lookup failure",
			header: "Bearer any",
			setupMocks: func(svc *serviceMocks.MockAuthService) {
				svc.On("Authenticate", mock.Anything, "any").Return(nil, errors.New("db down"))
			},
			wantStatus: fiber.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(serviceMocks.MockAuthService)
			tt.setupMocks(svc)

			app := fiber.New()
			app.Use(Auth(svc))
			app.Get("/me", func(c *fiber.Ctx) error {
				return c.JSON(fiber.Map{"id": PrincipalFromCtx(c).User.ID})
			})

			req := httptest.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}
			resp, _ := app.Test(req)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			svc.AssertExpectations(t)
		})
	}
}

func TestRequireAbility(t *testing.T) {
	withAbilities := func(abilities ...string) fiber.Handler {
		return func(c *fiber.Ctx) error {
			c.Locals(PrincipalLocalKey, &service.Principal{Token: model.AccessToken{Abilities: abilities}})
			return c.Next()
		}
	}
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) }

	tests := []struct {
		name       string
		abilities  []string
		method     string
		wantStatus int
	}{
		{"wildcard writes", []string{"*"}, "POST", fiber.StatusNoContent},
		{"read token reads", []string{AbilityRead}, "GET", fiber.StatusNoContent},
		{"read token cannot write", []string{AbilityRead}, "DELETE", fiber.StatusForbidden},
		{"write token cannot read", []string{AbilityWrite}, "GET", fiber.StatusForbidden},
		{"no abilities", nil, "GET", fiber.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(withAbilities(tt.abilities...), RequireAbility(AbilityRead, AbilityWrite))
			app.All("/dossiers", ok)

			resp, _ := app.Test(httptest.NewRequest(tt.method, "/dossiers", nil))

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}

	t.Run("without principal", func(t *testing.T) {
		app := fiber.New()
		app.Use(RequireAbility(AbilityRead, AbilityWrite))
		app.Get("/dossiers", ok)

		resp, _ := app.Test(httptest.NewRequest("GET", "/dossiers", nil))

		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}
