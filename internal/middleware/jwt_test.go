package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type sessionStoreStub struct {
	live map[string]bool
	err  error
}

func (s *sessionStoreStub) Create(ctx context.Context, tokenID string, userID uint, ttl time.Duration) error {
	if s.live == nil {
		s.live = make(map[string]bool)
	}
	s.live[tokenID] = true
	return nil
}

func (s *sessionStoreStub) Exists(ctx context.Context, tokenID string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.live[tokenID], nil
}

func (s *sessionStoreStub) Delete(ctx context.Context, tokenID string) error {
	delete(s.live, tokenID)
	return nil
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func protectedApp(handler fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Get("/protected", handler, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id":   c.Locals("user_id"),
			"user_role": c.Locals("user_role"),
			"token_id":  c.Locals("token_id"),
		})
	})
	return app
}

func doProtected(t *testing.T, app *fiber.App, authorization string) *http.Response {
	t.Helper()

	request := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		request.Header.Set("Authorization", authorization)
	}
	response, err := app.Test(request)
	require.NoError(t, err)
	return response
}

func TestJWTProtectedRejectsMissingHeader(t *testing.T) {
	app := protectedApp(JWTProtected(testSecret, nil))

	response := doProtected(t, app, "")
	require.Equal(t, fiber.StatusUnauthorized, response.StatusCode)
}

func TestJWTProtectedRejectsMalformedToken(t *testing.T) {
	app := protectedApp(JWTProtected(testSecret, nil))

	response := doProtected(t, app, "Bearer not-a-token")
	require.Equal(t, fiber.StatusUnauthorized, response.StatusCode)

	response = doProtected(t, app, "Basic abc")
	require.Equal(t, fiber.StatusUnauthorized, response.StatusCode)
}

func TestJWTProtectedRejectsWrongSecret(t *testing.T) {
	app := protectedApp(JWTProtected("other-secret", nil))

	token := signToken(t, jwt.MapClaims{
		"sub": float64(7),
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	response := doProtected(t, app, "Bearer "+token)
	require.Equal(t, fiber.StatusUnauthorized, response.StatusCode)
}

func TestJWTProtectedRejectsExpiredToken(t *testing.T) {
	app := protectedApp(JWTProtected(testSecret, nil))

	token := signToken(t, jwt.MapClaims{
		"sub": float64(7),
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	response := doProtected(t, app, "Bearer "+token)
	require.Equal(t, fiber.StatusUnauthorized, response.StatusCode)
}

func TestJWTProtectedSetsLocals(t *testing.T) {
	sessions := &sessionStoreStub{live: map[string]bool{"jti-1": true}}
	app := protectedApp(JWTProtected(testSecret, sessions))

	token := signToken(t, jwt.MapClaims{
		"sub":  float64(7),
		"role": "Teacher",
		"jti":  "jti-1",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	response := doProtected(t, app, "Bearer "+token)
	require.Equal(t, fiber.StatusOK, response.StatusCode)
}

func TestJWTProtectedRejectsRevokedSession(t *testing.T) {
	sessions := &sessionStoreStub{live: map[string]bool{}}
	app := protectedApp(JWTProtected(testSecret, sessions))

	token := signToken(t, jwt.MapClaims{
		"sub": float64(7),
		"jti": "jti-revoked",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	response := doProtected(t, app, "Bearer "+token)
	require.Equal(t, fiber.StatusUnauthorized, response.StatusCode)
}

func TestJWTProtectedRequiresTokenIDWhenStoreConfigured(t *testing.T) {
	sessions := &sessionStoreStub{live: map[string]bool{}}
	app := protectedApp(JWTProtected(testSecret, sessions))

	token := signToken(t, jwt.MapClaims{
		"sub": float64(7),
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	response := doProtected(t, app, "Bearer "+token)
	require.Equal(t, fiber.StatusUnauthorized, response.StatusCode)
}

func TestJWTProtectedSkipsSessionCheckWithoutStore(t *testing.T) {
	app := protectedApp(JWTProtected(testSecret, nil))

	token := signToken(t, jwt.MapClaims{
		"sub": "7",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	response := doProtected(t, app, "Bearer "+token)
	require.Equal(t, fiber.StatusOK, response.StatusCode)
}
