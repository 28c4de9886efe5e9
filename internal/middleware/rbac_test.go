package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func roleApp(role interface{}, allowed ...string) *fiber.App {
	app := fiber.New()
	app.Get("/admin",
		func(c *fiber.Ctx) error {
			if role != nil {
				c.Locals("user_role", role)
			}
			return c.Next()
		},
		RequireRole(allowed...),
		func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusOK)
		},
	)
	return app
}

func getAdmin(t *testing.T, app *fiber.App) *http.Response {
	t.Helper()

	response, err := app.Test(httptest.NewRequest(http.MethodGet, "/admin", nil))
	require.NoError(t, err)
	return response
}

func TestRequireRoleAllowsMatchingRole(t *testing.T) {
	app := roleApp("teacher", "teacher")

	response := getAdmin(t, app)
	require.Equal(t, fiber.StatusOK, response.StatusCode)
}

func TestRequireRoleIsCaseInsensitive(t *testing.T) {
	app := roleApp(" Teacher ", "teacher")

	response := getAdmin(t, app)
	require.Equal(t, fiber.StatusOK, response.StatusCode)
}

func TestRequireRoleRejectsOtherRoles(t *testing.T) {
	app := roleApp("student", "teacher")

	response := getAdmin(t, app)
	require.Equal(t, fiber.StatusForbidden, response.StatusCode)
}

func TestRequireRoleRejectsMissingRole(t *testing.T) {
	app := roleApp(nil, "teacher")

	response := getAdmin(t, app)
	require.Equal(t, fiber.StatusForbidden, response.StatusCode)
}

func TestRequireRoleAcceptsAnyAllowedRole(t *testing.T) {
	app := roleApp("student", "teacher", "student")

	response := getAdmin(t, app)
	require.Equal(t, fiber.StatusOK, response.StatusCode)
}
