package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adminTestContext(role string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/sessions/abc", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != "" {
		c.Set("role", role)
	}
	return c, rec
}

func TestRequireAdminAllowsAdmin(t *testing.T) {
	c, rec := adminTestContext("admin")

	called := false
	h := RequireAdmin(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	require.NoError(t, h(c))
	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAdminRejectsTranslator(t *testing.T) {
	c, rec := adminTestContext("translator")

	h := RequireAdmin(func(c echo.Context) error {
		t.Fatal("handler must not run for non-admin")
		return nil
	})

	require.NoError(t, h(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "FORBIDDEN")
}

func TestRequireAdminRejectsMissingRole(t *testing.T) {
	c, rec := adminTestContext("")

	h := RequireAdmin(func(c echo.Context) error {
		t.Fatal("handler must not run without a role")
		return nil
	})

	require.NoError(t, h(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
