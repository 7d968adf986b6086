// internal/handler/response.go
package handler

import (
	"github.com/labstack/echo/v4"
)

// ErrorResponse is the shared error format for all endpoints
func ErrorResponse(c echo.Context, code int, message, errCode, detail string) error {
	body := map[string]interface{}{
		"success": false,
		"message": message,
		"error": map[string]string{
			"code": errCode,
		},
	}
	if detail != "" {
		body["error"].(map[string]string)["detail"] = detail
	}
	return c.JSON(code, body)
}

// SuccessResponse is the shared success format for all endpoints
func SuccessResponse(c echo.Context, code int, message string, data interface{}) error {
	body := map[string]interface{}{
		"success": true,
		"message": message,
	}
	if data != nil {
		body["data"] = data
	}
	return c.JSON(code, body)
}
