// internal/handler/operator_auth.go
package handler

import (
	"errors"
	"net/http"

	"amorbot/internal/model"
	"amorbot/internal/service"

	"github.com/labstack/echo/v4"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// POST /register
func Register(c echo.Context) error {
	var req model.CreateOperatorRequest
	if err := c.Bind(&req); err != nil {
		return ErrorResponse(c, http.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	op, err := service.RegisterOperator(req)
	if err != nil {
		return ErrorResponse(c, http.StatusBadRequest, err.Error(), "REGISTRATION_FAILED", "")
	}

	return SuccessResponse(c, http.StatusCreated, "Operator registered", op.ToResponse())
}

// POST /login
func LoginOperator(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return ErrorResponse(c, http.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	op, err := service.AuthenticateOperator(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			return ErrorResponse(c, http.StatusUnauthorized, "Invalid username or password", "INVALID_CREDENTIALS", "")
		}
		return ErrorResponse(c, http.StatusUnauthorized, err.Error(), "LOGIN_FAILED", "")
	}

	accessToken, err := service.GenerateAccessToken(op)
	if err != nil {
		return ErrorResponse(c, http.StatusInternalServerError, "Failed to generate access token", "TOKEN_ERROR", err.Error())
	}

	refreshToken, err := service.GenerateRefreshTokenForOperator(op, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		return ErrorResponse(c, http.StatusInternalServerError, "Failed to generate refresh token", "TOKEN_ERROR", err.Error())
	}

	return SuccessResponse(c, http.StatusOK, "Login successful", map[string]interface{}{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"operator":      op.ToResponse(),
	})
}

// POST /refresh
func RefreshToken(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return ErrorResponse(c, http.StatusBadRequest, "Field 'refresh_token' is required", "INVALID_REQUEST", "")
	}

	accessToken, op, err := service.RefreshAccessToken(req.RefreshToken)
	if err != nil {
		return ErrorResponse(c, http.StatusUnauthorized, "Invalid or expired refresh token", "INVALID_REFRESH_TOKEN", err.Error())
	}

	return SuccessResponse(c, http.StatusOK, "Token refreshed", map[string]interface{}{
		"access_token": accessToken,
		"operator":     op.ToResponse(),
	})
}

// POST /api/logout
func LogoutOperator(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return ErrorResponse(c, http.StatusBadRequest, "Field 'refresh_token' is required", "INVALID_REQUEST", "")
	}

	if err := service.RevokeOperatorSession(req.RefreshToken); err != nil {
		return ErrorResponse(c, http.StatusInternalServerError, "Failed to revoke session", "LOGOUT_FAILED", err.Error())
	}

	return SuccessResponse(c, http.StatusOK, "Logged out", nil)
}

// GET /api/me
func GetCurrentOperator(c echo.Context) error {
	operatorID, _ := c.Get("operator_id").(int64)

	op, err := model.GetOperatorByID(operatorID)
	if err != nil {
		return ErrorResponse(c, http.StatusNotFound, "Operator not found", "NOT_FOUND", "")
	}

	return SuccessResponse(c, http.StatusOK, "OK", op.ToResponse())
}
