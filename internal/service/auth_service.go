// internal/service/auth_service.go
package service

import (
	"database/sql"
	"errors"
	"os"
	"strconv"
	"time"

	"amorbot/internal/helper"
	"amorbot/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

// JWT configuration
var (
	jwtSecret                   []byte
	accessTokenExpiry           time.Duration
	refreshTokenExpiry          time.Duration
	maxRefreshTokensPerOperator int
)

// InitAuthConfig initializes authentication configuration from environment variables
func InitAuthConfig(secret string) {
	jwtSecret = []byte(secret)

	accessExp := os.Getenv("JWT_ACCESS_TOKEN_EXPIRY")
	if accessExp == "" {
		accessExp = "1h"
	}
	accessTokenExpiry, _ = time.ParseDuration(accessExp)

	refreshExp := os.Getenv("JWT_REFRESH_TOKEN_EXPIRY")
	if refreshExp == "" {
		refreshExp = "168h" // 7 days
	}
	refreshTokenExpiry, _ = time.ParseDuration(refreshExp)

	maxTokens := os.Getenv("MAX_REFRESH_TOKENS_PER_OPERATOR")
	if maxTokens == "" {
		maxRefreshTokensPerOperator = 5
	} else {
		maxRefreshTokensPerOperator, _ = strconv.Atoi(maxTokens)
	}
}

// Claims represents JWT claims
type Claims struct {
	OperatorID int64  `json:"operator_id"`
	Username   string `json:"username"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// RegisterOperator creates a new operator account
func RegisterOperator(req model.CreateOperatorRequest) (*model.Operator, error) {
	if req.Username == "" || req.Password == "" {
		return nil, errors.New("username and password are required")
	}

	existing, _ := model.GetOperatorByUsername(req.Username)
	if existing != nil {
		return nil, errors.New("username already exists")
	}

	passwordHash, err := helper.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = "translator"
	}
	if role != "admin" && role != "translator" {
		return nil, errors.New("invalid role")
	}

	op := &model.Operator{
		Username:     req.Username,
		PasswordHash: passwordHash,
		FullName:     sql.NullString{String: req.FullName, Valid: req.FullName != ""},
		Role:         role,
		IsActive:     true,
	}

	if err := model.CreateOperator(op); err != nil {
		return nil, err
	}

	return op, nil
}

// AuthenticateOperator validates username/password and returns the operator if valid
func AuthenticateOperator(username, password string) (*model.Operator, error) {
	op, err := model.GetOperatorByUsername(username)
	if err != nil {
		if err == model.ErrOperatorNotFound {
			return nil, model.ErrInvalidCredentials
		}
		return nil, err
	}

	if !op.IsActive {
		return nil, errors.New("operator account is disabled")
	}

	if err := helper.VerifyPassword(op.PasswordHash, password); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	_ = model.UpdateLastLogin(op.ID)

	return op, nil
}

// GenerateAccessToken generates a JWT access token for an operator
func GenerateAccessToken(op *model.Operator) (string, error) {
	expirationTime := time.Now().Add(accessTokenExpiry)

	claims := &Claims{
		OperatorID: op.ID,
		Username:   op.Username,
		Role:       op.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// GenerateRefreshTokenForOperator generates a refresh token and stores it in database
func GenerateRefreshTokenForOperator(op *model.Operator, ipAddress, userAgent string) (string, error) {
	tokenCount, err := model.GetOperatorTokenCount(op.ID)
	if err != nil {
		return "", err
	}

	// Too many live tokens: drop the oldest one
	if tokenCount >= maxRefreshTokensPerOperator {
		_ = model.DeleteOldestOperatorToken(op.ID)
	}

	tokenString, err := model.GenerateRefreshToken()
	if err != nil {
		return "", err
	}

	refreshToken := &model.RefreshToken{
		OperatorID: op.ID,
		Token:      tokenString,
		ExpiresAt:  time.Now().Add(refreshTokenExpiry),
		IPAddress:  sql.NullString{String: ipAddress, Valid: ipAddress != ""},
		UserAgent:  sql.NullString{String: userAgent, Valid: userAgent != ""},
	}

	if err := model.CreateRefreshToken(refreshToken); err != nil {
		return "", err
	}

	return tokenString, nil
}

// RefreshAccessToken validates a refresh token and generates a new access token
func RefreshAccessToken(refreshTokenString string) (string, *model.Operator, error) {
	refreshToken, err := model.GetRefreshToken(refreshTokenString)
	if err != nil {
		return "", nil, err
	}

	op, err := model.GetOperatorByID(refreshToken.OperatorID)
	if err != nil {
		return "", nil, err
	}

	if !op.IsActive {
		return "", nil, errors.New("operator account is disabled")
	}

	accessToken, err := GenerateAccessToken(op)
	if err != nil {
		return "", nil, err
	}

	return accessToken, op, nil
}

// ValidateAccessToken validates a JWT access token and returns its claims
func ValidateAccessToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

// RevokeOperatorSession revokes a refresh token (logout)
func RevokeOperatorSession(refreshToken string) error {
	return model.RevokeRefreshToken(refreshToken)
}
