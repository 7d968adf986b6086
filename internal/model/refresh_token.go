// internal/model/refresh_token.go
package model

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"

	"amorbot/database"
)

// RefreshToken represents a refresh token for maintaining operator logins
type RefreshToken struct {
	ID         int64
	OperatorID int64
	Token      string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	Revoked    bool
	IPAddress  sql.NullString
	UserAgent  sql.NullString
}

var (
	ErrTokenNotFound = errors.New("refresh token not found")
	ErrTokenExpired  = errors.New("refresh token expired")
	ErrTokenRevoked  = errors.New("refresh token revoked")
)

// GenerateRefreshToken generates a random refresh token string
func GenerateRefreshToken() (string, error) {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// CreateRefreshToken inserts a new refresh token into the database
func CreateRefreshToken(rt *RefreshToken) error {
	db := database.AppDB

	query := `
		INSERT INTO refresh_tokens (operator_id, token, expires_at, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	return db.QueryRow(
		query,
		rt.OperatorID,
		rt.Token,
		rt.ExpiresAt,
		rt.IPAddress,
		rt.UserAgent,
	).Scan(&rt.ID, &rt.CreatedAt)
}

// GetRefreshToken retrieves a refresh token by token string
func GetRefreshToken(token string) (*RefreshToken, error) {
	db := database.AppDB

	query := `
		SELECT id, operator_id, token, expires_at, created_at, revoked, ip_address, user_agent
		FROM refresh_tokens
		WHERE token = $1
	`

	rt := &RefreshToken{}
	err := db.QueryRow(query, token).Scan(
		&rt.ID,
		&rt.OperatorID,
		&rt.Token,
		&rt.ExpiresAt,
		&rt.CreatedAt,
		&rt.Revoked,
		&rt.IPAddress,
		&rt.UserAgent,
	)

	if err == sql.ErrNoRows {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}

	if rt.Revoked {
		return nil, ErrTokenRevoked
	}

	if time.Now().After(rt.ExpiresAt) {
		return nil, ErrTokenExpired
	}

	return rt, nil
}

// RevokeRefreshToken marks a refresh token as revoked
func RevokeRefreshToken(token string) error {
	db := database.AppDB
	_, err := db.Exec(`UPDATE refresh_tokens SET revoked = true WHERE token = $1`, token)
	return err
}

// GetOperatorTokenCount counts live (non-revoked, non-expired) tokens
func GetOperatorTokenCount(operatorID int64) (int, error) {
	db := database.AppDB

	var count int
	err := db.QueryRow(`
		SELECT COUNT(*)
		FROM refresh_tokens
		WHERE operator_id = $1 AND revoked = false AND expires_at > NOW()
	`, operatorID).Scan(&count)

	return count, err
}

// DeleteOldestOperatorToken drops the oldest live token for an operator
func DeleteOldestOperatorToken(operatorID int64) error {
	db := database.AppDB

	_, err := db.Exec(`
		DELETE FROM refresh_tokens
		WHERE id = (
			SELECT id FROM refresh_tokens
			WHERE operator_id = $1 AND revoked = false
			ORDER BY created_at ASC
			LIMIT 1
		)
	`, operatorID)

	return err
}
