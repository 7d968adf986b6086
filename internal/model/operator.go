// internal/model/operator.go
package model

import (
	"database/sql"
	"errors"
	"time"

	"amorbot/database"
)

// Operator is a human account on the dashboard: an admin or a translator
// owning a subset of profile sessions.
type Operator struct {
	ID           int64
	Username     string
	PasswordHash string
	FullName     sql.NullString
	Role         string // 'admin' or 'translator'
	IsActive     bool
	CreatedAt    time.Time
	LastLoginAt  sql.NullTime
}

// OperatorResponse is the JSON response format (without sensitive fields)
type OperatorResponse struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	FullName    string    `json:"full_name,omitempty"`
	Role        string    `json:"role"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	LastLoginAt time.Time `json:"last_login_at,omitempty"`
}

// CreateOperatorRequest is the request payload for creating a new operator
type CreateOperatorRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
	Role     string `json:"role,omitempty"` // defaults to 'translator'
}

var (
	ErrOperatorNotFound   = errors.New("operator not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// ToResponse converts Operator to OperatorResponse
func (o *Operator) ToResponse() OperatorResponse {
	resp := OperatorResponse{
		ID:        o.ID,
		Username:  o.Username,
		Role:      o.Role,
		IsActive:  o.IsActive,
		CreatedAt: o.CreatedAt,
	}
	if o.FullName.Valid {
		resp.FullName = o.FullName.String
	}
	if o.LastLoginAt.Valid {
		resp.LastLoginAt = o.LastLoginAt.Time
	}
	return resp
}

// CreateOperator inserts a new operator account
func CreateOperator(op *Operator) error {
	db := database.AppDB

	query := `
		INSERT INTO operators (username, password_hash, full_name, role, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	return db.QueryRow(
		query,
		op.Username,
		op.PasswordHash,
		op.FullName,
		op.Role,
		op.IsActive,
	).Scan(&op.ID, &op.CreatedAt)
}

// GetOperatorByUsername retrieves an operator by username
func GetOperatorByUsername(username string) (*Operator, error) {
	db := database.AppDB

	query := `
		SELECT id, username, password_hash, full_name, role, is_active, created_at, last_login_at
		FROM operators
		WHERE username = $1
	`

	op := &Operator{}
	err := db.QueryRow(query, username).Scan(
		&op.ID,
		&op.Username,
		&op.PasswordHash,
		&op.FullName,
		&op.Role,
		&op.IsActive,
		&op.CreatedAt,
		&op.LastLoginAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrOperatorNotFound
	}
	if err != nil {
		return nil, err
	}

	return op, nil
}

// GetOperatorByID retrieves an operator by id
func GetOperatorByID(id int64) (*Operator, error) {
	db := database.AppDB

	query := `
		SELECT id, username, password_hash, full_name, role, is_active, created_at, last_login_at
		FROM operators
		WHERE id = $1
	`

	op := &Operator{}
	err := db.QueryRow(query, id).Scan(
		&op.ID,
		&op.Username,
		&op.PasswordHash,
		&op.FullName,
		&op.Role,
		&op.IsActive,
		&op.CreatedAt,
		&op.LastLoginAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrOperatorNotFound
	}
	if err != nil {
		return nil, err
	}

	return op, nil
}

// UpdateLastLogin stamps the operator's last successful login
func UpdateLastLogin(id int64) error {
	db := database.AppDB
	_, err := db.Exec(`UPDATE operators SET last_login_at = NOW() WHERE id = $1`, id)
	return err
}
