// internal/model/session_store.go
package model

import (
	"database/sql"
	"time"

	"amorbot/database"
	"amorbot/internal/fleet"
)

// SessionStore persists fleet sessions to the app DB. Implements
// fleet.SessionStore: the registry calls SaveSession on every change.
type SessionStore struct{}

func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

// SaveSession upserts one session row, keyed by the internal id.
func (SessionStore) SaveSession(s fleet.Session) error {
	db := database.AppDB

	query := `
		INSERT INTO profile_sessions
			(session_id, display_id, position, segment, used_ai, draft, translator_id, mode, connected, photo_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		ON CONFLICT (session_id) DO UPDATE SET
			display_id    = EXCLUDED.display_id,
			position      = EXCLUDED.position,
			segment       = EXCLUDED.segment,
			used_ai       = EXCLUDED.used_ai,
			draft         = EXCLUDED.draft,
			translator_id = EXCLUDED.translator_id,
			mode          = EXCLUDED.mode,
			connected     = EXCLUDED.connected,
			photo_url     = EXCLUDED.photo_url,
			updated_at    = NOW()
	`

	_, err := db.Exec(query,
		s.ID,
		s.DisplayID,
		s.Position,
		s.Segment,
		s.UsedAI,
		s.Draft,
		s.TranslatorID,
		string(s.Mode),
		s.Connected,
		sql.NullString{String: s.PhotoURL, Valid: s.PhotoURL != ""},
		s.CreatedAt,
	)
	return err
}

// DeleteSession removes the persisted row.
func (SessionStore) DeleteSession(sessionID string) error {
	db := database.AppDB
	_, err := db.Exec(`DELETE FROM profile_sessions WHERE session_id = $1`, sessionID)
	return err
}

// LoadAllSessions returns persisted sessions ordered by position, so the
// registry restores the original assignment order.
func (SessionStore) LoadAllSessions() ([]fleet.Session, error) {
	db := database.AppDB

	query := `
		SELECT session_id, display_id, position, segment, used_ai, draft, translator_id, mode, connected, photo_url, created_at
		FROM profile_sessions
		ORDER BY position ASC
	`

	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []fleet.Session
	for rows.Next() {
		var (
			s        fleet.Session
			mode     string
			photoURL sql.NullString
			created  time.Time
		)
		if err := rows.Scan(
			&s.ID,
			&s.DisplayID,
			&s.Position,
			&s.Segment,
			&s.UsedAI,
			&s.Draft,
			&s.TranslatorID,
			&mode,
			&s.Connected,
			&photoURL,
			&created,
		); err != nil {
			return nil, err
		}
		s.Mode = fleet.Mode(mode)
		s.PhotoURL = photoURL.String
		s.CreatedAt = created
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}
