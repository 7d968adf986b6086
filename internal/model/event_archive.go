// internal/model/event_archive.go
package model

import (
	"log"

	"amorbot/database"
	"amorbot/internal/fleet"
)

// EventArchiver writes event-log entries to the archive DB (ArchiveDB may be
// the app DB when no separate archive is configured). Implements
// fleet.Archiver; the in-memory buffer never waits on it.
type EventArchiver struct{}

func NewEventArchiver() *EventArchiver {
	return &EventArchiver{}
}

func (EventArchiver) ArchiveEntry(entry fleet.LogEntry) {
	go func() {
		db := database.ArchiveDB
		if db == nil {
			return
		}

		query := `INSERT INTO event_archive (entry_id, kind, session_id, partner_id, partner_name, excerpt, happened_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`
		if database.ArchiveDriver == "mysql" {
			query = `INSERT INTO event_archive (entry_id, kind, session_id, partner_id, partner_name, excerpt, happened_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`
		}

		_, err := db.Exec(
			query,
			entry.ID,
			string(entry.Kind),
			entry.SessionID,
			entry.PartnerID,
			entry.PartnerName,
			entry.Excerpt,
			entry.At,
		)
		if err != nil {
			log.Printf("⚠️ Failed to archive event %d: %v", entry.ID, err)
		}
	}()
}
