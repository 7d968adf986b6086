// internal/model/blacklist_store.go
package model

import (
	"amorbot/database"
	"amorbot/internal/fleet"
)

// SaveBlacklistEntry appends one entry to the persisted blacklist.
func SaveBlacklistEntry(e fleet.BlacklistEntry) error {
	db := database.AppDB
	_, err := db.Exec(
		`INSERT INTO blacklist_entries (partner_id, entry_date) VALUES ($1, $2)`,
		e.PartnerID, e.Date,
	)
	return err
}

// LoadBlacklist returns the newest entries up to the in-memory capacity,
// oldest first, so the restored cache matches the eviction window.
func LoadBlacklist() ([]fleet.BlacklistEntry, error) {
	db := database.AppDB

	query := `
		SELECT partner_id, entry_date FROM (
			SELECT id, partner_id, entry_date
			FROM blacklist_entries
			ORDER BY id DESC
			LIMIT $1
		) newest
		ORDER BY id ASC
	`

	rows, err := db.Query(query, fleet.BlacklistCapacity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []fleet.BlacklistEntry
	for rows.Next() {
		var e fleet.BlacklistEntry
		if err := rows.Scan(&e.PartnerID, &e.Date); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
