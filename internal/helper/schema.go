// internal/helper/schema.go
package helper

import (
	"log"

	"amorbot/database"
)

func InitCustomSchema() {
	db := database.AppDB

	baseSchema := `
        CREATE TABLE IF NOT EXISTS operators (
            id              SERIAL PRIMARY KEY,
            username        VARCHAR(255) UNIQUE NOT NULL,
            password_hash   TEXT NOT NULL,
            full_name       VARCHAR(255),
            role            VARCHAR(50) NOT NULL DEFAULT 'translator',
            is_active       BOOLEAN NOT NULL DEFAULT true,
            created_at      TIMESTAMP NOT NULL DEFAULT NOW(),
            last_login_at   TIMESTAMP
        );

        CREATE TABLE IF NOT EXISTS refresh_tokens (
            id              SERIAL PRIMARY KEY,
            operator_id     BIGINT NOT NULL REFERENCES operators(id) ON DELETE CASCADE,
            token           VARCHAR(64) UNIQUE NOT NULL,
            expires_at      TIMESTAMP NOT NULL,
            created_at      TIMESTAMP NOT NULL DEFAULT NOW(),
            revoked         BOOLEAN NOT NULL DEFAULT false,
            ip_address      VARCHAR(64),
            user_agent      TEXT
        );

        CREATE INDEX IF NOT EXISTS idx_refresh_tokens_operator ON refresh_tokens(operator_id);
    `
	if _, err := db.Exec(baseSchema); err != nil {
		log.Fatalf("failed to init base schema: %v", err)
	}

	fleetSchema := `
        CREATE TABLE IF NOT EXISTS profile_sessions (
            id              SERIAL PRIMARY KEY,
            session_id      VARCHAR(64) UNIQUE NOT NULL,
            display_id      VARCHAR(255) UNIQUE NOT NULL,
            position        INT NOT NULL,
            segment         VARCHAR(50) NOT NULL DEFAULT 'payers',
            used_ai         BOOLEAN NOT NULL DEFAULT false,
            draft           TEXT NOT NULL DEFAULT '',
            translator_id   BIGINT,
            mode            VARCHAR(10) NOT NULL DEFAULT 'mail',
            connected       BOOLEAN NOT NULL DEFAULT false,
            photo_url       TEXT,
            created_at      TIMESTAMP NOT NULL DEFAULT NOW(),
            updated_at      TIMESTAMP NOT NULL DEFAULT NOW()
        );

        CREATE INDEX IF NOT EXISTS idx_profile_sessions_position ON profile_sessions(position);
        CREATE INDEX IF NOT EXISTS idx_profile_sessions_translator ON profile_sessions(translator_id);

        CREATE TABLE IF NOT EXISTS blacklist_entries (
            id              SERIAL PRIMARY KEY,
            partner_id      VARCHAR(255) NOT NULL,
            entry_date      VARCHAR(10) NOT NULL,
            created_at      TIMESTAMP NOT NULL DEFAULT NOW()
        );

        CREATE INDEX IF NOT EXISTS idx_blacklist_entries_date ON blacklist_entries(entry_date);
    `
	if _, err := db.Exec(fleetSchema); err != nil {
		log.Fatalf("failed to init fleet schema: %v", err)
	}

	// Event archive lives on ArchiveDB (may be a separate server, possibly MySQL)
	archiveSchema := `
        CREATE TABLE IF NOT EXISTS event_archive (
            id              SERIAL PRIMARY KEY,
            entry_id        BIGINT NOT NULL,
            kind            VARCHAR(30) NOT NULL,
            session_id      VARCHAR(64) NOT NULL,
            partner_id      VARCHAR(255),
            partner_name    VARCHAR(255),
            excerpt         TEXT,
            happened_at     TIMESTAMP NOT NULL
        );

        CREATE INDEX IF NOT EXISTS idx_event_archive_session ON event_archive(session_id);
        CREATE INDEX IF NOT EXISTS idx_event_archive_kind ON event_archive(kind);
    `
	if database.ArchiveDriver == "mysql" {
		archiveSchema = `
        CREATE TABLE IF NOT EXISTS event_archive (
            id              BIGINT AUTO_INCREMENT PRIMARY KEY,
            entry_id        BIGINT NOT NULL,
            kind            VARCHAR(30) NOT NULL,
            session_id      VARCHAR(64) NOT NULL,
            partner_id      VARCHAR(255),
            partner_name    VARCHAR(255),
            excerpt         TEXT,
            happened_at     TIMESTAMP NOT NULL,
            INDEX idx_event_archive_session (session_id),
            INDEX idx_event_archive_kind (kind)
        );
    `
	}
	if database.ArchiveDB != nil {
		if _, err := database.ArchiveDB.Exec(archiveSchema); err != nil {
			log.Printf("⚠️ Warning: failed to init archive schema: %v", err)
		}
	}

	log.Println("Custom schema ensured")
}
